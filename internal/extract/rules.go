// Package extract turns free-form oracle output into the clean artifact a
// caller asked for: a user request, an assistant answer or a score report.
package extract

import (
	"errors"
	"regexp"
	"strings"
)

var (
	ErrTooShort        = errors.New("extracted text is too short")
	ErrIncomplete      = errors.New("response appears cut off")
	ErrStillIncomplete = errors.New("response still incomplete after repair")
	ErrUnparsableJSON  = errors.New("no usable score JSON in response")
)

// Rule is one named text transformation. Rules run in a fixed order.
type Rule struct {
	Name  string
	Apply func(string) string
}

// Run applies rules in order and returns the trimmed result
func Run(text string, rules []Rule) string {
	for _, r := range rules {
		text = strings.TrimSpace(r.Apply(text))
	}
	return text
}

// Lookup returns the rule with the given name from rules
func Lookup(rules []Rule, name string) (Rule, bool) {
	for _, r := range rules {
		if r.Name == name {
			return r, true
		}
	}
	return Rule{}, false
}

// stripPrefixes removes each matching pattern once, in order
func stripPrefixes(patterns []*regexp.Regexp) func(string) string {
	return func(s string) string {
		for _, p := range patterns {
			s = strings.TrimSpace(p.ReplaceAllString(s, ""))
		}
		return s
	}
}

// stripIfRemains removes the first match of p only when text is left over
func stripIfRemains(patterns []*regexp.Regexp) func(string) string {
	return func(s string) string {
		for _, p := range patterns {
			if out := strings.TrimSpace(p.ReplaceAllString(s, "")); out != "" && out != s {
				s = out
			}
		}
		return s
	}
}

func anchored(prefixes ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(prefixes))
	for _, p := range prefixes {
		out = append(out, regexp.MustCompile(`(?i)^`+p))
	}
	return out
}

// Lead-ins that never open a genuine user request or assistant answer.
var questionLeadIns = anchored(
	`okay\b,?\s*`,
	`the user wants me to\s+`,
	`first of all,?\s*`,
	`first,\s*`,
	`to start,\s*`,
	`to begin,\s*`,
	`the type is\s+`,
	`the scenario should\s+`,
	`now,\s*`,
	`by understanding\s+`,
	`starting by\s+`,
)

var answerLeadIns = anchored(
	`okay\b,?\s*`,
	`let me start by\s+`,
	`i need to consider\s+`,
	`the user might\s+`,
)

// First-person lead-ins that real users also write ("I need to file my
// taxes"). They are only treated as leaked reasoning when their sentence
// carries reasoning vocabulary.
var (
	questionGuarded = regexp.MustCompile(`(?i)^(let me start|let me|i need to|i should|i'll|i will|i'm going to|i am going to|this should|it should|so the)\s+`)
	answerGuarded   = regexp.MustCompile(`(?i)^(let me|first,|i should|i need to|maybe|the key points?)\s+`)

	questionMarkers = []string{"understand", "generate", "the user", "think", "come up with", "scenario", "difficulty", "make sure", "craft", "brainstorm", "type is"}
	answerMarkers   = []string{"the user", "i should", "i need to", "let me", "the key point", "make sure", "transition word", "understand", "consider", "respond", "response"}
)

// guardedLeadIn drops a leaked-reasoning opening. When the reasoning
// sentence is followed by more text the whole sentence goes, otherwise
// only the lead-in itself.
func guardedLeadIn(prefix *regexp.Regexp, markers []string) func(string) string {
	return func(s string) string {
		loc := prefix.FindStringIndex(s)
		if loc == nil {
			return s
		}
		sentences := splitSentences(s)
		if len(sentences) == 0 || !containsAny(sentences[0], markers) {
			return s
		}
		if len(sentences) > 1 {
			return strings.Join(sentences[1:], " ")
		}
		return s[loc[1]:]
	}
}

// Leading declarative sentences that only describe the generation task.
// They never cross a sentence boundary and never consume a question.
var metaCommentary = anchored(
	`[^.?!]*\bgenerate\b[^.?!]*\brequest\b[^.?!]*\.\s+`,
	`[^.?!]*\bthink about\b[^.?!]*\.\s+`,
	`[^.?!]*\bentails\b[^.?!]*\.\s+`,
	`[^.?!]*\bmaybe\b[^.?!]*\blike\b[^.?!]*\.\s+`,
	`[^.?!]*\bevoke\b[^.?!]*\bemotion[^.?!]*\.\s+`,
	`[^.?!]*\bthe user might\b[^.?!]*\.\s+`,
	`[^.?!]*\bshould involve\b[^.?!]*\.\s+`,
	`[^.?!]*\blet me start by\b[^.?!]*\.\s+`,
	`[^.?!]*\bi need to understand\b[^.?!]*\.\s+`,
	`[^.?!]*\bby understanding the requirements\b[^.?!]*\.\s+`,
)

var (
	labelPrefix       = regexp.MustCompile(`(?i)^(question|scenario|request|user|prompt|task)\s*:\s*`)
	attributionPrefix = regexp.MustCompile(`(?i)^(the user asks|the user wants|user asks|user wants)\s*:\s*`)
)

// unquote strips one layer of matching surrounding quotes
func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if (first == '"' && last == '"') || (first == '\'' && last == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

func containsAny(s string, needles []string) bool {
	lower := strings.ToLower(s)
	for _, n := range needles {
		if strings.Contains(lower, n) {
			return true
		}
	}
	return false
}
