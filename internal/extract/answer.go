package extract

import (
	"strings"
)

const (
	minAnswerChars       = 20
	maxAnswerChars       = 1500
	minFilteredChars     = 50
	minCutIndex          = 100
	ellipsisCutFraction  = 0.7
	unterminatedMinChars = 50
)

// Sentences that narrate how the answer is being written rather than
// answering anything.
var answerNarration = []string{
	"let me start", "first, i should", "i need to consider",
	"the user might want", "the key points", "maybe start with",
	"i should consider", "using transition words as specified",
	"i need to make sure",
}

var narrationOpeners = []string{"they want", "the user wants"}

// AnswerRules is the cleaning pipeline for generated exemplar answers
var AnswerRules = []Rule{
	{Name: "reasoning-lead-in", Apply: stripPrefixes(answerLeadIns)},
	{Name: "first-person-lead-in", Apply: guardedLeadIn(answerGuarded, answerMarkers)},
	{Name: "narration-filter", Apply: dropNarration},
	{Name: "length-cap", Apply: capLength},
	{Name: "ellipsis", Apply: resolveEllipsis},
	{Name: "quote-balance", Apply: balanceQuotes},
}

// IsIncomplete reports whether text looks cut off mid-generation
func IsIncomplete(text string) bool {
	t := strings.TrimSpace(text)
	switch {
	case strings.HasSuffix(t, `\`), strings.HasSuffix(t, ","):
		return true
	case strings.Count(t, `"`)%2 == 1:
		return true
	case runeLen(t) > unterminatedMinChars && !endsWithTerminal(t) && !strings.HasSuffix(t, `"`):
		return true
	}
	return false
}

// Answer extracts an exemplar answer and rejects output that looks cut off.
// Callers that have no retries left should use RepairAnswer instead.
func Answer(raw string) (string, error) {
	t := strings.TrimSpace(raw)
	if runeLen(t) < minAnswerChars {
		return "", ErrTooShort
	}
	if IsIncomplete(t) {
		return "", ErrIncomplete
	}
	return RepairAnswer(t)
}

// RepairAnswer cleans the answer and patches a truncated ending where it
// can. It fails with ErrStillIncomplete when the text ends mid-token.
func RepairAnswer(raw string) (string, error) {
	cleaned := Run(raw, AnswerRules)
	if runeLen(cleaned) < minAnswerChars {
		return "", ErrTooShort
	}
	if strings.HasSuffix(cleaned, `\`) || strings.HasSuffix(cleaned, ",") {
		return "", ErrStillIncomplete
	}
	if !endsWithTerminal(cleaned) && !strings.HasSuffix(cleaned, `"`) {
		cleaned += "."
	}
	return cleaned, nil
}

func dropNarration(s string) string {
	sentences := splitSentences(s)
	kept := make([]string, 0, len(sentences))
	for _, sent := range sentences {
		if isNarration(sent) {
			continue
		}
		kept = append(kept, sent)
	}
	out := strings.Join(kept, " ")
	if runeLen(out) < minFilteredChars {
		return s
	}
	return out
}

func isNarration(sentence string) bool {
	lower := strings.ToLower(strings.TrimSpace(sentence))
	for _, o := range narrationOpeners {
		if strings.HasPrefix(lower, o) {
			return true
		}
	}
	return containsAny(lower, answerNarration)
}

// capLength cuts long answers back to the last complete sentence, or the
// last word when no sentence end is far enough in.
func capLength(s string) string {
	if runeLen(s) <= maxAnswerChars {
		return s
	}
	cut := []rune(s)[:maxAnswerChars]
	if i := lastTerminal(cut); i > minCutIndex {
		return string(cut[:i+1])
	}
	if i := lastRune(cut, ' '); i > minCutIndex {
		return string(cut[:i])
	}
	return string(cut)
}

// resolveEllipsis removes a trailing ellipsis. If a sentence ends late
// enough in the text the answer is cut there, otherwise it gets a period.
func resolveEllipsis(s string) string {
	var body string
	switch {
	case strings.HasSuffix(s, "..."):
		body = strings.TrimRight(s, ".")
	case strings.HasSuffix(s, "…"):
		body = strings.TrimSuffix(s, "…")
	default:
		return s
	}
	body = strings.TrimSpace(body)
	runes := []rune(body)
	if i := lastTerminal(runes); i >= 0 && float64(i) > ellipsisCutFraction*float64(len(runes)) {
		return string(runes[:i+1])
	}
	if body == "" {
		return body
	}
	return body + "."
}

// balanceQuotes drops the last double quote when they do not pair up
func balanceQuotes(s string) string {
	if strings.Count(s, `"`)%2 == 0 {
		return s
	}
	i := strings.LastIndex(s, `"`)
	return s[:i] + s[i+1:]
}

func lastTerminal(runes []rune) int {
	for i := len(runes) - 1; i >= 0; i-- {
		if isTerminal(runes[i]) {
			return i
		}
	}
	return -1
}

func lastRune(runes []rune, r rune) int {
	for i := len(runes) - 1; i >= 0; i-- {
		if runes[i] == r {
			return i
		}
	}
	return -1
}
