package extract

import (
	"regexp"
	"strings"
)

const (
	minQuestionChars = 10
	minClauseChars   = 20
	minQuestionMark  = 10
)

// Vocabulary that still signals leaked reasoning after the lead-ins are gone
var questionReasoning = []string{
	"the user wants", "let me think", "maybe something",
	"first, the type", "the type is", "the scenario should", "so the user",
	"evoke", "the user might", "request could be", "question could be",
	"should involve", "entails",
}

var (
	quotedSpan     = regexp.MustCompile(`["']([^"']{15,})["']`)
	afterReasoning = regexp.MustCompile(`[.,:]\s*([^.!?]{15,}[?!]|[^.!?]{30,})`)
)

// QuestionRules is the cleaning pipeline for generated user requests, in
// the order it runs.
var QuestionRules = []Rule{
	{Name: "unquote", Apply: unquote},
	{Name: "label-prefix", Apply: func(s string) string { return labelPrefix.ReplaceAllString(s, "") }},
	{Name: "attribution-prefix", Apply: func(s string) string { return attributionPrefix.ReplaceAllString(s, "") }},
	{Name: "reasoning-lead-in", Apply: stripPrefixes(questionLeadIns)},
	{Name: "first-person-lead-in", Apply: guardedLeadIn(questionGuarded, questionMarkers)},
	{Name: "meta-commentary", Apply: stripIfRemains(metaCommentary)},
	{Name: "first-clause", Apply: firstClause},
	{Name: "reasoning-recovery", Apply: recoverFromReasoning},
}

// Question extracts the user request text from raw oracle output
func Question(raw string) (string, error) {
	cleaned := Run(raw, QuestionRules)
	if runeLen(cleaned) < minQuestionChars {
		return "", ErrTooShort
	}
	if runeLen(cleaned) > 320 {
		cleaned = strings.TrimSpace(truncateRunes(cleaned, 317)) + "..."
	}
	return cleaned, nil
}

// firstClause keeps the first sentence that asks or exclaims, or else the
// first sentence long enough to stand as a request on its own.
func firstClause(s string) string {
	sentences := splitSentences(s)
	for _, sent := range sentences {
		if (strings.HasSuffix(sent, "?") || strings.HasSuffix(sent, "!")) && runeLen(strings.TrimRight(sent, "?!")) >= minQuestionMark {
			return sent
		}
	}
	for _, sent := range sentences {
		if runeLen(strings.TrimRight(sent, ".!?")) >= minClauseChars {
			return sent
		}
	}
	return s
}

// recoverFromReasoning tries, in order: a quoted span, the text after a
// reasoning clause, and dropping a reasoning first sentence.
func recoverFromReasoning(s string) string {
	if !containsAny(s, questionReasoning) {
		return s
	}
	if m := quotedSpan.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	if loc := afterReasoning.FindStringSubmatchIndex(s); loc != nil && containsAny(s[:loc[0]], questionReasoning) {
		return strings.TrimSpace(s[loc[2]:loc[3]])
	}
	sentences := splitSentences(s)
	if len(sentences) > 1 && looksLikeQuestionReasoning(sentences[0]) {
		return strings.Join(sentences[1:], " ")
	}
	return s
}

func looksLikeQuestionReasoning(sentence string) bool {
	return containsAny(sentence, questionReasoning) ||
		containsAny(sentence, []string{"think", "generate", "maybe", "should", "type is"})
}
