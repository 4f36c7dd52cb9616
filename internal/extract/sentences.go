package extract

import (
	"strings"
	"unicode"
)

// splitSentences breaks text after runs of . ! or ? that are followed by
// whitespace or the end of the text. Decimals such as "3.5" stay intact.
// Each sentence keeps its terminal punctuation and is trimmed.
func splitSentences(text string) []string {
	var out []string
	runes := []rune(text)
	start := 0
	for i := 0; i < len(runes); i++ {
		if !isTerminal(runes[i]) {
			continue
		}
		j := i
		for j+1 < len(runes) && isTerminal(runes[j+1]) {
			j++
		}
		if j+1 == len(runes) || unicode.IsSpace(runes[j+1]) {
			if s := strings.TrimSpace(string(runes[start : j+1])); s != "" {
				out = append(out, s)
			}
			start = j + 1
		}
		i = j
	}
	if s := strings.TrimSpace(string(runes[start:])); s != "" {
		out = append(out, s)
	}
	return out
}

func isTerminal(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

// endsWithTerminal reports whether s ends in . ! or ?
func endsWithTerminal(s string) bool {
	return s != "" && isTerminal(rune(s[len(s)-1]))
}

func runeLen(s string) int {
	return len([]rune(s))
}

// truncateRunes cuts s to n runes
func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
