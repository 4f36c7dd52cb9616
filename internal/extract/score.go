package extract

import (
	"encoding/json"
	"math"
	"regexp"
	"strings"

	"neuralflux/internal/model"
)

const unavailableDetails = "Analysis unavailable"

var codeFence = regexp.MustCompile("(?m)^\\s*```[a-zA-Z]*\\s*$")

type scoreMetricJSON struct {
	Score   *float64 `json:"score"`
	Details string   `json:"details"`
}

type scoreJSON struct {
	TotalScore     *float64         `json:"totalScore"`
	TopicRelevance *scoreMetricJSON `json:"topicRelevance"`
	Formalness     *scoreMetricJSON `json:"formalness"`
	AILikeness     *scoreMetricJSON `json:"aiLikeness"`
	Grammar        *scoreMetricJSON `json:"grammar"`
	Structure      *scoreMetricJSON `json:"structure"`
	Vocabulary     *scoreMetricJSON `json:"vocabulary"`
}

// ScoreJSON pulls the first usable score object out of raw oracle output.
// Scores are rounded but not clamped and TotalScore is copied as reported;
// callers own normalization.
func ScoreJSON(raw string) (*model.ScoreReport, error) {
	text := strings.TrimSpace(codeFence.ReplaceAllString(raw, ""))

	if start, end := strings.Index(text, "{"), strings.LastIndex(text, "}"); start >= 0 && end > start {
		if r, ok := decodeScore(text[start : end+1]); ok {
			return r, nil
		}
	}
	for _, candidate := range balancedObjects(text) {
		if r, ok := decodeScore(candidate); ok {
			return r, nil
		}
	}
	return nil, ErrUnparsableJSON
}

func decodeScore(candidate string) (*model.ScoreReport, bool) {
	var s scoreJSON
	if err := json.Unmarshal([]byte(candidate), &s); err != nil {
		return nil, false
	}
	if s.TotalScore == nil {
		return nil, false
	}
	parts := []*scoreMetricJSON{s.TopicRelevance, s.Formalness, s.AILikeness, s.Grammar, s.Structure, s.Vocabulary}
	for _, p := range parts {
		if p == nil || p.Score == nil {
			return nil, false
		}
	}
	if d := strings.TrimSpace(s.Formalness.Details); d == "" || d == unavailableDetails {
		return nil, false
	}

	r := &model.ScoreReport{TotalScore: round(*s.TotalScore), Source: model.SourceOracle}
	for i, m := range r.Metrics.All() {
		m.Score = round(*parts[i].Score)
		m.Details = strings.TrimSpace(parts[i].Details)
	}
	return r, true
}

// balancedObjects returns every top-level {...} span in text, skipping
// braces inside JSON strings.
func balancedObjects(text string) []string {
	var out []string
	depth, start := 0, -1
	inString, escaped := false, false
	for i := 0; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			if depth > 0 {
				inString = true
			}
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth > 0 {
				depth--
				if depth == 0 {
					out = append(out, text[start:i+1])
				}
			}
		}
	}
	return out
}

func round(f float64) int {
	return int(math.Round(f))
}
