package service

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"unicode"

	"neuralflux/internal/config"
	"neuralflux/internal/model"
)

var formalWords = []string{
	"furthermore", "additionally", "moreover", "therefore", "however",
	"comprehensive", "systematic", "consequently", "nevertheless",
}

var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true, "but": true,
	"in": true, "on": true, "at": true, "to": true, "for": true, "of": true,
	"with": true, "by": true, "is": true, "are": true, "was": true, "were": true,
	"what": true, "how": true, "why": true, "when": true, "where": true,
	"can": true, "could": true, "should": true, "would": true, "help": true,
	"me": true, "you": true,
}

var clauseSplit = regexp.MustCompile(`[.!?]+`)

// Heuristics scores answers offline and applies the shared score
// post-processing to every report, whatever produced it.
type Heuristics struct {
	cfg config.ScoringConfig
}

// NewHeuristics creates a new heuristic scorer
func NewHeuristics(cfg config.ScoringConfig) *Heuristics {
	return &Heuristics{cfg: cfg}
}

// IntelligentFallback scores userAnswer against the exemplar and question
// without any network dependency. Every detail string is built from the
// same counts that produced its score.
func (h *Heuristics) IntelligentFallback(userAnswer, exemplar, question string) model.ScoreReport {
	words := wordCount(userAnswer)
	answerLen := len([]rune(userAnswer))
	exemplarLen := len([]rune(exemplar))

	keywords := questionKeywords(question)
	matched := matchedKeywords(userAnswer, keywords)
	topic := 0
	if len(keywords) > 0 {
		topic = roundScore(float64(len(matched)) / float64(len(keywords)) * model.MaxTopicRelevance)
	}

	found := formalWordsIn(userAnswer)
	lengthBonus := 20
	if answerLen > 100 {
		lengthBonus = 50
	}
	formal := min(model.MaxFormalness, len(found)*30+lengthBonus)

	lengthRatio := math.Min(1, float64(answerLen)/float64(max(exemplarLen, 1)))
	aiLike := roundScore(lengthRatio * model.MaxAILikeness)

	capitalized := hasUpper(userAnswer)
	punctuated := endsWithPunctuation(userAnswer)
	grammar := 80
	switch {
	case capitalized && punctuated:
		grammar = 150
	case capitalized || punctuated:
		grammar = 120
	}

	sentences := sentenceCount(userAnswer)
	structure := min(model.MaxStructure, sentences*25)

	vocab := 50
	if words > 10 {
		vocab = 100
	}
	vocab += len(found) * 20
	if words > 20 {
		vocab += 30
	}
	vocab = min(model.MaxVocabulary, vocab)

	report := model.ScoreReport{
		Metrics: model.Metrics{
			TopicRelevance: model.Metric{Score: topic, Details: topicDetails(len(matched), len(keywords), topic)},
			Formalness:     model.Metric{Score: formal, Details: formalDetails(found)},
			AILikeness:     model.Metric{Score: aiLike, Details: lengthDetails(lengthRatio, answerLen, exemplarLen)},
			Grammar:        model.Metric{Score: grammar, Details: h.grammarDetails(words, capitalized, punctuated)},
			Structure:      model.Metric{Score: structure, Details: structureDetails(sentences, words)},
			Vocabulary:     model.Metric{Score: vocab, Details: vocabularyDetails(words)},
		},
		UserAnswer:     userAnswer,
		ExemplarAnswer: exemplar,
		Source:         model.SourceHeuristic,
	}
	h.PostProcess(&report, userAnswer)
	return report
}

// PostProcess clamps every metric, applies the brevity penalty to grammar,
// gates the other metrics on topic relevance and recomputes the total.
func (h *Heuristics) PostProcess(r *model.ScoreReport, userAnswer string) {
	r.Normalize()

	words := wordCount(userAnswer)
	switch {
	case words <= h.cfg.VeryShortAnswerWords:
		r.Metrics.Grammar.Score = scale(r.Metrics.Grammar.Score, h.cfg.VeryShortGrammarFactor)
	case words <= h.cfg.ShortAnswerWords:
		r.Metrics.Grammar.Score = scale(r.Metrics.Grammar.Score, h.cfg.ShortGrammarFactor)
	}

	factor := h.RelevanceFactor(float64(r.Metrics.TopicRelevance.Score) / model.MaxTopicRelevance)
	if factor < 1 {
		for _, m := range []*model.Metric{&r.Metrics.Formalness, &r.Metrics.AILikeness, &r.Metrics.Grammar, &r.Metrics.Structure, &r.Metrics.Vocabulary} {
			m.Score = scale(m.Score, factor)
		}
	}

	r.Normalize()
}

// RelevanceFactor returns the multiplier applied to the non-relevance
// metrics for a relevance ratio in [0, 1].
func (h *Heuristics) RelevanceFactor(ratio float64) float64 {
	switch {
	case ratio < h.cfg.HeavyRelevanceThreshold:
		return math.Max(0, ratio)
	case ratio < h.cfg.ModerateRelevanceThreshold:
		return 0.5 + (ratio - 0.5)
	default:
		return 1
	}
}

func (h *Heuristics) grammarDetails(words int, capitalized, punctuated bool) string {
	basics := "missing"
	switch {
	case capitalized && punctuated:
		basics = "proper"
	case capitalized || punctuated:
		basics = "some"
	}
	switch {
	case words <= h.cfg.VeryShortAnswerWords:
		return fmt.Sprintf("Very short answer (%d %s) cannot show sentence-level grammar; assistant answers are full, punctuated sentences.", words, plural(words, "word"))
	case words <= h.cfg.ShortAnswerWords:
		return fmt.Sprintf("Short answer (%d words) with %s grammar basics. The brevity lowers the grammar score.", words, basics)
	case capitalized && punctuated:
		return "Capitalized and ends with sentence punctuation, as assistant answers do."
	case capitalized:
		return "Capitalized but missing sentence-ending punctuation."
	case punctuated:
		return "Ends with punctuation but has no capital letters."
	default:
		return "No capitalization and no sentence-ending punctuation."
	}
}

func topicDetails(matched, total, score int) string {
	if total == 0 {
		return "The request has no distinctive key terms to match, so relevance is 0%."
	}
	pct := score * 100 / model.MaxTopicRelevance
	return fmt.Sprintf("Answer mentions %d of %d key terms from the request (%d%% relevance).", matched, total, pct)
}

func formalDetails(found []string) string {
	if len(found) == 0 {
		return `Uses 0 formal transition words. Assistant answers connect ideas with words such as "furthermore" or "therefore".`
	}
	return fmt.Sprintf("Uses %d formal transition %s (%s), which reads like an assistant.", len(found), plural(len(found), "word"), strings.Join(found, ", "))
}

func lengthDetails(ratio float64, answerLen, exemplarLen int) string {
	if ratio > 0.7 {
		return fmt.Sprintf("Answer length (%d chars) is close to the reference answer (%d chars).", answerLen, exemplarLen)
	}
	return fmt.Sprintf("Answer is much shorter than the reference answer (%d vs %d chars); assistant answers tend to be thorough.", answerLen, exemplarLen)
}

func structureDetails(sentences, words int) string {
	switch {
	case sentences == 1 && words <= 5:
		return fmt.Sprintf("A single sentence of %d %s is too simple to show structure.", words, plural(words, "word"))
	case sentences == 1:
		return fmt.Sprintf("Only 1 sentence with %d words. More sentences would organize the answer better.", words)
	case sentences <= 2:
		return fmt.Sprintf("%d sentences with %d words show basic structure.", sentences, words)
	default:
		return fmt.Sprintf("%d sentences with %d words show a logical, organized flow.", sentences, words)
	}
}

func vocabularyDetails(words int) string {
	switch {
	case words <= 5:
		return fmt.Sprintf("Only %d %s, too few to show vocabulary range.", words, plural(words, "word"))
	case words <= 10:
		return fmt.Sprintf("%d words show a basic vocabulary range.", words)
	case words <= 20:
		return fmt.Sprintf("%d words show a moderate vocabulary range.", words)
	default:
		return fmt.Sprintf("%d words show a varied vocabulary.", words)
	}
}

// questionKeywords returns the lowercased question words longer than
// three characters that are not stop words. Repeats are kept.
func questionKeywords(question string) []string {
	var out []string
	for _, w := range strings.Fields(strings.ToLower(question)) {
		w = strings.TrimFunc(w, func(r rune) bool { return !unicode.IsLetter(r) && !unicode.IsDigit(r) })
		if len([]rune(w)) > 3 && !stopWords[w] {
			out = append(out, w)
		}
	}
	return out
}

func matchedKeywords(answer string, keywords []string) []string {
	lower := strings.ToLower(answer)
	var out []string
	for _, k := range keywords {
		if strings.Contains(lower, k) {
			out = append(out, k)
		}
	}
	return out
}

func formalWordsIn(answer string) []string {
	lower := strings.ToLower(answer)
	var out []string
	for _, w := range formalWords {
		if strings.Contains(lower, w) {
			out = append(out, w)
		}
	}
	return out
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}

func sentenceCount(s string) int {
	n := 0
	for _, part := range clauseSplit.Split(s, -1) {
		if strings.TrimSpace(part) != "" {
			n++
		}
	}
	return max(n, 1)
}

func hasUpper(s string) bool {
	return strings.IndexFunc(s, unicode.IsUpper) >= 0
}

func endsWithPunctuation(s string) bool {
	t := strings.TrimSpace(s)
	return t != "" && strings.ContainsAny(t[len(t)-1:], ".!?")
}

func scale(score int, factor float64) int {
	return roundScore(float64(score) * factor)
}

func roundScore(f float64) int {
	return int(math.Round(f))
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
