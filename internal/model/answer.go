package model

// ScoreSource records which path produced a ScoreReport
type ScoreSource string

const (
	SourceOracle    ScoreSource = "oracle"
	SourceHeuristic ScoreSource = "heuristic"
	SourceNeutral   ScoreSource = "neutral"
)

// Metric maxima. They add up to MaxTotalScore.
const (
	MaxTopicRelevance = 200
	MaxFormalness     = 200
	MaxAILikeness     = 300
	MaxGrammar        = 200
	MaxStructure      = 150
	MaxVocabulary     = 150

	MaxTotalScore = 1200
)

// Metric is one named sub-score of a ScoreReport
type Metric struct {
	Score   int    `json:"score" bson:"score"`
	Max     int    `json:"max" bson:"max"`
	Details string `json:"details" bson:"details"`
}

// Metrics holds the six fixed sub-metrics
type Metrics struct {
	TopicRelevance Metric `json:"topicRelevance" bson:"topicRelevance"`
	Formalness     Metric `json:"formalness" bson:"formalness"`
	AILikeness     Metric `json:"aiLikeness" bson:"aiLikeness"`
	Grammar        Metric `json:"grammar" bson:"grammar"`
	Structure      Metric `json:"structure" bson:"structure"`
	Vocabulary     Metric `json:"vocabulary" bson:"vocabulary"`
}

// ScoreReport is the judged outcome of one submitted answer
type ScoreReport struct {
	TotalScore     int         `json:"totalScore" bson:"totalScore"`
	Metrics        Metrics     `json:"metrics" bson:"metrics"`
	UserAnswer     string      `json:"userAnswer" bson:"userAnswer"`
	ExemplarAnswer string      `json:"aiResponse" bson:"aiResponse"`
	Source         ScoreSource `json:"source" bson:"source"`
}

// All returns pointers to the six metrics in display order
func (m *Metrics) All() []*Metric {
	return []*Metric{&m.TopicRelevance, &m.Formalness, &m.AILikeness, &m.Grammar, &m.Structure, &m.Vocabulary}
}

// Normalize forces the fixed maxima, clamps every metric into [0, Max]
// and recomputes TotalScore as their clamped sum.
func (r *ScoreReport) Normalize() {
	r.Metrics.TopicRelevance.Max = MaxTopicRelevance
	r.Metrics.Formalness.Max = MaxFormalness
	r.Metrics.AILikeness.Max = MaxAILikeness
	r.Metrics.Grammar.Max = MaxGrammar
	r.Metrics.Structure.Max = MaxStructure
	r.Metrics.Vocabulary.Max = MaxVocabulary

	total := 0
	for _, m := range r.Metrics.All() {
		m.Score = Clamp(m.Score, 0, m.Max)
		total += m.Score
	}
	r.TotalScore = Clamp(total, 0, MaxTotalScore)
}

// IsCorrect reports whether the answer earned at least 60% of the maximum
func (r *ScoreReport) IsCorrect() bool {
	return r.TotalScore*100 >= MaxTotalScore*60
}

// IsPerfect reports whether the answer earned the maximum score
func (r *ScoreReport) IsPerfect() bool {
	return r.TotalScore == MaxTotalScore
}

// Clamp bounds v to [lo, hi]
func Clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// NeutralDetails is the explanation carried by every metric of a neutral report
const NeutralDetails = "Analysis temporarily unavailable"

// NeutralReport is the fixed 500-point report used when no judgment could
// be made at all.
func NeutralReport(userAnswer string) ScoreReport {
	r := ScoreReport{
		Metrics: Metrics{
			TopicRelevance: Metric{Score: 80, Details: NeutralDetails},
			Formalness:     Metric{Score: 80, Details: NeutralDetails},
			AILikeness:     Metric{Score: 120, Details: NeutralDetails},
			Grammar:        Metric{Score: 80, Details: NeutralDetails},
			Structure:      Metric{Score: 70, Details: NeutralDetails},
			Vocabulary:     Metric{Score: 70, Details: NeutralDetails},
		},
		UserAnswer: userAnswer,
		Source:     SourceNeutral,
	}
	r.Normalize()
	return r
}
