package service

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"

	"go.uber.org/zap"

	"neuralflux/internal/config"
	"neuralflux/internal/extract"
	"neuralflux/internal/metrics"
	"neuralflux/internal/model"
)

// Oracle is a Completer that knows whether it is configured
type Oracle interface {
	Completer
	Enabled() bool
}

// QuestionSource serves stored requests when the oracle is not configured
type QuestionSource interface {
	RandomQuestion(ctx context.Context, category model.Category, difficulty int) (*model.BankQuestion, error)
}

// ScoringService generates requests and exemplar answers and scores
// player answers. Oracle failures never leave this service as errors
// on the scoring path.
type ScoringService struct {
	oracle     Oracle
	bank       QuestionSource
	heuristics *Heuristics
	cfg        config.ScoringConfig
	logger     *zap.Logger
	metrics    *metrics.Metrics
}

// NewScoringService creates a new scoring service. bank may be nil.
func NewScoringService(oracle Oracle, bank QuestionSource, cfg config.ScoringConfig, logger *zap.Logger, m *metrics.Metrics) *ScoringService {
	return &ScoringService{
		oracle:     oracle,
		bank:       bank,
		heuristics: NewHeuristics(cfg),
		cfg:        cfg,
		logger:     logger.Named("scoring"),
		metrics:    m,
	}
}

// Heuristics exposes the offline scorer
func (s *ScoringService) Heuristics() *Heuristics {
	return s.heuristics
}

// GenerateQuestion produces the text of a simulated user request
func (s *ScoringService) GenerateQuestion(ctx context.Context, category model.Category, difficulty int) (string, error) {
	difficulty = model.Clamp(difficulty, model.MinDifficulty, model.MaxDifficulty)
	if !s.oracle.Enabled() {
		return s.offlineQuestion(ctx, category, difficulty), nil
	}

	policy := RetryPolicy{Attempts: s.cfg.QuestionAttempts, Backoff: s.cfg.RetryBackoff}
	return Retry(ctx, policy, func(ctx context.Context, attempt int) (string, error) {
		raw, err := s.oracle.Complete(ctx, buildQuestionMessages(category, difficulty), 0.9, 500)
		if err != nil {
			return "", fmt.Errorf("question generation: %w", err)
		}
		text, err := extract.Question(raw)
		if err != nil {
			s.logger.Debug("question extraction failed", zap.Int("attempt", attempt), zap.Error(err))
			return "", fmt.Errorf("question extraction: %w", err)
		}
		return text, nil
	})
}

// GenerateExemplarAnswer produces the reference answer a capable assistant
// would give. Cut-off output is retried; the last attempt is repaired
// instead of rejected.
func (s *ScoringService) GenerateExemplarAnswer(ctx context.Context, question string, difficulty int) (string, error) {
	if !s.oracle.Enabled() {
		return offlineExemplar(question, difficulty), nil
	}

	policy := RetryPolicy{Attempts: s.cfg.ExemplarAttempts, Backoff: s.cfg.RetryBackoff}
	return Retry(ctx, policy, func(ctx context.Context, attempt int) (string, error) {
		raw, err := s.oracle.Complete(ctx, buildExemplarMessages(question, difficulty), 0.7, 500)
		if err != nil {
			return "", fmt.Errorf("exemplar generation: %w", err)
		}
		var text string
		if attempt < policy.Attempts {
			text, err = extract.Answer(raw)
		} else {
			text, err = extract.RepairAnswer(raw)
		}
		if err != nil {
			s.logger.Debug("exemplar extraction failed", zap.Int("attempt", attempt), zap.Error(err))
			return "", fmt.Errorf("exemplar extraction: %w", err)
		}
		return text, nil
	})
}

// ScoreAnswer judges userAnswer against the exemplar. It always returns a
// normalized report and falls back to the heuristic scorer on any failure.
func (s *ScoringService) ScoreAnswer(ctx context.Context, userAnswer, exemplar, question string) (report model.ScoreReport) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("score answer panicked", zap.Any("panic", r))
			report = s.heuristics.IntelligentFallback(userAnswer, exemplar, question)
		}
		s.metrics.ScoreSources.WithLabelValues(string(report.Source)).Inc()
	}()

	if !s.oracle.Enabled() {
		return s.heuristics.IntelligentFallback(userAnswer, exemplar, question)
	}

	policy := RetryPolicy{Attempts: s.cfg.ScoreAttempts, Backoff: s.cfg.RetryBackoff}
	messages := buildScoreMessages(shorten(userAnswer, 120), shorten(exemplar, 120), shorten(question, 100))
	parsed, err := Retry(ctx, policy, func(ctx context.Context, attempt int) (*model.ScoreReport, error) {
		raw, err := s.oracle.Complete(ctx, messages, 0.1, 350)
		if err != nil {
			return nil, fmt.Errorf("score request: %w", err)
		}
		r, err := extract.ScoreJSON(raw)
		if err != nil {
			s.logger.Debug("score extraction failed", zap.Int("attempt", attempt), zap.Error(err))
			return nil, fmt.Errorf("score extraction: %w", err)
		}
		return r, nil
	})
	if err != nil {
		s.logger.Warn("oracle scoring exhausted, using heuristic", zap.Error(err))
		return s.heuristics.IntelligentFallback(userAnswer, exemplar, question)
	}

	parsed.UserAnswer = userAnswer
	parsed.ExemplarAnswer = exemplar
	parsed.Source = model.SourceOracle
	s.heuristics.PostProcess(parsed, userAnswer)
	return *parsed
}

// Evaluate is the submit path: it generates an exemplar for question and
// scores userAnswer against it. When no exemplar can be produced the
// neutral report is returned.
func (s *ScoringService) Evaluate(ctx context.Context, userAnswer, question string, difficulty int) model.ScoreReport {
	exemplar, err := s.GenerateExemplarAnswer(ctx, question, difficulty)
	if err != nil {
		s.logger.Warn("exemplar unavailable, using neutral score", zap.Error(err))
		s.metrics.ScoreSources.WithLabelValues(string(model.SourceNeutral)).Inc()
		return model.NeutralReport(userAnswer)
	}
	return s.ScoreAnswer(ctx, userAnswer, exemplar, question)
}

func (s *ScoringService) offlineQuestion(ctx context.Context, category model.Category, difficulty int) string {
	if s.bank != nil {
		q, err := s.bank.RandomQuestion(ctx, category, difficulty)
		if err != nil {
			s.logger.Debug("question bank unavailable", zap.Error(err))
		}
		if q != nil && q.Text != "" {
			return q.Text
		}
	}
	pool := builtinQuestions[category]
	if len(pool) == 0 {
		pool = builtinQuestions[model.CategoryFact]
	}
	return pool[rand.IntN(len(pool))]
}

func shorten(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

// Prompt builders

var complexityLevels = map[int]string{
	1: "simple and straightforward",
	2: "moderately complex",
	3: "complex with multiple aspects",
	4: "very complex or multi-part",
	5: "extremely complex, ambiguous, or emotionally challenging",
}

func buildQuestionMessages(category model.Category, difficulty int) []ChatMessage {
	complexity, ok := complexityLevels[difficulty]
	if !ok {
		complexity = complexityLevels[2]
	}
	prompt := fmt.Sprintf(`Write one %s %s request that a real person might type to an AI assistant.

Type: %s
Difficulty: %d/5

Return only the request itself. Do not describe what you are doing, do not explain your choice, and do not open with phrases such as "Let me", "I should", "First", "Now" or "Okay".

Rules:
- Written in the voice of the user
- At most %d characters
- Natural and specific

Example output: "Can you help me write a professional email to my boss about taking time off?"`,
		complexity, strings.ToLower(string(category)), category, difficulty, model.MaxRequestChars)

	return []ChatMessage{
		{Role: "system", Content: "You generate user requests. You reply with the request text only, never with reasoning or commentary."},
		{Role: "user", Content: prompt},
	}
}

func buildExemplarMessages(question string, difficulty int) []ChatMessage {
	var extra strings.Builder
	if difficulty >= 3 {
		extra.WriteString("- Include useful context and considerations\n")
	} else {
		extra.WriteString("- Be concise but complete\n")
	}
	if difficulty >= 4 {
		extra.WriteString("- Offer more than one perspective or approach\n")
	}
	prompt := fmt.Sprintf(`You are a professional AI assistant. A user sent this request:

"%s"

Reply with the final answer only. Do not narrate your reasoning or mention what the user might want.

Rules:
- Address the request directly, helpfully and safely
- Use formal language with transition words (furthermore, additionally, moreover, therefore, however)
- Use correct grammar and clear structure
%s- Stay under 200 words
- Finish every sentence; never end with "..." or mid-thought`, question, extra.String())

	return []ChatMessage{
		{Role: "system", Content: "You are a professional assistant. You reply with a complete, finished answer only. Every reply ends with a full sentence and . ! or ?"},
		{Role: "user", Content: prompt},
	}
}

func buildScoreMessages(userAnswer, exemplar, question string) []ChatMessage {
	prompt := fmt.Sprintf(`Rate how much this answer reads like an AI assistant wrote it.

Question: "%s"
AI example: "%s"
User answer: "%s"

Metrics (score each from 0 to its max):
- topicRelevance (0-%d): does the answer address the question and reuse its key concepts? Low relevance should pull every other score down.
- formalness (0-%d): formal transition words such as "furthermore", "moreover", "therefore", "however", "comprehensive", "systematic"
- aiLikeness (0-%d): similarity of length, tone and structure to the AI example
- grammar (0-%d): capitalization, punctuation, spelling
- structure (0-%d): organization and logical flow
- vocabulary (0-%d): precision and sophistication of word choice

For each metric give 1-2 sentences in "details" explaining the score, quoting the user answer where useful.

Reply with JSON only:
{"totalScore":<sum>,"topicRelevance":{"score":<n>,"details":"<why>"},"formalness":{"score":<n>,"details":"<why>"},"aiLikeness":{"score":<n>,"details":"<why>"},"grammar":{"score":<n>,"details":"<why>"},"structure":{"score":<n>,"details":"<why>"},"vocabulary":{"score":<n>,"details":"<why>"}}`,
		question, exemplar, userAnswer,
		model.MaxTopicRelevance, model.MaxFormalness, model.MaxAILikeness, model.MaxGrammar, model.MaxStructure, model.MaxVocabulary)

	return []ChatMessage{
		{Role: "system", Content: "You are a JSON scoring API. Output one JSON object and nothing else."},
		{Role: "user", Content: prompt},
	}
}
