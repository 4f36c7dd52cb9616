package model

// SessionPhase is the coarse lifecycle state of a game session
type SessionPhase string

const (
	PhaseIdle     SessionPhase = "idle"
	PhaseRunning  SessionPhase = "running"
	PhasePaused   SessionPhase = "paused"
	PhaseGameOver SessionPhase = "game_over"
)

// SessionState is the immutable snapshot pushed to the presentation layer
// after every transition.
type SessionState struct {
	SessionID       string       `json:"sessionId"`
	Phase           SessionPhase `json:"phase"`
	ActiveRequest   *Request     `json:"activeRequest,omitempty"`
	Score           int          `json:"score"`
	ElapsedSec      float64      `json:"gameTimer"`
	DifficultyLevel int          `json:"difficultyLevel"`
	Lives           int          `json:"lives"`
	IsGameOver      bool         `json:"isGameOver"`
	IsShowingResult bool         `json:"isShowingAnalysis"`
	IsPaused        bool         `json:"isPaused"`
	QuestionsShown  int          `json:"questionsShown"`
	CurrentReport   *ScoreReport `json:"currentAnalysis,omitempty"`

	QuestionsAnswered int `json:"questionsAnswered"`
	CorrectAnswers    int `json:"correctAnswers"`
	PerfectAnswers    int `json:"perfectAnswers"`
	Streak            int `json:"streak"`
	LongestStreak     int `json:"longestStreak"`
}

// AcceptingInput reports whether the player can act on the active request
func (s *SessionState) AcceptingInput() bool {
	return s.ActiveRequest != nil && !s.ActiveRequest.Expired && !s.IsShowingResult && !s.IsGameOver
}
