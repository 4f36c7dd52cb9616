package model

import "time"

// Category defines the kind of request a simulated user sends
type Category string

const (
	CategoryFact      Category = "FACT"
	CategoryMath      Category = "MATH"
	CategoryCreative  Category = "CREATIVE"
	CategoryEmotional Category = "EMOTIONAL"
)

// Categories lists every request category in a fixed order
var Categories = []Category{CategoryFact, CategoryMath, CategoryCreative, CategoryEmotional}

// Valid reports whether c is one of the known categories
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

const (
	MinDifficulty = 1
	MaxDifficulty = 5

	// MaxRequestChars bounds the request body shown to the player
	MaxRequestChars = 320
)

// Request is a unit of work the player must answer before its timer runs out
type Request struct {
	ID               string    `json:"id"` // session-scoped, e.g. "req-0"
	Category         Category  `json:"category"`
	Difficulty       int       `json:"difficulty"` // 1-5
	Text             string    `json:"text"`
	TimeLimitSec     float64   `json:"timeLimit"`
	TimeRemainingSec float64   `json:"timeRemaining"`
	Expired          bool      `json:"hasExpired,omitempty"`
	UserName         string    `json:"userName,omitempty"`
	RequestedAt      time.Time `json:"requestedAt"`
}

// BankQuestion is an offline request template stored in the question bank
type BankQuestion struct {
	ID         string    `json:"id" bson:"_id,omitempty"`
	Category   Category  `json:"category" bson:"category"`
	Difficulty int       `json:"difficulty" bson:"difficulty"`
	Text       string    `json:"text" bson:"text"`
	CreatedAt  time.Time `json:"createdAt" bson:"createdAt"`
}
