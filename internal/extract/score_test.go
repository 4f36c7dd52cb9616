package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neuralflux/internal/model"
)

const validScore = `{"totalScore":812,"topicRelevance":{"score":180,"details":"On topic."},` +
	`"formalness":{"score":140.6,"details":"Mostly formal {tone}."},` +
	`"aiLikeness":{"score":210,"details":"Close to the reference."},` +
	`"grammar":{"score":150,"details":"Clean."},` +
	`"structure":{"score":70,"details":"Two paragraphs."},` +
	`"vocabulary":{"score":62,"details":"Varied."}}`

func TestScoreJSON(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"bare object", validScore},
		{"fenced", "```json\n" + validScore + "\n```"},
		{"surrounded by prose", "Here is my evaluation:\n" + validScore + "\nHope this helps."},
		{"trailing braces after object", "Result: " + validScore + " and {not json}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := ScoreJSON(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, 812, r.TotalScore)
			assert.Equal(t, 141, r.Metrics.Formalness.Score)
			assert.Equal(t, "Mostly formal {tone}.", r.Metrics.Formalness.Details)
			assert.Equal(t, 62, r.Metrics.Vocabulary.Score)
			assert.Equal(t, model.SourceOracle, r.Source)
		})
	}
}

func TestScoreJSONRejects(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"no json", "I cannot evaluate this answer."},
		{"missing metric", `{"totalScore":500,"topicRelevance":{"score":100,"details":"x"}}`},
		{"string score", `{"totalScore":"high","topicRelevance":{"score":1,"details":"a"},"formalness":{"score":1,"details":"a"},"aiLikeness":{"score":1,"details":"a"},"grammar":{"score":1,"details":"a"},"structure":{"score":1,"details":"a"},"vocabulary":{"score":1,"details":"a"}}`},
		{"unavailable details", `{"totalScore":6,"topicRelevance":{"score":1,"details":"a"},"formalness":{"score":1,"details":"Analysis unavailable"},"aiLikeness":{"score":1,"details":"a"},"grammar":{"score":1,"details":"a"},"structure":{"score":1,"details":"a"},"vocabulary":{"score":1,"details":"a"}}`},
		{"empty details", `{"totalScore":6,"topicRelevance":{"score":1,"details":"a"},"formalness":{"score":1,"details":""},"aiLikeness":{"score":1,"details":"a"},"grammar":{"score":1,"details":"a"},"structure":{"score":1,"details":"a"},"vocabulary":{"score":1,"details":"a"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ScoreJSON(tt.raw)
			assert.ErrorIs(t, err, ErrUnparsableJSON)
		})
	}
}

func TestBalancedObjects(t *testing.T) {
	got := balancedObjects(`a {"k":"}"} b {"n":{"m":1}} c }`)
	assert.Equal(t, []string{`{"k":"}"}`, `{"n":{"m":1}}`}, got)
}
