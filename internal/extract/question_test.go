package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuestion(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "clean request passes through",
			raw:  "Can you help me write a professional email to my boss about taking time off?",
			want: "Can you help me write a professional email to my boss about taking time off?",
		},
		{
			name: "surrounding quotes",
			raw:  `"How can I improve my sleep schedule?"`,
			want: "How can I improve my sleep schedule?",
		},
		{
			name: "label prefix",
			raw:  "Question: How do I reverse a linked list in Go?",
			want: "How do I reverse a linked list in Go?",
		},
		{
			name: "reasoning sentence before the request",
			raw:  "First, I need to understand what the user wants. Can you explain how compound interest works?",
			want: "Can you explain how compound interest works?",
		},
		{
			name: "quoted request inside reasoning",
			raw:  "Okay, the user wants me to generate a request. Maybe something like 'How do I bake sourdough bread at home?'",
			want: "How do I bake sourdough bread at home?",
		},
		{
			name: "first person request is left alone",
			raw:  "I need to write a cover letter for a marketing job, can you help?",
			want: "I need to write a cover letter for a marketing job, can you help?",
		},
		{
			name: "words that merely start like lead-ins",
			raw:  "Nowadays, what is the best way to learn a new language as an adult?",
			want: "Nowadays, what is the best way to learn a new language as an adult?",
		},
		{
			name: "keeps first question over trailing chatter",
			raw:  "What are the health benefits of green tea? This should be a medium difficulty request.",
			want: "What are the health benefits of green tea?",
		},
		{
			name: "decimals do not split sentences",
			raw:  "Is version 3.5 of the library compatible with older plugins?",
			want: "Is version 3.5 of the library compatible with older plugins?",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Question(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestQuestionIsIdempotent(t *testing.T) {
	inputs := []string{
		"Can you help me write a professional email to my boss about taking time off?",
		"Question: How do I reverse a linked list in Go?",
		"First, I need to understand what the user wants. Can you explain how compound interest works?",
		"Okay, the user wants me to generate a request. Maybe something like 'How do I bake sourdough bread at home?'",
		"Explain the difference between a stock and a bond for a beginner investor.",
	}
	for _, in := range inputs {
		once, err := Question(in)
		require.NoError(t, err)
		twice, err := Question(once)
		require.NoError(t, err)
		assert.Equal(t, once, twice, in)
	}
}

func TestQuestionTooShort(t *testing.T) {
	_, err := Question("Hi?")
	assert.ErrorIs(t, err, ErrTooShort)

	_, err = Question(`"   "`)
	assert.ErrorIs(t, err, ErrTooShort)
}

func TestQuestionTruncatesLongRequests(t *testing.T) {
	raw := "What " + strings.Repeat("word ", 80) + "?"
	got, err := Question(raw)
	require.NoError(t, err)
	assert.LessOrEqual(t, runeLen(got), 320)
	assert.True(t, strings.HasSuffix(got, "..."))
}

func TestLookup(t *testing.T) {
	r, ok := Lookup(QuestionRules, "label-prefix")
	require.True(t, ok)
	assert.Equal(t, "Plan a trip", r.Apply("Task: Plan a trip"))

	_, ok = Lookup(QuestionRules, "missing")
	assert.False(t, ok)
}

func TestSplitSentences(t *testing.T) {
	got := splitSentences("Pi is 3.14. Really?! Yes")
	assert.Equal(t, []string{"Pi is 3.14.", "Really?!", "Yes"}, got)
}
