package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsIncomplete(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"A short reply", false},
		{"A complete sentence that is long enough to need an ending here.", false},
		{"A complete sentence that is long enough to need an ending here", true},
		{`He said "yes" and then "no" and then walked away from all of it.`, false},
		{`He said "yes and walked away.`, true},
		{"The list includes apples,", true},
		{`path\`, true},
		{`The answer quoted in full ends with a closing quote mark "like this"`, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsIncomplete(tt.text), tt.text)
	}
}

func TestAnswer(t *testing.T) {
	clean := "Compound interest is interest calculated on both the initial principal and the accumulated interest from previous periods."
	got, err := Answer(clean)
	require.NoError(t, err)
	assert.Equal(t, clean, got)

	got, err = Answer("Okay, compound interest means you earn interest on your interest as well.")
	require.NoError(t, err)
	assert.Equal(t, "compound interest means you earn interest on your interest as well.", got)
}

func TestAnswerRejectsCutOffText(t *testing.T) {
	_, err := Answer("This is an answer that goes on and on without ever reaching its conclusion because")
	assert.ErrorIs(t, err, ErrIncomplete)

	_, err = Answer("Too short.")
	assert.ErrorIs(t, err, ErrTooShort)
}

func TestRepairAnswer(t *testing.T) {
	got, err := RepairAnswer("This is an answer that goes on and on without ever reaching its conclusion because")
	require.NoError(t, err)
	assert.Equal(t, "This is an answer that goes on and on without ever reaching its conclusion because.", got)

	got, err = RepairAnswer(`He said "hello and left the room quietly after the meeting ended.`)
	require.NoError(t, err)
	assert.Equal(t, "He said hello and left the room quietly after the meeting ended.", got)

	_, err = RepairAnswer("Here are some good options for you to consider today,")
	assert.ErrorIs(t, err, ErrStillIncomplete)
}

func TestRepairAnswerDropsNarration(t *testing.T) {
	raw := "Preheat the oven to 220 degrees and shape the dough into a tight round loaf. " +
		"The user might want more detail on proofing. " +
		"Bake for forty minutes until the crust is golden."
	got, err := RepairAnswer(raw)
	require.NoError(t, err)
	assert.Equal(t, "Preheat the oven to 220 degrees and shape the dough into a tight round loaf. Bake for forty minutes until the crust is golden.", got)
}

func TestRepairAnswerKeepsShortTextWhenFilterEmptiesIt(t *testing.T) {
	raw := "They want a quick summary of the plan."
	got, err := RepairAnswer(raw)
	require.NoError(t, err)
	assert.Equal(t, raw, got)
}

func TestRepairAnswerEllipsis(t *testing.T) {
	got, err := RepairAnswer("A long sentence here that explains everything clearly and completely. Done...")
	require.NoError(t, err)
	assert.Equal(t, "A long sentence here that explains everything clearly and completely.", got)

	got, err = RepairAnswer("Rest the dough overnight. Then shape it gently and bake it in a hot oven until...")
	require.NoError(t, err)
	assert.Equal(t, "Rest the dough overnight. Then shape it gently and bake it in a hot oven until.", got)
}

func TestRepairAnswerCapsLength(t *testing.T) {
	raw := strings.Repeat("This sentence is padding. ", 80)
	got, err := RepairAnswer(raw)
	require.NoError(t, err)
	assert.LessOrEqual(t, runeLen(got), 1500)
	assert.True(t, strings.HasSuffix(got, "padding."))
}
