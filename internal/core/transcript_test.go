package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fullTranscript() []DebateTurn {
	turns := Schedule()
	for i := range turns {
		turns[i].Text = "argument"
	}
	return turns
}

func TestValidateTranscript(t *testing.T) {
	tests := []struct {
		name    string
		turns   []DebateTurn
		wantErr bool
	}{
		{"Empty", nil, false},
		{"FullDebate", fullTranscript(), false},
		{"OpeningsOnly", fullTranscript()[:2], false},
		{"AgainstOpensFirst", []DebateTurn{
			{Side: SideAgainst, Kind: TurnOpening},
			{Side: SideFor, Kind: TurnOpening},
		}, false},
		{"RebuttalBeforeOpenings", []DebateTurn{
			{Side: SideFor, Kind: TurnOpening},
			{Side: SideFor, Kind: TurnRebuttal, Round: 1},
		}, true},
		{"DuplicateOpening", []DebateTurn{
			{Side: SideFor, Kind: TurnOpening},
			{Side: SideFor, Kind: TurnOpening},
		}, true},
		{"ThirdRound", append(fullTranscript(), DebateTurn{Side: SideFor, Kind: TurnRebuttal, Round: 3}), true},
		{"DuplicateRebuttal", append(fullTranscript()[:4], DebateTurn{Side: SideFor, Kind: TurnRebuttal, Round: 1}), true},
		{"RoundGoesBackwards", []DebateTurn{
			{Side: SideFor, Kind: TurnOpening},
			{Side: SideAgainst, Kind: TurnOpening},
			{Side: SideFor, Kind: TurnRebuttal, Round: 2},
			{Side: SideAgainst, Kind: TurnRebuttal, Round: 1},
		}, true},
		{"OpeningWithRound", []DebateTurn{{Side: SideFor, Kind: TurnOpening, Round: 1}}, true},
		{"RebuttalWithoutRound", []DebateTurn{
			{Side: SideFor, Kind: TurnOpening},
			{Side: SideAgainst, Kind: TurnOpening},
			{Side: SideFor, Kind: TurnRebuttal},
		}, true},
		{"UnknownSide", []DebateTurn{{Side: "NEUTRAL", Kind: TurnOpening}}, true},
		{"UnknownKind", []DebateTurn{{Side: SideFor, Kind: "closing"}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTranscript(tt.turns)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrInvalidTranscript)
		})
	}
}

func TestNextTurn(t *testing.T) {
	turns := fullTranscript()
	for i, want := range turns {
		side, kind, round, done := NextTurn(turns[:i])
		require.False(t, done, "turn %d: unexpected done", i)
		assert.Equal(t, want.Side, side, "turn %d", i)
		assert.Equal(t, want.Kind, kind, "turn %d", i)
		assert.Equal(t, want.Round, round, "turn %d", i)
	}
	_, _, _, done := NextTurn(turns)
	assert.True(t, done, "expected done after full schedule")
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "Opening Statement", DebateTurn{Kind: TurnOpening}.Label())
	assert.Equal(t, "Round 2 Rebuttal", DebateTurn{Kind: TurnRebuttal, Round: 2}.Label())
}

func TestSideOpponent(t *testing.T) {
	assert.Equal(t, SideAgainst, SideFor.Opponent())
	assert.Equal(t, SideFor, SideAgainst.Opponent())
}

func TestSamplingWithDefaults(t *testing.T) {
	var p SamplingParams
	got := p.WithDefaults(0.8, 800)
	require.NotNil(t, got.Temperature)
	require.NotNil(t, got.MaxTokens)
	assert.Equal(t, 0.8, *got.Temperature)
	assert.Equal(t, 800, *got.MaxTokens)
	assert.Nil(t, p.Temperature, "WithDefaults must not modify the receiver")

	temp := 0.2
	got = SamplingParams{Temperature: &temp}.WithDefaults(0.8, 800)
	assert.Equal(t, 0.2, *got.Temperature)
}
