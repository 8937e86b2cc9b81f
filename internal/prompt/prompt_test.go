package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ForgottenHistory/Debate-Corner/internal/core"
)

type styleMap map[string]string

func (m styleMap) ResolveStyle(id string) string {
	if s, ok := m[id]; ok {
		return s
	}
	return m["honest"]
}

var styles = styleMap{
	"honest": "Argue honestly.",
	"zealot": "Concede nothing.",
}

func openingRequest(side core.Side) core.GenerationRequest {
	return core.GenerationRequest{
		Model:         "m",
		Side:          side,
		Topic:         "Cats are better than dogs",
		TurnKind:      core.TurnOpening,
		Length:        core.LengthShort,
		PersonalityID: "zealot",
	}
}

func TestComposeDebaterOpening(t *testing.T) {
	msgs, err := ComposeDebater(openingRequest(core.SideFor), styles)
	require.NoError(t, err)
	require.Len(t, msgs, 2)

	system := msgs[0]
	assert.Equal(t, core.RoleSystem, system.Role)
	assert.Contains(t, system.Content, `You are arguing FOR the proposition: "Cats are better than dogs".`)
	assert.Contains(t, system.Content, "argue in favor of this proposition")
	assert.Contains(t, system.Content, "Concede nothing.")
	assert.Contains(t, system.Content, "between 75-150 words")
	assert.Contains(t, system.Content, "STRICTLY adhere to the 75-150 words word limit above")
	assert.Contains(t, system.Content, "This is your OPENING STATEMENT.")
	assert.NotContains(t, system.Content, "This is Round")

	assert.Equal(t, core.Message{Role: core.RoleUser, Content: "Present your opening statement."}, msgs[1])
}

func TestComposeDebaterRebuttalRoles(t *testing.T) {
	history := []core.DebateTurn{
		{Side: core.SideFor, Kind: core.TurnOpening, Text: "for-open"},
		{Side: core.SideAgainst, Kind: core.TurnOpening, Text: "against-open"},
		{Side: core.SideFor, Kind: core.TurnRebuttal, Round: 1, Text: "for-r1"},
	}
	req := core.GenerationRequest{
		Side:       core.SideAgainst,
		Topic:      "t",
		PriorTurns: history,
		TurnKind:   core.TurnRebuttal,
		Round:      1,
		Length:     core.LengthLong,
	}

	msgs, err := ComposeDebater(req, styles)
	require.NoError(t, err)
	require.Len(t, msgs, 5)

	assert.Contains(t, msgs[0].Content, "argue against this proposition")
	assert.Contains(t, msgs[0].Content, "This is Round 1.")
	assert.Contains(t, msgs[0].Content, "Argue honestly.", "unknown personality should fall back to honest")
	assert.Contains(t, msgs[0].Content, "250-400 words")

	assert.Equal(t, core.Message{Role: core.RoleUser, Content: "for-open"}, msgs[1])
	assert.Equal(t, core.Message{Role: core.RoleAssistant, Content: "against-open"}, msgs[2])
	assert.Equal(t, core.Message{Role: core.RoleUser, Content: "for-r1"}, msgs[3])
	assert.Equal(t, core.Message{Role: core.RoleUser, Content: "Present your rebuttal and further arguments."}, msgs[4])
}

func TestComposeDebaterDeterministic(t *testing.T) {
	a, err := ComposeDebater(openingRequest(core.SideAgainst), styles)
	require.NoError(t, err)
	b, err := ComposeDebater(openingRequest(core.SideAgainst), styles)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestComposeDebaterUnknownLength(t *testing.T) {
	req := openingRequest(core.SideFor)
	req.Length = "epic"
	msgs, err := ComposeDebater(req, styles)
	require.NoError(t, err)
	assert.Contains(t, msgs[0].Content, "150-250 words")
}

func TestComposeDebaterInvalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*core.GenerationRequest)
	}{
		{"UnknownSide", func(r *core.GenerationRequest) { r.Side = "NEUTRAL" }},
		{"UnknownKind", func(r *core.GenerationRequest) { r.TurnKind = "closing" }},
		{"RebuttalWithoutRound", func(r *core.GenerationRequest) { r.TurnKind = core.TurnRebuttal }},
		{"RebuttalRoundThree", func(r *core.GenerationRequest) { r.TurnKind = core.TurnRebuttal; r.Round = 3 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := openingRequest(core.SideFor)
			tt.mutate(&req)
			_, err := ComposeDebater(req, styles)
			assert.ErrorIs(t, err, ErrInvalidRequest)
		})
	}
}

func TestComposeJudge(t *testing.T) {
	turns := []core.DebateTurn{
		{Side: core.SideFor, Kind: core.TurnOpening, Text: "A"},
		{Side: core.SideAgainst, Kind: core.TurnOpening, Text: "B"},
		{Side: core.SideFor, Kind: core.TurnRebuttal, Round: 1, Text: "C"},
	}

	msgs, err := ComposeJudge("Tea beats coffee", turns, "Be strict.\n")
	require.NoError(t, err)
	require.Len(t, msgs, 2)

	assert.Equal(t, core.RoleSystem, msgs[0].Role)
	assert.Contains(t, msgs[0].Content, "JUDGE PERSONALITY:\nBe strict.\n\n")
	assert.Contains(t, msgs[0].Content, `Debate Topic: "Tea beats coffee"`)
	assert.Contains(t, msgs[0].Content, "100-150 words")
	assert.True(t, strings.HasSuffix(msgs[0].Content, "Winner: [FOR/AGAINST/TIE]\nReasoning: [Your detailed reasoning]"))

	want := "DEBATE TRANSCRIPT:\n\n" +
		"FOR - Opening Statement:\nA\n\n" +
		"AGAINST - Opening Statement:\nB\n\n" +
		"FOR - Round 1 Rebuttal:\nC\n\n" +
		"\nPlease provide your evaluation."
	assert.Equal(t, core.Message{Role: core.RoleUser, Content: want}, msgs[1])
}
