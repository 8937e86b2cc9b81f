package debate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ForgottenHistory/Debate-Corner/internal/core"
)

func panel() []JudgeSeat {
	return []JudgeSeat{{Model: "j1"}, {Model: "j2"}, {Model: "j3"}}
}

func TestRun(t *testing.T) {
	for _, streamed := range []bool{false, true} {
		name := "Generate"
		if streamed {
			name = "Stream"
		}
		t.Run(name, func(t *testing.T) {
			mock := &MockProvider{name: "featherless", verdicts: []string{
				"Winner: FOR\nReasoning: a",
				"Winner: AGAINST\nReasoning: b",
				"Winner: FOR\nReasoning: c",
			}}
			svc := setupTestService(t, mock)

			var turns []core.DebateTurn
			var verdicts []core.JudgeVerdict
			fragments := 0
			obs := Observer{
				OnFragment: func(side core.Side, f string) { fragments++ },
				OnTurn:     func(turn core.DebateTurn) { turns = append(turns, turn) },
				OnVerdict:  func(v core.JudgeVerdict) { verdicts = append(verdicts, v) },
			}

			d, err := svc.Run(context.Background(), RunConfig{
				Topic:   "Remote work beats the office",
				For:     core.Participant{Model: "a", Personality: "academic"},
				Against: core.Participant{Model: "b"},
				Judges:  panel(),
				Stream:  streamed,
			}, obs)
			require.NoError(t, err)

			require.Len(t, d.Turns, 6)
			assert.NoError(t, core.ValidateTranscript(d.Turns))
			for i, want := range core.Schedule() {
				got := d.Turns[i]
				assert.Equal(t, want.Side, got.Side, "turn %d", i)
				assert.Equal(t, want.Kind, got.Kind, "turn %d", i)
				assert.Equal(t, want.Round, got.Round, "turn %d", i)
			}
			assert.Len(t, turns, 6)
			assert.Len(t, verdicts, 3)
			if streamed {
				assert.Equal(t, 12, fragments)
			} else {
				assert.Equal(t, 6, fragments)
			}

			seen := map[string]bool{}
			for i, v := range d.Judges {
				assert.Equal(t, i+1, v.JudgeIndex)
				assert.False(t, seen[v.PersonalityID], "judge personality %s reused", v.PersonalityID)
				seen[v.PersonalityID] = true
			}

			assert.Equal(t, core.WinnerFor, d.Winner)
			assert.Equal(t, "featherless", d.For.Provider)
			assert.Equal(t, "honest", d.Against.Personality)
			assert.NotEmpty(t, d.ID)
			assert.False(t, d.CreatedAt.IsZero())
		})
	}
}

func TestRunSeesPriorTurns(t *testing.T) {
	mock := &MockProvider{name: "featherless", verdicts: []string{"Winner: TIE\nReasoning: even"}}
	svc := setupTestService(t, mock)

	d, err := svc.Run(context.Background(), RunConfig{
		Topic:   "t",
		For:     core.Participant{Model: "a"},
		Against: core.Participant{Model: "b"},
		Judges:  panel(),
	}, Observer{})
	require.NoError(t, err)
	assert.Equal(t, core.WinnerTie, d.Winner)

	// system + prior turns + cue
	reqs := mock.Requests()
	require.GreaterOrEqual(t, len(reqs), 6)
	for i := range 6 {
		assert.Len(t, reqs[i].Messages, i+2, "turn %d", i)
	}
}

func TestRunValidation(t *testing.T) {
	svc := setupTestService(t, &MockProvider{name: "featherless"})

	tests := []struct {
		name string
		cfg  RunConfig
	}{
		{"NoTopic", RunConfig{For: core.Participant{Model: "a"}, Against: core.Participant{Model: "b"}, Judges: panel()}},
		{"NoModel", RunConfig{Topic: "t", For: core.Participant{Model: "a"}, Judges: panel()}},
		{"TwoJudges", RunConfig{Topic: "t", For: core.Participant{Model: "a"}, Against: core.Participant{Model: "b"}, Judges: panel()[:2]}},
		{"BadJudgeProvider", RunConfig{Topic: "t", For: core.Participant{Model: "a"}, Against: core.Participant{Model: "b"},
			Judges: []JudgeSeat{{Model: "j"}, {Model: "j"}, {Provider: "nope", Model: "j"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Run(context.Background(), tt.cfg, Observer{})
			assert.True(t, IsInvalid(err), "expected invalid input error, got %v", err)
		})
	}
}

func TestRunCancelled(t *testing.T) {
	svc := setupTestService(t, &MockProvider{name: "featherless"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Run(ctx, RunConfig{
		Topic:   "t",
		For:     core.Participant{Model: "a"},
		Against: core.Participant{Model: "b"},
		Judges:  panel(),
	}, Observer{})
	assert.ErrorIs(t, err, context.Canceled)
}
