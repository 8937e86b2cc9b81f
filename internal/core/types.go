// Package core contains the core domain types for Debate Corner.
package core

import (
	"strconv"
	"time"
)

// Side is the position a debater argues.
type Side string

const (
	SideFor     Side = "FOR"
	SideAgainst Side = "AGAINST"
)

// Valid reports whether s is one of the two debating sides.
func (s Side) Valid() bool {
	return s == SideFor || s == SideAgainst
}

// Opponent returns the other side.
func (s Side) Opponent() Side {
	if s == SideFor {
		return SideAgainst
	}
	return SideFor
}

// TurnKind distinguishes opening statements from rebuttals.
type TurnKind string

const (
	TurnOpening  TurnKind = "opening"
	TurnRebuttal TurnKind = "rebuttal"
)

// Valid reports whether k is a known turn kind.
func (k TurnKind) Valid() bool {
	return k == TurnOpening || k == TurnRebuttal
}

// LengthTier selects the word-count band requested from a debater.
type LengthTier string

const (
	LengthShort  LengthTier = "short"
	LengthMedium LengthTier = "medium"
	LengthLong   LengthTier = "long"
)

// Valid reports whether t is a known length tier.
func (t LengthTier) Valid() bool {
	switch t {
	case LengthShort, LengthMedium, LengthLong:
		return true
	}
	return false
}

// Winner is the decision of a single judge or of the whole panel.
type Winner string

const (
	WinnerFor     Winner = "FOR"
	WinnerAgainst Winner = "AGAINST"
	WinnerTie     Winner = "TIE"
)

// Rounds is the number of rebuttal rounds in a debate.
const Rounds = 2

// PanelSize is the number of judges evaluating a debate.
const PanelSize = 3

// Role is the chat role of a message sent upstream.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry of a chat-completion conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// DebateTurn is one contribution to the debate transcript.
// Round is set only for rebuttals and is 1 or 2.
type DebateTurn struct {
	Side       Side      `json:"position"`
	Kind       TurnKind  `json:"type"`
	Round      int       `json:"round,omitempty"`
	Text       string    `json:"content"`
	ProducedAt time.Time `json:"timestamp"`
}

// Label returns the heading used for the turn in transcripts.
func (t DebateTurn) Label() string {
	if t.Kind == TurnOpening {
		return "Opening Statement"
	}
	return "Round " + strconv.Itoa(t.Round) + " Rebuttal"
}

// SamplingParams holds the decoding parameters for one upstream call.
// Nil fields are left to the provider.
type SamplingParams struct {
	Temperature       *float64 `json:"temperature,omitempty"`
	MaxTokens         *int     `json:"maxTokens,omitempty"`
	TopP              *float64 `json:"topP,omitempty"`
	TopK              *int     `json:"topK,omitempty"`
	FrequencyPenalty  *float64 `json:"frequencyPenalty,omitempty"`
	PresencePenalty   *float64 `json:"presencePenalty,omitempty"`
	RepetitionPenalty *float64 `json:"repetitionPenalty,omitempty"`
	MinP              *float64 `json:"minP,omitempty"`
}

// WithDefaults returns a copy of p with Temperature and MaxTokens filled in
// when unset.
func (p SamplingParams) WithDefaults(temperature float64, maxTokens int) SamplingParams {
	if p.Temperature == nil {
		p.Temperature = &temperature
	}
	if p.MaxTokens == nil {
		p.MaxTokens = &maxTokens
	}
	return p
}

// GenerationRequest describes one debater turn to generate.
type GenerationRequest struct {
	Model         string
	Side          Side
	Topic         string
	PriorTurns    []DebateTurn
	TurnKind      TurnKind
	Round         int
	Length        LengthTier
	PersonalityID string
	Sampling      SamplingParams
	Provider      string
}

// JudgeVerdict is one judge's decision on a completed debate.
type JudgeVerdict struct {
	JudgeIndex  int    `json:"judgeNumber"`
	Winner      Winner `json:"winner"`
	Reasoning   string `json:"reasoning"`
	Personality string `json:"personality"`
	// PersonalityID is the registry id behind Personality; callers feed it
	// back as a used personality for the next judge.
	PersonalityID string `json:"personalityId,omitempty"`
}

// Participant identifies who argued one side.
type Participant struct {
	Provider    string `json:"provider,omitempty"`
	Model       string `json:"model,omitempty"`
	Personality string `json:"personality,omitempty"`
}

// Debate is a complete debate with its panel decision.
type Debate struct {
	ID        string         `json:"id"`
	Topic     string         `json:"topic"`
	For       Participant    `json:"for"`
	Against   Participant    `json:"against"`
	Turns     []DebateTurn   `json:"turns"`
	Judges    []JudgeVerdict `json:"judges,omitempty"`
	Winner    Winner         `json:"finalWinner,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}

// Participant returns the participant arguing side.
func (d *Debate) Participant(side Side) Participant {
	if side == SideFor {
		return d.For
	}
	return d.Against
}
