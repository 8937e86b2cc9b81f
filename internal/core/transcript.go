package core

import (
	"errors"
	"fmt"
)

// ErrInvalidTranscript is returned when a transcript breaks turn ordering.
var ErrInvalidTranscript = errors.New("invalid transcript")

// ValidateTurn checks the shape of a single turn.
func ValidateTurn(t DebateTurn) error {
	if !t.Side.Valid() {
		return fmt.Errorf("%w: unknown position %q", ErrInvalidTranscript, t.Side)
	}
	switch t.Kind {
	case TurnOpening:
		if t.Round != 0 {
			return fmt.Errorf("%w: opening statement cannot carry round %d", ErrInvalidTranscript, t.Round)
		}
	case TurnRebuttal:
		if t.Round < 1 || t.Round > Rounds {
			return fmt.Errorf("%w: rebuttal round must be 1..%d, got %d", ErrInvalidTranscript, Rounds, t.Round)
		}
	default:
		return fmt.Errorf("%w: unknown turn type %q", ErrInvalidTranscript, t.Kind)
	}
	return nil
}

// ValidateTranscript checks that turns are well-formed and in debate order:
// one opening per side before any rebuttal, and at most one rebuttal per
// side per round, with rounds non-decreasing.
func ValidateTranscript(turns []DebateTurn) error {
	openings := map[Side]bool{}
	rebuttals := map[Side]map[int]bool{SideFor: {}, SideAgainst: {}}
	lastRound := 0

	for i, t := range turns {
		if err := ValidateTurn(t); err != nil {
			return fmt.Errorf("turn %d: %w", i, err)
		}
		switch t.Kind {
		case TurnOpening:
			if openings[t.Side] {
				return fmt.Errorf("%w: turn %d: duplicate opening statement for %s", ErrInvalidTranscript, i, t.Side)
			}
			if lastRound > 0 {
				return fmt.Errorf("%w: turn %d: opening statement after rebuttals", ErrInvalidTranscript, i)
			}
			openings[t.Side] = true
		case TurnRebuttal:
			if !openings[SideFor] || !openings[SideAgainst] {
				return fmt.Errorf("%w: turn %d: rebuttal before both opening statements", ErrInvalidTranscript, i)
			}
			if rebuttals[t.Side][t.Round] {
				return fmt.Errorf("%w: turn %d: duplicate round %d rebuttal for %s", ErrInvalidTranscript, i, t.Round, t.Side)
			}
			if t.Round < lastRound {
				return fmt.Errorf("%w: turn %d: round %d after round %d", ErrInvalidTranscript, i, t.Round, lastRound)
			}
			rebuttals[t.Side][t.Round] = true
			lastRound = t.Round
		}
	}
	return nil
}

// NextTurn returns the side, kind and round of the turn that follows the
// given transcript in standard debate order. done is true once both sides
// have delivered all rebuttals.
func NextTurn(turns []DebateTurn) (side Side, kind TurnKind, round int, done bool) {
	order := Schedule()
	if len(turns) >= len(order) {
		return "", "", 0, true
	}
	next := order[len(turns)]
	return next.Side, next.Kind, next.Round, false
}

// Schedule returns the fixed turn order of a debate: FOR then AGAINST for
// the openings and for every rebuttal round.
func Schedule() []DebateTurn {
	turns := []DebateTurn{
		{Side: SideFor, Kind: TurnOpening},
		{Side: SideAgainst, Kind: TurnOpening},
	}
	for r := 1; r <= Rounds; r++ {
		turns = append(turns,
			DebateTurn{Side: SideFor, Kind: TurnRebuttal, Round: r},
			DebateTurn{Side: SideAgainst, Kind: TurnRebuttal, Round: r},
		)
	}
	return turns
}
