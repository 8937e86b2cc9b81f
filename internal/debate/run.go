package debate

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/ForgottenHistory/Debate-Corner/internal/core"
	"github.com/ForgottenHistory/Debate-Corner/internal/verdict"
)

// JudgeSeat identifies the provider and model of one panel seat.
type JudgeSeat struct {
	Provider string
	Model    string
}

// RunConfig describes a complete debate.
type RunConfig struct {
	Topic    string
	For      core.Participant
	Against  core.Participant
	Judges   []JudgeSeat
	Length   core.LengthTier
	Sampling core.SamplingParams
	// Stream requests turns as event streams so that fragments reach the
	// observer while they are generated.
	Stream bool
}

// Observer receives progress while a debate runs. Nil hooks are skipped.
type Observer struct {
	OnFragment func(side core.Side, fragment string)
	OnTurn     func(turn core.DebateTurn)
	OnVerdict  func(v core.JudgeVerdict)
}

func (o Observer) fragment(side core.Side, f string) {
	if o.OnFragment != nil {
		o.OnFragment(side, f)
	}
}

func (o Observer) turn(t core.DebateTurn) {
	if o.OnTurn != nil {
		o.OnTurn(t)
	}
}

func (o Observer) verdict(v core.JudgeVerdict) {
	if o.OnVerdict != nil {
		o.OnVerdict(v)
	}
}

func (s *Service) validateRun(cfg RunConfig) error {
	if strings.TrimSpace(cfg.Topic) == "" {
		return fmt.Errorf("%w: topic is required", ErrInvalidInput)
	}
	for _, side := range []core.Side{core.SideFor, core.SideAgainst} {
		p := cfg.For
		if side == core.SideAgainst {
			p = cfg.Against
		}
		if strings.TrimSpace(p.Model) == "" {
			return fmt.Errorf("%w: %s model is required", ErrInvalidInput, side)
		}
		if _, err := s.resolveProvider(p.Provider); err != nil {
			return fmt.Errorf("%s: %w", side, err)
		}
	}
	if len(cfg.Judges) != core.PanelSize {
		return fmt.Errorf("%w: expected %d judges, got %d", ErrInvalidInput, core.PanelSize, len(cfg.Judges))
	}
	for i, j := range cfg.Judges {
		if strings.TrimSpace(j.Model) == "" {
			return fmt.Errorf("%w: judge %d model is required", ErrInvalidInput, i+1)
		}
		if _, err := s.resolveProvider(j.Provider); err != nil {
			return fmt.Errorf("judge %d: %w", i+1, err)
		}
	}
	return nil
}

// Run plays a full debate: both openings, every rebuttal round, then the
// judge panel. Each judge gets a personality the earlier judges did not use
// while unused ones remain.
func (s *Service) Run(ctx context.Context, cfg RunConfig, obs Observer) (*core.Debate, error) {
	if err := s.validateRun(cfg); err != nil {
		return nil, err
	}

	d := &core.Debate{
		ID:        core.NewID(),
		Topic:     cfg.Topic,
		For:       s.withDefaults(cfg.For),
		Against:   s.withDefaults(cfg.Against),
		CreatedAt: s.now(),
	}

	slog.Info("Starting debate", "id", core.ShortID(d.ID), "topic", d.Topic,
		"for", d.For.Provider+"/"+d.For.Model, "against", d.Against.Provider+"/"+d.Against.Model)

	for _, next := range core.Schedule() {
		if err := ctx.Err(); err != nil {
			return d, err
		}

		p := d.Participant(next.Side)
		req := core.GenerationRequest{
			Model:         p.Model,
			Side:          next.Side,
			Topic:         d.Topic,
			PriorTurns:    slices.Clone(d.Turns),
			TurnKind:      next.Kind,
			Round:         next.Round,
			Length:        cfg.Length,
			PersonalityID: p.Personality,
			Sampling:      cfg.Sampling,
			Provider:      p.Provider,
		}

		text, err := s.runTurn(ctx, req, cfg.Stream, obs)
		if err != nil {
			return d, err
		}

		turn := core.DebateTurn{
			Side:       next.Side,
			Kind:       next.Kind,
			Round:      next.Round,
			Text:       text,
			ProducedAt: s.now(),
		}
		d.Turns = append(d.Turns, turn)
		obs.turn(turn)
	}

	var used []string
	for i, seat := range cfg.Judges {
		v, err := s.Judge(ctx, JudgeRequest{
			Provider:          seat.Provider,
			Model:             seat.Model,
			Topic:             d.Topic,
			Transcript:        d.Turns,
			UsedPersonalities: used,
			JudgeIndex:        i + 1,
		})
		if err != nil {
			return d, fmt.Errorf("judge %d: %w", i+1, err)
		}
		used = append(used, v.PersonalityID)
		d.Judges = append(d.Judges, v)
		obs.verdict(v)
	}

	winner, err := verdict.Aggregate(d.Judges)
	if err != nil {
		return d, err
	}
	d.Winner = winner

	slog.Info("Debate completed", "id", core.ShortID(d.ID), "winner", winner)
	return d, nil
}

func (s *Service) runTurn(ctx context.Context, req core.GenerationRequest, streamed bool, obs Observer) (string, error) {
	if !streamed {
		text, err := s.GenerateTurn(ctx, req)
		if err != nil {
			return "", err
		}
		obs.fragment(req.Side, text)
		return text, nil
	}

	t, body, err := s.StreamTurn(ctx, req)
	if err != nil {
		return "", err
	}
	defer body.Close()

	var sb strings.Builder
	for fragment, err := range t.All() {
		if err != nil {
			return "", fmt.Errorf("failed to stream %s turn: %w", req.Side, err)
		}
		sb.WriteString(fragment)
		obs.fragment(req.Side, fragment)
	}
	return sb.String(), nil
}

func (s *Service) withDefaults(p core.Participant) core.Participant {
	if p.Provider == "" {
		p.Provider = s.settings.Provider
	}
	if p.Personality == "" {
		p.Personality = s.settings.Personality
	}
	return p
}
