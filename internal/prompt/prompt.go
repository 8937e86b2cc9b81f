// Package prompt builds the chat messages sent upstream for debater turns
// and judge evaluations. Output depends only on the inputs.
package prompt

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"text/template"

	"github.com/ForgottenHistory/Debate-Corner/internal/core"
)

// ErrInvalidRequest is returned for side, turn kind or round values that
// cannot form a debate turn.
var ErrInvalidRequest = errors.New("invalid generation request")

// StyleResolver maps a personality id to its style instruction.
type StyleResolver interface {
	ResolveStyle(id string) string
}

// LengthDirective is the word-count guidance for one length tier.
type LengthDirective struct {
	Words       string
	Instruction string
}

var lengths = map[core.LengthTier]LengthDirective{
	core.LengthShort: {
		Words:       "75-150 words",
		Instruction: "You MUST keep your response between 75-150 words. This is a strict requirement. Be concise and focus only on your strongest points.",
	},
	core.LengthMedium: {
		Words:       "150-250 words",
		Instruction: "You MUST keep your response between 150-250 words. This is a strict requirement. Be thorough but concise.",
	},
	core.LengthLong: {
		Words:       "250-400 words",
		Instruction: "You MUST keep your response between 250-400 words. This is a strict requirement. Provide detailed arguments with supporting evidence.",
	},
}

// Length returns the directive for tier. Unknown tiers get the medium one.
func Length(tier core.LengthTier) LengthDirective {
	if d, ok := lengths[tier]; ok {
		return d
	}
	return lengths[core.LengthMedium]
}

var roles = map[core.Side]string{
	core.SideFor:     "Your role is to argue in favor of this proposition. Present strong arguments, evidence, and reasoning that support this position.",
	core.SideAgainst: "Your role is to argue against this proposition. Present strong counterarguments, evidence, and reasoning that oppose this position.",
}

const (
	openingCue  = "Present your opening statement."
	rebuttalCue = "Present your rebuttal and further arguments."
)

var debaterTemplate = template.Must(template.New("debater").Parse(`You are participating in a formal debate. You are arguing {{.Side}} the proposition: "{{.Topic}}".

{{.Role}}

PERSONALITY & DEBATE STYLE:
{{.Style}}

CRITICAL LENGTH REQUIREMENT:
{{.Length.Instruction}}

Guidelines:
- Keep formalities brief - avoid lengthy greetings or meta-commentary
- Focus on substance: present your arguments and evidence clearly
- Be persuasive and use logical reasoning
- Cite examples and evidence when possible
- Address counterarguments effectively
- Keep your response focused and well-structured
- Be respectful but assertive
- NEVER use emojis - keep all text clean and professional
- STRICTLY adhere to the {{.Length.Words}} word limit above

{{if .Opening -}}
This is your OPENING STATEMENT. Your opponent has NOT spoken yet. Present YOUR OWN arguments and reasoning. DO NOT reference or predict what your opponent will say - they haven't spoken yet!
{{- else -}}
This is Round {{.Round}}. NOW you can respond to your opponent's actual arguments from their previous statement. Reference what they actually said and counter their specific points.
{{- end}}`))

var judgeTemplate = template.Must(template.New("judge").Parse(`You are a debate judge tasked with evaluating a formal debate.

JUDGE PERSONALITY:
{{.Style}}

Debate Topic: "{{.Topic}}"

You will review the complete debate transcript and determine:
1. Which side (FOR or AGAINST) presented the stronger case
2. Your reasoning for this decision

Your evaluation should be 100-150 words.

Format your response as:
Winner: [FOR/AGAINST/TIE]
Reasoning: [Your detailed reasoning]`))

// ComposeDebater builds the message list for one debater turn: a system
// message, one message per prior turn, and a closing cue. Prior turns from
// the requesting side become assistant messages and the opponent's become
// user messages.
func ComposeDebater(req core.GenerationRequest, styles StyleResolver) ([]core.Message, error) {
	if err := checkTurn(req); err != nil {
		return nil, err
	}

	data := struct {
		Side    core.Side
		Topic   string
		Role    string
		Style   string
		Length  LengthDirective
		Opening bool
		Round   int
	}{
		Side:    req.Side,
		Topic:   req.Topic,
		Role:    roles[req.Side],
		Style:   strings.TrimSpace(styles.ResolveStyle(req.PersonalityID)),
		Length:  Length(req.Length),
		Opening: req.TurnKind == core.TurnOpening,
		Round:   req.Round,
	}

	system, err := render(debaterTemplate, data)
	if err != nil {
		return nil, err
	}

	messages := make([]core.Message, 0, len(req.PriorTurns)+2)
	messages = append(messages, core.Message{Role: core.RoleSystem, Content: system})
	for _, t := range req.PriorTurns {
		role := core.RoleUser
		if t.Side == req.Side {
			role = core.RoleAssistant
		}
		messages = append(messages, core.Message{Role: role, Content: t.Text})
	}

	cue := rebuttalCue
	if req.TurnKind == core.TurnOpening {
		cue = openingCue
	}
	messages = append(messages, core.Message{Role: core.RoleUser, Content: cue})

	return messages, nil
}

func checkTurn(req core.GenerationRequest) error {
	if !req.Side.Valid() {
		return fmt.Errorf("%w: unknown position %q", ErrInvalidRequest, req.Side)
	}
	switch req.TurnKind {
	case core.TurnOpening:
	case core.TurnRebuttal:
		if req.Round < 1 || req.Round > core.Rounds {
			return fmt.Errorf("%w: rebuttal round must be 1..%d, got %d", ErrInvalidRequest, core.Rounds, req.Round)
		}
	default:
		return fmt.Errorf("%w: unknown turn type %q", ErrInvalidRequest, req.TurnKind)
	}
	return nil
}

// ComposeJudge builds the message list for one judge: a system message
// carrying the judge's style and the required answer format, and a user
// message with the full transcript.
func ComposeJudge(topic string, transcript []core.DebateTurn, judgeStyle string) ([]core.Message, error) {
	system, err := render(judgeTemplate, struct {
		Style string
		Topic string
	}{strings.TrimSpace(judgeStyle), topic})
	if err != nil {
		return nil, err
	}

	return []core.Message{
		{Role: core.RoleSystem, Content: system},
		{Role: core.RoleUser, Content: Transcript(transcript) + "\nPlease provide your evaluation."},
	}, nil
}

// Transcript renders turns as the plain-text transcript shown to judges.
func Transcript(turns []core.DebateTurn) string {
	var b strings.Builder
	b.WriteString("DEBATE TRANSCRIPT:\n\n")
	for _, t := range turns {
		fmt.Fprintf(&b, "%s - %s:\n%s\n\n", t.Side, t.Label(), t.Text)
	}
	return b.String()
}

func render(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute %s template: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}
