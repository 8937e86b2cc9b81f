package core

import (
	"fmt"
	"strings"
)

// DebaterSpec selects the provider, model and personality for one side.
type DebaterSpec struct {
	Provider    string
	Model       string
	Personality string // Optional, defaults to the honest personality
}

// ParseDebaterSpec parses a debater specification string.
// Format: provider/model[@personality]
//
// Model ids may themselves contain slashes and colons, so only the first
// slash separates the provider and only the last '@' introduces a personality.
//
// Examples:
//   - "featherless/meta-llama/Meta-Llama-3.1-8B-Instruct"
//   - "openrouter/meta-llama/llama-3.1-8b-instruct:free@academic"
func ParseDebaterSpec(spec string) (DebaterSpec, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return DebaterSpec{}, fmt.Errorf("debater spec cannot be empty")
	}

	var d DebaterSpec

	if i := strings.LastIndex(spec, "@"); i != -1 {
		d.Personality = strings.TrimSpace(spec[i+1:])
		spec = spec[:i]
	}

	providerParts := strings.SplitN(spec, "/", 2)
	d.Provider = strings.TrimSpace(providerParts[0])
	if d.Provider == "" {
		return DebaterSpec{}, fmt.Errorf("provider cannot be empty in spec: %s", spec)
	}
	if len(providerParts) != 2 || strings.TrimSpace(providerParts[1]) == "" {
		return DebaterSpec{}, fmt.Errorf("model cannot be empty in spec: %s", spec)
	}
	d.Model = strings.TrimSpace(providerParts[1])

	return d, nil
}

// ParseJudgeSpecs parses a comma-separated list of judge specifications.
// Format: provider/model,provider/model,...
// A single spec is repeated for the whole panel.
func ParseJudgeSpecs(specsStr string, panel int) ([]DebaterSpec, error) {
	if specsStr == "" {
		return nil, fmt.Errorf("judge specs cannot be empty")
	}

	var judges []DebaterSpec
	for _, spec := range strings.Split(specsStr, ",") {
		spec = strings.TrimSpace(spec)
		if spec == "" {
			continue
		}
		j, err := ParseDebaterSpec(spec)
		if err != nil {
			return nil, fmt.Errorf("invalid judge spec '%s': %w", spec, err)
		}
		judges = append(judges, j)
	}

	switch len(judges) {
	case 0:
		return nil, fmt.Errorf("no valid judge specs found")
	case 1:
		for len(judges) < panel {
			judges = append(judges, judges[0])
		}
	}
	if len(judges) != panel {
		return nil, fmt.Errorf("need %d judges, got %d", panel, len(judges))
	}
	return judges, nil
}
