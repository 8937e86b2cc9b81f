package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDebaterSpec(t *testing.T) {
	tests := []struct {
		spec    string
		want    DebaterSpec
		wantErr bool
	}{
		{"featherless/meta-llama/Meta-Llama-3.1-8B-Instruct", DebaterSpec{Provider: "featherless", Model: "meta-llama/Meta-Llama-3.1-8B-Instruct"}, false},
		{"openrouter/meta-llama/llama-3.1-8b-instruct:free@academic", DebaterSpec{Provider: "openrouter", Model: "meta-llama/llama-3.1-8b-instruct:free", Personality: "academic"}, false},
		{" featherless/m @ zealot ", DebaterSpec{Provider: "featherless", Model: "m", Personality: "zealot"}, false},
		{"", DebaterSpec{}, true},
		{"featherless", DebaterSpec{}, true},
		{"/model", DebaterSpec{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			got, err := ParseDebaterSpec(tt.spec)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseJudgeSpecs(t *testing.T) {
	t.Run("SingleSpecFillsPanel", func(t *testing.T) {
		judges, err := ParseJudgeSpecs("featherless/m", PanelSize)
		require.NoError(t, err)
		assert.Len(t, judges, PanelSize)
	})

	t.Run("ThreeSpecs", func(t *testing.T) {
		judges, err := ParseJudgeSpecs("featherless/a, openrouter/b ,featherless/c", PanelSize)
		require.NoError(t, err)
		require.Len(t, judges, PanelSize)
		assert.Equal(t, DebaterSpec{Provider: "openrouter", Model: "b"}, judges[1])
	})

	t.Run("WrongCount", func(t *testing.T) {
		_, err := ParseJudgeSpecs("featherless/a,featherless/b", PanelSize)
		assert.Error(t, err)
	})
}
