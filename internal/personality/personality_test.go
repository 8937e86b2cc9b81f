package personality

import (
	"math/rand/v2"
	"slices"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDebaters(t *testing.T) {
	r, err := LoadDebaters("")
	require.NoError(t, err)
	assert.Equal(t, 8, r.Len())

	required := []string{"honest", "manipulative", "academic", "strawman", "emotional", "pedantic", "ignorant", "zealot"}
	for _, id := range required {
		p, ok := r.Get(id)
		if !assert.True(t, ok, "personality %s not found", id) {
			continue
		}
		assert.Equal(t, id, p.ID)
		assert.NotEmpty(t, p.Style, "personality %s has no style", id)
	}
}

func TestLoadJudges(t *testing.T) {
	r, err := LoadJudges("")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, r.Len(), 3, "judge registry must cover a full panel")
}

func TestLoad(t *testing.T) {
	t.Run("IDFromFileName", func(t *testing.T) {
		fsys := fstest.MapFS{
			"calm.yaml": {Data: []byte("name: Calm\ndescription: d\nstyle: stay calm\n")},
			"notes.txt": {Data: []byte("ignored")},
		}
		r, err := Load(fsys)
		require.NoError(t, err)
		assert.Equal(t, []string{"calm"}, r.IDs())
	})

	t.Run("MissingField", func(t *testing.T) {
		fsys := fstest.MapFS{
			"calm.yaml": {Data: []byte("name: Calm\ndescription: d\n")},
		}
		_, err := Load(fsys)
		assert.Error(t, err, "missing style")
	})

	t.Run("Malformed", func(t *testing.T) {
		fsys := fstest.MapFS{
			"calm.yaml": {Data: []byte("name: [unclosed")},
		}
		_, err := Load(fsys)
		assert.Error(t, err)
	})

	t.Run("Empty", func(t *testing.T) {
		_, err := Load(fstest.MapFS{})
		assert.Error(t, err)
	})
}

func TestLoadDebatersFromDir(t *testing.T) {
	_, err := LoadDebaters(t.TempDir())
	assert.Error(t, err, "empty directory")
}

func testRegistry(t *testing.T, ids ...string) *Registry {
	t.Helper()
	var ps []Personality
	for _, id := range ids {
		ps = append(ps, Personality{ID: id, Name: id, Description: id, Style: "style of " + id})
	}
	r, err := New(ps, WithRand(rand.New(rand.NewPCG(1, 2))))
	require.NoError(t, err)
	return r
}

func TestResolveStyle(t *testing.T) {
	t.Run("Known", func(t *testing.T) {
		r := testRegistry(t, "honest", "zealot")
		assert.Equal(t, "style of zealot", r.ResolveStyle("zealot"))
	})

	t.Run("UnknownFallsBackToHonest", func(t *testing.T) {
		r := testRegistry(t, "honest", "zealot")
		assert.Equal(t, "style of honest", r.ResolveStyle("nonexistent"))
		assert.Equal(t, "style of honest", r.ResolveStyle(""))
	})

	t.Run("NoHonest", func(t *testing.T) {
		r := testRegistry(t, "zealot")
		assert.Empty(t, r.ResolveStyle("nonexistent"))
	})
}

func TestPickUnused(t *testing.T) {
	r := testRegistry(t, "a", "b", "c")

	t.Run("AvoidsUsed", func(t *testing.T) {
		for range 100 {
			require.Equal(t, "c", r.PickUnused([]string{"a", "b"}))
		}
	})

	t.Run("PanelIsDistinct", func(t *testing.T) {
		for range 50 {
			var used []string
			for range 3 {
				used = append(used, r.PickUnused(used))
			}
			require.Equal(t, []string{"a", "b", "c"}, slices.Sorted(slices.Values(used)), "panel not distinct: %v", used)
		}
	})

	t.Run("AllUsedFallsBackToFullSet", func(t *testing.T) {
		got := r.PickUnused([]string{"a", "b", "c"})
		assert.True(t, r.Valid(got), "got unknown id %q", got)
	})

	t.Run("UnknownUsedIgnored", func(t *testing.T) {
		got := r.PickUnused([]string{"zzz"})
		assert.True(t, r.Valid(got), "got unknown id %q", got)
	})
}

func TestNewRejectsDuplicates(t *testing.T) {
	ps := []Personality{
		{ID: "a", Name: "A", Description: "d", Style: "s"},
		{ID: "a", Name: "A", Description: "d", Style: "s"},
	}
	_, err := New(ps)
	assert.Error(t, err)
}
