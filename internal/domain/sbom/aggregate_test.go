package sbom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregate(t *testing.T) {
	t.Run("unknown-only components", func(t *testing.T) {
		components := make([]Component, 5)
		for i := range components {
			components[i] = Component{}
		}
		stats := Aggregate(components)
		assert.Equal(t, 5, stats.TotalComponents)
		assert.Equal(t, 1, stats.UniqueLicenses)
		assert.Equal(t, map[string]int{"Unknown": 5}, stats.Licenses.Map())
	})

	t.Run("empty input", func(t *testing.T) {
		stats := Aggregate(nil)
		assert.Equal(t, 0, stats.TotalComponents)
		assert.Equal(t, 0, stats.UniqueLicenses)
		assert.Empty(t, stats.Licenses.Map())
	})

	t.Run("double declaration counts twice", func(t *testing.T) {
		components := []Component{{
			"licenses": []any{
				map[string]any{"license": map[string]any{"id": "MIT"}},
			},
			"licenseDeclared": "MIT",
		}}
		stats := Aggregate(components)
		assert.Equal(t, 1, stats.UniqueLicenses)
		assert.Equal(t, 2, stats.Licenses.Count("MIT"))
	})

	t.Run("mixed formats tally together", func(t *testing.T) {
		components := []Component{
			{"licenseConcluded": "MIT"},
			{"licenseDeclared": "MIT"},
			{"licenses": []any{map[string]any{"expression": "GPL-3.0-only"}}},
			{},
		}
		stats := Aggregate(components)
		assert.Equal(t, 4, stats.TotalComponents)
		assert.Equal(t, 3, stats.UniqueLicenses)
		assert.Equal(t, map[string]int{
			"MIT":          2,
			"GPL-3.0-only": 1,
			"Unknown":      1,
		}, stats.Licenses.Map())
	})
}

func TestTallyTopN(t *testing.T) {
	t.Run("orders by count descending", func(t *testing.T) {
		tally := NewTally()
		for _, id := range []string{"a", "b", "b", "c", "c", "c"} {
			tally.Add(id)
		}
		got := tally.TopN(2)
		require.Len(t, got, 2)
		assert.Equal(t, Entry{ID: "c", Count: 3}, got[0])
		assert.Equal(t, Entry{ID: "b", Count: 2}, got[1])
	})

	t.Run("ties keep first-discovery order", func(t *testing.T) {
		tally := NewTally()
		for _, id := range []string{"zeta", "alpha", "mid", "mid"} {
			tally.Add(id)
		}
		got := tally.TopN(10)
		require.Len(t, got, 3)
		assert.Equal(t, "mid", got[0].ID)
		assert.Equal(t, "zeta", got[1].ID)
		assert.Equal(t, "alpha", got[2].ID)
	})

	t.Run("negative n returns everything", func(t *testing.T) {
		tally := NewTally()
		tally.Add("x")
		tally.Add("y")
		assert.Len(t, tally.TopN(-1), 2)
	})
}
