package sbom

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompare(t *testing.T) {
	t.Run("two-element overlap", func(t *testing.T) {
		first := []Component{{"purl": "A"}, {"purl": "B"}}
		second := []Component{{"purl": "B"}, {"purl": "C"}}

		got := Compare(first, second)

		require.Len(t, got.Common, 1)
		assert.Equal(t, "B", got.Common[0]["purl"])
		require.Len(t, got.OnlyInFirst, 1)
		assert.Equal(t, "A", got.OnlyInFirst[0]["purl"])
		require.Len(t, got.OnlyInSecond, 1)
		assert.Equal(t, "C", got.OnlyInSecond[0]["purl"])
		assert.Equal(t, 1, got.CommonCount)
		assert.Equal(t, 2, got.TotalFirst)
		assert.Equal(t, 2, got.TotalSecond)
		// 1 / (2 + 2 - 1) * 100
		assert.Equal(t, 33.33, got.Similarity)
	})

	t.Run("empty first input yields zero similarity", func(t *testing.T) {
		got := Compare(nil, []Component{{"purl": "A"}})
		assert.Equal(t, 0.0, got.Similarity)
		assert.Equal(t, 1, got.OnlyInSecondCount)
	})

	t.Run("empty second input yields zero similarity", func(t *testing.T) {
		got := Compare([]Component{{"purl": "A"}}, nil)
		assert.Equal(t, 0.0, got.Similarity)
		assert.Equal(t, 1, got.OnlyInFirstCount)
	})

	t.Run("both empty does not divide by zero", func(t *testing.T) {
		got := Compare(nil, nil)
		assert.Equal(t, 0.0, got.Similarity)
		assert.Equal(t, 0, got.CommonCount)
	})

	t.Run("identical inputs are fully similar", func(t *testing.T) {
		components := []Component{{"purl": "A"}, {"purl": "B"}}
		got := Compare(components, components)
		assert.Equal(t, 100.0, got.Similarity)
		assert.Equal(t, 2, got.CommonCount)
		assert.Empty(t, got.OnlyInFirst)
		assert.Empty(t, got.OnlyInSecond)
	})

	t.Run("common representatives come from the first side", func(t *testing.T) {
		first := []Component{{"purl": "B", "origin": "first"}}
		second := []Component{{"purl": "B", "origin": "second"}}
		got := Compare(first, second)
		require.Len(t, got.Common, 1)
		assert.Equal(t, "first", got.Common[0]["origin"])
	})

	t.Run("duplicate keys within a side collapse", func(t *testing.T) {
		first := []Component{
			{"purl": "A", "note": "one"},
			{"purl": "A", "note": "two"},
		}
		got := Compare(first, []Component{{"purl": "A"}})
		assert.Equal(t, 1, got.TotalFirst)
		assert.Equal(t, 1, got.CommonCount)
		assert.Equal(t, 100.0, got.Similarity)
	})

	t.Run("lists are truncated but counts are not", func(t *testing.T) {
		var first []Component
		for i := 0; i < MaxListEntries+50; i++ {
			first = append(first, Component{"purl": fmt.Sprintf("pkg:%d", i)})
		}
		got := Compare(first, nil)
		assert.Len(t, got.OnlyInFirst, MaxListEntries)
		assert.Equal(t, MaxListEntries+50, got.OnlyInFirstCount)
	})

	t.Run("idempotent on unchanged inputs", func(t *testing.T) {
		first := []Component{{"purl": "A"}, {"name": "curl", "version": "7.68.0"}, {}}
		second := []Component{{"purl": "A"}, {"name": "zlib", "version": "1.3"}}
		assert.Equal(t, Compare(first, second), Compare(first, second))
	})
}
