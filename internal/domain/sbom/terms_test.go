package sbom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractTerms(t *testing.T) {
	t.Run("strips json syntax and short words", func(t *testing.T) {
		tally := ExtractTerms(`{"name":"curl","v":"7.68"}`)
		assert.Equal(t, 1, tally.Count("name"))
		assert.Equal(t, 1, tally.Count("curl"))
		// "v" and "7.68" are shorter than four characters
		assert.Equal(t, 0, tally.Count("v"))
	})

	t.Run("lowercases", func(t *testing.T) {
		tally := ExtractTerms(`{"license":"Apache"}`)
		assert.Equal(t, 1, tally.Count("apache"))
		assert.Equal(t, 0, tally.Count("Apache"))
	})
}

func TestCompareTerms(t *testing.T) {
	t.Run("common and unique terms", func(t *testing.T) {
		got := CompareTerms(
			`{"name":"openssl","kind":"library"}`,
			`{"name":"openssl","kind":"archive"}`,
		)

		var commonTerms []string
		for _, e := range got.CommonTerms {
			commonTerms = append(commonTerms, e.Term)
		}
		assert.Contains(t, commonTerms, "openssl")
		assert.Contains(t, commonTerms, "name")

		require.Len(t, got.UniqueToFirst, 1)
		assert.Equal(t, "library", got.UniqueToFirst[0].ID)
		require.Len(t, got.UniqueToSecond, 1)
		assert.Equal(t, "archive", got.UniqueToSecond[0].ID)
	})

	t.Run("counts per side", func(t *testing.T) {
		got := CompareTerms(`openssl openssl libcrypto`, `openssl libssl`)
		require.NotEmpty(t, got.CommonTerms)
		top := got.CommonTerms[0]
		assert.Equal(t, "openssl", top.Term)
		assert.Equal(t, 2, top.Counts.First)
		assert.Equal(t, 1, top.Counts.Second)
		assert.Equal(t, 3, top.Counts.Total)
	})

	t.Run("similarity is term-level jaccard", func(t *testing.T) {
		// terms1 = {alpha, beta}, terms2 = {beta, gamma}: 1/(2+2-1)
		got := CompareTerms(`alpha beta`, `beta gamma`)
		assert.InDelta(t, 1.0/3.0, got.Similarity, 1e-9)
	})

	t.Run("empty inputs yield zero similarity", func(t *testing.T) {
		got := CompareTerms("", "")
		assert.Equal(t, 0.0, got.Similarity)
		assert.Empty(t, got.CommonTerms)
	})
}
