package sbom

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKey(t *testing.T) {
	t.Run("purl wins", func(t *testing.T) {
		c := Component{
			"purl":    "pkg:npm/left-pad@1.3.0",
			"name":    "left-pad",
			"version": "1.3.0",
		}
		assert.Equal(t, "pkg:npm/left-pad@1.3.0", Key(c))
	})

	t.Run("name and version", func(t *testing.T) {
		c := Component{"name": "curl", "version": "7.68.0"}
		assert.Equal(t, "curl@7.68.0", Key(c))
	})

	t.Run("empty purl falls through", func(t *testing.T) {
		c := Component{"purl": "", "name": "curl", "version": "7.68.0"}
		assert.Equal(t, "curl@7.68.0", Key(c))
	})

	t.Run("name without version falls back to serialization", func(t *testing.T) {
		c := Component{"name": "curl"}
		assert.Equal(t, `{"name":"curl"}`, Key(c))
	})

	t.Run("empty record has a non-empty deterministic key", func(t *testing.T) {
		c := Component{}
		k := Key(c)
		assert.NotEmpty(t, k)
		assert.Equal(t, k, Key(c))
	})

	t.Run("deterministic across repeated calls", func(t *testing.T) {
		c := Component{
			"type":      "library",
			"foundBy":   "dpkg-db-cataloger",
			"locations": []any{map[string]any{"path": "/var/lib/dpkg/status"}},
		}
		assert.Equal(t, Key(c), Key(c))
	})

	t.Run("non-string purl is ignored", func(t *testing.T) {
		c := Component{"purl": 7.0, "name": "curl", "version": "7.68.0"}
		assert.Equal(t, "curl@7.68.0", Key(c))
	})
}
