package sbom

import (
	"encoding/json"
	"strings"
)

// SearchComponents returns the components whose serialized JSON contains the
// keyword, case-insensitively. The match is structural-agnostic on purpose:
// it hits names, versions, purls, license ids and any other field, which is
// what an interactive "find in this SBOM" box wants.
func SearchComponents(components []Component, keyword string) []Component {
	needle := strings.ToLower(keyword)
	if needle == "" {
		return nil
	}
	var out []Component
	for _, c := range components {
		data, err := json.Marshal(c)
		if err != nil {
			continue
		}
		if strings.Contains(strings.ToLower(string(data)), needle) {
			out = append(out, c)
		}
	}
	return out
}
