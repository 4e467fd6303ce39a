package sbom

import (
	"encoding/json"
	"fmt"
)

// Key derives the canonical identity of a component for cross-document
// comparison. Resolution order:
//
//  1. a non-empty "purl" is returned verbatim: a package URL is the most
//     precise, format-independent identifier available;
//  2. non-empty "name" and "version" yield "name@version";
//  3. otherwise the whole record is serialized deterministically
//     (encoding/json writes map keys in sorted order).
//
// Key is pure: identical input always yields identical output, so set
// operations built on key equality are stable across runs and across the
// two documents of a comparison. The serialization fallback guards against
// crashing on sparse records, not against false equivalence: two distinct
// components that both lack identifying fields and serialize identically
// will collide. That is a known comparison-accuracy limitation, kept as is.
func Key(c Component) string {
	if purl := stringField(c, "purl"); purl != "" {
		return purl
	}
	name := stringField(c, "name")
	version := stringField(c, "version")
	if name != "" && version != "" {
		return name + "@" + version
	}
	data, err := json.Marshal(c)
	if err != nil {
		// Components come from parsed JSON, so marshaling cannot normally
		// fail; fall back to fmt to stay total.
		return fmt.Sprintf("%v", map[string]any(c))
	}
	return string(data)
}

// stringField reads a string-typed field, returning "" for absent or
// non-string values.
func stringField(c Component, field string) string {
	v, ok := c[field].(string)
	if !ok {
		return ""
	}
	return v
}
