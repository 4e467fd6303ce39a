// Package sbom implements the SBOM normalization and comparison engine:
// format-agnostic component extraction, component identity resolution,
// license extraction, aggregation and set-based document comparison.
//
// Every operation is a pure function over parsed JSON data. Malformed or
// partial documents degrade to empty sequences and sentinel values instead
// of returning errors; the only hard failure in the pipeline is a JSON
// parse error, which belongs to the I/O layer that loads documents.
package sbom

// Format identifies the schema family of an SBOM document.
type Format string

const (
	// FormatCycloneDX marks documents carrying a top-level "components" array.
	FormatCycloneDX Format = "cyclonedx"
	// FormatSPDX marks documents carrying a top-level "packages" array.
	FormatSPDX Format = "spdx"
	// FormatSyft marks documents carrying a top-level "artifacts" array.
	FormatSyft Format = "syft"
	// FormatUnknown marks documents matching none of the known conventions.
	FormatUnknown Format = "unknown"
)

// componentKeys maps each known format to its top-level component array key,
// in detection priority order. A document is assumed to follow exactly one
// convention; the first match wins and no merging across keys happens.
var componentKeys = []struct {
	key    string
	format Format
}{
	{"components", FormatCycloneDX},
	{"packages", FormatSPDX},
	{"artifacts", FormatSyft},
}

// Component is a single inventoried software unit inside an SBOM document.
// It is a transient read-only view into the parsed document and is never
// mutated by the engine.
type Component map[string]any

// DetectFormat structurally sniffs the schema family of a parsed document.
func DetectFormat(doc map[string]any) Format {
	for _, ck := range componentKeys {
		if _, ok := doc[ck.key]; ok {
			return ck.format
		}
	}
	return FormatUnknown
}

// Extract returns the flat component sequence of a parsed SBOM document,
// regardless of which known schema family produced it. An unrecognized
// document shape yields an empty sequence, not an error: callers observe
// it as zero counts. Array entries that are not JSON objects are skipped.
func Extract(doc map[string]any) []Component {
	for _, ck := range componentKeys {
		raw, ok := doc[ck.key]
		if !ok {
			continue
		}
		list, ok := raw.([]any)
		if !ok {
			return nil
		}
		components := make([]Component, 0, len(list))
		for _, entry := range list {
			if m, ok := entry.(map[string]any); ok {
				components = append(components, Component(m))
			}
		}
		return components
	}
	return nil
}
