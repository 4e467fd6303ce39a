package sbom

// UnknownLicense is the sentinel identifier for components without any
// discoverable license information. It keeps license sets non-empty so that
// aggregate counts account for every component exactly once per license slot.
const UnknownLicense = "Unknown"

// Licenses returns the license identifiers declared by a component. The
// three known encodings are applied cumulatively, not as alternatives, and
// the result is never deduplicated here: a component matching multiple
// encodings contributes every occurrence, and tallying is the aggregator's
// job:
//
//   - CycloneDX "licenses" list: {"license": {"id": ...}} entries contribute
//     the id (or "Unknown" when the license mapping has no id);
//     {"expression": ...} entries contribute the expression verbatim;
//   - SPDX "licenseConcluded", when non-empty;
//   - Syft "licenseDeclared", when non-empty.
//
// The result is never empty: a component with no license information yields
// ["Unknown"].
func Licenses(c Component) []string {
	var out []string

	if list, ok := c["licenses"].([]any); ok {
		for _, entry := range list {
			m, ok := entry.(map[string]any)
			if !ok {
				continue
			}
			if lic, ok := m["license"].(map[string]any); ok {
				if id, ok := lic["id"].(string); ok {
					out = append(out, id)
				} else {
					out = append(out, UnknownLicense)
				}
				continue
			}
			if expr, ok := m["expression"].(string); ok {
				out = append(out, expr)
			}
		}
	}

	if v := stringField(c, "licenseConcluded"); v != "" {
		out = append(out, v)
	}
	if v := stringField(c, "licenseDeclared"); v != "" {
		out = append(out, v)
	}

	if len(out) == 0 {
		return []string{UnknownLicense}
	}
	return out
}
