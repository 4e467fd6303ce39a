package sbom

import (
	"path/filepath"
	"strings"
)

// Metadata describes one cataloged SBOM document. Fields not derivable from
// the document or its filename stay at their "unknown" defaults; callers may
// override them with user-supplied values.
type Metadata struct {
	AppName         string
	Category        string
	OperatingSystem string
	AppBinaryType   string
	Supplier        string
	Manufacturer    string
	Version         string
	TotalComponents int
	UniqueLicenses  int
}

const unknownValue = "unknown"

var (
	knownOSNames  = []string{"windows", "linux", "macos", "android", "ios"}
	knownAppTypes = []string{"mobile", "web", "server", "service"}
)

// ExtractMetadata derives catalog metadata for a parsed document stored
// under the given filename. CycloneDX documents contribute their
// metadata.component (name, version, supplier, and the category/os/type
// properties); component and license counts come from the extraction
// pipeline; the filename fills OS and binary type when the document is
// silent about them.
func ExtractMetadata(doc map[string]any, filename string) Metadata {
	base := filepath.Base(filename)
	md := Metadata{
		AppName:         appNameFromFilename(base),
		Category:        unknownValue,
		OperatingSystem: unknownValue,
		AppBinaryType:   "desktop",
		Supplier:        unknownValue,
		Manufacturer:    unknownValue,
		Version:         unknownValue,
	}

	components := Extract(doc)
	stats := Aggregate(components)
	md.TotalComponents = stats.TotalComponents
	md.UniqueLicenses = stats.UniqueLicenses

	applyRootComponent(&md, doc)

	lower := strings.ToLower(base)
	if md.OperatingSystem == unknownValue {
		for _, name := range knownOSNames {
			if strings.Contains(lower, name) {
				md.OperatingSystem = name
				break
			}
		}
	}
	if md.AppBinaryType == "desktop" {
		for _, appType := range knownAppTypes {
			if strings.Contains(lower, appType) {
				md.AppBinaryType = appType
				break
			}
		}
	}

	return md
}

// applyRootComponent reads the CycloneDX metadata.component block.
func applyRootComponent(md *Metadata, doc map[string]any) {
	meta, ok := doc["metadata"].(map[string]any)
	if !ok {
		return
	}
	root, ok := meta["component"].(map[string]any)
	if !ok {
		return
	}

	if name, ok := root["name"].(string); ok && name != "" {
		md.AppName = name
	}
	if version, ok := root["version"].(string); ok && version != "" {
		md.Version = version
	}
	if supplier, ok := root["supplier"].(map[string]any); ok {
		if name, ok := supplier["name"].(string); ok && name != "" {
			md.Supplier = name
			md.Manufacturer = name
		}
	}

	props, ok := root["properties"].([]any)
	if !ok {
		return
	}
	for _, p := range props {
		prop, ok := p.(map[string]any)
		if !ok {
			continue
		}
		name, _ := prop["name"].(string)
		value, _ := prop["value"].(string)
		if value == "" {
			continue
		}
		switch name {
		case "category":
			md.Category = value
		case "os":
			md.OperatingSystem = value
		case "type":
			md.AppBinaryType = value
		}
	}
}

// appNameFromFilename guesses an application name from a dataset filename
// of the form "<app>_<qualifiers>.json".
func appNameFromFilename(base string) string {
	name := strings.TrimSuffix(base, filepath.Ext(base))
	if i := strings.IndexByte(name, '_'); i > 0 {
		return name[:i]
	}
	return name
}

// Supplier reads a component's supplier, tolerating the two encodings seen
// in the wild: a plain string (Syft) or a {"name": ...} mapping (CycloneDX).
// Absent or unreadable suppliers yield "Unknown".
func Supplier(c Component) string {
	switch v := c["supplier"].(type) {
	case string:
		if v != "" {
			return v
		}
	case map[string]any:
		if name, ok := v["name"].(string); ok && name != "" {
			return name
		}
	}
	return "Unknown"
}
