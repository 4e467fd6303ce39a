package sbom

import "math"

// MaxListEntries caps the component lists carried in a Comparison. Counts
// always reflect the untruncated totals.
const MaxListEntries = 100

// Comparison is the read-only result of comparing two component sequences.
type Comparison struct {
	Common       []Component `json:"common_components"`
	OnlyInFirst  []Component `json:"only_in_first"`
	OnlyInSecond []Component `json:"only_in_second"`

	CommonCount       int `json:"common_count"`
	OnlyInFirstCount  int `json:"only_in_first_count"`
	OnlyInSecondCount int `json:"only_in_second_count"`

	// TotalFirst and TotalSecond are the distinct-key counts per side.
	TotalFirst  int `json:"total_first"`
	TotalSecond int `json:"total_second"`

	// Similarity is the Jaccard-style percentage
	// common / (totalFirst + totalSecond - common) * 100,
	// rounded to two decimals, and 0 whenever either input is empty.
	Similarity float64 `json:"similarity_score"`
}

// keyedSide indexes one component sequence by identity key, remembering
// first-discovery order of keys so output lists are deterministic. Duplicate
// keys within a sequence keep the last record seen (last-write-wins; which
// duplicate survives is implementation-defined and not relied upon).
type keyedSide struct {
	byKey map[string]Component
	order []string
}

func keyComponents(components []Component) keyedSide {
	side := keyedSide{byKey: make(map[string]Component, len(components))}
	for _, c := range components {
		k := Key(c)
		if _, seen := side.byKey[k]; !seen {
			side.order = append(side.order, k)
		}
		side.byKey[k] = c
	}
	return side
}

// Compare computes common and per-side unique component sets of two
// documents, using Key for set membership, plus similarity statistics.
// Common representatives are taken from the first sequence. Pure: repeated
// calls on unchanged inputs yield identical results.
func Compare(first, second []Component) Comparison {
	a := keyComponents(first)
	b := keyComponents(second)

	var common, onlyFirst, onlySecond []Component
	for _, k := range a.order {
		if _, ok := b.byKey[k]; ok {
			common = append(common, a.byKey[k])
		} else {
			onlyFirst = append(onlyFirst, a.byKey[k])
		}
	}
	for _, k := range b.order {
		if _, ok := a.byKey[k]; !ok {
			onlySecond = append(onlySecond, b.byKey[k])
		}
	}

	result := Comparison{
		CommonCount:       len(common),
		OnlyInFirstCount:  len(onlyFirst),
		OnlyInSecondCount: len(onlySecond),
		TotalFirst:        len(a.order),
		TotalSecond:       len(b.order),
		Common:            truncate(common),
		OnlyInFirst:       truncate(onlyFirst),
		OnlyInSecond:      truncate(onlySecond),
	}

	// Zero on either-empty is a deliberate policy, not a mathematical
	// necessity: it also avoids a divide error when both sides are empty.
	if len(first) == 0 || len(second) == 0 {
		return result
	}

	denom := float64(result.TotalFirst + result.TotalSecond - result.CommonCount)
	result.Similarity = round2(float64(result.CommonCount) / denom * 100)
	return result
}

func truncate(components []Component) []Component {
	if len(components) > MaxListEntries {
		return components[:MaxListEntries]
	}
	return components
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
