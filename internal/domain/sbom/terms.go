package sbom

import (
	"regexp"
	"strings"
)

const (
	minTermLength  = 4
	topCommonTerms = 50
	topUniqueTerms = 25
)

var jsonSyntax = regexp.MustCompile(`[{}\[\],:"]`)

// TermCounts holds a common term's per-document occurrence counts.
type TermCounts struct {
	First  int `json:"file1_count"`
	Second int `json:"file2_count"`
	Total  int `json:"total"`
}

// TermComparison is a schema-agnostic comparison of two documents based on
// their significant terms rather than their component structure. Unlike the
// component Comparison, Similarity here is a plain Jaccard ratio in [0, 1].
type TermComparison struct {
	CommonTerms    []TermEntry `json:"common_terms"`
	UniqueToFirst  []Entry     `json:"unique_to_first"`
	UniqueToSecond []Entry     `json:"unique_to_second"`
	Similarity     float64     `json:"similarity_score"`
}

// TermEntry is one common term with its counts.
type TermEntry struct {
	Term   string     `json:"term"`
	Counts TermCounts `json:"counts"`
}

// ExtractTerms tokenizes serialized JSON content into significant terms:
// JSON syntax characters are stripped, the remainder is split on whitespace,
// lowercased, and words of fewer than four characters are dropped.
func ExtractTerms(content string) Tally {
	text := jsonSyntax.ReplaceAllString(content, " ")
	tally := NewTally()
	for _, word := range strings.Fields(text) {
		if len(word) < minTermLength {
			continue
		}
		tally.Add(strings.ToLower(word))
	}
	return tally
}

// CompareTerms diffs the term frequencies of two serialized documents:
// common terms ranked by combined count (top 50), per-side unique terms
// ranked by count (top 25 each), and a term-level Jaccard similarity with
// a zero result when the union is empty.
func CompareTerms(content1, content2 string) TermComparison {
	terms1 := ExtractTerms(content1)
	terms2 := ExtractTerms(content2)

	common := NewTally()
	for _, term := range terms1.order {
		if terms2.Count(term) > 0 {
			// Tally the combined count so TopN ranks by it directly.
			for i := 0; i < terms1.Count(term)+terms2.Count(term); i++ {
				common.Add(term)
			}
		}
	}

	uniqueFirst := filterUnique(terms1, terms2)
	uniqueSecond := filterUnique(terms2, terms1)

	result := TermComparison{
		UniqueToFirst:  uniqueFirst.TopN(topUniqueTerms),
		UniqueToSecond: uniqueSecond.TopN(topUniqueTerms),
	}
	for _, e := range common.TopN(topCommonTerms) {
		result.CommonTerms = append(result.CommonTerms, TermEntry{
			Term: e.ID,
			Counts: TermCounts{
				First:  terms1.Count(e.ID),
				Second: terms2.Count(e.ID),
				Total:  e.Count,
			},
		})
	}

	denom := terms1.Len() + terms2.Len() - common.Len()
	if denom > 0 {
		result.Similarity = float64(common.Len()) / float64(denom)
	}
	return result
}

// filterUnique returns the entries of a appearing nowhere in b, keeping
// a's counts and discovery order.
func filterUnique(a, b Tally) Tally {
	out := NewTally()
	for _, term := range a.order {
		if b.Count(term) > 0 {
			continue
		}
		for i := 0; i < a.Count(term); i++ {
			out.Add(term)
		}
	}
	return out
}
