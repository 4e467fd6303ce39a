package sbom

import "sort"

// Stats holds single-document statistics derived from a component sequence.
type Stats struct {
	TotalComponents int
	UniqueLicenses  int
	Licenses        Tally
}

// Tally is an insertion-ordered frequency table. Identifiers are remembered
// in first-discovery order so that top-N reporting breaks count ties
// reproducibly instead of relying on map iteration order.
type Tally struct {
	counts map[string]int
	order  []string
}

// NewTally creates an empty tally.
func NewTally() Tally {
	return Tally{counts: make(map[string]int)}
}

// Add counts one occurrence of the identifier.
func (t *Tally) Add(id string) {
	if _, seen := t.counts[id]; !seen {
		t.order = append(t.order, id)
	}
	t.counts[id]++
}

// Count returns the occurrence count for an identifier.
func (t Tally) Count(id string) int { return t.counts[id] }

// Len returns the number of distinct identifiers.
func (t Tally) Len() int { return len(t.order) }

// Entry is one identifier/count pair of a tally.
type Entry struct {
	ID    string `json:"id"`
	Count int    `json:"count"`
}

// TopN returns the n most frequent entries, count descending. Ties keep
// first-discovery order (stable sort over the insertion order).
func (t Tally) TopN(n int) []Entry {
	entries := make([]Entry, len(t.order))
	for i, id := range t.order {
		entries[i] = Entry{ID: id, Count: t.counts[id]}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Count > entries[j].Count
	})
	if n >= 0 && len(entries) > n {
		entries = entries[:n]
	}
	return entries
}

// Map returns the tally as a plain frequency map.
func (t Tally) Map() map[string]int {
	m := make(map[string]int, len(t.counts))
	for id, n := range t.counts {
		m[id] = n
	}
	return m
}

// Aggregate folds a component sequence into license statistics. Every
// component contributes each entry of its extracted license sequence, so a
// component declaring the same license through two encodings counts twice;
// per-component extraction output is taken as is.
func Aggregate(components []Component) Stats {
	tally := NewTally()
	for _, c := range components {
		for _, lic := range Licenses(c) {
			tally.Add(lic)
		}
	}
	return Stats{
		TotalComponents: len(components),
		UniqueLicenses:  tally.Len(),
		Licenses:        tally,
	}
}
