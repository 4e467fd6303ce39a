package sbomdex

import (
	"context"
	"fmt"

	"github.com/sbomdex/sbomdex/internal/domain/sbom"
	analysisuc "github.com/sbomdex/sbomdex/internal/usecase/analysis"
)

// Component is one component record from an SBOM document, as parsed JSON.
type Component = map[string]any

// Frequency is one value of a distribution with its occurrence count.
type Frequency struct {
	Value string
	Count int
}

// Stats is a per-document statistics report.
type Stats struct {
	Filename        string
	Format          string
	TotalComponents int
	UniqueLicenses  int
	TopLicenses     []Frequency
}

// Comparison is the result of diffing two documents by component identity.
type Comparison struct {
	Common       []Component
	OnlyInFirst  []Component
	OnlyInSecond []Component

	CommonCount       int
	OnlyInFirstCount  int
	OnlyInSecondCount int

	TotalFirst  int
	TotalSecond int

	// Similarity is a percentage in [0, 100].
	Similarity float64
}

// TermOverlap is one term present in both documents of a term comparison.
type TermOverlap struct {
	Term        string
	FirstCount  int
	SecondCount int
	TotalCount  int
}

// TermComparison is the result of diffing two documents at the term level.
type TermComparison struct {
	CommonTerms    []TermOverlap
	UniqueToFirst  []Frequency
	UniqueToSecond []Frequency

	// Similarity is a Jaccard ratio in [0, 1], not a percentage.
	Similarity float64
}

// CorpusStats is the catalog-wide statistics report.
type CorpusStats struct {
	TotalSBOMs       int
	TotalPackages    int
	Licenses         []Frequency
	Suppliers        []Frequency
	OperatingSystems map[string]int
}

// AnalysisService runs statistics, comparisons and searches over cataloged
// documents.
type AnalysisService struct {
	svc *analysisuc.Service
}

// Stats extracts and aggregates one stored document.
func (s *AnalysisService) Stats(ctx context.Context, filename string) (Stats, error) {
	st, err := s.svc.DocumentStats(ctx, filename)
	if err != nil {
		return Stats{}, fmt.Errorf("stats: %w", err)
	}
	return Stats{
		Filename:        st.Filename,
		Format:          string(st.Format),
		TotalComponents: st.TotalComponents,
		UniqueLicenses:  st.UniqueLicenses,
		TopLicenses:     fromEntries(st.LicenseTop),
	}, nil
}

// Compare diffs two stored documents by component identity.
func (s *AnalysisService) Compare(ctx context.Context, file1, file2 string) (Comparison, error) {
	result, err := s.svc.Compare(ctx, file1, file2)
	if err != nil {
		return Comparison{}, fmt.Errorf("compare: %w", err)
	}
	return Comparison{
		Common:            fromComponents(result.Common),
		OnlyInFirst:       fromComponents(result.OnlyInFirst),
		OnlyInSecond:      fromComponents(result.OnlyInSecond),
		CommonCount:       result.CommonCount,
		OnlyInFirstCount:  result.OnlyInFirstCount,
		OnlyInSecondCount: result.OnlyInSecondCount,
		TotalFirst:        result.TotalFirst,
		TotalSecond:       result.TotalSecond,
		Similarity:        result.Similarity,
	}, nil
}

// CompareTerms diffs two stored documents at the term level.
func (s *AnalysisService) CompareTerms(ctx context.Context, file1, file2 string) (TermComparison, error) {
	result, err := s.svc.CompareTerms(ctx, file1, file2)
	if err != nil {
		return TermComparison{}, fmt.Errorf("compare terms: %w", err)
	}
	common := make([]TermOverlap, len(result.CommonTerms))
	for i, t := range result.CommonTerms {
		common[i] = TermOverlap{
			Term:        t.Term,
			FirstCount:  t.Counts.First,
			SecondCount: t.Counts.Second,
			TotalCount:  t.Counts.Total,
		}
	}
	return TermComparison{
		CommonTerms:    common,
		UniqueToFirst:  fromEntries(result.UniqueToFirst),
		UniqueToSecond: fromEntries(result.UniqueToSecond),
		Similarity:     result.Similarity,
	}, nil
}

// Search finds components of a stored document matching a keyword.
func (s *AnalysisService) Search(ctx context.Context, filename, keyword string) ([]Component, error) {
	components, err := s.svc.Search(ctx, filename, keyword)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	return fromComponents(components), nil
}

// Statistics scans the whole catalog and tallies its distributions.
func (s *AnalysisService) Statistics(ctx context.Context) (CorpusStats, error) {
	stats, err := s.svc.CorpusStats(ctx)
	if err != nil {
		return CorpusStats{}, fmt.Errorf("statistics: %w", err)
	}
	return CorpusStats{
		TotalSBOMs:       stats.TotalSBOMs,
		TotalPackages:    stats.TotalPackages,
		Licenses:         fromEntries(stats.LicenseDistribution),
		Suppliers:        fromEntries(stats.SupplierDistribution),
		OperatingSystems: stats.OSDistribution,
	}, nil
}

func fromEntries(entries []sbom.Entry) []Frequency {
	out := make([]Frequency, len(entries))
	for i, e := range entries {
		out[i] = Frequency{Value: e.ID, Count: e.Count}
	}
	return out
}

func fromComponents(components []sbom.Component) []Component {
	out := make([]Component, len(components))
	for i, c := range components {
		out[i] = Component(c)
	}
	return out
}
