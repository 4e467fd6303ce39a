// Package analysis implements the document analysis use cases: per-document
// statistics, cross-document comparison, term comparison, in-document search
// and corpus-wide statistics.
package analysis

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/sbomdex/sbomdex/internal/domain"
	"github.com/sbomdex/sbomdex/internal/domain/sbom"
	"github.com/sbomdex/sbomdex/internal/metrics"
	"github.com/sbomdex/sbomdex/internal/repository/analysiscache"
)

const (
	// statisticsScanLimit bounds the parallelism of the corpus scan.
	statisticsScanLimit = 8
	topDistribution     = 10
)

// DocumentStats is the per-document statistics report.
type DocumentStats struct {
	Filename        string       `json:"filename"`
	Format          sbom.Format  `json:"format"`
	TotalComponents int          `json:"total_components"`
	UniqueLicenses  int          `json:"unique_licenses"`
	LicenseTop      []sbom.Entry `json:"license_distribution"`
}

// CorpusStats is the catalog-wide statistics report.
type CorpusStats struct {
	TotalSBOMs           int            `json:"total_sboms"`
	TotalPackages        int            `json:"total_packages"`
	LicenseDistribution  []sbom.Entry   `json:"license_distribution"`
	SupplierDistribution []sbom.Entry   `json:"supplier_distribution"`
	OSDistribution       map[string]int `json:"os_distribution"`
}

// Service handles analysis operations. Stateless: every method is a pure
// function of its inputs plus the stores it reads from.
type Service struct {
	files FileStore
	meta  MetadataSource
	cache ComparisonCache
}

// New creates an analysis service. cache may be nil (caching disabled).
func New(files FileStore, meta MetadataSource, cache ComparisonCache) *Service {
	return &Service{files: files, meta: meta, cache: cache}
}

// DocumentStats extracts and aggregates one stored document.
func (s *Service) DocumentStats(ctx context.Context, filename string) (DocumentStats, error) {
	doc, err := s.files.LoadParsed(filename)
	if err != nil {
		return DocumentStats{}, fmt.Errorf("load document: %w", err)
	}
	components := sbom.Extract(doc)
	stats := sbom.Aggregate(components)
	return DocumentStats{
		Filename:        filename,
		Format:          sbom.DetectFormat(doc),
		TotalComponents: stats.TotalComponents,
		UniqueLicenses:  stats.UniqueLicenses,
		LicenseTop:      stats.Licenses.TopN(topDistribution),
	}, nil
}

// Compare diffs two stored documents by component identity. Results are
// cached under a digest of both raw documents when a cache is wired.
func (s *Service) Compare(ctx context.Context, file1, file2 string) (sbom.Comparison, error) {
	raw1, err := s.files.Load(file1)
	if err != nil {
		return sbom.Comparison{}, fmt.Errorf("load first document: %w", err)
	}
	raw2, err := s.files.Load(file2)
	if err != nil {
		return sbom.Comparison{}, fmt.Errorf("load second document: %w", err)
	}

	var key string
	if s.cache != nil {
		key = analysiscache.Key(raw1, raw2)
		if result, ok := s.cache.Get(ctx, key); ok {
			return result, nil
		}
	}

	doc1, err := s.files.LoadParsed(file1)
	if err != nil {
		return sbom.Comparison{}, fmt.Errorf("parse first document: %w", err)
	}
	doc2, err := s.files.LoadParsed(file2)
	if err != nil {
		return sbom.Comparison{}, fmt.Errorf("parse second document: %w", err)
	}

	result := sbom.Compare(sbom.Extract(doc1), sbom.Extract(doc2))
	metrics.ComparisonsTotal.WithLabelValues("components").Inc()

	if s.cache != nil {
		s.cache.Put(ctx, key, result)
	}
	return result, nil
}

// CompareTerms diffs two stored documents at the term level, ignoring
// component structure entirely.
func (s *Service) CompareTerms(ctx context.Context, file1, file2 string) (sbom.TermComparison, error) {
	raw1, err := s.files.Load(file1)
	if err != nil {
		return sbom.TermComparison{}, fmt.Errorf("load first document: %w", err)
	}
	raw2, err := s.files.Load(file2)
	if err != nil {
		return sbom.TermComparison{}, fmt.Errorf("load second document: %w", err)
	}
	// Validate both documents parse before comparing raw text.
	if _, err := s.files.LoadParsed(file1); err != nil {
		return sbom.TermComparison{}, err
	}
	if _, err := s.files.LoadParsed(file2); err != nil {
		return sbom.TermComparison{}, err
	}

	metrics.ComparisonsTotal.WithLabelValues("terms").Inc()
	return sbom.CompareTerms(string(raw1), string(raw2)), nil
}

// Search finds components of a stored document matching a keyword.
func (s *Service) Search(ctx context.Context, filename, keyword string) ([]sbom.Component, error) {
	if keyword == "" {
		return nil, fmt.Errorf("%w: keyword is required", domain.ErrInvalidInput)
	}
	doc, err := s.files.LoadParsed(filename)
	if err != nil {
		return nil, fmt.Errorf("load document: %w", err)
	}
	return sbom.SearchComponents(sbom.Extract(doc), keyword), nil
}

// CorpusStats scans every cataloged document and tallies package, license
// and supplier distributions. Files are read with bounded parallelism;
// documents that fail to load or parse are skipped, matching the
// best-effort posture of the rest of the pipeline.
func (s *Service) CorpusStats(ctx context.Context) (CorpusStats, error) {
	total, err := s.meta.Count(ctx)
	if err != nil {
		return CorpusStats{}, fmt.Errorf("count sboms: %w", err)
	}
	osDist, err := s.meta.OSDistribution(ctx)
	if err != nil {
		return CorpusStats{}, fmt.Errorf("os distribution: %w", err)
	}
	filenames, err := s.meta.Filenames(ctx)
	if err != nil {
		return CorpusStats{}, fmt.Errorf("list filenames: %w", err)
	}

	// Parallel load, sequential merge: per-file component lists are read
	// concurrently, then folded in catalog order so distribution ties keep
	// a reproducible first-discovery order.
	perFile := make([][]sbom.Component, len(filenames))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(statisticsScanLimit)
	for i, filename := range filenames {
		i, filename := i, filename
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			doc, err := s.files.LoadParsed(filename)
			if err != nil {
				return nil // skip unreadable documents
			}
			perFile[i] = sbom.Extract(doc)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return CorpusStats{}, fmt.Errorf("scan documents: %w", err)
	}

	var (
		packages  int
		licenses  = sbom.NewTally()
		suppliers = sbom.NewTally()
	)
	for _, components := range perFile {
		packages += len(components)
		for _, c := range components {
			for _, lic := range sbom.Licenses(c) {
				licenses.Add(lic)
			}
			suppliers.Add(sbom.Supplier(c))
		}
	}

	return CorpusStats{
		TotalSBOMs:           total,
		TotalPackages:        packages,
		LicenseDistribution:  licenses.TopN(topDistribution),
		SupplierDistribution: suppliers.TopN(topDistribution),
		OSDistribution:       osDist,
	}, nil
}
