// Package catalog implements the SBOM catalog use cases: upload, lookup,
// metadata search and deletion.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sbomdex/sbomdex/internal/domain"
	"github.com/sbomdex/sbomdex/internal/domain/sbom"
	catalogrepo "github.com/sbomdex/sbomdex/internal/repository/catalog"
)

// UserMetadata carries the optional user-supplied metadata fields of an
// upload. Empty fields keep the values derived from the document itself.
type UserMetadata struct {
	AppName         string
	Category        string
	OperatingSystem string
	AppBinaryType   string
	Supplier        string
	Version         string
	Cost            float64
	Description     string
}

// Service handles catalog operations.
type Service struct {
	repo            MetadataRepo
	files           FileStore
	defaultPageSize int
	maxPageSize     int
}

// New creates a catalog service.
func New(repo MetadataRepo, files FileStore) *Service {
	return &Service{repo: repo, files: files, defaultPageSize: 20, maxPageSize: 100}
}

// WithPagination overrides the default page size limits.
func (s *Service) WithPagination(defaultSize, maxSize int) *Service {
	if defaultSize > 0 {
		s.defaultPageSize = defaultSize
	}
	if maxSize > 0 {
		s.maxPageSize = maxSize
	}
	return s
}

// Upload stores a raw SBOM document under filename and catalogs its
// metadata. Metadata is derived from the document first (including
// component and license counts from the extraction pipeline) and then
// overridden by non-empty user-supplied fields. The document must be valid
// JSON; the filename must not be cataloged yet.
func (s *Service) Upload(ctx context.Context, filename string, data []byte, user UserMetadata) (catalogrepo.Record, error) {
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return catalogrepo.Record{}, fmt.Errorf("%w: %v", domain.ErrMalformedDocument, err)
	}

	rec := recordFromDocument(doc, filename, user)

	if err := s.files.Save(filename, data); err != nil {
		return catalogrepo.Record{}, fmt.Errorf("save sbom file: %w", err)
	}
	if err := s.repo.Insert(ctx, rec); err != nil {
		// Keep file and row consistent when the metadata insert loses.
		if delErr := s.files.Delete(filename); delErr != nil && !errors.Is(delErr, domain.ErrNotFound) {
			return catalogrepo.Record{}, fmt.Errorf("insert metadata: %w (orphaned file cleanup also failed: %v)", err, delErr)
		}
		return catalogrepo.Record{}, fmt.Errorf("insert metadata: %w", err)
	}
	return rec, nil
}

// Document returns the raw bytes of a cataloged SBOM.
func (s *Service) Document(ctx context.Context, filename string) ([]byte, error) {
	if _, err := s.repo.Get(ctx, filename); err != nil {
		return nil, fmt.Errorf("get metadata: %w", err)
	}
	data, err := s.files.Load(filename)
	if err != nil {
		return nil, fmt.Errorf("load sbom file: %w", err)
	}
	return data, nil
}

// Get returns the metadata record of a cataloged SBOM.
func (s *Service) Get(ctx context.Context, filename string) (catalogrepo.Record, error) {
	rec, err := s.repo.Get(ctx, filename)
	if err != nil {
		return catalogrepo.Record{}, fmt.Errorf("get metadata: %w", err)
	}
	return rec, nil
}

// List returns metadata records matching the query, clamping the page size.
func (s *Service) List(ctx context.Context, q catalogrepo.Query) ([]catalogrepo.Record, error) {
	if q.Limit <= 0 {
		q.Limit = s.defaultPageSize
	}
	if q.Limit > s.maxPageSize {
		q.Limit = s.maxPageSize
	}
	records, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list metadata: %w", err)
	}
	return records, nil
}

// Autocomplete returns app name completions for a prefix.
func (s *Service) Autocomplete(ctx context.Context, prefix string, limit int) ([]string, error) {
	if prefix == "" {
		return nil, fmt.Errorf("%w: prefix is required", domain.ErrInvalidInput)
	}
	if limit <= 0 || limit > s.maxPageSize {
		limit = s.defaultPageSize
	}
	names, err := s.repo.Autocomplete(ctx, prefix, limit)
	if err != nil {
		return nil, fmt.Errorf("autocomplete: %w", err)
	}
	return names, nil
}

// Facets returns the distinct filterable values in the catalog.
func (s *Service) Facets(ctx context.Context) (catalogrepo.Facets, error) {
	facets, err := s.repo.FacetValues(ctx)
	if err != nil {
		return catalogrepo.Facets{}, fmt.Errorf("facet values: %w", err)
	}
	return facets, nil
}

// Delete removes a cataloged SBOM, both the metadata row and the file.
func (s *Service) Delete(ctx context.Context, filename string) error {
	if err := s.repo.Delete(ctx, filename); err != nil {
		return fmt.Errorf("delete metadata: %w", err)
	}
	if err := s.files.Delete(filename); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("delete sbom file: %w", err)
	}
	return nil
}

// recordFromDocument merges derived and user-supplied metadata.
func recordFromDocument(doc map[string]any, filename string, user UserMetadata) catalogrepo.Record {
	md := sbom.ExtractMetadata(doc, filename)

	rec := catalogrepo.Record{
		Filename:        filename,
		AppName:         md.AppName,
		Category:        md.Category,
		OperatingSystem: md.OperatingSystem,
		AppBinaryType:   md.AppBinaryType,
		Supplier:        md.Supplier,
		Manufacturer:    md.Manufacturer,
		Version:         md.Version,
		TotalComponents: md.TotalComponents,
		UniqueLicenses:  md.UniqueLicenses,
		Cost:            user.Cost,
		Description:     user.Description,
	}

	for _, o := range []struct {
		dst *string
		src string
	}{
		{&rec.AppName, user.AppName},
		{&rec.Category, user.Category},
		{&rec.OperatingSystem, user.OperatingSystem},
		{&rec.AppBinaryType, user.AppBinaryType},
		{&rec.Supplier, user.Supplier},
		{&rec.Version, user.Version},
	} {
		if o.src != "" {
			*o.dst = o.src
		}
	}
	return rec
}
