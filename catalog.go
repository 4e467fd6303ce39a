package sbomdex

import (
	"context"
	"fmt"
	"time"

	catalogrepo "github.com/sbomdex/sbomdex/internal/repository/catalog"
	cataloguc "github.com/sbomdex/sbomdex/internal/usecase/catalog"
)

// SBOM is a cataloged document's metadata.
type SBOM struct {
	ID              int64
	Filename        string
	AppName         string
	Category        string
	OperatingSystem string
	AppBinaryType   string
	Supplier        string
	Manufacturer    string
	Version         string
	Cost            float64
	TotalComponents int
	UniqueLicenses  int
	Description     string
	UploadDate      time.Time
}

// UploadOptions carries user-supplied metadata for an upload. Empty fields
// keep the values derived from the document itself.
type UploadOptions struct {
	AppName         string
	Category        string
	OperatingSystem string
	AppBinaryType   string
	Supplier        string
	Version         string
	Cost            float64
	Description     string
}

// ListOptions filters a catalog listing. Zero values mean "no constraint".
type ListOptions struct {
	Keyword         string
	Category        string
	OperatingSystem string
	AppBinaryType   string
	Supplier        string
	Limit           int
	Offset          int
}

// Facets holds the distinct filterable values present in the catalog.
type Facets struct {
	Categories       []string
	OperatingSystems []string
	AppBinaryTypes   []string
	Suppliers        []string
}

// CatalogService manages cataloged SBOM documents.
type CatalogService struct {
	svc *cataloguc.Service
}

// Upload stores a raw SBOM document under filename and catalogs its metadata.
func (s *CatalogService) Upload(ctx context.Context, filename string, data []byte, opts ...UploadOptions) (SBOM, error) {
	var o UploadOptions
	if len(opts) > 0 {
		o = opts[0]
	}
	rec, err := s.svc.Upload(ctx, filename, data, toUserMetadata(o))
	if err != nil {
		return SBOM{}, fmt.Errorf("upload: %w", err)
	}
	return fromRecord(rec), nil
}

// Get returns the metadata of a cataloged SBOM.
func (s *CatalogService) Get(ctx context.Context, filename string) (SBOM, error) {
	rec, err := s.svc.Get(ctx, filename)
	if err != nil {
		return SBOM{}, fmt.Errorf("get: %w", err)
	}
	return fromRecord(rec), nil
}

// Document returns the raw bytes of a cataloged SBOM.
func (s *CatalogService) Document(ctx context.Context, filename string) ([]byte, error) {
	data, err := s.svc.Document(ctx, filename)
	if err != nil {
		return nil, fmt.Errorf("document: %w", err)
	}
	return data, nil
}

// List returns metadata records matching the options.
func (s *CatalogService) List(ctx context.Context, opts ...ListOptions) ([]SBOM, error) {
	var o ListOptions
	if len(opts) > 0 {
		o = opts[0]
	}
	records, err := s.svc.List(ctx, catalogrepo.Query(o))
	if err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}
	out := make([]SBOM, len(records))
	for i, rec := range records {
		out[i] = fromRecord(rec)
	}
	return out, nil
}

// Autocomplete returns app name completions for a prefix.
func (s *CatalogService) Autocomplete(ctx context.Context, prefix string, limit int) ([]string, error) {
	names, err := s.svc.Autocomplete(ctx, prefix, limit)
	if err != nil {
		return nil, fmt.Errorf("autocomplete: %w", err)
	}
	return names, nil
}

// Facets returns the distinct filterable values in the catalog.
func (s *CatalogService) Facets(ctx context.Context) (Facets, error) {
	f, err := s.svc.Facets(ctx)
	if err != nil {
		return Facets{}, fmt.Errorf("facets: %w", err)
	}
	return Facets(f), nil
}

// Delete removes a cataloged SBOM, both the metadata row and the file.
func (s *CatalogService) Delete(ctx context.Context, filename string) error {
	if err := s.svc.Delete(ctx, filename); err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	return nil
}

func fromRecord(rec catalogrepo.Record) SBOM {
	return SBOM(rec)
}

func toUserMetadata(o UploadOptions) cataloguc.UserMetadata {
	return cataloguc.UserMetadata(o)
}
