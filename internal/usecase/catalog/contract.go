package catalog

import (
	"context"

	catalogrepo "github.com/sbomdex/sbomdex/internal/repository/catalog"
)

// MetadataRepo defines the relational storage contract for SBOM metadata.
type MetadataRepo interface {
	Insert(ctx context.Context, rec catalogrepo.Record) error
	Get(ctx context.Context, filename string) (catalogrepo.Record, error)
	Delete(ctx context.Context, filename string) error
	List(ctx context.Context, q catalogrepo.Query) ([]catalogrepo.Record, error)
	Autocomplete(ctx context.Context, prefix string, limit int) ([]string, error)
	FacetValues(ctx context.Context) (catalogrepo.Facets, error)
}

// FileStore defines the flat-file storage contract for raw SBOM documents.
type FileStore interface {
	Save(filename string, data []byte) error
	Load(filename string) ([]byte, error)
	LoadParsed(filename string) (map[string]any, error)
	Delete(filename string) error
}
