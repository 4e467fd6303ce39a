package analysis

import (
	"context"

	"github.com/sbomdex/sbomdex/internal/domain/sbom"
)

// FileStore loads raw and parsed SBOM documents.
type FileStore interface {
	Load(filename string) ([]byte, error)
	LoadParsed(filename string) (map[string]any, error)
}

// MetadataSource provides the catalog data the statistics scan needs.
type MetadataSource interface {
	Count(ctx context.Context) (int, error)
	Filenames(ctx context.Context) ([]string, error)
	OSDistribution(ctx context.Context) (map[string]int, error)
}

// ComparisonCache remembers comparison results between requests. Optional.
type ComparisonCache interface {
	Get(ctx context.Context, key string) (sbom.Comparison, bool)
	Put(ctx context.Context, key string, result sbom.Comparison)
}
