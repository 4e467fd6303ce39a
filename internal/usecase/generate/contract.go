package generate

import (
	"context"

	catalogrepo "github.com/sbomdex/sbomdex/internal/repository/catalog"
	cataloguc "github.com/sbomdex/sbomdex/internal/usecase/catalog"
)

// Cataloger stores a generated SBOM document and its metadata row.
type Cataloger interface {
	Upload(ctx context.Context, filename string, data []byte, user cataloguc.UserMetadata) (catalogrepo.Record, error)
}

// Runner executes the external scanning tool and returns its stdout.
// Split out so tests can run without a syft binary.
type Runner interface {
	Run(ctx context.Context, target string) ([]byte, error)
}
