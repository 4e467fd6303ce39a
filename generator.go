package sbomdex

import (
	"context"
	"fmt"

	generateuc "github.com/sbomdex/sbomdex/internal/usecase/generate"
)

// GeneratorService produces and catalogs SBOMs for executables.
type GeneratorService struct {
	svc *generateuc.Service
}

// Generate scans an executable's bytes and catalogs the resulting SBOM
// under "<name>_sbom.json". Requires the configured scanner binary.
func (s *GeneratorService) Generate(ctx context.Context, name string, executable []byte, opts ...UploadOptions) (SBOM, error) {
	var o UploadOptions
	if len(opts) > 0 {
		o = opts[0]
	}
	rec, err := s.svc.Generate(ctx, name, executable, toUserMetadata(o))
	if err != nil {
		return SBOM{}, fmt.Errorf("generate: %w", err)
	}
	return fromRecord(rec), nil
}
