// Package generate produces SBOMs for uploaded executables by delegating
// the scan to syft and cataloging the resulting CycloneDX document.
package generate

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	cdx "github.com/CycloneDX/cyclonedx-go"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sbomdex/sbomdex/internal/domain"
	"github.com/sbomdex/sbomdex/internal/metrics"
	catalogrepo "github.com/sbomdex/sbomdex/internal/repository/catalog"
	cataloguc "github.com/sbomdex/sbomdex/internal/usecase/catalog"
)

// SyftRunner runs the syft binary against a file on disk.
type SyftRunner struct {
	// Binary is the syft executable name or path.
	Binary string
	// Timeout bounds one scan.
	Timeout time.Duration
}

// Run invokes syft and returns the CycloneDX JSON it writes to stdout.
func (r SyftRunner) Run(ctx context.Context, target string) ([]byte, error) {
	binary := r.Binary
	if binary == "" {
		binary = "syft"
	}
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, binary, target, "-o", "cyclonedx-json", "-q")
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	metrics.GeneratorRunDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("%w: %v: %s", domain.ErrGeneratorFailed, err, stderr.String())
	}
	return stdout.Bytes(), nil
}

// Service turns uploaded executables into cataloged SBOMs.
type Service struct {
	catalog   Cataloger
	runner    Runner
	uploadDir string
	logger    *zap.Logger
}

// New creates a generate service. uploadDir holds executables only for the
// duration of one scan.
func New(catalog Cataloger, runner Runner, uploadDir string, logger *zap.Logger) (*Service, error) {
	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Service{catalog: catalog, runner: runner, uploadDir: uploadDir, logger: logger}, nil
}

// Generate scans an uploaded executable and catalogs the resulting SBOM
// under "<originalName>_sbom.json". The executable is written to a
// uuid-named temp file so concurrent uploads with the same name cannot
// collide, and is always removed afterwards.
func (s *Service) Generate(ctx context.Context, originalName string, executable []byte, user cataloguc.UserMetadata) (catalogrepo.Record, error) {
	if originalName == "" || originalName != filepath.Base(originalName) {
		return catalogrepo.Record{}, fmt.Errorf("%w: bad executable name %q", domain.ErrInvalidInput, originalName)
	}

	tempName := uuid.New().String() + filepath.Ext(originalName)
	tempPath := filepath.Join(s.uploadDir, tempName)
	if err := os.WriteFile(tempPath, executable, 0o600); err != nil {
		return catalogrepo.Record{}, fmt.Errorf("write executable: %w", err)
	}
	defer func() {
		if err := os.Remove(tempPath); err != nil {
			s.logger.Warn("Failed to remove uploaded executable", zap.String("path", tempPath), zap.Error(err))
		}
	}()

	output, err := s.runner.Run(ctx, tempPath)
	if err != nil {
		metrics.GeneratorRunsTotal.WithLabelValues("error").Inc()
		return catalogrepo.Record{}, err
	}

	// The generator must have produced a decodable CycloneDX document;
	// anything else is treated as a generator failure, not stored.
	var bom cdx.BOM
	if decErr := cdx.NewBOMDecoder(bytes.NewReader(output), cdx.BOMFileFormatJSON).Decode(&bom); decErr != nil {
		metrics.GeneratorRunsTotal.WithLabelValues("error").Inc()
		return catalogrepo.Record{}, fmt.Errorf("%w: generator output is not CycloneDX: %v", domain.ErrGeneratorFailed, decErr)
	}
	metrics.GeneratorRunsTotal.WithLabelValues("ok").Inc()

	sbomFilename := originalName + "_sbom.json"
	rec, err := s.catalog.Upload(ctx, sbomFilename, output, user)
	if err != nil {
		return catalogrepo.Record{}, fmt.Errorf("catalog generated sbom: %w", err)
	}

	s.logger.Info("Generated SBOM",
		zap.String("executable", originalName),
		zap.String("sbom", sbomFilename),
		zap.Int("components", rec.TotalComponents),
	)
	return rec, nil
}
