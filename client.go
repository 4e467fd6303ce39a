// Package sbomdex embeds the SBOM catalog and analysis engine for library
// consumers. It wires the same storage and services the API server uses,
// minus the HTTP layer.
package sbomdex

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	catalogrepo "github.com/sbomdex/sbomdex/internal/repository/catalog"
	"github.com/sbomdex/sbomdex/internal/repository/filestore"
	analysisuc "github.com/sbomdex/sbomdex/internal/usecase/analysis"
	cataloguc "github.com/sbomdex/sbomdex/internal/usecase/catalog"
	generateuc "github.com/sbomdex/sbomdex/internal/usecase/generate"
)

// Client is the sbomdex SDK entry point.
type Client struct {
	repo        *catalogrepo.Repo
	catalogSvc  *cataloguc.Service
	analysisSvc *analysisuc.Service
	generateSvc *generateuc.Service
}

// New creates an sbomdex Client backed by a SQLite catalog and a flat-file
// document store. Both are created if they do not exist yet.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		databasePath: filepath.Join("data", "sbomdex.db"),
		sbomDir:      filepath.Join("data", "sboms"),
		uploadDir:    filepath.Join(os.TempDir(), "sbomdex-uploads"),
		logger:       zap.NewNop(),
	}
	for _, o := range opts {
		o(cfg)
	}

	if dir := filepath.Dir(cfg.databasePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("sbomdex: create database dir: %w", err)
		}
	}

	ctx := context.Background()
	repo, err := catalogrepo.Open(ctx, cfg.databasePath)
	if err != nil {
		return nil, fmt.Errorf("sbomdex: open catalog: %w", err)
	}

	files, err := filestore.New(cfg.sbomDir)
	if err != nil {
		_ = repo.Close()
		return nil, fmt.Errorf("sbomdex: create file store: %w", err)
	}

	catalogSvc := cataloguc.New(repo, files)
	if cfg.defaultPageSize > 0 || cfg.maxPageSize > 0 {
		catalogSvc = catalogSvc.WithPagination(cfg.defaultPageSize, cfg.maxPageSize)
	}
	analysisSvc := analysisuc.New(files, repo, nil)

	runner := generateuc.SyftRunner{Binary: cfg.generatorBinary, Timeout: cfg.generatorTimeout}
	generateSvc, err := generateuc.New(catalogSvc, runner, cfg.uploadDir, cfg.logger)
	if err != nil {
		_ = repo.Close()
		return nil, fmt.Errorf("sbomdex: create generate service: %w", err)
	}

	return &Client{
		repo:        repo,
		catalogSvc:  catalogSvc,
		analysisSvc: analysisSvc,
		generateSvc: generateSvc,
	}, nil
}

// Close releases the catalog database handle.
func (c *Client) Close() error {
	return c.repo.Close()
}

// Ping checks catalog database connectivity.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.repo.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Catalog returns the catalog management service.
func (c *Client) Catalog() *CatalogService {
	return &CatalogService{svc: c.catalogSvc}
}

// Analysis returns the document analysis service.
func (c *Client) Analysis() *AnalysisService {
	return &AnalysisService{svc: c.analysisSvc}
}

// Generator returns the SBOM generation service. It requires a syft binary
// on PATH (or one configured via WithGenerator).
func (c *Client) Generator() *GeneratorService {
	return &GeneratorService{svc: c.generateSvc}
}
