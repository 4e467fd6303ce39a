package sbomdex

import (
	"time"

	"go.uber.org/zap"
)

// Option configures a Client.
type Option func(*clientConfig)

type clientConfig struct {
	databasePath     string
	sbomDir          string
	uploadDir        string
	generatorBinary  string
	generatorTimeout time.Duration
	defaultPageSize  int
	maxPageSize      int
	logger           *zap.Logger
}

// WithDatabasePath sets the SQLite catalog location.
func WithDatabasePath(path string) Option {
	return func(c *clientConfig) { c.databasePath = path }
}

// WithSBOMDir sets the directory holding raw SBOM documents.
func WithSBOMDir(dir string) Option {
	return func(c *clientConfig) { c.sbomDir = dir }
}

// WithUploadDir sets the scratch directory for executables awaiting a scan.
func WithUploadDir(dir string) Option {
	return func(c *clientConfig) { c.uploadDir = dir }
}

// WithGenerator sets the scanner binary and per-scan timeout.
func WithGenerator(binary string, timeout time.Duration) Option {
	return func(c *clientConfig) {
		c.generatorBinary = binary
		c.generatorTimeout = timeout
	}
}

// WithPagination overrides catalog listing page size limits.
func WithPagination(defaultSize, maxSize int) Option {
	return func(c *clientConfig) {
		c.defaultPageSize = defaultSize
		c.maxPageSize = maxSize
	}
}

// WithLogger sets the logger used by the embedded services.
func WithLogger(logger *zap.Logger) Option {
	return func(c *clientConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}
