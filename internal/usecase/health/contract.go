package health

import "context"

// DBPinger checks catalog database availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// FileStoreChecker checks SBOM file storage availability.
type FileStoreChecker interface {
	Check() error
}

// CachePinger checks the optional comparison cache backend.
type CachePinger interface {
	Ping(ctx context.Context) error
}
