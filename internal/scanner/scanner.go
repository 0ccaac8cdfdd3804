package scanner

import (
	"context"

	"github.com/jackchuka/gitfx/internal/model"
)

// Scanner discovers git repositories on disk. Scan results are sorted by
// path and free of duplicates.
type Scanner interface {
	Scan(ctx context.Context) ([]model.Repository, error)
	ScanPath(ctx context.Context, path string, maxDepth int) ([]model.Repository, error)
}

// ScanError records a scan root that could not be walked.
type ScanError struct {
	Path string
	Err  error
}

func (e *ScanError) Error() string {
	return "scan " + e.Path + ": " + e.Err.Error()
}

func (e *ScanError) Unwrap() error {
	return e.Err
}
