// internal/status/reader.go
package status

import (
	"context"

	"github.com/jackchuka/gitfx/internal/model"
)

type Reader interface {
	GetStatus(ctx context.Context, repoPath string) (*model.RepoStatus, error)
	GetStatusBatch(ctx context.Context, paths []string) (map[string]*model.RepoStatus, map[string]error)
}
