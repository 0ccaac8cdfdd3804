package scanner

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/jackchuka/gitfx/internal/config"
	"github.com/jackchuka/gitfx/internal/logging"
	"github.com/jackchuka/gitfx/internal/model"
)

// Walker finds repositories by walking each configured scan path
// concurrently. It never descends into a repository it has found.
type Walker struct {
	cfg    *config.Config
	logger *logrus.Entry
}

func NewWalker(cfg *config.Config) *Walker {
	return &Walker{cfg: cfg, logger: logging.NewLogger("scanner")}
}

// Scan walks every scan path. Unreadable roots are logged and skipped; the
// scan fails only when the context is cancelled or every root failed.
func (w *Walker) Scan(ctx context.Context) ([]model.Repository, error) {
	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		seen   = make(map[string]model.Repository)
		failed []error
	)

	for _, root := range w.cfg.ScanPaths {
		wg.Add(1)
		go func(root string) {
			defer wg.Done()

			found, err := w.ScanPath(ctx, root, w.cfg.MaxDepth)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed = append(failed, &ScanError{Path: root, Err: err})
				return
			}
			for _, r := range found {
				if _, ok := seen[r.Path]; !ok {
					seen[r.Path] = r
				}
			}
		}(root)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, err := range failed {
		w.logger.WithError(err).Warn("scan path skipped")
	}
	if len(failed) > 0 && len(failed) == len(w.cfg.ScanPaths) {
		return nil, errors.Join(failed...)
	}

	repos := make([]model.Repository, 0, len(seen))
	for _, r := range seen {
		repos = append(repos, r)
	}
	sort.Slice(repos, func(i, j int) bool { return repos[i].Path < repos[j].Path })
	return repos, nil
}

// ScanPath walks root down to maxDepth directory levels.
func (w *Walker) ScanPath(ctx context.Context, root string, maxDepth int) ([]model.Repository, error) {
	var repos []model.Repository

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}

		if depthOf(root, path) > maxDepth {
			return fs.SkipDir
		}
		if d.Name() == ".git" {
			return fs.SkipDir
		}
		if path != root && w.cfg.ShouldIgnore(path) {
			return fs.SkipDir
		}

		repo, err := detectRepo(path)
		if err != nil {
			w.logger.WithError(err).Debugf("skipping %s", path)
			return nil
		}
		if repo == nil {
			return nil
		}

		repos = append(repos, *repo)
		if !repo.IsWorktree {
			repos = append(repos, linkedWorktrees(path)...)
		}
		return fs.SkipDir
	})

	return repos, err
}

func depthOf(root, path string) int {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." {
		return 0
	}
	return strings.Count(rel, string(filepath.Separator)) + 1
}
