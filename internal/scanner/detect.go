package scanner

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/jackchuka/gitfx/internal/model"
	"github.com/jackchuka/gitfx/internal/status"
)

const worktreesMarker = string(filepath.Separator) + ".git" + string(filepath.Separator) + "worktrees" + string(filepath.Separator)

// detectRepo returns the repository rooted at path, or nil when path has no
// .git entry. A .git file marks a linked worktree.
func detectRepo(path string) (*model.Repository, error) {
	info, err := os.Stat(filepath.Join(path, ".git"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	repo := &model.Repository{Path: path, Name: filepath.Base(path)}
	if info.IsDir() {
		return repo, nil
	}

	repo.IsWorktree = true
	gitDir := status.GitDir(path)
	if idx := strings.Index(gitDir, worktreesMarker); idx != -1 {
		repo.MainWorktree = gitDir[:idx]
	}
	return repo, nil
}

// linkedWorktrees lists worktrees registered under the main repository's
// .git/worktrees directory whose working directory still exists.
func linkedWorktrees(repoPath string) []model.Repository {
	wtDir := filepath.Join(repoPath, ".git", "worktrees")
	entries, err := os.ReadDir(wtDir)
	if err != nil {
		return nil
	}

	var out []model.Repository
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		content, err := os.ReadFile(filepath.Join(wtDir, e.Name(), "gitdir"))
		if err != nil {
			continue
		}
		// gitdir names the worktree's .git file
		wtPath := filepath.Dir(strings.TrimSpace(string(content)))
		if info, err := os.Stat(wtPath); err != nil || !info.IsDir() {
			continue
		}
		out = append(out, model.Repository{
			Path:         wtPath,
			Name:         filepath.Base(wtPath),
			IsWorktree:   true,
			MainWorktree: repoPath,
		})
	}
	return out
}
