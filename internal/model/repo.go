// internal/model/repo.go
package model

import (
	"path/filepath"
)

type Repository struct {
	Path         string // Absolute path to repo root
	Name         string // Display name (derived from path or config)
	IsWorktree   bool   // True if this is a linked worktree
	MainWorktree string // If IsWorktree, path to main repo
}

func (r *Repository) DisplayName() string {
	if r.Name != "" {
		return r.Name
	}
	return filepath.Base(r.Path)
}

// FileChange is one entry of git status output.
type FileChange struct {
	Path string // Path relative to the repo root
	Code string // Two-letter XY code, "??" for untracked
}

type RepoStatus struct {
	Branch       string // Current branch name (empty if detached)
	DetachedHead bool   // True if HEAD is detached
	Commit       string // Full object id of HEAD (empty before the first commit)

	// Remote state
	Upstream string // Tracking branch (e.g., "origin/main")
	Ahead    int    // Commits ahead of upstream
	Behind   int    // Commits behind upstream

	// Change collections
	WorkingTree []FileChange // Unstaged and untracked changes
	Index       []FileChange // Staged changes
	Merge       []FileChange // Unmerged paths
}
