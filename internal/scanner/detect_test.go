package scanner

import (
	"os"
	"path/filepath"
	"testing"
)

func mkdirs(t *testing.T, paths ...string) {
	t.Helper()
	for _, p := range paths {
		if err := os.MkdirAll(p, 0755); err != nil {
			t.Fatal(err)
		}
	}
}

func TestDetectRepo_NormalRepo(t *testing.T) {
	tmpDir := t.TempDir()
	mkdirs(t, filepath.Join(tmpDir, ".git"))

	repo, err := detectRepo(tmpDir)
	if err != nil {
		t.Fatalf("detectRepo() error = %v", err)
	}
	if repo == nil {
		t.Fatal("detectRepo() returned nil")
	}
	if repo.IsWorktree {
		t.Error("IsWorktree should be false for normal repo")
	}
	if repo.Path != tmpDir {
		t.Errorf("Path = %q, want %q", repo.Path, tmpDir)
	}
	if repo.Name != filepath.Base(tmpDir) {
		t.Errorf("Name = %q, want %q", repo.Name, filepath.Base(tmpDir))
	}
}

func TestDetectRepo_Worktree(t *testing.T) {
	tests := []struct {
		name   string
		gitdir func(mainRepo, worktree string) string
	}{
		{
			name: "absolute gitdir",
			gitdir: func(mainRepo, _ string) string {
				return filepath.Join(mainRepo, ".git", "worktrees", "worktree")
			},
		},
		{
			name: "relative gitdir",
			gitdir: func(_, _ string) string {
				return filepath.Join("..", "main", ".git", "worktrees", "worktree")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpDir := t.TempDir()
			mainRepo := filepath.Join(tmpDir, "main")
			worktree := filepath.Join(tmpDir, "worktree")
			mkdirs(t, filepath.Join(mainRepo, ".git", "worktrees", "worktree"), worktree)

			content := "gitdir: " + tt.gitdir(mainRepo, worktree) + "\n"
			if err := os.WriteFile(filepath.Join(worktree, ".git"), []byte(content), 0644); err != nil {
				t.Fatal(err)
			}

			repo, err := detectRepo(worktree)
			if err != nil {
				t.Fatalf("detectRepo() error = %v", err)
			}
			if repo == nil || !repo.IsWorktree {
				t.Fatalf("detectRepo() = %+v, want a worktree", repo)
			}
			if filepath.Clean(repo.MainWorktree) != mainRepo {
				t.Errorf("MainWorktree = %q, want %q", repo.MainWorktree, mainRepo)
			}
		})
	}
}

func TestDetectRepo_NotARepo(t *testing.T) {
	repo, err := detectRepo(t.TempDir())
	if err != nil {
		t.Fatalf("detectRepo() error = %v", err)
	}
	if repo != nil {
		t.Error("detectRepo() should return nil for non-repo")
	}
}

func TestLinkedWorktrees(t *testing.T) {
	tmpDir := t.TempDir()
	mainRepo := filepath.Join(tmpDir, "main")
	entry := filepath.Join(mainRepo, ".git", "worktrees", "wt1")
	stale := filepath.Join(mainRepo, ".git", "worktrees", "gone")
	wtDir := filepath.Join(tmpDir, "wt1")
	mkdirs(t, entry, stale, wtDir)

	if err := os.WriteFile(filepath.Join(entry, "gitdir"), []byte(filepath.Join(wtDir, ".git")+"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(stale, "gitdir"), []byte(filepath.Join(tmpDir, "gone", ".git")), 0644); err != nil {
		t.Fatal(err)
	}

	repos := linkedWorktrees(mainRepo)
	if len(repos) != 1 {
		t.Fatalf("got %d worktrees, want 1", len(repos))
	}
	if repos[0].Path != wtDir {
		t.Errorf("Path = %q, want %q", repos[0].Path, wtDir)
	}
	if !repos[0].IsWorktree || repos[0].MainWorktree != mainRepo {
		t.Errorf("got %+v, want worktree of %q", repos[0], mainRepo)
	}
}

func TestLinkedWorktrees_None(t *testing.T) {
	tmpDir := t.TempDir()
	mkdirs(t, filepath.Join(tmpDir, ".git"))

	if repos := linkedWorktrees(tmpDir); len(repos) != 0 {
		t.Errorf("got %d worktrees, want 0", len(repos))
	}
}
