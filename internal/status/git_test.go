// internal/status/git_test.go
package status

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

func TestGitReader_GetStatus(t *testing.T) {
	// Skip if git is not available
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not found in PATH")
	}

	// Create a temp git repo
	tmpDir := t.TempDir()
	runGit(t, tmpDir, "init")
	runGit(t, tmpDir, "config", "user.email", "test@test.com")
	runGit(t, tmpDir, "config", "user.name", "Test")

	// Create and commit a file
	testFile := filepath.Join(tmpDir, "test.txt")
	if err := os.WriteFile(testFile, []byte("hello"), 0644); err != nil {
		t.Fatal(err)
	}
	runGit(t, tmpDir, "add", "test.txt")
	runGit(t, tmpDir, "commit", "-m", "initial")

	// Modify the file
	if err := os.WriteFile(testFile, []byte("hello world"), 0644); err != nil {
		t.Fatal(err)
	}

	reader := NewGitReader()
	status, err := reader.GetStatus(context.Background(), tmpDir)
	if err != nil {
		t.Fatalf("GetStatus() error = %v", err)
	}

	if status.Branch != "master" && status.Branch != "main" {
		t.Errorf("Branch = %q, want master or main", status.Branch)
	}

	if len(status.WorkingTree) != 1 {
		t.Errorf("WorkingTree length = %d, want 1", len(status.WorkingTree))
	}

	if len(status.Commit) != 40 {
		t.Errorf("Commit = %q, want a full object id", status.Commit)
	}
}

func TestGitReader_GetStatusNotARepo(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not found in PATH")
	}

	reader := NewGitReader()
	if _, err := reader.GetStatus(context.Background(), t.TempDir()); err == nil {
		t.Error("GetStatus() on a plain directory should fail")
	}
}

func TestGitReader_GetStatusBatch(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not found in PATH")
	}

	repo := t.TempDir()
	runGit(t, repo, "init")
	plain := t.TempDir()

	reader := NewGitReader()
	results, errs := reader.GetStatusBatch(context.Background(), []string{repo, plain})

	if _, ok := results[repo]; !ok {
		t.Errorf("expected status for %s", repo)
	}
	if _, ok := errs[plain]; !ok {
		t.Errorf("expected error for %s", plain)
	}
}

func runGit(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("git %v failed: %v\n%s", args, err, out)
	}
}

func mustMkdirAll(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(path, 0755); err != nil {
		t.Fatal(err)
	}
}

func mustWriteFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
}

func TestGitDir(t *testing.T) {
	t.Run("plain repository", func(t *testing.T) {
		tmp := t.TempDir()
		mustMkdirAll(t, filepath.Join(tmp, ".git"))

		if got := GitDir(tmp); got != filepath.Join(tmp, ".git") {
			t.Errorf("GitDir() = %q", got)
		}
	})

	t.Run("worktree .git file", func(t *testing.T) {
		tmp := t.TempDir()
		realGitDir := filepath.Join(tmp, "real-gitdir")
		mustMkdirAll(t, realGitDir)

		worktree := filepath.Join(tmp, "worktree")
		mustMkdirAll(t, worktree)
		mustWriteFile(t, filepath.Join(worktree, ".git"), []byte("gitdir: "+realGitDir))

		if got := GitDir(worktree); got != realGitDir {
			t.Errorf("GitDir() = %q, want %q", got, realGitDir)
		}
	})

	t.Run("relative gitdir pointer", func(t *testing.T) {
		tmp := t.TempDir()
		mustWriteFile(t, filepath.Join(tmp, ".git"), []byte("gitdir: ../main/.git/worktrees/wt\n"))

		want := filepath.Join(tmp, "../main/.git/worktrees/wt")
		if got := GitDir(tmp); got != want {
			t.Errorf("GitDir() = %q, want %q", got, want)
		}
	})
}

func TestShortenReason(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		max      int
		expected string
	}{
		{"empty string", "", 10, ""},
		{"collapses whitespace", "fatal:\n  not a\tgit repo ", 100, "fatal: not a git repo"},
		{"exact length kept", "abcde", 5, "abcde"},
		{"truncates with ellipsis", "abcdefgh", 5, "abcd…"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ShortenReason(tt.input, tt.max)
			if got != tt.expected {
				t.Errorf("ShortenReason(%q, %d) = %q, want %q", tt.input, tt.max, got, tt.expected)
			}
			if tt.max > 0 && len([]rune(got)) > tt.max {
				t.Errorf("result %q longer than %d", got, tt.max)
			}
			if strings.Contains(got, "\n") {
				t.Errorf("result %q contains a newline", got)
			}
		})
	}
}
