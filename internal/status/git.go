// internal/status/git.go
package status

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/jackchuka/gitfx/internal/model"
)

type GitReader struct {
	concurrency int
	timeout     time.Duration
}

func NewGitReader() *GitReader {
	return &GitReader{
		concurrency: 8,
		timeout:     5 * time.Second,
	}
}

func (r *GitReader) GetStatus(ctx context.Context, repoPath string) (*model.RepoStatus, error) {
	cmdCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	// --no-optional-locks keeps status from rewriting the index, which would
	// otherwise show up as a change to anyone watching .git
	output, err := r.runGit(cmdCtx, repoPath, "--no-optional-locks", "status", "--porcelain=v2", "--branch")
	if err != nil {
		return nil, fmt.Errorf("git status %s: %w", repoPath, err)
	}

	return parsePorcelainV2(output)
}

func (r *GitReader) GetStatusBatch(ctx context.Context, paths []string) (map[string]*model.RepoStatus, map[string]error) {
	results := make(map[string]*model.RepoStatus)
	errors := make(map[string]error)
	var mu sync.Mutex
	var wg sync.WaitGroup

	sem := make(chan struct{}, r.concurrency)

	for _, path := range paths {
		wg.Add(1)
		go func(p string) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			status, err := r.GetStatus(ctx, p)
			mu.Lock()
			if err != nil {
				errors[p] = err
			}
			if status != nil {
				results[p] = status
			}
			mu.Unlock()
		}(path)
	}

	wg.Wait()
	return results, errors
}

func (r *GitReader) runGit(ctx context.Context, repoPath string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = repoPath

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		if msg := ShortenReason(stderr.String(), 220); msg != "" {
			return "", fmt.Errorf("%w: %s", err, msg)
		}
		return "", err
	}

	return stdout.String(), nil
}

// GitDir resolves the git directory of a repository, following the
// "gitdir:" pointer that linked worktrees keep in their .git file.
func GitDir(repoPath string) string {
	gitDir := filepath.Join(repoPath, ".git")

	info, err := os.Stat(gitDir)
	if err == nil && !info.IsDir() {
		content, err := os.ReadFile(gitDir)
		if err == nil {
			line := strings.TrimSpace(string(content))
			if strings.HasPrefix(line, "gitdir:") {
				gitDir = strings.TrimSpace(strings.TrimPrefix(line, "gitdir:"))
				if !filepath.IsAbs(gitDir) {
					gitDir = filepath.Join(repoPath, gitDir)
				}
			}
		}
	}

	return gitDir
}

// ShortenReason collapses whitespace and truncates s to max runes.
func ShortenReason(s string, max int) string {
	oneLine := strings.Join(strings.Fields(s), " ")
	runes := []rune(oneLine)
	if max > 0 && len(runes) > max {
		return string(runes[:max-1]) + "…"
	}
	return oneLine
}
