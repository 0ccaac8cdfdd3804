package cmd

import (
	"context"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jackchuka/gitfx/internal/model"
	"github.com/jackchuka/gitfx/internal/provider"
	"github.com/jackchuka/gitfx/internal/scanner"
	"github.com/jackchuka/gitfx/internal/status"
)

var snapCmd = &cobra.Command{
	Use:   "snap [path...]",
	Short: "Print the current snapshot of each repository as YAML",
	Long: `Reads every repository under the scan paths, or only the given
repositories, and prints the values the watcher compares between
observations.`,
	RunE: runSnap,
}

func init() {
	rootCmd.AddCommand(snapCmd)
}

type snapEntry struct {
	Path  string         `yaml:"path"`
	Head  model.HeadInfo `yaml:"head"`
	Snap  model.RepoSnap `yaml:"snapshot"`
	Error string         `yaml:"error,omitempty"`
}

func runSnap(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	paths, err := snapPaths(ctx, args)
	if err != nil {
		return err
	}

	statuses, errs := status.NewGitReader().GetStatusBatch(ctx, paths)
	entries := make([]snapEntry, 0, len(paths))
	for _, p := range paths {
		e := snapEntry{Path: p}
		if st, ok := statuses[p]; ok {
			state := provider.StateFromStatus(st)
			e.Head = provider.HeadOf(state)
			e.Snap = provider.Snap(state)
		} else if err := errs[p]; err != nil {
			e.Error = status.ShortenReason(err.Error(), 220)
		}
		entries = append(entries, e)
	}

	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(entries)
}

func snapPaths(ctx context.Context, args []string) ([]string, error) {
	if len(args) > 0 {
		paths := make([]string, 0, len(args))
		for _, a := range args {
			abs, err := filepath.Abs(a)
			if err != nil {
				return nil, err
			}
			paths = append(paths, abs)
		}
		sort.Strings(paths)
		return paths, nil
	}

	repos, err := scanner.NewWalker(cfg).Scan(ctx)
	if err != nil {
		return nil, err
	}
	paths := make([]string, len(repos))
	for i, r := range repos {
		paths[i] = r.Path
	}
	return paths, nil
}
