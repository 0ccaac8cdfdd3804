package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jackchuka/gitfx/internal/config"
	"github.com/jackchuka/gitfx/internal/effects"
	"github.com/jackchuka/gitfx/internal/logging"
	"github.com/jackchuka/gitfx/internal/provider"
	"github.com/jackchuka/gitfx/internal/watcher"
	"github.com/jackchuka/gitfx/tui"
)

var (
	cfgFile  string
	cfg      *config.Config
	modeFlag string
	scanFlag []string
	headless bool
)

var rootCmd = &cobra.Command{
	Use:   "gitfx",
	Short: "gitfx - celebrate pushes, pulls and commits across your repositories",
	Long: `
            ╔═╗╦╔╦╗╔═╗═╗ ╦
            ║ ╦║ ║ ╠╣ ╔╩╦╝
            ╚═╝╩ ╩ ╚  ╩ ╚═   gitfx

  Watches local git repositories and shows an effect when a
  push, pull or commit completes, whichever tool ran it.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(cfg.ScanPaths) == 0 {
			fmt.Fprintf(os.Stderr, "No scan paths configured.\n")
			fmt.Fprintf(os.Stderr, "Run 'gitfx init' to set up, or add paths to %s\n", cfgFile)
			return nil
		}

		mode, err := observationMode()
		if err != nil {
			return err
		}
		return run(cmd.Context(), mode)
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $XDG_CONFIG_HOME/gitfx/config.yaml)")
	rootCmd.PersistentFlags().StringSliceVarP(&scanFlag, "scan", "s", nil, "paths to scan (overrides config file)")
	rootCmd.Flags().StringVarP(&modeFlag, "mode", "m", "", "observation mode: poll or watch (overrides $"+config.EnvMode+" and config)")
	rootCmd.Flags().BoolVar(&headless, "headless", false, "print effects to stdout instead of running the dashboard")
}

func initConfig() {
	if cfgFile == "" {
		cfgFile = config.DefaultConfigPath()
	}

	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	applyFlags(cfg)
}

// applyFlags re-applies command-line overrides; it also runs on every
// config reload.
func applyFlags(c *config.Config) {
	if len(scanFlag) > 0 {
		c.ScanPaths = slices.Clone(scanFlag)
	}
}

// observationMode resolves --mode, then $GITFX_MODE, then the config file.
func observationMode() (watcher.Mode, error) {
	if modeFlag != "" {
		return watcher.ParseMode(modeFlag)
	}
	return watcher.ParseMode(cfg.ObservationMode())
}

func run(parent context.Context, mode watcher.Mode) error {
	if parent == nil {
		parent = context.Background()
	}
	if err := logging.Setup(logging.Options{
		Level:       cfg.LogLevel,
		File:        cfg.LogFile,
		Interactive: !headless,
	}); err != nil {
		return err
	}
	defer logging.Close()
	log := logging.NewLogger("gitfx")

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	live := config.NewLive(cfgFile, cfg, applyFlags, logging.NewLogger("config"))
	go func() {
		if err := live.Watch(ctx); err != nil {
			log.WithError(err).Warn("config hot reload disabled")
		}
	}()

	repos := provider.NewGitProvider(live.Get, logging.NewLogger("provider"))
	defer repos.Close()

	var (
		sinks    effects.SinkFactory = effects.TermSinkFactory{W: os.Stdout}
		observer watcher.Observer
		bridge   *tui.Bridge
	)
	if !headless {
		bridge = tui.NewBridge()
		sinks = bridge
		observer = bridge
	}

	dispatcher := effects.NewDispatcher(sinks, func() effects.Settings {
		return effects.SettingsFrom(live.Get())
	}, logging.NewLogger("effects"))
	defer dispatcher.Close()

	eval := watcher.NewEvaluator(dispatcher, observer, logging.NewLogger("evaluator"))
	scheduler, err := watcher.New(mode, repos, eval, func() watcher.Settings {
		return watcher.SettingsFrom(live.Get())
	}, logging.NewLogger("watcher"))
	if err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() { done <- scheduler.Run(ctx) }()
	log.Infof("observing %d scan path(s) in %s mode", len(cfg.ScanPaths), mode)

	var uiErr error
	if headless {
		<-ctx.Done()
	} else {
		uiErr = tui.Run(ctx, tui.Options{
			Mode:    mode.String(),
			Bridge:  bridge,
			Trigger: dispatcher.Dispatch,
		})
		cancel()
	}

	err = errors.Join(uiErr, <-done)
	log.Info("stopped")
	return err
}
