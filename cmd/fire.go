package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jackchuka/gitfx/internal/effects"
	"github.com/jackchuka/gitfx/internal/logging"
	"github.com/jackchuka/gitfx/internal/model"
	"github.com/jackchuka/gitfx/tui"
)

var fireKind string

var fireCmd = &cobra.Command{
	Use:   "fire [path]",
	Short: "Show a test effect",
	Long: `Sends a manual effect through the dispatcher and prints it, so the
presentation can be checked without pushing anything. Respects the
"enabled" setting.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runFire,
}

func init() {
	fireCmd.Flags().StringVarP(&fireKind, "kind", "k", string(model.KindInfo), "effect kind: success, error or info")
	rootCmd.AddCommand(fireCmd)
}

func runFire(cmd *cobra.Command, args []string) error {
	kind, err := parseKind(fireKind)
	if err != nil {
		return err
	}

	path, err := os.Getwd()
	if err != nil {
		return err
	}
	if len(args) == 1 {
		if path, err = filepath.Abs(args[0]); err != nil {
			return err
		}
	}

	if err := logging.Setup(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile}); err != nil {
		return err
	}
	defer logging.Close()

	settings := effects.SettingsFrom(cfg)
	dispatcher := effects.NewDispatcher(effects.TermSinkFactory{W: cmd.OutOrStdout()}, func() effects.Settings {
		return settings
	}, logging.NewLogger("effects"))
	defer dispatcher.Close()

	p := tui.ManualPayload(path)
	p.Kind = kind
	if !dispatcher.Dispatch(p) {
		fmt.Fprintln(cmd.ErrOrStderr(), "effects are disabled (enabled: false)")
	}
	return nil
}

func parseKind(s string) (model.EffectKind, error) {
	switch k := model.EffectKind(s); k {
	case model.KindSuccess, model.KindError, model.KindInfo:
		return k, nil
	default:
		return "", fmt.Errorf("unknown effect kind %q (want success, error or info)", s)
	}
}
