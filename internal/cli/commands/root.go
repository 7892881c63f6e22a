// Package commands implements the frpdur CLI.
package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/duralab/frpdur/internal/config"
)

// Runtime carries the loaded configuration and logger to subcommands.
type Runtime struct {
	Config *config.Config
	Logger *slog.Logger
}

type runtimeKey struct{}

// NewRootCommand creates the root command with all subcommands attached.
func NewRootCommand(version string) *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "frpdur",
		Short: "FRP rebar durability modeling pipeline",
		Long: `frpdur trains and serves tensile strength retention models for
FRP reinforcement bars from noisy literature data.

It derives canonical engineering features from heterogeneous records,
trains several model families with hyperparameter search, stores the
fitted artifacts, and answers durability predictions for new exposure
scenarios.`,
		Version: version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			cfg, err := config.Load(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}

			level := slog.LevelInfo
			if cfg.Verbose {
				level = slog.LevelDebug
			}
			var handler slog.Handler
			if cfg.Output == "json" {
				handler = slog.NewJSONHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})
			} else {
				handler = slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})
			}
			logger := slog.New(handler)

			ctx := context.WithValue(cmd.Context(), runtimeKey{}, &Runtime{Config: cfg, Logger: logger})
			cmd.SetContext(ctx)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
FRP rebar durability modeling pipeline
`)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./frpdur.yaml)")
	rootCmd.PersistentFlags().String("store", "", "Path to the artifact store database")
	rootCmd.PersistentFlags().Int64("seed", 0, "Random seed for the training pipeline")
	rootCmd.PersistentFlags().String("target", "", "Target column name")
	rootCmd.PersistentFlags().Bool("no-tuning", false, "Disable hyperparameter search and train with defaults")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().StringP("output", "o", "", "Output format (table|json)")

	_ = rootCmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"table", "json"}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(NewVersionCommand(version))
	rootCmd.AddCommand(NewTrainCommand())
	rootCmd.AddCommand(NewPredictCommand())
	rootCmd.AddCommand(NewArtifactsCommand())

	return rootCmd
}

// runtimeFrom retrieves the runtime stored by the root command.
func runtimeFrom(cmd *cobra.Command) (*Runtime, error) {
	rt, ok := cmd.Context().Value(runtimeKey{}).(*Runtime)
	if !ok {
		return nil, fmt.Errorf("configuration not loaded")
	}
	return rt, nil
}

// Execute runs the CLI and returns the process exit code.
func Execute(version string) int {
	rootCmd := NewRootCommand(version)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
