package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/duralab/frpdur/internal/artifact"
	"github.com/duralab/frpdur/internal/loader"
	"github.com/duralab/frpdur/internal/record"
	"github.com/duralab/frpdur/internal/train"
)

// NewTrainCommand creates the train command.
func NewTrainCommand() *cobra.Command {
	var (
		dataPath   string
		query      string
		exportPath string
		dryRun     bool
	)

	cmd := &cobra.Command{
		Use:   "train [data-file]",
		Short: "Train retention models from a literature dataset",
		Long: `Load raw records from a CSV or Parquet file, derive canonical
features, train all configured model families with hyperparameter
search, and store the fitted artifacts.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := runtimeFrom(cmd)
			if err != nil {
				return err
			}
			cfg, logger := rt.Config, rt.Logger

			path := dataPath
			if len(args) == 1 {
				path = args[0]
			}
			if path == "" {
				path = cfg.Data.Path
			}
			if query == "" {
				query = cfg.Data.Query
			}
			if path == "" && query == "" {
				return fmt.Errorf("no data source: pass a data file or set data.path in the config")
			}

			l, err := loader.Open(logger)
			if err != nil {
				return err
			}
			defer l.Close()

			var records []record.Record
			if query != "" {
				records, err = l.Query(cmd.Context(), query)
			} else {
				records, err = l.LoadFile(cmd.Context(), path)
			}
			if err != nil {
				return err
			}
			if len(records) == 0 {
				return fmt.Errorf("data source produced no records")
			}

			trainer := train.New(cfg.TrainOptions(logger))
			report, err := trainer.Run(cmd.Context(), records)
			if err != nil {
				return err
			}

			if cfg.Output == "json" {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(report); err != nil {
					return err
				}
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), report.Summary())
				report.RenderComparison(cmd.OutOrStdout())
			}

			if dryRun {
				logger.Info("dry run, skipping artifact persistence")
				return nil
			}

			artifacts, err := artifact.FromReport(report)
			if err != nil {
				return err
			}
			store, err := artifact.Open(cfg.StorePath)
			if err != nil {
				return err
			}
			defer store.Close()
			if err := store.Save(cmd.Context(), artifacts); err != nil {
				return err
			}
			logger.Info("saved artifacts", "count", len(artifacts), "store", cfg.StorePath)

			if exportPath != "" {
				for _, a := range artifacts {
					if a.Best {
						if err := a.WriteFile(exportPath); err != nil {
							return err
						}
						logger.Info("exported champion artifact", "path", exportPath, "family", a.Family)
						break
					}
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dataPath, "data", "", "Path to the raw records file (CSV or Parquet)")
	cmd.Flags().StringVar(&query, "query", "", "DuckDB SELECT to use as the record source")
	cmd.Flags().StringVar(&exportPath, "export", "", "Also export the champion artifact to this JSON file")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Train and report without persisting artifacts")

	return cmd
}
