package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/duralab/frpdur/internal/artifact"
	"github.com/duralab/frpdur/internal/loader"
	"github.com/duralab/frpdur/internal/predict"
	"github.com/duralab/frpdur/internal/record"
)

// NewPredictCommand creates the predict command.
func NewPredictCommand() *cobra.Command {
	var (
		inputPath    string
		artifactPath string
		artifactID   string
		fallback     bool
	)

	cmd := &cobra.Command{
		Use:   "predict [input-file]",
		Short: "Predict retention for new exposure scenarios",
		Long: `Load raw records, rederive the canonical features exactly as at
training time, and predict tensile strength retention with the stored
champion model (or an explicitly chosen artifact).

Records that cannot supply every feature the model expects are
rejected by name. Pass --fallback to accept them through the degraded
numeric-only path instead; those results are flagged lower-confidence.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := runtimeFrom(cmd)
			if err != nil {
				return err
			}
			cfg, logger := rt.Config, rt.Logger

			path := inputPath
			if len(args) == 1 {
				path = args[0]
			}
			if path == "" {
				return fmt.Errorf("no input: pass a records file")
			}

			art, err := resolveArtifact(cmd, artifactPath, artifactID)
			if err != nil {
				return err
			}
			logger.Info("using artifact", "id", art.ID, "family", art.Family, "test_r2", art.Test.R2)

			p, err := predict.New(art, logger)
			if err != nil {
				return err
			}

			l, err := loader.Open(logger)
			if err != nil {
				return err
			}
			defer l.Close()
			records, err := l.LoadFile(cmd.Context(), path)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				return fmt.Errorf("input file produced no records")
			}

			results, err := runPredictions(p, records, fallback)
			if err != nil {
				return err
			}

			if cfg.Output == "json" {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(results)
			}
			renderPredictions(cmd.OutOrStdout(), results)
			return nil
		},
	}

	cmd.Flags().StringVar(&inputPath, "input", "", "Path to the input records file (CSV or Parquet)")
	cmd.Flags().StringVar(&artifactPath, "artifact", "", "Use an exported artifact file instead of the store")
	cmd.Flags().StringVar(&artifactID, "artifact-id", "", "Use a specific artifact from the store")
	cmd.Flags().BoolVar(&fallback, "fallback", false, "Allow the degraded fallback path for incomplete records")

	return cmd
}

// resolveArtifact picks the artifact: an exported file, a store ID, or the
// latest champion.
func resolveArtifact(cmd *cobra.Command, artifactPath, artifactID string) (*artifact.Artifact, error) {
	if artifactPath != "" {
		return artifact.ReadFile(artifactPath)
	}

	rt, err := runtimeFrom(cmd)
	if err != nil {
		return nil, err
	}
	store, err := artifact.Open(rt.Config.StorePath)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	if artifactID != "" {
		return store.Get(cmd.Context(), artifactID)
	}
	return store.LatestBest(cmd.Context())
}

func runPredictions(p *predict.Predictor, records []record.Record, fallback bool) ([]*predict.Result, error) {
	if !fallback {
		return p.PredictBatch(records)
	}

	results := make([]*predict.Result, len(records))
	for i, r := range records {
		res, err := p.Predict(r)
		if err != nil {
			var missing *predict.MissingFeaturesError
			if !errors.As(err, &missing) {
				return nil, fmt.Errorf("row %d: %w", i, err)
			}
			res, err = p.PredictFallback(r)
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", i, err)
			}
		}
		results[i] = res
	}
	return results, nil
}

func renderPredictions(w io.Writer, results []*predict.Result) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Input", "Retention", "Band", "Recommendation", "Mode"})

	for i, r := range results {
		title := r.Title
		if title == "" {
			title = fmt.Sprintf("row %d", i)
		}
		mode := "standard"
		if r.Degraded {
			mode = "fallback"
		}
		t.AppendRow(table.Row{title, fmt.Sprintf("%.4f", r.Prediction), r.Band, r.Recommendation, mode})
	}
	t.Render()
}
