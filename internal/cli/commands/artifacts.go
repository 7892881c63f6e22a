package commands

import (
	"encoding/json"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/duralab/frpdur/internal/artifact"
)

// NewArtifactsCommand creates the artifacts command group.
func NewArtifactsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "artifacts",
		Short: "Inspect stored model artifacts",
	}
	cmd.AddCommand(newArtifactsListCommand())
	cmd.AddCommand(newArtifactsShowCommand())
	cmd.AddCommand(newArtifactsExportCommand())
	return cmd
}

func newArtifactsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored artifacts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := runtimeFrom(cmd)
			if err != nil {
				return err
			}

			store, err := artifact.Open(rt.Config.StorePath)
			if err != nil {
				return err
			}
			defer store.Close()

			list, err := store.List(cmd.Context())
			if err != nil {
				return err
			}

			if rt.Config.Output == "json" {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(list)
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"ID", "Run", "Model", "Test R²", "Test RMSE", "Best", "Created"})
			for _, s := range list {
				best := ""
				if s.Best {
					best = "*"
				}
				t.AppendRow(table.Row{
					s.ID, s.RunID, s.Family,
					fmt.Sprintf("%.4f", s.TestR2),
					fmt.Sprintf("%.4f", s.TestRMSE),
					best,
					s.CreatedAt.Format("2006-01-02 15:04:05"),
				})
			}
			t.Render()
			return nil
		},
	}
}

func newArtifactsShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <artifact-id>",
		Short: "Show one artifact's metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := runtimeFrom(cmd)
			if err != nil {
				return err
			}

			store, err := artifact.Open(rt.Config.StorePath)
			if err != nil {
				return err
			}
			defer store.Close()

			a, err := store.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			// The payload is bulky and not human-oriented.
			a.Payload = nil
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(a)
		},
	}
}

func newArtifactsExportCommand() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export <artifact-id>",
		Short: "Export an artifact to a portable JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := runtimeFrom(cmd)
			if err != nil {
				return err
			}

			store, err := artifact.Open(rt.Config.StorePath)
			if err != nil {
				return err
			}
			defer store.Close()

			a, err := store.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := a.WriteFile(out); err != nil {
				return err
			}
			rt.Logger.Info("exported artifact", "id", a.ID, "path", out)
			return nil
		},
	}

	cmd.Flags().StringVar(&out, "out", "artifact.json", "Output file path")
	return cmd
}
