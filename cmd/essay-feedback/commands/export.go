package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/essay-feedback/constants"
	"github.com/joseph-ayodele/essay-feedback/internal/core"
	"github.com/joseph-ayodele/essay-feedback/internal/export"
	"github.com/joseph-ayodele/essay-feedback/internal/extract"
)

func exportCmd(a *app) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export <feedback.txt>...",
		Short: "Render feedback files as an XLSX review workbook",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if out == "" {
				return fmt.Errorf("--out is required")
			}
			proc := core.NewProcessor(core.ProcessorConfig{SkipArtifact: true}, extract.NewExtractor(extract.Config{}, a.logger), nil, a.logger)
			docs := make([]export.Document, 0, len(args))
			for _, p := range args {
				fb, err := proc.Reingest(cmd.Context(), p)
				if err != nil {
					return err
				}
				docs = append(docs, export.Document{Name: documentName(p), Feedback: fb})
			}
			b, err := export.NewService(a.logger).FeedbackXLSX(cmd.Context(), docs)
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, b, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d documents)\n", out, len(docs))
			return err
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "workbook path")
	return cmd
}

// documentName strips the feedback suffix so rows name the essay.
func documentName(path string) string {
	base := filepath.Base(path)
	if stem, ok := strings.CutSuffix(base, constants.FeedbackFileSuffix); ok && stem != "" {
		return stem
	}
	return base
}
