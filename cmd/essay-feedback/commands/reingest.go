package commands

import (
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/essay-feedback/internal/core"
	"github.com/joseph-ayodele/essay-feedback/internal/extract"
)

func reingestCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "reingest <feedback.txt>",
		Short: "Normalize a saved or hand-edited feedback file and print it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			proc := core.NewProcessor(core.ProcessorConfig{SkipArtifact: true}, extract.NewExtractor(extract.Config{}, a.logger), nil, a.logger)
			fb, err := proc.Reingest(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			b, err := core.MarshalFeedback(fb)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(b)
			return err
		},
	}
}
