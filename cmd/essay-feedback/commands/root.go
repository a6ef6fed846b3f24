package commands

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/essay-feedback/internal/common"
	"github.com/joseph-ayodele/essay-feedback/internal/core"
	"github.com/joseph-ayodele/essay-feedback/internal/extract"
	"github.com/joseph-ayodele/essay-feedback/internal/llm"
	"github.com/joseph-ayodele/essay-feedback/internal/llm/openai"
)

// app is the state shared by subcommands once the root pre-run has loaded
// configuration.
type app struct {
	configPath string
	logLevel   string

	cfg    *common.Config
	logger *slog.Logger

	// evaluator overrides the OpenAI client, for tests.
	evaluator llm.FeedbackEvaluator
}

func Execute() error {
	return NewRootCmd(nil).ExecuteContext(context.Background())
}

// NewRootCmd builds the command tree. A non-nil evaluator replaces the model client.
func NewRootCmd(evaluator llm.FeedbackEvaluator) *cobra.Command {
	a := &app{evaluator: evaluator}
	root := &cobra.Command{
		Use:           "essay-feedback",
		Short:         "Structured writing feedback for essays",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := common.LoadConfigFile(a.configPath)
			if err != nil {
				return err
			}
			if a.logLevel != "" {
				cfg.Log.Level = a.logLevel
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			a.cfg = cfg
			a.logger = common.NewLogger(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format)
			slog.SetDefault(a.logger)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", os.Getenv("ESSAY_FEEDBACK_CONFIG"), "YAML config file overlaying the environment")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "debug, info, warn or error")

	root.AddCommand(
		evaluateCmd(a),
		reingestCmd(a),
		exportCmd(a),
		serveCmd(a),
		dbCheckCmd(a),
	)
	return root
}

func (a *app) modelClient() (llm.FeedbackEvaluator, error) {
	if a.evaluator != nil {
		return a.evaluator, nil
	}
	if err := a.cfg.ValidateForModel(); err != nil {
		return nil, err
	}
	return openai.NewClient(openai.Config{
		APIKey:          a.cfg.LLM.APIKey,
		BaseURL:         a.cfg.LLM.BaseURL,
		Model:           a.cfg.LLM.Model,
		MaxOutputTokens: a.cfg.LLM.MaxOutputTokens,
		Timeout:         a.cfg.LLM.Timeout,
	}, a.logger), nil
}

func (a *app) processor(outputDir string, skipArtifact bool) (*core.Processor, error) {
	ev, err := a.modelClient()
	if err != nil {
		return nil, err
	}
	if outputDir == "" {
		outputDir = a.cfg.Uploads.OutputDir
	}
	cfg := core.ProcessorConfig{
		Model:           a.cfg.LLM.Model,
		MaxOutputTokens: a.cfg.LLM.MaxOutputTokens,
		MaxChars:        a.cfg.Prompt.MaxChars,
		OutputDir:       outputDir,
		SkipArtifact:    skipArtifact,
	}
	return core.NewProcessor(cfg, extract.NewExtractor(extract.Config{Pdftotext: a.cfg.Extract.Pdftotext, MaxPages: a.cfg.Extract.MaxPages}, a.logger), ev, a.logger), nil
}
