package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"docqa/internal/cli"
	"docqa/internal/config"
	"docqa/internal/logging"
	"docqa/internal/summarizer"
	"docqa/internal/tui"
)

type rootOptions struct {
	configPath   string
	envFile      string
	documentsDir string
	verbose      bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "docqa",
		Short: "Ask questions about a folder of text documents",
		Long: "docqa indexes the .txt files of a directory into a vector store and answers\n" +
			"questions about them with an OpenAI chat model.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !term.IsTerminal(int(os.Stdin.Fd())) {
				return errors.New("the interactive menu needs a terminal; use a subcommand such as `docqa index` instead")
			}
			return runApp(cmd, opts, func(ctx context.Context, app *cli.App) error {
				return app.Run(ctx)
			})
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "path to a YAML config file (default ./config.yaml or ~/.config/docqa/config.yaml)")
	flags.StringVar(&opts.envFile, "env-file", ".env", "dotenv file holding OPENAI_API_KEY and friends")
	flags.StringVar(&opts.documentsDir, "documents", "", "directory of documents to index (overrides config)")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "also write logs to stderr")

	cmd.AddCommand(
		actionCmd(opts, "index", "Index the documents directory", (*cli.App).Index),
		actionCmd(opts, "count", "Print the number of indexed chunks", (*cli.App).Count),
		actionCmd(opts, "delete", "Delete the document store", (*cli.App).Delete),
		actionCmd(opts, "chat", "Start the interactive chat", (*cli.App).StartChat),
		newAskCmd(opts),
	)
	return cmd
}

func actionCmd(opts *rootOptions, use, short string, action func(*cli.App, context.Context) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runApp(cmd, opts, func(ctx context.Context, app *cli.App) error {
				return reported(action(app, ctx))
			})
		},
	}
}

func newAskCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ask <question...>",
		Short: "Answer a single question and exit",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			question := strings.Join(args, " ")
			return runApp(cmd, opts, func(ctx context.Context, app *cli.App) error {
				return reported(app.Ask(ctx, question))
			})
		},
	}
}

// runApp loads configuration, checks the environment, opens the log file
// and hands a ready App to fn.
func runApp(cmd *cobra.Command, opts *rootOptions, fn func(context.Context, *cli.App) error) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, tui.Banner())

	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	created, err := config.CheckEnvironment(cfg, opts.envFile)
	for _, dir := range created {
		fmt.Fprintln(out, tui.Success(fmt.Sprintf("Created directory: %s", dir)))
	}
	if errors.Is(err, config.ErrMissingEnv) {
		fmt.Fprintln(out, tui.Error("Environment not configured."))
		fmt.Fprintln(out, tui.EnvHelp(config.EnvTemplate))
		return reported(err)
	}
	if err != nil {
		return fmt.Errorf("checking environment: %w", err)
	}

	logger, logPath, err := logging.New(logging.Config{
		Dir:     cfg.Log.Dir,
		Level:   cfg.Log.Level,
		Console: cfg.Log.Console,
	}, time.Now())
	if err != nil {
		return err
	}
	defer func() { _ = logging.Sync(logger) }()
	logger.Info("Starting docqa",
		zap.String("command", cmd.Name()),
		zap.String("log_file", logPath),
		zap.String("model", cfg.LLM.Model),
		zap.String("vector_store", cfg.VectorStore.Type),
	)

	rag, err := assemble(cfg, logger)
	if err != nil {
		logger.Error("Error initializing RAG system", zap.Error(err))
		return err
	}
	app := cli.New(rag, cfg.Documents.Dir, summarizer.NewFrequencySummarizer(),
		cli.WithIO(cmd.InOrStdin(), out))
	return fn(cmd.Context(), app)
}

func loadConfig(opts *rootOptions) (*config.AppConfig, error) {
	if err := config.LoadEnvFile(opts.envFile); err != nil {
		return nil, fmt.Errorf("reading %s: %w", opts.envFile, err)
	}
	var (
		cfg *config.AppConfig
		err error
	)
	if opts.configPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(opts.configPath)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	config.ApplyEnv(cfg)
	if opts.documentsDir != "" {
		cfg.Documents.Dir = opts.documentsDir
	}
	if opts.verbose {
		cfg.Log.Console = true
		cfg.Log.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
