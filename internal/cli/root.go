// Package cli implements the textlab command line: one subcommand per
// analysis, running against the same pipeline as the web server.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/nlpstudio/textlab/internal/nlp/pipeline"
	"github.com/nlpstudio/textlab/pkg/logger"
)

// Version is set at build time.
var Version = "dev"

type options struct {
	dataDir  string
	logLevel string

	nlp *pipeline.Pipeline
}

// NewRootCommand builds the textlab command tree.
func NewRootCommand() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "textlab",
		Short: "Tokenize, tag entities, score sentiment and summarize text",
		Long: `textlab runs the analyses of the textlab web app from the command line.

Text is taken from the arguments, or from standard input when no
argument or "-" is given. Output is the same artifact the web app
offers for download.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger.SetupWriter(cmd.ErrOrStderr(), opts.logLevel, "text")
			if cmd.Name() == "version" {
				return nil
			}
			p, err := pipeline.Load(opts.dataDir)
			if err != nil {
				return fmt.Errorf("loading language pipeline: %w", err)
			}
			opts.nlp = p
			slog.Debug("language pipeline loaded", "data_dir", opts.dataDir)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&opts.dataDir, "data-dir", os.Getenv("TEXTLAB_NLP_DATA_DIR"),
		"directory of lexicon overrides (default: embedded lexicons)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	root.AddCommand(
		newAnalysisCommands(opts)...,
	)
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "textlab %s\n", Version)
		},
	})
	return root
}

// Execute runs the command line with the given arguments and streams.
func Execute(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	root := NewRootCommand()
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.Execute()
}
