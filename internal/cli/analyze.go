package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nlpstudio/textlab/internal/command"
	"github.com/nlpstudio/textlab/internal/nlp/summarizer"
)

type analysisFlags struct {
	strategy string
	download string
	json     bool
}

func newAnalysisCommands(opts *options) []*cobra.Command {
	analyses := []struct {
		kind  command.Kind
		short string
	}{
		{command.KindTokens, "List tokens and their lemmas"},
		{command.KindEntities, "List named entities"},
		{command.KindSentiment, "Score polarity and subjectivity"},
		{command.KindSummarize, "Extract a summary"},
	}

	cmds := make([]*cobra.Command, 0, len(analyses))
	for _, s := range analyses {
		flags := &analysisFlags{}
		c := &cobra.Command{
			Use:   string(s.kind) + " [text|-]",
			Short: s.short,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runAnalysis(cmd, opts, s.kind, flags, args)
			},
		}
		c.Flags().StringVarP(&flags.download, "download", "o", "", "write the download artifact to this file instead of stdout")
		c.Flags().BoolVar(&flags.json, "json", false, "print the result as JSON")
		if s.kind == command.KindSummarize {
			names := make([]string, len(summarizer.Strategies))
			for i, st := range summarizer.Strategies {
				names[i] = string(st)
			}
			c.Flags().StringVarP(&flags.strategy, "strategy", "s", string(summarizer.StrategyFrequency),
				"summarizer strategy ("+strings.Join(names, ", ")+")")
		}
		cmds = append(cmds, c)
	}
	return cmds
}

func runAnalysis(cmd *cobra.Command, opts *options, kind command.Kind, flags *analysisFlags, args []string) error {
	text, err := readText(cmd.InOrStdin(), args)
	if err != nil {
		return err
	}

	c, err := command.Parse(string(kind), flags.strategy)
	if err != nil {
		return err
	}
	res, err := c.Run(opts.nlp, text)
	if err != nil {
		return err
	}
	if s, ok := res.(command.SummaryResult); ok && s.Summary.FellBack {
		fmt.Fprintln(cmd.ErrOrStderr(), "Using Default Summarizer")
	}

	if flags.json {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	art, err := res.Artifact()
	if err != nil {
		return err
	}
	if flags.download != "" {
		if err := os.WriteFile(flags.download, art.Body, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", flags.download, err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s (%d bytes)\n", flags.download, len(art.Body))
		return nil
	}
	out := cmd.OutOrStdout()
	if _, err := out.Write(art.Body); err != nil {
		return err
	}
	_, err = io.WriteString(out, "\n")
	return err
}

// readText joins the arguments, or reads stdin when there are none or the
// only argument is "-".
func readText(stdin io.Reader, args []string) (string, error) {
	if len(args) == 0 || (len(args) == 1 && args[0] == "-") {
		b, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(b), nil
	}
	return strings.Join(args, " "), nil
}
