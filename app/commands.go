package app

import (
	"context"
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"pdfphrase/config"
	"pdfphrase/search"
)

func addFlexibleFlags(cmd *cobra.Command) {
	d := config.DefaultConfig()
	cmd.Flags().Int("max-intermediate", d.MaxIntermediate, "Most words allowed between two phrase words")
	cmd.Flags().Int("context-window", d.ContextWindow, "Characters of context kept on each side of a match")
}

func addHeatmapFlags(cmd *cobra.Command) {
	d := config.DefaultConfig()
	cmd.Flags().Int("top-n", d.Heatmap.TopN, "Number of words in the heatmap")
	cmd.Flags().Int("min-length", d.Heatmap.MinLength, "Shortest word counted by the heatmap")
}

func newExactCmd(e *env) *cobra.Command {
	var tui bool
	cmd := &cobra.Command{
		Use:   "exact <document> <phrase>...",
		Short: "Find whole-word occurrences of a phrase in one document",
		Example: `  pdfphrase exact dracula.pdf "the count"
  pdfphrase exact --tui dracula.pdf blood`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, phrase := args[0], strings.Join(args[1:], " ")
			return e.run(cmd, tui, func(ctx context.Context, s *session) (outcome, error) {
				chunks, err := s.load(ctx, path)
				if err != nil {
					return outcome{}, err
				}
				return s.exact(ctx, chunks, phrase)
			})
		},
	}
	cmd.Flags().BoolVar(&tui, "tui", false, "Browse matches in the interactive viewer")
	cmd.Flags().String("policy", config.PolicyAbort, "Chunk failure policy (abort or skip)")
	return cmd
}

func newFlexibleCmd(e *env) *cobra.Command {
	var tui bool
	cmd := &cobra.Command{
		Use:   "flexible <document> <phrase>...",
		Short: "Find a phrase with up to N words between its terms in one document",
		Example: `  pdfphrase flexible dracula.pdf "dark night"
  pdfphrase flexible --max-intermediate 3 dracula.pdf "count castle"`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, phrase := args[0], strings.Join(args[1:], " ")
			return e.run(cmd, tui, func(ctx context.Context, s *session) (outcome, error) {
				chunks, err := s.load(ctx, path)
				if err != nil {
					return outcome{}, err
				}
				return s.flexible(ctx, chunks, phrase)
			})
		},
	}
	cmd.Flags().BoolVar(&tui, "tui", false, "Browse matches in the interactive viewer")
	cmd.Flags().String("policy", config.PolicyAbort, "Chunk failure policy (abort or skip)")
	addFlexibleFlags(cmd)
	return cmd
}

func newHeatmapCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "heatmap <document>",
		Short: "Draw a heatmap of the most frequent words in one document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.run(cmd, false, func(ctx context.Context, s *session) (outcome, error) {
				chunks, err := s.load(ctx, args[0])
				if err != nil {
					return outcome{}, err
				}
				return s.heatmap(chunks)
			})
		},
	}
	addHeatmapFlags(cmd)
	return cmd
}

func newMultiCmd(e *env) *cobra.Command {
	var tui bool
	cmd := &cobra.Command{
		Use:   "multi <phrase> [document|directory]...",
		Short: "Flexible search across many documents",
		Long: "Run the flexible search over every listed document, one task per\n" +
			"document. Directories are searched recursively for " + config.GetFileTypeDescription() + ".\n" +
			"With no documents a file picker is opened.",
		Example: `  pdfphrase multi "dark night" ./library
  pdfphrase multi "count castle"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			phrase := args[0]
			paths, err := e.documents(cmd.Context(), args[1:])
			if err != nil {
				return err
			}
			return e.run(cmd, tui, func(ctx context.Context, s *session) (outcome, error) {
				return s.multi(ctx, paths, phrase)
			})
		},
	}
	cmd.Flags().BoolVar(&tui, "tui", false, "Browse matches in the interactive viewer")
	cmd.Flags().String("multi-policy", config.PolicySkip, "Document failure policy (abort or skip)")
	addFlexibleFlags(cmd)
	return cmd
}

var errNoDocuments = errors.New("no documents selected")

// documents expands the arguments, or asks the picker when there are none.
func (e *env) documents(ctx context.Context, args []string) ([]string, error) {
	if len(args) == 0 && e.pick != nil {
		picked, err := e.pick(ctx)
		if err != nil {
			return nil, err
		}
		args = picked
	}
	paths, err := search.NewFileWalker(config.DocumentTypes).ExpandPaths(ctx, args)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, errNoDocuments
	}
	return paths, nil
}
