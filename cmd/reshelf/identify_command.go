package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"reshelf/internal/media"
	"reshelf/internal/planner"
	"reshelf/internal/scoring"
	"reshelf/internal/services"
)

type identifyView struct {
	Path        string                     `json:"path"`
	Result      media.IdentificationResult `json:"result"`
	Score       scoring.Score              `json:"score"`
	Destination string                     `json:"destination,omitempty"`
}

func newIdentifyCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "identify <file>...",
		Short: "Show how reshelf identifies media files",
		Long: `Identify one or more media files and print the resulting record, the
reasons behind each decision, non-fatal errors and the confidence score.
Nothing is moved.

Examples:
  reshelf identify "Alien (1979)/Alien.mkv"
  reshelf identify --json Show/Season\ 01/*.mkv`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			engine := engineFactory(cfg, logger)()
			scorer := newScorer(cfg)
			plan := planner.New(cfg.Paths.MoviesDir, cfg.Paths.TVDir)

			views := make([]identifyView, 0, len(args))
			for _, arg := range args {
				path, err := filepath.Abs(arg)
				if err != nil {
					return fmt.Errorf("resolve %s: %w", arg, err)
				}
				if _, err := os.Stat(path); err != nil {
					return services.Wrap(services.ErrNotFound, "identify", "stat", path, err)
				}
				result := engine.Identify(cmd.Context(), path)
				view := identifyView{Path: path, Result: result, Score: scorer.Score(result)}
				if result.Record.Kind != media.KindUnknown {
					if dest := plan.Destination(result.Record); dest != path {
						view.Destination = dest
					}
				}
				views = append(views, view)
			}

			if jsonOutput {
				return writeJSON(cmd.OutOrStdout(), views)
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			for i, view := range views {
				if i > 0 {
					fmt.Fprintln(out)
				}
				printIdentifyView(out, view, colorize)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func printIdentifyView(out io.Writer, view identifyView, colorize bool) {
	record := view.Result.Record
	fmt.Fprintln(out, view.Path)
	fmt.Fprintf(out, "  Kind:        %s\n", record.Kind)
	if record.Title != "" {
		fmt.Fprintf(out, "  Title:       %s\n", record.Title)
	}
	if record.Year != 0 {
		fmt.Fprintf(out, "  Year:        %d\n", record.Year)
	}
	if label := record.EpisodeLabel(); label != "" {
		fmt.Fprintf(out, "  Episode:     %s\n", label)
	}
	if record.Part != 0 {
		fmt.Fprintf(out, "  Part:        %d\n", record.Part)
	}
	for _, key := range record.Metadata.Keys() {
		fmt.Fprintf(out, "  %-12s %s\n", key+":", record.Metadata.Value(key))
	}
	fmt.Fprintf(out, "  Confidence:  %s\n", renderConfidence(view.Score, colorize))
	if view.Destination != "" {
		fmt.Fprintf(out, "  Destination: %s\n", view.Destination)
	}
	if len(record.Companions) > 0 {
		fmt.Fprintf(out, "  Companions:  %s\n", strings.Join(baseNames(record.Companions), ", "))
	}
	printList(out, "Reasons", view.Result.Reasons)
	printList(out, "Errors", view.Result.Errors)
}

func printList(out io.Writer, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(out, "  %s:\n", title)
	for _, item := range items {
		fmt.Fprintf(out, "    - %s\n", item)
	}
}

func baseNames(paths []string) []string {
	names := make([]string, len(paths))
	for i, p := range paths {
		names[i] = filepath.Base(p)
	}
	return names
}
