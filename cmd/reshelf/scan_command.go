package main

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"reshelf/internal/media"
	"reshelf/internal/planner"
	"reshelf/internal/scoring"
)

type scanRow struct {
	Path        string        `json:"path"`
	Size        int64         `json:"size"`
	Kind        media.Kind    `json:"kind"`
	Title       string        `json:"title,omitempty"`
	Year        int           `json:"year,omitempty"`
	Episode     string        `json:"episode,omitempty"`
	Score       scoring.Score `json:"score"`
	Destination string        `json:"destination,omitempty"`
}

type scanSummary struct {
	Source string    `json:"source"`
	Files  int       `json:"files"`
	Bytes  int64     `json:"bytes"`
	Green  int       `json:"green"`
	Yellow int       `json:"yellow"`
	Red    int       `json:"red"`
	Items  []scanRow `json:"items"`
}

func newScanCommand(ctx *commandContext) *cobra.Command {
	var workers int
	var minConfidence int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "scan [source]",
		Short: "Identify every video under a directory without moving anything",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			source, err := resolveSource(cfg, args)
			if err != nil {
				return err
			}

			items, err := scanSource(cmd.Context(), cfg, logger, source, workers)
			if err != nil {
				return err
			}

			scorer := newScorer(cfg)
			plan := planner.New(cfg.Paths.MoviesDir, cfg.Paths.TVDir)
			summary := scanSummary{Source: source, Items: make([]scanRow, 0, len(items))}
			for _, item := range items {
				score := scorer.Score(item.Result)
				if score.Confidence < minConfidence {
					continue
				}
				record := item.Result.Record
				row := scanRow{
					Path:    item.Path,
					Size:    item.Size,
					Kind:    record.Kind,
					Title:   record.Title,
					Year:    record.Year,
					Episode: record.EpisodeLabel(),
					Score:   score,
				}
				if record.Kind != media.KindUnknown {
					if dest := plan.Destination(record); dest != item.Path {
						row.Destination = dest
					}
				}
				summary.Files++
				summary.Bytes += item.Size
				switch score.Level {
				case scoring.LevelGreen:
					summary.Green++
				case scoring.LevelYellow:
					summary.Yellow++
				default:
					summary.Red++
				}
				summary.Items = append(summary.Items, row)
			}

			if jsonOutput {
				return writeJSON(cmd.OutOrStdout(), summary)
			}

			out := cmd.OutOrStdout()
			if summary.Files == 0 {
				fmt.Fprintf(out, "No video files found under %s\n", source)
				return nil
			}
			colorize := shouldColorize(out)
			rows := make([][]string, 0, len(summary.Items))
			for _, row := range summary.Items {
				year := ""
				if row.Year != 0 {
					year = strconv.Itoa(row.Year)
				}
				rows = append(rows, []string{
					relativeTo(source, row.Path),
					string(row.Kind),
					row.Title,
					year,
					row.Episode,
					renderConfidence(row.Score, colorize),
					row.Destination,
				})
			}
			fmt.Fprintln(out, renderTable([]column{
				pathColumn("File"), textColumn("Kind"), textColumn("Title"), numericColumn("Year"),
				textColumn("Episode"), numericColumn("Confidence"), pathColumn("Destination"),
			}, rows))
			fmt.Fprintf(out, "%d files (%s): %d green, %d yellow, %d red\n",
				summary.Files, humanize.IBytes(uint64(summary.Bytes)), summary.Green, summary.Yellow, summary.Red)
			return nil
		},
	}

	cmd.Flags().IntVar(&workers, "max-workers", 0, "Identification workers (default scanning.concurrency)")
	cmd.Flags().IntVar(&minConfidence, "confidence", 0, "Only list files at or above this confidence")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func relativeTo(root, path string) string {
	if rel, err := filepath.Rel(root, path); err == nil && rel != "." {
		return rel
	}
	return path
}
