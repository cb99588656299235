package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"reshelf/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var batchFlag string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent batches or the moves of one batch",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := history.Open(cfg.Paths.StateDir)
			if err != nil {
				return err
			}
			defer store.Close()

			out := cmd.OutOrStdout()
			if batchFlag = strings.TrimSpace(batchFlag); batchFlag != "" {
				id, err := store.ResolveBatchID(cmd.Context(), batchFlag)
				if err != nil {
					return err
				}
				entries, err := store.Moves(cmd.Context(), id)
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd.OutOrStdout(), entries)
				}
				if len(entries) == 0 {
					fmt.Fprintf(out, "Batch %s has no recorded items\n", shortID(id))
					return nil
				}
				rows := make([][]string, 0, len(entries))
				for _, e := range entries {
					detail := e.Destination
					if e.Error != "" {
						detail = e.Error
					}
					rows = append(rows, []string{e.Action, e.Kind, e.Title, e.Source, detail})
				}
				fmt.Fprintln(out, renderTable([]column{
					textColumn("Result"), textColumn("Kind"), textColumn("Title"),
					pathColumn("Source"), pathColumn("Destination"),
				}, rows))
				return nil
			}

			batches, err := store.RecentBatches(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd.OutOrStdout(), batches)
			}
			if len(batches) == 0 {
				fmt.Fprintln(out, "No batches recorded")
				return nil
			}
			rows := make([][]string, 0, len(batches))
			for _, b := range batches {
				mode := "live"
				if b.DryRun {
					mode = "dry run"
				}
				state := "running"
				if b.FinishedAt != nil {
					state = b.FinishedAt.Sub(b.StartedAt).Round(time.Millisecond).String()
				}
				rows = append(rows, []string{
					shortID(b.ID),
					humanize.Time(b.StartedAt),
					mode,
					b.Policy,
					strconv.Itoa(b.Moves),
					strconv.Itoa(b.Failures),
					state,
					b.SourceRoot,
				})
			}
			fmt.Fprintln(out, renderTable([]column{
				textColumn("Batch"), textColumn("Started"), textColumn("Mode"), textColumn("Policy"),
				numericColumn("Items"), numericColumn("Failed"), textColumn("Duration"), pathColumn("Source"),
			}, rows))
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Number of batches to list")
	cmd.Flags().StringVar(&batchFlag, "batch", "", "Show the items of one batch (ID or unique prefix)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
