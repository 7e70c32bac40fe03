package main

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"splitlink/internal/ipc"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recently dispatched commands",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if limit < 0 {
				return errors.New("--limit must be >= 0")
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.History(limit)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, resp.Entries)
				}
				out := cmd.OutOrStdout()
				if len(resp.Entries) == 0 {
					fmt.Fprintln(out, "No commands recorded")
					return nil
				}
				headers, rows, aligns := historyTable(resp.Entries)
				fmt.Fprint(out, renderTable(headers, rows, aligns))
				fmt.Fprintln(out)
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of entries to show (0 for all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit entries as JSON")
	return cmd
}

func historyTable(entries []ipc.HistoryEntry) ([]string, [][]string, []columnAlignment) {
	headers := []string{"ID", "Time", "Command", "Transport", "Outcome", "Index", "Took", "Error"}
	aligns := []columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft}
	rows := make([][]string, 0, len(entries))
	for _, entry := range entries {
		index := "-"
		if entry.SplitIndex != nil {
			index = strconv.Itoa(*entry.SplitIndex)
		}
		rows = append(rows, []string{
			strconv.FormatInt(entry.ID, 10),
			entry.CreatedAt.Local().Format(time.DateTime),
			entry.Command,
			displayLabel(entry.Transport),
			displayLabel(entry.Outcome),
			index,
			(time.Duration(entry.DurationMs) * time.Millisecond).String(),
			entry.Error,
		})
	}
	return headers, rows, aligns
}
