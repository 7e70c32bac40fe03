package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"splitlink/internal/ipc"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon, LiveSplit, and relay status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Status()
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, resp)
				}
				stdout := cmd.OutOrStdout()
				colorize := shouldColorize(stdout)
				for _, line := range statusLines(resp, colorize) {
					fmt.Fprintln(stdout, line)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit status as JSON")
	return cmd
}

func statusLines(resp *ipc.StatusResponse, colorize bool) []string {
	var lines []string
	lines = append(lines, renderSectionHeader("Daemon", colorize)...)
	if resp.Running {
		lines = append(lines, renderStatusLine("Splitlink", statusOK, fmt.Sprintf("Running (pid %d)", resp.PID), colorize))
	} else {
		lines = append(lines, renderStatusLine("Splitlink", statusWarn, "Stopped", colorize))
	}
	lines = append(lines, renderStatusLine("Session", statusInfo, resp.SessionID, colorize))
	if resp.JournalPath != "" {
		lines = append(lines, renderStatusLine("Journal", statusInfo, resp.JournalPath, colorize))
	} else {
		lines = append(lines, renderStatusLine("Journal", statusWarn, "Disabled", colorize))
	}
	lines = append(lines, "")

	lines = append(lines, renderSectionHeader("LiveSplit", colorize)...)
	lines = append(lines, renderStatusLine("Transport", transportKind(resp), displayLabel(resp.Transport), colorize))
	switch {
	case resp.Transport == "broadcast":
		lines = append(lines, renderStatusLine("Health", statusWarn, "Assumed (relay cannot see LiveSplit)", colorize))
	case resp.Connected:
		lines = append(lines, renderStatusLine("Health", statusOK, "Responding", colorize))
	case resp.Cause != "":
		lines = append(lines, renderStatusLine("Health", statusError, resp.Cause, colorize))
	default:
		lines = append(lines, renderStatusLine("Health", statusError, "Not responding", colorize))
	}
	if !resp.ConnectedAt.IsZero() {
		lines = append(lines, renderStatusLine("Since", statusInfo, resp.ConnectedAt.Local().Format(time.DateTime), colorize))
	}
	if resp.LastIndex != nil {
		lines = append(lines, renderStatusLine("Last index", statusInfo, strconv.Itoa(*resp.LastIndex), colorize))
	}
	if resp.LastError != "" {
		lines = append(lines, renderStatusLine("Last error", statusWarn, resp.LastError, colorize))
	}
	lines = append(lines, "")

	lines = append(lines, renderSectionHeader("Relay", colorize)...)
	if resp.RelayRunning {
		lines = append(lines, renderStatusLine("Websocket", statusOK, "Listening on "+resp.RelayAddr, colorize))
		lines = append(lines, renderStatusLine("Listeners", listenerKind(resp.Listeners), strconv.Itoa(resp.Listeners), colorize))
	} else {
		lines = append(lines, renderStatusLine("Websocket", statusInfo, "Idle", colorize))
	}
	return lines
}

func transportKind(resp *ipc.StatusResponse) statusKind {
	switch {
	case resp.Transport == "broadcast":
		return statusWarn
	case resp.Connected:
		return statusOK
	default:
		return statusError
	}
}

func listenerKind(count int) statusKind {
	if count == 0 {
		return statusWarn
	}
	return statusOK
}
