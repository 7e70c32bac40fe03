package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"splitlink/internal/ipc"
	"splitlink/internal/livesplit"
)

var timerCommandHelp = map[livesplit.Command]string{
	livesplit.CommandSplit:   "Start the timer or split",
	livesplit.CommandReset:   "Reset the timer",
	livesplit.CommandRestart: "Reset the timer and start it again",
	livesplit.CommandSkip:    "Skip the current split",
	livesplit.CommandUndo:    "Undo the last split",
}

func newTimerCommands(ctx *commandContext) []*cobra.Command {
	commands := make([]*cobra.Command, 0, len(livesplit.Commands()))
	for _, command := range livesplit.Commands() {
		commands = append(commands, newTimerCommand(ctx, command))
	}
	return commands
}

func newTimerCommand(ctx *commandContext, command livesplit.Command) *cobra.Command {
	return &cobra.Command{
		Use:   command.String(),
		Short: timerCommandHelp[command],
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Send(command.String())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if resp.Outcome != "ok" {
					return fmt.Errorf("%s via %s: %s", resp.Command, resp.Transport, resp.Error)
				}
				fmt.Fprintf(out, "Sent %s via %s\n", resp.Command, resp.Transport)
				return nil
			})
		},
	}
}

func newIndexCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "index",
		Short: "Print the current split index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.SplitIndex()
				if err != nil {
					return err
				}
				if resp.Outcome != "ok" {
					if resp.Error == "" {
						return errors.New(resp.Outcome)
					}
					return fmt.Errorf("split index via %s: %s", resp.Transport, resp.Error)
				}
				fmt.Fprintln(cmd.OutOrStdout(), resp.Index)
				return nil
			})
		},
	}
}

func newConnectCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "connect",
		Short: "Reconnect the daemon to LiveSplit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Connect()
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				status := resp.Status
				if status.Transport == livesplit.KindDisconnected.String() {
					fmt.Fprintf(out, "Not connected: %s\n", status.Cause)
					return nil
				}
				fmt.Fprintf(out, "Connected via %s (healthy: %s)\n", status.Transport, yesNo(status.Connected))
				return nil
			})
		},
	}
}

func newDisconnectCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "disconnect",
		Short: "Close the daemon's LiveSplit connection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Disconnect()
				if err != nil {
					return err
				}
				if !resp.Disconnected {
					return fmt.Errorf("disconnect: %s", resp.Error)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Disconnected")
				return nil
			})
		},
	}
}
