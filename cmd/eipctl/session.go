package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newSessionCmd groups the session lifecycle subcommands. This binary has no
// resident daemon to hold a session open across invocations, so each
// subcommand runs the full register/ForwardOpen/...(/ForwardClose) cycle
// itself and reports the outcome of the step it's named for.
func newSessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Open, inspect, and close a PLC session",
	}
	cmd.AddCommand(newSessionStartCmd())
	cmd.AddCommand(newSessionStopCmd())
	cmd.AddCommand(newSessionStatusCmd())
	cmd.AddCommand(newSessionDiagnosticsCmd())
	return cmd
}

func newSessionStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Register a session and ForwardOpen a connection",
		RunE: func(cmd *cobra.Command, args []string) error {
			o, id, _, teardown, err := newEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer teardown()

			status, err := o.GetStatus(id)
			if err != nil {
				return err
			}
			fmt.Printf("session %s connected=%v status=%s\n", id, status.Connected, status.LastStatus)
			return nil
		},
	}
}

func newSessionStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Open a session and immediately ForwardClose it",
		RunE: func(cmd *cobra.Command, args []string) error {
			o, id, _, _, err := newEngine(cmd.Context())
			if err != nil {
				return err
			}
			if err := o.StopSession(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Printf("session %s stopped\n", id)
			return nil
		},
	}
}

func newSessionStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print a session's connection status",
		RunE: func(cmd *cobra.Command, args []string) error {
			o, id, _, teardown, err := newEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer teardown()

			status, err := o.GetStatus(id)
			if err != nil {
				return err
			}
			fmt.Printf("connected=%v status=%s\n", status.Connected, status.LastStatus)
			return nil
		},
	}
}

func newSessionDiagnosticsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "diagnostics",
		Short: "Print a session's diagnostics snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			o, id, _, teardown, err := newEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer teardown()

			diag, err := o.GetDiagnostics(id)
			if err != nil {
				return err
			}
			fmt.Printf("host=%s port=%d connected=%v keepalive_active=%v keepalive_pattern=%s last_activity=%s\n",
				diag.Host, diag.Port, diag.Connection.Connected, diag.KeepAliveActive,
				diag.KeepAlivePatternHex, diag.LastActivityAt.Format("15:04:05.000"))
			return nil
		},
	}
}
