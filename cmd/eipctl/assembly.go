package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

// newAssemblyCmd exposes alias-addressed assembly I/O through the loaded
// --config device configuration, grounded on Orchestrator.ReadAssembly/
// WriteAssembly/GetAssemblyState and the per-session poll/dispatch workers.
func newAssemblyCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "assembly", Short: "Read or write a configured assembly alias"}
	cmd.AddCommand(newAssemblyReadCmd())
	cmd.AddCommand(newAssemblyWriteCmd())
	cmd.AddCommand(newAssemblyWatchCmd())
	return cmd
}

func newAssemblyReadCmd() *cobra.Command {
	var alias string
	c := &cobra.Command{
		Use:   "read",
		Short: "Read alias's current payload once",
		RunE: func(cmd *cobra.Command, args []string) error {
			if flagConfig == "" {
				return fmt.Errorf("--config is required to resolve an assembly alias")
			}
			o, id, cfg, teardown, err := newEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer teardown()

			classID, instanceID, size, err := resolveAlias(cfg, alias)
			if err != nil {
				return err
			}
			snapshot, err := o.ReadAssembly(cmd.Context(), id, classID, instanceID, size)
			if err != nil {
				return err
			}
			fmt.Printf("status=%s data=%s\n", snapshot.LastStatus, hex.EncodeToString(snapshot.Data))
			return nil
		},
	}
	c.Flags().StringVar(&alias, "alias", "", "assembly alias from --config")
	c.MarkFlagRequired("alias")
	return c
}

func newAssemblyWriteCmd() *cobra.Command {
	var alias, valueHex string
	c := &cobra.Command{
		Use:   "write",
		Short: "Queue a payload for alias and wait for the dispatch worker to send it",
		RunE: func(cmd *cobra.Command, args []string) error {
			if flagConfig == "" {
				return fmt.Errorf("--config is required to resolve an assembly alias")
			}
			payload, err := hex.DecodeString(valueHex)
			if err != nil {
				return fmt.Errorf("--value must be hex-encoded: %w", err)
			}

			o, id, _, teardown, err := newEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer teardown()

			status, err := o.WriteAssembly(cmd.Context(), id, alias, payload)
			if err != nil {
				return err
			}
			fmt.Printf("status=%s\n", status)
			return nil
		},
	}
	c.Flags().StringVar(&alias, "alias", "", "assembly alias from --config")
	c.Flags().StringVar(&valueHex, "value", "", "hex-encoded output payload")
	c.MarkFlagRequired("alias")
	c.MarkFlagRequired("value")
	return c
}

func newAssemblyWatchCmd() *cobra.Command {
	var alias string
	var interval time.Duration
	c := &cobra.Command{
		Use:   "watch",
		Short: "Print alias's poll-refreshed snapshot until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			if flagConfig == "" {
				return fmt.Errorf("--config is required to resolve an assembly alias")
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			o, id, _, teardown, err := newEngine(ctx)
			if err != nil {
				return err
			}
			defer teardown()

			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return nil
				case <-ticker.C:
					view, err := o.GetAssemblyState(id, alias)
					if err != nil {
						fmt.Fprintf(os.Stderr, "error: %v\n", err)
						continue
					}
					fmt.Printf("[%s] status=%s data=%s\n", view.UpdatedAt.Format("15:04:05.000"), view.Status, hex.EncodeToString(view.Payload))
					for _, m := range view.Members {
						if m.IntValue != nil {
							fmt.Printf("  %s=%d (0x%s)\n", m.Name, *m.IntValue, m.RawHex)
						} else {
							fmt.Printf("  %s=0x%s\n", m.Name, m.RawHex)
						}
					}
				}
			}
		},
	}
	c.Flags().StringVar(&alias, "alias", "", "assembly alias from --config")
	c.Flags().DurationVar(&interval, "interval", time.Second, "print interval")
	c.MarkFlagRequired("alias")
	return c
}
