// Command eipctl is a scriptable client for driving the EtherNet/IP + CIP
// runtime against a single PLC: open a session, read or write a tag,
// assembly, or attribute, and tear it down, one invocation at a time.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "eipctl",
		Short:         "EtherNet/IP + CIP client runtime",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&flagHost, "host", "", "PLC host (default: $PLC_HOST)")
	rootCmd.PersistentFlags().IntVar(&flagPort, "port", 0, "PLC port (default: $PLC_PORT, 44818)")
	rootCmd.PersistentFlags().IntVar(&flagPoolSize, "pool-size", 0, "connection pool size (default: $PLC_POOL_SIZE, 4)")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "YAML device configuration (assembly aliases)")

	rootCmd.AddCommand(newSessionCmd())
	rootCmd.AddCommand(newTagCmd())
	rootCmd.AddCommand(newAttributeCmd())
	rootCmd.AddCommand(newAssemblyCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
