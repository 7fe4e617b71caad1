package main

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"
)

// newTagCmd exposes a segmented tag read by raw class/instance address,
// bypassing any configured assembly alias — the lowest-level read this
// runtime exposes, grounded on Orchestrator.ReadAssembly.
func newTagCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "tag", Short: "Read a tag by class/instance address"}
	cmd.AddCommand(newTagReadCmd())
	return cmd
}

func newTagReadCmd() *cobra.Command {
	var classID, instanceID uint16
	var size int

	c := &cobra.Command{
		Use:   "read",
		Short: "Segmented-read a tag's full payload",
		RunE: func(cmd *cobra.Command, args []string) error {
			o, id, _, teardown, err := newEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer teardown()

			snapshot, err := o.ReadAssembly(cmd.Context(), id, classID, instanceID, size)
			if err != nil {
				return err
			}
			fmt.Printf("status=%s data=%s\n", snapshot.LastStatus, hex.EncodeToString(snapshot.Data))
			return nil
		},
	}
	c.Flags().Uint16Var(&classID, "class", 0, "CIP class id")
	c.Flags().Uint16Var(&instanceID, "instance", 0, "CIP instance id")
	c.Flags().IntVar(&size, "size", 0, "expected payload size in bytes")
	c.MarkFlagRequired("class")
	c.MarkFlagRequired("instance")
	c.MarkFlagRequired("size")
	return c
}
