package main

import (
	"encoding/hex"
	"fmt"

	"github.com/carun/eipsession/internal/cip"
	"github.com/carun/eipsession/internal/orchestrator"
	"github.com/spf13/cobra"
)

// newAttributeCmd exposes GetAttributeList/SetAttributeList over the
// Connection Manager's unconnected-send wrapping, grounded on
// Orchestrator.SendCommand/WriteAttribute.
func newAttributeCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "attribute", Short: "Get or set a single CIP attribute"}
	cmd.AddCommand(newAttributeGetCmd())
	cmd.AddCommand(newAttributeSetCmd())
	return cmd
}

func newAttributeGetCmd() *cobra.Command {
	var classID, instanceID, attr uint16

	c := &cobra.Command{
		Use:   "get",
		Short: "GetAttributeList a single attribute",
		RunE: func(cmd *cobra.Command, args []string) error {
			o, id, _, teardown, err := newEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer teardown()

			path := cip.NewPath(classID, instanceID)
			result, err := o.SendCommand(cmd.Context(), id, cip.ServiceGetAttributeList, path, cip.GetAttributeListRequest(attr), orchestrator.TransportRRCM)
			if err != nil {
				return err
			}
			value, err := cip.DecodeGetAttributeListResponse(result.Payload, attr)
			if err != nil {
				return err
			}
			fmt.Printf("status=%s value=%s\n", result.Status, hex.EncodeToString(value))
			return nil
		},
	}
	c.Flags().Uint16Var(&classID, "class", 0, "CIP class id")
	c.Flags().Uint16Var(&instanceID, "instance", 0, "CIP instance id")
	c.Flags().Uint16Var(&attr, "attr", 0, "attribute id")
	c.MarkFlagRequired("class")
	c.MarkFlagRequired("instance")
	c.MarkFlagRequired("attr")
	return c
}

func newAttributeSetCmd() *cobra.Command {
	var classID, instanceID, attr uint16
	var valueHex string

	c := &cobra.Command{
		Use:   "set",
		Short: "SetAttributeList a single attribute",
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := hex.DecodeString(valueHex)
			if err != nil {
				return fmt.Errorf("--value must be hex-encoded: %w", err)
			}

			o, id, _, teardown, err := newEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer teardown()

			path := cip.NewPath(classID, instanceID)
			status, err := o.WriteAttribute(cmd.Context(), id, path, attr, value)
			if err != nil {
				return err
			}
			fmt.Printf("status=%s\n", status)
			return nil
		},
	}
	c.Flags().Uint16Var(&classID, "class", 0, "CIP class id")
	c.Flags().Uint16Var(&instanceID, "instance", 0, "CIP instance id")
	c.Flags().Uint16Var(&attr, "attr", 0, "attribute id")
	c.Flags().StringVar(&valueHex, "value", "", "hex-encoded attribute value")
	c.MarkFlagRequired("class")
	c.MarkFlagRequired("instance")
	c.MarkFlagRequired("attr")
	c.MarkFlagRequired("value")
	return c
}
