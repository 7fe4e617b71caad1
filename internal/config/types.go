// Package config defines the device configuration data model this runtime
// consumes: device identity and assembly definitions. Parsing the PLC's own
// XML configuration documents is out of scope for this repository (an
// external collaborator's responsibility); this package only defines the
// shape that collaborator's output takes, plus an optional YAML convenience
// loader for local/dev use.
package config

import (
	"strings"

	"github.com/carun/eipsession/internal/cip"
)

// DeviceIdentity is metadata describing the identity of the target PLC
// device, grounded on services/config_loader.py::DeviceIdentity.
type DeviceIdentity struct {
	Name         string
	Vendor       string
	ProductCode  string
	Revision     string
	SerialNumber string
}

// AssemblyMember describes a named field within an assembly's payload.
type AssemblyMember struct {
	Name        string
	DataType    string
	Direction   string
	Offset      *int
	Size        *int
	Description string
}

// Direction values an AssemblyDefinition can declare.
const (
	DirectionInput         = "input"
	DirectionOutput        = "output"
	DirectionConfiguration = "configuration"
	DirectionBidirectional = "bidirectional"
)

// AssemblyDefinition describes one assembly declared in the device
// configuration: its CIP address, direction, expected payload size, and
// member layout.
type AssemblyDefinition struct {
	Alias      string
	ClassID    uint16
	InstanceID uint16
	Direction  string
	Size       *int
	Members    []AssemblyMember
}

// ToCIPPath returns the class/instance logical path addressing this
// assembly, grounded on AssemblyDefinition.to_cip_path.
func (a AssemblyDefinition) ToCIPPath() cip.Path {
	return cip.NewPath(a.ClassID, a.InstanceID)
}

// IsInput reports whether this assembly can be polled for input.
func (a AssemblyDefinition) IsInput() bool {
	return a.Direction == DirectionInput || a.Direction == DirectionBidirectional
}

// IsOutput reports whether this assembly accepts queued output writes.
func (a AssemblyDefinition) IsOutput() bool {
	return a.Direction == DirectionOutput || a.Direction == DirectionBidirectional
}

// DeviceConfiguration is the parsed configuration metadata handed to
// ioruntime.Load and the orchestrator's ApplyConfiguration.
type DeviceConfiguration struct {
	Identity   DeviceIdentity
	Assemblies []AssemblyDefinition
}

// AliasMapping returns the class/instance pair registered under every
// assembly's alias (lower-cased), grounded on DeviceConfiguration.alias_mapping.
func (d DeviceConfiguration) AliasMapping() map[string][2]uint16 {
	out := make(map[string][2]uint16, len(d.Assemblies))
	for _, a := range d.Assemblies {
		out[normaliseAlias(a.Alias)] = [2]uint16{a.ClassID, a.InstanceID}
	}
	return out
}

func normaliseAlias(alias string) string {
	return strings.ToLower(strings.TrimSpace(alias))
}
