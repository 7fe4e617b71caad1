// Package orchestrator implements the session orchestrator (C6): a
// multi-session registry that owns one PLC session per caller, drives its
// per-assembly poll/dispatch workers, and exposes the runtime's external
// operations, grounded on webapi/orchestrator.py::SessionOrchestrator.
package orchestrator

import (
	"context"
	"time"

	"github.com/carun/eipsession/internal/cip"
	"github.com/carun/eipsession/internal/config"
	"github.com/carun/eipsession/internal/ioruntime"
)

// SessionID identifies one active session, a hex UUID per
// webapi/orchestrator.py::SessionHandle.session_id.
type SessionID string

// TransportKind selects which CIP transport SendCommand uses to deliver a
// request, mirroring webapi/orchestrator.py::SessionOrchestrator._resolve_sender's
// mapping of a transport name to a client method.
type TransportKind string

const (
	TransportRR   TransportKind = "rr"
	TransportRRCM TransportKind = "rr_cm"
	TransportRRMR TransportKind = "rr_mr"
	TransportUnit TransportKind = "unit"
)

// ConnectionStatus mirrors services/plc_manager.py::ConnectionStatus: whether
// a session's connected transport is currently open, and the CIP status of
// the most recent exchange on it.
type ConnectionStatus struct {
	Connected  bool
	LastStatus cip.Status
}

// Diagnostics is the tuple GetDiagnostics returns, per spec §4.6.
type Diagnostics struct {
	SessionID           SessionID
	Connection          ConnectionStatus
	Host                string
	Port                int
	KeepAlivePatternHex string
	KeepAliveActive     bool
	LastActivityAt      time.Time
}

// AssemblySnapshot is one read_assembly result, grounded on
// services/plc_manager.py::AssemblySnapshot.
type AssemblySnapshot struct {
	ClassID    uint16
	InstanceID uint16
	Data       []byte
	Timestamp  time.Time
	LastStatus cip.Status
}

// CommandResult is the outcome of a low-level SendCommand call, grounded on
// webapi/orchestrator.py::CommandResult.
type CommandResult struct {
	Status  cip.Status
	Payload []byte
}

// Interface is the orchestrator's external surface, the binding point for an
// HTTP (or any other) adapter, per spec §6's `[ADD]` Go interface.
type Interface interface {
	StartSession(ctx context.Context, host string, port int) (SessionID, error)
	StopSession(ctx context.Context, id SessionID) error
	GetStatus(id SessionID) (ConnectionStatus, error)
	GetDiagnostics(id SessionID) (Diagnostics, error)
	ReadAssembly(ctx context.Context, id SessionID, classID, instanceID uint16, size int) (AssemblySnapshot, error)
	WriteAttribute(ctx context.Context, id SessionID, path cip.Path, attr uint16, value []byte) (cip.Status, error)
	WriteAssembly(ctx context.Context, id SessionID, alias string, payload []byte) (cip.Status, error)
	GetAssemblyState(id SessionID, alias string) (ioruntime.AssemblyRuntimeView, error)
	SendCommand(ctx context.Context, id SessionID, service byte, path cip.Path, payload []byte, transport TransportKind) (CommandResult, error)
	ApplyConfiguration(cfg config.DeviceConfiguration) error
}

var _ Interface = (*Orchestrator)(nil)
