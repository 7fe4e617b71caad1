package orchestrator

import (
	"context"
	"encoding/hex"
	"strconv"
	"time"

	"github.com/carun/eipsession/internal/cip"
	"github.com/carun/eipsession/internal/config"
	"github.com/carun/eipsession/internal/enip"
	"github.com/carun/eipsession/internal/ioruntime"
	"github.com/carun/eipsession/internal/plcclient"
	"github.com/carun/eipsession/internal/plcerr"
	"github.com/carun/eipsession/internal/pool"
	"github.com/carun/eipsession/internal/session"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// endpointKey identifies a pool by the host:port it dials.
func endpointKey(host string, port int) string {
	return host + ":" + strconv.Itoa(port)
}

func (o *Orchestrator) poolFor(host string, port int) *pool.Pool {
	key := endpointKey(host, port)
	o.poolMu.Lock()
	defer o.poolMu.Unlock()
	if p, ok := o.pools[key]; ok {
		return p
	}
	p := pool.New(o.opts.PoolSize, func() (*plcclient.Client, error) {
		return plcclient.NewClient(host, port)
	})
	o.pools[key] = p
	return p
}

// StartSession resolves host/port against the configured default, acquires a
// pooled client, opens a CIP connection, and starts that session's poll and
// dispatch workers, grounded on webapi/orchestrator.py::start_session and
// spec.md §4.6 steps 1-4.
func (o *Orchestrator) StartSession(ctx context.Context, host string, port int) (SessionID, error) {
	if host == "" {
		host = o.opts.DefaultHost
	}
	if port == 0 {
		port = o.opts.DefaultPort
	}

	p := o.poolFor(host, port)
	client, err := p.Acquire()
	if err != nil {
		return "", err
	}

	sess, err := session.New(client)
	if err != nil {
		p.Drop(client)
		return "", plcerr.WrapConnectionError("failed to register PLC session", err)
	}

	status, err := sess.Start()
	if err != nil {
		p.Drop(client)
		return "", err
	}

	id := SessionID(uuid.New().String())
	now := time.Now()
	hctx, cancel := context.WithCancel(context.Background())
	group, gctx := errgroup.WithContext(hctx)

	handle := &sessionHandle{
		id:             id,
		sess:           sess,
		host:           host,
		port:           port,
		status:         ConnectionStatus{Connected: true, LastStatus: status},
		createdAt:      now,
		lastActivityAt: now,
		cancel:         cancel,
		group:          group,
	}

	o.mu.Lock()
	o.sessions[id] = handle
	o.mu.Unlock()

	o.startWorkers(gctx, handle)

	o.log.Info().Str("session_id", string(id)).Str("host", host).Int("port", port).Msg("session started")
	return id, nil
}

// StopSession stops handle's workers, ForwardCloses, and releases the client
// back to its pool, grounded on webapi/orchestrator.py::stop_session.
func (o *Orchestrator) StopSession(ctx context.Context, id SessionID) error {
	handle, err := o.requireSession(id)
	if err != nil {
		return err
	}

	handle.cancel()
	_ = handle.group.Wait()
	o.runtime.FailPending(plcerr.NewManagerError("session closed"))

	status, stopErr := handle.sess.Stop()
	o.poolFor(handle.host, handle.port).Release(handle.sess.Client)

	o.mu.Lock()
	delete(o.sessions, id)
	o.mu.Unlock()

	handle.mu.Lock()
	handle.status.LastStatus = status
	handle.status.Connected = false
	handle.mu.Unlock()

	o.log.Info().Str("session_id", string(id)).Msg("session stopped")
	return stopErr
}

// GetStatus returns id's current connection status.
func (o *Orchestrator) GetStatus(id SessionID) (ConnectionStatus, error) {
	handle, err := o.requireSession(id)
	if err != nil {
		return ConnectionStatus{}, err
	}
	handle.mu.Lock()
	defer handle.mu.Unlock()
	return handle.status, nil
}

// GetDiagnostics returns the diagnostics tuple spec.md §4.6 names.
func (o *Orchestrator) GetDiagnostics(id SessionID) (Diagnostics, error) {
	handle, err := o.requireSession(id)
	if err != nil {
		return Diagnostics{}, err
	}
	handle.mu.Lock()
	status := handle.status
	handle.mu.Unlock()
	lastActivity := handle.lastActivity()

	return Diagnostics{
		SessionID:           id,
		Connection:          status,
		Host:                handle.host,
		Port:                handle.port,
		KeepAlivePatternHex: hex.EncodeToString(enip.KeepAlivePattern),
		KeepAliveActive:     time.Since(lastActivity) <= keepAliveIdle,
		LastActivityAt:      lastActivity,
	}, nil
}

// ReadAssembly reads an assembly directly through the session, bypassing the
// I/O runtime's registered-alias bookkeeping, grounded on
// webapi/orchestrator.py::read_assembly.
func (o *Orchestrator) ReadAssembly(ctx context.Context, id SessionID, classID, instanceID uint16, size int) (AssemblySnapshot, error) {
	handle, err := o.requireSession(id)
	if err != nil {
		return AssemblySnapshot{}, err
	}

	data, err := handle.sess.ReadFullTag(classID, instanceID, uint16(size))
	status := handle.sess.LastStatus()

	handle.mu.Lock()
	handle.status.LastStatus = status
	handle.lastActivityAt = time.Now()
	handle.mu.Unlock()

	if err != nil {
		return AssemblySnapshot{}, err
	}
	return AssemblySnapshot{
		ClassID:    classID,
		InstanceID: instanceID,
		Data:       data,
		Timestamp:  time.Now(),
		LastStatus: status,
	}, nil
}

// WriteAttribute sends a SetAttributeList request over connection-manager
// unconnected transport, grounded on webapi/orchestrator.py::write_attribute.
func (o *Orchestrator) WriteAttribute(ctx context.Context, id SessionID, path cip.Path, attr uint16, value []byte) (cip.Status, error) {
	handle, err := o.requireSession(id)
	if err != nil {
		return cip.Status{}, err
	}

	resp, err := o.invoke(handle, cip.ServiceSetAttributeList, path, cip.SetAttributeListRequest(attr, value), TransportRRCM)
	handle.touch()
	if err != nil {
		return cip.Status{}, err
	}
	if !resp.Status.OK() {
		return resp.Status, plcerr.NewResponseErrorWithStatus("failed to write attribute", resp.Status)
	}
	return resp.Status, nil
}

// WriteAssembly queues alias's output payload through the I/O runtime and
// blocks until the dispatch worker completes it or outputTimeout elapses,
// grounded on spec.md §4.6's write_assembly.
func (o *Orchestrator) WriteAssembly(ctx context.Context, id SessionID, alias string, payload []byte) (cip.Status, error) {
	if _, err := o.requireSession(id); err != nil {
		return cip.Status{}, err
	}

	req, err := o.runtime.QueueOutput(alias, payload)
	if err != nil {
		return cip.Status{}, err
	}

	status, completeErr, completed := req.Wait(o.opts.OutputTimeout)
	if !completed {
		return cip.Status{}, plcerr.NewManagerError("timeout waiting for output write")
	}
	return status, completeErr
}

// GetAssemblyState returns the I/O runtime's last known snapshot for alias.
func (o *Orchestrator) GetAssemblyState(id SessionID, alias string) (ioruntime.AssemblyRuntimeView, error) {
	if _, err := o.requireSession(id); err != nil {
		return ioruntime.AssemblyRuntimeView{}, err
	}
	return o.runtime.GetView(alias)
}

// SendCommand dispatches an arbitrary CIP service over the requested
// transport, grounded on webapi/orchestrator.py::send_command /
// _resolve_sender.
func (o *Orchestrator) SendCommand(ctx context.Context, id SessionID, service byte, path cip.Path, payload []byte, transport TransportKind) (CommandResult, error) {
	handle, err := o.requireSession(id)
	if err != nil {
		return CommandResult{}, err
	}

	resp, err := o.invoke(handle, service, path, payload, transport)
	handle.touch()
	if err != nil {
		return CommandResult{}, err
	}
	if !resp.Status.OK() {
		return CommandResult{}, plcerr.NewResponseErrorWithStatus("CIP command failed", resp.Status)
	}
	return CommandResult{Status: resp.Status, Payload: resp.Data}, nil
}

// invoke sends one CIP request over transport and decodes its reply, all
// under the session's io_lock, grounded on
// webapi/orchestrator.py::SessionOrchestrator._resolve_sender mapping a
// transport name onto one of the client's send methods.
func (o *Orchestrator) invoke(handle *sessionHandle, service byte, path cip.Path, payload []byte, transport TransportKind) (cip.Response, error) {
	handle.sess.Lock()
	defer handle.sess.Unlock()

	req := cip.Request{Service: service, Path: path, Data: payload}
	var sendErr error
	switch transport {
	case TransportRR:
		sendErr = handle.sess.Client.SendRRCIP(req.Encode())
	case TransportRRCM:
		sendErr = handle.sess.Client.SendRRCMCIP(req)
	case TransportRRMR:
		sendErr = handle.sess.Client.SendRRMRCIP(req)
	case TransportUnit:
		sendErr = handle.sess.Client.SendUnitCIP(req.Encode())
	default:
		return cip.Response{}, plcerr.NewManagerError("unsupported transport " + string(transport))
	}
	if sendErr != nil {
		return cip.Response{}, sendErr
	}

	frame, err := handle.sess.Client.RecvENIPPacket()
	if err != nil {
		return cip.Response{}, err
	}
	return session.DecodeCIPReply(frame)
}

// ApplyConfiguration loads cfg into the I/O runtime and restarts every active
// session's worker set against the new assembly list, grounded on
// webapi's `PLCManager`-level reconfiguration and spec.md §4.6's
// apply_configuration.
func (o *Orchestrator) ApplyConfiguration(cfg config.DeviceConfiguration) error {
	o.runtime.Load(cfg)

	o.mu.Lock()
	handles := make([]*sessionHandle, 0, len(o.sessions))
	for _, h := range o.sessions {
		handles = append(handles, h)
	}
	o.mu.Unlock()

	for _, handle := range handles {
		handle.cancel()
		_ = handle.group.Wait()

		hctx, cancel := context.WithCancel(context.Background())
		group, gctx := errgroup.WithContext(hctx)
		handle.cancel = cancel
		handle.group = group
		o.startWorkers(gctx, handle)
	}
	return nil
}

func (o *Orchestrator) requireSession(id SessionID) (*sessionHandle, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	handle, ok := o.sessions[id]
	if !ok {
		return nil, plcerr.NewManagerError("unknown session '" + string(id) + "'")
	}
	return handle, nil
}
