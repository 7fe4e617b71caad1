// Package session implements the session manager (C3): ForwardOpen/Close
// lifecycle, segmented tag reads, attribute get/set, and instance listing on
// top of a plcclient.Client.
package session

import (
	"sync"

	"github.com/carun/eipsession/internal/cip"
	"github.com/carun/eipsession/internal/logging"
	"github.com/carun/eipsession/internal/plcclient"
	"github.com/carun/eipsession/internal/plcerr"
)

var log = logging.New("session")

// connectionSerial/vendorID/originatorSerial are fixed values this runtime
// presents on every ForwardOpen, matching the reference implementation's
// single hard-coded Connection Manager identity.
const (
	connectionSerial   uint16 = 0x1234
	vendorID           uint16 = 0x01
	originatorSerial   uint32 = 0x00000001
	defaultOTNetParams        = cip.DefaultConnectionParams
	defaultTONetParams        = cip.DefaultConnectionParams
)

// Session wraps a registered plcclient.Client with the io_lock that
// serializes every request/response pair sent over it, per §5.
type Session struct {
	Client       *plcclient.Client
	ioLock       sync.Mutex
	lastStatus   cip.Status
	connectionID uint32
}

// New registers client's session and returns the wrapping Session.
func New(client *plcclient.Client) (*Session, error) {
	if err := client.RegisterSession(); err != nil {
		return nil, err
	}
	return &Session{Client: client}, nil
}

// LastStatus returns the CIP status of the most recently completed request.
func (s *Session) LastStatus() cip.Status { return s.lastStatus }

// Lock and Unlock expose the session's io_lock to callers that need to drive
// the underlying Client directly across a send/recv pair (the orchestrator's
// generic command dispatch), per the single-lock-per-exchange rule in §5.
func (s *Session) Lock()   { s.ioLock.Lock() }
func (s *Session) Unlock() { s.ioLock.Unlock() }

// Start performs a ForwardOpen, establishing connected transport.
func (s *Session) Start() (cip.Status, error) {
	s.ioLock.Lock()
	defer s.ioLock.Unlock()

	fo := cip.NewForwardOpenRequest(connectionSerial, vendorID, originatorSerial, defaultOTNetParams, defaultTONetParams)
	req := cip.Request{Service: cip.ServiceForwardOpen, Path: cip.ConnectionManagerPath, Data: fo.Encode()}

	if err := s.Client.SendRRCIP(req.Encode()); err != nil {
		return cip.Status{}, err
	}
	resp, status, err := s.recvResponse("Forward Open")
	if err != nil {
		return status, err
	}
	if !status.OK() {
		log.Error().Str("status", status.String()).Msg("failed to Forward Open CIP connection")
		return status, plcerr.NewResponseErrorWithStatus("failed to Forward Open CIP connection", status)
	}

	foResp, err := cip.DecodeForwardOpenResponse(resp.Data)
	if err != nil {
		return status, plcerr.WrapCommunicationError("malformed Forward Open response", err)
	}
	s.connectionID = foResp.OTConnectionID
	s.Client.SetConnectionID(foResp.OTConnectionID)
	s.lastStatus = status
	log.Debug().Uint32("connection_id", foResp.OTConnectionID).Msg("Forward Open established")
	return status, nil
}

// Stop performs a ForwardClose, tearing down connected transport.
func (s *Session) Stop() (cip.Status, error) {
	s.ioLock.Lock()
	defer s.ioLock.Unlock()

	fc := cip.NewForwardCloseRequest(connectionSerial, vendorID, originatorSerial)
	req := cip.Request{Service: cip.ServiceForwardClose, Path: cip.ConnectionManagerPath, Data: fc.Encode()}

	if err := s.Client.SendRRCIP(req.Encode()); err != nil {
		return cip.Status{}, err
	}
	_, status, err := s.recvResponse("Forward Close")
	if err != nil {
		return status, err
	}
	if !status.OK() {
		log.Error().Str("status", status.String()).Msg("failed to Forward Close CIP connection")
		return status, plcerr.NewResponseErrorWithStatus("failed to Forward Close CIP connection", status)
	}
	s.lastStatus = status
	log.Debug().Uint32("connection_id", s.connectionID).Msg("Forward Close complete")
	return status, nil
}

// GetAttribute issues a GetAttributeList request for a single attribute and
// returns its raw value bytes.
func (s *Session) GetAttribute(classID, instanceID, attr uint16) ([]byte, error) {
	s.ioLock.Lock()
	defer s.ioLock.Unlock()

	if s.Client.IsOffline() {
		value, ok := s.Client.GetAttributeOffline(classID, instanceID, attr)
		if !ok {
			return nil, plcerr.NewResponseError("offline attribute lookup failed")
		}
		return value, nil
	}

	path := cip.NewPath(classID, instanceID)
	req := cip.Request{Service: cip.ServiceGetAttributeList, Path: path, Data: cip.GetAttributeListRequest(attr)}
	if err := s.Client.SendRRCMCIP(req); err != nil {
		return nil, err
	}
	resp, status, err := s.recvResponse("Get Attribute List")
	if err != nil {
		return nil, err
	}
	if !status.OK() {
		log.Error().Str("status", status.String()).Msg("CIP get attribute error")
		return nil, plcerr.NewResponseErrorWithStatus("CIP get attribute error", status)
	}
	return cip.DecodeGetAttributeListResponse(resp.Data, attr)
}

// SetAttribute issues a SetAttributeList request for a single attribute and
// returns the resulting CIP status.
func (s *Session) SetAttribute(classID, instanceID, attr uint16, value []byte) (cip.Status, error) {
	s.ioLock.Lock()
	defer s.ioLock.Unlock()

	if s.Client.IsOffline() {
		s.Client.SetAttributeOffline(classID, instanceID, attr, value)
		return cip.StatusOK(), nil
	}

	path := cip.NewPath(classID, instanceID)
	req := cip.Request{Service: cip.ServiceSetAttributeList, Path: path, Data: cip.SetAttributeListRequest(attr, value)}
	if err := s.Client.SendRRCMCIP(req); err != nil {
		return cip.Status{}, err
	}
	_, status, err := s.recvResponse("Set Attribute List")
	if err != nil {
		return status, err
	}
	if !status.OK() {
		log.Error().Str("status", status.String()).Msg("CIP set attribute error")
		return status, plcerr.NewResponseErrorWithStatus("CIP set attribute error", status)
	}
	return status, nil
}

// GetListOfInstances lists every instance of classID, resuming from the last
// instance seen plus one whenever the PLC reports a partial (status 6)
// response, per plc.py::get_list_of_instances.
func (s *Session) GetListOfInstances(classID uint16) ([]uint32, error) {
	s.ioLock.Lock()
	defer s.ioLock.Unlock()

	var instances []uint32
	startInstance := uint16(0)

	for {
		path := cip.NewPath(classID, startInstance)
		req := cip.Request{Service: cip.ServiceGetInstanceList, Path: path}
		if err := s.Client.SendRRCMCIP(req); err != nil {
			return nil, err
		}
		resp, status, err := s.recvResponse("Get Instance List")
		if err != nil {
			return nil, err
		}

		chunk, err := cip.DecodeInstanceList(resp.Data)
		if err != nil {
			return nil, plcerr.WrapCommunicationError("malformed instance list response", err)
		}
		instances = append(instances, chunk...)

		if status.OK() {
			return instances, nil
		}
		if status.CodeValue() == cip.StatusPartialTransfer {
			if len(instances) == 0 {
				return nil, plcerr.NewResponseErrorWithStatus("partial instance list response with no instances", status)
			}
			next := instances[len(instances)-1] + 1
			if next > 0xFFFF {
				return nil, plcerr.NewResponseError("instance id overflowed 16-bit path segment while paging instance list")
			}
			startInstance = uint16(next)
			continue
		}
		return nil, plcerr.NewResponseErrorWithStatus("error in Get Instance List response", status)
	}
}

// ReadFullTag reads totalSize bytes of a tag, issuing as many ReadOtherTag
// requests as needed to cover size-limited (status 6) partial responses, per
// plc.py::read_full_tag.
func (s *Session) ReadFullTag(classID, instanceID uint16, totalSize uint16) ([]byte, error) {
	s.ioLock.Lock()
	defer s.ioLock.Unlock()

	var chunks [][]byte
	offset := uint32(0)
	remaining := totalSize

	for remaining > 0 {
		path := cip.NewPath(classID, instanceID)
		req := cip.Request{Service: cip.ServiceReadOtherTag, Path: path, Data: cip.ReadOtherTagRequest(offset, remaining)}
		if err := s.Client.SendRRCMCIP(req); err != nil {
			return nil, err
		}
		resp, status, err := s.recvResponse("Read Tag")
		if err != nil {
			return nil, err
		}

		switch {
		case status.OK():
			if uint16(len(resp.Data)) != remaining {
				return nil, plcerr.NewResponseError("Read Tag response size does not match remaining size")
			}
		case status.CodeValue() == cip.StatusPartialTransfer && len(resp.Data) > 0:
			// partial response, size too big for one reply; continue.
		default:
			return nil, plcerr.NewResponseErrorWithStatus("error in Read Tag response", status)
		}

		chunks = append(chunks, resp.Data)
		offset += uint32(len(resp.Data))
		remaining -= uint16(len(resp.Data))
	}

	total := 0
	for _, c := range chunks {
		total += len(c)
	}
	out := make([]byte, 0, total)
	for _, c := range chunks {
		out = append(out, c...)
	}
	return out, nil
}

// WriteOutput issues a WriteOtherTag request over connected (unit data)
// transport, the form output assembly writes take once a connection is
// open, per services/io_runtime.py::IORuntime.send_output (client.send_unit_cip).
func (s *Session) WriteOutput(classID, instanceID uint16, payload []byte) (cip.Status, error) {
	s.ioLock.Lock()
	defer s.ioLock.Unlock()

	if s.Client.IsOffline() {
		s.Client.SetAttributeOffline(classID, instanceID, 0, payload)
		return cip.StatusOK(), nil
	}

	path := cip.NewPath(classID, instanceID)
	req := cip.Request{Service: cip.ServiceWriteOtherTag, Path: path, Data: payload}
	if err := s.Client.SendUnitCIP(req.Encode()); err != nil {
		return cip.Status{}, err
	}

	frame, err := s.Client.RecvENIPPacket()
	if err != nil {
		return cip.Status{}, err
	}
	body, err := extractConnectedCIPBody(frame.Payload)
	if err != nil {
		return cip.Status{}, plcerr.WrapCommunicationError("malformed Write Tag reply envelope", err)
	}
	resp, err := cip.DecodeResponse(body)
	if err != nil {
		return cip.Status{}, plcerr.WrapCommunicationError("malformed Write Tag CIP response", err)
	}
	s.lastStatus = resp.Status
	if !resp.Status.OK() {
		return resp.Status, plcerr.NewResponseErrorWithStatus("error in Write Tag response", resp.Status)
	}
	return resp.Status, nil
}

// recvResponse reads one ENIP reply, strips the CPF envelope and decodes the
// embedded CIP response.
func (s *Session) recvResponse(context string) (cip.Response, cip.Status, error) {
	frame, err := s.Client.RecvENIPPacket()
	if err != nil {
		return cip.Response{}, cip.Status{}, err
	}

	body, err := extractCIPBody(frame.Payload)
	if err != nil {
		return cip.Response{}, cip.Status{}, plcerr.WrapCommunicationError("malformed "+context+" reply envelope", err)
	}

	resp, err := cip.DecodeResponse(body)
	if err != nil {
		return cip.Response{}, cip.Status{}, plcerr.WrapCommunicationError("malformed "+context+" CIP response", err)
	}
	s.lastStatus = resp.Status
	return resp, resp.Status, nil
}
