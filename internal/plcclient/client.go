package plcclient

import (
	"io"
	"time"

	"github.com/carun/eipsession/internal/cip"
	"github.com/carun/eipsession/internal/enip"
	"github.com/carun/eipsession/internal/plcerr"
)

// ClientOption configures a Client at construction time.
type ClientOption func(*clientOptions)

type clientOptions struct {
	connectTimeout time.Duration
	readTimeout    time.Duration
	writeTimeout   time.Duration
	offline        bool
}

const defaultTimeout = 10 * time.Second

// WithConnectTimeout overrides the TCP dial timeout.
func WithConnectTimeout(d time.Duration) ClientOption {
	return func(o *clientOptions) { o.connectTimeout = d }
}

// WithReadTimeout overrides the per-read deadline.
func WithReadTimeout(d time.Duration) ClientOption {
	return func(o *clientOptions) { o.readTimeout = d }
}

// WithWriteTimeout overrides the per-write deadline.
func WithWriteTimeout(d time.Duration) ClientOption {
	return func(o *clientOptions) { o.writeTimeout = d }
}

// WithOffline constructs a Client backed by the offline fixture registry
// instead of a real TCP connection.
func WithOffline() ClientOption {
	return func(o *clientOptions) { o.offline = true }
}

// Client holds the state of a single EtherNet/IP session with a PLC: the
// transport, session handle, connected-transport state, and CIP sequence
// counter. It does not lock itself; callers (the session/orchestrator layer)
// are responsible for serializing request/response pairs per §5.
type Client struct {
	transport     Transport
	offline       *offlineTransport
	readTimeout   time.Duration
	writeTimeout  time.Duration
	sessionHandle uint32
	connectionID  uint32
	sequence      uint16
}

// NewClient dials address:port (or constructs an offline client) and returns
// an unregistered Client. Call RegisterSession before issuing CIP requests.
func NewClient(address string, port int, opts ...ClientOption) (*Client, error) {
	o := clientOptions{
		connectTimeout: defaultTimeout,
		readTimeout:    defaultTimeout,
		writeTimeout:   defaultTimeout,
	}
	for _, opt := range opts {
		opt(&o)
	}

	c := &Client{
		readTimeout:  o.readTimeout,
		writeTimeout: o.writeTimeout,
		sequence:     1,
	}

	if o.offline {
		c.offline = newOfflineTransport()
		c.transport = c.offline
		c.sessionHandle = 1
		c.connectionID = 1
		return c, nil
	}

	transport, err := dialTCP(address, port, o.connectTimeout)
	if err != nil {
		return nil, plcerr.WrapConnectionError("failed to open PLC socket", err)
	}
	c.transport = transport
	return c, nil
}

// IsOffline reports whether this client is backed by the fixture registry
// rather than a real socket.
func (c *Client) IsOffline() bool { return c.offline != nil }

// SessionHandle returns the session handle assigned by RegisterSession.
func (c *Client) SessionHandle() uint32 { return c.sessionHandle }

// ConnectionID returns the O->T connection id negotiated by ForwardOpen, or 0
// if no connected transport has been established.
func (c *Client) ConnectionID() uint32 { return c.connectionID }

// SetConnectionID records the connection id negotiated by ForwardOpen.
func (c *Client) SetConnectionID(id uint32) { c.connectionID = id }

// Close closes the underlying transport.
func (c *Client) Close() error {
	if c.transport == nil {
		return nil
	}
	return c.transport.Close()
}

// RegisterSession opens an EtherNet/IP session. It is a no-op beyond setting
// a synthetic handle when the client is offline.
func (c *Client) RegisterSession() error {
	if c.sessionHandle != 0 {
		return nil
	}
	if c.IsOffline() {
		c.sessionHandle = 1
		return nil
	}

	frame := enip.Frame{
		Header:  enip.Header{Command: enip.CommandRegisterSession},
		Payload: enip.RegisterSessionPayload(),
	}
	if err := c.writeFrame(frame); err != nil {
		return plcerr.WrapConnectionError("failed to send register session request", err)
	}

	reply, err := c.RecvENIPPacket()
	if err != nil {
		return err
	}
	handle, err := enip.DecodeRegisterSessionReply(reply)
	if err != nil {
		return plcerr.WrapCommunicationError("malformed RegisterSession reply", err)
	}
	c.sessionHandle = handle
	return nil
}

// RecvENIPPacket reads one complete ENIP frame from the transport: the fixed
// 24-byte header first, then exactly Length payload bytes, each in a loop
// that tolerates short reads and fails on premature close.
func (c *Client) RecvENIPPacket() (enip.Frame, error) {
	if c.IsOffline() {
		return enip.Frame{}, nil
	}

	if c.readTimeout > 0 {
		if err := c.transport.SetReadDeadline(time.Now().Add(c.readTimeout)); err != nil {
			return enip.Frame{}, plcerr.WrapConnectionError("failed to set read deadline", err)
		}
	}

	header := make([]byte, enip.HeaderSize)
	if err := c.readFull(header, "waiting for ENIP header"); err != nil {
		return enip.Frame{}, err
	}
	h := enip.DecodeHeader(header)

	payload := make([]byte, h.Length)
	if h.Length > 0 {
		if err := c.readFull(payload, "waiting for ENIP payload"); err != nil {
			return enip.Frame{}, err
		}
	}
	return enip.Frame{Header: h, Payload: payload}, nil
}

// readFull reads exactly len(buf) bytes, translating premature close and
// timeouts into ConnectionError per the spec's framing rules.
func (c *Client) readFull(buf []byte, context string) error {
	_, err := io.ReadFull(c.transport, buf)
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return plcerr.NewConnectionError("socket closed while " + context)
	}
	if err != nil {
		return plcerr.WrapConnectionError("timed out while "+context, err)
	}
	return nil
}

func (c *Client) writeFrame(f enip.Frame) error {
	if c.IsOffline() {
		return nil
	}
	if c.writeTimeout > 0 {
		if err := c.transport.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
			return err
		}
	}
	_, err := c.transport.Write(f.Encode())
	return err
}

// SendRRCIP sends a CIP message as an unconnected SendRRData request: a
// null-address item followed by an unconnected-data item carrying cipBytes.
func (c *Client) SendRRCIP(cipBytes []byte) error {
	payload := enip.SendRRDataPayload(0, 0, []enip.Item{
		enip.NullAddressItem(),
		enip.UnconnectedDataItem(cipBytes),
	})
	frame := enip.Frame{
		Header:  enip.Header{Command: enip.CommandSendRRData, SessionHandle: c.sessionHandle},
		Payload: payload,
	}
	if err := c.writeFrame(frame); err != nil {
		return plcerr.WrapConnectionError("failed to send CIP request", err)
	}
	return nil
}

// SendRRCMCIP wraps embedded in a Connection Manager unconnected-send
// envelope and sends it via SendRRCIP.
func (c *Client) SendRRCMCIP(embedded cip.Request) error {
	wrapped := cip.ConnectionManagerWrap(embedded)
	return c.SendRRCIP(wrapped.Encode())
}

// SendRRMRCIP wraps embedded in a MultipleServicePacket addressed to the
// Message Router and sends it via SendRRCIP.
func (c *Client) SendRRMRCIP(embedded cip.Request) error {
	wrapped := cip.MessageRouterWrap(embedded)
	return c.SendRRCIP(wrapped.Encode())
}

// SendUnitCIP sends cipBytes over the connected transport established by
// ForwardOpen: a connected-address item carrying the connection id, and a
// connected-packet item carrying the rolling sequence number and cipBytes.
func (c *Client) SendUnitCIP(cipBytes []byte) error {
	payload := enip.SendRRDataPayload(0, 0, []enip.Item{
		enip.ConnectedAddressItem(c.connectionID),
		enip.ConnectedPacketItem(c.sequence, cipBytes),
	})
	c.sequence++
	frame := enip.Frame{
		Header:  enip.Header{Command: enip.CommandSendUnitData, SessionHandle: c.sessionHandle},
		Payload: payload,
	}
	if err := c.writeFrame(frame); err != nil {
		return plcerr.WrapConnectionError("failed to send connected CIP request", err)
	}
	return nil
}

// GetAttributeOffline serves GetAttributeList from the fixture registry.
// Returns (nil, false) when the offline transport has no matching entry.
func (c *Client) GetAttributeOffline(classID, instanceID, attr uint16) ([]byte, bool) {
	if !c.IsOffline() {
		return nil, false
	}
	return c.offline.getAttribute(classID, instanceID, attr)
}

// SetAttributeOffline records a SetAttributeList call against the fixture
// registry. It is a no-op when the client is not offline.
func (c *Client) SetAttributeOffline(classID, instanceID, attr uint16, value []byte) {
	if !c.IsOffline() {
		return
	}
	c.offline.setAttribute(classID, instanceID, attr, value)
}
