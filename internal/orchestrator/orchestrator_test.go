package orchestrator

import (
	"context"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/carun/eipsession/internal/cip"
	"github.com/carun/eipsession/internal/enip"
	"github.com/carun/eipsession/internal/ioruntime"
	"github.com/stretchr/testify/require"
)

// scriptedServer accepts one connection, replies to RegisterSession
// automatically, then pops one reply frame off replies for every subsequent
// request it reads, in order. Mirrors internal/session's test helper of the
// same name, duplicated here since it is unexported there.
func scriptedServer(t *testing.T, replies [][]byte) (string, int, func()) {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	go func() {
		conn, err := listener.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		readFrame := func() (enip.Frame, bool) {
			header := make([]byte, enip.HeaderSize)
			if _, err := readFull(conn, header); err != nil {
				return enip.Frame{}, false
			}
			h := enip.DecodeHeader(header)
			payload := make([]byte, h.Length)
			if h.Length > 0 {
				if _, err := readFull(conn, payload); err != nil {
					return enip.Frame{}, false
				}
			}
			return enip.Frame{Header: h, Payload: payload}, true
		}

		if _, ok := readFrame(); !ok {
			return
		}
		reply := enip.Frame{
			Header:  enip.Header{Command: enip.CommandRegisterSession, SessionHandle: 7},
			Payload: enip.RegisterSessionPayload(),
		}
		conn.Write(reply.Encode())

		for _, r := range replies {
			if _, ok := readFrame(); !ok {
				return
			}
			conn.Write(r)
		}
	}()

	host, portStr, err := net.SplitHostPort(listener.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	return host, port, func() { listener.Close() }
}

func readFull(conn net.Conn, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := conn.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func sendRRDataReply(sessionHandle uint32, cipBody []byte) []byte {
	payload := enip.SendRRDataPayload(0, 0, []enip.Item{
		enip.NullAddressItem(),
		enip.UnconnectedDataItem(cipBody),
	})
	f := enip.Frame{
		Header:  enip.Header{Command: enip.CommandSendRRData, SessionHandle: sessionHandle},
		Payload: payload,
	}
	return f.Encode()
}

func forwardOpenSuccessBody() []byte {
	out := make([]byte, 24)
	out[0] = 0xDD
	out[1] = 0xCC
	out[2] = 0xBB
	out[3] = 0xAA
	return append([]byte{0x54 | 0x80, 0x00, 0x00, 0x00}, out...)
}

func forwardCloseSuccessBody() []byte {
	return []byte{0x4E | 0x80, 0x00, 0x00, 0x00}
}

func getAttributeSuccessBody(attr uint16, value []byte) []byte {
	body := []byte{0x03 | 0x80, 0x00, 0x00, 0x00, 0x01, 0x00, byte(attr), byte(attr >> 8), 0x00, 0x00}
	return append(body, value...)
}

func testOptions() Options {
	return Options{PollInterval: 20 * time.Millisecond, OutputTimeout: time.Second, DispatchPoll: 20 * time.Millisecond}
}

func TestStartStopSessionLifecycle(t *testing.T) {
	host, port, cleanup := scriptedServer(t, [][]byte{
		sendRRDataReply(7, forwardOpenSuccessBody()),
		sendRRDataReply(7, forwardCloseSuccessBody()),
	})
	defer cleanup()

	o := New(ioruntime.New(), testOptions())
	id, err := o.StartSession(context.Background(), host, port)
	require.NoError(t, err)

	status, err := o.GetStatus(id)
	require.NoError(t, err)
	require.True(t, status.Connected)
	require.True(t, status.LastStatus.OK())

	diag, err := o.GetDiagnostics(id)
	require.NoError(t, err)
	require.True(t, diag.KeepAliveActive)
	require.Equal(t, host, diag.Host)

	require.NoError(t, o.StopSession(context.Background(), id))

	_, err = o.GetStatus(id)
	require.Error(t, err)

	err = o.StopSession(context.Background(), id)
	require.Error(t, err)
}

func TestGetStatusUnknownSessionErrors(t *testing.T) {
	o := New(ioruntime.New(), testOptions())
	_, err := o.GetStatus(SessionID("does-not-exist"))
	require.Error(t, err)
}

func TestWriteAttributeSendsSetAttributeListOverConnectionManager(t *testing.T) {
	setAttrSuccessBody := []byte{0x04 | 0x80, 0x00, 0x00, 0x00}
	host, port, cleanup := scriptedServer(t, [][]byte{
		sendRRDataReply(7, forwardOpenSuccessBody()),
		sendRRDataReply(7, setAttrSuccessBody),
	})
	defer cleanup()

	o := New(ioruntime.New(), testOptions())
	id, err := o.StartSession(context.Background(), host, port)
	require.NoError(t, err)

	status, err := o.WriteAttribute(context.Background(), id, cip.NewPath(0x64, 1), 3, []byte{0x01})
	require.NoError(t, err)
	require.True(t, status.OK())
}

func TestSendCommandReturnsDecodedPayload(t *testing.T) {
	host, port, cleanup := scriptedServer(t, [][]byte{
		sendRRDataReply(7, forwardOpenSuccessBody()),
		sendRRDataReply(7, getAttributeSuccessBody(3, []byte{0x2A})),
	})
	defer cleanup()

	o := New(ioruntime.New(), testOptions())
	id, err := o.StartSession(context.Background(), host, port)
	require.NoError(t, err)

	result, err := o.SendCommand(context.Background(), id, cip.ServiceGetAttributeList, cip.NewPath(0x64, 1), cip.GetAttributeListRequest(3), TransportRRCM)
	require.NoError(t, err)
	require.True(t, result.Status.OK())
	require.Equal(t, []byte{0x01, 0x00, 0x03, 0x00, 0x00, 0x00, 0x2A}, result.Payload)
}
