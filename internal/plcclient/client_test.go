package plcclient

import (
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/carun/eipsession/internal/enip"
	"github.com/stretchr/testify/require"
)

// setupMockServer creates a mock TCP server for testing, in the teacher's
// accept-one-connection-then-handle style.
func setupMockServer(t *testing.T, handler func(conn net.Conn)) (string, int, func()) {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	go func() {
		conn, err := listener.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		handler(conn)
	}()

	host, portStr, err := net.SplitHostPort(listener.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	return host, port, func() { listener.Close() }
}

func registerSessionReply(sessionHandle uint32) []byte {
	f := enip.Frame{
		Header:  enip.Header{Command: enip.CommandRegisterSession, SessionHandle: sessionHandle},
		Payload: enip.RegisterSessionPayload(),
	}
	return f.Encode()
}

func TestNewClientInvalidAddress(t *testing.T) {
	_, err := NewClient("256.256.256.256", 1, WithConnectTimeout(200*time.Millisecond))
	require.Error(t, err)
}

func TestRegisterSessionAssignsHandle(t *testing.T) {
	host, port, cleanup := setupMockServer(t, func(conn net.Conn) {
		buf := make([]byte, enip.HeaderSize+4)
		_, err := conn.Read(buf)
		if err != nil {
			return
		}
		conn.Write(registerSessionReply(0x2A))
	})
	defer cleanup()

	client, err := NewClient(host, port, WithConnectTimeout(time.Second))
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, client.RegisterSession())
	require.Equal(t, uint32(0x2A), client.SessionHandle())

	// Calling again is a no-op and does not re-send the request.
	require.NoError(t, client.RegisterSession())
}

func TestRecvENIPPacketPrematureClose(t *testing.T) {
	host, port, cleanup := setupMockServer(t, func(conn net.Conn) {
		conn.Write([]byte{0x01, 0x02, 0x03}) // fewer than HeaderSize bytes, then close
	})
	defer cleanup()

	client, err := NewClient(host, port, WithConnectTimeout(time.Second), WithReadTimeout(time.Second))
	require.NoError(t, err)
	defer client.Close()

	_, err = client.RecvENIPPacket()
	require.Error(t, err)
	require.Contains(t, err.Error(), "socket closed")
}

func TestSendRRCIPWritesExpectedFrame(t *testing.T) {
	done := make(chan []byte, 1)
	host, port, cleanup := setupMockServer(t, func(conn net.Conn) {
		header := make([]byte, enip.HeaderSize+4)
		if _, err := conn.Read(header); err != nil {
			return
		}
		conn.Write(registerSessionReply(1))

		buf := make([]byte, 256)
		n, err := conn.Read(buf)
		if err != nil {
			return
		}
		done <- buf[:n]
	})
	defer cleanup()

	client, err := NewClient(host, port, WithConnectTimeout(time.Second))
	require.NoError(t, err)
	defer client.Close()
	require.NoError(t, client.RegisterSession())

	require.NoError(t, client.SendRRCIP([]byte{0x01, 0x02}))

	select {
	case got := <-done:
		f := enip.Frame{Header: enip.DecodeHeader(got[:enip.HeaderSize]), Payload: got[enip.HeaderSize:]}
		require.Equal(t, enip.CommandSendRRData, f.Header.Command)
		require.Equal(t, client.SessionHandle(), f.Header.SessionHandle)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for SendRRData frame")
	}
}

func TestOfflineClientServesFixtures(t *testing.T) {
	ClearOfflineFixtures()
	RegisterOfflineFixture(0x6B, 1, map[uint16][]byte{3: {0xDE, 0xAD}})
	defer ClearOfflineFixtures()

	client, err := NewClient("", 0, WithOffline())
	require.NoError(t, err)
	require.True(t, client.IsOffline())
	require.NoError(t, client.RegisterSession())
	require.Equal(t, uint32(1), client.SessionHandle())

	value, ok := client.GetAttributeOffline(0x6B, 1, 3)
	require.True(t, ok)
	require.Equal(t, []byte{0xDE, 0xAD}, value)

	_, ok = client.GetAttributeOffline(0x6B, 1, 99)
	require.False(t, ok)

	client.SetAttributeOffline(0x6B, 1, 4, []byte{0x01})
	value, ok = client.GetAttributeOffline(0x6B, 1, 4)
	require.True(t, ok)
	require.Equal(t, []byte{0x01}, value)
}
