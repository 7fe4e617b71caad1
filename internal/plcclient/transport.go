// Package plcclient implements the low-level PLC client (C2): session
// registration, ENIP frame send/recv, and the CIP request wrappers built on
// top of internal/enip and internal/cip.
package plcclient

import (
	"net"
	"strconv"
	"time"
)

// Transport abstracts the byte stream a Client speaks ENIP frames over. The
// real runtime dials a TCP socket; tests and offline callers can substitute
// a fixture-backed implementation without a global toggle.
type Transport interface {
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	Write(p []byte) (int, error)
	Read(p []byte) (int, error)
	Close() error
}

// tcpTransport wraps a real net.Conn.
type tcpTransport struct {
	conn net.Conn
}

func dialTCP(address string, port int, connectTimeout time.Duration) (Transport, error) {
	addr := net.JoinHostPort(address, strconv.Itoa(port))
	conn, err := net.DialTimeout("tcp", addr, connectTimeout)
	if err != nil {
		return nil, err
	}
	return &tcpTransport{conn: conn}, nil
}

func (t *tcpTransport) SetReadDeadline(d time.Time) error  { return t.conn.SetReadDeadline(d) }
func (t *tcpTransport) SetWriteDeadline(d time.Time) error { return t.conn.SetWriteDeadline(d) }
func (t *tcpTransport) Write(p []byte) (int, error)        { return t.conn.Write(p) }
func (t *tcpTransport) Read(p []byte) (int, error)         { return t.conn.Read(p) }
func (t *tcpTransport) Close() error                       { return t.conn.Close() }
