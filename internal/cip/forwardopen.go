package cip

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// DefaultConnectionParams is the default 16-bit O->T / T->O network
// connection parameters word ForwardOpen requests use when the caller does
// not override the payload size: 0x41F4 (connection size class 2, 500-ish
// byte limit), encoded little-endian on the wire as F4 41.
const DefaultConnectionParams uint16 = 0x41F4

// ConnectionParamsForSize returns the 16-bit network connection parameters
// word for an explicit payload size override, keeping the same class/type
// bits DefaultConnectionParams carries and only replacing the low 9 bits
// that encode the connection size.
func ConnectionParamsForSize(size uint16) uint16 {
	const sizeMask = 0x01FF
	return (DefaultConnectionParams &^ sizeMask) | (size & sizeMask)
}

// ForwardOpenRequest is the service-0x54 request body sent to the Connection
// Manager object to establish a connected (Class 3 / Class 1) transport.
// Field order and widths are the CIP-standard layout.
type ForwardOpenRequest struct {
	PriorityTimeTick            byte
	TimeoutTicks                byte
	OTConnectionID              uint32
	TOConnectionID              uint32
	ConnectionSerialNumber      uint16
	VendorID                    uint16
	OriginatorSerialNumber      uint32
	ConnectionTimeoutMultiplier byte
	Reserved                    [3]byte
	OTRPI                       uint32
	OTNetworkConnectionParams   uint16
	TORPI                       uint32
	TONetworkConnectionParams   uint16
	TransportTypeTrigger        byte
	ConnectionPath              []byte // already word-aligned (padded to even length)
}

// Encode renders the request body as wire bytes.
func (r ForwardOpenRequest) Encode() []byte {
	pathWords := byte(len(r.ConnectionPath) / 2)
	out := make([]byte, 32+len(r.ConnectionPath))
	out[0] = r.PriorityTimeTick
	out[1] = r.TimeoutTicks
	binary.LittleEndian.PutUint32(out[2:6], r.OTConnectionID)
	binary.LittleEndian.PutUint32(out[6:10], r.TOConnectionID)
	binary.LittleEndian.PutUint16(out[10:12], r.ConnectionSerialNumber)
	binary.LittleEndian.PutUint16(out[12:14], r.VendorID)
	binary.LittleEndian.PutUint32(out[14:18], r.OriginatorSerialNumber)
	out[18] = r.ConnectionTimeoutMultiplier
	copy(out[19:22], r.Reserved[:])
	binary.LittleEndian.PutUint32(out[22:26], r.OTRPI)
	binary.LittleEndian.PutUint16(out[26:28], r.OTNetworkConnectionParams)
	binary.LittleEndian.PutUint32(out[28:32], r.TORPI)
	// TONetworkConnectionParams, TransportTypeTrigger, path-size, and the
	// path itself are appended after growing out to the final size below.
	out = append(out, 0, 0, 0, 0, 0)
	binary.LittleEndian.PutUint16(out[32:34], r.TONetworkConnectionParams)
	out[34] = r.TransportTypeTrigger
	out[35] = pathWords
	out = append(out[:36], r.ConnectionPath...)
	return out
}

// DefaultForwardOpenPath is the connection path this runtime sends in every
// ForwardOpen request: [0x01 0x00, class 0x20 0x02, instance 0x24 0x01], addressing the
// Message Router's assembly connection point by convention (the path bytes
// the original reference implementation hard-codes).
var DefaultForwardOpenPath = []byte{0x01, 0x00, 0x20, 0x02, 0x24, 0x01}

// NewForwardOpenRequest builds a ForwardOpenRequest with this runtime's fixed
// priority/timeout/path fields and caller-supplied connection parameters.
func NewForwardOpenRequest(serial uint16, vendorID uint16, originatorSerial uint32, otParams, toParams uint16) ForwardOpenRequest {
	return ForwardOpenRequest{
		PriorityTimeTick:            0x03,
		TimeoutTicks:                0xFA,
		ConnectionSerialNumber:      serial,
		VendorID:                    vendorID,
		OriginatorSerialNumber:      originatorSerial,
		ConnectionTimeoutMultiplier: 0x07,
		OTRPI:                       0x00100000,
		OTNetworkConnectionParams:   otParams,
		TORPI:                       0x00100000,
		TONetworkConnectionParams:   toParams,
		TransportTypeTrigger:        0x01,
		ConnectionPath:              DefaultForwardOpenPath,
	}
}

// ForwardOpenResponse is the successful service-0x54 response body.
type ForwardOpenResponse struct {
	OTConnectionID         uint32
	TOConnectionID         uint32
	ConnectionSerialNumber uint16
	VendorID               uint16
	OriginatorSerialNumber uint32
	OTAPI                  uint32
	TOAPI                  uint32
}

// DecodeForwardOpenResponse parses a successful ForwardOpen response payload.
func DecodeForwardOpenResponse(data []byte) (ForwardOpenResponse, error) {
	if len(data) < 24 {
		return ForwardOpenResponse{}, errors.New("cip: forward-open response too short")
	}
	return ForwardOpenResponse{
		OTConnectionID:         binary.LittleEndian.Uint32(data[0:4]),
		TOConnectionID:         binary.LittleEndian.Uint32(data[4:8]),
		ConnectionSerialNumber: binary.LittleEndian.Uint16(data[8:10]),
		VendorID:               binary.LittleEndian.Uint16(data[10:12]),
		OriginatorSerialNumber: binary.LittleEndian.Uint32(data[12:16]),
		OTAPI:                  binary.LittleEndian.Uint32(data[16:20]),
		TOAPI:                  binary.LittleEndian.Uint32(data[20:24]),
	}, nil
}

// ForwardCloseRequest is the service-0x4E request body that tears down a
// connected transport established by a prior ForwardOpen.
type ForwardCloseRequest struct {
	PriorityTimeTick       byte
	TimeoutTicks           byte
	ConnectionSerialNumber uint16
	VendorID               uint16
	OriginatorSerialNumber uint32
	ConnectionPath         []byte
}

// Encode renders the request body as wire bytes.
func (r ForwardCloseRequest) Encode() []byte {
	pathWords := byte(len(r.ConnectionPath) / 2)
	out := make([]byte, 12, 12+len(r.ConnectionPath))
	out[0] = r.PriorityTimeTick
	out[1] = r.TimeoutTicks
	binary.LittleEndian.PutUint16(out[2:4], r.ConnectionSerialNumber)
	binary.LittleEndian.PutUint16(out[4:6], r.VendorID)
	binary.LittleEndian.PutUint32(out[6:10], r.OriginatorSerialNumber)
	out[10] = pathWords
	out[11] = 0 // reserved
	out = append(out, r.ConnectionPath...)
	return out
}

// NewForwardCloseRequest mirrors the serial/vendor/originator identifiers
// used to open the connection, as CIP requires for a matching close.
func NewForwardCloseRequest(serial uint16, vendorID uint16, originatorSerial uint32) ForwardCloseRequest {
	return ForwardCloseRequest{
		PriorityTimeTick:       0x03,
		TimeoutTicks:           0xFA,
		ConnectionSerialNumber: serial,
		VendorID:               vendorID,
		OriginatorSerialNumber: originatorSerial,
		ConnectionPath:         DefaultForwardOpenPath,
	}
}
