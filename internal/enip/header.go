// Package enip implements the EtherNet/IP TCP encapsulation layer: the fixed
// 24-byte header, the Common Packet Format item list carried by SendRRData and
// SendUnitData, and the fixed UDP keep-alive byte pattern published for
// diagnostics.
package enip

import "encoding/binary"

// Commands this runtime uses.
const (
	CommandRegisterSession uint16 = 0x0065
	CommandSendRRData      uint16 = 0x006F
	CommandSendUnitData    uint16 = 0x0070

	// DefaultPort is the standard EtherNet/IP TCP port.
	DefaultPort = 44818

	// HeaderSize is the fixed size of the ENIP encapsulation header.
	HeaderSize = 24
)

// Header is the 24-byte ENIP encapsulation header.
type Header struct {
	Command       uint16
	Length        uint16
	SessionHandle uint32
	Status        uint32
	SenderContext [8]byte
	Options       uint32
}

// Encode renders the header as 24 wire bytes.
func (h Header) Encode() []byte {
	out := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint16(out[0:2], h.Command)
	binary.LittleEndian.PutUint16(out[2:4], h.Length)
	binary.LittleEndian.PutUint32(out[4:8], h.SessionHandle)
	binary.LittleEndian.PutUint32(out[8:12], h.Status)
	copy(out[12:20], h.SenderContext[:])
	binary.LittleEndian.PutUint32(out[20:24], h.Options)
	return out
}

// DecodeHeader parses a 24-byte buffer into a Header. The caller is
// responsible for supplying exactly HeaderSize bytes.
func DecodeHeader(buf []byte) Header {
	var h Header
	h.Command = binary.LittleEndian.Uint16(buf[0:2])
	h.Length = binary.LittleEndian.Uint16(buf[2:4])
	h.SessionHandle = binary.LittleEndian.Uint32(buf[4:8])
	h.Status = binary.LittleEndian.Uint32(buf[8:12])
	copy(h.SenderContext[:], buf[12:20])
	h.Options = binary.LittleEndian.Uint32(buf[20:24])
	return h
}

// Frame is a full ENIP encapsulation message: header plus command-specific
// payload.
type Frame struct {
	Header  Header
	Payload []byte
}

// Encode renders the full frame (header with Length set from len(Payload),
// followed by the payload bytes).
func (f Frame) Encode() []byte {
	h := f.Header
	h.Length = uint16(len(f.Payload))
	out := h.Encode()
	return append(out, f.Payload...)
}
