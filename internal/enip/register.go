package enip

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// protocolVersion is the EtherNet/IP encapsulation protocol version this
// runtime advertises when registering a session.
const protocolVersion uint16 = 1

// RegisterSessionPayload builds the 4-byte RegisterSession command payload:
// protocol version and an options flag (always 0 for this runtime).
func RegisterSessionPayload() []byte {
	out := make([]byte, 4)
	binary.LittleEndian.PutUint16(out[0:2], protocolVersion)
	binary.LittleEndian.PutUint16(out[2:4], 0)
	return out
}

// DecodeRegisterSessionReply validates a RegisterSession reply frame and
// returns the assigned session handle.
func DecodeRegisterSessionReply(f Frame) (uint32, error) {
	if f.Header.Command != CommandRegisterSession {
		return 0, errors.Errorf("enip: unexpected reply command 0x%04x for RegisterSession", f.Header.Command)
	}
	if f.Header.Status != 0 {
		return 0, errors.Errorf("enip: RegisterSession failed with status 0x%08x", f.Header.Status)
	}
	if len(f.Payload) < 4 {
		return 0, errors.New("enip: RegisterSession reply payload too short")
	}
	return f.Header.SessionHandle, nil
}
