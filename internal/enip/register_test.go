package enip

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegisterSessionPayloadLayout(t *testing.T) {
	buf := RegisterSessionPayload()
	require.Equal(t, []byte{0x01, 0x00, 0x00, 0x00}, buf)
}

func TestDecodeRegisterSessionReply(t *testing.T) {
	f := Frame{
		Header: Header{
			Command:       CommandRegisterSession,
			SessionHandle: 0x0000002A,
		},
		Payload: RegisterSessionPayload(),
	}
	handle, err := DecodeRegisterSessionReply(f)
	require.NoError(t, err)
	require.Equal(t, uint32(0x2A), handle)
}

func TestDecodeRegisterSessionReplyWrongCommand(t *testing.T) {
	f := Frame{Header: Header{Command: CommandSendRRData}, Payload: RegisterSessionPayload()}
	_, err := DecodeRegisterSessionReply(f)
	require.Error(t, err)
}

func TestDecodeRegisterSessionReplyErrorStatus(t *testing.T) {
	f := Frame{
		Header: Header{Command: CommandRegisterSession, Status: 0x01},
		Payload: RegisterSessionPayload(),
	}
	_, err := DecodeRegisterSessionReply(f)
	require.Error(t, err)
}

func TestDecodeRegisterSessionReplyTruncatedPayload(t *testing.T) {
	f := Frame{
		Header:  Header{Command: CommandRegisterSession},
		Payload: []byte{0x01, 0x00},
	}
	_, err := DecodeRegisterSessionReply(f)
	require.Error(t, err)
}
