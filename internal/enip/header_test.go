package enip

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHeaderRoundTrip(t *testing.T) {
	h := Header{
		Command:       CommandSendRRData,
		Length:        12,
		SessionHandle: 0xCAFEBABE,
		Status:        0,
		SenderContext: [8]byte{1, 2, 3, 4, 5, 6, 7, 8},
		Options:       0,
	}
	buf := h.Encode()
	require.Len(t, buf, HeaderSize)

	got := DecodeHeader(buf)
	require.Equal(t, h, got)
}

func TestFrameEncodeSetsLengthFromPayload(t *testing.T) {
	payload := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	f := Frame{
		Header:  Header{Command: CommandSendUnitData, SessionHandle: 7},
		Payload: payload,
	}
	buf := f.Encode()
	require.Len(t, buf, HeaderSize+len(payload))

	got := DecodeHeader(buf[:HeaderSize])
	require.Equal(t, uint16(len(payload)), got.Length)
	require.True(t, bytes.Equal(payload, buf[HeaderSize:]))
}

func TestFrameRoundTripForEachCommand(t *testing.T) {
	commands := []uint16{CommandRegisterSession, CommandSendRRData, CommandSendUnitData}
	for _, cmd := range commands {
		f := Frame{
			Header: Header{
				Command:       cmd,
				SessionHandle: 0x01020304,
				SenderContext: [8]byte{9, 9, 9, 9, 9, 9, 9, 9},
			},
			Payload: []byte{0x01, 0x00, 0x00, 0x00},
		}
		buf := f.Encode()
		gotHeader := DecodeHeader(buf[:HeaderSize])
		gotPayload := buf[HeaderSize:]
		require.Equal(t, cmd, gotHeader.Command)
		require.Equal(t, f.Header.SessionHandle, gotHeader.SessionHandle)
		require.True(t, bytes.Equal(f.Payload, gotPayload))
	}
}
