package enip

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestItemEncodeRoundTrip(t *testing.T) {
	it := UnconnectedDataItem([]byte{0x0E, 0x20, 0x06, 0x24, 0x01})
	buf := it.Encode()

	items, err := DecodeItems(EncodeItems([]Item{it}))
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, it, items[0])
	require.Equal(t, uint16(4+len(it.Body)), uint16(len(buf)))
}

func TestDecodeItemsTruncatedHeader(t *testing.T) {
	buf := []byte{0x01, 0x00, 0x00, 0x00, 0x01}
	_, err := DecodeItems(buf)
	require.Error(t, err)
}

func TestDecodeItemsTruncatedBody(t *testing.T) {
	buf := EncodeItems([]Item{{TypeID: ItemNullAddress, Body: nil}})
	buf[2] = 0x05 // claim 5 bytes of body that aren't there
	_, err := DecodeItems(buf)
	require.Error(t, err)
}

func TestConnectedAddressRoundTrip(t *testing.T) {
	it := ConnectedAddressItem(0x12345678)
	id, err := DecodeConnectedAddress(it.Body)
	require.NoError(t, err)
	require.Equal(t, uint32(0x12345678), id)
}

func TestConnectedPacketItemLayout(t *testing.T) {
	cip := []byte{0x4C, 0x02}
	it := ConnectedPacketItem(0x0042, cip)
	require.Equal(t, ItemConnectedPacket, it.TypeID)
	require.Equal(t, byte(0x42), it.Body[0])
	require.Equal(t, byte(0x00), it.Body[1])
	require.Equal(t, cip, it.Body[2:])
}

func TestSendRRDataPayloadRoundTrip(t *testing.T) {
	items := []Item{
		NullAddressItem(),
		UnconnectedDataItem([]byte{0x01, 0x02, 0x03}),
	}
	payload := SendRRDataPayload(0, 5000, items)

	handle, timeout, gotItems, err := DecodeSendRRDataPayload(payload)
	require.NoError(t, err)
	require.Equal(t, uint32(0), handle)
	require.Equal(t, uint16(5000), timeout)
	require.Equal(t, items, gotItems)
}

func TestDecodeSendRRDataPayloadTooShort(t *testing.T) {
	_, _, _, err := DecodeSendRRDataPayload([]byte{0x01, 0x02})
	require.Error(t, err)
}
