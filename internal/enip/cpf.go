package enip

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// CPF item type ids used by SendRRData/SendUnitData payloads.
const (
	ItemNullAddress      uint16 = 0x0000
	ItemConnectedAddress uint16 = 0x00A1
	ItemConnectedPacket  uint16 = 0x00B1
	ItemUnconnectedData  uint16 = 0x00B2
)

// Item is one type_id/length/body entry of a Common Packet Format list.
type Item struct {
	TypeID uint16
	Body   []byte
}

// Encode renders the item as wire bytes: type id, length, body.
func (it Item) Encode() []byte {
	out := make([]byte, 4+len(it.Body))
	binary.LittleEndian.PutUint16(out[0:2], it.TypeID)
	binary.LittleEndian.PutUint16(out[2:4], uint16(len(it.Body)))
	copy(out[4:], it.Body)
	return out
}

// EncodeItems renders a full CPF item list: a 16-bit count followed by each
// item's encoded bytes.
func EncodeItems(items []Item) []byte {
	out := make([]byte, 2)
	binary.LittleEndian.PutUint16(out, uint16(len(items)))
	for _, it := range items {
		out = append(out, it.Encode()...)
	}
	return out
}

// DecodeItems parses a CPF item list from buf, returning the items found.
func DecodeItems(buf []byte) ([]Item, error) {
	if len(buf) < 2 {
		return nil, errors.New("enip: CPF list too short for item count")
	}
	count := binary.LittleEndian.Uint16(buf[0:2])
	offset := 2
	items := make([]Item, 0, count)
	for i := 0; i < int(count); i++ {
		if offset+4 > len(buf) {
			return nil, errors.New("enip: truncated CPF item header")
		}
		typeID := binary.LittleEndian.Uint16(buf[offset : offset+2])
		length := binary.LittleEndian.Uint16(buf[offset+2 : offset+4])
		offset += 4
		if offset+int(length) > len(buf) {
			return nil, errors.New("enip: truncated CPF item body")
		}
		items = append(items, Item{TypeID: typeID, Body: buf[offset : offset+int(length)]})
		offset += int(length)
	}
	return items, nil
}

// NullAddressItem is the zero-length item used as the address item of an
// unconnected request/reply exchange.
func NullAddressItem() Item {
	return Item{TypeID: ItemNullAddress}
}

// UnconnectedDataItem wraps a CIP message body for unconnected (request/reply)
// transport.
func UnconnectedDataItem(cip []byte) Item {
	return Item{TypeID: ItemUnconnectedData, Body: cip}
}

// ConnectedAddressItem carries the 32-bit connection id of an established
// connected transport.
func ConnectedAddressItem(connectionID uint32) Item {
	body := make([]byte, 4)
	binary.LittleEndian.PutUint32(body, connectionID)
	return Item{TypeID: ItemConnectedAddress, Body: body}
}

// ConnectedPacketItem wraps a CIP message body with its 16-bit sequence
// number for connected (unit-data) transport.
func ConnectedPacketItem(sequence uint16, cip []byte) Item {
	body := make([]byte, 2+len(cip))
	binary.LittleEndian.PutUint16(body[0:2], sequence)
	copy(body[2:], cip)
	return Item{TypeID: ItemConnectedPacket, Body: body}
}

// DecodeConnectedAddress extracts the connection id from a connected-address
// CPF item body.
func DecodeConnectedAddress(body []byte) (uint32, error) {
	if len(body) < 4 {
		return 0, errors.New("enip: connected-address item too short")
	}
	return binary.LittleEndian.Uint32(body[0:4]), nil
}

// SendRRDataPayload builds the SendRRData/SendUnitData command-specific
// payload: a 4-byte interface handle, a 2-byte timeout, and the CPF item list.
func SendRRDataPayload(interfaceHandle uint32, timeout uint16, items []Item) []byte {
	out := make([]byte, 6)
	binary.LittleEndian.PutUint32(out[0:4], interfaceHandle)
	binary.LittleEndian.PutUint16(out[4:6], timeout)
	return append(out, EncodeItems(items)...)
}

// DecodeSendRRDataPayload splits a SendRRData/SendUnitData payload back into
// its interface handle, timeout, and CPF item list.
func DecodeSendRRDataPayload(payload []byte) (interfaceHandle uint32, timeout uint16, items []Item, err error) {
	if len(payload) < 6 {
		return 0, 0, nil, errors.New("enip: SendRRData payload too short")
	}
	interfaceHandle = binary.LittleEndian.Uint32(payload[0:4])
	timeout = binary.LittleEndian.Uint16(payload[4:6])
	items, err = DecodeItems(payload[6:])
	return interfaceHandle, timeout, items, err
}
