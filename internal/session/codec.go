package session

import (
	"github.com/carun/eipsession/internal/cip"
	"github.com/carun/eipsession/internal/enip"
	"github.com/pkg/errors"
)

// DecodeCIPReply unwraps frame's CPF envelope (picking the unconnected or
// connected extraction by the frame's command) and decodes the embedded CIP
// response, for callers that drive a Client directly rather than through one
// of Session's named operations.
func DecodeCIPReply(frame enip.Frame) (cip.Response, error) {
	var body []byte
	var err error
	switch frame.Header.Command {
	case enip.CommandSendUnitData:
		body, err = extractConnectedCIPBody(frame.Payload)
	default:
		body, err = extractCIPBody(frame.Payload)
	}
	if err != nil {
		return cip.Response{}, err
	}
	return cip.DecodeResponse(body)
}

// extractCIPBody unwraps a SendRRData reply payload down to the embedded CIP
// response bytes carried by its unconnected-data item.
func extractCIPBody(payload []byte) ([]byte, error) {
	_, _, items, err := enip.DecodeSendRRDataPayload(payload)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		if item.TypeID == enip.ItemUnconnectedData {
			return item.Body, nil
		}
	}
	return nil, errors.New("no unconnected-data item in SendRRData reply")
}

// extractConnectedCIPBody unwraps a SendUnitData reply payload down to the
// embedded CIP response bytes carried by its connected-packet item (skipping
// that item's leading 2-byte sequence number).
func extractConnectedCIPBody(payload []byte) ([]byte, error) {
	_, _, items, err := enip.DecodeSendRRDataPayload(payload)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		if item.TypeID == enip.ItemConnectedPacket {
			if len(item.Body) < 2 {
				return nil, errors.New("connected-packet item too short")
			}
			return item.Body[2:], nil
		}
	}
	return nil, errors.New("no connected-packet item in SendUnitData reply")
}
