package cip

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// Service codes used by this runtime.
const (
	ServiceGetAttributeAll    byte = 0x01
	ServiceGetAttributeList   byte = 0x03
	ServiceSetAttributeList   byte = 0x04
	ServiceReset              byte = 0x05
	ServiceMultipleService    byte = 0x0A
	ServiceGetAttributeSingle byte = 0x0E
	ServiceForwardClose       byte = 0x4E
	ServiceUnconnectedSend    byte = 0x52
	ServiceForwardOpen        byte = 0x54
	ServiceReadOtherTag       byte = 0x4C
	ServiceWriteOtherTag      byte = 0x4D
	ServiceGetInstanceList    byte = 0x4B

	responseBit byte = 0x80
)

// Request is a CIP request message: a service byte, a path, and a
// service-specific data payload.
type Request struct {
	Service byte
	Path    Path
	Data    []byte
}

// Encode renders the request as wire bytes: service, path (word-count
// prefixed), then the raw data.
func (r Request) Encode() []byte {
	pathBytes := r.Path.Bytes()
	out := make([]byte, 1+len(pathBytes)+len(r.Data))
	out[0] = r.Service
	copy(out[1:], pathBytes)
	copy(out[1+len(pathBytes):], r.Data)
	return out
}

// Response is a decoded CIP response message.
type Response struct {
	ReplyService byte
	Status       Status
	Data         []byte
}

// DecodeResponse parses a CIP response body. When the body ends at the
// reply-service byte (some Forward Open replies on some stacks), a status of
// code=0 with no additional status words is synthesized, per spec.
func DecodeResponse(body []byte) (Response, error) {
	if len(body) == 0 {
		return Response{}, errors.New("cip: empty response body")
	}
	replyService := body[0]
	if replyService&responseBit == 0 {
		return Response{}, errors.Errorf("cip: service byte 0x%02x is not a response", replyService)
	}
	if len(body) == 1 {
		return Response{ReplyService: replyService, Status: StatusOK()}, nil
	}
	if len(body) < 4 {
		return Response{}, errors.New("cip: response too short for status section")
	}
	// body[1] is reserved, body[2] is the general status, body[3] is the
	// count of 16-bit additional status words.
	generalStatus := body[2]
	additionalCount := int(body[3])
	offset := 4
	additional := make([]uint16, 0, additionalCount)
	for i := 0; i < additionalCount; i++ {
		if offset+2 > len(body) {
			return Response{}, errors.New("cip: truncated additional status")
		}
		additional = append(additional, binary.LittleEndian.Uint16(body[offset:offset+2]))
		offset += 2
	}
	status := StatusFromCode(generalStatus)
	status.Additional = additional
	return Response{
		ReplyService: replyService,
		Status:       status,
		Data:         body[offset:],
	}, nil
}

// GetAttributeListRequest builds a GetAttributeList (service 0x03) request
// body requesting a single attribute, the only shape this runtime needs.
func GetAttributeListRequest(attributeID uint16) []byte {
	data := make([]byte, 4)
	binary.LittleEndian.PutUint16(data[0:2], 1)
	binary.LittleEndian.PutUint16(data[2:4], attributeID)
	return data
}

// DecodeGetAttributeListResponse validates the
// `[count=1][attr LE][status LE]<value>` shape and returns the value bytes.
func DecodeGetAttributeListResponse(data []byte, expectedAttr uint16) ([]byte, error) {
	if len(data) < 6 {
		return nil, errors.New("cip: get-attribute-list response too short")
	}
	count := binary.LittleEndian.Uint16(data[0:2])
	if count != 1 {
		return nil, errors.Errorf("cip: expected 1 attribute in response, got %d", count)
	}
	attr := binary.LittleEndian.Uint16(data[2:4])
	if attr != expectedAttr {
		return nil, errors.Errorf("cip: response attribute 0x%x does not match request 0x%x", attr, expectedAttr)
	}
	attrStatus := binary.LittleEndian.Uint16(data[4:6])
	if attrStatus != 0 {
		return nil, errors.Errorf("cip: attribute 0x%x reported status 0x%04x", attr, attrStatus)
	}
	return data[6:], nil
}

// SetAttributeListRequest builds a SetAttributeList (service 0x04) request
// body: attribute count (always 1), attribute id, then the raw value bytes.
func SetAttributeListRequest(attributeID uint16, value []byte) []byte {
	data := make([]byte, 4+len(value))
	binary.LittleEndian.PutUint16(data[0:2], 1)
	binary.LittleEndian.PutUint16(data[2:4], attributeID)
	copy(data[4:], value)
	return data
}

// ReadOtherTagRequest builds the service 0x4C request body: a 32-bit start
// offset and a 16-bit length.
func ReadOtherTagRequest(start uint32, length uint16) []byte {
	data := make([]byte, 6)
	binary.LittleEndian.PutUint32(data[0:4], start)
	binary.LittleEndian.PutUint16(data[4:6], length)
	return data
}

// DecodeInstanceList decodes a GetListOfInstances (service 0x4B) response
// payload into a slice of 32-bit instance ids.
func DecodeInstanceList(data []byte) ([]uint32, error) {
	if len(data)%4 != 0 {
		return nil, errors.New("cip: instance list payload is not a multiple of 4 bytes")
	}
	ids := make([]uint32, 0, len(data)/4)
	for i := 0; i < len(data); i += 4 {
		ids = append(ids, binary.LittleEndian.Uint32(data[i:i+4]))
	}
	return ids, nil
}

// MultipleServicePacket encodes a MultipleServicePacket (service 0x0A) body
// wrapping the given already-encoded request packets: an offset table
// followed by the packets themselves.
func MultipleServicePacket(packets [][]byte) []byte {
	count := len(packets)
	headerLen := 2 + 2*count
	total := headerLen
	for _, p := range packets {
		total += len(p)
	}
	out := make([]byte, total)
	binary.LittleEndian.PutUint16(out[0:2], uint16(count))
	offset := uint16(headerLen)
	pos := headerLen
	for i, p := range packets {
		binary.LittleEndian.PutUint16(out[2+2*i:4+2*i], offset)
		copy(out[pos:], p)
		pos += len(p)
		offset += uint16(len(p))
	}
	return out
}

// ConnectionManagerWrap builds an unconnected-send (service 0x52) request
// under the Connection Manager object (class 6, instance 1) wrapping the
// given embedded CIP message. Attribute get/set, instance listing, tag reads
// and the rr_cm command transport use this form; Forward Open/Close are sent
// to the Connection Manager path directly, without this wrap.
func ConnectionManagerWrap(embedded Request) Request {
	return Request{
		Service: ServiceUnconnectedSend,
		Path:    ConnectionManagerPath,
		Data:    embedded.Encode(),
	}
}

// MessageRouterWrap builds a MultipleServicePacket (service 0x0A) request
// addressed to the Message Router object (class 2, instance 1) wrapping the
// given embedded CIP requests.
func MessageRouterWrap(embedded ...Request) Request {
	packets := make([][]byte, len(embedded))
	for i, r := range embedded {
		packets[i] = r.Encode()
	}
	return Request{
		Service: ServiceMultipleService,
		Path:    MessageRouterPath,
		Data:    MultipleServicePacket(packets),
	}
}
