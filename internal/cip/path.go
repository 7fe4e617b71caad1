package cip

import "encoding/binary"

// Segment types used when building a CIP logical path.
const (
	segClass     = 0x20
	segInstance  = 0x24
	segMember    = 0x30
	segAttribute = 0x30
)

// Path is an encoded CIP logical path: a word-count byte followed by the
// little-endian segment bytes. Word count equals ceil(len(bytes)/2).
type Path struct {
	raw []byte
}

// Bytes returns the encoded path, word-count prefix included.
func (p Path) Bytes() []byte {
	out := make([]byte, 1+len(p.raw))
	out[0] = byte((len(p.raw) + 1) / 2)
	copy(out[1:], p.raw)
	return out
}

// Segments returns the raw segment bytes without the word-count prefix.
func (p Path) Segments() []byte {
	return p.raw
}

// PathOptions configures which logical segments BuildPath emits, in order.
type PathOptions struct {
	ClassID     uint16
	InstanceID  uint16
	HasInstance bool
	MemberID    uint16
	HasMember   bool
	AttributeID uint16
	HasAttr     bool
}

// BuildPath constructs a CIP path from a class id and optional instance,
// member, and attribute segments, using an 8-bit segment when the id fits in a
// byte and falling back to the 16-bit logical segment form otherwise.
func BuildPath(opts PathOptions) Path {
	var raw []byte
	raw = appendLogical(raw, segClass, opts.ClassID)
	if opts.HasInstance {
		raw = appendLogical(raw, segInstance, opts.InstanceID)
	}
	if opts.HasMember {
		raw = appendLogical(raw, segMember, opts.MemberID)
	}
	if opts.HasAttr {
		raw = appendLogical(raw, segAttribute, opts.AttributeID)
	}
	return Path{raw: raw}
}

// NewPath builds a path for class/instance, the combination this runtime uses
// for every assembly and attribute access.
func NewPath(classID, instanceID uint16) Path {
	return BuildPath(PathOptions{ClassID: classID, InstanceID: instanceID, HasInstance: true})
}

// NewAttributePath builds a class/instance/attribute path.
func NewAttributePath(classID, instanceID, attributeID uint16) Path {
	return BuildPath(PathOptions{
		ClassID: classID, InstanceID: instanceID, HasInstance: true,
		AttributeID: attributeID, HasAttr: true,
	})
}

// NewClassPath builds a class-only path (used by GetListOfInstances).
func NewClassPath(classID uint16) Path {
	return BuildPath(PathOptions{ClassID: classID})
}

func appendLogical(raw []byte, segmentType byte, id uint16) []byte {
	if id <= 0xFF {
		return append(raw, segmentType, byte(id))
	}
	// 16-bit logical segment: type byte with the extended-size bit set,
	// a reserved pad byte, then the id itself.
	buf := make([]byte, 4)
	buf[0] = segmentType | 0x01
	buf[1] = 0
	binary.LittleEndian.PutUint16(buf[2:4], id)
	return append(raw, buf...)
}

// RawPath wraps an already-encoded segment byte slice (word-count NOT
// included) as used by the fixed Connection Manager / MessageRouter paths
// (class 6/instance 1 and class 2/instance 1 respectively).
func RawPath(segments []byte) Path {
	return Path{raw: segments}
}

// ConnectionManagerPath is the fixed path to the Connection Manager object
// (class 6, instance 1) used to wrap ForwardOpen/Close and unconnected-send.
var ConnectionManagerPath = RawPath([]byte{0x20, 0x06, 0x24, 0x01})

// MessageRouterPath is the fixed path to the Message Router object (class 2,
// instance 1) used to wrap MultipleServicePacket requests.
var MessageRouterPath = RawPath([]byte{0x20, 0x02, 0x24, 0x01})
