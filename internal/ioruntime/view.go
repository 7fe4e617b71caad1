// Package ioruntime implements the I/O runtime (C5): assembly registration
// against a device configuration, input polling snapshots, and output
// dispatch with one-shot completion, grounded on services/io_runtime.py.
package ioruntime

import (
	"encoding/binary"
	"encoding/hex"
	"time"

	"github.com/carun/eipsession/internal/cip"
	"github.com/carun/eipsession/internal/config"
)

// AssemblyMemberValue is a decoded named field within an assembly snapshot,
// grounded on io_runtime.py::AssemblyMemberValue. IntValue is only populated
// for 1/2/4-byte members, matching _decode_members' int.from_bytes guard.
type AssemblyMemberValue struct {
	Name     string
	Value    []byte
	RawHex   string
	IntValue *uint32
}

// AssemblyRuntimeView is a point-in-time snapshot of one registered
// assembly's last known payload and status, grounded on
// io_runtime.py::AssemblyRuntimeView.
type AssemblyRuntimeView struct {
	Alias      string
	ClassID    uint16
	InstanceID uint16
	Direction  string
	Payload    []byte
	Words      []uint16
	Members    []AssemblyMemberValue
	Status     cip.Status
	UpdatedAt  time.Time
}

// assemblyRuntimeRecord is the mutable runtime state backing one registered
// assembly, grounded on io_runtime.py::_AssemblyRuntimeRecord.
type assemblyRuntimeRecord struct {
	definition config.AssemblyDefinition
	payload    []byte
	status     cip.Status
	updatedAt  time.Time
}

func (r *assemblyRuntimeRecord) view() AssemblyRuntimeView {
	return AssemblyRuntimeView{
		Alias:      r.definition.Alias,
		ClassID:    r.definition.ClassID,
		InstanceID: r.definition.InstanceID,
		Direction:  r.definition.Direction,
		Payload:    append([]byte(nil), r.payload...),
		Words:      decodeWords(r.payload),
		Members:    decodeMembers(r.definition, r.payload),
		Status:     r.status,
		UpdatedAt:  r.updatedAt,
	}
}

// decodeWords splits a payload into little-endian 16-bit words, grounded on
// io_runtime.py::IORuntime._decode_words. A trailing odd byte is dropped, the
// same truncation the reference implementation applies.
func decodeWords(payload []byte) []uint16 {
	n := len(payload) / 2
	words := make([]uint16, n)
	for i := 0; i < n; i++ {
		words[i] = uint16(payload[2*i]) | uint16(payload[2*i+1])<<8
	}
	return words
}

// decodeMembers slices payload according to def's declared member offsets
// and sizes, grounded on io_runtime.py::IORuntime._decode_members. A member
// with no declared offset/size, or one that falls outside payload, is
// skipped rather than erroring: member layout is advisory metadata, not a
// framing guarantee.
func decodeMembers(def config.AssemblyDefinition, payload []byte) []AssemblyMemberValue {
	if len(def.Members) == 0 {
		return nil
	}
	out := make([]AssemblyMemberValue, 0, len(def.Members))
	for _, m := range def.Members {
		if m.Offset == nil || m.Size == nil {
			continue
		}
		start := *m.Offset
		end := start + *m.Size
		if start < 0 || end > len(payload) || start > end {
			continue
		}
		chunk := payload[start:end]
		value := AssemblyMemberValue{Name: m.Name, Value: append([]byte(nil), chunk...)}
		if len(chunk) > 0 {
			value.RawHex = hex.EncodeToString(chunk)
			value.IntValue = decodeMemberInt(chunk)
		}
		out = append(out, value)
	}
	return out
}

// decodeMemberInt decodes chunk as a little-endian unsigned integer when its
// size is 1, 2, or 4 bytes, grounded on io_runtime.py::_decode_members'
// `member.size in (1, 2, 4)` guard; any other size leaves IntValue unset.
func decodeMemberInt(chunk []byte) *uint32 {
	var v uint32
	switch len(chunk) {
	case 1:
		v = uint32(chunk[0])
	case 2:
		v = uint32(binary.LittleEndian.Uint16(chunk))
	case 4:
		v = binary.LittleEndian.Uint32(chunk)
	default:
		return nil
	}
	return &v
}
