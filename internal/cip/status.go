// Package cip implements the Common Industrial Protocol message bodies carried
// inside EtherNet/IP frames: path segments, the general status dictionary, and
// the request/response codecs for the services this runtime uses.
package cip

import "fmt"

// Status is the outcome of a CIP request. A nil Code (or Code == 0) means the
// request succeeded; the decoder synthesizes Code == 0 when a reply ends at the
// reply-service byte without a status section (see DecodeResponse).
type Status struct {
	Code       *byte
	Additional []uint16
	Message    string
}

// OK reports whether the status represents success: an absent code or a zero
// code both count as success.
func (s Status) OK() bool {
	return s.Code == nil || *s.Code == 0
}

// CodeValue returns the numeric status code, or 0 if absent.
func (s Status) CodeValue() byte {
	if s.Code == nil {
		return 0
	}
	return *s.Code
}

func (s Status) String() string {
	if s.OK() {
		return "ok"
	}
	return fmt.Sprintf("0x%02x: %s", s.CodeValue(), s.Message)
}

// StatusFromCode builds a Status from a raw general-status byte, looking up the
// human readable message in the static dictionary.
func StatusFromCode(code byte) Status {
	return Status{Code: &code, Message: statusMessage(code)}
}

// StatusOK synthesizes the zero-length status record used when the wire stops
// at the reply-service byte (some Forward Open replies do this).
func StatusOK() Status {
	zero := byte(0)
	return Status{Code: &zero, Message: statusMessage(0)}
}

// statusMessages is the static CIP general-status dictionary. Unknown codes
// render as "Unknown status 0x%02x" per spec.
var statusMessages = map[byte]string{
	0x00: "Success",
	0x01: "Connection failure",
	0x02: "Resource unavailable",
	0x03: "Invalid parameter value",
	0x04: "Path segment error",
	0x05: "Path destination unknown",
	0x06: "Partial transfer",
	0x07: "Connection lost",
	0x08: "Service not supported",
	0x09: "Invalid attribute value",
	0x0A: "Attribute list error",
	0x0B: "Already in requested mode/state",
	0x0C: "Object state conflict",
	0x0D: "Object already exists",
	0x0E: "Attribute not settable",
	0x0F: "Privilege violation",
	0x10: "Device state conflict",
	0x11: "Reply data too large",
	0x12: "Fragmentation of a primitive value",
	0x13: "Not enough data",
	0x14: "Attribute not supported",
	0x15: "Too much data",
	0x16: "Object does not exist",
	0x17: "Service fragmentation sequence not in progress",
	0x18: "No stored attribute data",
	0x19: "Store operation failure",
	0x1A: "Routing failure, request packet too large",
	0x1B: "Routing failure, response packet too large",
	0x1C: "Missing attribute list entry data",
	0x1D: "Invalid attribute value list",
	0x1E: "Embedded service error",
	0x1F: "Vendor specific error",
	0x20: "Invalid parameter",
	0x21: "Write-once value or medium already written",
	0x22: "Invalid reply received",
	0x25: "Key failure in path",
	0x26: "Path size invalid",
	0x27: "Unexpected attribute in list",
	0x28: "Invalid member ID",
	0x29: "Member not settable",
	0xFF: "General Error",
}

func statusMessage(code byte) string {
	if msg, ok := statusMessages[code]; ok {
		return msg
	}
	return fmt.Sprintf("Unknown status 0x%02x", code)
}

// StatusPartialTransfer is the CIP status used by segmented reads and
// instance-list enumeration to mean "more data follows".
const StatusPartialTransfer byte = 0x06
