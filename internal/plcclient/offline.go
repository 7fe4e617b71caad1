package plcclient

import (
	"sync"
	"time"
)

// offlineAttrKey identifies a class/instance pair in the offline fixture
// registry.
type offlineAttrKey struct {
	classID, instanceID uint16
}

// offlineFixtures is the process-wide registry of canned attribute payloads
// served by offlineTransport, mirroring plc.py's module-level OFFLINE_FIXTURES.
var (
	offlineFixturesMu sync.Mutex
	offlineFixtures   = map[offlineAttrKey]map[uint16][]byte{}
)

// RegisterOfflineFixture stores a canned set of attributes for the given
// class/instance pair, replacing any existing set.
func RegisterOfflineFixture(classID, instanceID uint16, attributes map[uint16][]byte) {
	offlineFixturesMu.Lock()
	defer offlineFixturesMu.Unlock()

	key := offlineAttrKey{classID, instanceID}
	stored := make(map[uint16][]byte, len(attributes))
	for attr, raw := range attributes {
		cp := make([]byte, len(raw))
		copy(cp, raw)
		stored[attr] = cp
	}
	offlineFixtures[key] = stored
}

// ClearOfflineFixtures removes every registered offline fixture.
func ClearOfflineFixtures() {
	offlineFixturesMu.Lock()
	defer offlineFixturesMu.Unlock()
	offlineFixtures = map[offlineAttrKey]map[uint16][]byte{}
}

// offlineTransport never opens a socket; GetAttribute/SetAttribute are served
// from a private copy of the fixture registry taken at construction time, and
// Write/Read are no-ops (no bytes are ever produced to decode), matching
// plc.py's `self.sock is None` short-circuit throughout PLCClient.
type offlineTransport struct {
	store map[offlineAttrKey]map[uint16][]byte
}

func newOfflineTransport() *offlineTransport {
	offlineFixturesMu.Lock()
	defer offlineFixturesMu.Unlock()

	store := make(map[offlineAttrKey]map[uint16][]byte, len(offlineFixtures))
	for key, attrs := range offlineFixtures {
		cp := make(map[uint16][]byte, len(attrs))
		for attr, raw := range attrs {
			b := make([]byte, len(raw))
			copy(b, raw)
			cp[attr] = b
		}
		store[key] = cp
	}
	return &offlineTransport{store: store}
}

func (o *offlineTransport) SetReadDeadline(time.Time) error  { return nil }
func (o *offlineTransport) SetWriteDeadline(time.Time) error { return nil }
func (o *offlineTransport) Write(p []byte) (int, error)      { return len(p), nil }
func (o *offlineTransport) Read(p []byte) (int, error)       { return 0, nil }
func (o *offlineTransport) Close() error                     { return nil }

func (o *offlineTransport) getAttribute(classID, instanceID, attr uint16) ([]byte, bool) {
	attrs, ok := o.store[offlineAttrKey{classID, instanceID}]
	if !ok {
		return nil, false
	}
	value, ok := attrs[attr]
	return value, ok
}

func (o *offlineTransport) setAttribute(classID, instanceID, attr uint16, value []byte) {
	key := offlineAttrKey{classID, instanceID}
	attrs, ok := o.store[key]
	if !ok {
		attrs = map[uint16][]byte{}
		o.store[key] = attrs
	}
	cp := make([]byte, len(value))
	copy(cp, value)
	attrs[attr] = cp
}
