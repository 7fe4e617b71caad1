package cip

import "testing"

func TestStatusFromCodeOK(t *testing.T) {
	tests := []struct {
		code byte
		ok   bool
	}{
		{0x00, true},
		{0x01, false},
		{0x06, false},
		{0xFF, false},
	}

	for _, tc := range tests {
		status := StatusFromCode(tc.code)
		if status.OK() != tc.ok {
			t.Errorf("status 0x%02x: OK() = %v, want %v", tc.code, status.OK(), tc.ok)
		}
	}
}

func TestStatusFromCodeUnknown(t *testing.T) {
	status := StatusFromCode(0x99)
	want := "Unknown status 0x99"
	if status.Message != want {
		t.Errorf("Message = %q, want %q", status.Message, want)
	}
}

func TestStatusOKSynthesized(t *testing.T) {
	status := StatusOK()
	if !status.OK() {
		t.Fatal("synthesized status should be OK")
	}
	if status.CodeValue() != 0 {
		t.Errorf("CodeValue() = %d, want 0", status.CodeValue())
	}
	if len(status.Additional) != 0 {
		t.Errorf("Additional = %v, want empty", status.Additional)
	}
}

func TestAbsentCodeIsOK(t *testing.T) {
	var s Status
	if !s.OK() {
		t.Error("zero-value Status (absent code) should be OK")
	}
}
