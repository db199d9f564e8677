package procedure_test

import (
	"testing"

	"github.com/arterrin/lvrpc/procedure"
)

func TestUUIDStringFormat(t *testing.T) {
	u := procedure.UUID{0x12, 0x34, 0x56, 0x78, 0x9a, 0xbc, 0xde, 0xf0, 0x11, 0x22, 0x33, 0x44, 0x55, 0x66, 0x77, 0x88}
	want := "12345678-9abc-def0-1122-334455667788"
	if got := u.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestParseUUIDRoundTrip(t *testing.T) {
	const s = "12345678-9abc-def0-1122-334455667788"
	u, err := procedure.ParseUUID(s)
	if err != nil {
		t.Fatalf("ParseUUID(%q): %v", s, err)
	}
	if got := u.String(); got != s {
		t.Errorf("round trip = %q, want %q", got, s)
	}
}

func TestParseUUIDInvalid(t *testing.T) {
	if _, err := procedure.ParseUUID("not-a-uuid"); err == nil {
		t.Error("ParseUUID(\"not-a-uuid\") returned nil error, want an error")
	}
}
