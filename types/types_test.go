package types

import (
	"testing"

	"i2cdriver-go/errcode"
)

func TestAddr7Reserved(t *testing.T) {
	for a := Addr7(0); a <= 0x07; a++ {
		if !a.Reserved() {
			t.Errorf("addr %#x: want reserved", a)
		}
	}
	for a := Addr7(0x78); a <= 0x7F; a++ {
		if !a.Reserved() {
			t.Errorf("addr %#x: want reserved", a)
		}
	}
	for a := Addr7(0x08); a <= 0x77; a++ {
		if a.Reserved() {
			t.Errorf("addr %#x: want usable", a)
		}
		if !a.Valid() {
			t.Errorf("addr %#x: want valid", a)
		}
	}
}

func TestSegmentID(t *testing.T) {
	s := SegAt(3, 9)
	if !s.Present() || s.Mux() != 3 || s.Segment() != 9 {
		t.Fatalf("SegAt(3,9) = %#x (mux=%d seg=%d)", uint8(s), s.Mux(), s.Segment())
	}
	var none SegmentID
	if none.Present() {
		t.Fatal("zero SegmentID must mean direct attach")
	}
	if !none.Valid() {
		t.Fatal("zero SegmentID must be valid")
	}
	// Mux/segment bits without the presence flag are garbage.
	if SegmentID(0x35).Valid() {
		t.Fatal("non-flagged byte with payload bits must be invalid")
	}
}

func TestDeviceIDValidate(t *testing.T) {
	good := DeviceID{Controller: 1, Port: 0, Addr: 0x1D}
	if err := good.Validate(); err != nil {
		t.Fatalf("valid device rejected: %v", err)
	}
	cases := []struct {
		name string
		d    DeviceID
		want errcode.Code
	}{
		{"reserved_low", DeviceID{Controller: 1, Addr: 0x03}, errcode.ReservedAddress},
		{"reserved_high", DeviceID{Controller: 1, Addr: 0x7C}, errcode.ReservedAddress},
		{"addr_range", DeviceID{Controller: 1, Addr: 0x85}, errcode.BadArgument},
		{"controller_range", DeviceID{Controller: 14, Addr: 0x1D}, errcode.BadArgument},
		{"segment_bits", DeviceID{Controller: 1, Addr: 0x1D, Seg: 0x12}, errcode.BadArgument},
	}
	for _, tc := range cases {
		if got := errcode.Of(tc.d.Validate()); got != tc.want {
			t.Errorf("%s: got %v want %v", tc.name, got, tc.want)
		}
	}
}

func TestOpKnown(t *testing.T) {
	for op := OpWriteRead; op <= OpGetPendingMessage; op++ {
		if !op.Known() {
			t.Errorf("op %d: want known", op)
		}
		if op.String() == "unknown" {
			t.Errorf("op %d: missing name", op)
		}
	}
	if Op(0).Known() || Op(9).Known() {
		t.Fatal("out-of-range ops must be unknown")
	}
}
