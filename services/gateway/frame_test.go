package gateway

import (
	"bytes"
	"testing"
)

func feedAll(d *decoder, b []byte) ([]byte, bool) {
	for _, v := range b {
		if p, ok := d.feed(v); ok {
			return p, true
		}
	}
	return nil, false
}

func TestFrameRoundTrip(t *testing.T) {
	payload := []byte{1, 2, 3, 0xFF}
	f := encodeFrame(nil, payload)

	var d decoder
	got, ok := feedAll(&d, f)
	if !ok || !bytes.Equal(got, payload) {
		t.Fatalf("got %v ok=%v", got, ok)
	}
}

func TestFrameEmptyPayload(t *testing.T) {
	var d decoder
	got, ok := feedAll(&d, encodeFrame(nil, nil))
	if !ok || len(got) != 0 {
		t.Fatalf("got %v ok=%v", got, ok)
	}
}

func TestFrameResyncAfterGarbage(t *testing.T) {
	payload := []byte{0xAB}
	stream := append([]byte{0x00, 0x13, 0x37}, encodeFrame(nil, payload)...)

	var d decoder
	got, ok := feedAll(&d, stream)
	if !ok || !bytes.Equal(got, payload) {
		t.Fatalf("no resync: got %v ok=%v", got, ok)
	}
}

func TestFrameBadChecksumDropped(t *testing.T) {
	f := encodeFrame(nil, []byte{1, 2})
	f[len(f)-1]++ // corrupt

	var d decoder
	if _, ok := feedAll(&d, f); ok {
		t.Fatal("corrupt frame accepted")
	}

	// Decoder recovers on the next good frame.
	good := encodeFrame(nil, []byte{9})
	got, ok := feedAll(&d, good)
	if !ok || !bytes.Equal(got, []byte{9}) {
		t.Fatalf("no recovery: got %v ok=%v", got, ok)
	}
}

func TestFrameOversizeLengthResyncs(t *testing.T) {
	var d decoder
	stream := []byte{sof, 0xFF, 0xFF} // length beyond payloadMax
	if _, ok := feedAll(&d, stream); ok {
		t.Fatal("oversize length accepted")
	}
	got, ok := feedAll(&d, encodeFrame(nil, []byte{5}))
	if !ok || !bytes.Equal(got, []byte{5}) {
		t.Fatalf("no resync: got %v ok=%v", got, ok)
	}
}
