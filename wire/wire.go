// Package wire marshals the fixed-size request/response envelopes exchanged
// between the client library and a driver task. Layouts are wire-stable and
// must match between client and server builds.
package wire

import (
	"i2cdriver-go/errcode"
	"i2cdriver-go/types"
)

const (
	// DataMax bounds inline payloads in both directions.
	DataMax = types.DataMax

	// Request: op u8, device descriptor 4B, write_length u16 LE,
	// read_length u16 LE, inline write bytes.
	HeaderLen = 1 + 4 + 2 + 2
	ReqMax    = HeaderLen + DataMax

	// Response: status u8, inline read bytes.
	RespMax = 1 + DataMax
)

// Request is the decoded form of one operation envelope.
type Request struct {
	Op       types.Op
	Device   types.DeviceID
	WriteLen uint16
	ReadLen  uint16
	Data     []byte // inline write bytes; len(Data) == int(WriteLen)
}

// Encode packs r into dst and returns the number of bytes written.
// Fails TooMuchData when the payload exceeds capacity or dst is short,
// BadArgument when WriteLen disagrees with the payload.
func (r *Request) Encode(dst []byte) (int, error) {
	if int(r.WriteLen) != len(r.Data) {
		return 0, errcode.BadArgument
	}
	if len(r.Data) > DataMax || int(r.ReadLen) > DataMax {
		return 0, errcode.TooMuchData
	}
	total := HeaderLen + len(r.Data)
	if len(dst) < total {
		return 0, errcode.TooMuchData
	}
	dst[0] = byte(r.Op)
	d := EncodeDevice(r.Device)
	copy(dst[1:5], d[:])
	dst[5] = byte(r.WriteLen)
	dst[6] = byte(r.WriteLen >> 8)
	dst[7] = byte(r.ReadLen)
	dst[8] = byte(r.ReadLen >> 8)
	copy(dst[HeaderLen:], r.Data)
	return total, nil
}

// DecodeRequest unpacks one envelope. A truncated or self-inconsistent
// buffer fails BadRequest; the caller replies with that status rather than
// escalating. Data aliases src.
func DecodeRequest(src []byte) (Request, error) {
	var r Request
	if len(src) < HeaderLen {
		return r, errcode.BadRequest
	}
	r.Op = types.Op(src[0])
	var d [4]byte
	copy(d[:], src[1:5])
	r.Device = DecodeDevice(d)
	r.WriteLen = uint16(src[5]) | uint16(src[6])<<8
	r.ReadLen = uint16(src[7]) | uint16(src[8])<<8
	if int(r.WriteLen) > DataMax || int(r.ReadLen) > DataMax {
		return r, errcode.BadRequest
	}
	if len(src) != HeaderLen+int(r.WriteLen) {
		return r, errcode.BadRequest
	}
	r.Data = src[HeaderLen:]
	return r, nil
}

// EncodeDevice packs the 4-byte device descriptor:
// byte0 = 7-bit address, byte1 = controller, byte2 = port,
// byte3 = 0 for direct attach, else 0x80 | mux<<4 | segment.
func EncodeDevice(id types.DeviceID) [4]byte {
	return [4]byte{byte(id.Addr), byte(id.Controller), byte(id.Port), byte(id.Seg)}
}

// DecodeDevice is the inverse of EncodeDevice. No validation is applied
// here; the server validates before dispatch.
func DecodeDevice(b [4]byte) types.DeviceID {
	return types.DeviceID{
		Addr:       types.Addr7(b[0]),
		Controller: types.Controller(b[1]),
		Port:       types.PortIndex(b[2]),
		Seg:        types.SegmentID(b[3]),
	}
}

// ---- Operation-specific payload helpers ----

// EncodeMask packs a notification mask as the 4-byte LE inline payload of
// EnableNotification.
func EncodeMask(mask uint32) []byte {
	return []byte{byte(mask), byte(mask >> 8), byte(mask >> 16), byte(mask >> 24)}
}

// DecodeMask unpacks an EnableNotification payload.
func DecodeMask(b []byte) (uint32, error) {
	if len(b) != 4 {
		return 0, errcode.BadRequest
	}
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24, nil
}

// EncodePending packs a drained pending message into a response payload:
// byte0 = source address, rest = frame data. Returns bytes written.
func EncodePending(dst []byte, source types.Addr7, data []byte) int {
	if len(dst) == 0 {
		return 0
	}
	dst[0] = byte(source)
	n := copy(dst[1:], data)
	return 1 + n
}

// DecodePending unpacks a GetPendingMessage response payload.
func DecodePending(b []byte) (types.PendingMessage, error) {
	if len(b) < 1 {
		return types.PendingMessage{}, errcode.BadRequest
	}
	return types.PendingMessage{
		Source: types.Addr7(b[0]),
		Data:   b[1:],
	}, nil
}
