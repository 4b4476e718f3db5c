package gateway

import "i2cdriver-go/wire"

// Link framing: SOF byte, payload length u16 LE, payload, one additive
// checksum byte over length and payload. A frame failing its checksum is
// dropped and the decoder resynchronises on the next SOF.

const (
	sof        = 0x7E
	frameOver  = 4 // SOF + len u16 + checksum
	payloadMax = wire.ReqMax
	frameMax   = frameOver + payloadMax
)

func checksum(b []byte) byte {
	var s byte
	for _, v := range b {
		s += v
	}
	return s
}

// encodeFrame appends one frame for payload to dst and returns it.
func encodeFrame(dst, payload []byte) []byte {
	n := len(payload)
	dst = append(dst, sof, byte(n), byte(n>>8))
	dst = append(dst, payload...)
	sum := byte(n) + byte(n>>8) + checksum(payload)
	return append(dst, sum)
}

// decoder is a byte-at-a-time frame reassembler.
type decoder struct {
	state   int // 0 waiting SOF, 1 len lo, 2 len hi, 3 payload, 4 checksum
	need    int
	payload [payloadMax]byte
	n       int
}

// feed consumes one byte; when it completes a valid frame it returns the
// payload (valid until the next feed) and true.
func (d *decoder) feed(b byte) ([]byte, bool) {
	switch d.state {
	case 0:
		if b == sof {
			d.state = 1
		}
	case 1:
		d.need = int(b)
		d.state = 2
	case 2:
		d.need |= int(b) << 8
		d.n = 0
		if d.need > payloadMax {
			d.state = 0
			break
		}
		if d.need == 0 {
			d.state = 4
		} else {
			d.state = 3
		}
	case 3:
		d.payload[d.n] = b
		d.n++
		if d.n == d.need {
			d.state = 4
		}
	case 4:
		d.state = 0
		want := byte(d.need) + byte(d.need>>8) + checksum(d.payload[:d.n])
		if b == want {
			return d.payload[:d.n], true
		}
	}
	return nil, false
}
