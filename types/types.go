package types

import (
	"i2cdriver-go/errcode"
	"i2cdriver-go/x/mathx"
)

// ---- Bus addressing ----

// Addr7 is a 7-bit I2C device address.
type Addr7 uint8

const (
	// 7-bit address space reserved by the I2C specification
	// (general call, CBUS, hi-speed master codes, 10-bit prefixes).
	reservedLowMax  Addr7 = 0x07
	reservedHighMin Addr7 = 0x78

	AddrMax Addr7 = 0x7F
)

// Reserved reports whether a falls in a range that must never be used
// as a target or controller-mode destination.
func (a Addr7) Reserved() bool {
	return mathx.Between(a, 0, reservedLowMax) || mathx.Between(a, reservedHighMin, AddrMax)
}

// Valid reports whether a is a usable 7-bit device address.
func (a Addr7) Valid() bool { return a <= AddrMax && !a.Reserved() }

// Controller identifies one physical I2C peripheral instance.
type Controller uint8

// ControllerMax bounds the controller id space; the set actually owned by
// a driver task is a (possibly sparse) subset declared in its config.
const ControllerMax Controller = 13

func (c Controller) Valid() bool { return c <= ControllerMax }

// PortIndex selects a pin mux port on a controller.
type PortIndex uint8

// SegmentID addresses an optional mux segment behind a controller port.
// The zero value means "no mux in the path". The in-memory form is the
// 4-byte descriptor's byte3 encoding: 0x80 | mux<<4 | segment.
type SegmentID uint8

const (
	segPresent  SegmentID = 0x80
	MuxMax                = 0x07
	SegmentMax            = 0x0F
)

// SegAt builds a SegmentID for mux (0..7) / segment (0..15).
func SegAt(mux, segment uint8) SegmentID {
	return segPresent | SegmentID(mux&MuxMax)<<4 | SegmentID(segment&SegmentMax)
}

func (s SegmentID) Present() bool { return s&segPresent != 0 }
func (s SegmentID) Mux() uint8    { return uint8(s>>4) & MuxMax }
func (s SegmentID) Segment() uint8 {
	return uint8(s) & SegmentMax
}

// Valid rejects byte patterns that set mux/segment bits without the
// presence flag.
func (s SegmentID) Valid() bool { return s == 0 || s.Present() }

// ---- Device identity ----

// DeviceID addresses one logical device reachable through one driver task.
// Immutable once constructed. The owning task is identified separately by
// the IPC handle the caller holds.
type DeviceID struct {
	Controller Controller
	Port       PortIndex
	Seg        SegmentID // zero = direct attach
	Addr       Addr7
}

// Validate applies the boundary checks performed before any register I/O.
func (d DeviceID) Validate() error {
	if !d.Controller.Valid() || d.Addr > AddrMax || !d.Seg.Valid() {
		return errcode.BadArgument
	}
	if d.Addr.Reserved() {
		return errcode.ReservedAddress
	}
	return nil
}

// ---- Target mode ----

// TargetConfig is the active target-mode binding of one controller.
// At most one may be active per controller at a time.
type TargetConfig struct {
	Controller Controller
	Port       PortIndex
	Addr       Addr7
}

// PendingMessage is one inbound target-mode frame as handed to a caller.
// DataMax bounds the payload both on the wire and in the per-controller slot.
type PendingMessage struct {
	Source Addr7
	Data   []byte
}

// DataMax is the largest inbound or outbound payload carried inline.
const DataMax = 255

// ---- Operation codes ----

// Op is a wire-stable operation code shared by client and server builds.
type Op uint8

const (
	OpWriteRead              Op = 1
	OpWriteReadBlock         Op = 2
	OpConfigureTargetAddress Op = 3
	OpEnableTargetReceive    Op = 4
	OpDisableTargetReceive   Op = 5
	OpEnableNotification     Op = 6
	OpDisableNotification    Op = 7
	OpGetPendingMessage      Op = 8
)

func (o Op) Known() bool { return o >= OpWriteRead && o <= OpGetPendingMessage }

func (o Op) String() string {
	switch o {
	case OpWriteRead:
		return "write_read"
	case OpWriteReadBlock:
		return "write_read_block"
	case OpConfigureTargetAddress:
		return "configure_target_address"
	case OpEnableTargetReceive:
		return "enable_target_receive"
	case OpDisableTargetReceive:
		return "disable_target_receive"
	case OpEnableNotification:
		return "enable_notification"
	case OpDisableNotification:
		return "disable_notification"
	case OpGetPendingMessage:
		return "get_pending_message"
	default:
		return "unknown"
	}
}
