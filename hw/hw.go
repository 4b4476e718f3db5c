// Package hw declares the hardware-capability contract one silicon family
// implements and the generic server loop consumes. Exactly one Family
// instance services all controllers a driver task owns.
package hw

import (
	"context"

	"i2cdriver-go/types"
	"i2cdriver-go/wire"
)

// Family abstracts one hardware family's controllers.
//
// Implementations must serialize register access per controller: no two
// operations on the same controller may run register I/O simultaneously,
// while independent controllers proceed without mutual blocking. All
// errors surface as errcode values; hardware-native codes never cross
// this boundary.
type Family interface {
	// WriteRead performs a write phase followed by a read phase on one
	// controller, blocking until hardware completion, ctx expiry, or an
	// internal timeout. It returns the number of bytes placed into r.
	WriteRead(ctx context.Context, c types.Controller, addr types.Addr7, w wire.ReadLease, r wire.WriteLease) (int, error)

	// ConfigureTarget programs target-mode address match logic. Fails
	// AddressInUse if the controller already has a target configured,
	// ReservedAddress/BadArgument for unusable addresses, NotSupported
	// if the controller lacks target-mode hardware.
	ConfigureTarget(c types.Controller, addr types.Addr7) error

	// EnableTargetReceive starts acknowledging inbound addressing.
	// Requires a prior ConfigureTarget.
	EnableTargetReceive(c types.Controller) error

	// DisableTargetReceive stops acknowledging inbound addressing and
	// releases the address match, so a later ConfigureTarget succeeds.
	// No-op when not configured.
	DisableTargetReceive(c types.Controller)

	// TargetDataReady is a non-blocking poll used inside the interrupt
	// path only.
	TargetDataReady(c types.Controller) bool

	// DrainTargetData copies out exactly one received frame and clears
	// the hardware-side ready condition. Safe to call exactly once per
	// interrupt occurrence. Returns the frame's source address and the
	// byte count copied into dst.
	DrainTargetData(c types.Controller, dst []byte) (types.Addr7, int)

	// AcknowledgeInterrupts clears and re-arms hardware interrupt
	// sources after software has consumed the condition.
	AcknowledgeInterrupts(c types.Controller)

	// ResetBus recovers a stuck bus and re-establishes idle state. It
	// does not restore prior target configuration; the caller must
	// reconfigure.
	ResetBus(c types.Controller) error
}

// InterruptFunc receives raw controller interrupts from a family. It is
// invoked from interrupt context: it must not block and must return
// promptly.
type InterruptFunc func(types.Controller)
