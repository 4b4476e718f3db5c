// Package driversio maps the hardware-capability contract onto buses
// exposed through the tinygo.org/x/drivers I2C shape. It covers
// controller-mode traffic only; target mode needs family-specific
// register support and reports NotSupported here.
package driversio

import (
	"context"
	"sync"

	"tinygo.org/x/drivers"

	"i2cdriver-go/errcode"
	"i2cdriver-go/hw"
	"i2cdriver-go/types"
	"i2cdriver-go/wire"
)

var _ hw.Family = (*Family)(nil)

// BusFactory resolves an owned controller id to its underlying bus.
type BusFactory interface {
	ByController(types.Controller) (drivers.I2C, bool)
}

type ctrlBus struct {
	mu  sync.Mutex
	bus drivers.I2C
	w   [types.DataMax]byte
	r   [types.DataMax]byte
}

// Family implements hw.Family over a BusFactory.
type Family struct {
	mu    sync.Mutex
	buses BusFactory
	ctrls map[types.Controller]*ctrlBus
}

func New(buses BusFactory) *Family {
	return &Family{buses: buses, ctrls: map[types.Controller]*ctrlBus{}}
}

func (f *Family) ctrl(c types.Controller) (*ctrlBus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cb, ok := f.ctrls[c]
	if !ok {
		bus, found := f.buses.ByController(c)
		if !found {
			return nil, errcode.BadArgument
		}
		cb = &ctrlBus{bus: bus}
		f.ctrls[c] = cb
	}
	return cb, nil
}

func (f *Family) WriteRead(ctx context.Context, c types.Controller, addr types.Addr7, w wire.ReadLease, r wire.WriteLease) (int, error) {
	cb, err := f.ctrl(c)
	if err != nil {
		return 0, err
	}
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return 0, errcode.BusLocked
	}
	wn := w.Read(0, cb.w[:w.Len()])
	rn := r.Len()
	if err := cb.bus.Tx(uint16(addr), cb.w[:wn], cb.r[:rn]); err != nil {
		// drivers.I2C gives no structured NACK/arbitration detail; the
		// generic bus fault is the honest mapping.
		return 0, &errcode.E{C: errcode.BusError, Op: "tx", Err: err}
	}
	return r.Write(0, cb.r[:rn]), nil
}

func (f *Family) ConfigureTarget(types.Controller, types.Addr7) error {
	return errcode.NotSupported
}

func (f *Family) EnableTargetReceive(types.Controller) error {
	return errcode.NotSupported
}

func (f *Family) DisableTargetReceive(types.Controller) {}

func (f *Family) TargetDataReady(types.Controller) bool { return false }

func (f *Family) DrainTargetData(types.Controller, []byte) (types.Addr7, int) {
	return 0, 0
}

func (f *Family) AcknowledgeInterrupts(types.Controller) {}

func (f *Family) ResetBus(types.Controller) error { return errcode.NotSupported }
