// Package mockhw is a fully simulated hardware family: an in-memory
// register model per controller with programmable peer devices, inbound
// frame injection for target mode, and fault injection for bus-recovery
// paths. It backs the package tests and the host demo binary.
package mockhw

import (
	"context"
	"sync"

	"i2cdriver-go/errcode"
	"i2cdriver-go/hw"
	"i2cdriver-go/types"
	"i2cdriver-go/wire"
)

// DeviceFunc simulates one controller-mode peer: it observes the write
// phase and fills the read phase, returning the byte count produced.
type DeviceFunc func(w []byte, r []byte) (int, error)

// Phase records one half of a transaction as seen at the adapter, in
// execution order.
type Phase struct {
	Kind string // "write" or "read"
	Addr types.Addr7
	Data []byte // write bytes, or read-phase result
}

type ctrlSim struct {
	mu sync.Mutex

	devs map[types.Addr7]DeviceFunc

	targetAddr types.Addr7
	configured bool
	receiveOn  bool

	ready bool
	rxSrc types.Addr7
	rxBuf [types.DataMax]byte
	rxN   int

	lockNext bool // next WriteRead fails BusLocked

	phases []Phase
	acks   int
}

// Family implements hw.Family over the simulation.
type Family struct {
	mu   sync.Mutex
	sims map[types.Controller]*ctrlSim
	irq  hw.InterruptFunc
}

func New() *Family {
	return &Family{sims: map[types.Controller]*ctrlSim{}}
}

// SetInterruptFunc wires the raw interrupt line to the server's intake.
func (f *Family) SetInterruptFunc(fn hw.InterruptFunc) {
	f.mu.Lock()
	f.irq = fn
	f.mu.Unlock()
}

func (f *Family) sim(c types.Controller) *ctrlSim {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sims[c]
	if !ok {
		s = &ctrlSim{devs: map[types.Addr7]DeviceFunc{}}
		f.sims[c] = s
	}
	return s
}

// ---- Simulation controls ----

// AddDevice attaches a simulated peer at addr on controller c.
func (f *Family) AddDevice(c types.Controller, addr types.Addr7, fn DeviceFunc) {
	s := f.sim(c)
	s.mu.Lock()
	s.devs[addr] = fn
	s.mu.Unlock()
}

// EchoDevice answers a read phase with the first write byte repeated.
func EchoDevice() DeviceFunc {
	return func(w, r []byte) (int, error) {
		fill := byte(0)
		if len(w) > 0 {
			fill = w[0]
		}
		for i := range r {
			r[i] = fill
		}
		return len(r), nil
	}
}

// InjectBusLock makes the next controller-mode transaction on c fail as a
// stuck bus.
func (f *Family) InjectBusLock(c types.Controller) {
	s := f.sim(c)
	s.mu.Lock()
	s.lockNext = true
	s.mu.Unlock()
}

// InjectTargetFrame simulates an external initiator addressing the
// configured target: the frame lands in the hardware buffer (overwriting
// any unread one) and the interrupt line fires. Returns false when the
// controller is not acknowledging inbound addressing.
func (f *Family) InjectTargetFrame(c types.Controller, src types.Addr7, data []byte) bool {
	s := f.sim(c)
	s.mu.Lock()
	if !s.receiveOn {
		s.mu.Unlock()
		return false
	}
	s.rxSrc = src
	s.rxN = copy(s.rxBuf[:], data)
	s.ready = true
	s.mu.Unlock()

	f.mu.Lock()
	irq := f.irq
	f.mu.Unlock()
	if irq != nil {
		irq(c)
	}
	return true
}

// Phases returns the write/read phases observed on c, in order.
func (f *Family) Phases(c types.Controller) []Phase {
	s := f.sim(c)
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Phase, len(s.phases))
	copy(out, s.phases)
	return out
}

// Acks returns how many interrupt acknowledgements c has seen.
func (f *Family) Acks(c types.Controller) int {
	s := f.sim(c)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.acks
}

// ---- hw.Family ----

func (f *Family) WriteRead(ctx context.Context, c types.Controller, addr types.Addr7, w wire.ReadLease, r wire.WriteLease) (int, error) {
	s := f.sim(c)
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return 0, errcode.BusLocked
	}
	if s.lockNext {
		s.lockNext = false
		return 0, errcode.BusLocked
	}
	dev, ok := s.devs[addr]
	if !ok {
		return 0, errcode.NoDevice
	}

	var wbuf [types.DataMax]byte
	wn := w.Read(0, wbuf[:w.Len()])
	s.phases = append(s.phases, Phase{Kind: "write", Addr: addr, Data: append([]byte(nil), wbuf[:wn]...)})

	var rbuf [types.DataMax]byte
	rn, err := dev(wbuf[:wn], rbuf[:r.Len()])
	if err != nil {
		return 0, err
	}
	if ctx.Err() != nil {
		// Completed only after the caller's transaction window expired;
		// report it the way stuck-bus hardware would.
		return 0, errcode.BusLocked
	}
	s.phases = append(s.phases, Phase{Kind: "read", Addr: addr, Data: append([]byte(nil), rbuf[:rn]...)})
	return r.Write(0, rbuf[:rn]), nil
}

func (f *Family) ConfigureTarget(c types.Controller, addr types.Addr7) error {
	s := f.sim(c)
	s.mu.Lock()
	defer s.mu.Unlock()
	if !addr.Valid() {
		if addr.Reserved() {
			return errcode.ReservedAddress
		}
		return errcode.BadArgument
	}
	if s.configured {
		return errcode.AddressInUse
	}
	s.targetAddr = addr
	s.configured = true
	return nil
}

func (f *Family) EnableTargetReceive(c types.Controller) error {
	s := f.sim(c)
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.configured {
		return errcode.NotConfigured
	}
	s.receiveOn = true
	return nil
}

func (f *Family) DisableTargetReceive(c types.Controller) {
	s := f.sim(c)
	s.mu.Lock()
	s.receiveOn = false
	s.configured = false
	s.mu.Unlock()
}

func (f *Family) TargetDataReady(c types.Controller) bool {
	s := f.sim(c)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ready
}

func (f *Family) DrainTargetData(c types.Controller, dst []byte) (types.Addr7, int) {
	s := f.sim(c)
	s.mu.Lock()
	defer s.mu.Unlock()
	n := copy(dst, s.rxBuf[:s.rxN])
	s.ready = false
	return s.rxSrc, n
}

func (f *Family) AcknowledgeInterrupts(c types.Controller) {
	s := f.sim(c)
	s.mu.Lock()
	s.acks++
	s.mu.Unlock()
}

func (f *Family) ResetBus(c types.Controller) error {
	s := f.sim(c)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lockNext = false
	s.configured = false
	s.receiveOn = false
	s.ready = false
	return nil
}
