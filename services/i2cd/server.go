// Package i2cd is the generic, hardware-agnostic driver task: one
// single-threaded loop per task that services client requests and
// interrupt-sourced events for the controllers it owns. All chip
// specifics live behind the hw.Family contract.
package i2cd

import (
	"context"
	"sync/atomic"
	"time"

	"i2cdriver-go/hw"
	"i2cdriver-go/ipc"
	"i2cdriver-go/types"
	"i2cdriver-go/x/mathx"
	"i2cdriver-go/x/timex"
)

// Config declares what one driver task owns and its operating bounds.
type Config struct {
	Controllers []types.Controller

	// HWTimeout bounds one controller-mode hardware transaction. A hung
	// bus surfaces as BusLocked after recovery instead of stalling the
	// task forever.
	HWTimeout time.Duration

	// IRQQueue is the interrupt intake depth.
	IRQQueue int
}

type subscription struct {
	h    ipc.Handle
	mask uint32
}

type ctrlState struct {
	configured bool
	target     types.TargetConfig
	receiveOn  bool

	// Single-slot pending message buffer. A new inbound frame overwrites
	// an unconsumed one; lossy by design, no queueing.
	pendFull bool
	pendSrc  types.Addr7
	pendBuf  [types.DataMax]byte
	pendN    int
	pendTSms int64

	sub *subscription
}

// Server is one driver task instance. Construct once at task start;
// lifetime equals task lifetime. Not safe for use from multiple
// goroutines except via Interrupt.
type Server struct {
	world *ipc.World
	ep    *ipc.Endpoint
	fam   hw.Family
	cfg   Config

	ctrl map[types.Controller]*ctrlState

	irqQ     chan types.Controller
	irqDrops atomic.Uint32

	resp [1 + types.DataMax]byte
}

func New(world *ipc.World, ep *ipc.Endpoint, fam hw.Family, cfg Config) *Server {
	if cfg.HWTimeout <= 0 {
		cfg.HWTimeout = 100 * time.Millisecond
	}
	cfg.HWTimeout = mathx.Clamp(cfg.HWTimeout, 5*time.Millisecond, 2*time.Second)
	cfg.IRQQueue = mathx.Clamp(cfg.IRQQueue, 8, 256)

	s := &Server{
		world: world,
		ep:    ep,
		fam:   fam,
		cfg:   cfg,
		ctrl:  map[types.Controller]*ctrlState{},
		irqQ:  make(chan types.Controller, cfg.IRQQueue),
	}
	for _, c := range cfg.Controllers {
		s.ctrl[c] = &ctrlState{}
	}
	return s
}

// Interrupt is the raw interrupt entry (hw.InterruptFunc). Safe from
// interrupt context: a non-blocking enqueue with a drop counter, never a
// wait. Dropped interrupts are recovered by the ready-poll on the next
// serviced one.
func (s *Server) Interrupt(c types.Controller) {
	select {
	case s.irqQ <- c:
	default:
		s.irqDrops.Add(1)
	}
}

// IRQDrops reports interrupts dropped at intake.
func (s *Server) IRQDrops() uint32 { return s.irqDrops.Load() }

// Run is the task loop. It suspends only while waiting for the next
// event; a controller-mode transaction blocks the loop for its duration.
func (s *Server) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			println("[i2cd] stopping:", s.ep.Name())
			return
		case tx := <-s.ep.Requests():
			s.handle(ctx, tx)
		case c := <-s.irqQ:
			s.serviceIRQ(c)
		}
	}
}

// serviceIRQ turns a raw interrupt into a buffered message plus at most
// one coalesced wakeup. The message is stored before the subscriber is
// told to look.
func (s *Server) serviceIRQ(c types.Controller) {
	st, ok := s.ctrl[c]
	if !ok {
		return
	}
	if s.fam.TargetDataReady(c) {
		if st.pendFull {
			println("[i2cd] pending overwrite ctrl", int(c),
				"held_ms", int(timex.NowMs()-st.pendTSms))
		}
		st.pendSrc, st.pendN = s.fam.DrainTargetData(c, st.pendBuf[:])
		st.pendFull = true
		st.pendTSms = timex.NowMs()
		if st.sub != nil {
			s.world.Notify(st.sub.h, st.sub.mask)
		}
	}
	s.fam.AcknowledgeInterrupts(c)
}

// recoverBus runs the stuck-bus sequence: adapter reset, then back to
// idle with target configuration cleared. Callers see BusLocked and must
// reconfigure target mode.
func (s *Server) recoverBus(c types.Controller, st *ctrlState) {
	println("[i2cd] bus reset ctrl", int(c))
	_ = s.fam.ResetBus(c)
	st.configured = false
	st.receiveOn = false
	st.target = types.TargetConfig{}
}
