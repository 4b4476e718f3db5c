// Package ipc is the host-side inter-task fabric the driver subsystem runs
// on: synchronous send/recv/reply exchanges between isolated task loops,
// generation-tagged task handles for restart detection, and payload-less
// asynchronous wakeups. Each task is one goroutine owning one Endpoint.
package ipc

import (
	"sync"
)

// TaskIndex is a task slot number, fixed at world construction.
type TaskIndex uint8

// Generation identifies one incarnation of a restartable task slot.
type Generation uint8

// Handle names one incarnation of a task. Calls through a handle whose
// generation is stale are refused with a restart indication rather than
// reaching the new incarnation.
type Handle struct {
	Index TaskIndex
	Gen   Generation
}

// RawStatus is the raw low-level return word of a Call. The low 8 bits
// carry the peer's one-byte reply status. Bit 31 set means the peer
// restarted; the low 8 bits then carry its current generation instead.
// Decode with Restarted/Code exactly once, at the client boundary.
type RawStatus uint32

const restartedBit RawStatus = 1 << 31

func restarted(gen Generation) RawStatus { return restartedBit | RawStatus(gen) }

// Restarted reports whether the word is a restart indication, and if so
// the peer's current generation.
func (r RawStatus) Restarted() (Generation, bool) {
	if r&restartedBit == 0 {
		return 0, false
	}
	return Generation(r), true
}

// Code returns the ordinary one-byte reply status. Only meaningful when
// Restarted reports false.
func (r RawStatus) Code() uint8 { return uint8(r) }

// World is the registry of task slots. One World per process; tasks are
// spawned once at start and may be restarted (generation bump) later.
type World struct {
	mu    sync.Mutex
	slots []*slot
}

type slot struct {
	gen Generation
	ep  *Endpoint
}

func NewWorld() *World { return &World{} }

// Endpoint is one task's attachment to the world: its request mailbox,
// its notifier, and its own identity.
type Endpoint struct {
	world  *World
	h      Handle
	name   string
	reqQ   chan *Txn
	note   *Notifier
	closed chan struct{}
}

// Spawn allocates the next task slot. The name is for diagnostics only.
func (w *World) Spawn(name string) *Endpoint {
	w.mu.Lock()
	defer w.mu.Unlock()
	ep := &Endpoint{
		world:  w,
		h:      Handle{Index: TaskIndex(len(w.slots))},
		name:   name,
		reqQ:   make(chan *Txn),
		note:   newNotifier(),
		closed: make(chan struct{}),
	}
	w.slots = append(w.slots, &slot{ep: ep})
	return ep
}

// Restart bumps the slot's generation and installs a fresh endpoint.
// In-flight callers blocked on the old incarnation observe a restart
// indication carrying the new generation.
func (w *World) Restart(index TaskIndex) *Endpoint {
	w.mu.Lock()
	defer w.mu.Unlock()
	s := w.slot(index)
	old := s.ep
	s.gen++
	s.ep = &Endpoint{
		world:  w,
		h:      Handle{Index: index, Gen: s.gen},
		name:   old.name,
		reqQ:   make(chan *Txn),
		note:   newNotifier(),
		closed: make(chan struct{}),
	}
	close(old.closed)
	return s.ep
}

func (w *World) slot(index TaskIndex) *slot {
	if int(index) >= len(w.slots) {
		// A handle that never existed is a host contract violation, not a
		// recoverable peer condition.
		panic("ipc: unknown task index")
	}
	return w.slots[index]
}

// Notify delivers an asynchronous wakeup to dst: a bitwise OR into its
// pending word plus at most one queued signal. Never blocks. A stale
// handle drops the wakeup and reports false.
func (w *World) Notify(dst Handle, mask uint32) bool {
	w.mu.Lock()
	s := w.slot(dst.Index)
	ep := s.ep
	ok := s.gen == dst.Gen
	w.mu.Unlock()
	if !ok {
		return false
	}
	ep.note.Post(mask)
	return true
}

func (e *Endpoint) Handle() Handle { return e.h }
func (e *Endpoint) Name() string   { return e.name }

// Requests is the mailbox the owning task loop receives from. Every Txn
// taken from it must be replied to exactly once.
func (e *Endpoint) Requests() <-chan *Txn { return e.reqQ }

// Notifier exposes the task's wakeup word.
func (e *Endpoint) Notifier() *Notifier { return e.note }

// Call performs one synchronous request/response round trip to dst. It
// blocks until the peer replies (or is found restarted) and returns the
// raw status word plus the number of response bytes copied into resp.
// Requests from one caller are serviced in issue order.
func (e *Endpoint) Call(dst Handle, req, resp []byte) (RawStatus, int) {
	w := e.world
	w.mu.Lock()
	s := w.slot(dst.Index)
	if s.gen != dst.Gen {
		gen := s.gen
		w.mu.Unlock()
		return restarted(gen), 0
	}
	ep := s.ep
	w.mu.Unlock()

	tx := &Txn{From: e.h, Req: req, resp: resp, done: make(chan txnResult, 1)}
	select {
	case ep.reqQ <- tx:
	case <-ep.closed:
		return restarted(w.genOf(dst.Index)), 0
	}
	select {
	case r := <-tx.done:
		return RawStatus(r.status), r.n
	case <-ep.closed:
		// The peer restarted while servicing. Prefer a reply that raced in.
		select {
		case r := <-tx.done:
			return RawStatus(r.status), r.n
		default:
			return restarted(w.genOf(dst.Index)), 0
		}
	}
}

func (w *World) genOf(index TaskIndex) Generation {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.slot(index).gen
}

// Txn is one in-flight synchronous exchange, held by the server between
// Recv and Reply.
type Txn struct {
	From Handle
	Req  []byte // request bytes; valid until Reply, must not be retained
	resp []byte
	done chan txnResult
}

type txnResult struct {
	status uint8
	n      int
}

// RespCap is the caller's declared response capacity.
func (t *Txn) RespCap() int { return len(t.resp) }

// Reply completes the exchange: a bounded copy of data into the caller's
// response buffer plus the status byte. Must be called exactly once per
// received Txn. Bytes beyond the caller's capacity are dropped.
func (t *Txn) Reply(status uint8, data []byte) {
	n := copy(t.resp, data)
	t.done <- txnResult{status: status, n: n}
}
