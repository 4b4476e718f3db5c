package ipc

import "sync/atomic"

// Notifier is a task's asynchronous wakeup word: a 32-bit pending mask
// plus a capacity-1 signal channel. Posts coalesce — however many arrive
// before the owner runs, the owner observes one signal and the OR of the
// posted masks. The owner drains with Take until it returns zero.
type Notifier struct {
	bits atomic.Uint32
	sig  chan struct{}
}

func newNotifier() *Notifier {
	return &Notifier{sig: make(chan struct{}, 1)}
}

// Post ORs mask into the pending word and queues at most one signal.
// Never blocks; safe from any goroutine including interrupt-style
// callbacks. The mask is stored before the signal is sent, so a woken
// owner always observes it.
func (n *Notifier) Post(mask uint32) {
	n.bits.Or(mask)
	select {
	case n.sig <- struct{}{}:
	default:
	}
}

// Wakeups is the channel the owning task selects on. A receive may be
// spurious (pending word already drained); owners treat that as benign.
func (n *Notifier) Wakeups() <-chan struct{} { return n.sig }

// Take atomically swaps out and returns the pending word.
func (n *Notifier) Take() uint32 { return n.bits.Swap(0) }
