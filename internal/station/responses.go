package station

import (
	"sync"

	"github.com/google/uuid"
)

// Responses is the dedicated, unbounded-by-construction response
// registry from spec.md §5: "Response queues are dedicated and
// unbounded by design — responses must never be refused." Each pid
// gets a buffered-1 channel registered before the request is sent and
// unregistered by the passenger itself.
type Responses[T any] struct {
	m sync.Map // uuid.UUID -> chan T
}

// Register creates (or replaces) the response channel for pid and
// returns it along with a function that removes the registration.
func (r *Responses[T]) Register(pid uuid.UUID) (chan T, func()) {
	ch := make(chan T, 1)
	r.m.Store(pid, ch)
	return ch, func() { r.m.Delete(pid) }
}

// Send delivers resp to pid's registered channel, if any. A pid with
// no registered channel (already gone) is silently dropped — the
// passenger goroutine that would have read it has already exited.
func (r *Responses[T]) Send(pid uuid.UUID, resp T) {
	v, ok := r.m.Load(pid)
	if !ok {
		return
	}
	ch := v.(chan T)
	select {
	case ch <- resp:
	default:
		// Channel is buffered 1 and only ever written once per
		// registration; a full channel means a duplicate send, which
		// should never happen but must never block the sender.
	}
}
