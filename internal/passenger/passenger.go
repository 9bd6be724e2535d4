// Package passenger implements the per-passenger state machine from
// spec.md §4.4: arrival, ticketing, station entry, the boarding loop,
// and the accompanying-minor cooperative subtask.
package passenger

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/jwmdev/busstation/internal/config"
	"github.com/jwmdev/busstation/internal/logging"
	"github.com/jwmdev/busstation/internal/model"
	"github.com/jwmdev/busstation/internal/station"
)

// Worker drives one passenger's state machine and, when the passenger
// has an accompanying minor, the minor's cooperative subtask.
type Worker struct {
	P     *model.Passenger
	State *station.State
	Log   *logging.Logger
	Perf  bool
	RNG   *rand.Rand

	minorMu      sync.Mutex
	minorCond    *sync.Cond
	minorDone    bool
	minorOutcome string
}

// New builds a worker around a freshly randomized passenger.
func New(st *station.State, log *logging.Logger, perf bool, rng *rand.Rand) *Worker {
	w := &Worker{
		P:     model.NewRandom(rng),
		State: st,
		Log:   log,
		Perf:  perf,
		RNG:   rng,
	}
	w.minorCond = sync.NewCond(&w.minorMu)
	return w
}

// Run executes the full state machine. It returns once the passenger
// reaches a terminal state: transported, left early, or turned away at
// a closed station.
func (w *Worker) Run(ctx context.Context) {
	if !w.arrive() {
		return // station_closed: exit without counting against totals
	}

	var minorWG sync.WaitGroup
	if w.P.HasChildWith {
		minorWG.Add(1)
		go func() {
			defer minorWG.Done()
			w.runMinor()
		}()
	}
	boarded := false
	defer func() {
		outcome := "gave_up"
		if boarded {
			outcome = "boarded"
		}
		if w.P.HasChildWith {
			w.signalMinor(outcome)
			minorWG.Wait()
		}
	}()

	if !w.P.IsVIP {
		if !w.ticket(ctx) {
			return
		}
	}
	if !w.enterStation(ctx) {
		return
	}
	boarded = w.boardingLoop(ctx)
}

// arrive implements spec.md §4.4 step 1.
func (w *Worker) arrive() bool {
	var closed bool
	w.State.WithRLock(func() { closed = w.State.StationClosed })
	if closed {
		return false
	}
	w.State.WithLock(func() {
		w.State.TotalPassengersCreated += w.P.SeatCount
		w.State.AdultsCreated++
		if w.P.HasChildWith {
			w.State.ChildrenCreated++
		}
		if w.P.IsVIP {
			w.State.VIPPeopleCreated += w.P.SeatCount
		}
	})
	return true
}

// ticket implements spec.md §4.4 step 2, skipped for VIPs by the
// caller.
func (w *Worker) ticket(ctx context.Context) bool {
	w.State.WithLock(func() { w.State.PassengersInOffice++ })

	if err := w.State.TicketSlots.Acquire(ctx, 1); err != nil {
		w.leftEarlyBeforeOfficeSeen()
		return false
	}

	ch, cancel := w.State.TicketResponses.Register(w.P.PID)
	defer cancel()

	select {
	case w.State.TicketRequests <- station.TicketRequest{Passenger: w.P}:
	case <-ctx.Done():
		w.State.TicketSlots.Release(1)
		w.leftEarlyBeforeOfficeSeen()
		return false
	}

	select {
	case resp := <-ch:
		if !resp.Approved {
			w.State.WithLock(func() { w.State.PassengersLeftEarly += w.P.SeatCount })
			return false
		}
		w.P.HasTicket = true
		return true
	case <-ctx.Done():
		w.State.WithLock(func() { w.State.PassengersLeftEarly += w.P.SeatCount })
		return false
	}
}

// leftEarlyBeforeOfficeSeen accounts for a passenger who never reached
// an office worker, so nobody else will decrement passengers_in_office
// on its behalf.
func (w *Worker) leftEarlyBeforeOfficeSeen() {
	w.State.WithLock(func() {
		w.State.PassengersInOffice--
		w.State.PassengersLeftEarly += w.P.SeatCount
	})
}

// enterStation implements spec.md §4.4 step 3.
func (w *Worker) enterStation(ctx context.Context) bool {
	for attempt := 0; attempt < config.StationEntryMaxRetries; attempt++ {
		if err := w.State.StationEntryGate.Acquire(ctx, 1); err != nil {
			break
		}
		var admitted bool
		w.State.WithLock(func() {
			if w.State.StationOpen {
				w.State.PassengersWaiting += w.P.SeatCount
				admitted = true
			}
		})
		w.State.StationEntryGate.Release(1)
		if admitted {
			return true
		}

		select {
		case <-ctx.Done():
			w.State.WithLock(func() { w.State.PassengersLeftEarly += w.P.SeatCount })
			return false
		case <-time.After(config.RetryTick):
		}
	}
	w.State.WithLock(func() { w.State.PassengersLeftEarly += w.P.SeatCount })
	return false
}

// boardingLoop implements spec.md §4.4 step 4.
func (w *Worker) boardingLoop(ctx context.Context) bool {
	for {
		var activeBus int
		var allowed bool
		w.State.WithRLock(func() {
			activeBus = w.State.ActiveBusID
			allowed = w.State.BoardingAllowed
		})
		if activeBus == station.NoActiveBus || !allowed {
			select {
			case <-ctx.Done():
				w.giveUpWaiting()
				return false
			case <-time.After(config.RetryTick):
			}
			continue
		}

		if err := w.State.BoardingSlots.Acquire(ctx, 1); err != nil {
			w.giveUpWaiting()
			return false
		}

		var ordinal int64
		w.State.WithLock(func() { ordinal = w.State.NextOrdinal(w.P.IsVIP) })

		ch, cancel := w.State.BoardingResponses.Register(w.P.PID)
		req := station.BoardingRequest{Passenger: w.P, BusIDHint: activeBus, Ordinal: ordinal}

		select {
		case w.State.BoardingRequests <- req:
		case <-ctx.Done():
			cancel()
			w.giveUpWaiting()
			return false
		}

		select {
		case resp := <-ch:
			cancel()
			if resp.Approved {
				return true
			}
			if station.Transient(resp.Reason) {
				select {
				case <-ctx.Done():
					w.giveUpWaiting()
					return false
				case <-time.After(config.RetryTick):
				}
				continue
			}
			w.giveUpWaiting()
			return false
		case <-ctx.Done():
			cancel()
			w.giveUpWaiting()
			return false
		}
	}
}

// giveUpWaiting implements spec.md §4.4 step 4's terminal bookkeeping:
// "passengers_waiting -= seat_count (clamped), passengers_left_early
// += seat_count."
func (w *Worker) giveUpWaiting() {
	w.State.WithLock(func() {
		w.State.PassengersWaiting -= w.P.SeatCount
		if w.State.PassengersWaiting < 0 {
			w.State.PassengersWaiting = 0
		}
		w.State.PassengersLeftEarly += w.P.SeatCount
	})
}

// runMinor is the accompanying-minor cooperative subtask from spec.md
// §4.4: it waits on a condition variable until the adult signals the
// outcome, then records it. The minor never boards independently.
func (w *Worker) runMinor() {
	w.minorMu.Lock()
	for !w.minorDone {
		w.minorCond.Wait()
	}
	outcome := w.minorOutcome
	w.minorMu.Unlock()
	w.Log.Log(logging.Passenger, "DEBUG", "minor accompanying %s recorded outcome=%s", w.P.PID, outcome)
}

func (w *Worker) signalMinor(outcome string) {
	w.minorMu.Lock()
	w.minorOutcome = outcome
	w.minorDone = true
	w.minorMu.Unlock()
	w.minorCond.Broadcast()
}
