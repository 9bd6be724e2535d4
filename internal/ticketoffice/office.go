// Package ticketoffice implements the ticket-office worker pool from
// spec.md §4.2: consume TicketRequest messages, validate and stamp
// tickets, and reply on the per-passenger response channel.
package ticketoffice

import (
	"context"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/jwmdev/busstation/internal/config"
	"github.com/jwmdev/busstation/internal/logging"
	"github.com/jwmdev/busstation/internal/station"
)

// serviceTimeMin/Max bound the simulated ticket-sale latency, spec.md
// §4.2 step 4 "simulate service time (a short sleep unless perf mode)".
const (
	serviceTimeMin = 20 * time.Millisecond
	serviceTimeMax = 80 * time.Millisecond
)

// Office is one ticket-office worker, spec.md §4.2.
type Office struct {
	Index int
	ID    uuid.UUID
	State *station.State
	Log   *logging.Logger
	Perf  bool
	RNG   *rand.Rand
}

// New builds an office for slot index idx.
func New(idx int, st *station.State, log *logging.Logger, perf bool, seed int64) *Office {
	return &Office{
		Index: idx,
		ID:    uuid.New(),
		State: st,
		Log:   log,
		Perf:  perf,
		RNG:   rand.New(rand.NewSource(seed)),
	}
}

// Run services requests until ctx is canceled, then drains the inbound
// queue sending a denial to each pending requester so no passenger
// hangs, spec.md §4.2 "At shutdown the office drains its inbound
// queue, sending a denial for each pending request."
func (o *Office) Run(ctx context.Context) {
	now := time.Now()
	o.State.WithLock(func() { o.State.RegisterOffice(o.Index, o.ID, now) })
	o.Log.Log(logging.TicketOffice, "INFO", "office %d (%s) online", o.Index, o.ID)

	heartbeat := time.NewTicker(config.WatchdogPeriod)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			o.drain()
			o.State.WithLock(func() { o.State.ClearOffice(o.Index) })
			o.Log.Log(logging.TicketOffice, "INFO", "office %d shutting down", o.Index)
			return
		case <-heartbeat.C:
			o.State.WithLock(func() { o.State.OfficeHeartbeatTick(o.Index, time.Now()) })
		case req := <-o.State.TicketRequests:
			o.handle(req)
		}
	}
}

func (o *Office) handle(req station.TicketRequest) {
	// Step 2: release the queue slot immediately after dequeuing so
	// the next passenger may enqueue, spec.md §4.2 step 2.
	o.State.TicketSlots.Release(1)

	p := req.Passenger
	resp := station.TicketResponse{Passenger: p}

	if !p.Valid() {
		o.State.WithLock(func() {
			o.State.TicketsDenied++
			o.State.PassengersInOffice--
		})
		resp.Approved = false
		resp.Reason = "invalid passenger record"
		o.State.TicketResponses.Send(p.PID, resp)
		return
	}

	if !o.Perf {
		time.Sleep(serviceTimeMin + time.Duration(o.RNG.Int63n(int64(serviceTimeMax-serviceTimeMin))))
	}

	p.HasTicket = true
	o.State.WithLock(func() {
		o.State.TicketsIssued++
		o.State.TicketsSoldPeople += p.SeatCount
		o.State.PassengersInOffice--
	})
	resp.Approved = true
	o.State.TicketResponses.Send(p.PID, resp)
}

// drain denies every request still sitting in the channel at shutdown.
func (o *Office) drain() {
	for {
		select {
		case req := <-o.State.TicketRequests:
			o.State.TicketSlots.Release(1)
			o.State.WithLock(func() {
				o.State.TicketsDenied++
				o.State.PassengersInOffice--
			})
			o.State.TicketResponses.Send(req.Passenger.PID, station.TicketResponse{
				Passenger: req.Passenger,
				Approved:  false,
				Reason:    "station shutting down",
			})
		default:
			return
		}
	}
}
