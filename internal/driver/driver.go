// Package driver implements the per-bus state machine from spec.md
// §4.3: active-bus discipline, boarding admission, departure, trip
// simulation, and driver liveness.
package driver

import (
	"container/heap"
	"context"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/jwmdev/busstation/internal/config"
	"github.com/jwmdev/busstation/internal/logging"
	"github.com/jwmdev/busstation/internal/station"
)

// Driver owns one bus, spec.md §4.3.
type Driver struct {
	BusID int
	ID    uuid.UUID

	State *station.State
	Log   *logging.Logger

	Perf       bool
	FullDepart bool // the "depart-when-full" option, spec.md §6
	RNG        *rand.Rand

	crashed bool // test-only hook, see SimulateCrash
}

// New builds a driver for busID.
func New(busID int, st *station.State, log *logging.Logger, perf, fullDepart bool, seed int64) *Driver {
	return &Driver{
		BusID:      busID,
		ID:         uuid.New(),
		State:      st,
		Log:        log,
		Perf:       perf,
		FullDepart: fullDepart,
		RNG:        rand.New(rand.NewSource(seed)),
	}
}

// SimulateCrash is a test-only hook that makes Run stop updating its
// heartbeat and return on the next poll, so tests can exercise the
// watchdog's driver-reassignment path (spec.md §8 scenario 4) without
// an OS-level kill.
func (d *Driver) SimulateCrash() { d.crashed = true }

// Run operates the bus until ctx is canceled or the shutdown condition
// from spec.md §4.3 ("running=false AND not (station_closed AND
// passengers_waiting>0)") is observed.
func (d *Driver) Run(ctx context.Context) {
	now := time.Now()
	d.State.WithLock(func() {
		d.State.RegisterDriver(d.BusID, d.ID, now)
		d.claimIfEligibleLocked(now)
	})
	d.Log.Log(logging.Driver, "INFO", "driver for bus %d (%s) online", d.BusID, d.ID)
	defer func() {
		d.State.WithLock(func() { d.State.ClearDriver(d.BusID) })
		d.Log.Log(logging.Driver, "INFO", "driver for bus %d shutting down", d.BusID)
	}()

	heartbeat := time.NewTicker(config.WatchdogPeriod)
	defer heartbeat.Stop()
	poll := time.NewTicker(config.RetryTick)
	defer poll.Stop()

	var q boardingQueue
	heap.Init(&q)

	for {
		if d.shouldExit() || d.crashed {
			return
		}

		var reqCh chan station.BoardingRequest
		if d.isActive() {
			reqCh = d.State.BoardingRequests
		}

		if q.Len() == 0 {
			select {
			case <-ctx.Done():
				return
			case <-heartbeat.C:
				d.beat()
			case <-poll.C:
			case req, ok := <-reqCh:
				if ok {
					d.State.BoardingSlots.Release(1)
					heap.Push(&q, req)
				}
			}
		} else {
			d.drainAvailable(reqCh, &q)
			req := heap.Pop(&q).(station.BoardingRequest)
			d.serviceBoarding(req)
		}

		if d.isActive() && d.checkDeparture(time.Now()) {
			d.depart(ctx, &q)
		}
	}
}

// drainAvailable moves every BoardingRequest currently sitting in the
// channel into q without blocking, so the next Pop reflects VIP
// priority across everything that has arrived so far.
func (d *Driver) drainAvailable(reqCh chan station.BoardingRequest, q *boardingQueue) {
	if reqCh == nil {
		return
	}
	for {
		select {
		case req := <-reqCh:
			d.State.BoardingSlots.Release(1)
			heap.Push(q, req)
		default:
			return
		}
	}
}

func (d *Driver) beat() {
	if d.crashed {
		return
	}
	d.State.WithLock(func() { d.State.DriverHeartbeatTick(d.BusID, time.Now()) })
}

func (d *Driver) isActive() bool {
	var active bool
	d.State.WithRLock(func() { active = d.State.ActiveBusID == d.BusID })
	return active
}

func (d *Driver) shouldExit() bool {
	var exit bool
	d.State.WithRLock(func() {
		running := d.State.Running
		obliged := d.State.StationClosed && d.State.PassengersWaiting > 0
		exit = !running && !obliged
	})
	return exit
}

// claimIfEligibleLocked claims active-bus status if the slot is free
// or pointing at a bus that is no longer at station, spec.md §4.3 "On
// return: if active_bus_id=NONE or its referent is no longer at
// station, claim it." Must be called with the lock held.
func (d *Driver) claimIfEligibleLocked(now time.Time) {
	cur := d.State.ActiveBusID
	if cur == station.NoActiveBus || !d.State.Buses[cur].AtStation {
		d.State.ActiveBusID = d.BusID
		d.State.Buses[d.BusID].DepartureTime = now.Add(config.BoardingInterval)
	}
}

// serviceBoarding applies the admission rule from spec.md §4.3 to one
// request and replies on the boarding-response queue.
func (d *Driver) serviceBoarding(req station.BoardingRequest) {
	p := req.Passenger
	resp := station.BoardingResponse{BusID: d.BusID}

	var admit bool
	d.State.WithLock(func() {
		if !d.State.Running {
			resp.Reason = station.ReasonTeardown
			return
		}
		if !p.HasTicket && !p.IsVIP {
			resp.Reason = station.ReasonNoTicket
			return
		}
		if !d.State.BoardingAllowed {
			resp.Reason = station.ReasonBoardingClosed
			return
		}
		b := d.State.Buses[d.BusID]
		if !b.AtStation {
			resp.Reason = station.ReasonNotAtStation
			return
		}
		if !b.BoardingOpen {
			resp.Reason = station.ReasonBoardingNotOpen
			return
		}
		if b.PassengerCount+p.SeatCount > config.BusCapacity {
			resp.Reason = station.ReasonFull
			return
		}
		if p.HasBike && b.BikeCount >= config.BikeCapacity {
			resp.Reason = station.ReasonBikeFull
			return
		}
		b.EnteringCount++
		admit = true
	})

	if !admit {
		d.State.BoardingResponses.Send(p.PID, resp)
		return
	}

	gate := d.State.PassengerGate
	if p.HasBike {
		gate = d.State.BikeGate
	}
	gate.Acquire(context.Background(), 1)
	if !d.Perf {
		time.Sleep(time.Duration(p.SeatCount) * 15 * time.Millisecond)
	}

	d.State.WithLock(func() {
		b := d.State.Buses[d.BusID]
		b.PassengerCount += p.SeatCount
		if p.HasBike {
			b.BikeCount++
		}
		b.EnteringCount--
		d.State.PassengersWaiting -= p.SeatCount
		if d.State.PassengersWaiting < 0 {
			d.State.PassengersWaiting = 0
		}
		d.State.BoardedPeople += p.SeatCount
		if p.IsVIP {
			d.State.BoardedVIPPeople += p.SeatCount
		}
	})
	gate.Release(1)

	p.AssignedBus = d.BusID
	resp.Approved = true
	d.State.BoardingResponses.Send(p.PID, resp)
}

// checkDeparture evaluates spec.md §4.3's departure decision. Must be
// called without the lock held.
func (d *Driver) checkDeparture(now time.Time) bool {
	var depart bool
	d.State.WithRLock(func() {
		b := d.State.Buses[d.BusID]
		if b.PassengerCount >= config.BusCapacity && d.FullDepart {
			depart = true
			return
		}
		if !b.DepartureTime.IsZero() && !now.Before(b.DepartureTime) && b.PassengerCount > 0 {
			depart = true
			return
		}
		if b.ForceDepart && b.PassengerCount > 0 {
			depart = true
		}
	})
	return depart
}

// depart implements spec.md §4.3's departure/trip/return sequence:
// hand off active-bus status first, wait for entering passengers to
// clear the door, then leave, travel, and return.
func (d *Driver) depart(ctx context.Context, q *boardingQueue) {
	now := time.Now()
	d.State.WithLock(func() {
		d.handOffActiveLocked()
	})

	// Requests still queued for this bus are answered with a transient
	// not-at-station denial, so their passengers re-poll active_bus_id
	// and resend.
	for _, req := range *q {
		d.State.BoardingResponses.Send(req.Passenger.PID, station.BoardingResponse{BusID: d.BusID, Reason: station.ReasonNotAtStation})
	}
	*q = (*q)[:0]

	for {
		var clear bool
		d.State.WithRLock(func() { clear = d.State.Buses[d.BusID].EnteringCount == 0 })
		if clear {
			break
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(config.RetryTick):
		}
	}

	d.State.WithLock(func() {
		b := d.State.Buses[d.BusID]
		b.BoardingOpen = false
		b.AtStation = false
		b.ForceDepart = false
		minD, maxD := config.MinReturnTime, config.MaxReturnTime
		b.ReturnTime = now.Add(minD + time.Duration(d.RNG.Int63n(int64(maxD-minD))))
		d.State.PassengersTransported += b.PassengerCount
	})

	d.Log.Log(logging.Driver, "INFO", "bus %d departing with passengers", d.BusID)
	d.simulateTrip(ctx)

	d.State.WithLock(func() {
		now := time.Now()
		d.State.Buses[d.BusID].ResetForArrival(now, config.BoardingInterval)
		d.claimIfEligibleLocked(now)
	})
	d.Log.Log(logging.Driver, "INFO", "bus %d returned to station", d.BusID)
}

// handOffActiveLocked picks the next active bus by round-robin among
// buses at station, starting just after this one, spec.md §4.3: "it
// first picks the next active bus ... if none, it sets
// active_bus_id=NONE. Only then does it depart." Must be called with
// the lock held.
func (d *Driver) handOffActiveLocked() {
	if d.State.ActiveBusID != d.BusID {
		return
	}
	next := station.NoActiveBus
	for off := 1; off <= config.MaxBuses; off++ {
		j := (d.BusID + off) % config.MaxBuses
		if j == d.BusID {
			continue
		}
		if d.State.Buses[j].AtStation {
			next = j
			break
		}
	}
	d.State.ActiveBusID = next
	if next != station.NoActiveBus {
		d.State.Buses[next].DepartureTime = time.Now().Add(config.BoardingInterval)
	}
}

// simulateTrip sleeps until the bus's return_time, or a token sleep in
// perf mode, or returns early if ctx is canceled.
func (d *Driver) simulateTrip(ctx context.Context) {
	if d.Perf {
		select {
		case <-ctx.Done():
		case <-time.After(5 * time.Millisecond):
		}
		return
	}
	var wait time.Duration
	d.State.WithRLock(func() { wait = time.Until(d.State.Buses[d.BusID].ReturnTime) })
	if wait < 0 {
		wait = 0
	}
	select {
	case <-ctx.Done():
	case <-time.After(wait):
	}
}
