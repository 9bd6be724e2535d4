// Package controller owns the coordination substrate's lifecycle: it
// initializes the shared station.State, processes admin signals,
// watches driver liveness, and decides termination, per spec.md §4.1.
package controller

import (
	"context"
	"time"

	"github.com/jwmdev/busstation/internal/config"
	"github.com/jwmdev/busstation/internal/logging"
	"github.com/jwmdev/busstation/internal/station"
)

// AdminSignal is one of the three admin signals from spec.md §4.1/§6.
type AdminSignal int

const (
	EarlyDepart AdminSignal = iota
	CloseStation
	Shutdown
)

// Controller is the single owner of the station.State lifecycle.
type Controller struct {
	State *station.State
	Log   *logging.Logger
	Admin chan AdminSignal

	closeOnce bool
}

// New initializes the coordination substrate, spec.md §4.1 Initialize:
// allocate shared state, zero counters, mark every bus at_station, set
// active_bus_id=0, publish process identity (the log line below stands
// in for "publish process identity" — there is no PID to publish in a
// single-process simulation, only a started-at timestamp).
func New(log *logging.Logger) *Controller {
	c := &Controller{
		State: station.New(),
		Log:   log,
		Admin: make(chan AdminSignal, 8),
	}
	c.Log.Log(logging.Master, "INFO", "controller initialized: %d buses, %d ticket offices", config.MaxBuses, config.TicketOffices)
	return c
}

// ProcessAdminSignal applies one admin signal to the shared state,
// spec.md §4.1.
func (c *Controller) ProcessAdminSignal(sig AdminSignal) {
	switch sig {
	case EarlyDepart:
		c.processEarlyDepart()
	case CloseStation:
		c.processCloseStation()
	case Shutdown:
		c.State.WithLock(func() { c.State.Running = false })
		c.Log.Log(logging.Master, "WARN", "shutdown signal received")
	}
}

// processEarlyDepart forwards a one-shot, rearming force-depart cue to
// every live driver that has at least one passenger, spec.md §4.1 and
// the Open Question resolved in DESIGN.md ("one-shot, rearms on next
// signal").
func (c *Controller) processEarlyDepart() {
	now := time.Now()
	var affected int
	c.State.WithLock(func() {
		for i := 0; i < config.MaxBuses; i++ {
			if !c.State.DriverLive(i, now) {
				continue
			}
			b := c.State.Buses[i]
			if b.PassengerCount > 0 {
				b.ForceDepart = true
				affected++
			}
		}
	})
	c.Log.Log(logging.Dispatcher, "INFO", "early-depart signal forwarded to %d driver(s)", affected)
}

// processCloseStation is terminal and idempotent, spec.md §4.1.
func (c *Controller) processCloseStation() {
	if c.closeOnce {
		return
	}
	c.closeOnce = true
	c.State.WithLock(func() {
		c.State.StationClosed = true
		c.State.StationOpen = false
		c.State.SpawningStopped = true
	})
	// The station-entry gate and the ticket slots are not saturated
	// (a semaphore.Weighted cannot be released beyond what is held).
	// Passengers already blocked on them are not woken early: they
	// proceed as the gate frees and the offices consume requests, and
	// they see the closed station at the station-entry check.
	c.Log.Log(logging.Master, "WARN", "station closed: no further arrivals will be admitted")
}

// Terminate? from spec.md §4.1.
func (c *Controller) Terminate() bool {
	var done bool
	c.State.WithRLock(func() {
		if !c.State.Running {
			done = true
			return
		}
		if !c.State.SpawningStopped {
			return
		}
		if c.State.PassengersWaiting != 0 || c.State.PassengersInOffice != 0 {
			return
		}
		for i := 0; i < config.MaxBuses; i++ {
			b := c.State.Buses[i]
			if !b.AtStation || b.PassengerCount != 0 || b.EnteringCount != 0 {
				return
			}
		}
		done = true
	})
	return done
}

// RunWatchdog runs the periodic liveness/reassignment/force-depart tick
// (spec.md §4.1) until ctx is canceled.
func (c *Controller) RunWatchdog(ctx context.Context) {
	ticker := time.NewTicker(config.WatchdogPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.tick()
		case sig := <-c.Admin:
			c.ProcessAdminSignal(sig)
		}
	}
}

func (c *Controller) tick() {
	now := time.Now()
	c.State.WithLock(func() {
		c.reassignDeadDrivers(now)
		c.forceDepartOverdue(now)
		report := c.State.CheckInvariants()
		if !report.OK {
			for _, d := range report.Details {
				c.Log.Log(logging.Master, "ERROR", "invariant violation: %s", d)
			}
		}
	})
	if c.Log.Mode() != logging.Minimal {
		c.logSummary()
	}
}

// reassignDeadDrivers implements spec.md §4.1 watchdog step 1. Must be
// called with the lock held.
func (c *Controller) reassignDeadDrivers(now time.Time) {
	for i := 0; i < config.MaxBuses; i++ {
		if c.State.DriverLive(i, now) {
			continue
		}
		if !c.State.DriverEverSeen(i) {
			continue // no driver has attached to this slot yet
		}
		b := c.State.Buses[i]
		if !b.BoardingOpen && c.State.ActiveBusID != i {
			continue // already reconciled on a prior tick
		}
		c.State.ClearDriver(i)
		b.BoardingOpen = false

		if c.State.ActiveBusID != i {
			continue
		}
		next := station.NoActiveBus
		for j := 0; j < config.MaxBuses; j++ {
			if j == i {
				continue
			}
			if c.State.DriverLive(j, now) && c.State.Buses[j].AtStation {
				next = j
				break
			}
		}
		c.State.ActiveBusID = next
		if next != station.NoActiveBus {
			c.State.Buses[next].DepartureTime = now.Add(config.BoardingInterval)
			c.Log.Log(logging.Master, "WARN", "driver for bus %d lost; reassigned active bus to %d", i, next)
		} else {
			c.Log.Log(logging.Master, "WARN", "driver for bus %d lost; no live driver to reassign to", i)
		}
	}
}

// forceDepartOverdue implements spec.md §4.1 watchdog step 2. Must be
// called with the lock held.
func (c *Controller) forceDepartOverdue(now time.Time) {
	for i := 0; i < config.MaxBuses; i++ {
		b := c.State.Buses[i]
		if b.PassengerCount > 0 && !b.DepartureTime.IsZero() && now.After(b.DepartureTime.Add(config.DepartureGrace)) {
			b.ForceDepart = true
		}
	}
}

// logSummary restores the dispatcher status-line summary dropped by
// the spec distillation (SPEC_FULL.md §9), gated to --log=summary or
// more verbose.
func (c *Controller) logSummary() {
	c.State.WithRLock(func() {
		c.Log.Log(logging.Stats, "INFO",
			"created=%d transported=%d waiting=%d in_office=%d left_early=%d tickets_issued=%d tickets_denied=%d active_bus=%d",
			c.State.TotalPassengersCreated, c.State.PassengersTransported, c.State.PassengersWaiting,
			c.State.PassengersInOffice, c.State.PassengersLeftEarly, c.State.TicketsIssued,
			c.State.TicketsDenied, c.State.ActiveBusID)
	})
}
