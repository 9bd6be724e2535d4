package controller

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/jwmdev/busstation/internal/config"
	"github.com/jwmdev/busstation/internal/logging"
)

func newTestController() *Controller {
	return New(logging.New(logging.Minimal, "/tmp/busstation-controller-test"))
}

func TestTerminateFalseOnFreshState(t *testing.T) {
	c := newTestController()
	if c.Terminate() {
		t.Fatal("a freshly initialized, still-spawning station must not terminate")
	}
}

func TestTerminateTrueWhenDrained(t *testing.T) {
	c := newTestController()
	c.State.WithLock(func() { c.State.SpawningStopped = true })
	if !c.Terminate() {
		t.Fatal("expected termination once spawning has stopped and nothing is outstanding")
	}
}

func TestTerminateFalseWithWaitingPassengers(t *testing.T) {
	c := newTestController()
	c.State.WithLock(func() {
		c.State.SpawningStopped = true
		c.State.PassengersWaiting = 1
	})
	if c.Terminate() {
		t.Fatal("must not terminate while passengers are still waiting")
	}
}

func TestProcessCloseStationIsIdempotent(t *testing.T) {
	c := newTestController()
	c.processCloseStation()
	c.processCloseStation()
	c.State.WithRLock(func() {
		if !c.State.StationClosed || c.State.StationOpen || !c.State.SpawningStopped {
			t.Fatal("expected station_closed=true, station_open=false, spawning_stopped=true")
		}
	})
}

func TestReassignDeadDriversSkipsNeverSeenSlots(t *testing.T) {
	c := newTestController()
	now := time.Now()
	c.State.WithLock(func() {
		c.reassignDeadDrivers(now)
	})
	c.State.WithRLock(func() {
		if c.State.ActiveBusID != 0 {
			t.Fatalf("active_bus_id = %d, want unchanged 0 (no drivers ever registered)", c.State.ActiveBusID)
		}
	})
}

func TestReassignDeadDriversReassignsActiveBus(t *testing.T) {
	c := newTestController()
	now := time.Now()

	c.State.WithLock(func() {
		c.State.RegisterDriver(0, uuid.New(), now)
		c.State.RegisterDriver(1, uuid.New(), now)
	})

	stale := now.Add(config.MissedBeatThreshold + time.Second)
	recentBeat := stale.Add(-time.Second) // bus 1 kept beating, bus 0 went silent
	c.State.WithLock(func() {
		c.State.DriverHeartbeatTick(1, recentBeat)
		c.reassignDeadDrivers(stale)
	})

	c.State.WithRLock(func() {
		if c.State.ActiveBusID != 1 {
			t.Fatalf("active_bus_id = %d, want 1 (bus 0's driver went stale)", c.State.ActiveBusID)
		}
		if c.State.Buses[0].BoardingOpen {
			t.Error("expected bus 0's boarding_open cleared after its driver was lost")
		}
	})
}

func TestForceDepartOverdueSetsFlag(t *testing.T) {
	c := newTestController()
	past := time.Now().Add(-config.DepartureGrace - time.Second)
	c.State.WithLock(func() {
		c.State.Buses[0].PassengerCount = 1
		c.State.Buses[0].DepartureTime = past
		c.forceDepartOverdue(time.Now())
	})
	c.State.WithRLock(func() {
		if !c.State.Buses[0].ForceDepart {
			t.Fatal("expected force_depart set for an overdue bus with passengers")
		}
	})
}
