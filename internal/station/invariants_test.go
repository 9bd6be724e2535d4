package station

import (
	"testing"

	"github.com/jwmdev/busstation/internal/config"
)

func TestCheckInvariantsBalancedByDefault(t *testing.T) {
	s := New()
	r := s.CheckInvariants()
	if !r.OK {
		t.Fatalf("fresh state should satisfy all invariants, got: %v", r.Details)
	}
}

// TestCheckInvariantsCatchesAccountingImbalance exercises I1.
func TestCheckInvariantsCatchesAccountingImbalance(t *testing.T) {
	s := New()
	s.TotalPassengersCreated = 5
	// Nothing else accounts for those 5 people.
	r := s.CheckInvariants()
	if r.OK {
		t.Fatal("expected I1 violation to be detected")
	}
}

func TestCheckInvariantsAccountsAllBuckets(t *testing.T) {
	s := New()
	s.TotalPassengersCreated = 10
	s.PassengersTransported = 2
	s.PassengersWaiting = 3
	s.PassengersInOffice = 1
	s.Buses[0].PassengerCount = 2
	s.PassengersLeftEarly = 2
	r := s.CheckInvariants()
	if !r.OK {
		t.Fatalf("expected balanced accounting (2+3+1+2+2=10), got: %v", r.Details)
	}
}

// TestCheckInvariantsCatchesCapacityOverrun exercises I2.
func TestCheckInvariantsCatchesCapacityOverrun(t *testing.T) {
	s := New()
	s.Buses[0].PassengerCount = config.BusCapacity + 1
	s.TotalPassengersCreated = s.Buses[0].PassengerCount
	r := s.CheckInvariants()
	if r.OK {
		t.Fatal("expected I2 violation for passenger_count beyond capacity")
	}
}

func TestCheckInvariantsCatchesBikeOverrun(t *testing.T) {
	s := New()
	s.Buses[0].BikeCount = config.BikeCapacity + 1
	r := s.CheckInvariants()
	if r.OK {
		t.Fatal("expected I2 violation for bike_count beyond capacity")
	}
}

func TestCheckInvariantsCatchesActiveBusNotAtStation(t *testing.T) {
	s := New()
	s.Buses[0].AtStation = false
	r := s.CheckInvariants()
	if r.OK {
		t.Fatal("expected I3 violation: active_bus_id points at a bus not at station")
	}
}

func TestCheckInvariantsAllowsNoActiveBus(t *testing.T) {
	s := New()
	s.ActiveBusID = NoActiveBus
	r := s.CheckInvariants()
	if !r.OK {
		t.Fatalf("NoActiveBus should never itself violate I3, got: %v", r.Details)
	}
}

// TestChildSeatChargeIsAtomic exercises I5: a has_child_with passenger
// must contribute both seats to the same bucket or neither.
func TestChildSeatChargeIsAtomic(t *testing.T) {
	s := New()
	s.WithLock(func() {
		s.TotalPassengersCreated += 2 // one adult-with-child, seat_count=2
		s.Buses[0].PassengerCount += 2
	})
	r := s.CheckInvariants()
	if !r.OK {
		t.Fatalf("both seats charged atomically to the same bus should balance, got: %v", r.Details)
	}
}
