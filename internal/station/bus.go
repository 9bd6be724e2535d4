package station

import "time"

// NoActiveBus is the ACTIVE_BUS_ID sentinel meaning "no bus is
// currently authorized to board", spec.md §3's NONE.
const NoActiveBus = -1

// Bus is the per-bus record from spec.md §3. All fields are guarded by
// State.mu; see State.WithLock.
type Bus struct {
	ID             int
	AtStation      bool
	BoardingOpen   bool
	PassengerCount int
	BikeCount      int
	EnteringCount  int
	DepartureTime  time.Time
	ReturnTime     time.Time

	// ForceDepart is set by the controller's EARLY_DEPART/force-depart
	// path (spec.md §4.1, §4.3) and cleared by the owning driver once
	// observed.
	ForceDepart bool
}

// ResetForArrival clears the per-trip fields on return-to-station,
// spec.md §3 "Bus records reset {passenger_count, bike_count,
// boarding_open, departure_time} on every return-to-station." Must be
// called with the station lock held.
func (b *Bus) ResetForArrival(now time.Time, boardingInterval time.Duration) {
	b.PassengerCount = 0
	b.BikeCount = 0
	b.AtStation = true
	b.BoardingOpen = true
	b.DepartureTime = now.Add(boardingInterval)
	b.ReturnTime = time.Time{}
	b.ForceDepart = false
}
