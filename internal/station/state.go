// Package station implements the coordination substrate from spec.md
// §3/§5: the shared station record guarded by one mutex, the counting
// and binary semaphores that provide backpressure and serialize the
// physical entrances, and the message/response types that flow between
// components. It is the Go-native realization of "a single shared
// record guarded by one mutex for the structure and by per-gate binary
// semaphores for the entrances" (spec.md §9), grounded on the
// mutex-guarded shared-state pattern in the teacher's
// backend/main.go and backend/sim/runner.go.
package station

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/jwmdev/busstation/internal/config"
)

// State is the single shared mutable record, spec.md §3.
type State struct {
	mu sync.RWMutex

	Running         bool
	StationOpen     bool
	BoardingAllowed bool
	SpawningStopped bool
	StationClosed   bool

	Buses       [config.MaxBuses]*Bus
	ActiveBusID int

	driverAlive     [config.MaxBuses]bool
	driverEverSeen  [config.MaxBuses]bool
	driverID        [config.MaxBuses]uuid.UUID
	driverHeartbeat [config.MaxBuses]time.Time

	officeAlive     [config.TicketOffices]bool
	officeID        [config.TicketOffices]uuid.UUID
	officeHeartbeat [config.TicketOffices]time.Time

	// Counters, spec.md §3.
	TotalPassengersCreated int
	PassengersTransported  int
	PassengersWaiting      int
	PassengersInOffice     int
	PassengersLeftEarly    int
	TicketsIssued          int
	TicketsDenied          int
	TicketsSoldPeople      int
	BoardedPeople          int
	BoardedVIPPeople       int
	AdultsCreated          int
	ChildrenCreated        int
	VIPPeopleCreated       int

	// Monotonically increasing ordinal source for BoardingRequest
	// priority stamping (SPEC_FULL.md §3).
	ordinalSeq int64

	// Backpressure semaphores, spec.md §5.
	TicketSlots   *semaphore.Weighted
	BoardingSlots *semaphore.Weighted

	// Entrance gates, spec.md §5: "The two entrance gates are binary
	// semaphores serializing physical access."
	PassengerGate  *semaphore.Weighted
	BikeGate       *semaphore.Weighted
	StationEntryGate *semaphore.Weighted

	// Message channels.
	TicketRequests  chan TicketRequest
	BoardingRequests chan BoardingRequest

	// Response registries.
	TicketResponses  Responses[TicketResponse]
	BoardingResponses Responses[BoardingResponse]
}

// New allocates the coordination substrate, spec.md §4.1 Initialize:
// "allocate shared state, zero counters, mark every bus at_station,
// set active_bus_id=0".
func New() *State {
	s := &State{
		Running:         true,
		StationOpen:     true,
		BoardingAllowed: true,
		ActiveBusID:     0,
		TicketSlots:     semaphore.NewWeighted(config.MaxTicketQueueRequests),
		BoardingSlots:   semaphore.NewWeighted(config.MaxBoardingQueueRequests),
		PassengerGate:   semaphore.NewWeighted(1),
		BikeGate:        semaphore.NewWeighted(1),
		StationEntryGate: semaphore.NewWeighted(1),
		TicketRequests:  make(chan TicketRequest, config.MaxTicketQueueRequests),
		BoardingRequests: make(chan BoardingRequest, config.MaxBoardingQueueRequests),
	}
	now := time.Now()
	for i := 0; i < config.MaxBuses; i++ {
		s.Buses[i] = &Bus{
			ID:            i,
			AtStation:     true,
			BoardingOpen:  true,
			DepartureTime: now.Add(config.BoardingInterval),
		}
	}
	return s
}

// WithLock runs fn with the station mutex held for writing. Every
// multi-field read-modify-write in this codebase goes through this (or
// WithRLock), so "no reader observes a partially updated tuple"
// (spec.md §5) holds by construction.
func (s *State) WithLock(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn()
}

// WithRLock runs fn with the station mutex held for reading.
func (s *State) WithRLock(fn func()) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn()
}

// vipOrdinalBias shifts every VIP ordinal far below zero, under every
// ordinary ordinal.
const vipOrdinalBias = 1 << 62

// NextOrdinal stamps a BoardingRequest priority key. VIP requests are
// always even and negative, ordinary always odd and positive, and both
// strictly increase with arrival order — so every VIP request sorts
// before every ordinary request, whichever arrived first, while VIPs and
// ordinary passengers each keep FIFO order among themselves (spec.md
// I6). Must be called with the lock held.
func (s *State) NextOrdinal(vip bool) int64 {
	s.ordinalSeq++
	n := s.ordinalSeq * 2
	if vip {
		return n - vipOrdinalBias
	}
	return n + 1
}

// RegisterDriver marks slot busID as occupied by a live driver, spec.md
// §3 "driver_pids[B] ... sentinel 0 means unoccupied." Must be called
// with the lock held.
func (s *State) RegisterDriver(busID int, id uuid.UUID, now time.Time) {
	s.driverAlive[busID] = true
	s.driverEverSeen[busID] = true
	s.driverID[busID] = id
	s.driverHeartbeat[busID] = now
}

// DriverEverSeen reports whether a driver has ever registered for
// busID, distinguishing "never started" from "crashed" for the
// watchdog. Must be called with the lock held.
func (s *State) DriverEverSeen(busID int) bool {
	return s.driverEverSeen[busID]
}

// DriverHeartbeatTick records liveness for the watchdog. Must be called
// with the lock held.
func (s *State) DriverHeartbeatTick(busID int, now time.Time) {
	if s.driverAlive[busID] {
		s.driverHeartbeat[busID] = now
	}
}

// DriverLive reports whether busID's driver is registered and has
// beaten within the missed-beat threshold. Must be called with the
// lock held (read or write).
func (s *State) DriverLive(busID int, now time.Time) bool {
	return s.driverAlive[busID] && now.Sub(s.driverHeartbeat[busID]) <= config.MissedBeatThreshold
}

// ClearDriver marks busID's driver slot unoccupied. Must be called
// with the lock held.
func (s *State) ClearDriver(busID int) {
	s.driverAlive[busID] = false
	s.driverID[busID] = uuid.Nil
}

// RegisterOffice / OfficeHeartbeatTick / OfficeLive / ClearOffice mirror
// the driver liveness registry for ticket offices, spec.md §3
// ticket_office_pids[T].
func (s *State) RegisterOffice(idx int, id uuid.UUID, now time.Time) {
	s.officeAlive[idx] = true
	s.officeID[idx] = id
	s.officeHeartbeat[idx] = now
}

func (s *State) OfficeHeartbeatTick(idx int, now time.Time) {
	if s.officeAlive[idx] {
		s.officeHeartbeat[idx] = now
	}
}

func (s *State) OfficeLive(idx int, now time.Time) bool {
	return s.officeAlive[idx] && now.Sub(s.officeHeartbeat[idx]) <= config.MissedBeatThreshold
}

func (s *State) ClearOffice(idx int) {
	s.officeAlive[idx] = false
	s.officeID[idx] = uuid.Nil
}
