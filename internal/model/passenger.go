// Package model holds the plain data types passed between station
// components: the passenger descriptor and its randomized-attribute
// constructor, realizing spec.md §3's passenger descriptor.
package model

import (
	"math/rand"

	"github.com/google/uuid"

	"github.com/jwmdev/busstation/internal/config"
)

// Passenger is the per-process descriptor from spec.md §3. Fields are
// mutated by the passenger's own goroutine, except that the ticket
// office sets HasTicket and the driver sets AssignedBus on the shared
// pointer before sending their replies.
type Passenger struct {
	PID          uuid.UUID
	Age          int
	IsVIP        bool
	HasBike      bool
	HasChildWith bool
	ChildAge     int
	SeatCount    int // 1, or 2 when HasChildWith
	HasTicket    bool
	AssignedBus  int // -1 until boarded
}

// NewRandom builds a passenger with attributes drawn from the
// percentages configured in spec.md §6 (VIP_PERCENT, BIKE_PERCENT,
// ADULT_WITH_CHILD_PERCENT), following the same bounded
// rand.New(rand.NewSource(...)) sampling idiom as the teacher's
// model.randomSpeedForType.
func NewRandom(rng *rand.Rand) *Passenger {
	p := &Passenger{
		PID:         uuid.New(),
		Age:         config.AdultMinAge + rng.Intn(config.MaxAge-config.AdultMinAge),
		AssignedBus: -1,
		SeatCount:   1,
	}

	if pct(rng, config.VIPPercent) {
		p.IsVIP = true
	}

	// An adult-with-child occupies 2 seats and cannot carry a bike
	// (spec.md §3 "a passenger with an accompanying minor has
	// seat_count=2 and has_bike=false").
	if pct(rng, config.AdultWithChildPercent) {
		p.HasChildWith = true
		p.SeatCount = 2
		p.ChildAge = rng.Intn(config.ChildAgeLimit + 1)
	} else if pct(rng, config.BikePercent) {
		p.HasBike = true
	}

	return p
}

// pct reports whether a percent-chance event fires, using rng.
func pct(rng *rand.Rand, percent int) bool {
	if percent <= 0 {
		return false
	}
	if percent >= 100 {
		return true
	}
	return rng.Intn(100) < percent
}

// Valid reports whether the descriptor passes the ticket office's
// validation rule (spec.md §4.2 step 3).
func (p *Passenger) Valid() bool {
	return p != nil && p.PID != uuid.Nil && p.Age >= config.MinAge && p.Age <= config.MaxAge
}
