package model

import (
	"math/rand"
	"testing"

	"github.com/jwmdev/busstation/internal/config"
)

func TestNewRandomChildWithExcludesBike(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 200; i++ {
		p := NewRandom(rng)
		if p.HasChildWith {
			if p.HasBike {
				t.Fatal("adult-with-child must never also carry a bike")
			}
			if p.SeatCount != 2 {
				t.Fatalf("adult-with-child seat_count = %d, want 2", p.SeatCount)
			}
			if p.ChildAge < 0 || p.ChildAge > config.ChildAgeLimit {
				t.Fatalf("child_age %d out of [0, %d]", p.ChildAge, config.ChildAgeLimit)
			}
		} else if p.SeatCount != 1 {
			t.Fatalf("solo passenger seat_count = %d, want 1", p.SeatCount)
		}
	}
}

func TestNewRandomAgeWithinAdultRange(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 50; i++ {
		p := NewRandom(rng)
		if p.Age < config.AdultMinAge || p.Age >= config.MaxAge {
			t.Fatalf("age %d out of range", p.Age)
		}
	}
}

func TestValidRejectsOutOfRangeAge(t *testing.T) {
	p := NewRandom(rand.New(rand.NewSource(1)))
	p.Age = config.MaxAge + 1
	if p.Valid() {
		t.Fatal("expected Valid() to reject an age above MaxAge")
	}
	p.Age = config.MinAge - 1
	if p.Valid() {
		t.Fatal("expected Valid() to reject an age below MinAge")
	}
}

func TestValidRejectsNilPID(t *testing.T) {
	p := &Passenger{Age: 30}
	if p.Valid() {
		t.Fatal("expected Valid() to reject the zero pid")
	}
}
