package station

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/jwmdev/busstation/internal/config"
)

func TestNextOrdinalVIPAlwaysEven(t *testing.T) {
	s := New()
	for i := 0; i < 5; i++ {
		if n := s.NextOrdinal(true); n%2 != 0 {
			t.Errorf("VIP ordinal %d is not even", n)
		}
	}
}

func TestNextOrdinalOrdinaryAlwaysOdd(t *testing.T) {
	s := New()
	for i := 0; i < 5; i++ {
		if n := s.NextOrdinal(false); n%2 == 0 {
			t.Errorf("ordinary ordinal %d is not odd", n)
		}
	}
}

func TestNextOrdinalLaterVIPBeatsEarlierOrdinary(t *testing.T) {
	s := New()
	// An ordinary passenger arrives, then a VIP arrives later: the VIP's
	// ordinal must still sort before the ordinary one (spec.md I6).
	ordinary := s.NextOrdinal(false)
	vip := s.NextOrdinal(true)
	if vip >= ordinary {
		t.Fatalf("VIP ordinal %d should be lower than the earlier ordinary ordinal %d", vip, ordinary)
	}
}

func TestDriverLivenessLifecycle(t *testing.T) {
	s := New()
	now := time.Now()
	id := uuid.New()

	if s.DriverEverSeen(0) {
		t.Fatal("no driver registered yet")
	}
	s.RegisterDriver(0, id, now)
	if !s.DriverEverSeen(0) {
		t.Fatal("expected DriverEverSeen true after RegisterDriver")
	}
	if !s.DriverLive(0, now) {
		t.Fatal("expected driver live immediately after registering")
	}
	stale := now.Add(config.MissedBeatThreshold + time.Second)
	if s.DriverLive(0, stale) {
		t.Fatal("expected driver dead after missing heartbeats past threshold")
	}
	s.DriverHeartbeatTick(0, stale)
	if !s.DriverLive(0, stale) {
		t.Fatal("expected driver live again after a fresh heartbeat")
	}

	s.ClearDriver(0)
	if s.DriverLive(0, stale) {
		t.Fatal("expected driver dead after ClearDriver")
	}
	if !s.DriverEverSeen(0) {
		t.Fatal("DriverEverSeen must remain true even after ClearDriver")
	}
}

func TestOfficeLivenessLifecycle(t *testing.T) {
	s := New()
	now := time.Now()
	id := uuid.New()

	s.RegisterOffice(0, id, now)
	if !s.OfficeLive(0, now) {
		t.Fatal("expected office live immediately after registering")
	}
	s.ClearOffice(0)
	if s.OfficeLive(0, now) {
		t.Fatal("expected office dead after ClearOffice")
	}
}
