package supervisor

import (
	"context"
	"testing"
	"time"

	"github.com/jwmdev/busstation/internal/config"
	"github.com/jwmdev/busstation/internal/controller"
	"github.com/jwmdev/busstation/internal/logging"
)

// TestRunDrainsSmallPopulation exercises spec.md §8 scenario 1 ("happy
// drain") at a scale small enough for a unit test: a capped passenger
// population must fully resolve into transported or left-early, and
// invariant I1 must balance at the end.
func TestRunDrainsSmallPopulation(t *testing.T) {
	cfg := &config.Config{LogMode: logging.Minimal, Perf: true, MaxPassengers: 12}
	log := logging.New(logging.Minimal, t.TempDir())
	ctrl := controller.New(log)
	sup := New(cfg, log, ctrl)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- sup.Run(ctx) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
	case <-time.After(25 * time.Second):
		t.Fatal("Run did not complete within its own deadline plus margin")
	}

	ctrl.State.WithRLock(func() {
		st := ctrl.State
		onBus := 0
		for _, b := range st.Buses {
			onBus += b.PassengerCount
		}
		sum := st.PassengersTransported + st.PassengersWaiting + st.PassengersInOffice + onBus + st.PassengersLeftEarly
		if st.TotalPassengersCreated != sum {
			t.Errorf("I1 violated: total_created=%d != sum=%d (transported=%d waiting=%d in_office=%d on_bus=%d left_early=%d)",
				st.TotalPassengersCreated, sum, st.PassengersTransported, st.PassengersWaiting, st.PassengersInOffice, onBus, st.PassengersLeftEarly)
		}
	})
}

// TestRunRespectsContextCancellation verifies the forced-stop path: an
// externally canceled context must bring Run down promptly even if the
// population has not naturally drained.
func TestRunRespectsContextCancellation(t *testing.T) {
	cfg := &config.Config{LogMode: logging.Minimal, Perf: true}
	log := logging.New(logging.Minimal, t.TempDir())
	ctrl := controller.New(log)
	sup := New(cfg, log, ctrl)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sup.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return promptly after ctx cancellation")
	}
}
