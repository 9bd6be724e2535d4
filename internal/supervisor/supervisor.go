// Package supervisor owns the process tree from spec.md §4.5: it
// spawns the controller's watchdog, ticket offices, and drivers, paces
// passenger arrivals, and drives the two-phase shutdown (orderly
// drain, then a grace-window forced stop) restored from
// original_source/src/main.c per SPEC_FULL.md §9.
package supervisor

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jwmdev/busstation/internal/config"
	"github.com/jwmdev/busstation/internal/controller"
	"github.com/jwmdev/busstation/internal/driver"
	"github.com/jwmdev/busstation/internal/logging"
	"github.com/jwmdev/busstation/internal/passenger"
	"github.com/jwmdev/busstation/internal/ticketoffice"
)

// GraceWindow bounds phase two of shutdown: how long outstanding
// passengers get to reach a terminal state before the supervisor
// force-cancels every worker.
const GraceWindow = 6 * config.DepartureGrace

// Supervisor owns the spawned process tree for one run.
type Supervisor struct {
	Cfg        *config.Config
	Log        *logging.Logger
	Controller *controller.Controller

	Drivers []*driver.Driver
	Offices []*ticketoffice.Office
}

// New builds the driver and office fleet around an already-initialized
// controller, but does not start anything.
func New(cfg *config.Config, log *logging.Logger, ctrl *controller.Controller) *Supervisor {
	s := &Supervisor{Cfg: cfg, Log: log, Controller: ctrl}
	for i := 0; i < config.MaxBuses; i++ {
		s.Drivers = append(s.Drivers, driver.New(i, ctrl.State, log, cfg.Perf, cfg.FullDepart, int64(i)+1))
	}
	for i := 0; i < config.TicketOffices; i++ {
		s.Offices = append(s.Offices, ticketoffice.New(i, ctrl.State, log, cfg.Perf, int64(i)+1001))
	}
	return s
}

// Run spawns the fleet, paces passenger arrivals, and blocks until the
// run terminates naturally or ctx is canceled, per spec.md §4.5.
func (s *Supervisor) Run(ctx context.Context) error {
	workCtx, cancelWork := context.WithCancel(ctx)
	defer cancelWork()

	g, gctx := errgroup.WithContext(workCtx)
	g.Go(func() error { s.Controller.RunWatchdog(gctx); return nil })
	for _, off := range s.Offices {
		off := off
		g.Go(func() error { off.Run(gctx); return nil })
	}
	for _, drv := range s.Drivers {
		drv := drv
		g.Go(func() error { drv.Run(gctx); return nil })
	}

	passCtx, cancelPass := context.WithCancel(gctx)
	var passWG sync.WaitGroup
	go s.spawnPassengers(passCtx, &passWG)

	s.awaitTermination(gctx)

	drained := make(chan struct{})
	go func() {
		passWG.Wait()
		close(drained)
	}()
	select {
	case <-drained:
	case <-gctx.Done():
	case <-time.After(GraceWindow):
		s.Log.Log(logging.Master, "WARN", "grace window elapsed with passengers still in flight; forcing shutdown")
	}

	s.Controller.ProcessAdminSignal(controller.Shutdown)
	cancelPass()
	cancelWork()
	return g.Wait()
}

// spawnPassengers paces arrivals per spec.md §4.5: a new passenger
// every uniform[MIN_ARRIVAL_MS, MAX_ARRIVAL_MS], stopping when the
// controller signals spawning_stopped, the optional --max_p cap is
// reached, or ctx is canceled.
func (s *Supervisor) spawnPassengers(ctx context.Context, wg *sync.WaitGroup) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	spawned := 0
	for {
		var stopped bool
		s.Controller.State.WithRLock(func() { stopped = s.Controller.State.SpawningStopped })
		if stopped {
			return
		}
		if s.Cfg.MaxPassengers > 0 && spawned >= s.Cfg.MaxPassengers {
			s.Controller.State.WithLock(func() { s.Controller.State.SpawningStopped = true })
			return
		}
		select {
		case <-ctx.Done():
			return
		default:
		}

		w := passenger.New(s.Controller.State, s.Log, s.Cfg.Perf, rand.New(rand.NewSource(rng.Int63())))
		spawned++
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.Run(ctx)
		}()

		delay := config.MinArrivalMS + rng.Intn(config.MaxArrivalMS-config.MinArrivalMS+1)
		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Duration(delay) * time.Millisecond):
		}
	}
}

// awaitTermination blocks until the controller's Terminate? predicate
// (spec.md §4.1) is true, or ctx is canceled.
func (s *Supervisor) awaitTermination(ctx context.Context) {
	ticker := time.NewTicker(config.WatchdogPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if s.Controller.Terminate() {
				return
			}
		}
	}
}
