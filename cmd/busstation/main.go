// Command busstation runs the bus-station coordination simulation:
// one controller, a ticket-office pool, a fixed bus fleet, and an
// open-ended population of arriving passengers, per spec.md.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jwmdev/busstation/internal/config"
	"github.com/jwmdev/busstation/internal/controller"
	"github.com/jwmdev/busstation/internal/logging"
	"github.com/jwmdev/busstation/internal/scenario"
	"github.com/jwmdev/busstation/internal/supervisor"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Parse(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		config.Usage()
		return 2
	}
	if cfg.Help {
		config.Usage()
		return 0
	}

	log := logging.New(cfg.LogMode, "busstation-logs")
	log.Log(logging.Master, "INFO", "starting: log=%s perf=%v full=%v max_p=%d test=%d",
		cfg.LogMode, cfg.Perf, cfg.FullDepart, cfg.MaxPassengers, cfg.Test)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctrl := controller.New(log)
	sup := supervisor.New(cfg, log, ctrl)

	if cfg.Test != 0 {
		sc, ok := scenario.ByID(cfg.Test)
		if !ok {
			fmt.Fprintf(os.Stderr, "unknown --test value %d (want 1..10)\n", cfg.Test)
			return 2
		}
		log.Log(logging.Master, "INFO", "running canned scenario %d: %s", sc.ID, sc.Name)
		h := &scenario.Harness{Controller: ctrl, Drivers: sup.Drivers}
		go sc.Drive(ctx, h)
	}

	// CLOSE_STATION is published through the controller's admin channel
	// (the same channel the canned scenarios use for EARLY_DEPART),
	// distinct from the os/signal-driven hard cancellation above.
	sigusr1 := make(chan os.Signal, 1)
	signal.Notify(sigusr1, syscall.SIGUSR1)
	go func() {
		for range sigusr1 {
			log.Log(logging.Master, "WARN", "SIGUSR1 received: closing station to new arrivals")
			ctrl.Admin <- controller.CloseStation
		}
	}()

	if err := sup.Run(ctx); err != nil {
		log.Log(logging.Master, "ERROR", "run failed: %v", err)
		return 1
	}
	log.Log(logging.Master, "INFO", "run complete")
	return 0
}
