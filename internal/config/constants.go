package config

import "time"

// Configuration constants table, spec.md §6.
const (
	MaxBuses      = 3
	BusCapacity   = 10
	BikeCapacity  = 3
	TicketOffices = 2

	BoardingInterval = 8 * time.Second
	MinReturnTime    = 3 * time.Second
	MaxReturnTime    = 8 * time.Second

	ChildAgeLimit = 8
	AdultMinAge   = 18
	MinAge        = 0
	MaxAge        = 120

	VIPPercent             = 1
	BikePercent            = 20
	AdultWithChildPercent  = 15

	MinArrivalMS = 200
	MaxArrivalMS = 1000

	MaxTicketQueueRequests   = 200
	MaxBoardingQueueRequests = 100

	// WatchdogPeriod is T_wd from spec.md §4.1.
	WatchdogPeriod = time.Second
	// DepartureGrace is GRACE from spec.md §4.1's force-depart rule.
	DepartureGrace = 3 * time.Second
	// MissedBeatThreshold is how many watchdog periods of silence mark
	// a driver or office dead (spec.md §9 "watchdog instead of
	// supervised trees").
	MissedBeatThreshold = 3 * WatchdogPeriod

	// StationEntryMaxRetries bounds the station-entry retry loop,
	// spec.md §4.4 step 3 ("Up to 10 retries").
	StationEntryMaxRetries = 10
	// RetryTick is the sleep between boarding-loop / station-entry
	// retries, spec.md §4.4.
	RetryTick = 200 * time.Millisecond
)
