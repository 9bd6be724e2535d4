// Package config parses the station's CLI surface and layers the
// BUS_* environment variables over it, the way main.go in the teacher
// repo builds its flag.FlagSet and shivamshaw23-Hintro's config.Load
// layers viper over environment defaults.
package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/viper"

	"github.com/jwmdev/busstation/internal/logging"
)

// Config holds the resolved CLI + environment configuration for one run.
type Config struct {
	LogMode     logging.Mode
	Perf        bool // BUS_PERF_MODE / --perf: disable artificial sleeps
	FullDepart  bool // BUS_FULL_DEPART / --full: depart on reaching capacity
	MaxPassengers int // --max_p, 0 = unlimited
	Test        int  // --testN, 0 = no canned scenario
	Help        bool
}

// Parse builds a Config from args (normally os.Args[1:]) and the
// process environment. Flags take precedence; environment variables
// fill in anything a flag did not explicitly set, mirroring the
// "CLI > env > constant default" precedence documented in
// SPEC_FULL.md §6.
func Parse(args []string) (*Config, error) {
	fs := flag.NewFlagSet("busstation", flag.ContinueOnError)

	logFlag := fs.String("log", "", "log verbosity: verbose, summary, minimal")
	perfFlag := fs.Bool("perf", false, "disable artificial service-time sleeps")
	fullFlag := fs.Bool("full", false, "depart as soon as a bus reaches capacity")
	maxPFlag := fs.Int("max_p", 0, "cap total passengers admitted (0 = unlimited)")
	testFlag := fs.Int("test", 0, "run canned scenario N (1..10)")
	helpFlag := fs.Bool("help", false, "print usage and exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	viper.SetEnvPrefix("BUS")
	viper.AutomaticEnv()
	viper.SetDefault("LOG_MODE", "summary")
	viper.SetDefault("PERF_MODE", false)
	viper.SetDefault("FULL_DEPART", false)

	cfg := &Config{
		Help: *helpFlag,
		Test: *testFlag,
		MaxPassengers: *maxPFlag,
	}

	logMode := *logFlag
	if logMode == "" {
		logMode = viper.GetString("LOG_MODE")
	}
	switch logging.Mode(logMode) {
	case logging.Verbose, logging.Summary, logging.Minimal:
		cfg.LogMode = logging.Mode(logMode)
	default:
		return nil, fmt.Errorf("invalid --log/BUS_LOG_MODE value %q (want verbose, summary, or minimal)", logMode)
	}

	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	cfg.Perf, cfg.FullDepart = *perfFlag, *fullFlag
	if !set["perf"] {
		cfg.Perf = envBool("BUS_PERF_MODE")
	}
	if !set["full"] {
		cfg.FullDepart = envBool("BUS_FULL_DEPART")
	}

	return cfg, nil
}

// envBool reads a legacy 0/1-style boolean environment variable
// directly (spec.md §6 defines BUS_PERF_MODE/BUS_FULL_DEPART as
// "0,1"). It accepts whatever strconv.ParseBool accepts ("1", "0",
// "true", "f", ...); an unset or unparsable value reads as false.
func envBool(name string) bool {
	v, ok := os.LookupEnv(name)
	if !ok {
		return false
	}
	b, err := strconv.ParseBool(v)
	return err == nil && b
}

// Usage prints the CLI surface documented in spec.md §6.
func Usage() {
	fmt.Fprintln(os.Stderr, "usage: busstation [flags]")
	fmt.Fprintln(os.Stderr, "  -log={verbose,summary,minimal}  verbosity of the external log sink")
	fmt.Fprintln(os.Stderr, "  -perf                            disable artificial sleeps")
	fmt.Fprintln(os.Stderr, "  -full                            depart immediately on reaching capacity")
	fmt.Fprintln(os.Stderr, "  -max_p=N                         cap total passengers at N")
	fmt.Fprintln(os.Stderr, "  -test=N                          run canned scenario N (1..10)")
	fmt.Fprintln(os.Stderr, "  -help                            print this message")
}
