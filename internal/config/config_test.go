package config

import (
	"testing"

	"github.com/jwmdev/busstation/internal/logging"
)

func TestParseFlagsOverrideDefaults(t *testing.T) {
	cfg, err := Parse([]string{"-log=verbose", "-perf", "-max_p=20", "-test=3"})
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if cfg.LogMode != logging.Verbose {
		t.Errorf("LogMode = %q, want verbose", cfg.LogMode)
	}
	if !cfg.Perf {
		t.Error("expected Perf true")
	}
	if cfg.MaxPassengers != 20 {
		t.Errorf("MaxPassengers = %d, want 20", cfg.MaxPassengers)
	}
	if cfg.Test != 3 {
		t.Errorf("Test = %d, want 3", cfg.Test)
	}
}

func TestParseRejectsInvalidLogMode(t *testing.T) {
	if _, err := Parse([]string{"-log=chatty"}); err == nil {
		t.Fatal("expected an error for an unrecognized --log value")
	}
}

func TestParseDefaultsToSummary(t *testing.T) {
	cfg, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if cfg.LogMode != logging.Summary {
		t.Errorf("LogMode = %q, want summary", cfg.LogMode)
	}
}

func TestEnvBoolReadsLegacyZeroOne(t *testing.T) {
	t.Setenv("BUS_FULL_DEPART", "1")
	cfg, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if !cfg.FullDepart {
		t.Error("expected BUS_FULL_DEPART=1 to set FullDepart")
	}
}

