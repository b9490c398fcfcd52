package config

import "testing"

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse(nil): %v", err)
	}
	if cfg.UDPPort != 12345 {
		t.Fatalf("UDPPort = %d, want 12345", cfg.UDPPort)
	}
	if cfg.ShmName != "gateway" {
		t.Fatalf("ShmName = %q, want gateway", cfg.ShmName)
	}
	if cfg.Warmup != 1000 {
		t.Fatalf("Warmup = %d, want 1000", cfg.Warmup)
	}
	if cfg.Core != -1 {
		t.Fatalf("Core = %d, want -1", cfg.Core)
	}
}

func TestParseLongFlags(t *testing.T) {
	cfg, err := Parse([]string{"--port", "1", "--udp-port", "9999", "--shm", "foo", "--core", "3", "--no-warmup"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Port != 1 || cfg.UDPPort != 9999 || cfg.ShmName != "foo" || cfg.Core != 3 || !cfg.NoWarmup {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestParseRejectsOutOfRangePort(t *testing.T) {
	if _, err := Parse([]string{"--port", "99999"}); err == nil {
		t.Fatalf("Parse() err = nil, want error for out-of-range port")
	}
}
