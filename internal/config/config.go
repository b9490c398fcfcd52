// Package config parses the CLI flag surface in spec.md §6 via a full
// flag.FlagSet, since spec.md §6 specifies short/long flag pairs with
// typed arguments. Configuration FILE loading is explicitly out of scope
// (spec.md §1 names it an external collaborator) — flags only.
package config

import (
	"flag"
	"fmt"
)

// Config is the typed result of parsing spec.md §6's flag table.
type Config struct {
	Port      uint16
	Queue     uint16
	UDPPort   uint16
	Core      int32
	ShmName   string
	Warmup    int32
	NoWarmup  bool
	Benchmark bool
	Simulate  bool
}

// Parse parses args (typically os.Args[1:], with framework-only arguments
// preceding a "--" separator per spec.md §6 already stripped by the
// caller) into a Config. Exit code on an unknown flag is the caller's
// responsibility (cmd/bbogateway maps a parse error to exit code 1).
func Parse(args []string) (Config, error) {
	fs := flag.NewFlagSet("bbogateway", flag.ContinueOnError)

	cfg := Config{
		ShmName: "gateway",
		Warmup:  1000,
		UDPPort: 12345,
		Core:    -1,
	}

	var port, queue, udpPort uint
	var core, warmup int

	fs.UintVar(&port, "p", 0, "NIC port id")
	fs.UintVar(&port, "port", 0, "NIC port id")
	fs.UintVar(&queue, "q", 0, "RX queue id")
	fs.UintVar(&queue, "queue", 0, "RX queue id")
	fs.UintVar(&udpPort, "u", 12345, "Filter UDP destination port")
	fs.UintVar(&udpPort, "udp-port", 12345, "Filter UDP destination port")
	fs.IntVar(&core, "c", -1, "Pin to CPU core (-1 = none)")
	fs.IntVar(&core, "core", -1, "Pin to CPU core (-1 = none)")
	fs.StringVar(&cfg.ShmName, "s", "gateway", "Shared-memory name suffix")
	fs.StringVar(&cfg.ShmName, "shm", "gateway", "Shared-memory name suffix")
	fs.IntVar(&warmup, "w", 1000, "Synthetic warm-up packets")
	fs.IntVar(&warmup, "warmup", 1000, "Synthetic warm-up packets")
	fs.BoolVar(&cfg.NoWarmup, "n", false, "Skip warm-up")
	fs.BoolVar(&cfg.NoWarmup, "no-warmup", false, "Skip warm-up")
	fs.BoolVar(&cfg.Benchmark, "b", false, "Periodic (5s) stats print")
	fs.BoolVar(&cfg.Benchmark, "benchmark", false, "Periodic (5s) stats print")
	fs.BoolVar(&cfg.Simulate, "sim", false, "Drive the engine with the in-process loopback NIC instead of a real device")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if port > 0xFFFF {
		return Config{}, fmt.Errorf("config: --port %d out of range for u16", port)
	}
	if queue > 0xFFFF {
		return Config{}, fmt.Errorf("config: --queue %d out of range for u16", queue)
	}
	if udpPort > 0xFFFF {
		return Config{}, fmt.Errorf("config: --udp-port %d out of range for u16", udpPort)
	}

	cfg.Port = uint16(port)
	cfg.Queue = uint16(queue)
	cfg.UDPPort = uint16(udpPort)
	cfg.Core = int32(core)
	cfg.Warmup = int32(warmup)

	return cfg, nil
}
