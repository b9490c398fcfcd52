// Command bbogateway is the process entry point: phased bootstrap
// (device, memory pool, ring, clock), signal-driven graceful shutdown,
// and an optional periodic statistics surface.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"

	"bbogateway/internal/clock"
	"bbogateway/internal/config"
	"bbogateway/internal/engine"
	"bbogateway/internal/nic"
	"bbogateway/internal/nic/simnic"
	"bbogateway/internal/shmring"
	"bbogateway/internal/slotpool"
	"bbogateway/internal/telemetry"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run performs the full bootstrap/serve/shutdown lifecycle and returns the
// process exit code (spec.md §6: 0 on clean signal shutdown, 1 on
// initialization failure or unknown option).
func run(args []string) int {
	// Framework arguments precede a "--" separator; only what follows it
	// is this process's own flag surface.
	for i, a := range args {
		if a == "--" {
			args = args[i+1:]
			break
		}
	}

	cfg, err := config.Parse(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, "bbogateway:", err)
		return 1
	}

	log, err := telemetry.NewLogger(true)
	if err != nil {
		fmt.Fprintln(os.Stderr, "bbogateway: logger init:", err)
		return 1
	}
	defer log.Sync()

	// Locking memory into RAM is an init warning, not fatal (spec.md §7):
	// a denial (no CAP_IPC_LOCK, container limits) degrades to ordinary
	// paged memory rather than aborting startup.
	if err := unix.Mlockall(unix.MCL_CURRENT | unix.MCL_FUTURE); err != nil {
		log.Warn("mlockall denied, continuing without locked memory", zap.Error(err))
	}

	// PHASE 1: memory and transport bootstrap.
	pool, err := slotpool.New(8192) // next power of two above the RX descriptor ring (spec.md §6)
	if err != nil {
		log.Error("slot pool init failed", zap.Error(err))
		return 1
	}
	defer pool.Close()
	log.Info("slot pool ready", zap.Int("slots", pool.Len()), zap.Bool("huge_pages", pool.UsingHugePages()))

	pub, err := shmring.Open(cfg.ShmName, shmring.DefaultCapacity)
	if err != nil {
		log.Error("shared-memory ring init failed", zap.Error(err))
		return 1
	}
	defer pub.Close()
	log.Info("ring attached", zap.String("name", cfg.ShmName), zap.Uint64("capacity", shmring.DefaultCapacity))

	clk := clock.Calibrate(10 * time.Millisecond)
	log.Info("clock calibrated", zap.Float64("ns_per_cycle", clk.NsPerCycle()))

	// PHASE 2: device bind. A real kernel-bypass binding is an external
	// collaborator this core never implements (spec.md §1); -sim drives
	// the engine with the in-process loopback device instead, the same
	// boundary internal/engine's own tests cross.
	var dev nic.Device
	if cfg.Simulate {
		dev = simnic.New()
		log.Warn("running against the in-process loopback device (-sim); no real NIC is bound")
	} else {
		log.Error("no kernel-bypass device binding is implemented in this process; rerun with -sim, or wire a real nic.Device implementation")
		return 1
	}

	eng := engine.New(dev, pool, clk, pub, engine.Config{
		Queue:         int(cfg.Queue),
		UDPPort:       cfg.UDPPort,
		WarmupPackets: int(cfg.Warmup),
		SkipWarmup:    cfg.NoWarmup,
		Core:          cfg.Core,
	})

	if err := eng.Init(); err != nil {
		log.Error("engine init failed", zap.Error(err))
		return 1
	}
	if err := eng.WarmUp(int(cfg.Warmup)); err != nil {
		log.Error("engine warm-up failed", zap.Error(err))
		return 1
	}

	// PHASE 3: optional statistics surface, gated behind -b/--benchmark,
	// never on the hot path (spec.md §5).
	var metricsSrv *metricsServer
	if cfg.Benchmark {
		metricsSrv = startMetrics(eng, pool, log)
		defer metricsSrv.shutdown()
	}

	setupSignalHandling(eng, log)

	log.Info("entering receive loop",
		zap.Uint16("udp_port", cfg.UDPPort),
		zap.Int32("core", cfg.Core))
	eng.Run()
	log.Info("receive loop stopped, exiting")

	return 0
}

// setupSignalHandling installs a SIGINT/SIGTERM handler that requests
// graceful engine shutdown: Stop merely flips an atomic flag the busy
// loop observes on its next iteration (spec.md §5).
func setupSignalHandling(eng *engine.Engine, log *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Info("signal received, requesting shutdown", zap.String("signal", sig.String()))
		eng.Stop()
	}()
}

// metricsServer bundles the HTTP exposition server with the cancel func
// for the periodic stats-logging goroutine, so shutdown can stop both.
type metricsServer struct {
	httpSrv *http.Server
	cancel  context.CancelFunc
}

// startMetrics wires the engine's and pool's counters onto
// internal/telemetry's private-registry exposition and starts a periodic
// (5 s) stats log line, matching spec.md §5's "optional second thread...
// sleeps on a coarse wall clock; reads atomic counters with relaxed
// ordering and never touches pool or ring" beyond reading counters.
func startMetrics(eng *engine.Engine, pool *slotpool.Pool, log *zap.Logger) *metricsServer {
	counters := telemetry.NewCounters(telemetry.Source{
		PacketsReceived:  func() float64 { return float64(eng.PacketsReceived()) },
		PacketsProcessed: func() float64 { return float64(eng.PacketsProcessed()) },
		ParseErrors:      func() float64 { return float64(eng.ParseErrors()) },
		RingBufferFull:   func() float64 { return float64(eng.RingBufferFull()) },
		UsingHugePages: func() float64 {
			if pool.UsingHugePages() {
				return 1
			}
			return 0
		},
	})

	httpSrv := telemetry.ServeMetrics(":9090", counters)
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				log.Info("stats",
					zap.Uint64("packets_received", eng.PacketsReceived()),
					zap.Uint64("packets_processed", eng.PacketsProcessed()),
					zap.Uint64("parse_errors", eng.ParseErrors()),
					zap.Uint64("ring_buffer_full", eng.RingBufferFull()))
			}
		}
	}()

	return &metricsServer{httpSrv: httpSrv, cancel: cancel}
}

func (m *metricsServer) shutdown() {
	if m == nil {
		return
	}
	m.cancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = telemetry.Shutdown(shutdownCtx, m.httpSrv)
}
