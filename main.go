package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pthm-cable/organisms/config"
	"github.com/pthm-cable/organisms/neural"
	"github.com/pthm-cable/organisms/sim"
	"github.com/pthm-cable/organisms/telemetry"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	maxTicks := flag.Int("max-ticks", 0, "Stop after N ticks (0 = unlimited)")
	maxGenerations := flag.Int("max-generations", 0, "Stop after N generations (0 = unlimited)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs, config snapshot and hall of fame")
	seedWeights := flag.String("seed-weights", "", "Hall of fame JSON used to seed generation 0 (overrides config)")
	metricsAddr := flag.String("metrics-addr", "", "Serve Prometheus metrics on this address (empty = disabled)")
	logStats := flag.Bool("log-stats", false, "Output per-generation stats via slog")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()
	if *seedWeights != "" {
		cfg.Evolution.SeedWeights = *seedWeights
	}

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}
	// Hall of fame sampling must not perturb the simulation's own random stream
	hofRNG := rand.New(rand.NewSource(rngSeed + 1))

	var seeds []neural.Weights
	if path := cfg.Evolution.SeedWeights; path != "" {
		loaded, err := telemetry.LoadHallOfFameFromFile(path, hofRNG)
		if err != nil {
			slog.Error("failed to load seed weights", "path", path, "error", err)
			os.Exit(1)
		}
		seeds = loaded.ResumeSeeds(cfg.Population.MaxOrganisms)
		slog.Info("seeding population", "path", path, "entries", loaded.Size(), "weights", len(seeds))
	}

	om, err := telemetry.NewOutputManager(*outputDir)
	if err != nil {
		slog.Error("failed to create output directory", "error", err)
		os.Exit(1)
	}
	defer om.Close()
	if err := om.WriteConfig(cfg); err != nil {
		slog.Error("failed to write config", "error", err)
	}

	var metrics *telemetry.Metrics
	if *metricsAddr != "" {
		metrics = telemetry.NewMetrics()
		go serveMetrics(*metricsAddr, metrics)
	}

	perf := telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow)

	// Best controllers across the whole run, owned here rather than by the simulation
	var hof *telemetry.HallOfFame

	onEvolve := func(r sim.Report) {
		hof.Consider(r.Champion.ID, r.Score.Generation, r.Champion.Weights, r.Score.BestEnergy, r.Score.AverageEnergy)

		if err := om.WriteGeneration(r.Stats); err != nil {
			slog.Error("failed to write generation stats", "error", err)
		}
		if err := om.WriteScore(r.Score); err != nil {
			slog.Error("failed to write score", "error", err)
		}
		if err := om.WriteLifetimes(r.Lifetimes); err != nil {
			slog.Error("failed to write lifetimes", "error", err)
		}
		perfStats := perf.Stats()
		if err := om.WritePerf(perfStats, r.Score.Generation); err != nil {
			slog.Error("failed to write perf", "error", err)
		}
		metrics.ObservePerf(perfStats)

		if *logStats {
			r.Stats.LogStats()
			perfStats.LogStats()
		}
	}

	s, err := sim.New(cfg, sim.Options{
		Seed:        rngSeed,
		Logger:      logger,
		SeedWeights: seeds,
		OnEvolve:    onEvolve,
		Perf:        perf,
		Metrics:     metrics,
	})
	if err != nil {
		slog.Error("failed to create simulation", "error", err)
		os.Exit(1)
	}
	defer s.Close()
	hof = telemetry.NewHallOfFame(cfg.Telemetry.HallOfFameSize, s.Shape(), hofRNG)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("starting simulation",
		"seed", rngSeed,
		"max_ticks", *maxTicks,
		"max_generations", *maxGenerations,
		"organisms", cfg.Population.MaxOrganisms,
		"bots", cfg.Population.MaxBots,
		"food", cfg.Population.MaxFood,
	)

	for ctx.Err() == nil {
		s.Tick(cfg.Physics.DT)

		if *maxTicks > 0 && s.Ticks() >= *maxTicks {
			slog.Info("max ticks reached", "tick", s.Ticks())
			break
		}
		if *maxGenerations > 0 && s.Generation() >= *maxGenerations {
			slog.Info("max generations reached", "generation", s.Generation())
			break
		}
	}

	if best, ok := s.Best(); ok {
		slog.Info("finished",
			"generation", s.Generation(),
			"ticks", s.Ticks(),
			"best_id", best.ID,
			"best_energy", best.Energy,
			"hall_of_fame", hof.Size(),
			"top_fitness", hof.TopFitness(),
		)
	}
	if top := hof.Entries(); len(top) > 0 {
		slog.Info("hall of fame leader",
			"id", top[0].OrganismID,
			"generation", top[0].Generation,
			"best_energy", top[0].BestEnergy,
			"average_energy", top[0].AverageEnergy,
		)
	}
	if err := om.WriteHallOfFame(hof); err != nil {
		slog.Error("failed to write hall of fame", "error", err)
	}
}

// serveMetrics exposes Prometheus metrics until the process exits.
func serveMetrics(addr string, m *telemetry.Metrics) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	slog.Info("serving metrics", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("metrics server stopped", "error", err)
	}
}
