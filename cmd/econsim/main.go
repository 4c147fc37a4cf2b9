// Command econsim runs the class-tiered market simulation.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/talgya/mini-economy/internal/agents"
	"github.com/talgya/mini-economy/internal/api"
	"github.com/talgya/mini-economy/internal/config"
	"github.com/talgya/mini-economy/internal/engine"
	"github.com/talgya/mini-economy/internal/industry"
	"github.com/talgya/mini-economy/internal/persistence"
)

func main() {
	cfg, err := config.Load()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("econsim — class-tiered market simulation",
		"population", humanize.Comma(int64(cfg.Population)),
		"seed", cfg.Seed,
		"tick", cfg.TickInterval,
		"price_policy", cfg.PricePolicy.String(),
	)

	// ── Database ──────────────────────────────────────────────────────
	var db *persistence.DB
	if cfg.DBPath != "" {
		if dir := filepath.Dir(cfg.DBPath); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				slog.Error("failed to create database directory", "dir", dir, "error", err)
				os.Exit(1)
			}
		}
		db, err = persistence.Open(cfg.DBPath)
		if err != nil {
			slog.Error("failed to open database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		slog.Info("database opened", "path", cfg.DBPath)
	}

	// ── Load or Generate State ───────────────────────────────────────
	var people []*agents.Person
	var facilities []*industry.Facility
	var startTick uint64
	var runID uuid.UUID

	spawner := agents.NewSpawner(cfg.Seed)

	if db != nil && db.HasState() {
		slog.Info("found saved state, loading...")

		var loadErr error
		people, loadErr = db.LoadPeople()
		if loadErr != nil {
			slog.Error("failed to load people", "error", loadErr)
			os.Exit(1)
		}
		facilities, loadErr = db.LoadFacilities()
		if loadErr != nil {
			slog.Error("failed to load facilities", "error", loadErr)
			os.Exit(1)
		}

		if tickStr, err := db.GetMeta("last_tick"); err == nil && tickStr != "" {
			if t, err := strconv.ParseUint(tickStr, 10, 64); err == nil {
				startTick = t
			}
		}
		if idStr, err := db.GetMeta("run_id"); err == nil && idStr != "" {
			if id, err := uuid.Parse(idStr); err == nil {
				runID = id
			}
		}
		spawner.SetNextID(agents.AgentID(len(people)))
	} else {
		slog.Info("no saved state found, generating population...")
		people = spawner.SpawnPopulation(cfg.Population)
		facilities = industry.Assign(people, cfg.Facilities, cfg.Capacity)
	}

	pop := agents.NewPopulation(people)
	ind := industry.New(cfg.Seed, facilities)

	sim, err := engine.NewSimulation(pop, ind, engine.Options{
		Policy:   cfg.PricePolicy,
		Clearing: cfg.Clearing,
		Workers:  cfg.Workers,
	})
	if err != nil {
		slog.Error("failed to create simulation", "error", err)
		os.Exit(1)
	}
	sim.LastTick = startTick
	if runID != uuid.Nil {
		sim.RunID = runID
	}

	if db != nil && startTick > 0 {
		if err := db.LoadPrices(sim.Prices); err != nil {
			slog.Error("failed to load prices", "error", err)
			os.Exit(1)
		}
	}

	summary := pop.Summarize()
	slog.Info("economy ready",
		"run_id", sim.RunID.String(),
		"agents", humanize.Comma(int64(summary.Total)),
		"bourgeois", humanize.Comma(int64(summary.Bourgeois)),
		"proletariat", humanize.Comma(int64(summary.Proletariat)),
		"facilities", len(facilities),
		"money", humanize.Commaf(summary.TotalMoney),
		"tick", startTick,
	)

	// ── Reporting ────────────────────────────────────────────────────
	sim.Sinks = append(sim.Sinks, engine.LogSink{Level: slog.LevelInfo})
	var reports *engine.AsyncSink
	if db != nil {
		reports = engine.NewAsyncSink(db, 256)
		sim.Sinks = append(sim.Sinks, reports)

		if startTick == 0 {
			if err := db.SaveState(sim); err != nil {
				slog.Error("initial save failed", "error", err)
			}
		}
	}

	eng := engine.NewEngine()
	eng.Interval = cfg.TickInterval
	eng.SetTick(startTick)
	eng.OnTick = func(tick uint64) error {
		if err := sim.Tick(tick); err != nil {
			return err
		}
		if report := sim.LastReport(); report != nil && len(report.Rejected) > 0 {
			slog.Debug("settlement rejections", "tick", tick, "count", len(report.Rejected))
		}
		if db != nil && cfg.SaveEvery > 0 && tick%cfg.SaveEvery == 0 {
			if err := db.SaveState(sim); err != nil {
				slog.Error("periodic save failed", "error", err)
			}
		}
		return nil
	}

	// ── HTTP API ──────────────────────────────────────────────────────
	var apiServer *api.Server
	if cfg.Port > 0 {
		if cfg.AdminKey == "" {
			slog.Warn("ECONSIM_ADMIN_KEY not set — admin POST endpoints will be disabled")
		}
		apiServer = &api.Server{
			Sim:      sim,
			Eng:      eng,
			DB:       db,
			Port:     cfg.Port,
			AdminKey: cfg.AdminKey,
		}
		apiServer.Start()
	}

	// ── Start ─────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Printf("\nEconomy is running: %s agents, %d facilities.\n",
		humanize.Comma(int64(summary.Total)), len(facilities))
	if cfg.Port > 0 {
		fmt.Printf("API: http://localhost:%d/api/v1/status\n", cfg.Port)
	}
	fmt.Println("Starting simulation... (Ctrl+C to stop)")

	runErr := eng.Run(ctx)

	if apiServer != nil {
		apiServer.Close()
	}
	if reports != nil {
		reports.Close()
	}
	if db != nil {
		slog.Info("final save...")
		if err := db.SaveState(sim); err != nil {
			slog.Error("final save failed", "error", err)
		}
	}

	if runErr != nil {
		slog.Error("simulation halted", "error", runErr)
		os.Exit(1)
	}
	fmt.Println("Simulation stopped.")
}
