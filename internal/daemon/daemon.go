package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"ground_ops/internal/config"
	"ground_ops/internal/database"
	"ground_ops/internal/display"
	"ground_ops/internal/metrics"
	"ground_ops/internal/models"
	"ground_ops/internal/notify"
	"ground_ops/internal/radar"
	"ground_ops/internal/registry"
	"ground_ops/internal/scheduler"
	"ground_ops/internal/tasks"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Daemon represents the main daemon structure
type Daemon struct {
	ctx       context.Context
	cancel    context.CancelFunc
	runID     uuid.UUID
	scheduler *scheduler.Scheduler
	database  database.Repository
	journal   database.JournalRepository
	aircraft  *registry.AircraftRegistry
	gates     *registry.GateRegistry
	board     *display.Board
	subs      []*notify.Subscription[models.Change]
	server    *http.Server
	done      chan struct{}
}

// New creates a new daemon instance. reg receives the metric collectors and
// backs the /metrics endpoint when cfg.MetricsAddr is set.
func New(cfg *config.Config, reg *prometheus.Registry) (*Daemon, error) {
	ctx, cancel := context.WithCancel(context.Background())
	runID := uuid.New()

	m := metrics.New(reg)

	aircraft, err := registry.NewAircraftRegistry(cfg.AircraftSlots, cfg.LocalAirport, m)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create aircraft registry: %w", err)
	}
	gates, err := registry.NewGateRegistry(cfg.GateCount, m)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create gate registry: %w", err)
	}

	// Initialize database
	db, err := database.New(cfg.DBPath)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	traffic, err := radar.LoadTrafficFiles(cfg.Radar.TrafficFiles)
	if err != nil {
		cancel()
		db.Close()
		return nil, fmt.Errorf("failed to load radar traffic: %w", err)
	}

	// Create scheduler
	sched := scheduler.New(ctx)

	journal := db.JournalRepository(runID)
	collector := tasks.NewJournalCollectorWithConfig(
		journal,
		1000,
		cfg.BatchSize,
		time.Duration(cfg.BatchTimeout)*time.Second,
		m,
	)
	sched.AddWorker("journal", collector.Start)

	generator := radar.NewGenerator(aircraft.LocalAirport(), cfg.Radar.LocalRatio, nil)
	sched.AddTask(radar.NewDetector(aircraft, time.Duration(cfg.Radar.Interval)*time.Second, traffic, generator))

	if cfg.Operations.Enabled {
		sched.AddTask(tasks.NewOperationsDriver(
			aircraft,
			gates,
			time.Duration(cfg.Operations.Interval)*time.Second,
			cfg.Operations.LostContactTicks,
			cfg.Operations.FaultRate,
			nil,
		))
	}

	d := &Daemon{
		ctx:       ctx,
		cancel:    cancel,
		runID:     runID,
		scheduler: sched,
		database:  db,
		journal:   journal,
		aircraft:  aircraft,
		gates:     gates,
		board:     display.NewBoard(aircraft, gates),
		subs: []*notify.Subscription[models.Change]{
			aircraft.Subscribe(collector.Observe),
			gates.Subscribe(collector.Observe),
		},
		done: make(chan struct{}),
	}

	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
		d.server = &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
	}

	slog.Info("Daemon configured",
		"run_id", runID,
		"aircraft_slots", cfg.AircraftSlots,
		"gates", cfg.GateCount,
		"local_airport", cfg.LocalAirport,
		"recorded_flights", len(traffic),
		"operations", cfg.Operations.Enabled,
	)

	return d, nil
}

// Board exposes the public display for callers that render it
func (d *Daemon) Board() *display.Board {
	return d.board
}

func (d *Daemon) Start() error {
	slog.Info("Starting daemon", "run_id", d.runID)

	// Informational only; every run starts with all slots and gates FREE
	if entries, err := d.journal.Recent(previousRunWindow); err != nil {
		slog.Warn("Could not read journal", "error", err)
	} else if runID, active := previousRun(entries, d.runID); runID != uuid.Nil {
		slog.Info("Previous run", "run_id", runID, "aircraft_left_active", active)
	}

	d.scheduler.Start()

	if d.server != nil {
		go func() {
			slog.Info("Serving metrics", "addr", d.server.Addr)
			if err := d.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("Metrics server stopped", "error", err)
			}
		}()
	}

	// Wait for context cancellation
	go func() {
		<-d.ctx.Done()
		close(d.done)
	}()

	slog.Info("Daemon started successfully")
	return nil
}

// Stop gracefully stops the daemon
func (d *Daemon) Stop() error {
	slog.Info("Stopping daemon")
	d.cancel()
	<-d.done

	var errs []error

	if d.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := d.server.Shutdown(shutdownCtx); err != nil {
			slog.Error("Error stopping metrics server", "error", err)
			errs = append(errs, err)
		}
		cancel()
	}

	// Stops the journal worker after it drains
	if err := d.scheduler.Stop(); err != nil {
		slog.Error("Error stopping scheduler", "error", err)
		errs = append(errs, err)
	}

	for _, sub := range d.subs {
		sub.Unsubscribe()
	}
	d.board.Close()

	if err := d.database.Close(); err != nil {
		slog.Error("Error closing database", "error", err)
		errs = append(errs, err)
	}

	slog.Info("Daemon stopped",
		"occupied_slots", d.aircraft.Capacity()-len(d.aircraft.QueryAll(models.StateFree)),
	)
	return errors.Join(errs...)
}

// previousRunWindow is how many journal rows are read to summarise the last run
const previousRunWindow = 500

// previousRun finds the newest run other than current in entries (oldest
// first) and counts the aircraft slots whose last journaled state in that
// run was not FREE. It returns uuid.Nil when entries only hold current.
func previousRun(entries []database.JournalEntry, current uuid.UUID) (uuid.UUID, int) {
	last := uuid.Nil
	for _, e := range entries {
		if e.RunID != current {
			last = e.RunID
		}
	}
	if last == uuid.Nil {
		return uuid.Nil, 0
	}

	states := make(map[int]models.AircraftState)
	for _, e := range entries {
		if e.RunID != last || e.Change.Registry != models.RegistryAircraft {
			continue
		}
		state, err := models.ParseAircraftState(e.Change.To)
		if err != nil {
			slog.Warn("Skipping journal entry", "change", e.Change, "error", err)
			continue
		}
		states[e.Change.ID] = state
	}

	active := 0
	for _, state := range states {
		if state != models.StateFree {
			active++
		}
	}
	return last, active
}
