// Package daemon runs mdincl in watch mode. A filesystem watcher over the
// documentation tree triggers debounced verification scans, a scheduler forces
// periodic full passes, results land in the scan store and optionally on a
// JetStream subject, and an admin HTTP server exposes health, status and
// Prometheus metrics.
package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"git.home.luguber.info/inful/mdincl/internal/config"
	"git.home.luguber.info/inful/mdincl/internal/gitsource"
	"git.home.luguber.info/inful/mdincl/internal/logfields"
	"git.home.luguber.info/inful/mdincl/internal/metrics"
	"git.home.luguber.info/inful/mdincl/internal/store"
	"git.home.luguber.info/inful/mdincl/internal/verify"
	"git.home.luguber.info/inful/mdincl/internal/version"
	prom "github.com/prometheus/client_golang/prometheus"
)

// Causes recorded with each scan.
const (
	CauseStartup  = "startup"
	CauseManual   = "manual"
	CauseWatch    = "watch"
	CauseSchedule = "schedule"
)

// Deps are the collaborators the daemon drives. Store, Registry, Source and
// Publisher may be nil; a nil Recorder falls back to the noop one.
type Deps struct {
	Store    *store.Store
	Recorder metrics.Recorder
	// Registry serves /metrics on the admin endpoint when non-nil.
	Registry *prom.Registry
	// Source, when set, is synced before every scan and its root scanned
	// instead of the configured one.
	Source    *gitsource.Source
	Publisher *Publisher
}

// Daemon owns the watch loop state.
type Daemon struct {
	cfg  *config.Config
	root string
	deps Deps

	// scans carries pending scan causes; capacity 1 coalesces bursts.
	scans chan string

	mu        sync.RWMutex
	startedAt time.Time
	scanning  bool
	last      *store.Scan
	lastErr   error
}

// New assembles a daemon scanning root with the given collaborators.
func New(cfg *config.Config, root string, deps Deps) *Daemon {
	if deps.Recorder == nil {
		deps.Recorder = metrics.NoopRecorder{}
	}
	return &Daemon{
		cfg:   cfg,
		root:  root,
		deps:  deps,
		scans: make(chan string, 1),
	}
}

// Trigger requests a scan with the given cause. When one is already pending
// the request is absorbed by it.
func (d *Daemon) Trigger(cause string) {
	select {
	case d.scans <- cause:
	default:
	}
}

// Run starts the watcher, scheduler and admin server, performs an initial
// scan and then serves scan requests until ctx is canceled.
func (d *Daemon) Run(ctx context.Context) error {
	d.mu.Lock()
	d.startedAt = time.Now()
	d.mu.Unlock()

	debounce, err := d.cfg.Debounce()
	if err != nil {
		return fmt.Errorf("watch.debounce: %w", err)
	}
	rescan, err := d.cfg.RescanInterval()
	if err != nil {
		return fmt.Errorf("watch.rescan: %w", err)
	}

	watcher, err := NewWatcher(d.root, debounce, d.deps.Recorder)
	if err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}
	go watcher.Run(ctx, d.scans)

	if rescan > 0 {
		scheduler, err := NewScheduler()
		if err != nil {
			return err
		}
		if _, err := scheduler.SchedulePeriodicScan(rescan, func() { d.Trigger(CauseSchedule) }); err != nil {
			return err
		}
		scheduler.Start()
		defer func() {
			if err := scheduler.Stop(); err != nil {
				slog.Error("Scheduler shutdown failed", logfields.Error(err))
			}
		}()
	}

	server := newServer(d.cfg.Watch.Addr, d, d.deps.Registry)
	if err := server.Start(); err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Stop(shutdownCtx); err != nil {
			slog.Error("Admin server shutdown failed", logfields.Error(err))
		}
	}()

	slog.Info("Daemon started",
		slog.String("version", version.Version),
		logfields.Root(d.root),
		slog.String("addr", d.cfg.Watch.Addr),
		slog.Duration("debounce", debounce),
		slog.Duration("rescan", rescan))

	if err := d.runScan(ctx, CauseStartup); err != nil {
		slog.Error("Initial scan failed", logfields.Error(err))
	}

	for {
		select {
		case <-ctx.Done():
			slog.Info("Daemon stopping")
			return nil
		case cause := <-d.scans:
			if err := d.runScan(ctx, cause); err != nil {
				slog.Error("Scan failed", slog.String("cause", cause), logfields.Error(err))
			}
		}
	}
}

// runScan performs one verification pass: sync the source if any, verify the
// tree, record metrics and history, publish the result.
func (d *Daemon) runScan(ctx context.Context, cause string) error {
	d.setScanning(true)
	defer d.setScanning(false)

	start := time.Now()
	root := d.root
	if d.deps.Source != nil {
		synced, err := d.deps.Source.Sync(ctx)
		if err != nil {
			d.deps.Recorder.IncScanOutcome(metrics.Outcome(err, 0))
			d.setResult(nil, err)
			return fmt.Errorf("sync repository: %w", err)
		}
		root = synced
	}

	problems, stats, err := verify.Tree(ctx, root, verify.Options{
		Include: d.cfg.Include,
		Exclude: d.cfg.Exclude,
		HTML:    d.cfg.HTML,
	})
	duration := time.Since(start)
	d.deps.Recorder.ObserveScanDuration(duration)
	d.deps.Recorder.IncScanOutcome(metrics.Outcome(err, stats.Broken))
	if err != nil {
		d.setResult(nil, err)
		return err
	}
	d.deps.Recorder.SetFilesScanned(stats.Files)
	d.deps.Recorder.SetRefsFound(stats.Refs)
	d.deps.Recorder.SetBrokenRefs(stats.Broken)

	scan := store.Scan{
		Root:       root,
		Cause:      cause,
		StartedAt:  start,
		FinishedAt: time.Now(),
		Files:      stats.Files,
		Refs:       stats.Refs,
		Broken:     stats.Broken,
	}
	if d.deps.Store != nil {
		id, serr := d.deps.Store.RecordScan(ctx, scan, problems)
		if serr != nil {
			d.setResult(nil, serr)
			return fmt.Errorf("record scan: %w", serr)
		}
		scan.ID = id
	}
	d.setResult(&scan, nil)

	slog.Info("Scan finished",
		slog.String("cause", cause),
		logfields.Files(stats.Files),
		logfields.Refs(stats.Refs),
		logfields.Broken(stats.Broken),
		logfields.DurationMS(float64(duration.Milliseconds())))

	if d.deps.Publisher != nil {
		if perr := d.deps.Publisher.PublishScan(ctx, NewScanEvent(scan, problems)); perr != nil {
			slog.Error("Publishing scan event failed", logfields.Error(perr))
		}
	}
	return nil
}

func (d *Daemon) setScanning(v bool) {
	d.mu.Lock()
	d.scanning = v
	d.mu.Unlock()
}

func (d *Daemon) setResult(scan *store.Scan, err error) {
	d.mu.Lock()
	if scan != nil {
		d.last = scan
	}
	d.lastErr = err
	d.mu.Unlock()
}
