package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/mdincl/internal/config"
	"git.home.luguber.info/inful/mdincl/internal/daemon"
	"git.home.luguber.info/inful/mdincl/internal/gitsource"
	"git.home.luguber.info/inful/mdincl/internal/logfields"
	"git.home.luguber.info/inful/mdincl/internal/metrics"
	"git.home.luguber.info/inful/mdincl/internal/resolve"
	"git.home.luguber.info/inful/mdincl/internal/store"
	"git.home.luguber.info/inful/mdincl/internal/verify"
	"git.home.luguber.info/inful/mdincl/internal/version"
)

var CLI struct {
	Config  string `short:"c" help:"Configuration file path" default:"mdincl.yaml"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Verify struct {
		Root string `short:"r" help:"Documentation root (overrides configuration)"`
	} `cmd:"" help:"Check every local reference under the documentation root"`

	Scan struct {
		Root string `short:"r" help:"Documentation root (overrides configuration)"`
	} `cmd:"" help:"Run one verification pass and record it in the scan store"`

	Expand struct {
		Files  []string `arg:"" optional:"" help:"Documents to expand, relative to the root (default: every document)"`
		Output string   `short:"o" help:"Output directory for expanded documents (overrides configuration)"`
		Stdout bool     `help:"Write expanded documents to stdout instead of files"`
	} `cmd:"" help:"Expand inclusion directives into standalone documents"`

	Watch struct{} `cmd:"" help:"Watch the documentation tree, rescan on changes and serve status"`

	History struct {
		Limit int `short:"n" help:"Number of scans to show" default:"10"`
	} `cmd:"" help:"Show recent scans from the store"`

	Init struct {
		Force bool `help:"Overwrite existing configuration file"`
	} `cmd:"" help:"Initialize a new configuration file"`

	Version struct{} `cmd:"" help:"Print version information"`
}

func main() {
	ctx := kong.Parse(&CLI)

	level := slog.LevelInfo
	if CLI.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	// Init and version run before configuration loading: init's whole point
	// is that the file does not exist yet.
	switch ctx.Command() {
	case "init":
		if err := runInit(CLI.Config, CLI.Init.Force); err != nil {
			slog.Error("Init failed", logfields.Error(err))
			os.Exit(1)
		}
		return
	case "version":
		fmt.Println(version.String())
		return
	}

	cfg, err := config.Load(CLI.Config)
	if err != nil {
		slog.Error("Failed to load configuration", logfields.Error(err))
		os.Exit(1)
	}
	setupLogging(cfg, CLI.Verbose)

	switch ctx.Command() {
	case "verify":
		if err := runVerify(cfg, CLI.Verify.Root); err != nil {
			slog.Error("Verify failed", logfields.Error(err))
			os.Exit(1)
		}
	case "scan":
		if err := runScan(cfg, CLI.Scan.Root); err != nil {
			slog.Error("Scan failed", logfields.Error(err))
			os.Exit(1)
		}
	case "expand", "expand <files>":
		if err := runExpand(cfg, CLI.Expand.Files, CLI.Expand.Output, CLI.Expand.Stdout); err != nil {
			slog.Error("Expand failed", logfields.Error(err))
			os.Exit(1)
		}
	case "watch":
		if err := runWatch(cfg); err != nil {
			slog.Error("Watch failed", logfields.Error(err))
			os.Exit(1)
		}
	case "history":
		if err := runHistory(cfg, CLI.History.Limit); err != nil {
			slog.Error("History failed", logfields.Error(err))
			os.Exit(1)
		}
	}
}

func setupLogging(cfg *config.Config, verbose bool) {
	level := slog.LevelInfo
	switch cfg.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if cfg.Logging.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// resolveRoot returns the directory to operate on. An explicit override wins;
// otherwise a configured repository is cloned or updated and its document
// directory used; otherwise the configured root.
func resolveRoot(ctx context.Context, cfg *config.Config, override string) (string, error) {
	if override != "" {
		return override, nil
	}
	if cfg.Repository == nil {
		return cfg.Root, nil
	}

	src := gitsource.New(*cfg.Repository)
	root, err := src.Sync(ctx)
	if err != nil {
		return "", fmt.Errorf("sync repository: %w", err)
	}
	return root, nil
}

func runInit(configPath string, force bool) error {
	slog.Info("Initializing configuration", logfields.Path(configPath), slog.Bool("force", force))
	return config.Init(configPath, force)
}

func runVerify(cfg *config.Config, rootOverride string) error {
	ctx := context.Background()

	root, err := resolveRoot(ctx, cfg, rootOverride)
	if err != nil {
		return err
	}

	start := time.Now()
	problems, stats, err := verify.Tree(ctx, root, verify.Options{Include: cfg.Include, Exclude: cfg.Exclude, HTML: cfg.HTML})
	if err != nil {
		return err
	}
	for _, p := range problems {
		fmt.Println(p.String())
	}

	slog.Info("Verification finished",
		logfields.Root(root),
		logfields.Files(stats.Files),
		logfields.Refs(stats.Refs),
		logfields.Broken(stats.Broken),
		logfields.DurationMS(float64(time.Since(start).Milliseconds())))

	if stats.Broken > 0 {
		return fmt.Errorf("%d broken references", stats.Broken)
	}
	return nil
}

func runScan(cfg *config.Config, rootOverride string) error {
	ctx := context.Background()

	root, err := resolveRoot(ctx, cfg, rootOverride)
	if err != nil {
		return err
	}

	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer closeStore(st)

	start := time.Now()
	problems, stats, err := verify.Tree(ctx, root, verify.Options{Include: cfg.Include, Exclude: cfg.Exclude, HTML: cfg.HTML})
	if err != nil {
		return err
	}
	for _, p := range problems {
		fmt.Println(p.String())
	}

	scan := store.Scan{
		Root:       root,
		Cause:      daemon.CauseManual,
		StartedAt:  start,
		FinishedAt: time.Now(),
		Files:      stats.Files,
		Refs:       stats.Refs,
		Broken:     stats.Broken,
	}
	id, err := st.RecordScan(ctx, scan, problems)
	if err != nil {
		return fmt.Errorf("record scan: %w", err)
	}
	scan.ID = id

	slog.Info("Scan recorded",
		logfields.ScanID(id),
		logfields.Files(stats.Files),
		logfields.Refs(stats.Refs),
		logfields.Broken(stats.Broken),
		logfields.DurationMS(float64(time.Since(start).Milliseconds())))

	if cfg.NATS != nil {
		pub, err := daemon.NewPublisher(cfg.NATS)
		if err != nil {
			slog.Warn("Failed to connect NATS publisher", logfields.Error(err))
			return nil
		}
		defer pub.Close()
		if err := pub.PublishScan(ctx, daemon.NewScanEvent(scan, problems)); err != nil {
			slog.Warn("Failed to publish scan event", logfields.Error(err))
		}
	}
	return nil
}

func runExpand(cfg *config.Config, files []string, outputDir string, toStdout bool) error {
	ctx := context.Background()

	root, err := resolveRoot(ctx, cfg, "")
	if err != nil {
		return err
	}
	if outputDir == "" {
		outputDir = cfg.Resolve.OutputDir
	}

	if len(files) == 0 {
		files, err = verify.Documents(root, verify.Options{Include: cfg.Include, Exclude: cfg.Exclude})
		if err != nil {
			return err
		}
	}
	if len(files) == 0 {
		slog.Warn("No documents to expand", logfields.Root(root))
		return nil
	}

	// The fingerprint store lets unchanged documents be skipped. Expansion
	// still works when it cannot be opened.
	var st *store.Store
	if !toStdout {
		if st, err = store.Open(cfg.Store.Path); err != nil {
			slog.Warn("Proceeding without fingerprint store", logfields.Error(err))
			st = nil
		} else {
			defer closeStore(st)
		}
	}

	resolver := resolve.New(root, resolve.Options{
		MaxDepth:         cfg.Resolve.MaxDepth,
		Missing:          resolve.MissingPolicy(cfg.Resolve.Missing),
		StampFingerprint: cfg.Resolve.StampFingerprint,
	})

	start := time.Now()
	expanded, skipped := 0, 0
	for _, rel := range files {
		rel = filepath.ToSlash(filepath.Clean(rel))

		result, err := resolver.Expand(ctx, rel)
		if err != nil {
			return fmt.Errorf("expand %s: %w", rel, err)
		}

		if toStdout {
			if _, err := os.Stdout.Write(result.Output); err != nil {
				return fmt.Errorf("write %s to stdout: %w", rel, err)
			}
			expanded++
			continue
		}

		outPath := filepath.Join(outputDir, filepath.FromSlash(rel))
		if unchanged(ctx, st, rel, result.Fingerprint, outPath) {
			skipped++
			continue
		}
		if err := os.MkdirAll(filepath.Dir(outPath), 0o750); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
		if err := os.WriteFile(outPath, result.Output, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", outPath, err)
		}
		if st != nil {
			if err := st.SetFingerprint(ctx, rel, result.Fingerprint); err != nil {
				slog.Warn("Failed to record fingerprint", logfields.File(rel), logfields.Error(err))
			}
		}

		slog.Debug("Expanded document",
			logfields.File(rel),
			logfields.Path(outPath),
			slog.Int("includes", result.Includes))
		expanded++
	}

	slog.Info("Expansion finished",
		logfields.Root(root),
		slog.Int("expanded", expanded),
		slog.Int("skipped", skipped),
		logfields.DurationMS(float64(time.Since(start).Milliseconds())))
	return nil
}

// unchanged reports whether rel expanded to the same content last time and
// the output file is still in place.
func unchanged(ctx context.Context, st *store.Store, rel, fingerprint, outPath string) bool {
	if st == nil || fingerprint == "" {
		return false
	}
	prev, err := st.Fingerprint(ctx, rel)
	if err != nil || prev != fingerprint {
		return false
	}
	_, err = os.Stat(outPath)
	return err == nil
}

func runWatch(cfg *config.Config) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var source *gitsource.Source
	root := cfg.Root
	if cfg.Repository != nil {
		source = gitsource.New(*cfg.Repository)
		synced, err := source.Sync(ctx)
		if err != nil {
			return fmt.Errorf("sync repository: %w", err)
		}
		root = synced
	}

	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer closeStore(st)

	deps := daemon.Deps{Store: st, Source: source}
	if cfg.Metrics.Enabled {
		deps.Registry = prom.NewRegistry()
		deps.Recorder = metrics.NewPrometheusRecorder(deps.Registry)
	}
	if cfg.NATS != nil {
		pub, err := daemon.NewPublisher(cfg.NATS)
		if err != nil {
			return fmt.Errorf("connect NATS publisher: %w", err)
		}
		defer pub.Close()
		deps.Publisher = pub
	}

	d := daemon.New(cfg, root, deps)
	return d.Run(ctx)
}

func runHistory(cfg *config.Config, limit int) error {
	ctx := context.Background()

	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer closeStore(st)

	scans, err := st.Scans(ctx, limit)
	if err != nil {
		return err
	}
	if len(scans) == 0 {
		fmt.Println("no scans recorded")
		return nil
	}

	for _, scan := range scans {
		fmt.Printf("%s  %-8s  files=%d refs=%d broken=%d  %s\n",
			scan.StartedAt.Format(time.RFC3339),
			scan.Cause,
			scan.Files,
			scan.Refs,
			scan.Broken,
			scan.ID)
	}
	return nil
}

func closeStore(st *store.Store) {
	if err := st.Close(); err != nil {
		slog.Warn("Failed to close store", logfields.Error(err))
	}
}
