package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"

	"github.com/claude/repcounter/internal/config"
	"github.com/claude/repcounter/internal/logging"
	"github.com/claude/repcounter/internal/replay"
	"github.com/claude/repcounter/internal/storage"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	path := flag.String("path", "", "recording file or directory of .jsonl recordings (required)")
	exerciseID := flag.String("exercise", "", "exercise for every recording (default: file name prefix)")
	target := flag.Int("target", 0, "stop each recording at this many reps (0 = run to the end)")
	dryRun := flag.Bool("dry-run", false, "count reps without saving sessions")
	force := flag.Bool("force", false, "replay files even if they were replayed before")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println("repcounter-replay", Version)
		return
	}

	if *path == "" {
		fmt.Fprintf(os.Stderr, "Usage: repcounter-replay -config config.yaml -path <recordings> [-exercise id] [-target N] [-dry-run]\n\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	log, logCloser := logging.New(cfg.Logging)
	defer logCloser.Close()

	catalog, err := cfg.Catalog()
	if err != nil {
		log.Error("invalid exercise catalog", "error", err)
		os.Exit(1)
	}
	if *exerciseID != "" {
		if _, err := catalog.Lookup(*exerciseID); err != nil {
			log.Error("unknown exercise", "exercise", *exerciseID, "known", catalog.IDs())
			os.Exit(1)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := storage.Open(ctx, storage.Options{
		Backend:        cfg.Storage.Backend,
		Path:           cfg.Storage.Path,
		DSN:            cfg.Storage.Database.DSN(),
		MigrationsPath: cfg.Storage.Migrations,
	}, log)
	if err != nil {
		log.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	// Open state database
	var state *replay.StateDB
	if !*dryRun && !*force {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			log.Error("failed to get home directory", "error", err)
			os.Exit(1)
		}
		state, err = replay.OpenStateDB(filepath.Join(homeDir, ".repcounter-replay"))
		if err != nil {
			log.Error("failed to open state database", "error", err)
			os.Exit(1)
		}
		defer state.Close()
	}

	if *dryRun {
		log.Info("DRY RUN mode, sessions will be counted but not saved")
	}

	r := replay.New(catalog, store, state, replay.Options{
		Exercise: *exerciseID,
		Target:   *target,
		Window:   cfg.Session.SmoothingWindow,
		DryRun:   *dryRun,
	}, log)
	stats, err := r.Run(ctx, *path)
	if err != nil {
		log.Error("replay failed", "error", err)
		printStats(log, stats, nil)
		os.Exit(1)
	}

	var totals map[string]int
	if !*dryRun {
		totals = store.Totals(ctx)
	}
	printStats(log, stats, totals)
	log.Info("replay complete")
}

func printStats(log *slog.Logger, stats *replay.Stats, totals map[string]int) {
	fmt.Println()
	fmt.Println("=== Replay Summary ===")
	fmt.Printf("  Files processed:  %d\n", stats.FilesProcessed)
	fmt.Printf("  Files skipped:    %d (already replayed)\n", stats.FilesSkipped)
	fmt.Printf("  Files errored:    %d\n", stats.FilesErrored)
	fmt.Printf("  Sessions saved:   %d\n", stats.SessionsSaved)
	fmt.Println()
	for _, outcome := range sortedKeys(stats.Frames) {
		fmt.Printf("  Frames %-10s %d\n", outcome+":", stats.Frames[outcome])
	}
	for _, id := range sortedKeys(stats.Reps) {
		fmt.Printf("  Reps %-12s %d\n", id+":", stats.Reps[id])
	}
	if len(totals) > 0 {
		fmt.Printf("\n  Lifetime totals:\n")
		for _, id := range sortedKeys(totals) {
			fmt.Printf("    - %s: %d\n", id, totals[id])
		}
	}
	fmt.Println()
	if stats.FilesErrored > 0 {
		log.Warn("some recordings failed", "count", stats.FilesErrored)
	}
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
