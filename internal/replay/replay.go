// Package replay runs recorded pose streams through the rep engine, one
// session per recording.
package replay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/claude/repcounter/internal/exercise"
	"github.com/claude/repcounter/internal/ingest"
	"github.com/claude/repcounter/internal/session"
	"github.com/claude/repcounter/internal/storage"
)

// closeTimeout bounds the save of a session whose run was cancelled.
const closeTimeout = 10 * time.Second

// Stats tracks replay progress.
type Stats struct {
	FilesProcessed int
	FilesSkipped   int
	FilesErrored   int

	// Frames counts frames by engine outcome.
	Frames map[string]int
	// Reps counts repetitions by exercise.
	Reps          map[string]int
	SessionsSaved int
}

// Options tunes a Replayer.
type Options struct {
	// Exercise overrides the exercise derived from each file name.
	Exercise string
	// Target is the per-session target; zero runs each file to the end.
	Target int
	Window int
	DryRun bool
}

// Replayer feeds recordings through sessions and saves the results.
type Replayer struct {
	catalog *exercise.Catalog
	store   storage.Store
	state   *StateDB
	opts    Options
	log     *slog.Logger
	stats   Stats
}

// New creates a Replayer. state may be nil to replay every file regardless
// of history.
func New(catalog *exercise.Catalog, store storage.Store, state *StateDB, opts Options, log *slog.Logger) *Replayer {
	return &Replayer{
		catalog: catalog,
		store:   store,
		state:   state,
		opts:    opts,
		log:     log,
		stats:   Stats{Frames: map[string]int{}, Reps: map[string]int{}},
	}
}

// Run replays every recording under root. Per-file failures are logged and
// counted; only context cancellation stops the run early.
func (r *Replayer) Run(ctx context.Context, root string) (*Stats, error) {
	files, err := Discover(root)
	if err != nil {
		return &r.stats, err
	}

	base := root
	if info, err := os.Stat(root); err == nil && !info.IsDir() {
		base = filepath.Dir(root)
	}

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return &r.stats, err
		}

		rel, err := filepath.Rel(base, path)
		if err != nil {
			rel = path
		}

		if err := r.replayFile(ctx, path, rel); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return &r.stats, err
			}
			r.log.Warn("replay failed", "file", rel, "error", err)
			r.stats.FilesErrored++
		}
	}
	return &r.stats, nil
}

func (r *Replayer) replayFile(ctx context.Context, path, rel string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	var hash string
	if r.state != nil {
		hash, err = HashFile(path)
		if err != nil {
			return fmt.Errorf("hashing: %w", err)
		}
		done, err := r.state.IsReplayed(rel, info.Size(), hash)
		if err != nil {
			return fmt.Errorf("checking state: %w", err)
		}
		if done {
			r.log.Debug("already replayed", "file", rel)
			r.stats.FilesSkipped++
			return nil
		}
	}

	exerciseID := r.opts.Exercise
	if exerciseID == "" {
		exerciseID = ExerciseFromName(path)
	}
	profile, err := r.catalog.Lookup(exerciseID)
	if err != nil {
		return err
	}

	sess, streamErr := r.runSession(ctx, path, profile)
	if sess == nil {
		return streamErr
	}
	reps := sess.Reps()
	r.stats.Reps[profile.ID] += reps
	if streamErr == nil {
		r.stats.FilesProcessed++
	}

	if r.opts.DryRun {
		r.log.Info("replayed (dry run)", "file", rel, "exercise", profile.ID, "reps", reps)
		return streamErr
	}

	// A recording cut short still saves the reps reached so far. Close with a
	// fresh context when the run itself was cancelled.
	closeCtx := ctx
	if ctx.Err() != nil {
		var cancel context.CancelFunc
		closeCtx, cancel = context.WithTimeout(context.WithoutCancel(ctx), closeTimeout)
		defer cancel()
	}
	rec, err := sess.Close(closeCtx, r.store)
	if err != nil {
		return errors.Join(streamErr, err)
	}
	r.stats.SessionsSaved++
	r.log.Info("replayed", "file", rel, "exercise", profile.ID, "reps", reps, "id", rec.ID)

	// Marked even when cut short, so a rerun does not save the same reps twice.
	if r.state != nil {
		if err := r.state.MarkReplayed(rel, info.Size(), hash, profile.ID, reps); err != nil {
			r.log.Warn("failed to mark as replayed", "file", rel, "error", err)
		}
	}
	return streamErr
}

// runSession plays one recording through a fresh session. Playback stops
// early once the target is reached. A read error partway through returns the
// session alongside the error so the reps counted so far can be saved.
func (r *Replayer) runSession(ctx context.Context, path string, profile exercise.Profile) (*session.Session, error) {
	rc, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	s, err := session.New(profile, r.opts.Target, session.Options{Window: r.opts.Window})
	if err != nil {
		return nil, err
	}

	src := ingest.NewLineSource(rc)
	for {
		f, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return s, fmt.Errorf("reading %s: %w", path, err)
		}
		snap := s.HandleFrame(f)
		r.stats.Frames[snap.Outcome.String()]++
		if snap.Status == session.Completed {
			break
		}
	}
	return s, nil
}
