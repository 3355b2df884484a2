package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/claude/repcounter/internal/exercise"
	"github.com/claude/repcounter/internal/metrics"
	"github.com/claude/repcounter/internal/pose"
	"github.com/claude/repcounter/internal/storage"
)

var (
	// ErrSessionActive is returned by Start while another session is open.
	ErrSessionActive = errors.New("a session is already active")
	// ErrNoSession is returned when no session is open.
	ErrNoSession = errors.New("no active session")
	// ErrUnknownExercise is returned by Start for IDs missing from the catalog.
	ErrUnknownExercise = exercise.ErrUnknown
)

// autoCloseTimeout bounds the store write made by an auto-close.
const autoCloseTimeout = 10 * time.Second

// ControllerConfig tunes a Controller.
type ControllerConfig struct {
	Window int
	// AutoClose closes a Completed session after this delay. Zero disables it.
	AutoClose time.Duration
}

// Controller accepts presentation-layer commands and owns at most one live
// session. All methods are safe for concurrent use.
type Controller struct {
	catalog *exercise.Catalog
	store   storage.Store
	cfg     ControllerConfig
	metrics *metrics.Manager
	log     *slog.Logger

	mu      sync.Mutex
	current *Session
	gen     int
	timer   *time.Timer
}

// NewController wires a controller to a catalog and a store.
func NewController(catalog *exercise.Catalog, store storage.Store, cfg ControllerConfig, m *metrics.Manager, log *slog.Logger) *Controller {
	return &Controller{
		catalog: catalog,
		store:   store,
		cfg:     cfg,
		metrics: m,
		log:     log,
	}
}

// Catalog returns the exercise catalog.
func (c *Controller) Catalog() *exercise.Catalog { return c.catalog }

// Store returns the session store.
func (c *Controller) Store() storage.Store { return c.store }

// Start opens a new session for exerciseID.
func (c *Controller) Start(exerciseID string, target int) (Snapshot, error) {
	profile, err := c.catalog.Lookup(exerciseID)
	if err != nil {
		return Snapshot{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current != nil {
		return Snapshot{}, fmt.Errorf("%w: %s", ErrSessionActive, c.current.Profile().ID)
	}

	c.gen++
	gen := c.gen
	s, err := New(profile, target, Options{
		Window: c.cfg.Window,
		OnRep: func(ev RepEvent) {
			c.metrics.CounterReps.WithLabelValues(ev.Exercise).Inc()
			c.log.Info("rep counted", "exercise", ev.Exercise, "count", ev.Count, "angle", ev.Angle)
		},
		OnComplete: func(snap Snapshot) {
			c.log.Info("session target reached", "exercise", snap.Exercise, "reps", snap.Reps)
			c.scheduleAutoClose(gen)
		},
	})
	if err != nil {
		return Snapshot{}, err
	}

	c.current = s
	c.metrics.GaugeActiveSession.Set(1)
	c.log.Info("session started", "exercise", exerciseID, "target", target)
	return s.Snapshot(), nil
}

// Frame feeds one frame to the live session.
func (c *Controller) Frame(f pose.Frame) (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current == nil {
		return Snapshot{}, ErrNoSession
	}
	snap := c.current.HandleFrame(f)
	c.metrics.CounterFrames.WithLabelValues(snap.Outcome.String()).Inc()
	if f.Kind == pose.Malformed {
		c.log.Debug("frame skipped", "reason", f.Reason)
	}
	return snap, nil
}

// Current returns the live session's snapshot.
func (c *Controller) Current() (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current == nil {
		return Snapshot{}, ErrNoSession
	}
	return c.current.Snapshot(), nil
}

// Close persists the live session with whatever count it has reached.
// On a store failure the session stays open so the call can be retried.
func (c *Controller) Close(ctx context.Context) (storage.Record, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeLocked(ctx)
}

func (c *Controller) closeLocked(ctx context.Context) (storage.Record, error) {
	if c.current == nil {
		return storage.Record{}, ErrNoSession
	}

	s := c.current
	rec, err := s.Close(ctx, c.store)
	if err != nil {
		c.metrics.CounterAppendFailures.Inc()
		c.log.Error("session save failed", "exercise", s.Profile().ID, "reps", s.Reps(), "error", err)
		return storage.Record{}, err
	}

	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.current = nil
	c.metrics.GaugeActiveSession.Set(0)
	c.metrics.CounterSessionsClosed.WithLabelValues(rec.ExerciseID).Inc()
	c.log.Info("session saved", "exercise", rec.ExerciseID, "reps", rec.Reps, "id", rec.ID)
	return rec, nil
}

// scheduleAutoClose runs with c.mu held, from inside HandleFrame.
func (c *Controller) scheduleAutoClose(gen int) {
	if c.cfg.AutoClose <= 0 {
		return
	}
	c.timer = time.AfterFunc(c.cfg.AutoClose, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.current == nil || c.gen != gen {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), autoCloseTimeout)
		defer cancel()
		if _, err := c.closeLocked(ctx); err != nil {
			c.log.Warn("auto-close failed, session left open", "error", err)
		}
	})
}

// Shutdown saves any live session. Every exit path persists the count.
func (c *Controller) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current == nil {
		return nil
	}
	_, err := c.closeLocked(ctx)
	return err
}
