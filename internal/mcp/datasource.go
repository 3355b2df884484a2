package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/claude/repcounter/internal/models"
	"github.com/claude/repcounter/internal/session"
	"github.com/claude/repcounter/internal/storage"
)

// DataSource abstracts the data layer for MCP tools. Both LocalSource (in
// process) and HTTPClient (remote via REST API) satisfy this interface.
type DataSource interface {
	ListExercises(ctx context.Context) ([]models.ExerciseInfo, error)
	GetTotals(ctx context.Context) (map[string]int, error)
	GetExerciseStats(ctx context.Context, exercise string) (*models.ExerciseStats, error)
	GetHistory(ctx context.Context, exercise string, limit int) ([]models.SessionRecord, error)
	// GetCurrentSession returns nil when no session is open.
	GetCurrentSession(ctx context.Context) (*models.SessionStatus, error)
}

// LocalSource serves MCP queries from the running controller.
type LocalSource struct {
	ctrl *session.Controller
}

// Compile-time check: LocalSource satisfies DataSource.
var _ DataSource = (*LocalSource)(nil)

// NewLocalSource wraps a controller.
func NewLocalSource(ctrl *session.Controller) *LocalSource {
	return &LocalSource{ctrl: ctrl}
}

func (l *LocalSource) ListExercises(_ context.Context) ([]models.ExerciseInfo, error) {
	profiles := l.ctrl.Catalog().Profiles()
	out := make([]models.ExerciseInfo, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, models.ExerciseFromProfile(p))
	}
	return out, nil
}

func (l *LocalSource) GetTotals(ctx context.Context) (map[string]int, error) {
	totals := l.ctrl.Store().Totals(ctx)
	for _, id := range l.ctrl.Catalog().IDs() {
		if _, ok := totals[id]; !ok {
			totals[id] = 0
		}
	}
	return totals, nil
}

func (l *LocalSource) GetExerciseStats(ctx context.Context, exercise string) (*models.ExerciseStats, error) {
	if _, err := l.ctrl.Catalog().Lookup(exercise); err != nil {
		return nil, err
	}
	stats, err := storage.StatsFor(ctx, l.ctrl.Store(), exercise)
	if err != nil {
		return nil, err
	}
	out := models.StatsFromStorage(stats)
	return &out, nil
}

func (l *LocalSource) GetHistory(ctx context.Context, exercise string, limit int) ([]models.SessionRecord, error) {
	if _, err := l.ctrl.Catalog().Lookup(exercise); err != nil {
		return nil, err
	}
	records, err := l.ctrl.Store().History(ctx, exercise)
	if err != nil {
		return nil, fmt.Errorf("loading history: %w", err)
	}
	if limit > 0 && len(records) > limit {
		records = records[len(records)-limit:]
	}
	return models.RecordsFromStorage(records), nil
}

func (l *LocalSource) GetCurrentSession(_ context.Context) (*models.SessionStatus, error) {
	snap, err := l.ctrl.Current()
	if errors.Is(err, session.ErrNoSession) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	out := models.StatusFromSnapshot(snap)
	return &out, nil
}
