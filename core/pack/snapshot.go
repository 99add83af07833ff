package pack

import (
	"time"

	"github.com/parcelops/dispatchd/core/model"
)

// Snapshot is the full serializable state of the tracker: active sessions,
// history and worker metrics. The tracker never decides when to persist;
// callers export on their own schedule and restore on startup.
type Snapshot struct {
	TakenAt time.Time           `json:"taken_at"`
	Active  []model.PackSession `json:"active"`
	History []model.PackSession `json:"history"`
	Workers []WorkerStats       `json:"workers"`
}

// ExportSnapshot returns the tracker's full state as a plain JSON-shaped
// structure.
func (t *Tracker) ExportSnapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	snap := Snapshot{TakenAt: t.now()}
	for _, s := range t.active {
		snap.Active = append(snap.Active, *s)
	}
	snap.History = append(snap.History, t.history...)
	for _, w := range t.workers {
		snap.Workers = append(snap.Workers, *w)
	}
	return snap
}

// RestoreSnapshot replaces the tracker's state with the snapshot contents.
func (t *Tracker) RestoreSnapshot(snap Snapshot) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.active = make(map[string]*model.PackSession, len(snap.Active))
	for i := range snap.Active {
		s := snap.Active[i]
		if s.Timestamps == nil {
			s.Timestamps = make(map[model.PackStatus]time.Time)
		}
		t.active[s.OrderNumber] = &s
	}
	t.history = append([]model.PackSession(nil), snap.History...)
	t.workers = make(map[string]*WorkerStats, len(snap.Workers))
	for _, w := range snap.Workers {
		cp := w
		t.workers[cp.Worker] = &cp
	}
	activeSessions.Set(float64(len(t.active)))
	t.log.Infof("restored %d active sessions, %d historical", len(t.active), len(t.history))
}
