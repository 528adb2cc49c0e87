package service

import (
	"context"
	"sync"
	"time"

	"github.com/raphaelgruber/branchcast/internal/models"
)

// MapState is a snapshot of one map's generation record.
type MapState struct {
	MapID       string                  `json:"map_id"`
	Status      models.GenerationStatus `json:"status"`
	Progress    int                     `json:"progress"` // nodes built so far in the current run
	Level       int                     `json:"level"`    // tree levels completed in the current run
	MaxDepth    int                     `json:"max_depth"`
	Version     int                     `json:"version"` // last version published by this process
	Error       string                  `json:"error,omitempty"`
	StartedAt   time.Time               `json:"started_at"`
	CompletedAt *time.Time              `json:"completed_at,omitempty"`
}

// mapRecord is the live, lock-guarded generation record for a map.
type mapRecord struct {
	mu     sync.RWMutex
	state  MapState
	cancel context.CancelFunc
}

func (r *mapRecord) mapID() string {
	return r.state.MapID // immutable after creation
}

func (r *mapRecord) setProgress(nodes int) {
	r.mu.Lock()
	r.state.Progress = nodes
	r.state.Level++
	r.mu.Unlock()
}

func (r *mapRecord) setMaxDepth(depth int) {
	r.mu.Lock()
	r.state.MaxDepth = depth
	r.mu.Unlock()
}

func (r *mapRecord) snapshot() MapState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

// begin moves a map to generating. It fails with ErrGenerationInProgress
// when a run for the map is already active.
func (s *GenerationService) begin(mapID string) (*mapRecord, context.Context, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[mapID]
	if !ok {
		rec = &mapRecord{state: MapState{MapID: mapID, Status: models.StatusIdle}}
		s.records[mapID] = rec
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.state.Status == models.StatusGenerating {
		return nil, nil, models.ErrGenerationInProgress
	}

	ctx, cancel := context.WithCancel(context.Background())
	rec.state = MapState{
		MapID:     mapID,
		Status:    models.StatusGenerating,
		Version:   rec.state.Version,
		StartedAt: s.now(),
	}
	rec.cancel = cancel
	return rec, ctx, nil
}

// finish records the outcome of a run and releases the map.
func (s *GenerationService) finish(rec *mapRecord, v *models.TreeVersion, err error) {
	rec.mu.Lock()
	defer rec.mu.Unlock()

	now := s.now()
	rec.state.CompletedAt = &now
	if rec.cancel != nil {
		rec.cancel()
		rec.cancel = nil
	}
	if err != nil {
		rec.state.Status = models.StatusFailed
		rec.state.Error = err.Error()
		return
	}
	rec.state.Status = models.StatusCompleted
	rec.state.Version = v.Version
}

// State returns a snapshot of a map's generation record. Unknown maps are idle.
func (s *GenerationService) State(mapID string) MapState {
	s.mu.Lock()
	rec, ok := s.records[mapID]
	s.mu.Unlock()
	if !ok {
		return MapState{MapID: mapID, Status: models.StatusIdle}
	}
	return rec.snapshot()
}

// States returns snapshots of every map this process has seen.
func (s *GenerationService) States() []MapState {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]MapState, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec.snapshot())
	}
	return out
}

// Cancel stops a running generation. It reports whether one was running.
func (s *GenerationService) Cancel(mapID string) bool {
	s.mu.Lock()
	rec, ok := s.records[mapID]
	s.mu.Unlock()
	if !ok {
		return false
	}

	rec.mu.RLock()
	defer rec.mu.RUnlock()
	if rec.state.Status != models.StatusGenerating || rec.cancel == nil {
		return false
	}
	rec.cancel()
	return true
}
