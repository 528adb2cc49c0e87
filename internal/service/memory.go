package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/raphaelgruber/branchcast/internal/db"
	"github.com/raphaelgruber/branchcast/internal/models"
)

// StaticSource serves extracts held in memory, keyed by map ID.
type StaticSource map[string]*models.Extract

// FetchExtract returns the extract for mapID, or ErrNotFound.
func (s StaticSource) FetchExtract(_ context.Context, mapID string) (*models.Extract, error) {
	e, ok := s[mapID]
	if !ok {
		return nil, fmt.Errorf("extract %q: %w", mapID, models.ErrNotFound)
	}
	return e, nil
}

// MemoryStore is a VersionStore that keeps versions in process memory.
// The offline CLI path uses it in place of the database.
type MemoryStore struct {
	mu       sync.RWMutex
	versions map[string][]*models.TreeVersion
	status   map[string]models.GenerationStatus
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		versions: make(map[string][]*models.TreeVersion),
		status:   make(map[string]models.GenerationStatus),
	}
}

// CurrentVersion returns the newest version for mapID, or ErrNotFound.
func (m *MemoryStore) CurrentVersion(_ context.Context, mapID string) (*models.TreeVersion, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	vs := m.versions[mapID]
	if len(vs) == 0 {
		return nil, fmt.Errorf("map %q has no published version: %w", mapID, models.ErrNotFound)
	}
	return vs[len(vs)-1], nil
}

// PublishVersion appends v. Its number must follow the current one.
func (m *MemoryStore) PublishVersion(_ context.Context, v *models.TreeVersion) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	vs := m.versions[v.MapID]
	if v.Version != len(vs)+1 {
		return fmt.Errorf("map %q version %d: %w", v.MapID, v.Version, db.ErrVersionExists)
	}
	m.versions[v.MapID] = append(vs, v)
	m.status[v.MapID] = models.StatusCompleted
	return nil
}

// SetMapStatus records the status of a map.
func (m *MemoryStore) SetMapStatus(_ context.Context, mapID string, status models.GenerationStatus, _ *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status[mapID] = status
	return nil
}

// Status returns the last recorded status of a map.
func (m *MemoryStore) Status(mapID string) models.GenerationStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.status[mapID]; ok {
		return s
	}
	return models.StatusIdle
}

// Versions returns every version published for mapID, oldest first.
func (m *MemoryStore) Versions(mapID string) []*models.TreeVersion {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*models.TreeVersion(nil), m.versions[mapID]...)
}
