package models

import (
	"time"

	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// GenerationStatus is the state of a map's generation record.
type GenerationStatus string

const (
	StatusIdle       GenerationStatus = "idle"
	StatusGenerating GenerationStatus = "generating"
	StatusCompleted  GenerationStatus = "completed"
	StatusFailed     GenerationStatus = "failed"
)

// TreeVersion is one immutable, published generation result for a map.
type TreeVersion struct {
	MapID       string            `json:"map_id"`
	Version     int               `json:"version"`
	Tree        *Tree             `json:"tree"`
	Paths       []Path            `json:"paths"`
	Report      *AnalysisReport   `json:"report"`
	Narratives  map[string]string `json:"narratives,omitempty"`
	GeneratedAt time.Time         `json:"generated_at"`
}

// VersionSummary is a listing row for a published version.
type VersionSummary struct {
	Version     int       `json:"version"`
	TotalNodes  int       `json:"total_nodes"`
	TotalPaths  int       `json:"total_paths"`
	Model       string    `json:"model"`
	GeneratedAt time.Time `json:"generated_at"`
}

// OutcomeMap is the persisted map record that owns the current version.
type OutcomeMap struct {
	ID             surrealmodels.RecordID `json:"id"`
	Name           string                 `json:"name"`
	SeedContext    map[string]string      `json:"seed_context,omitempty"`
	CurrentVersion int                    `json:"current_version"`
	Status         string                 `json:"status"`
	LastError      *string                `json:"last_error,omitempty"`
	UpdatedAt      time.Time              `json:"updated_at"`
}

// RequestStatus tracks a queued generation request.
type RequestStatus string

const (
	RequestPending   RequestStatus = "pending"
	RequestRunning   RequestStatus = "running"
	RequestCompleted RequestStatus = "completed"
	RequestFailed    RequestStatus = "failed"
	RequestRejected  RequestStatus = "rejected"
)

// QueuedRequest is a persisted generation request awaiting the worker.
type QueuedRequest struct {
	ID          surrealmodels.RecordID `json:"id"`
	MapID       string                 `json:"map_id"`
	Request     GenerateRequest        `json:"request"`
	Status      string                 `json:"status"`
	Error       *string                `json:"error,omitempty"`
	Version     *int                   `json:"version,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
	CompletedAt *time.Time             `json:"completed_at,omitempty"`
}
