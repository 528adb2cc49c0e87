package models

import "errors"

// Sentinel errors for generation. Use errors.Is to check them.
var (
	// ErrNoSourceData means the extract has nothing to build from.
	ErrNoSourceData = errors.New("no source data")

	// ErrInvalidConfiguration means a request parameter is out of range.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrGenerationTimeout means the tree exceeded its node or time budget.
	ErrGenerationTimeout = errors.New("generation timeout")

	// ErrNarrativeUnavailable means the narrative writer could not be reached.
	ErrNarrativeUnavailable = errors.New("narrative unavailable")

	// ErrGenerationInProgress means the map already has an active generation.
	ErrGenerationInProgress = errors.New("generation already in progress")

	// ErrNotFound means the requested map or version does not exist.
	ErrNotFound = errors.New("not found")
)
