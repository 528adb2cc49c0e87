package db

import (
	"errors"
	"fmt"
	"strings"

	"github.com/raphaelgruber/branchcast/internal/models"
	"github.com/surrealdb/surrealdb.go"
)

// Sentinel errors for database operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrVersionExists indicates a tree version with the same map and number
	// was already published.
	ErrVersionExists = errors.New("tree version already exists")

	// ErrTransactionConflict indicates a SurrealDB transaction conflict.
	// Callers may retry.
	ErrTransactionConflict = errors.New("transaction conflict")

	// ErrNotFound aliases the shared not-found sentinel so callers outside
	// this package can match it without importing db.
	ErrNotFound = models.ErrNotFound
)

// wrapQueryError inspects a SurrealDB error and wraps it with the matching
// sentinel. Errors that are not QueryErrors pass through unchanged.
func wrapQueryError(err error) error {
	if err == nil {
		return nil
	}

	var queryErr *surrealdb.QueryError
	if errors.As(err, &queryErr) {
		msg := queryErr.Message
		if strings.Contains(msg, "already exists") || strings.Contains(msg, "already contains") {
			return fmt.Errorf("%w: %s", ErrVersionExists, msg)
		}
		if strings.Contains(msg, "Transaction conflict") {
			return fmt.Errorf("%w: %s", ErrTransactionConflict, msg)
		}
	}

	return err
}
