package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/raphaelgruber/branchcast/internal/metrics"
	"github.com/raphaelgruber/branchcast/internal/models"
	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// transitionRow is the stored form of one extract transition.
type transitionRow struct {
	MapID             string          `json:"map_id"`
	Seq               int             `json:"seq"`
	FromLabel         string          `json:"from_label"`
	ToLabel           string          `json:"to_label"`
	ObservedFrequency float64         `json:"observed_frequency"`
	Occurrences       int             `json:"occurrences"`
	Trigger           *string         `json:"trigger,omitempty"`
	Factors           []models.Factor `json:"factors"`
}

func (r transitionRow) transition() models.Transition {
	t := models.Transition{
		FromLabel:         r.FromLabel,
		ToLabel:           r.ToLabel,
		ObservedFrequency: r.ObservedFrequency,
		Occurrences:       r.Occurrences,
		Factors:           r.Factors,
	}
	if r.Trigger != nil {
		t.Trigger = *r.Trigger
	}
	return t
}

// firstResult unwraps the first statement's rows of a query response.
func firstResult[T any](results *[]surrealdb.QueryResult[[]T]) []T {
	if results == nil || len(*results) == 0 {
		return nil
	}
	return (*results)[0].Result
}

// GetMap returns a map record, or ErrNotFound.
func (c *Client) GetMap(ctx context.Context, mapID string) (*models.OutcomeMap, error) {
	start := time.Now()
	results, err := surrealdb.Query[[]models.OutcomeMap](ctx, c.db, `
		SELECT * FROM type::record("outcome_map", $id)
	`, map[string]any{"id": mapID})
	c.observe(metrics.OpDBQuery, start, err)
	if err != nil {
		return nil, fmt.Errorf("get map: %w", wrapQueryError(err))
	}

	rows := firstResult(results)
	if len(rows) == 0 {
		return nil, fmt.Errorf("map %q: %w", mapID, ErrNotFound)
	}
	return &rows[0], nil
}

// ListMaps returns all map records ordered by name.
func (c *Client) ListMaps(ctx context.Context) ([]models.OutcomeMap, error) {
	start := time.Now()
	results, err := surrealdb.Query[[]models.OutcomeMap](ctx, c.db, `
		SELECT * FROM outcome_map ORDER BY name ASC
	`, nil)
	c.observe(metrics.OpDBQuery, start, err)
	if err != nil {
		return nil, fmt.Errorf("list maps: %w", wrapQueryError(err))
	}

	rows := firstResult(results)
	if rows == nil {
		return []models.OutcomeMap{}, nil
	}
	return rows, nil
}

// FetchExtract loads the map's seed context and transitions, oldest first.
// A map without transitions yields an empty extract; the caller decides
// whether that is an error.
func (c *Client) FetchExtract(ctx context.Context, mapID string) (*models.Extract, error) {
	m, err := c.GetMap(ctx, mapID)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	results, err := surrealdb.Query[[]transitionRow](ctx, c.db, `
		SELECT * FROM sim_transition WHERE map_id = $map ORDER BY seq ASC
	`, map[string]any{"map": mapID})
	c.observe(metrics.OpDBQuery, start, err)
	if err != nil {
		return nil, fmt.Errorf("fetch extract: %w", wrapQueryError(err))
	}

	e := &models.Extract{MapID: mapID, SeedContext: m.SeedContext}
	for _, r := range firstResult(results) {
		e.Transitions = append(e.Transitions, r.transition())
	}
	return e, nil
}

// ImportExtract upserts the map record and appends the extract's
// transitions after the existing ones. With replace, existing transitions
// are deleted first. It returns the number of transitions stored.
func (c *Client) ImportExtract(ctx context.Context, mapID, name string, e *models.Extract, replace bool) (int, error) {
	if name == "" {
		name = mapID
	}

	next := 0
	if !replace {
		results, err := surrealdb.Query[[]struct {
			Max *int `json:"max"`
		}](ctx, c.db, `
			SELECT math::max(seq) AS max FROM sim_transition WHERE map_id = $map GROUP ALL
		`, map[string]any{"map": mapID})
		if err != nil {
			return 0, fmt.Errorf("read sequence: %w", wrapQueryError(err))
		}
		if rows := firstResult(results); len(rows) > 0 && rows[0].Max != nil {
			next = *rows[0].Max + 1
		}
	}

	rows := make([]transitionRow, 0, len(e.Transitions))
	for i, t := range e.Transitions {
		r := transitionRow{
			MapID:             mapID,
			Seq:               next + i,
			FromLabel:         t.FromLabel,
			ToLabel:           t.ToLabel,
			ObservedFrequency: t.ObservedFrequency,
			Occurrences:       t.Occurrences,
			Factors:           t.Factors,
		}
		if r.Factors == nil {
			r.Factors = []models.Factor{}
		}
		if t.Trigger != "" {
			trigger := t.Trigger
			r.Trigger = &trigger
		}
		rows = append(rows, r)
	}

	seed := e.SeedContext
	if seed == nil {
		seed = map[string]string{}
	}

	deleteClause := ""
	if replace {
		deleteClause = "DELETE sim_transition WHERE map_id = $map;"
	}
	sql := fmt.Sprintf(`
		BEGIN TRANSACTION;
		UPSERT type::record("outcome_map", $map) MERGE {
			name: $name,
			seed_context: $seed,
			updated_at: time::now()
		};
		%s
		INSERT INTO sim_transition $rows;
		COMMIT TRANSACTION;
	`, deleteClause)

	start := time.Now()
	_, err := surrealdb.Query[any](ctx, c.db, sql, map[string]any{
		"map":  mapID,
		"name": name,
		"seed": seed,
		"rows": rows,
	})
	c.observe(metrics.OpDBQuery, start, err)
	if err != nil {
		return 0, fmt.Errorf("import extract: %w", wrapQueryError(err))
	}

	c.logger.Info("imported extract", "map", mapID, "transitions", len(rows), "replace", replace)
	return len(rows), nil
}

// SetMapStatus mirrors the orchestrator's per-map state into the map record.
func (c *Client) SetMapStatus(ctx context.Context, mapID string, status models.GenerationStatus, lastError *string) error {
	start := time.Now()
	_, err := surrealdb.Query[any](ctx, c.db, `
		UPDATE type::record("outcome_map", $map) SET
			status = $status,
			last_error = $err,
			updated_at = time::now()
	`, map[string]any{"map": mapID, "status": string(status), "err": lastError})
	c.observe(metrics.OpDBQuery, start, err)
	if err != nil {
		return fmt.Errorf("set map status: %w", wrapQueryError(err))
	}
	return nil
}

func versionKey(mapID string, version int) string {
	return fmt.Sprintf("%s_v%d", mapID, version)
}

// PublishVersion stores a new tree version and moves the map's current
// pointer to it in one transaction. v.Version must be the next number;
// a duplicate fails with ErrVersionExists and leaves the map untouched.
func (c *Client) PublishVersion(ctx context.Context, v *models.TreeVersion) error {
	start := time.Now()
	_, err := surrealdb.Query[any](ctx, c.db, `
		BEGIN TRANSACTION;
		CREATE type::record("tree_version", $key) CONTENT {
			map_id: $map,
			version: $version,
			tree: $tree,
			paths: $paths,
			report: $report,
			narratives: $narratives,
			generated_at: $generated_at
		};
		UPDATE type::record("outcome_map", $map) SET
			current_version = $version,
			status = "completed",
			last_error = NONE,
			updated_at = time::now();
		COMMIT TRANSACTION;
	`, map[string]any{
		"key":          versionKey(v.MapID, v.Version),
		"map":          v.MapID,
		"version":      v.Version,
		"tree":         v.Tree,
		"paths":        v.Paths,
		"report":       v.Report,
		"narratives":   v.Narratives,
		"generated_at": v.GeneratedAt,
	})
	c.observe(metrics.OpDBPublish, start, err)
	if err != nil {
		return fmt.Errorf("publish version: %w", wrapQueryError(err))
	}

	c.logger.Info("published tree version", "map", v.MapID, "version", v.Version)
	return nil
}

// GetVersion returns one published version, or ErrNotFound.
func (c *Client) GetVersion(ctx context.Context, mapID string, version int) (*models.TreeVersion, error) {
	start := time.Now()
	results, err := surrealdb.Query[[]models.TreeVersion](ctx, c.db, `
		SELECT * OMIT id FROM type::record("tree_version", $key)
	`, map[string]any{"key": versionKey(mapID, version)})
	c.observe(metrics.OpDBQuery, start, err)
	if err != nil {
		return nil, fmt.Errorf("get version: %w", wrapQueryError(err))
	}

	rows := firstResult(results)
	if len(rows) == 0 {
		return nil, fmt.Errorf("map %q version %d: %w", mapID, version, ErrNotFound)
	}
	return &rows[0], nil
}

// CurrentVersion returns the version the map currently points at.
func (c *Client) CurrentVersion(ctx context.Context, mapID string) (*models.TreeVersion, error) {
	m, err := c.GetMap(ctx, mapID)
	if err != nil {
		return nil, err
	}
	if m.CurrentVersion == 0 {
		return nil, fmt.Errorf("map %q has no published version: %w", mapID, ErrNotFound)
	}
	return c.GetVersion(ctx, mapID, m.CurrentVersion)
}

// ListVersions returns version summaries, newest first.
func (c *Client) ListVersions(ctx context.Context, mapID string) ([]models.VersionSummary, error) {
	start := time.Now()
	results, err := surrealdb.Query[[]models.VersionSummary](ctx, c.db, `
		SELECT
			version,
			tree.metadata.total_nodes AS total_nodes,
			tree.metadata.total_paths AS total_paths,
			tree.config.probability_model AS model,
			generated_at
		FROM tree_version
		WHERE map_id = $map
		ORDER BY version DESC
	`, map[string]any{"map": mapID})
	c.observe(metrics.OpDBQuery, start, err)
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", wrapQueryError(err))
	}

	rows := firstResult(results)
	if rows == nil {
		return []models.VersionSummary{}, nil
	}
	return rows, nil
}

// CreateRequest queues a generation request for the worker.
func (c *Client) CreateRequest(ctx context.Context, mapID string, req models.GenerateRequest) (*models.QueuedRequest, error) {
	start := time.Now()
	results, err := surrealdb.Query[[]models.QueuedRequest](ctx, c.db, `
		CREATE type::record("generation_request", $id) CONTENT {
			map_id: $map,
			request: $request,
			status: "pending",
			created_at: time::now()
		} RETURN AFTER
	`, map[string]any{
		"id":      uuid.NewString(),
		"map":     mapID,
		"request": req,
	})
	c.observe(metrics.OpDBQuery, start, err)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", wrapQueryError(err))
	}

	rows := firstResult(results)
	if len(rows) == 0 {
		return nil, errors.New("create request: no record returned")
	}
	return &rows[0], nil
}

// PendingRequests returns up to limit pending requests, oldest first.
func (c *Client) PendingRequests(ctx context.Context, limit int) ([]models.QueuedRequest, error) {
	start := time.Now()
	results, err := surrealdb.Query[[]models.QueuedRequest](ctx, c.db, `
		SELECT * FROM generation_request
		WHERE status = "pending"
		ORDER BY created_at ASC
		LIMIT $limit
	`, map[string]any{"limit": limit})
	c.observe(metrics.OpDBQuery, start, err)
	if err != nil {
		return nil, fmt.Errorf("pending requests: %w", wrapQueryError(err))
	}

	rows := firstResult(results)
	if rows == nil {
		return []models.QueuedRequest{}, nil
	}
	return rows, nil
}

// UpdateRequestStatus records a request's progress. Terminal statuses also
// stamp completed_at.
func (c *Client) UpdateRequestStatus(ctx context.Context, id surrealmodels.RecordID, status models.RequestStatus, version *int, errMsg *string) error {
	completed := ""
	if status != models.RequestPending && status != models.RequestRunning {
		completed = ", completed_at = time::now()"
	}
	sql := fmt.Sprintf(`
		UPDATE $id SET status = $status, version = $version, error = $err%s
	`, completed)

	start := time.Now()
	_, err := surrealdb.Query[any](ctx, c.db, sql, map[string]any{
		"id":      id,
		"status":  string(status),
		"version": version,
		"err":     errMsg,
	})
	c.observe(metrics.OpDBQuery, start, err)
	if err != nil {
		return fmt.Errorf("update request status: %w", wrapQueryError(err))
	}
	return nil
}
