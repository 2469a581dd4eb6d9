package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/canvashq/canvas/internal/core"
)

// CachedEntry is an admin view row for one persisted research result.
type CachedEntry struct {
	Key       string    `json:"key"`
	Doctor    string    `json:"doctor"`
	Specialty string    `json:"specialty,omitempty"`
	Location  string    `json:"location,omitempty"`
	Depth     string    `json:"depth,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Expired   bool      `json:"expired"`
}

// HistoryEntry is one row of the research run log.
type HistoryEntry struct {
	ResearchID  string    `json:"research_id"`
	Doctor      string    `json:"doctor"`
	Specialty   string    `json:"specialty,omitempty"`
	Location    string    `json:"location,omitempty"`
	Status      int       `json:"status"`
	Confidence  int       `json:"confidence"`
	Provider    string    `json:"provider,omitempty"`
	Model       string    `json:"model,omitempty"`
	FromCache   bool      `json:"from_cache"`
	RequestedAt time.Time `json:"requested_at"`
	ResolvedAt  time.Time `json:"resolved_at"`
}

// CachedResearch returns a persisted, unexpired research result, or nil when
// none exists.
func (s *Store) CachedResearch(ctx context.Context, key string) (*core.ResearchResult, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	key = strings.TrimSpace(key)
	if key == "" {
		return nil, errors.New("research key is required")
	}

	var (
		resultJSON string
		expiresAt  int64
	)
	row := s.DB.QueryRowContext(ctx, `
		SELECT result_json, expires_at
		FROM research_cache
		WHERE key = ? AND expires_at > ?
	`, key, time.Now().UTC().Unix())

	if err := row.Scan(&resultJSON, &expiresAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch cached research: %w", err)
	}

	var result core.ResearchResult
	if err := json.Unmarshal([]byte(resultJSON), &result); err != nil {
		return nil, fmt.Errorf("decode cached research: %w", err)
	}

	expires := time.Unix(expiresAt, 0).UTC()
	result.Provenance.FromCache = true
	result.Provenance.CacheExpiresAt = &expires
	return &result, nil
}

// SaveResearch persists a research result for ttl. A non-positive ttl or nil
// result is a no-op.
func (s *Store) SaveResearch(ctx context.Context, key string, result *core.ResearchResult, ttl time.Duration) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if ttl <= 0 || result == nil {
		return nil
	}

	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("research key is required")
	}

	resultJSON, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode research result: %w", err)
	}

	now := time.Now().UTC()
	depth := depthFromKey(key)

	_, err = s.DB.ExecContext(ctx, `
		INSERT INTO research_cache (key, doctor, specialty, location, depth, result_json, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			doctor = excluded.doctor,
			specialty = excluded.specialty,
			location = excluded.location,
			depth = excluded.depth,
			result_json = excluded.result_json,
			created_at = excluded.created_at,
			expires_at = excluded.expires_at
	`, key, result.Doctor, result.Specialty, result.Location, depth, string(resultJSON), now.Unix(), now.Add(ttl).Unix())
	if err != nil {
		return fmt.Errorf("store research result: %w", err)
	}
	return nil
}

// RecordRun appends a research run to the history log.
func (s *Store) RecordRun(ctx context.Context, result *core.ResearchResult) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if result == nil {
		return nil
	}

	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO research_history
			(research_id, doctor, specialty, location, status, confidence, provider, model, from_cache, requested_at, resolved_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		result.Provenance.ResearchID,
		result.Doctor,
		result.Specialty,
		result.Location,
		int(result.Status),
		result.Confidence,
		result.Provenance.Provider,
		result.Provenance.Model,
		boolToInt(result.Provenance.FromCache),
		result.Provenance.RequestedAt.UTC().Unix(),
		result.Provenance.ResolvedAt.UTC().Unix(),
	)
	if err != nil {
		return fmt.Errorf("record research run: %w", err)
	}
	return nil
}

// ListCachedResearch returns admin rows for the persisted cache, newest first.
func (s *Store) ListCachedResearch(ctx context.Context, includeExpired bool) ([]CachedEntry, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	now := time.Now().UTC().Unix()
	query := `
		SELECT key, doctor, specialty, location, depth, created_at, expires_at
		FROM research_cache
	`
	args := []any{}
	if !includeExpired {
		query += ` WHERE expires_at > ?`
		args = append(args, now)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list cached research: %w", err)
	}
	defer rows.Close() // nolint:errcheck // best-effort cleanup on SQL rows

	var entries []CachedEntry
	for rows.Next() {
		var (
			entry     CachedEntry
			specialty sql.NullString
			location  sql.NullString
			depth     sql.NullString
			createdAt int64
			expiresAt int64
		)
		if err := rows.Scan(&entry.Key, &entry.Doctor, &specialty, &location, &depth, &createdAt, &expiresAt); err != nil {
			return nil, fmt.Errorf("scan cached research: %w", err)
		}
		entry.Specialty = specialty.String
		entry.Location = location.String
		entry.Depth = depth.String
		entry.CreatedAt = time.Unix(createdAt, 0).UTC()
		entry.ExpiresAt = time.Unix(expiresAt, 0).UTC()
		entry.Expired = expiresAt <= now
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list cached research: %w", err)
	}
	return entries, nil
}

// PruneResearchCache deletes expired cache rows and returns how many went.
func (s *Store) PruneResearchCache(ctx context.Context) (int64, error) {
	if s == nil || s.DB == nil {
		return 0, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	res, err := s.DB.ExecContext(ctx, `DELETE FROM research_cache WHERE expires_at <= ?`, time.Now().UTC().Unix())
	if err != nil {
		return 0, fmt.Errorf("prune research cache: %w", err)
	}

	pruned, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune research cache: %w", err)
	}
	return pruned, nil
}

// RecentHistory returns the latest research runs, newest first.
func (s *Store) RecentHistory(ctx context.Context, limit int) ([]HistoryEntry, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.DB.QueryContext(ctx, `
		SELECT research_id, doctor, specialty, location, status, confidence, provider, model, from_cache, requested_at, resolved_at
		FROM research_history
		ORDER BY resolved_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list research history: %w", err)
	}
	defer rows.Close() // nolint:errcheck // best-effort cleanup on SQL rows

	var entries []HistoryEntry
	for rows.Next() {
		var (
			entry       HistoryEntry
			specialty   sql.NullString
			location    sql.NullString
			provider    sql.NullString
			model       sql.NullString
			confidence  sql.NullInt64
			fromCache   int
			requestedAt int64
			resolvedAt  int64
		)
		if err := rows.Scan(&entry.ResearchID, &entry.Doctor, &specialty, &location, &entry.Status, &confidence, &provider, &model, &fromCache, &requestedAt, &resolvedAt); err != nil {
			return nil, fmt.Errorf("scan research history: %w", err)
		}
		entry.Specialty = specialty.String
		entry.Location = location.String
		entry.Provider = provider.String
		entry.Model = model.String
		entry.Confidence = int(confidence.Int64)
		entry.FromCache = fromCache != 0
		entry.RequestedAt = time.Unix(requestedAt, 0).UTC()
		entry.ResolvedAt = time.Unix(resolvedAt, 0).UTC()
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list research history: %w", err)
	}
	return entries, nil
}

func depthFromKey(key string) string {
	parts := strings.Split(key, "|")
	if len(parts) == 0 {
		return ""
	}
	return parts[len(parts)-1]
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
