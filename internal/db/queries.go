package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/j-veylop/whoop-dashboard-tui/internal/logger"
	"github.com/j-veylop/whoop-dashboard-tui/internal/models"
)

// Record kinds stored in the records table.
const (
	KindRecovery = "recovery"
	KindSleep    = "sleep"
	KindWorkout  = "workout"
	KindCycle    = "cycle"
)

const timeLayout = time.RFC3339Nano

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		logger.Debug("unparsable cached time", "value", s, "error", err)
	}
	return t
}

// FetchInfo describes one cached load.
type FetchInfo struct {
	Key       string
	Start     time.Time
	End       time.Time
	FetchedAt time.Time
	Records   int
}

type recordRow struct {
	kind       string
	id         string
	recordedAt time.Time
	value      any
}

func datasetRows(ds *models.Dataset) []recordRow {
	rows := make([]recordRow, 0, len(ds.Recovery)+len(ds.Sleep)+len(ds.Workouts)+len(ds.Cycles))
	for _, r := range ds.Recovery {
		rows = append(rows, recordRow{KindRecovery, strconv.FormatInt(r.CycleID, 10), r.CreatedAt, r})
	}
	for _, s := range ds.Sleep {
		rows = append(rows, recordRow{KindSleep, s.ID, s.End, s})
	}
	for _, w := range ds.Workouts {
		rows = append(rows, recordRow{KindWorkout, w.ID, w.Start, w})
	}
	for _, c := range ds.Cycles {
		rows = append(rows, recordRow{KindCycle, strconv.FormatInt(c.ID, 10), c.Start, c})
	}
	return rows
}

// PutDataset stores ds under key, replacing whatever was cached for it.
func (db *DB) PutDataset(key string, ds *models.Dataset) (err error) {
	if ds == nil {
		return errors.New("nil dataset")
	}

	tx, err := db.BeginTx(context.Background(), nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	ctx := context.Background()
	for _, q := range []string{`DELETE FROM records WHERE fetch_key = ?`, `DELETE FROM fetches WHERE fetch_key = ?`} {
		if _, err = tx.ExecContext(ctx, q, key); err != nil {
			return fmt.Errorf("failed to clear fetch: %w", err)
		}
	}

	fetchedAt := ds.FetchedAt
	if fetchedAt.IsZero() {
		fetchedAt = time.Now()
	}
	if _, err = tx.ExecContext(ctx,
		`INSERT INTO fetches (fetch_key, range_start, range_end, fetched_at) VALUES (?, ?, ?, ?)`,
		key, formatTime(ds.Start), formatTime(ds.End), formatTime(fetchedAt),
	); err != nil {
		return fmt.Errorf("failed to insert fetch: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO records (fetch_key, kind, record_id, recorded_at, payload)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(fetch_key, kind, record_id) DO UPDATE SET
			recorded_at = excluded.recorded_at,
			payload = excluded.payload
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare record insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, r := range datasetRows(ds) {
		payload, mErr := json.Marshal(r.value)
		if mErr != nil {
			err = fmt.Errorf("failed to marshal %s record: %w", r.kind, mErr)
			return err
		}
		id := r.id
		if id == "" {
			id = "#" + strconv.Itoa(i)
		}
		if _, err = stmt.ExecContext(ctx, key, r.kind, id, formatTime(r.recordedAt), string(payload)); err != nil {
			return fmt.Errorf("failed to insert %s record: %w", r.kind, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit dataset: %w", err)
	}
	return nil
}

// GetDataset returns the dataset cached under key. ok is false when nothing
// is cached.
func (db *DB) GetDataset(key string) (ds *models.Dataset, ok bool, err error) {
	var start, end, fetchedAt string
	err = db.QueryRowContext(context.Background(),
		`SELECT range_start, range_end, fetched_at FROM fetches WHERE fetch_key = ?`, key,
	).Scan(&start, &end, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to query fetch: %w", err)
	}

	ds = &models.Dataset{
		Start:     parseTime(start),
		End:       parseTime(end),
		FetchedAt: parseTime(fetchedAt),
		FromCache: true,
	}

	rows, err := db.QueryContext(context.Background(), `
		SELECT kind, payload FROM records
		WHERE fetch_key = ?
		ORDER BY kind, recorded_at, record_id
	`, key)
	if err != nil {
		return nil, false, fmt.Errorf("failed to query records: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logger.Error("failed to close rows", "error", err)
		}
	}()

	for rows.Next() {
		var kind, payload string
		if err := rows.Scan(&kind, &payload); err != nil {
			return nil, false, fmt.Errorf("failed to scan record: %w", err)
		}
		if err := appendRecord(ds, kind, []byte(payload)); err != nil {
			return nil, false, err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, false, err
	}
	return ds, true, nil
}

func appendRecord(ds *models.Dataset, kind string, payload []byte) error {
	var err error
	switch kind {
	case KindRecovery:
		var r models.Recovery
		if err = json.Unmarshal(payload, &r); err == nil {
			ds.Recovery = append(ds.Recovery, r)
		}
	case KindSleep:
		var s models.Sleep
		if err = json.Unmarshal(payload, &s); err == nil {
			ds.Sleep = append(ds.Sleep, s)
		}
	case KindWorkout:
		var w models.Workout
		if err = json.Unmarshal(payload, &w); err == nil {
			ds.Workouts = append(ds.Workouts, w)
		}
	case KindCycle:
		var c models.Cycle
		if err = json.Unmarshal(payload, &c); err == nil {
			ds.Cycles = append(ds.Cycles, c)
		}
	default:
		logger.Warn("skipping cached record of unknown kind", "kind", kind)
	}
	if err != nil {
		return fmt.Errorf("failed to decode cached %s record: %w", kind, err)
	}
	return nil
}

// ListFetches returns the cached loads, newest first.
func (db *DB) ListFetches() ([]FetchInfo, error) {
	rows, err := db.QueryContext(context.Background(), `
		SELECT f.fetch_key, f.range_start, f.range_end, f.fetched_at, COUNT(r.record_id)
		FROM fetches f
		LEFT JOIN records r ON r.fetch_key = f.fetch_key
		GROUP BY f.fetch_key
		ORDER BY f.fetched_at DESC, f.fetch_key
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query fetches: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logger.Error("failed to close rows", "error", err)
		}
	}()

	var out []FetchInfo
	for rows.Next() {
		var f FetchInfo
		var start, end, fetchedAt string
		if err := rows.Scan(&f.Key, &start, &end, &fetchedAt, &f.Records); err != nil {
			return nil, fmt.Errorf("failed to scan fetch: %w", err)
		}
		f.Start, f.End, f.FetchedAt = parseTime(start), parseTime(end), parseTime(fetchedAt)
		out = append(out, f)
	}
	return out, rows.Err()
}

// PruneFetches keeps the newest keep loads and drops the rest.
func (db *DB) PruneFetches(keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}
	res, err := db.ExecContext(context.Background(), `
		DELETE FROM fetches WHERE fetch_key NOT IN (
			SELECT fetch_key FROM fetches ORDER BY fetched_at DESC, fetch_key LIMIT ?
		)
	`, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to prune fetches: %w", err)
	}
	if _, err := db.ExecContext(context.Background(),
		`DELETE FROM records WHERE fetch_key NOT IN (SELECT fetch_key FROM fetches)`); err != nil {
		return 0, fmt.Errorf("failed to prune records: %w", err)
	}
	return res.RowsAffected()
}

// PutProfile caches the member profile.
func (db *DB) PutProfile(p *models.UserProfile) error {
	payload, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}
	_, err = db.ExecContext(context.Background(), `
		INSERT INTO profile (id, payload, fetched_at) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET payload = excluded.payload, fetched_at = excluded.fetched_at
	`, string(payload), formatTime(time.Now()))
	if err != nil {
		return fmt.Errorf("failed to store profile: %w", err)
	}
	return nil
}

// GetProfile returns the cached profile, or nil when none is cached.
func (db *DB) GetProfile() (*models.UserProfile, error) {
	var payload string
	err := db.QueryRowContext(context.Background(), `SELECT payload FROM profile WHERE id = 1`).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query profile: %w", err)
	}
	var p models.UserProfile
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		return nil, fmt.Errorf("failed to decode profile: %w", err)
	}
	return &p, nil
}

// Clear drops everything cached, for example after logging out.
func (db *DB) Clear() error {
	for _, q := range []string{`DELETE FROM records`, `DELETE FROM fetches`, `DELETE FROM profile`} {
		if _, err := db.ExecContext(context.Background(), q); err != nil {
			return fmt.Errorf("failed to clear cache: %w", err)
		}
	}
	return nil
}
