package intervalstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"vgrid/internal/config"
	"vgrid/internal/interval"
	"vgrid/internal/intervalset"
	"vgrid/internal/logging"
	"vgrid/internal/mapping"
	"vgrid/internal/textutil"
)

// Store manages track persistence backed by SQLite.
type Store struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// TrackInfo summarizes a stored track.
type TrackInfo struct {
	Name      string
	Sources   int
	Intervals int
	UpdatedAt time.Time
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Open initializes or connects to the annotation store configured in cfg.
func Open(cfg *config.Config, logger *slog.Logger) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(cfg.Paths.StorePath, logger)
}

// OpenPath opens the database at path, creating and migrating it as needed.
func OpenPath(path string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path, logger: logging.NewComponentLogger(logger, "intervalstore")}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// PutTrack stores m under name, replacing any previous track with that name.
func (s *Store) PutTrack(ctx context.Context, name string, m mapping.Mapping) error {
	name = textutil.Canonical(name)
	if name == "" {
		return &interval.ValidationError{Field: "name", Reason: "must not be empty"}
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)

	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin put tx: %w", err)
		}
		defer func() {
			_ = tx.Rollback()
		}()

		var trackID int64
		err = tx.QueryRowContext(ctx, `INSERT INTO tracks (name, created_at, updated_at) VALUES (?, ?, ?)
			ON CONFLICT(name) DO UPDATE SET updated_at = excluded.updated_at
			RETURNING id`, name, now, now).Scan(&trackID)
		if err != nil {
			return fmt.Errorf("upsert track: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM intervals WHERE track_id = ?", trackID); err != nil {
			return fmt.Errorf("clear intervals: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, `INSERT INTO intervals
			(track_id, key_is_string, source_key, position, t1, t2, x1, x2, y1, y2, payload)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare insert: %w", err)
		}
		defer stmt.Close()

		total := 0
		for _, key := range m.Keys() {
			set, _ := m.Get(key)
			for pos, it := range set.All() {
				payload, err := interval.Map(it.Payload.Fields()).MarshalJSON()
				if err != nil {
					return fmt.Errorf("encode payload for key %s: %w", key, err)
				}
				b := it.Bounds.Optional()
				if _, err := stmt.ExecContext(ctx, trackID, key.IsString(), key.String(), pos,
					nullFloat(b[0]), nullFloat(b[1]), nullFloat(b[2]), nullFloat(b[3]), nullFloat(b[4]), nullFloat(b[5]),
					string(payload)); err != nil {
					return fmt.Errorf("insert interval: %w", err)
				}
				total++
			}
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit put: %w", err)
		}
		s.logger.Info("track stored",
			logging.String(logging.FieldTrack, name),
			logging.Int("sources", m.Len()),
			logging.Int("intervals", total))
		return nil
	})
}

// LoadTrack reads the track stored under name. Missing tracks fail with a
// *NotFoundError.
func (s *Store) LoadTrack(ctx context.Context, name string) (mapping.Mapping, error) {
	name = textutil.Canonical(name)
	var trackID int64
	err := s.db.QueryRowContext(ctx, "SELECT id FROM tracks WHERE name = ?", name).Scan(&trackID)
	if errors.Is(err, sql.ErrNoRows) {
		return mapping.Mapping{}, &NotFoundError{Name: name}
	}
	if err != nil {
		return mapping.Mapping{}, fmt.Errorf("lookup track: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT key_is_string, source_key, t1, t2, x1, x2, y1, y2, payload
		FROM intervals WHERE track_id = ? ORDER BY key_is_string, source_key, position`, trackID)
	if err != nil {
		return mapping.Mapping{}, fmt.Errorf("query intervals: %w", err)
	}
	defer rows.Close()

	buckets := make(map[mapping.Key][]interval.Interval)
	for rows.Next() {
		var (
			isString bool
			keyText  string
			bounds   [6]sql.NullFloat64
			payload  string
		)
		if err := rows.Scan(&isString, &keyText, &bounds[0], &bounds[1], &bounds[2], &bounds[3], &bounds[4], &bounds[5], &payload); err != nil {
			return mapping.Mapping{}, fmt.Errorf("scan interval: %w", err)
		}
		key := mapping.StringKey(keyText)
		if !isString {
			key = mapping.ParseKey(keyText)
		}
		it, err := decodeInterval(bounds, payload)
		if err != nil {
			return mapping.Mapping{}, fmt.Errorf("track %q key %s: %w", name, key, err)
		}
		buckets[key] = append(buckets[key], it)
	}
	if err := rows.Err(); err != nil {
		return mapping.Mapping{}, fmt.Errorf("iterate intervals: %w", err)
	}

	sets := make(map[mapping.Key]intervalset.Set, len(buckets))
	for k, items := range buckets {
		sets[k] = intervalset.New(items...)
	}
	return mapping.New(sets), nil
}

// Tracks lists stored tracks by name.
func (s *Store) Tracks(ctx context.Context) ([]TrackInfo, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT t.name, t.updated_at,
			COUNT(DISTINCT i.key_is_string || ':' || i.source_key), COUNT(i.track_id)
		FROM tracks t LEFT JOIN intervals i ON i.track_id = t.id
		GROUP BY t.id ORDER BY t.name`)
	if err != nil {
		return nil, fmt.Errorf("query tracks: %w", err)
	}
	defer rows.Close()

	var out []TrackInfo
	for rows.Next() {
		var (
			info    TrackInfo
			updated string
		)
		if err := rows.Scan(&info.Name, &updated, &info.Sources, &info.Intervals); err != nil {
			return nil, fmt.Errorf("scan track: %w", err)
		}
		if ts, err := time.Parse(time.RFC3339Nano, updated); err == nil {
			info.UpdatedAt = ts
		}
		out = append(out, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tracks: %w", err)
	}
	return out, nil
}

// DeleteTrack removes a track and its intervals. It reports whether a track
// was removed.
func (s *Store) DeleteTrack(ctx context.Context, name string) (bool, error) {
	name = textutil.Canonical(name)
	var affected int64
	err := retryOnBusy(ctx, func() error {
		res, err := s.db.ExecContext(ctx, "DELETE FROM tracks WHERE name = ?", name)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return false, fmt.Errorf("delete track: %w", err)
	}
	if affected > 0 {
		s.logger.Info("track deleted", logging.String(logging.FieldTrack, name))
	}
	return affected > 0, nil
}

func decodeInterval(raw [6]sql.NullFloat64, payload string) (interval.Interval, error) {
	var fields [6]*float64
	for i := range raw {
		if raw[i].Valid {
			v := raw[i].Float64
			fields[i] = &v
		}
	}
	b, err := interval.FromOptional(fields)
	if err != nil {
		return interval.Interval{}, err
	}
	var v interval.Value
	if err := json.Unmarshal([]byte(payload), &v); err != nil {
		return interval.Interval{}, fmt.Errorf("decode payload: %w", err)
	}
	m, ok := v.AsMap()
	if !ok {
		return interval.Interval{}, fmt.Errorf("decode payload: expected object, got %s", v.Kind())
	}
	p, err := interval.NewPayload(m)
	if err != nil {
		return interval.Interval{}, err
	}
	return interval.New(b, p), nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code()&0xff == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := range busyRetryAttempts {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		delay = min(delay*2, busyRetryMaxBackoff)
	}
	return lastErr
}
