package out

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"pomo/internal/modules/pomodoro/domain"
	"pomo/internal/platform/clock"
	apperrors "pomo/internal/platform/errors"
	"pomo/internal/platform/id"

	_ "modernc.org/sqlite"
)

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func checkTable(table string) error {
	if !tableName.MatchString(table) {
		return fmt.Errorf("%w: table name %q", apperrors.ErrInvalidInput, table)
	}
	return nil
}

// SQLiteRemoteStore implements the remote row store on a local SQLite file.
// It serves single-machine setups and exercises the sync path without a
// hosted backend. Row ids are generated here, standing in for the server.
type SQLiteRemoteStore struct {
	db    *sql.DB
	table string
	clock clock.Clock
	idGen id.Generator
}

func NewSQLiteRemoteStore(dbPath, table string, clk clock.Clock, idGen id.Generator) (*SQLiteRemoteStore, error) {
	if err := checkTable(table); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	store := &SQLiteRemoteStore{db: db, table: table, clock: clk, idGen: idGen}
	if err := store.ensureSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteRemoteStore) ensureSchema(ctx context.Context) error {
	ddl := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %[1]s (
  pomodoroId TEXT PRIMARY KEY,
  userId TEXT,
  title TEXT NOT NULL,
  durationMinutes INTEGER,
  startedAt TEXT,
  endedAt TEXT,
  isComplete INTEGER,
  metadata TEXT NOT NULL DEFAULT '{}',
  createdAt TEXT NOT NULL,
  updatedAt TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS %[1]s_user_created ON %[1]s (userId, createdAt DESC);
`, s.table)
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create %s table: %w", s.table, err)
	}
	return nil
}

func (s *SQLiteRemoteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteRemoteStore) Create(ctx context.Context, record domain.SessionRecord) (domain.SessionRecord, error) {
	meta, err := json.Marshal(record.Metadata)
	if err != nil {
		return domain.SessionRecord{}, fmt.Errorf("marshal metadata: %w", err)
	}
	rowID := s.idGen.New()
	now := formatTime(s.clock.Now())
	stmt := fmt.Sprintf(`
INSERT INTO %s (pomodoroId, userId, title, durationMinutes, startedAt, endedAt, isComplete, metadata, createdAt, updatedAt)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
`, s.table)
	_, err = s.db.ExecContext(ctx, stmt,
		rowID,
		nullString(record.UserID),
		record.Title,
		nullInt(record.DurationMinutes),
		nullTime(record.StartedAt),
		nullTime(record.EndedAt),
		nullBool(record.IsComplete),
		string(meta),
		now,
		now,
	)
	if err != nil {
		return domain.SessionRecord{}, fmt.Errorf("insert %s row: %w", s.table, err)
	}
	return s.get(ctx, rowID)
}

func (s *SQLiteRemoteStore) Update(ctx context.Context, rowID string, changes domain.SessionChanges) (domain.SessionRecord, error) {
	sets := []string{"updatedAt = ?"}
	args := []any{formatTime(s.clock.Now())}
	if changes.EndedAt != nil {
		sets = append(sets, "endedAt = ?")
		args = append(args, formatTime(*changes.EndedAt))
	}
	if changes.IsComplete != nil {
		sets = append(sets, "isComplete = ?")
		args = append(args, *changes.IsComplete)
	}
	if changes.Metadata != nil {
		meta, err := json.Marshal(changes.Metadata)
		if err != nil {
			return domain.SessionRecord{}, fmt.Errorf("marshal metadata: %w", err)
		}
		sets = append(sets, "metadata = ?")
		args = append(args, string(meta))
	}
	args = append(args, rowID)
	stmt := fmt.Sprintf(`UPDATE %s SET %s WHERE pomodoroId = ?`, s.table, strings.Join(sets, ", "))
	res, err := s.db.ExecContext(ctx, stmt, args...)
	if err != nil {
		return domain.SessionRecord{}, fmt.Errorf("update %s row: %w", s.table, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.SessionRecord{}, apperrors.ErrNotFound
	}
	return s.get(ctx, rowID)
}

func (s *SQLiteRemoteStore) List(ctx context.Context, userID string) ([]domain.SessionRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE userId = ? ORDER BY createdAt DESC, rowid DESC`, recordColumns, s.table)
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list %s rows: %w", s.table, err)
	}
	defer rows.Close()
	out := []domain.SessionRecord{}
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s rows: %w", s.table, err)
	}
	return out, nil
}

func (s *SQLiteRemoteStore) get(ctx context.Context, rowID string) (domain.SessionRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE pomodoroId = ?`, recordColumns, s.table)
	record, err := scanRecord(s.db.QueryRowContext(ctx, query, rowID))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.SessionRecord{}, apperrors.ErrNotFound
	}
	return record, err
}

const recordColumns = `pomodoroId, userId, title, durationMinutes, startedAt, endedAt, isComplete, metadata, createdAt, updatedAt`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (domain.SessionRecord, error) {
	var (
		record                     domain.SessionRecord
		userID, startedAt, endedAt sql.NullString
		duration                   sql.NullInt64
		complete                   sql.NullBool
		meta, createdAt, updatedAt string
	)
	err := row.Scan(&record.ID, &userID, &record.Title, &duration, &startedAt, &endedAt, &complete, &meta, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.SessionRecord{}, err
		}
		return domain.SessionRecord{}, fmt.Errorf("scan row: %w", err)
	}
	record.UserID = userID.String
	if duration.Valid {
		minutes := int(duration.Int64)
		record.DurationMinutes = &minutes
	}
	if complete.Valid {
		record.IsComplete = &complete.Bool
	}
	record.StartedAt = parseTime(startedAt)
	record.EndedAt = parseTime(endedAt)
	record.CreatedAt = parseTime(sql.NullString{String: createdAt, Valid: true})
	record.UpdatedAt = parseTime(sql.NullString{String: updatedAt, Valid: true})
	if err := json.Unmarshal([]byte(meta), &record.Metadata); err != nil {
		return domain.SessionRecord{}, fmt.Errorf("decode metadata of %s: %w", record.ID, err)
	}
	return record, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(v sql.NullString) *time.Time {
	if !v.Valid || v.String == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, v.String)
	if err != nil {
		return nil
	}
	return &t
}

func nullString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullBool(v *bool) sql.NullBool {
	if v == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *v, Valid: true}
}

func nullTime(v *time.Time) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*v), Valid: true}
}
