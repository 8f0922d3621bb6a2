package out

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	batchdomain "rescollect/internal/modules/batch/domain"
	"rescollect/internal/modules/collector/domain"
	collectorout "rescollect/internal/modules/collector/port/out"
	apperrors "rescollect/internal/platform/errors"
	"rescollect/internal/platform/tx"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
	tx tx.Manager
}

func NewSQLiteRepository(dbPath string) (collectorout.Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// sqlite serializes writers; one connection keeps transactions from
	// tripping over SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	repo := &SQLiteRepository{db: db, tx: tx.SQLManager{DB: db}}
	if err := repo.ensureSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

func (s *SQLiteRepository) ensureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS records (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  position INTEGER NOT NULL,
  measured_at TEXT NOT NULL,
  frequency REAL NOT NULL,
  frequency_deviation REAL NOT NULL,
  resistance REAL NOT NULL,
  resistance_deviation REAL NOT NULL,
  comment TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS records_position ON records(position);
CREATE TABLE IF NOT EXISTS metadata (
  id INTEGER PRIMARY KEY CHECK (id = 1),
  data_type TEXT NOT NULL,
  route_id TEXT NOT NULL,
  ambient_temperature_range TEXT NOT NULL,
  date TEXT NOT NULL,
  comment TEXT NOT NULL
);
`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

func (s *SQLiteRepository) ListRecords(ctx context.Context) ([]domain.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, measured_at, frequency, frequency_deviation, resistance, resistance_deviation, comment
FROM records ORDER BY position, id`)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	records := make([]domain.Record, 0)
	for rows.Next() {
		var (
			r  domain.Record
			at string
		)
		if err := rows.Scan(&r.ID, &at, &r.Frequency, &r.FrequencyDeviation, &r.Resistance, &r.ResistanceDeviation, &r.Comment); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		if r.Timestamp, err = time.Parse(time.RFC3339Nano, at); err != nil {
			return nil, fmt.Errorf("record %d timestamp: %w", r.ID, err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	return records, nil
}

// SaveRecord appends the record, replaces the target row in place keeping
// its id and comment, or inserts it right before the target.
func (s *SQLiteRepository) SaveRecord(ctx context.Context, record domain.Record, placement domain.Placement) (domain.Record, error) {
	err := s.tx.Within(ctx, func(ctx context.Context) error {
		q := tx.From(ctx, s.db)
		if placement.TargetID == nil {
			var pos int64
			if err := q.QueryRowContext(ctx, `SELECT COALESCE(MAX(position), 0) + 1 FROM records`).Scan(&pos); err != nil {
				return fmt.Errorf("next position: %w", err)
			}
			return s.insert(ctx, q, &record, pos)
		}

		target := *placement.TargetID
		var (
			pos     int64
			comment string
		)
		err := q.QueryRowContext(ctx, `SELECT position, comment FROM records WHERE id = ?`, target).Scan(&pos, &comment)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("row %d: %w", target, apperrors.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("lookup row %d: %w", target, err)
		}

		if placement.InsertBefore {
			if _, err := q.ExecContext(ctx, `UPDATE records SET position = position + 1 WHERE position >= ?`, pos); err != nil {
				return fmt.Errorf("shift rows: %w", err)
			}
			return s.insert(ctx, q, &record, pos)
		}

		_, err = q.ExecContext(ctx, `
UPDATE records SET measured_at = ?, frequency = ?, frequency_deviation = ?, resistance = ?, resistance_deviation = ?
WHERE id = ?`,
			record.Timestamp.UTC().Format(time.RFC3339Nano),
			record.Frequency, record.FrequencyDeviation,
			record.Resistance, record.ResistanceDeviation,
			target,
		)
		if err != nil {
			return fmt.Errorf("replace row %d: %w", target, err)
		}
		record.ID = target
		record.Comment = comment
		return nil
	})
	if err != nil {
		return domain.Record{}, err
	}
	return record, nil
}

func (s *SQLiteRepository) insert(ctx context.Context, q tx.Querier, record *domain.Record, pos int64) error {
	res, err := q.ExecContext(ctx, `
INSERT INTO records (position, measured_at, frequency, frequency_deviation, resistance, resistance_deviation, comment)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
		pos,
		record.Timestamp.UTC().Format(time.RFC3339Nano),
		record.Frequency, record.FrequencyDeviation,
		record.Resistance, record.ResistanceDeviation,
		record.Comment,
	)
	if err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	if record.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("insert record id: %w", err)
	}
	return nil
}

func (s *SQLiteRepository) DeleteRecord(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM records WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete row %d: %w", id, err)
	}
	return requireAffected(res, id)
}

func (s *SQLiteRepository) UpdateComment(ctx context.Context, id int64, comment string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE records SET comment = ? WHERE id = ?`, comment, id)
	if err != nil {
		return fmt.Errorf("update comment %d: %w", id, err)
	}
	return requireAffected(res, id)
}

func (s *SQLiteRepository) GetMetadata(ctx context.Context) (batchdomain.Metadata, error) {
	var m batchdomain.Metadata
	err := s.db.QueryRowContext(ctx, `
SELECT data_type, route_id, ambient_temperature_range, date, comment FROM metadata WHERE id = 1`).
		Scan(&m.DataType, &m.RouteID, &m.AmbientTemperatureRange, &m.Date, &m.Comment)
	if errors.Is(err, sql.ErrNoRows) {
		return batchdomain.Metadata{}, nil
	}
	if err != nil {
		return batchdomain.Metadata{}, fmt.Errorf("get metadata: %w", err)
	}
	return m, nil
}

func (s *SQLiteRepository) PutMetadata(ctx context.Context, m batchdomain.Metadata) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO metadata (id, data_type, route_id, ambient_temperature_range, date, comment)
VALUES (1, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  data_type=excluded.data_type,
  route_id=excluded.route_id,
  ambient_temperature_range=excluded.ambient_temperature_range,
  date=excluded.date,
  comment=excluded.comment`,
		m.DataType, m.RouteID, m.AmbientTemperatureRange, m.Date, m.Comment)
	if err != nil {
		return fmt.Errorf("put metadata: %w", err)
	}
	return nil
}

func (s *SQLiteRepository) Reset(ctx context.Context) error {
	return s.tx.Within(ctx, func(ctx context.Context) error {
		q := tx.From(ctx, s.db)
		if _, err := q.ExecContext(ctx, `DELETE FROM records`); err != nil {
			return fmt.Errorf("reset records: %w", err)
		}
		if _, err := q.ExecContext(ctx, `DELETE FROM metadata`); err != nil {
			return fmt.Errorf("reset metadata: %w", err)
		}
		return nil
	})
}

func (s *SQLiteRepository) Close() error {
	return s.db.Close()
}

func requireAffected(res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("row %d: %w", id, apperrors.ErrNotFound)
	}
	return nil
}
