// Package sqlite is a file-backed event journal for players running without
// a Postgres server.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/AaronLay10/SentientStage/internal/storage"
)

const schema = `
CREATE TABLE IF NOT EXISTS stage_events (
	event_id   INTEGER PRIMARY KEY AUTOINCREMENT,
	ts         INTEGER NOT NULL,
	level      TEXT NOT NULL,
	event      TEXT NOT NULL,
	msg        TEXT,
	fields     TEXT,
	scene_id   TEXT NOT NULL,
	session_id TEXT
);
CREATE INDEX IF NOT EXISTS idx_stage_events_scene_ts ON stage_events(scene_id, ts DESC);
`

// Journal stores events in a SQLite file.
type Journal struct {
	sqlDB   *sql.DB
	sceneID string
}

// Open opens or creates the journal at path.
func Open(path, sceneID string) (*Journal, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("journal path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Journal{sqlDB: sqlDB, sceneID: sceneID}, nil
}

// Close releases the SQLite connection.
func (j *Journal) Close() error {
	if j == nil || j.sqlDB == nil {
		return nil
	}
	return j.sqlDB.Close()
}

// Append inserts one event. Timestamps are stored as Unix milliseconds.
func (j *Journal) Append(ts time.Time, level, event, msg string, fields map[string]interface{}, sessionID string) error {
	if j == nil || j.sqlDB == nil {
		return fmt.Errorf("journal is not open")
	}
	var fieldsJSON sql.NullString
	if fields != nil {
		b, err := json.Marshal(fields)
		if err != nil {
			return fmt.Errorf("marshal fields: %w", err)
		}
		fieldsJSON = sql.NullString{String: string(b), Valid: true}
	}

	_, err := j.sqlDB.Exec(`
INSERT INTO stage_events (ts, level, event, msg, fields, scene_id, session_id)
VALUES (?, ?, ?, ?, ?, ?, ?)
`,
		ts.UTC().UnixMilli(),
		level,
		event,
		nullString(msg),
		fieldsJSON,
		j.sceneID,
		nullString(sessionID),
	)
	if err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}

// Query lists up to limit events for the journal's scene, newest first.
func (j *Journal) Query(ctx context.Context, limit int) ([]storage.EventRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if j == nil || j.sqlDB == nil {
		return nil, fmt.Errorf("journal is not open")
	}

	rows, err := j.sqlDB.QueryContext(ctx, `
SELECT event_id, ts, level, event, msg, fields, scene_id, session_id
FROM stage_events
WHERE scene_id = ?
ORDER BY ts DESC, event_id DESC
LIMIT ?
`, j.sceneID, storage.ClampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var out []storage.EventRow
	for rows.Next() {
		var (
			e                 storage.EventRow
			ts                int64
			msg, fields, sess sql.NullString
		)
		if err := rows.Scan(&e.EventID, &ts, &e.Level, &e.Event, &msg, &fields, &e.SceneID, &sess); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.Timestamp = time.UnixMilli(ts).UTC()
		if msg.Valid {
			e.Message = &msg.String
		}
		if sess.Valid {
			e.SessionID = &sess.String
		}
		if fields.Valid && fields.String != "" {
			if err := json.Unmarshal([]byte(fields.String), &e.Fields); err != nil {
				return nil, fmt.Errorf("unmarshal fields: %w", err)
			}
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return out, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

var _ storage.Journal = (*Journal)(nil)
