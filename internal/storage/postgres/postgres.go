package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"github.com/AaronLay10/SentientStage/internal/config"
	"github.com/AaronLay10/SentientStage/internal/storage"
)

// Options are the libpq connection settings, read from the standard PG*
// variables. The password is resolved separately so PGPASSWORD_FILE works.
type Options struct {
	Host     string `env:"PGHOST" envDefault:"127.0.0.1"`
	Port     string `env:"PGPORT" envDefault:"5432"`
	User     string `env:"PGUSER" envDefault:"sentient"`
	Database string `env:"PGDATABASE" envDefault:"sentient"`
	SSLMode  string `env:"PGSSLMODE" envDefault:"disable"`
	Password string
}

// LoadOptions reads Options from the environment.
func LoadOptions() (Options, error) {
	var opts Options
	if err := config.ParseEnv(&opts); err != nil {
		return Options{}, err
	}
	password, err := config.ResolveSecret("PGPASSWORD")
	if err != nil {
		return Options{}, err
	}
	opts.Password = password
	return opts, nil
}

// DSN returns the libpq keyword/value connection string.
func (o Options) DSN() string {
	parts := []string{
		"host=" + o.Host,
		"port=" + o.Port,
		"user=" + o.User,
	}
	if o.Password != "" {
		parts = append(parts, "password="+o.Password)
	}
	parts = append(parts, "dbname="+o.Database, "sslmode="+o.SSLMode)
	return strings.Join(parts, " ")
}

// Client journals events to Postgres.
type Client struct {
	db      *sql.DB
	sceneID string
}

// New connects with opts and creates the journal table if needed.
func New(ctx context.Context, opts Options, sceneID string) (*Client, error) {
	db, err := sql.Open("postgres", opts.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	client := &Client{
		db:      db,
		sceneID: sceneID,
	}

	if err := client.createTable(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create stage_events table: %w", err)
	}

	return client, nil
}

func (c *Client) createTable(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS stage_events (
			event_id   BIGSERIAL PRIMARY KEY,
			ts         TIMESTAMPTZ NOT NULL,
			level      TEXT NOT NULL,
			event      TEXT NOT NULL,
			msg        TEXT,
			fields     JSONB,
			scene_id   TEXT NOT NULL,
			session_id TEXT
		);
		CREATE INDEX IF NOT EXISTS idx_stage_events_ts ON stage_events(ts DESC);
		CREATE INDEX IF NOT EXISTS idx_stage_events_scene_id ON stage_events(scene_id);
	`
	_, err := c.db.ExecContext(ctx, query)
	return err
}

// Append inserts one event.
func (c *Client) Append(ts time.Time, level, event, msg string, fields map[string]interface{}, sessionID string) error {
	var fieldsJSON []byte
	if fields != nil {
		b, err := json.Marshal(fields)
		if err != nil {
			return fmt.Errorf("failed to marshal fields: %w", err)
		}
		fieldsJSON = b
	}

	query := `
		INSERT INTO stage_events (ts, level, event, msg, fields, scene_id, session_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := c.db.Exec(query, ts, level, event, nullable(msg), fieldsJSON, c.sceneID, nullable(sessionID))
	return err
}

// Query returns up to limit events for this scene, newest first.
func (c *Client) Query(ctx context.Context, limit int) ([]storage.EventRow, error) {
	query := `
		SELECT event_id, ts, level, event, msg, fields, scene_id, session_id
		FROM stage_events
		WHERE scene_id = $1
		ORDER BY ts DESC
		LIMIT $2
	`
	rows, err := c.db.QueryContext(ctx, query, c.sceneID, storage.ClampLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []storage.EventRow
	for rows.Next() {
		var e storage.EventRow
		var fieldsJSON []byte
		var msg, sessionID sql.NullString

		if err := rows.Scan(&e.EventID, &e.Timestamp, &e.Level, &e.Event, &msg, &fieldsJSON, &e.SceneID, &sessionID); err != nil {
			return nil, err
		}
		if msg.Valid {
			e.Message = &msg.String
		}
		if sessionID.Valid {
			e.SessionID = &sessionID.String
		}
		if len(fieldsJSON) > 0 {
			if err := json.Unmarshal(fieldsJSON, &e.Fields); err != nil {
				return nil, fmt.Errorf("failed to unmarshal fields: %w", err)
			}
		}
		out = append(out, e)
	}

	return out, rows.Err()
}

// Close closes the database connection.
func (c *Client) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

var _ storage.Journal = (*Client)(nil)
