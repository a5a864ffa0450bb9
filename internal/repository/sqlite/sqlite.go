package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"wifiutils/internal/domain"

	_ "modernc.org/sqlite"
)

// Repository implements repository.Repository using SQLite
type Repository struct {
	db *sql.DB
}

// New creates a new SQLite repository
func New(dbPath string) (*Repository, error) {
	db, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Every connection to :memory: opens a separate database
		db.SetMaxOpenConns(1)
	}

	repo := &Repository{db: db}
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return repo, nil
}

func dsn(path string) string {
	if path == ":memory:" {
		return path
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return "file:" + path + sep + "_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
}

func (r *Repository) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS transitions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		kind TEXT NOT NULL,
		state TEXT NOT NULL,
		code INTEGER NOT NULL DEFAULT 0,
		interface TEXT,
		source TEXT NOT NULL,
		observed_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS reports (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		active_adapter TEXT,
		connected INTEGER NOT NULL DEFAULT 0,
		wifi_state TEXT,
		data JSON NOT NULL,
		inspected_at INTEGER
	);

	CREATE TABLE IF NOT EXISTS neighbors (
		ip TEXT PRIMARY KEY,
		mac TEXT,
		vendor TEXT,
		hostname TEXT,
		last_seen INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_transitions_observed ON transitions(observed_at);
	CREATE INDEX IF NOT EXISTS idx_neighbors_last_seen ON neighbors(last_seen);
	`

	_, err := r.db.Exec(schema)
	return err
}

// Close closes the database connection
func (r *Repository) Close() error {
	return r.db.Close()
}

// RecordTransition appends a transition to the journal and sets its ID
func (r *Repository) RecordTransition(ctx context.Context, t *domain.Transition) error {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO transitions (kind, state, code, interface, source, observed_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, transitionInsertArgs(t)...)
	if err != nil {
		return fmt.Errorf("failed to insert transition: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read transition id: %w", err)
	}
	t.ID = id
	return nil
}

// ListTransitions returns the most recent transitions, newest first.
// A limit <= 0 returns every transition.
func (r *Repository) ListTransitions(ctx context.Context, limit int) ([]domain.Transition, error) {
	query := `
		SELECT id, kind, state, code, interface, source, observed_at
		FROM transitions
		ORDER BY id DESC
	`
	var args []interface{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transitions: %w", err)
	}
	defer rows.Close()

	transitions := make([]domain.Transition, 0)
	for rows.Next() {
		var row transitionRow
		if err := rows.Scan(row.scanArgs()...); err != nil {
			return nil, fmt.Errorf("failed to scan transition: %w", err)
		}
		transitions = append(transitions, row.toDomain())
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transitions: %w", err)
	}

	return transitions, nil
}

// PruneTransitions deletes all but the newest keep transitions and returns
// how many were removed. keep <= 0 disables pruning.
func (r *Repository) PruneTransitions(ctx context.Context, keep int) (int64, error) {
	if keep <= 0 {
		return 0, nil
	}
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM transitions
		WHERE id NOT IN (SELECT id FROM transitions ORDER BY id DESC LIMIT ?)
	`, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to prune transitions: %w", err)
	}
	return res.RowsAffected()
}

// SaveReport stores a copy of the report
func (r *Repository) SaveReport(ctx context.Context, report *domain.AdapterReport) error {
	if report == nil {
		return fmt.Errorf("report is nil")
	}

	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO reports (active_adapter, connected, wifi_state, data, inspected_at)
		VALUES (?, ?, ?, ?, ?)
	`,
		stringToNull(report.ActiveAdapter),
		boolToInt(report.Connected),
		stringToNull(report.WifiState),
		string(data),
		timeToNull(report.InspectedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert report: %w", err)
	}
	return nil
}

// LatestReport returns the most recently saved report, or nil when none exists
func (r *Repository) LatestReport(ctx context.Context) (*domain.AdapterReport, error) {
	var data string
	err := r.db.QueryRowContext(ctx, `
		SELECT data FROM reports ORDER BY id DESC LIMIT 1
	`).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query report: %w", err)
	}

	report := &domain.AdapterReport{}
	if err := json.Unmarshal([]byte(data), report); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report: %w", err)
	}
	return report, nil
}

// UpsertNeighbors inserts or refreshes neighbours keyed by IP address.
// Empty fields of an update keep the stored value.
func (r *Repository) UpsertNeighbors(ctx context.Context, neighbors []domain.Neighbor) error {
	if len(neighbors) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO neighbors (ip, mac, vendor, hostname, last_seen)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(ip) DO UPDATE SET
			mac = COALESCE(excluded.mac, neighbors.mac),
			vendor = COALESCE(excluded.vendor, neighbors.vendor),
			hostname = COALESCE(excluded.hostname, neighbors.hostname),
			last_seen = MAX(excluded.last_seen, neighbors.last_seen)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare neighbor upsert: %w", err)
	}
	defer stmt.Close()

	for i := range neighbors {
		if neighbors[i].IP == "" {
			continue
		}
		if _, err := stmt.ExecContext(ctx, neighborInsertArgs(&neighbors[i])...); err != nil {
			return fmt.Errorf("failed to upsert neighbor %s: %w", neighbors[i].IP, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit neighbors: %w", err)
	}
	return nil
}

// ListNeighbors returns all known neighbours, most recently seen first
func (r *Repository) ListNeighbors(ctx context.Context) ([]domain.Neighbor, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT ip, mac, vendor, hostname, last_seen
		FROM neighbors
		ORDER BY last_seen DESC, ip
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query neighbors: %w", err)
	}
	defer rows.Close()

	neighbors := make([]domain.Neighbor, 0)
	for rows.Next() {
		var row neighborRow
		if err := rows.Scan(row.scanArgs()...); err != nil {
			return nil, fmt.Errorf("failed to scan neighbor: %w", err)
		}
		neighbors = append(neighbors, row.toDomain())
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating neighbors: %w", err)
	}

	return neighbors, nil
}
