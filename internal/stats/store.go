package stats

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Store persists finished merge runs to a local SQLite database.
type Store struct {
	db *sql.DB
}

// Run is one persisted merge invocation.
type Run struct {
	ID               int64
	Timestamp        time.Time
	Strategy         string
	Scenarios        int
	Conflicts        int
	Lines            int
	ConflictingLines int
	Runtime          time.Duration
}

// Open opens (or creates) the statistics database at the given path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open statistics database: %w", err)
	}
	s := &Store{db: db}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
		strategy TEXT NOT NULL,
		scenarios INTEGER NOT NULL,
		conflicts INTEGER NOT NULL,
		lines INTEGER NOT NULL,
		conflicting_lines INTEGER NOT NULL,
		runtime_ms INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS scenarios (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL,
		scenario TEXT NOT NULL,
		conflicts INTEGER NOT NULL,
		lines INTEGER NOT NULL,
		conflicting_lines INTEGER NOT NULL,
		runtime_ms INTEGER NOT NULL,
		FOREIGN KEY (run_id) REFERENCES runs(id)
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create statistics schema: %w", err)
	}
	return nil
}

// SaveRun persists the aggregated statistics of one invocation and its
// per-scenario breakdown.
func (s *Store) SaveRun(strategy string, st *Statistics, runtime time.Duration) (int64, error) {
	total := st.Total()
	scenarios := st.Scenarios()

	res, err := s.db.Exec(
		`INSERT INTO runs (strategy, scenarios, conflicts, lines, conflicting_lines, runtime_ms)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		strategy, len(scenarios), total.Conflicts, total.Lines.Total, total.Lines.InConflict,
		runtime.Milliseconds(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to record run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	for _, sc := range scenarios {
		_, err := s.db.Exec(
			`INSERT INTO scenarios (run_id, scenario, conflicts, lines, conflicting_lines, runtime_ms)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			runID, sc.Scenario, sc.Conflicts, sc.Lines.Total, sc.Lines.InConflict,
			sc.Runtime.Milliseconds(),
		)
		if err != nil {
			return runID, fmt.Errorf("failed to record scenario %s: %w", sc.Scenario, err)
		}
	}

	return runID, nil
}

// Runs returns the persisted runs, newest first.
func (s *Store) Runs(limit int) ([]*Run, error) {
	rows, err := s.db.Query(
		`SELECT id, timestamp, strategy, scenarios, conflicts, lines, conflicting_lines, runtime_ms
		 FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		var r Run
		var ms int64
		if err := rows.Scan(&r.ID, &r.Timestamp, &r.Strategy, &r.Scenarios, &r.Conflicts, &r.Lines, &r.ConflictingLines, &ms); err != nil {
			return nil, err
		}
		r.Runtime = time.Duration(ms) * time.Millisecond
		runs = append(runs, &r)
	}
	return runs, rows.Err()
}
