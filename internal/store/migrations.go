package store

import "database/sql"

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS metrics (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		time INTEGER NOT NULL,
		interval INTEGER NOT NULL DEFAULT 0,
		name TEXT NOT NULL,
		plugin TEXT NOT NULL,
		type TEXT NOT NULL,
		ds_name TEXT NOT NULL,
		kind TEXT NOT NULL,
		value REAL NOT NULL,
		labels TEXT DEFAULT '{}'
	);
	CREATE INDEX IF NOT EXISTS idx_metrics_name_time ON metrics(name, time);
	CREATE INDEX IF NOT EXISTS idx_metrics_time ON metrics(time);`,

	`CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);`,

	`CREATE TABLE IF NOT EXISTS collector_state (
		collector_id TEXT PRIMARY KEY,
		enabled INTEGER NOT NULL DEFAULT 0
	);`,

	`CREATE TABLE IF NOT EXISTS threshold_rules (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		host TEXT NOT NULL DEFAULT '',
		plugin TEXT NOT NULL DEFAULT '',
		type TEXT NOT NULL,
		data_source TEXT NOT NULL DEFAULT '',
		warning_min REAL,
		warning_max REAL,
		failure_min REAL,
		failure_max REAL,
		hysteresis REAL NOT NULL DEFAULT 0,
		hits INTEGER NOT NULL DEFAULT 0,
		invert INTEGER NOT NULL DEFAULT 0,
		persist INTEGER NOT NULL DEFAULT 0,
		enabled INTEGER NOT NULL DEFAULT 1
	);`,
}

func runMigrations(db *sql.DB) error {
	// Create migration tracking table
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)`); err != nil {
		return err
	}

	var currentVersion int
	row := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version")
	if err := row.Scan(&currentVersion); err != nil {
		return err
	}

	for i := currentVersion; i < len(migrations); i++ {
		tx, err := db.Begin()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(migrations[i]); err != nil {
			tx.Rollback()
			return err
		}
		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", i+1); err != nil {
			tx.Rollback()
			return err
		}
		if err := tx.Commit(); err != nil {
			return err
		}
	}
	return nil
}
