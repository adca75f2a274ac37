// ABOUTME: SQLite schema definition and initialization.
// ABOUTME: Defines tables for sessions, session_injuries, and insights.
package storage

// initSchema creates or updates the database schema.
func (d *DB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		date TEXT NOT NULL,
		types TEXT NOT NULL,
		intensity INTEGER NOT NULL,
		performance TEXT NOT NULL,
		productivity TEXT NOT NULL,
		duration_minutes INTEGER,
		notes TEXT,
		max_grade TEXT,
		venue TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS session_injuries (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		session_id TEXT NOT NULL,
		location TEXT NOT NULL,
		note TEXT,
		severity INTEGER,
		position INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS insights (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		content TEXT NOT NULL,
		pinned INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_user_date ON sessions(user_id, date DESC, created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_injuries_session ON session_injuries(session_id);
	CREATE INDEX IF NOT EXISTS idx_insights_user_order ON insights(user_id, pinned DESC, updated_at DESC);
	`

	_, err := d.db.Exec(schema)
	return err
}
