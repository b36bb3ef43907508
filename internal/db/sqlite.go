package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

type DB struct {
	conn *sql.DB
}

func New(dbPath string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	dsn := "file:" + dbPath + "?_txlock=immediate&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	d := &DB{conn: conn}
	if err := d.initSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}
	return d, nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS crates (
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			version TEXT NOT NULL,
			fetched_at TIMESTAMP,
			processed_at TIMESTAMP,
			last_used_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(name, version)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_crates_name ON crates (name)`,

		`CREATE TABLE IF NOT EXISTS sidebar_items (
			id INTEGER PRIMARY KEY,
			crate_id INTEGER NOT NULL REFERENCES crates(id),
			module TEXT NOT NULL,
			kind TEXT NOT NULL,
			group_ord INTEGER NOT NULL,
			ord INTEGER NOT NULL,
			name TEXT NOT NULL,
			summary TEXT NOT NULL DEFAULT '',
			summary_text TEXT NOT NULL DEFAULT '',
			UNIQUE(crate_id, module, kind, name)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sidebar_crate ON sidebar_items (crate_id)`,
		`CREATE INDEX IF NOT EXISTS idx_sidebar_name ON sidebar_items (name)`,

		`CREATE TABLE IF NOT EXISTS impl_entries (
			id INTEGER PRIMARY KEY,
			crate_id INTEGER NOT NULL REFERENCES crates(id),
			trait_path TEXT NOT NULL,
			library TEXT NOT NULL,
			ord INTEGER NOT NULL,
			impl_type TEXT NOT NULL DEFAULT '',
			markup_hash TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_impls_crate ON impl_entries (crate_id)`,
		`CREATE INDEX IF NOT EXISTS idx_impls_trait ON impl_entries (crate_id, trait_path)`,
	}

	for _, q := range queries {
		if _, err := db.conn.Exec(q); err != nil {
			return fmt.Errorf("executing %q: %w", q, err)
		}
	}
	return nil
}

// --- Crate operations ---

type Crate struct {
	ID          int
	Name        string
	Version     string
	FetchedAt   *time.Time
	ProcessedAt *time.Time
	LastUsedAt  time.Time
}

func (db *DB) UpsertCrate(name, version string) (*Crate, error) {
	var c Crate
	err := db.conn.QueryRow(
		`SELECT id, name, version, fetched_at, processed_at, last_used_at FROM crates WHERE name = ? AND version = ?`,
		name, version,
	).Scan(&c.ID, &c.Name, &c.Version, &c.FetchedAt, &c.ProcessedAt, &c.LastUsedAt)

	if err == nil {
		return &c, nil
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("checking crate: %w", err)
	}

	result, err := db.conn.Exec(
		`INSERT INTO crates (name, version) VALUES (?, ?)`,
		name, version,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting crate: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting crate id: %w", err)
	}

	return &Crate{ID: int(id), Name: name, Version: version, LastUsedAt: time.Now()}, nil
}

func (db *DB) MarkCrateFetched(crateID int) error {
	_, err := db.conn.Exec(`UPDATE crates SET fetched_at = CURRENT_TIMESTAMP WHERE id = ?`, crateID)
	return err
}

func (db *DB) MarkCrateProcessed(crateID int) error {
	_, err := db.conn.Exec(`UPDATE crates SET processed_at = CURRENT_TIMESTAMP WHERE id = ?`, crateID)
	return err
}

func (db *DB) TouchCrate(crateID int) error {
	_, err := db.conn.Exec(`UPDATE crates SET last_used_at = CURRENT_TIMESTAMP WHERE id = ?`, crateID)
	return err
}

func (db *DB) GetCrate(name, version string) (*Crate, error) {
	var c Crate
	err := db.conn.QueryRow(
		`SELECT id, name, version, fetched_at, processed_at, last_used_at FROM crates WHERE name = ? AND version = ?`,
		name, version,
	).Scan(&c.ID, &c.Name, &c.Version, &c.FetchedAt, &c.ProcessedAt, &c.LastUsedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetLatestCrate returns the most recently processed crate with the given name.
func (db *DB) GetLatestCrate(name string) (*Crate, error) {
	var c Crate
	err := db.conn.QueryRow(
		`SELECT id, name, version, fetched_at, processed_at, last_used_at
		 FROM crates WHERE name = ? AND processed_at IS NOT NULL
		 ORDER BY processed_at DESC LIMIT 1`, name,
	).Scan(&c.ID, &c.Name, &c.Version, &c.FetchedAt, &c.ProcessedAt, &c.LastUsedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (db *DB) ListCrates() ([]Crate, error) {
	rows, err := db.conn.Query(`SELECT id, name, version, fetched_at, processed_at, last_used_at FROM crates ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var crates []Crate
	for rows.Next() {
		var c Crate
		if err := rows.Scan(&c.ID, &c.Name, &c.Version, &c.FetchedAt, &c.ProcessedAt, &c.LastUsedAt); err != nil {
			return nil, err
		}
		crates = append(crates, c)
	}
	return crates, rows.Err()
}

func (db *DB) GetCrateIDsByNames(names []string) ([]int, error) {
	if len(names) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(names))
	params := make([]interface{}, len(names))
	for i, n := range names {
		placeholders[i] = "?"
		params[i] = n
	}
	query := fmt.Sprintf(`SELECT id FROM crates WHERE name IN (%s)`, strings.Join(placeholders, ","))
	rows, err := db.conn.Query(query, params...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// GetIndexedVersions returns name->version for processed crates matching the
// given names. If multiple versions exist for the same name, the one with the
// latest processed_at wins.
func (db *DB) GetIndexedVersions(names []string) (map[string]string, error) {
	if len(names) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(names))
	params := make([]interface{}, len(names))
	for i, n := range names {
		placeholders[i] = "?"
		params[i] = n
	}
	query := fmt.Sprintf(`
		SELECT name, version
		FROM (
			SELECT name, version, ROW_NUMBER() OVER (PARTITION BY name ORDER BY processed_at DESC) as rn
			FROM crates
			WHERE name IN (%s) AND processed_at IS NOT NULL
		)
		WHERE rn = 1`, strings.Join(placeholders, ","))

	rows, err := db.conn.Query(query, params...)
	if err != nil {
		return nil, fmt.Errorf("getting indexed versions: %w", err)
	}
	defer rows.Close()

	result := make(map[string]string)
	for rows.Next() {
		var name, version string
		if err := rows.Scan(&name, &version); err != nil {
			return nil, err
		}
		result[name] = version
	}
	return result, rows.Err()
}

func (db *DB) CountItems(crateID int) (int, error) {
	var count int
	err := db.conn.QueryRow(`SELECT COUNT(*) FROM sidebar_items WHERE crate_id = ?`, crateID).Scan(&count)
	return count, err
}
