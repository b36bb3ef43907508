package db

import (
	"database/sql"
	"fmt"
	"strings"
)

// Item is one stored sidebar entry.
type Item struct {
	ID          int
	CrateID     int
	Module      string
	Kind        string
	GroupOrd    int
	Ord         int
	Name        string
	Summary     string
	SummaryText string
}

// ImplEntry is one stored trait-implementor record. Markup lives in the CAS,
// keyed by MarkupHash.
type ImplEntry struct {
	ID         int
	CrateID    int
	TraitPath  string
	Library    string
	Ord        int
	ImplType   string
	MarkupHash string
}

// ReplaceItems swaps a crate's sidebar rows wholesale inside one transaction.
// Snapshots are never patched incrementally.
func (db *DB) ReplaceItems(crateID int, items []Item) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM sidebar_items WHERE crate_id = ?`, crateID); err != nil {
		return fmt.Errorf("clearing sidebar items: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO sidebar_items (crate_id, module, kind, group_ord, ord, name, summary, summary_text)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, it := range items {
		if _, err := stmt.Exec(crateID, it.Module, it.Kind, it.GroupOrd, it.Ord, it.Name, it.Summary, it.SummaryText); err != nil {
			return fmt.Errorf("inserting item %s::%s: %w", it.Module, it.Name, err)
		}
	}

	return tx.Commit()
}

// ListItems returns a crate's sidebar rows in presentation order. module
// filters to one module; "" returns all modules.
func (db *DB) ListItems(crateID int, module string) ([]Item, error) {
	query := `SELECT id, crate_id, module, kind, group_ord, ord, name, summary, summary_text
		 FROM sidebar_items WHERE crate_id = ?`
	params := []interface{}{crateID}
	if module != "" {
		query += ` AND module = ?`
		params = append(params, module)
	}
	query += ` ORDER BY module, group_ord, ord`

	rows, err := db.conn.Query(query, params...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanItems(rows)
}

// FindItem looks an item up by name, optionally narrowed by kind.
func (db *DB) FindItem(crateID int, kind, name string) (*Item, error) {
	query := `SELECT id, crate_id, module, kind, group_ord, ord, name, summary, summary_text
		 FROM sidebar_items WHERE crate_id = ? AND name = ?`
	params := []interface{}{crateID, name}
	if kind != "" {
		query += ` AND kind = ?`
		params = append(params, kind)
	}
	query += ` LIMIT 1`

	var it Item
	err := db.conn.QueryRow(query, params...).Scan(
		&it.ID, &it.CrateID, &it.Module, &it.Kind, &it.GroupOrd, &it.Ord, &it.Name, &it.Summary, &it.SummaryText)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &it, nil
}

// SearchItems returns candidate rows whose name or summary text contains the
// query, case-insensitively. Ranking happens in the search package; the
// fetch limit is deliberately generous.
func (db *DB) SearchItems(query string, crateIDs []int, fetchLimit int) ([]Item, error) {
	if fetchLimit <= 0 {
		fetchLimit = 500
	}
	pattern := "%" + escapeLike(query) + "%"

	sqlQuery := `SELECT id, crate_id, module, kind, group_ord, ord, name, summary, summary_text
		 FROM sidebar_items
		 WHERE (name LIKE ? ESCAPE '\' OR summary_text LIKE ? ESCAPE '\')`
	params := []interface{}{pattern, pattern}

	if len(crateIDs) > 0 {
		placeholders := make([]string, len(crateIDs))
		for i, id := range crateIDs {
			placeholders[i] = "?"
			params = append(params, id)
		}
		sqlQuery += fmt.Sprintf(` AND crate_id IN (%s)`, strings.Join(placeholders, ","))
	}
	sqlQuery += ` LIMIT ?`
	params = append(params, fetchLimit)

	rows, err := db.conn.Query(sqlQuery, params...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanItems(rows)
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func scanItems(rows *sql.Rows) ([]Item, error) {
	var items []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.CrateID, &it.Module, &it.Kind, &it.GroupOrd, &it.Ord, &it.Name, &it.Summary, &it.SummaryText); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// GetCratesForItems returns a map from item ID to Crate for the given item
// IDs in a single query.
func (db *DB) GetCratesForItems(itemIDs []int) (map[int]*Crate, error) {
	if len(itemIDs) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(itemIDs))
	params := make([]interface{}, len(itemIDs))
	for i, id := range itemIDs {
		placeholders[i] = "?"
		params[i] = id
	}
	query := fmt.Sprintf(`
		SELECT i.id, c.id, c.name, c.version, c.fetched_at, c.processed_at, c.last_used_at
		FROM sidebar_items i JOIN crates c ON c.id = i.crate_id
		WHERE i.id IN (%s)`, strings.Join(placeholders, ","))
	rows, err := db.conn.Query(query, params...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[int]*Crate, len(itemIDs))
	for rows.Next() {
		var itemID int
		var c Crate
		if err := rows.Scan(&itemID, &c.ID, &c.Name, &c.Version, &c.FetchedAt, &c.ProcessedAt, &c.LastUsedAt); err != nil {
			return nil, err
		}
		result[itemID] = &c
	}
	return result, rows.Err()
}

// --- Trait-impl operations ---

// ReplaceTraitImpls swaps the stored entries for one trait of one crate.
func (db *DB) ReplaceTraitImpls(crateID int, traitPath string, entries []ImplEntry) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM impl_entries WHERE crate_id = ? AND trait_path = ?`, crateID, traitPath); err != nil {
		return fmt.Errorf("clearing impl entries: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO impl_entries (crate_id, trait_path, library, ord, impl_type, markup_hash)
		 VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.Exec(crateID, traitPath, e.Library, e.Ord, e.ImplType, e.MarkupHash); err != nil {
			return fmt.Errorf("inserting impl entry for %s: %w", e.Library, err)
		}
	}

	return tx.Commit()
}

// ListTraitImpls returns the stored entries for one trait in literal order.
func (db *DB) ListTraitImpls(crateID int, traitPath string) ([]ImplEntry, error) {
	rows, err := db.conn.Query(
		`SELECT id, crate_id, trait_path, library, ord, impl_type, markup_hash
		 FROM impl_entries WHERE crate_id = ? AND trait_path = ? ORDER BY ord`,
		crateID, traitPath)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []ImplEntry
	for rows.Next() {
		var e ImplEntry
		if err := rows.Scan(&e.ID, &e.CrateID, &e.TraitPath, &e.Library, &e.Ord, &e.ImplType, &e.MarkupHash); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ListTraits returns the distinct trait paths with stored entries for a crate.
func (db *DB) ListTraits(crateID int) ([]string, error) {
	rows, err := db.conn.Query(
		`SELECT DISTINCT trait_path FROM impl_entries WHERE crate_id = ? ORDER BY trait_path`, crateID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var traits []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		traits = append(traits, t)
	}
	return traits, rows.Err()
}

func (db *DB) DeleteItemsByCrate(crateID int) error {
	_, err := db.conn.Exec(`DELETE FROM sidebar_items WHERE crate_id = ?`, crateID)
	return err
}

func (db *DB) DeleteImplsByCrate(crateID int) error {
	_, err := db.conn.Exec(`DELETE FROM impl_entries WHERE crate_id = ?`, crateID)
	return err
}

// DeleteCrate removes a crate and everything indexed under it. CAS markup
// stays: it may be shared with other versions.
func (db *DB) DeleteCrate(crateID int) error {
	if err := db.DeleteItemsByCrate(crateID); err != nil {
		return fmt.Errorf("deleting sidebar items: %w", err)
	}
	if err := db.DeleteImplsByCrate(crateID); err != nil {
		return fmt.Errorf("deleting impl entries: %w", err)
	}
	if _, err := db.conn.Exec(`DELETE FROM crates WHERE id = ?`, crateID); err != nil {
		return fmt.Errorf("deleting crate: %w", err)
	}
	return nil
}
