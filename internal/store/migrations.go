package store

import (
	"database/sql"
	"fmt"

	"shouldibuy/internal/logging"
)

// Migration adds a column that older history databases lack.
type Migration struct {
	Table  string
	Column string
	Def    string
}

// pendingMigrations covers tables that exist but predate newer columns.
// New databases get every column from the CREATE TABLE.
var pendingMigrations = []Migration{
	// Provider model and failure classification were added after the
	// first release of the history table.
	{"advice_exchanges", "model", "TEXT"},
	{"advice_exchanges", "error_kind", "TEXT"},
	{"advice_exchanges", "error_message", "TEXT"},
}

// runMigrations applies pending column migrations. A failed ALTER is logged
// and skipped; the column may exist in another form.
func runMigrations(db *sql.DB, migrations []Migration) (applied int) {
	timer := logging.StartTimer(logging.CategoryStore, "runMigrations")
	defer timer.Stop()

	for _, m := range migrations {
		if !tableExists(db, m.Table) {
			logging.StoreDebug("table missing, skipping migration: %s.%s", m.Table, m.Column)
			continue
		}
		if columnExists(db, m.Table, m.Column) {
			continue
		}
		query := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", m.Table, m.Column, m.Def)
		if _, err := db.Exec(query); err != nil {
			logging.StoreWarn("migration failed: %s.%s: %v", m.Table, m.Column, err)
			continue
		}
		logging.Store("migration applied: added %s.%s", m.Table, m.Column)
		applied++
	}
	return applied
}

// columnExists checks a column with PRAGMA table_info.
func columnExists(db *sql.DB, table, column string) bool {
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		logging.StoreDebug("PRAGMA table_info(%s) failed: %v", table, err)
		return false
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid, notnull, pk int
			name, ctype      string
			dflt             any
		)
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			continue
		}
		if name == column {
			return true
		}
	}
	return false
}

func tableExists(db *sql.DB, table string) bool {
	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&count)
	if err != nil {
		logging.StoreDebug("table existence check failed for %s: %v", table, err)
		return false
	}
	return count > 0
}
