// Package database is the embedded key-value store backing the
// cache layer's two logical stores per job (spec.md §4.6): a "data"
// table mapping contentHash -> serialized FileInfo, and a "config"
// table mapping contentHash -> the SimilarityConfig fingerprint that
// produced it. Grounded on the teacher's database.go, which opened a
// single sqlite file and prepared statements per query; this keeps
// that shape but repurposes the schema from the teacher's images
// table into the generic per-job KV pair SPEC_FULL.md §4.11 names.
package database

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"photodedupe/logging"
	"photodedupe/types"
)

// Store is one job's pair of KV tables, backed by a shared sqlite
// connection. "Job" names the run (e.g. a destination path hash) so
// multiple organize runs can share one database file without
// colliding, matching spec.md §4.6's "per-job cache."
type Store struct {
	db        *sql.DB
	dataTable string
	cfgTable  string
}

// OpenStore opens (creating if absent) dbPath and ensures job's two
// tables exist.
func OpenStore(dbPath, job string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	s := &Store{
		db:        db,
		dataTable: tableName(job, "data"),
		cfgTable:  tableName(job, "config"),
	}

	if err := s.createTables(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func tableName(job, suffix string) string {
	return fmt.Sprintf("%s_%s", sanitizeIdent(job), suffix)
}

// sanitizeIdent keeps job names safe to interpolate into a CREATE
// TABLE / SELECT statement: sqlite doesn't support parameterized
// table names, so only identifier characters survive.
func sanitizeIdent(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			out = append(out, r)
		default:
			out = append(out, '_')
		}
	}
	if len(out) == 0 {
		return "job"
	}
	return string(out)
}

func (s *Store) createTables() error {
	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			content_hash TEXT PRIMARY KEY,
			payload BLOB NOT NULL
		)`, s.dataTable),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			content_hash TEXT PRIMARY KEY,
			fingerprint TEXT NOT NULL
		)`, s.cfgTable),
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("database: create table: %w", err)
		}
	}
	return nil
}

// GetData looks up the stored FileInfo for contentHash.
func (s *Store) GetData(contentHash string) (types.FileInfo, bool, error) {
	var payload []byte
	query := fmt.Sprintf("SELECT payload FROM %s WHERE content_hash = ?", s.dataTable)
	err := s.db.QueryRow(query, contentHash).Scan(&payload)
	if err == sql.ErrNoRows {
		return types.FileInfo{}, false, nil
	}
	if err != nil {
		return types.FileInfo{}, false, err
	}

	var info types.FileInfo
	if err := json.Unmarshal(payload, &info); err != nil {
		return types.FileInfo{}, false, fmt.Errorf("database: decode FileInfo: %w", err)
	}
	return info, true, nil
}

// PutData upserts the FileInfo for contentHash.
func (s *Store) PutData(contentHash string, info types.FileInfo) error {
	payload, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("database: encode FileInfo: %w", err)
	}
	query := fmt.Sprintf(
		"INSERT INTO %s (content_hash, payload) VALUES (?, ?) ON CONFLICT(content_hash) DO UPDATE SET payload = excluded.payload",
		s.dataTable,
	)
	_, err = s.db.Exec(query, contentHash, payload)
	return err
}

// GetConfig looks up the config fingerprint stored alongside
// contentHash's data entry, if any.
func (s *Store) GetConfig(contentHash string) (string, bool, error) {
	var fingerprint string
	query := fmt.Sprintf("SELECT fingerprint FROM %s WHERE content_hash = ?", s.cfgTable)
	err := s.db.QueryRow(query, contentHash).Scan(&fingerprint)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return fingerprint, true, nil
}

// PutConfig upserts the config fingerprint for contentHash.
func (s *Store) PutConfig(contentHash, fingerprint string) error {
	query := fmt.Sprintf(
		"INSERT INTO %s (content_hash, fingerprint) VALUES (?, ?) ON CONFLICT(content_hash) DO UPDATE SET fingerprint = excluded.fingerprint",
		s.cfgTable,
	)
	_, err := s.db.Exec(query, contentHash, fingerprint)
	return err
}

// Close releases the underlying sqlite connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Stats reports basic counters for CLI/debug reporting, mirroring the
// teacher's GetScanStats in spirit though over the new schema.
type Stats struct {
	EntryCount int
}

// GetStats returns the number of cached entries for this store's job.
func (s *Store) GetStats() (Stats, error) {
	var count int
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", s.dataTable)
	if err := s.db.QueryRow(query).Scan(&count); err != nil {
		return Stats{}, err
	}
	logging.Debugf("database: %s has %d cached entries", s.dataTable, count)
	return Stats{EntryCount: count}, nil
}
