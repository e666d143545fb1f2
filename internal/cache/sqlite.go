package cache

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/vk/flowgridgo/internal/artifact"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

// SQLiteStore is a persistent cache backend. Entries survive process
// restarts, so a rerun of an unchanged flow hits the cache for every node.
type SQLiteStore struct {
	db *sql.DB
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS cache_entries (
	key         TEXT PRIMARY KEY,
	node_name   TEXT NOT NULL,
	duration_ns INTEGER NOT NULL,
	created_at  INTEGER NOT NULL,
	value_type  TEXT NOT NULL,
	value_json  TEXT NOT NULL
);`

// OpenSQLiteStore opens (and if necessary initializes) a sqlite-backed cache
// at the given path.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening cache database %q: %w", path, err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing cache schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Get implements Store. The artifact payload is reconstructed from its
// serialized cty type and JSON value.
func (s *SQLiteStore) Get(key string) (*Entry, bool, error) {
	row := s.db.QueryRow(
		`SELECT node_name, duration_ns, created_at, value_type, value_json FROM cache_entries WHERE key = ?`,
		key,
	)

	var nodeName, typeJSON, valueJSON string
	var durationNS, createdAtNS int64
	if err := row.Scan(&nodeName, &durationNS, &createdAtNS, &typeJSON, &valueJSON); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("reading cache entry: %w", err)
	}

	ty, err := ctyjson.UnmarshalType([]byte(typeJSON))
	if err != nil {
		return nil, false, fmt.Errorf("decoding cached value type: %w", err)
	}
	val, err := ctyjson.Unmarshal([]byte(valueJSON), ty)
	if err != nil {
		return nil, false, fmt.Errorf("decoding cached value: %w", err)
	}

	createdAt := time.Unix(0, createdAtNS)
	return &Entry{
		Key: key,
		Artifact: &artifact.Artifact{
			Fingerprint: key,
			Value:       val,
			ProducedBy:  nodeName,
			CreatedAt:   createdAt,
		},
		NodeName:  nodeName,
		Duration:  time.Duration(durationNS),
		CreatedAt: createdAt,
	}, true, nil
}

// Put implements Store. Existing keys are left untouched: entries are
// immutable.
func (s *SQLiteStore) Put(e *Entry) error {
	ty := e.Artifact.Value.Type()
	typeJSON, err := ctyjson.MarshalType(ty)
	if err != nil {
		return fmt.Errorf("encoding value type: %w", err)
	}
	valueJSON, err := ctyjson.Marshal(e.Artifact.Value, ty)
	if err != nil {
		return fmt.Errorf("encoding value: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT OR IGNORE INTO cache_entries (key, node_name, duration_ns, created_at, value_type, value_json) VALUES (?, ?, ?, ?, ?, ?)`,
		e.Key, e.NodeName, int64(e.Duration), e.CreatedAt.UnixNano(), string(typeJSON), string(valueJSON),
	)
	if err != nil {
		return fmt.Errorf("writing cache entry: %w", err)
	}
	return nil
}
