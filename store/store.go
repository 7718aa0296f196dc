// Package store keeps woven method images in a content-addressed SQLite
// database. Images are keyed by the content hash of the method, so storing
// the same method twice is a no-op.
package store

import (
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tliron/commonlog"
	_ "modernc.org/sqlite"

	"github.com/chazu/weaver/il"
	"github.com/chazu/weaver/il/hash"
	"github.com/chazu/weaver/il/wire"
)

var log = commonlog.GetLogger("weaver.store")

// ErrMethodNotFound indicates no image is stored under the requested hash.
var ErrMethodNotFound = errors.New("store: method not found")

// Entry describes one stored image.
type Entry struct {
	Hash     [32]byte
	FullName string
	Size     int
	StoredAt time.Time
}

// Store is a handle onto an image database.
type Store struct {
	db   *sql.DB
	path string
	mu   sync.Mutex
}

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Set busy timeout for concurrent access
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS methods (
		hash      BLOB PRIMARY KEY,
		full_name TEXT NOT NULL,
		image     BLOB NOT NULL,
		stored_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_methods_full_name ON methods(full_name)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating table: %w", err)
	}

	log.Debugf("opened method store %s", path)
	return &Store{db: db, path: path}, nil
}

// Path returns the database file the store was opened on.
func (s *Store) Path() string { return s.path }

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Put encodes m and stores it under its content hash.
func (s *Store) Put(m *il.Method) ([32]byte, error) {
	data, err := wire.Encode(m)
	if err != nil {
		return [32]byte{}, err
	}
	h := hash.Method(m)

	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(
		"INSERT OR IGNORE INTO methods (hash, full_name, image, stored_at) VALUES (?, ?, ?, ?)",
		h[:], m.FullName(), data, time.Now().UnixNano(),
	)
	if err != nil {
		return h, fmt.Errorf("saving method: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		log.Debugf("method %s already stored as %s", m.FullName(), short(h))
	} else {
		log.Infof("stored method %s as %s (%d bytes)", m.FullName(), short(h), len(data))
	}
	return h, nil
}

// Get loads and decodes the image stored under h.
func (s *Store) Get(h [32]byte) (*il.Method, error) {
	var data []byte
	err := s.db.QueryRow("SELECT image FROM methods WHERE hash = ?", h[:]).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMethodNotFound
		}
		return nil, fmt.Errorf("querying method: %w", err)
	}
	return wire.Decode(data)
}

// Has reports whether an image is stored under h.
func (s *Store) Has(h [32]byte) (bool, error) {
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM methods WHERE hash = ?", h[:]).Scan(&n); err != nil {
		return false, fmt.Errorf("querying method: %w", err)
	}
	return n > 0, nil
}

// History lists every stored version of the method named fullName, oldest
// first.
func (s *Store) History(fullName string) ([]Entry, error) {
	rows, err := s.db.Query(
		"SELECT hash, length(image), stored_at FROM methods WHERE full_name = ? ORDER BY stored_at, rowid",
		fullName,
	)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			raw    []byte
			size   int
			stored int64
		)
		if err := rows.Scan(&raw, &size, &stored); err != nil {
			return nil, fmt.Errorf("scanning history: %w", err)
		}
		if len(raw) != len(Entry{}.Hash) {
			return nil, fmt.Errorf("store: malformed hash of length %d", len(raw))
		}
		e := Entry{FullName: fullName, Size: size, StoredAt: time.Unix(0, stored)}
		copy(e.Hash[:], raw)
		out = append(out, e)
	}
	return out, rows.Err()
}

// short abbreviates a hash for log lines.
func short(h [32]byte) string {
	return hex.EncodeToString(h[:6])
}
