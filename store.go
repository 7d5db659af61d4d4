package spacetravelling

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// ErrPageNotFound is returned when no snapshot exists for a path.
var ErrPageNotFound = errors.New("spacetravelling: page not generated")

// Page is a rendered snapshot of a route.
type Page struct {
	Path        string
	HTML        []byte
	GeneratedAt time.Time
}

// Store wraps a SQLite database holding the statically generated pages.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the SQLite database at path, ensures the data
// directory exists, and runs schema migrations.
func NewStore(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// WAL lets the server read snapshots while a build writes them; the busy
	// timeout makes writers wait instead of failing with SQLITE_BUSY.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
	`); err != nil {
		db.Close()
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS pages (
    path TEXT PRIMARY KEY,
    html BLOB NOT NULL,
    generated_at TEXT NOT NULL
);
`)
	return err
}

// SavePage upserts a snapshot.
func (s *Store) SavePage(p Page) error {
	_, err := s.db.Exec(`INSERT OR REPLACE INTO pages (path, html, generated_at) VALUES (?, ?, ?)`,
		p.Path, p.HTML, p.GeneratedAt.UTC().Format(time.RFC3339Nano))
	return err
}

// GetPage returns the snapshot for path, or ErrPageNotFound.
func (s *Store) GetPage(path string) (Page, error) {
	var html []byte
	var generatedAt string
	err := s.db.QueryRow(`SELECT html, generated_at FROM pages WHERE path = ?`, path).Scan(&html, &generatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Page{}, ErrPageNotFound
	}
	if err != nil {
		return Page{}, err
	}
	t, err := time.Parse(time.RFC3339Nano, generatedAt)
	if err != nil {
		return Page{}, err
	}
	return Page{Path: path, HTML: html, GeneratedAt: t}, nil
}

// ListPages returns every stored snapshot without its HTML, ordered by path.
func (s *Store) ListPages() ([]Page, error) {
	rows, err := s.db.Query(`SELECT path, generated_at FROM pages ORDER BY path`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pages []Page
	for rows.Next() {
		var path, generatedAt string
		if err := rows.Scan(&path, &generatedAt); err != nil {
			return nil, err
		}
		t, err := time.Parse(time.RFC3339Nano, generatedAt)
		if err != nil {
			return nil, err
		}
		pages = append(pages, Page{Path: path, GeneratedAt: t})
	}
	return pages, rows.Err()
}

// DeletePage removes the snapshot for path.
func (s *Store) DeletePage(path string) error {
	_, err := s.db.Exec(`DELETE FROM pages WHERE path = ?`, path)
	return err
}

// DeleteAll removes every snapshot.
func (s *Store) DeleteAll() error {
	_, err := s.db.Exec(`DELETE FROM pages`)
	return err
}
