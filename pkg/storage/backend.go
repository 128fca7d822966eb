package storage

import (
	"database/sql"
	"fmt"
	"log"
	"sync"

	"tilesplit/pkg/common"

	_ "modernc.org/sqlite"
)

// TileStore keeps tile records in a single SQLite table keyed by tile id.
type TileStore struct {
	db   *sql.DB
	mu   sync.Mutex
	path string
}

func OpenTileStore(path string) (*TileStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	query := `
	CREATE TABLE IF NOT EXISTS tiles (
		tile INTEGER PRIMARY KEY,
		value BLOB
	);`
	if _, err := db.Exec(query); err != nil {
		db.Close()
		return nil, fmt.Errorf("init tiles table: %w", err)
	}

	_, err = db.Exec(`
		PRAGMA journal_mode = WAL;
		PRAGMA synchronous = NORMAL;
	`)
	if err != nil {
		log.Printf("[Store] Warning: Failed to set PRAGMA: %v", err)
	}

	return &TileStore{db: db, path: path}, nil
}

func (s *TileStore) Write(key common.TileID, val common.ValueType) error {
	if key < 0 {
		return fmt.Errorf("negative tile id %d", key)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec("INSERT OR REPLACE INTO tiles (tile, value) VALUES (?, ?)", int64(key), []byte(val))
	return err
}

func (s *TileStore) BatchWrite(records []common.Record) error {
	if len(records) == 0 {
		return nil
	}
	for _, rec := range records {
		if rec.Key < 0 {
			return fmt.Errorf("negative tile id %d", rec.Key)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare("INSERT OR REPLACE INTO tiles (tile, value) VALUES (?, ?)")
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, rec := range records {
		if _, err := stmt.Exec(int64(rec.Key), []byte(rec.Value)); err != nil {
			tx.Rollback()
			return err
		}
	}

	return tx.Commit()
}

func (s *TileStore) Read(key common.TileID) (common.ValueType, bool) {
	var val []byte
	err := s.db.QueryRow("SELECT value FROM tiles WHERE tile = ?", int64(key)).Scan(&val)
	if err == sql.ErrNoRows {
		return nil, false
	}
	if err != nil {
		log.Printf("[Store] Read error: %v", err)
		return nil, false
	}
	return val, true
}

// Keys calls fn for every stored tile id in ascending order until fn
// returns false.
func (s *TileStore) Keys(fn func(key common.TileID) bool) error {
	rows, err := s.db.Query("SELECT tile FROM tiles ORDER BY tile ASC")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var k int64
		if err := rows.Scan(&k); err != nil {
			return err
		}
		if !fn(common.TileID(k)) {
			break
		}
	}
	return rows.Err()
}

// Scan returns the records with start <= tile <= end.
func (s *TileStore) Scan(start, end common.TileID) ([]common.Record, error) {
	rows, err := s.db.Query("SELECT tile, value FROM tiles WHERE tile >= ? AND tile <= ? ORDER BY tile ASC",
		int64(start), int64(end))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []common.Record
	for rows.Next() {
		var k int64
		var v []byte
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		records = append(records, common.Record{Key: common.TileID(k), Value: v})
	}
	return records, rows.Err()
}

// Cursor streams every record in tile order.
func (s *TileStore) Cursor() (*Cursor, error) {
	rows, err := s.db.Query("SELECT tile, value FROM tiles ORDER BY tile ASC")
	if err != nil {
		return nil, err
	}
	return &Cursor{rows: rows}, nil
}

func (s *TileStore) Count() (int, error) {
	var n int
	err := s.db.QueryRow("SELECT COUNT(*) FROM tiles").Scan(&n)
	return n, err
}

func (s *TileStore) Truncate() error {
	_, err := s.db.Exec("DELETE FROM tiles")
	return err
}

func (s *TileStore) Path() string {
	return s.path
}

func (s *TileStore) Close() error {
	return s.db.Close()
}

type Cursor struct {
	rows *sql.Rows
	cur  common.Record
	err  error
}

func (c *Cursor) Next() bool {
	if c.err != nil || !c.rows.Next() {
		return false
	}
	var k int64
	var v []byte
	if err := c.rows.Scan(&k, &v); err != nil {
		c.err = err
		return false
	}
	c.cur = common.Record{Key: common.TileID(k), Value: v}
	return true
}

func (c *Cursor) Record() common.Record {
	return c.cur
}

func (c *Cursor) Err() error {
	if c.err != nil {
		return c.err
	}
	return c.rows.Err()
}

func (c *Cursor) Close() error {
	return c.rows.Close()
}
