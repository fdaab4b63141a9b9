// Package archive stores compiled programs and their roms in a SQLite file.
// Program bodies and rom payloads are zstd compressed.
package archive

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/tliron/commonlog"
	_ "modernc.org/sqlite"

	"github.com/chazu/mutable/program"
)

var log = commonlog.GetLogger("mutable.archive")

// ErrNotFound indicates the requested program or rom doesn't exist.
var ErrNotFound = errors.New("not found")

const schema = `
CREATE TABLE IF NOT EXISTS programs (
	name    TEXT PRIMARY KEY,
	created INTEGER NOT NULL,
	ops     INTEGER NOT NULL,
	states  INTEGER NOT NULL,
	body    BLOB NOT NULL
);
CREATE TABLE IF NOT EXISTS roms (
	program TEXT NOT NULL REFERENCES programs(name) ON DELETE CASCADE,
	id      INTEGER NOT NULL,
	type    INTEGER NOT NULL,
	size    INTEGER NOT NULL,
	data    BLOB NOT NULL,
	PRIMARY KEY (program, id)
);`

// Entry summarizes a stored program.
type Entry struct {
	Name    string
	Created time.Time
	Ops     int
	States  int
	Roms    int
}

// Archive handles SQLite storage for programs.
type Archive struct {
	db  *sql.DB
	enc *zstd.Encoder
	dec *zstd.Decoder
	mu  sync.Mutex
}

// Open opens or creates the archive at path. ":memory:" gives a private
// in-memory archive.
func Open(path string) (*Archive, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// An in-memory database lives as long as its connection.
	db.SetMaxOpenConns(1)

	for _, stmt := range []string{"PRAGMA busy_timeout = 5000", "PRAGMA foreign_keys = ON", schema} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("initializing database: %w", err)
		}
	}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating compressor: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		db.Close()
		return nil, fmt.Errorf("creating decompressor: %w", err)
	}
	return &Archive{db: db, enc: enc, dec: dec}, nil
}

// Close releases the compressors and closes the database connection.
func (a *Archive) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	err := a.enc.Close()
	a.dec.Close()
	return errors.Join(err, a.db.Close())
}

// Put stores p under name, replacing any previous program of that name
// together with its roms.
func (a *Archive) Put(ctx context.Context, name string, p *program.Program) error {
	body, err := program.Marshal(p)
	if err != nil {
		return fmt.Errorf("encoding program: %w", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM roms WHERE program = ?", name); err != nil {
		return fmt.Errorf("clearing roms: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		"INSERT OR REPLACE INTO programs (name, created, ops, states, body) VALUES (?, ?, ?, ?, ?)",
		name, time.Now().Unix(), p.OpCount(), len(p.States), a.enc.EncodeAll(body, nil))
	if err != nil {
		return fmt.Errorf("saving program: %w", err)
	}

	for _, r := range p.Roms {
		if r.Data == nil {
			return fmt.Errorf("rom %d of %q has no data", r.ID, name)
		}
		_, err := tx.ExecContext(ctx,
			"INSERT INTO roms (program, id, type, size, data) VALUES (?, ?, ?, ?, ?)",
			name, r.ID, r.Type, r.Size, a.enc.EncodeAll(r.Data, nil))
		if err != nil {
			return fmt.Errorf("saving rom %d: %w", r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing: %w", err)
	}
	log.Debugf("stored %q with %d roms (%d bytes)", name, len(p.Roms), len(body))
	return nil
}

// Get loads the program stored under name. Rom payloads are not loaded;
// use RomData to read them.
func (a *Archive) Get(ctx context.Context, name string) (*program.Program, error) {
	var body []byte
	err := a.db.QueryRowContext(ctx, "SELECT body FROM programs WHERE name = ?", name).Scan(&body)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("program %q: %w", name, ErrNotFound)
		}
		return nil, fmt.Errorf("querying program: %w", err)
	}
	raw, err := a.dec.DecodeAll(body, nil)
	if err != nil {
		return nil, fmt.Errorf("decompressing program %q: %w", name, err)
	}
	return program.Unmarshal(raw)
}

// RomData returns the payload of rom id of the program stored under name.
func (a *Archive) RomData(ctx context.Context, name string, id uint32) ([]byte, error) {
	var data []byte
	err := a.db.QueryRowContext(ctx,
		"SELECT data FROM roms WHERE program = ? AND id = ?", name, id).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("rom %d of %q: %w", id, name, ErrNotFound)
		}
		return nil, fmt.Errorf("querying rom: %w", err)
	}
	raw, err := a.dec.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("decompressing rom %d: %w", id, err)
	}
	return raw, nil
}

// List returns the stored programs ordered by name.
func (a *Archive) List(ctx context.Context) ([]Entry, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT p.name, p.created, p.ops, p.states, COUNT(r.id)
		FROM programs p LEFT JOIN roms r ON r.program = p.name
		GROUP BY p.name ORDER BY p.name`)
	if err != nil {
		return nil, fmt.Errorf("listing programs: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var created int64
		if err := rows.Scan(&e.Name, &created, &e.Ops, &e.States, &e.Roms); err != nil {
			return nil, fmt.Errorf("scanning program: %w", err)
		}
		e.Created = time.Unix(created, 0)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Delete removes the program stored under name and its roms.
func (a *Archive) Delete(ctx context.Context, name string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	res, err := a.db.ExecContext(ctx, "DELETE FROM programs WHERE name = ?", name)
	if err != nil {
		return fmt.Errorf("deleting program: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("program %q: %w", name, ErrNotFound)
	}
	return nil
}
