package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/animerec/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/animerec/internal/core/domain"
)

// dbFileName is the database file inside an index directory.
const dbFileName = "index.db"

// Metadata keys.
const (
	metaModel      = "model"
	metaDimensions = "dimensions"
	metaCreatedAt  = "created_at"
)

// indexMeta is the decoded index_meta table.
type indexMeta struct {
	Model      string
	Dimensions int
	CreatedAt  time.Time
}

// store wraps the database of a single index directory.
type store struct {
	db   *sql.DB
	path string
}

// openStore opens the index database in dir. With create set, the directory
// and database are created and migrations applied; otherwise the database
// must already exist.
func openStore(dir string, create bool) (*store, error) {
	dbPath := filepath.Join(dir, dbFileName)

	if create {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("creating index directory: %w", err)
		}
	} else if _, err := os.Stat(dbPath); err != nil {
		return nil, fmt.Errorf("index database: %w", err)
	}

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &store{db: db, path: dbPath}

	if create {
		if err := s.migrate(migrations.FS); err != nil {
			db.Close()
			return nil, fmt.Errorf("running migrations: %w", err)
		}
	}

	return s, nil
}

// Close closes the database connection.
func (s *store) Close() error {
	return s.db.Close()
}

// migrate runs all pending migrations.
func (s *store) migrate(fsys fs.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if name := entry.Name(); strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// meta reads index_meta. A freshly created index returns a zero value.
func (s *store) meta(ctx context.Context) (indexMeta, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT key, value FROM index_meta")
	if err != nil {
		return indexMeta{}, fmt.Errorf("reading index metadata: %w", err)
	}
	defer rows.Close()

	var m indexMeta
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return indexMeta{}, fmt.Errorf("scanning index metadata: %w", err)
		}
		switch key {
		case metaModel:
			m.Model = value
		case metaDimensions:
			if m.Dimensions, err = strconv.Atoi(value); err != nil {
				return indexMeta{}, fmt.Errorf("invalid dimensions %q: %w", value, err)
			}
		case metaCreatedAt:
			if m.CreatedAt, err = time.Parse(time.RFC3339, value); err != nil {
				return indexMeta{}, fmt.Errorf("invalid created_at %q: %w", value, err)
			}
		}
	}
	return m, rows.Err()
}

// append writes entries, and metadata when meta is non-nil, in one transaction.
func (s *store) append(ctx context.Context, meta *indexMeta, chunks []domain.Chunk, vectors [][]float32) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback after commit is a no-op

	if meta != nil {
		for key, value := range map[string]string{
			metaModel:      meta.Model,
			metaDimensions: strconv.Itoa(meta.Dimensions),
			metaCreatedAt:  meta.CreatedAt.UTC().Format(time.RFC3339),
		} {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO index_meta (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
				key, value); err != nil {
				return fmt.Errorf("writing metadata %s: %w", key, err)
			}
		}
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO entries (chunk_id, title, genres, source, row_num, position, content, embedding)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for i, c := range chunks {
		genres, err := json.Marshal(c.Genres)
		if err != nil {
			return fmt.Errorf("marshalling genres: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, c.ID, c.Title, string(genres), c.Source, c.Row, c.Position,
			c.Content, float32SliceToBytes(vectors[i])); err != nil {
			return fmt.Errorf("inserting chunk %s: %w", c.ID, err)
		}
	}

	return tx.Commit()
}

// entries reads every entry in insertion order.
func (s *store) entries(ctx context.Context) ([]domain.IndexEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, chunk_id, title, genres, source, row_num, position, content, embedding
		FROM entries ORDER BY seq
	`)
	if err != nil {
		return nil, fmt.Errorf("querying entries: %w", err)
	}
	defer rows.Close()

	var out []domain.IndexEntry
	for rows.Next() {
		var (
			e         domain.IndexEntry
			genres    string
			embedding []byte
		)
		if err := rows.Scan(&e.Seq, &e.Chunk.ID, &e.Chunk.Title, &genres, &e.Chunk.Source,
			&e.Chunk.Row, &e.Chunk.Position, &e.Chunk.Content, &embedding); err != nil {
			return nil, fmt.Errorf("scanning entry: %w", err)
		}
		if genres != "" && genres != jsonNull {
			if err := json.Unmarshal([]byte(genres), &e.Chunk.Genres); err != nil {
				return nil, fmt.Errorf("entry %d genres: %w", e.Seq, err)
			}
		}
		e.Embedding = bytesToFloat32Slice(embedding)
		out = append(out, e)
	}
	return out, rows.Err()
}

// count returns the number of stored entries.
func (s *store) count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM entries").Scan(&n); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("counting entries: %w", err)
	}
	return n, nil
}

// jsonNull is the JSON representation of null.
const jsonNull = "null"

// float32SliceToBytes converts []float32 to little-endian bytes.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
