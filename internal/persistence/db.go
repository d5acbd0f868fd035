// Package persistence provides SQLite-based storage for islands, genomes,
// journeys and evolution runs.
package persistence

import (
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jmoiron/sqlx"
	"lukechampine.com/blake3"
	_ "modernc.org/sqlite"

	"github.com/geralddejong/galapagotchi/internal/genome"
	"github.com/geralddejong/galapagotchi/internal/island"
	"github.com/geralddejong/galapagotchi/internal/telemetry"
)

// DB wraps a SQLite connection and implements island.Storage.
type DB struct {
	conn *sqlx.DB
}

var _ island.Storage = (*DB)(nil)

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS genomes (
		hexalot_id TEXT PRIMARY KEY,
		genome_json TEXT NOT NULL,
		digest TEXT NOT NULL,
		updated INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS journeys (
		hexalot_id TEXT PRIMARY KEY,
		visits_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS islands (
		name TEXT PRIMARY KEY,
		radius INTEGER NOT NULL,
		terrain TEXT NOT NULL,
		hexalots_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS evolution_runs (
		run_id TEXT NOT NULL,
		generation INTEGER NOT NULL,
		hexalot_id TEXT NOT NULL,
		population INTEGER NOT NULL,
		matured INTEGER NOT NULL,
		best_fitness REAL NOT NULL,
		mean_fitness REAL NOT NULL,
		record_fitness REAL NOT NULL,
		improved INTEGER NOT NULL,
		PRIMARY KEY (run_id, generation)
	);

	CREATE TABLE IF NOT EXISTS world_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_hexalot ON evolution_runs(hexalot_id);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// Digest is the hex blake3 sum of a genome's stored form.
func Digest(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// GetGenome returns the genome stored for a hexalot, or nil if there is none.
// A row whose digest does not match its content is reported as an error.
func (db *DB) GetGenome(hexalotID string) (*genome.Data, error) {
	var row struct {
		GenomeJSON string `db:"genome_json"`
		Digest     string `db:"digest"`
	}
	err := db.conn.Get(&row, "SELECT genome_json, digest FROM genomes WHERE hexalot_id = ?", hexalotID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get genome %s: %w", hexalotID, err)
	}
	if Digest([]byte(row.GenomeJSON)) != row.Digest {
		return nil, fmt.Errorf("genome %s: digest mismatch", hexalotID)
	}
	var data genome.Data
	if err := json.Unmarshal([]byte(row.GenomeJSON), &data); err != nil {
		return nil, fmt.Errorf("decode genome %s: %w", hexalotID, err)
	}
	return &data, nil
}

// SetGenome stores a hexalot's genome. Writing the same genome again is a no-op.
func (db *DB) SetGenome(hexalotID string, data genome.Data) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode genome %s: %w", hexalotID, err)
	}
	digest := Digest(raw)

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var existing string
	err = tx.Get(&existing, "SELECT digest FROM genomes WHERE hexalot_id = ?", hexalotID)
	switch {
	case err == nil && existing == digest:
		return nil
	case err != nil && !errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("set genome %s: %w", hexalotID, err)
	}
	_, err = tx.Exec(
		"INSERT OR REPLACE INTO genomes (hexalot_id, genome_json, digest, updated) VALUES (?, ?, ?, ?)",
		hexalotID, string(raw), digest, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("set genome %s: %w", hexalotID, err)
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	slog.Debug("genome stored", "hexalot", hexalotID, "size", humanize.Bytes(uint64(len(raw))))
	return nil
}

// LoadJourney returns the visit ids stored for a hexalot, or nil.
func (db *DB) LoadJourney(hexalotID string) ([]string, error) {
	var raw string
	err := db.conn.Get(&raw, "SELECT visits_json FROM journeys WHERE hexalot_id = ?", hexalotID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load journey %s: %w", hexalotID, err)
	}
	var visits []string
	if err := json.Unmarshal([]byte(raw), &visits); err != nil {
		return nil, fmt.Errorf("decode journey %s: %w", hexalotID, err)
	}
	return visits, nil
}

// SaveJourney replaces the visit ids of a hexalot's journey.
func (db *DB) SaveJourney(hexalotID string, visits []string) error {
	raw, err := json.Marshal(visits)
	if err != nil {
		return err
	}
	_, err = db.conn.Exec(
		"INSERT OR REPLACE INTO journeys (hexalot_id, visits_json) VALUES (?, ?)",
		hexalotID, string(raw),
	)
	if err != nil {
		return fmt.Errorf("save journey %s: %w", hexalotID, err)
	}
	return nil
}

// LoadIsland returns the stored island with the given name, or nil.
func (db *DB) LoadIsland(name string) (*island.Data, error) {
	var row struct {
		Name         string `db:"name"`
		Radius       int    `db:"radius"`
		Terrain      string `db:"terrain"`
		HexalotsJSON string `db:"hexalots_json"`
	}
	err := db.conn.Get(&row, "SELECT name, radius, terrain, hexalots_json FROM islands WHERE name = ?", name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load island %s: %w", name, err)
	}
	data := &island.Data{Name: row.Name, Radius: row.Radius, Terrain: row.Terrain}
	if err := json.Unmarshal([]byte(row.HexalotsJSON), &data.Hexalots); err != nil {
		return nil, fmt.Errorf("decode island %s: %w", name, err)
	}
	return data, nil
}

// SaveIsland replaces the stored terrain and hexalot layout of an island.
func (db *DB) SaveIsland(data island.Data) error {
	lots, err := json.Marshal(data.Hexalots)
	if err != nil {
		return err
	}
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		"INSERT OR REPLACE INTO islands (name, radius, terrain, hexalots_json) VALUES (?, ?, ?, ?)",
		data.Name, data.Radius, data.Terrain, string(lots),
	)
	if err != nil {
		return fmt.Errorf("save island %s: %w", data.Name, err)
	}
	if _, err := tx.Exec(
		"INSERT OR REPLACE INTO world_meta (key, value) VALUES (?, ?)",
		"last_island", data.Name,
	); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	slog.Info("island saved", "name", data.Name, "hexalots", len(data.Hexalots))
	return nil
}

// RunRecord is one generation of an evolution run as stored.
type RunRecord struct {
	RunID         string  `db:"run_id"`
	Generation    int     `db:"generation"`
	HexalotID     string  `db:"hexalot_id"`
	Population    int     `db:"population"`
	Matured       int     `db:"matured"`
	BestFitness   float64 `db:"best_fitness"`
	MeanFitness   float64 `db:"mean_fitness"`
	RecordFitness float64 `db:"record_fitness"`
	Improved      bool    `db:"improved"`
}

// SaveGeneration records the statistics of one finished generation.
func (db *DB) SaveGeneration(s telemetry.GenerationStats) error {
	_, err := db.conn.Exec(`INSERT OR REPLACE INTO evolution_runs
		(run_id, generation, hexalot_id, population, matured,
		 best_fitness, mean_fitness, record_fitness, improved)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.RunID, s.Generation, s.Hexalot, s.Population, s.Matured,
		s.BestFitness, s.MeanFitness, s.RecordFitness, s.Improved,
	)
	if err != nil {
		return fmt.Errorf("save generation %s/%d: %w", s.RunID, s.Generation, err)
	}
	return nil
}

// RunHistory returns the stored generations of a run in order.
func (db *DB) RunHistory(runID string) ([]RunRecord, error) {
	var records []RunRecord
	err := db.conn.Select(&records,
		`SELECT run_id, generation, hexalot_id, population, matured,
		        best_fitness, mean_fitness, record_fitness, improved
		 FROM evolution_runs WHERE run_id = ? ORDER BY generation`,
		runID,
	)
	return records, err
}

// SaveMeta stores a key-value pair in world metadata.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO world_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM world_meta WHERE key = ?", key)
	return value, err
}
