// Package persistence provides SQLite-based economy state storage.
package persistence

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dustin/go-humanize"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/mini-economy/internal/agents"
	"github.com/talgya/mini-economy/internal/economy"
	"github.com/talgya/mini-economy/internal/engine"
	"github.com/talgya/mini-economy/internal/industry"
)

// DB wraps a SQLite connection for economy state persistence.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// One writer; the async report sink and snapshot saves share it.
	conn.SetMaxOpenConns(1)

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
	CREATE TABLE IF NOT EXISTS people (
		id INTEGER PRIMARY KEY,
		class INTEGER NOT NULL,
		income INTEGER NOT NULL,
		money REAL NOT NULL
	);

	CREATE TABLE IF NOT EXISTS facilities (
		id INTEGER PRIMARY KEY,
		kind INTEGER NOT NULL,
		owner INTEGER NOT NULL,
		capacity INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS prices (
		good INTEGER PRIMARY KEY,
		price REAL NOT NULL
	);

	CREATE TABLE IF NOT EXISTS market_reports (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		tick INTEGER NOT NULL,
		good INTEGER NOT NULL,
		demand INTEGER NOT NULL,
		bid_price REAL NOT NULL,
		supply INTEGER NOT NULL,
		cleared INTEGER NOT NULL,
		traded INTEGER NOT NULL,
		price REAL NOT NULL,
		new_price REAL NOT NULL,
		value REAL NOT NULL,
		rejected INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS world_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_reports_tick ON market_reports(tick);
	CREATE INDEX IF NOT EXISTS idx_reports_good ON market_reports(good, tick);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// HasState returns true if a population has been saved.
func (db *DB) HasState() bool {
	var n int
	if err := db.conn.Get(&n, "SELECT COUNT(*) FROM people"); err != nil {
		return false
	}
	return n > 0
}

// SavePeople writes all agents to the database (full replace).
func (db *DB) SavePeople(people []*agents.Person) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM people"); err != nil {
		return err
	}

	stmt, err := tx.Preparex("INSERT INTO people (id, class, income, money) VALUES (?, ?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, p := range people {
		if _, err := stmt.Exec(p.ID, p.Class, p.Income, p.Money); err != nil {
			return fmt.Errorf("insert person %d: %w", p.ID, err)
		}
	}

	return tx.Commit()
}

// LoadPeople reads every agent ordered by ID.
func (db *DB) LoadPeople() ([]*agents.Person, error) {
	var people []*agents.Person
	err := db.conn.Select(&people, "SELECT id, class, income, money FROM people ORDER BY id")
	return people, err
}

// SaveFacilities writes all facilities (full replace).
func (db *DB) SaveFacilities(facilities []*industry.Facility) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM facilities"); err != nil {
		return err
	}
	for _, f := range facilities {
		_, err := tx.Exec("INSERT INTO facilities (id, kind, owner, capacity) VALUES (?, ?, ?, ?)",
			f.ID, f.Kind, f.Owner, f.Capacity)
		if err != nil {
			return fmt.Errorf("insert facility %d: %w", f.ID, err)
		}
	}
	return tx.Commit()
}

// LoadFacilities reads every facility ordered by ID.
func (db *DB) LoadFacilities() ([]*industry.Facility, error) {
	var facilities []*industry.Facility
	if err := db.conn.Select(&facilities, "SELECT id, kind, owner, capacity FROM facilities ORDER BY id"); err != nil {
		return nil, err
	}
	for _, f := range facilities {
		if !f.Kind.Valid() {
			return nil, fmt.Errorf("facility %d: unknown production kind %d", f.ID, f.Kind)
		}
	}
	return facilities, nil
}

// SavePrices writes one row per good.
func (db *DB) SavePrices(book *economy.PriceBook) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, p := range book.Records() {
		if _, err := tx.Exec("INSERT OR REPLACE INTO prices (good, price) VALUES (?, ?)", p.Good, p.Price); err != nil {
			return fmt.Errorf("save price %s: %w", p.Good, err)
		}
	}
	return tx.Commit()
}

// LoadPrices restores saved prices into book. Goods without a saved row
// keep their current price.
func (db *DB) LoadPrices(book *economy.PriceBook) error {
	var rows []economy.Price
	if err := db.conn.Select(&rows, "SELECT good, price FROM prices"); err != nil {
		return err
	}
	for _, r := range rows {
		if err := book.Set(r.Good, r.Price); err != nil {
			return fmt.Errorf("restore price: %w", err)
		}
	}
	return nil
}

// Report stores one row per traded good. It implements engine.ReportSink.
func (db *DB) Report(r *engine.TickReport) error {
	if len(r.Goods) == 0 {
		return nil
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, g := range r.Goods {
		_, err := tx.Exec(`INSERT INTO market_reports
			(run_id, tick, good, demand, bid_price, supply, cleared, traded, price, new_price, value, rejected)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.RunID, r.Tick, g.Good, g.Demand, g.BidPrice, g.Supply, g.Cleared,
			g.Traded, g.Price, g.NewPrice, g.Value, g.Rejected,
		)
		if err != nil {
			return fmt.Errorf("insert report %d/%s: %w", r.Tick, g.Good, err)
		}
	}
	return tx.Commit()
}

// PriceHistory returns the most recent report rows for one good, newest first.
func (db *DB) PriceHistory(good economy.GoodsType, limit int) ([]engine.GoodReport, error) {
	var rows []engine.GoodReport
	err := db.conn.Select(&rows, `SELECT good, demand, bid_price, supply, cleared, traded,
		price, new_price, value, rejected
		FROM market_reports WHERE good = ? ORDER BY id DESC LIMIT ?`, good, limit)
	return rows, err
}

// SaveMeta stores a key-value pair in metadata.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO world_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value. A missing key returns "" and no error.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM world_meta WHERE key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return value, err
}

// SaveState performs a full save of the simulation.
func (db *DB) SaveState(sim *engine.Simulation) error {
	stats := sim.Snapshot()
	slog.Info("saving economy state",
		"people", humanize.Comma(int64(stats.Population)),
		"facilities", stats.Facilities,
		"money", humanize.Commaf(stats.TotalMoney),
	)

	people := sim.PeopleSnapshot()
	if err := db.SavePeople(people); err != nil {
		return fmt.Errorf("save people: %w", err)
	}
	if err := db.SaveFacilities(sim.Industry.Facilities); err != nil {
		return fmt.Errorf("save facilities: %w", err)
	}
	if err := db.SavePrices(sim.Prices); err != nil {
		return fmt.Errorf("save prices: %w", err)
	}
	if err := db.SaveMeta("last_tick", fmt.Sprintf("%d", sim.CurrentTick())); err != nil {
		return fmt.Errorf("save meta: %w", err)
	}
	if err := db.SaveMeta("run_id", sim.RunID.String()); err != nil {
		return fmt.Errorf("save meta: %w", err)
	}

	slog.Info("economy state saved")
	return nil
}
