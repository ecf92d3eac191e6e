package recipecost

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

var nowFunc = time.Now

// OpenDB opens (or creates) the SQLite database at path and makes sure the
// schema exists.
func OpenDB(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	// one writer; also keeps ":memory:" databases on a single connection
	db.SetMaxOpenConns(1)
	if err := InitSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	Logger().Debug("database opened", zap.String("path", path))
	return db, nil
}

func InitSchema(ctx context.Context, db *sql.DB) error {
	queries := []string{
		`PRAGMA foreign_keys = ON;`,
		`CREATE TABLE IF NOT EXISTS restaurants (
			uuid TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			owner_subject TEXT NOT NULL UNIQUE,
			created_at INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS ingredients (
			uuid TEXT PRIMARY KEY,
			restaurant_uuid TEXT NOT NULL REFERENCES restaurants(uuid),
			name TEXT NOT NULL,
			unit TEXT NOT NULL,
			current_cost_per_unit_cents INTEGER NOT NULL,
			is_archived INTEGER NOT NULL DEFAULT 0,
			created_at INTEGER NOT NULL,
			archived_at INTEGER
		);`,
		`CREATE INDEX IF NOT EXISTS ingredients_by_restaurant_active ON ingredients (restaurant_uuid, is_archived);`,
		`CREATE TABLE IF NOT EXISTS ingredient_price_history (
			uuid TEXT PRIMARY KEY,
			ingredient_uuid TEXT NOT NULL REFERENCES ingredients(uuid),
			cost_per_unit_cents INTEGER NOT NULL,
			recorded_at INTEGER NOT NULL,
			note TEXT NOT NULL DEFAULT ''
		);`,
		`CREATE INDEX IF NOT EXISTS price_history_by_ingredient_date ON ingredient_price_history (ingredient_uuid, recorded_at);`,
		`CREATE TABLE IF NOT EXISTS dishes (
			uuid TEXT PRIMARY KEY,
			restaurant_uuid TEXT NOT NULL REFERENCES restaurants(uuid),
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			price_cents INTEGER,
			status TEXT NOT NULL,
			created_at INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS dishes_by_restaurant_status ON dishes (restaurant_uuid, status);`,
		`CREATE TABLE IF NOT EXISTS dish_ingredients (
			uuid TEXT PRIMARY KEY,
			dish_uuid TEXT NOT NULL REFERENCES dishes(uuid),
			ingredient_uuid TEXT NOT NULL REFERENCES ingredients(uuid),
			quantity REAL NOT NULL,
			unit TEXT NOT NULL,
			created_at INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS dish_ingredients_by_dish ON dish_ingredients (dish_uuid);`,
		`CREATE TABLE IF NOT EXISTS unit_conversions (
			from_unit TEXT NOT NULL,
			to_unit TEXT NOT NULL,
			factor REAL NOT NULL,
			PRIMARY KEY (from_unit, to_unit)
		);`,
	}
	for _, q := range queries {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

// SeedConversions inserts every valid row whose pair is not stored yet. A row
// with a bad factor or unit is reported and skipped; the rest of the batch
// still goes in.
func SeedConversions(ctx context.Context, db *sql.DB, convs []UnitConversion) (SeedReport, error) {
	var report SeedReport
	for _, c := range convs {
		if err := validateConversion(c); err != nil {
			Logger().Warn("conversion rejected",
				zap.String("from", c.FromUnit), zap.String("to", c.ToUnit),
				zap.Float64("factor", c.Factor), zap.Error(err))
			report.Rejected = append(report.Rejected, RejectedConversion{Conversion: c, Err: err})
			continue
		}
		res, err := db.ExecContext(ctx,
			`INSERT OR IGNORE INTO unit_conversions (from_unit, to_unit, factor) VALUES (?, ?, ?)`,
			c.FromUnit, c.ToUnit, c.Factor)
		if err != nil {
			return report, fmt.Errorf("seed %s->%s: %w", c.FromUnit, c.ToUnit, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return report, err
		}
		if n == 0 {
			report.Skipped = append(report.Skipped, c)
		} else {
			report.Inserted = append(report.Inserted, c)
		}
	}
	Logger().Info("unit conversions seeded",
		zap.Int("inserted", len(report.Inserted)),
		zap.Int("skipped", len(report.Skipped)),
		zap.Int("rejected", len(report.Rejected)))
	return report, nil
}

func validateConversion(c UnitConversion) error {
	if err := ValidateUnit(c.FromUnit); err != nil {
		return err
	}
	if err := ValidateUnit(c.ToUnit); err != nil {
		return err
	}
	return ValidateFactor(c.Factor)
}

// GetConversionFactor looks up one stored pair. Equal units return 1 without
// touching the table.
func GetConversionFactor(ctx context.Context, db *sql.DB, fromUnit, toUnit string) (float64, error) {
	if err := ValidateUnit(fromUnit); err != nil {
		return 0, err
	}
	if err := ValidateUnit(toUnit); err != nil {
		return 0, err
	}
	if fromUnit == toUnit {
		return 1, nil
	}

	var factor float64
	err := db.QueryRowContext(ctx,
		`SELECT factor FROM unit_conversions WHERE from_unit = ? AND to_unit = ?`,
		fromUnit, toUnit).Scan(&factor)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, &ConversionNotFoundError{From: fromUnit, To: toUnit}
	}
	if err != nil {
		return 0, err
	}
	return factor, nil
}

// LoadRegistry snapshots the whole conversion table into memory.
func LoadRegistry(ctx context.Context, db *sql.DB) (*Registry, error) {
	rows, err := db.QueryContext(ctx, `SELECT from_unit, to_unit, factor FROM unit_conversions`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reg := NewRegistry()
	for rows.Next() {
		var c UnitConversion
		if err := rows.Scan(&c.FromUnit, &c.ToUnit, &c.Factor); err != nil {
			return nil, err
		}
		if _, err := reg.UpsertEdge(c.FromUnit, c.ToUnit, c.Factor); err != nil {
			return nil, fmt.Errorf("stored conversion %s->%s: %w", c.FromUnit, c.ToUnit, err)
		}
	}
	return reg, rows.Err()
}

func toMillis(t time.Time) int64 {
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
