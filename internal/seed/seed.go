package seed

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/Simplici0/stonequote/internal/pricing"
)

// Config contains the values required by startup seed.
type Config struct {
	AdminEmail    string
	AdminPassword string
	// BcryptCost defaults to bcrypt.DefaultCost.
	BcryptCost int
}

// Stats contains seed operation counters.
type Stats struct {
	Inserts int
	Updates int
}

type catalogProduct struct {
	productType   pricing.ProductType
	table         string
	model         string
	size          float64
	length        float64
	breadth       float64
	supplierPrice float64
	markup        float64
}

var defaultProducts = []catalogProduct{
	{pricing.TypeSertop, "sertop_products", "SERP-2412", 8, 24, 12, 40, 25},
	{pricing.TypeBase, "base_products", "BASE-2412", 6, 24, 12, 40, 25},
	{pricing.TypeBase, "base_products", "BASE-3614", 8, 36, 14, 40, 25},
	{pricing.TypeMarker, "marker_products", "MKR-2412", 4, 24, 12, 32, 25},
	{pricing.TypeSlant, "slant_products", "SLT-2010", 16, 20, 10, 60, 25},
}

var defaultColors = []struct {
	name    string
	percent float64
}{
	{"Jet Black", 0},
	{"Indian Red", 10},
	{"Blue Pearl", 15},
}

var defaultMonuments = []struct {
	name    string
	percent float64
}{
	{"Heart Shape", 20},
	{"Book Design", 15},
}

const (
	demoCustomerName  = "Demo Memorials"
	demoCustomerEmail = "orders@demo-memorials.example"
)

// Run executes the startup seed in an idempotent way.
func Run(ctx context.Context, db *sql.DB, cfg Config) (Stats, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return Stats{}, fmt.Errorf("begin seed transaction: %w", err)
	}

	stats := Stats{}
	steps := []func(context.Context, *sql.Tx, *Stats) error{
		func(ctx context.Context, tx *sql.Tx, st *Stats) error {
			return seedAdmin(ctx, tx, cfg, st)
		},
		ensureDemoCustomer,
		ensureProducts,
		ensureColors,
		ensureSpecialMonuments,
	}
	for _, step := range steps {
		if err := step(ctx, tx, &stats); err != nil {
			_ = tx.Rollback()
			return Stats{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return Stats{}, fmt.Errorf("commit seed transaction: %w", err)
	}

	return stats, nil
}

func seedAdmin(ctx context.Context, tx *sql.Tx, cfg Config, stats *Stats) error {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return nil
	}

	var exists bool
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE email = ? LIMIT 1)`, cfg.AdminEmail).Scan(&exists); err != nil {
		return fmt.Errorf("check admin user existence: %w", err)
	}
	if exists {
		return nil
	}

	cost := cfg.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), cost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO users (email, password_hash, role, created_at)
		VALUES (?, ?, 'admin', ?)
	`, cfg.AdminEmail, string(hash), time.Now().UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("insert admin user: %w", err)
	}
	stats.Inserts++
	return nil
}

func ensureDemoCustomer(ctx context.Context, tx *sql.Tx, stats *Stats) error {
	var exists bool
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM customers WHERE email = ? LIMIT 1)`, demoCustomerEmail).Scan(&exists); err != nil {
		return fmt.Errorf("check demo customer existence: %w", err)
	}
	if exists {
		return nil
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO customers (name, company, email, phone, address, city, state, postal_code)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, demoCustomerName, "Demo Memorials LLC", demoCustomerEmail, "555-0142", "12 Quarry Road", "Elberton", "GA", "30635"); err != nil {
		return fmt.Errorf("insert demo customer: %w", err)
	}
	stats.Inserts++
	return nil
}

func ensureProducts(ctx context.Context, tx *sql.Tx, stats *Stats) error {
	for _, p := range defaultProducts {
		var exists bool
		if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM `+p.table+` WHERE model = ? LIMIT 1)`, p.model).Scan(&exists); err != nil {
			return fmt.Errorf("check %s product %s existence: %w", p.productType, p.model, err)
		}
		if exists {
			continue
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO `+p.table+` (model, size, length_inches, breadth_inches, supplier_price, markup_percentage, base_price)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, p.model, p.size, p.length, p.breadth, p.supplierPrice, p.markup, pricing.BasePrice(p.supplierPrice, p.markup)); err != nil {
			return fmt.Errorf("insert %s product %s: %w", p.productType, p.model, err)
		}
		stats.Inserts++
	}
	return nil
}

func ensureColors(ctx context.Context, tx *sql.Tx, stats *Stats) error {
	for _, c := range defaultColors {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO stone_color_rates (color_name, price_increase_percentage)
			VALUES (?, ?)
			ON CONFLICT (color_name) DO NOTHING
		`, c.name, c.percent)
		if err != nil {
			return fmt.Errorf("insert stone color %s: %w", c.name, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("insert stone color %s: %w", c.name, err)
		}
		stats.Inserts += int(n)
	}
	return nil
}

func ensureSpecialMonuments(ctx context.Context, tx *sql.Tx, stats *Stats) error {
	for _, m := range defaultMonuments {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO special_monuments (sp_name, sp_value)
			VALUES (?, ?)
			ON CONFLICT (sp_name) DO NOTHING
		`, m.name, m.percent)
		if err != nil {
			return fmt.Errorf("insert special monument %s: %w", m.name, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("insert special monument %s: %w", m.name, err)
		}
		stats.Inserts += int(n)
	}
	return nil
}
