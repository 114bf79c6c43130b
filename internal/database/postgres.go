package database

import (
	"context"
	"database/sql"
	"log"
	"time"

	_ "github.com/lib/pq"
)

var PostgresDB *sql.DB

// ConnectPostgres connects to PostgreSQL database
func ConnectPostgres(postgresURI string) error {
	var err error

	PostgresDB, err = sql.Open("postgres", postgresURI)
	if err != nil {
		return err
	}

	// Set connection pool settings
	PostgresDB.SetMaxOpenConns(25)
	PostgresDB.SetMaxIdleConns(5)
	PostgresDB.SetConnMaxLifetime(5 * time.Minute)

	// Test connection
	if err = PostgresDB.Ping(); err != nil {
		return err
	}

	log.Println("✅ Connected to PostgreSQL")

	// Initialize tables
	if err = InitPostgresTables(); err != nil {
		return err
	}

	return nil
}

// InitPostgresTables creates all necessary tables if they don't exist
func InitPostgresTables() error {
	queries := []string{
		// Users table (sellers, collectors and the admin account)
		`CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY,
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMP NOT NULL DEFAULT NOW(),
			name VARCHAR(255) NOT NULL,
			email VARCHAR(255) NOT NULL DEFAULT '',
			phone VARCHAR(50) NOT NULL DEFAULT '',
			role VARCHAR(20) NOT NULL CHECK (role IN ('seller', 'collector', 'admin')),
			password_hash VARCHAR(255) NOT NULL DEFAULT '',
			auth_provider VARCHAR(50) NOT NULL DEFAULT 'password',
			referral_code VARCHAR(16) NOT NULL UNIQUE,
			referred_by VARCHAR(255) NOT NULL DEFAULT '',
			total_collections INTEGER NOT NULL DEFAULT 0
		)`,

		// One location per owner; overwritten on update
		`CREATE TABLE IF NOT EXISTS locations (
			owner_id UUID PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
			owner_role VARCHAR(20) NOT NULL,
			latitude DOUBLE PRECISION NOT NULL CHECK (latitude BETWEEN -90 AND 90),
			longitude DOUBLE PRECISION NOT NULL CHECK (longitude BETWEEN -180 AND 180),
			area_name VARCHAR(255) NOT NULL DEFAULT '',
			search_radius_km DOUBLE PRECISION CHECK (search_radius_km IS NULL OR search_radius_km > 0),
			updated_at TIMESTAMP NOT NULL DEFAULT NOW()
		)`,

		// Item listings
		`CREATE TABLE IF NOT EXISTS items (
			id VARCHAR(26) PRIMARY KEY,
			seller_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			category VARCHAR(20) NOT NULL,
			quantity_kg DOUBLE PRECISION NOT NULL CHECK (quantity_kg > 0),
			description TEXT NOT NULL,
			image_url TEXT NOT NULL,
			street VARCHAR(255) NOT NULL DEFAULT '',
			city VARCHAR(255) NOT NULL DEFAULT '',
			zip_code VARCHAR(20) NOT NULL DEFAULT '',
			latitude DOUBLE PRECISION NOT NULL,
			longitude DOUBLE PRECISION NOT NULL,
			pickup_date VARCHAR(10) NOT NULL,
			pickup_start VARCHAR(5) NOT NULL,
			pickup_end VARCHAR(5) NOT NULL,
			estimated_price DOUBLE PRECISION NOT NULL,
			actual_weight DOUBLE PRECISION,
			final_price DOUBLE PRECISION,
			status VARCHAR(20) NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'accepted', 'collected', 'cancelled')),
			collector_id UUID REFERENCES users(id) ON DELETE SET NULL,
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMP NOT NULL DEFAULT NOW(),
			collected_at TIMESTAMP
		)`,

		// Collector subscriptions
		`CREATE TABLE IF NOT EXISTS subscriptions (
			collector_id UUID PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
			plan_type VARCHAR(50) NOT NULL DEFAULT 'none',
			status VARCHAR(20) NOT NULL DEFAULT 'inactive' CHECK (status IN ('active', 'inactive')),
			expiry_date TIMESTAMP,
			created_at TIMESTAMP,
			cancelled_at TIMESTAMP
		)`,

		// Create indexes for better performance
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_users_phone ON users(phone) WHERE phone <> ''`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email_lower ON users(LOWER(email)) WHERE email <> ''`,
		`CREATE INDEX IF NOT EXISTS idx_users_role ON users(role)`,
		`CREATE INDEX IF NOT EXISTS idx_items_seller_id ON items(seller_id)`,
		`CREATE INDEX IF NOT EXISTS idx_items_status ON items(status)`,
		`CREATE INDEX IF NOT EXISTS idx_items_collector_id ON items(collector_id)`,
		`CREATE INDEX IF NOT EXISTS idx_items_created_at ON items(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_subscriptions_status ON subscriptions(status)`,
	}

	for _, query := range queries {
		if _, err := PostgresDB.Exec(query); err != nil {
			return err
		}
	}

	log.Println("✅ PostgreSQL tables initialized")
	return nil
}

// DisconnectPostgres closes the PostgreSQL connection
func DisconnectPostgres() error {
	if PostgresDB != nil {
		return PostgresDB.Close()
	}
	return nil
}

// Querier is satisfied by *sql.DB and *sql.Tx.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}
