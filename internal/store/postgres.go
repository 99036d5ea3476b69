package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/yourorg/domus-api/internal/listing"
)

var (
	ErrNotFound   = errors.New("store: not found")
	ErrEmailTaken = errors.New("store: email already registered")
)

type Store struct{ DB *sql.DB }

func Open(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)
	return &Store{DB: db}, nil
}

func (s *Store) Ping(ctx context.Context) error { return s.DB.PingContext(ctx) }

func (s *Store) Close() error { return s.DB.Close() }

func (s *Store) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS pgcrypto;`,
		`CREATE TABLE IF NOT EXISTS users (
            email          TEXT PRIMARY KEY,
            name           TEXT NOT NULL DEFAULT '',
            password_hash  TEXT NOT NULL,
            created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
            updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
        );`,
		`CREATE TABLE IF NOT EXISTS properties (
            id              TEXT NOT NULL,
            location_key    TEXT NOT NULL,
            provider        TEXT NOT NULL,
            price_minor     BIGINT NOT NULL,
            currency_code   TEXT NOT NULL,
            lat             DOUBLE PRECISION,
            lon             DOUBLE PRECISION,
            payload         JSONB NOT NULL,
            created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
            updated_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
            last_fetch_at   TIMESTAMPTZ,
            PRIMARY KEY (location_key, id)
        );`,
		`CREATE INDEX IF NOT EXISTS idx_properties_id ON properties(id, updated_at DESC);`,
		`CREATE TABLE IF NOT EXISTS saved_properties (
            user_email   TEXT NOT NULL REFERENCES users(email) ON DELETE CASCADE,
            property_id  TEXT NOT NULL,
            saved_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
            PRIMARY KEY (user_email, property_id)
        );`,
		`CREATE TABLE IF NOT EXISTS provider_raw_snapshots (
            id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
            provider       TEXT NOT NULL,
            endpoint       TEXT NOT NULL,
            external_id    TEXT,
            payload        JSONB NOT NULL,
            fetched_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
            payload_sha256 TEXT NOT NULL
        );`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_provider ON provider_raw_snapshots(provider, endpoint, fetched_at DESC);`,
	}
	for _, q := range stmts {
		if _, err := s.DB.ExecContext(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

// SnapshotInput is one search result set. Payload is the provider's raw
// response body; it may be empty for generated results.
type SnapshotInput struct {
	Provider    string
	LocationKey string
	Payload     []byte
	Properties  []listing.Property
}

type SnapshotResult struct {
	SnapshotID string
	Upserted   int
}

// WriteSnapshotAndUpsert stores the raw payload and upserts every listing of
// the result set in one transaction.
func (s *Store) WriteSnapshotAndUpsert(ctx context.Context, in SnapshotInput) (SnapshotResult, error) {
	var res SnapshotResult
	if s.DB == nil {
		return res, errors.New("nil db")
	}
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return res, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, p := range in.Properties {
		var payload []byte
		payload, err = json.Marshal(p)
		if err != nil {
			return res, err
		}
		_, err = tx.ExecContext(ctx, `
            INSERT INTO properties (id, location_key, provider, price_minor, currency_code, lat, lon, payload, last_fetch_at)
            VALUES ($1,$2,$3,$4,$5,$6,$7,$8, now())
            ON CONFLICT (location_key, id)
            DO UPDATE SET provider=EXCLUDED.provider, price_minor=EXCLUDED.price_minor, currency_code=EXCLUDED.currency_code, lat=EXCLUDED.lat, lon=EXCLUDED.lon, payload=EXCLUDED.payload, updated_at=now(), last_fetch_at=now()`,
			p.ID, in.LocationKey, in.Provider, p.PriceMinorUnits, p.CurrencyCode, p.Lat, p.Lng, string(payload),
		)
		if err != nil {
			return res, err
		}
		res.Upserted++
	}

	if len(in.Payload) > 0 {
		sum := sha256.Sum256(in.Payload)
		sha := hex.EncodeToString(sum[:])
		err = tx.QueryRowContext(ctx, `
            INSERT INTO provider_raw_snapshots (provider, endpoint, external_id, payload, payload_sha256)
            VALUES ($1,$2,$3,$4,$5)
            RETURNING id`,
			in.Provider, "generateContent", in.LocationKey, string(in.Payload), sha,
		).Scan(&res.SnapshotID)
		if err != nil {
			return res, err
		}
	}

	err = tx.Commit()
	if err != nil {
		return res, err
	}
	return res, nil
}

// GetProperty returns the most recently written listing with id across all
// locations. Providers reuse ids between locations; use GetPropertyAt when
// the location is known.
func (s *Store) GetProperty(ctx context.Context, id string) (listing.Property, error) {
	return s.scanProperty(s.DB.QueryRowContext(ctx,
		`SELECT payload FROM properties WHERE id=$1 ORDER BY updated_at DESC LIMIT 1`, id))
}

// GetPropertyAt returns the stored listing id from the result set of one
// location key.
func (s *Store) GetPropertyAt(ctx context.Context, locationKey, id string) (listing.Property, error) {
	return s.scanProperty(s.DB.QueryRowContext(ctx,
		`SELECT payload FROM properties WHERE location_key=$1 AND id=$2`, locationKey, id))
}

func (s *Store) scanProperty(row *sql.Row) (listing.Property, error) {
	var payload []byte
	err := row.Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return listing.Property{}, ErrNotFound
	}
	if err != nil {
		return listing.Property{}, err
	}
	var p listing.Property
	if err := json.Unmarshal(payload, &p); err != nil {
		return listing.Property{}, err
	}
	return p, nil
}
