package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"sjsage522/estateworker/internal/crawler"
	"sjsage522/estateworker/logger"
	crawlerrors "sjsage522/estateworker/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS listings (
	id BIGSERIAL PRIMARY KEY,
	source TEXT NOT NULL,
	city TEXT NOT NULL,
	url TEXT NOT NULL,
	title TEXT NOT NULL,
	price TEXT NOT NULL,
	location TEXT NOT NULL,
	area TEXT NOT NULL,
	beds TEXT,
	baths TEXT,
	image TEXT,
	first_seen TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	last_seen TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE (source, city, url)
);

CREATE INDEX IF NOT EXISTS idx_listings_source_city ON listings(source, city);
`

const upsertSQL = `
INSERT INTO listings (source, city, url, title, price, location, area, beds, baths, image)
VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''), NULLIF($9, ''), NULLIF($10, ''))
ON CONFLICT (source, city, url) DO UPDATE SET
	title = EXCLUDED.title,
	price = EXCLUDED.price,
	location = EXCLUDED.location,
	area = EXCLUDED.area,
	beds = EXCLUDED.beds,
	baths = EXCLUDED.baths,
	image = COALESCE(EXCLUDED.image, listings.image),
	last_seen = NOW();
`

// PostgresStore upserts listings keyed by (source, city, url)
type PostgresStore struct {
	pool *pgxpool.Pool
	log  *logger.Logger
}

// NewPostgresStore connects to dsn and verifies the connection
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, crawlerrors.NewStorage("failed to create postgres pool", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, crawlerrors.NewStorage("failed to connect postgres", err)
	}
	return &PostgresStore{pool: pool, log: logger.ForStore()}, nil
}

// Close releases the pool
func (s *PostgresStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates the listings table when missing
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return crawlerrors.NewStorage("failed to ensure schema", err)
	}
	return nil
}

// SaveListings upserts listings in one batch and returns how many were sent
func (s *PostgresStore) SaveListings(ctx context.Context, listings []crawler.Listing) (int, error) {
	batch := &pgx.Batch{}
	for _, l := range listings {
		if strings.TrimSpace(l.URL) == "" || strings.TrimSpace(l.Title) == "" {
			continue
		}
		batch.Queue(upsertSQL,
			string(l.Source), l.City, l.URL, l.Title, l.Price, l.Location, l.Area,
			l.Beds, l.Baths, l.Image,
		)
	}
	if batch.Len() == 0 {
		return 0, nil
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			return i, crawlerrors.NewStorage(fmt.Sprintf("upsert failed at row %d", i), err)
		}
	}

	s.log.Debug().Int("rows", batch.Len()).Msg("Saved listings")
	return batch.Len(), nil
}
