// Package loader bulk-upserts harvested rows into the hosted Postgres
// store. Every upsert is keyed by the deterministic record id, so re-running
// the loader over the same rows directory is idempotent. The embedding
// column on menu_items is populated by a separate downstream process.
package loader

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/platewise/menuharvest/internal/menu"
	"github.com/platewise/menuharvest/internal/rows"
	"github.com/platewise/menuharvest/internal/venue"
)

// Config controls the Postgres connection pool.
type Config struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type execCloser interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Close()
}

// Store writes harvest rows into Postgres.
type Store struct {
	pool   execCloser
	logger *zap.Logger
}

// New connects a pool using the provided config.
func New(ctx context.Context, cfg Config, logger *zap.Logger) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("loader.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &Store{pool: pool, logger: logger}, nil
}

// NewWithPool constructs a store from an existing pool, primarily for tests.
func NewWithPool(pool execCloser, logger *zap.Logger) *Store {
	return &Store{pool: pool, logger: logger}
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

const upsertRestaurantSQL = `
INSERT INTO restaurants (id, name, lat, lng, website, phone, rating, review_count, price_level, discovery_id, directory_id)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (id) DO UPDATE SET
	name = EXCLUDED.name,
	lat = EXCLUDED.lat,
	lng = EXCLUDED.lng,
	website = EXCLUDED.website,
	phone = EXCLUDED.phone,
	rating = EXCLUDED.rating,
	review_count = EXCLUDED.review_count,
	price_level = EXCLUDED.price_level,
	discovery_id = EXCLUDED.discovery_id,
	directory_id = EXCLUDED.directory_id`

const upsertMenuSQL = `
INSERT INTO menus (id, restaurant_id, url, source, raw_snapshot_path)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id) DO UPDATE SET
	restaurant_id = EXCLUDED.restaurant_id,
	url = EXCLUDED.url,
	source = EXCLUDED.source,
	raw_snapshot_path = EXCLUDED.raw_snapshot_path`

const upsertItemSQL = `
INSERT INTO menu_items (id, menu_id, name, description, price, tags, confidence)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (id) DO UPDATE SET
	menu_id = EXCLUDED.menu_id,
	name = EXCLUDED.name,
	description = EXCLUDED.description,
	price = EXCLUDED.price,
	tags = EXCLUDED.tags,
	confidence = EXCLUDED.confidence`

// UpsertRestaurants writes restaurant rows keyed by id.
func (s *Store) UpsertRestaurants(ctx context.Context, venues []venue.Venue) error {
	for _, v := range venues {
		if _, err := s.pool.Exec(ctx, upsertRestaurantSQL,
			v.ID, v.Name, v.Lat, v.Lng,
			nullable(v.Website), nullable(v.Phone),
			v.Rating, v.ReviewCount, v.PriceLevel,
			nullable(v.Source.DiscoveryID), nullable(v.Source.DirectoryID),
		); err != nil {
			return fmt.Errorf("upsert restaurant %s: %w", v.ID, err)
		}
	}
	return nil
}

// UpsertMenus writes menu rows keyed by id.
func (s *Store) UpsertMenus(ctx context.Context, menus []menu.Menu) error {
	for _, m := range menus {
		if _, err := s.pool.Exec(ctx, upsertMenuSQL,
			m.ID, m.RestaurantID, m.URL, m.Source, nullable(m.RawSnapshotPath),
		); err != nil {
			return fmt.Errorf("upsert menu %s: %w", m.ID, err)
		}
	}
	return nil
}

// UpsertItems writes menu-item rows keyed by id.
func (s *Store) UpsertItems(ctx context.Context, items []menu.Item) error {
	for _, item := range items {
		if _, err := s.pool.Exec(ctx, upsertItemSQL,
			item.ID, item.MenuID, item.Name,
			nullable(item.Description), item.Price, item.Tags, item.Confidence,
		); err != nil {
			return fmt.Errorf("upsert menu item %s: %w", item.ID, err)
		}
	}
	return nil
}

// Counts summarizes one load.
type Counts struct {
	Restaurants int
	Menus       int
	Items       int
}

// LoadDir reads the rows files produced by a harvest and upserts everything.
func (s *Store) LoadDir(ctx context.Context, dir string) (Counts, error) {
	restaurants, err := rows.ReadRestaurants(dir)
	if err != nil {
		return Counts{}, err
	}
	menus, err := rows.ReadMenus(dir)
	if err != nil {
		return Counts{}, err
	}
	items, err := rows.ReadItems(dir)
	if err != nil {
		return Counts{}, err
	}

	if err := s.UpsertRestaurants(ctx, restaurants); err != nil {
		return Counts{}, err
	}
	if err := s.UpsertMenus(ctx, menus); err != nil {
		return Counts{}, err
	}
	if err := s.UpsertItems(ctx, items); err != nil {
		return Counts{}, err
	}

	counts := Counts{Restaurants: len(restaurants), Menus: len(menus), Items: len(items)}
	s.logger.Info("Load finished",
		zap.Int("restaurants", counts.Restaurants),
		zap.Int("menus", counts.Menus),
		zap.Int("items", counts.Items),
	)
	return counts, nil
}

// nullable maps empty strings to NULL so optional columns stay unset.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
