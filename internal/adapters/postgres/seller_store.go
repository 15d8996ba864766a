package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/yuwankavi/Gas-Project/internal/core/domain"
)

const uniqueViolation = "23505"

// SellerStore implements ports.SellerStore on a PostGIS table.
type SellerStore struct {
	db *DB
}

// NewSellerStore creates a new SellerStore.
func NewSellerStore(db *DB) *SellerStore {
	return &SellerStore{db: db}
}

const insertSeller = `
	INSERT INTO sellers (id, name, address, location, created_at)
	VALUES ($1, $2, $3, ST_SetSRID(ST_MakePoint($4, $5), 4326)::geography, $6)
`

// Save inserts a single seller. A duplicate ID is reported as a conflict.
func (s *SellerStore) Save(ctx context.Context, seller *domain.Seller) error {
	if seller.Location == nil {
		return domain.NewValidationError("location is required")
	}
	_, err := s.db.Pool.Exec(ctx, insertSeller,
		seller.ID, seller.Name, seller.Address,
		seller.Location.Lon, seller.Location.Lat, seller.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.NewConflictError("seller " + seller.ID + " already exists")
		}
		return fmt.Errorf("insert seller: %w", err)
	}
	return nil
}

// SaveBatch inserts many sellers using pgx.Batch. Rows whose ID already
// exists are skipped.
func (s *SellerStore) SaveBatch(ctx context.Context, sellers []domain.Seller) error {
	batch := &pgx.Batch{}
	for _, seller := range sellers {
		if seller.Location == nil {
			return domain.NewValidationError("location is required for seller " + seller.ID)
		}
		batch.Queue(insertSeller+` ON CONFLICT (id) DO NOTHING`,
			seller.ID, seller.Name, seller.Address,
			seller.Location.Lon, seller.Location.Lat, seller.CreatedAt)
	}
	br := s.db.Pool.SendBatch(ctx, batch)
	defer br.Close()
	for range sellers {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("batch exec: %w", err)
		}
	}
	return nil
}

// List returns every seller in insertion order.
func (s *SellerStore) List(ctx context.Context) ([]domain.Seller, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT id::text, name, address,
		       ST_X(location::geometry) AS lon,
		       ST_Y(location::geometry) AS lat,
		       created_at
		FROM sellers
		ORDER BY seq
	`)
	if err != nil {
		return nil, fmt.Errorf("query sellers: %w", err)
	}
	defer rows.Close()

	var sellers []domain.Seller
	for rows.Next() {
		var (
			seller domain.Seller
			loc    domain.GeoPoint
		)
		if err := rows.Scan(&seller.ID, &seller.Name, &seller.Address, &loc.Lon, &loc.Lat, &seller.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan seller: %w", err)
		}
		seller.Location = &loc
		sellers = append(sellers, seller)
	}
	return sellers, rows.Err()
}
