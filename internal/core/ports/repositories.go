package ports

import (
	"context"

	"github.com/yuwankavi/Gas-Project/internal/core/domain"
)

// SpatialIndex stores sellers and answers radius queries ranked by distance.
type SpatialIndex interface {
	Insert(s domain.Seller) (domain.Seller, error)
	Get(id string) (domain.Seller, bool)
	All() []domain.Seller
	Len() int
	Generation() uint64
	QueryNear(p domain.GeoPoint, maxKm float64) ([]domain.NearbySeller, error)
	QueryNearUnbounded(p domain.GeoPoint) ([]domain.NearbySeller, error)
}

// SellerStore persists sellers durably.
type SellerStore interface {
	Save(ctx context.Context, s *domain.Seller) error
	SaveBatch(ctx context.Context, sellers []domain.Seller) error
	// List returns every persisted seller in insertion order.
	List(ctx context.Context) ([]domain.Seller, error)
}
