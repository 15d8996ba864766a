package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/codes"

	"github.com/yuwankavi/Gas-Project/internal/core/domain"
	"github.com/yuwankavi/Gas-Project/internal/core/ports"
	"github.com/yuwankavi/Gas-Project/internal/pkg/metrics"
	"github.com/yuwankavi/Gas-Project/internal/pkg/telemetry"
)

// DefaultCacheTTL is used when NewSellerService is given a non-positive TTL.
const DefaultCacheTTL = 60

// SellerService handles seller registration and proximity lookups.
type SellerService struct {
	index    ports.SpatialIndex
	store    ports.SellerStore    // optional
	cache    ports.CacheService   // optional
	events   ports.EventPublisher // optional
	origin   string
	cacheTTL int
}

// NewSellerService creates a new SellerService. store, cache and events may
// be nil. origin identifies this instance in published events.
func NewSellerService(
	index ports.SpatialIndex,
	store ports.SellerStore,
	cache ports.CacheService,
	events ports.EventPublisher,
	origin string,
	cacheTTL int,
) *SellerService {
	if cacheTTL <= 0 {
		cacheTTL = DefaultCacheTTL
	}
	return &SellerService{
		index:    index,
		store:    store,
		cache:    cache,
		events:   events,
		origin:   origin,
		cacheTTL: cacheTTL,
	}
}

// Origin returns the instance identifier stamped on published events.
func (s *SellerService) Origin() string { return s.origin }

// Create validates, persists and indexes a new seller, then announces it.
// Any ID or creation time supplied by the caller is replaced.
func (s *SellerService) Create(ctx context.Context, in domain.Seller) (domain.Seller, error) {
	ctx, span := telemetry.StartSpan(ctx, telemetry.SpanSellerCreate)
	defer span.End()

	if err := in.Validate(); err != nil {
		span.SetStatus(codes.Error, "invalid seller")
		return domain.Seller{}, err
	}
	in.ID = uuid.NewString()
	in.CreatedAt = time.Now().UTC()
	span.SetAttributes(telemetry.AttrSellerID.String(in.ID))

	if s.store != nil {
		if err := s.store.Save(ctx, &in); err != nil {
			telemetry.RecordError(span, err)
			if domain.TypeOf(err) != domain.ErrorTypeInternal {
				return domain.Seller{}, err
			}
			return domain.Seller{}, domain.NewInternalError("persist seller", err)
		}
	}

	stored, err := s.index.Insert(in)
	if err != nil {
		telemetry.RecordError(span, err)
		return domain.Seller{}, err
	}
	metrics.SellersCreated.WithLabelValues("api").Inc()
	metrics.SellersIndexed.Set(float64(s.index.Len()))

	if s.events != nil {
		if err := s.events.PublishSellerCreated(ctx, domain.NewSellerCreated(s.origin, stored)); err != nil {
			metrics.EventsPublished.WithLabelValues("error").Inc()
			slog.Warn("publish seller.created failed", "seller_id", stored.ID, "error", err)
		} else {
			metrics.EventsPublished.WithLabelValues("ok").Inc()
		}
	}

	return stored, nil
}

// Nearby returns sellers within maxKm of p, nearest first.
func (s *SellerService) Nearby(ctx context.Context, p domain.GeoPoint, maxKm float64) ([]domain.NearbySeller, error) {
	return s.nearby(ctx, p, maxKm, "bounded")
}

// NearbyUnbounded ranks every seller by distance from p.
func (s *SellerService) NearbyUnbounded(ctx context.Context, p domain.GeoPoint) ([]domain.NearbySeller, error) {
	return s.nearby(ctx, p, math.Inf(1), "unbounded")
}

func (s *SellerService) nearby(ctx context.Context, p domain.GeoPoint, maxKm float64, mode string) ([]domain.NearbySeller, error) {
	ctx, span := telemetry.StartSpan(ctx, telemetry.SpanSellerNearby)
	defer span.End()
	span.SetAttributes(
		telemetry.AttrQueryLon.Float64(p.Lon),
		telemetry.AttrQueryLat.Float64(p.Lat),
		telemetry.AttrQueryMaxKm.Float64(maxKm),
	)

	if err := p.Validate(); err != nil {
		return nil, err
	}
	if math.IsNaN(maxKm) || maxKm < 0 {
		return nil, domain.NewValidationError("maxDistance must be a non-negative number")
	}

	// The cache is shared between instances but generations are local, so
	// entries are scoped to this instance's origin. The generation changes on
	// every insert, so stale entries are never read.
	cacheKey := nearbyCacheKey(s.origin, s.index.Generation(), p, maxKm)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var hits []domain.NearbySeller
			if err := json.Unmarshal(data, &hits); err == nil {
				metrics.CacheHits.WithLabelValues("nearby").Inc()
				span.SetAttributes(telemetry.AttrCacheHit.Bool(true), telemetry.AttrResultCount.Int(len(hits)))
				return hits, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("nearby").Inc()
	}

	start := time.Now()
	hits, err := s.index.QueryNear(p, maxKm)
	metrics.NearbyQueryDuration.WithLabelValues(mode).Observe(time.Since(start).Seconds())
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	metrics.NearbyResultSize.WithLabelValues(mode).Observe(float64(len(hits)))
	span.SetAttributes(telemetry.AttrCacheHit.Bool(false), telemetry.AttrResultCount.Int(len(hits)))

	if s.cache != nil {
		if data, err := json.Marshal(hits); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, s.cacheTTL)
		}
	}

	return hits, nil
}

func nearbyCacheKey(origin string, generation uint64, p domain.GeoPoint, maxKm float64) string {
	return fmt.Sprintf("sellers:nearby:%s:%d:%s:%s:%s", origin, generation,
		strconv.FormatFloat(p.Lon, 'g', -1, 64),
		strconv.FormatFloat(p.Lat, 'g', -1, 64),
		strconv.FormatFloat(maxKm, 'g', -1, 64))
}

// GetByID returns a single seller.
func (s *SellerService) GetByID(ctx context.Context, id string) (domain.Seller, error) {
	seller, ok := s.index.Get(id)
	if !ok {
		return domain.Seller{}, domain.NewNotFoundError("seller not found")
	}
	return seller, nil
}

// List returns every seller in insertion order.
func (s *SellerService) List(ctx context.Context) []domain.Seller {
	return s.index.All()
}

// Count returns the number of indexed sellers.
func (s *SellerService) Count() int {
	return s.index.Len()
}

// Hydrate loads every persisted seller into the index. It is meant to run
// once at start-up, before the server accepts traffic.
func (s *SellerService) Hydrate(ctx context.Context) (int, error) {
	if s.store == nil {
		return 0, nil
	}
	ctx, span := telemetry.StartSpan(ctx, telemetry.SpanSellerHydrate)
	defer span.End()

	sellers, err := s.store.List(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		return 0, fmt.Errorf("load sellers: %w", err)
	}

	loaded := 0
	for _, seller := range sellers {
		if _, err := s.index.Insert(seller); err != nil {
			if domain.IsConflict(err) {
				continue
			}
			slog.Warn("skipping persisted seller", "seller_id", seller.ID, "error", err)
			continue
		}
		loaded++
	}
	metrics.SellersCreated.WithLabelValues("hydrate").Add(float64(loaded))
	metrics.SellersIndexed.Set(float64(s.index.Len()))
	span.SetAttributes(telemetry.AttrResultCount.Int(loaded))

	return loaded, nil
}

// Replicate applies a seller.created event published by another instance.
// Events from this instance and sellers already indexed are ignored.
func (s *SellerService) Replicate(ctx context.Context, event *domain.SellerEvent) error {
	_, span := telemetry.StartSpan(ctx, telemetry.SpanSellerReplicate)
	defer span.End()
	span.SetAttributes(
		telemetry.AttrEventOrigin.String(event.Origin),
		telemetry.AttrSellerID.String(event.Seller.ID),
	)

	if event.Type != domain.EventSellerCreated || event.Origin == s.origin {
		metrics.EventsReplicated.WithLabelValues("skipped").Inc()
		return nil
	}
	if _, known := s.index.Get(event.Seller.ID); known {
		metrics.EventsReplicated.WithLabelValues("skipped").Inc()
		return nil
	}

	if _, err := s.index.Insert(event.Seller); err != nil {
		if domain.IsConflict(err) {
			metrics.EventsReplicated.WithLabelValues("skipped").Inc()
			return nil
		}
		metrics.EventsReplicated.WithLabelValues("failed").Inc()
		telemetry.RecordError(span, err)
		return fmt.Errorf("replicate seller %s: %w", event.Seller.ID, err)
	}

	metrics.EventsReplicated.WithLabelValues("applied").Inc()
	metrics.SellersCreated.WithLabelValues("replica").Inc()
	metrics.SellersIndexed.Set(float64(s.index.Len()))
	return nil
}
