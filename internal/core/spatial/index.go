// Package spatial holds the in-memory seller index and its nearest-neighbour
// query engine. Candidates are gathered from an R-tree over (lon, lat) and
// then filtered and ranked by exact haversine distance.
package spatial

import (
	"cmp"
	"math"
	"slices"
	"sync"
	"time"

	"github.com/dhconnelly/rtreego"
	"github.com/google/uuid"

	"github.com/yuwankavi/Gas-Project/internal/core/domain"
	"github.com/yuwankavi/Gas-Project/internal/pkg/geospatial"
)

const (
	tolerance   = 1e-7 // degrees, keeps point rects non-degenerate
	minChildren = 25
	maxChildren = 50
	dimensions  = 2
)

// entry wraps a seller for R-tree indexing.
type entry struct {
	seller domain.Seller
	seq    uint64
	rect   rtreego.Rect
}

func (e *entry) Bounds() rtreego.Rect {
	return e.rect
}

// Index is a thread-safe seller registry with radius queries. The zero value
// is not usable; call New.
type Index struct {
	mu      sync.RWMutex
	tree    *rtreego.Rtree
	entries []*entry // insertion order
	byID    map[string]*entry
	nextSeq uint64
}

// New creates an empty index.
func New() *Index {
	return &Index{
		tree: rtreego.NewTree(dimensions, minChildren, maxChildren),
		byID: make(map[string]*entry),
	}
}

// Insert validates and stores a seller, assigning an ID and creation time
// when they are unset. The stored copy is returned.
func (idx *Index) Insert(s domain.Seller) (domain.Seller, error) {
	if err := s.Validate(); err != nil {
		return domain.Seller{}, err
	}
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	loc := *s.Location
	s.Location = &loc

	e := &entry{
		seller: s,
		rect:   rtreego.Point{loc.Lon, loc.Lat}.ToRect(tolerance),
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	if _, exists := idx.byID[s.ID]; exists {
		return domain.Seller{}, domain.NewConflictError("seller " + s.ID + " already exists")
	}
	e.seq = idx.nextSeq
	idx.nextSeq++
	idx.entries = append(idx.entries, e)
	idx.byID[s.ID] = e
	idx.tree.Insert(e)

	return s, nil
}

// Get returns the seller with the given ID.
func (idx *Index) Get(id string) (domain.Seller, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	e, ok := idx.byID[id]
	if !ok {
		return domain.Seller{}, false
	}
	return e.seller, true
}

// All returns every seller in insertion order.
func (idx *Index) All() []domain.Seller {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	out := make([]domain.Seller, len(idx.entries))
	for i, e := range idx.entries {
		out[i] = e.seller
	}
	return out
}

// Len returns the number of stored sellers.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.entries)
}

// Generation increases with every successful insert. Two reads returning the
// same generation observed the same contents.
func (idx *Index) Generation() uint64 {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.nextSeq
}

// QueryNear returns every seller within maxKm of p, nearest first. Ties keep
// insertion order. A maxKm of +Inf matches everything.
func (idx *Index) QueryNear(p domain.GeoPoint, maxKm float64) ([]domain.NearbySeller, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if math.IsNaN(maxKm) || maxKm < 0 {
		return nil, domain.NewValidationError("maxDistance must be a non-negative number")
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return rank(p, maxKm, idx.candidates(p, maxKm)), nil
}

// QueryNearUnbounded ranks every stored seller by distance from p.
func (idx *Index) QueryNearUnbounded(p domain.GeoPoint) ([]domain.NearbySeller, error) {
	return idx.QueryNear(p, math.Inf(1))
}

// candidates must be called with the read lock held.
func (idx *Index) candidates(p domain.GeoPoint, maxKm float64) []*entry {
	boxes := geospatial.BoundingBoxes(p.Lat, p.Lon, maxKm)
	if len(boxes) == 0 || boxes[0] == geospatial.World {
		return idx.entries
	}

	var out []*entry
	seen := make(map[uint64]struct{})
	for _, b := range boxes {
		rect, err := rtreego.NewRectFromPoints(
			rtreego.Point{b.MinLon - tolerance, b.MinLat - tolerance},
			rtreego.Point{b.MaxLon + tolerance, b.MaxLat + tolerance},
		)
		if err != nil {
			// Only a dimension mismatch fails here; fall back to a scan.
			return idx.entries
		}
		for _, hit := range idx.tree.SearchIntersect(rect) {
			e := hit.(*entry)
			if _, dup := seen[e.seq]; dup {
				continue
			}
			seen[e.seq] = struct{}{}
			out = append(out, e)
		}
	}
	return out
}

func rank(p domain.GeoPoint, maxKm float64, candidates []*entry) []domain.NearbySeller {
	type scored struct {
		e *entry
		d float64
	}
	hits := make([]scored, 0, len(candidates))
	for _, e := range candidates {
		d := p.DistanceTo(*e.seller.Location)
		if d <= maxKm {
			hits = append(hits, scored{e, d})
		}
	}
	slices.SortFunc(hits, func(a, b scored) int {
		if c := cmp.Compare(a.d, b.d); c != 0 {
			return c
		}
		return cmp.Compare(a.e.seq, b.e.seq)
	})

	out := make([]domain.NearbySeller, len(hits))
	for i, h := range hits {
		out[i] = domain.NearbySeller{Seller: h.e.seller, DistanceKm: h.d}
	}
	return out
}
