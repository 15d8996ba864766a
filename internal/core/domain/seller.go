package domain

import (
	"strings"
	"time"

	"github.com/yuwankavi/Gas-Project/internal/pkg/geospatial"
)

// Seller is a registered point of sale. Records are never updated in place.
type Seller struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	Location  *GeoPoint `json:"location"`
	CreatedAt time.Time `json:"created_at"`
}

// Validate checks the fields a caller must supply.
func (s *Seller) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return NewValidationError("name is required")
	}
	if strings.TrimSpace(s.Address) == "" {
		return NewValidationError("address is required")
	}
	if s.Location == nil {
		return NewValidationError("location is required")
	}
	return s.Location.Validate()
}

// NearbySeller is a query hit: the seller plus its distance from the query point.
type NearbySeller struct {
	Seller
	DistanceKm float64 `json:"distance_km"`
}

// Annotated returns a JSON-ready view carrying the rounded distance.
func (n NearbySeller) Annotated() AnnotatedSeller {
	return AnnotatedSeller{Seller: n.Seller, Distance: geospatial.RoundKm(n.DistanceKm)}
}

// AnnotatedSeller is the wire shape of a distance-annotated result.
type AnnotatedSeller struct {
	Seller
	Distance float64 `json:"distance"`
}

// Sellers strips distances from query hits.
func Sellers(hits []NearbySeller) []Seller {
	out := make([]Seller, len(hits))
	for i := range hits {
		out[i] = hits[i].Seller
	}
	return out
}

// AnnotateAll converts query hits to their annotated form.
func AnnotateAll(hits []NearbySeller) []AnnotatedSeller {
	out := make([]AnnotatedSeller, len(hits))
	for i := range hits {
		out[i] = hits[i].Annotated()
	}
	return out
}
