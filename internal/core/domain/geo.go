package domain

import (
	"encoding/json"
	"fmt"

	"github.com/yuwankavi/Gas-Project/internal/pkg/geospatial"
)

// GeoPoint represents a geographic coordinate (WGS 84). On the wire it is a
// GeoJSON Point whose coordinates are ordered [lng, lat].
type GeoPoint struct {
	Lon float64
	Lat float64
}

// NewGeoPoint builds a validated point.
func NewGeoPoint(lon, lat float64) (GeoPoint, error) {
	p := GeoPoint{Lon: lon, Lat: lat}
	if err := p.Validate(); err != nil {
		return GeoPoint{}, err
	}
	return p, nil
}

// Validate rejects non-finite or out-of-range coordinates.
func (p GeoPoint) Validate() error {
	if err := geospatial.ValidateCoordinates(p.Lat, p.Lon); err != nil {
		return NewValidationError(err.Error())
	}
	return nil
}

// DistanceTo returns the great-circle distance to q in kilometers.
func (p GeoPoint) DistanceTo(q GeoPoint) float64 {
	return geospatial.Haversine(p.Lat, p.Lon, q.Lat, q.Lon)
}

type geoJSONPoint struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

// MarshalJSON encodes the point as a GeoJSON Point.
func (p GeoPoint) MarshalJSON() ([]byte, error) {
	return json.Marshal(geoJSONPoint{Type: "Point", Coordinates: []float64{p.Lon, p.Lat}})
}

// UnmarshalJSON decodes a GeoJSON Point. Range checks are left to Validate.
func (p *GeoPoint) UnmarshalJSON(data []byte) error {
	var raw geoJSONPoint
	if err := json.Unmarshal(data, &raw); err != nil {
		return NewValidationError(fmt.Sprintf("location: %v", err))
	}
	if raw.Type != "Point" {
		return NewValidationError(fmt.Sprintf("location: type must be \"Point\", got %q", raw.Type))
	}
	if len(raw.Coordinates) != 2 {
		return NewValidationError("location: coordinates must be [lng, lat]")
	}
	p.Lon, p.Lat = raw.Coordinates[0], raw.Coordinates[1]
	return nil
}

func (p GeoPoint) String() string {
	return fmt.Sprintf("(%g, %g)", p.Lon, p.Lat)
}
