package geospatial

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomPoint(r *rand.Rand) (lat, lon float64) {
	return r.Float64()*180 - 90, r.Float64()*360 - 180
}

func TestHaversine_Identity(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 1000; i++ {
		lat, lon := randomPoint(r)
		assert.Equal(t, 0.0, Haversine(lat, lon, lat, lon))
	}
}

func TestHaversine_Symmetry(t *testing.T) {
	r := rand.New(rand.NewSource(2))
	for i := 0; i < 1000; i++ {
		lat1, lon1 := randomPoint(r)
		lat2, lon2 := randomPoint(r)
		assert.InDelta(t, Haversine(lat1, lon1, lat2, lon2), Haversine(lat2, lon2, lat1, lon1), 1e-9)
	}
}

func TestHaversine_TriangleInequality(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	for i := 0; i < 1000; i++ {
		lat1, lon1 := randomPoint(r)
		lat2, lon2 := randomPoint(r)
		lat3, lon3 := randomPoint(r)

		d13 := Haversine(lat1, lon1, lat3, lon3)
		d12 := Haversine(lat1, lon1, lat2, lon2)
		d23 := Haversine(lat2, lon2, lat3, lon3)
		assert.LessOrEqual(t, d13, d12+d23+1e-6)
	}
}

func TestHaversine_KnownDistances(t *testing.T) {
	testCases := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		expected               float64
		delta                  float64
	}{
		{"one degree of latitude", 0, 0, 1, 0, 111.19, 0.01},
		{"one degree of longitude at equator", 0, 0, 0, 1, 111.19, 0.01},
		{"quarter meridian", 0, 0, 90, 0, math.Pi / 2 * EarthRadiusKm, 1e-6},
		{"antipodes", 0, 0, 0, 180, math.Pi * EarthRadiusKm, 1e-6},
		{"across the antimeridian", 0, 179.5, 0, -179.5, 111.19, 0.01},
		{"London to Paris", 51.5074, -0.1278, 48.8566, 2.3522, 343.5, 1.0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			d := Haversine(tc.lat1, tc.lon1, tc.lat2, tc.lon2)
			assert.InDelta(t, tc.expected, d, tc.delta)
			assert.GreaterOrEqual(t, d, 0.0)
		})
	}
}

func TestValidateCoordinates(t *testing.T) {
	require.NoError(t, ValidateCoordinates(0, 0))
	require.NoError(t, ValidateCoordinates(-90, -180))
	require.NoError(t, ValidateCoordinates(90, 180))

	assert.Error(t, ValidateCoordinates(90.0001, 0))
	assert.Error(t, ValidateCoordinates(0, -180.5))
	assert.Error(t, ValidateCoordinates(math.NaN(), 0))
	assert.Error(t, ValidateCoordinates(0, math.Inf(1)))
}

func TestRoundKm(t *testing.T) {
	assert.Equal(t, 111.19, RoundKm(111.19492664455873))
	assert.Equal(t, 0.0, RoundKm(0.004))
}

func TestBoundingBoxes_ContainCircle(t *testing.T) {
	r := rand.New(rand.NewSource(4))
	centers := [][2]float64{
		{0, 0},
		{0, 179.9},   // antimeridian, east side
		{10, -179.9}, // antimeridian, west side
		{89.5, 30},   // near north pole
		{-89.9, -70}, // near south pole
	}
	radii := []float64{0, 1, 50, 500, 5000}

	for _, c := range centers {
		for _, radius := range radii {
			boxes := BoundingBoxes(c[0], c[1], radius)
			require.NotEmpty(t, boxes)

			for i := 0; i < 2000; i++ {
				lat, lon := randomPoint(r)
				if Haversine(c[0], c[1], lat, lon) > radius {
					continue
				}
				inside := false
				for _, b := range boxes {
					if b.Contains(lat, lon) {
						inside = true
						break
					}
				}
				assert.True(t, inside, "point (%f,%f) within %.0f km of %v not covered", lat, lon, radius, c)
			}
		}
	}
}

func TestBoundingBoxes_SplitsAtAntimeridian(t *testing.T) {
	boxes := BoundingBoxes(0, 179.9, 100)
	require.Len(t, boxes, 2)
	for _, b := range boxes {
		assert.LessOrEqual(t, b.MinLon, b.MaxLon)
		assert.GreaterOrEqual(t, b.MinLon, -180.0)
		assert.LessOrEqual(t, b.MaxLon, 180.0)
	}
}

func TestBoundingBoxes_Edges(t *testing.T) {
	assert.Nil(t, BoundingBoxes(0, 0, -1))
	assert.Equal(t, []Box{World}, BoundingBoxes(0, 0, math.Inf(1)))
	assert.Equal(t, []Box{World}, BoundingBoxes(0, 0, 20000))

	polar := BoundingBoxes(89.9, 0, 50)
	require.Len(t, polar, 1)
	assert.Equal(t, -180.0, polar[0].MinLon)
	assert.Equal(t, 180.0, polar[0].MaxLon)
}
