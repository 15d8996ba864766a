package http

import (
	"testing"

	"github.com/yuwankavi/Gas-Project/internal/core/domain"
)

func TestWatchFilter_Match(t *testing.T) {
	q, err := parseNearbyQuery("0", "0", "50000", false)
	if err != nil {
		t.Fatal(err)
	}

	f := newWatchFilter(q)
	near := domain.GeoPoint{Lon: 0.1, Lat: 0}
	far := domain.GeoPoint{Lon: 1, Lat: 0}

	testCases := []struct {
		name  string
		event domain.SellerEvent
		want  bool
	}{
		{"inside radius", domain.SellerEvent{Type: domain.EventSellerCreated, Seller: domain.Seller{Location: &near}}, true},
		{"outside radius", domain.SellerEvent{Type: domain.EventSellerCreated, Seller: domain.Seller{Location: &far}}, false},
		{"other event type", domain.SellerEvent{Type: "seller.deleted", Seller: domain.Seller{Location: &near}}, false},
		{"no location", domain.SellerEvent{Type: domain.EventSellerCreated}, false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			d, ok := f.match(&tc.event)
			if ok != tc.want {
				t.Fatalf("expected match=%v, got %v (d=%.2f)", tc.want, ok, d)
			}
			if ok && (d < 11 || d > 11.2) {
				t.Errorf("expected ~11.12 km, got %.3f", d)
			}
		})
	}
}

func TestWatchFilter_AcrossAntimeridian(t *testing.T) {
	q, err := parseNearbyQuery("179.95", "0", "20000", false)
	if err != nil {
		t.Fatal(err)
	}
	f := newWatchFilter(q)
	if len(f.boxes) != 2 {
		t.Fatalf("expected the watch area split in two boxes, got %d", len(f.boxes))
	}

	east := domain.GeoPoint{Lon: -179.95, Lat: 0} // ~11 km across the line
	west := domain.GeoPoint{Lon: 179.5, Lat: 0}   // ~50 km away
	ev := func(p domain.GeoPoint) *domain.SellerEvent {
		return &domain.SellerEvent{Type: domain.EventSellerCreated, Seller: domain.Seller{Location: &p}}
	}
	if _, ok := f.match(ev(east)); !ok {
		t.Error("expected seller across the antimeridian to match")
	}
	if _, ok := f.match(ev(west)); ok {
		t.Error("expected seller outside the radius to be rejected")
	}
}

func TestParseNearbyQuery_Defaults(t *testing.T) {
	q, err := parseNearbyQuery("13.4", "52.5", "", false)
	if err != nil {
		t.Fatal(err)
	}
	if !q.bounded || q.maxKm != 5 {
		t.Errorf("expected bounded 5 km default, got %+v", q)
	}

	q, err = parseNearbyQuery("13.4", "52.5", "", true)
	if err != nil {
		t.Fatal(err)
	}
	if q.bounded {
		t.Errorf("expected unbounded query, got %+v", q)
	}

	q, err = parseNearbyQuery("0", "0", "1500.5", false)
	if err != nil {
		t.Fatal(err)
	}
	if q.maxKm < 1.5004 || q.maxKm > 1.5006 {
		t.Errorf("expected 1.5005 km, got %v", q.maxKm)
	}
}
