package http

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/nats-io/nats.go"

	natsadapter "github.com/yuwankavi/Gas-Project/internal/adapters/nats"
	"github.com/yuwankavi/Gas-Project/internal/core/domain"
	"github.com/yuwankavi/Gas-Project/internal/pkg/geospatial"
	"github.com/yuwankavi/Gas-Project/internal/pkg/metrics"
)

// watchMessage is pushed to the client for every new seller inside the
// watched radius.
type watchMessage struct {
	Type     string        `json:"type"`
	Seller   domain.Seller `json:"seller"`
	Distance float64       `json:"distance"` // km, 2 decimals
}

// watchFilter decides which new sellers a watch client receives. The
// bounding boxes reject far-away sellers before the haversine check.
type watchFilter struct {
	q     nearbyQuery
	boxes []geospatial.Box
}

func newWatchFilter(q nearbyQuery) watchFilter {
	f := watchFilter{q: q}
	if q.bounded {
		f.boxes = geospatial.BoundingBoxes(q.point.Lat, q.point.Lon, q.maxKm)
	}
	return f
}

// match reports whether an event concerns a seller within the watched
// radius, returning its distance in km.
func (f watchFilter) match(event *domain.SellerEvent) (float64, bool) {
	if event.Type != domain.EventSellerCreated || event.Seller.Location == nil {
		return 0, false
	}
	loc := *event.Seller.Location
	if f.q.bounded && !f.inBoxes(loc) {
		return 0, false
	}
	d := f.q.point.DistanceTo(loc)
	if f.q.bounded && d > f.q.maxKm {
		return 0, false
	}
	return d, true
}

func (f watchFilter) inBoxes(p domain.GeoPoint) bool {
	for _, b := range f.boxes {
		if b.Contains(p.Lat, p.Lon) {
			return true
		}
	}
	return false
}

// WatchSellersHandler streams newly registered sellers near a point.
// Clients connect to /ws/sellers?lng=&lat=&maxDistance= (meters, default 5000).
func WatchSellersHandler(nc *nats.Conn) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		var mu sync.Mutex
		writeJSON := func(v any) error {
			data, err := json.Marshal(v)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			return c.WriteMessage(websocket.TextMessage, data)
		}

		q, err := parseNearbyQuery(c.Query("lng"), c.Query("lat"), c.Query("maxDistance"), false)
		if err != nil {
			_ = writeJSON(map[string]string{"error": domain.MessageOf(err)})
			return
		}

		filter := newWatchFilter(q)
		remoteAddr := c.RemoteAddr().String()
		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()
		slog.Info("ws client connected", "remote", remoteAddr, "point", q.point.String(), "max_km", q.maxKm)

		sub, err := nc.Subscribe(natsadapter.SubjectSellerCreated, func(msg *nats.Msg) {
			var event domain.SellerEvent
			if err := json.Unmarshal(msg.Data, &event); err != nil {
				return
			}
			d, ok := filter.match(&event)
			if !ok {
				return
			}
			_ = writeJSON(watchMessage{
				Type:     event.Type,
				Seller:   event.Seller,
				Distance: geospatial.RoundKm(d),
			})
		})
		if err != nil {
			slog.Error("ws subscribe failed", "error", err)
			_ = writeJSON(map[string]string{"error": "subscribe failed"})
			return
		}
		defer func() { _ = sub.Unsubscribe() }()

		_ = writeJSON(map[string]any{"status": "watching", "max_km": q.maxKm})

		// Keep-alive ping
		done := make(chan struct{})
		defer close(done)
		go func() {
			ticker := time.NewTicker(30 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					mu.Lock()
					err := c.WriteMessage(websocket.PingMessage, nil)
					mu.Unlock()
					if err != nil {
						return
					}
				case <-done:
					return
				}
			}
		}()

		// The feed is one-way; reading only detects the client going away.
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
		slog.Info("ws client disconnected", "remote", remoteAddr)
	}
}
