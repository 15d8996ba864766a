package http

import (
	"time"

	"github.com/nats-io/nats.go"

	"github.com/yuwankavi/Gas-Project/internal/adapters/postgres"
	"github.com/yuwankavi/Gas-Project/internal/adapters/valkey"
	"github.com/yuwankavi/Gas-Project/internal/core/usecases"
)

const defaultRequestTimeout = 15 * time.Second

// Dependencies holds all services needed by HTTP handlers. Only Sellers is
// required; the rest are nil when the matching backend is not configured.
type Dependencies struct {
	Sellers *usecases.SellerService
	NATS    *nats.Conn
	DB      *postgres.DB
	Cache   *valkey.Cache

	RequestTimeout time.Duration
	RateLimit      int    // requests per minute per IP, 0 disables
	DocsSpecPath   string // defaults to api/openapi.yaml
}

func (d *Dependencies) requestTimeout() time.Duration {
	if d.RequestTimeout <= 0 {
		return defaultRequestTimeout
	}
	return d.RequestTimeout
}
