package telemetry

import "go.opentelemetry.io/otel/attribute"

// Span names.
const (
	SpanSellerCreate    = "sellers.create"
	SpanSellerNearby    = "sellers.nearby"
	SpanSellerReplicate = "sellers.replicate"
	SpanSellerHydrate   = "sellers.hydrate"
)

// Attribute keys.
const (
	AttrSellerID    = attribute.Key("seller.id")
	AttrQueryLon    = attribute.Key("query.lon")
	AttrQueryLat    = attribute.Key("query.lat")
	AttrQueryMaxKm  = attribute.Key("query.max_km")
	AttrResultCount = attribute.Key("query.result_count")
	AttrCacheHit    = attribute.Key("cache.hit")
	AttrEventOrigin = attribute.Key("event.origin")
)
