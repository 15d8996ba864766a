package domain

import "time"

// EventSellerCreated is emitted once per successfully registered seller.
const EventSellerCreated = "seller.created"

// SellerEvent is broadcast to other instances and to watch-feed clients.
type SellerEvent struct {
	Type   string    `json:"type"`
	Origin string    `json:"origin"` // instance that accepted the write
	Seller Seller    `json:"seller"`
	Time   time.Time `json:"time"`
}

// NewSellerCreated builds the event for a freshly stored seller.
func NewSellerCreated(origin string, s Seller) *SellerEvent {
	return &SellerEvent{
		Type:   EventSellerCreated,
		Origin: origin,
		Seller: s,
		Time:   time.Now().UTC(),
	}
}
