package main

import (
	"context"
	"log/slog"

	"github.com/yuwankavi/Gas-Project/internal/core/domain"
	"github.com/yuwankavi/Gas-Project/internal/core/ports"
	"github.com/yuwankavi/Gas-Project/internal/core/usecases"
)

// bootstrapIndex subscribes to sellers created on other instances and then
// loads the store. Subscribing first leaves no window in which a seller is
// neither in the loaded rows nor delivered as an event; sellers seen both
// ways are skipped by Replicate and Hydrate. sub may be nil.
func bootstrapIndex(ctx context.Context, sub ports.EventSubscriber, sellers *usecases.SellerService) (loaded int, subscribed bool, err error) {
	if sub != nil {
		err := sub.SubscribeSellerCreated(ctx, func(ctx context.Context, event *domain.SellerEvent) error {
			return sellers.Replicate(ctx, event)
		})
		if err != nil {
			slog.Warn("subscribe seller.created failed", "error", err)
		} else {
			subscribed = true
		}
	}

	loaded, err = sellers.Hydrate(ctx)
	if err != nil {
		return 0, subscribed, err
	}
	return loaded, subscribed, nil
}
