package bootstrap

import (
	"context"
	"log/slog"
)

// Sweep expires pending bookings and open invites whose start has passed.
// It returns how many records of each kind were expired.
func (d *Dependencies) Sweep(ctx context.Context, logger *slog.Logger) (int, int) {
	bookings, err := d.Bookings.ExpireStaleBookings(ctx)
	if err != nil {
		logger.Error("expire bookings", "error", err)
	}
	invites, err := d.Invites.ExpireStaleInvites(ctx)
	if err != nil {
		logger.Error("expire invites", "error", err)
	}
	if len(bookings) > 0 || len(invites) > 0 {
		logger.Info("expired stale requests", "bookings", len(bookings), "invites", len(invites))
	}
	return len(bookings), len(invites)
}
