package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Domenick1991/matchbooking/config"
	"github.com/Domenick1991/matchbooking/internal/cache"
	"github.com/Domenick1991/matchbooking/internal/conflict"
	"github.com/Domenick1991/matchbooking/internal/kafka"
	"github.com/Domenick1991/matchbooking/internal/repository"
	"github.com/Domenick1991/matchbooking/internal/service/availability"
	"github.com/Domenick1991/matchbooking/internal/service/booking"
	"github.com/Domenick1991/matchbooking/internal/service/invite"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Dependencies holds the wired services shared by the API server and the
// worker.
type Dependencies struct {
	Availability *availability.AvailabilityService
	Bookings     *booking.BookingService
	Invites      *invite.InviteService

	closers []func()
}

// Close releases every connection in reverse order of creation.
func (d *Dependencies) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
}

type repositories struct {
	windows  repository.AvailabilityRepository
	claims   repository.ClaimRepository
	bookings repository.BookingRepository
	invites  repository.InviteRepository
}

func NewDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	deps := &Dependencies{}

	repos, err := deps.openStorage(ctx, cfg, logger)
	if err != nil {
		deps.Close()
		return nil, err
	}
	detector := conflict.NewDetector(repos.claims, repos.windows)

	availabilityOpts := []availability.AvailabilityServiceOption{
		availability.WithUnit(cfg.Booking.Unit()),
		availability.WithLogger(logger),
	}
	bookingOpts := []booking.BookingServiceOption{
		booking.WithMaxReschedules(cfg.Booking.MaxReschedules),
		booking.WithBatchConcurrency(cfg.Booking.BatchConcurrency),
		booking.WithLogger(logger),
	}
	inviteOpts := []invite.InviteServiceOption{
		invite.WithMaxReschedules(cfg.Booking.InviteMaxReschedules),
		invite.WithLogger(logger),
	}

	if cfg.Redis.Enabled() {
		redisCache := cache.NewRedisCache(cfg.Redis, cfg.Booking.AvailabilityCacheTTL())
		if err := redisCache.Ping(ctx); err != nil {
			logger.Warn("redis unavailable, continuing without cache", "addr", cfg.Redis.Addr, "error", err)
			_ = redisCache.Close()
		} else {
			deps.closers = append(deps.closers, func() { _ = redisCache.Close() })
			availabilityOpts = append(availabilityOpts, availability.WithCache(redisCache))
			bookingOpts = append(bookingOpts, booking.WithClaimLocker(redisCache, cfg.Booking.ClaimLockTTL()))
		}
	}

	if cfg.Kafka.Enabled() {
		producer := kafka.NewProducer(cfg.Kafka.Brokers, logger)
		deps.closers = append(deps.closers, func() { _ = producer.Close() })
		if err := producer.CheckConnection(ctx); err != nil {
			logger.Warn("kafka unreachable, events will be retried per write", "brokers", cfg.Kafka.Brokers, "error", err)
		}
		bookingOpts = append(bookingOpts,
			booking.WithProducer(producer, cfg.Kafka.EventsTopic),
			booking.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
		)
		inviteOpts = append(inviteOpts,
			invite.WithProducer(producer, cfg.Kafka.EventsTopic),
			invite.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
		)
	}

	deps.Availability = availability.NewAvailabilityService(repos.windows, detector, availabilityOpts...)
	deps.Bookings = booking.NewBookingService(repos.bookings, repos.windows, detector, bookingOpts...)
	deps.Invites = invite.NewInviteService(repos.invites, detector, inviteOpts...)
	return deps, nil
}

func (d *Dependencies) openStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (repositories, error) {
	if cfg.Storage.Driver == config.StorageDriverMemory {
		logger.Warn("using in-memory storage, data is lost on restart")
		store := repository.NewMemoryStore()
		return repositories{
			windows:  store.Availability(),
			claims:   store,
			bookings: store.Bookings(),
			invites:  store.Invites(),
		}, nil
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.Database.DSN())
	if err != nil {
		return repositories{}, fmt.Errorf("parse database config: %w", err)
	}
	if cfg.Database.MaxConns > 0 {
		poolCfg.MaxConns = cfg.Database.MaxConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return repositories{}, fmt.Errorf("connect postgres: %w", err)
	}
	d.closers = append(d.closers, pool.Close)
	if err := pool.Ping(ctx); err != nil {
		return repositories{}, fmt.Errorf("ping postgres: %w", err)
	}
	return repositories{
		windows:  repository.NewAvailabilityRepository(pool),
		claims:   repository.NewClaimRepository(pool),
		bookings: repository.NewBookingRepository(pool),
		invites:  repository.NewInviteRepository(pool),
	}, nil
}
