package availability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Domenick1991/matchbooking/internal/domain"
	"github.com/Domenick1991/matchbooking/internal/logging"
	"github.com/Domenick1991/matchbooking/internal/repository"
	"github.com/Domenick1991/matchbooking/internal/slots"
	"github.com/Domenick1991/matchbooking/internal/timeutil"
	"github.com/Domenick1991/matchbooking/internal/validation"
	"github.com/google/uuid"
)

const (
	entityAvailability = "availability"
	// MaxRangeDays bounds a single listing query.
	MaxRangeDays = 62
)

type AvailabilityUseCase interface {
	CreateWindow(ctx context.Context, ownerID string, input WindowInput) (*domain.AvailabilityWindow, error)
	UpdateWindow(ctx context.Context, ownerID, id string, input WindowInput) (*domain.AvailabilityWindow, error)
	DeleteWindow(ctx context.Context, ownerID, id string) error
	ListAvailability(ctx context.Context, viewerID, ownerID string, from, to timeutil.Date) ([]domain.AvailabilityWindow, error)
	AvailableUnits(ctx context.Context, viewerID, ownerID string, from, to timeutil.Date, viewerZone string) ([]slots.LocalUnit, error)
}

// Cache stores raw window listings per owner and date range.
type Cache interface {
	GetAvailability(ctx context.Context, ownerID string, from, to timeutil.Date) ([]domain.AvailabilityWindow, error)
	SetAvailability(ctx context.Context, ownerID string, from, to timeutil.Date, windows []domain.AvailabilityWindow) error
	InvalidateAvailability(ctx context.Context, ownerID string) error
}

// RelationshipChecker decides whether viewer may see owner's private windows.
type RelationshipChecker interface {
	CanViewPrivate(ctx context.Context, viewerID, ownerID string) (bool, error)
}

// BookedChecker is satisfied by *conflict.Detector.
type BookedChecker interface {
	IsBooked(ctx context.Context, userID string, r domain.TimeRange, exclude *domain.Ref) (bool, error)
}

type AvailabilityService struct {
	windows       repository.AvailabilityRepository
	booked        BookedChecker
	cache         Cache
	relationships RelationshipChecker
	logger        *slog.Logger
	validator     *validation.Validator
	unit          time.Duration
}

type WindowInput struct {
	Date        string `json:"date" validate:"required"`
	StartTime   string `json:"start_time" validate:"required"`
	EndTime     string `json:"end_time" validate:"required"`
	TimeZone    string `json:"timezone" validate:"required"`
	IsAvailable *bool  `json:"is_available"`
	IsBlocked   bool   `json:"is_blocked"`
	Visibility  string `json:"visibility" validate:"omitempty,oneof=private public"`
	Notes       string `json:"notes" validate:"max=500"`
}

type AvailabilityServiceOption func(*AvailabilityService)

func WithCache(cache Cache) AvailabilityServiceOption {
	return func(s *AvailabilityService) {
		s.cache = cache
	}
}

func WithRelationshipChecker(checker RelationshipChecker) AvailabilityServiceOption {
	return func(s *AvailabilityService) {
		s.relationships = checker
	}
}

func WithUnit(unit time.Duration) AvailabilityServiceOption {
	return func(s *AvailabilityService) {
		if unit > 0 {
			s.unit = unit
		}
	}
}

func WithLogger(logger *slog.Logger) AvailabilityServiceOption {
	return func(s *AvailabilityService) {
		s.logger = logger
	}
}

func NewAvailabilityService(windows repository.AvailabilityRepository, booked BookedChecker, opts ...AvailabilityServiceOption) *AvailabilityService {
	service := &AvailabilityService{
		windows:   windows,
		booked:    booked,
		logger:    logging.Discard(),
		validator: validation.New(),
		unit:      slots.DefaultUnit,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

func (s *AvailabilityService) CreateWindow(ctx context.Context, ownerID string, input WindowInput) (*domain.AvailabilityWindow, error) {
	w, err := s.build(ownerID, input)
	if err != nil {
		return nil, err
	}
	w.ID = uuid.NewString()
	if err := s.windows.CreateWindow(ctx, w); err != nil {
		return nil, fmt.Errorf("create availability: %w", err)
	}
	s.invalidate(ctx, ownerID)
	s.logger.Info("availability created", "window_id", w.ID, "owner_id", ownerID, "range", w.Range().String(), "blocked", w.IsBlocked)
	return w, nil
}

// UpdateWindow replaces every field of an owned window. Bookings already
// made against the window are not touched.
func (s *AvailabilityService) UpdateWindow(ctx context.Context, ownerID, id string, input WindowInput) (*domain.AvailabilityWindow, error) {
	current, err := s.owned(ctx, ownerID, id, "update")
	if err != nil {
		return nil, err
	}
	w, err := s.build(ownerID, input)
	if err != nil {
		return nil, err
	}
	w.ID = current.ID
	if err := s.windows.UpdateWindow(ctx, w); err != nil {
		return nil, fmt.Errorf("update availability: %w", err)
	}
	s.invalidate(ctx, ownerID)
	s.logger.Info("availability updated", "window_id", w.ID, "owner_id", ownerID, "range", w.Range().String())
	return w, nil
}

func (s *AvailabilityService) DeleteWindow(ctx context.Context, ownerID, id string) error {
	if _, err := s.owned(ctx, ownerID, id, "delete"); err != nil {
		return err
	}
	if err := s.windows.DeleteWindow(ctx, id); err != nil {
		return fmt.Errorf("delete availability: %w", err)
	}
	s.invalidate(ctx, ownerID)
	s.logger.Info("availability deleted", "window_id", id, "owner_id", ownerID)
	return nil
}

// ListAvailability returns owner's open windows in [from, to] that viewer
// is allowed to see.
func (s *AvailabilityService) ListAvailability(ctx context.Context, viewerID, ownerID string, from, to timeutil.Date) ([]domain.AvailabilityWindow, error) {
	raw, err := s.load(ctx, ownerID, from, to)
	if err != nil {
		return nil, err
	}
	showPrivate, err := s.canViewPrivate(ctx, viewerID, ownerID)
	if err != nil {
		return nil, err
	}
	out := make([]domain.AvailabilityWindow, 0, len(raw))
	for _, w := range raw {
		if w.Open() && (showPrivate || w.Visibility == domain.VisibilityPublic) {
			out = append(out, w)
		}
	}
	return out, nil
}

// AvailableUnits returns the free bookable units of owner in [from, to].
// Blocked windows always subtract, whatever their visibility. When
// viewerZone is empty units are shown in their own zone.
func (s *AvailabilityService) AvailableUnits(ctx context.Context, viewerID, ownerID string, from, to timeutil.Date, viewerZone string) ([]slots.LocalUnit, error) {
	raw, err := s.load(ctx, ownerID, from, to)
	if err != nil {
		return nil, err
	}
	showPrivate, err := s.canViewPrivate(ctx, viewerID, ownerID)
	if err != nil {
		return nil, err
	}
	windows := make([]domain.AvailabilityWindow, 0, len(raw))
	for _, w := range raw {
		if !w.Open() || showPrivate || w.Visibility == domain.VisibilityPublic {
			windows = append(windows, w)
		}
	}

	units, err := slots.AvailableUnits(windows, s.unit, func(r domain.TimeRange) (bool, error) {
		return s.booked.IsBooked(ctx, ownerID, r, nil)
	})
	if err != nil {
		return nil, err
	}
	if viewerZone == "" {
		local := make([]slots.LocalUnit, 0, len(units))
		for _, u := range units {
			local = append(local, slots.LocalUnit{BookableUnit: u, LocalDate: u.Date, LocalStart: u.Start, LocalEnd: u.End, LocalZone: u.TimeZone})
		}
		return local, nil
	}
	if _, err := timeutil.LoadZone(viewerZone); err != nil {
		return nil, domain.NewValidationError("tz", "%v", err)
	}
	return slots.Localize(units, viewerZone)
}

func (s *AvailabilityService) build(ownerID string, input WindowInput) (*domain.AvailabilityWindow, error) {
	if ownerID == "" {
		return nil, domain.NewValidationError("owner_id", "is required")
	}
	if err := s.validator.Struct(input); err != nil {
		return nil, err
	}
	r, err := domain.NewTimeRange(input.Date, input.StartTime, input.EndTime, input.TimeZone)
	if err != nil {
		return nil, err
	}
	w := &domain.AvailabilityWindow{
		OwnerID:     ownerID,
		Date:        r.Date,
		Start:       r.Start,
		End:         r.End,
		IsAvailable: true,
		IsBlocked:   input.IsBlocked,
		TimeZone:    r.TimeZone,
		Visibility:  domain.VisibilityPrivate,
		Notes:       input.Notes,
	}
	if input.IsAvailable != nil {
		w.IsAvailable = *input.IsAvailable
	}
	if input.Visibility != "" {
		w.Visibility = domain.Visibility(input.Visibility)
	}
	if err := w.Validate(); err != nil {
		return nil, err
	}
	return w, nil
}

func (s *AvailabilityService) owned(ctx context.Context, ownerID, id, op string) (*domain.AvailabilityWindow, error) {
	w, err := s.windows.GetWindow(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, &domain.InvalidStateTransition{
				Entity: entityAvailability, ID: id, From: "absent", Attempted: op, Reason: domain.ReasonNotFound, Err: err,
			}
		}
		return nil, err
	}
	if w.OwnerID != ownerID {
		return nil, &domain.InvalidStateTransition{Entity: entityAvailability, ID: id, Attempted: op, Reason: domain.ReasonNotOwner}
	}
	return w, nil
}

// load reads raw windows through the cache. Cache failures are logged and
// fall back to the repository.
func (s *AvailabilityService) load(ctx context.Context, ownerID string, from, to timeutil.Date) ([]domain.AvailabilityWindow, error) {
	if ownerID == "" {
		return nil, domain.NewValidationError("owner_id", "is required")
	}
	if to.Before(from) {
		return nil, domain.NewValidationError("to", "must not be before from")
	}
	if from.AddDays(MaxRangeDays).Before(to) {
		return nil, domain.NewValidationError("to", "range must not exceed %d days", MaxRangeDays)
	}

	if s.cache != nil {
		cached, err := s.cache.GetAvailability(ctx, ownerID, from, to)
		if err != nil {
			s.logger.Warn("availability cache read failed", "owner_id", ownerID, "error", err)
		} else if cached != nil {
			return cached, nil
		}
	}

	windows, err := s.windows.ListWindows(ctx, ownerID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list availability: %w", err)
	}
	if s.cache != nil {
		if err := s.cache.SetAvailability(ctx, ownerID, from, to, windows); err != nil {
			s.logger.Warn("availability cache write failed", "owner_id", ownerID, "error", err)
		}
	}
	return windows, nil
}

func (s *AvailabilityService) canViewPrivate(ctx context.Context, viewerID, ownerID string) (bool, error) {
	if viewerID == ownerID {
		return true, nil
	}
	if s.relationships == nil || viewerID == "" {
		return false, nil
	}
	ok, err := s.relationships.CanViewPrivate(ctx, viewerID, ownerID)
	if err != nil {
		return false, fmt.Errorf("check relationship: %w", err)
	}
	return ok, nil
}

func (s *AvailabilityService) invalidate(ctx context.Context, ownerID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateAvailability(ctx, ownerID); err != nil {
		s.logger.Warn("availability cache invalidation failed", "owner_id", ownerID, "error", err)
	}
}

var _ AvailabilityUseCase = (*AvailabilityService)(nil)
