package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Domenick1991/matchbooking/internal/domain"
	"github.com/Domenick1991/matchbooking/internal/kafka"
	"github.com/Domenick1991/matchbooking/internal/logging"
	"github.com/Domenick1991/matchbooking/internal/repository"
	"github.com/Domenick1991/matchbooking/internal/validation"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const entityBooking = "booking"

type BookingUseCase interface {
	CreateBooking(ctx context.Context, requesterID string, input CreateBookingInput) (*domain.Booking, error)
	CreateBookings(ctx context.Context, requesterID string, inputs []CreateBookingInput) []SlotOutcome
	AcceptBooking(ctx context.Context, actorID, id string) (*domain.Booking, error)
	DeclineBooking(ctx context.Context, actorID, id string) (*domain.Booking, error)
	CancelBooking(ctx context.Context, actorID, id string) (*domain.Booking, error)
	ProposeNewTime(ctx context.Context, actorID, id string, input TimeInput) (*domain.Booking, error)
	AcceptProposedTime(ctx context.Context, actorID, id string) (*domain.Booking, error)
	GetBooking(ctx context.Context, actorID, id string) (*domain.Booking, error)
	ListBookings(ctx context.Context, userID string, statuses []domain.BookingStatus) ([]domain.Booking, error)
	ExpireStaleBookings(ctx context.Context) ([]domain.Booking, error)
}

// ConflictChecker is satisfied by *conflict.Detector.
type ConflictChecker interface {
	Check(ctx context.Context, userID string, r domain.TimeRange, exclude *domain.Ref, requireCoverage bool) error
}

// ClaimLocker is a short-lived lock taken in front of the atomic claim so
// that concurrent requests for one slot fail fast.
type ClaimLocker interface {
	AcquireClaimLock(ctx context.Context, userID string, start time.Time, ttl time.Duration) (string, bool, error)
	ReleaseClaimLock(ctx context.Context, userID string, start time.Time, token string) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value any) error
}

type BookingService struct {
	bookings           repository.BookingRepository
	windows            repository.AvailabilityRepository
	checker            ConflictChecker
	locker             ClaimLocker
	producer           Producer
	logger             *slog.Logger
	validator          *validation.Validator
	eventsTopic        string
	notificationsTopic string
	maxReschedules     int
	lockTTL            time.Duration
	batchConcurrency   int
	now                func() time.Time
}

type CreateBookingInput struct {
	OpponentID     string `json:"opponent_id" validate:"required"`
	AvailabilityID string `json:"availability_id"`
	Date           string `json:"date" validate:"required"`
	StartTime      string `json:"start_time" validate:"required"`
	EndTime        string `json:"end_time" validate:"required"`
	TimeZone       string `json:"timezone" validate:"required"`
	Location       string `json:"court_location" validate:"max=256"`
	Message        string `json:"message" validate:"max=1000"`
}

type TimeInput struct {
	Date      string `json:"date" validate:"required"`
	StartTime string `json:"start_time" validate:"required"`
	EndTime   string `json:"end_time" validate:"required"`
	TimeZone  string `json:"timezone" validate:"required"`
}

// SlotOutcome is the result of one slot of a multi-slot request.
type SlotOutcome struct {
	Index   int
	Input   CreateBookingInput
	Booking *domain.Booking
	Err     error
}

type BookingServiceOption func(*BookingService)

func WithProducer(producer Producer, eventsTopic string) BookingServiceOption {
	return func(s *BookingService) {
		s.producer = producer
		s.eventsTopic = eventsTopic
	}
}

func WithNotificationsTopic(topic string) BookingServiceOption {
	return func(s *BookingService) {
		s.notificationsTopic = topic
	}
}

func WithClaimLocker(locker ClaimLocker, ttl time.Duration) BookingServiceOption {
	return func(s *BookingService) {
		s.locker = locker
		s.lockTTL = ttl
	}
}

func WithMaxReschedules(n int) BookingServiceOption {
	return func(s *BookingService) {
		s.maxReschedules = n
	}
}

func WithBatchConcurrency(n int) BookingServiceOption {
	return func(s *BookingService) {
		if n > 0 {
			s.batchConcurrency = n
		}
	}
}

func WithClock(now func() time.Time) BookingServiceOption {
	return func(s *BookingService) {
		s.now = now
	}
}

func WithLogger(logger *slog.Logger) BookingServiceOption {
	return func(s *BookingService) {
		s.logger = logger
	}
}

func NewBookingService(
	bookings repository.BookingRepository,
	windows repository.AvailabilityRepository,
	checker ConflictChecker,
	opts ...BookingServiceOption,
) *BookingService {
	service := &BookingService{
		bookings:         bookings,
		windows:          windows,
		checker:          checker,
		logger:           logging.Discard(),
		validator:        validation.New(),
		maxReschedules:   3,
		lockTTL:          10 * time.Second,
		batchConcurrency: 4,
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

func (s *BookingService) CreateBooking(ctx context.Context, requesterID string, input CreateBookingInput) (*domain.Booking, error) {
	if requesterID == "" {
		return nil, domain.NewValidationError("requester_id", "is required")
	}
	if err := s.validator.Struct(input); err != nil {
		return nil, err
	}
	if input.OpponentID == requesterID {
		return nil, domain.NewValidationError("opponent_id", "cannot book a match against yourself")
	}
	r, err := domain.NewTimeRange(input.Date, input.StartTime, input.EndTime, input.TimeZone)
	if err != nil {
		return nil, err
	}
	startsAt, endsAt, err := r.Instants()
	if err != nil {
		return nil, err
	}

	if input.AvailabilityID != "" {
		if err := s.checkWindow(ctx, input.AvailabilityID, input.OpponentID, startsAt, endsAt, r); err != nil {
			return nil, err
		}
	}
	if err := s.checker.Check(ctx, input.OpponentID, r, nil, true); err != nil {
		return nil, err
	}
	if err := s.checker.Check(ctx, requesterID, r, nil, false); err != nil {
		return nil, err
	}

	if s.locker != nil {
		token, ok, err := s.locker.AcquireClaimLock(ctx, input.OpponentID, startsAt, s.lockTTL)
		if err != nil {
			return nil, fmt.Errorf("acquire claim lock: %w", err)
		}
		if !ok {
			return nil, &domain.ConflictError{Reason: domain.ConflictSlotTaken, UserID: input.OpponentID, Range: r.String()}
		}
		defer func() {
			if err := s.locker.ReleaseClaimLock(ctx, input.OpponentID, startsAt, token); err != nil {
				s.logger.Warn("release claim lock", "user_id", input.OpponentID, "error", err)
			}
		}()
	}

	b := &domain.Booking{
		ID:             uuid.NewString(),
		RequesterID:    requesterID,
		OpponentID:     input.OpponentID,
		AvailabilityID: input.AvailabilityID,
		Range:          r,
		Status:         domain.BookingStatusPending,
		Location:       input.Location,
		Message:        input.Message,
		StartsAt:       startsAt,
		EndsAt:         endsAt,
	}
	if err := s.bookings.Create(ctx, b); err != nil {
		return nil, err
	}

	s.logger.Info("booking requested", "booking_id", b.ID, "requester_id", requesterID, "opponent_id", b.OpponentID, "range", r.String())
	s.publish(ctx, kafka.EventBookingRequested, b, requesterID, b.OpponentID)
	return b, nil
}

// CreateBookings claims every slot independently. A failed slot does not
// undo the others; callers get one outcome per input, in input order.
func (s *BookingService) CreateBookings(ctx context.Context, requesterID string, inputs []CreateBookingInput) []SlotOutcome {
	outcomes := make([]SlotOutcome, len(inputs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.batchConcurrency)
	for i, in := range inputs {
		g.Go(func() error {
			b, err := s.CreateBooking(gctx, requesterID, in)
			outcomes[i] = SlotOutcome{Index: i, Input: in, Booking: b, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

func (s *BookingService) AcceptBooking(ctx context.Context, actorID, id string) (*domain.Booking, error) {
	const op = "accept"
	b, err := s.load(ctx, id, op)
	if err != nil {
		return nil, err
	}
	if err := requireStatus(b, op, domain.BookingStatusPending); err != nil {
		return nil, err
	}
	if actorID != b.OpponentID {
		return nil, transition(b, op, domain.ReasonWrongActor)
	}
	if b.Proposal != nil {
		return nil, transition(b, op, domain.ReasonOpenProposal)
	}
	if err := s.recheck(ctx, b, b.Range, false); err != nil {
		return nil, err
	}

	b.Status = domain.BookingStatusConfirmed
	if err := s.bookings.Update(ctx, b); err != nil {
		return nil, err
	}

	s.logger.Info("booking confirmed", "booking_id", b.ID, "actor_id", actorID)
	s.publish(ctx, kafka.EventBookingAccepted, b, actorID, b.RequesterID)
	return b, nil
}

// DeclineBooking is open to the opponent while the request is pending, and
// to the requester while a counter-offer awaits them.
func (s *BookingService) DeclineBooking(ctx context.Context, actorID, id string) (*domain.Booking, error) {
	const op = "decline"
	b, err := s.load(ctx, id, op)
	if err != nil {
		return nil, err
	}
	if err := requireStatus(b, op, domain.BookingStatusPending); err != nil {
		return nil, err
	}
	requesterRejectsOffer := actorID == b.RequesterID && b.Proposal != nil
	if actorID != b.OpponentID && !requesterRejectsOffer {
		return nil, transition(b, op, domain.ReasonWrongActor)
	}

	b.Status = domain.BookingStatusDeclined
	b.Proposal = nil
	if err := s.bookings.Update(ctx, b); err != nil {
		return nil, err
	}

	s.logger.Info("booking declined", "booking_id", b.ID, "actor_id", actorID)
	s.publish(ctx, kafka.EventBookingDeclined, b, actorID, b.Counterparty(actorID))
	return b, nil
}

// CancelBooking is open to either party once confirmed; the requester may
// also withdraw a pending request.
func (s *BookingService) CancelBooking(ctx context.Context, actorID, id string) (*domain.Booking, error) {
	const op = "cancel"
	b, err := s.load(ctx, id, op)
	if err != nil {
		return nil, err
	}
	switch b.Status {
	case domain.BookingStatusConfirmed:
		if !b.Involves(actorID) {
			return nil, transition(b, op, domain.ReasonWrongActor)
		}
	case domain.BookingStatusPending:
		if actorID != b.RequesterID {
			return nil, transition(b, op, domain.ReasonWrongActor)
		}
	default:
		return nil, transition(b, op, domain.ReasonIllegalState)
	}

	b.Status = domain.BookingStatusCancelled
	b.Proposal = nil
	if err := s.bookings.Update(ctx, b); err != nil {
		return nil, err
	}

	s.logger.Info("booking cancelled", "booking_id", b.ID, "actor_id", actorID)
	s.publish(ctx, kafka.EventBookingCancelled, b, actorID, b.Counterparty(actorID))
	return b, nil
}

func (s *BookingService) ProposeNewTime(ctx context.Context, actorID, id string, input TimeInput) (*domain.Booking, error) {
	const op = "propose a new time for"
	if err := s.validator.Struct(input); err != nil {
		return nil, err
	}
	b, err := s.load(ctx, id, op)
	if err != nil {
		return nil, err
	}
	if err := requireStatus(b, op, domain.BookingStatusPending); err != nil {
		return nil, err
	}
	if actorID != b.OpponentID {
		return nil, transition(b, op, domain.ReasonWrongActor)
	}
	if b.RescheduleCount >= s.maxReschedules {
		return nil, &domain.RescheduleLimitExceeded{Entity: entityBooking, ID: b.ID, Limit: s.maxReschedules}
	}
	r, err := domain.NewTimeRange(input.Date, input.StartTime, input.EndTime, input.TimeZone)
	if err != nil {
		return nil, err
	}
	if err := s.recheck(ctx, b, r, true); err != nil {
		return nil, err
	}

	b.Proposal = &domain.Proposal{Range: r, ProposedBy: actorID}
	b.RescheduleCount++
	if err := s.bookings.Update(ctx, b); err != nil {
		return nil, err
	}

	s.logger.Info("booking time proposed", "booking_id", b.ID, "actor_id", actorID, "range", r.String(), "round", b.RescheduleCount)
	s.publishRange(ctx, kafka.EventBookingTimeProposed, b, r, actorID, b.RequesterID)
	return b, nil
}

func (s *BookingService) AcceptProposedTime(ctx context.Context, actorID, id string) (*domain.Booking, error) {
	const op = "accept the proposed time of"
	b, err := s.load(ctx, id, op)
	if err != nil {
		return nil, err
	}
	if err := requireStatus(b, op, domain.BookingStatusPending); err != nil {
		return nil, err
	}
	if actorID != b.RequesterID {
		return nil, transition(b, op, domain.ReasonWrongActor)
	}
	if b.Proposal == nil {
		return nil, transition(b, op, domain.ReasonNoProposal)
	}
	r := b.Proposal.Range
	if err := s.recheck(ctx, b, r, true); err != nil {
		return nil, err
	}
	startsAt, endsAt, err := r.Instants()
	if err != nil {
		return nil, err
	}

	b.Range = r
	b.StartsAt, b.EndsAt = startsAt, endsAt
	b.AvailabilityID = ""
	b.Proposal = nil
	b.Status = domain.BookingStatusConfirmed
	if err := s.bookings.Update(ctx, b); err != nil {
		return nil, err
	}

	s.logger.Info("booking proposal accepted", "booking_id", b.ID, "actor_id", actorID, "range", r.String())
	s.publish(ctx, kafka.EventBookingProposalAccepted, b, actorID, b.OpponentID)
	return b, nil
}

func (s *BookingService) GetBooking(ctx context.Context, actorID, id string) (*domain.Booking, error) {
	b, err := s.bookings.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !b.Involves(actorID) {
		return nil, domain.ErrNotFound
	}
	return b, nil
}

func (s *BookingService) ListBookings(ctx context.Context, userID string, statuses []domain.BookingStatus) ([]domain.Booking, error) {
	for _, st := range statuses {
		if !st.Valid() {
			return nil, domain.NewValidationError("status", "unknown booking status %q", st)
		}
	}
	return s.bookings.ListForUser(ctx, userID, statuses)
}

// ExpireStaleBookings cancels pending requests whose start time has passed.
func (s *BookingService) ExpireStaleBookings(ctx context.Context) ([]domain.Booking, error) {
	stale, err := s.bookings.ListPendingStartingBefore(ctx, s.now())
	if err != nil {
		return nil, err
	}
	expired := make([]domain.Booking, 0, len(stale))
	for i := range stale {
		b := &stale[i]
		b.Status = domain.BookingStatusCancelled
		b.Proposal = nil
		if err := s.bookings.Update(ctx, b); err != nil {
			s.logger.Warn("expire booking", "booking_id", b.ID, "error", err)
			continue
		}
		s.publish(ctx, kafka.EventBookingExpired, b, "", b.RequesterID)
		s.publish(ctx, kafka.EventBookingExpired, b, "", b.OpponentID)
		expired = append(expired, *b)
	}
	return expired, nil
}

func (s *BookingService) load(ctx context.Context, id, op string) (*domain.Booking, error) {
	b, err := s.bookings.Get(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, &domain.InvalidStateTransition{
				Entity: entityBooking, ID: id, From: "absent", Attempted: op, Reason: domain.ReasonNotFound, Err: err,
			}
		}
		return nil, err
	}
	return b, nil
}

// recheck validates r for both participants, ignoring b's own claims. The
// opponent must also still cover r with availability when coverage is set.
func (s *BookingService) recheck(ctx context.Context, b *domain.Booking, r domain.TimeRange, coverage bool) error {
	self := &domain.Ref{Kind: domain.RefBooking, ID: b.ID}
	if err := s.checker.Check(ctx, b.OpponentID, r, self, coverage); err != nil {
		return err
	}
	return s.checker.Check(ctx, b.RequesterID, r, self, false)
}

func (s *BookingService) checkWindow(ctx context.Context, windowID, opponentID string, startsAt, endsAt time.Time, r domain.TimeRange) error {
	w, err := s.windows.GetWindow(ctx, windowID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.NewValidationError("availability_id", "availability %s does not exist", windowID)
		}
		return err
	}
	if w.OwnerID != opponentID {
		return domain.NewValidationError("availability_id", "availability %s does not belong to the opponent", windowID)
	}
	ws, we, err := w.Range().Instants()
	if err != nil {
		return err
	}
	if !w.Open() || startsAt.Before(ws) || endsAt.After(we) {
		return &domain.ConflictError{Reason: domain.ConflictOutsideAvailability, UserID: opponentID, Range: r.String()}
	}
	return nil
}

func requireStatus(b *domain.Booking, op string, want domain.BookingStatus) error {
	if b.Status != want {
		return transition(b, op, domain.ReasonIllegalState)
	}
	return nil
}

func transition(b *domain.Booking, op string, reason domain.TransitionReason) error {
	return &domain.InvalidStateTransition{Entity: entityBooking, ID: b.ID, From: string(b.Status), Attempted: op, Reason: reason}
}

func (s *BookingService) publish(ctx context.Context, eventType kafka.EventType, b *domain.Booking, actorID, recipientID string) {
	s.publishRange(ctx, eventType, b, b.Range, actorID, recipientID)
}

// publishRange emits an event; failures are logged and never fail the
// transition.
func (s *BookingService) publishRange(ctx context.Context, eventType kafka.EventType, b *domain.Booking, r domain.TimeRange, actorID, recipientID string) {
	if s.producer == nil || s.eventsTopic == "" {
		return
	}
	startsAt, _, _ := r.Instants()
	event := kafka.MatchEvent{
		Type:        eventType,
		Entity:      entityBooking,
		ID:          b.ID,
		ActorID:     actorID,
		RecipientID: recipientID,
		Status:      string(b.Status),
		Date:        r.Date.String(),
		StartTime:   r.Start.String(),
		EndTime:     r.End.String(),
		TimeZone:    r.TimeZone,
		StartsAt:    startsAt,
		OccurredAt:  s.now().UTC(),
	}
	if err := s.producer.Publish(ctx, s.eventsTopic, b.ID, event); err != nil {
		s.logger.Warn("failed to publish event", "type", eventType, "booking_id", b.ID, "error", err)
		return
	}
	if s.notificationsTopic != "" {
		if err := s.producer.Publish(ctx, s.notificationsTopic, b.ID, event); err != nil {
			s.logger.Warn("failed to publish notification", "type", eventType, "booking_id", b.ID, "error", err)
		}
	}
}

var _ BookingUseCase = (*BookingService)(nil)
