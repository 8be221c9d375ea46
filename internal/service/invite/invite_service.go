package invite

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/Domenick1991/matchbooking/internal/domain"
	"github.com/Domenick1991/matchbooking/internal/kafka"
	"github.com/Domenick1991/matchbooking/internal/logging"
	"github.com/Domenick1991/matchbooking/internal/repository"
	"github.com/Domenick1991/matchbooking/internal/validation"
	"github.com/google/uuid"
)

const (
	entityInvite  = "invite"
	reasonExpired = "expired"
)

type InviteUseCase interface {
	SendInvite(ctx context.Context, senderID string, input SendInviteInput) (*domain.Invite, error)
	RespondToInvite(ctx context.Context, actorID, id string, response domain.InviteResponse) (*domain.Invite, error)
	ProposeReschedule(ctx context.Context, actorID, id string, input RescheduleInput) (*domain.Invite, error)
	CancelInvite(ctx context.Context, actorID, id, reason string) (*domain.Invite, error)
	GetInvite(ctx context.Context, actorID, id string) (*domain.Invite, error)
	ListInvites(ctx context.Context, userID string, statuses []domain.InviteStatus) ([]domain.Invite, error)
	AvailableActions(inv *domain.Invite, userID string) []domain.InviteAction
	ExpireStaleInvites(ctx context.Context) ([]domain.Invite, error)
}

type ConflictChecker interface {
	Check(ctx context.Context, userID string, r domain.TimeRange, exclude *domain.Ref, requireCoverage bool) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value any) error
}

type InviteService struct {
	invites            repository.InviteRepository
	checker            ConflictChecker
	producer           Producer
	logger             *slog.Logger
	validator          *validation.Validator
	eventsTopic        string
	notificationsTopic string
	maxReschedules     int
	now                func() time.Time
}

type SendInviteInput struct {
	ReceiverID string `json:"receiver_id" validate:"required"`
	Date       string `json:"date" validate:"required"`
	StartTime  string `json:"start_time" validate:"required"`
	EndTime    string `json:"end_time" validate:"required"`
	TimeZone   string `json:"timezone" validate:"required"`
	Location   string `json:"location" validate:"max=256"`
	Message    string `json:"message" validate:"max=1000"`
}

type RescheduleInput struct {
	Date      string `json:"date" validate:"required"`
	StartTime string `json:"start_time" validate:"required"`
	EndTime   string `json:"end_time" validate:"required"`
	TimeZone  string `json:"timezone" validate:"required"`
}

type InviteServiceOption func(*InviteService)

func WithProducer(producer Producer, eventsTopic string) InviteServiceOption {
	return func(s *InviteService) {
		s.producer = producer
		s.eventsTopic = eventsTopic
	}
}

func WithNotificationsTopic(topic string) InviteServiceOption {
	return func(s *InviteService) {
		s.notificationsTopic = topic
	}
}

// WithMaxReschedules lowers the reschedule cap. Values above
// domain.MaxInviteReschedules are ignored.
func WithMaxReschedules(n int) InviteServiceOption {
	return func(s *InviteService) {
		if n >= 0 && n <= domain.MaxInviteReschedules {
			s.maxReschedules = n
		}
	}
}

func WithClock(now func() time.Time) InviteServiceOption {
	return func(s *InviteService) {
		s.now = now
	}
}

func WithLogger(logger *slog.Logger) InviteServiceOption {
	return func(s *InviteService) {
		s.logger = logger
	}
}

func NewInviteService(invites repository.InviteRepository, checker ConflictChecker, opts ...InviteServiceOption) *InviteService {
	service := &InviteService{
		invites:        invites,
		checker:        checker,
		logger:         logging.Discard(),
		validator:      validation.New(),
		maxReschedules: domain.MaxInviteReschedules,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

func (s *InviteService) SendInvite(ctx context.Context, senderID string, input SendInviteInput) (*domain.Invite, error) {
	if senderID == "" {
		return nil, domain.NewValidationError("sender_id", "is required")
	}
	if err := s.validator.Struct(input); err != nil {
		return nil, err
	}
	if input.ReceiverID == senderID {
		return nil, domain.NewValidationError("receiver_id", "cannot invite yourself")
	}
	r, err := domain.NewTimeRange(input.Date, input.StartTime, input.EndTime, input.TimeZone)
	if err != nil {
		return nil, err
	}
	startsAt, endsAt, err := r.Instants()
	if err != nil {
		return nil, err
	}
	if err := s.checkBoth(ctx, senderID, input.ReceiverID, r, nil); err != nil {
		return nil, err
	}

	inv := &domain.Invite{
		ID:         uuid.NewString(),
		SenderID:   senderID,
		ReceiverID: input.ReceiverID,
		Range:      r,
		Status:     domain.InviteStatusPending,
		Location:   input.Location,
		Message:    input.Message,
		StartsAt:   startsAt,
		EndsAt:     endsAt,
	}
	if err := s.invites.Create(ctx, inv); err != nil {
		return nil, err
	}

	s.logger.Info("invite sent", "invite_id", inv.ID, "sender_id", senderID, "receiver_id", inv.ReceiverID, "range", r.String())
	s.publish(ctx, kafka.EventInviteSent, inv, senderID, inv.ReceiverID)
	return inv, nil
}

// RespondToInvite accepts or declines. While a reschedule is outstanding
// the party that did not propose it answers; accepting adopts the proposal.
func (s *InviteService) RespondToInvite(ctx context.Context, actorID, id string, response domain.InviteResponse) (*domain.Invite, error) {
	var op string
	switch response {
	case domain.InviteResponseAccepted:
		op = "accept"
	case domain.InviteResponseDeclined:
		op = "decline"
	default:
		return nil, domain.NewValidationError("response", "must be accepted or declined, got %q", response)
	}

	inv, err := s.load(ctx, id, op)
	if err != nil {
		return nil, err
	}
	if !inv.Status.Open() {
		return nil, transition(inv, op, domain.ReasonIllegalState)
	}
	if actorID != inv.Responder() {
		return nil, transition(inv, op, domain.ReasonWrongActor)
	}

	if response == domain.InviteResponseDeclined {
		inv.Status = domain.InviteStatusDeclined
		inv.Proposal = nil
		if err := s.invites.Update(ctx, inv); err != nil {
			return nil, err
		}
		s.logger.Info("invite declined", "invite_id", inv.ID, "actor_id", actorID)
		s.publish(ctx, kafka.EventInviteDeclined, inv, actorID, inv.Counterparty(actorID))
		return inv, nil
	}

	if inv.Proposal != nil {
		r := inv.Proposal.Range
		startsAt, endsAt, err := r.Instants()
		if err != nil {
			return nil, err
		}
		inv.Range = r
		inv.StartsAt, inv.EndsAt = startsAt, endsAt
		inv.Proposal = nil
	}
	self := &domain.Ref{Kind: domain.RefInvite, ID: inv.ID}
	if err := s.checkBoth(ctx, inv.SenderID, inv.ReceiverID, inv.Range, self); err != nil {
		return nil, err
	}
	inv.Status = domain.InviteStatusAccepted
	if err := s.invites.Update(ctx, inv); err != nil {
		return nil, err
	}

	s.logger.Info("invite accepted", "invite_id", inv.ID, "actor_id", actorID, "range", inv.Range.String())
	s.publish(ctx, kafka.EventInviteAccepted, inv, actorID, inv.Counterparty(actorID))
	return inv, nil
}

func (s *InviteService) ProposeReschedule(ctx context.Context, actorID, id string, input RescheduleInput) (*domain.Invite, error) {
	const op = "reschedule"
	if err := s.validator.Struct(input); err != nil {
		return nil, err
	}
	inv, err := s.load(ctx, id, op)
	if err != nil {
		return nil, err
	}
	if !inv.Status.Open() {
		return nil, transition(inv, op, domain.ReasonIllegalState)
	}
	if !inv.Involves(actorID) {
		return nil, transition(inv, op, domain.ReasonWrongActor)
	}
	if inv.RescheduleCount >= s.maxReschedules {
		return nil, &domain.RescheduleLimitExceeded{Entity: entityInvite, ID: inv.ID, Limit: s.maxReschedules}
	}
	r, err := domain.NewTimeRange(input.Date, input.StartTime, input.EndTime, input.TimeZone)
	if err != nil {
		return nil, err
	}
	if err := s.checkBoth(ctx, inv.SenderID, inv.ReceiverID, r, &domain.Ref{Kind: domain.RefInvite, ID: inv.ID}); err != nil {
		return nil, err
	}

	inv.Proposal = &domain.Proposal{Range: r, ProposedBy: actorID}
	inv.RescheduleCount++
	inv.Status = domain.InviteStatusRescheduled
	if err := s.invites.Update(ctx, inv); err != nil {
		return nil, err
	}

	s.logger.Info("invite rescheduled", "invite_id", inv.ID, "actor_id", actorID, "range", r.String(), "round", inv.RescheduleCount)
	s.publishRange(ctx, kafka.EventInviteRescheduled, inv, r, actorID, inv.Counterparty(actorID))
	return inv, nil
}

func (s *InviteService) CancelInvite(ctx context.Context, actorID, id, reason string) (*domain.Invite, error) {
	const op = "cancel"
	inv, err := s.load(ctx, id, op)
	if err != nil {
		return nil, err
	}
	if !inv.Status.Open() {
		return nil, transition(inv, op, domain.ReasonIllegalState)
	}
	if actorID != inv.SenderID {
		return nil, transition(inv, op, domain.ReasonWrongActor)
	}
	reason = strings.TrimSpace(reason)
	if len(reason) > 500 {
		return nil, domain.NewValidationError("reason", "must be at most 500 characters")
	}

	inv.Status = domain.InviteStatusCancelled
	inv.CancellationReason = reason
	inv.Proposal = nil
	if err := s.invites.Update(ctx, inv); err != nil {
		return nil, err
	}

	s.logger.Info("invite cancelled", "invite_id", inv.ID, "actor_id", actorID, "reason", reason)
	s.publish(ctx, kafka.EventInviteCancelled, inv, actorID, inv.ReceiverID)
	return inv, nil
}

func (s *InviteService) GetInvite(ctx context.Context, actorID, id string) (*domain.Invite, error) {
	inv, err := s.invites.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !inv.Involves(actorID) {
		return nil, domain.ErrNotFound
	}
	return inv, nil
}

func (s *InviteService) ListInvites(ctx context.Context, userID string, statuses []domain.InviteStatus) ([]domain.Invite, error) {
	for _, st := range statuses {
		if !st.Valid() {
			return nil, domain.NewValidationError("status", "unknown invite status %q", st)
		}
	}
	return s.invites.ListForUser(ctx, userID, statuses)
}

func (s *InviteService) AvailableActions(inv *domain.Invite, userID string) []domain.InviteAction {
	return inv.AvailableActions(userID, s.maxReschedules)
}

// ExpireStaleInvites cancels open invites whose start time has passed.
func (s *InviteService) ExpireStaleInvites(ctx context.Context) ([]domain.Invite, error) {
	stale, err := s.invites.ListOpenStartingBefore(ctx, s.now())
	if err != nil {
		return nil, err
	}
	expired := make([]domain.Invite, 0, len(stale))
	for i := range stale {
		inv := &stale[i]
		inv.Status = domain.InviteStatusCancelled
		inv.CancellationReason = reasonExpired
		inv.Proposal = nil
		if err := s.invites.Update(ctx, inv); err != nil {
			s.logger.Warn("expire invite", "invite_id", inv.ID, "error", err)
			continue
		}
		s.publish(ctx, kafka.EventInviteExpired, inv, "", inv.SenderID)
		s.publish(ctx, kafka.EventInviteExpired, inv, "", inv.ReceiverID)
		expired = append(expired, *inv)
	}
	return expired, nil
}

func (s *InviteService) load(ctx context.Context, id, op string) (*domain.Invite, error) {
	inv, err := s.invites.Get(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, &domain.InvalidStateTransition{
				Entity: entityInvite, ID: id, From: "absent", Attempted: op, Reason: domain.ReasonNotFound, Err: err,
			}
		}
		return nil, err
	}
	return inv, nil
}

// checkBoth requires both players to be free over r. Invites are not tied to
// an availability window, so declared coverage is not required.
func (s *InviteService) checkBoth(ctx context.Context, senderID, receiverID string, r domain.TimeRange, exclude *domain.Ref) error {
	if err := s.checker.Check(ctx, receiverID, r, exclude, false); err != nil {
		return err
	}
	return s.checker.Check(ctx, senderID, r, exclude, false)
}

func transition(inv *domain.Invite, op string, reason domain.TransitionReason) error {
	return &domain.InvalidStateTransition{Entity: entityInvite, ID: inv.ID, From: string(inv.Status), Attempted: op, Reason: reason}
}

func (s *InviteService) publish(ctx context.Context, eventType kafka.EventType, inv *domain.Invite, actorID, recipientID string) {
	s.publishRange(ctx, eventType, inv, inv.Range, actorID, recipientID)
}

func (s *InviteService) publishRange(ctx context.Context, eventType kafka.EventType, inv *domain.Invite, r domain.TimeRange, actorID, recipientID string) {
	if s.producer == nil || s.eventsTopic == "" {
		return
	}
	startsAt, _, _ := r.Instants()
	event := kafka.MatchEvent{
		Type:        eventType,
		Entity:      entityInvite,
		ID:          inv.ID,
		ActorID:     actorID,
		RecipientID: recipientID,
		Status:      string(inv.Status),
		Date:        r.Date.String(),
		StartTime:   r.Start.String(),
		EndTime:     r.End.String(),
		TimeZone:    r.TimeZone,
		StartsAt:    startsAt,
		Reason:      inv.CancellationReason,
		OccurredAt:  s.now().UTC(),
	}
	if err := s.producer.Publish(ctx, s.eventsTopic, inv.ID, event); err != nil {
		s.logger.Warn("failed to publish event", "type", eventType, "invite_id", inv.ID, "error", err)
		return
	}
	if s.notificationsTopic != "" {
		if err := s.producer.Publish(ctx, s.notificationsTopic, inv.ID, event); err != nil {
			s.logger.Warn("failed to publish notification", "type", eventType, "invite_id", inv.ID, "error", err)
		}
	}
}

var _ InviteUseCase = (*InviteService)(nil)
