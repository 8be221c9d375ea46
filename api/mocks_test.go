package api

import (
	"context"

	"github.com/Domenick1991/matchbooking/internal/domain"
	"github.com/Domenick1991/matchbooking/internal/service/availability"
	"github.com/Domenick1991/matchbooking/internal/service/booking"
	"github.com/Domenick1991/matchbooking/internal/service/invite"
	"github.com/Domenick1991/matchbooking/internal/slots"
	"github.com/Domenick1991/matchbooking/internal/timeutil"
	"github.com/stretchr/testify/mock"
)

type MockBookingUseCase struct {
	mock.Mock
}

func (m *MockBookingUseCase) booking(args mock.Arguments) (*domain.Booking, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingUseCase) CreateBooking(ctx context.Context, requesterID string, input booking.CreateBookingInput) (*domain.Booking, error) {
	return m.booking(m.Called(ctx, requesterID, input))
}

func (m *MockBookingUseCase) CreateBookings(ctx context.Context, requesterID string, inputs []booking.CreateBookingInput) []booking.SlotOutcome {
	args := m.Called(ctx, requesterID, inputs)
	return args.Get(0).([]booking.SlotOutcome)
}

func (m *MockBookingUseCase) AcceptBooking(ctx context.Context, actorID, id string) (*domain.Booking, error) {
	return m.booking(m.Called(ctx, actorID, id))
}

func (m *MockBookingUseCase) DeclineBooking(ctx context.Context, actorID, id string) (*domain.Booking, error) {
	return m.booking(m.Called(ctx, actorID, id))
}

func (m *MockBookingUseCase) CancelBooking(ctx context.Context, actorID, id string) (*domain.Booking, error) {
	return m.booking(m.Called(ctx, actorID, id))
}

func (m *MockBookingUseCase) ProposeNewTime(ctx context.Context, actorID, id string, input booking.TimeInput) (*domain.Booking, error) {
	return m.booking(m.Called(ctx, actorID, id, input))
}

func (m *MockBookingUseCase) AcceptProposedTime(ctx context.Context, actorID, id string) (*domain.Booking, error) {
	return m.booking(m.Called(ctx, actorID, id))
}

func (m *MockBookingUseCase) GetBooking(ctx context.Context, actorID, id string) (*domain.Booking, error) {
	return m.booking(m.Called(ctx, actorID, id))
}

func (m *MockBookingUseCase) ListBookings(ctx context.Context, userID string, statuses []domain.BookingStatus) ([]domain.Booking, error) {
	args := m.Called(ctx, userID, statuses)
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *MockBookingUseCase) ExpireStaleBookings(ctx context.Context) ([]domain.Booking, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Booking), args.Error(1)
}

type MockInviteUseCase struct {
	mock.Mock
}

func (m *MockInviteUseCase) invite(args mock.Arguments) (*domain.Invite, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Invite), args.Error(1)
}

func (m *MockInviteUseCase) SendInvite(ctx context.Context, senderID string, input invite.SendInviteInput) (*domain.Invite, error) {
	return m.invite(m.Called(ctx, senderID, input))
}

func (m *MockInviteUseCase) RespondToInvite(ctx context.Context, actorID, id string, response domain.InviteResponse) (*domain.Invite, error) {
	return m.invite(m.Called(ctx, actorID, id, response))
}

func (m *MockInviteUseCase) ProposeReschedule(ctx context.Context, actorID, id string, input invite.RescheduleInput) (*domain.Invite, error) {
	return m.invite(m.Called(ctx, actorID, id, input))
}

func (m *MockInviteUseCase) CancelInvite(ctx context.Context, actorID, id, reason string) (*domain.Invite, error) {
	return m.invite(m.Called(ctx, actorID, id, reason))
}

func (m *MockInviteUseCase) GetInvite(ctx context.Context, actorID, id string) (*domain.Invite, error) {
	return m.invite(m.Called(ctx, actorID, id))
}

func (m *MockInviteUseCase) ListInvites(ctx context.Context, userID string, statuses []domain.InviteStatus) ([]domain.Invite, error) {
	args := m.Called(ctx, userID, statuses)
	return args.Get(0).([]domain.Invite), args.Error(1)
}

// AvailableActions delegates to the domain so tests do not stub it.
func (m *MockInviteUseCase) AvailableActions(inv *domain.Invite, userID string) []domain.InviteAction {
	return inv.AvailableActions(userID, domain.MaxInviteReschedules)
}

func (m *MockInviteUseCase) ExpireStaleInvites(ctx context.Context) ([]domain.Invite, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Invite), args.Error(1)
}

type MockAvailabilityUseCase struct {
	mock.Mock
}

func (m *MockAvailabilityUseCase) CreateWindow(ctx context.Context, ownerID string, input availability.WindowInput) (*domain.AvailabilityWindow, error) {
	args := m.Called(ctx, ownerID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AvailabilityWindow), args.Error(1)
}

func (m *MockAvailabilityUseCase) UpdateWindow(ctx context.Context, ownerID, id string, input availability.WindowInput) (*domain.AvailabilityWindow, error) {
	args := m.Called(ctx, ownerID, id, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AvailabilityWindow), args.Error(1)
}

func (m *MockAvailabilityUseCase) DeleteWindow(ctx context.Context, ownerID, id string) error {
	args := m.Called(ctx, ownerID, id)
	return args.Error(0)
}

func (m *MockAvailabilityUseCase) ListAvailability(ctx context.Context, viewerID, ownerID string, from, to timeutil.Date) ([]domain.AvailabilityWindow, error) {
	args := m.Called(ctx, viewerID, ownerID, from, to)
	return args.Get(0).([]domain.AvailabilityWindow), args.Error(1)
}

func (m *MockAvailabilityUseCase) AvailableUnits(ctx context.Context, viewerID, ownerID string, from, to timeutil.Date, viewerZone string) ([]slots.LocalUnit, error) {
	args := m.Called(ctx, viewerID, ownerID, from, to, viewerZone)
	return args.Get(0).([]slots.LocalUnit), args.Error(1)
}
