package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/Domenick1991/matchbooking/internal/domain"
	"github.com/Domenick1991/matchbooking/internal/service/invite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func pendingInvite() *domain.Invite {
	return &domain.Invite{ID: "inv-1", SenderID: "alice", ReceiverID: "bob", Status: domain.InviteStatusPending}
}

func TestInviteRoutes_send(t *testing.T) {
	invites := &MockInviteUseCase{}
	router := newTestRouter(&MockBookingUseCase{}, invites, &MockAvailabilityUseCase{})
	input := invite.SendInviteInput{ReceiverID: "bob", Date: "2024-06-01", StartTime: "18:00", EndTime: "19:00", TimeZone: "Europe/Berlin"}
	invites.On("SendInvite", mock.Anything, "alice", input).Return(pendingInvite(), nil)

	w := doRequest(router, http.MethodPost, "/api/v1/invites", "alice", input)

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp struct {
		ID               string   `json:"id"`
		Status           string   `json:"status"`
		AvailableActions []string `json:"available_actions"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "inv-1", resp.ID)
	assert.Equal(t, "pending", resp.Status)
	assert.Equal(t, []string{"propose_reschedule", "cancel"}, resp.AvailableActions)
	invites.AssertExpectations(t)
}

func TestInviteRoutes_respond(t *testing.T) {
	invites := &MockInviteUseCase{}
	router := newTestRouter(&MockBookingUseCase{}, invites, &MockAvailabilityUseCase{})
	accepted := pendingInvite()
	accepted.Status = domain.InviteStatusAccepted
	invites.On("RespondToInvite", mock.Anything, "bob", "inv-1", domain.InviteResponseAccepted).Return(accepted, nil)

	w := doRequest(router, http.MethodPost, "/api/v1/invites/inv-1/respond", "bob", respondRequest{Response: domain.InviteResponseAccepted})

	assert.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Status           string   `json:"status"`
		AvailableActions []string `json:"available_actions"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "accepted", resp.Status)
	assert.Empty(t, resp.AvailableActions)
}

func TestInviteRoutes_rescheduleLimit(t *testing.T) {
	invites := &MockInviteUseCase{}
	router := newTestRouter(&MockBookingUseCase{}, invites, &MockAvailabilityUseCase{})
	input := invite.RescheduleInput{Date: "2024-06-01", StartTime: "20:00", EndTime: "21:00", TimeZone: "Europe/Berlin"}
	invites.On("ProposeReschedule", mock.Anything, "bob", "inv-1", input).
		Return(nil, &domain.RescheduleLimitExceeded{Entity: "invite", ID: "inv-1", Limit: 3})

	w := doRequest(router, http.MethodPost, "/api/v1/invites/inv-1/reschedule", "bob", input)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, codeRescheduleLimit, decodeError(t, w).Code)
}

func TestInviteRoutes_cancel(t *testing.T) {
	t.Run("with reason", func(t *testing.T) {
		invites := &MockInviteUseCase{}
		router := newTestRouter(&MockBookingUseCase{}, invites, &MockAvailabilityUseCase{})
		cancelled := pendingInvite()
		cancelled.Status = domain.InviteStatusCancelled
		invites.On("CancelInvite", mock.Anything, "alice", "inv-1", "injury").Return(cancelled, nil)

		w := doRequest(router, http.MethodPost, "/api/v1/invites/inv-1/cancel", "alice", cancelInviteRequest{Reason: "injury"})

		assert.Equal(t, http.StatusOK, w.Code)
		invites.AssertExpectations(t)
	})

	t.Run("empty body", func(t *testing.T) {
		invites := &MockInviteUseCase{}
		router := newTestRouter(&MockBookingUseCase{}, invites, &MockAvailabilityUseCase{})
		invites.On("CancelInvite", mock.Anything, "bob", "inv-1", "").
			Return(nil, &domain.InvalidStateTransition{Entity: "invite", ID: "inv-1", From: "pending", Attempted: "cancel", Reason: domain.ReasonWrongActor})

		w := doRequest(router, http.MethodPost, "/api/v1/invites/inv-1/cancel", "bob", nil)

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, codeForbiddenActor, decodeError(t, w).Code)
	})
}

func TestInviteRoutes_getHidden(t *testing.T) {
	invites := &MockInviteUseCase{}
	router := newTestRouter(&MockBookingUseCase{}, invites, &MockAvailabilityUseCase{})
	invites.On("GetInvite", mock.Anything, "mallory", "inv-1").Return(nil, domain.ErrNotFound)

	w := doRequest(router, http.MethodGet, "/api/v1/invites/inv-1", "mallory", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
