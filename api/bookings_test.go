package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Domenick1991/matchbooking/internal/domain"
	"github.com/Domenick1991/matchbooking/internal/logging"
	"github.com/Domenick1991/matchbooking/internal/service/booking"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestRouter(bookings *MockBookingUseCase, invites *MockInviteUseCase, windows *MockAvailabilityUseCase) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return NewRouter(logging.Discard(), Services{Availability: windows, Bookings: bookings, Invites: invites})
}

func doRequest(router http.Handler, method, path, userID string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set(UserIDHeader, userID)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var resp errorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestBookingHandler_create(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewBookingHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set(userIDKey, "alice")

	input := booking.CreateBookingInput{
		OpponentID: "bob",
		Date:       "2024-03-10",
		StartTime:  "09:00",
		EndTime:    "10:00",
		TimeZone:   "America/New_York",
		Location:   "Court 1",
	}
	body, _ := json.Marshal(input)
	c.Request = httptest.NewRequest("POST", "/api/v1/bookings", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	created := &domain.Booking{
		ID:          "b-1",
		RequesterID: "alice",
		OpponentID:  "bob",
		Status:      domain.BookingStatusPending,
		Location:    "Court 1",
	}
	mockService.On("CreateBooking", c.Request.Context(), "alice", input).Return(created, nil)

	handler.create(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	var response domain.Booking
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "b-1", response.ID)
	assert.Equal(t, domain.BookingStatusPending, response.Status)
	assert.Equal(t, "Court 1", response.Location)
	mockService.AssertExpectations(t)
}

func TestBookingHandler_createMalformedJSON(t *testing.T) {
	handler := NewBookingHandler(&MockBookingUseCase{})

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("POST", "/api/v1/bookings", bytes.NewBufferString("{"))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.create(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, codeValidation, decodeError(t, w).Code)
}

func TestBookingRoutes_errorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{
			name:   "validation",
			err:    domain.NewValidationError("start_time", "bad"),
			status: http.StatusBadRequest,
			code:   "validation_error",
		},
		{
			name:   "slot taken",
			err:    &domain.ConflictError{Reason: domain.ConflictSlotTaken, UserID: "bob"},
			status: http.StatusConflict,
			code:   "slot_taken",
		},
		{
			name:   "outside availability",
			err:    &domain.ConflictError{Reason: domain.ConflictOutsideAvailability, UserID: "bob"},
			status: http.StatusConflict,
			code:   "outside_availability",
		},
		{
			name:   "concurrent update",
			err:    &domain.ConflictError{Reason: domain.ConflictConcurrentUpdate},
			status: http.StatusConflict,
			code:   "concurrent_update",
		},
		{
			name:   "terminal state",
			err:    &domain.InvalidStateTransition{Entity: "booking", ID: "b-1", From: "declined", Attempted: "accept", Reason: domain.ReasonIllegalState},
			status: http.StatusConflict,
			code:   "invalid_state_transition",
		},
		{
			name:   "wrong actor",
			err:    &domain.InvalidStateTransition{Entity: "booking", ID: "b-1", From: "pending", Attempted: "accept", Reason: domain.ReasonWrongActor},
			status: http.StatusForbidden,
			code:   "forbidden_actor",
		},
		{
			name:   "missing booking",
			err:    &domain.InvalidStateTransition{Entity: "booking", ID: "b-1", From: "absent", Attempted: "accept", Reason: domain.ReasonNotFound, Err: domain.ErrNotFound},
			status: http.StatusNotFound,
			code:   "not_found",
		},
		{
			name:   "reschedule limit",
			err:    &domain.RescheduleLimitExceeded{Entity: "booking", ID: "b-1", Limit: 3},
			status: http.StatusUnprocessableEntity,
			code:   "reschedule_limit_exceeded",
		},
		{
			name:   "infrastructure",
			err:    errors.New("connection refused"),
			status: http.StatusInternalServerError,
			code:   "internal_error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bookings := &MockBookingUseCase{}
			router := newTestRouter(bookings, &MockInviteUseCase{}, &MockAvailabilityUseCase{})
			bookings.On("AcceptBooking", mock.Anything, "bob", "b-1").Return(nil, tt.err)

			w := doRequest(router, http.MethodPost, "/api/v1/bookings/b-1/accept", "bob", nil)

			assert.Equal(t, tt.status, w.Code)
			resp := decodeError(t, w)
			assert.Equal(t, tt.code, resp.Code)
			if tt.status == http.StatusInternalServerError {
				assert.NotContains(t, resp.Error, "connection refused")
			}
		})
	}
}

func TestBookingRoutes_requireIdentity(t *testing.T) {
	bookings := &MockBookingUseCase{}
	router := newTestRouter(bookings, &MockInviteUseCase{}, &MockAvailabilityUseCase{})

	w := doRequest(router, http.MethodGet, "/api/v1/bookings", "", nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, codeUnauthenticated, decodeError(t, w).Code)
	bookings.AssertNotCalled(t, "ListBookings", mock.Anything, mock.Anything, mock.Anything)
}

func TestBookingRoutes_listStatuses(t *testing.T) {
	bookings := &MockBookingUseCase{}
	router := newTestRouter(bookings, &MockInviteUseCase{}, &MockAvailabilityUseCase{})
	want := []domain.BookingStatus{domain.BookingStatusPending, domain.BookingStatusConfirmed}
	bookings.On("ListBookings", mock.Anything, "alice", want).Return([]domain.Booking{{ID: "b-1"}}, nil)

	w := doRequest(router, http.MethodGet, "/api/v1/bookings?status=pending,%20confirmed", "alice", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp []domain.Booking
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp, 1)
	bookings.AssertExpectations(t)
}

func TestBookingRoutes_propose(t *testing.T) {
	bookings := &MockBookingUseCase{}
	router := newTestRouter(bookings, &MockInviteUseCase{}, &MockAvailabilityUseCase{})
	input := booking.TimeInput{Date: "2024-03-10", StartTime: "10:00", EndTime: "11:00", TimeZone: "America/New_York"}
	bookings.On("ProposeNewTime", mock.Anything, "bob", "b-1", input).
		Return(&domain.Booking{ID: "b-1", RescheduleCount: 1, Status: domain.BookingStatusPending}, nil)

	w := doRequest(router, http.MethodPost, "/api/v1/bookings/b-1/propose", "bob", input)

	assert.Equal(t, http.StatusOK, w.Code)
	bookings.AssertExpectations(t)
}

func TestBookingRoutes_transitions(t *testing.T) {
	routes := map[string]string{
		"accept":          "AcceptBooking",
		"decline":         "DeclineBooking",
		"cancel":          "CancelBooking",
		"accept-proposal": "AcceptProposedTime",
	}
	for path, method := range routes {
		t.Run(path, func(t *testing.T) {
			bookings := &MockBookingUseCase{}
			router := newTestRouter(bookings, &MockInviteUseCase{}, &MockAvailabilityUseCase{})
			bookings.On(method, mock.Anything, "alice", "b-9").Return(&domain.Booking{ID: "b-9"}, nil).Once()

			w := doRequest(router, http.MethodPost, "/api/v1/bookings/b-9/"+path, "alice", nil)

			assert.Equal(t, http.StatusOK, w.Code)
			bookings.AssertExpectations(t)
		})
	}
}

func TestBookingRoutes_batch(t *testing.T) {
	bookings := &MockBookingUseCase{}
	router := newTestRouter(bookings, &MockInviteUseCase{}, &MockAvailabilityUseCase{})
	slots := []booking.CreateBookingInput{
		{OpponentID: "bob", Date: "2024-03-10", StartTime: "09:00", EndTime: "10:00", TimeZone: "UTC"},
		{OpponentID: "bob", Date: "2024-03-10", StartTime: "10:00", EndTime: "11:00", TimeZone: "UTC"},
	}
	bookings.On("CreateBookings", mock.Anything, "alice", slots).Return([]booking.SlotOutcome{
		{Index: 0, Input: slots[0], Booking: &domain.Booking{ID: "b-1"}},
		{Index: 1, Input: slots[1], Err: &domain.ConflictError{Reason: domain.ConflictSlotTaken, UserID: "bob"}},
	})

	w := doRequest(router, http.MethodPost, "/api/v1/bookings/batch", "alice", batchBookingRequest{Slots: slots})

	assert.Equal(t, http.StatusMultiStatus, w.Code)
	var resp batchBookingResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Created)
	assert.Equal(t, 1, resp.Failed)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, "b-1", resp.Results[0].Booking.ID)
	assert.Nil(t, resp.Results[0].Error)
	assert.Equal(t, "slot_taken", resp.Results[1].Error.Code)
}

func TestBookingRoutes_batchRejectsEmpty(t *testing.T) {
	bookings := &MockBookingUseCase{}
	router := newTestRouter(bookings, &MockInviteUseCase{}, &MockAvailabilityUseCase{})

	w := doRequest(router, http.MethodPost, "/api/v1/bookings/batch", "alice", batchBookingRequest{})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "slots", decodeError(t, w).Field)
}
