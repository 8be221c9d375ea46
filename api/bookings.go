package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/Domenick1991/matchbooking/internal/domain"
	"github.com/Domenick1991/matchbooking/internal/service/booking"
	"github.com/gin-gonic/gin"
)

const maxBatchSlots = 20

type BookingHandler struct {
	service booking.BookingUseCase
}

type batchBookingRequest struct {
	Slots []booking.CreateBookingInput `json:"slots"`
}

type slotOutcomeResponse struct {
	Index   int             `json:"index"`
	Booking *domain.Booking `json:"booking,omitempty"`
	Error   *errorResponse  `json:"error,omitempty"`
}

type batchBookingResponse struct {
	Created int                   `json:"created"`
	Failed  int                   `json:"failed"`
	Results []slotOutcomeResponse `json:"results"`
}

func NewBookingHandler(service booking.BookingUseCase) *BookingHandler {
	return &BookingHandler{service: service}
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.POST("", h.create)
	router.POST("/batch", h.createBatch)
	router.GET("", h.list)
	router.GET("/:id", h.get)
	router.POST("/:id/accept", h.accept)
	router.POST("/:id/decline", h.decline)
	router.POST("/:id/cancel", h.cancel)
	router.POST("/:id/propose", h.propose)
	router.POST("/:id/accept-proposal", h.acceptProposal)
}

func (h *BookingHandler) create(c *gin.Context) {
	var req booking.CreateBookingInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	b, err := h.service.CreateBooking(c.Request.Context(), callerID(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

// createBatch answers 207 when some slots failed, 201 when all succeeded.
func (h *BookingHandler) createBatch(c *gin.Context) {
	var req batchBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if len(req.Slots) == 0 || len(req.Slots) > maxBatchSlots {
		writeError(c, domain.NewValidationError("slots", "must contain between 1 and %d entries", maxBatchSlots))
		return
	}

	outcomes := h.service.CreateBookings(c.Request.Context(), callerID(c), req.Slots)
	resp := batchBookingResponse{Results: make([]slotOutcomeResponse, 0, len(outcomes))}
	for _, o := range outcomes {
		item := slotOutcomeResponse{Index: o.Index, Booking: o.Booking}
		if o.Err != nil {
			_, code := classify(o.Err)
			item.Error = &errorResponse{Code: code, Error: o.Err.Error()}
			resp.Failed++
		} else {
			resp.Created++
		}
		resp.Results = append(resp.Results, item)
	}

	status := http.StatusCreated
	if resp.Failed > 0 {
		status = http.StatusMultiStatus
	}
	c.JSON(status, resp)
}

func (h *BookingHandler) list(c *gin.Context) {
	var statuses []domain.BookingStatus
	for _, s := range splitQuery(c.Query("status")) {
		statuses = append(statuses, domain.BookingStatus(s))
	}
	bookings, err := h.service.ListBookings(c.Request.Context(), callerID(c), statuses)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, bookings)
}

func (h *BookingHandler) get(c *gin.Context) {
	b, err := h.service.GetBooking(c.Request.Context(), callerID(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *BookingHandler) accept(c *gin.Context) {
	h.transition(c, h.service.AcceptBooking)
}

func (h *BookingHandler) decline(c *gin.Context) {
	h.transition(c, h.service.DeclineBooking)
}

func (h *BookingHandler) cancel(c *gin.Context) {
	h.transition(c, h.service.CancelBooking)
}

func (h *BookingHandler) acceptProposal(c *gin.Context) {
	h.transition(c, h.service.AcceptProposedTime)
}

func (h *BookingHandler) propose(c *gin.Context) {
	var req booking.TimeInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	b, err := h.service.ProposeNewTime(c.Request.Context(), callerID(c), c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *BookingHandler) transition(c *gin.Context, op func(ctx context.Context, actorID, id string) (*domain.Booking, error)) {
	b, err := op(c.Request.Context(), callerID(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func splitQuery(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
