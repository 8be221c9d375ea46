package api

import (
	"net/http"

	"github.com/Domenick1991/matchbooking/internal/domain"
	"github.com/Domenick1991/matchbooking/internal/service/availability"
	"github.com/Domenick1991/matchbooking/internal/timeutil"
	"github.com/gin-gonic/gin"
)

type AvailabilityHandler struct {
	service availability.AvailabilityUseCase
}

func NewAvailabilityHandler(service availability.AvailabilityUseCase) *AvailabilityHandler {
	return &AvailabilityHandler{service: service}
}

// Register mounts owner writes on windows and the per-user read routes on users.
func (h *AvailabilityHandler) Register(windows, users *gin.RouterGroup) {
	windows.POST("", h.create)
	windows.PUT("/:id", h.update)
	windows.DELETE("/:id", h.delete)

	users.GET("/:id/availability", h.list)
	users.GET("/:id/slots", h.slots)
}

func (h *AvailabilityHandler) create(c *gin.Context) {
	var req availability.WindowInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	w, err := h.service.CreateWindow(c.Request.Context(), callerID(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, w)
}

func (h *AvailabilityHandler) update(c *gin.Context) {
	var req availability.WindowInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	w, err := h.service.UpdateWindow(c.Request.Context(), callerID(c), c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, w)
}

func (h *AvailabilityHandler) delete(c *gin.Context) {
	if err := h.service.DeleteWindow(c.Request.Context(), callerID(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *AvailabilityHandler) list(c *gin.Context) {
	from, to, err := dateRange(c)
	if err != nil {
		writeError(c, err)
		return
	}
	windows, err := h.service.ListAvailability(c.Request.Context(), callerID(c), c.Param("id"), from, to)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, windows)
}

func (h *AvailabilityHandler) slots(c *gin.Context) {
	from, to, err := dateRange(c)
	if err != nil {
		writeError(c, err)
		return
	}
	units, err := h.service.AvailableUnits(c.Request.Context(), callerID(c), c.Param("id"), from, to, c.Query("tz"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, units)
}

// dateRange reads from and to. A missing to means the same day as from.
func dateRange(c *gin.Context) (timeutil.Date, timeutil.Date, error) {
	from, err := timeutil.ParseDate(c.Query("from"))
	if err != nil {
		return timeutil.Date{}, timeutil.Date{}, domain.NewValidationError("from", "%v", err)
	}
	to := from
	if raw := c.Query("to"); raw != "" {
		if to, err = timeutil.ParseDate(raw); err != nil {
			return timeutil.Date{}, timeutil.Date{}, domain.NewValidationError("to", "%v", err)
		}
	}
	return from, to, nil
}
