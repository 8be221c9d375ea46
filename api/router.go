package api

import (
	"log/slog"
	"net/http"

	"github.com/Domenick1991/matchbooking/internal/service/availability"
	"github.com/Domenick1991/matchbooking/internal/service/booking"
	"github.com/Domenick1991/matchbooking/internal/service/invite"
	"github.com/gin-gonic/gin"
)

type Services struct {
	Availability availability.AvailabilityUseCase
	Bookings     booking.BookingUseCase
	Invites      invite.InviteUseCase
}

// NewRouter builds the gin engine with every route mounted under /api/v1.
// The timezone converter is public; everything else needs a caller id.
func NewRouter(logger *slog.Logger, services Services) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), AccessLog(logger))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")
	NewTimezoneHandler().Register(v1.Group("/timezones"))

	authed := v1.Group("", Identity())
	NewAvailabilityHandler(services.Availability).Register(authed.Group("/availability"), authed.Group("/users"))
	NewBookingHandler(services.Bookings).Register(authed.Group("/bookings"))
	NewInviteHandler(services.Invites).Register(authed.Group("/invites"))
	return router
}
