package api

import (
	"net/http"

	"github.com/Domenick1991/matchbooking/internal/domain"
	"github.com/Domenick1991/matchbooking/internal/timeutil"
	"github.com/gin-gonic/gin"
)

type TimezoneHandler struct{}

type convertResponse struct {
	Time      string `json:"time"`
	Date      string `json:"date"`
	DayOffset int    `json:"day_offset"`
	TimeZone  string `json:"timezone"`
}

func NewTimezoneHandler() *TimezoneHandler {
	return &TimezoneHandler{}
}

func (h *TimezoneHandler) Register(router *gin.RouterGroup) {
	router.GET("/convert", h.convert)
}

func (h *TimezoneHandler) convert(c *gin.Context) {
	date, err := timeutil.ParseDate(c.Query("date"))
	if err != nil {
		writeError(c, domain.NewValidationError("date", "%v", err))
		return
	}
	tod, err := timeutil.ParseTimeOfDay(c.Query("time"))
	if err != nil {
		writeError(c, domain.NewValidationError("time", "%v", err))
		return
	}
	to := c.Query("to")
	out, offset, err := timeutil.ConvertTime(tod, c.Query("from"), to, date)
	if err != nil {
		writeError(c, domain.NewValidationError("timezone", "%v", err))
		return
	}
	c.JSON(http.StatusOK, convertResponse{
		Time:      out.String(),
		Date:      date.AddDays(offset).String(),
		DayOffset: offset,
		TimeZone:  to,
	})
}
