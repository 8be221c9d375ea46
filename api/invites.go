package api

import (
	"net/http"

	"github.com/Domenick1991/matchbooking/internal/domain"
	"github.com/Domenick1991/matchbooking/internal/service/invite"
	"github.com/gin-gonic/gin"
)

type InviteHandler struct {
	service invite.InviteUseCase
}

type respondRequest struct {
	Response domain.InviteResponse `json:"response"`
}

type cancelInviteRequest struct {
	Reason string `json:"reason"`
}

// inviteResponse adds what the caller may do next.
type inviteResponse struct {
	*domain.Invite
	AvailableActions []domain.InviteAction `json:"available_actions"`
}

func NewInviteHandler(service invite.InviteUseCase) *InviteHandler {
	return &InviteHandler{service: service}
}

func (h *InviteHandler) Register(router *gin.RouterGroup) {
	router.POST("", h.send)
	router.GET("", h.list)
	router.GET("/:id", h.get)
	router.POST("/:id/respond", h.respond)
	router.POST("/:id/reschedule", h.reschedule)
	router.POST("/:id/cancel", h.cancel)
}

func (h *InviteHandler) send(c *gin.Context) {
	var req invite.SendInviteInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	inv, err := h.service.SendInvite(c.Request.Context(), callerID(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, h.view(c, inv))
}

func (h *InviteHandler) list(c *gin.Context) {
	var statuses []domain.InviteStatus
	for _, s := range splitQuery(c.Query("status")) {
		statuses = append(statuses, domain.InviteStatus(s))
	}
	invites, err := h.service.ListInvites(c.Request.Context(), callerID(c), statuses)
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]inviteResponse, 0, len(invites))
	for i := range invites {
		out = append(out, h.view(c, &invites[i]))
	}
	c.JSON(http.StatusOK, out)
}

func (h *InviteHandler) get(c *gin.Context) {
	inv, err := h.service.GetInvite(c.Request.Context(), callerID(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.view(c, inv))
}

func (h *InviteHandler) respond(c *gin.Context) {
	var req respondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	inv, err := h.service.RespondToInvite(c.Request.Context(), callerID(c), c.Param("id"), req.Response)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.view(c, inv))
}

func (h *InviteHandler) reschedule(c *gin.Context) {
	var req invite.RescheduleInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	inv, err := h.service.ProposeReschedule(c.Request.Context(), callerID(c), c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.view(c, inv))
}

// cancel accepts an empty body.
func (h *InviteHandler) cancel(c *gin.Context) {
	var req cancelInviteRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}
	inv, err := h.service.CancelInvite(c.Request.Context(), callerID(c), c.Param("id"), req.Reason)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.view(c, inv))
}

func (h *InviteHandler) view(c *gin.Context, inv *domain.Invite) inviteResponse {
	actions := h.service.AvailableActions(inv, callerID(c))
	if actions == nil {
		actions = []domain.InviteAction{}
	}
	return inviteResponse{Invite: inv, AvailableActions: actions}
}
