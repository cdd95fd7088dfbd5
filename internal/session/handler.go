package session

import (
	"net/http"
	"strconv"
	"time"

	"gymdesk/internal/auth"
	"gymdesk/internal/user"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service  Service
	userRepo user.Repository
}

func NewHandler(service Service, userRepo user.Repository) *Handler {
	return &Handler{service: service, userRepo: userRepo}
}

// Toggle godoc
// @Summary      Time in or out, depending on current state
// @Tags         time
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  ToggleResult
// @Router       /time/toggle [post]
func (h *Handler) Toggle(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	result, err := h.service.Toggle(c.Request.Context(), userID, time.Now())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to toggle session"})
		return
	}

	c.JSON(http.StatusOK, result)
}

// Status godoc
// @Summary      Live attendance status with accrued cost
// @Tags         time
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  StatusResult
// @Router       /time/status [get]
func (h *Handler) Status(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	status, err := h.service.Status(c.Request.Context(), userID, time.Now())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load session status"})
		return
	}

	c.JSON(http.StatusOK, status)
}

// LiveBalance godoc
// @Summary      Stored balance plus live session accrual
// @Tags         time
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  gin.H
// @Router       /time/live-balance [get]
func (h *Handler) LiveBalance(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	ctx := c.Request.Context()

	u, err := h.userRepo.FindByID(ctx, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load balance"})
		return
	}

	status, err := h.service.Status(ctx, userID, time.Now())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load session status"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"balance_cents":      u.BalanceCents,
		"live_credits_cents": status.LiveCreditsCents,
		"projected_cents":    u.BalanceCents + status.LiveCreditsCents,
		"session_active":     status.Active,
	})
}

// MySessions godoc
// @Summary      The caller's sessions for today
// @Tags         time
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}  TimeSession
// @Router       /me/sessions [get]
func (h *Handler) MySessions(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	sessions, err := h.service.SessionsOn(c.Request.Context(), userID, time.Now())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load sessions"})
		return
	}

	c.JSON(http.StatusOK, sessions)
}

// Scan godoc
// @Summary      Toggle attendance for a user at the front desk
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Param        userID  path  int  true  "User ID"
// @Success      200  {object}  ToggleResult
// @Router       /admin/scan/{userID} [post]
func (h *Handler) Scan(c *gin.Context) {
	userID, err := strconv.Atoi(c.Param("userID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	if _, err := h.userRepo.FindByID(c.Request.Context(), userID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	result, err := h.service.Toggle(c.Request.Context(), userID, time.Now())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to toggle session"})
		return
	}

	c.JSON(http.StatusOK, result)
}
