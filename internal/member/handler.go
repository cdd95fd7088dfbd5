package member

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"gymdesk/internal/api"
	"gymdesk/internal/auth"
	"gymdesk/internal/ledger"
	"gymdesk/internal/plan"
	"gymdesk/internal/session"
	"gymdesk/internal/user"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service       Service
	repo          Repository
	userRepo      user.Repository
	sessionRepo   session.Repository
	ledgerService ledger.Service
}

func NewHandler(service Service, repo Repository, userRepo user.Repository, sessionRepo session.Repository, ledgerService ledger.Service) *Handler {
	return &Handler{
		service:       service,
		repo:          repo,
		userRepo:      userRepo,
		sessionRepo:   sessionRepo,
		ledgerService: ledgerService,
	}
}

// List godoc
// @Summary      List members with derived status
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}  MemberWithStatus
// @Router       /admin/members [get]
func (h *Handler) List(c *gin.Context) {
	members, err := h.service.List(c.Request.Context(), time.Now())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load members"})
		return
	}

	c.JSON(http.StatusOK, members)
}

// Create godoc
// @Summary      Register a new member
// @Tags         admin
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      CreateMemberRequest  true  "Member data"
// @Success      201      {object}  Member
// @Failure      400      {object}  gin.H
// @Router       /admin/members [post]
func (h *Handler) Create(c *gin.Context) {
	var req CreateMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "details": api.BindingErrors(err)})
		return
	}

	m, err := h.service.Create(c.Request.Context(), req, time.Now())
	if err != nil {
		switch {
		case errors.Is(err, plan.ErrInvalidPlan):
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown membership plan"})
		case errors.Is(err, ErrEndBeforeStart):
			c.JSON(http.StatusBadRequest, gin.H{"error": "end date must not be before start date"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create member"})
		}
		return
	}

	c.JSON(http.StatusCreated, m)
}

// Update godoc
// @Summary      Edit a member
// @Tags         admin
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        memberID  path      int                  true  "Member ID"
// @Param        request   body      UpdateMemberRequest  true  "Member data"
// @Success      200       {object}  Member
// @Router       /admin/members/{memberID} [put]
func (h *Handler) Update(c *gin.Context) {
	memberID, err := strconv.Atoi(c.Param("memberID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid member id"})
		return
	}

	var req UpdateMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "details": api.BindingErrors(err)})
		return
	}

	m, err := h.service.Update(c.Request.Context(), memberID, req)
	if err != nil {
		switch {
		case errors.Is(err, ErrMemberNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "member not found"})
		case errors.Is(err, plan.ErrInvalidPlan):
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown membership plan"})
		case errors.Is(err, ErrEndBeforeStart):
			c.JSON(http.StatusBadRequest, gin.H{"error": "end date must not be before start date"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update member"})
		}
		return
	}

	c.JSON(http.StatusOK, m)
}

// Delete godoc
// @Summary      Delete a member and its non-admin login account
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Param        memberID  path  int  true  "Member ID"
// @Success      200  {object}  gin.H
// @Router       /admin/members/{memberID} [delete]
func (h *Handler) Delete(c *gin.Context) {
	memberID, err := strconv.Atoi(c.Param("memberID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid member id"})
		return
	}

	if err := h.service.Delete(c.Request.Context(), memberID); err != nil {
		if errors.Is(err, ErrMemberNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "member not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete member"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "member deleted"})
}

// Renew godoc
// @Summary      Renew a membership from today
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Param        memberID  path  int  true  "Member ID"
// @Success      200  {object}  Member
// @Router       /admin/members/{memberID}/renew [post]
func (h *Handler) Renew(c *gin.Context) {
	memberID, err := strconv.Atoi(c.Param("memberID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid member id"})
		return
	}

	m, err := h.service.Renew(c.Request.Context(), memberID, time.Now())
	if err != nil {
		if errors.Is(err, ErrMemberNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "member not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to renew membership"})
		return
	}

	c.JSON(http.StatusOK, m)
}

// ToggleStatus godoc
// @Summary      Flip the manual inactive flag
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Param        memberID  path  int  true  "Member ID"
// @Success      200  {object}  Member
// @Router       /admin/members/{memberID}/toggle-status [post]
func (h *Handler) ToggleStatus(c *gin.Context) {
	memberID, err := strconv.Atoi(c.Param("memberID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid member id"})
		return
	}

	m, err := h.service.ToggleStatus(c.Request.Context(), memberID)
	if err != nil {
		if errors.Is(err, ErrMemberNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "member not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to toggle member status"})
		return
	}

	c.JSON(http.StatusOK, m)
}

// RemindExpiring godoc
// @Summary      Queue reminder emails for members expiring within 7 days
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  gin.H
// @Router       /admin/members/remind-expiring [post]
func (h *Handler) RemindExpiring(c *gin.Context) {
	sent, err := h.service.RemindExpiring(c.Request.Context(), time.Now())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to send reminders"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"reminders_queued": sent})
}

// Me godoc
// @Summary      The caller's profile, balance, and membership status
// @Tags         me
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  gin.H
// @Router       /me [get]
func (h *Handler) Me(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	ctx := c.Request.Context()

	u, err := h.userRepo.FindByID(ctx, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load profile"})
		return
	}

	resp := gin.H{
		"id":            u.ID,
		"name":          u.Name,
		"email":         u.Email,
		"role":          u.Role,
		"balance_cents": u.BalanceCents,
	}

	if m, err := h.repo.FindByUserID(ctx, userID); err == nil {
		resp["membership"] = gin.H{
			"plan":       m.Plan,
			"start_date": m.StartDate.Format("2006-01-02"),
			"end_date":   m.EndDate.Format("2006-01-02"),
			"status":     m.StatusAt(time.Now()),
		}
	}

	c.JSON(http.StatusOK, resp)
}

// UserSummary godoc
// @Summary      Subscription summary and recent activity for a user
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Param        userID  path  int  true  "User ID"
// @Success      200  {object}  gin.H
// @Router       /admin/users/{userID}/summary [get]
func (h *Handler) UserSummary(c *gin.Context) {
	userID, err := strconv.Atoi(c.Param("userID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	ctx := c.Request.Context()

	u, err := h.userRepo.FindByID(ctx, userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	var subscription gin.H
	if m, err := h.repo.FindByUserID(ctx, userID); err == nil {
		subscription = gin.H{
			"plan":       m.Plan,
			"start_date": m.StartDate.Format("2006-01-02"),
			"end_date":   m.EndDate.Format("2006-01-02"),
			"notes":      m.Notes,
			"status":     m.StatusAt(time.Now()),
			"renewals":   m.Renewals,
		}
	}

	recentSessions, err := h.sessionRepo.ListRecentByUser(ctx, userID, 10)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load sessions"})
		return
	}

	ledgerConsistent := h.ledgerService.VerifyUser(ctx, userID) == nil

	c.JSON(http.StatusOK, gin.H{
		"user": gin.H{
			"id":            u.ID,
			"name":          u.Name,
			"email":         u.Email,
			"balance_cents": u.BalanceCents,
		},
		"subscription":      subscription,
		"recent_sessions":   recentSessions,
		"ledger_consistent": ledgerConsistent,
	})
}
