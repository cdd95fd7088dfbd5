package ledger

import (
	"errors"
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
	return &Handler{
		service:  service,
		userRepo: userRepo,
	}
}

// AmountCents is a pointer so that "set to zero" survives binding.
type UpdateBalanceRequest struct {
	AmountCents *int64 `json:"amount_cents" binding:"required,gte=0"`
	Action      string `json:"action" binding:"required,oneof=set add subtract"`
	LogType     string `json:"log_type" binding:"omitempty,max=50"`
	Description string `json:"description" binding:"omitempty,max=255"`
}

type MarkPaidRequest struct {
	EntryIDs    []int64 `json:"entry_ids" binding:"required,min=1"`
	Description string  `json:"description" binding:"omitempty,max=255"`
}

type TransactionRequest struct {
	UserID      int    `json:"user_id" binding:"required"`
	AmountCents int64  `json:"amount_cents" binding:"required,gt=0"`
	Description string `json:"description" binding:"required,max=255"`
}

// ListBalances godoc
// @Summary      List member balances
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}  user.User
// @Router       /admin/balances [get]
func (h *Handler) ListBalances(c *gin.Context) {
	users, err := h.userRepo.ListMembers(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load balances"})
		return
	}

	c.JSON(http.StatusOK, users)
}

// UpdateBalance godoc
// @Summary      Set, add to, or subtract from a user's balance
// @Tags         admin
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        userID   path      int                   true  "User ID"
// @Param        request  body      UpdateBalanceRequest  true  "Balance operation"
// @Success      200      {object}  gin.H
// @Failure      400      {object}  gin.H
// @Failure      422      {object}  gin.H
// @Router       /admin/users/{userID}/balance [post]
func (h *Handler) UpdateBalance(c *gin.Context) {
	userID, err := strconv.Atoi(c.Param("userID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	var req UpdateBalanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()

	amount := *req.AmountCents

	var entry *BalanceLog
	switch req.Action {
	case "set":
		entry, err = h.service.SetBalance(ctx, userID, amount, req.LogType, orDefault(req.Description, "Admin set balance"))
	case "add":
		entry, err = h.service.AddBalance(ctx, userID, amount, req.LogType, orDefault(req.Description, "Admin added to balance"))
	case "subtract":
		entry, err = h.service.SubtractBalance(ctx, userID, amount, req.LogType, orDefault(req.Description, "Admin deducted from balance"))
	}

	if err != nil {
		switch {
		case errors.Is(err, ErrInsufficientBalance):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "insufficient balance for this operation"})
		case errors.Is(err, ErrAmountNotPositive):
			c.JSON(http.StatusBadRequest, gin.H{"error": "amount must be positive"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update balance"})
		}
		return
	}

	u, err := h.userRepo.FindByID(ctx, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load user after update"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":       "balance updated",
		"balance_cents": u.BalanceCents,
		"entry":         entry,
	})
}

// Outstanding godoc
// @Summary      Unpaid purchase entries for a user
// @Description  Positive entries since the user's most recent mark_paid row.
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Param        userID  path      int  true  "User ID"
// @Success      200     {array}   BalanceLog
// @Router       /admin/users/{userID}/balance-logs [get]
func (h *Handler) Outstanding(c *gin.Context) {
	userID, err := strconv.Atoi(c.Param("userID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	logs, err := h.service.Outstanding(c.Request.Context(), userID, time.Now())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load balance logs"})
		return
	}

	c.JSON(http.StatusOK, logs)
}

// MarkPaid godoc
// @Summary      Mark selected outstanding entries as paid
// @Tags         admin
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        userID   path      int              true  "User ID"
// @Param        request  body      MarkPaidRequest  true  "Selected entries"
// @Success      200      {object}  gin.H
// @Failure      422      {object}  gin.H
// @Router       /admin/users/{userID}/mark-paid [post]
func (h *Handler) MarkPaid(c *gin.Context) {
	userID, err := strconv.Atoi(c.Param("userID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	var req MarkPaidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entry, err := h.service.MarkPaid(c.Request.Context(), userID, req.EntryIDs, req.Description)
	if err != nil {
		switch {
		case errors.Is(err, ErrInsufficientBalance):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "insufficient balance for this operation"})
		case errors.Is(err, ErrEntryNotFound):
			c.JSON(http.StatusBadRequest, gin.H{"error": "one or more selected entries are invalid"})
		case errors.Is(err, ErrNoEntriesSelected):
			c.JSON(http.StatusBadRequest, gin.H{"error": "no entries selected"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record payment"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "payment recorded",
		"entry":   entry,
	})
}

// StoreTransaction godoc
// @Summary      Record a purchase that increases a member's balance
// @Tags         admin
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      TransactionRequest  true  "Purchase"
// @Success      201      {object}  BalanceLog
// @Router       /admin/transactions [post]
func (h *Handler) StoreTransaction(c *gin.Context) {
	var req TransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entry, err := h.service.AddBalance(c.Request.Context(), req.UserID, req.AmountCents, TypePurchase, req.Description)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record transaction"})
		return
	}

	c.JSON(http.StatusCreated, entry)
}

// MyBalanceLogs godoc
// @Summary      Balance history of the authenticated member
// @Tags         member
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}  BalanceLog
// @Router       /me/balance-logs [get]
func (h *Handler) MyBalanceLogs(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	logs, err := h.service.History(c.Request.Context(), userID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load balance logs"})
		return
	}

	c.JSON(http.StatusOK, logs)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
