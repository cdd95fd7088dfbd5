package report

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	repo Repository
}

func NewHandler(repo Repository) *Handler {
	return &Handler{repo: repo}
}

// dateRange reads the from/to query params. Missing values default to the
// trailing year ending now.
func dateRange(c *gin.Context) (time.Time, time.Time, bool) {
	now := time.Now()
	from := now.AddDate(-1, 0, 0)
	to := now

	if s := c.Query("from"); s != "" {
		parsed, err := time.Parse("2006-01-02", s)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from format, use YYYY-MM-DD"})
			return time.Time{}, time.Time{}, false
		}
		from = parsed
	}

	if s := c.Query("to"); s != "" {
		parsed, err := time.Parse("2006-01-02", s)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid to format, use YYYY-MM-DD"})
			return time.Time{}, time.Time{}, false
		}
		// inclusive end of day
		to = parsed.Add(24*time.Hour - time.Nanosecond)
	}

	return from, to, true
}

func (h *Handler) report(c *gin.Context, bucket string) {
	from, to, ok := dateRange(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()

	revenue, err := h.repo.RevenueBy(ctx, bucket, from, to)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch revenue"})
		return
	}

	earnings, err := h.repo.SessionEarningsBy(ctx, bucket, from, to)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch session earnings"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"group_by":         bucket,
		"from":             from.Format("2006-01-02"),
		"to":               to.Format("2006-01-02"),
		"revenue":          revenue,
		"session_earnings": earnings,
	})
}

// Daily godoc
// @Summary      Revenue and session earnings per day
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Param        from  query  string  false  "Start date (YYYY-MM-DD)"
// @Param        to    query  string  false  "End date (YYYY-MM-DD)"
// @Success      200   {object}  gin.H
// @Router       /admin/reports/daily [get]
func (h *Handler) Daily(c *gin.Context) {
	h.report(c, BucketDay)
}

// Monthly godoc
// @Summary      Revenue and session earnings per month
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  gin.H
// @Router       /admin/reports/monthly [get]
func (h *Handler) Monthly(c *gin.Context) {
	h.report(c, BucketMonth)
}

// Annual godoc
// @Summary      Revenue and session earnings per year
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  gin.H
// @Router       /admin/reports/annual [get]
func (h *Handler) Annual(c *gin.Context) {
	h.report(c, BucketYear)
}

// Attendance godoc
// @Summary      Session counts per day
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  gin.H
// @Router       /admin/reports/attendance [get]
func (h *Handler) Attendance(c *gin.Context) {
	from, to, ok := dateRange(c)
	if !ok {
		return
	}

	stats, err := h.repo.AttendanceByDay(c.Request.Context(), from, to)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch attendance"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"from": from.Format("2006-01-02"),
		"to":   to.Format("2006-01-02"),
		"data": stats,
	})
}
