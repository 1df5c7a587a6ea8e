package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kurihiro0119/github-pr-metrics/internal/domain"
	apperrors "github.com/kurihiro0119/github-pr-metrics/internal/errors"
)

// Handler handles API requests
type Handler struct {
	source Source
}

// NewHandler creates a new API handler
func NewHandler(source Source) *Handler {
	return &Handler{
		source: source,
	}
}

// GetStats returns the aggregated statistics
// GET /api/v1/stats
func (h *Handler) GetStats(c *gin.Context) {
	stats, err := h.source.Stats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": stats,
	})
}

// GetMonthlyStats returns the monthly rollups, optionally restricted to
// a range of months
// GET /api/v1/stats/monthly?from=YYYY-MM&until=YYYY-MM
func (h *Handler) GetMonthlyStats(c *gin.Context) {
	from, ok := parseMonthQuery(c, "from")
	if !ok {
		return
	}
	until, ok := parseMonthQuery(c, "until")
	if !ok {
		return
	}

	stats, err := h.source.Stats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	months := make([]domain.MonthlyStats, 0, len(stats.MonthlyStats))
	for _, m := range stats.MonthlyStats {
		if from != "" && m.Month < from {
			continue
		}
		if until != "" && m.Month > until {
			continue
		}
		months = append(months, m)
	}

	c.JSON(http.StatusOK, gin.H{
		"data": months,
	})
}

// ListPRs returns the pull request details
// GET /api/v1/prs?month=YYYY-MM&author=login&limit=N
func (h *Handler) ListPRs(c *gin.Context) {
	month, ok := parseMonthQuery(c, "month")
	if !ok {
		return
	}
	author := c.Query("author")
	limit := parseIntQuery(c, "limit", 0)

	details, err := h.source.Details(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	filtered := make([]domain.PRDetail, 0, len(details))
	for _, d := range details {
		if month != "" && d.Month != month {
			continue
		}
		if author != "" && d.Author != author {
			continue
		}
		filtered = append(filtered, d)
	}

	total := len(filtered)
	if limit > 0 && limit < total {
		filtered = filtered[:limit]
	}

	c.JSON(http.StatusOK, gin.H{
		"data":  filtered,
		"total": total,
	})
}

// GetPR returns one pull request by number
// GET /api/v1/prs/:number
func (h *Handler) GetPR(c *gin.Context) {
	number, err := strconv.Atoi(c.Param("number"))
	if err != nil || number <= 0 {
		respondError(c, apperrors.NewBadRequestError("number must be a positive integer"))
		return
	}

	details, err := h.source.Details(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	for _, d := range details {
		if d.Number == number {
			c.JSON(http.StatusOK, gin.H{
				"data": d,
			})
			return
		}
	}
	respondError(c, apperrors.NewNotFoundError("pull request #"+strconv.Itoa(number), nil))
}

// GetCrawlStatus returns the progress of the checkpointed crawl, if any
// GET /api/v1/crawl/status
func (h *Handler) GetCrawlStatus(c *gin.Context) {
	status, err := h.source.CrawlStatus(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": status,
	})
}

// HealthCheck returns the health status of the API
// GET /health
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// parseIntQuery parses an integer query parameter with a default value
func parseIntQuery(c *gin.Context, key string, defaultValue int) int {
	valueStr := c.Query(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil || value <= 0 {
		return defaultValue
	}
	return value
}

// parseMonthQuery validates a YYYY-MM query parameter. On failure it has
// already written the response.
func parseMonthQuery(c *gin.Context, key string) (string, bool) {
	value := c.Query(key)
	if value == "" {
		return "", true
	}
	if _, err := time.Parse(domain.MonthLayout, value); err != nil {
		respondError(c, apperrors.NewBadRequestError(key+" must be formatted as YYYY-MM"))
		return "", false
	}
	return value, true
}

// respondError sends an error response
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	code := apperrors.CodeOf(err)
	switch code {
	case apperrors.ErrCodeNotFound:
		status = http.StatusNotFound
	case apperrors.ErrCodeUnauthorized:
		status = http.StatusUnauthorized
	case apperrors.ErrCodeBadRequest:
		status = http.StatusBadRequest
	case "":
		code = apperrors.ErrCodeInternal
	}

	message := err.Error()
	if appErr := apperrors.AsAppError(err); appErr != nil {
		message = appErr.Message
	}

	c.JSON(status, gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}
