package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/subelo/subelo/internal/quota"
	"github.com/subelo/subelo/internal/store"
)

// respondError maps the error taxonomy onto HTTP statuses: validation
// 400, quota/access 403, uniqueness conflicts 409, rate limits 429.
// Quota bodies always carry the numeric limit and the plan tier.
func (a *API) respondError(c *gin.Context, err error) {
	var ve *quota.ValidationError
	var qe *quota.QuotaError
	var ce *quota.ConflictError
	var ae *quota.AccessError
	var rle *quota.RateLimitError

	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{"error": ve.Msg})
	case errors.As(err, &qe):
		c.JSON(http.StatusForbidden, gin.H{
			"error": qe.Msg,
			"plan":  string(qe.Plan),
			"limit": qe.Limit,
		})
	case errors.As(err, &ce):
		c.JSON(http.StatusConflict, gin.H{"error": ce.Msg})
	case errors.As(err, &ae):
		c.JSON(http.StatusForbidden, gin.H{"error": ae.Msg})
	case errors.As(err, &rle):
		c.Header("Retry-After", strconv.Itoa(rle.RetryAfter))
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error": rle.Msg,
			"limit": rle.Limit,
		})
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	default:
		a.logger.Printf("internal error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// notFound hides a resource from non-owners: same body as a miss.
func notFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
}
