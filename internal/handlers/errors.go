package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"storefront/internal/apperr"
)

// respondError maps a typed error onto a status and body. Storage failures are logged
// with their cause and answered with a message that names no internals.
func respondError(c *gin.Context, log zerolog.Logger, err error) {
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		body := gin.H{"success": false, "error": err.Error()}
		if f := apperr.FieldOf(err); f != "" {
			body["field"] = f
		}
		c.JSON(http.StatusBadRequest, body)
	case apperr.KindNotFound:
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": err.Error()})
	case apperr.KindConflict:
		c.JSON(http.StatusConflict, gin.H{"success": false, "error": err.Error()})
	default:
		log.Error().Err(err).
			Str("request_id", c.GetString(requestIDKey)).
			Str("path", c.Request.URL.Path).
			Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "internal server error"})
	}
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": message})
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid id", "field": "id"})
		return 0, false
	}
	return id, true
}
