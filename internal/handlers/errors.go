package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ArowuTest/daily-lottery-backend/internal/services"
)

// respondError maps a service error onto a status code and writes it as the
// response body. Unknown errors are logged and hidden from the client.
func respondError(c *gin.Context, log logrus.FieldLogger, err error) {
	var (
		validation  *services.ValidationError
		conflict    *services.ConflictError
		notFound    *services.NotFoundError
		consistency *services.ConsistencyError
	)

	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusPreconditionFailed, gin.H{"error": validation.Error(), "reasons": validation.Reasons})
	case errors.As(err, &conflict):
		c.JSON(http.StatusConflict, gin.H{"error": conflict.Message})
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{"error": notFound.Message})
	case errors.Is(err, services.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Incorrect username or password"})
	case errors.As(err, &consistency):
		// Already logged with the ballot list by the service.
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": consistency.Error()})
	default:
		_ = c.Error(err)
		log.WithError(err).WithField("path", c.Request.URL.Path).Error("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// respondMalformed rejects a request whose parameters could not be parsed
func respondMalformed(c *gin.Context, err error) {
	c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
}
