package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ArowuTest/daily-lottery-backend/internal/middleware"
	"github.com/ArowuTest/daily-lottery-backend/internal/services"
)

// UserHandler handles user-related HTTP requests
type UserHandler struct {
	userService *services.UserService
	log         logrus.FieldLogger
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userService *services.UserService, log logrus.FieldLogger) *UserHandler {
	return &UserHandler{
		userService: userService,
		log:         log,
	}
}

// GetMe handles GET /user/me
func (h *UserHandler) GetMe(c *gin.Context) {
	user, err := h.userService.GetUserByID(c.Request.Context(), c.GetString(middleware.ContextUserID))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, user.Output())
}
