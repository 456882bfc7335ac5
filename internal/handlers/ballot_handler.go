package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ArowuTest/daily-lottery-backend/internal/middleware"
	"github.com/ArowuTest/daily-lottery-backend/internal/models"
	"github.com/ArowuTest/daily-lottery-backend/internal/services"
	"github.com/ArowuTest/daily-lottery-backend/internal/utils"
)

// BallotHandler handles ballot lifecycle HTTP requests
type BallotHandler struct {
	ballotService services.BallotService
	log           logrus.FieldLogger
}

// NewBallotHandler creates a new BallotHandler
func NewBallotHandler(ballotService services.BallotService, log logrus.FieldLogger) *BallotHandler {
	return &BallotHandler{
		ballotService: ballotService,
		log:           log,
	}
}

// dateQuery reads the required date query parameter
func dateQuery(c *gin.Context) (time.Time, error) {
	raw, ok := c.GetQuery("date")
	if !ok || raw == "" {
		return time.Time{}, errors.New("query parameter 'date' is required")
	}
	return utils.ParseDate(raw)
}

// Submit handles POST /ballot/submit?ballot=&date=
func (h *BallotHandler) Submit(c *gin.Context) {
	ballot, ok := c.GetQuery("ballot")
	if !ok {
		respondMalformed(c, errors.New("query parameter 'ballot' is required"))
		return
	}
	date, err := dateQuery(c)
	if err != nil {
		respondMalformed(c, err)
		return
	}

	result, err := h.ballotService.Submit(c.Request.Context(), c.GetString(middleware.ContextUserID), ballot, date)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// List handles GET /ballot/list?date=
func (h *BallotHandler) List(c *gin.Context) {
	date, err := dateQuery(c)
	if err != nil {
		respondMalformed(c, err)
		return
	}

	ballots, err := h.ballotService.List(c.Request.Context(), date)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, ballots)
}

// Winner handles GET /ballot/winner?date=
func (h *BallotHandler) Winner(c *gin.Context) {
	date, err := dateQuery(c)
	if err != nil {
		respondMalformed(c, err)
		return
	}

	result, err := h.ballotService.Winner(c.Request.Context(), date)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// State handles GET /ballot/state?date=
func (h *BallotHandler) State(c *gin.Context) {
	date, err := dateQuery(c)
	if err != nil {
		respondMalformed(c, err)
		return
	}

	state, err := h.ballotService.DayState(c.Request.Context(), date)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, models.DayStatus{Date: utils.FormatDate(date), State: state})
}

// Draw handles POST /admin/draw?date=, finalizing a closed day the scheduler
// missed. Drawing an already drawn day changes nothing.
func (h *BallotHandler) Draw(c *gin.Context) {
	date, err := dateQuery(c)
	if err != nil {
		respondMalformed(c, err)
		return
	}

	outcome, err := h.ballotService.Finalize(c.Request.Context(), date)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	h.log.WithFields(logrus.Fields{
		"date":         utils.FormatDate(date),
		"admin":        c.GetString(middleware.ContextUsername),
		"participants": outcome.Participants,
	}).Info("manual draw executed")
	c.JSON(http.StatusOK, outcome)
}
