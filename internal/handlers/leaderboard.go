package handlers

import (
	"errors"
	"log"
	"net/http"

	"hackbutton/internal/leaderboard"
	"hackbutton/internal/metrics"
	"hackbutton/pkg/models"

	"github.com/gin-gonic/gin"
)

// LeaderboardHandler handles leaderboard-related requests
type LeaderboardHandler struct {
	service *leaderboard.Service
	metrics *metrics.Manager
}

// NewLeaderboardHandler creates a new leaderboard handler. metricsManager
// may be nil when metrics are disabled.
func NewLeaderboardHandler(service *leaderboard.Service, metricsManager *metrics.Manager) *LeaderboardHandler {
	return &LeaderboardHandler{
		service: service,
		metrics: metricsManager,
	}
}

// SubmitScore handles POST /api/leaderboard
func (h *LeaderboardHandler) SubmitScore(c *gin.Context) {
	var req models.SubmitScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.recordSubmission(req.IsHardMode, metrics.OutcomeInvalid)
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Invalid input"})
		return
	}

	entry, err := h.service.Submit(req.Nickname, req.Score, req.IsHardMode)
	if err != nil {
		var notImproved *models.ScoreNotImprovedError
		switch {
		case leaderboard.IsInvalidInput(err):
			h.recordSubmission(req.IsHardMode, metrics.OutcomeInvalid)
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Invalid input"})
		case errors.As(err, &notImproved):
			// The message carries the standing high score for display.
			h.recordSubmission(req.IsHardMode, metrics.OutcomeRejected)
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: notImproved.Error()})
		default:
			log.Printf("Error submitting score: %v", err)
			h.recordSubmission(req.IsHardMode, metrics.OutcomeError)
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "Failed to submit score"})
		}
		return
	}

	h.recordSubmission(req.IsHardMode, metrics.OutcomeAccepted)
	c.JSON(http.StatusOK, entry)
}

// GetLeaderboard handles GET /api/leaderboard and GET /api/leaderboard/:mode.
// The literal "hard" selects the hard board; anything else the normal one.
func (h *LeaderboardHandler) GetLeaderboard(c *gin.Context) {
	hardMode := models.IsHardModeParam(c.Param("mode"))

	entries, err := h.service.TopScores(hardMode)
	if err != nil {
		log.Printf("Error fetching leaderboard: %v", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "Failed to fetch leaderboard"})
		return
	}

	if h.metrics != nil {
		h.metrics.RecordLeaderboardRead(models.ModeName(hardMode))
	}

	// An empty board serializes as [], not null.
	if entries == nil {
		entries = []models.LeaderboardEntry{}
	}

	c.JSON(http.StatusOK, entries)
}

// GetModes handles GET /api/modes
func (h *LeaderboardHandler) GetModes(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.Modes())
}

func (h *LeaderboardHandler) recordSubmission(hardMode bool, outcome string) {
	if h.metrics != nil {
		h.metrics.RecordSubmission(models.ModeName(hardMode), outcome)
	}
}
