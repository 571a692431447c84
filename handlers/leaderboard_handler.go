package handlers

import (
	"log"
	"net/http"

	"snakescores/models"
	"snakescores/services"

	"github.com/gin-gonic/gin"
)

const scoreSavedMessage = "Score saved successfully"

type LeaderboardHandler struct {
	leaderboardService *services.LeaderboardService
}

func NewLeaderboardHandler(leaderboardService *services.LeaderboardService) *LeaderboardHandler {
	return &LeaderboardHandler{
		leaderboardService: leaderboardService,
	}
}

func (h *LeaderboardHandler) SaveScore(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		h.fail(c, services.ValidationError(err))
		return
	}
	req, err := services.DecodeSaveScoreRequest(body)
	if err != nil {
		h.fail(c, err)
		return
	}

	topScores, err := h.leaderboardService.Submit(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"message":    scoreSavedMessage,
		"top_scores": topScores,
	})
}

func (h *LeaderboardHandler) GetHighScores(c *gin.Context) {
	// A present but empty difficulty filters on "" rather than widening to all.
	difficulty, ok := c.GetQuery("difficulty")
	if !ok {
		difficulty = models.AllDifficulties
	}

	scores, err := h.leaderboardService.Query(c.Request.Context(), difficulty)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"scores":  scores,
	})
}

// fail writes the uniform failure payload. The kind only reaches the log.
func (h *LeaderboardHandler) fail(c *gin.Context, err error) {
	log.Printf("%s %s failed (%s): %v", c.Request.Method, c.Request.URL.Path, services.KindOf(err), err)
	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"message": err.Error(),
	})
}
