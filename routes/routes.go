package routes

import (
	"log"
	"net/http"

	"snakescores/handlers"
	"snakescores/middleware"
	"snakescores/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

func SetupRoutes(
	router *gin.Engine,
	leaderboardHandler *handlers.LeaderboardHandler,
	hub *services.Hub,
	allowedOrigins []string,
) {
	api := router.Group("/api")
	{
		// CSRF exempt: the game script posts JSON without a token, and no
		// route in this service uses cookie sessions.
		api.Any("/save-score/", middleware.AllowMethods(http.MethodPost), leaderboardHandler.SaveScore)
		api.Any("/high-scores/", middleware.AllowMethods(http.MethodGet), leaderboardHandler.GetHighScores)
	}

	if hub != nil {
		upgrader := websocket.Upgrader{CheckOrigin: originChecker(allowedOrigins)}

		// Live leaderboard feed
		router.GET("/ws/leaderboard", func(c *gin.Context) {
			conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
			if err != nil {
				log.Printf("WebSocket upgrade failed: %v", err)
				return
			}
			hub.RegisterClient(conn)
		})
	}

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}

// originChecker mirrors the CORS allow list. Requests without an Origin
// header are not from a browser and pass.
func originChecker(allowedOrigins []string) func(r *http.Request) bool {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		if origin == "*" {
			return func(r *http.Request) bool { return true }
		}
		allowed[origin] = true
	}

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || allowed[origin]
	}
}
