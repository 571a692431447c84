package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// AllowMethods rejects any request whose method is not listed with 405 and
// an Allow header. Register the route with router.Any so the guard sees
// every method.
func AllowMethods(methods ...string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(methods))
	for _, m := range methods {
		allowed[m] = true
	}
	allowHeader := strings.Join(methods, ", ")

	return func(c *gin.Context) {
		if !allowed[c.Request.Method] {
			c.Header("Allow", allowHeader)
			c.AbortWithStatus(http.StatusMethodNotAllowed)
			return
		}
		c.Next()
	}
}
