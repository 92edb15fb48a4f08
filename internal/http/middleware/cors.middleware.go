package middleware

import (
	"os"
	"strings"

	"github.com/gin-gonic/gin"
)

// CORSMiddleware sets CORS headers. Production restricts origins to
// ALLOWED_ORIGINS; other environments allow any origin so the Vite dev
// server can talk to the API.
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		if os.Getenv("ENVIRONMENT") == "production" {
			allowed := strings.Split(os.Getenv("ALLOWED_ORIGINS"), ",")
			if containsOrigin(allowed, origin) {
				c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			}
		} else if origin != "" {
			// Echo the origin rather than "*" so credentialed requests work.
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Authorization, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

func containsOrigin(slice []string, item string) bool {
	for _, v := range slice {
		if strings.TrimSpace(v) == item {
			return true
		}
	}
	return false
}
