package middleware

import (
	"crypto/subtle"

	"github.com/gin-gonic/gin"

	"docurag-worker/internal/config"
	"docurag-worker/utils"
)

const WorkerSecretHeader = "X-Worker-Secret"

// AuthMiddleware gates requests behind the shared worker secret. The
// companion web app presents the same secret this worker uses for its
// status callbacks.
type AuthMiddleware struct {
	config *config.Config
}

func NewAuthMiddleware(cfg *config.Config) *AuthMiddleware {
	return &AuthMiddleware{config: cfg}
}

// RequireSecret rejects requests whose X-Worker-Secret header does not
// match the configured secret. When no secret is configured the check
// is disabled (local development).
func (a *AuthMiddleware) RequireSecret() gin.HandlerFunc {
	return func(c *gin.Context) {
		if a.config.WorkerSecret == "" {
			c.Next()
			return
		}

		presented := c.GetHeader(WorkerSecretHeader)
		if subtle.ConstantTimeCompare([]byte(presented), []byte(a.config.WorkerSecret)) != 1 {
			utils.RespondWithUnauthorized(c, "Unauthorized")
			c.Abort()
			return
		}

		c.Next()
	}
}
