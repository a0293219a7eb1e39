package server

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

const ownerKey = "userId"

// requireOwner rejects requests without a valid session and stores the
// owner id on the context.
func (s *Server) requireOwner() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.sessions == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		owner, err := s.sessions.OwnerFromRequest(c.Request)
		if err != nil || owner == "" {
			if err != nil {
				s.logger.Debug("session rejected", slog.String("path", c.Request.URL.Path), slog.String("error", err.Error()))
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Set(ownerKey, owner)
		c.Next()
	}
}

func ownerID(c *gin.Context) string {
	return c.GetString(ownerKey)
}
