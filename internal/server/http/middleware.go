package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/avolkov/minipost/internal/common"
	"github.com/avolkov/minipost/internal/server/auth"
	"github.com/avolkov/minipost/internal/server/models"
)

// contextUserKey holds the authenticated user in the gin context.
const contextUserKey = "auth.user"

// bearerPrefix must match exactly: case-sensitive scheme, single space.
const bearerPrefix = "Bearer "

// authRequired gates protected routes. It verifies the bearer token and
// resolves its subject to a live account; tokens of deleted accounts are
// rejected. Every rejection produces the same 401 body, the concrete
// reason is only logged.
func (s *HTTPServer) authRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")

		token, ok := strings.CutPrefix(header, bearerPrefix)
		if !ok || token == "" {
			s.rejectUnauthorized(c, common.ErrMissingToken)
			return
		}

		userID, err := auth.GetUserIDFromToken(token, s.jwtSecret)
		if err != nil {
			s.rejectUnauthorized(c, err)
			return
		}

		user, err := s.users.GetByID(c.Request.Context(), userID)
		if err != nil {
			if errors.Is(err, common.ErrNotFound) {
				err = common.ErrSubjectGone
			}
			s.rejectUnauthorized(c, err)
			return
		}

		c.Set(contextUserKey, user)
		c.Next()
	}
}

func (s *HTTPServer) rejectUnauthorized(c *gin.Context, reason error) {
	s.logger.Debug(c.Request.Context(), "request rejected by auth gate",
		"reason", reason.Error(),
		"path", c.Request.URL.Path,
	)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
}

// currentUser returns the user attached by authRequired.
func currentUser(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get(contextUserKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok
}
