package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type coverUploadResponse struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// handleCoverUploadURL presigns a PUT URL for the post's cover image and
// records the object key on the post. Author-only.
func (s *HTTPServer) handleCoverUploadURL(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	id, ok := pathID(c)
	if !ok {
		return
	}

	key, url, err := s.attachments.CoverUploadURL(c.Request.Context(), user.ID, id)
	if err != nil {
		s.errorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, coverUploadResponse{Key: key, URL: url})
}

// handleGetCover presigns a download URL for the post's cover image.
// Posts without a cover read as 404.
func (s *HTTPServer) handleGetCover(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	url, err := s.attachments.CoverDownloadURL(c.Request.Context(), id)
	if err != nil {
		s.errorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": url})
}
