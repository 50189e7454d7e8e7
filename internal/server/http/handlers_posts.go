package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/avolkov/minipost/internal/server/models"
	"github.com/avolkov/minipost/internal/server/repositories/posts"
	"github.com/avolkov/minipost/internal/server/services"
)

type createPostRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// updatePostRequest is a partial update: absent fields stay untouched.
type updatePostRequest struct {
	Title *string `json:"title"`
	Body  *string `json:"body"`
}

type postAuthor struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type postResponse struct {
	ID        string     `json:"id"`
	Author    postAuthor `json:"author"`
	Title     string     `json:"title"`
	Body      string     `json:"body"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

type listPostsResponse struct {
	Posts []postResponse `json:"posts"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
	Total int64          `json:"total"`
}

func toPostResponse(p *models.Post) postResponse {
	return postResponse{
		ID:        p.ID,
		Author:    postAuthor{ID: p.AuthorID, Username: p.AuthorUsername},
		Title:     p.Title,
		Body:      p.Body,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

// pathID validates the :id segment. A malformed id cannot name any resource,
// so it reads as 404 rather than a validation failure.
func pathID(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return "", false
	}
	return id, true
}

// intQuery returns the named query parameter as an int, or zero when absent
// or malformed. The service clamps zero to its defaults.
func intQuery(c *gin.Context, name string) int {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return 0
	}
	return v
}

func (s *HTTPServer) handleCreatePost(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req createPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}

	post, err := s.posts.Create(c.Request.Context(), user, services.CreatePostParams{
		Title: req.Title,
		Body:  req.Body,
	})
	if err != nil {
		s.errorResponse(c, err)
		return
	}

	c.JSON(http.StatusCreated, toPostResponse(post))
}

func (s *HTTPServer) handleGetPost(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	post, err := s.posts.Get(c.Request.Context(), id)
	if err != nil {
		s.errorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, toPostResponse(post))
}

func (s *HTTPServer) handleListPosts(c *gin.Context) {
	res, err := s.posts.List(c.Request.Context(), services.ListPostsParams{
		AuthorID:   c.Query("author"),
		TitleQuery: c.Query("q"),
		Sort:       posts.ParseSort(c.Query("sort")),
		Page:       intQuery(c, "page"),
		Limit:      intQuery(c, "limit"),
	})
	if err != nil {
		s.errorResponse(c, err)
		return
	}

	items := make([]postResponse, 0, len(res.Posts))
	for _, p := range res.Posts {
		items = append(items, toPostResponse(p))
	}

	c.JSON(http.StatusOK, listPostsResponse{
		Posts: items,
		Page:  res.Page,
		Limit: res.Limit,
		Total: res.Total,
	})
}

func (s *HTTPServer) handleUpdatePost(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	id, ok := pathID(c)
	if !ok {
		return
	}

	var req updatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}

	post, err := s.posts.Update(c.Request.Context(), user.ID, id, services.UpdatePostParams{
		Title: req.Title,
		Body:  req.Body,
	})
	if err != nil {
		s.errorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, toPostResponse(post))
}

func (s *HTTPServer) handleDeletePost(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := s.posts.Delete(c.Request.Context(), user.ID, id); err != nil {
		s.errorResponse(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
