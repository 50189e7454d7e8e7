package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/avolkov/minipost/internal/server/services"
)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// authResponse is the register/login payload: the flat identity plus a
// fresh bearer token.
type authResponse struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Token    string `json:"token"`
}

type userResponse struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

func (s *HTTPServer) handleRegister(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}

	user, token, err := s.users.Register(c.Request.Context(), services.RegisterParams{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		s.errorResponse(c, err)
		return
	}

	c.JSON(http.StatusCreated, authResponse{
		ID:       user.ID,
		Email:    user.Email,
		Username: user.Username,
		Token:    token,
	})
}

func (s *HTTPServer) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}

	user, token, err := s.users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		s.errorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, authResponse{
		ID:       user.ID,
		Email:    user.Email,
		Username: user.Username,
		Token:    token,
	})
}

// handleLogout confirms the authenticated subject. Tokens are stateless and
// stay valid until expiry, so there is nothing to revoke server-side.
func (s *HTTPServer) handleLogout(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *HTTPServer) handleMe(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	c.JSON(http.StatusOK, userResponse{
		ID:       user.ID,
		Email:    user.Email,
		Username: user.Username,
	})
}
