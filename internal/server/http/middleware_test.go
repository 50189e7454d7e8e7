package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/avolkov/minipost/internal/common"
	"github.com/avolkov/minipost/internal/server/auth"
	"github.com/avolkov/minipost/internal/server/models"
)

// probeRouter mounts the auth gate in front of a handler that records
// whether it ran.
func probeRouter(s *HTTPServer, nextCalled *bool, onUser func(*models.User)) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/probe", s.authRequired(), func(c *gin.Context) {
		*nextCalled = true
		if onUser != nil {
			if user, ok := currentUser(c); ok {
				onUser(user)
			}
		}
		c.Status(http.StatusOK)
	})
	return router
}

func TestAuthGate_RejectsBadHeaders(t *testing.T) {
	validToken, err := auth.GenerateToken(testUserID, []byte(testSecret), time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}
	expiredToken, err := auth.GenerateToken(testUserID, []byte(testSecret), -time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}
	foreignToken, err := auth.GenerateToken(testUserID, []byte("some-other-secret"), time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}

	cases := []struct {
		name   string
		header string
	}{
		{"no header", ""},
		{"scheme only", "Bearer "},
		{"no space after scheme", "Bearer" + validToken},
		{"lowercase scheme", "bearer " + validToken},
		{"token without scheme", validToken},
		{"malformed token", "Bearer not-a-jwt"},
		{"wrong signature", "Bearer " + foreignToken},
		{"expired token", "Bearer " + expiredToken},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			users := &stubUserService{getOut: &models.User{ID: testUserID}}
			s := newTestServer(users, &stubPostService{}, &stubAttachmentService{})

			var nextCalled bool
			router := probeRouter(s, &nextCalled, nil)

			req := httptest.NewRequest(http.MethodGet, "/probe", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", rec.Code)
			}
			// every rejection mode must produce the same body
			if rec.Body.String() != `{"error":"unauthorized"}` {
				t.Fatalf("unexpected body: %s", rec.Body.String())
			}
			if nextCalled {
				t.Fatalf("handler ran despite rejection")
			}
		})
	}
}

func TestAuthGate_SubjectGone(t *testing.T) {
	// valid token whose account has since been deleted
	users := &stubUserService{getErr: common.ErrNotFound}
	s := newTestServer(users, &stubPostService{}, &stubAttachmentService{})

	var nextCalled bool
	router := probeRouter(s, &nextCalled, nil)

	rec := doRequest(t, router, http.MethodGet, "/probe", "", bearer(t, testUserID))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if rec.Body.String() != `{"error":"unauthorized"}` {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
	if nextCalled {
		t.Fatalf("handler ran for a deleted account")
	}
	if users.lastGetID != testUserID {
		t.Fatalf("subject lookup used %q, want token subject", users.lastGetID)
	}
}

func TestAuthGate_ValidTokenAttachesUser(t *testing.T) {
	account := &models.User{ID: testUserID, Username: "bob", Email: "bob@example.com"}
	users := &stubUserService{getOut: account}
	s := newTestServer(users, &stubPostService{}, &stubAttachmentService{})

	var nextCalled bool
	var seen *models.User
	router := probeRouter(s, &nextCalled, func(u *models.User) { seen = u })

	rec := doRequest(t, router, http.MethodGet, "/probe", "", bearer(t, testUserID))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}
	if !nextCalled {
		t.Fatalf("handler did not run for a valid token")
	}
	if seen == nil || seen.ID != testUserID || seen.Username != "bob" {
		t.Fatalf("authenticated user not attached: %+v", seen)
	}
}
