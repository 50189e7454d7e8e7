// Package http exposes the public JSON API over a gin engine: registration
// and login, token-gated post CRUD, cover-image presign endpoints, plus
// health and Prometheus metrics.
package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/avolkov/minipost/internal/logging"
	"github.com/avolkov/minipost/internal/server/config"
	"github.com/avolkov/minipost/internal/server/models"
	"github.com/avolkov/minipost/internal/server/services"
)

const shutdownTimeout = 10 * time.Second

// UserService, PostService and AttachmentService are the slices of the
// service layer the handlers consume. Tests substitute stubs.
type UserService interface {
	Register(ctx context.Context, p services.RegisterParams) (*models.User, string, error)
	Login(ctx context.Context, email string, password string) (*models.User, string, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
}

type PostService interface {
	Create(ctx context.Context, author *models.User, p services.CreatePostParams) (*models.Post, error)
	Get(ctx context.Context, id string) (*models.Post, error)
	List(ctx context.Context, p services.ListPostsParams) (*services.ListPostsResult, error)
	Update(ctx context.Context, userID string, postID string, p services.UpdatePostParams) (*models.Post, error)
	Delete(ctx context.Context, userID string, postID string) error
}

type AttachmentService interface {
	CoverUploadURL(ctx context.Context, userID string, postID string) (string, string, error)
	CoverDownloadURL(ctx context.Context, postID string) (string, error)
}

type HTTPServer struct {
	address     string
	env         string
	corsOrigins []string
	logger      logging.Logger
	users       UserService
	posts       PostService
	attachments AttachmentService
	jwtSecret   []byte
}

func NewHTTPServer(l logging.Logger, us UserService, ps PostService, as AttachmentService, cfg *config.Config) (*HTTPServer, error) {
	return &HTTPServer{
		address:     cfg.EndpointAddrHTTP,
		env:         cfg.Env,
		corsOrigins: cfg.CORSAllowedOrigins,
		logger:      l.With("module", "http_server"),
		users:       us,
		posts:       ps,
		attachments: as,
		jwtSecret:   []byte(cfg.SecretKey),
	}, nil
}

func (s *HTTPServer) setupRouter() *gin.Engine {
	if s.env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger(), metricsMiddleware())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = s.corsOrigins
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	router.Use(cors.New(corsConfig))

	router.GET("/health", s.handleHealth)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	{
		authRoutes := api.Group("/auth")
		{
			authRoutes.POST("/register", s.handleRegister)
			authRoutes.POST("/login", s.handleLogin)
			authRoutes.POST("/logout", s.authRequired(), s.handleLogout)
			authRoutes.GET("/me", s.authRequired(), s.handleMe)
		}

		postRoutes := api.Group("/posts")
		{
			postRoutes.GET("", s.handleListPosts)
			postRoutes.GET("/:id", s.handleGetPost)
			postRoutes.GET("/:id/cover", s.handleGetCover)

			protected := postRoutes.Group("")
			protected.Use(s.authRequired())
			{
				protected.POST("", s.handleCreatePost)
				protected.PUT("/:id", s.handleUpdatePost)
				protected.DELETE("/:id", s.handleDeletePost)
				protected.POST("/:id/cover/upload-url", s.handleCoverUploadURL)
			}
		}
	}

	return router
}

func (s *HTTPServer) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *HTTPServer) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info(c.Request.Context(), "request handled",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start).String(),
		)
	}
}

// Run serves until ctx is canceled, then drains in-flight requests for up
// to shutdownTimeout.
func (s *HTTPServer) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.address,
		Handler: s.setupRouter(),
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "HTTP server shutdown error", "error", err.Error())
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
