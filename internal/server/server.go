// Package server exposes the action catalog over HTTP, with the login flow
// of the hosted identity provider in front of it.
package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gurubase/gurubase-cli/internal"
)

const (
	sessionCookie = "gurubase_session"
	stateCookie   = "gurubase_oauth_state"

	shutdownTimeout = 10 * time.Second
)

// Authenticator is the browser login flow of the identity provider.
type Authenticator interface {
	AuthCodeURL(ctx context.Context, state string) (string, error)
	Exchange(ctx context.Context, code string) (*internal.StoredSession, error)
	Logout(ctx context.Context) error
}

// Server is the actions gateway.
type Server struct {
	cfg     *internal.Config
	catalog *internal.Catalog
	auth    Authenticator
	engine  *gin.Engine
}

// New builds the gateway. auth may be nil on self-hosted deployments.
func New(cfg *internal.Config, catalog *internal.Catalog, auth Authenticator) *Server {
	s := &Server{
		cfg:     cfg,
		catalog: catalog,
		auth:    auth,
	}
	s.engine = s.routes()
	return s
}

// Handler returns the HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		internal.LogInfo("Actions gateway listening on %s", s.cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		internal.LogInfo("Shutting down actions gateway")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestID(), requestLogger(), s.sessionMiddleware())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{strings.TrimSuffix(s.cfg.PublicBaseURL, "/")},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "self_hosted": s.cfg.SelfHosted})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authGroup := r.Group("/api/auth")
	{
		authGroup.GET("/login", s.login)
		authGroup.GET("/callback", s.callback)
		authGroup.GET("/logout", s.logout)
	}

	api := r.Group("/api/actions")
	s.registerActions(api)

	return r
}

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Header("X-Request-ID", id)
		c.Set("request_id", id)
		c.Next()
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		internal.Logger().Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Str("request_id", c.GetString("request_id")).
			Msg("request")
	}
}

// sessionMiddleware binds the session cookie to the request context so the
// identity provider can find the caller. Only ids issued by the browser login
// are bound; anything else is served as signed out.
func (s *Server) sessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := c.Cookie(sessionCookie)
		switch {
		case err != nil || id == "":
		case internal.IsWebSessionID(id):
			c.Request = c.Request.WithContext(internal.WithSessionID(c.Request.Context(), id))
		default:
			internal.LogWarn("Ignoring session cookie not issued by the gateway")
		}
		c.Next()
	}
}

func (s *Server) secureCookies() bool {
	return strings.HasPrefix(s.cfg.PublicBaseURL, "https://")
}

func (s *Server) login(c *gin.Context) {
	if s.auth == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"detail": "identity provider not configured"})
		return
	}
	state := uuid.NewString()
	target, err := s.auth.AuthCodeURL(c.Request.Context(), state)
	if err != nil {
		internal.LogError("Login redirect failed: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"detail": "identity provider unavailable"})
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(stateCookie, state, 600, "/api/auth", "", s.secureCookies(), true)
	c.Redirect(http.StatusFound, target)
}

func (s *Server) callback(c *gin.Context) {
	if s.auth == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"detail": "identity provider not configured"})
		return
	}
	want, err := c.Cookie(stateCookie)
	if err != nil || want == "" || c.Query("state") != want {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid login state"})
		return
	}
	if e := c.Query("error"); e != "" {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": e, "description": c.Query("error_description")})
		return
	}

	rec, err := s.auth.Exchange(c.Request.Context(), c.Query("code"))
	if err == nil && !internal.IsWebSessionID(rec.ID) {
		err = errors.Errorf("session id %q was not issued for the browser", rec.ID)
	}
	if err != nil {
		internal.LogError("Login callback failed: %v", err)
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "login failed"})
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(stateCookie, "", -1, "/api/auth", "", s.secureCookies(), true)
	c.SetCookie(sessionCookie, rec.ID, int((30 * 24 * time.Hour).Seconds()), "/", "", s.secureCookies(), true)
	c.Redirect(http.StatusFound, "/")
}

func (s *Server) logout(c *gin.Context) {
	if s.auth != nil {
		if err := s.auth.Logout(c.Request.Context()); err != nil {
			internal.LogWarn("Logout failed: %v", err)
		}
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookie, "", -1, "/", "", s.secureCookies(), true)
	c.Redirect(http.StatusFound, "/")
}
