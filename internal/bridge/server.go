package bridge

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ppiankov/symmetry/internal/logger"
)

// Server exposes a Bridge over loopback HTTP.
type Server struct {
	target Bridge
	token  string
	logger *zap.Logger
	engine *gin.Engine
	srv    *http.Server
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithServerLogger sets the logger.
func WithServerLogger(l *zap.Logger) ServerOption {
	return func(s *Server) { s.logger = logger.OrNop(l) }
}

// WithToken fixes the capability token instead of generating one.
func WithToken(token string) ServerOption {
	return func(s *Server) { s.token = token }
}

// NewServer wraps target. Callers must present Token() on every request.
func NewServer(target Bridge, opts ...ServerOption) *Server {
	s := &Server{
		target: target,
		token:  uuid.NewString(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Recovery(), s.requestLogger(), s.requireToken())
	r.GET(PathAppConfig, s.handleGetAppConfig)
	r.POST(PathStartBackend, s.handleStartBackend)
	s.engine = r

	return s
}

// Token returns the capability token clients must send.
func (s *Server) Token() string {
	return s.token
}

// Handler returns the HTTP handler, for tests and custom listeners.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Listen binds a loopback port (0 picks a free one) and serves in the
// background. It returns the base URL to hand to a Client.
func (s *Server) Listen(port int) (string, error) {
	ln, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	if err != nil {
		return "", fmt.Errorf("listen bridge: %w", err)
	}

	s.srv = &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Bridge server stopped", zap.Error(err))
		}
	}()

	baseURL := "http://" + ln.Addr().String()
	s.logger.Debug("Bridge listening", zap.String("url", baseURL))
	return baseURL, nil
}

// Close stops a server started with Listen.
func (s *Server) Close(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

func (s *Server) handleGetAppConfig(c *gin.Context) {
	cfg, err := s.target.GetAppConfig(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, cfg)
}

func (s *Server) handleStartBackend(c *gin.Context) {
	c.JSON(http.StatusOK, s.target.StartBackend(c.Request.Context()))
}

func (s *Server) requireToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		got := c.GetHeader(TokenHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(s.token)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{Error: "invalid bridge token"})
			return
		}
		c.Next()
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("bridge request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	}
}
