// Package server exposes the HTTP trigger that starts quiz chains.
package server

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"quiz-solver/internal/metrics"
	"quiz-solver/pkg/models"
)

var (
	ErrAccessDenied = errors.New("invalid secret")
	ErrBadIdentity  = errors.New("invalid email")
)

// Launcher starts a chain in the background and returns its ID.
type Launcher interface {
	Launch(quizURL string) string
}

type Server struct {
	router   *gin.Engine
	identity models.Identity
	launcher Launcher
	logger   *zap.Logger
}

type quizRequest struct {
	Email  string `json:"email"`
	Secret string `json:"secret"`
	URL    string `json:"url"`
}

func New(identity models.Identity, launcher Launcher, m *metrics.Metrics, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger))

	s := &Server{
		router:   router,
		identity: identity,
		launcher: launcher,
		logger:   logger,
	}

	router.GET("/", s.handleRoot)
	router.GET("/health", s.handleHealth)
	router.GET("/metrics", gin.WrapH(m.Handler()))
	router.POST("/quiz", s.handleQuiz)

	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "LLM Quiz Analyzer API is running"})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

func (s *Server) handleQuiz(c *gin.Context) {
	var req quizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid request body"})
		return
	}

	if !equal(req.Secret, s.identity.Secret) {
		s.logger.Warn("quiz request rejected", zap.Error(ErrAccessDenied), zap.String("client_ip", c.ClientIP()))
		c.JSON(http.StatusForbidden, gin.H{"detail": ErrAccessDenied.Error()})
		return
	}
	if !equal(req.Email, s.identity.Email) {
		s.logger.Warn("quiz request rejected", zap.Error(ErrBadIdentity), zap.String("client_ip", c.ClientIP()))
		c.JSON(http.StatusBadRequest, gin.H{"detail": ErrBadIdentity.Error()})
		return
	}
	if !isHTTPURL(req.URL) {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "url must be an absolute http(s) URL"})
		return
	}

	id := s.launcher.Launch(req.URL)
	s.logger.Info("quiz chain accepted", zap.String("chain_id", id), zap.String("url", req.URL))

	c.JSON(http.StatusOK, gin.H{
		"status":   "success",
		"message":  "Quiz solving started",
		"chain_id": id,
	})
}

func equal(got, want string) bool {
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
