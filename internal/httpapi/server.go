// Package httpapi exposes the digest pipeline over HTTP: a JSON endpoint to
// trigger runs, a health probe and mounts for the OAuth, MCP and metrics
// handlers.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/hal9000y/gmail-digest/internal/agent"
	"github.com/hal9000y/gmail-digest/internal/digest"
)

const (
	statusSuccess = "success"
	statusError   = "error"
	statusHealthy = "healthy"
)

type digester interface {
	Generate(ctx context.Context, emailCount int) (*digest.Result, error)
}

type generateRequest struct {
	EmailCount int `json:"emailCount"`
}

type statusResponse struct {
	Status  string `json:"status"`
	Digest  string `json:"digest,omitempty"`
	Message string `json:"message,omitempty"`
}

// Server routes digest API requests. It implements http.Handler.
type Server struct {
	svc    digester
	logger *log.Logger
	e      *echo.Echo
}

// NewServer builds the API router around the digest service. The API is
// served with permissive CORS so browser extensions can call it directly.
func NewServer(svc digester) *Server {
	s := &Server{
		svc:    svc,
		logger: log.New(log.Writer(), "[HTTP] ", log.LstdFlags),
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderContentType},
	}))
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			msg = fmt.Sprint(he.Message)
		}
		s.logger.Printf("%d %s %s: %v", code, c.Request().Method, c.Request().URL.Path, err)
		if !c.Response().Committed {
			_ = c.JSON(code, statusResponse{Status: statusError, Message: msg})
		}
	}

	e.GET("/health", s.health)
	e.POST("/generate-digest", s.generateDigest)

	s.e = e
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.e.ServeHTTP(w, r)
}

// Mount attaches an extra handler, e.g. the OAuth flow or the MCP transport,
// at the given path for all methods.
func (s *Server) Mount(path string, h http.Handler) {
	s.e.Any(path, echo.WrapHandler(h))
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, statusResponse{Status: statusHealthy})
}

func (s *Server) generateDigest(c echo.Context) error {
	var req generateRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Println("c.Bind failed", err)
		return c.JSON(http.StatusBadRequest, statusResponse{Status: statusError, Message: "invalid request body"})
	}

	s.logger.Printf("digest requested: email_count=%d", req.EmailCount)

	res, err := s.svc.Generate(c.Request().Context(), req.EmailCount)
	if err != nil {
		s.logger.Println("svc.Generate failed", err)
		return c.JSON(statusFromErr(err), statusResponse{Status: statusError, Message: err.Error()})
	}

	return c.JSON(http.StatusOK, statusResponse{Status: statusSuccess, Digest: res.Digest})
}

func statusFromErr(err error) int {
	switch {
	case errors.Is(err, agent.ErrConfiguration):
		return http.StatusBadRequest
	case errors.Is(err, digest.ErrBusy):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
