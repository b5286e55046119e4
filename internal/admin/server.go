package admin

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/songzhibin97/kolwatch/internal/registry"
)

// Server exposes registry management, health and metrics over HTTP
type Server struct {
	echo     *echo.Echo
	registry registry.Registry
	logger   *slog.Logger
}

type response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

type createRequest struct {
	HandleName string `json:"handle_name"`
}

func NewServer(reg registry.Registry, logger *slog.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:     e,
		registry: reg,
		logger:   logger,
	}

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:   true,
		LogURI:      true,
		LogError:    true,
		LogMethod:   true,
		LogLatency:  true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error == nil {
				logger.Debug("request completed",
					"method", v.Method,
					"uri", v.URI,
					"status", v.Status,
					"latency_ms", v.Latency.Milliseconds())
			} else {
				logger.Warn("request failed",
					"method", v.Method,
					"uri", v.URI,
					"status", v.Status,
					"latency_ms", v.Latency.Milliseconds(),
					"err", v.Error)
			}
			return nil
		},
	}))
	e.Use(middleware.Recover())

	e.GET("/healthz", s.health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/kols", s.listKols)
	e.POST("/kols", s.createKols)
	e.DELETE("/kols/:id", s.deleteKol)

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// Start blocks serving on addr until Shutdown is called.
func (s *Server) Start(addr string) error {
	s.logger.Info("admin server listening", "addr", addr)
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, response{Success: true, Data: map[string]string{"status": "ok"}})
}

func (s *Server) listKols(c echo.Context) error {
	accounts, err := s.registry.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, response{Message: "Error fetching KOLs", Error: err.Error()})
	}
	return c.JSON(http.StatusOK, response{Success: true, Data: accounts})
}

// createKols accepts one handle or a comma separated list.
func (s *Server) createKols(c echo.Context) error {
	var req createRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, response{Message: "Invalid request body", Error: err.Error()})
	}

	handles := registry.SplitHandles(req.HandleName)
	if len(handles) == 0 {
		return c.JSON(http.StatusBadRequest, response{Message: "handle_name is required"})
	}

	ctx := c.Request().Context()
	created := make([]any, 0, len(handles))
	for _, handle := range handles {
		account, err := s.registry.Create(ctx, handle)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, response{Message: "Error creating KOL", Error: err.Error()})
		}
		created = append(created, account)
	}

	if len(created) == 1 {
		return c.JSON(http.StatusCreated, response{Success: true, Data: created[0]})
	}
	return c.JSON(http.StatusCreated, response{Success: true, Data: created})
}

func (s *Server) deleteKol(c echo.Context) error {
	deleted, err := s.registry.Delete(c.Request().Context(), c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, response{Message: "Error deleting KOL", Error: err.Error()})
	}
	if !deleted {
		return c.JSON(http.StatusNotFound, response{Message: "KOL not found"})
	}
	return c.JSON(http.StatusOK, response{Success: true})
}
