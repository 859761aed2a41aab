package reader

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/irfansharif/readlater/pkg/storage"
)

//go:embed templates/*.html
var templates embed.FS

var pageTemplate = template.Must(template.ParseFS(templates, "templates/reader.html"))

// closeResponse tells the page whether to close itself.
type closeResponse struct {
	Close bool `json:"close"`
}

// Server is the reader's local HTTP surface.
type Server struct {
	e      *echo.Echo
	view   *View
	logger *slog.Logger
}

// NewServer creates a Server for view.
func NewServer(view *View, logger *slog.Logger) *Server {
	s := &Server{e: echo.New(), view: view, logger: logger}
	s.e.HideBanner = true
	s.e.HidePort = true

	s.e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:   true,
		LogURI:      true,
		LogError:    true,
		LogMethod:   true,
		LogLatency:  true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			ctx := c.Request().Context()
			if v.Error == nil {
				logger.DebugContext(ctx, "request",
					"method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency)
			} else {
				logger.WarnContext(ctx, "request failed",
					"method", v.Method, "uri", v.URI, "status", v.Status, "err", v.Error)
			}
			return nil
		},
	}))
	s.e.Use(middleware.Recover())

	s.e.GET("/reader", s.handleReader)
	s.e.POST("/api/articles/:id/archive", s.handleArchive)
	s.e.POST("/api/articles/:id/delete", s.handleDelete)
	s.e.POST("/api/settings/font", s.handleFont)
	s.e.POST("/api/settings/sans", s.handleSans)
	s.e.POST("/api/settings/theme", s.handleTheme)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.e.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is done, then shuts down.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done, then shuts down. The listener is
// closed on return.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.e.Listener = ln
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("reader listening", "addr", ln.Addr().String())
		errCh <- s.e.Start(ln.Addr().String())
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.e.Shutdown(shutdownCtx)
}

func (s *Server) handleReader(c echo.Context) error {
	page, err := s.view.Load(c.Request().Context(), c.QueryParam("id"))
	if err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(http.StatusOK)
	return pageTemplate.Execute(c.Response(), page)
}

func (s *Server) handleArchive(c echo.Context) error {
	id, err := articleID(c)
	if err != nil {
		return err
	}
	if err := s.view.Archive(c.Request().Context(), id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, closeResponse{Close: true})
}

func (s *Server) handleDelete(c echo.Context) error {
	id, err := articleID(c)
	if err != nil {
		return err
	}
	deleted, err := s.view.Delete(c.Request().Context(), id, c.FormValue("confirm") == "yes")
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, closeResponse{Close: deleted})
}

func (s *Server) handleFont(c echo.Context) error {
	delta, err := strconv.Atoi(c.FormValue("delta"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid delta")
	}
	settings, err := s.view.StepFont(c.Request().Context(), delta)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, settings)
}

func (s *Server) handleSans(c echo.Context) error {
	settings, err := s.view.ToggleSans(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, settings)
}

func (s *Server) handleTheme(c echo.Context) error {
	theme, err := storage.ParseTheme(c.FormValue("theme"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	settings, err := s.view.SetTheme(c.Request().Context(), theme)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, settings)
}

func articleID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid article id")
	}
	return id, nil
}
