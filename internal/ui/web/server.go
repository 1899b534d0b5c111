// Package web отдает страницу управления и JSON API поверх MainController.
package web

import (
	"context"
	"embed"
	"errors"
	"io/fs"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"flipperdeck/internal/domain/ports"
	"flipperdeck/internal/service/activity"
	"flipperdeck/internal/ui/controller"
)

//go:embed static/*
var staticFiles embed.FS

// Options параметры HTTP-сервера
type Options struct {
	RequestLogging bool
	BodyLimit      string // Например "64K"
}

// Server HTTP-адаптер интерфейса
type Server struct {
	echo     *echo.Echo
	ctrl     *controller.MainController
	activity *activity.Log
	lister   ports.PortLister
	log      ports.Logger
}

// NewServer создает сервер и регистрирует маршруты.
func NewServer(ctrl *controller.MainController, log *activity.Log, lister ports.PortLister, diag ports.Logger, opts Options) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:     e,
		ctrl:     ctrl,
		activity: log,
		lister:   lister,
		log:      diag,
	}

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 1024 * 4,
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			diag.Error("[HTTP] panic %s %s: %v", c.Request().Method, c.Request().URL.Path, err)
			return err
		},
	}))
	if opts.RequestLogging {
		e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
			LogMethod:  true,
			LogURI:     true,
			LogStatus:  true,
			LogLatency: true,
			LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
				diag.Debug("[HTTP] %s %s -> %d (%s)", v.Method, v.URI, v.Status, v.Latency)
				return nil
			},
		}))
	}
	if opts.BodyLimit != "" {
		e.Use(middleware.BodyLimit(opts.BodyLimit))
	}

	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	api := s.echo.Group("/api")
	api.GET("/health", s.HandleHealth)
	api.GET("/state", s.HandleState)
	api.GET("/log", s.HandleLog)
	api.GET("/scripts", s.HandleScripts)
	api.GET("/ports", s.HandlePorts)
	api.GET("/actions", s.HandleActions)
	api.POST("/actions/:id", s.HandleAction)

	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		s.log.Error("[HTTP] Встроенные файлы недоступны: %v", err)
		return
	}
	s.echo.GET("/*", echo.WrapHandler(http.FileServer(http.FS(staticFS))))
}

// Handler возвращает http.Handler сервера (для тестов и встраивания).
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start запускает сервер на addr и блокируется до остановки.
func (s *Server) Start(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.log.Info("[HTTP] Сервер слушает http://%s", addr)
	if err := s.echo.StartServer(srv); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown останавливает сервер.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
