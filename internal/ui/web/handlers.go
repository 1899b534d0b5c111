package web

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"flipperdeck/internal/domain/models"
	"flipperdeck/internal/ui/controller"
)

type actionRequest struct {
	Arg string `json:"arg"`
}

type logResponse struct {
	Entries []models.LogEntry `json:"entries"`
	Next    uint64            `json:"next"` // Передать как since в следующем запросе
}

// HandleHealth проверка доступности
func (s *Server) HandleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// HandleState возвращает состояние экрана
func (s *Server) HandleState(c echo.Context) error {
	return c.JSON(http.StatusOK, s.ctrl.Snapshot())
}

// HandleLog возвращает записи журнала после since
func (s *Server) HandleLog(c echo.Context) error {
	var since uint64
	if raw := c.QueryParam("since"); raw != "" {
		v, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "since must be a non-negative integer"})
		}
		since = v
	}

	entries := s.activity.Since(since)
	next := since
	if n := len(entries); n > 0 {
		next = entries[n-1].Seq
	}
	return c.JSON(http.StatusOK, logResponse{Entries: entries, Next: next})
}

// HandleScripts фильтрует каталог без изменения состояния экрана
func (s *Server) HandleScripts(c echo.Context) error {
	scripts, err := s.ctrl.Render(c.QueryParam("q"), c.QueryParam("category"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, scripts)
}

// HandlePorts перечисляет последовательные порты
func (s *Server) HandlePorts(c echo.Context) error {
	list, err := s.lister.ListPorts()
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
	}
	if list == nil {
		list = []string{}
	}
	return c.JSON(http.StatusOK, map[string][]string{"ports": list})
}

// HandleActions список доступных действий
func (s *Server) HandleActions(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string][]string{"actions": s.ctrl.Actions()})
}

// HandleAction выполняет действие и возвращает новое состояние экрана
func (s *Server) HandleAction(c echo.Context) error {
	var req actionRequest
	if c.Request().ContentLength > 0 {
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		}
	}

	id := c.Param("id")
	err := s.ctrl.Dispatch(c.Request().Context(), id, req.Arg)
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, s.ctrl.Snapshot())
	case errors.Is(err, controller.ErrUnknownAction):
		return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, models.ErrUnknownCategory):
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		s.log.Error("[HTTP] Действие %s: %v", id, err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}
