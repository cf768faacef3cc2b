// Package server exposes a Board over a small JSON HTTP API.
package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/stefanpenner/analog/pkg/board"
)

// Options tunes request defaults.
type Options struct {
	// CarryIncomplete is used by close-today when the request doesn't say.
	CarryIncomplete bool

	// Changed, when set, reports whether storage holds something other than
	// what the board last loaded or saved. Reload does nothing while it
	// returns false.
	Changed func() bool
}

// Server serializes every request onto one Board.
type Server struct {
	mu     sync.Mutex
	board  *board.Board
	echo   *echo.Echo
	logger *log.Logger
	opts   Options
}

// New builds the server and registers its routes. A nil logger means
// log.Default().
func New(b *board.Board, logger *log.Logger, opts Options) *Server {
	if logger == nil {
		logger = log.Default()
	}
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{board: b, echo: e, logger: logger, opts: opts}

	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []interface{}{"method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency}
			if v.Error != nil {
				fields = append(fields, "err", v.Error)
			}
			logger.Debug("request", fields...)
			return nil
		},
	}))

	s.register()
	return s
}

func (s *Server) register() {
	e := s.echo
	e.GET("/healthz", s.healthz)

	api := e.Group("/api")
	api.GET("/board", s.getBoard)
	api.GET("/capacity", s.getCapacity)
	api.GET("/archive", s.getArchive)
	api.PUT("/selected-tab", s.putSelectedTab)
	api.POST("/close-today", s.postCloseToday)

	cards := api.Group("/cards/:list")
	cards.GET("", s.getCard)
	cards.PUT("/dots", s.putDots)
	cards.POST("/tasks", s.postTask)
	cards.PATCH("/tasks/:id", s.patchTask)
	cards.POST("/tasks/:id/toggle", s.toggleTask)
	cards.PUT("/tasks/:id/signal", s.putSignal)
	cards.POST("/tasks/:id/move", s.moveTask)
	cards.DELETE("/tasks/:id", s.deleteTask)
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start listens on addr until Shutdown. It returns nil after a clean
// shutdown.
func (s *Server) Start(addr string) error {
	s.logger.Info("serving board", "addr", addr)
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// Reload re-reads the stored board. It is safe to call from a file watcher
// while requests are being served. Events caused by the board's own saves are
// skipped when Options.Changed is set.
func (s *Server) Reload() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.opts.Changed != nil && !s.opts.Changed() {
		s.logger.Debug("storage unchanged, skipping reload")
		return false
	}
	ok := s.board.Reload()
	if ok {
		s.logger.Debug("reloaded board from storage")
	}
	return ok
}

// locked runs fn while holding the board lock.
func (s *Server) locked(fn func(b *board.Board) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.board)
}

type capacityResponse struct {
	Count int    `json:"count"`
	Limit int    `json:"limit"`
	Text  string `json:"text"`
}

func (s *Server) healthz(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}

func (s *Server) getBoard(c echo.Context) error {
	return s.locked(func(b *board.Board) error {
		return c.JSON(http.StatusOK, b.Snapshot())
	})
}

func (s *Server) getCapacity(c echo.Context) error {
	return s.locked(func(b *board.Board) error {
		return c.JSON(http.StatusOK, capacityResponse{
			Count: b.TodayCount(),
			Limit: board.TodayLimit,
			Text:  b.TodayCapacityText(),
		})
	})
}

func (s *Server) getArchive(c echo.Context) error {
	limit := -1
	if raw := strings.TrimSpace(c.QueryParam("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid limit")
		}
		limit = n
	}
	return s.locked(func(b *board.Board) error {
		cards := b.Archive()
		if limit >= 0 {
			cards = b.RecentArchive(limit)
		}
		return c.JSON(http.StatusOK, cards)
	})
}

type selectedTabRequest struct {
	Tab string `json:"tab"`
}

func (s *Server) putSelectedTab(c echo.Context) error {
	var req selectedTabRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	kind, err := board.ParseListKind(req.Tab)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return s.locked(func(b *board.Board) error {
		b.SelectTab(kind)
		return c.JSON(http.StatusOK, selectedTabRequest{Tab: string(b.SelectedTab())})
	})
}

type closeTodayRequest struct {
	MoveIncompleteToNext *bool `json:"moveIncompleteToNext"`
}

func (s *Server) postCloseToday(c echo.Context) error {
	var req closeTodayRequest
	if c.Request().ContentLength != 0 {
		if err := c.Bind(&req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
		}
	}
	carry := s.opts.CarryIncomplete
	if req.MoveIncompleteToNext != nil {
		carry = *req.MoveIncompleteToNext
	}
	return s.locked(func(b *board.Board) error {
		b.CloseToday(carry)
		return c.JSON(http.StatusOK, b.Snapshot())
	})
}

func (s *Server) getCard(c echo.Context) error {
	kind, err := listParam(c)
	if err != nil {
		return err
	}
	return s.locked(func(b *board.Board) error {
		return c.JSON(http.StatusOK, b.Card(kind))
	})
}

type dotsRequest struct {
	Dots *int `json:"dots"`
}

func (s *Server) putDots(c echo.Context) error {
	kind, err := listParam(c)
	if err != nil {
		return err
	}
	var req dotsRequest
	if err := c.Bind(&req); err != nil || req.Dots == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "dots is required")
	}
	return s.locked(func(b *board.Board) error {
		b.SetDots(kind, *req.Dots)
		return c.JSON(http.StatusOK, b.Card(kind))
	})
}

type taskRequest struct {
	Text string `json:"text"`
}

func (s *Server) postTask(c echo.Context) error {
	kind, err := listParam(c)
	if err != nil {
		return err
	}
	var req taskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if strings.TrimSpace(req.Text) == "" {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "text must not be empty")
	}
	return s.locked(func(b *board.Board) error {
		if !b.AddTask(req.Text, kind) {
			return echo.NewHTTPError(http.StatusConflict, "today is full: "+b.TodayCapacityText())
		}
		tasks := b.Card(kind).Tasks
		return c.JSON(http.StatusCreated, tasks[len(tasks)-1])
	})
}

type patchTaskRequest struct {
	Text     *string `json:"text"`
	Assignee *string `json:"assignee"`
	Note     *string `json:"note"`
}

func (s *Server) patchTask(c echo.Context) error {
	kind, id, err := taskParams(c)
	if err != nil {
		return err
	}
	var req patchTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Text != nil && strings.TrimSpace(*req.Text) == "" {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "text must not be empty")
	}
	return s.locked(func(b *board.Board) error {
		if _, ok := b.Card(kind).Task(id); !ok {
			return errTaskNotFound
		}
		if req.Text != nil {
			b.EditTask(id, kind, *req.Text)
		}
		if req.Assignee != nil {
			b.SetAssignee(id, kind, *req.Assignee)
		}
		if req.Note != nil {
			b.SetNote(id, kind, *req.Note)
		}
		return respondTask(c, b, kind, id)
	})
}

func (s *Server) toggleTask(c echo.Context) error {
	kind, id, err := taskParams(c)
	if err != nil {
		return err
	}
	return s.locked(func(b *board.Board) error {
		if !b.ToggleSignal(id, kind) {
			return errTaskNotFound
		}
		return respondTask(c, b, kind, id)
	})
}

type signalRequest struct {
	Signal string `json:"signal"`
}

func (s *Server) putSignal(c echo.Context) error {
	kind, id, err := taskParams(c)
	if err != nil {
		return err
	}
	var req signalRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	signal, err := board.ParseSignal(req.Signal)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return s.locked(func(b *board.Board) error {
		if !b.SetSignal(id, kind, signal) {
			return errTaskNotFound
		}
		return respondTask(c, b, kind, id)
	})
}

type moveRequest struct {
	To string `json:"to"`
}

func (s *Server) moveTask(c echo.Context) error {
	from, id, err := taskParams(c)
	if err != nil {
		return err
	}
	var req moveRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	to, err := board.ParseListKind(req.To)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return s.locked(func(b *board.Board) error {
		if _, ok := b.Card(from).Task(id); !ok {
			return errTaskNotFound
		}
		if !b.MoveTask(id, from, to) {
			return echo.NewHTTPError(http.StatusConflict, "today is full: "+b.TodayCapacityText())
		}
		return respondTask(c, b, to, id)
	})
}

func (s *Server) deleteTask(c echo.Context) error {
	kind, id, err := taskParams(c)
	if err != nil {
		return err
	}
	return s.locked(func(b *board.Board) error {
		if !b.RemoveTask(id, kind) {
			return errTaskNotFound
		}
		return c.NoContent(http.StatusNoContent)
	})
}

var errTaskNotFound = echo.NewHTTPError(http.StatusNotFound, "task not found")

func listParam(c echo.Context) (board.ListKind, error) {
	kind, err := board.ParseListKind(c.Param("list"))
	if err != nil {
		return "", echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return kind, nil
}

func taskParams(c echo.Context) (board.ListKind, uuid.UUID, error) {
	kind, err := listParam(c)
	if err != nil {
		return "", uuid.Nil, err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return "", uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid task id")
	}
	return kind, id, nil
}

func respondTask(c echo.Context, b *board.Board, kind board.ListKind, id uuid.UUID) error {
	task, ok := b.Card(kind).Task(id)
	if !ok {
		return errTaskNotFound
	}
	return c.JSON(http.StatusOK, task)
}
