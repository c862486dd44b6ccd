package query

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// Server exposes a Store over HTTP:
//
//	GET /api/de?type=dsEER&cellType=B%20cell&symbol=TP53&limit=100&threshold=0.05
//	GET /api/cell-types?type=dsEER
//	GET /healthz
type Server struct {
	store  *Store
	router *echo.Echo
}

type errorResponse struct {
	Error string `json:"error"`
}

// NewServer wires routes and middleware.
func NewServer(store *Store) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	s := &Server{store: store, router: e}
	e.GET("/api/de", s.searchDE)
	e.GET("/api/cell-types", s.cellTypes)
	e.GET("/healthz", s.healthz)
	return s
}

// Handler returns the HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

// Run serves on addr until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		log.Printf("query: listening on %s", addr)
		if err := s.router.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	log.Printf("query: shutting down")
	return s.router.Shutdown(sctx)
}

func (s *Server) searchDE(c echo.Context) error {
	p := Params{
		AnalysisType: c.QueryParam("type"),
		CellType:     c.QueryParam("cellType"),
		Symbol:       c.QueryParam("symbol"),
	}
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "limit must be an integer"})
		}
		p.Limit = n
	}
	if v := c.QueryParam("threshold"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "threshold must be a number"})
		}
		p.Threshold = f
	}

	hits, err := s.store.Search(c.Request().Context(), p)
	if errors.Is(err, ErrInvalidParams) {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}
	if err != nil {
		log.Printf("query: %v", err)
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
	}
	c.Response().Header().Set("Cache-Control", "s-maxage=3600, stale-while-revalidate")
	return c.JSON(http.StatusOK, hits)
}

func (s *Server) cellTypes(c echo.Context) error {
	out, err := s.store.CellTypes(c.Request().Context(), c.QueryParam("type"))
	if err != nil {
		log.Printf("query: %v", err)
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) healthz(c echo.Context) error {
	if err := s.store.Ping(c.Request().Context()); err != nil {
		return c.JSON(http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
