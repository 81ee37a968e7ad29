package network

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"battlecar/game"
	blog "battlecar/log"
	"battlecar/room"
	"battlecar/store"
)

// History is the read side of the match store.
type History interface {
	Recent(ctx context.Context, limit int) ([]store.Match, error)
	Stats(ctx context.Context) ([]store.Stat, error)
}

type Options struct {
	AllowOrigins  []string // empty allows any origin
	RoomCreateRPM int      // POST /api/rooms per IP per minute
	SimulateRPM   int      // POST /api/simulate per IP per minute
}

type Server struct {
	rooms    *room.Manager
	history  History // may be nil
	opts     Options
	upgrader websocket.Upgrader
	log      zerolog.Logger
}

func NewServer(rooms *room.Manager, history History, opts Options) *Server {
	if opts.RoomCreateRPM <= 0 {
		opts.RoomCreateRPM = 30
	}
	if opts.SimulateRPM <= 0 {
		opts.SimulateRPM = 10
	}
	s := &Server{
		rooms:   rooms,
		history: history,
		opts:    opts,
		log:     blog.WithComponent("network"),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     s.checkOrigin,
	}
	return s
}

func (s *Server) checkOrigin(r *http.Request) bool {
	if len(s.opts.AllowOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, o := range s.opts.AllowOrigins {
		if o == origin {
			return true
		}
	}
	return false
}

// Router builds the HTTP surface.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/ws", s.handleWS)

	r.Route("/api", func(r chi.Router) {
		r.Get("/rooms", s.listRooms)
		r.Get("/rooms/{code}", s.getRoom)
		r.With(s.perIPLimit(s.opts.RoomCreateRPM, "too many rooms created, try again later")).Post("/rooms", s.createRoom)
		r.Get("/matches", s.listMatches)
		r.Get("/stats", s.stats)
		r.With(s.perIPLimit(s.opts.SimulateRPM, "too many simulations, try again later")).Post("/simulate", s.simulate)
	})
	return r
}

// perIPLimit allows rpm requests per client IP per minute.
func (s *Server) perIPLimit(rpm int, detail string) func(http.Handler) http.Handler {
	return httprate.Limit(
		rpm,
		time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate_limit_exceeded", detail)
		}),
	)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("http request")
	})
}

// ListenAndServe serves until ctx is cancelled, then shuts down within grace.
func (s *Server) ListenAndServe(ctx context.Context, addr string, grace time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.log.Info().Str("addr", addr).Msg("listening (ws endpoint: /ws)")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// clampSimTicks bounds a headless run to one hour of simulated time.
func clampSimTicks(n int) int {
	const limit = 60 * 60 * game.DefaultTickHz
	if n <= 0 || n > limit {
		return limit
	}
	return n
}
