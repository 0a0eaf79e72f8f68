// Package devserver is a local stand-in for the dashboard backend: the chat
// history endpoint, the chat socket and both chart endpoints.
package devserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/stockstorm/widgets-go/chart"
	"github.com/stockstorm/widgets-go/livechat/rest"
	"github.com/stockstorm/widgets-go/logging"
)

// LoginPath is where unauthenticated history requests are redirected.
const LoginPath = "/accounts/login/"

// Options configures a Server.
type Options struct {
	Store             *Store
	Charts            ChartSource
	Logger            logging.Logger
	SessionCookieName string
	PruneInterval     time.Duration
}

// Server serves the dashboard HTTP endpoints and the chat socket. The socket
// lives on its own listener, like the production deployment.
type Server struct {
	store      *Store
	charts     ChartSource
	hub        *Hub
	logger     logging.Logger
	cookieName string
	prune      time.Duration
}

func New(opts Options) *Server {
	store := opts.Store
	if store == nil {
		store = NewStore()
	}
	charts := opts.Charts
	if charts == nil {
		charts = NewDemoCharts()
	}
	cookieName := opts.SessionCookieName
	if cookieName == "" {
		cookieName = "sessionid"
	}
	prune := opts.PruneInterval
	if prune <= 0 {
		prune = time.Hour
	}
	logger := logging.OrNop(opts.Logger)
	return &Server{
		store:      store,
		charts:     charts,
		hub:        NewHub(store, logger),
		logger:     logger,
		cookieName: cookieName,
		prune:      prune,
	}
}

// Hub returns the chat room.
func (s *Server) Hub() *Hub { return s.hub }

// Handler returns the HTTP router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get(rest.MessagesPath, s.handleMessages)
	r.Get("/v1/ai/bot/{botID}/chart", s.handleBotChart)
	r.Get(chart.PortfolioChartPath, s.handlePortfolioChart)
	return r
}

// SocketHandler returns the chat socket handler.
func (s *Server) SocketHandler() http.Handler { return s.hub }

// Run serves both listeners and prunes expired history until ctx is done,
// then shuts down within shutdownTimeout.
func (s *Server) Run(ctx context.Context, httpAddr, socketAddr string, shutdownTimeout time.Duration) error {
	servers := []*http.Server{
		{Addr: httpAddr, Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second, IdleTimeout: 60 * time.Second},
		{Addr: socketAddr, Handler: s.SocketHandler(), ReadHeaderTimeout: 5 * time.Second},
	}

	errCh := make(chan error, len(servers))
	var wg sync.WaitGroup
	for _, srv := range servers {
		wg.Add(1)
		go func(srv *http.Server) {
			defer wg.Done()
			s.logger.Info("listening", map[string]any{"addr": srv.Addr})
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}(srv)
	}

	ticker := time.NewTicker(s.prune)
	defer ticker.Stop()

	var runErr error
loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case err := <-errCh:
			runErr = err
			break loop
		case <-ticker.C:
			if n, err := s.store.Prune(); err != nil {
				s.logger.Warn("prune history", map[string]any{"error": err.Error()})
			} else if n > 0 {
				s.logger.Info("pruned expired messages", map[string]any{"count": n})
			}
		}
	}

	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	for _, srv := range servers {
		if err := srv.Shutdown(sctx); err != nil {
			s.logger.Error("http server shutdown", map[string]any{"addr": srv.Addr, "error": err.Error()})
		}
	}
	s.hub.CloseAll()
	s.hub.Wait()
	wg.Wait()
	s.logger.Info("shutdown complete", nil)
	return runErr
}

func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(s.cookieName)
	var user User
	ok := err == nil
	if ok {
		user, ok = s.store.UserBySession(cookie.Value)
	}
	if !ok {
		http.Redirect(w, r, LoginPath+"?next="+url.QueryEscape(r.URL.Path), http.StatusFound)
		return
	}
	writeJSON(w, http.StatusOK, rest.MessagesResponse{Messages: s.store.History(user.ID)})
}

func (s *Server) handleBotChart(w http.ResponseWriter, r *http.Request) {
	env, status := s.charts.BotChart(r.Context(), chi.URLParam(r, "botID"))
	writeJSON(w, status, env)
}

func (s *Server) handlePortfolioChart(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	period := DefaultPeriodDays
	if v := q.Get("period"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, errorEnvelope("Invalid period: "+v))
			return
		}
		period = n
	}
	env, status := s.charts.PortfolioChart(r.Context(), q.Get("strategy"), period)
	writeJSON(w, status, env)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
