package devserver

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/html"

	kerrors "github.com/vango-dev/kinetic/internal/errors"
	"github.com/vango-dev/kinetic/pkg/dom"
	"github.com/vango-dev/kinetic/pkg/loop"
	"github.com/vango-dev/kinetic/pkg/scheduler"
)

// Action is a named state change triggered over HTTP. It runs on the loop
// goroutine and may touch components freely.
type Action func(ctx context.Context) error

// Server is the preview server for one document.
type Server struct {
	loop     *loop.Loop
	doc      *dom.Document
	logger   *slog.Logger
	title    string
	gatherer prometheus.Gatherer
	timeout  time.Duration

	hub    *hub
	router chi.Router

	mu      sync.RWMutex
	actions map[string]Action
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithTitle sets the preview page title.
func WithTitle(title string) Option {
	return func(s *Server) { s.title = title }
}

// WithGatherer sets the Prometheus gatherer behind /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		if g != nil {
			s.gatherer = g
		}
	}
}

// WithTimeout bounds how long a request waits for the loop.
func WithTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// New creates a preview server for doc. sched's flushes are pushed to
// websocket clients. Call New before the loop starts running, or from the
// loop goroutine.
func New(l *loop.Loop, sched *scheduler.Scheduler, doc *dom.Document, opts ...Option) *Server {
	s := &Server{
		loop:     l,
		doc:      doc,
		logger:   slog.Default(),
		title:    "kinetic",
		gatherer: prometheus.DefaultGatherer,
		timeout:  5 * time.Second,
		actions:  make(map[string]Action),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "devserver")
	s.hub = newHub(s.logger)
	sched.OnFlush(s.push)
	s.router = s.routes()
	return s
}

// Handle registers an action under name, replacing any previous one.
func (s *Server) Handle(name string, a Action) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.actions[name] = a
}

// Actions returns the registered action names, sorted.
func (s *Server) Actions() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.actions))
	for name := range s.actions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Clients returns the number of connected websocket clients.
func (s *Server) Clients() int {
	return s.hub.count()
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/", s.handlePage)
	r.Get("/document", s.handleDocument)
	r.Get("/ws", s.handleWS)
	r.Get("/actions", s.handleListActions)
	r.Post("/actions/{name}", s.handleAction)
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	return r
}

// ListenAndServe runs the loop and serves addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	loopErr := make(chan error, 1)
	go func() { loopErr <- s.loop.Run(ctx) }()

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.ListenAndServe() }()
	s.logger.Info("devserver: listening", "addr", addr)

	var err error
	select {
	case <-ctx.Done():
	case err = <-serveErr:
		cancel()
	case err = <-loopErr:
		if errors.Is(err, context.Canceled) {
			err = nil
		}
		cancel()
	}

	s.hub.close()
	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	if serr := srv.Shutdown(shutdownCtx); serr != nil && err == nil {
		err = serr
	}
	if errors.Is(err, http.ErrServerClosed) {
		err = nil
	}
	return err
}

// onLoop runs fn on the loop goroutine and waits for it.
func (s *Server) onLoop(ctx context.Context, fn func()) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	done := make(chan struct{})
	s.loop.Submit(func() {
		defer close(done)
		fn()
	})
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// push runs on the loop after every non-empty flush.
func (s *Server) push(stats scheduler.FlushStats) {
	if s.hub.count() == 0 {
		return
	}
	s.hub.broadcast(Message{
		Type:     MessageDocument,
		Frame:    s.loop.FrameCount(),
		HTML:     dom.RenderChildren(s.doc.Body),
		Jobs:     stats.Jobs,
		Failures: stats.Failures,
	})
}

func (s *Server) snapshot(ctx context.Context) (Message, error) {
	var msg Message
	err := s.onLoop(ctx, func() {
		msg = Message{
			Type:  MessageDocument,
			Frame: s.loop.FrameCount(),
			HTML:  dom.RenderChildren(s.doc.Body),
		}
	})
	return msg, err
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	var page string
	err := s.onLoop(r.Context(), func() { page = s.doc.HTML() })
	if err != nil {
		http.Error(w, "loop unavailable: "+err.Error(), http.StatusServiceUnavailable)
		return
	}
	page = strings.Replace(page, "</head>", "<title>"+html.EscapeString(s.title)+"</title></head>", 1)
	page = strings.Replace(page, "</body>", ClientScript+"</body>", 1)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte("<!DOCTYPE html>\n" + page))
}

func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	msg, err := s.snapshot(r.Context())
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, Message{Type: MessageError, Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, msg)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	first, err := s.snapshot(r.Context())
	if err != nil {
		http.Error(w, "loop unavailable: "+err.Error(), http.StatusServiceUnavailable)
		return
	}
	s.hub.serve(w, r, first)
}

func (s *Server) handleListActions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"actions": s.Actions()})
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	s.mu.RLock()
	action, ok := s.actions[name]
	s.mu.RUnlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, Message{Type: MessageError, Error: "unknown action " + name})
		return
	}

	var actionErr error
	err := s.onLoop(r.Context(), func() {
		actionErr = kerrors.Catch("action "+name, func() error { return action(r.Context()) })
	})
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, Message{Type: MessageError, Error: err.Error()})
		return
	}
	if actionErr != nil {
		s.logger.Error("devserver: action failed", "action", name, "error", actionErr)
		s.hub.broadcast(Message{Type: MessageError, Error: actionErr.Error()})
		writeJSON(w, http.StatusInternalServerError, Message{Type: MessageError, Error: actionErr.Error()})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("devserver: request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
