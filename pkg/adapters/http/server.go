package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/aretw0/spellout"
	"github.com/aretw0/spellout/internal/logging"
	"github.com/aretw0/spellout/internal/presentation/graph"
	"github.com/aretw0/spellout/pkg/domain"
	"github.com/aretw0/spellout/pkg/lexicon"
	"github.com/aretw0/spellout/pkg/setupfile"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

// maxBodyBytes bounds request bodies; setups are small documents.
const maxBodyBytes = 1 << 20

// Sessions is the session surface the API drives. *session.Manager
// implements it.
type Sessions interface {
	Create(ctx context.Context, setup *lexicon.Setup) (*domain.Progress, error)
	Load(ctx context.Context, sessionID string) (*spellout.Engine, error)
	Progress(ctx context.Context, sessionID string) (*domain.Progress, error)
	Forward(ctx context.Context, sessionID string, alternative int) (*domain.Progress, error)
	Back(ctx context.Context, sessionID string) (*domain.Progress, error)
	Run(ctx context.Context, sessionID string, onlySuccessful bool) (*domain.Progress, error)
	Delete(ctx context.Context, sessionID string) error
	List(ctx context.Context) ([]string, error)
}

// ForwardRequest is the body of POST /sessions/{id}/forward. A missing
// alternative means the default one.
type ForwardRequest struct {
	Alternative *int `json:"alternative" validate:"omitempty,gte=-1"`
}

// RunRequest is the body of POST /sessions/{id}/run.
type RunRequest struct {
	OnlySuccessful bool `json:"only_successful"`
}

// Server serves the derivation API.
type Server struct {
	Sessions Sessions
	Streams  *StreamManager

	logger   *slog.Logger
	metrics  http.Handler
	validate *validator.Validate
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetricsHandler mounts h (typically promhttp) on GET /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// NewHandler creates a new HTTP handler over the session manager.
func NewHandler(sessions Sessions, opts ...Option) http.Handler {
	server := &Server{
		Sessions: sessions,
		logger:   logging.NewNop(),
		validate: validator.New(),
	}
	for _, opt := range opts {
		opt(server)
	}
	server.Streams = NewStreamManager(server.logger)

	r := chi.NewRouter()
	r.Get("/health", server.GetHealth)
	r.Get("/info", server.GetInfo)
	if server.metrics != nil {
		r.Method(http.MethodGet, "/metrics", server.metrics)
	}

	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", server.ListSessions)
		r.Post("/", server.CreateSession)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", server.GetSession)
			r.Delete("/", server.DeleteSession)
			r.Post("/forward", server.Forward)
			r.Post("/back", server.Back)
			r.Post("/run", server.Run)
			r.Get("/graph", server.GetGraph)
			r.Get("/snapshot", server.GetSnapshot)
			r.Get("/events", server.SubscribeEvents)
		})
	})

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Custom-Header")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":     "spellout-http",
		"version": strings.TrimSpace(spellout.Version),
	})
}

// ListSessions handles the GET /sessions request.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Sessions.List(r.Context())
	if err != nil {
		s.fail(w, "ListSessions", err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	s.writeJSON(w, http.StatusOK, map[string][]string{"sessions": ids})
}

// CreateSession handles the POST /sessions request. The body is a setup
// document in its JSON form.
func (s *Server) CreateSession(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	doc, err := setupfile.Parse(data, setupfile.FormatJSON)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		s.logger.Warn("CreateSession: Invalid setup document", "err", err)
		return
	}
	if doc.LexiconVault != "" {
		http.Error(w, "lexicon_vault is not supported over HTTP", http.StatusBadRequest)
		return
	}
	setup, err := doc.Setup()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	progress, err := s.Sessions.Create(r.Context(), setup)
	if err != nil {
		s.fail(w, "CreateSession", err)
		return
	}
	w.Header().Set("Location", "/sessions/"+progress.SessionID)
	s.writeJSON(w, http.StatusCreated, progress)
}

// GetSession handles the GET /sessions/{id} request.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	progress, err := s.Sessions.Progress(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, "GetSession", err)
		return
	}
	s.writeJSON(w, http.StatusOK, progress)
}

// DeleteSession handles the DELETE /sessions/{id} request.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.Sessions.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, "DeleteSession", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Forward handles the POST /sessions/{id}/forward request.
func (s *Server) Forward(w http.ResponseWriter, r *http.Request) {
	var body ForwardRequest
	if !s.decode(w, r, &body) {
		return
	}
	alternative := domain.DefaultAlternative
	if body.Alternative != nil {
		alternative = *body.Alternative
	}
	s.step(w, r, "Forward", func(ctx context.Context, id string) (*domain.Progress, error) {
		return s.Sessions.Forward(ctx, id, alternative)
	})
}

// Back handles the POST /sessions/{id}/back request.
func (s *Server) Back(w http.ResponseWriter, r *http.Request) {
	s.step(w, r, "Back", s.Sessions.Back)
}

// Run handles the POST /sessions/{id}/run request.
func (s *Server) Run(w http.ResponseWriter, r *http.Request) {
	var body RunRequest
	if !s.decode(w, r, &body) {
		return
	}
	s.step(w, r, "Run", func(ctx context.Context, id string) (*domain.Progress, error) {
		return s.Sessions.Run(ctx, id, body.OnlySuccessful)
	})
}

// GetGraph handles the GET /sessions/{id}/graph request (Mermaid).
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	eng, err := s.Sessions.Load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, "GetGraph", err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, graph.GenerateMermaid(eng.Tree(), graph.OverlayOf(eng)))
}

// GetSnapshot handles the GET /sessions/{id}/snapshot request.
func (s *Server) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	eng, err := s.Sessions.Load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, "GetSnapshot", err)
		return
	}
	data, err := eng.MarshalSnapshot()
	if err != nil {
		s.fail(w, "GetSnapshot", err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}

// step runs a session command, answers with the new progress and
// broadcasts the difference to subscribers.
func (s *Server) step(w http.ResponseWriter, r *http.Request, op string, fn func(context.Context, string) (*domain.Progress, error)) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	var before *domain.Progress
	if s.Streams.HasSubscribers(id) {
		before, _ = s.Sessions.Progress(ctx, id)
	}

	progress, err := fn(ctx, id)
	if err != nil {
		s.fail(w, op, err)
		return
	}

	if before != nil {
		if diff := domain.Diff(before, progress); diff != nil {
			if bytes, err := json.Marshal(diff); err == nil {
				s.Streams.Broadcast(id, string(bytes))
			}
		}
	}
	s.writeJSON(w, http.StatusOK, progress)
}

// decode reads an optional JSON body into v and validates it.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("Invalid request body", "path", r.URL.Path, "err", err)
		return false
	}
	if err := s.validate.Struct(v); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request: %v", err), http.StatusBadRequest)
		return false
	}
	return true
}

// statusFor maps engine and session errors onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidAlternative):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrCannotGoForward),
		errors.Is(err, domain.ErrCannotGoBack),
		errors.Is(err, domain.ErrNotStarted):
		return http.StatusConflict
	case errors.Is(err, lexicon.ErrNoInitialNode),
		errors.Is(err, lexicon.ErrInitialNotFeature),
		errors.Is(err, lexicon.ErrNoExternalMerges),
		errors.Is(err, lexicon.ErrMergeNotFeature),
		errors.Is(err, lexicon.ErrEmptyLexicon):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(w http.ResponseWriter, op string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error(op+" failed", "err", err)
	} else {
		s.logger.Debug(op+" rejected", "err", err, "status", status)
	}
	http.Error(w, err.Error(), status)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}

// StreamManager handles active SSE connections
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- string]struct{} // SessionID -> Set of Channels
	logger      *slog.Logger
}

func NewStreamManager(logger *slog.Logger) *StreamManager {
	return &StreamManager{
		subscribers: make(map[string]map[chan<- string]struct{}),
		logger:      logger,
	}
}

func (sm *StreamManager) Subscribe(sessionID string) (chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 10)
	if _, ok := sm.subscribers[sessionID]; !ok {
		sm.subscribers[sessionID] = make(map[chan<- string]struct{})
	}
	sm.subscribers[sessionID][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[sessionID]; ok {
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, sessionID)
			}
		}
	}
}

// HasSubscribers reports whether anyone listens to sessionID.
func (sm *StreamManager) HasSubscribers(sessionID string) bool {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers[sessionID]) > 0
}

func (sm *StreamManager) Broadcast(sessionID string, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers[sessionID] {
		select {
		case ch <- msg:
		default:
			// Drop message if channel is full (slow client)
			sm.logger.Warn("SSE: Client buffer full, dropping message", "session_id", sessionID)
		}
	}
}

// SubscribeEvents handles the GET /sessions/{id}/events request (SSE).
// Each event carries a domain.ProgressDiff.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	sessionID := chi.URLParam(r, "id")
	if _, err := s.Sessions.Progress(r.Context(), sessionID); err != nil {
		s.fail(w, "SubscribeEvents", err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.Streams.Subscribe(sessionID)
	defer cancel()

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Debug("SSE Client Disconnected", "session_id", sessionID)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}
