package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/GriffinCanCode/screenrec/internal/capture"
	apperr "github.com/GriffinCanCode/screenrec/internal/errors"
	"github.com/GriffinCanCode/screenrec/internal/session"
	"github.com/GriffinCanCode/screenrec/internal/trace"
)

// Controller is the recorder surface the server drives.
type Controller interface {
	ListSources(ctx context.Context) ([]capture.Source, error)
	SelectSourceByID(ctx context.Context, id string) (capture.Source, error)
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	State() session.Snapshot
	Events() <-chan session.Event
}

// Previewer serves the latest preview frame.
type Previewer interface {
	Latest() []byte
}

// rateLimiter tracks message timestamps using a sliding window.
type rateLimiter struct {
	timestamps []time.Time
	mu         sync.Mutex
}

// allow checks if a message is allowed and records the timestamp if so.
func (r *rateLimiter) allow() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-RateLimitWindow)

	// Prune old timestamps
	valid := r.timestamps[:0]
	for _, t := range r.timestamps {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}
	r.timestamps = valid

	if len(r.timestamps) >= RateLimitMessages {
		return false
	}

	r.timestamps = append(r.timestamps, now)
	return true
}

// Server handles HTTP and WebSocket connections.
type Server struct {
	ctrl    Controller
	preview Previewer
	health  *Health

	mu         sync.RWMutex
	conns      map[*websocket.Conn]struct{}
	rateLimits map[*websocket.Conn]*rateLimiter

	cancel context.CancelFunc
	done   chan struct{}
}

// Option configures a Server.
type Option func(*Server)

// WithHealth keeps h in step with the controller's session state.
func WithHealth(h *Health) Option {
	return func(s *Server) { s.health = h }
}

// New creates a server and starts broadcasting controller events.
func New(ctrl Controller, preview Previewer, opts ...Option) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		ctrl:       ctrl,
		preview:    preview,
		conns:      make(map[*websocket.Conn]struct{}),
		rateLimits: make(map[*websocket.Conn]*rateLimiter),
		cancel:     cancel,
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.syncHealth()

	go s.broadcastEvents(ctx)

	return s
}

// Close stops the event broadcaster.
func (s *Server) Close() {
	s.cancel()
	<-s.done
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// WebSocket endpoint
	mux.HandleFunc("/ws", s.handleWebSocket)

	// REST API
	mux.HandleFunc("GET /api/sources", s.handleSources)
	mux.HandleFunc("POST /api/sources/select", s.handleSelect)
	mux.HandleFunc("GET /api/state", s.handleState)
	mux.HandleFunc("POST /api/recording/start", s.handleRecordingStart)
	mux.HandleFunc("POST /api/recording/stop", s.handleRecordingStop)
	mux.HandleFunc("GET /api/preview", s.handlePreview)

	// Apply middleware: trace -> CORS
	return corsMiddleware(trace.Middleware(mux))
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleSources(w http.ResponseWriter, r *http.Request) {
	sources, err := s.ctrl.ListSources(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if kind := r.URL.Query().Get("kind"); kind != "" {
		filtered := sources[:0:0]
		for _, src := range sources {
			if string(src.Kind) == kind {
				filtered = append(filtered, src)
			}
		}
		sources = filtered
	}
	if sources == nil {
		sources = []capture.Source{}
	}
	writeJSON(w, http.StatusOK, SourcesResponse{Sources: sources})
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req SelectRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxRequestBytes)).Decode(&req); err != nil {
		writeError(w, r, apperr.Wrap(err, apperr.CodeInvalidArgument, "decode request"))
		return
	}
	if req.ID == "" {
		writeError(w, r, apperr.New(apperr.CodeInvalidArgument, "id is required"))
		return
	}
	if _, err := s.ctrl.SelectSourceByID(r.Context(), req.ID); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.ctrl.State())
}

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.ctrl.State())
}

func (s *Server) handleRecordingStart(w http.ResponseWriter, r *http.Request) {
	if err := s.ctrl.Start(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.ctrl.State())
}

func (s *Server) handleRecordingStop(w http.ResponseWriter, r *http.Request) {
	if err := s.ctrl.Stop(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.ctrl.State())
}

func (s *Server) handlePreview(w http.ResponseWriter, _ *http.Request) {
	var frame []byte
	if s.preview != nil {
		frame = s.preview.Latest()
	}
	if len(frame) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(frame)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("websocket accept error", "error", err)
		return
	}
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "") }()

	s.mu.Lock()
	s.conns[conn] = struct{}{}
	s.rateLimits[conn] = &rateLimiter{}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		delete(s.rateLimits, conn)
		s.mu.Unlock()
	}()

	// Get trace context from HTTP upgrade request
	baseCtx := r.Context()
	log := trace.Logger(baseCtx)
	log.Info("websocket connected", "remote", r.RemoteAddr)

	_ = wsjson.Write(baseCtx, conn, StateMessage{Type: "state", Snapshot: s.ctrl.State()})

	for {
		var msg json.RawMessage
		if err := wsjson.Read(baseCtx, conn, &msg); err != nil {
			log.Debug("websocket read error", "error", err)
			return
		}

		// Check rate limit
		s.mu.RLock()
		rl := s.rateLimits[conn]
		s.mu.RUnlock()

		if !rl.allow() {
			log.Warn("rate limit exceeded", "remote", r.RemoteAddr)
			_ = wsjson.Write(baseCtx, conn, ErrorMessage{
				Type:    "error",
				Message: "rate limit exceeded",
			})
			continue
		}

		var cmd CommandMessage
		if err := json.Unmarshal(msg, &cmd); err != nil {
			continue
		}

		// Extract trace_id from message or create new trace context
		ctx := baseCtx
		if cmd.TraceID != "" {
			tc := trace.NewChild(trace.Context{TraceID: cmd.TraceID})
			ctx = trace.WithContext(ctx, tc)
		} else {
			ctx, _ = trace.EnsureContext(ctx)
		}
		s.handleCommand(ctx, conn, cmd)
	}
}

func (s *Server) handleCommand(ctx context.Context, conn *websocket.Conn, cmd CommandMessage) {
	ctx, span := trace.StartSpan(ctx, "handle_command")
	defer span.End()
	span.SetAttr("command", cmd.Type)

	var err error
	switch cmd.Type {
	case "select":
		_, err = s.ctrl.SelectSourceByID(ctx, cmd.ID)
	case "start":
		err = s.ctrl.Start(ctx)
	case "stop":
		err = s.ctrl.Stop(ctx)
	case "state":
	default:
		err = apperr.Newf(apperr.CodeInvalidArgument, "unknown command %q", cmd.Type)
	}

	if err != nil {
		span.SetAttr("error", err.Error())
		trace.Logger(ctx).Warn("command failed", "command", cmd.Type, "error", err)
		_ = wsjson.Write(ctx, conn, ErrorMessage{Type: "error", Message: err.Error(), Code: apperr.CodeOf(err).String()})
		return
	}
	_ = wsjson.Write(ctx, conn, StateMessage{Type: "state", Snapshot: s.ctrl.State()})
}

func (s *Server) broadcastEvents(ctx context.Context) {
	defer close(s.done)
	events := s.ctrl.Events()
	for {
		select {
		case <-ctx.Done():
			return
		case evt := <-events:
			s.syncHealth()
			s.broadcast(EventMessage{Type: "event", Event: evt})
		}
	}
}

func (s *Server) broadcast(msg any) {
	s.mu.RLock()
	for conn := range s.conns {
		go func(c *websocket.Conn) {
			ctx, cancel := context.WithTimeout(context.Background(), BroadcastWriteTimeout)
			defer cancel()
			_ = wsjson.Write(ctx, c, msg)
		}(conn)
	}
	s.mu.RUnlock()
}

func (s *Server) syncHealth() {
	if s.health == nil {
		return
	}
	s.health.SetBound(s.ctrl.State().Source != nil)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	var appErr *apperr.AppError
	if errors.As(err, &appErr) {
		status = appErr.HTTPStatus()
	}
	log := trace.Logger(r.Context())
	if status >= http.StatusInternalServerError {
		log.Error("request failed", "path", r.URL.Path, "error", err)
	} else {
		log.Debug("request rejected", "path", r.URL.Path, "status", status, "error", err)
	}
	writeJSON(w, status, ErrorResponse{Error: err.Error(), Code: apperr.CodeOf(err).String()})
}
