// Package dashboard serves the LeafGuard upload page and the session API
// behind it. Each browser session owns one workflow.
package dashboard

import (
	"context"
	"embed"
	"encoding/json"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/kamilpajak/leafguard/internal/workflow"
	"golang.org/x/time/rate"
)

//go:embed static
var staticFiles embed.FS

const (
	defaultMaxUpload  = 10 << 20
	defaultSessionTTL = 30 * time.Minute
)

// Config holds dashboard configuration.
type Config struct {
	Submitter        workflow.Submitter
	Logger           *slog.Logger
	MaxUploadBytes   int64
	UploadsPerMinute int // 0 disables limiting
	SessionTTL       time.Duration
}

// Handler serves the web dashboard and API endpoints.
type Handler struct {
	mux       *http.ServeMux
	submitter workflow.Submitter
	log       *slog.Logger
	sessions  *store
	limiter   *rate.Limiter
	maxUpload int64

	// ctx outlives individual requests; submissions started by a request
	// keep running after its response is written.
	ctx    context.Context
	cancel context.CancelFunc
}

// NewHandler creates a new web handler with all routes registered.
func NewHandler(cfg Config) *Handler {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = defaultMaxUpload
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = defaultSessionTTL
	}

	ctx, cancel := context.WithCancel(context.Background())
	h := &Handler{
		mux:       http.NewServeMux(),
		submitter: cfg.Submitter,
		log:       cfg.Logger,
		sessions:  newStore(cfg.SessionTTL, time.Now),
		maxUpload: cfg.MaxUploadBytes,
		ctx:       ctx,
		cancel:    cancel,
	}
	if cfg.UploadsPerMinute > 0 {
		h.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.UploadsPerMinute)), cfg.UploadsPerMinute)
	}

	staticFS, _ := fs.Sub(staticFiles, "static")
	h.mux.Handle("GET /", http.FileServer(http.FS(staticFS)))
	h.mux.HandleFunc("GET /health", h.handleHealth)
	h.mux.HandleFunc("POST /api/sessions", h.handleCreateSession)
	h.mux.HandleFunc("GET /api/sessions/{id}", h.withSession(h.handleGetState))
	h.mux.HandleFunc("POST /api/sessions/{id}/image", h.withSession(h.handleSelectImage))
	h.mux.HandleFunc("POST /api/sessions/{id}/analyze", h.withSession(h.handleAnalyze))
	h.mux.HandleFunc("POST /api/sessions/{id}/reset", h.withSession(h.handleReset))
	h.mux.HandleFunc("GET /api/sessions/{id}/events", h.withSession(h.handleEvents))
	h.mux.HandleFunc("GET /api/sessions/{id}/report", h.withSession(h.handleReport))

	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// Close cancels in-flight submissions and drops all sessions.
func (h *Handler) Close() {
	h.cancel()
	h.sessions.closeAll()
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
