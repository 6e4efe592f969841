package web

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"github.com/felixge/httpsnoop"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"ytaudio/internal/logger"
	"ytaudio/pkg/models"
)

//go:embed static/* templates/*.html
var assets embed.FS

const RequestIDHeader = "X-Request-ID"

// Searcher runs keyword searches.
type Searcher interface {
	Search(ctx context.Context, query string) ([]models.SearchResultItem, error)
}

// AudioResolver turns a video id into a playable audio URL.
type AudioResolver interface {
	Resolve(ctx context.Context, videoID string, mode models.Mode) (*models.ResolvedAudio, error)
}

type Server struct {
	config    *models.Config
	port      int
	searcher  Searcher
	resolver  AudioResolver
	media     *http.Client
	templates *template.Template
	server    *http.Server
}

func NewServer(config *models.Config, port int, searcher Searcher, resolver AudioResolver) (*Server, error) {
	tmpl, err := template.ParseFS(assets, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	return &Server{
		config:    config,
		port:      port,
		searcher:  searcher,
		resolver:  resolver,
		media:     &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
		templates: tmpl,
	}, nil
}

// Handler returns the routed and instrumented handler tree.
func (s *Server) Handler() (http.Handler, error) {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleHome)
	mux.HandleFunc("GET /search", s.handleSearch)
	mux.HandleFunc("POST /stream/{video_id}", s.handleStream)
	mux.HandleFunc("GET /download/{video_id}", s.handleDownload)

	// Static files
	staticFS, err := fs.Sub(assets, "static")
	if err != nil {
		return nil, fmt.Errorf("failed to create static file system: %w", err)
	}
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))

	return otelhttp.NewHandler(s.requestIDMiddleware(s.loggingMiddleware(mux)), "ytaudio"), nil
}

func (s *Server) Start() error {
	handler, err := s.Handler()
	if err != nil {
		return err
	}

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Starting web server on port %d", s.port)
	logger.Info("Access the web interface at: http://0.0.0.0:%d", s.port)

	return s.server.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

type ctxKey int

const requestIDKey ctxKey = iota

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m := httpsnoop.CaptureMetrics(next, w, r)
		logger.LogHTTPRequest(requestIDFrom(r.Context()), r.Method, r.URL.Path, m.Code, m.Duration)
	})
}

// render executes a template into a buffer so a failure can still become a 500.
func (s *Server) render(w http.ResponseWriter, status int, name string, data interface{}) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		logger.Error("Error rendering %s: %v", name, err)
		s.writeError(w, http.StatusInternalServerError, "Template rendering failed")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		logger.Debug("Error writing %s: %v", name, err)
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("Error encoding JSON response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, NewErrorResponse(message))
}
