package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/reelscrape"
	"github.com/google/uuid"
)

// DefaultAddr is the listen address used when none is configured.
const DefaultAddr = ":8080"

// scrapedAtLayout renders timestamps in ISO-8601 UTC with milliseconds.
const scrapedAtLayout = "2006-01-02T15:04:05.000Z07:00"

// Server exposes the catalog and the resolver as a JSON API.
type Server struct {
	server *http.Server
	ln     net.Listener

	catalog  reelscrape.CatalogService
	resolver reelscrape.Resolver
	origin   reelscrape.Origin
	logger   *slog.Logger
	now      func() time.Time
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithAddr sets the listen address. Defaults to DefaultAddr.
func WithAddr(addr string) ServerOption {
	return func(s *Server) {
		s.server.Addr = addr
	}
}

// WithServerOrigin sets the origin used to expand slug parameters.
func WithServerOrigin(o reelscrape.Origin) ServerOption {
	return func(s *Server) {
		s.origin = o
	}
}

// WithLogger sets the request logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) ServerOption {
	return func(s *Server) {
		s.logger = l
	}
}

// WithClock overrides the source of scrapedAt timestamps.
func WithClock(now func() time.Time) ServerOption {
	return func(s *Server) {
		s.now = now
	}
}

// NewServer creates a Server backed by catalog and resolver.
func NewServer(catalog reelscrape.CatalogService, resolver reelscrape.Resolver, opts ...ServerOption) *Server {
	s := &Server{
		server:   &http.Server{Addr: DefaultAddr, ReadHeaderTimeout: 10 * time.Second},
		catalog:  catalog,
		resolver: resolver,
		origin:   reelscrape.DefaultOrigin,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.server.Handler = s.Handler()
	return s
}

// Handler returns the routed handler wrapped in request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/category", s.handleCategory)
	mux.HandleFunc("GET /api/movie", s.handleMovie)
	mux.HandleFunc("GET /api/servers", s.handleServers)
	mux.HandleFunc("GET /api/resolve", s.handleResolve)
	mux.HandleFunc("GET /api/movies", s.handleHome)
	mux.HandleFunc("GET /api/movies/{category}", s.handleHomeSection)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	return s.logRequests(mux)
}

// Open starts listening on the configured address and serves in the
// background.
func (s *Server) Open() error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return err
	}
	s.ln = ln

	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("server stopped", "err", err)
		}
	}()
	return nil
}

// Addr returns the bound address once Open succeeded.
func (s *Server) Addr() string {
	if s.ln == nil {
		return s.server.Addr
	}
	return s.ln.Addr().String()
}

// Close gracefully shuts the server down.
func (s *Server) Close(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

type categoryResponse struct {
	Success            bool                      `json:"success"`
	CategoryTitle      string                    `json:"categoryTitle"`
	TotalMovies        int                       `json:"totalMovies"`
	TotalSubCategories int                       `json:"totalSubCategories"`
	Movies             []reelscrape.MovieSummary `json:"movies"`
	SubCategories      []reelscrape.SubCategory  `json:"subCategories"`
	HasSubCategories   bool                      `json:"hasSubCategories"`
	SourceURL          string                    `json:"sourceUrl"`
	stamp
}

func (s *Server) handleCategory(w http.ResponseWriter, r *http.Request) {
	target := r.URL.Query().Get("url")
	if target == "" {
		if slug := r.URL.Query().Get("slug"); slug != "" {
			target = s.origin.CategoryURL(slug)
		}
	}
	if target == "" {
		s.writeError(w, r, reelscrape.Errorf(reelscrape.EINVALID, "Category URL is required"))
		return
	}

	c, err := s.catalog.FindCategory(r.Context(), target)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, r, http.StatusOK, &categoryResponse{
		Success:            true,
		CategoryTitle:      c.Title,
		TotalMovies:        len(c.Movies),
		TotalSubCategories: len(c.SubCategories),
		Movies:             c.Movies,
		SubCategories:      c.SubCategories,
		HasSubCategories:   c.HasSubCategories(),
		SourceURL:          c.SourceURL,
	})
}

type movieResponse struct {
	Success   bool                    `json:"success"`
	Data      *reelscrape.MovieDetail `json:"data"`
	SourceURL string                  `json:"sourceUrl"`
	stamp
}

func (s *Server) handleMovie(w http.ResponseWriter, r *http.Request) {
	target := r.URL.Query().Get("url")
	if target == "" {
		if slug := r.URL.Query().Get("slug"); slug != "" {
			target = s.origin.MovieURLs(slug)[0]
		}
	}
	if target == "" {
		s.writeError(w, r, reelscrape.Errorf(reelscrape.EINVALID, "Movie URL is required"))
		return
	}

	m, err := s.catalog.FindMovie(r.Context(), target)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, r, http.StatusOK, &movieResponse{
		Success:   true,
		Data:      m,
		SourceURL: target,
	})
}

type fileInfo struct {
	FileName string `json:"fileName"`
	FileSize string `json:"fileSize"`
}

type serverData struct {
	Servers      []reelscrape.ServerLink `json:"servers"`
	TotalServers int                     `json:"totalServers"`
	FileInfo     fileInfo                `json:"fileInfo"`
}

type serversResponse struct {
	Success   bool       `json:"success"`
	Data      serverData `json:"data"`
	SourceURL string     `json:"sourceUrl"`
	stamp
}

func (s *Server) handleServers(w http.ResponseWriter, r *http.Request) {
	target := r.URL.Query().Get("url")
	if target == "" {
		s.writeError(w, r, reelscrape.Errorf(reelscrape.EINVALID, "Server URL is required"))
		return
	}

	l, err := s.catalog.FindServers(r.Context(), target)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, r, http.StatusOK, &serversResponse{
		Success: true,
		Data: serverData{
			Servers:      l.Servers,
			TotalServers: len(l.Servers),
			FileInfo:     fileInfo{FileName: l.FileName, FileSize: l.FileSize},
		},
		SourceURL: target,
	})
}

type resolveResponse struct {
	Success     bool                          `json:"success"`
	OriginalURL string                        `json:"originalUrl"`
	ResolvedURL string                        `json:"resolvedUrl"`
	IsResolved  bool                          `json:"isResolved"`
	Strategy    reelscrape.ResolutionStrategy `json:"strategy"`
	Error       string                        `json:"error,omitempty"`
	Message     string                        `json:"message,omitempty"`
	stamp
}

// handleResolve answers 200 for every outcome the resolver reports as a
// result, degraded ones included. Expired links carry success=false.
func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	target := r.URL.Query().Get("url")
	if target == "" {
		s.writeError(w, r, reelscrape.Errorf(reelscrape.EINVALID, "URL parameter is required"))
		return
	}

	res, err := s.resolver.Resolve(r.Context(), target)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := resolveResponse{
		Success:     true,
		OriginalURL: res.OriginalURL,
		ResolvedURL: res.ResolvedURL,
		IsResolved:  res.IsResolved,
		Strategy:    res.Strategy,
		Message:     res.Message,
	}
	if res.Message == reelscrape.MessageNotFound {
		resp.Success = false
		resp.Error = res.Message
	}
	s.writeJSON(w, r, http.StatusOK, &resp)
}

type homeResponse struct {
	Success         bool                 `json:"success"`
	TotalCategories int                  `json:"totalCategories"`
	Data            []reelscrape.Section `json:"data"`
	stamp
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	sections, err := s.catalog.FindHome(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if sections == nil {
		sections = []reelscrape.Section{}
	}

	s.writeJSON(w, r, http.StatusOK, &homeResponse{
		Success:         true,
		TotalCategories: len(sections),
		Data:            sections,
	})
}

type sectionResponse struct {
	Success     bool                      `json:"success"`
	Category    string                    `json:"category"`
	TotalMovies int                       `json:"totalMovies"`
	Movies      []reelscrape.MovieSummary `json:"movies"`
	stamp
}

func (s *Server) handleHomeSection(w http.ResponseWriter, r *http.Request) {
	section, err := s.catalog.FindHomeSection(r.Context(), r.PathValue("category"))
	if reelscrape.ErrorCode(err) == reelscrape.ENOTFOUND {
		s.writeJSON(w, r, http.StatusNotFound, errorResponse{Success: false, Error: "Category not found", Message: reelscrape.ErrorMessage(err)})
		return
	} else if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, r, http.StatusOK, &sectionResponse{
		Success:     true,
		Category:    section.Title,
		TotalMovies: len(section.Movies),
		Movies:      section.Movies,
	})
}

// stamp carries the time a response was scraped. It is left out of the
// ETag so repeated requests for unchanged data share a tag.
type stamp struct {
	ScrapedAt string `json:"scrapedAt"`
}

func (st *stamp) setScrapedAt(v string) { st.ScrapedAt = v }

type stamped interface {
	setScrapedAt(v string)
}

func (s *Server) scrapedAt() string {
	return s.now().UTC().Format(scrapedAtLayout)
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

// writeError answers 400 for bad input and 500 for everything else,
// upstream failures included.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, summary := http.StatusInternalServerError, "Failed to scrape data"
	if reelscrape.ErrorCode(err) == reelscrape.EINVALID {
		status, summary = http.StatusBadRequest, "Invalid request"
	}

	msg := reelscrape.ErrorMessage(err)
	if reelscrape.ErrorCode(err) == reelscrape.EINTERNAL {
		msg = err.Error()
		s.logger.Error("request failed", "path", r.URL.Path, "err", err)
	}
	s.writeJSON(w, r, status, errorResponse{Success: false, Error: summary, Message: msg})
}

// writeJSON encodes v and tags the response with an ETag over the payload.
// Stamped responses are hashed before their scrapedAt is set.
func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		s.encodeFailed(w, err)
		return
	}
	etag := fmt.Sprintf(`"%016x"`, xxhash.Sum64(body))
	if st, ok := v.(stamped); ok {
		st.setScrapedAt(s.scrapedAt())
		if body, err = json.Marshal(v); err != nil {
			s.encodeFailed(w, err)
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("ETag", etag)
	if status == http.StatusOK && matchesETag(r.Header.Get("If-None-Match"), etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func (s *Server) encodeFailed(w http.ResponseWriter, err error) {
	s.logger.Error("encode response", "err", err)
	http.Error(w, "internal error", http.StatusInternalServerError)
}

func matchesETag(header, etag string) bool {
	for _, candidate := range strings.Split(header, ",") {
		if strings.TrimSpace(candidate) == etag {
			return true
		}
	}
	return false
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", id)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		defer func(begin time.Time) {
			s.logger.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"request_id", id,
				"duration", time.Since(begin),
			)
		}(time.Now())

		next.ServeHTTP(rec, r)
	})
}
