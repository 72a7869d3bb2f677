package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/ardiutama/Piutang/internal/core"
	applog "github.com/ardiutama/Piutang/internal/log"
	"github.com/ardiutama/Piutang/internal/store"
	appweb "github.com/ardiutama/Piutang/web"
)

// Server serves the record UI and mutation endpoints. Every request
// resolves its record store through the provider, so the remote variant
// serves each session owner from that owner's own store. Rendered views
// are cached per store and invalidated through the store's change
// subscription, so external changes refresh them too.
type Server struct {
	http.Server
	templates   *template.Template
	stores      store.Provider
	logger      *applog.Logger
	requestLog  *applog.RequestLogger
	rateLimiter *rateLimiter

	viewMu sync.Mutex
	views  map[*store.Store]*storeView

	shutdownOnce sync.Once
}

// viewData is the projected state rendered by partials. It is rebuilt
// lazily after every store change notification.
type viewData struct {
	Receivables       []core.Receivable
	Revenues          []core.Revenue
	ReceivableSummary core.ReceivableSummary
	RevenueSummary    core.RevenueSummary
}

// storeView caches one store's projection.
type storeView struct {
	st *store.Store

	mu   sync.Mutex
	data *viewData
}

func (v *storeView) invalidate() {
	v.mu.Lock()
	v.data = nil
	v.mu.Unlock()
}

// current returns the cached projection, rebuilding it from the store
// when a change invalidated it.
func (v *storeView) current() *viewData {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.data != nil {
		return v.data
	}

	receivables := core.SortReceivables(v.st.Receivables())
	revenues := core.SortRevenues(v.st.Revenues())
	v.data = &viewData{
		Receivables:       receivables,
		Revenues:          revenues,
		ReceivableSummary: core.SummarizeReceivables(receivables),
		RevenueSummary:    core.SummarizeRevenues(revenues),
	}
	return v.data
}

// Simple in-memory rate limiter
type rateLimiter struct {
	mu           sync.Mutex
	clients      map[string]*clientInfo
	stopCleanup  chan struct{}
	shutdownOnce sync.Once
}

type clientInfo struct {
	lastRequest time.Time
	requests    int
}

func newRateLimiter() *rateLimiter {
	rl := &rateLimiter{
		clients:     make(map[string]*clientInfo),
		stopCleanup: make(chan struct{}),
	}
	go rl.startCleanup()
	return rl
}

func (rl *rateLimiter) startCleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanupStaleEntries()
		case <-rl.stopCleanup:
			return
		}
	}
}

// cleanupStaleEntries removes client entries older than 10 minutes
func (rl *rateLimiter) cleanupStaleEntries() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-10 * time.Minute)
	for ip, client := range rl.clients {
		if client.lastRequest.Before(cutoff) {
			delete(rl.clients, ip)
		}
	}
}

func (rl *rateLimiter) stop() {
	rl.shutdownOnce.Do(func() {
		close(rl.stopCleanup)
	})
}

func (rl *rateLimiter) allow(clientIP string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	client, exists := rl.clients[clientIP]

	if !exists {
		rl.clients[clientIP] = &clientInfo{
			lastRequest: now,
			requests:    1,
		}
		return true
	}

	// Reset counter if more than 1 minute has passed
	if now.Sub(client.lastRequest) > time.Minute {
		client.requests = 1
		client.lastRequest = now
		return true
	}

	// Allow up to 60 requests per minute
	client.requests++
	client.lastRequest = now

	return client.requests <= 60
}

// NewServer configures routes and templates, returning a ready-to-run server.
func NewServer(addr string, stores store.Provider, logger *applog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr: addr,
		},
		stores:      stores,
		logger:      logger.WithComponent(applog.ComponentHTTP),
		requestLog:  applog.NewRequestLogger(logger),
		rateLimiter: newRateLimiter(),
		views:       make(map[*store.Store]*storeView),
	}
	s.Server.Handler = applog.Middleware(logger)(mux)

	// Parse embedded templates at startup.
	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		s.logger.Warn("Failed parsing templates", applog.FieldError, err.Error())
	}
	s.templates = t

	// Static assets (served from embedded FS)
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "public, max-age=3600, immutable")
			static.ServeHTTP(w, r)
		}))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", applog.FieldError, err.Error())
	}

	mux.HandleFunc("/", s.withSecurityHeaders(s.handleIndex))
	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)

	mux.HandleFunc("/receivables", s.withSecurityHeaders(s.handleCreateReceivable))
	mux.HandleFunc("/receivables/update", s.withSecurityHeaders(s.handleUpdateReceivable))
	mux.HandleFunc("/receivables/pay", s.withSecurityHeaders(s.handleRecordPayment))
	mux.HandleFunc("/receivables/delete", s.withSecurityHeaders(s.handleDeleteReceivable))

	mux.HandleFunc("/revenues", s.withSecurityHeaders(s.handleCreateRevenue))
	mux.HandleFunc("/revenues/update", s.withSecurityHeaders(s.handleUpdateRevenue))
	mux.HandleFunc("/revenues/delete", s.withSecurityHeaders(s.handleDeleteRevenue))

	// UI partials
	mux.HandleFunc("/ui/receivables", s.withSecurityHeaders(s.handleReceivablesTable))
	mux.HandleFunc("/ui/revenues", s.withSecurityHeaders(s.handleRevenuesTable))
	mux.HandleFunc("/ui/summary", s.withSecurityHeaders(s.handleSummary))

	mux.HandleFunc("/export", s.withSecurityHeaders(s.handleExport))

	return s
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

// storeFor resolves the request's store. A resolution failure means the
// request has no usable session; nothing data-bearing can be served.
func (s *Server) storeFor(w http.ResponseWriter, r *http.Request) (*store.Store, bool) {
	st, err := s.stores.StoreFor(r.Context())
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Store resolution failed",
			applog.FieldError, err.Error(),
			applog.FieldPath, r.URL.Path)
		http.Error(w, "records unavailable", http.StatusInternalServerError)
		return nil, false
	}
	return st, true
}

// viewFor returns the cached projection for st, registering the
// invalidation subscription the first time the store is seen.
func (s *Server) viewFor(st *store.Store) *viewData {
	s.viewMu.Lock()
	v, ok := s.views[st]
	if !ok {
		v = &storeView{st: st}
		s.views[st] = v
		// Drop the cached projection whenever the store changes,
		// whether from a local mutation or an external change event.
		st.Subscribe(v.invalidate)
	}
	s.viewMu.Unlock()
	return v.current()
}

// withSecurityHeaders adds security headers, rate limiting, and request
// logging to responses.
func (s *Server) withSecurityHeaders(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ip := clientIP(r)
		ctx := r.Context()

		s.requestLog.LogStart(ctx, r, ip)

		// Rate limit mutations only
		if r.Method == http.MethodPost && !s.rateLimiter.allow(ip) {
			s.logger.WarnContext(ctx, "Rate limit exceeded",
				applog.FieldClientIP, ip,
				applog.FieldMethod, r.Method,
				applog.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'self' https://unpkg.com 'unsafe-eval'; style-src 'self' 'unsafe-inline'; img-src 'self' data:; connect-src 'self'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		s.requestLog.LogEnd(ctx, r, rw.statusCode, time.Since(start).Milliseconds(), ip)
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
