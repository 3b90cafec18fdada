package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/osse101/BrickManager_Go/internal/database"
	"github.com/osse101/BrickManager_Go/internal/handler"
	"github.com/osse101/BrickManager_Go/internal/inventory"
	"github.com/osse101/BrickManager_Go/internal/listpush"
	"github.com/osse101/BrickManager_Go/internal/logger"
	"github.com/osse101/BrickManager_Go/internal/metrics"
	"github.com/osse101/BrickManager_Go/internal/reconcile"
	"github.com/osse101/BrickManager_Go/internal/repository"
	"github.com/osse101/BrickManager_Go/internal/storage"
)

// Options configures the HTTP surface
type Options struct {
	Port           int
	APIKey         string
	TrustedProxies []string
	Version        string
	ClientRPS      float64
	ClientBurst    int
}

// Dependencies are the services the routes call into. DB is nil for the
// in-memory backend; ImageDir is served under /images/ when set.
type Dependencies struct {
	DB        database.Pool
	Syncer    handler.Syncer
	SyncState repository.SyncState
	Inventory inventory.Service
	Reconcile reconcile.Service
	Storage   storage.Service
	Push      listpush.Service
	ImageDir  string
}

type Server struct {
	httpServer *http.Server
}

// NewServer creates a new Server instance
func NewServer(opts Options, deps Dependencies) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%d", opts.Port),
			Handler:           NewRouter(opts, deps),
			ReadHeaderTimeout: ReadHeaderTimeout,
		},
	}
}

// NewRouter builds the middleware stack and every route
func NewRouter(opts Options, deps Dependencies) http.Handler {
	if opts.ClientRPS <= 0 {
		opts.ClientRPS = DefaultClientRPS
	}
	if opts.ClientBurst <= 0 {
		opts.ClientBurst = DefaultClientBurst
	}

	r := chi.NewRouter()

	// Chi middleware executes in order defined (outermost to innermost)
	detector := NewSuspiciousActivityDetector()
	r.Use(loggingMiddleware)
	r.Use(SecurityHeadersMiddleware())
	r.Use(RateLimitMiddleware(opts.TrustedProxies, NewClientLimiter(opts.ClientRPS, opts.ClientBurst)))
	r.Use(AuthMiddleware(opts.APIKey, opts.TrustedProxies, detector))
	r.Use(RequestSizeLimitMiddleware(MaxRequestBytes))
	r.Use(metrics.Middleware)

	r.Get("/healthz", handler.HandleHealthz())
	r.Get("/readyz", handler.HandleReadyz(deps.DB))
	r.Get("/version", handler.HandleVersion(opts.Version))
	r.Handle("/metrics", promhttp.Handler())

	if deps.ImageDir != "" {
		r.Handle("/images/*", http.StripPrefix("/images/", http.FileServer(http.Dir(deps.ImageDir))))
	}

	sets := handler.NewSetsHandler(deps.Inventory)
	slots := handler.NewStorageHandler(deps.Storage)
	push := handler.NewPushHandler(deps.Push)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/sync", func(r chi.Router) {
			r.Get("/state", handler.HandleListSyncState(deps.SyncState))
			r.Post("/{kind}", handler.HandleRunSync(deps.Syncer))
		})

		r.Route("/sets", func(r chi.Router) {
			r.Post("/", sets.HandleAddSet)
			r.Get("/", sets.HandleListSets)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", sets.HandleGetSet)
				r.Delete("/", sets.HandleRemoveSet)
				r.Patch("/status", sets.HandleUpdateStatus)
				r.Get("/missing", handler.HandleMissingForSet(deps.Reconcile))
			})
		})

		r.Put("/parts/{id}/have", sets.HandlePartHave)
		r.Put("/minifig-parts/{id}/have", sets.HandleMinifigPartHave)
		r.Put("/minifigs/{id}/have", sets.HandleMinifigHave)

		r.Get("/missing", handler.HandleMissingAll(deps.Reconcile))
		r.Get("/summary", handler.HandleSummary(deps.Reconcile))

		r.Route("/storage", func(r chi.Router) {
			r.Put("/", slots.HandleAssign)
			r.Get("/box", slots.HandleBoxContents)
			r.Get("/distinct/{field}", slots.HandleDistinct)
			r.Delete("/slots/{id}", slots.HandleRemove)
			r.Get("/{part}", slots.HandleFind)
		})

		r.Route("/push", func(r chi.Router) {
			r.Post("/missing-parts", push.HandlePushMissingParts)
			r.Post("/owned-sets", push.HandlePushOwnedSets)
		})
	})

	return r
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
	}
}

func (rw *responseWriter) WriteHeader(statusCode int) {
	if !rw.written {
		rw.statusCode = statusCode
		rw.written = true
		rw.ResponseWriter.WriteHeader(statusCode)
	}
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.written {
		rw.WriteHeader(http.StatusOK)
	}
	return rw.ResponseWriter.Write(b)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Probes and scrapes would drown everything else
		if strings.HasPrefix(r.URL.Path, "/healthz") ||
			strings.HasPrefix(r.URL.Path, "/readyz") ||
			strings.HasPrefix(r.URL.Path, "/metrics") {
			next.ServeHTTP(w, r)
			return
		}

		requestID := r.Header.Get(HeaderRequestID)
		if requestID == "" {
			requestID = logger.GenerateRequestID()
		}
		w.Header().Set(HeaderRequestID, requestID)

		ctx := logger.WithRequestID(r.Context(), requestID)
		r = r.WithContext(ctx)
		log := logger.FromContext(ctx)

		log.Info(LogMsgRequestStarted,
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
			"content_length", r.ContentLength,
			"user_agent", r.UserAgent())

		sanitizedHeaders := make(http.Header)
		for k, v := range r.Header {
			if strings.EqualFold(k, HeaderAPIKey) || strings.EqualFold(k, HeaderAuthorization) {
				sanitizedHeaders[k] = []string{RedactedValue}
			} else {
				sanitizedHeaders[k] = v
			}
		}
		log.Debug(LogMsgRequestHeaders, "headers", sanitizedHeaders)

		rw := newResponseWriter(w)
		next.ServeHTTP(rw, r)

		duration := time.Since(start)
		log.Info(LogMsgRequestCompleted,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", duration.Milliseconds())
	})
}

// Start starts the server
func (s *Server) Start() error {
	logger.Info(LogMsgServerStarting, "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Stop stops the server gracefully
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
