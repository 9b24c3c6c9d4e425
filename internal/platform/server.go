package platform

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"time"

	"fauxterm/internal/executor"
	"fauxterm/internal/messages"
	"fauxterm/ui"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HTTPServerConfig holds HTTP server tunables.
type HTTPServerConfig struct {
	Host         string
	Port         int // first port tried
	PortAttempts int // ports tried upwards from Port
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	EnableTLS    bool   // whether to use HTTPS
	CertFile     string // path to TLS certificate
	KeyFile      string // path to TLS private key
	SessionKey   string // cookie signing key; random per process when empty
	CORSOrigins  []string
}

// SessionHeader is accepted in place of the session cookie.
const SessionHeader = messages.SessionHeader

const sessionCookie = "fauxterm"

// Service bundles what the handlers need.
type Service struct {
	Exec     *executor.Executor
	Sessions *executor.Registry
	Events   messages.EventPublisher
	JS       jetstream.JetStream // nil when the event bus is disabled

	// CommandTimeout is how long the browser widget waits for one command.
	CommandTimeout time.Duration
}

// NewCookieStore returns the session store for key, generating a key when
// none is configured.
func NewCookieStore(key string) *sessions.CookieStore {
	k := []byte(key)
	if len(k) == 0 {
		k = securecookie.GenerateRandomKey(32)
	}
	return sessions.NewCookieStore(k)
}

// SessionMiddleware assigns or loads the session ID and sets it in the context.
func SessionMiddleware(store sessions.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(SessionHeader)
			if _, err := uuid.Parse(id); err != nil {
				id = ""
				sess, _ := store.Get(r, sessionCookie)
				id, _ = sess.Values["id"].(string)
				if id == "" {
					id = uuid.NewString()
					sess.Values["id"] = id
					sess.Options = &sessions.Options{
						Path:     "/",
						MaxAge:   60 * 60 * 24 * 7, // 1 week
						HttpOnly: true,
						Secure:   r.TLS != nil,
						SameSite: http.SameSiteLaxMode,
					}
					if err := sess.Save(r, w); err != nil {
						slog.Warn("session save", "err", err)
					}
				}
			}
			w.Header().Set(SessionHeader, id)
			ctx := context.WithValue(r.Context(), sessionCtxKey{}, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// NewRouter wires the routes of the fauxterm service.
func NewRouter(svc *Service, store sessions.Store, cfg HTTPServerConfig) http.Handler {
	InitMetrics()

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(chiLogger)
	r.Use(middleware.Recoverer)
	r.Use(corsHandler(cfg.CORSOrigins))
	r.Use(SessionMiddleware(store))

	// metrics endpoint
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Get("/", Liveness(svc))
	r.Get("/health", Health)
	r.Post("/execute", Execute(svc))
	r.Get("/events", EventsStream(svc.JS))
	r.Get("/docs", Docs)

	// static assets
	staticFS, _ := fs.Sub(ui.StaticFS, "static")
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))
	r.Handle("/favicon.svg", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/svg+xml")
		w.Write(ui.FaviconSVG)
	}))

	return r
}

func corsHandler(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	wildcard := len(origins) == 1 && origins[0] == "*"
	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", SessionHeader, messages.CommandIDHeader},
		ExposedHeaders:   []string{SessionHeader},
		AllowCredentials: !wildcard,
		MaxAge:           300,
	})
}

// RunHTTPServer serves h on ln and returns a channel that will receive an
// error when the server exits (gracefully or not).
func RunHTTPServer(ctx context.Context, ln net.Listener, h http.Handler, cfg HTTPServerConfig) <-chan error {
	errCh := make(chan error, 1)

	srv := &http.Server{
		Handler:      h,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	go func() {
		// wait for context cancellation then shutdown
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			errCh <- err
			return
		}
		errCh <- ctx.Err()
	}()

	go func() {
		var err error
		if cfg.EnableTLS {
			err = srv.ServeTLS(ln, cfg.CertFile, cfg.KeyFile)
		} else {
			err = srv.Serve(ln)
		}
		if err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	return errCh
}

// chiLogger is a lightweight slog adapter for chi middleware.
func chiLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t0 := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		duration := time.Since(t0)
		routePattern := chi.RouteContext(r.Context()).RoutePattern()
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		HTTPRequestsTotal.WithLabelValues(r.Method, routePattern, fmt.Sprint(status)).Inc()
		HTTPDuration.WithLabelValues(r.Method, routePattern).Observe(duration.Seconds())
		slog.Info("http", "method", r.Method, "path", r.URL.Path, "route", routePattern,
			"status", status, "duration", duration, "req_id", middleware.GetReqID(r.Context()))
	})
}

// SessionID returns the session ID from the request context.
type sessionCtxKey struct{}

func SessionID(r *http.Request) string {
	id, _ := r.Context().Value(sessionCtxKey{}).(string)
	return id
}
