// Package webapi serves the analyzer over HTTP.
package webapi

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/czcorpus/cnc-gokit/collections"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/steosofficial/koreanmorphy/config"
)

const (
	requestIDHeader            = "X-Request-ID"
	redisConnectionTestTimeout = 30 * time.Second
	shutdownTimeout            = 10 * time.Second
)

// NewRouter wires the handlers and middleware.
func NewRouter(actions *Actions, corsAllowedOrigins []string) *mux.Router {
	router := mux.NewRouter()
	router.Use(requestLogMiddleware)
	router.Use(mux.CORSMethodMiddleware(router))
	router.Use(corsMiddleware(corsAllowedOrigins))

	router.HandleFunc("/analyze", actions.Analyze).Methods(http.MethodPost, http.MethodOptions)
	router.HandleFunc("/diff", actions.Diff).Methods(http.MethodPost, http.MethodOptions)
	router.HandleFunc("/models", actions.Models).Methods(http.MethodGet)
	router.HandleFunc("/health", actions.Health).Methods(http.MethodGet)
	return router
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(status int) {
	sr.status = status
	sr.ResponseWriter.WriteHeader(status)
}

// requestLogMiddleware tags every request with an id, puts a logger carrying
// it into the request context and writes an access log line.
func requestLogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t0 := time.Now()
		reqID := r.Header.Get(requestIDHeader)
		if reqID == "" {
			reqID = uuid.New().String()
		}
		w.Header().Set(requestIDHeader, reqID)
		logger := log.With().Str("requestId", reqID).Logger()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r.WithContext(logger.WithContext(r.Context())))

		logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", time.Since(t0)).
			Msg("request")
	})
}

func corsMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" && collections.SliceContains(allowedOrigins, origin) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+requestIDHeader)
				w.Header().Add("Vary", "Origin")
			}
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// --- SERVER ---

type apiServer struct {
	server *http.Server
}

func (s *apiServer) Start() {
	log.Info().Msgf("starting to listen at %s", s.server.Addr)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()
}

func (s *apiServer) Stop(ctx context.Context) error {
	log.Warn().Msg("shutting down HTTP API server")
	return s.server.Shutdown(ctx)
}

// Run loads the configured models and serves them until SIGINT or SIGTERM.
func Run(conf *config.Conf) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	models, err := LoadModels(conf)
	if err != nil {
		return err
	}
	defer models.Close()

	var cache Cache
	if conf.Redis != nil {
		rc := NewRedisCache(conf.Redis)
		if err := rc.TestConnection(ctx, redisConnectionTestTimeout); err != nil {
			return err
		}
		defer rc.Close()
		cache = rc

	} else {
		log.Info().Msg("Redis not configured - analysis cache disabled")
	}

	srv := &apiServer{
		server: &http.Server{
			Handler:      NewRouter(NewActions(models, cache), conf.CorsAllowedOrigins),
			Addr:         conf.Addr(),
			WriteTimeout: time.Duration(conf.ServerWriteTimeoutSecs) * time.Second,
			ReadTimeout:  time.Duration(conf.ServerReadTimeoutSecs) * time.Second,
		},
	}
	srv.Start()
	<-ctx.Done()
	log.Warn().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Stop(shutdownCtx)
}
