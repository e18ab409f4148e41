// Package server exposes the conversational agent over HTTP: streaming and
// aggregated chat, session reset, health, and metrics.
package server

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lyuef/TrafficSenseAgent/internal/metrics"
	"github.com/lyuef/TrafficSenseAgent/pkg/session"
	"github.com/rs/zerolog"
)

// Options holds HTTP server settings
type Options struct {
	Host               string
	Port               int
	RateLimitPerMinute int
}

// Server is the agent HTTP server
type Server struct {
	options        Options
	server         *http.Server
	executor       *session.TurnExecutor
	rateLimiter    *RateLimiter
	logger         zerolog.Logger
	startTime      time.Time
	isShuttingDown bool
	shutdownMu     sync.RWMutex
	inFlightReqs   sync.WaitGroup
}

// New creates a new server
func New(options Options, executor *session.TurnExecutor, logger zerolog.Logger) (*Server, error) {
	if options.Port == 0 {
		options.Port = 8000
	}
	if options.Host == "" {
		options.Host = "0.0.0.0"
	}
	if options.RateLimitPerMinute == 0 {
		options.RateLimitPerMinute = 100
	}

	if executor == nil {
		return nil, fmt.Errorf("turn executor is required")
	}

	metrics.EnsureRegistered()

	return &Server{
		options:     options,
		executor:    executor,
		rateLimiter: NewRateLimiter(options.RateLimitPerMinute),
		logger:      logger,
		startTime:   time.Now(),
	}, nil
}

// Start starts the HTTP server and blocks until it is shut down
func (s *Server) Start() error {
	mux := http.NewServeMux()

	mux.HandleFunc("/", s.wrap("root", false, s.handleRoot))
	mux.HandleFunc("/api/health", s.wrap("health", false, s.handleHealth))
	mux.HandleFunc("/api/chat", s.wrap("chat", true, s.handleChat))
	mux.HandleFunc("/api/chat/stream", s.wrap("chat_stream", true, s.handleChatStream))
	mux.HandleFunc("/api/reset", s.wrap("reset", true, s.handleReset))
	mux.Handle("/metrics", metrics.Handler())

	s.server = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", s.options.Host, s.options.Port),
		Handler: mux,
	}

	s.logger.Info().
		Str("host", s.options.Host).
		Int("port", s.options.Port).
		Msg("Starting agent server")

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start agent server: %w", err)
	}

	return nil
}

// Stop gracefully stops the server, draining in-flight requests
func (s *Server) Stop() error {
	s.shutdownMu.Lock()
	s.isShuttingDown = true
	s.shutdownMu.Unlock()

	s.logger.Info().Msg("Shutting down agent server")

	done := make(chan struct{})
	go func() {
		s.inFlightReqs.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info().Msg("All in-flight requests completed")
	case <-time.After(30 * time.Second):
		s.logger.Warn().Msg("Shutdown timeout reached, forcing close")
	}

	s.rateLimiter.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown agent server: %w", err)
	}

	s.logger.Info().Msg("Agent server stopped")
	return nil
}

// wrap applies the shared request plumbing: shutdown gating, in-flight
// tracking, rate limiting, metrics, and request logging
func (s *Server) wrap(endpoint string, limited bool, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		s.shutdownMu.RLock()
		if s.isShuttingDown {
			s.shutdownMu.RUnlock()
			http.Error(w, "Server is shutting down", http.StatusServiceUnavailable)
			return
		}
		s.shutdownMu.RUnlock()

		s.inFlightReqs.Add(1)
		defer s.inFlightReqs.Done()

		requestID := uuid.NewString()
		ip := s.clientIP(r)

		if limited && !s.rateLimiter.CheckLimit(ip) {
			retryAfter := s.rateLimiter.RetryAfter(ip)
			s.logger.Warn().
				Str("request_id", requestID).
				Str("ip", ip).
				Str("path", r.URL.Path).
				Int("retry_after", retryAfter).
				Msg("Rate limit exceeded")

			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)

		duration := time.Since(start)
		metrics.RecordHTTPRequest(endpoint, strconv.Itoa(rec.status), duration)

		s.logger.Info().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("ip", ip).
			Int("status", rec.status).
			Dur("duration", duration).
			Msg("Request completed")
	}
}

// clientIP extracts the client IP from the request
func (s *Server) clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ips := strings.Split(xff, ",")
		if len(ips) > 0 {
			return strings.TrimSpace(ips[0])
		}
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return ip
}

// statusRecorder captures the response status for logging and metrics
// while passing Flush through to the underlying writer for streaming
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
