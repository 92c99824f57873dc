package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"sharehub/internal/config"
	"sharehub/internal/models"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Gateway fronts the core service: it validates request shape and identity,
// applies per-caller rate limits, and proxies everything that passes.
type Gateway struct {
	proxy    *httputil.ReverseProxy
	server   *http.Server
	cfg      config.GatewayConfig
	logger   *zerolog.Logger
	limiters sync.Map // caller id -> *rate.Limiter
}

func New(cfg config.GatewayConfig, logger *zerolog.Logger) (*Gateway, error) {
	target, err := url.Parse(cfg.ServerURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server_url: %w", err)
	}

	g := &Gateway{
		proxy:  httputil.NewSingleHostReverseProxy(target),
		cfg:    cfg,
		logger: logger,
	}
	g.proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		logger.Error().Err(err).Str("path", r.URL.Path).Msg("proxy error")
		g.writeError(w, r, http.StatusBadGateway, "upstream unavailable")
	}

	g.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           g.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
	}
	return g, nil
}

func (g *Gateway) Start() error {
	g.logger.Info().Str("addr", g.server.Addr).Msg("gateway listening")
	if err := g.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (g *Gateway) Shutdown(ctx context.Context) error {
	return g.server.Shutdown(ctx)
}

// Handler exposes the routing stack for tests.
func (g *Gateway) Handler() http.Handler {
	return g.server.Handler
}

func (g *Gateway) routes() http.Handler {
	mux := http.NewServeMux()

	// Users carry no identity header; everything else does.
	mux.HandleFunc("POST /users", g.forward)
	mux.HandleFunc("GET /users", g.forward)
	mux.HandleFunc("GET /users/{id}", g.forward)
	mux.HandleFunc("PATCH /users/{id}", g.forward)
	mux.HandleFunc("DELETE /users/{id}", g.forward)

	mux.HandleFunc("POST /items", g.withIdentity(g.forward))
	mux.HandleFunc("PATCH /items/{id}", g.withIdentity(g.forward))
	mux.HandleFunc("GET /items/{id}", g.withIdentity(g.forward))
	mux.HandleFunc("GET /items", g.withIdentity(g.forward))
	mux.HandleFunc("GET /items/search", g.validatePagination(g.forward))
	mux.HandleFunc("POST /items/{id}/comment", g.withIdentity(g.validateComment))

	mux.HandleFunc("POST /bookings", g.withIdentity(g.validateBooking))
	mux.HandleFunc("PATCH /bookings/{id}", g.withIdentity(g.forward))
	mux.HandleFunc("GET /bookings/{id}", g.withIdentity(g.forward))
	mux.HandleFunc("GET /bookings", g.withIdentity(g.validateState(g.validatePagination(g.forward))))
	mux.HandleFunc("GET /bookings/owner", g.withIdentity(g.validateState(g.validatePagination(g.forward))))

	mux.HandleFunc("POST /requests", g.withIdentity(g.forward))
	mux.HandleFunc("GET /requests", g.withIdentity(g.forward))
	mux.HandleFunc("GET /requests/all", g.withIdentity(g.validatePagination(g.forward)))
	mux.HandleFunc("GET /requests/{id}", g.withIdentity(g.forward))

	return g.rateLimit(mux)
}

func (g *Gateway) forward(w http.ResponseWriter, r *http.Request) {
	g.proxy.ServeHTTP(w, r)
}

// withIdentity requires a well-formed caller identity header.
func (g *Gateway) withIdentity(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get(models.HeaderUserID)
		if raw == "" {
			g.writeError(w, r, http.StatusBadRequest, fmt.Sprintf("%s header is required", models.HeaderUserID))
			return
		}
		if _, err := strconv.ParseInt(raw, 10, 64); err != nil {
			g.writeError(w, r, http.StatusBadRequest, fmt.Sprintf("%s header must be an integer", models.HeaderUserID))
			return
		}
		next(w, r)
	}
}

// validateState rejects unrecognized booking state filters. The core service
// would silently treat them as ALL; the gateway is stricter on purpose.
func (g *Gateway) validateState(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state := r.URL.Query().Get("state")
		if state != "" && !models.KnownState(state) {
			g.writeError(w, r, http.StatusBadRequest, fmt.Sprintf("Unknown state: %s", state))
			return
		}
		next(w, r)
	}
}

func (g *Gateway) validatePagination(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if raw := r.URL.Query().Get("from"); raw != "" {
			if v, err := strconv.Atoi(raw); err != nil || v < 0 {
				g.writeError(w, r, http.StatusBadRequest, "from must be a non-negative integer")
				return
			}
		}
		if raw := r.URL.Query().Get("size"); raw != "" {
			if v, err := strconv.Atoi(raw); err != nil || v <= 0 {
				g.writeError(w, r, http.StatusBadRequest, "size must be a positive integer")
				return
			}
		}
		next(w, r)
	}
}

// validateBooking checks the window shape before the core service sees it.
func (g *Gateway) validateBooking(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		g.writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	r.Body = io.NopCloser(bytes.NewReader(body))

	var req struct {
		ItemID int64  `json:"itemId"`
		Start  string `json:"start"`
		End    string `json:"end"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		g.writeError(w, r, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.ItemID == 0 {
		g.writeError(w, r, http.StatusBadRequest, "itemId is required")
		return
	}

	start, err := parseDateTime(req.Start)
	if err != nil {
		g.writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	end, err := parseDateTime(req.End)
	if err != nil {
		g.writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if !start.Before(end) {
		g.writeError(w, r, http.StatusBadRequest, "booking start must be before end")
		return
	}
	if start.Before(time.Now().Add(-time.Minute)) {
		g.writeError(w, r, http.StatusBadRequest, "booking start must not be in the past")
		return
	}

	g.forward(w, r)
}

func (g *Gateway) validateComment(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		g.writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	r.Body = io.NopCloser(bytes.NewReader(body))

	var req struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		g.writeError(w, r, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		g.writeError(w, r, http.StatusBadRequest, "text must not be blank")
		return
	}

	g.forward(w, r)
}

// rateLimit throttles per caller id; anonymous requests share one bucket.
func (g *Gateway) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if g.cfg.RateLimit.RPS > 0 {
			key := r.Header.Get(models.HeaderUserID)
			if key == "" {
				key = "anonymous"
			}
			if !g.limiter(key).Allow() {
				g.writeError(w, r, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (g *Gateway) limiter(key string) *rate.Limiter {
	if v, ok := g.limiters.Load(key); ok {
		return v.(*rate.Limiter)
	}

	burst := g.cfg.RateLimit.Burst
	if burst <= 0 {
		burst = 5
	}
	lim := rate.NewLimiter(rate.Limit(g.cfg.RateLimit.RPS), burst)
	actual, _ := g.limiters.LoadOrStore(key, lim)
	return actual.(*rate.Limiter)
}

func parseDateTime(raw string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999", "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date-time: %s", raw)
}

func (g *Gateway) writeError(w http.ResponseWriter, r *http.Request, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":    statusCode,
		"error":     http.StatusText(statusCode),
		"message":   message,
		"path":      r.URL.Path,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
