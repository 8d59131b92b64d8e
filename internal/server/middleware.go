package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/emrgen/ingest/internal/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// RequestTimeMiddleware logs how long each request took and records it per route.
func RequestTimeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		reqTime := time.Since(start)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		metrics.RequestDuration.WithLabelValues(route, strconv.Itoa(ww.Status())).Observe(reqTime.Seconds())
		logrus.Infof("request time: %s %s: %v", r.Method, route, reqTime)
	})
}

// RateLimitMiddleware rejects requests once the shared token bucket is empty.
func RateLimitMiddleware(limiter *rate.Limiter, route string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				w.Header().Set("Retry-After", "1")
				metrics.RateLimitRejected.WithLabelValues(route).Inc()
				writeError(w, errRateLimited)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
