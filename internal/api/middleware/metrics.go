// metrics.go — Prometheus HTTP метрики.
// Регистрирует метрики: rx_http_requests_total, rx_http_request_duration_seconds.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// httpRequestsTotal — общее количество HTTP-запросов.
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rx_http_requests_total",
			Help: "Общее количество HTTP-запросов",
		},
		[]string{"method", "path", "status"},
	)

	// httpRequestDuration — гистограмма длительности HTTP-запросов.
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rx_http_request_duration_seconds",
			Help:    "Длительность HTTP-запросов в секундах",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// MetricsMiddleware возвращает HTTP middleware для сбора Prometheus метрик.
func MetricsMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			path := normalizePath(r.URL.Path)

			wrapped := newMetricsResponseWriter(w)
			next.ServeHTTP(wrapped, r)

			status := strconv.Itoa(wrapped.statusCode)
			httpRequestsTotal.WithLabelValues(r.Method, path, status).Inc()
			httpRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
		})
	}
}

// metricsResponseWriter — обёртка для перехвата статус-кода.
type metricsResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func newMetricsResponseWriter(w http.ResponseWriter) *metricsResponseWriter {
	return &metricsResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (rw *metricsResponseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Unwrap позволяет http.ResponseController получить доступ к оригинальному ResponseWriter.
func (rw *metricsResponseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// staticPaths — пути без идентификаторов.
var staticPaths = map[string]struct{}{
	"/health/live":      {},
	"/health/ready":     {},
	"/metrics":          {},
	"/api/auth/login":   {},
	"/api/auth/check":   {},
	"/api/auth/logout":  {},
	"/api/admin/users":  {},
	"/api/admin/stats":  {},
	"/api/admin/images": {},
	"/api/products":     {},
	"/api/categories":   {},
}

// resourcePrefixes — коллекции, у которых последний сегмент является ID.
var resourcePrefixes = []string{
	"/api/admin/users/",
	"/api/products/",
	"/api/categories/",
}

// normalizePath заменяет ID ресурса на {id}, неизвестные пути сводит к "other",
// чтобы кардинальность лейблов оставалась ограниченной.
// /api/products/a1b2c3d4-... → /api/products/{id}
func normalizePath(path string) string {
	if _, ok := staticPaths[path]; ok {
		return path
	}
	for _, prefix := range resourcePrefixes {
		rest, ok := strings.CutPrefix(path, prefix)
		if ok && rest != "" && !strings.Contains(rest, "/") {
			return prefix + "{id}"
		}
	}
	return "other"
}
