package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/health/ready", "/health/ready"},
		{"/api/products", "/api/products"},
		{"/api/products/0b9e4c1e-3f57-4b8e-9d0a-2c6f1f1d8e11", "/api/products/{id}"},
		{"/api/categories/abc", "/api/categories/{id}"},
		{"/api/admin/users/0b9e4c1e-3f57-4b8e-9d0a-2c6f1f1d8e11", "/api/admin/users/{id}"},
		{"/api/admin/users/x/y", "other"},
		{"/wp-login.php", "other"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := normalizePath(tt.path); got != tt.want {
				t.Errorf("normalizePath(%q) = %q, ожидалось %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestMetricsMiddleware(t *testing.T) {
	handler := MetricsMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	counter := httpRequestsTotal.WithLabelValues(http.MethodDelete, "/api/categories/{id}", "404")
	before := testutil.ToFloat64(counter)

	req := httptest.NewRequest(http.MethodDelete, "/api/categories/missing", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if after := testutil.ToFloat64(counter); after != before+1 {
		t.Errorf("rx_http_requests_total = %v, ожидалось %v", after, before+1)
	}
}
