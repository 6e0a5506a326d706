package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/VinaySavla/royanix/internal/domain/rbac"
	"github.com/VinaySavla/royanix/internal/imageutil"
	"github.com/VinaySavla/royanix/internal/service"
)

func testHandler() *APIHandler {
	return NewAPIHandler(NewHealthHandler(nil), nil, Services{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestWriteServiceError(t *testing.T) {
	h := testHandler()

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{"неверные учётные данные", service.ErrInvalidCredentials, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid credentials"},
		{"нужен superadmin", service.ErrSuperAdminRequired, http.StatusForbidden, "FORBIDDEN", "Access denied. Superadmin role required."},
		{"чужая запись", rbac.ErrAccessDenied, http.StatusForbidden, "FORBIDDEN", "Access denied"},
		{"не найдено", &service.UserError{Kind: service.ErrNotFound, Message: "User not found"}, http.StatusNotFound, "NOT_FOUND", "User not found"},
		{"конфликт", &service.UserError{Kind: service.ErrConflict, Message: "email already exists"}, http.StatusConflict, "CONFLICT", "email already exists"},
		{"валидация", &service.UserError{Kind: service.ErrValidation, Message: "Category is required"}, http.StatusBadRequest, "VALIDATION_ERROR", "Category is required"},
		{"короткий пароль", rbac.ErrPasswordTooShort, http.StatusBadRequest, "VALIDATION_ERROR", rbac.ErrPasswordTooShort.Error()},
		{"длинный пароль", rbac.ErrPasswordTooLong, http.StatusBadRequest, "VALIDATION_ERROR", rbac.ErrPasswordTooLong.Error()},
		{"обёрнутая ошибка изображения", fmt.Errorf("decode: %w", imageutil.ErrDecodeFailed), http.StatusBadRequest, "VALIDATION_ERROR", imageutil.ErrDecodeFailed.Error()},
		{"сжатие невозможно", &imageutil.CompressionError{MaxSizeKB: 1}, http.StatusUnprocessableEntity, "COMPRESSION_FAILED", "Unable to compress image below 1KB"},
		{"внутренняя", errors.New("connection reset"), http.StatusInternalServerError, "INTERNAL_ERROR", "Failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.writeServiceError(rec, httptest.NewRequest(http.MethodGet, "/", nil), tt.err, "Failed")

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, ожидался %d", rec.Code, tt.wantStatus)
			}
			var body struct {
				Error struct {
					Code    string `json:"code"`
					Message string `json:"message"`
				} `json:"error"`
			}
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("ошибка декодирования: %v", err)
			}
			if body.Error.Code != tt.wantCode || body.Error.Message != tt.wantMsg {
				t.Errorf("error = %+v, ожидалось %s %q", body.Error, tt.wantCode, tt.wantMsg)
			}
		})
	}
}

func TestPathID(t *testing.T) {
	tests := []struct {
		id     string
		wantOK bool
	}{
		{"0b9e4c1e-3f57-4b8e-9d0a-2c6f1f1d8e11", true},
		{"507f1f77bcf86cd799439011", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("id", tt.id)
			req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

			rec := httptest.NewRecorder()
			got, ok := pathID(rec, req, "Product not found")
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, ожидалось %v", ok, tt.wantOK)
			}
			if ok && got != tt.id {
				t.Errorf("id = %q", got)
			}
			if !ok && rec.Code != http.StatusNotFound {
				t.Errorf("status = %d, ожидался 404", rec.Code)
			}
		})
	}
}

func TestOverallStatus(t *testing.T) {
	if got := overallStatus("ok", "degraded"); got != "degraded" {
		t.Errorf("overallStatus = %q", got)
	}
	if got := overallStatus("degraded", "fail"); got != "fail" {
		t.Errorf("overallStatus = %q", got)
	}
	if got := overallStatus("ok"); got != "ok" {
		t.Errorf("overallStatus = %q", got)
	}
}
