package server

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VinaySavla/royanix/internal/api/handlers"
	"github.com/VinaySavla/royanix/internal/api/middleware"
	"github.com/VinaySavla/royanix/internal/auth"
	"github.com/VinaySavla/royanix/internal/domain/model"
	"github.com/VinaySavla/royanix/internal/domain/rbac"
	"github.com/VinaySavla/royanix/internal/imageutil"
	"github.com/VinaySavla/royanix/internal/repository/repotest"
	"github.com/VinaySavla/royanix/internal/service"
)

const rootPassword = "rootpass"

// testEnv — роутер поверх in-memory репозиториев.
type testEnv struct {
	router  http.Handler
	admins  *repotest.Admins
	catalog *repotest.Catalog
	tokens  *auth.TokenManager
	root    *model.Admin
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	admins := repotest.NewAdmins()
	catalog := repotest.NewCatalog()

	hash, err := auth.HashPassword(rootPassword)
	require.NoError(t, err)
	root := admins.Seed("root", rbac.RoleSuperAdmin, hash, true)

	tokens := auth.NewTokenManager("server-test-secret-0123456789", time.Hour)
	sessions := auth.NewSessionManager(tokens, false)

	h := handlers.NewAPIHandler(
		handlers.NewHealthHandler(nil),
		sessions,
		handlers.Services{
			Auth:       service.NewAuthService(admins, logger),
			AdminUsers: service.NewAdminUserService(admins, admins, logger),
			Catalog: service.NewCatalogService(catalog.Products(), catalog.Categories(), service.CatalogConfig{
				MaxImageSizeKB: imageutil.DefaultMaxSizeKB,
				CacheSize:      16,
				CacheTTL:       time.Minute,
			}, logger),
			Stats:  service.NewStatsService(catalog.Products(), catalog.Categories()),
			Images: service.NewImageService(imageutil.Options{}, logger),
		},
		logger,
	)

	return &testEnv{
		router:  NewRouter(logger, h, middleware.NewJWTAuth(sessions, logger)),
		admins:  admins,
		catalog: catalog,
		tokens:  tokens,
		root:    root,
	}
}

func (e *testEnv) tokenFor(t *testing.T, a *model.Admin) string {
	t.Helper()
	token, _, err := e.tokens.Issue(a)
	require.NoError(t, err)
	return token
}

// do выполняет запрос; token == "" — без аутентификации.
func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: token})
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

// errorOf возвращает code и message из тела ошибки.
func errorOf(t *testing.T, rec *httptest.ResponseRecorder) (string, string) {
	t.Helper()
	body := decode(t, rec)
	errObj, ok := body["error"].(map[string]any)
	require.True(t, ok, "ожидался объект error: %s", rec.Body.String())
	return errObj["code"].(string), errObj["message"].(string)
}

func TestHealthLive(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "royanix", decode(t, rec)["service"])

	rec = env.do(t, http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestLoginFlow(t *testing.T) {
	env := newTestEnv(t)

	t.Run("пустые поля", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"username": "root"})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		_, msg := errorOf(t, rec)
		assert.Equal(t, "Username and password are required", msg)
	})

	t.Run("неверный пароль", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"username": "root", "password": "nope"})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		code, msg := errorOf(t, rec)
		assert.Equal(t, "UNAUTHORIZED", code)
		assert.Equal(t, "Invalid credentials", msg)
	})

	t.Run("успешный вход по email", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
			"username": "root@example.com", "password": rootPassword,
		})
		require.Equal(t, http.StatusOK, rec.Code)

		body := decode(t, rec)
		assert.Equal(t, "Login successful", body["message"])
		admin := body["admin"].(map[string]any)
		assert.Equal(t, env.root.ID, admin["id"])
		assert.Equal(t, rbac.RoleSuperAdmin, admin["role"])

		var cookie *http.Cookie
		for _, c := range rec.Result().Cookies() {
			if c.Name == auth.CookieName {
				cookie = c
			}
		}
		require.NotNil(t, cookie, "cookie admin-token не установлена")
		assert.True(t, cookie.HttpOnly)
		assert.Equal(t, int((time.Hour).Seconds()), cookie.MaxAge)

		check := env.do(t, http.MethodGet, "/api/auth/check", cookie.Value, nil)
		require.Equal(t, http.StatusOK, check.Code)
		assert.Equal(t, true, decode(t, check)["authenticated"])
	})

	t.Run("check без токена", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/auth/check", "", nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		_, msg := errorOf(t, rec)
		assert.Equal(t, "No token provided", msg)
	})

	t.Run("logout удаляет cookie", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/auth/logout", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, auth.CookieName, cookies[0].Name)
		assert.Less(t, cookies[0].MaxAge, 0)
	})
}

func TestAdminUsersRoutes(t *testing.T) {
	env := newTestEnv(t)
	rootToken := env.tokenFor(t, env.root)
	staff := env.admins.Seed("staff", rbac.RoleAdmin, "unused", true)
	staffToken := env.tokenFor(t, staff)

	t.Run("admin не видит список", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/admin/users", staffToken, nil)
		require.Equal(t, http.StatusForbidden, rec.Code)
		_, msg := errorOf(t, rec)
		assert.Equal(t, "Access denied. Superadmin role required.", msg)
	})

	t.Run("superadmin видит список без хешей", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/admin/users", rootToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.NotContains(t, rec.Body.String(), "unused")
		assert.NotContains(t, strings.ToLower(rec.Body.String()), "password")
	})

	t.Run("создание и дубликат", func(t *testing.T) {
		body := map[string]string{"username": "  editor ", "email": "Editor@Example.com", "password": "secret1"}
		rec := env.do(t, http.MethodPost, "/api/admin/users", rootToken, body)
		require.Equal(t, http.StatusCreated, rec.Code)
		created := decode(t, rec)
		assert.Equal(t, "editor", created["username"])
		assert.Equal(t, "editor@example.com", created["email"])
		assert.Equal(t, rbac.RoleAdmin, created["role"])

		rec = env.do(t, http.MethodPost, "/api/admin/users", rootToken, body)
		require.Equal(t, http.StatusConflict, rec.Code)
		_, msg := errorOf(t, rec)
		assert.Equal(t, "username already exists", msg)
	})

	t.Run("admin не может менять чужую запись", func(t *testing.T) {
		rec := env.do(t, http.MethodPut, "/api/admin/users/"+env.root.ID, staffToken, map[string]string{"username": "x"})
		require.Equal(t, http.StatusForbidden, rec.Code)
		_, msg := errorOf(t, rec)
		assert.Equal(t, "Access denied", msg)
	})

	t.Run("смена своего пароля без текущего", func(t *testing.T) {
		rec := env.do(t, http.MethodPut, "/api/admin/users/"+staff.ID, staffToken, map[string]string{"newPassword": "another1"})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		_, msg := errorOf(t, rec)
		assert.Equal(t, "Current password is required", msg)
	})

	t.Run("удаление себя", func(t *testing.T) {
		rec := env.do(t, http.MethodDelete, "/api/admin/users/"+env.root.ID, rootToken, nil)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		_, msg := errorOf(t, rec)
		assert.Equal(t, "Cannot delete your own account", msg)
	})

	t.Run("несуществующий ID", func(t *testing.T) {
		rec := env.do(t, http.MethodDelete, "/api/admin/users/not-a-uuid", rootToken, nil)
		require.Equal(t, http.StatusNotFound, rec.Code)
		_, msg := errorOf(t, rec)
		assert.Equal(t, "User not found", msg)
	})

	t.Run("удаление другого", func(t *testing.T) {
		rec := env.do(t, http.MethodDelete, "/api/admin/users/"+staff.ID, rootToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "User deleted successfully", decode(t, rec)["message"])
	})
}

func TestCatalogRoutes(t *testing.T) {
	env := newTestEnv(t)
	token := env.tokenFor(t, env.admins.Seed("staff", rbac.RoleAdmin, "unused", true))
	rings := env.catalog.SeedCategory("Rings")

	t.Run("создание требует токен", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/products", "", map[string]any{"name": "Band"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("неизвестная категория", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/products", token, map[string]any{
			"name": "Band", "description": "Gold band", "category": "0b9e4c1e-3f57-4b8e-9d0a-2c6f1f1d8e11",
		})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		_, msg := errorOf(t, rec)
		assert.Equal(t, "Category not found", msg)
	})

	var productID string
	t.Run("создание и чтение", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/products", token, map[string]any{
			"name": "Band", "description": "Gold band", "category": rings.ID, "featured": true,
		})
		require.Equal(t, http.StatusCreated, rec.Code)
		created := decode(t, rec)
		productID = created["id"].(string)
		assert.Equal(t, "Rings", created["category"].(map[string]any)["name"])
		assert.Equal(t, true, created["active"])

		rec = env.do(t, http.MethodGet, "/api/products?featured=true", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var list []map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
		require.Len(t, list, 1)
		assert.Equal(t, productID, list[0]["id"])

		rec = env.do(t, http.MethodGet, "/api/products/"+productID, "", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("товар не найден", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/products/missing", "", nil)
		require.Equal(t, http.StatusNotFound, rec.Code)
		_, msg := errorOf(t, rec)
		assert.Equal(t, "Product not found", msg)
	})

	t.Run("категория используется", func(t *testing.T) {
		rec := env.do(t, http.MethodDelete, "/api/categories/"+rings.ID, token, nil)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		_, msg := errorOf(t, rec)
		assert.Equal(t, "Cannot delete category. 1 products are using this category.", msg)
	})

	t.Run("статистика", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/admin/stats", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		body := decode(t, rec)
		assert.EqualValues(t, 1, body["totalProducts"])
		assert.EqualValues(t, 1, body["featuredProducts"])
		assert.EqualValues(t, 1, body["categories"])
	})

	t.Run("удаление товара и категории", func(t *testing.T) {
		rec := env.do(t, http.MethodDelete, "/api/products/"+productID, token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Product deleted successfully", decode(t, rec)["message"])

		rec = env.do(t, http.MethodDelete, "/api/categories/"+rings.ID, token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Category deleted successfully", decode(t, rec)["message"])

		rec = env.do(t, http.MethodGet, "/api/categories", "", nil)
		assert.JSONEq(t, "[]", rec.Body.String())
	})
}

// multipartImage собирает форму с полем file.
func multipartImage(t *testing.T, contentType string, data []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if data != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="file"; filename="upload"`)
		h.Set("Content-Type", contentType)
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestEncodeImageRoute(t *testing.T) {
	env := newTestEnv(t)
	token := env.tokenFor(t, env.root)

	img := image.NewNRGBA(image.Rect(0, 0, 1200, 300))
	for y := 0; y < 300; y++ {
		for x := 0; x < 1200; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 10, G: 120, B: 200, A: 255})
		}
	}
	var pngData bytes.Buffer
	require.NoError(t, png.Encode(&pngData, img))

	send := func(body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/admin/images", body)
		req.Header.Set("Content-Type", contentType)
		req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: token})
		rec := httptest.NewRecorder()
		env.router.ServeHTTP(rec, req)
		return rec
	}

	t.Run("png", func(t *testing.T) {
		rec := send(multipartImage(t, "image/png", pngData.Bytes(), map[string]string{"maxSizeKB": "100"}))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		body := decode(t, rec)
		assert.True(t, strings.HasPrefix(body["image"].(string), "data:image/"))
		assert.EqualValues(t, 800, body["width"])
		assert.EqualValues(t, 200, body["height"])
		assert.LessOrEqual(t, body["sizeKB"].(float64), 100.0)
	})

	t.Run("нет файла", func(t *testing.T) {
		rec := send(multipartImage(t, "", nil, map[string]string{"quality": "0.5"}))
		require.Equal(t, http.StatusBadRequest, rec.Code)
		_, msg := errorOf(t, rec)
		assert.Equal(t, imageutil.ErrNoFile.Error(), msg)
	})

	t.Run("неверный тип", func(t *testing.T) {
		rec := send(multipartImage(t, "image/gif", []byte("GIF89a"), nil))
		require.Equal(t, http.StatusBadRequest, rec.Code)
		_, msg := errorOf(t, rec)
		assert.Equal(t, imageutil.ErrInvalidType.Error(), msg)
	})

	t.Run("неверное качество", func(t *testing.T) {
		rec := send(multipartImage(t, "image/png", pngData.Bytes(), map[string]string{"quality": "2"}))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("без токена", func(t *testing.T) {
		body, ct := multipartImage(t, "image/png", pngData.Bytes(), nil)
		req := httptest.NewRequest(http.MethodPost, "/api/admin/images", body)
		req.Header.Set("Content-Type", ct)
		rec := httptest.NewRecorder()
		env.router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
