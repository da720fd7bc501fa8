package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"productos/internal/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T, overrides map[string]any) config.Config {
	t.Helper()

	v := viper.New()
	config.SetDefaults(v)
	v.Set("DB_DRIVER", "sqlite")
	v.Set("DATABASE_DSN", "file:"+uuid.NewString()+"?mode=memory&cache=shared")
	for k, val := range overrides {
		v.Set(k, val)
	}
	return config.LoadFrom(v)
}

func newTestServer(t *testing.T, cfg config.Config) *Server {
	t.Helper()

	srv, err := NewServer(cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	})
	return srv
}

func getJSON(t *testing.T, app *fiber.App, method, target, body string) (int, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func TestHealthCheck_SQLite(t *testing.T) {
	srv := newTestServer(t, testConfig(t, nil))

	status, body := getJSON(t, srv.App, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "ok", body["database"])
	assert.Equal(t, "disabled", body["cache"])
}

func TestHealthCheck_MemoryDriver(t *testing.T) {
	srv := newTestServer(t, testConfig(t, map[string]any{"DB_DRIVER": "memory"}))

	status, body := getJSON(t, srv.App, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["database"])

	status, body = getJSON(t, srv.App, http.MethodPost, "/api/productos", `{"name":"Mouse","price":50}`)
	assert.Equal(t, http.StatusCreated, status)
	assert.Equal(t, float64(1), body["data"].(map[string]any)["id"])
}

func TestNewServer_WithRedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	srv := newTestServer(t, testConfig(t, map[string]any{"REDIS_ADDR": mr.Addr()}))

	status, body := getJSON(t, srv.App, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["cache"])

	status, _ = getJSON(t, srv.App, http.MethodPost, "/api/productos", `{"name":"Mouse","price":50}`)
	require.Equal(t, http.StatusCreated, status)

	status, _ = getJSON(t, srv.App, http.MethodGet, "/api/productos/1", "")
	require.Equal(t, http.StatusOK, status)
	assert.True(t, mr.Exists("productos:id:1"))

	status, _ = getJSON(t, srv.App, http.MethodPatch, "/api/productos/1", "")
	require.Equal(t, http.StatusOK, status)
	assert.False(t, mr.Exists("productos:id:1"))
}

func TestNewServer_UnreachableOptionalServicesAreSkipped(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	srv := newTestServer(t, testConfig(t, map[string]any{
		"REDIS_ADDR":   addr,
		"RABBITMQ_URL": "amqp://guest:guest@" + addr + "/",
	}))

	status, body := getJSON(t, srv.App, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "disabled", body["cache"])

	status, _ = getJSON(t, srv.App, http.MethodPost, "/api/productos", `{"name":"Mouse","price":50}`)
	assert.Equal(t, http.StatusCreated, status)
}

func TestNewServer_UnsupportedDriver(t *testing.T) {
	srv, err := NewServer(testConfig(t, map[string]any{"DB_DRIVER": "oracle"}), zerolog.Nop())

	assert.Nil(t, srv)
	assert.ErrorContains(t, err, "unsupported database driver")
}

func TestShutdown_ClosesDatabase(t *testing.T) {
	srv, err := NewServer(testConfig(t, nil), zerolog.Nop())
	require.NoError(t, err)

	status, _ := getJSON(t, srv.App, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, status)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	assert.NoError(t, srv.Shutdown(ctx))
}
