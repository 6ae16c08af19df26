package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jjudge-oj/usersapi/config"
	"github.com/jjudge-oj/usersapi/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memoryConfig() config.Config {
	return config.Config{
		Database: config.DatabaseConfig{Driver: db.DriverMemory},
		Password: config.PasswordConfig{MinLength: 6, BcryptCost: 4},
		Log:      config.LogConfig{Level: "error"},
	}
}

func TestNew_MemoryBackend(t *testing.T) {
	srv, err := New(context.Background(), memoryConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.deps.Close() })

	assert.Nil(t, srv.deps.DB)
	assert.Nil(t, srv.deps.MQ)
	assert.Nil(t, srv.deps.Storage)
	assert.Equal(t, ":8080", srv.httpServer.Addr)

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	body := `{"name":"Alice","email":"a@x.com","password":"Secret1!","password_confirm":"Secret1!"}`
	rec = httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users/1", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var got map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, "Alice", got["name"])
	assert.NotContains(t, got, "password_hash")
}

func TestBuildDeps_BadRedisURL(t *testing.T) {
	cfg := memoryConfig()
	cfg.Redis.URL = "not a url"

	_, err := New(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis")
}

func TestBuildDeps_UnknownBackends(t *testing.T) {
	cfg := memoryConfig()
	cfg.MQ.Backend = "kafka"
	_, err := New(context.Background(), cfg)
	assert.Error(t, err)

	cfg = memoryConfig()
	cfg.Storage.Backend = "ftp"
	_, err = New(context.Background(), cfg)
	assert.Error(t, err)
}
