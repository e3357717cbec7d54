package server_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dasmlab/lengua/pkg/requestid"
	"github.com/dasmlab/lengua/pkg/server"
)

func newServer(checks map[string]server.ReadinessCheck) *server.HTTPServer {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return server.NewHTTPServer(server.Config{}, http.NotFoundHandler(), logger, checks)
}

func TestPublicRouter(t *testing.T) {
	t.Parallel()
	s := newServer(nil)
	router := s.PublicRouter(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/panic" {
			panic("boom")
		}
		w.Header().Set("X-Seen-Request-ID", requestid.FromContext(r.Context()))
		w.WriteHeader(http.StatusTeapot)
	}))

	t.Run("forwards every path with a request ID", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/fr/rooms/?page=2", nil))

		assert.Equal(t, http.StatusTeapot, rec.Code)
		id := rec.Header().Get(requestid.Header)
		assert.NotEmpty(t, id)
		assert.Equal(t, id, rec.Header().Get("X-Seen-Request-ID"))
	})

	t.Run("recovers from panics", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/panic", nil))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestAdminRouter(t *testing.T) {
	t.Parallel()

	t.Run("health", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		newServer(nil).AdminRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "healthy", body["status"])
	})

	t.Run("ready when all checks pass", func(t *testing.T) {
		t.Parallel()
		s := newServer(map[string]server.ReadinessCheck{
			"translator": func(context.Context) error { return nil },
		})
		rec := httptest.NewRecorder()
		s.AdminRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"translator":"ok"`)
	})

	t.Run("not ready when a check fails", func(t *testing.T) {
		t.Parallel()
		s := newServer(map[string]server.ReadinessCheck{
			"translator": func(context.Context) error { return errors.New("NO_KEY") },
		})
		rec := httptest.NewRecorder()
		s.AdminRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Contains(t, rec.Body.String(), "not_ready")
		assert.Contains(t, rec.Body.String(), "NO_KEY")
	})

	t.Run("metrics", func(t *testing.T) {
		t.Parallel()
		s := newServer(nil)
		// produce at least one sample
		s.PublicRouter(http.NotFoundHandler()).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

		rec := httptest.NewRecorder()
		s.AdminRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "lengua_http_requests_total")
	})
}
