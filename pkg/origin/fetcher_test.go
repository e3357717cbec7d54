package origin_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dasmlab/lengua/pkg/origin"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestNewFetcher(t *testing.T) {
	t.Parallel()

	_, err := origin.NewFetcher("", 0, nil)
	assert.ErrorIs(t, err, origin.ErrNoOrigin)

	_, err = origin.NewFetcher("/relative", 0, nil)
	assert.Error(t, err)

	_, err = origin.NewFetcher("https://origin.example.com", time.Second, quietLogger())
	assert.NoError(t, err)
}

func TestFetch(t *testing.T) {
	t.Parallel()

	var (
		mu   sync.Mutex
		last *http.Request
	)
	received := func() *http.Request {
		mu.Lock()
		defer mu.Unlock()
		return last
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		last = r.Clone(context.Background())
		mu.Unlock()
		switch r.URL.Path {
		case "/site/moved/":
			http.Redirect(w, r, "/site/elsewhere/", http.StatusMovedPermanently)
		default:
			w.Header().Set("Content-Type", "text/html")
			_, _ = io.WriteString(w, "<p>hola</p>")
		}
	}))
	t.Cleanup(srv.Close)

	f, err := origin.NewFetcher(srv.URL+"/site/", time.Second, quietLogger())
	require.NoError(t, err)

	t.Run("marked request", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "http://public.example.com/en/rooms/", nil)
		r.Header.Set("Accept-Encoding", "gzip")
		r.Header.Set("Accept-Language", "en")
		r.Header.Set("Connection", "keep-alive, X-Custom")

		resp, err := f.Fetch(context.Background(), r, origin.Target{Path: "/rooms/", RawQuery: "page=2", Mark: true})
		require.NoError(t, err)
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)

		got := received()
		assert.Equal(t, "<p>hola</p>", string(body))
		assert.Equal(t, "/site/rooms/", got.URL.Path)
		assert.Equal(t, "1", got.URL.Query().Get("_i18n"))
		assert.Equal(t, "2", got.URL.Query().Get("page"))
		assert.Equal(t, "en", got.Header.Get("Accept-Language"))
		assert.Equal(t, "public.example.com", got.Header.Get("X-Forwarded-Host"))
		assert.Equal(t, "identity", got.Header.Get("Accept-Encoding"))
	})

	t.Run("plain request keeps the query untouched", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "http://public.example.com/rooms/?b=2&a=1", nil)

		resp, err := f.Fetch(context.Background(), r, origin.Target{Path: "/rooms/", RawQuery: "b=2&a=1"})
		require.NoError(t, err)
		resp.Body.Close()

		assert.Equal(t, "b=2&a=1", received().URL.RawQuery)
	})

	t.Run("does not follow redirects", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "http://public.example.com/moved/", nil)

		resp, err := f.Fetch(context.Background(), r, origin.Target{Path: "/moved/"})
		require.NoError(t, err)
		resp.Body.Close()

		assert.Equal(t, http.StatusMovedPermanently, resp.StatusCode)
		assert.Equal(t, "/site/elsewhere/", resp.Header.Get("Location"))
	})

	t.Run("transport errors are returned", func(t *testing.T) {
		dead, err := origin.NewFetcher("http://127.0.0.1:1", 200*time.Millisecond, quietLogger())
		require.NoError(t, err)

		r := httptest.NewRequest(http.MethodGet, "http://public.example.com/", nil)
		_, err = dead.Fetch(context.Background(), r, origin.Target{Path: "/"})
		assert.Error(t, err)
	})
}

func TestStripHopHeaders(t *testing.T) {
	t.Parallel()

	h := http.Header{}
	h.Set("Connection", "close")
	h.Set("Transfer-Encoding", "chunked")
	h.Set("Content-Type", "text/html")
	origin.StripHopHeaders(h)

	assert.Empty(t, h.Get("Connection"))
	assert.Empty(t, h.Get("Transfer-Encoding"))
	assert.Equal(t, "text/html", h.Get("Content-Type"))
}
