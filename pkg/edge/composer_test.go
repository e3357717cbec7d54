package edge_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dasmlab/lengua/pkg/edge"
	"github.com/dasmlab/lengua/pkg/locale"
	"github.com/dasmlab/lengua/pkg/translate"
)

func TestCachePolicy(t *testing.T) {
	t.Parallel()

	c := edge.NewComposer(time.Hour, false, nil)
	assert.Equal(t, "public, max-age=3600", c.CachePolicy(http.StatusOK, true))
	assert.Equal(t, "public, max-age=3600", c.CachePolicy(http.StatusMovedPermanently, true))
	assert.Equal(t, "no-store", c.CachePolicy(http.StatusOK, false), "partial translations are never cached")
	assert.Equal(t, "no-store", c.CachePolicy(http.StatusNotFound, true))
	assert.Equal(t, "no-store", c.CachePolicy(http.StatusInternalServerError, true))

	assert.Equal(t, "no-store", edge.NewComposer(time.Hour, true, nil).CachePolicy(http.StatusOK, true))
	assert.Equal(t, "no-store", edge.NewComposer(0, false, nil).CachePolicy(http.StatusOK, true))
}

func TestTranslatedHeaders(t *testing.T) {
	t.Parallel()

	resp := &http.Response{
		StatusCode: http.StatusOK,
		Header: http.Header{
			"Content-Type":              {"text/html"},
			"Content-Language":          {"es"},
			"Content-Length":            {"120"},
			"Vary":                      {"Accept-Encoding"},
			"Netlify-Cdn-Cache-Control": {"public, max-age=600"},
			"Cache-Control":             {"public, max-age=600"},
			"Connection":                {"keep-alive"},
			"Etag":                      {`"v1"`},
			"X-Frame-Options":           {"DENY"},
		},
	}
	d := locale.Decision{Kind: locale.ServeTranslated, Locale: "fr", Reason: "translate:fr"}

	tests := []struct {
		name     string
		doc      translate.Document
		language string
	}{
		{
			name:     "partial translation",
			doc:      translate.Document{Translated: true, Diagnostic: translate.DiagPartial},
			language: "fr",
		},
		{
			name:     "nothing translated",
			doc:      translate.Document{Diagnostic: translate.DiagNoKey},
			language: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			origin := &http.Response{StatusCode: resp.StatusCode, Header: resp.Header.Clone()}
			rec := httptest.NewRecorder()
			edge.NewComposer(time.Hour, false, []string{"CDN-Cache-Control"}).
				Translated(rec, origin, d, tt.doc, "<p>Bonjour</p>", false)

			h := rec.Header()
			assert.Equal(t, tt.language, h.Get("Content-Language"))
			assert.Equal(t, "Accept-Encoding, Accept-Language, Cookie", h.Get("Vary"))
			assert.Equal(t, "no-store", h.Get("Cache-Control"))
			assert.Equal(t, "no-store", h.Get("CDN-Cache-Control"))
			assert.Empty(t, h.Values("Netlify-CDN-Cache-Control"))
			assert.Empty(t, h.Get("Connection"))
			assert.Empty(t, h.Get("ETag"))
			assert.Empty(t, h.Get("Content-Length"))
			assert.Equal(t, "DENY", h.Get("X-Frame-Options"))
			assert.Equal(t, "text/html; charset=utf-8", h.Get("Content-Type"))
			assert.Equal(t, tt.doc.Diagnostic, h.Get(edge.HeaderTranslate))
		})
	}
}
