package translate_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dasmlab/lengua/pkg/translate"
)

func TestLibreTranslateClient(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/translate":
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "html", body["format"])
			assert.Equal(t, "es", body["source"])
			assert.Equal(t, "fr", body["target"])
			assert.Equal(t, "k", body["api_key"])
			if body["q"] == "" {
				_, _ = w.Write([]byte(`{"translatedText":""}`))
				return
			}
			_, _ = w.Write([]byte(`{"translatedText":"<p>bonjour</p>"}`))
		case "/languages":
			_, _ = w.Write([]byte(`[{"code":"en","name":"English"},{"code":"fr","name":"French"}]`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	client := translate.NewLibreTranslateClient(srv.URL, "k", 0, quietLogger())

	out, err := client.Translate(context.Background(), "<p>hola</p>", "ES", "fr-CA")
	require.NoError(t, err)
	assert.Equal(t, "<p>bonjour</p>", out)

	_, err = client.Translate(context.Background(), "", "es", "fr")
	assert.ErrorIs(t, err, translate.ErrEmptyTranslation)

	require.NoError(t, client.CheckHealth(context.Background()))
	langs, err := client.SupportedLanguages(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"en", "fr"}, langs)
}

func TestNewTranslator(t *testing.T) {
	t.Parallel()

	tr, err := translate.NewTranslator(translate.Config{Engine: translate.EngineDeepL, Credential: "k", Logger: quietLogger()})
	require.NoError(t, err)
	assert.IsType(t, &translate.DeepLClient{}, tr)

	tr, err = translate.NewTranslator(translate.Config{Engine: translate.EngineLibreTranslate, Logger: quietLogger()})
	require.NoError(t, err)
	assert.IsType(t, &translate.LibreTranslateClient{}, tr)

	_, err = translate.NewTranslator(translate.Config{Engine: "argos", Logger: quietLogger()})
	assert.ErrorIs(t, err, translate.ErrUnknownEngine)

	engine, err := translate.ParseEngineType(" LibreTranslate ")
	require.NoError(t, err)
	assert.Equal(t, translate.EngineLibreTranslate, engine)

	engine, err = translate.ParseEngineType("")
	require.NoError(t, err)
	assert.Equal(t, translate.EngineDeepL, engine)
}
