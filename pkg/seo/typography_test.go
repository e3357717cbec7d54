package seo_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dasmlab/lengua/pkg/locale"
	"github.com/dasmlab/lengua/pkg/seo"
)

func TestTypography(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		locale locale.Locale
		in     string
		want   string
	}{
		{
			name:   "capitalizes headings paragraphs and list items",
			locale: "en",
			in:     "<h2 class=\"t\"> rooms</h2><p>\néxito</p><li>one</li><span>low</span>",
			want:   "<h2 class=\"t\"> Rooms</h2><p>\nÉxito</p><li>One</li><span>low</span>",
		},
		{
			name:   "french high punctuation",
			locale: "fr",
			in:     "<p>Bonjour !</p><p>Prix : 10 € ; taxe ?</p><p>« Salut »</p>",
			want:   "<p>Bonjour\u00a0!</p><p>Prix\u00a0: 10 €\u00a0; taxe\u00a0?</p><p>«\u00a0Salut\u00a0»</p>",
		},
		{
			name:   "other locales keep spacing",
			locale: "en",
			in:     "<p>Hello !</p>",
			want:   "<p>Hello !</p>",
		},
		{
			name:   "verbatim regions are untouched",
			locale: "fr",
			in:     "<script>if (a ? b : c) {}</script><pre><p>x !</p></pre><!-- <p>y --><code>a : b</code>",
			want:   "<script>if (a ? b : c) {}</script><pre><p>x !</p></pre><!-- <p>y --><code>a : b</code>",
		},
		{
			name:   "french spacing leaves attributes alone",
			locale: "fr",
			in:     `<div style="color : red" title="a ? b"><p>oui !</p></div>`,
			want:   "<div style=\"color : red\" title=\"a ? b\"><p>Oui\u00a0!</p></div>",
		},
		{
			name:   "is idempotent",
			locale: "fr",
			in:     "<p>Bonjour\u00a0!</p>",
			want:   "<p>Bonjour\u00a0!</p>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, seo.Typography(tt.in, tt.locale))
		})
	}
}
