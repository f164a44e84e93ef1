package services

import (
	"bytes"
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

const testBase = "https://angle.fm"

var substitutedLine = regexp.MustCompile(`(?m)^.*(<title>|<meta (property|name)="(og|twitter):).*$`)

func newTestRenderer(t *testing.T, src EpisodeSource) *Renderer {
	t.Helper()
	r, err := NewRenderer("testdata/index.html", src, "Angle")
	require.NoError(t, err)
	return r
}

func TestNewRendererMissingShell(t *testing.T) {
	r, err := NewRenderer("testdata/does-not-exist.html", &fakeSource{}, "Angle")
	assert.Nil(t, r)
	assert.ErrorIs(t, err, ErrRenderUnavailable)
}

func TestRendererCategory(t *testing.T) {
	src := &fakeSource{episodes: testEpisodes()}
	r := newTestRenderer(t, src)
	shell := loadShell(t)

	page, cat, err := r.Category(context.Background(), testBase, "health")
	require.NoError(t, err)
	assert.Equal(t, "Health", cat.Label)

	doc, err := html.Parse(bytes.NewReader(page))
	require.NoError(t, err)
	assert.Equal(t, "Health Stories | Angle", findMetaContent(doc, "og:title"))
	assert.Equal(t, "Health Stories | Angle", findMetaContent(doc, "twitter:title"))
	assert.Equal(t, "Health Stories | Angle", findTitle(doc))
	assert.Equal(t, "website", findMetaContent(doc, "og:type"))
	assert.Equal(t, "Health stories worth listening.", findMetaContent(doc, "og:description"))
	assert.Equal(t, "https://angle.fm/health", findMetaContent(doc, "og:url"))
	assert.Equal(t, "https://angle.fm/api/og-image/category/health", findMetaContent(doc, "og:image"))
	assert.Equal(t, "https://angle.fm/api/og-image/category/health", findMetaContent(doc, "twitter:image"))

	// everything outside the substituted tags is byte-identical
	stripped := func(b []byte) string { return substitutedLine.ReplaceAllString(string(b), "") }
	assert.Equal(t, stripped(shell), stripped(page))
}

func TestRendererCompoundCategory(t *testing.T) {
	r := newTestRenderer(t, &fakeSource{episodes: testEpisodes()})

	page, cat, err := r.Category(context.Background(), testBase, "business-economy")
	require.NoError(t, err)
	assert.Equal(t, "Business & Economy", cat.Label)

	doc, err := html.Parse(bytes.NewReader(page))
	require.NoError(t, err)
	assert.Equal(t, "Business & Economy Stories | Angle", findMetaContent(doc, "og:title"))
	assert.Equal(t, "https://angle.fm/business-and-economy", findMetaContent(doc, "og:url"))
	assert.Contains(t, string(page), `content="Business &amp; Economy Stories | Angle"`)
}

func TestRendererVirtualCategories(t *testing.T) {
	r := newTestRenderer(t, &fakeSource{categoryErr: errors.New("not consulted")})

	tbl := map[string]string{
		"new":     "The newest stories on Angle, fresh from the studio.",
		"Popular": "The stories everyone on Angle is listening to right now.",
	}
	for segment, desc := range tbl {
		t.Run(segment, func(t *testing.T) {
			page, _, err := r.Category(context.Background(), testBase, segment)
			require.NoError(t, err)
			doc, err := html.Parse(bytes.NewReader(page))
			require.NoError(t, err)
			assert.Equal(t, desc, findMetaContent(doc, "og:description"))
		})
	}
}

func TestRendererCategoryInvalid(t *testing.T) {
	r := newTestRenderer(t, &fakeSource{episodes: testEpisodes()})

	_, _, err := r.Category(context.Background(), testBase, "sports")
	assert.ErrorIs(t, err, ErrNotFound)

	_, _, err = r.Category(context.Background(), testBase, "api")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRendererCategoryUpstreamError(t *testing.T) {
	r := newTestRenderer(t, &fakeSource{categoryErr: ErrUpstream})

	_, _, err := r.Category(context.Background(), testBase, "health")
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestRendererEpisode(t *testing.T) {
	r := newTestRenderer(t, &fakeSource{episodes: testEpisodes()})

	page, ep, err := r.Episode(context.Background(), testBase, "ep-1")
	require.NoError(t, err)
	assert.Equal(t, "ep-1", ep.ID)

	s := string(page)
	assert.Contains(t, s, "<title>Sleep &amp; &lt;Recovery&gt; | Angle</title>")
	assert.Contains(t, s, `<meta property="og:title" content="Sleep &amp; &lt;Recovery&gt;" />`)
	assert.NotContains(t, s, "<Recovery>")

	doc, err := html.Parse(bytes.NewReader(page))
	require.NoError(t, err)
	assert.Equal(t, "article", findMetaContent(doc, "og:type"))
	assert.Equal(t, "Sleep & <Recovery>", findMetaContent(doc, "og:title"))
	assert.Equal(t, "Sleep & <Recovery> | Angle", findTitle(doc))
	assert.Equal(t, "Why rest matters", findMetaContent(doc, "og:description"))
	assert.Equal(t, "https://angle.fm/episode/ep-1", findMetaContent(doc, "og:url"))
	assert.Equal(t, "https://angle.fm/api/og-image/ep-1", findMetaContent(doc, "og:image"))
	assert.Equal(t, "1200", findMetaContent(doc, "og:image:width"))
	assert.Equal(t, "630", findMetaContent(doc, "og:image:height"))
}

func TestRendererEpisodeDescriptionFallbacks(t *testing.T) {
	r := newTestRenderer(t, &fakeSource{episodes: testEpisodes()})

	page, _, err := r.Episode(context.Background(), testBase, "ep-2")
	require.NoError(t, err)
	doc, err := html.Parse(bytes.NewReader(page))
	require.NoError(t, err)
	assert.Equal(t, "A longer look at how markets work", findMetaContent(doc, "og:description"))
	assert.Equal(t, "A longer look at how markets work", findMetaContent(doc, "twitter:description"))

	page, _, err = r.Episode(context.Background(), testBase, "ep-3")
	require.NoError(t, err)
	doc, err = html.Parse(bytes.NewReader(page))
	require.NoError(t, err)
	assert.Equal(t, "Listen to this story on Angle.", findMetaContent(doc, "og:description"))
}

func TestRendererEpisodeErrors(t *testing.T) {
	r := newTestRenderer(t, &fakeSource{episodes: testEpisodes()})

	_, _, err := r.Episode(context.Background(), testBase, "does-not-exist")
	assert.ErrorIs(t, err, ErrNotFound)

	_, _, err = r.Episode(context.Background(), testBase, " ")
	assert.ErrorIs(t, err, ErrInvalidInput)

	r = newTestRenderer(t, &fakeSource{getErr: ErrUpstream})
	_, _, err = r.Episode(context.Background(), testBase, "ep-1")
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestRendererHome(t *testing.T) {
	r := newTestRenderer(t, &fakeSource{})

	page, err := r.Home("http://localhost:3000")
	require.NoError(t, err)
	doc, err := html.Parse(bytes.NewReader(page))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:3000/", findMetaContent(doc, "og:url"))
	assert.Equal(t, "http://localhost:3000/api/og-image", findMetaContent(doc, "og:image"))
	assert.Equal(t, "Angle | Stories worth listening", findTitle(doc))
}
