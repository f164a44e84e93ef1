package services

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fogleman/gg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memAssets map[string][]byte

func (m memAssets) Open(_ context.Context, objectPath string) (io.ReadCloser, error) {
	data, ok := m[objectPath]
	if !ok {
		return nil, errors.New("object not found")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func solidPNG(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func coverServer(t *testing.T) *httptest.Server {
	t.Helper()
	cover := solidPNG(t, 400, 400, color.RGBA{R: 200, G: 40, B: 40, A: 255})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/cover.png" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(cover)
	}))
	t.Cleanup(ts.Close)
	return ts
}

func assertPreviewPNG(t *testing.T, data []byte) {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, OGImageWidth, img.Bounds().Dx())
	assert.Equal(t, OGImageHeight, img.Bounds().Dy())
}

func newTestGenerator(t *testing.T, src EpisodeSource, opts ImageOptions) *ImageGenerator {
	t.Helper()
	g, err := NewImageGenerator(src, opts)
	require.NoError(t, err)
	return g
}

func TestImageGeneratorDefault(t *testing.T) {
	g := newTestGenerator(t, &fakeSource{}, ImageOptions{})

	data, err := g.Default(context.Background())
	require.NoError(t, err)
	assertPreviewPNG(t, data)
}

func TestImageGeneratorEpisode(t *testing.T) {
	ts := coverServer(t)
	episodes := testEpisodes()
	episodes[0].CoverImageURL = ts.URL + "/cover.png"
	episodes[1].CoverImageURL = ts.URL + "/missing.png"
	g := newTestGenerator(t, &fakeSource{episodes: episodes}, ImageOptions{})
	ctx := context.Background()

	def, err := g.Default(ctx)
	require.NoError(t, err)

	data, specific, err := g.Episode(ctx, "ep-1")
	require.NoError(t, err)
	assert.True(t, specific)
	assertPreviewPNG(t, data)
	assert.NotEqual(t, def, data)

	// cover that cannot be fetched falls back to the default background, still episode specific
	data, specific, err = g.Episode(ctx, "ep-2")
	require.NoError(t, err)
	assert.True(t, specific)
	assertPreviewPNG(t, data)
}

func TestImageGeneratorEpisodeDegrades(t *testing.T) {
	ctx := context.Background()

	g := newTestGenerator(t, &fakeSource{episodes: testEpisodes()}, ImageOptions{})
	def, err := g.Default(ctx)
	require.NoError(t, err)

	data, specific, err := g.Episode(ctx, "does-not-exist")
	require.NoError(t, err)
	assert.False(t, specific)
	assert.Equal(t, def, data)

	g = newTestGenerator(t, &fakeSource{getErr: ErrUpstream}, ImageOptions{})
	data, specific, err = g.Episode(ctx, "ep-1")
	require.NoError(t, err)
	assert.False(t, specific)
	assert.Equal(t, def, data)

	_, _, err = g.Episode(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestImageGeneratorCategory(t *testing.T) {
	ts := coverServer(t)
	episodes := testEpisodes()
	episodes[0].CoverImageURL = ts.URL + "/cover.png"
	g := newTestGenerator(t, &fakeSource{episodes: episodes}, ImageOptions{})
	ctx := context.Background()

	def, err := g.Default(ctx)
	require.NoError(t, err)

	withCover, err := g.Category(ctx, "health")
	require.NoError(t, err)
	assertPreviewPNG(t, withCover)
	assert.NotEqual(t, def, withCover)

	// newest business episode has no cover, branded image with the label in the headline
	noCover, err := g.Category(ctx, "business-economy")
	require.NoError(t, err)
	assertPreviewPNG(t, noCover)
	assert.NotEqual(t, def, noCover)

	unknown, err := g.Category(ctx, "sports")
	require.NoError(t, err)
	assert.Equal(t, def, unknown)

	virtual, err := g.Category(ctx, "new")
	require.NoError(t, err)
	assertPreviewPNG(t, virtual)

	_, err = g.Category(ctx, " ")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestImageGeneratorCategoryUpstreamError(t *testing.T) {
	ctx := context.Background()
	g := newTestGenerator(t, &fakeSource{categoryErr: ErrUpstream}, ImageOptions{})

	def, err := g.Default(ctx)
	require.NoError(t, err)

	data, err := g.Category(ctx, "health")
	require.NoError(t, err)
	assert.Equal(t, def, data)
}

func TestImageGeneratorAssetBackground(t *testing.T) {
	ctx := context.Background()
	plain := newTestGenerator(t, &fakeSource{}, ImageOptions{})
	plainDefault, err := plain.Default(ctx)
	require.NoError(t, err)

	assets := memAssets{"branding/bg.png": solidPNG(t, 1200, 630, color.RGBA{G: 180, B: 90, A: 255})}
	g := newTestGenerator(t, &fakeSource{}, ImageOptions{Assets: assets, BackgroundObject: "branding/bg.png"})
	data, err := g.Default(ctx)
	require.NoError(t, err)
	assertPreviewPNG(t, data)
	assert.NotEqual(t, plainDefault, data)

	// a missing object falls back to the gradient
	g = newTestGenerator(t, &fakeSource{}, ImageOptions{Assets: assets, BackgroundObject: "branding/nope.png"})
	data, err = g.Default(ctx)
	require.NoError(t, err)
	assert.Equal(t, plainDefault, data)
}

func TestCoverFill(t *testing.T) {
	wide := image.NewRGBA(image.Rect(0, 0, 3000, 500))
	tall := image.NewRGBA(image.Rect(0, 0, 300, 2000))

	for _, src := range []image.Image{wide, tall, image.NewRGBA(image.Rect(0, 0, 0, 0))} {
		out := coverFill(src, OGImageWidth, OGImageHeight)
		assert.Equal(t, image.Rect(0, 0, OGImageWidth, OGImageHeight), out.Bounds())
	}
}

func TestFitLines(t *testing.T) {
	g := newTestGenerator(t, &fakeSource{}, ImageOptions{})
	dc := gg.NewContext(OGImageWidth, OGImageHeight)
	dc.SetFontFace(g.face(g.bold, 64))

	short := fitLines(dc, "A short title", 1056, 3)
	assert.Equal(t, []string{"A short title"}, short)

	long := fitLines(dc, strings.Repeat("wordy headline text ", 30), 1056, 3)
	require.Len(t, long, 3)
	assert.True(t, strings.HasSuffix(long[2], "…"))
	for _, line := range long {
		w, _ := dc.MeasureString(line)
		assert.LessOrEqual(t, w, 1056.0)
	}
}
