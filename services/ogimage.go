package services

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"  // cover decoding
	_ "image/jpeg" // cover decoding
	_ "image/png"  // cover decoding
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fogleman/gg"
	log "github.com/go-pkgz/lgr"
	"github.com/golang/freetype/truetype"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	_ "golang.org/x/image/webp" // cover decoding
)

const (
	maxCoverBytes   = 10 << 20
	maxHeadlineRows = 3
	cardPadding     = 72.0
)

var (
	brandDeep   = color.RGBA{R: 24, G: 20, B: 46, A: 255}
	brandAccent = color.RGBA{R: 108, G: 92, B: 231, A: 255}
	brandTeal   = color.RGBA{R: 0, G: 206, B: 201, A: 255}
)

// AssetSource opens branding assets by object path
type AssetSource interface {
	Open(ctx context.Context, objectPath string) (io.ReadCloser, error)
}

// ImageOptions configures ImageGenerator
type ImageOptions struct {
	SiteName         string
	Tagline          string
	Assets           AssetSource // optional
	BackgroundObject string      // object path of the default background in Assets
	Client           *http.Client
}

// ImageGenerator renders 1200x630 PNG previews
type ImageGenerator struct {
	source  EpisodeSource
	opts    ImageOptions
	regular *truetype.Font
	bold    *truetype.Font
}

// card is the content of one preview image
type card struct {
	background image.Image
	tag        string
	headline   string
}

func NewImageGenerator(source EpisodeSource, opts ImageOptions) (*ImageGenerator, error) {
	regular, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse regular font: %w", err)
	}
	bold, err := truetype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse bold font: %w", err)
	}

	if opts.SiteName == "" {
		opts.SiteName = "Angle"
	}
	if opts.Tagline == "" {
		opts.Tagline = "Stories worth listening."
	}
	if opts.Client == nil {
		opts.Client = &http.Client{Timeout: 8 * time.Second}
	}

	return &ImageGenerator{source: source, opts: opts, regular: regular, bold: bold}, nil
}

// Default renders the site-wide branded image
func (g *ImageGenerator) Default(ctx context.Context) ([]byte, error) {
	return g.draw(card{background: g.defaultBackground(ctx), headline: g.opts.Tagline})
}

// Episode renders the preview of an episode. Data failures degrade to the default
// image, in which case specific is false.
func (g *ImageGenerator) Episode(ctx context.Context, id string) (png []byte, specific bool, err error) {
	if strings.TrimSpace(id) == "" {
		return nil, false, fmt.Errorf("%w: episode id is required", ErrInvalidInput)
	}

	ep, err := g.source.GetEpisode(ctx, id)
	if err != nil || ep == nil {
		if err != nil {
			log.Printf("[WARN] og-image for episode %s falls back to default, %v", id, err)
		}
		png, err = g.Default(ctx)
		return png, false, err
	}

	c := card{tag: ep.Category, headline: ep.Title}
	if c.background = g.fetchCover(ctx, ep.CoverImageURL); c.background == nil {
		c.background = g.defaultBackground(ctx)
	}

	png, err = g.draw(c)
	if err != nil {
		log.Printf("[WARN] can't draw og-image for episode %s, %v", id, err)
		png, err = g.Default(ctx)
		return png, false, err
	}
	return png, true, nil
}

// Category renders the preview of a category from its newest episode
func (g *ImageGenerator) Category(ctx context.Context, segment string) ([]byte, error) {
	if strings.TrimSpace(segment) == "" {
		return nil, fmt.Errorf("%w: category is required", ErrInvalidInput)
	}

	cat, err := ResolveCategory(ctx, g.source, segment)
	if err != nil || cat == nil {
		if err != nil {
			log.Printf("[WARN] og-image for category %s falls back to default, %v", segment, err)
		}
		return g.Default(ctx)
	}

	headline := cat.Label + " Stories"
	filter := cat.Label
	if cat.Virtual {
		filter = ""
	}

	ep, err := g.source.LatestEpisode(ctx, filter)
	if err != nil {
		log.Printf("[WARN] can't load latest episode of %s, %v", cat.Label, err)
	}

	var bg image.Image
	if ep != nil {
		bg = g.fetchCover(ctx, ep.CoverImageURL)
	}
	if bg == nil {
		return g.draw(card{background: g.defaultBackground(ctx), headline: headline})
	}

	png, err := g.draw(card{background: bg, tag: cat.Label, headline: headline})
	if err != nil {
		log.Printf("[WARN] can't draw og-image for category %s, %v", cat.Label, err)
		return g.Default(ctx)
	}
	return png, nil
}

func (g *ImageGenerator) draw(c card) ([]byte, error) {
	const w, h = float64(OGImageWidth), float64(OGImageHeight)
	dc := gg.NewContext(OGImageWidth, OGImageHeight)

	if c.background != nil {
		dc.DrawImage(coverFill(c.background, OGImageWidth, OGImageHeight), 0, 0)
	} else {
		grad := gg.NewLinearGradient(0, 0, w, h)
		grad.AddColorStop(0, brandDeep)
		grad.AddColorStop(1, brandAccent)
		dc.SetFillStyle(grad)
		dc.DrawRectangle(0, 0, w, h)
		dc.Fill()
	}

	// darken towards the bottom edge
	overlay := gg.NewLinearGradient(0, 0, 0, h)
	overlay.AddColorStop(0, color.RGBA{A: 70})
	overlay.AddColorStop(1, color.RGBA{A: 225})
	dc.SetFillStyle(overlay)
	dc.DrawRectangle(0, 0, w, h)
	dc.Fill()

	// wordmark
	dc.SetFontFace(g.face(g.bold, 40))
	dc.SetColor(color.White)
	dc.DrawString(g.opts.SiteName, cardPadding, 100)
	dc.SetColor(brandTeal)
	dc.DrawRectangle(cardPadding, 118, 56, 6)
	dc.Fill()

	// headline, bottom aligned above the footer
	headFace := g.face(g.bold, 64)
	dc.SetFontFace(headFace)
	lines := fitLines(dc, c.headline, w-2*cardPadding, maxHeadlineRows)
	lineHeight := 76.0
	y := h - 120 - float64(len(lines)-1)*lineHeight
	headTop := y - 64

	if c.tag != "" {
		tagFace := g.face(g.bold, 24)
		dc.SetFontFace(tagFace)
		label := strings.ToUpper(c.tag)
		tw, _ := dc.MeasureString(label)
		pillTop := headTop - 64
		dc.SetColor(brandAccent)
		dc.DrawRoundedRectangle(cardPadding, pillTop, tw+36, 42, 21)
		dc.Fill()
		dc.SetColor(color.White)
		dc.DrawStringAnchored(label, cardPadding+18, pillTop+21, 0, 0.35)
	}

	dc.SetFontFace(headFace)
	dc.SetColor(color.White)
	for _, line := range lines {
		dc.DrawString(line, cardPadding, y)
		y += lineHeight
	}

	dc.SetFontFace(g.face(g.regular, 26))
	dc.SetColor(color.RGBA{R: 220, G: 220, B: 235, A: 255})
	dc.DrawString(g.opts.Tagline, cardPadding, h-48)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// face builds a new face per call, truetype faces cache glyphs and are not safe for concurrent use
func (g *ImageGenerator) face(f *truetype.Font, size float64) font.Face {
	return truetype.NewFace(f, &truetype.Options{Size: size})
}

// fitLines wraps s to width and truncates to maxRows with an ellipsis
func fitLines(dc *gg.Context, s string, width float64, maxRows int) []string {
	lines := dc.WordWrap(strings.TrimSpace(s), width)
	if len(lines) == 0 {
		return []string{""}
	}
	if len(lines) <= maxRows {
		return lines
	}

	lines = lines[:maxRows]
	last := strings.TrimSpace(lines[maxRows-1])
	for last != "" {
		if lw, _ := dc.MeasureString(last + "…"); lw <= width {
			break
		}
		r := []rune(last)
		last = strings.TrimSpace(string(r[:len(r)-1]))
	}
	lines[maxRows-1] = last + "…"
	return lines
}

// coverFill scales src to fill w x h, cropping around the center
func coverFill(src image.Image, w, h int) image.Image {
	b := src.Bounds()
	sw, sh := b.Dx(), b.Dy()
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	if sw == 0 || sh == 0 {
		return dst
	}

	target := float64(w) / float64(h)
	crop := b
	if float64(sw)/float64(sh) > target {
		cw := int(float64(sh) * target)
		x0 := b.Min.X + (sw-cw)/2
		crop = image.Rect(x0, b.Min.Y, x0+cw, b.Max.Y)
	} else {
		ch := int(float64(sw) / target)
		y0 := b.Min.Y + (sh-ch)/2
		crop = image.Rect(b.Min.X, y0, b.Max.X, y0+ch)
	}

	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, crop, xdraw.Src, nil)
	return dst
}

// fetchCover downloads and decodes a cover image, nil on any failure
func (g *ImageGenerator) fetchCover(ctx context.Context, rawURL string) image.Image {
	if rawURL == "" {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		log.Printf("[WARN] bad cover url %q, %v", rawURL, err)
		return nil
	}
	resp, err := g.opts.Client.Do(req)
	if err != nil {
		log.Printf("[WARN] can't fetch cover %s, %v", rawURL, err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("[WARN] can't fetch cover %s, status %d", rawURL, resp.StatusCode)
		return nil
	}

	img, _, err := image.Decode(io.LimitReader(resp.Body, maxCoverBytes))
	if err != nil {
		log.Printf("[WARN] can't decode cover %s, %v", rawURL, err)
		return nil
	}
	return img
}

// defaultBackground loads the branded background from the asset bucket, nil means gradient
func (g *ImageGenerator) defaultBackground(ctx context.Context) image.Image {
	if g.opts.Assets == nil || g.opts.BackgroundObject == "" {
		return nil
	}

	rc, err := g.opts.Assets.Open(ctx, g.opts.BackgroundObject)
	if err != nil {
		log.Printf("[WARN] can't open background %s, %v", g.opts.BackgroundObject, err)
		return nil
	}
	defer rc.Close()

	img, _, err := image.Decode(io.LimitReader(rc, maxCoverBytes))
	if err != nil {
		log.Printf("[WARN] can't decode background %s, %v", g.opts.BackgroundObject, err)
		return nil
	}
	return img
}
