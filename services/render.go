package services

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
)

// Preview image size referenced by og:image
const (
	OGImageWidth  = 1200
	OGImageHeight = 630
)

// Renderer produces the SPA shell with page-specific preview metadata
type Renderer struct {
	shell    []byte
	source   EpisodeSource
	siteName string
}

// NewRenderer reads the shell once from shellPath
func NewRenderer(shellPath string, source EpisodeSource, siteName string) (*Renderer, error) {
	data, err := os.ReadFile(shellPath) // nolint
	if err != nil {
		return nil, fmt.Errorf("%w: read shell %s: %w", ErrRenderUnavailable, shellPath, err)
	}
	return NewRendererFromBytes(data, source, siteName), nil
}

// NewRendererFromBytes builds a renderer over an already loaded shell
func NewRendererFromBytes(shell []byte, source EpisodeSource, siteName string) *Renderer {
	if siteName == "" {
		siteName = "Angle"
	}
	return &Renderer{shell: shell, source: source, siteName: siteName}
}

// SiteName returns the branding suffix used in titles
func (r *Renderer) SiteName() string {
	return r.siteName
}

// Home renders the landing page with default metadata
func (r *Renderer) Home(baseURL string) ([]byte, error) {
	title := r.siteName + " | Stories worth listening"
	desc := r.siteName + " is a podcast of stories worth listening."
	return r.render(PageMeta{
		Title: title,
		Tags:  r.pageTags("website", baseURL+"/", title, desc, baseURL+"/api/og-image"),
	})
}

// Category renders a category page. Returns ErrNotFound when the segment is not a category.
func (r *Renderer) Category(ctx context.Context, baseURL, segment string) ([]byte, *Category, error) {
	cat, err := ResolveCategory(ctx, r.source, segment)
	if err != nil {
		return nil, nil, err
	}
	if cat == nil {
		return nil, nil, fmt.Errorf("%w: category %q", ErrNotFound, segment)
	}

	title := fmt.Sprintf("%s Stories | %s", cat.Label, r.siteName)
	pageURL := baseURL + "/" + url.PathEscape(cat.Slug)
	imageURL := baseURL + "/api/og-image/category/" + url.PathEscape(cat.Slug)

	page, err := r.render(PageMeta{
		Title: title,
		Tags:  r.pageTags("website", pageURL, title, r.categoryDescription(cat), imageURL),
	})
	if err != nil {
		return nil, nil, err
	}
	return page, cat, nil
}

func (r *Renderer) categoryDescription(cat *Category) string {
	switch strings.ToLower(cat.Slug) {
	case CategoryNew:
		return fmt.Sprintf("The newest stories on %s, fresh from the studio.", r.siteName)
	case CategoryPopular:
		return fmt.Sprintf("The stories everyone on %s is listening to right now.", r.siteName)
	}
	return cat.Label + " stories worth listening."
}

// Episode renders an episode page. Returns ErrNotFound when the episode is absent.
func (r *Renderer) Episode(ctx context.Context, baseURL, id string) ([]byte, *Episode, error) {
	if strings.TrimSpace(id) == "" {
		return nil, nil, fmt.Errorf("%w: episode id is required", ErrInvalidInput)
	}

	ep, err := r.source.GetEpisode(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if ep == nil {
		return nil, nil, fmt.Errorf("%w: episode %q", ErrNotFound, id)
	}

	desc := ep.Summary()
	if desc == "" {
		desc = fmt.Sprintf("Listen to this story on %s.", r.siteName)
	}

	pageURL := baseURL + "/episode/" + url.PathEscape(ep.ID)
	imageURL := baseURL + "/api/og-image/" + url.PathEscape(ep.ID)

	tags := r.pageTags("article", pageURL, ep.Title, desc, imageURL)
	page, err := r.render(PageMeta{
		Title: fmt.Sprintf("%s | %s", ep.Title, r.siteName),
		Tags:  tags,
	})
	if err != nil {
		return nil, nil, err
	}
	return page, ep, nil
}

func (r *Renderer) pageTags(ogType, pageURL, title, desc, imageURL string) map[string]string {
	return map[string]string{
		"og:type":             ogType,
		"og:url":              pageURL,
		"og:title":            title,
		"og:description":      desc,
		"og:image":            imageURL,
		"og:image:width":      strconv.Itoa(OGImageWidth),
		"og:image:height":     strconv.Itoa(OGImageHeight),
		"twitter:card":        "summary_large_image",
		"twitter:url":         pageURL,
		"twitter:title":       title,
		"twitter:description": desc,
		"twitter:image":       imageURL,
	}
}

func (r *Renderer) render(meta PageMeta) ([]byte, error) {
	page, err := RewriteHead(r.shell, meta)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRenderUnavailable, err)
	}
	return page, nil
}
