package services

import (
	"context"
	"encoding/xml"
	"net/url"
	"strings"

	log "github.com/go-pkgz/lgr"
	"golang.org/x/sync/errgroup"
)

const sitemapNS = "http://www.sitemaps.org/schemas/sitemap/0.9"

// SitemapOptions controls sitemap generation
type SitemapOptions struct {
	BaseURL           string
	IncludeCategories bool
}

type urlSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq,omitempty"`
	Priority   string `xml:"priority,omitempty"`
}

// BuildSitemap renders the XML sitemap. It never fails: when episodes cannot be read
// the document holds the home page only, a failed category read drops categories.
func BuildSitemap(ctx context.Context, source EpisodeSource, opts SitemapOptions) []byte {
	base := strings.TrimRight(opts.BaseURL, "/")

	var (
		episodes    []Episode
		episodesErr error
		categories  []string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		episodes, episodesErr = source.ListEpisodes(gctx)
		return nil
	})
	if opts.IncludeCategories {
		g.Go(func() error {
			cats, err := source.ListCategories(gctx)
			if err != nil {
				log.Printf("[WARN] sitemap without categories, %v", err)
				return nil
			}
			categories = cats
			return nil
		})
	}
	_ = g.Wait()

	set := urlSet{XMLNS: sitemapNS}
	set.URLs = append(set.URLs, sitemapURL{Loc: base + "/", ChangeFreq: "daily", Priority: "1.0"})

	if episodesErr != nil {
		log.Printf("[WARN] minimal sitemap, %v", episodesErr)
		return encodeSitemap(set)
	}

	if opts.IncludeCategories {
		slugs := append([]string{CategoryNew, CategoryPopular}, slugsOf(categories)...)
		for _, slug := range slugs {
			set.URLs = append(set.URLs, sitemapURL{
				Loc:        base + "/" + url.PathEscape(slug),
				ChangeFreq: "daily",
				Priority:   "0.8",
			})
		}
	}

	for _, ep := range episodes {
		u := sitemapURL{
			Loc:        base + "/episode/" + url.PathEscape(ep.ID),
			ChangeFreq: "monthly",
			Priority:   "0.6",
		}
		if !ep.CreatedAt.IsZero() {
			u.LastMod = ep.CreatedAt.UTC().Format("2006-01-02")
		}
		set.URLs = append(set.URLs, u)
	}

	return encodeSitemap(set)
}

func slugsOf(categories []string) []string {
	seen := make(map[string]bool, len(categories))
	slugs := make([]string, 0, len(categories))
	for _, c := range categories {
		s := Slugify(c)
		if s == "" || seen[s] || IsReservedSegment(s) || IsVirtualCategory(s) {
			continue
		}
		seen[s] = true
		slugs = append(slugs, s)
	}
	return slugs
}

func encodeSitemap(set urlSet) []byte {
	data, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		log.Printf("[ERROR] can't encode sitemap, %v", err)
		data, _ = xml.MarshalIndent(urlSet{XMLNS: set.XMLNS, URLs: set.URLs[:1]}, "", "  ")
	}
	return append([]byte(xml.Header), data...)
}
