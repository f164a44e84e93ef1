package services

import (
	"context"
	"regexp"
	"strings"
)

// Virtual filter keywords accepted as categories without stored episodes
const (
	CategoryNew     = "new"
	CategoryPopular = "popular"
)

var virtualCategoryLabels = map[string]string{
	CategoryNew:     "New",
	CategoryPopular: "Popular",
}

// reservedSegments are first path segments owned by other routes
var reservedSegments = map[string]bool{
	"api":         true,
	"episode":     true,
	"images":      true,
	"fonts":       true,
	"robots.txt":  true,
	"favicon.ico": true,
	"sitemap.xml": true,
}

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	nonSlugChars  = regexp.MustCompile(`[^a-z0-9-]`)
	nonAlnumChars = regexp.MustCompile(`[^a-z0-9]`)
)

// Category is a resolved category path segment
type Category struct {
	Label   string // canonical stored label, or display label for virtual keywords
	Slug    string
	Virtual bool
}

// Slugify derives the URL slug of a category label
func Slugify(label string) string {
	s := strings.ToLower(label)
	s = whitespaceRun.ReplaceAllString(s, "-")
	s = strings.ReplaceAll(s, "&", "and")
	return nonSlugChars.ReplaceAllString(s, "")
}

// compact drops everything but lowercase letters and digits
func compact(s string) string {
	return nonAlnumChars.ReplaceAllString(strings.ToLower(s), "")
}

// IsReservedSegment reports whether a path segment belongs to a non-category route
func IsReservedSegment(segment string) bool {
	return reservedSegments[strings.ToLower(strings.TrimSpace(segment))]
}

// IsVirtualCategory reports whether segment is one of the virtual filter keywords
func IsVirtualCategory(segment string) bool {
	_, ok := virtualCategoryLabels[strings.ToLower(strings.TrimSpace(segment))]
	return ok
}

// ResolveCategory maps a URL path segment to a category. It returns nil when the
// segment names neither a virtual keyword nor a stored category. Rules are tried in
// order (exact label, slug, compacted form) and the first candidate matching the
// first successful rule wins.
func ResolveCategory(ctx context.Context, lister CategoryLister, segment string) (*Category, error) {
	seg := strings.ToLower(strings.TrimSpace(segment))
	if seg == "" || reservedSegments[seg] {
		return nil, nil
	}

	if label, ok := virtualCategoryLabels[seg]; ok {
		return &Category{Label: label, Slug: seg, Virtual: true}, nil
	}

	labels, err := lister.ListCategories(ctx)
	if err != nil {
		return nil, err
	}

	if label, ok := matchCategory(labels, seg); ok {
		return &Category{Label: label, Slug: Slugify(label)}, nil
	}
	return nil, nil
}

func matchCategory(labels []string, seg string) (string, bool) {
	for _, label := range labels {
		if strings.ToLower(label) == seg {
			return label, true
		}
	}

	for _, label := range labels {
		if Slugify(label) == seg {
			return label, true
		}
	}

	// compacted input is compared with both the compacted label and the compacted slug,
	// so "business-economy" finds "Business & Economy" although its slug carries "and"
	loose := compact(seg)
	if loose == "" {
		return "", false
	}
	for _, label := range labels {
		if compact(label) == loose || compact(Slugify(label)) == loose {
			return label, true
		}
	}

	return "", false
}
