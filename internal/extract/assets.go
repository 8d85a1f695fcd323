package extract

import (
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// AssetStrategy locates a poster URL on a film detail page.
type AssetStrategy interface {
	Name() string
	Asset(doc *Document) string
}

// AssetExtractor runs an ordered chain of asset strategies and skips placeholder images.
type AssetExtractor struct {
	strategies   []AssetStrategy
	placeholders []string
}

// DefaultAssetStrategies returns the poster strategies in priority order.
func DefaultAssetStrategies() []AssetStrategy {
	return []AssetStrategy{JSONLDStrategy{}, OpenGraphStrategy{}, PosterImageStrategy{}}
}

// NewAssetExtractor creates an AssetExtractor that rejects URLs containing any of placeholders.
func NewAssetExtractor(placeholders []string, strategies ...AssetStrategy) *AssetExtractor {
	if len(strategies) == 0 {
		strategies = DefaultAssetStrategies()
	}
	return &AssetExtractor{strategies: strategies, placeholders: placeholders}
}

// Find returns the first non-placeholder poster URL, or "" when no strategy finds one.
func (a *AssetExtractor) Find(doc *Document) string {
	for _, s := range a.strategies {
		ref := doc.Resolve(s.Asset(doc))
		if ref != "" && !a.IsPlaceholder(ref) {
			return ref
		}
	}
	return ""
}

// IsPlaceholder reports whether ref is empty or contains a placeholder marker.
func (a *AssetExtractor) IsPlaceholder(ref string) bool {
	return IsPlaceholder(ref, a.placeholders)
}

// IsPlaceholder reports whether ref is empty or contains one of markers.
func IsPlaceholder(ref string, markers []string) bool {
	if ref == "" {
		return true
	}
	for _, m := range markers {
		if m != "" && strings.Contains(ref, m) {
			return true
		}
	}
	return false
}

// JSONLDStrategy reads the `image` field of the page's structured data.
type JSONLDStrategy struct{}

func (JSONLDStrategy) Name() string { return "json-ld" }

func (JSONLDStrategy) Asset(doc *Document) string {
	var image string
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		image = jsonLDImage(s.Text())
		return image == ""
	})
	return image
}

// jsonLDImage decodes a JSON-LD block, tolerating the CDATA comment wrapper Letterboxd emits.
func jsonLDImage(raw string) string {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "/* <![CDATA[ */")
	raw = strings.TrimSuffix(raw, "/* ]]> */")

	var data struct {
		Image json.RawMessage `json:"image"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &data); err != nil || len(data.Image) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(data.Image, &s); err == nil {
		return s
	}

	var list []string
	if err := json.Unmarshal(data.Image, &list); err == nil && len(list) > 0 {
		return list[0]
	}

	var obj struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(data.Image, &obj); err == nil {
		return obj.URL
	}
	return ""
}

// OpenGraphStrategy reads the `og:image` meta tag.
type OpenGraphStrategy struct{}

func (OpenGraphStrategy) Name() string { return "open-graph" }

func (OpenGraphStrategy) Asset(doc *Document) string {
	return attr(doc.Find(`meta[property="og:image"]`).First(), "content")
}

// PosterImageStrategy reads the rendered `.poster img` element.
type PosterImageStrategy struct{}

func (PosterImageStrategy) Name() string { return "poster-img" }

func (PosterImageStrategy) Asset(doc *Document) string {
	img := doc.Find(".poster img").First()
	if src := firstSrcset(img.AttrOr("srcset", "")); src != "" {
		return src
	}
	return attr(img, "src")
}
