package extract

import (
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/incommon/internal/models"
	"github.com/desertthunder/incommon/internal/shared"
)

const nextPageSelector = ".pagination .paginate-next:not(.disabled) a, .paginate-nextprev a.next, a.next"

// Strategy reads records from one style of list markup.
//
// A strategy that does not recognise the page returns no records; it never fails.
type Strategy interface {
	Name() string
	Records(doc *Document) []models.Record
}

// Result is what one list page yields.
type Result struct {
	Records  []models.Record
	Next     string // absolute URL of the next page; empty on the last page
	Strategy string // name of the strategy that matched, empty when none did
}

// Extractor runs an ordered chain of record strategies.
type Extractor struct {
	strategies []Strategy
	logger     *log.Logger
}

// DefaultStrategies returns the record strategies in priority order.
func DefaultStrategies() []Strategy {
	return []Strategy{LazyPosterStrategy{}, LegacyPosterStrategy{}}
}

// NewExtractor creates an Extractor. With no strategies it uses [DefaultStrategies].
func NewExtractor(logger *log.Logger, strategies ...Strategy) *Extractor {
	if len(strategies) == 0 {
		strategies = DefaultStrategies()
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Extractor{strategies: strategies, logger: logger}
}

// Extract returns the records of the first strategy that finds any, plus the next page link.
func (e *Extractor) Extract(doc *Document) Result {
	result := Result{Next: NextPage(doc)}

	for _, s := range e.strategies {
		records := s.Records(doc)
		if len(records) == 0 {
			continue
		}
		result.Records = records
		result.Strategy = s.Name()
		break
	}

	e.logger.Debug("extracted page", "records", len(result.Records), "strategy", result.Strategy, "next", result.Next)
	return result
}

// NextPage returns the absolute URL of the enabled "next" pagination link, or "" when there is none.
func NextPage(doc *Document) string {
	href := attr(doc.Find(nextPageSelector).First(), "href")
	return doc.Resolve(href)
}

// LazyPosterStrategy reads the React `LazyPoster` components used by current list pages.
type LazyPosterStrategy struct{}

func (LazyPosterStrategy) Name() string { return "lazy-poster" }

func (LazyPosterStrategy) Records(doc *Document) []models.Record {
	var records []models.Record
	doc.Find(`[data-component-class="LazyPoster"]`).Each(func(_ int, poster *goquery.Selection) {
		key := slugFromLink(attr(poster, "data-item-link", "data-target-link"))
		if key == "" {
			key = attr(poster, "data-item-slug", "data-film-slug")
		}
		if key == "" {
			return
		}

		img := poster.Find("img").First()
		title := attr(img, "alt")
		if title == "" {
			title = attr(poster, "data-item-name", "data-film-name")
		}

		container := poster.Closest("li, .poster-container, .film-poster")
		records = append(records, models.Record{
			Key:      key,
			Title:    titleOrSlug(title, key),
			ImageRef: imageOf(doc, img),
			Rating:   ratingFrom(container.Find(".rating, [class*=rating]")),
		})
	})
	return records
}

// LegacyPosterStrategy reads the older `data-film-slug` poster markup.
type LegacyPosterStrategy struct{}

func (LegacyPosterStrategy) Name() string { return "legacy-poster" }

func (LegacyPosterStrategy) Records(doc *Document) []models.Record {
	var records []models.Record
	doc.Find("[data-film-slug]").Each(func(_ int, poster *goquery.Selection) {
		key := attr(poster, "data-film-slug")
		if key == "" {
			return
		}

		link := poster.Find("a").First()
		if link.Length() == 0 {
			link = poster.Closest("li").Find("a").First()
		}
		img := poster.Find("img").First()

		title := attr(link, "data-film-name")
		if title == "" {
			title = attr(img, "alt")
		}

		container := poster.Closest(".poster-container, .film-poster")
		records = append(records, models.Record{
			Key:      key,
			Title:    titleOrSlug(title, key),
			ImageRef: imageOf(doc, img),
			Rating:   ratingFrom(container.Find(".rating")),
		})
	})
	return records
}

// slugFromLink pulls the film slug out of a "/film/<slug>/" link, absolute or relative.
func slugFromLink(link string) string {
	if link == "" {
		return ""
	}
	if u, err := url.Parse(link); err == nil {
		link = u.Path
	}

	segments := strings.FieldsFunc(link, func(r rune) bool { return r == '/' })
	for i, seg := range segments {
		if seg == "film" && i+1 < len(segments) {
			return segments[i+1]
		}
	}
	return ""
}

func titleOrSlug(title, key string) string {
	if title != "" {
		return title
	}
	return shared.TitleFromSlug(key)
}

// imageOf prefers the first srcset candidate of a poster img over data-src and src. Placeholders are kept.
func imageOf(doc *Document, img *goquery.Selection) string {
	if img.Length() == 0 {
		return ""
	}
	if src := firstSrcset(img.AttrOr("srcset", "")); src != "" {
		return doc.Resolve(src)
	}
	return doc.Resolve(attr(img, "data-src", "src"))
}

// ratingFrom reads the first "rated-N" class among sel and converts the 0-10 code to stars.
func ratingFrom(sel *goquery.Selection) *float64 {
	var rating *float64
	sel.EachWithBreak(func(_ int, s *goquery.Selection) bool {
		for _, class := range strings.Fields(s.AttrOr("class", "")) {
			if r, ok := ParseRatingClass(class); ok {
				rating = &r
				return false
			}
		}
		return true
	})
	return rating
}

// ParseRatingClass converts a "rated-N" class, N in 0..10, to a 0-5 half-step rating.
func ParseRatingClass(class string) (float64, bool) {
	code, ok := strings.CutPrefix(class, "rated-")
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(code)
	if err != nil || n < 0 || n > 10 {
		return 0, false
	}
	return float64(n) / 2, true
}
