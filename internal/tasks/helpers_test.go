package tasks

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/incommon/internal/models"
	"github.com/desertthunder/incommon/internal/services"
	tu "github.com/desertthunder/incommon/internal/testing"
)

const base = "https://letterboxd.com"

const placeholder = "https://s.ltrbxd.com/static/img/empty-poster-230.png"

type film struct {
	slug  string
	title string
	image string
	rated int // rating code 0-10; negative means unrated
}

func unrated(slug string) film {
	return film{slug: slug, rated: -1}
}

// listPage renders a LazyPoster list page linking to next.
func listPage(next string, films ...film) string {
	var b strings.Builder
	b.WriteString("<html><body><ul class=\"poster-list\">")
	for _, f := range films {
		fmt.Fprintf(&b, `<li class="poster-container"><div data-component-class="LazyPoster" data-item-link="/film/%s/" data-item-name="%s">`, f.slug, f.title)
		if f.image != "" {
			fmt.Fprintf(&b, `<img src="%s"/>`, f.image)
		}
		b.WriteString("</div>")
		if f.rated >= 0 {
			fmt.Fprintf(&b, `<span class="rating rated-%d"></span>`, f.rated)
		}
		b.WriteString("</li>")
	}
	b.WriteString("</ul>")
	if next != "" {
		fmt.Fprintf(&b, `<div class="pagination"><div class="paginate-next"><a href="%s">Older</a></div></div>`, next)
	}
	b.WriteString("</body></html>")
	return b.String()
}

func filmPage(poster string) string {
	return fmt.Sprintf(`<html><head><meta property="og:image" content="%s"/></head></html>`, poster)
}

func profilePage(name, avatar string) string {
	return fmt.Sprintf(`<html><body><div class="profile-avatar"><img src="%s"/></div><div class="profile-name"><h1>%s</h1></div></body></html>`, avatar, name)
}

type sleepRecorder struct {
	mu    sync.Mutex
	calls []time.Duration
}

func (s *sleepRecorder) Sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, d)
	return ctx.Err()
}

func (s *sleepRecorder) Calls() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.calls...)
}

func newTestEngine(t *testing.T, fetcher PageFetcher, sleeper *sleepRecorder) *Engine {
	t.Helper()
	site, err := services.NewSite(base)
	if err != nil {
		t.Fatalf("failed to create site: %v", err)
	}
	return NewEngine(fetcher, site, EngineOpts{
		Harvest: HarvestOpts{MaxPages: 100, PageDelay: 300 * time.Millisecond},
		Enrich:  EnrichOpts{BatchSize: 5, BatchDelay: 200 * time.Millisecond, PlaceholderMarkers: []string{"empty-poster"}},
		Sleep:   sleeper.Sleep,
	})
}

func drain(ch chan ProgressUpdate) []ProgressUpdate {
	var updates []ProgressUpdate
	for {
		select {
		case u := <-ch:
			updates = append(updates, u)
		default:
			return updates
		}
	}
}

func keys(records []models.Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Key
	}
	return out
}

var _ PageFetcher = (*tu.FakeFetcher)(nil)
