package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/desertthunder/incommon/internal/shared"
	tu "github.com/desertthunder/incommon/internal/testing"
)

func scenarioFetcher() *tu.FakeFetcher {
	return tu.NewFakeFetcher(map[string]string{
		base + "/a/":           profilePage("Alice A.", "https://a.ltrbxd.com/avatar/a.jpg"),
		base + "/b/":           profilePage("Bob B.", "https://a.ltrbxd.com/avatar/b.jpg"),
		base + "/a/films/":     listPage("", film{slug: "x", title: "X", image: "https://a.ltrbxd.com/x.jpg", rated: 8}, film{slug: "y", title: "Y", image: placeholder, rated: -1}),
		base + "/a/watchlist/": listPage("", unrated("z")),
		base + "/b/films/":     listPage("", film{slug: "x", title: "X", image: "https://a.ltrbxd.com/x.jpg", rated: 6}),
		base + "/b/watchlist/": listPage("", unrated("y")),
		base + "/film/y/":      filmPage("https://a.ltrbxd.com/y.jpg"),
	})
}

func TestCompare(t *testing.T) {
	t.Run("end to end", func(t *testing.T) {
		fetcher := scenarioFetcher()
		engine := newTestEngine(t, fetcher, &sleepRecorder{})
		progress := make(chan ProgressUpdate, 64)

		result, err := engine.Compare(context.Background(), progress, "a", "b")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if result.IdentityA.DisplayName != "Alice A." || result.IdentityB.AvatarRef != "https://a.ltrbxd.com/avatar/b.jpg" {
			t.Errorf("unexpected identities %+v %+v", result.IdentityA, result.IdentityB)
		}

		if len(result.Pairs) != 2 {
			t.Fatalf("expected pairs x and y, got %+v", result.Pairs)
		}

		x, y := result.Pairs[0], result.Pairs[1]
		if x.Key != "x" || y.Key != "y" {
			t.Fatalf("expected order x,y got %s,%s", x.Key, y.Key)
		}
		if x.OwnerA.Rating == nil || *x.OwnerA.Rating != 4.0 {
			t.Errorf("expected A rating 4.0, got %v", x.OwnerA.Rating)
		}
		if x.OwnerB.Rating == nil || *x.OwnerB.Rating != 3.0 {
			t.Errorf("expected B rating 3.0, got %v", x.OwnerB.Rating)
		}
		if y.OwnerA.Category.String() != "watched" || y.OwnerB.Category.String() != "watchlist" {
			t.Errorf("unexpected categories for y: %v %v", y.OwnerA.Category, y.OwnerB.Category)
		}
		if y.OwnerA.Rating != nil {
			t.Errorf("expected y unrated for A, got %v", *y.OwnerA.Rating)
		}

		if y.OwnerA.ImageRef != "https://a.ltrbxd.com/y.jpg" || y.OwnerB.ImageRef != "https://a.ltrbxd.com/y.jpg" {
			t.Errorf("expected y posters backfilled, got %q %q", y.OwnerA.ImageRef, y.OwnerB.ImageRef)
		}
		if fetcher.Count(base+"/film/x/") != 0 {
			t.Error("x already had posters and must not be looked up")
		}
		if fetcher.Count(base+"/film/z/") != 0 {
			t.Error("z is not shared and must not be looked up")
		}

		updates := drain(progress)
		if len(updates) == 0 || updates[0].Phase != FetchProfiles || updates[len(updates)-1].Phase != Complete {
			t.Errorf("expected profiles first and complete last, got %+v", updates)
		}
	})

	t.Run("harvest order is sequential by owner", func(t *testing.T) {
		fetcher := scenarioFetcher()
		engine := newTestEngine(t, fetcher, &sleepRecorder{})

		if _, err := engine.Compare(context.Background(), nil, "a", "b"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		var lists []string
		for _, url := range fetcher.Calls() {
			switch url {
			case base + "/a/films/", base + "/a/watchlist/", base + "/b/films/", base + "/b/watchlist/":
				lists = append(lists, url)
			}
		}
		want := []string{base + "/a/films/", base + "/a/watchlist/", base + "/b/films/", base + "/b/watchlist/"}
		if len(lists) != len(want) {
			t.Fatalf("unexpected list fetches %v", lists)
		}
		for i := range want {
			if lists[i] != want[i] {
				t.Errorf("fetch %d: expected %s, got %s", i, want[i], lists[i])
			}
		}
	})

	t.Run("unreadable profile falls back to handle", func(t *testing.T) {
		fetcher := scenarioFetcher()
		fetcher.Fail(base+"/b/", errors.New("timeout"))
		engine := newTestEngine(t, fetcher, &sleepRecorder{})

		result, err := engine.Compare(context.Background(), nil, "a", "b")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if result.IdentityB.Handle != "b" || result.IdentityB.DisplayName != "b" || result.IdentityB.AvatarRef != "" {
			t.Errorf("expected fallback identity, got %+v", result.IdentityB)
		}
	})

	t.Run("no films in common", func(t *testing.T) {
		fetcher := scenarioFetcher()
		fetcher.Set(base+"/b/films/", listPage("", unrated("q")))
		fetcher.Set(base+"/b/watchlist/", listPage(""))
		engine := newTestEngine(t, fetcher, &sleepRecorder{})

		result, err := engine.Compare(context.Background(), nil, "a", "b")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if result.Pairs == nil || len(result.Pairs) != 0 {
			t.Errorf("expected empty non-nil pairs, got %#v", result.Pairs)
		}
	})

	t.Run("canceled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		engine := newTestEngine(t, scenarioFetcher(), &sleepRecorder{})

		if _, err := engine.Compare(ctx, nil, "a", "b"); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})

	t.Run("missing fetcher", func(t *testing.T) {
		engine := NewEngine(nil, nil, EngineOpts{})

		if _, err := engine.Compare(context.Background(), nil, "a", "b"); !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})
}

func TestPhaseString(t *testing.T) {
	tc := map[Phase]string{
		FetchProfiles: "fetch_profiles",
		HarvestPage:   "harvest_page",
		HarvestDone:   "harvest_done",
		MatchFilms:    "match_films",
		FetchPosters:  "fetch_posters",
		Complete:      "complete",
		PairDone:      "pair_done",
		PairFailed:    "pair_failed",
		Phase(99):     "",
	}
	for phase, want := range tc {
		if got := phase.String(); got != want {
			t.Errorf("Phase(%d).String() = %q, want %q", int(phase), got, want)
		}
	}

	data, err := json.Marshal(ProgressUpdate{Phase: HarvestPage, Owner: "x"})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"phase":"harvest_page"`) {
		t.Errorf("expected phase name in JSON, got %s", data)
	}
}
