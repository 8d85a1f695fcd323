package formatter

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/incommon/internal/models"
	"github.com/desertthunder/incommon/internal/services"
	"github.com/desertthunder/incommon/internal/shared"
	th "github.com/desertthunder/incommon/internal/testing"
)

func testSite(t *testing.T) *services.Site {
	t.Helper()
	site, err := services.NewSite("https://letterboxd.com")
	if err != nil {
		t.Fatalf("failed to create site: %v", err)
	}
	return site
}

func testResult() *models.ComparisonResult {
	return &models.ComparisonResult{
		IdentityA: models.Identity{Handle: "dave", DisplayName: "Dave", AvatarRef: "https://a.ltrbxd.com/dave.jpg"},
		IdentityB: models.Identity{Handle: "hal", DisplayName: "HAL"},
		Pairs: []models.PairedRecord{
			{
				Key:    "alien",
				OwnerA: models.Record{Key: "alien", Title: "Alien", ImageRef: "https://a.ltrbxd.com/alien.jpg", Rating: models.RatingOf(4.5), Category: models.Watched},
				OwnerB: models.Record{Key: "alien", Title: "Alien", Category: models.Watchlist},
			},
			{
				Key:    "heat",
				OwnerA: models.Record{Key: "heat", Title: "Heat | Director's Cut", Category: models.Watched},
				OwnerB: models.Record{Key: "heat", Title: "Heat | Director's Cut", Rating: models.RatingOf(3), Category: models.Watched},
			},
		},
	}
}

func TestStars(t *testing.T) {
	tc := []struct {
		rating *float64
		want   string
	}{
		{rating: nil, want: ""},
		{rating: models.RatingOf(0), want: ""},
		{rating: models.RatingOf(0.5), want: "½"},
		{rating: models.RatingOf(3.5), want: "★★★½"},
		{rating: models.RatingOf(5), want: "★★★★★"},
	}

	for _, tt := range tc {
		t.Run(tt.want, func(t *testing.T) {
			if got := Stars(tt.rating); got != tt.want {
				t.Errorf("Stars() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseFormat(t *testing.T) {
	tc := map[string]Format{"": Text, "txt": Text, "JSON": JSON, "csv": CSV, "md": Markdown, "markdown": Markdown}
	for in, want := range tc {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %q, %v; want %q", in, got, err, want)
		}
	}

	if _, err := ParseFormat("xml"); !errors.Is(err, shared.ErrInvalidFlag) {
		t.Errorf("expected ErrInvalidFlag, got %v", err)
	}
}

func TestFormatExt(t *testing.T) {
	tc := map[Format]string{Text: "txt", JSON: "json", CSV: "csv", Markdown: "md"}
	for f, want := range tc {
		if got := f.Ext(); got != want {
			t.Errorf("%s.Ext() = %q, want %q", f, got, want)
		}
	}
}

func TestPlaceholders(t *testing.T) {
	if Poster("") != services.PlaceholderPoster || Poster("p.jpg") != "p.jpg" {
		t.Error("unexpected poster fallback")
	}
	if Avatar("") != services.PlaceholderAvatar || Avatar("a.jpg") != "a.jpg" {
		t.Error("unexpected avatar fallback")
	}
}

func TestExporters(t *testing.T) {
	site := testSite(t)

	t.Run("ExportToText", func(t *testing.T) {
		data, err := ExportToText(testResult())
		if err != nil {
			t.Fatalf("ExportToText failed: %v", err)
		}

		output := string(data)
		if !strings.HasPrefix(output, "Dave and HAL have 2 films in common\n") {
			t.Errorf("missing summary, got: %s", output)
		}
		if !strings.Contains(output, "1. Alien\n   Dave: watched ★★★★½ | HAL: watchlist\n") {
			t.Errorf("missing alien line, got: %s", output)
		}
	})

	t.Run("ExportToJSON", func(t *testing.T) {
		data, err := ExportToJSON(testResult())
		if err != nil {
			t.Fatalf("ExportToJSON failed: %v", err)
		}

		var decoded models.ComparisonResult
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("output is not valid JSON: %v", err)
		}
		if len(decoded.Pairs) != 2 || decoded.Pairs[0].OwnerA.Category != models.Watched {
			t.Errorf("unexpected decoded result %+v", decoded)
		}
		if !strings.Contains(string(data), `"rating": null`) {
			t.Errorf("unrated should encode as null, got: %s", data)
		}
	})

	t.Run("ExportToCSV", func(t *testing.T) {
		data, err := ExportToCSV(testResult(), site)
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		rows, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
		if err != nil {
			t.Fatalf("output is not valid CSV: %v", err)
		}
		if len(rows) != 3 {
			t.Fatalf("expected header plus 2 rows, got %d", len(rows))
		}
		if strings.Join(rows[0], ",") != "Key,Title,URL,Poster,dave_category,dave_rating,hal_category,hal_rating" {
			t.Errorf("unexpected headers %v", rows[0])
		}
		want := []string{"alien", "Alien", "https://letterboxd.com/film/alien/", "https://a.ltrbxd.com/alien.jpg", "watched", "4.5", "watchlist", ""}
		if strings.Join(rows[1], "|") != strings.Join(want, "|") {
			t.Errorf("unexpected row\n got: %v\nwant: %v", rows[1], want)
		}
		if rows[2][3] != services.PlaceholderPoster {
			t.Errorf("expected placeholder poster, got %s", rows[2][3])
		}
	})

	t.Run("ExportToMarkdown", func(t *testing.T) {
		data, err := ExportToMarkdown(testResult(), site)
		if err != nil {
			t.Fatalf("ExportToMarkdown failed: %v", err)
		}

		output := string(data)
		if !strings.HasPrefix(output, "# Dave & HAL\n") {
			t.Errorf("missing title, got: %s", output)
		}
		if !strings.Contains(output, services.PlaceholderAvatar) {
			t.Error("missing placeholder avatar for HAL")
		}
		if !strings.Contains(output, "[Alien](https://letterboxd.com/film/alien/)") {
			t.Error("missing film link")
		}
		if !strings.Contains(output, `Heat \| Director's Cut`) {
			t.Error("pipes in titles must be escaped")
		}
	})

	t.Run("ExportToMarkdown without pairs", func(t *testing.T) {
		result := testResult()
		result.Pairs = []models.PairedRecord{}

		data, err := ExportToMarkdown(result, site)
		if err != nil {
			t.Fatalf("ExportToMarkdown failed: %v", err)
		}
		if strings.Contains(string(data), "|---|") {
			t.Error("empty result should not render a table")
		}
		if !strings.Contains(string(data), "have 0 films in common") {
			t.Errorf("missing summary, got: %s", data)
		}
	})

	t.Run("Export dispatches", func(t *testing.T) {
		for _, f := range Formats {
			if _, err := Export(testResult(), f, site); err != nil {
				t.Errorf("Export(%s) failed: %v", f, err)
			}
		}
		if _, err := Export(testResult(), Format("xml"), site); !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag, got %v", err)
		}
	})
}

func TestWriteExport(t *testing.T) {
	site := testSite(t)

	t.Run("writes file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "common.md")

		if err := WriteExport(testResult(), Markdown, site, path); err != nil {
			t.Fatalf("WriteExport failed: %v", err)
		}
		th.AssertFileExists(t, path)
		if !strings.Contains(th.MustReadFile(t, path), "# Dave & HAL") {
			t.Error("unexpected file content")
		}
	})

	t.Run("unwritable path", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "missing", "dir", "out.json")

		if err := WriteExport(testResult(), JSON, site, path); err == nil {
			t.Error("expected error for missing directory")
		}
	})
}

func TestSummary(t *testing.T) {
	result := testResult()
	result.Pairs = result.Pairs[:1]

	if got := Summary(result); got != "Dave and HAL have 1 film in common" {
		t.Errorf("unexpected summary %q", got)
	}
}
