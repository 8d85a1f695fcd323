package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/incommon/internal/models"
	"github.com/desertthunder/incommon/internal/shared"
	"github.com/desertthunder/incommon/internal/tasks"
	tu "github.com/desertthunder/incommon/internal/testing"
)

// poster renders one LazyPoster list entry; rated < 0 means unrated.
func poster(slug, title string, rated int) string {
	s := fmt.Sprintf(`<li class="poster-container"><div data-component-class="LazyPoster" data-item-link="/film/%s/" data-item-name="%s"><img src="https://a.ltrbxd.com/%s.jpg"/></div>`, slug, title, slug)
	if rated >= 0 {
		s += fmt.Sprintf(`<span class="rating rated-%d"></span>`, rated)
	}
	return s + "</li>"
}

func listPage(entries ...string) string {
	return `<html><body><ul class="poster-list">` + strings.Join(entries, "") + `</ul></body></html>`
}

// newFixtureFetcher serves two members who share "heat" and nothing else.
func newFixtureFetcher() *tu.FakeFetcher {
	return tu.NewFakeFetcher(map[string]string{
		"https://letterboxd.com/x/films/":     listPage(poster("heat", "Heat", 8), poster("alien", "Alien", 6)),
		"https://letterboxd.com/x/watchlist/": listPage(),
		"https://letterboxd.com/y/films/":     listPage(poster("heat", "Heat", 6)),
		"https://letterboxd.com/y/watchlist/": listPage(poster("jaws", "Jaws", -1)),
	})
}

func testConfig(t *testing.T) *shared.Config {
	t.Helper()
	config := shared.DefaultConfig()
	config.Harvest.PageDelayMS = 0
	config.Enrich.BatchDelayMS = 0
	config.Database.Path = filepath.Join(t.TempDir(), "incommon.db")
	return config
}

func newTestRunner(t *testing.T, opts RunnerOpts) (*Runner, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	out, status := &bytes.Buffer{}, &bytes.Buffer{}
	if opts.Config == nil {
		opts.Config = testConfig(t)
	}
	if opts.Fetcher == nil && opts.Comparer == nil {
		opts.Fetcher = newFixtureFetcher()
	}
	opts.Logger = log.New(&bytes.Buffer{})
	opts.Output = out
	opts.Status = status

	r, err := NewRunner(opts)
	if err != nil {
		t.Fatalf("NewRunner failed: %v", err)
	}
	return r, out, status
}

func run(r *Runner, args ...string) error {
	return newApp(r).Run(context.Background(), append([]string{"incommon"}, args...))
}

type stubComparer struct {
	result *models.ComparisonResult
	err    error
}

func (s *stubComparer) Compare(context.Context, chan<- tasks.ProgressUpdate, string, string) (*models.ComparisonResult, error) {
	return s.result, s.err
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with nil options uses defaults", func(t *testing.T) {
			r, err := NewRunner(RunnerOpts{})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if r.config == nil {
				t.Error("expected default config to be set")
			}
			if r.logger == nil {
				t.Error("expected default logger to be set")
			}
			if r.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
			if r.status != os.Stderr {
				t.Error("expected status to default to os.Stderr")
			}
			if _, ok := r.engine.(*tasks.Engine); !ok {
				t.Errorf("expected a *tasks.Engine, got %T", r.engine)
			}
			if r.site == nil {
				t.Error("expected site to be set")
			}
		})

		t.Run("rejects a relative base url", func(t *testing.T) {
			config := shared.DefaultConfig()
			config.Letterboxd.BaseURL = "letterboxd.com"

			_, err := NewRunner(RunnerOpts{Config: config})
			if !errors.Is(err, shared.ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})

		t.Run("keeps a supplied comparer", func(t *testing.T) {
			stub := &stubComparer{}
			r, _, _ := newTestRunner(t, RunnerOpts{Comparer: stub})

			if err := r.SetConfig(testConfig(t), "other.toml"); err != nil {
				t.Fatalf("SetConfig failed: %v", err)
			}
			if r.engine != stub {
				t.Error("expected stub comparer to survive rewiring")
			}
		})
	})

	t.Run("Configure", func(t *testing.T) {
		t.Run("loads the config file", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			data := "[letterboxd]\nbase_url = \"https://boxd.example\"\n"
			if err := os.WriteFile(path, []byte(data), 0644); err != nil {
				t.Fatal(err)
			}

			stub := &stubComparer{result: &models.ComparisonResult{
				IdentityA: models.FallbackIdentity("x"),
				IdentityB: models.FallbackIdentity("y"),
			}}
			r, _, _ := newTestRunner(t, RunnerOpts{Comparer: stub})
			if err := run(r, "--config", path, "compare", "-q", "x", "y"); err != nil {
				t.Fatalf("compare failed: %v", err)
			}

			if r.configPath != path {
				t.Errorf("expected configPath %s, got %s", path, r.configPath)
			}
			if got := r.site.FilmURL("heat"); got != "https://boxd.example/film/heat/" {
				t.Errorf("expected site from config, got %s", got)
			}
		})

		t.Run("invalid config is an error", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte("[harvest]\nmax_pages = 0\n"), 0644); err != nil {
				t.Fatal(err)
			}

			r, _, _ := newTestRunner(t, RunnerOpts{})
			err := run(r, "--config", path, "compare", "x", "y")
			if !errors.Is(err, shared.ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})

		t.Run("missing file keeps defaults", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "absent.toml")
			r, _, _ := newTestRunner(t, RunnerOpts{})
			before := r.config

			if err := run(r, "--config", path, "compare", "--quiet", "x", "y"); err != nil {
				t.Fatalf("compare failed: %v", err)
			}
			if r.config != before {
				t.Error("expected config to be left alone")
			}
			if r.configPath != path {
				t.Errorf("expected configPath %s, got %s", path, r.configPath)
			}
		})
	})
}

func TestCompare(t *testing.T) {
	t.Run("prints the text export and progress", func(t *testing.T) {
		r, out, status := newTestRunner(t, RunnerOpts{})

		if err := run(r, "compare", "x", "@Y"); err != nil {
			t.Fatalf("compare failed: %v", err)
		}

		if !strings.Contains(out.String(), "Heat") {
			t.Errorf("expected Heat in output, got %q", out.String())
		}
		for _, film := range []string{"Alien", "Jaws"} {
			if strings.Contains(out.String(), film) {
				t.Errorf("%s is not shared and should not be listed", film)
			}
		}
		if !strings.Contains(status.String(), "1 film in common") {
			t.Errorf("expected summary on status, got %q", status.String())
		}
		if !strings.Contains(status.String(), "x: Scraped") {
			t.Errorf("expected harvest progress on status, got %q", status.String())
		}
	})

	t.Run("json export", func(t *testing.T) {
		r, out, _ := newTestRunner(t, RunnerOpts{})

		if err := run(r, "compare", "--format", "json", "--quiet", "x", "y"); err != nil {
			t.Fatalf("compare failed: %v", err)
		}

		var result models.ComparisonResult
		if err := json.Unmarshal(out.Bytes(), &result); err != nil {
			t.Fatalf("failed to decode output: %v\n%s", err, out.String())
		}
		if len(result.Pairs) != 1 {
			t.Fatalf("expected 1 pair, got %d", len(result.Pairs))
		}
		p := result.Pairs[0]
		if p.Key != "heat" || *p.OwnerA.Rating != 4.0 || *p.OwnerB.Rating != 3.0 {
			t.Errorf("unexpected pair %+v", p)
		}
		if result.IdentityA.DisplayName != "x" {
			t.Errorf("expected fallback identity, got %+v", result.IdentityA)
		}
	})

	t.Run("quiet suppresses progress", func(t *testing.T) {
		r, _, status := newTestRunner(t, RunnerOpts{})

		if err := run(r, "compare", "-q", "x", "y"); err != nil {
			t.Fatalf("compare failed: %v", err)
		}
		if status.Len() != 0 {
			t.Errorf("expected no status output, got %q", status.String())
		}
	})

	t.Run("writes to a file", func(t *testing.T) {
		r, out, _ := newTestRunner(t, RunnerOpts{})
		path := filepath.Join(t.TempDir(), "common.csv")

		if err := run(r, "compare", "-f", "csv", "-o", path, "x", "y"); err != nil {
			t.Fatalf("compare failed: %v", err)
		}

		tu.AssertFileExists(t, path)
		if !strings.Contains(string(tu.MustReadFile(t, path)), "https://letterboxd.com/film/heat/") {
			t.Error("expected film link in CSV")
		}
		if out.Len() != 0 {
			t.Errorf("expected nothing on stdout, got %q", out.String())
		}
	})

	t.Run("input errors", func(t *testing.T) {
		tests := []struct {
			name string
			args []string
			want error
		}{
			{name: "missing member", args: []string{"compare", "x"}, want: shared.ErrMissingArgument},
			{name: "same member", args: []string{"compare", "x", "X"}, want: shared.ErrInvalidArgument},
			{name: "unknown format", args: []string{"compare", "--format", "xml", "x", "y"}, want: shared.ErrInvalidFlag},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				r, _, _ := newTestRunner(t, RunnerOpts{})
				if err := run(r, tt.args...); !errors.Is(err, tt.want) {
					t.Errorf("expected %v, got %v", tt.want, err)
				}
			})
		}
	})

	t.Run("comparison failure", func(t *testing.T) {
		r, _, _ := newTestRunner(t, RunnerOpts{Comparer: &stubComparer{err: context.Canceled}})

		err := run(r, "compare", "x", "y")
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})

	t.Run("output failure", func(t *testing.T) {
		r, _, _ := newTestRunner(t, RunnerOpts{})
		r.output = &tu.FWriter{}

		if err := run(r, "compare", "-q", "x", "y"); err == nil {
			t.Error("expected write error")
		}
	})
}

func TestCompareMany(t *testing.T) {
	t.Run("ranks members and writes exports", func(t *testing.T) {
		r, out, status := newTestRunner(t, RunnerOpts{})
		dir := t.TempDir()

		if err := run(r, "compare-many", "--output-dir", dir, "--format", "md", "x", "y", "@Y"); err != nil {
			t.Fatalf("compare-many failed: %v", err)
		}

		if !strings.Contains(out.String(), "Films in common with x") || !strings.Contains(out.String(), "x_y.md") {
			t.Errorf("unexpected ranking %q", out.String())
		}
		if !strings.Contains(status.String(), "y: 1 movies in common") {
			t.Errorf("expected pairing progress, got %q", status.String())
		}
		tu.AssertFileExists(t, filepath.Join(dir, "x_y.md"))
		tu.AssertFileExists(t, filepath.Join(dir, "manifest.json"))
	})

	t.Run("input errors", func(t *testing.T) {
		tests := []struct {
			name string
			args []string
			want error
		}{
			{name: "one member", args: []string{"compare-many", "x"}, want: shared.ErrMissingArgument},
			{name: "anchor repeated", args: []string{"compare-many", "x", "X"}, want: shared.ErrInvalidArgument},
			{name: "bad handle", args: []string{"compare-many", "x", "not valid"}, want: shared.ErrInvalidArgument},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				r, _, _ := newTestRunner(t, RunnerOpts{})
				if err := run(r, tt.args...); !errors.Is(err, tt.want) {
					t.Errorf("expected %v, got %v", tt.want, err)
				}
			})
		}
	})
}

func TestSaved(t *testing.T) {
	r, out, status := newTestRunner(t, RunnerOpts{})

	if err := run(r, "compare", "--save", "-q", "x", "y"); err != nil {
		t.Fatalf("compare failed: %v", err)
	}
	if !strings.Contains(status.String(), "Saved comparison") {
		t.Fatalf("expected save confirmation, got %q", status.String())
	}

	out.Reset()
	if err := run(r, "saved", "list", "--json"); err != nil {
		t.Fatalf("saved list failed: %v", err)
	}
	var saved []models.SavedComparison
	if err := json.Unmarshal(out.Bytes(), &saved); err != nil {
		t.Fatalf("failed to decode list: %v\n%s", err, out.String())
	}
	if len(saved) != 1 || saved[0].PairCount != 1 {
		t.Fatalf("unexpected saved comparisons %+v", saved)
	}
	id := saved[0].ID

	t.Run("list plain", func(t *testing.T) {
		out.Reset()
		if err := run(r, "saved", "list"); err != nil {
			t.Fatalf("saved list failed: %v", err)
		}
		if !strings.Contains(out.String(), id) || !strings.Contains(out.String(), "x & y") {
			t.Errorf("unexpected listing %q", out.String())
		}
	})

	t.Run("list by handle", func(t *testing.T) {
		out.Reset()
		if err := run(r, "saved", "list", "--handle", "nobody", "--json"); err != nil {
			t.Fatalf("saved list failed: %v", err)
		}
		if strings.TrimSpace(out.String()) != "[]" {
			t.Errorf("expected empty list, got %q", out.String())
		}
	})

	t.Run("show", func(t *testing.T) {
		out.Reset()
		if err := run(r, "saved", "show", "--format", "markdown", id); err != nil {
			t.Fatalf("saved show failed: %v", err)
		}
		if !strings.Contains(out.String(), "Heat") {
			t.Errorf("expected Heat in markdown, got %q", out.String())
		}
	})

	t.Run("show unknown", func(t *testing.T) {
		err := run(r, "saved", "show", "missing")
		if !errors.Is(err, shared.ErrComparisonNotFound) {
			t.Errorf("expected ErrComparisonNotFound, got %v", err)
		}
	})

	t.Run("delete", func(t *testing.T) {
		if err := run(r, "saved", "delete", id); err != nil {
			t.Fatalf("saved delete failed: %v", err)
		}
		out.Reset()
		if err := run(r, "saved", "list"); err != nil {
			t.Fatalf("saved list failed: %v", err)
		}
		if !strings.Contains(out.String(), "No saved comparisons") {
			t.Errorf("expected empty archive, got %q", out.String())
		}
	})

	t.Run("delete requires id", func(t *testing.T) {
		if err := run(r, "saved", "delete"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})
}

func TestSetup(t *testing.T) {
	t.Run("creates config and database", func(t *testing.T) {
		dir := t.TempDir()
		t.Chdir(dir)

		r, out, _ := newTestRunner(t, RunnerOpts{})
		if err := run(r, "setup"); err != nil {
			t.Fatalf("setup failed: %v", err)
		}

		tu.AssertFileExists(t, filepath.Join(dir, "config.toml"))
		tu.AssertFileExists(t, filepath.Join(dir, "incommon.db"))
		if !strings.Contains(out.String(), "Database ready") {
			t.Errorf("unexpected output %q", out.String())
		}
	})

	t.Run("rollback", func(t *testing.T) {
		dir := t.TempDir()
		t.Chdir(dir)
		conf := fmt.Sprintf("[database]\npath = %q\n", filepath.Join(dir, "rollback.db"))
		if err := os.WriteFile("config.toml", []byte(conf), 0644); err != nil {
			t.Fatal(err)
		}

		r, out, _ := newTestRunner(t, RunnerOpts{})
		if err := run(r, "setup"); err != nil {
			t.Fatalf("setup failed: %v", err)
		}
		if err := run(r, "setup", "--rollback"); err != nil {
			t.Fatalf("rollback failed: %v", err)
		}
		if !strings.Contains(out.String(), "Rolled back") {
			t.Errorf("unexpected output %q", out.String())
		}
		if err := run(r, "setup", "--rollback"); err == nil {
			t.Error("expected nothing left to roll back")
		}
	})
}

func TestWriteHelpers(t *testing.T) {
	t.Run("writeJSON", func(t *testing.T) {
		r, out, _ := newTestRunner(t, RunnerOpts{Comparer: &stubComparer{}})
		if err := r.writeJSON(map[string]int{"n": 1}, false); err != nil {
			t.Fatal(err)
		}
		if out.String() != "{\"n\":1}\n" {
			t.Errorf("unexpected output %q", out.String())
		}
	})

	t.Run("writeJSON marshal failure", func(t *testing.T) {
		r, _, _ := newTestRunner(t, RunnerOpts{Comparer: &stubComparer{}})
		if err := r.writeJSON(make(chan int), true); err == nil {
			t.Error("expected marshal error")
		}
	})

	t.Run("writePlain failure", func(t *testing.T) {
		r, _, _ := newTestRunner(t, RunnerOpts{Comparer: &stubComparer{}})
		w := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
		r.output = &w

		if err := r.writePlain("first\n"); err != nil {
			t.Fatalf("first write should succeed: %v", err)
		}
		if err := r.writePlain("second\n"); err == nil {
			t.Error("expected second write to fail")
		}
	})
}
