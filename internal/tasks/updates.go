package tasks

import (
	"fmt"

	"github.com/desertthunder/incommon/internal/models"
)

// ProgressUpdate represents a progress event during a comparison.
//
// Used to send real-time updates to the CLI, TUI or log for display.
type ProgressUpdate struct {
	Phase   Phase  `json:"phase"`           // Operation phase
	Owner   string `json:"owner,omitempty"` // Member handle the update concerns, empty for pair-wide phases
	Step    int    `json:"step"`            // Current step number within phase
	Total   int    `json:"total"`           // Total steps in this phase (page ceiling while harvesting)
	Message string `json:"message"`         // Human-readable message for display
	Data    any    `json:"-"`               // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchProfiles Phase = iota
	HarvestPage
	HarvestDone
	MatchFilms
	FetchPosters
	Complete
	PairDone
	PairFailed
)

func (p Phase) String() string {
	switch p {
	case FetchProfiles:
		return "fetch_profiles"
	case HarvestPage:
		return "harvest_page"
	case HarvestDone:
		return "harvest_done"
	case MatchFilms:
		return "match_films"
	case FetchPosters:
		return "fetch_posters"
	case Complete:
		return "complete"
	case PairDone:
		return "pair_done"
	case PairFailed:
		return "pair_failed"
	default:
		return ""
	}
}

// MarshalText encodes the phase by name so streamed updates are readable.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func listLabel(c models.Category) string {
	if c == models.Watchlist {
		return "watchlist"
	}
	return "films"
}

func fetchProfilesUpdate(a, b string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchProfiles,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Fetching profiles for %s and %s...", a, b),
	}
}

func harvestPageUpdate(owner string, c models.Category, page, ceiling, found int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   HarvestPage,
		Owner:   owner,
		Step:    page,
		Total:   ceiling,
		Message: fmt.Sprintf("%s: Scraping %s page %d... (%d movies found)", owner, listLabel(c), page, found),
	}
}

func harvestDoneUpdate(owner string, c models.Category, pages, found int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   HarvestDone,
		Owner:   owner,
		Step:    pages,
		Total:   pages,
		Message: fmt.Sprintf("%s: Scraped %d %s pages (%d movies found)", owner, pages, listLabel(c), found),
	}
}

func intersectUpdate(common int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   MatchFilms,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Found %d movies in common", common),
	}
}

func enrichUpdate(completed, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchPosters,
		Step:    completed,
		Total:   total,
		Message: fmt.Sprintf("Fetching posters... %d/%d", completed, total),
	}
}

func completeUpdate(result *models.ComparisonResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Complete,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("%s and %s have %d movies in common", result.IdentityA.DisplayName, result.IdentityB.DisplayName, len(result.Pairs)),
		Data:    result,
	}
}

func pairDoneUpdate(completed, total int, other string, common int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PairDone,
		Owner:   other,
		Step:    completed,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s: %d movies in common", completed, total, other, common),
	}
}

func pairFailedUpdate(completed, total int, other string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PairFailed,
		Owner:   other,
		Step:    completed,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s: failed: %v", completed, total, other, err),
	}
}
