package services

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/desertthunder/incommon/internal/models"
	"github.com/desertthunder/incommon/internal/shared"
)

const (
	// PlaceholderPoster is shown for films whose poster could not be found.
	PlaceholderPoster = "https://letterboxd.com/static/img/empty-poster-230.c6baa486.png"
	// PlaceholderAvatar is shown for members without a readable avatar.
	PlaceholderAvatar = "https://letterboxd.com/static/img/avatar70.1b45ce0c.png"
)

var handlePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// Top-level Letterboxd paths that are site sections rather than member profiles.
var reservedPaths = map[string]bool{
	"film":     true,
	"films":    true,
	"journal":  true,
	"members":  true,
	"activity": true,
	"settings": true,
	"pro":      true,
	"patron":   true,
	"search":   true,
	"list":     true,
	"lists":    true,
}

// Site builds Letterboxd URLs against a base such as https://letterboxd.com.
type Site struct {
	base *url.URL
}

// NewSite validates baseURL and returns a Site rooted at it.
func NewSite(baseURL string) (*Site, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("%w: base url %q: %v", shared.ErrInvalidConfig, baseURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: base url %q must be absolute", shared.ErrInvalidConfig, baseURL)
	}
	return &Site{base: u}, nil
}

func (s *Site) join(segments ...string) string {
	u := *s.base
	u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.Join(segments, "/") + "/"
	return u.String()
}

// ProfileURL is the member's profile page.
func (s *Site) ProfileURL(handle string) string {
	return s.join(handle)
}

// ListURL is the first page of the member's list for category.
func (s *Site) ListURL(handle string, category models.Category) string {
	if category == models.Watchlist {
		return s.join(handle, "watchlist")
	}
	return s.join(handle, "films")
}

// FilmURL is the film's detail page.
func (s *Site) FilmURL(slug string) string {
	return s.join("film", slug)
}

// ParseHandle accepts a bare handle, "@handle", a profile path or a full profile URL
// and returns the lowercased member handle.
func ParseHandle(input string) (string, error) {
	raw := strings.TrimSpace(input)
	if raw == "" {
		return "", fmt.Errorf("%w: empty member handle", shared.ErrMissingArgument)
	}

	path := raw
	if strings.Contains(raw, "://") {
		u, err := url.Parse(raw)
		if err != nil {
			return "", fmt.Errorf("%w: %q is not a valid URL", shared.ErrInvalidArgument, raw)
		}
		path = u.Path
	}

	segments := strings.FieldsFunc(path, func(r rune) bool { return r == '/' })
	if len(segments) == 0 {
		return "", fmt.Errorf("%w: %q does not name a member", shared.ErrInvalidArgument, raw)
	}

	handle := strings.ToLower(strings.TrimPrefix(segments[0], "@"))
	if reservedPaths[handle] {
		return "", fmt.Errorf("%w: %q is a site page, not a member profile", shared.ErrInvalidArgument, raw)
	}
	if !handlePattern.MatchString(handle) {
		return "", fmt.Errorf("%w: %q is not a valid member handle", shared.ErrInvalidArgument, raw)
	}
	return handle, nil
}

// ParsePair parses both handles and rejects comparing a member with themself.
func ParsePair(a, b string) (string, string, error) {
	handleA, err := ParseHandle(a)
	if err != nil {
		return "", "", err
	}
	handleB, err := ParseHandle(b)
	if err != nil {
		return "", "", err
	}
	if handleA == handleB {
		return "", "", fmt.Errorf("%w: cannot compare %s with themself", shared.ErrInvalidArgument, handleA)
	}
	return handleA, handleB, nil
}
