package models

import "fmt"

// Category identifies which member list a [Record] was harvested from.
type Category int

const (
	// Watchlist is the secondary category: films a member has queued.
	Watchlist Category = iota
	// Watched is the primary category: films a member has logged. It wins on key collision.
	Watched
)

func (c Category) String() string {
	switch c {
	case Watched:
		return "watched"
	case Watchlist:
		return "watchlist"
	default:
		return ""
	}
}

// ParseCategory is the inverse of [Category.String].
func ParseCategory(s string) (Category, error) {
	switch s {
	case "watched":
		return Watched, nil
	case "watchlist":
		return Watchlist, nil
	default:
		return 0, fmt.Errorf("unknown category %q", s)
	}
}

// MarshalText encodes the category by name so JSON output reads "watched" rather than 1.
func (c Category) MarshalText() ([]byte, error) {
	s := c.String()
	if s == "" {
		return nil, fmt.Errorf("invalid category %d", int(c))
	}
	return []byte(s), nil
}

// UnmarshalText decodes a category name.
func (c *Category) UnmarshalText(b []byte) error {
	parsed, err := ParseCategory(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Record is one film on a member's list.
//
// Key is the film slug and is never empty. Rating is on a 0-5 half-step scale; nil means unrated.
// An empty ImageRef means presentation should fall back to the placeholder poster.
type Record struct {
	Key      string   `json:"key"`
	Title    string   `json:"title"`
	ImageRef string   `json:"image_ref"`
	Rating   *float64 `json:"rating"`
	Category Category `json:"category"`
}

// Rated reports whether the member gave the film a star rating.
func (r Record) Rated() bool {
	return r.Rating != nil
}

// Identity describes one compared member.
type Identity struct {
	Handle      string `json:"handle"`
	DisplayName string `json:"display_name"`
	AvatarRef   string `json:"avatar_ref"`
}

// FallbackIdentity is the identity used when a member's profile could not be read.
func FallbackIdentity(handle string) Identity {
	return Identity{Handle: handle, DisplayName: handle}
}

// RatingOf returns a pointer to v, for building rated records.
func RatingOf(v float64) *float64 {
	return &v
}
