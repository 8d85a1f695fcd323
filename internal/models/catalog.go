package models

import "time"

// Catalog is one member's deduplicated set of records keyed by film slug.
//
// Keys remembers first insertion order; replacing a record keeps its original position.
type Catalog struct {
	records map[string]Record
	keys    []string
}

// NewCatalog returns an empty catalog sized for n records.
func NewCatalog(n int) *Catalog {
	return &Catalog{records: make(map[string]Record, n), keys: make([]string, 0, n)}
}

// Put inserts or replaces the record stored under r.Key.
func (c *Catalog) Put(r Record) {
	if _, ok := c.records[r.Key]; !ok {
		c.keys = append(c.keys, r.Key)
	}
	c.records[r.Key] = r
}

// Get returns the record stored under key.
func (c *Catalog) Get(key string) (Record, bool) {
	r, ok := c.records[key]
	return r, ok
}

// Has reports whether key is present.
func (c *Catalog) Has(key string) bool {
	_, ok := c.records[key]
	return ok
}

// Len returns the number of distinct keys.
func (c *Catalog) Len() int {
	return len(c.keys)
}

// Keys returns a copy of the keys in first insertion order.
func (c *Catalog) Keys() []string {
	return append([]string(nil), c.keys...)
}

// Records returns the records in first insertion order.
func (c *Catalog) Records() []Record {
	out := make([]Record, 0, len(c.keys))
	for _, k := range c.keys {
		out = append(out, c.records[k])
	}
	return out
}

// PairedRecord is a film both members have, with each member's own record.
type PairedRecord struct {
	Key    string `json:"key"`
	OwnerA Record `json:"owner_a"`
	OwnerB Record `json:"owner_b"`
}

// Title prefers owner A's title and falls back to owner B's.
func (p PairedRecord) Title() string {
	if p.OwnerA.Title != "" {
		return p.OwnerA.Title
	}
	return p.OwnerB.Title
}

// ImageRef returns the first non-empty poster reference of the two records.
func (p PairedRecord) ImageRef() string {
	if p.OwnerA.ImageRef != "" {
		return p.OwnerA.ImageRef
	}
	return p.OwnerB.ImageRef
}

// ComparisonResult is what one comparison hands to presentation.
type ComparisonResult struct {
	IdentityA Identity       `json:"identity_a"`
	IdentityB Identity       `json:"identity_b"`
	Pairs     []PairedRecord `json:"pairs"`
}

// SavedComparison is a [ComparisonResult] archived in the export database.
//
// PairCount is always set; Pairs is only loaded when a single comparison is fetched.
type SavedComparison struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	PairCount int       `json:"pair_count"`
	ComparisonResult
}

// Page is the raw content of one fetched page.
type Page struct {
	URL  string // final URL after redirects, used to resolve relative links
	Body []byte
}
