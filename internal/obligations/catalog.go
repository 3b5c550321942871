package obligations

import (
	"errors"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Catalog is safe for concurrent use. Readers get copies.
type Catalog struct {
	mu        sync.RWMutex
	entries   []Entry
	source    string
	updatedAt time.Time
}

func NewCatalog(entries []Entry, source string) (*Catalog, error) {
	c := &Catalog{}
	if err := c.Replace(entries, source); err != nil {
		return nil, err
	}
	return c, nil
}

// Default returns a catalog holding the built-in calendar.
func Default() *Catalog {
	c, err := NewCatalog(DefaultEntries(), "built-in")
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Catalog) Entries() []Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return cloneEntries(c.entries)
}

// ForMonth returns the entries due in month that pass f, ordered by due day.
func (c *Catalog) ForMonth(month int, f Filter) []Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []Entry
	for _, e := range c.entries {
		if e.AppliesTo(month) && f.Match(e) {
			out = append(out, cloneEntry(e))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DueDay < out[j].DueDay })
	return out
}

type MonthGroup struct {
	Month   int     `json:"month"`
	Entries []Entry `json:"obligations"`
}

// ByMonth groups the filtered catalog into the twelve calendar months.
func (c *Catalog) ByMonth(f Filter) []MonthGroup {
	groups := make([]MonthGroup, 0, 12)
	for m := 1; m <= 12; m++ {
		entries := c.ForMonth(m, f)
		if entries == nil {
			entries = []Entry{}
		}
		groups = append(groups, MonthGroup{Month: m, Entries: entries})
	}
	return groups
}

// Replace swaps the whole catalog after validating every entry.
func (c *Catalog) Replace(entries []Entry, source string) error {
	if len(entries) == 0 {
		return errors.New("catalog cannot be empty")
	}
	var errs []error
	for _, e := range entries {
		if err := e.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = cloneEntries(entries)
	c.source = source
	c.updatedAt = time.Now().UTC()
	return nil
}

// Merge adds entries whose title and due day are not yet present. Invalid
// entries are skipped. It returns how many were added.
func (c *Catalog) Merge(entries []Entry, source string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	seen := make(map[string]bool, len(c.entries))
	for _, e := range c.entries {
		seen[entryKey(e)] = true
	}
	added := 0
	for _, e := range entries {
		if e.Validate() != nil || seen[entryKey(e)] {
			continue
		}
		seen[entryKey(e)] = true
		c.entries = append(c.entries, cloneEntry(e))
		added++
	}
	if added > 0 {
		c.source = c.source + "+" + source
		c.updatedAt = time.Now().UTC()
	}
	return added
}

func (c *Catalog) Info() (source string, updatedAt time.Time, total int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.source, c.updatedAt, len(c.entries)
}

func entryKey(e Entry) string {
	return strings.ToLower(strings.TrimSpace(e.Title)) + "|" + strconv.Itoa(e.DueDay)
}

func cloneEntry(e Entry) Entry {
	e.CompanyTypes = append([]string(nil), e.CompanyTypes...)
	e.Months = append([]int(nil), e.Months...)
	return e
}

func cloneEntries(entries []Entry) []Entry {
	out := make([]Entry, len(entries))
	for i, e := range entries {
		out[i] = cloneEntry(e)
	}
	return out
}
