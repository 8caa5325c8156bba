// Package catalog serves the static organization dataset.
//
// The dataset is read once at startup and never changes while the process
// runs, so a Catalog is safe for concurrent use without locking.
package catalog

import (
	"cmp"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/dalemusser/clubreviews/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
)

//go:embed data/organizations.json
var embedded []byte

// AllCategory is the facet meaning "no category filter".
const AllCategory = "All"

// DefaultFacetCount is how many categories Categories returns by default.
const DefaultFacetCount = 10

// FeaturedCount is how many organizations Featured returns.
const FeaturedCount = 3

// Catalog is an immutable, indexed organization list.
type Catalog struct {
	orgs []models.Organization
	byID map[string]int
	// folded name and short name per org, for search
	keys []string
}

// Load reads the dataset at path, or the bundled dataset when path is empty.
func Load(path string) (*Catalog, error) {
	b := embedded
	if path != "" {
		var err error
		b, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read catalog: %w", err)
		}
	}
	var orgs []models.Organization
	if err := json.Unmarshal(b, &orgs); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	return New(orgs)
}

// New indexes orgs. Duplicate or empty ids are rejected.
func New(orgs []models.Organization) (*Catalog, error) {
	c := &Catalog{
		orgs: make([]models.Organization, len(orgs)),
		byID: make(map[string]int, len(orgs)),
		keys: make([]string, len(orgs)),
	}
	for i, o := range orgs {
		if o.ID == "" {
			return nil, fmt.Errorf("organization %q has no id", o.Name)
		}
		if _, dup := c.byID[o.ID]; dup {
			return nil, fmt.Errorf("duplicate organization id %q", o.ID)
		}
		tags := make([]string, 0, len(o.CategoryNames))
		for _, t := range o.CategoryNames {
			if t = strings.TrimSpace(t); t != "" {
				tags = append(tags, t)
			}
		}
		o.CategoryNames = tags
		c.orgs[i] = o
		c.byID[o.ID] = i
		c.keys[i] = text.Fold(o.Name) + "\x00" + text.Fold(o.ShortName)
	}
	return c, nil
}

// All returns every organization in dataset order. The slice is a copy.
func (c *Catalog) All() []models.Organization {
	return slices.Clone(c.orgs)
}

// Len returns the number of organizations.
func (c *Catalog) Len() int { return len(c.orgs) }

// ByID looks up an organization by its string id.
func (c *Catalog) ByID(id string) (models.Organization, bool) {
	i, ok := c.byID[strings.TrimSpace(id)]
	if !ok {
		return models.Organization{}, false
	}
	return c.orgs[i], true
}

// Categories returns AllCategory followed by the n most common category
// tags, most common first, ties by name.
func (c *Catalog) Categories(n int) []string {
	counts := map[string]int{}
	for _, o := range c.orgs {
		for _, t := range o.CategoryNames {
			counts[t]++
		}
	}
	tags := make([]string, 0, len(counts))
	for t := range counts {
		tags = append(tags, t)
	}
	slices.SortFunc(tags, func(a, b string) int {
		if d := cmp.Compare(counts[b], counts[a]); d != 0 {
			return d
		}
		return strings.Compare(a, b)
	})
	if n >= 0 && len(tags) > n {
		tags = tags[:n]
	}
	return append([]string{AllCategory}, tags...)
}

// Filter returns organizations tagged with category (AllCategory or "" for
// any) whose name or short name contains q, ignoring case and accents.
func (c *Catalog) Filter(category, q string) []models.Organization {
	category = strings.TrimSpace(category)
	needle := text.Fold(strings.TrimSpace(q))
	out := make([]models.Organization, 0, len(c.orgs))
	for i, o := range c.orgs {
		if category != "" && category != AllCategory && !slices.Contains(o.CategoryNames, category) {
			continue
		}
		if needle != "" && !strings.Contains(c.keys[i], needle) {
			continue
		}
		out = append(out, o)
	}
	return out
}
