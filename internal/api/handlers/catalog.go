package handlers

import (
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	domain "github.com/donaldgifford/constructorio-go/pkg/types"
)

// CatalogFile is the fixture file name looked up in a fixtures directory.
const CatalogFile = "catalog.json"

//go:embed fixtures/catalog.json
var fixtures embed.FS

// Product is one catalog item served by the mock.
type Product struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Description string              `json:"description"`
	URL         string              `json:"url"`
	ImageURL    string              `json:"image_url"`
	GroupID     string              `json:"group_id"`
	Price       float64             `json:"price"`
	Facets      map[string][]string `json:"facets"`
}

// Group is a browse category.
type Group struct {
	GroupID     string `json:"group_id"`
	DisplayName string `json:"display_name"`
}

// Pod is a recommendations slot and the strategy it reports.
type Pod struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Strategy    string `json:"strategy"`
}

// RedirectRule sends an exact search term to a landing page.
type RedirectRule struct {
	Term   string `json:"term"`
	URL    string `json:"url"`
	RuleID int    `json:"rule_id"`
}

// Catalog is the data set every content endpoint answers from.
type Catalog struct {
	Suggestions []string       `json:"suggestions"`
	Groups      []Group        `json:"groups"`
	Pods        []Pod          `json:"pods"`
	Redirects   []RedirectRule `json:"redirects"`
	Products    []Product      `json:"products"`
}

// DefaultCatalog returns the embedded grocery catalog.
func DefaultCatalog() (*Catalog, error) {
	data, err := fixtures.ReadFile("fixtures/" + CatalogFile)
	if err != nil {
		return nil, fmt.Errorf("reading embedded catalog: %w", err)
	}
	return ParseCatalog(data)
}

// LoadCatalog reads catalog.json from dir. An empty dir yields the
// embedded catalog.
func LoadCatalog(dir string) (*Catalog, error) {
	if dir == "" {
		return DefaultCatalog()
	}
	path := filepath.Join(dir, CatalogFile)
	data, err := os.ReadFile(path) //nolint:gosec // fixtures dir comes from operator config
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes and checks a catalog document.
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}
	seen := make(map[string]struct{}, len(c.Products))
	for _, p := range c.Products {
		if p.ID == "" {
			return nil, fmt.Errorf("catalog product %q has no id", p.Name)
		}
		if _, dup := seen[p.ID]; dup {
			return nil, fmt.Errorf("catalog product id %q is duplicated", p.ID)
		}
		seen[p.ID] = struct{}{}
	}
	return &c, nil
}

// Group returns the group with the given ID.
func (c *Catalog) Group(id string) (Group, bool) {
	i := slices.IndexFunc(c.Groups, func(g Group) bool { return g.GroupID == id })
	if i < 0 {
		return Group{}, false
	}
	return c.Groups[i], true
}

// Pod returns the pod with the given ID.
func (c *Catalog) Pod(id string) (Pod, bool) {
	i := slices.IndexFunc(c.Pods, func(p Pod) bool { return p.ID == id })
	if i < 0 {
		return Pod{}, false
	}
	return c.Pods[i], true
}

// Redirect returns the redirect for term, matched case-insensitively.
func (c *Catalog) Redirect(term string) *domain.Redirect {
	for _, r := range c.Redirects {
		if !strings.EqualFold(r.Term, strings.TrimSpace(term)) {
			continue
		}
		id := r.RuleID
		return &domain.Redirect{
			Data:         domain.RedirectData{URL: r.URL, RuleID: &id},
			MatchedTerms: []string{r.Term},
		}
	}
	return nil
}

// Search returns the products whose name, description or facet values
// contain every word of term, in catalog order.
func (c *Catalog) Search(term string) []Product {
	words := strings.Fields(strings.ToLower(term))
	var out []Product
	for _, p := range c.Products {
		text := p.searchText()
		if !slices.ContainsFunc(words, func(w string) bool { return !strings.Contains(text, w) }) {
			out = append(out, p)
		}
	}
	return out
}

// SuggestionsFor returns the suggestions containing term.
func (c *Catalog) SuggestionsFor(term string) []string {
	needle := strings.ToLower(strings.TrimSpace(term))
	var out []string
	for _, s := range c.Suggestions {
		if strings.Contains(strings.ToLower(s), needle) {
			out = append(out, s)
		}
	}
	return out
}

func (p Product) searchText() string {
	parts := []string{p.Name, p.Description}
	for _, values := range p.Facets {
		parts = append(parts, values...)
	}
	return strings.ToLower(strings.Join(parts, " "))
}

// Result renders the product the way result lists carry it.
func (c *Catalog) Result(p Product) domain.Result {
	data := domain.ResultData{
		ID:          p.ID,
		URL:         p.URL,
		ImageURL:    p.ImageURL,
		Description: p.Description,
		Metadata:    map[string]any{"price": p.Price},
	}
	if g, ok := c.Group(p.GroupID); ok {
		data.Groups = []domain.ResultGroup{{GroupID: g.GroupID, DisplayName: g.DisplayName, Path: "/" + g.GroupID}}
	}
	for _, name := range sortedKeys(p.Facets) {
		values := make([]any, 0, len(p.Facets[name]))
		for _, v := range p.Facets[name] {
			values = append(values, v)
		}
		data.Facets = append(data.Facets, domain.ResultFacet{Name: name, Values: values})
	}
	return domain.Result{Value: p.Name, Data: data}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
