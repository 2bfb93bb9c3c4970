// Package catalog loads the static description of every persisted form
// module: storage location, debounce delay, and the item identifiers
// that derived fields count over.
package catalog

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hausee/navigator-backend/internal/platform/logger"
)

const catalogEnv = "FORMS_CATALOG_YAML"

//go:embed catalog.yaml
var catalogFS embed.FS

const (
	KindRating   = "rating"
	KindCurrency = "currency"
	KindDropdown = "dropdown"
	KindTextarea = "textarea"
)

type Catalog struct {
	Name    string  `yaml:"catalog"`
	Version int     `yaml:"version"`
	Modules []Entry `yaml:"modules"`
}

type Entry struct {
	ID          string  `yaml:"id"`
	Table       string  `yaml:"table"`
	CachePrefix string  `yaml:"cache_prefix"`
	DebounceMS  int     `yaml:"debounce_ms"`
	Subject     bool    `yaml:"subject"`
	Groups      []Group `yaml:"groups"`
}

type Group struct {
	ID    string `yaml:"id"`
	Name  string `yaml:"name"`
	Items []Item `yaml:"items"`
}

// Item is either a bare identifier (a rating item) or a mapping with
// id, kind and options.
type Item struct {
	ID      string   `yaml:"id"`
	Kind    string   `yaml:"kind"`
	Options []string `yaml:"options"`
}

func (it *Item) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		it.ID = strings.TrimSpace(node.Value)
		it.Kind = KindRating
		return nil
	}
	type plain Item
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*it = Item(p)
	if it.Kind == "" {
		it.Kind = KindRating
	}
	return nil
}

func (e Entry) Delay() time.Duration {
	return time.Duration(e.DebounceMS) * time.Millisecond
}

// ItemIDs lists every item across groups in catalog order.
func (e Entry) ItemIDs() []string {
	var out []string
	for _, g := range e.Groups {
		for _, it := range g.Items {
			out = append(out, it.ID)
		}
	}
	return out
}

// Item finds an item by group and item ID.
func (e Entry) Item(groupID, itemID string) (Item, bool) {
	for _, g := range e.Groups {
		if g.ID != groupID {
			continue
		}
		for _, it := range g.Items {
			if it.ID == itemID {
				return it, true
			}
		}
	}
	return Item{}, false
}

func (c *Catalog) Entry(id string) (Entry, bool) {
	for _, m := range c.Modules {
		if m.ID == id {
			return m, true
		}
	}
	return Entry{}, false
}

// MustEntry is Entry for IDs the binary depends on.
func (c *Catalog) MustEntry(id string) Entry {
	e, ok := c.Entry(id)
	if !ok {
		panic(fmt.Sprintf("catalog: module %q not defined", id))
	}
	return e
}

// Load reads the catalog named by FORMS_CATALOG_YAML, falling back to the
// embedded copy when the override is missing or invalid.
func Load(log *logger.Logger) (*Catalog, error) {
	if path := strings.TrimSpace(os.Getenv(catalogEnv)); path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			var c *Catalog
			if c, err = Parse(data); err == nil {
				return c, nil
			}
		}
		if log != nil {
			log.Warn("form catalog override rejected; using embedded catalog", "path", path, "error", err)
		}
	}
	return Embedded()
}

func Embedded() (*Catalog, error) {
	data, err := catalogFS.ReadFile("catalog.yaml")
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	if err := validate(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

func validate(c *Catalog) error {
	if strings.TrimSpace(c.Name) != "hausee_forms" {
		return fmt.Errorf("unexpected catalog: %q", c.Name)
	}
	if len(c.Modules) == 0 {
		return errors.New("no modules defined")
	}
	ids := map[string]bool{}
	tables := map[string]bool{}
	for _, m := range c.Modules {
		switch {
		case strings.TrimSpace(m.ID) == "":
			return errors.New("module id is required")
		case ids[m.ID]:
			return fmt.Errorf("duplicate module id: %s", m.ID)
		case strings.TrimSpace(m.Table) == "":
			return fmt.Errorf("module %s: table is required", m.ID)
		case tables[m.Table]:
			return fmt.Errorf("module %s: table %s already used", m.ID, m.Table)
		case strings.TrimSpace(m.CachePrefix) == "":
			return fmt.Errorf("module %s: cache_prefix is required", m.ID)
		case m.DebounceMS <= 0:
			return fmt.Errorf("module %s: debounce_ms must be positive", m.ID)
		}
		ids[m.ID] = true
		tables[m.Table] = true

		items := map[string]bool{}
		for _, g := range m.Groups {
			if strings.TrimSpace(g.ID) == "" {
				return fmt.Errorf("module %s: group id is required", m.ID)
			}
			for _, it := range g.Items {
				if it.ID == "" {
					return fmt.Errorf("module %s: empty item id in group %s", m.ID, g.ID)
				}
				if items[it.ID] {
					return fmt.Errorf("module %s: duplicate item %s", m.ID, it.ID)
				}
				items[it.ID] = true
				switch it.Kind {
				case KindRating, KindCurrency, KindTextarea:
				case KindDropdown:
					if len(it.Options) == 0 {
						return fmt.Errorf("module %s: dropdown %s has no options", m.ID, it.ID)
					}
				default:
					return fmt.Errorf("module %s: item %s has unknown kind %q", m.ID, it.ID, it.Kind)
				}
			}
		}
	}
	return nil
}
