package treemenu

import (
	"fmt"
	"os"
	"strings"

	"sigs.k8s.io/yaml"
)

// Menu is a declarative menu definition, usually written in YAML:
//
//	items:
//	  - subject: page:home
//	    url: /
//	    title: Home
//	    children:
//	      - subject: page:about
//	        url: /about
//	        title: About
//
// Each top-level item becomes the root of its own tree. Load a definition
// into PostgreSQL with Migrator.Load (or `treemenu load`), or serve it
// directly with NewMemStoreFromMenu.
//
// URL and Title are optional in SQL deployments: there the menu_subjects
// view is the source of truth for display attributes and the definition only
// establishes structure. The in-memory store has no view and uses the YAML
// values as given.
type Menu struct {
	Items []Item `json:"items"`
}

// Item is one entry of a menu definition. Subject is the "type:id"
// reference to the application entity this entry represents.
type Item struct {
	Subject  string `json:"subject"`
	URL      string `json:"url,omitempty"`
	Title    string `json:"title,omitempty"`
	Children []Item `json:"children,omitempty"`
}

// ParseMenu parses a YAML menu definition.
func ParseMenu(data []byte) (*Menu, error) {
	var menu Menu
	if err := yaml.Unmarshal(data, &menu); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMenu, err)
	}
	return &menu, nil
}

// ParseMenuFile reads and parses a YAML menu definition from path.
func ParseMenuFile(path string) (*Menu, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading menu file: %w", err)
	}
	menu, err := ParseMenu(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return menu, nil
}

// ParseSubjectRef parses a "type:id" subject reference. The id may itself
// contain colons; only the first one separates type from id.
func ParseSubjectRef(ref string) (Subject, error) {
	typ, id, ok := strings.Cut(ref, ":")
	if !ok || typ == "" || id == "" {
		return Subject{}, fmt.Errorf("%w: subject reference %q is not of the form \"type:id\"", ErrInvalidMenu, ref)
	}
	return Subject{Type: SubjectType(typ), ID: id}, nil
}

// Validate checks the menu definition for problems that would corrupt the
// node table: malformed subject references, the same subject appearing more
// than once, and nesting deeper than MaxDepth. All errors wrap
// ErrInvalidMenu and name the offending item.
func (m *Menu) Validate() error {
	if len(m.Items) == 0 {
		return fmt.Errorf("%w: menu has no items", ErrInvalidMenu)
	}
	seen := make(map[Subject]bool)
	for i := range m.Items {
		if err := validateItem(&m.Items[i], 0, seen); err != nil {
			return err
		}
	}
	return nil
}

func validateItem(item *Item, depth int, seen map[Subject]bool) error {
	if depth > MaxDepth {
		return fmt.Errorf("%w: item %q nested deeper than %d levels", ErrInvalidMenu, item.Subject, MaxDepth)
	}
	subject, err := ParseSubjectRef(item.Subject)
	if err != nil {
		return err
	}
	if seen[subject] {
		return fmt.Errorf("%w: subject %s appears more than once", ErrInvalidMenu, subject)
	}
	seen[subject] = true

	for i := range item.Children {
		if err := validateItem(&item.Children[i], depth+1, seen); err != nil {
			return err
		}
	}
	return nil
}

// BuildNodes validates the definition and converts it into node rows. Ids
// are assigned sequentially in depth-first order; each top-level item
// becomes tree 1, 2, ... with its own nested-set numbering starting at
// lft=1. The result is in canonical (TreeID, Left) order, ready for
// NewMemStore or a Migrator bulk load.
func (m *Menu) BuildNodes() ([]Node, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}

	b := &nodeBuilder{}
	for i := range m.Items {
		b.tree++
		b.pos = 0
		b.walk(&m.Items[i], nil, 0)
	}
	return b.nodes, nil
}

// nodeBuilder assigns ids and nested-set numbers during a DFS over the
// definition. pos is the per-tree lft/rght counter.
type nodeBuilder struct {
	nodes  []Node
	nextID int64
	tree   int64
	pos    int
}

func (b *nodeBuilder) walk(item *Item, parentID *int64, depth int) {
	b.nextID++
	b.pos++

	id := b.nextID
	subject, _ := ParseSubjectRef(item.Subject) // validated above

	idx := len(b.nodes)
	b.nodes = append(b.nodes, Node{
		ID:       id,
		TreeID:   b.tree,
		ParentID: parentID,
		Depth:    depth,
		Left:     b.pos,
		Subject:  subject,
		URL:      item.URL,
		Title:    item.Title,
	})

	for i := range item.Children {
		b.walk(&item.Children[i], &id, depth+1)
	}

	b.pos++
	b.nodes[idx].Right = b.pos
}

// CountItems returns the total number of items in the definition,
// including nested children.
func (m *Menu) CountItems() int {
	n := 0
	var count func(items []Item)
	count = func(items []Item) {
		n += len(items)
		for i := range items {
			count(items[i].Children)
		}
	}
	count(m.Items)
	return n
}
