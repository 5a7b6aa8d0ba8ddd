package dispatch

import (
	"context"
	"fmt"

	"adminctl/internal/cmdutil"
)

// ExitOrdinal ends the menu loop in every catalog.
const ExitOrdinal = 0

type (
	Handler func(ctx context.Context, s *Session) error

	Action struct {
		Ordinal  int
		Label    string
		Category string
		Handler  Handler
		Exit     bool
	}

	// Catalog is the fixed, ordered set of actions a menu offers.
	Catalog struct {
		title   string
		actions []Action
		index   map[int]Action
	}
)

// NewCatalog numbers actions from 1 in the order given and appends the exit
// action as ordinal 0.
func NewCatalog(title string, actions ...Action) *Catalog {
	c := &Catalog{title: title, index: make(map[int]Action, len(actions)+1)}
	for i, next := range actions {
		next.Ordinal = i + 1
		c.actions = append(c.actions, next)
		c.index[next.Ordinal] = next
	}

	exit := Action{Ordinal: ExitOrdinal, Label: "Exit", Exit: true}
	c.actions = append(c.actions, exit)
	c.index[ExitOrdinal] = exit
	return c
}

func (c *Catalog) Title() string {
	return c.title
}

func (c *Catalog) Actions() []Action {
	return append([]Action(nil), c.actions...)
}

func (c *Catalog) Lookup(ordinal int) (Action, bool) {
	a, ok := c.index[ordinal]
	return a, ok
}

// Render prints the menu grouped by category, in first-seen order.
func (c *Catalog) Render(p *cmdutil.Printer) {
	p.Print("")
	p.Heading(fmt.Sprintf("===== %s =====", c.title))

	var (
		order  []string
		groups = map[string][]Action{}
		exit   Action
	)
	for _, next := range c.actions {
		if next.Exit {
			exit = next
			continue
		}
		if _, ok := groups[next.Category]; !ok {
			order = append(order, next.Category)
		}
		groups[next.Category] = append(groups[next.Category], next)
	}

	for _, category := range order {
		if category != "" {
			p.Print(category)
		}
		for _, next := range groups[category] {
			p.Printf("  %2d) %s", next.Ordinal, next.Label)
		}
	}
	p.Printf("  %2d) %s", exit.Ordinal, exit.Label)
}
