package models

import (
	"bytes"
	"encoding/json"
)

// Grouping maps entity names to their transaction lines. Entity order is the
// order in which each name was first seen; line order within an entity is
// document order. A Grouping is not safe for concurrent mutation.
type Grouping struct {
	order []string
	lines map[string][]string
}

// NewGrouping returns an empty Grouping.
func NewGrouping() *Grouping {
	return &Grouping{lines: make(map[string][]string)}
}

// Ensure registers name as an entity, keeping its existing lines if present.
func (g *Grouping) Ensure(name string) {
	if _, ok := g.lines[name]; ok {
		return
	}
	g.order = append(g.order, name)
	g.lines[name] = []string{}
}

// Append adds a transaction line to name, registering the entity if needed.
func (g *Grouping) Append(name, line string) {
	g.Ensure(name)
	g.lines[name] = append(g.lines[name], line)
}

// Names returns entity names in iteration order.
func (g *Grouping) Names() []string {
	return append([]string(nil), g.order...)
}

// Lines returns the transaction lines for name, or nil if it is unknown.
func (g *Grouping) Lines(name string) []string {
	l, ok := g.lines[name]
	if !ok {
		return nil
	}
	return append([]string{}, l...)
}

// Has reports whether name is a known entity.
func (g *Grouping) Has(name string) bool {
	_, ok := g.lines[name]
	return ok
}

// Len returns the number of entities.
func (g *Grouping) Len() int {
	return len(g.order)
}

// TransactionCount returns the total number of transaction lines.
func (g *Grouping) TransactionCount() int {
	n := 0
	for _, l := range g.lines {
		n += len(l)
	}
	return n
}

// Each calls fn for every entity in iteration order.
func (g *Grouping) Each(fn func(name string, lines []string)) {
	for _, name := range g.order {
		fn(name, g.lines[name])
	}
}

// Merge appends other's entities and lines after g's own. Entities already
// present in g keep their position and receive other's lines at the end.
func (g *Grouping) Merge(other *Grouping) {
	if other == nil {
		return
	}
	other.Each(func(name string, lines []string) {
		g.Ensure(name)
		g.lines[name] = append(g.lines[name], lines...)
	})
}

// Entity is one entry of a Grouping in serialized form.
type Entity struct {
	Name         string   `json:"name"`
	Transactions []string `json:"transactions"`
}

// Entities returns the grouping as an ordered slice.
func (g *Grouping) Entities() []Entity {
	out := make([]Entity, 0, len(g.order))
	g.Each(func(name string, lines []string) {
		out = append(out, Entity{Name: name, Transactions: append([]string{}, lines...)})
	})
	return out
}

// MarshalJSON encodes the grouping as an ordered array of entities.
func (g *Grouping) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(g.Entities()); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// UnmarshalJSON decodes the ordered array form produced by MarshalJSON.
func (g *Grouping) UnmarshalJSON(data []byte) error {
	var entities []Entity
	if err := json.Unmarshal(data, &entities); err != nil {
		return err
	}
	*g = *NewGrouping()
	for _, e := range entities {
		g.Ensure(e.Name)
		for _, l := range e.Transactions {
			g.Append(e.Name, l)
		}
	}
	return nil
}
