// Package language maps symbolic language names to the judge's numeric
// language ids.
package language

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Unknown is the label NameFor returns for ids the registry does not map.
const Unknown = "Unknown"

type Language struct {
	Name    string `toml:"name" json:"name"`       // symbolic, e.g. "PYTHON"
	ID      int    `toml:"id" json:"id"`           // judge language_id
	Display string `toml:"display" json:"display"` // e.g. "Python"
}

// Registry is read-only once built and safe for concurrent use.
type Registry struct {
	byName map[string]Language
	byID   map[int]Language
}

// Default returns the built-in language table.
func Default() *Registry {
	r, err := New([]Language{
		{Name: "PYTHON", ID: 71, Display: "Python"},
		{Name: "JAVA", ID: 62, Display: "Java"},
		{Name: "JAVASCRIPT", ID: 63, Display: "JavaScript"},
		{Name: "CPP", ID: 54, Display: "C++"},
	})
	if err != nil {
		panic(err)
	}
	return r
}

func New(langs []Language) (*Registry, error) {
	if len(langs) == 0 {
		return nil, fmt.Errorf("language registry: no languages")
	}
	r := &Registry{
		byName: make(map[string]Language, len(langs)),
		byID:   make(map[int]Language, len(langs)),
	}
	for _, l := range langs {
		key := strings.ToUpper(strings.TrimSpace(l.Name))
		if key == "" || l.ID <= 0 {
			return nil, fmt.Errorf("language registry: invalid entry %+v", l)
		}
		if _, dup := r.byName[key]; dup {
			return nil, fmt.Errorf("language registry: duplicate name %q", l.Name)
		}
		if _, dup := r.byID[l.ID]; dup {
			return nil, fmt.Errorf("language registry: duplicate id %d", l.ID)
		}
		l.Name = key
		if l.Display == "" {
			l.Display = key
		}
		r.byName[key] = l
		r.byID[l.ID] = l
	}
	return r, nil
}

type tomlFile struct {
	Language []Language `toml:"language"`
}

// LoadTOML builds a registry from a file of [[language]] tables.
func LoadTOML(rd io.Reader) (*Registry, error) {
	var f tomlFile
	if err := toml.NewDecoder(rd).Decode(&f); err != nil {
		return nil, fmt.Errorf("language registry: decode toml: %w", err)
	}
	return New(f.Language)
}

// IDFor resolves a name case-insensitively. Callers must reject the request
// when ok is false rather than pick a default.
func (r *Registry) IDFor(name string) (id int, ok bool) {
	l, ok := r.byName[strings.ToUpper(strings.TrimSpace(name))]
	return l.ID, ok
}

// NameFor returns the display name for id, or Unknown. Use it for labels only.
func (r *Registry) NameFor(id int) string {
	if l, ok := r.byID[id]; ok {
		return l.Display
	}
	return Unknown
}

// List returns the languages ordered by name.
func (r *Registry) List() []Language {
	out := make([]Language, 0, len(r.byName))
	for _, l := range r.byName {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
