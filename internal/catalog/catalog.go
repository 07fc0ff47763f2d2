// Package catalog is the injected category reference table used as filter
// vocabulary. Like the gazetteer, it is loaded once at startup and is
// immutable afterwards.
package catalog

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Subcategory is a second-level vocabulary node.
type Subcategory struct {
	ID   int64  `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`
}

// Category is a top-level vocabulary node.
type Category struct {
	ID            int64         `yaml:"id" json:"id"`
	Name          string        `yaml:"name" json:"name"`
	Subcategories []Subcategory `yaml:"subcategories,omitempty" json:"subcategories,omitempty"`
}

type file struct {
	Version    string     `yaml:"version"`
	Categories []Category `yaml:"categories"`
}

// Registry is the read-only category lookup.
type Registry struct {
	version string
	ordered []Category
	byID    map[int64]Category
}

// New builds a registry from an ordered category list.
func New(version string, categories []Category) (*Registry, error) {
	r := &Registry{
		version: version,
		ordered: categories,
		byID:    make(map[int64]Category, len(categories)),
	}
	for _, c := range categories {
		if c.ID <= 0 || c.Name == "" {
			return nil, fmt.Errorf("category %d: id and name are required", c.ID)
		}
		if _, dup := r.byID[c.ID]; dup {
			return nil, fmt.Errorf("duplicate category id %d", c.ID)
		}
		r.byID[c.ID] = c
	}
	return r, nil
}

// Load parses a YAML category reference file.
func Load(rd io.Reader) (*Registry, error) {
	data, err := io.ReadAll(rd)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if len(f.Categories) == 0 {
		return nil, fmt.Errorf("catalog holds no categories")
	}
	return New(f.Version, f.Categories)
}

// LoadFile loads the category reference table from a file path.
func LoadFile(path string) (*Registry, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open catalog %s: %w", path, err)
	}
	defer f.Close()
	return Load(f)
}

// Resolve looks up a category by id.
func (r *Registry) Resolve(id int64) (Category, bool) {
	c, ok := r.byID[id]
	return c, ok
}

// All returns the ordered category list.
func (r *Registry) All() []Category {
	out := make([]Category, len(r.ordered))
	copy(out, r.ordered)
	return out
}

// Version identifies the loaded vocabulary revision.
func (r *Registry) Version() string { return r.version }
