package core

import "strings"

// Category is static reference data. Color and Icon are opaque display tokens.
type Category struct {
	Name  string `json:"name"`
	Color string `json:"color"`
	Icon  string `json:"icon"`
}

// Categories is the ordered, de-duplicated set configured at startup.
type Categories []Category

// DefaultCategories returns the built-in category set.
func DefaultCategories() Categories {
	return Categories{
		{Name: "Food", Color: "#FF6B6B", Icon: "🍕"},
		{Name: "Transport", Color: "#4ECDC4", Icon: "🚗"},
		{Name: "Entertainment", Color: "#FFE66D", Icon: "🎮"},
		{Name: "Shopping", Color: "#95E1D3", Icon: "🛍️"},
		{Name: "Bills", Color: "#C7CEEA", Icon: "💳"},
		{Name: "Health", Color: "#FFDAB9", Icon: "⚕️"},
		{Name: "Education", Color: "#B4A7D6", Icon: "📚"},
		{Name: "Others", Color: "#A8DADC", Icon: "📦"},
	}
}

// NewCategories trims names, drops blanks and keeps the first occurrence of each name.
func NewCategories(in []Category) Categories {
	seen := map[string]struct{}{}
	out := make(Categories, 0, len(in))
	for _, c := range in {
		c.Name = strings.TrimSpace(c.Name)
		if c.Name == "" {
			continue
		}
		if _, ok := seen[c.Name]; ok {
			continue
		}
		seen[c.Name] = struct{}{}
		out = append(out, c)
	}
	return out
}

// Has reports whether name is configured. Matching is exact.
func (cs Categories) Has(name string) bool {
	_, ok := cs.Lookup(name)
	return ok
}

func (cs Categories) Lookup(name string) (Category, bool) {
	for _, c := range cs {
		if c.Name == name {
			return c, true
		}
	}
	return Category{}, false
}

func (cs Categories) Names() []string {
	names := make([]string, len(cs))
	for i, c := range cs {
		names[i] = c.Name
	}
	return names
}
