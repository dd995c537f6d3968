package domain

import "strings"

// CategorySet maps lowercase category inputs to their canonical
// display value. The set is fixed at construction time.
type CategorySet map[string]string

// DefaultCategories returns the category table used by the service.
func DefaultCategories() CategorySet {
	return CategorySet{
		"groceries":   "Groceries",
		"leisure":     "Leisure",
		"electronics": "Electronics",
		"utilities":   "Utilities",
		"clothing":    "Clothing",
		"health":      "Health",
		"others":      "Others",
	}
}

// Canonical resolves an input to its canonical category. Lookup is
// case-insensitive; ok is false when the category is unknown.
func (c CategorySet) Canonical(input string) (string, bool) {
	v, ok := c[strings.ToLower(strings.TrimSpace(input))]
	return v, ok
}

// Names lists the canonical categories, for error messages.
func (c CategorySet) Names() []string {
	names := make([]string, 0, len(c))
	for _, v := range c {
		names = append(names, v)
	}
	return names
}
