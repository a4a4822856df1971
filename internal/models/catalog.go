package models

// SubOption is a selectable refinement of a category. Its ID is what listing calls receive.
type SubOption struct {
	ID   string `toml:"id" json:"id"`
	Name string `toml:"name" json:"name"`
}

// Category is a top-level browse category.
type Category struct {
	ID      string      `toml:"id" json:"id"`
	Name    string      `toml:"name" json:"name"`
	Options []SubOption `toml:"options" json:"options"`
}

// Taxonomy is the static category configuration, in display order.
type Taxonomy []Category

// Find returns the category with the given id.
func (t Taxonomy) Find(id string) (Category, bool) {
	for _, c := range t {
		if c.ID == id {
			return c, true
		}
	}
	return Category{}, false
}

// Resolve maps a category or sub-option id to the listing discriminator value.
//
// A category id resolves to its first sub-option; a sub-option id resolves to itself.
func (t Taxonomy) Resolve(id string) (string, bool) {
	for _, c := range t {
		if c.ID == id {
			if len(c.Options) == 0 {
				return c.ID, true
			}
			return c.Options[0].ID, true
		}
		for _, o := range c.Options {
			if o.ID == id {
				return o.ID, true
			}
		}
	}
	return "", false
}
