package catalog

// Catalog maps category names to definitions. It is immutable after Parse
// and safe for concurrent reads without locking.
type Catalog struct {
	source string
	order  []string
	byName map[string]Category
}

// Source returns the name of the source the catalog was loaded from.
func (c *Catalog) Source() string {
	return c.source
}

// Get returns a category by exact name.
// Returns false if not found.
func (c *Catalog) Get(name string) (Category, bool) {
	def, ok := c.byName[name]
	if !ok {
		return Category{}, false
	}
	return def.clone(), true
}

// Names returns category names in source declaration order.
func (c *Catalog) Names() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Categories returns every category in source declaration order.
func (c *Catalog) Categories() []Category {
	out := make([]Category, len(c.order))
	for i, name := range c.order {
		out[i] = c.byName[name].clone()
	}
	return out
}

// Len returns the number of categories.
func (c *Catalog) Len() int {
	return len(c.order)
}
