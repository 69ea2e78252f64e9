package persona

// Store exposes persona retrieval for HTTP handlers.
type Store interface {
	List() []Profile
	FindByID(id string) (Persona, bool)
}

// Catalog implements Store over the fixed persona set.
type Catalog struct {
	items []Persona
}

// NewCatalog returns a Catalog with every declared persona.
func NewCatalog() *Catalog {
	return &Catalog{items: All()}
}

// List returns the persona profiles in selector order.
func (c *Catalog) List() []Profile {
	profiles := make([]Profile, 0, len(c.items))
	for _, item := range c.items {
		profiles = append(profiles, item.Profile())
	}
	return profiles
}

// FindByID looks up a persona by identifier or display name.
func (c *Catalog) FindByID(id string) (Persona, bool) {
	p, err := Parse(id)
	if err != nil {
		return 0, false
	}
	return p, true
}
