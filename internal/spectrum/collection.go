package spectrum

import "slices"

// Collection is a name-keyed registry of spectra that lists entries in
// insertion order. It is not safe for concurrent mutation.
type Collection struct {
	entries map[string]*Spectrum
	order   []string
}

func NewCollection() *Collection {
	return &Collection{entries: make(map[string]*Spectrum)}
}

// Add registers s under name, replacing any previous entry. A spectrum
// without a name takes the registration key as its name. A nil spectrum is
// ignored.
func (c *Collection) Add(name string, s *Spectrum) {
	if s == nil {
		return
	}
	if s.name == "" {
		s.name = name
	}
	if _, ok := c.entries[name]; !ok {
		c.order = append(c.order, name)
	}
	c.entries[name] = s
}

// Get returns the spectrum registered under name.
func (c *Collection) Get(name string) (*Spectrum, bool) {
	s, ok := c.entries[name]
	return s, ok
}

// Remove deletes the entry; absent names are ignored.
func (c *Collection) Remove(name string) {
	if _, ok := c.entries[name]; !ok {
		return
	}
	delete(c.entries, name)
	c.order = slices.DeleteFunc(c.order, func(n string) bool { return n == name })
}

// Names returns a snapshot of the registered names.
func (c *Collection) Names() []string {
	return slices.Clone(c.order)
}

func (c *Collection) Len() int {
	return len(c.entries)
}
