package style

// Store exposes style retrieval for HTTP handlers and the generator.
type Store interface {
	List() []Style
	FindByID(id string) (Style, bool)
}

// MemoryStore implements Store with an in-memory slice, suitable for the
// fixed preset list.
type MemoryStore struct {
	items []Style
}

// NewMemoryStore returns a MemoryStore preloaded with the supplied styles.
func NewMemoryStore(items []Style) *MemoryStore {
	return &MemoryStore{items: append([]Style(nil), items...)}
}

// List returns the predefined style list.
func (s *MemoryStore) List() []Style {
	return append([]Style(nil), s.items...)
}

// FindByID looks up a style by identifier.
func (s *MemoryStore) FindByID(id string) (Style, bool) {
	for _, item := range s.items {
		if item.ID == id {
			return item, true
		}
	}
	return Style{}, false
}
