package silo

// QueryCache memoizes the matched-archetype list for a named query,
// invalidating automatically when StructuralVersion advances.
type QueryCache struct {
	world      *WorldState
	archetypes *ArchetypeStore

	entries map[string]*queryCacheEntry
}

type queryCacheEntry struct {
	filter  QueryNode
	asOf    uint64
	matched []*Archetype
}

// NewQueryCache builds an empty cache bound to world and archetypes.
func NewQueryCache(world *WorldState, archetypes *ArchetypeStore) *QueryCache {
	return &QueryCache{
		world:      world,
		archetypes: archetypes,
		entries:    make(map[string]*queryCacheEntry),
	}
}

// Register associates key with filter. Registering the same key twice
// replaces the filter and forces a rebuild on next use.
func (c *QueryCache) Register(key string, filter QueryNode) {
	c.entries[key] = &queryCacheEntry{filter: filter}
}

// Matched returns the archetypes matching key's filter, rebuilding the
// list only if StructuralVersion has advanced since the last build.
func (c *QueryCache) Matched(key string) ([]*Archetype, error) {
	entry, ok := c.entries[key]
	if !ok {
		return nil, newErr(KindArchetypeNotFound, "no query registered under key %q", key)
	}
	if entry.matched != nil && entry.asOf == c.world.StructuralVersion {
		return entry.matched, nil
	}
	matched := entry.matched[:0]
	for archetype := range c.archetypes.EnumerateArchetypesStable() {
		if entry.filter == nil || entry.filter.Evaluate(archetype) {
			matched = append(matched, archetype)
		}
	}
	if matched == nil {
		// A non-nil empty list marks the entry as built.
		matched = []*Archetype{}
	}
	entry.matched = matched
	entry.asOf = c.world.StructuralVersion
	return entry.matched, nil
}

// Cursor returns a fresh Cursor built directly from key's filter (not from
// the cached archetype list, which Entities() would otherwise have to
// re-walk defensively on every structural change anyway).
func (c *QueryCache) Cursor(key string) (*Cursor, error) {
	entry, ok := c.entries[key]
	if !ok {
		return nil, newErr(KindArchetypeNotFound, "no query registered under key %q", key)
	}
	return NewCursor(c.world, c.archetypes, entry.filter), nil
}
