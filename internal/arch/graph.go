package arch

// transitionKey identifies one edge in the archetype graph: moving from a
// given archetype by adding or removing a given component type.
type transitionKey struct {
	from     ArchetypeId
	typeId   ComponentId
	isInsert bool
}

// Graph caches the archetype reached by adding or removing one component
// type from another archetype, so that add_component/remove_component do
// not need to re-hash and re-look-up the component id list on every
// structural edit. It is a pure cache: dropping it (or never populating
// an entry) never changes behavior, only its cost.
type Graph struct {
	edges map[transitionKey]ArchetypeId
}

func (g *Graph) lookup(from ArchetypeId, ty *ComponentType, isInsert bool) (ArchetypeId, bool) {
	if g.edges == nil {
		return 0, false
	}

	id, ok := g.edges[transitionKey{from, ty.Id, isInsert}]
	return id, ok
}

func (g *Graph) remember(from ArchetypeId, ty *ComponentType, isInsert bool, to ArchetypeId) {
	if g.edges == nil {
		g.edges = map[transitionKey]ArchetypeId{}
	}

	g.edges[transitionKey{from, ty.Id, isInsert}] = to
}
