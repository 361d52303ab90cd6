package silo

import (
	"fmt"
	"iter"

	"github.com/TheBitDrifter/bark"
	"github.com/TheBitDrifter/mask"
)

// QueryOperation identifies the boolean combinator a query node applies to
// its component set and children.
type QueryOperation int

const (
	OpAnd QueryOperation = iota
	OpOr
	OpNot
)

// QueryNode is one node of a query tree, evaluable against a single
// archetype's membership set.
type QueryNode interface {
	Evaluate(archetype *Archetype) bool
}

// Query is a composable filter built from And/Or/Not combinators over
// component type ids and nested QueryNodes.
type Query interface {
	QueryNode
	And(items ...any) QueryNode
	Or(items ...any) QueryNode
	Not(items ...any) QueryNode
}

type compositeNode struct {
	op       QueryOperation
	children []QueryNode
	types    []ComponentTypeId
}

type leafNode struct {
	types []ComponentTypeId
}

type query struct {
	root QueryNode
}

// NewQuery creates an empty, composable query.
func NewQuery() Query { return &query{} }

func maskOf(types []ComponentTypeId) mask.Mask {
	var m mask.Mask
	for _, t := range types {
		m.Mark(uint32(t))
	}
	return m
}

func newCompositeNode(op QueryOperation, types []ComponentTypeId) *compositeNode {
	return &compositeNode{op: op, types: types}
}

func (n *compositeNode) Evaluate(archetype *Archetype) bool {
	nodeMask := maskOf(n.types)
	archeMask := archetype.membership
	switch n.op {
	case OpAnd:
		if !archeMask.ContainsAll(nodeMask) {
			return false
		}
		for _, child := range n.children {
			if !child.Evaluate(archetype) {
				return false
			}
		}
		return true
	case OpOr:
		if archeMask.ContainsAny(nodeMask) {
			return true
		}
		for _, child := range n.children {
			if child.Evaluate(archetype) {
				return true
			}
		}
		return false
	case OpNot:
		if len(n.children) == 0 {
			return archeMask.ContainsNone(nodeMask)
		}
		if len(n.types) > 0 && !archeMask.ContainsNone(nodeMask) {
			return false
		}
		for _, child := range n.children {
			if child.Evaluate(archetype) {
				return false
			}
		}
		return true
	}
	return false
}

func (n *leafNode) Evaluate(archetype *Archetype) bool {
	return archetype.membership.ContainsAll(maskOf(n.types))
}

// validateQueryItems checks if all items are of valid types for queries
func (q *query) validateQueryItems(items ...any) error {
	for _, item := range items {
		switch item.(type) {
		case ComponentTypeId, []ComponentTypeId, QueryNode:
			continue
		default:
			return fmt.Errorf("invalid query item type: %T. Only ComponentTypeId, []ComponentTypeId, or QueryNode are allowed", item)
		}
	}
	return nil
}

// processItems splits a variadic item list (per And/Or/Not) into the bare
// component type ids and the nested query nodes it carries.
func (q *query) processItems(items ...any) ([]ComponentTypeId, []QueryNode) {
	if err := q.validateQueryItems(items...); err != nil {
		panic(bark.AddTrace(err))
	}
	types := make([]ComponentTypeId, 0, len(items))
	children := make([]QueryNode, 0)
	for _, item := range items {
		switch v := item.(type) {
		case ComponentTypeId:
			types = append(types, v)
		case []ComponentTypeId:
			types = append(types, v...)
		case QueryNode:
			children = append(children, v)
		}
	}
	return types, children
}

// And returns an AND node over items, recording it as the query's root the
// first time it is called.
func (q *query) And(items ...any) QueryNode {
	types, children := q.processItems(items...)
	node := newCompositeNode(OpAnd, types)
	node.children = children
	if q.root == nil {
		q.root = node
	}
	return node
}

// Or returns an OR node over items.
func (q *query) Or(items ...any) QueryNode {
	types, children := q.processItems(items...)
	node := newCompositeNode(OpOr, types)
	node.children = children
	if q.root == nil {
		q.root = node
	}
	return node
}

// Not returns a negation node over items.
func (q *query) Not(items ...any) QueryNode {
	types, children := q.processItems(items...)
	node := newCompositeNode(OpNot, types)
	node.children = children
	if q.root == nil {
		q.root = node
	}
	return node
}

func (q *query) Evaluate(archetype *Archetype) bool {
	if q.root == nil {
		return false
	}
	return q.root.Evaluate(archetype)
}

// Cursor iterates the entities of every archetype matching a query, in the
// archetype store's stable enumeration order. It is bound to a WorldState
// so that iteration brackets the structural-change guard.
type Cursor struct {
	world      *WorldState
	archetypes *ArchetypeStore
	filter     QueryNode
}

// NewCursor builds a cursor over archetypes that filter selects. A nil
// filter matches every archetype.
func NewCursor(world *WorldState, archetypes *ArchetypeStore, filter QueryNode) *Cursor {
	return &Cursor{world: world, archetypes: archetypes, filter: filter}
}

func (c *Cursor) matches(archetype *Archetype) bool {
	return c.filter == nil || c.filter.Evaluate(archetype)
}

// Entities yields every live entity across every matching archetype.
// Structural changes are forbidden for as long as the sequence is being
// drawn from; BeginIteration/EndIteration bracket the walk so a caller that
// breaks out of a range-over-func loop still releases the guard.
func (c *Cursor) Entities() iter.Seq[Entity] {
	return func(yield func(Entity) bool) {
		c.world.BeginIteration()
		defer c.world.EndIteration()
		for archetype := range c.archetypes.EnumerateArchetypesStable() {
			if !c.matches(archetype) {
				continue
			}
			for _, chunk := range archetype.Chunks() {
				for _, e := range chunk.Entities() {
					if !yield(e) {
						return
					}
				}
			}
		}
	}
}

// Archetypes yields every archetype matching the cursor's filter, in stable
// enumeration order, without bracketing the iteration guard: used by
// systems that operate on whole chunks rather than individual entities.
func (c *Cursor) Archetypes() iter.Seq[*Archetype] {
	return func(yield func(*Archetype) bool) {
		for archetype := range c.archetypes.EnumerateArchetypesStable() {
			if !c.matches(archetype) {
				continue
			}
			if !yield(archetype) {
				return
			}
		}
	}
}

// Count returns the number of entities currently matching the cursor's
// filter, without holding the iteration guard.
func (c *Cursor) Count() int {
	total := 0
	for archetype := range c.archetypes.EnumerateArchetypesStable() {
		if !c.matches(archetype) {
			continue
		}
		total += archetype.RowCount()
	}
	return total
}
