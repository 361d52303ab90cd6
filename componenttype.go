package silo

import (
	"fmt"
	"reflect"

	"github.com/TheBitDrifter/bark"
	"github.com/TheBitDrifter/table"
)

// columnFactory builds a fresh, capacity-sized, zero-valued typed column
// for one component type.
type columnFactory func(capacity int) Column

// typeEntry is everything the store knows about one registered component
// type.
type typeEntry struct {
	id         ComponentTypeId
	name       string
	size       uint32
	layoutHash uint64
	factory    columnFactory
}

// ComponentTypeStore registers component types and hands out the typed
// column factories archetypes use to build their chunks. Type identity is
// anchored in a table.Schema: registration mints a table.ElementType
// token for T, registers it with the schema, and derives the
// ComponentTypeId from the schema's row index for that token, so the
// schema's registration-order assignment is the single source of id
// stability.
//
// In deterministic mode registration order must be stable: the caller is
// expected to register components sorted by a canonical name at bootstrap,
// exactly once, before any entity is created. The store itself does not
// reorder registrations — it only refuses strict lookups of types it has
// never seen.
type ComponentTypeStore struct {
	deterministic bool
	schema        table.Schema
	byName        map[string]ComponentTypeId
	byReflectType map[reflect.Type]ComponentTypeId
	entries       []typeEntry
	bootstrapped  bool
}

// NewComponentTypeStore builds an empty store. deterministic mirrors
// Config.Deterministic: it forces GetComponentTypeId to always be strict.
func NewComponentTypeStore(deterministic bool) *ComponentTypeStore {
	return &ComponentTypeStore{
		deterministic: deterministic,
		schema:        table.Factory.NewSchema(),
		byName:        make(map[string]ComponentTypeId),
		byReflectType: make(map[reflect.Type]ComponentTypeId),
	}
}

// Bootstrapped marks that registration has concluded; used purely as a
// diagnostic — the store still accepts idempotent re-registration of an
// already-known type after this point, only brand-new types are refused
// in deterministic mode via GetComponentTypeId's strict path.
func (s *ComponentTypeStore) Bootstrapped() bool { return s.bootstrapped }

// FinishBootstrap flips the bootstrapped flag. Callers typically invoke
// this once, right after registering every component type the simulation
// will ever use.
func (s *ComponentTypeStore) FinishBootstrap() { s.bootstrapped = true }

func layoutHashFor(name string, size uint32) uint64 {
	const offset64 = 0xcbf29ce484222325
	const prime64 = 0x100000001b3
	h := uint64(offset64)
	for i := 0; i < len(name); i++ {
		h = (h ^ uint64(name[i])) * prime64
	}
	h = (h ^ uint64(size)) * prime64
	return h
}

// RegisterComponent idempotently registers T under name, returning its
// stable ComponentTypeId. Re-registering the same (T, name) pair is a
// no-op that returns the existing id.
func RegisterComponent[T any](s *ComponentTypeStore, name string) (ComponentTypeId, error) {
	rt := reflect.TypeOf((*T)(nil)).Elem()
	if id, ok := s.byReflectType[rt]; ok {
		return id, nil
	}
	if _, ok := s.byName[name]; ok {
		return 0, newErr(KindTypeNotRegistered, "name %q already registered to a different type", name)
	}

	token := table.FactoryNewElementType[T]()
	s.schema.Register(token)
	size := uint32(rt.Size())
	// Schema row indices are assigned in registration order starting at 0;
	// shifting by one keeps id 0 free as the "unregistered" sentinel.
	id := ComponentTypeId(s.schema.RowIndexFor(token) + 1)
	if int(id) != len(s.entries)+1 {
		// entries is indexed by id-1; a sparse schema assignment would
		// silently cross-wire every later lookup.
		panic(bark.AddTrace(fmt.Errorf("schema assigned row %d for component %q, expected %d", id-1, name, len(s.entries))))
	}

	s.entries = append(s.entries, typeEntry{
		id:         id,
		name:       name,
		size:       size,
		layoutHash: layoutHashFor(name, size),
		factory: func(capacity int) Column {
			return newTypedColumn[T](capacity)
		},
	})
	s.byName[name] = id
	s.byReflectType[rt] = id
	return id, nil
}

// GetComponentTypeId resolves T's ComponentTypeId. In deterministic mode
// the lookup is always strict regardless of the strict argument; outside
// deterministic mode, strict=false auto-registers T under its reflect
// type name (intended for tests and tooling only, never for lockstep
// simulation code).
func GetComponentTypeId[T any](s *ComponentTypeStore, strict bool) (ComponentTypeId, error) {
	rt := reflect.TypeOf((*T)(nil)).Elem()
	if id, ok := s.byReflectType[rt]; ok {
		return id, nil
	}
	if s.deterministic || strict {
		return 0, newErr(KindTypeNotRegistered, "component type %s is not registered", rt)
	}
	return RegisterComponent[T](s, rt.String())
}

// CreateColumnsForSignature returns one freshly built, capacity-sized
// column per type id in signature, in signature order.
func (s *ComponentTypeStore) CreateColumnsForSignature(capacity int, signature ArchetypeSignature) ([]Column, error) {
	ids := signature.TypeIds()
	columns := make([]Column, len(ids))
	for i, id := range ids {
		entry, ok := s.entryFor(id)
		if !ok || entry.factory == nil {
			return nil, newErr(KindNoColumnFactory, "no column factory for component type id %d", id)
		}
		columns[i] = entry.factory(capacity)
	}
	return columns, nil
}

func (s *ComponentTypeStore) entryFor(id ComponentTypeId) (typeEntry, bool) {
	if id == 0 || int(id) > len(s.entries) {
		return typeEntry{}, false
	}
	return s.entries[id-1], true
}

// Name returns the registered name for a type id, or "" if unknown.
func (s *ComponentTypeStore) Name(id ComponentTypeId) string {
	e, ok := s.entryFor(id)
	if !ok {
		return ""
	}
	return e.name
}

// Manifest returns every registered type as a ComponentManifestEntry,
// sorted by typeId ascending (see ComponentManifest in manifest.go).
func (s *ComponentTypeStore) Manifest() ComponentManifest {
	entries := make([]ComponentManifestEntry, len(s.entries))
	for i, e := range s.entries {
		entries[i] = ComponentManifestEntry{
			Name:       e.name,
			TypeId:     uint32(e.id),
			Size:       e.size,
			LayoutHash: e.layoutHash,
		}
	}
	return ComponentManifest{Entries: entries}
}
