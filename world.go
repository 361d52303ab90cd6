package silo

// World is the public façade binding WorldState, the component type
// registry, archetype storage, the row-mutation layer, the immediate
// structural-change paths, the component accessor, and the ECB together.
// Outside an updating scope callers may use the immediate Add/Remove/
// CreateEntity/DestroyEntity paths directly; inside one (BeginUpdate has
// been called and EndUpdate has not), all structural changes must be
// routed through a command buffer obtained via CreateCommandBuffer.
type World struct {
	state      *WorldState
	types      *ComponentTypeStore
	archetypes *ArchetypeStore
	ops        *ChunkStorageOps
	manager    *EntityManager
	changes    *StructuralChanges
	accessor   *EntityComponentAccessor
}

// NewWorld builds a fully wired, empty World.
func NewWorld(opts ...Option) *World {
	state := NewWorldState(opts...)
	types := NewComponentTypeStore(state.Config().Deterministic)
	archetypes := NewArchetypeStore(state, types)
	ops := NewChunkStorageOps(state, types, archetypes)
	manager := NewEntityManager(state)
	changes := NewStructuralChanges(state, types, archetypes, ops, manager)
	accessor := NewEntityComponentAccessor(state, archetypes)
	archetypes.InitializeEmptyArchetype()

	return &World{
		state:      state,
		types:      types,
		archetypes: archetypes,
		ops:        ops,
		manager:    manager,
		changes:    changes,
		accessor:   accessor,
	}
}

// State returns the underlying WorldState, for components (query caches,
// diagnostics) that need direct access to its counters.
func (w *World) State() *WorldState { return w.state }

// Archetypes returns the archetype registry, for building Cursors and
// QueryCaches.
func (w *World) Archetypes() *ArchetypeStore { return w.archetypes }

// Accessor returns the hot read/write component accessor.
func (w *World) Accessor() *EntityComponentAccessor { return w.accessor }

// Types returns the component type registry. RegisterComponent[T] and
// GetComponentTypeId[T] (componenttype.go) take this store directly:
//
//	id, err := silo.RegisterComponent[Position](world.Types(), "position")
func (w *World) Types() *ComponentTypeStore { return w.types }

// FinishBootstrap marks component registration as concluded.
func (w *World) FinishBootstrap() { w.types.FinishBootstrap() }

// GetComponentManifest returns the stable, cross-peer-comparable list of
// every registered component type.
func (w *World) GetComponentManifest() ComponentManifest {
	return w.types.Manifest()
}

// CreateEntity performs an immediate entity creation. Forbidden while
// iterating; use a command buffer's recorder during an updating scope.
func (w *World) CreateEntity() (Entity, error) {
	return w.changes.CreateEntity()
}

// DestroyEntity performs an immediate entity destruction.
func (w *World) DestroyEntity(entity Entity) error {
	return w.changes.DestroyEntity(entity)
}

// Add performs an immediate component add/overwrite.
func Add[T any](w *World, entity Entity, typeId ComponentTypeId, value T) error {
	return AddComponent[T](w.changes, entity, typeId, value)
}

// Remove performs an immediate component removal (a no-op if entity lacks
// typeId).
func (w *World) Remove(entity Entity, typeId ComponentTypeId) error {
	return w.changes.RemoveComponent(entity, typeId)
}

// Get returns a mutable pointer to entity's component T.
func Get[T any](w *World, entity Entity, typeId ComponentTypeId) (*T, error) {
	return GetMut[T](w.accessor, entity, typeId)
}

// Has reports whether entity currently carries typeId.
func (w *World) Has(entity Entity, typeId ComponentTypeId) bool {
	return w.accessor.Has(entity, typeId)
}

// IsAlive reports whether entity is a currently live handle.
func (w *World) IsAlive(entity Entity) bool {
	return w.manager.IsAlive(entity)
}

// BeginIteration and EndIteration bracket a read-only scan during which
// structural changes are forbidden. Cursor.Entities calls these
// itself; exposed here for callers that iterate by hand.
func (w *World) BeginIteration() { w.state.BeginIteration() }
func (w *World) EndIteration()   { w.state.EndIteration() }

// BeginUpdate marks the world as updating (all structural changes must
// now go through an ECB) and advances CurrentTick.
func (w *World) BeginUpdate() {
	w.state.setUpdating(true)
	w.state.CurrentTick++
}

// EndUpdate clears the updating flag.
func (w *World) EndUpdate() {
	w.state.setUpdating(false)
}

// IsUpdating reports whether the world is between BeginUpdate/EndUpdate.
func (w *World) IsUpdating() bool { return w.state.IsUpdating() }

// CurrentTick returns the current tick: advanced by one on each
// BeginUpdate and set to nextTick by EntityCommandBuffer.Reset.
func (w *World) CurrentTick() uint64 { return w.state.CurrentTick }

// SetSystemOrder records the order index of the system currently running.
// Drivers stamp it, together with CurrentTick, into the commands they
// record so the playback comparator can group them.
func (w *World) SetSystemOrder(order int32) { w.state.CurrentSystemOrder = order }

// SystemOrder returns the order index set by the most recent
// SetSystemOrder call.
func (w *World) SystemOrder() int32 { return w.state.CurrentSystemOrder }

// CreateCommandBuffer builds an ECB with workerCount per-worker recording
// buffers, bound to this world's immediate structural-change paths for
// playback.
func (w *World) CreateCommandBuffer(workerCount int) *EntityCommandBuffer {
	return NewEntityCommandBuffer(w.state, w.changes, workerCount)
}

// WarmupEcbCommands pre-allocates one ECB worker's command buffer to
// capacity, required in deterministic updating mode before recording
// begins.
func (w *World) WarmupEcbCommands(ecb *EntityCommandBuffer, worker int, capacity int) {
	ecb.WarmupCommands(worker, capacity)
}

// WarmupEcbValues pre-allocates one ECB worker's typed value store for
// typeId, required before recording an AddComponent[T] command in
// deterministic updating mode.
func WarmupEcbValues[T any](w *World, ecb *EntityCommandBuffer, worker int, typeId ComponentTypeId, capacity int) {
	WarmupValues[T](ecb, worker, typeId, capacity)
}

// Stats returns a snapshot of the world's entity/archetype/version
// counters.
func (w *World) Stats() Stats {
	stats := w.state.Stats()
	stats.ArchetypeCount = w.archetypes.Count()
	return stats
}
