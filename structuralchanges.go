package silo

// StructuralChanges implements the immediate add/remove-component paths.
// These are forbidden while IterationDepth > 0; deferred structural
// changes recorded via an EntityCommandBuffer ultimately call back into
// these same immediate paths during playback.
type StructuralChanges struct {
	world      *WorldState
	types      *ComponentTypeStore
	archetypes *ArchetypeStore
	ops        *ChunkStorageOps
	manager    *EntityManager
}

// NewStructuralChanges wires the immediate add/remove/create/destroy
// paths together.
func NewStructuralChanges(world *WorldState, types *ComponentTypeStore, archetypes *ArchetypeStore, ops *ChunkStorageOps, manager *EntityManager) *StructuralChanges {
	return &StructuralChanges{world: world, types: types, archetypes: archetypes, ops: ops, manager: manager}
}

func (sc *StructuralChanges) guardImmediate(entity Entity) error {
	if sc.world.IterationDepth > 0 {
		return newErr(KindStructuralDuringIteration, "structural change attempted while iterating (depth=%d)", sc.world.IterationDepth)
	}
	if !sc.manager.IsAlive(entity) {
		return newErr(KindStaleEntity, "entity %+v is not alive", entity)
	}
	return nil
}

// AddComponent overwrites in place if the source archetype already
// carries typeId (no structural version bump); otherwise it moves the
// entity to the successor archetype, populating the destination row
// before the source row is removed so swap-back cannot invalidate it.
func AddComponent[T any](sc *StructuralChanges, entity Entity, typeId ComponentTypeId, value T) error {
	if err := sc.guardImmediate(entity); err != nil {
		return err
	}
	loc := sc.world.Locations[entity.Index]
	srcArchetype, err := sc.archetypes.GetArchetypeById(loc.ArchetypeId)
	if err != nil {
		return err
	}

	if colIdx, ok := srcArchetype.TryGetColumnIndex(typeId); ok {
		chunk := srcArchetype.Chunk(loc.ChunkId)
		col, ok := columnOf[T](chunk.Column(colIdx))
		if !ok {
			return newErr(KindNoColumnFactory, "column type mismatch for type id %d", typeId)
		}
		col.Set(int(loc.Row), value)
		return nil
	}

	srcChunk := srcArchetype.Chunk(loc.ChunkId)
	dstArchetype, err := sc.archetypes.GetOrCreateArchetypeWithAdded(srcArchetype, typeId)
	if err != nil {
		return err
	}
	dstChunk, dstRow, err := sc.ops.AllocateDestinationSlot(dstArchetype, entity)
	if err != nil {
		return err
	}
	sc.ops.CopyOverlappingComponents(srcArchetype, srcChunk, int(loc.Row), dstArchetype, dstChunk, dstRow)

	dstColIdx, ok := dstArchetype.TryGetColumnIndex(typeId)
	if !ok {
		return newErr(KindNoColumnFactory, "destination archetype missing type id %d after add", typeId)
	}
	col, ok := columnOf[T](dstChunk.Column(dstColIdx))
	if !ok {
		return newErr(KindNoColumnFactory, "column type mismatch for type id %d", typeId)
	}
	col.Set(dstRow, value)

	return sc.ops.RemoveFromSourceAndFixSwap(srcArchetype, loc)
}

// RemoveComponent is a no-op if the entity lacks typeId, otherwise a
// move to the successor archetype with the type dropped.
func (sc *StructuralChanges) RemoveComponent(entity Entity, typeId ComponentTypeId) error {
	if err := sc.guardImmediate(entity); err != nil {
		return err
	}
	loc := sc.world.Locations[entity.Index]
	srcArchetype, err := sc.archetypes.GetArchetypeById(loc.ArchetypeId)
	if err != nil {
		return err
	}
	if !srcArchetype.Contains(typeId) {
		return nil
	}

	srcChunk := srcArchetype.Chunk(loc.ChunkId)
	dstArchetype, err := sc.archetypes.GetOrCreateArchetypeWithRemoved(srcArchetype, typeId)
	if err != nil {
		return err
	}
	dstChunk, dstRow, err := sc.ops.AllocateDestinationSlot(dstArchetype, entity)
	if err != nil {
		return err
	}
	sc.ops.CopyOverlappingComponents(srcArchetype, srcChunk, int(loc.Row), dstArchetype, dstChunk, dstRow)

	return sc.ops.RemoveFromSourceAndFixSwap(srcArchetype, loc)
}

// CreateEntity allocates a new entity via the manager and places it in
// the empty archetype. Forbidden while IterationDepth > 0.
func (sc *StructuralChanges) CreateEntity() (Entity, error) {
	if sc.world.IterationDepth > 0 {
		return EntityInvalid, newErr(KindStructuralDuringIteration, "structural change attempted while iterating (depth=%d)", sc.world.IterationDepth)
	}
	entity := sc.manager.CreateEntity()
	if err := sc.ops.PlaceInEmptyArchetype(entity); err != nil {
		return EntityInvalid, err
	}
	return entity, nil
}

// DestroyEntity removes entity's row from storage and recycles its slot.
func (sc *StructuralChanges) DestroyEntity(entity Entity) error {
	if sc.world.IterationDepth > 0 {
		return newErr(KindStructuralDuringIteration, "structural change attempted while iterating (depth=%d)", sc.world.IterationDepth)
	}
	if !sc.manager.IsAlive(entity) {
		return newErr(KindStaleEntity, "entity %+v is not alive", entity)
	}
	if err := sc.ops.RemoveFromStorage(entity); err != nil {
		return err
	}
	sc.manager.FinalizeDestroy(entity)
	return nil
}
