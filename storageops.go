package silo

// ChunkStorageOps is the only code that mutates chunk storage. It keeps
// WorldState.Locations coherent with every row it places, moves, or
// removes.
//
// A cross-archetype move bumps StructuralVersion exactly once per logical
// move, not once per row operation: AllocateDestinationSlot performs the
// bump for both a plain placement and the destination half of a move;
// RemoveFromSourceAndFixSwap
// therefore does not bump when it is the second half of a move.
// RemoveFromStorage (no destination, used by destroy) bumps on its own.
type ChunkStorageOps struct {
	world      *WorldState
	types      *ComponentTypeStore
	archetypes *ArchetypeStore
}

// NewChunkStorageOps builds the row-mutation layer bound to world, types,
// and archetypes.
func NewChunkStorageOps(world *WorldState, types *ComponentTypeStore, archetypes *ArchetypeStore) *ChunkStorageOps {
	return &ChunkStorageOps{world: world, types: types, archetypes: archetypes}
}

// PlaceInEmptyArchetype adds a row for entity in the empty archetype's
// storage and records its location. Used when an entity is first created.
func (ops *ChunkStorageOps) PlaceInEmptyArchetype(entity Entity) error {
	empty := ops.archetypes.InitializeEmptyArchetype()
	_, _, err := ops.AllocateDestinationSlot(empty, entity)
	return err
}

// AllocateDestinationSlot reserves a row for entity within dst, growing a
// chunk if needed, and records the new location. Bumps StructuralVersion.
func (ops *ChunkStorageOps) AllocateDestinationSlot(dst *Archetype, entity Entity) (*Chunk, int, error) {
	cfg := ops.world.Config()
	signature := dst.signature
	chunk, err := dst.getOrCreateChunkWithSpace(cfg.Policies.Allocation, cfg.ChunkCapacity, func() ([]Column, error) {
		return ops.types.CreateColumnsForSignature(cfg.ChunkCapacity, signature)
	})
	if err != nil {
		return nil, 0, err
	}
	row := chunk.AddEntity(entity)
	ops.world.EnsureEntityCapacity(int(entity.Index) + 1)
	ops.world.Locations[entity.Index] = EntityLocation{
		ArchetypeId: dst.id,
		ChunkId:     chunk.id,
		Row:         int32(row),
	}
	ops.world.IncrementStructuralVersion()
	return chunk, row, nil
}

// CopyOverlappingComponents copies, for every type id present in both
// signatures, the element at (srcChunk, srcRow) into (dstChunk, dstRow).
// Iteration walks the source's positional column order (already sorted)
// and resolves each destination column through the cached typeId ->
// columnIndex map, so the copy order is deterministic.
func (ops *ChunkStorageOps) CopyOverlappingComponents(srcArchetype *Archetype, srcChunk *Chunk, srcRow int, dstArchetype *Archetype, dstChunk *Chunk, dstRow int) {
	for i, typeId := range srcArchetype.signature.TypeIds() {
		dstIdx, ok := dstArchetype.TryGetColumnIndex(typeId)
		if !ok {
			continue
		}
		srcChunk.Column(i).CopyElementTo(srcRow, dstChunk.Column(dstIdx), dstRow)
	}
}

// RemoveFromSourceAndFixSwap removes the row at srcLoc from srcArchetype
// per the configured RemovalPolicy, fixing up the location of whichever
// live entity (if any) ends up occupying a different row as a result.
// Does not bump StructuralVersion — see the type-level doc comment.
func (ops *ChunkStorageOps) RemoveFromSourceAndFixSwap(srcArchetype *Archetype, srcLoc EntityLocation) error {
	chunk := srcArchetype.Chunk(srcLoc.ChunkId)
	if chunk == nil {
		return newErr(KindArchetypeNotFound, "chunk %d not found in archetype %+v", srcLoc.ChunkId, srcArchetype.id)
	}
	row := int(srcLoc.Row)
	switch ops.world.Config().Policies.Removal {
	case StableRemove:
		chunk.RemoveAtStable(row, func(moved Entity, newRow int) {
			ops.world.Locations[moved.Index] = EntityLocation{
				ArchetypeId: srcArchetype.id,
				ChunkId:     chunk.id,
				Row:         int32(newRow),
			}
		})
	case SwapBack:
		swapped, didSwap := chunk.RemoveAtSwapBack(row)
		if didSwap {
			ops.world.Locations[swapped.Index] = EntityLocation{
				ArchetypeId: srcArchetype.id,
				ChunkId:     chunk.id,
				Row:         srcLoc.Row,
			}
		}
	default:
		return newErr(KindUnknownPolicy, "unknown removal policy %v", ops.world.Config().Policies.Removal)
	}
	return nil
}

// RemoveFromStorage removes entity's row without a destination (used by
// destroy). Bumps StructuralVersion exactly once.
func (ops *ChunkStorageOps) RemoveFromStorage(entity Entity) error {
	loc := ops.world.Locations[entity.Index]
	if !loc.IsValid() {
		return nil
	}
	archetype, err := ops.archetypes.GetArchetypeById(loc.ArchetypeId)
	if err != nil {
		return err
	}
	if err := ops.RemoveFromSourceAndFixSwap(archetype, loc); err != nil {
		return err
	}
	ops.world.IncrementStructuralVersion()
	return nil
}
