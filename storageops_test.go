package silo

import "testing"

func TestOverflowingChunkCapacityAllocatesSecondChunk(t *testing.T) {
	w, _, _ := newTestWorld(t, WithChunkCapacity(2))
	for i := 0; i < 3; i++ {
		if _, err := w.CreateEntity(); err != nil {
			t.Fatalf("CreateEntity: %v", err)
		}
	}

	empty := w.Archetypes().InitializeEmptyArchetype()
	if got := len(empty.Chunks()); got != 2 {
		t.Fatalf("empty archetype has %d chunks after capacity+1 creations, want 2", got)
	}
	if empty.Chunks()[0].Count() != 2 || empty.Chunks()[1].Count() != 1 {
		t.Fatalf("chunk counts = %d,%d, want 2,1", empty.Chunks()[0].Count(), empty.Chunks()[1].Count())
	}
}

func TestEmptiedChunkIsRetainedForReuse(t *testing.T) {
	w, _, _ := newTestWorld(t)
	e, _ := w.CreateEntity()
	if err := w.DestroyEntity(e); err != nil {
		t.Fatalf("DestroyEntity: %v", err)
	}

	empty := w.Archetypes().InitializeEmptyArchetype()
	if got := len(empty.Chunks()); got != 1 {
		t.Fatalf("empty archetype has %d chunks, want the emptied chunk retained", got)
	}
	if empty.Chunks()[0].Count() != 0 {
		t.Fatalf("retained chunk count = %d, want 0", empty.Chunks()[0].Count())
	}

	// The retained chunk must be reused, not replaced, by the next placement.
	if _, err := w.CreateEntity(); err != nil {
		t.Fatalf("CreateEntity: %v", err)
	}
	if got := len(empty.Chunks()); got != 1 {
		t.Fatalf("empty archetype has %d chunks after reuse, want 1", got)
	}
}

func TestRemoveComponentBumpsStructuralVersionOncePerLogicalMove(t *testing.T) {
	w, _, idVel := newTestWorld(t)
	entities := make([]Entity, 4)
	for i := range entities {
		e, _ := w.CreateEntity()
		Add[velocity](w, e, idVel, velocity{X: float64(i)})
		entities[i] = e
	}

	before := w.State().StructuralVersion
	if err := w.Remove(entities[1], idVel); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	after := w.State().StructuralVersion
	if after != before+1 {
		t.Fatalf("StructuralVersion advanced by %d across one move, want exactly 1", after-before)
	}
}

func TestSwapBackMoveFixesSwappedEntityRow(t *testing.T) {
	w, _, idVel := newTestWorld(t, WithRemovalPolicy(SwapBack))
	entities := make([]Entity, 4)
	for i := range entities {
		e, _ := w.CreateEntity()
		Add[velocity](w, e, idVel, velocity{X: float64(i)})
		entities[i] = e
	}

	if err := w.Remove(entities[1], idVel); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	// entities[3] (the last row) must have swapped into entities[1]'s old
	// row in the velocity archetype.
	if got := w.State().Locations[entities[3].Index].Row; got != 1 {
		t.Fatalf("swapped entity row = %d, want 1", got)
	}
	// entities[1] now lives in the empty archetype at row 0 (its entities
	// all migrated out when velocity was added).
	loc := w.State().Locations[entities[1].Index]
	empty := w.Archetypes().InitializeEmptyArchetype()
	if loc.ArchetypeId != empty.ID() {
		t.Fatalf("removed entity archetype = %+v, want the empty archetype", loc.ArchetypeId)
	}
	if loc.Row != 0 {
		t.Fatalf("removed entity row = %d, want 0", loc.Row)
	}
}

func TestStableRemoveFixesEveryTrailingLocation(t *testing.T) {
	w, _, idVel := newTestWorld(t, WithRemovalPolicy(StableRemove))
	entities := make([]Entity, 4)
	for i := range entities {
		e, _ := w.CreateEntity()
		Add[velocity](w, e, idVel, velocity{X: float64(i)})
		entities[i] = e
	}

	if err := w.Remove(entities[1], idVel); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	// Rows of entities[2], entities[3] shift down to 1, 2 and their
	// locations must follow.
	if got := w.State().Locations[entities[2].Index].Row; got != 1 {
		t.Fatalf("entities[2] row = %d, want 1", got)
	}
	if got := w.State().Locations[entities[3].Index].Row; got != 2 {
		t.Fatalf("entities[3] row = %d, want 2", got)
	}
	if got := w.State().Locations[entities[0].Index].Row; got != 0 {
		t.Fatalf("entities[0] row = %d, want 0 (rows before the removal never move)", got)
	}
}

func TestLiveEntityRowsAlwaysPointBack(t *testing.T) {
	w, idPos, idVel := newTestWorld(t)
	entities := make([]Entity, 6)
	for i := range entities {
		e, _ := w.CreateEntity()
		Add[position](w, e, idPos, position{X: float64(i)})
		if i%2 == 0 {
			Add[velocity](w, e, idVel, velocity{Y: float64(i)})
		}
		entities[i] = e
	}
	w.Remove(entities[2], idVel)
	w.DestroyEntity(entities[5])

	for _, e := range entities[:5] {
		loc := w.State().Locations[e.Index]
		if !loc.IsValid() {
			t.Fatalf("live entity %+v has an invalid location", e)
		}
		archetype, err := w.Archetypes().GetArchetypeById(loc.ArchetypeId)
		if err != nil {
			t.Fatalf("GetArchetypeById: %v", err)
		}
		if got := archetype.Chunk(loc.ChunkId).EntityAt(int(loc.Row)); got != e {
			t.Fatalf("chunk row %d holds %+v, want %+v", loc.Row, got, e)
		}
	}
}

func TestLastFitProbesNewestChunkFirst(t *testing.T) {
	w, _, _ := newTestWorld(t, WithChunkCapacity(2), WithAllocationPolicy(LastFit))
	var entities []Entity
	for i := 0; i < 3; i++ {
		e, _ := w.CreateEntity()
		entities = append(entities, e)
	}
	// Free a slot in the first chunk; LastFit must still place the next
	// entity in the newest chunk, which has room.
	w.DestroyEntity(entities[0])

	e, _ := w.CreateEntity()
	if got := w.State().Locations[e.Index].ChunkId; got != 1 {
		t.Fatalf("LastFit placed the new entity in chunk %d, want 1 (newest first)", got)
	}
}
