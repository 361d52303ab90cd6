package silo

import "testing"

func TestCreateEntityAssignsSequentialIndices(t *testing.T) {
	state := NewWorldState()
	m := NewEntityManager(state)

	for want := int32(0); want < 3; want++ {
		e := m.CreateEntity()
		if e.Index != want {
			t.Fatalf("CreateEntity index = %d, want %d", e.Index, want)
		}
		if e.Version != 0 {
			t.Fatalf("fresh entity version = %d, want 0", e.Version)
		}
		if !m.IsAlive(e) {
			t.Fatalf("freshly created entity %+v should be alive", e)
		}
	}
}

func TestFreeListRecyclesLIFO(t *testing.T) {
	state := NewWorldState()
	m := NewEntityManager(state)

	a := m.CreateEntity()
	b := m.CreateEntity()
	m.FinalizeDestroy(a)
	m.FinalizeDestroy(b)

	// b was freed last, so its index comes back first.
	first := m.CreateEntity()
	if first.Index != b.Index {
		t.Fatalf("first recycled index = %d, want %d (LIFO)", first.Index, b.Index)
	}
	second := m.CreateEntity()
	if second.Index != a.Index {
		t.Fatalf("second recycled index = %d, want %d", second.Index, a.Index)
	}
}

func TestFinalizeDestroyBumpsVersionAndInvalidatesStaleHandles(t *testing.T) {
	state := NewWorldState()
	m := NewEntityManager(state)

	e := m.CreateEntity()
	m.FinalizeDestroy(e)
	if m.IsAlive(e) {
		t.Fatal("destroyed entity must not report alive")
	}
	if state.Locations[e.Index].IsValid() {
		t.Fatal("destroyed entity must have an invalid location")
	}

	recycled := m.CreateEntity()
	if recycled.Index != e.Index {
		t.Fatalf("recycled index = %d, want %d", recycled.Index, e.Index)
	}
	if recycled.Version != e.Version+1 {
		t.Fatalf("recycled version = %d, want %d", recycled.Version, e.Version+1)
	}
	if m.IsAlive(e) {
		t.Fatal("stale handle must stay dead after its slot is recycled")
	}
}

func TestIsAliveRejectsOutOfRangeAndTempHandles(t *testing.T) {
	state := NewWorldState()
	m := NewEntityManager(state)

	if m.IsAlive(Entity{Index: 99, Version: 0}) {
		t.Fatal("out-of-range index must not report alive")
	}
	if m.IsAlive(newTempEntity(0)) {
		t.Fatal("temp handle must not report alive")
	}
	if m.IsAlive(EntityInvalid) {
		t.Fatal("EntityInvalid must not report alive")
	}
}

func TestEnsureEntityCapacityInitializesNewSlotsInvalid(t *testing.T) {
	state := NewWorldState()
	state.EnsureEntityCapacity(10)
	if len(state.Locations) < 10 {
		t.Fatalf("capacity = %d, want >= 10", len(state.Locations))
	}
	for i, loc := range state.Locations {
		if loc.IsValid() {
			t.Fatalf("fresh slot %d has a valid location", i)
		}
	}

	grown := len(state.Locations)
	state.EnsureEntityCapacity(grown) // no-op
	if len(state.Locations) != grown {
		t.Fatal("EnsureEntityCapacity must not grow when capacity already suffices")
	}
	state.EnsureEntityCapacity(grown + 1)
	if len(state.Locations) <= grown {
		t.Fatal("EnsureEntityCapacity must grow past the requested index")
	}
}
