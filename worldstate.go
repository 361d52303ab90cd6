package silo

import "github.com/TheBitDrifter/mask"

const flagUpdating = uint32(0)

// WorldState is the single owner of the entity slot arrays, the monotonic
// version counters, and the guard flags that gate structural mutation.
// Every other component (EntityManager, ArchetypeStore, ChunkStorageOps,
// StructuralChanges, the ECB, the accessor) borrows a *WorldState rather
// than keeping its own copy of this state.
type WorldState struct {
	cfg Config

	Versions  []uint32
	Alive     []bool
	Locations []EntityLocation
	freeList  []int32 // LIFO stack of recyclable indices

	ArchetypeVersion  uint64
	StructuralVersion uint64

	flags          mask.Mask256
	IterationDepth int32

	CurrentTick        uint64
	CurrentSystemOrder int32
}

// NewWorldState builds an empty world with the given options applied over
// DefaultConfig.
func NewWorldState(opts ...Option) *WorldState {
	cfg := newConfig(opts...)
	return &WorldState{cfg: cfg}
}

// Config returns the world's immutable-after-bootstrap configuration.
func (w *WorldState) Config() Config { return w.cfg }

// IsUpdating reports whether the world is between BeginUpdate/EndUpdate.
func (w *WorldState) IsUpdating() bool {
	return !w.flags.IsEmpty()
}

func (w *WorldState) setUpdating(on bool) {
	if on {
		w.flags.Mark(flagUpdating)
	} else {
		w.flags.Unmark(flagUpdating)
	}
}

// EnsureEntityCapacity grows the entity slot arrays (straight to 1024 on
// first use, then by x1.5 steps) until they hold at least n slots. New
// slots are initialized to dead/invalid.
func (w *WorldState) EnsureEntityCapacity(n int) {
	if n <= len(w.Versions) {
		return
	}
	newCap := len(w.Versions)
	if newCap == 0 {
		newCap = 1024
	}
	for newCap < n {
		if newCap < 1024 {
			newCap = 1024
		} else {
			newCap = newCap + newCap/2
		}
	}

	versions := make([]uint32, newCap)
	copy(versions, w.Versions)
	alive := make([]bool, newCap)
	copy(alive, w.Alive)
	locations := make([]EntityLocation, newCap)
	copy(locations, w.Locations)
	for i := len(w.Locations); i < newCap; i++ {
		locations[i] = LocationInvalid
	}

	w.Versions = versions
	w.Alive = alive
	w.Locations = locations
}

// PushFreeIndex returns index to the free-list for future recycling.
func (w *WorldState) PushFreeIndex(index int32) {
	w.freeList = append(w.freeList, index)
}

// TryPopFreeIndex pops the most recently freed index (LIFO), if any.
func (w *WorldState) TryPopFreeIndex() (int32, bool) {
	n := len(w.freeList)
	if n == 0 {
		return 0, false
	}
	idx := w.freeList[n-1]
	w.freeList = w.freeList[:n-1]
	return idx, true
}

// IncrementStructuralVersion bumps StructuralVersion, wrapping on
// overflow. Anything that can affect queries must call this exactly once
// per logical structural change.
func (w *WorldState) IncrementStructuralVersion() {
	w.StructuralVersion++
}

// IncrementArchetypeVersion bumps ArchetypeVersion, wrapping on overflow.
func (w *WorldState) IncrementArchetypeVersion() {
	w.ArchetypeVersion++
}

// BeginIteration increments the iteration-depth guard.
func (w *WorldState) BeginIteration() { w.IterationDepth++ }

// EndIteration decrements the iteration-depth guard.
func (w *WorldState) EndIteration() {
	if w.IterationDepth > 0 {
		w.IterationDepth--
	}
}

// Stats is a read-only snapshot of world-level counters, useful for an
// external diagnostics/inspection layer.
type Stats struct {
	EntityCapacity    int
	LiveEntities      int
	FreeListSize      int
	ArchetypeVersion  uint64
	StructuralVersion uint64
	IterationDepth    int32
	IsUpdating        bool
	CurrentTick       uint64
	ArchetypeCount    int
}

// Stats returns a snapshot of the world's counters.
func (w *WorldState) Stats() Stats {
	live := 0
	for _, a := range w.Alive {
		if a {
			live++
		}
	}
	return Stats{
		EntityCapacity:    len(w.Versions),
		LiveEntities:      live,
		FreeListSize:      len(w.freeList),
		ArchetypeVersion:  w.ArchetypeVersion,
		StructuralVersion: w.StructuralVersion,
		IterationDepth:    w.IterationDepth,
		IsUpdating:        w.IsUpdating(),
		CurrentTick:       w.CurrentTick,
	}
}
