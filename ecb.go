package silo

import "math"

// commandType tags a command record by the structural operation it
// carries.
type commandType uint8

const (
	cmdCreateEntity commandType = iota
	cmdDestroyEntity
	cmdAddComponent
	cmdRemoveComponent
)

// phase groups commands so that, within the same (Tick, SystemOrder,
// SortKey) bucket, they apply in the order Create -> Remove -> Add ->
// Destroy: a Create always precedes any op on its temp, a
// Remove-then-Add of the same type observes the Remove first, and
// Destroys run last so nothing targets an already-dead entity.
func (t commandType) phase() int32 {
	switch t {
	case cmdCreateEntity:
		return 0
	case cmdRemoveComponent:
		return 1
	case cmdAddComponent:
		return 2
	case cmdDestroyEntity:
		return 3
	default:
		return 4
	}
}

// command is the fixed-layout record every structural edit is logged as.
type command struct {
	Type            commandType
	Tick            uint64
	SystemOrder     int32
	SortKey         int64
	EntityIndexKey  int64
	ComponentTypeId ComponentTypeId
	TypeOrdinal     int32
	Worker          int32
	Sequence        uint64
	Entity          Entity
	ValueIndex      int32
}

// lessCommand implements the total comparator order
// (Tick, SystemOrder, Phase(Type), SortKey, EntityIndexKey, TypeOrdinal,
// ComponentTypeId, Worker, Sequence).
func lessCommand(a, b command) bool {
	if a.Tick != b.Tick {
		return a.Tick < b.Tick
	}
	if a.SystemOrder != b.SystemOrder {
		return a.SystemOrder < b.SystemOrder
	}
	if pa, pb := a.Type.phase(), b.Type.phase(); pa != pb {
		return pa < pb
	}
	if a.SortKey != b.SortKey {
		return a.SortKey < b.SortKey
	}
	if a.EntityIndexKey != b.EntityIndexKey {
		return a.EntityIndexKey < b.EntityIndexKey
	}
	if a.TypeOrdinal != b.TypeOrdinal {
		return a.TypeOrdinal < b.TypeOrdinal
	}
	if a.ComponentTypeId != b.ComponentTypeId {
		return a.ComponentTypeId < b.ComponentTypeId
	}
	if a.Worker != b.Worker {
		return a.Worker < b.Worker
	}
	return a.Sequence < b.Sequence
}

// valueStore is the type-erased view of one worker's per-component-type
// value pool, used so Playback can apply an AddComponent command without
// knowing T at the call site.
type valueStore interface {
	reset()
	applyAdd(sc *StructuralChanges, entity Entity, typeId ComponentTypeId, index int) error
}

// typedValueStore holds the recorded AddComponent values for one
// component type on one worker.
type typedValueStore[T any] struct {
	values   []T
	warmed   bool
	capacity int
}

func (s *typedValueStore[T]) reset() { s.values = s.values[:0] }

func (s *typedValueStore[T]) append(v T) (int, error) {
	if s.warmed && len(s.values) >= s.capacity {
		return -1, newErr(KindEcbCapacityExceeded, "value store at warmed capacity %d", s.capacity)
	}
	idx := len(s.values)
	s.values = append(s.values, v)
	return idx, nil
}

func (s *typedValueStore[T]) applyAdd(sc *StructuralChanges, entity Entity, typeId ComponentTypeId, index int) error {
	if index < 0 || index >= len(s.values) {
		return newErr(KindEcbInvalidTempHandle, "value index %d out of range for type id %d", index, typeId)
	}
	return AddComponent[T](sc, entity, typeId, s.values[index])
}

// ecbWorkerState is strictly thread-local: exactly one goroutine records
// into it, so no locking is required.
type ecbWorkerState struct {
	worker      int32
	commands    []command
	values      map[ComponentTypeId]valueStore
	sequence    uint64
	tempCounter int
	warmed      bool
	capacity    int
}

func newEcbWorkerState(worker int32) *ecbWorkerState {
	return &ecbWorkerState{
		worker: worker,
		values: make(map[ComponentTypeId]valueStore),
	}
}

// tryAppend is TryAddNoGrow: once a buffer has been warmed to capacity,
// exceeding it fails instead of reallocating. In deterministic updating
// mode an unwarmed buffer may not record at all — growth there would be
// a hidden heap allocation mid-update.
func (w *ecbWorkerState) tryAppend(cmd command, strict bool) error {
	if strict && !w.warmed {
		return newErr(KindEcbCapacityExceeded, "worker %d command buffer was not warmed before deterministic recording", w.worker)
	}
	if w.warmed && len(w.commands) >= w.capacity {
		return newErr(KindEcbCapacityExceeded, "worker %d command buffer at warmed capacity %d", w.worker, w.capacity)
	}
	cmd.Sequence = w.sequence
	w.sequence++
	w.commands = append(w.commands, cmd)
	return nil
}

// EntityCommandBuffer is the cross-peer deterministic write log: each
// worker records into its own buffer, and Playback merges and sort-merges
// all of them into one deterministic apply order.
type EntityCommandBuffer struct {
	world      *WorldState
	sc         *StructuralChanges
	workers    []*ecbWorkerState
	stride     int // expectedTempsPerWorker: a temp's global index is worker*stride + local
	tempToReal []Entity
}

// NewEntityCommandBuffer builds an ECB with workerCount per-worker
// recording buffers, bound to world/sc for playback.
func NewEntityCommandBuffer(world *WorldState, sc *StructuralChanges, workerCount int) *EntityCommandBuffer {
	if workerCount < 1 {
		workerCount = 1
	}
	cfg := world.Config()
	workers := make([]*ecbWorkerState, workerCount)
	for i := range workers {
		workers[i] = newEcbWorkerState(int32(i))
	}
	return &EntityCommandBuffer{
		world:      world,
		sc:         sc,
		workers:    workers,
		stride:     cfg.ExpectedTempsPerWorker,
		tempToReal: make([]Entity, workerCount*cfg.ExpectedTempsPerWorker),
	}
}

// WarmupCommands pre-allocates worker's command buffer to capacity rows
// and marks it as warmed: deterministic updating mode requires every
// buffer to have been warmed before recording begins.
func (b *EntityCommandBuffer) WarmupCommands(worker int, capacity int) {
	w := b.workers[worker]
	w.commands = make([]command, 0, capacity)
	w.capacity = capacity
	w.warmed = true
}

// WarmupValues pre-registers worker's typed value store for typeId with
// capacity rows, required before recording an AddComponent[T] in
// deterministic updating mode.
func WarmupValues[T any](b *EntityCommandBuffer, worker int, typeId ComponentTypeId, capacity int) {
	w := b.workers[worker]
	w.values[typeId] = &typedValueStore[T]{
		values:   make([]T, 0, capacity),
		warmed:   true,
		capacity: capacity,
	}
}

// strictMode reports whether recording must enforce the deterministic
// updating-mode rules: warmed-only buffers, required sort keys.
func (b *EntityCommandBuffer) strictMode() bool {
	return b.world.Config().Deterministic && b.world.IsUpdating()
}

func effectiveSortKey(strict bool, sortKey int64) (int64, error) {
	if sortKey != 0 {
		return sortKey, nil
	}
	if strict {
		return 0, newErr(KindEcbSortKeyRequired, "deterministic updating mode requires a non-zero sort key")
	}
	return math.MinInt64, nil
}

// EcbRecorder is a handle bound to one worker's recording buffer. It must
// only ever be used by a single goroutine.
type EcbRecorder struct {
	buf    *EntityCommandBuffer
	worker int32
}

// Recorder returns the handle for worker's recording buffer.
func (b *EntityCommandBuffer) Recorder(worker int) *EcbRecorder {
	return &EcbRecorder{buf: b, worker: int32(worker)}
}

// CreateEntity records a deferred entity creation and returns a temp
// handle resolvable only within this playback.
func (r *EcbRecorder) CreateEntity(tick uint64, systemOrder int32, sortKey int64) (Entity, error) {
	w := r.buf.workers[r.worker]
	strict := r.buf.strictMode()
	key, err := effectiveSortKey(strict, sortKey)
	if err != nil {
		return EntityInvalid, err
	}
	if w.tempCounter >= r.buf.stride {
		return EntityInvalid, newErr(KindEcbCapacityExceeded, "worker %d exceeded expected temps per worker (%d)", r.worker, r.buf.stride)
	}
	global := int(r.worker)*r.buf.stride + w.tempCounter
	w.tempCounter++
	entity := newTempEntity(global)

	cmd := command{
		Type:            cmdCreateEntity,
		Tick:            tick,
		SystemOrder:     systemOrder,
		SortKey:         key,
		EntityIndexKey:  key,
		ComponentTypeId: 0,
		TypeOrdinal:     int32(cmdCreateEntity),
		Worker:          r.worker,
		Entity:          entity,
		ValueIndex:      -1,
	}
	if err := w.tryAppend(cmd, strict); err != nil {
		return EntityInvalid, err
	}
	return entity, nil
}

func entityIndexKey(entity Entity, effective int64) int64 {
	if entity.Index >= 0 {
		return int64(entity.Index)
	}
	return effective
}

func (r *EcbRecorder) requireHandleSortKey(entity Entity, sortKey int64) (int64, error) {
	strict := r.buf.strictMode()
	if entity.IsTemp() && strict && sortKey == 0 {
		return 0, newErr(KindEcbSortKeyRequired, "operations on a temp entity require a non-zero sort key in deterministic mode")
	}
	return effectiveSortKey(strict, sortKey)
}

// DestroyEntity records a deferred entity destruction.
func (r *EcbRecorder) DestroyEntity(entity Entity, tick uint64, systemOrder int32, sortKey int64) error {
	w := r.buf.workers[r.worker]
	key, err := r.requireHandleSortKey(entity, sortKey)
	if err != nil {
		return err
	}
	cmd := command{
		Type:            cmdDestroyEntity,
		Tick:            tick,
		SystemOrder:     systemOrder,
		SortKey:         key,
		EntityIndexKey:  entityIndexKey(entity, key),
		ComponentTypeId: 0,
		TypeOrdinal:     int32(cmdDestroyEntity),
		Worker:          r.worker,
		Entity:          entity,
		ValueIndex:      -1,
	}
	return w.tryAppend(cmd, r.buf.strictMode())
}

// RemoveComponent records a deferred component removal.
func (r *EcbRecorder) RemoveComponent(entity Entity, typeId ComponentTypeId, tick uint64, systemOrder int32, sortKey int64) error {
	w := r.buf.workers[r.worker]
	key, err := r.requireHandleSortKey(entity, sortKey)
	if err != nil {
		return err
	}
	cmd := command{
		Type:            cmdRemoveComponent,
		Tick:            tick,
		SystemOrder:     systemOrder,
		SortKey:         key,
		EntityIndexKey:  entityIndexKey(entity, key),
		ComponentTypeId: typeId,
		TypeOrdinal:     int32(cmdRemoveComponent),
		Worker:          r.worker,
		Entity:          entity,
		ValueIndex:      -1,
	}
	return w.tryAppend(cmd, r.buf.strictMode())
}

// RecordAddComponent records a deferred component add, storing value in
// the worker's typed value store (which must have been warmed via
// WarmupValues in deterministic updating mode) and the command's
// ValueIndex pointing at it.
func RecordAddComponent[T any](r *EcbRecorder, entity Entity, typeId ComponentTypeId, value T, tick uint64, systemOrder int32, sortKey int64) error {
	w := r.buf.workers[r.worker]
	key, err := r.requireHandleSortKey(entity, sortKey)
	if err != nil {
		return err
	}

	strict := r.buf.strictMode()
	vs, ok := w.values[typeId]
	var store *typedValueStore[T]
	if ok {
		store, ok = vs.(*typedValueStore[T])
		if !ok {
			return newErr(KindNoColumnFactory, "value store type mismatch for type id %d", typeId)
		}
	} else {
		if strict {
			return newErr(KindEcbValueNotWarmed, "type id %d has no warmed value store on worker %d", typeId, r.worker)
		}
		store = &typedValueStore[T]{}
		w.values[typeId] = store
	}

	idx, err := store.append(value)
	if err != nil {
		return err
	}

	cmd := command{
		Type:            cmdAddComponent,
		Tick:            tick,
		SystemOrder:     systemOrder,
		SortKey:         key,
		EntityIndexKey:  entityIndexKey(entity, key),
		ComponentTypeId: typeId,
		TypeOrdinal:     int32(cmdAddComponent),
		Worker:          r.worker,
		Entity:          entity,
		ValueIndex:      int32(idx),
	}
	return w.tryAppend(cmd, strict)
}
