package silo

import "sort"

// Playback merges every worker's recorded commands into one pool-rented
// slice, stable-sorts it by lessCommand, and applies each command
// in order through the immediate StructuralChanges paths. It stops at the
// first error, leaving the ECB's buffers untouched so the caller can
// inspect what failed; Reset must be called before recording resumes.
func (b *EntityCommandBuffer) Playback() error {
	merged := getCommandMerge()
	defer func() { putCommandMerge(merged) }()
	for _, w := range b.workers {
		merged = append(merged, w.commands...)
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return lessCommand(merged[i], merged[j])
	})

	for i := range b.tempToReal {
		b.tempToReal[i] = EntityInvalid
	}
	for _, cmd := range merged {
		if err := b.apply(cmd); err != nil {
			return err
		}
	}
	return nil
}

// resolve substitutes the real entity for a temp handle created earlier in
// the same playback. Real handles pass through untouched.
func (b *EntityCommandBuffer) resolve(entity Entity) (Entity, error) {
	if !entity.IsTemp() {
		return entity, nil
	}
	idx := entity.tempIndex()
	if idx >= len(b.tempToReal) || !b.tempToReal[idx].IsValid() {
		return EntityInvalid, newErr(KindEcbInvalidTempHandle, "temp entity %+v was not created earlier in this playback", entity)
	}
	return b.tempToReal[idx], nil
}

func (b *EntityCommandBuffer) apply(cmd command) error {
	switch cmd.Type {
	case cmdCreateEntity:
		entity, err := b.sc.CreateEntity()
		if err != nil {
			return err
		}
		b.tempToReal[cmd.Entity.tempIndex()] = entity
		return nil

	case cmdDestroyEntity:
		real, err := b.resolve(cmd.Entity)
		if err != nil {
			return err
		}
		return b.sc.DestroyEntity(real)

	case cmdRemoveComponent:
		real, err := b.resolve(cmd.Entity)
		if err != nil {
			return err
		}
		return b.sc.RemoveComponent(real, cmd.ComponentTypeId)

	case cmdAddComponent:
		real, err := b.resolve(cmd.Entity)
		if err != nil {
			return err
		}
		w := b.workers[cmd.Worker]
		store, ok := w.values[cmd.ComponentTypeId]
		if !ok {
			return newErr(KindEcbValueNotWarmed, "no value store for type id %d on worker %d during playback", cmd.ComponentTypeId, cmd.Worker)
		}
		return store.applyAdd(b.sc, real, cmd.ComponentTypeId, int(cmd.ValueIndex))

	default:
		return newErr(KindUnknownCommand, "unknown command type %d", cmd.Type)
	}
}

// Reset clears every worker's recorded commands and values so the buffer
// can be reused for the next tick, preserving warmed capacities. Safe to
// call after either a successful or a failed Playback.
func (b *EntityCommandBuffer) Reset(nextTick uint64) {
	for _, w := range b.workers {
		w.commands = w.commands[:0]
		w.sequence = 0
		w.tempCounter = 0
		for _, vs := range w.values {
			vs.reset()
		}
	}
	b.world.CurrentTick = nextTick
}
