package silo

import "sync"

// signatureScratchPool rents the small integer buffer in which the
// add-component path builds a successor signature by sorted insertion;
// the finished signature is then copied into its own slice, since
// signatures own their type-id arrays. The remove path (withRemoved)
// does not use this pool. Each rental is single-owner for its lifetime:
// callers Get, use, and Put back before returning.
var signatureScratchPool = sync.Pool{
	New: func() any { return make([]ComponentTypeId, 0, 16) },
}

func getSignatureScratch() []ComponentTypeId {
	return signatureScratchPool.Get().([]ComponentTypeId)
}

func putSignatureScratch(buf []ComponentTypeId) {
	signatureScratchPool.Put(buf[:0]) //nolint:staticcheck // scoped rental, not escaping
}

// commandMergePool rents the merged command slice Playback sorts and
// applies, so a warmed world replays ticks without growing the heap.
var commandMergePool = sync.Pool{
	New: func() any { return make([]command, 0, 256) },
}

func getCommandMerge() []command {
	return commandMergePool.Get().([]command)
}

func putCommandMerge(buf []command) {
	commandMergePool.Put(buf[:0]) //nolint:staticcheck // scoped rental, not escaping
}
