package silo

import "github.com/TheBitDrifter/mask"

// Archetype owns its chunks and column layout exclusively. Each chunk's
// column at index i holds component data for signature.TypeIds()[i].
type Archetype struct {
	id             ArchetypeId
	signature      ArchetypeSignature
	chunks         []*Chunk
	columnIndexMap map[ComponentTypeId]int
	membership     mask.Mask
	nextChunkId    uint32
}

func newArchetypeShell(id ArchetypeId, signature ArchetypeSignature) *Archetype {
	colIdx := make(map[ComponentTypeId]int, signature.Len())
	var membership mask.Mask
	for i, typeId := range signature.TypeIds() {
		colIdx[typeId] = i
		membership.Mark(uint32(typeId))
	}
	return &Archetype{
		id:             id,
		signature:      signature,
		columnIndexMap: colIdx,
		membership:     membership,
	}
}

// ID returns the archetype's unique identifier.
func (a *Archetype) ID() ArchetypeId { return a.id }

// Signature returns the archetype's sorted, deduplicated component set.
func (a *Archetype) Signature() ArchetypeSignature { return a.signature }

// Chunks returns the archetype's chunks in creation order.
func (a *Archetype) Chunks() []*Chunk { return a.chunks }

// Chunk returns the chunk with the given id, or nil if absent.
func (a *Archetype) Chunk(id uint32) *Chunk {
	for _, c := range a.chunks {
		if c.id == id {
			return c
		}
	}
	return nil
}

// TryGetColumnIndex returns the positional column index for typeId within
// every chunk of this archetype. This is cached on the archetype (a plain
// map lookup, not re-derived per call) so the hot-path accessor never
// rescans the signature.
func (a *Archetype) TryGetColumnIndex(typeId ComponentTypeId) (int, bool) {
	idx, ok := a.columnIndexMap[typeId]
	return idx, ok
}

// Contains reports whether typeId is part of this archetype's signature,
// via the cached membership bitset rather than a signature scan.
func (a *Archetype) Contains(typeId ComponentTypeId) bool {
	var probe mask.Mask
	probe.Mark(uint32(typeId))
	return a.membership.ContainsAll(probe)
}

// RowCount returns the total number of live rows across every chunk.
func (a *Archetype) RowCount() int {
	n := 0
	for _, c := range a.chunks {
		n += c.count
	}
	return n
}

// getOrCreateChunkWithSpace returns the first chunk with free space per
// the allocation policy, or allocates a new one with freshly built
// columns from buildColumns.
func (a *Archetype) getOrCreateChunkWithSpace(policy AllocationPolicy, capacity int, buildColumns func() ([]Column, error)) (*Chunk, error) {
	switch policy {
	case LastFit:
		for i := len(a.chunks) - 1; i >= 0; i-- {
			if a.chunks[i].HasSpace() {
				return a.chunks[i], nil
			}
		}
	default: // FirstFit
		for _, c := range a.chunks {
			if c.HasSpace() {
				return c, nil
			}
		}
	}
	columns, err := buildColumns()
	if err != nil {
		return nil, err
	}
	chunk := newChunk(a.nextChunkId, capacity, columns)
	a.nextChunkId++
	a.chunks = append(a.chunks, chunk)
	return chunk, nil
}
