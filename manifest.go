package silo

import "encoding/binary"

// ComponentManifestEntry describes one registered component type: enough
// for a remote peer in a lockstep session to verify its own registration
// order and memory layout agree before trusting replicated archetype data.
type ComponentManifestEntry struct {
	Name       string
	TypeId     uint32
	Size       uint32
	LayoutHash uint64
}

// ComponentManifest is the full, stable-ordered list of a world's
// registered component types, as returned by ComponentTypeStore.Manifest.
type ComponentManifest struct {
	Entries []ComponentManifestEntry
}

// Equal reports whether two manifests describe identical registrations in
// identical order: the check two lockstep peers run against each other
// before agreeing to simulate together.
func (m ComponentManifest) Equal(o ComponentManifest) bool {
	if len(m.Entries) != len(o.Entries) {
		return false
	}
	for i, e := range m.Entries {
		if e != o.Entries[i] {
			return false
		}
	}
	return true
}

// Digest folds the manifest's (typeId, size, layoutHash) tuples, in entry
// order, into a single stable FNV-1a hash. Two peers with identical
// registration order and layout produce the same digest without exchanging
// the full entry list.
func (m ComponentManifest) Digest() uint64 {
	const offset64 = 14695981039346656037
	const prime64 = 1099511628211

	h := uint64(offset64)
	var buf [16]byte
	for _, e := range m.Entries {
		binary.LittleEndian.PutUint32(buf[0:4], e.TypeId)
		binary.LittleEndian.PutUint32(buf[4:8], e.Size)
		binary.LittleEndian.PutUint64(buf[8:16], e.LayoutHash)
		for _, b := range buf {
			h ^= uint64(b)
			h *= prime64
		}
	}
	return h
}
