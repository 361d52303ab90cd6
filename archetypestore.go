package silo

import (
	"iter"

	"github.com/TheBitDrifter/bark"
)

// archetypeBucket groups every archetype whose signature hashes to the
// same 64-bit bucket key, kept sorted by Disambiguator ascending (which,
// since BucketHash is constant within a bucket, is the same order as
// sorting by (ArchetypeId, signature-lex)).
type archetypeBucket struct {
	hash       uint64
	archetypes []*Archetype
}

func (b *archetypeBucket) hasDisambiguator(d uint32) bool {
	for _, a := range b.archetypes {
		if a.id.Disambiguator == d {
			return true
		}
	}
	return false
}

func (b *archetypeBucket) insertSorted(a *Archetype) {
	idx := 0
	for idx < len(b.archetypes) && b.archetypes[idx].id.Disambiguator < a.id.Disambiguator {
		idx++
	}
	b.archetypes = append(b.archetypes, nil)
	copy(b.archetypes[idx+1:], b.archetypes[idx:])
	b.archetypes[idx] = a
}

// ArchetypeStore owns the archetype registry keyed by signature hash and
// enumerates archetypes in an order that is a function of the set of
// created archetypes alone, never of creation order.
type ArchetypeStore struct {
	world   *WorldState
	types   *ComponentTypeStore
	buckets []*archetypeBucket // sorted ascending by hash
	byId    map[ArchetypeId]*Archetype
	empty   *Archetype
}

// NewArchetypeStore builds an empty registry bound to world and types.
func NewArchetypeStore(world *WorldState, types *ComponentTypeStore) *ArchetypeStore {
	return &ArchetypeStore{
		world: world,
		types: types,
		byId:  make(map[ArchetypeId]*Archetype),
	}
}

func (s *ArchetypeStore) bucketFor(hash uint64) *archetypeBucket {
	lo, hi := 0, len(s.buckets)
	for lo < hi {
		mid := (lo + hi) / 2
		if s.buckets[mid].hash < hash {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo < len(s.buckets) && s.buckets[lo].hash == hash {
		return s.buckets[lo]
	}
	b := &archetypeBucket{hash: hash}
	s.buckets = append(s.buckets, nil)
	copy(s.buckets[lo+1:], s.buckets[lo:])
	s.buckets[lo] = b
	return b
}

// InitializeEmptyArchetype idempotently creates the zero-component
// archetype every newly created entity starts its life in.
func (s *ArchetypeStore) InitializeEmptyArchetype() *Archetype {
	if s.empty != nil {
		return s.empty
	}
	a, err := s.GetOrCreateArchetype(NewSignature())
	if err != nil {
		// The empty signature can never fail to mint; a failure here is
		// an invariant violation, not a caller error.
		panic(bark.AddTrace(err))
	}
	s.empty = a
	return a
}

// mintArchetypeId computes the primary disambiguator for signature; on
// collision within bucket it probes up to 32 re-seeded hashes, then
// linearly increments until a free 32-bit value is found. Deterministic
// given an identical signature and identical prior bucket contents.
func mintArchetypeId(bucketHash uint64, bucket *archetypeBucket, signature ArchetypeSignature) (ArchetypeId, error) {
	d := fnvDisambiguator32(signature, 0)
	if !bucket.hasDisambiguator(d) {
		return ArchetypeId{BucketHash: bucketHash, Disambiguator: d}, nil
	}
	for attempt := uint32(1); attempt <= 32; attempt++ {
		d = fnvDisambiguator32(signature, attempt)
		if !bucket.hasDisambiguator(d) {
			return ArchetypeId{BucketHash: bucketHash, Disambiguator: d}, nil
		}
	}
	start := d
	for {
		d++
		if !bucket.hasDisambiguator(d) {
			return ArchetypeId{BucketHash: bucketHash, Disambiguator: d}, nil
		}
		if d == start {
			return ArchetypeId{}, newErr(KindArchetypeIdExhausted, "disambiguator space exhausted for bucket %#x", bucketHash)
		}
	}
}

// GetOrCreateArchetype is the canonical path: hash the signature into a
// bucket, linear-scan for an equal signature, and if absent mint a fresh
// ArchetypeId and insert it in sorted position. Bumps ArchetypeVersion
// and StructuralVersion on creation.
func (s *ArchetypeStore) GetOrCreateArchetype(signature ArchetypeSignature) (*Archetype, error) {
	hash := fnvBucketHash64(signature)
	bucket := s.bucketFor(hash)
	for _, a := range bucket.archetypes {
		if a.signature.Equal(signature) {
			return a, nil
		}
	}

	id, err := mintArchetypeId(hash, bucket, signature)
	if err != nil {
		return nil, err
	}
	// Chunks (and their columns) are built lazily on first row placement,
	// but a signature referencing an unregistered type must fail here, not
	// mid-placement.
	for _, typeId := range signature.TypeIds() {
		if _, ok := s.types.entryFor(typeId); !ok {
			return nil, newErr(KindNoColumnFactory, "no column factory for component type id %d", typeId)
		}
	}

	archetype := newArchetypeShell(id, signature)
	bucket.insertSorted(archetype)
	s.byId[id] = archetype

	s.world.IncrementArchetypeVersion()
	s.world.IncrementStructuralVersion()
	return archetype, nil
}

// GetOrCreateArchetypeWithAdded is the hot add-component path: it
// constructs the successor signature using a rented scratch buffer and
// returns src unchanged if typeId is already present.
func (s *ArchetypeStore) GetOrCreateArchetypeWithAdded(src *Archetype, typeId ComponentTypeId) (*Archetype, error) {
	if src.Contains(typeId) {
		return src, nil
	}
	scratch := getSignatureScratch()
	newSig, _ := src.signature.withAdded(typeId, scratch)
	putSignatureScratch(scratch)
	return s.GetOrCreateArchetype(newSig)
}

// GetOrCreateArchetypeWithRemoved is the hot remove-component path. It
// returns src unchanged if typeId is absent, and the empty archetype if
// removal would empty the signature.
func (s *ArchetypeStore) GetOrCreateArchetypeWithRemoved(src *Archetype, typeId ComponentTypeId) (*Archetype, error) {
	if !src.Contains(typeId) {
		return src, nil
	}
	newSig, _ := src.signature.withRemoved(typeId)
	if newSig.Len() == 0 {
		return s.InitializeEmptyArchetype(), nil
	}
	return s.GetOrCreateArchetype(newSig)
}

// GetArchetypeById performs an exact lookup by id.
func (s *ArchetypeStore) GetArchetypeById(id ArchetypeId) (*Archetype, error) {
	a, ok := s.byId[id]
	if !ok {
		return nil, newErr(KindArchetypeNotFound, "no archetype with id %+v", id)
	}
	return a, nil
}

// EnumerateArchetypesStable yields archetypes in ascending bucket hash,
// then ascending (ArchetypeId, signature-lex) within bucket. The order is
// a pure function of the set of created archetypes, independent of
// creation order, and safe to restart since it owns no shared
// iteration state.
func (s *ArchetypeStore) EnumerateArchetypesStable() iter.Seq[*Archetype] {
	return func(yield func(*Archetype) bool) {
		for _, bucket := range s.buckets {
			for _, a := range bucket.archetypes {
				if !yield(a) {
					return
				}
			}
		}
	}
}

// Count returns the total number of distinct archetypes created so far.
func (s *ArchetypeStore) Count() int {
	n := 0
	for _, b := range s.buckets {
		n += len(b.archetypes)
	}
	return n
}
