/*
Package silo is the data-oriented core of a deterministic, lockstep-safe
Entity-Component-System.

Entities are opaque (index, version) handles. Component data for a live
entity lives in a columnar chunk, grouped by archetype — the exact set of
component types the entity currently carries. Archetypes are discovered
lazily and never destroyed; chunks within an archetype are capacity-bounded
slabs that are reused as entities move in and out.

Core Concepts:

  - Entity: a stable handle (index, version) into the world's entity table.
  - Component: a fixed-size value type registered once at bootstrap.
  - Archetype: the storage table for every entity sharing one signature.
  - Chunk: a capacity-bounded block of rows within an archetype.
  - EntityCommandBuffer: a deferred, sort-merged log of structural edits
    recorded by parallel workers and replayed in one deterministic order.

Basic Usage:

	world := silo.NewWorld(silo.WithChunkCapacity(128), silo.WithDeterministic(true))

	position, _ := silo.RegisterComponent[Position](world.Types(), "position")
	world.FinishBootstrap()

	e, _ := world.CreateEntity()
	silo.Add(world, e, position, Position{X: 1, Y: 2, Z: 3})

	pos, _ := silo.Get[Position](world, e, position)

Structural changes are immediate outside an update scope and must be
routed through an EntityCommandBuffer inside one; see World.BeginUpdate
and World.CreateCommandBuffer.
*/
package silo
