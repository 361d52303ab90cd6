package silo

// AllocationPolicy controls the order in which chunks are probed for free
// space when placing a new row into an archetype.
type AllocationPolicy int

const (
	// FirstFit probes chunks in creation order and uses the first with space.
	FirstFit AllocationPolicy = iota
	// LastFit probes chunks in reverse creation order.
	LastFit
)

func (p AllocationPolicy) String() string {
	switch p {
	case FirstFit:
		return "FirstFit"
	case LastFit:
		return "LastFit"
	default:
		return "UnknownAllocationPolicy"
	}
}

// RemovalPolicy controls how a row is removed from a chunk.
type RemovalPolicy int

const (
	// SwapBack moves the last row into the removed row's slot: O(1), reorders.
	SwapBack RemovalPolicy = iota
	// StableRemove shifts every trailing row down by one: O(n-row), preserves order.
	StableRemove
)

func (p RemovalPolicy) String() string {
	switch p {
	case SwapBack:
		return "SwapBack"
	case StableRemove:
		return "StableRemove"
	default:
		return "UnknownRemovalPolicy"
	}
}

// StoragePolicies bundles the two configurable storage algorithms.
type StoragePolicies struct {
	Allocation AllocationPolicy
	Removal    RemovalPolicy
}

// Config holds the immutable-after-bootstrap knobs a WorldState is built
// with. It is assembled once via Option values before any entity is
// created.
type Config struct {
	ChunkCapacity          int
	Policies               StoragePolicies
	Deterministic          bool
	SimulationHz           uint32
	TickDelta              float64
	EcbWorkerCount         int
	ExpectedTempsPerWorker int
}

// DefaultConfig is a 128-row chunk, first-fit allocation, swap-back
// removal, non-deterministic by default (opt in for lockstep play), and a
// 60hz tick.
func DefaultConfig() Config {
	return Config{
		ChunkCapacity:          128,
		Policies:               StoragePolicies{Allocation: FirstFit, Removal: SwapBack},
		Deterministic:          false,
		SimulationHz:           60,
		TickDelta:              1.0 / 60.0,
		EcbWorkerCount:         1,
		ExpectedTempsPerWorker: 256,
	}
}

// Option mutates a Config during construction.
type Option func(*Config)

// WithChunkCapacity sets the fixed number of rows per chunk. Must be >= 1.
func WithChunkCapacity(capacity int) Option {
	return func(c *Config) {
		if capacity < 1 {
			capacity = 1
		}
		c.ChunkCapacity = capacity
	}
}

// WithAllocationPolicy sets the chunk-probing order.
func WithAllocationPolicy(p AllocationPolicy) Option {
	return func(c *Config) { c.Policies.Allocation = p }
}

// WithRemovalPolicy sets the row-remove algorithm.
func WithRemovalPolicy(p RemovalPolicy) Option {
	return func(c *Config) { c.Policies.Removal = p }
}

// WithDeterministic toggles lockstep-replay enforcement: strict type
// registration, required ECB sort keys, and no-grow command buffers.
func WithDeterministic(on bool) Option {
	return func(c *Config) { c.Deterministic = on }
}

// WithSimulationHz sets the tick rate and derives TickDelta = 1/hz.
func WithSimulationHz(hz uint32) Option {
	return func(c *Config) {
		if hz < 1 {
			hz = 1
		}
		c.SimulationHz = hz
		c.TickDelta = 1.0 / float64(hz)
	}
}

// WithEcbWorkerCount sets Config.EcbWorkerCount. The value is only stored:
// World.CreateCommandBuffer takes its worker count as an argument and does
// not read it.
func WithEcbWorkerCount(n int) Option {
	return func(c *Config) {
		if n < 1 {
			n = 1
		}
		c.EcbWorkerCount = n
	}
}

// WithExpectedTempsPerWorker sets the temp-entity stride S used to compute
// a temp entity's global slot: worker*S + local.
func WithExpectedTempsPerWorker(n int) Option {
	return func(c *Config) {
		if n < 1 {
			n = 1
		}
		c.ExpectedTempsPerWorker = n
	}
}

func newConfig(opts ...Option) Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}
