package cache

// config.go defines the internal configuration object and the set of
// functional options that can be passed to New[K,Ver,V]. A generic Option is
// used so that callbacks retain full type-safety with respect to the
// concrete key, version and value types chosen by the caller.
//
// Design notes
// ------------
// • All fields are initialised with sensible defaults in defaultConfig().
// • Options never allocate unless strictly necessary — they just capture
//   pointers to external objects (registry, logger, callback...).
// • The struct itself is unexported: callers can only influence behaviour
//   via Option[K,Ver,V], which keeps the door open for new knobs later
//   without breaking existing call sites.
//
// © 2025 arcclock authors. MIT License.

import (
	"errors"
	"hash/maphash"
	"unsafe"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/arcclock/arcclock/internal/clockpro"
	"github.com/arcclock/arcclock/internal/unsafehelpers"
)

// WeightFn computes the weight of a (key, version, value) triple. The
// returned weight must be stable for the lifetime of the entry: the cache
// never re-queries it between Insert and the entry's eventual eviction or
// removal.
type WeightFn[K comparable, Ver comparable, V any] func(key K, ver Ver, val V) uint32

// EjectReason re-exports clockpro.EvictionReason so callers never need to
// import the internal package directly.
type EjectReason = clockpro.EvictionReason

// EjectCallback is invoked, after the shard lock is released, once for every
// Insert call that hands back a resident entry: the last entry CLOCK-Pro
// evicted during the call (when several are evicted, only the last is
// passed), or, for an update in place that evicts nothing, the replaced
// previous value. Explicit Remove calls never trigger it. The callback runs
// in the calling goroutine and must not block; it may call back into the
// same Cache. Heavy work should be handed off to another goroutine.
type EjectCallback[K comparable, Ver comparable, V any] func(key K, ver Ver, val V, reason EjectReason)

// Option configures a Cache[K,Ver,V] at construction time.
type Option[K comparable, Ver comparable, V any] func(*config[K, Ver, V])

// config bundles every knob that influences cache behaviour. All fields are
// immutable once the Cache is constructed.
type config[K comparable, Ver comparable, V any] struct {
	capacity uint32
	shards   uint8

	weightFn WeightFn[K, Ver, V]
	hasher   Hasher[K, Ver]

	registry  *prometheus.Registry
	logger    *zap.Logger
	debugLog  bool
	ejectCb   EjectCallback[K, Ver, V]
}

func defaultWeightFn[K comparable, Ver comparable, V any](_ K, _ Ver, v V) uint32 {
	w := uint32(unsafe.Sizeof(v))
	if w == 0 {
		return 1
	}
	return w
}

func defaultConfig[K comparable, Ver comparable, V any](capacity uint32, shards uint8) *config[K, Ver, V] {
	return &config[K, Ver, V]{
		capacity: capacity,
		shards:   shards,
		weightFn: defaultWeightFn[K, Ver, V],
		hasher:   newDefaultHasher[K, Ver](maphash.MakeSeed()),
	}
}

/*
   ---------------- Functional options exposed to users ----------------
*/

// WithWeightFn overrides the default size-based weight calculation. The
// provided function must be cheap, deterministic and pure.
func WithWeightFn[K comparable, Ver comparable, V any](fn WeightFn[K, Ver, V]) Option[K, Ver, V] {
	return func(c *config[K, Ver, V]) {
		if fn != nil {
			c.weightFn = fn
		}
	}
}

// WithHasher overrides the default maphash-based combined (key, version)
// hash. Use this when keys have domain structure the default byte-wise hash
// cannot exploit (e.g. a pre-computed content hash).
func WithHasher[K comparable, Ver comparable, V any](h Hasher[K, Ver]) Option[K, Ver, V] {
	return func(c *config[K, Ver, V]) {
		if h != nil {
			c.hasher = h
		}
	}
}

// WithMetrics enables Prometheus metrics collection for the cache instance.
// Passing nil disables metrics (the default).
func WithMetrics[K comparable, Ver comparable, V any](reg *prometheus.Registry) Option[K, Ver, V] {
	return func(c *config[K, Ver, V]) {
		c.registry = reg
	}
}

// WithLogger plugs an external zap.Logger. Structural events (oversized
// rejections, ghost creation/resurrection) are only traced through it when
// WithDebugLogging is also enabled; the hot path never logs.
func WithLogger[K comparable, Ver comparable, V any](l *zap.Logger) Option[K, Ver, V] {
	return func(c *config[K, Ver, V]) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithDebugLogging controls whether the configured logger (see WithLogger)
// is actually wired into each shard's clockpro.Core. A logger can be set for
// other purposes (e.g. startup diagnostics) without paying for per-entry
// tracing; enabling this turns that tracing on.
func WithDebugLogging[K comparable, Ver comparable, V any](enabled bool) Option[K, Ver, V] {
	return func(c *config[K, Ver, V]) {
		c.debugLog = enabled
	}
}

// WithEjectCallback registers a function invoked whenever Insert hands back
// a resident entry (see EjectCallback). It does not fire for explicit Remove
// calls. The callback runs in the calling goroutine and must not block.
func WithEjectCallback[K comparable, Ver comparable, V any](cb EjectCallback[K, Ver, V]) Option[K, Ver, V] {
	return func(c *config[K, Ver, V]) {
		c.ejectCb = cb
	}
}

/*
   ---------------- Helper: apply options & validate ----------------
*/

func applyOptions[K comparable, Ver comparable, V any](cfg *config[K, Ver, V], opts []Option[K, Ver, V]) error {
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.capacity == 0 {
		return ErrInvalidCapacity
	}
	if !unsafehelpers.IsPowerOfTwo(uintptr(cfg.shards)) {
		return ErrInvalidShardCount
	}
	return nil
}

var (
	// ErrInvalidCapacity is returned by New when capacity is 0.
	ErrInvalidCapacity = errors.New("cache: capacity must be > 0")
	// ErrInvalidShardCount is returned by New when shards is 0 or not a
	// power of two.
	ErrInvalidShardCount = errors.New("cache: shards must be a power of two and > 0")
)
