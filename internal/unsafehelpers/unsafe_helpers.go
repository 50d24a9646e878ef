// Package unsafehelpers collects arcclock's raw-memory and sizing helpers.
// pkg/hash.go and pkg/config.go still import `unsafe` directly (for
// unsafe.Pointer and unsafe.Sizeof).  Every helper is documented with clear
// pre‑/post‑conditions.
//
// ⚠️  **DISCLAIMER**   These helpers deliberately break the Go memory‑safety
// model for the sake of zero‑allocation conversions.  Use ONLY inside this
// repository; they are not part of the public API and may change without
// notice.  Misuse will lead to subtle data‑races or garbage‑collector
// corruption.
//
// All functions are `go:linkname`‑free, cgo‑free and pure Go 1.24.
//
// © 2025 arcclock authors. MIT License.

package unsafehelpers

import "unsafe"

/* -------------------------------------------------------------------------
   1. Raw memory views
   ------------------------------------------------------------------------- */

// ByteSliceFrom returns a []byte view of raw memory starting at `ptr` with the
// given length.  Caller must ensure the memory block is at least `length`
// bytes.  Used by pkg/hash.go to hash scalar keys/versions where only a
// pointer and a static size are known at the call site.
func ByteSliceFrom(ptr unsafe.Pointer, length uintptr) []byte {
    return unsafe.Slice((*byte)(ptr), length)
}

/* -------------------------------------------------------------------------
   2. Sizing helpers
   ------------------------------------------------------------------------- */

// AlignUp rounds x up to the nearest multiple of align (which must be a power
// of two). Used to pre-size the slab's backing slice to a round boundary so
// early growth spurts don't pay for several small reallocations in a row.
func AlignUp(x, align uintptr) uintptr {
    return (x + align - 1) &^ (align - 1)
}

// IsPowerOfTwo returns true if x is a power of two (exactly one bit set).
// Used to validate the shard count a Cache is constructed with, since shard
// routing masks a hash with shards-1 and that only tiles the hash space
// evenly when shards is a power of two.
func IsPowerOfTwo(x uintptr) bool {
    return x != 0 && (x&(x-1)) == 0
}
