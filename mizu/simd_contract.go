package mizu

// SIMDBank is the boundary contract the (out-of-scope) SIMD instruction
// bank would implement: opaque vector and mask handles, one per register,
// with operations mapping one-to-one onto target-width SIMD intrinsics.
// Only the core's requirement — that such a handle can live in a single
// register — is specified; see spec.md §1 Non-goals.
type SIMDBank interface {
	// VectorWidth reports how many lanes a vector handle carries.
	VectorWidth() int
}
