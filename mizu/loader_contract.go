package mizu

// Handle is an opaque resource reference crossing one of the boundary
// contracts below (a loaded shared library, a frozen FFI interface, a SIMD
// vector/mask). It is register-sized so it can live directly in a Mizu
// register.
type Handle uint64

// DynamicLibraryLoader is the boundary contract the FFI bank would consume.
// Only the contract is specified here; no concrete loader ships with this
// repository (spec.md §1 Non-goals: the dynamic-library loader is an
// external collaborator, specified only by the primitive capabilities the
// FFI bank needs from it).
type DynamicLibraryLoader interface {
	// LoadShared opens a shared library at path, optionally decorating the
	// path with the platform's native library naming convention (e.g.
	// trying "lib<path>.so" after a bare path fails).
	LoadShared(path string, appendPlatformDecorator bool) (Handle, error)
	// Lookup resolves a symbol name within a loaded library to a callable
	// function pointer.
	Lookup(name string, lib Handle) (uintptr, error)
	// Close releases a previously loaded library.
	Close(lib Handle) error
}
