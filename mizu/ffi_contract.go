package mizu

// FFIType enumerates the type vocabulary the FFI bank's boundary contract
// passes across: {void, pointer, i32, u32, i64, u64, f32, f64}, per
// spec.md §6.
type FFIType int

const (
	FFIVoid FFIType = iota
	FFIPointer
	FFII32
	FFIU32
	FFII64
	FFIU64
	FFIF32
	FFIF64
)

// FFIEngine is the boundary contract the (out-of-scope) FFI instruction
// bank would drive: build a type list describing a foreign function's
// signature, freeze it into a callable interface, then invoke it passing
// argument registers through the interface. Only the contract is specified
// here — see spec.md §1 Non-goals.
type FFIEngine interface {
	// PushType appends one type to the in-progress signature.
	PushType(t FFIType) error
	// Freeze finalizes the pushed type list into a callable interface
	// handle. Returns an error if the type stack is empty or exceeds the
	// trampoline backend's argument limit.
	Freeze() (Handle, error)
	// Call invokes fn according to the signature behind iface, passing the
	// first N argument registers (N = len(args)) and returning the raw
	// result bits (meaningless if the signature's return type is FFIVoid).
	Call(iface Handle, fn uintptr, args []uint64) (uint64, error)
}
