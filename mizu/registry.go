package mizu

import (
	"fmt"
	"reflect"
)

// Instruction is the calling convention every dispatched function obeys:
// read/write the thread's registers and stack, then return the pc the
// dispatcher should run next. This is the trampoline-loop shape spec.md §9
// sanctions in place of a literal tail call; nextPC < 0 signals the thread
// is done (halt or the null-operation sentinel).
type Instruction func(th *Thread, op *Opcode) (nextPC int)

// Registry is a bi-directional map between instruction names, stable
// numeric IDs, and instruction function identities, assigned in
// registration order. Grounded on KTStephano-GVM/vm/bytecode.go's
// strToInstrMap/instrToStrMap, generalized from a fixed enum built in
// init() to a dynamic Register call.
type Registry struct {
	byID   []Instruction
	names  []string
	idByFn map[uintptr]OperationID
	idByName map[string]OperationID
}

// NewRegistry returns a registry with ID 0 reserved for the null
// "program_end" sentinel, per spec.md §4.1.
func NewRegistry() *Registry {
	r := &Registry{
		idByFn:   make(map[uintptr]OperationID),
		idByName: make(map[string]OperationID),
	}
	r.byID = append(r.byID, nil)
	r.names = append(r.names, "program_end")
	return r
}

// fnIdentity returns a stable key for comparing Go function values, since
// Go offers no native function-pointer equality usable as a map key across
// separately obtained references to the same function.
func fnIdentity(fn Instruction) uintptr {
	return reflect.ValueOf(fn).Pointer()
}

// Register assigns the next stable ID to name/fn. Both must be unique;
// re-registering an existing name or function is an error (the spec calls
// re-registration undefined; this repository rejects it outright rather
// than silently shadowing an entry).
func (r *Registry) Register(name string, fn Instruction) (OperationID, error) {
	if _, ok := r.idByName[name]; ok {
		return 0, fmt.Errorf("mizu: instruction %q already registered", name)
	}
	key := fnIdentity(fn)
	if _, ok := r.idByFn[key]; ok {
		return 0, fmt.Errorf("mizu: function for instruction %q already registered under another name", name)
	}

	id := OperationID(len(r.byID))
	r.byID = append(r.byID, fn)
	r.names = append(r.names, name)
	r.idByName[name] = id
	r.idByFn[key] = id
	return id, nil
}

// MustRegister panics on a registration error; intended for package-level
// init()-style registration where a collision is a programming error.
func (r *Registry) MustRegister(name string, fn Instruction) OperationID {
	id, err := r.Register(name, fn)
	if err != nil {
		panic(err)
	}
	return id
}

func (r *Registry) LookupIDByName(name string) (OperationID, bool) {
	id, ok := r.idByName[name]
	return id, ok
}

func (r *Registry) LookupIDByFunc(fn Instruction) (OperationID, bool) {
	id, ok := r.idByFn[fnIdentity(fn)]
	return id, ok
}

func (r *Registry) LookupName(id OperationID) (string, bool) {
	if id >= OperationID(len(r.names)) {
		return "", false
	}
	return r.names[id], true
}

func (r *Registry) LookupInstruction(id OperationID) (Instruction, bool) {
	if id >= OperationID(len(r.byID)) {
		return nil, false
	}
	return r.byID[id], true
}

// Len reports how many instructions are registered, including the
// reserved null sentinel at ID 0.
func (r *Registry) Len() int { return len(r.byID) }

// Release discards the lookup tables, for reclaiming memory once
// serialization is no longer needed (e.g. after a program has been fully
// loaded and no further names/IDs will be resolved).
func (r *Registry) Release() {
	r.byID = nil
	r.names = nil
	r.idByFn = nil
	r.idByName = nil
}
