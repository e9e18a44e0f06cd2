package serialize

import (
	"fmt"
	"testing"

	"github.com/data-oriented-ir/mizu"
	"github.com/data-oriented-ir/mizu/instr"
)

func assert(t *testing.T, cond bool, format string, args ...any) {
	t.Helper()
	if !cond {
		t.Fatalf(fmt.Sprintf("%v %s", cond, format), args...)
	}
}

func testRegistry(t *testing.T) *mizu.Registry {
	t.Helper()
	reg := mizu.NewRegistry()
	assert(t, instr.RegisterAll(reg) == nil, "failed to register base bank")
	return reg
}

func sampleProgram(reg *mizu.Registry) mizu.Program {
	loadID, _ := reg.LookupIDByName("load_immediate")
	haltID, _ := reg.LookupIDByName("halt")
	op := mizu.Opcode{Op: loadID, Out: 1}
	op.SetImmediate(1234)
	return mizu.Program{op, {Op: haltID}}
}

func TestBinaryRoundTrip(t *testing.T) {
	reg := testRegistry(t)
	prog := sampleProgram(reg)

	data := ToBinary(prog, reg)
	assert(t, len(data) == len(prog)*recordSize, "expected %d bytes, got %d", len(prog)*recordSize, len(data))

	back := FromBinary(data, reg)
	assert(t, len(back) == len(prog), "expected %d opcodes back, got %d", len(prog), len(back))
	for i := range prog {
		assert(t, back[i] == prog[i], "opcode %d mismatch: got %+v want %+v", i, back[i], prog[i])
	}
}

func TestPortableRoundTrip(t *testing.T) {
	reg := testRegistry(t)
	prog := sampleProgram(reg)

	stackData := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	blob := ToPortable(prog, reg, stackData)

	env := mizu.NewEnvironment(mizu.DefaultStackWords)
	back, err := FromPortable(blob, reg, env)
	assert(t, err == nil, "FromPortable failed: %v", err)
	assert(t, len(back) == len(prog), "expected %d opcodes back, got %d", len(prog), len(back))

	tail := env.Stack[len(env.Stack)-len(stackData):]
	for i, b := range stackData {
		assert(t, tail[i] == b, "stack byte %d mismatch: got %d want %d", i, tail[i], b)
	}
}

func TestUnregisteredSentinel(t *testing.T) {
	reg := testRegistry(t)
	other := mizu.NewRegistry() // knows no instructions at all

	prog := sampleProgram(reg)
	data := ToBinary(prog, other)

	back := FromBinary(data, other)
	for i, op := range back {
		assert(t, op.Op == mizu.NullOperation, "expected opcode %d to deserialize as null for an unknown registry, got %d", i, op.Op)
	}
}
