// Package asmutil is a Go-level program builder: it constructs a
// mizu.Program opcode-by-opcode, by instruction name, against a registry.
// It replaces the *role* KTStephano-GVM/vm/compile.go's text assembler
// played for building test/example programs without parsing any source
// language — a text assembler is an explicit Non-goal of spec.md §1, so
// this package never parses text; it only assembles opcodes a caller
// builds programmatically.
package asmutil

import (
	"fmt"

	"github.com/data-oriented-ir/mizu"
)

// Builder accumulates a mizu.Program against reg.
type Builder struct {
	reg  *mizu.Registry
	prog mizu.Program
}

func NewBuilder(reg *mizu.Registry) *Builder {
	return &Builder{reg: reg}
}

func (b *Builder) id(name string) mizu.OperationID {
	id, ok := b.reg.LookupIDByName(name)
	if !ok {
		panic(fmt.Sprintf("asmutil: unknown instruction %q", name))
	}
	return id
}

// Emit appends a plain three-register-selector instruction.
func (b *Builder) Emit(name string, out, a, bSel uint16) *Builder {
	b.prog = append(b.prog, mizu.Opcode{Op: b.id(name), Out: out, A: a, B: bSel})
	return b
}

// EmitImmediate appends an instruction whose (a,b) slot carries a packed
// 32-bit unsigned immediate (load_immediate, load_upper_immediate,
// jump_relative_immediate, stack_push_immediate, stack_pop_immediate).
func (b *Builder) EmitImmediate(name string, out uint16, imm uint32) *Builder {
	op := mizu.Opcode{Op: b.id(name), Out: out}
	op.SetImmediate(imm)
	b.prog = append(b.prog, op)
	return b
}

// EmitImmediateSigned is EmitImmediate for signed 32-bit immediates.
func (b *Builder) EmitImmediateSigned(name string, out uint16, imm int32) *Builder {
	op := mizu.Opcode{Op: b.id(name), Out: out}
	op.SetImmediateSigned(imm)
	return b.append(op)
}

// EmitBranchImmediate appends a branch_*_immediate instruction, whose B
// slot carries a signed 16-bit offset.
func (b *Builder) EmitBranchImmediate(name string, out, a uint16, offset int16) *Builder {
	op := mizu.Opcode{Op: b.id(name), Out: out, A: a}
	op.SetBranchImmediate(offset)
	return b.append(op)
}

// EmitF32Immediate appends an instruction whose (a,b) slot carries a
// packed float32 immediate.
func (b *Builder) EmitF32Immediate(name string, out uint16, imm float32) *Builder {
	op := mizu.Opcode{Op: b.id(name), Out: out}
	op.SetImmediateF32(imm)
	return b.append(op)
}

func (b *Builder) append(op mizu.Opcode) *Builder {
	b.prog = append(b.prog, op)
	return b
}

// Len reports the current program length, useful for computing relative
// jump/branch offsets before the target is emitted.
func (b *Builder) Len() int { return len(b.prog) }

// Program returns the assembled program.
func (b *Builder) Program() mizu.Program { return b.prog }
