package mizu

import (
	"encoding/binary"
	"math"
)

// OperationID is a stable registry ID for an instruction's function
// identity. ID 0 is always the null/program_end sentinel.
type OperationID uint64

// NullOperation is the reserved ID for "program end" (also what an unknown
// op-id deserializes to).
const NullOperation OperationID = 0

// Opcode is one instruction record in a program: an operation identity plus
// three register selectors. Source opcodes store the registry ID directly
// (see DESIGN.md: ID-based dispatch, the alternative spec.md §9 explicitly
// sanctions to function-identity storage), so no pointer-vs-ID swap is
// needed at serialization time.
type Opcode struct {
	Op  OperationID
	Out uint16
	A   uint16
	B   uint16
}

// Program is an externally-owned, contiguous instruction stream. The
// dispatcher never mutates it.
type Program []Opcode

// The (A, B) selector pair occupies the same 4 bytes whether read as two
// u16s or reinterpreted as a packed immediate. We rebuild that 4-byte
// window on demand rather than using unsafe, since Opcode already stores A
// and B as adjacent uint16 fields in declaration order.

func (op *Opcode) selectorBytes() [4]byte {
	var b [4]byte
	binary.LittleEndian.PutUint16(b[0:2], op.A)
	binary.LittleEndian.PutUint16(b[2:4], op.B)
	return b
}

func (op *Opcode) setSelectorBytes(b [4]byte) {
	op.A = binary.LittleEndian.Uint16(b[0:2])
	op.B = binary.LittleEndian.Uint16(b[2:4])
}

// Immediate reinterprets the (A, B) slot as an unsigned 32-bit immediate.
func (op *Opcode) Immediate() uint32 {
	b := op.selectorBytes()
	return binary.LittleEndian.Uint32(b[:])
}

// SetImmediate packs a 32-bit unsigned immediate into (A, B).
func (op *Opcode) SetImmediate(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	op.setSelectorBytes(b)
}

// ImmediateSigned reinterprets the (A, B) slot as a signed 32-bit immediate.
func (op *Opcode) ImmediateSigned() int32 {
	return int32(op.Immediate())
}

// SetImmediateSigned packs a signed 32-bit immediate into (A, B).
func (op *Opcode) SetImmediateSigned(v int32) {
	op.SetImmediate(uint32(v))
}

// BranchImmediate reinterprets B alone as a signed 16-bit immediate, used
// by the branch_*_immediate instructions.
func (op *Opcode) BranchImmediate() int16 {
	return int16(op.B)
}

// SetBranchImmediate packs a signed 16-bit immediate into B.
func (op *Opcode) SetBranchImmediate(v int16) {
	op.B = uint16(v)
}

// ImmediateF32 reinterprets the (A, B) slot as an IEEE-754 float32.
func (op *Opcode) ImmediateF32() float32 {
	return math.Float32frombits(op.Immediate())
}

// SetImmediateF32 packs a float32 into (A, B).
func (op *Opcode) SetImmediateF32(v float32) {
	op.SetImmediate(math.Float32bits(v))
}

// LowerImmediate/UpperImmediate let an f64 or host pointer be assembled
// across two opcodes (load_immediate then load_upper_immediate), each
// carrying one 32-bit half in its own (A, B) slot.
func (op *Opcode) LowerImmediate() uint32 { return op.Immediate() }
func (op *Opcode) UpperImmediate() uint32 { return op.Immediate() }
