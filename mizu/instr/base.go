// Package instr implements Mizu's base and floating-point instruction
// banks (spec.md §4.4, §4.5): pure functions over a *mizu.Thread that obey
// the mizu.Instruction calling convention.
//
// Grounded on original_source/instructions/core.hpp for exact semantics
// (the write-pc+1-before-jump convention, find_label's forward-then-
// backward scan, stack_store_u*'s mirror-to-out behavior) and on
// KTStephano-GVM/vm/exec.go for the surrounding Go dispatch idiom.
package instr

import "github.com/data-oriented-ir/mizu"

// Register holds one mizu.Instruction and the name it should be registered
// under, so a caller can register an entire bank in one loop.
type Register struct {
	Name string
	Fn   mizu.Instruction
}

// RegisterAll registers every base-bank instruction into reg, in a fixed
// order (required for binary-portable programs across processes that
// register the same banks).
func RegisterAll(reg *mizu.Registry) error {
	for _, r := range baseBank {
		if _, err := reg.Register(r.Name, r.Fn); err != nil {
			return err
		}
	}
	return nil
}

var baseBank = []Register{
	{"label", Label},
	{"find_label", FindLabel},
	{"halt", Halt},
	{"breakpoint", Breakpoint},
	{"load_immediate", LoadImmediate},
	{"load_upper_immediate", LoadUpperImmediate},
	{"convert_to_u64", ConvertToU64},
	{"convert_to_u32", ConvertToU32},
	{"convert_to_u16", ConvertToU16},
	{"convert_to_u8", ConvertToU8},
	{"stack_load_u64", StackLoadU64},
	{"stack_load_u32", StackLoadU32},
	{"stack_load_u16", StackLoadU16},
	{"stack_load_u8", StackLoadU8},
	{"stack_store_u64", StackStoreU64},
	{"stack_store_u32", StackStoreU32},
	{"stack_store_u16", StackStoreU16},
	{"stack_store_u8", StackStoreU8},
	{"stack_push", StackPush},
	{"stack_push_immediate", StackPushImmediate},
	{"stack_pop", StackPop},
	{"stack_pop_immediate", StackPopImmediate},
	{"offset_of_stack_bottom", OffsetOfStackBottom},
	{"jump_relative", JumpRelative},
	{"jump_relative_immediate", JumpRelativeImmediate},
	{"jump_to", JumpTo},
	{"branch_relative", BranchRelative},
	{"branch_relative_immediate", BranchRelativeImmediate},
	{"branch_to", BranchTo},
	{"set_if_equal", SetIfEqual},
	{"set_if_not_equal", SetIfNotEqual},
	{"set_if_less", SetIfLess},
	{"set_if_less_signed", SetIfLessSigned},
	{"set_if_greater_equal", SetIfGreaterEqual},
	{"set_if_greater_equal_signed", SetIfGreaterEqualSigned},
	{"add", Add},
	{"subtract", Subtract},
	{"multiply", Multiply},
	{"divide", Divide},
	{"modulus", Modulus},
	{"shift_left", ShiftLeft},
	{"shift_right_logical", ShiftRightLogical},
	{"shift_right_arithmetic", ShiftRightArithmetic},
	{"bitwise_and", BitwiseAnd},
	{"bitwise_or", BitwiseOr},
	{"bitwise_xor", BitwiseXor},
}

func regs(th *mizu.Thread) *[mizu.RegisterFileWords]uint64 { return th.Registers() }

// Label is a no-op carrying a 32-bit tag in its (a,b) immediate slot,
// discoverable at runtime by FindLabel.
func Label(th *mizu.Thread, op *mizu.Opcode) int {
	return th.PC + 1
}

// FindLabel scans forward from pc to the program end, then backward from
// pc to the program start, for a label instruction whose immediate matches
// this opcode's own immediate; writes the matching instruction's program
// index to out, or 0 if not found. Forward matches win over backward ones.
func FindLabel(th *mizu.Thread, op *mizu.Opcode) int {
	needle := op.Immediate()
	labelID, _ := th.Registry.LookupIDByName("label")
	found := -1

	for i := th.PC; i < len(th.Program); i++ {
		cur := &th.Program[i]
		if cur.Op == labelID && cur.Immediate() == needle {
			found = i
			break
		}
	}
	if found < 0 {
		for i := th.PC; i >= 0; i-- {
			cur := &th.Program[i]
			if cur.Op == labelID && cur.Immediate() == needle {
				found = i
				break
			}
		}
	}

	if found < 0 {
		regs(th)[op.Out] = 0
	} else {
		regs(th)[op.Out] = uint64(found)
	}
	return th.PC + 1
}

// Halt ends execution: no successor, thread (and in cooperative mode, its
// owning context) is marked done by the dispatcher when it sees -1.
func Halt(th *mizu.Thread, op *mizu.Opcode) int {
	return -1
}

// Breakpoint is a no-op host tooling can set program-visible markers on.
// Supplemented from original_source/instructions/debug.hpp, which the
// distilled spec.md dropped.
func Breakpoint(th *mizu.Thread, op *mizu.Opcode) int {
	return th.PC + 1
}

// LoadImmediate writes the 32-bit immediate into the low 32 bits of out,
// clearing the upper bits (this instruction replaces the whole register).
func LoadImmediate(th *mizu.Thread, op *mizu.Opcode) int {
	regs(th)[op.Out] = uint64(op.Immediate())
	return th.PC + 1
}

// LoadUpperImmediate ORs the 32-bit immediate into the upper 32 bits of
// out, preserving the lower 32 bits. Convention: load_immediate first,
// load_upper_immediate second, to assemble a 64-bit constant.
func LoadUpperImmediate(th *mizu.Thread, op *mizu.Opcode) int {
	regs(th)[op.Out] |= uint64(op.Immediate()) << 32
	return th.PC + 1
}

func ConvertToU64(th *mizu.Thread, op *mizu.Opcode) int {
	regs(th)[op.Out] = regs(th)[op.A]
	return th.PC + 1
}
func ConvertToU32(th *mizu.Thread, op *mizu.Opcode) int {
	regs(th)[op.Out] = uint64(uint32(regs(th)[op.A]))
	return th.PC + 1
}
func ConvertToU16(th *mizu.Thread, op *mizu.Opcode) int {
	regs(th)[op.Out] = uint64(uint16(regs(th)[op.A]))
	return th.PC + 1
}
func ConvertToU8(th *mizu.Thread, op *mizu.Opcode) int {
	regs(th)[op.Out] = uint64(uint8(regs(th)[op.A]))
	return th.PC + 1
}

func stackLoad(th *mizu.Thread, op *mizu.Opcode, n int) int {
	addr := th.SP + regs(th)[op.A]
	v, err := th.ReadStack(addr, n)
	if err != nil {
		th.Fail(err)
		return -1
	}
	regs(th)[op.Out] = v
	return th.PC + 1
}

func StackLoadU64(th *mizu.Thread, op *mizu.Opcode) int { return stackLoad(th, op, 8) }
func StackLoadU32(th *mizu.Thread, op *mizu.Opcode) int { return stackLoad(th, op, 4) }
func StackLoadU16(th *mizu.Thread, op *mizu.Opcode) int { return stackLoad(th, op, 2) }
func StackLoadU8(th *mizu.Thread, op *mizu.Opcode) int  { return stackLoad(th, op, 1) }

// stackStore writes the low n bytes of register a to sp+registers[b], and
// also mirrors the stored value into out, per core.hpp's stack_store_u*.
func stackStore(th *mizu.Thread, op *mizu.Opcode, n int) int {
	addr := th.SP + regs(th)[op.B]
	v := regs(th)[op.A]
	if err := th.WriteStack(addr, v, n); err != nil {
		th.Fail(err)
		return -1
	}
	regs(th)[op.Out] = v & (^uint64(0) >> (64 - 8*n))
	return th.PC + 1
}

func StackStoreU64(th *mizu.Thread, op *mizu.Opcode) int { return stackStore(th, op, 8) }
func StackStoreU32(th *mizu.Thread, op *mizu.Opcode) int { return stackStore(th, op, 4) }
func StackStoreU16(th *mizu.Thread, op *mizu.Opcode) int { return stackStore(th, op, 2) }
func StackStoreU8(th *mizu.Thread, op *mizu.Opcode) int  { return stackStore(th, op, 1) }

func checkSP(th *mizu.Thread) bool {
	if th.SP <= th.Env.StackBoundary || th.SP > th.Env.StackBottom {
		th.Fail(mizu.ErrStackBounds)
		return false
	}
	return true
}

func StackPush(th *mizu.Thread, op *mizu.Opcode) int {
	th.SP -= regs(th)[op.A]
	if !checkSP(th) {
		return -1
	}
	return th.PC + 1
}
func StackPushImmediate(th *mizu.Thread, op *mizu.Opcode) int {
	th.SP -= uint64(op.Immediate())
	if !checkSP(th) {
		return -1
	}
	return th.PC + 1
}
func StackPop(th *mizu.Thread, op *mizu.Opcode) int {
	th.SP += regs(th)[op.A]
	if !checkSP(th) {
		return -1
	}
	return th.PC + 1
}
func StackPopImmediate(th *mizu.Thread, op *mizu.Opcode) int {
	th.SP += uint64(op.Immediate())
	if !checkSP(th) {
		return -1
	}
	return th.PC + 1
}

// OffsetOfStackBottom computes sp - (stack_bottom - offset): the delta
// that would move sp to the absolute location offset bytes above the
// environment's stack bottom.
func OffsetOfStackBottom(th *mizu.Thread, op *mizu.Opcode) int {
	offset := int64(regs(th)[op.A])
	target := int64(th.Env.StackBottom) - offset
	regs(th)[op.Out] = uint64(int64(th.SP) - target)
	return th.PC + 1
}

func JumpRelative(th *mizu.Thread, op *mizu.Opcode) int {
	regs(th)[op.Out] = uint64(th.PC + 1)
	return th.PC + int(int64(regs(th)[op.A]))
}
func JumpRelativeImmediate(th *mizu.Thread, op *mizu.Opcode) int {
	regs(th)[op.Out] = uint64(th.PC + 1)
	return th.PC + int(op.ImmediateSigned())
}
func JumpTo(th *mizu.Thread, op *mizu.Opcode) int {
	regs(th)[op.Out] = uint64(th.PC + 1)
	return int(regs(th)[op.A])
}
func BranchRelative(th *mizu.Thread, op *mizu.Opcode) int {
	regs(th)[op.Out] = uint64(th.PC + 1)
	if regs(th)[op.A] != 0 {
		return th.PC + int(int64(regs(th)[op.B]))
	}
	return th.PC + 1
}
func BranchRelativeImmediate(th *mizu.Thread, op *mizu.Opcode) int {
	regs(th)[op.Out] = uint64(th.PC + 1)
	if regs(th)[op.A] != 0 {
		return th.PC + int(op.BranchImmediate())
	}
	return th.PC + 1
}
func BranchTo(th *mizu.Thread, op *mizu.Opcode) int {
	regs(th)[op.Out] = uint64(th.PC + 1)
	if regs(th)[op.A] != 0 {
		return int(regs(th)[op.B])
	}
	return th.PC + 1
}

func boolU64(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

func SetIfEqual(th *mizu.Thread, op *mizu.Opcode) int {
	regs(th)[op.Out] = boolU64(regs(th)[op.A] == regs(th)[op.B])
	return th.PC + 1
}
func SetIfNotEqual(th *mizu.Thread, op *mizu.Opcode) int {
	regs(th)[op.Out] = boolU64(regs(th)[op.A] != regs(th)[op.B])
	return th.PC + 1
}
func SetIfLess(th *mizu.Thread, op *mizu.Opcode) int {
	regs(th)[op.Out] = boolU64(regs(th)[op.A] < regs(th)[op.B])
	return th.PC + 1
}
func SetIfLessSigned(th *mizu.Thread, op *mizu.Opcode) int {
	regs(th)[op.Out] = boolU64(int64(regs(th)[op.A]) < int64(regs(th)[op.B]))
	return th.PC + 1
}
func SetIfGreaterEqual(th *mizu.Thread, op *mizu.Opcode) int {
	regs(th)[op.Out] = boolU64(regs(th)[op.A] >= regs(th)[op.B])
	return th.PC + 1
}
func SetIfGreaterEqualSigned(th *mizu.Thread, op *mizu.Opcode) int {
	regs(th)[op.Out] = boolU64(int64(regs(th)[op.A]) >= int64(regs(th)[op.B]))
	return th.PC + 1
}

func Add(th *mizu.Thread, op *mizu.Opcode) int {
	regs(th)[op.Out] = regs(th)[op.A] + regs(th)[op.B]
	return th.PC + 1
}
func Subtract(th *mizu.Thread, op *mizu.Opcode) int {
	regs(th)[op.Out] = regs(th)[op.A] - regs(th)[op.B]
	return th.PC + 1
}
func Multiply(th *mizu.Thread, op *mizu.Opcode) int {
	regs(th)[op.Out] = regs(th)[op.A] * regs(th)[op.B]
	return th.PC + 1
}

// Divide/modulus by zero is undefined per spec.md §4.4 and §7; this
// repository raises ErrDivideByZero rather than leaving host-architecture
// behavior (e.g. a trap) unspecified, since Go has no native integer trap
// to defer to.
func Divide(th *mizu.Thread, op *mizu.Opcode) int {
	if regs(th)[op.B] == 0 {
		th.Fail(mizu.ErrDivideByZero)
		return -1
	}
	regs(th)[op.Out] = regs(th)[op.A] / regs(th)[op.B]
	return th.PC + 1
}
func Modulus(th *mizu.Thread, op *mizu.Opcode) int {
	if regs(th)[op.B] == 0 {
		th.Fail(mizu.ErrDivideByZero)
		return -1
	}
	regs(th)[op.Out] = regs(th)[op.A] % regs(th)[op.B]
	return th.PC + 1
}
func ShiftLeft(th *mizu.Thread, op *mizu.Opcode) int {
	regs(th)[op.Out] = regs(th)[op.A] << (regs(th)[op.B] & 63)
	return th.PC + 1
}
func ShiftRightLogical(th *mizu.Thread, op *mizu.Opcode) int {
	regs(th)[op.Out] = regs(th)[op.A] >> (regs(th)[op.B] & 63)
	return th.PC + 1
}
func ShiftRightArithmetic(th *mizu.Thread, op *mizu.Opcode) int {
	regs(th)[op.Out] = uint64(int64(regs(th)[op.A]) >> (regs(th)[op.B] & 63))
	return th.PC + 1
}
func BitwiseAnd(th *mizu.Thread, op *mizu.Opcode) int {
	regs(th)[op.Out] = regs(th)[op.A] & regs(th)[op.B]
	return th.PC + 1
}
func BitwiseOr(th *mizu.Thread, op *mizu.Opcode) int {
	regs(th)[op.Out] = regs(th)[op.A] | regs(th)[op.B]
	return th.PC + 1
}
func BitwiseXor(th *mizu.Thread, op *mizu.Opcode) int {
	regs(th)[op.Out] = regs(th)[op.A] ^ regs(th)[op.B]
	return th.PC + 1
}
