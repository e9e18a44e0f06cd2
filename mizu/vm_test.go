package mizu_test

import (
	"fmt"
	"testing"

	"github.com/data-oriented-ir/mizu"
	"github.com/data-oriented-ir/mizu/asmutil"
	"github.com/data-oriented-ir/mizu/instr"
)

func assert(t *testing.T, cond bool, format string, args ...any) {
	t.Helper()
	if !cond {
		t.Fatalf(fmt.Sprintf("%v %s", cond, format), args...)
	}
}

func newTestRegistry(t *testing.T) *mizu.Registry {
	t.Helper()
	reg := mizu.NewRegistry()
	assert(t, instr.RegisterAll(reg) == nil, "failed to register base bank")
	assert(t, instr.RegisterAllFloat(reg) == nil, "failed to register float bank")
	return reg
}

func runToCompletion(t *testing.T, prog mizu.Program, reg *mizu.Registry) *mizu.Thread {
	t.Helper()
	th := mizu.NewThread(prog, reg, mizu.DefaultConfig())
	err := th.Run()
	assert(t, err == nil, "thread failed: %v (err=%v)", err, th.Err)
	return th
}

// TestArithmeticAndBranch loads two constants, adds and compares them, and
// uses branch_relative_immediate to skip an instruction conditionally.
func TestArithmeticAndBranch(t *testing.T) {
	reg := newTestRegistry(t)
	b := asmutil.NewBuilder(reg)

	b.EmitImmediate("load_immediate", 1, 10) // r1 = 10
	b.EmitImmediate("load_immediate", 2, 20) // r2 = 20
	b.Emit("add", 3, 1, 2)                   // r3 = r1 + r2
	b.Emit("set_if_less", 4, 1, 2)           // r4 = r1 < r2

	branchIdx := b.Len()
	b.EmitBranchImmediate("branch_relative_immediate", 31, 4, 0) // patched below

	b.EmitImmediate("load_immediate", 6, 999) // should be skipped
	landing := b.Len()
	b.EmitImmediate("load_immediate", 6, 42) // branch target
	b.Emit("halt", 0, 0, 0)

	prog := b.Program()
	prog[branchIdx].SetBranchImmediate(int16(landing - branchIdx))

	th := runToCompletion(t, prog, reg)
	regs := th.Registers()
	assert(t, regs[3] == 30, "expected r3 == 30, got %d", regs[3])
	assert(t, regs[4] == 1, "expected r4 == 1, got %d", regs[4])
	assert(t, regs[6] == 42, "expected branch to have skipped the 999 store, got r6=%d", regs[6])
}

// TestLabelResolution checks find_label's documented forward-then-backward
// scan: searching from a pc past the label finds it by scanning backward.
func TestLabelResolution(t *testing.T) {
	reg := newTestRegistry(t)
	b := asmutil.NewBuilder(reg)

	const tag = 42
	b.EmitImmediate("label", 0, tag)       // index 0
	b.EmitImmediate("find_label", 2, tag)  // index 1: searches from pc=1
	b.Emit("halt", 0, 0, 0)

	th := runToCompletion(t, b.Program(), reg)
	regs := th.Registers()
	assert(t, regs[2] == 0, "expected find_label to resolve to index 0, got %d", regs[2])
}

// TestStackPushPopBalance exercises stack_push/stack_pop and
// stack_store/stack_load together, verifying sp returns to its starting
// point once every push is matched by a pop.
func TestStackPushPopBalance(t *testing.T) {
	reg := newTestRegistry(t)
	b := asmutil.NewBuilder(reg)

	b.EmitImmediate("load_immediate", 1, 0)               // r1 = offset 0
	b.EmitImmediate("load_immediate", 2, 0x1234)           // r2 = value to store
	b.EmitImmediate("stack_push_immediate", 0, 8)          // reserve 8 bytes
	b.Emit("stack_store_u64", 3, 2, 1)                     // store r2 at sp+r1(0); mirror into r3
	b.Emit("stack_load_u64", 4, 1, 0)                      // r4 = load sp+r1(0)
	b.EmitImmediate("stack_pop_immediate", 0, 8)           // release the frame
	b.Emit("offset_of_stack_bottom", 5, 0, 0)              // r5 = sp - stack_bottom (relative to bottom-0)
	b.Emit("halt", 0, 0, 0)

	th := mizu.NewThread(b.Program(), reg, mizu.DefaultConfig())
	err := th.Run()
	assert(t, err == nil, "thread failed: %v", th.Err)
	regs := th.Registers()
	assert(t, regs[3] == 0x1234, "expected stack_store to mirror value into out, got %d", regs[3])
	assert(t, regs[4] == 0x1234, "expected stack_load to read back the stored value, got %d", regs[4])
	assert(t, th.SP == th.Env.StackBottom, "expected sp to return to stack bottom after balanced push/pop, got %d want %d", th.SP, th.Env.StackBottom)
}

// TestRecursiveFibonacci builds a genuinely recursive fib(n) using an
// explicit call/return convention (r1=argument, r2=return target index,
// r3=result), each call frame saving its own n and return address on the
// stack across its two recursive calls.
func TestRecursiveFibonacci(t *testing.T) {
	reg := newTestRegistry(t)
	b := asmutil.NewBuilder(reg)

	const (
		rOne      = 8
		rTwo      = 9
		rOff0     = 20
		rOff8     = 21
		rOff16    = 22
		rArg      = 1
		rRet      = 2
		rResult   = 3
		rCmp      = 10
		rSavedN   = 12
		rFibNMin1 = 13
		rLink     = 31
	)

	b.EmitImmediate("load_immediate", rOne, 1)
	b.EmitImmediate("load_immediate", rTwo, 2)
	b.EmitImmediate("load_immediate", rOff0, 0)
	b.EmitImmediate("load_immediate", rOff8, 8)
	b.EmitImmediate("load_immediate", rOff16, 16)

	const n = 10
	b.EmitImmediate("load_immediate", rArg, n)

	idxSetMainRet := b.Len()
	b.EmitImmediate("load_immediate", rRet, 0) // patched to mainRet below

	idxCallMain := b.Len()
	b.EmitImmediate("jump_relative_immediate", rLink, 0) // patched to fibStart below

	mainRet := b.Len()
	b.Emit("halt", 0, 0, 0)

	fibStart := b.Len()
	b.Emit("set_if_less", rCmp, rArg, rTwo)

	idxBranchBase := b.Len()
	b.EmitBranchImmediate("branch_relative_immediate", rLink, rCmp, 0) // patched to baseCase

	// recursive case
	b.EmitImmediate("stack_push_immediate", 0, 24)
	b.Emit("stack_store_u64", 0, rArg, rOff0) // save n
	b.Emit("stack_store_u64", 0, rRet, rOff8) // save return address
	b.Emit("subtract", rArg, rArg, rOne)      // r1 = n-1

	idxSetRet1 := b.Len()
	b.EmitImmediate("load_immediate", rRet, 0) // patched to retPoint1
	idxCall1 := b.Len()
	b.EmitImmediate("jump_relative_immediate", rLink, 0) // patched to fibStart

	retPoint1 := b.Len()
	b.Emit("stack_load_u64", rSavedN, rOff0, 0)       // r12 = saved n
	b.Emit("stack_load_u64", rRet, rOff8, 0)          // restore caller's return address
	b.Emit("stack_store_u64", 0, rResult, rOff16)     // save fib(n-1)
	b.Emit("subtract", rArg, rSavedN, rTwo)           // r1 = saved_n - 2

	idxSetRet2 := b.Len()
	b.EmitImmediate("load_immediate", rRet, 0) // patched to retPoint2
	idxCall2 := b.Len()
	b.EmitImmediate("jump_relative_immediate", rLink, 0) // patched to fibStart

	retPoint2 := b.Len()
	b.Emit("stack_load_u64", rFibNMin1, rOff16, 0) // r13 = fib(n-1)
	b.Emit("add", rResult, rFibNMin1, rResult)     // r3 = fib(n-1) + fib(n-2)
	b.Emit("stack_load_u64", rRet, rOff8, 0)       // restore caller's return address again
	b.EmitImmediate("stack_pop_immediate", 0, 24)
	b.Emit("jump_to", rLink, rRet, 0)

	baseCase := b.Len()
	b.Emit("convert_to_u64", rResult, rArg, 0) // result = n (0 or 1)
	b.Emit("jump_to", rLink, rRet, 0)

	prog := b.Program()
	prog[idxSetMainRet].SetImmediate(uint32(mainRet))
	prog[idxCallMain].SetImmediateSigned(int32(fibStart - idxCallMain))
	prog[idxBranchBase].SetBranchImmediate(int16(baseCase - idxBranchBase))
	prog[idxSetRet1].SetImmediate(uint32(retPoint1))
	prog[idxCall1].SetImmediateSigned(int32(fibStart - idxCall1))
	prog[idxSetRet2].SetImmediate(uint32(retPoint2))
	prog[idxCall2].SetImmediateSigned(int32(fibStart - idxCall2))

	th := runToCompletion(t, prog, reg)
	regs := th.Registers()
	assert(t, regs[rResult] == 55, "expected fib(10) == 55, got %d", regs[rResult])
	assert(t, th.SP == th.Env.StackBottom, "expected balanced stack after recursion, sp=%d bottom=%d", th.SP, th.Env.StackBottom)
}

// TestRegisterZeroAlwaysReset checks the universal invariant that register 0
// reads as zero at the start of every dispatched instruction, even if a
// prior instruction wrote into it.
func TestRegisterZeroAlwaysReset(t *testing.T) {
	reg := newTestRegistry(t)
	b := asmutil.NewBuilder(reg)

	b.EmitImmediate("load_immediate", 0, 777) // writes into r0
	b.Emit("convert_to_u64", 1, 0, 0)          // r1 = r0, but r0 was reset to 0 first
	b.Emit("halt", 0, 0, 0)

	th := runToCompletion(t, b.Program(), reg)
	regs := th.Registers()
	assert(t, regs[1] == 0, "expected register 0 to have been reset before dispatch, got r1=%d", regs[1])
}

// TestDivideByZero checks that divide by zero fails the thread with
// ErrDivideByZero instead of panicking or producing an undefined value.
func TestDivideByZero(t *testing.T) {
	reg := newTestRegistry(t)
	b := asmutil.NewBuilder(reg)

	b.EmitImmediate("load_immediate", 1, 5)
	b.EmitImmediate("load_immediate", 2, 0)
	b.Emit("divide", 3, 1, 2)
	b.Emit("halt", 0, 0, 0)

	th := mizu.NewThread(b.Program(), reg, mizu.DefaultConfig())
	err := th.Run()
	assert(t, err == mizu.ErrDivideByZero, "expected ErrDivideByZero, got %v", err)
}
