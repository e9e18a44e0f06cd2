package concurrency_test

import (
	"fmt"
	"testing"

	"github.com/data-oriented-ir/mizu"
	"github.com/data-oriented-ir/mizu/asmutil"
	"github.com/data-oriented-ir/mizu/concurrency"
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
	assert(t, concurrency.RegisterAll(reg) == nil, "failed to register concurrency bank")
	return reg
}

// TestChannelPingPong forks a child thread that receives a value from a
// channel, doubles it, and sends the result back; the parent sends a seed
// value, joins the child, and receives the doubled result. Exercises fork,
// join, channel_create/send/receive and the block-or-rewind contract under
// whichever concurrency build variant is active (preemptive by default).
func TestChannelPingPong(t *testing.T) {
	reg := newTestRegistry(t)

	const (
		rChan   = 1
		rSeed   = 2
		rTwo    = 3
		rTmp    = 4
		rThread = 5
		rResult = 7
	)

	b := asmutil.NewBuilder(reg)

	b.Emit("channel_create", rChan, 0, 0) // capacity = registers[0], always reset to 0 before dispatch
	b.EmitImmediate("load_immediate", rSeed, 21)
	b.EmitImmediate("load_immediate", rTwo, 2)

	childIdx := b.Len()
	b.EmitImmediate("fork_relative_immediate", rThread, 0) // patched below

	// parent: send seed, receive doubled result, join, halt
	b.Emit("channel_send", 0, rChan, rSeed)
	b.Emit("channel_receive", rResult, rChan, 0)
	b.Emit("join_thread", 0, rThread, 0)
	b.Emit("halt", 0, 0, 0)

	childStart := b.Len()
	b.Emit("channel_receive", rTmp, rChan, 0)
	b.Emit("multiply", rTmp, rTmp, rTwo)
	b.Emit("channel_send", 0, rChan, rTmp)
	b.Emit("halt", 0, 0, 0)

	prog := b.Program()
	prog[childIdx].SetImmediateSigned(int32(childStart - childIdx))

	cfg := mizu.DefaultConfig()
	th := mizu.NewThread(prog, reg, cfg)
	th.Sched = concurrency.NewScheduler()

	err := concurrency.RunThread(th)
	assert(t, err == nil, "parent thread failed: %v", th.Err)

	regs := th.Registers()
	assert(t, regs[rResult] == 42, "expected ping-pong result 42, got %d", regs[rResult])
}
