// Package concurrency implements Mizu's concurrency bank (spec.md §4.6):
// fork/join, buffered channels, shared read/write mutexes, and cooperative
// sleep, against a single mizu.Scheduler contract. This file holds the
// instruction bodies shared verbatim by both build variants; only what
// Scheduler does under the hood differs.
//
// Grounded on original_source/instructions/parallel.hpp (instruction
// signatures and the block-vs-rewind split across its
// MIZU_NO_HARDWARE_THREADS branches).
package concurrency

import "github.com/data-oriented-ir/mizu"

type Register struct {
	Name string
	Fn   mizu.Instruction
}

// RegisterAll registers the full concurrency bank.
func RegisterAll(reg *mizu.Registry) error {
	for _, r := range bank {
		if _, err := reg.Register(r.Name, r.Fn); err != nil {
			return err
		}
	}
	return nil
}

var bank = []Register{
	{"fork_relative", ForkRelative},
	{"fork_relative_immediate", ForkRelativeImmediate},
	{"fork_to", ForkTo},
	{"join_thread", JoinThread},
	{"sleep_microseconds", SleepMicroseconds},
	{"channel_create", ChannelCreate},
	{"channel_close", ChannelClose},
	{"channel_send", ChannelSend},
	{"channel_receive", ChannelReceive},
	{"mutex_create", MutexCreate},
	{"mutex_free", MutexFree},
	{"mutex_write_lock", MutexWriteLock},
	{"mutex_try_write_lock", MutexTryWriteLock},
	{"mutex_write_unlock", MutexWriteUnlock},
	{"mutex_read_lock", MutexReadLock},
	{"mutex_try_read_lock", MutexTryReadLock},
	{"mutex_read_unlock", MutexReadUnlock},
}

func regs(th *mizu.Thread) *[mizu.RegisterFileWords]uint64 { return th.Registers() }

func ForkRelative(th *mizu.Thread, op *mizu.Opcode) int {
	target := th.PC + int(int64(regs(th)[op.A]))
	regs(th)[op.Out] = th.Sched.Fork(th, target)
	return th.PC + 1
}

func ForkRelativeImmediate(th *mizu.Thread, op *mizu.Opcode) int {
	target := th.PC + int(op.ImmediateSigned())
	regs(th)[op.Out] = th.Sched.Fork(th, target)
	return th.PC + 1
}

func ForkTo(th *mizu.Thread, op *mizu.Opcode) int {
	target := int(regs(th)[op.A])
	regs(th)[op.Out] = th.Sched.Fork(th, target)
	return th.PC + 1
}

// JoinThread waits for the provided thread to finish and frees its
// reference; registers[a] becomes registers[b].
func JoinThread(th *mizu.Thread, op *mizu.Opcode) int {
	handle := regs(th)[op.A]
	if handle == 0 {
		return th.PC + 1
	}
	if !th.Sched.Join(th, handle) {
		return th.PC // rewind: re-run this instruction next turn
	}
	regs(th)[op.A] = regs(th)[op.B]
	return th.PC + 1
}

func SleepMicroseconds(th *mizu.Thread, op *mizu.Opcode) int {
	if !th.Sched.Sleep(th, regs(th)[op.A]) {
		return th.PC
	}
	return th.PC + 1
}

func ChannelCreate(th *mizu.Thread, op *mizu.Opcode) int {
	regs(th)[op.Out] = th.Sched.ChannelCreate(regs(th)[op.A])
	return th.PC + 1
}

func ChannelClose(th *mizu.Thread, op *mizu.Opcode) int {
	v, err := th.Sched.ChannelClose(regs(th)[op.A], regs(th)[op.B])
	if err != nil {
		th.Fail(err)
		return -1
	}
	regs(th)[op.A] = v
	return th.PC + 1
}

func ChannelSend(th *mizu.Thread, op *mizu.Opcode) int {
	ok, err := th.Sched.ChannelSend(th, regs(th)[op.A], regs(th)[op.B])
	if err != nil {
		th.Fail(err)
		return -1
	}
	if !ok {
		return th.PC
	}
	return th.PC + 1
}

func ChannelReceive(th *mizu.Thread, op *mizu.Opcode) int {
	v, ok, err := th.Sched.ChannelReceive(th, regs(th)[op.A])
	if err != nil {
		th.Fail(err)
		return -1
	}
	if !ok {
		return th.PC
	}
	regs(th)[op.Out] = v
	return th.PC + 1
}

func MutexCreate(th *mizu.Thread, op *mizu.Opcode) int {
	regs(th)[op.Out] = th.Sched.MutexCreate()
	return th.PC + 1
}

func MutexFree(th *mizu.Thread, op *mizu.Opcode) int {
	regs(th)[op.A] = th.Sched.MutexFree(regs(th)[op.A], regs(th)[op.B])
	return th.PC + 1
}

func MutexWriteLock(th *mizu.Thread, op *mizu.Opcode) int {
	if !th.Sched.MutexWriteLock(th, regs(th)[op.A]) {
		return th.PC
	}
	return th.PC + 1
}

func MutexTryWriteLock(th *mizu.Thread, op *mizu.Opcode) int {
	regs(th)[op.Out] = th.Sched.MutexTryWriteLock(regs(th)[op.A])
	return th.PC + 1
}

func MutexWriteUnlock(th *mizu.Thread, op *mizu.Opcode) int {
	th.Sched.MutexWriteUnlock(regs(th)[op.A])
	return th.PC + 1
}

func MutexReadLock(th *mizu.Thread, op *mizu.Opcode) int {
	if !th.Sched.MutexReadLock(th, regs(th)[op.A]) {
		return th.PC
	}
	return th.PC + 1
}

func MutexTryReadLock(th *mizu.Thread, op *mizu.Opcode) int {
	regs(th)[op.Out] = th.Sched.MutexTryReadLock(regs(th)[op.A])
	return th.PC + 1
}

func MutexReadUnlock(th *mizu.Thread, op *mizu.Opcode) int {
	th.Sched.MutexReadUnlock(regs(th)[op.A])
	return th.PC + 1
}
