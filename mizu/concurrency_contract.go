package mizu

// Scheduler is the one contract the concurrency bank's instructions are
// written against; mizu/concurrency provides two build-tagged
// implementations (preemptive OS threads, cooperative round-robin
// coroutines) behind it. Living in the root package avoids an import cycle:
// Thread needs to hold a Scheduler, and any concrete Scheduler needs to
// spawn/drive Threads.
//
// Per spec.md §9, the two modes share this single contract; everything an
// instruction does beyond asking the Scheduler to block-or-rewind is
// identical in both builds.
type Scheduler interface {
	// Fork copies th's environment and begins executing a new context at
	// pc. Returns an opaque, non-zero thread handle.
	Fork(th *Thread, pc int) uint64

	// Join blocks (Mode P) until the context behind handle is done. Mode C
	// instead reports not-done so the instruction can rewind pc and retry
	// on the next scheduler turn.
	Join(th *Thread, handle uint64) (done bool)

	// Sleep blocks (Mode P) until micros microseconds have elapsed. Mode C
	// instead reports not-done on each turn until the deadline (kept by the
	// scheduler per calling context) has passed.
	Sleep(th *Thread, micros uint64) (done bool)

	ChannelCreate(capacity uint64) uint64
	ChannelClose(handle, fallback uint64) (uint64, error)
	// ChannelSend blocks/rewinds until there is room, then returns true.
	ChannelSend(th *Thread, handle, value uint64) (ok bool, err error)
	// ChannelReceive blocks/rewinds until a value is available.
	ChannelReceive(th *Thread, handle uint64) (value uint64, ok bool, err error)

	MutexCreate() uint64
	MutexFree(handle, fallback uint64) uint64
	MutexWriteLock(th *Thread, handle uint64) (ok bool)
	MutexTryWriteLock(handle uint64) uint64
	MutexWriteUnlock(handle uint64)
	MutexReadLock(th *Thread, handle uint64) (ok bool)
	MutexTryReadLock(handle uint64) uint64
	MutexReadUnlock(handle uint64)
}
