//go:build mizu_cooperative

// Mode C: a single-threaded round-robin coroutine scheduler. Grounded on
// original_source/mizu/opcode.hpp's coroutine struct (contexts, current
// context cursor, next()/start()/done()) and on
// original_source/instructions/parallel.hpp's MIZU_NO_HARDWARE_THREADS
// branches (pc-rewind instead of blocking on contention).
package concurrency

import (
	"time"

	"github.com/data-oriented-ir/mizu"
)

// ModeName identifies which build variant is compiled in.
const ModeName = "cooperative"

type channelState struct {
	buf    []uint64
	cap    uint64
	closed bool
}

// mutexState tracks a reader/writer lock the way original_source's register
// encoding does (0 unlocked, -1 exclusive, n>0 readers), but through a
// handle table rather than in the caller's register directly. The spec's
// only hard requirement is the block-or-rewind contract and mutual
// exclusion, not a specific bit layout, so this repository keeps Mode P and
// Mode C's handle shape uniform rather than reproducing the original's
// register-as-lock-state trick.
type mutexState struct {
	state int64
}

// Scheduler is Mode C's mizu.Scheduler: a process-wide, single-threaded
// round-robin scheduler over a slice of *mizu.Thread contexts.
type Scheduler struct {
	contexts []*mizu.Thread
	cursor   int

	// sleepDeadline holds each sleeping context's wakeup time inline,
	// keyed by context identity, instead of a heap-allocated timestamp
	// addressed through a register — spec.md §9's preferred rewrite of
	// sleep_microseconds's state storage.
	sleepDeadline map[*mizu.Thread]time.Time

	nextChanID  uint64
	channels    map[uint64]*channelState
	nextMutexID uint64
	mutexes     map[uint64]*mutexState
}

var _ mizu.Scheduler = (*Scheduler)(nil)

// NewScheduler constructs an empty Mode C scheduler. Call Start with the
// program's entry thread before running it.
func NewScheduler() *Scheduler {
	return &Scheduler{
		cursor:        -1,
		sleepDeadline: make(map[*mizu.Thread]time.Time),
		channels:      make(map[uint64]*channelState),
		mutexes:       make(map[uint64]*mutexState),
		nextChanID:    1,
		nextMutexID:   1,
	}
}

// Start registers th as context 0, the un-joinable "main thread" (mirroring
// original_source/instructions/parallel.hpp's "Can't join the main thread").
func (s *Scheduler) Start(th *mizu.Thread) {
	th.Sched = s
	s.contexts = append(s.contexts, th)
}

// Done reports whether every context has finished.
func (s *Scheduler) Done() bool {
	for _, c := range s.contexts {
		if !c.Done {
			return false
		}
	}
	return true
}

// Next advances the round-robin cursor to the next live context and
// dispatches exactly one instruction on it. Returns false if no live
// context was found (all done).
func (s *Scheduler) Next() bool {
	n := len(s.contexts)
	if n == 0 {
		return false
	}
	for i := 0; i < n; i++ {
		s.cursor = (s.cursor + 1) % n
		c := s.contexts[s.cursor]
		if !c.Done {
			c.Step()
			return true
		}
	}
	return false
}

// RunAll repeatedly calls Next until every context is done — the public
// dispatcher loop spec.md §4.6 describes for cooperative mode.
func (s *Scheduler) RunAll() {
	for !s.Done() {
		if !s.Next() {
			return
		}
	}
}

// RunThread drives th to completion under Mode C's round-robin scheduler:
// it registers th as context 0 (if not already registered) and then runs
// every live context — th and anything it forks — to completion. This is
// the dispatch entry point spec.md §4.6/§9 describe as "a single shared
// dispatch step, the scheduler-yield is the only divergence"; callers must
// go through RunThread/StepThread rather than Thread.Run()/Thread.Step()
// directly, or forked contexts are never stepped.
func RunThread(th *mizu.Thread) error {
	sched, ok := th.Sched.(*Scheduler)
	if !ok || sched == nil {
		return th.Run()
	}
	if len(sched.contexts) == 0 {
		sched.Start(th)
	}
	sched.RunAll()
	if th.Err == mizu.ErrProgramFinished {
		return nil
	}
	return th.Err
}

// StepThread advances exactly one instruction under whichever context is
// next in Mode C's round-robin rotation — not necessarily th itself once
// other contexts have been forked.
func StepThread(th *mizu.Thread) bool {
	sched, ok := th.Sched.(*Scheduler)
	if !ok || sched == nil {
		return th.Step()
	}
	if len(sched.contexts) == 0 {
		sched.Start(th)
	}
	return sched.Next()
}

func (s *Scheduler) Fork(th *mizu.Thread, pc int) uint64 {
	child := mizu.ForkFrom(th, pc)
	child.Sched = s
	s.contexts = append(s.contexts, child)
	return uint64(len(s.contexts) - 1)
}

func (s *Scheduler) Join(th *mizu.Thread, handle uint64) bool {
	if handle == 0 || int(handle) >= len(s.contexts) {
		return true
	}
	return s.contexts[handle].Done
}

func (s *Scheduler) Sleep(th *mizu.Thread, micros uint64) bool {
	deadline, waiting := s.sleepDeadline[th]
	if !waiting {
		s.sleepDeadline[th] = time.Now().Add(time.Duration(micros) * time.Microsecond)
		return false
	}
	if !time.Now().Before(deadline) {
		delete(s.sleepDeadline, th)
		return true
	}
	return false
}

func (s *Scheduler) ChannelCreate(capacity uint64) uint64 {
	if capacity == 0 {
		capacity = 1
	}
	id := s.nextChanID
	s.nextChanID++
	s.channels[id] = &channelState{cap: capacity}
	return id
}

func (s *Scheduler) ChannelClose(handle, fallback uint64) (uint64, error) {
	if handle == 0 {
		return fallback, nil
	}
	c, ok := s.channels[handle]
	if !ok {
		return 0, mizu.ErrNilHandle
	}
	c.closed = true
	return fallback, nil
}

func (s *Scheduler) ChannelSend(th *mizu.Thread, handle, value uint64) (bool, error) {
	c, ok := s.channels[handle]
	if !ok {
		return false, mizu.ErrNilHandle
	}
	if c.closed {
		return false, mizu.ErrChannelClosed
	}
	if uint64(len(c.buf)) >= c.cap {
		return false, nil // full: rewind pc and retry next turn
	}
	c.buf = append(c.buf, value)
	return true, nil
}

func (s *Scheduler) ChannelReceive(th *mizu.Thread, handle uint64) (uint64, bool, error) {
	c, ok := s.channels[handle]
	if !ok {
		return 0, false, mizu.ErrNilHandle
	}
	if len(c.buf) == 0 {
		if c.closed {
			return 0, true, nil // closed and empty: stop waiting
		}
		return 0, false, nil // empty: rewind pc and retry next turn
	}
	v := c.buf[0]
	c.buf = c.buf[1:]
	return v, true, nil
}

func (s *Scheduler) MutexCreate() uint64 {
	id := s.nextMutexID
	s.nextMutexID++
	s.mutexes[id] = &mutexState{}
	return id
}

func (s *Scheduler) MutexFree(handle, fallback uint64) uint64 {
	if handle != 0 {
		delete(s.mutexes, handle)
	}
	return fallback
}

func (s *Scheduler) MutexWriteLock(th *mizu.Thread, handle uint64) bool {
	m, ok := s.mutexes[handle]
	if !ok {
		return true
	}
	if m.state != 0 {
		return false
	}
	m.state = -1
	return true
}

func (s *Scheduler) MutexTryWriteLock(handle uint64) uint64 {
	m, ok := s.mutexes[handle]
	if !ok {
		return 0
	}
	if m.state == 0 {
		m.state = -1
		return 1
	}
	return 0
}

func (s *Scheduler) MutexWriteUnlock(handle uint64) {
	if m, ok := s.mutexes[handle]; ok && m.state == -1 {
		m.state = 0
	}
}

func (s *Scheduler) MutexReadLock(th *mizu.Thread, handle uint64) bool {
	m, ok := s.mutexes[handle]
	if !ok {
		return true
	}
	if m.state < 0 {
		return false
	}
	m.state++
	return true
}

func (s *Scheduler) MutexTryReadLock(handle uint64) uint64 {
	m, ok := s.mutexes[handle]
	if !ok {
		return 0
	}
	if m.state >= 0 {
		m.state++
		return 1
	}
	return 0
}

func (s *Scheduler) MutexReadUnlock(handle uint64) {
	if m, ok := s.mutexes[handle]; ok && m.state > 0 {
		m.state--
	}
}
