//go:build !mizu_cooperative

// Mode P: real OS threads. Grounded on KTStephano-GVM/vm/devices.go's
// goroutine/channel/sync.Mutex device texture, generalized from modeling
// fixed hardware devices to general-purpose thread/channel/mutex
// scheduling, per original_source/instructions/parallel.hpp's
// !MIZU_NO_HARDWARE_THREADS branches.
package concurrency

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/data-oriented-ir/mizu"
	"golang.org/x/sync/semaphore"
)

// ModeName identifies which build variant is compiled in.
const ModeName = "preemptive"

// maxLiveForks bounds how many forked OS-thread contexts may be running at
// once. Not part of spec.md's contract — an ambient resource-model addition
// in the teacher's idiom (devices.go bounds its own device queues with an
// atomic counter); see DESIGN.md.
const maxLiveForks = 1 << 16

type threadHandle struct {
	done chan struct{}
}

// pchan signals closure through a dedicated closeCh rather than closing ch
// itself — mirroring KTStephano-GVM/vm/devices.go's systemTimer, which
// select()s over a data channel and a separate control channel instead of
// closing the data channel under a lock. Closing ch directly would race
// against an in-flight send: the lock protecting the closed check would
// have to be held across the blocking send to stay safe, serializing every
// sender behind whichever one is currently blocked. Leaving ch open and
// only ever closing closeCh means send and receive can select on both
// without ever taking a lock.
type pchan struct {
	ch      chan uint64
	closeCh chan struct{}
	closed  atomic.Bool
}

type pmutex struct {
	mu sync.RWMutex
}

// Scheduler is Mode P's mizu.Scheduler: fork spawns a goroutine running a
// fresh *mizu.Thread, join blocks on a close-on-exit channel, channels and
// mutexes are thin wrappers over Go's own primitives.
type Scheduler struct {
	sem *semaphore.Weighted

	mu       sync.Mutex
	nextID   uint64
	threads  map[uint64]*threadHandle
	channels map[uint64]*pchan
	mutexes  map[uint64]*pmutex
}

var _ mizu.Scheduler = (*Scheduler)(nil)

// NewScheduler constructs a Mode P scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{
		sem:      semaphore.NewWeighted(maxLiveForks),
		nextID:   1,
		threads:  make(map[uint64]*threadHandle),
		channels: make(map[uint64]*pchan),
		mutexes:  make(map[uint64]*pmutex),
	}
}

// RunThread drives th to completion. Mode P needs no separate scheduler
// loop — Fork already spawns each child on its own goroutine running its
// own Run() — so this is a direct pass-through that exists only so callers
// (cmd/mizu, tests) can drive either build variant without a build tag of
// their own.
func RunThread(th *mizu.Thread) error {
	return th.Run()
}

// StepThread advances th by exactly one instruction.
func StepThread(th *mizu.Thread) bool {
	return th.Step()
}

func (s *Scheduler) allocID() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	return id
}

func (s *Scheduler) Fork(th *mizu.Thread, pc int) uint64 {
	_ = s.sem.Acquire(context.Background(), 1)

	child := mizu.ForkFrom(th, pc)
	child.Sched = s

	handle := s.allocID()
	done := make(chan struct{})
	s.mu.Lock()
	s.threads[handle] = &threadHandle{done: done}
	s.mu.Unlock()

	go func() {
		defer s.sem.Release(1)
		defer close(done)
		_ = child.Run()
	}()
	return handle
}

func (s *Scheduler) Join(th *mizu.Thread, handle uint64) bool {
	s.mu.Lock()
	t, ok := s.threads[handle]
	s.mu.Unlock()
	if !ok {
		return true
	}
	<-t.done
	s.mu.Lock()
	delete(s.threads, handle)
	s.mu.Unlock()
	return true
}

func (s *Scheduler) Sleep(th *mizu.Thread, micros uint64) bool {
	time.Sleep(time.Duration(micros) * time.Microsecond)
	return true
}

func (s *Scheduler) ChannelCreate(capacity uint64) uint64 {
	id := s.allocID()
	s.mu.Lock()
	s.channels[id] = &pchan{ch: make(chan uint64, capacity), closeCh: make(chan struct{})}
	s.mu.Unlock()
	return id
}

func (s *Scheduler) ChannelClose(handle, fallback uint64) (uint64, error) {
	if handle == 0 {
		return fallback, nil
	}
	s.mu.Lock()
	c, ok := s.channels[handle]
	delete(s.channels, handle)
	s.mu.Unlock()
	if !ok {
		return 0, mizu.ErrNilHandle
	}
	if c.closed.CompareAndSwap(false, true) {
		close(c.closeCh)
	}
	return fallback, nil
}

func (s *Scheduler) getChannel(handle uint64) *pchan {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.channels[handle]
}

func (s *Scheduler) ChannelSend(th *mizu.Thread, handle, value uint64) (bool, error) {
	c := s.getChannel(handle)
	if c == nil {
		return false, mizu.ErrNilHandle
	}
	select {
	case c.ch <- value:
		return true, nil
	case <-c.closeCh:
		return false, mizu.ErrChannelClosed
	}
}

func (s *Scheduler) ChannelReceive(th *mizu.Thread, handle uint64) (uint64, bool, error) {
	c := s.getChannel(handle)
	if c == nil {
		return 0, false, mizu.ErrNilHandle
	}
	select {
	case v := <-c.ch:
		return v, true, nil
	case <-c.closeCh:
		// Closed: drain anything still buffered before giving up a zero
		// value, so a close racing a pending send never drops data.
		select {
		case v := <-c.ch:
			return v, true, nil
		default:
			return 0, true, nil
		}
	}
}

func (s *Scheduler) MutexCreate() uint64 {
	id := s.allocID()
	s.mu.Lock()
	s.mutexes[id] = &pmutex{}
	s.mu.Unlock()
	return id
}

func (s *Scheduler) getMutex(handle uint64) *pmutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mutexes[handle]
}

func (s *Scheduler) MutexFree(handle, fallback uint64) uint64 {
	if handle != 0 {
		s.mu.Lock()
		delete(s.mutexes, handle)
		s.mu.Unlock()
	}
	return fallback
}

func (s *Scheduler) MutexWriteLock(th *mizu.Thread, handle uint64) bool {
	if m := s.getMutex(handle); m != nil {
		m.mu.Lock()
	}
	return true
}

func (s *Scheduler) MutexTryWriteLock(handle uint64) uint64 {
	m := s.getMutex(handle)
	if m == nil {
		return 0
	}
	if m.mu.TryLock() {
		return 1
	}
	return 0
}

func (s *Scheduler) MutexWriteUnlock(handle uint64) {
	if m := s.getMutex(handle); m != nil {
		m.mu.Unlock()
	}
}

func (s *Scheduler) MutexReadLock(th *mizu.Thread, handle uint64) bool {
	if m := s.getMutex(handle); m != nil {
		m.mu.RLock()
	}
	return true
}

func (s *Scheduler) MutexTryReadLock(handle uint64) uint64 {
	m := s.getMutex(handle)
	if m == nil {
		return 0
	}
	if m.mu.TryRLock() {
		return 1
	}
	return 0
}

func (s *Scheduler) MutexReadUnlock(handle uint64) {
	if m := s.getMutex(handle); m != nil {
		m.mu.RUnlock()
	}
}
