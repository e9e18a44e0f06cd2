package mizu

import "github.com/sirupsen/logrus"

// Thread is one execution context: a program counter and stack pointer into
// an Environment, dispatching against a shared Registry and (optionally) a
// Scheduler for the concurrency bank. Forking creates a new Thread with a
// cloned Environment; the Program and Registry are shared and never
// mutated.
//
// Grounded on KTStephano-GVM/vm/vm.go's VM struct, generalized from a
// single global interpreter (stack-machine, 32-bit words, one program) to a
// per-context struct so the concurrency bank can hold many of these at
// once.
type Thread struct {
	Program  Program
	Env      *Environment
	Registry *Registry
	Sched    Scheduler

	PC int
	SP uint64

	Err error

	Trace  bool
	Logger *logrus.Logger

	// Done is set by halt and by running off the program end.
	Done bool
}

// NewThread creates a thread starting execution at pc 0 with a fresh
// environment sized per cfg.
func NewThread(program Program, registry *Registry, cfg Config) *Thread {
	env := NewEnvironment(cfg.wordCount())
	th := &Thread{
		Program:  program,
		Env:      env,
		Registry: registry,
		SP:       env.StackBottom,
		Trace:    cfg.Trace,
	}
	if cfg.Trace {
		th.Logger = logrus.New()
		th.Logger.SetLevel(logrus.TraceLevel)
	}
	return th
}

// ForkFrom creates a new thread sharing parent's Program and Registry, with
// a cloned Environment, starting at pc. Used by the concurrency bank's
// fork_*/new_thread.
func ForkFrom(parent *Thread, pc int) *Thread {
	child := &Thread{
		Program:  parent.Program,
		Env:      parent.Env.Clone(),
		Registry: parent.Registry,
		Sched:    parent.Sched,
		PC:       pc,
		Trace:    parent.Trace,
		Logger:   parent.Logger,
	}
	child.SP = child.Env.StackBottom
	return child
}

// Registers returns the register file backing this thread's environment.
func (th *Thread) Registers() *[RegisterFileWords]uint64 {
	return &th.Env.Registers
}

// programStart/programEnd give find_label the bounds it needs; with pc as
// a program-array index (spec.md §9's "opaque code reference" resolution)
// these are simply the slice bounds.
func (th *Thread) programStart() int { return 0 }
func (th *Thread) programEnd() int   { return len(th.Program) }

// ReadStack reads n bytes at byte address addr (sp-relative, already
// resolved by the caller) and zero-extends into a uint64.
func (th *Thread) ReadStack(addr uint64, n int) (uint64, error) {
	idx, err := th.Env.stackIndex(addr)
	if err != nil {
		return 0, err
	}
	if idx+n > len(th.Env.Stack) {
		return 0, ErrStackBounds
	}
	var v uint64
	for i := 0; i < n; i++ {
		v |= uint64(th.Env.Stack[idx+i]) << (8 * i)
	}
	return v, nil
}

// WriteStack writes the low n bytes of v to byte address addr.
func (th *Thread) WriteStack(addr uint64, v uint64, n int) error {
	idx, err := th.Env.stackIndex(addr)
	if err != nil {
		return err
	}
	if idx+n > len(th.Env.Stack) {
		return ErrStackBounds
	}
	for i := 0; i < n; i++ {
		th.Env.Stack[idx+i] = byte(v >> (8 * i))
	}
	return nil
}

// Fail records err on the thread (first error wins) and marks it done.
func (th *Thread) Fail(err error) {
	if th.Err == nil {
		th.Err = err
	}
	th.Done = true
}
