package mizu

import "errors"

// Error kinds a thread can record on itself while dispatching. These mirror
// the sentinel-error style the VM's own dispatch loop uses: a thread keeps
// running only one error at a time, the first one it hits.
var (
	// ErrStackBounds is returned when a stack access falls outside
	// (StackBoundary, StackBottom].
	ErrStackBounds = errors.New("mizu: stack access out of bounds")

	// ErrNilHandle is returned by channel_send, channel_receive and
	// channel_close when the handle names no open channel. channel_close of
	// a zero handle is not an error, and the mutex instructions never report
	// it: a zero or unknown mutex handle is ignored.
	ErrNilHandle = errors.New("mizu: nil channel or mutex handle")

	// ErrUnknownInstruction is recorded when an opcode's ID has no
	// registered instruction. Dispatch still treats this as a clean halt.
	ErrUnknownInstruction = errors.New("mizu: unknown instruction")

	// ErrDivideByZero is recorded by the arithmetic instructions on a
	// zero divisor/modulus.
	ErrDivideByZero = errors.New("mizu: divide or modulus by zero")

	// ErrProgramFinished marks a thread that ran off the end of its
	// program without hitting an explicit halt.
	ErrProgramFinished = errors.New("mizu: program finished")

	// ErrChannelClosed is returned when channel_send targets an already
	// closed channel.
	ErrChannelClosed = errors.New("mizu: send on closed channel")
)
