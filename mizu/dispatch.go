package mizu

// Step executes exactly one instruction: the "advance" protocol of spec.md
// §4.3 translated into the trampoline shape of §9 — reset register 0,
// fetch the opcode at pc, dispatch it, and adopt whatever pc it returns.
// Step is the single shared dispatch step both concurrency modes drive:
// Mode P calls it in a tight per-thread loop (Run), Mode C calls it once
// per context per scheduler turn.
//
// Grounded on KTStephano-GVM/vm/exec.go's execNextInstruction, generalized
// from a hardcoded switch over a fixed opcode enum to a registry-ID lookup.
func (th *Thread) Step() bool {
	if th.Done {
		return false
	}
	if th.PC < th.programStart() || th.PC >= th.programEnd() {
		th.Done = true
		if th.Err == nil {
			th.Err = ErrProgramFinished
		}
		return false
	}

	th.Env.Registers[0] = 0

	op := &th.Program[th.PC]
	if op.Op == NullOperation {
		// Program-end sentinel: clean termination, no error.
		th.Done = true
		return false
	}

	fn, ok := th.Registry.LookupInstruction(op.Op)
	if !ok || fn == nil {
		th.Done = true
		th.Err = ErrUnknownInstruction
		return false
	}

	if th.Trace && th.Logger != nil {
		name, _ := th.Registry.LookupName(op.Op)
		th.Logger.WithFields(map[string]any{
			"pc":   th.PC,
			"op":   name,
			"out":  op.Out,
			"a":    op.A,
			"b":    op.B,
		}).Trace("dispatch")
	}

	next := fn(th, op)
	if next < 0 {
		th.Done = true
		return false
	}
	th.PC = next
	return true
}

// Run drives Step in a loop until the thread is done. This is Mode P's
// (and single-threaded programs') entry point; Mode C instead drives Step
// through its round-robin scheduler, one context at a time.
func (th *Thread) Run() error {
	for th.Step() {
	}
	if th.Err == ErrProgramFinished {
		return nil
	}
	return th.Err
}
