package arch

// NumRegs is the count of general-purpose registers saved and restored on
// every context switch, R4 through R15.
const NumRegs = 12

// RegArgIndex is R12's position within Context.Regs, the ABI argument
// register a task's entry point receives its argument in.
const RegArgIndex = 8

// Context is the saved register file of a suspended task, matching the
// original union context: twelve general-purpose registers plus the stack
// pointer they were saved from.
type Context struct {
	Regs [NumRegs]Word
	SP   int
}

// Arg returns the value preloaded into the argument register.
func (c *Context) Arg() Word { return c.Regs[RegArgIndex] }

// SetArg overwrites the argument register, used by thread-exit to stash a
// task's result for a later join to read back.
func (c *Context) SetArg(v Word) { c.Regs[RegArgIndex] = v }

// SaveContext writes ctx's registers onto stack ending at word index top
// (exclusive) and returns the new stack pointer, the index of the first
// (R4) register written.
func SaveContext(stack []Word, top int, ctx Context) int {
	sp := top - NumRegs
	copy(stack[sp:top], ctx.Regs[:])
	return sp
}

// RestoreContext reads NumRegs registers starting at sp and returns the
// populated Context along with the new top, pointing at whatever was
// stacked above the register file (the trap frame, on a freshly seeded
// stack).
func RestoreContext(stack []Word, sp int) (Context, int) {
	var ctx Context
	copy(ctx.Regs[:], stack[sp:sp+NumRegs])
	ctx.SP = sp
	return ctx, sp + NumRegs
}
