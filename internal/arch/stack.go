package arch

// InitStack seeds a fresh task stack, high address to low: an exit-handler
// return address a task falls into if its entry point ever returns, a trap
// frame encoding (entry, interrupts-enabled), and the twelve-register
// context with the argument register preloaded. top is the exclusive
// high-water word index (normally len(stack)). It returns the stack
// pointer restore_context expects to find the task at on its first switch
// in, matching arch_init_stack's preload order.
func InitStack(codec FrameCodec, stack []Word, top int, entry, arg, exitHandler Word) int {
	top--
	stack[top] = exitHandler

	top = codec.Encode(stack, top, entry, FlagGIE)

	var ctx Context
	ctx.SetArg(arg)
	return SaveContext(stack, top, ctx)
}

// ReturnFromInterrupt is the software model of the RTI-equivalent
// instruction: it decodes the frame sitting at word index top and returns
// the (pc, sr) it would transfer control to, along with the new top past
// the consumed frame. It is used only to verify a seeded stack's contents
// independently of live execution; the scheduler itself switches tasks by
// goroutine handoff, described in package sched.
func ReturnFromInterrupt(codec FrameCodec, stack []Word, top int) (pc, sr Word, newTop int) {
	pc, sr = codec.Decode(stack, top)
	return pc, sr, top + codec.FrameWords()
}

// ExitHandlerAddr pops past the register file and decodes the return
// address a task's implicit "fall off the end of main" would resume at.
func ExitHandlerAddr(stack []Word, afterFrame int) Word {
	return stack[afterFrame]
}
