package arch

// FrameCodec encodes and decodes the two-word fake interrupt-return frame a
// task's stack is seeded with at creation, and that restore_context pops on
// every switch into it. Two variants exist because the two CPU targets
// disagree about how many bits a program counter needs.
type FrameCodec interface {
	// FrameWords reports how many stack words the frame occupies.
	FrameWords() int
	// Encode writes a frame for (pc, sr) ending at word index top
	// (exclusive) and returns the new top, top-FrameWords().
	Encode(stack []Word, top int, pc, sr Word) int
	// Decode reads the frame starting at word index top and returns
	// (pc, sr).
	Decode(stack []Word, top int) (pc, sr Word)
}

// Narrow16 is the trap frame for the 16-bit program-counter variant: the
// lower address holds the status register, the upper address holds the
// full 16-bit program counter.
type Narrow16 struct{}

func (Narrow16) FrameWords() int { return 2 }

func (Narrow16) Encode(stack []Word, top int, pc, sr Word) int {
	newTop := top - 2
	stack[newTop] = sr & WordMask16
	stack[newTop+1] = pc & WordMask16
	return newTop
}

func (Narrow16) Decode(stack []Word, top int) (pc, sr Word) {
	sr = stack[top] & WordMask16
	pc = stack[top+1] & WordMask16
	return pc, sr
}

// Wide20 is the trap frame for the 20-bit program-counter variant: the
// lower address holds the status register in its low byte and the high
// nibble of the program counter in the high nibble of its high byte; the
// upper address holds the low 16 bits of the program counter.
type Wide20 struct{}

func (Wide20) FrameWords() int { return 2 }

func (Wide20) Encode(stack []Word, top int, pc, sr Word) int {
	newTop := top - 2
	pcHigh := (pc >> 16) & 0xF
	srByte := sr & 0xFF
	stack[newTop] = srByte | (pcHigh << 12)
	stack[newTop+1] = pc & 0xFFFF
	return newTop
}

func (Wide20) Decode(stack []Word, top int) (pc, sr Word) {
	lo := stack[top]
	hi := stack[top+1]
	sr = lo & 0xFF
	pcHigh := (lo >> 12) & 0xF
	pc = (pcHigh << 16) | (hi & 0xFFFF)
	return pc, sr
}
