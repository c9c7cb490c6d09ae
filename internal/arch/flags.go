package arch

// FlagGIE is the global-interrupt-enable bit of the status register. It is
// the only status bit this kernel inspects or manipulates directly; every
// other bit passes through the trap frame untouched.
const FlagGIE Word = 1 << 3

// InterruptsEnabled reports whether sr has interrupts unmasked.
func InterruptsEnabled(sr Word) bool {
	return sr&FlagGIE != 0
}

// WithInterruptsEnabled returns sr with FlagGIE forced to the given state.
func WithInterruptsEnabled(sr Word, enabled bool) Word {
	if enabled {
		return sr | FlagGIE
	}
	return sr &^ FlagGIE
}
