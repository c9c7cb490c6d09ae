package mstos

import "github.com/abbotg/ms-tos/internal/kerrno"

// Return-code and errno-style sentinels re-exported at the public API
// boundary, matching threads.h's thrd_success/thrd_error/thrd_nomem/
// thrd_timedout/thrd_busy and semaphore.c's EINVAL/EAGAIN.
type Code = kerrno.Code

const (
	Success  = kerrno.Success
	Error    = kerrno.Error
	NoMem    = kerrno.NoMem
	Timedout = kerrno.Timedout
	Busy     = kerrno.Busy
)

var (
	ErrInvalid              = kerrno.ErrInvalid
	ErrAgain                = kerrno.ErrAgain
	ErrNoMem                = kerrno.ErrNoMem
	ErrTimedout             = kerrno.ErrTimedout
	ErrUnsupported          = kerrno.ErrUnsupported
	ErrUnsupportedMutexType = kerrno.ErrUnsupported
)
