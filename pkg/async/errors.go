package async

import "errors"

var (
	ErrTimeout    = errors.New("async: timed out waiting for future")
	ErrPoolClosed = errors.New("async: pool is closed")
	ErrPoolFull   = errors.New("async: pool queue is full")
)
