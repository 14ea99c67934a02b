package errors

import "errors"

var (
	ErrBatchNotFound   = errors.New("batch not found")
	ErrShuttingDown    = errors.New("service is shutting down")
	ErrStateFileBroken = errors.New("state file is not readable")
)
