package results

import "errors"

// Sentinel error kinds for stage result loading.
var (
	ErrStageNotFound = errors.New("stage result file not found")
	ErrStageDecode   = errors.New("stage result file could not be decoded")
)
