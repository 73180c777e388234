package selection

import "errors"

// Sentinel error kinds for selection loading.
var (
	ErrSelectionsNotFound = errors.New("participant selections file not found")
	ErrSelectionsDecode   = errors.New("participant selections file could not be decoded")
	ErrNoParticipants     = errors.New("participant selections file contains no usable participants")
)
