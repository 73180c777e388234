package service

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrNoSelections = errors.New("no participant selections available")
	ErrNoStageData  = errors.New("no stage result data available")
)
