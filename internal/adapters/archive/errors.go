package archive

import "errors"

// ErrNoRuns is returned when the archive holds no completed runs yet.
var ErrNoRuns = errors.New("archive contains no runs")
