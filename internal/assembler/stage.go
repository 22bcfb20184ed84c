package assembler

import (
	"errors"
	"fmt"
)

// Input validation errors reported by the init stage.
var (
	ErrInvalidInputURL   = errors.New("input is not a link")
	ErrInvalidOutputPath = errors.New("invalid output path")
)

// Stage is a state of the download state machine.
type Stage int

const (
	StageInit Stage = iota
	StageFetchRoot
	StageClassify
	StageSelectVariant
	StageFetchMedia
	StageExtractSegments
	StageFetchSegments
	StageFinalize
	StageDone
	StageFailed
)

var stageNames = [...]string{
	StageInit:            "init",
	StageFetchRoot:       "fetch-root",
	StageClassify:        "classify",
	StageSelectVariant:   "select-variant",
	StageFetchMedia:      "fetch-media",
	StageExtractSegments: "extract-segments",
	StageFetchSegments:   "fetch-segments",
	StageFinalize:        "finalize",
	StageDone:            "done",
	StageFailed:          "error",
}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return fmt.Sprintf("stage(%d)", int(s))
	}
	return stageNames[s]
}

// StageError reports the stage a run failed in and the underlying cause.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }
