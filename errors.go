package trayseg

import (
	"errors"

	"github.com/swdee/go-trayseg/preprocess"
	"github.com/swdee/go-trayseg/radiometry"
)

var (
	// ErrNoPanelDetected is returned when the detections hold no reference
	// panel.  Without it there is nothing to calibrate against so the whole
	// invocation fails
	ErrNoPanelDetected = errors.New("no reference panel detected")

	// ErrEmptyMaskSkipped marks a plant whose mask had no pixels to crop
	ErrEmptyMaskSkipped = preprocess.ErrEmptyMask

	// ErrZeroPanelStatistic marks a panel channel with no usable pixels, the
	// channel is passed through uncorrected
	ErrZeroPanelStatistic = radiometry.ErrZeroPanelStatistic
)

// Stage names a step of the pipeline state machine
type Stage int

const (
	StageStart Stage = iota
	StageClassify
	StageExtractPanel
	StageComputePanelStats
	StageAssignStations
	StageExtractPlant
	StageCorrectPlant
	StageDone
)

var stageNames = map[Stage]string{
	StageStart:             "start",
	StageClassify:          "classify",
	StageExtractPanel:      "extract panel",
	StageComputePanelStats: "compute panel stats",
	StageAssignStations:    "assign stations",
	StageExtractPlant:      "extract plant",
	StageCorrectPlant:      "correct plant",
	StageDone:              "done",
}

func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}

	return "unknown"
}
