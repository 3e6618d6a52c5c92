package postprocess

import "github.com/swdee/go-trayseg/postprocess/result"

// MaskGroups holds the detections of a segmentation response split by class.
// Both groups keep the order the detections were received in
type MaskGroups struct {
	// Plants are the detections classed as a plant
	Plants []result.Detection
	// Panels are the detections classed as the reference panel
	Panels []result.Detection
	// Dropped is the number of detections of any other class
	Dropped int
}

// ClassifyMasks splits the detections into plant and reference panel groups.
// Detections of an unknown class are dropped, this is not an error
func ClassifyMasks(dets []result.Detection) MaskGroups {

	var groups MaskGroups

	for _, det := range dets {
		switch det.Class {
		case result.ClassPlant:
			groups.Plants = append(groups.Plants, det)
		case result.ClassReferencePanel:
			groups.Panels = append(groups.Panels, det)
		default:
			groups.Dropped++
		}
	}

	return groups
}

// Panel returns the reference panel detection to calibrate against.  The tray
// has a single physical panel so only index 0 is used, any further panel
// detections are treated as redundant and ignored rather than merged
func (g MaskGroups) Panel() (result.Detection, bool) {

	if len(g.Panels) == 0 {
		return result.Detection{}, false
	}

	return g.Panels[0], true
}
