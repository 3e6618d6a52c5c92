package trayseg

import (
	"github.com/swdee/go-trayseg/postprocess"
	"github.com/swdee/go-trayseg/radiometry"
	"gocv.io/x/gocv"
)

// CorrectedImage is one plant cut from the tray photo, padded to the canvas
// and radiometrically corrected.  Image is in RGB channel order
type CorrectedImage struct {
	DetectionID int64
	Confidence  float32
	// Centroid of the plant mask in source image coordinates
	Centroid postprocess.Point
	Image    gocv.Mat
}

// StationResult holds the corrected images assigned to one station in
// detection order
type StationResult struct {
	Station postprocess.Station
	Images  []CorrectedImage
}

// Label returns the station label the images are keyed under
func (s *StationResult) Label() string {
	return s.Station.Label()
}

// SkippedPlant records a plant that was excluded from the result
type SkippedPlant struct {
	DetectionID int64
	// Station is empty for plants skipped before station assignment
	Station string
	Stage   Stage
	Err     error
}

// Result is the output of one Pipeline invocation.  Stations are kept in the
// order they first received a corrected image.  The caller owns the images
// and must call Close when done with them
type Result struct {
	Stations []*StationResult
	// Skipped are the plants that failed extraction or correction
	Skipped []SkippedPlant
	// Discarded is the number of plant masks with no pixels to locate
	Discarded int
	// Statistics are the reference panel channel means used for correction
	Statistics radiometry.PanelStatistics
	// Warning is set when a panel channel had a zero statistic
	Warning error
	// Assignments are the station matches of every located plant
	Assignments *postprocess.Assignments
	index       map[string]int
}

func newResult() *Result {
	return &Result{
		index: make(map[string]int),
	}
}

// add appends the image to the station, creating the station entry on first
// use
func (r *Result) add(st postprocess.Station, img CorrectedImage) {

	label := st.Label()
	i, ok := r.index[label]

	if !ok {
		i = len(r.Stations)
		r.index[label] = i
		r.Stations = append(r.Stations, &StationResult{Station: st})
	}

	r.Stations[i].Images = append(r.Stations[i].Images, img)
}

// Labels returns the station labels in result order
func (r *Result) Labels() []string {

	labels := make([]string, 0, len(r.Stations))

	for _, s := range r.Stations {
		labels = append(labels, s.Label())
	}

	return labels
}

// Images returns the corrected images for the station label, nil if the
// station has none
func (r *Result) Images(label string) []CorrectedImage {

	i, ok := r.index[label]

	if !ok {
		return nil
	}

	return r.Stations[i].Images
}

// First returns index 0 of the station's images.  This is the image sent
// on for classification, further images at the same station are kept in the
// result but not classified
func (r *Result) First(label string) (CorrectedImage, bool) {

	imgs := r.Images(label)

	if len(imgs) == 0 {
		return CorrectedImage{}, false
	}

	return imgs[0], true
}

// Len returns the total number of corrected images
func (r *Result) Len() int {

	n := 0

	for _, s := range r.Stations {
		n += len(s.Images)
	}

	return n
}

// Close frees the image Mats
func (r *Result) Close() {

	for _, s := range r.Stations {
		for i := range s.Images {
			s.Images[i].Image.Close()
		}
	}
}
