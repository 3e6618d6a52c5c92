package postprocess

import (
	"fmt"
	"math"

	"github.com/swdee/go-trayseg/postprocess/result"
)

// Station is one of the fixed plant positions on the tray, located in source
// image pixel coordinates
type Station struct {
	// ID numbers the station from 1
	ID int
	X  float64
	Y  float64
}

// Label returns the name the station is reported under
func (s Station) Label() string {
	return fmt.Sprintf("plant %d", s.ID)
}

// Point returns the station location
func (s Station) Point() Point {
	return Point{X: s.X, Y: s.Y}
}

// PeaTrayStations returns the station coordinates of the pea tray for a
// 1920x1080 camera frame.  Stations 1-3 are the bottom row right to left,
// stations 4-6 the top row right to left
func PeaTrayStations() []Station {
	return []Station{
		{ID: 1, X: 1507, Y: 817},
		{ID: 2, X: 980, Y: 809},
		{ID: 3, X: 442, Y: 794},
		{ID: 4, X: 1531, Y: 271},
		{ID: 5, X: 997, Y: 286},
		{ID: 6, X: 463, Y: 235},
	}
}

// StationAssignment records which station a plant detection was matched to
type StationAssignment struct {
	Detection result.Detection
	// Centroid is the mask centroid scaled into source image space
	Centroid Point
	// Distance is from the centroid to the station
	Distance float64
}

// StationGroup is the list of plant detections matched to one station in
// detection order
type StationGroup struct {
	Station Station
	Members []StationAssignment
}

// Assignments groups plant detections by station.  Groups are kept in the
// order a station first received a detection
type Assignments struct {
	Groups []*StationGroup
	// Discarded is the number of empty masks skipped before assignment
	Discarded int
	// Invalid are the detections whose mask data does not match the mask
	// dimensions, they are not assigned
	Invalid []result.Detection
	index   map[int]int
}

// NewAssignments returns an empty grouping
func NewAssignments() *Assignments {
	return &Assignments{
		index: make(map[int]int),
	}
}

// Append adds the assignment to the station's group, creating the group on
// first use
func (a *Assignments) Append(st Station, sa StationAssignment) {

	i, ok := a.index[st.ID]

	if !ok {
		i = len(a.Groups)
		a.index[st.ID] = i
		a.Groups = append(a.Groups, &StationGroup{Station: st})
	}

	a.Groups[i].Members = append(a.Groups[i].Members, sa)
}

// Group returns the group for the station ID
func (a *Assignments) Group(stationID int) (*StationGroup, bool) {

	i, ok := a.index[stationID]

	if !ok {
		return nil, false
	}

	return a.Groups[i], true
}

// Len returns the total number of assigned detections
func (a *Assignments) Len() int {

	n := 0

	for _, g := range a.Groups {
		n += len(g.Members)
	}

	return n
}

// StationAssigner matches plant masks to the nearest tray station
type StationAssigner struct {
	stations []Station
}

// NewStationAssigner returns an assigner for the given stations.  The slice
// order defines the tie break, the earlier station wins
func NewStationAssigner(stations []Station) *StationAssigner {

	st := make([]Station, len(stations))
	copy(st, stations)

	return &StationAssigner{
		stations: st,
	}
}

// Stations returns a copy of the stations in use
func (a *StationAssigner) Stations() []Station {

	st := make([]Station, len(a.stations))
	copy(st, a.stations)

	return st
}

// Nearest returns the station closest to p and the distance to it.  Ties go to
// the lowest index
func (a *StationAssigner) Nearest(p Point) (Station, float64) {

	best := -1
	bestDist := math.Inf(1)

	for i, st := range a.stations {
		d := euclidean(p, st.Point())

		if d < bestDist {
			best = i
			bestDist = d
		}
	}

	if best < 0 {
		return Station{}, bestDist
	}

	return a.stations[best], bestDist
}

// Locate returns the mask centroid scaled into source image space.  ok is
// false when the mask has no on pixels
func (a *StationAssigner) Locate(m result.Mask, srcWidth, srcHeight int) (Point, bool) {

	if !m.Valid() {
		return Point{}, false
	}

	c, ok := maskCentroid(m)

	if !ok {
		return Point{}, false
	}

	return scaleToSource(c, m, srcWidth, srcHeight), true
}

// Assign matches every plant detection to its nearest station.  The masks
// can be at any resolution, centroids are scaled to the source image size
// given before comparing against the station coordinates.  Empty masks are
// discarded and malformed masks are listed in Invalid
func (a *StationAssigner) Assign(plants []result.Detection,
	srcWidth, srcHeight int) *Assignments {

	out := NewAssignments()

	if len(a.stations) == 0 {
		out.Discarded = len(plants)
		return out
	}

	for _, det := range plants {

		if !det.Mask.Valid() {
			out.Invalid = append(out.Invalid, det)
			continue
		}

		centroid, ok := a.Locate(det.Mask, srcWidth, srcHeight)

		if !ok {
			out.Discarded++
			continue
		}

		st, dist := a.Nearest(centroid)

		out.Append(st, StationAssignment{
			Detection: det,
			Centroid:  centroid,
			Distance:  dist,
		})
	}

	return out
}
