package trayseg

import (
	"fmt"
	"log/slog"
	"runtime"

	"github.com/swdee/go-trayseg/postprocess"
	"github.com/swdee/go-trayseg/postprocess/result"
	"github.com/swdee/go-trayseg/preprocess"
	"github.com/swdee/go-trayseg/radiometry"
	"gocv.io/x/gocv"
	"golang.org/x/sync/errgroup"
)

// Pipeline turns one tray photo and its segmentation detections into
// corrected plant images keyed by station.  A Pipeline holds only read only
// calibration and is safe for concurrent use
type Pipeline struct {
	cal       Calibration
	assigner  *postprocess.StationAssigner
	extractor *preprocess.PlantExtractor
	corrector *radiometry.Corrector
	log       *slog.Logger
	workers   int
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithLogger sets the logger, defaults to slog.Default()
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.log = l
		}
	}
}

// WithWorkers sets how many plants are extracted and corrected in parallel,
// defaults to the number of CPUs
func WithWorkers(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.workers = n
		}
	}
}

// NewPipeline returns a Pipeline for the calibration
func NewPipeline(cal Calibration, opts ...Option) (*Pipeline, error) {

	if err := cal.Validate(); err != nil {
		return nil, fmt.Errorf("invalid calibration: %w", err)
	}

	p := &Pipeline{
		cal:       cal,
		assigner:  postprocess.NewStationAssigner(cal.Stations),
		extractor: preprocess.NewPlantExtractor(cal.Canvas),
		corrector: radiometry.NewCorrector(cal.Panel),
		log:       slog.Default(),
		workers:   runtime.NumCPU(),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p, nil
}

// Calibration returns the calibration in use
func (p *Pipeline) Calibration() Calibration {
	return p.cal
}

// plantOutcome is the result of one plant worker
type plantOutcome struct {
	station postprocess.Station
	assign  postprocess.StationAssignment
	image   gocv.Mat
	stage   Stage
	err     error
}

// Process runs the pipeline over the BGR source image and its detections.
// If no reference panel was detected ErrNoPanelDetected is returned with no
// result.  Plants that fail extraction or correction are logged and listed
// in Result.Skipped, the rest of the tray is still processed
func (p *Pipeline) Process(src gocv.Mat, dets []result.Detection) (*Result, error) {

	if err := preprocess.ValidateSource(src); err != nil {
		return nil, fmt.Errorf("%s: %w", StageStart, err)
	}

	src, cloned := preprocess.Continuous(src)

	if cloned {
		defer src.Close()
	}

	groups := postprocess.ClassifyMasks(dets)

	p.log.Debug("classified detections",
		"plants", len(groups.Plants),
		"panels", len(groups.Panels),
		"dropped", groups.Dropped,
	)

	panel, ok := groups.Panel()

	if !ok {
		return nil, fmt.Errorf("%s: %w", StageExtractPanel, ErrNoPanelDetected)
	}

	if len(groups.Panels) > 1 {
		p.log.Debug("ignoring redundant panel detections",
			"panels", len(groups.Panels),
			"detection_id", panel.ID,
		)
	}

	panelImg, err := preprocess.ExtractPanel(src, panel.Mask)

	if err != nil {
		return nil, fmt.Errorf("%s: %w", StageExtractPanel, err)
	}

	defer panelImg.Close()

	stats, err := p.corrector.Statistics(panelImg)

	if err != nil {
		return nil, fmt.Errorf("%s: %w", StageComputePanelStats, err)
	}

	res := newResult()
	res.Statistics = stats

	if werr := stats.Check(); werr != nil {
		res.Warning = werr
		p.log.Warn("degenerate panel calibration, channel left uncorrected",
			"error", werr,
		)
	}

	assigned := p.assigner.Assign(groups.Plants, src.Cols(), src.Rows())
	res.Assignments = assigned
	res.Discarded = assigned.Discarded

	if assigned.Discarded > 0 {
		p.log.Info("discarded empty plant masks", "count", assigned.Discarded)
	}

	for _, det := range assigned.Invalid {
		err := det.Mask.Check()

		p.log.Warn("skipping plant",
			"detection_id", det.ID,
			"stage", StageAssignStations.String(),
			"error", err,
		)

		res.Skipped = append(res.Skipped, SkippedPlant{
			DetectionID: det.ID,
			Stage:       StageAssignStations,
			Err:         err,
		})
	}

	// flatten in station then detection order, outcomes are written by index
	// so the merged result does not depend on worker scheduling
	var outcomes []plantOutcome

	for _, g := range assigned.Groups {
		for _, m := range g.Members {
			outcomes = append(outcomes, plantOutcome{
				station: g.Station,
				assign:  m,
			})
		}
	}

	var eg errgroup.Group
	eg.SetLimit(p.workers)

	for i := range outcomes {
		eg.Go(func() error {
			p.processPlant(src, stats, &outcomes[i])
			return nil
		})
	}

	// workers never return an error, failures are kept per plant
	_ = eg.Wait()

	for _, o := range outcomes {

		if o.err != nil {
			p.log.Warn("skipping plant",
				"station", o.station.Label(),
				"detection_id", o.assign.Detection.ID,
				"stage", o.stage.String(),
				"error", o.err,
			)

			res.Skipped = append(res.Skipped, SkippedPlant{
				DetectionID: o.assign.Detection.ID,
				Station:     o.station.Label(),
				Stage:       o.stage,
				Err:         o.err,
			})

			continue
		}

		res.add(o.station, CorrectedImage{
			DetectionID: o.assign.Detection.ID,
			Confidence:  o.assign.Detection.Confidence,
			Centroid:    o.assign.Centroid,
			Image:       o.image,
		})
	}

	p.log.Debug("tray processed",
		"stations", len(res.Stations),
		"corrected", res.Len(),
		"skipped", len(res.Skipped),
	)

	return res, nil
}

// processPlant extracts and corrects a single plant into o
func (p *Pipeline) processPlant(src gocv.Mat, stats radiometry.PanelStatistics,
	o *plantOutcome) {

	extracted, err := p.extractor.Extract(src, o.assign.Detection.Mask)

	if err != nil {
		o.stage = StageExtractPlant
		o.err = err
		return
	}

	defer extracted.Close()

	corrected, err := p.corrector.Correct(extracted, stats)

	if err != nil {
		o.stage = StageCorrectPlant
		o.err = err
		return
	}

	o.stage = StageDone
	o.image = corrected
}
