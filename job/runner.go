// Package job runs the daily tray cycle: fetch the photo, segment it, cut and
// correct every plant, classify one plant per station and signal the device.
package job

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"
	trayseg "github.com/swdee/go-trayseg"
	"github.com/swdee/go-trayseg/device"
	"github.com/swdee/go-trayseg/postprocess"
	"github.com/swdee/go-trayseg/postprocess/result"
	"github.com/swdee/go-trayseg/remote"
	"github.com/swdee/go-trayseg/storage"
	"gocv.io/x/gocv"
)

// Segmenter runs instance segmentation over an encoded tray photo
type Segmenter interface {
	Segment(ctx context.Context, image []byte) ([]result.Detection, error)
}

// Classifier decides if an encoded plant image needs spraying
type Classifier interface {
	Classify(ctx context.Context, image []byte) (remote.Prediction, error)
}

// Signaller delivers the spray signal to the field device
type Signaller interface {
	Send(ctx context.Context, s device.Signal) error
}

// archiveDir is the blob prefix corrected images are written under
const archiveDir = "corrected"

// Runner performs one tray cycle per Run call
type Runner struct {
	Store      storage.BlobStore
	Segmenter  Segmenter
	Classifier Classifier
	Signaller  Signaller
	Pipeline   *trayseg.Pipeline
	// DailyLayout names the photo blob, storage.DefaultDailyLayout if empty
	DailyLayout string
	// Archive writes the corrected images back to the store
	Archive bool
	Metrics *Metrics
	Log     *slog.Logger
	// Now defaults to time.Now
	Now func() time.Time

	after func(time.Duration) <-chan time.Time
}

// StationReport is the outcome of one tray station
type StationReport struct {
	Station int
	Label   string
	// Images is the number of corrected images at the station
	Images int
	// DetectionID of the image that was classified
	DetectionID int64
	Classified  bool
	Prediction  remote.Prediction
	// Err is the classification failure, the station signals 0
	Err error
}

// Report summarises a run
type Report struct {
	RunID    string
	Blob     string
	Started  time.Time
	Duration time.Duration
	Outcome  string
	Stations []StationReport
	Signal   device.Signal
	// Skipped and Discarded count plant detections left out of the result
	Skipped   int
	Discarded int
	// Warning is a degenerate panel calibration
	Warning  error
	Archived []string
}

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}

	return time.Now()
}

func (r *Runner) logger() *slog.Logger {
	if r.Log != nil {
		return r.Log
	}

	return slog.Default()
}

// Run performs a single cycle for today's photo.  Failing to fetch, decode or
// segment the photo, or finding no reference panel, aborts the run and no
// signal is sent.  A station whose plant cannot be classified signals 0
func (r *Runner) Run(ctx context.Context) (*Report, error) {

	start := r.now()

	rep := &Report{
		RunID:   uuid.NewString(),
		Blob:    storage.DailyName(r.DailyLayout, start),
		Started: start,
	}

	log := r.logger().With("run_id", rep.RunID)
	log.Info("starting run", "blob", rep.Blob)

	outcome, err := r.run(ctx, log, rep)

	rep.Outcome = outcome
	rep.Duration = r.now().Sub(start)
	r.Metrics.observeRun(outcome, rep.Duration, start)

	if err != nil {
		log.Error("run failed", "outcome", outcome, "error", err)
		return rep, err
	}

	log.Info("run complete",
		"signal", []int(rep.Signal),
		"duration", rep.Duration,
	)

	return rep, nil
}

func (r *Runner) run(ctx context.Context, log *slog.Logger, rep *Report) (string, error) {

	data, err := r.Store.Get(ctx, rep.Blob)

	if err != nil {
		return OutcomeFetchFailed, fmt.Errorf("error fetching %s: %w", rep.Blob, err)
	}

	img, err := gocv.IMDecode(data, gocv.IMReadColor)

	if err == nil && img.Empty() {
		err = fmt.Errorf("no image data")
	}

	if err != nil {
		img.Close()
		return OutcomeDecodeFailed, fmt.Errorf("error decoding %s: %w", rep.Blob, err)
	}

	defer img.Close()

	dets, err := r.Segmenter.Segment(ctx, data)

	if err != nil {
		return OutcomeSegmentFailed, fmt.Errorf("error segmenting %s: %w", rep.Blob, err)
	}

	log.Debug("segmented tray", "detections", len(dets))

	res, err := r.Pipeline.Process(img, dets)

	if errors.Is(err, trayseg.ErrNoPanelDetected) {
		return OutcomeNoPanel, err
	}

	if err != nil {
		return OutcomeProcessFailed, err
	}

	defer res.Close()

	rep.Skipped = len(res.Skipped)
	rep.Discarded = res.Discarded
	rep.Warning = res.Warning
	r.Metrics.observePlants(res.Len(), rep.Skipped+rep.Discarded)

	rep.Signal = r.classify(ctx, log, res, rep)

	if r.Archive {
		r.archive(ctx, log, res, rep)
	}

	if err := r.Signaller.Send(ctx, rep.Signal); err != nil {
		return OutcomeSignalFailed, fmt.Errorf("error sending signal: %w", err)
	}

	r.Metrics.observeSignal(rep.Signal)

	return OutcomeSuccess, nil
}

// stations returns the calibration stations ordered by ID
func (r *Runner) stations() []postprocess.Station {

	st := slices.Clone(r.Pipeline.Calibration().Stations)

	slices.SortFunc(st, func(a, b postprocess.Station) int {
		return a.ID - b.ID
	})

	return st
}

// classify sends index 0 of each station's images to the classifier and
// builds the signal, one slot per station
func (r *Runner) classify(ctx context.Context, log *slog.Logger,
	res *trayseg.Result, rep *Report) device.Signal {

	stations := r.stations()
	signal := make(device.Signal, len(stations))

	for i, st := range stations {

		sr := StationReport{
			Station: st.ID,
			Label:   st.Label(),
			Images:  len(res.Images(st.Label())),
		}

		img, ok := res.First(st.Label())

		if ok {
			sr.DetectionID = img.DetectionID
			sr.Prediction, sr.Err = r.classifyImage(ctx, img.Image)

			if sr.Err != nil {
				r.Metrics.observeClassifyError()
				log.Warn("classification failed, station signals 0",
					"station", sr.Label,
					"detection_id", sr.DetectionID,
					"error", sr.Err,
				)
			} else {
				sr.Classified = true
				signal[i] = int(sr.Prediction)
			}
		}

		rep.Stations = append(rep.Stations, sr)
	}

	return signal
}

func (r *Runner) classifyImage(ctx context.Context, img gocv.Mat) (remote.Prediction, error) {

	data, err := remote.EncodeJPEG(img)

	if err != nil {
		return remote.NoSpray, err
	}

	return r.Classifier.Classify(ctx, data)
}

// archive writes every corrected image as a JPEG below corrected/<date>/.
// Failures are logged only
func (r *Runner) archive(ctx context.Context, log *slog.Logger,
	res *trayseg.Result, rep *Report) {

	day := rep.Started.Format("2006-01-02")

	for _, st := range res.Stations {
		for j, img := range st.Images {

			name := fmt.Sprintf("%s/%s/plant_%d_%d.jpg", archiveDir, day, st.Station.ID, j+1)

			data, err := encodeDisplayJPEG(img.Image)

			if err == nil {
				err = r.Store.Put(ctx, name, data)
			}

			if err != nil {
				log.Warn("error archiving corrected image", "blob", name, "error", err)
				continue
			}

			rep.Archived = append(rep.Archived, name)
		}
	}
}

// encodeDisplayJPEG encodes an RGB image so it views with correct colors
func encodeDisplayJPEG(rgb gocv.Mat) ([]byte, error) {

	bgr := gocv.NewMat()
	defer bgr.Close()

	gocv.CvtColor(rgb, &bgr, gocv.ColorRGBToBGR)

	return remote.EncodeJPEG(bgr)
}
