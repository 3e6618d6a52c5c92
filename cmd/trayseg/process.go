package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	trayseg "github.com/swdee/go-trayseg"
	"github.com/swdee/go-trayseg/postprocess"
	"github.com/swdee/go-trayseg/postprocess/result"
	"github.com/swdee/go-trayseg/remote"
	"github.com/swdee/go-trayseg/render"
	"gocv.io/x/gocv"
)

type processFlags struct {
	image      string
	detections string
	outDir     string
	overlay    string
}

// processCommand runs the pipeline offline over a photo and a detections file
func processCommand(a *app) *cobra.Command {

	var f processFlags

	cmd := &cobra.Command{
		Use:   "process",
		Short: "Cut and correct the plants of a tray photo using saved detections",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.process(f)
		},
	}

	cmd.Flags().StringVarP(&f.image, "image", "i", "", "Tray photo")
	cmd.Flags().StringVarP(&f.detections, "detections", "d", "",
		"Detections JSON in the segmentation response format")
	cmd.Flags().StringVarP(&f.outDir, "out", "o", "corrected", "Output directory")
	cmd.Flags().StringVar(&f.overlay, "overlay", "",
		"Write a station overlay of the photo to this file")

	cmd.MarkFlagRequired("image")
	cmd.MarkFlagRequired("detections")

	return cmd
}

func (a *app) process(f processFlags) error {

	cal, err := a.settings.TrayCalibration()

	if err != nil {
		return err
	}

	img := gocv.IMRead(f.image, gocv.IMReadColor)
	defer img.Close()

	if img.Empty() {
		return fmt.Errorf("error reading image %s", f.image)
	}

	data, err := os.ReadFile(f.detections)

	if err != nil {
		return fmt.Errorf("error reading detections: %w", err)
	}

	dets, err := remote.DecodeDetections(data, cal.ClassNames)

	if err != nil {
		return err
	}

	pipeline, err := trayseg.NewPipeline(cal,
		trayseg.WithLogger(a.log),
		trayseg.WithWorkers(a.settings.Pipeline.Workers),
	)

	if err != nil {
		return err
	}

	res, err := pipeline.Process(img, dets)

	if err != nil {
		return err
	}

	defer res.Close()

	if err := os.MkdirAll(f.outDir, 0o755); err != nil {
		return fmt.Errorf("error creating output directory: %w", err)
	}

	for _, st := range res.Stations {
		for j, ci := range st.Images {

			file := filepath.Join(f.outDir, fmt.Sprintf("%s_%d.png",
				strings.ReplaceAll(st.Label(), " ", "_"), j+1))

			if err := writeRGB(file, ci.Image); err != nil {
				return err
			}

			a.log.Info("wrote corrected plant",
				"station", st.Label(),
				"detection_id", ci.DetectionID,
				"file", file,
			)
		}
	}

	for _, sk := range res.Skipped {
		a.log.Warn("plant skipped",
			"station", sk.Station,
			"detection_id", sk.DetectionID,
			"stage", sk.Stage.String(),
			"error", sk.Err,
		)
	}

	if f.overlay != "" {
		return writeOverlay(f.overlay, img, cal, res, dets)
	}

	return nil
}

// writeRGB writes an RGB image to file with the channels swapped back so it
// views correctly
func writeRGB(file string, rgb gocv.Mat) error {

	bgr := gocv.NewMat()
	defer bgr.Close()

	gocv.CvtColor(rgb, &bgr, gocv.ColorRGBToBGR)

	if !gocv.IMWrite(file, bgr) {
		return fmt.Errorf("error writing %s", file)
	}

	return nil
}

func writeOverlay(file string, img gocv.Mat, cal trayseg.Calibration,
	res *trayseg.Result, dets []result.Detection) error {

	overlay := img.Clone()
	defer overlay.Close()

	var panel *result.Detection

	if p, ok := postprocess.ClassifyMasks(dets).Panel(); ok {
		panel = &p
	}

	err := render.StationOverlay(&overlay, cal.Stations, res.Assignments, panel,
		render.DefaultOverlayStyle())

	if err != nil {
		return fmt.Errorf("error drawing overlay: %w", err)
	}

	if !gocv.IMWrite(file, overlay) {
		return fmt.Errorf("error writing %s", file)
	}

	return nil
}
