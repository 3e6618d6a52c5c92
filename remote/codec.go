package remote

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/swdee/go-trayseg/postprocess/result"
	"gocv.io/x/gocv"
)

// detectionDoc is one detection on the wire.  Class is the label name, when
// it is missing ClassID is resolved through the model labels
type detectionDoc struct {
	Class      string  `json:"class,omitempty"`
	ClassID    *int    `json:"class_id,omitempty"`
	Confidence float32 `json:"confidence"`
	// Mask is a base64 encoded single channel PNG, nonzero pixels are on
	Mask string `json:"mask"`
}

// detectionsDoc is the segmentation response and the detections file format
type detectionsDoc struct {
	Detections []detectionDoc `json:"detections"`
	Error      string         `json:"error,omitempty"`
}

// EncodeDetections writes detections in the segmentation response format.
// labels give the class IDs written alongside the class names
func EncodeDetections(dets []result.Detection, labels []string) ([]byte, error) {

	doc := detectionsDoc{
		Detections: make([]detectionDoc, 0, len(dets)),
	}

	for _, det := range dets {

		png, err := EncodeMask(det.Mask)

		if err != nil {
			return nil, fmt.Errorf("detection %d: %w", det.ID, err)
		}

		d := detectionDoc{
			Class:      det.Class.String(),
			Confidence: det.Confidence,
			Mask:       base64.StdEncoding.EncodeToString(png),
		}

		for i, l := range labels {
			if result.ParseClassLabel(l) == det.Class && det.Class != result.ClassUnknown {
				id := i
				d.ClassID = &id
				break
			}
		}

		doc.Detections = append(doc.Detections, d)
	}

	return json.Marshal(doc)
}

// DecodeDetections reads detections in the segmentation response format.
// Detections are numbered from 1 in document order
func DecodeDetections(data []byte, labels []string) ([]result.Detection, error) {

	var doc detectionsDoc

	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("error decoding detections: %w", err)
	}

	return doc.toDetections(labels)
}

// toDetections converts the wire detections
func (d detectionsDoc) toDetections(labels []string) ([]result.Detection, error) {

	ids := result.NewIDGenerator()
	dets := make([]result.Detection, 0, len(d.Detections))

	for i, doc := range d.Detections {

		png, err := base64.StdEncoding.DecodeString(doc.Mask)

		if err != nil {
			return nil, fmt.Errorf("detection %d: error decoding mask base64: %w", i, err)
		}

		mask, err := DecodeMask(png)

		if err != nil {
			return nil, fmt.Errorf("detection %d: %w", i, err)
		}

		dets = append(dets, result.Detection{
			ID:         ids.Next(),
			Class:      doc.class(labels),
			Mask:       mask,
			Confidence: doc.Confidence,
		})
	}

	return dets, nil
}

func (d detectionDoc) class(labels []string) result.ClassLabel {

	if d.Class != "" {
		return result.ParseClassLabel(d.Class)
	}

	if d.ClassID != nil {
		return result.ClassForID(labels, *d.ClassID)
	}

	return result.ClassUnknown
}

// EncodeMask encodes the mask as a single channel PNG with on pixels at 255
func EncodeMask(m result.Mask) ([]byte, error) {

	if err := m.Check(); err != nil {
		return nil, err
	}

	px := make([]uint8, len(m.Data))

	for i, v := range m.Data {
		if v != 0 {
			px[i] = 255
		}
	}

	mat, err := gocv.NewMatFromBytes(m.Height, m.Width, gocv.MatTypeCV8UC1, px)

	if err != nil {
		return nil, fmt.Errorf("error creating mask Mat: %w", err)
	}

	defer mat.Close()

	buf, err := gocv.IMEncode(gocv.PNGFileExt, mat)

	if err != nil {
		return nil, fmt.Errorf("error encoding mask png: %w", err)
	}

	defer buf.Close()

	data := make([]byte, buf.Len())
	copy(data, buf.GetBytes())

	return data, nil
}

// DecodeMask decodes a mask image, any nonzero pixel is on
func DecodeMask(data []byte) (result.Mask, error) {

	mat, err := gocv.IMDecode(data, gocv.IMReadGrayScale)

	if err != nil {
		return result.Mask{}, fmt.Errorf("error decoding mask image: %w", err)
	}

	defer mat.Close()

	if mat.Empty() {
		return result.Mask{}, fmt.Errorf("mask image could not be decoded")
	}

	m := result.NewMask(mat.Cols(), mat.Rows())

	for i, v := range mat.ToBytes() {
		if v != 0 {
			m.Data[i] = 1
		}
	}

	return m, nil
}
