package remote

import (
	"context"
	"fmt"
	"net/http"

	"gocv.io/x/gocv"
)

// Prediction is the spray decision of the classification model
type Prediction int

const (
	// NoSpray means the plant needs no treatment
	NoSpray Prediction = 0
	// Spray means the plant should be treated
	Spray Prediction = 1
)

func (p Prediction) String() string {
	switch p {
	case NoSpray:
		return "no spray"
	case Spray:
		return "spray"
	default:
		return fmt.Sprintf("prediction(%d)", int(p))
	}
}

type classifyResponse struct {
	Prediction *int   `json:"prediction"`
	Error      string `json:"error,omitempty"`
}

// ClassifyClient asks the hosted classification model whether a corrected
// plant image needs spraying
type ClassifyClient struct {
	c *client
}

// NewClassifyClient returns a client for the endpoint.  hc may be nil to use
// a default http.Client
func NewClassifyClient(cfg Config, hc *http.Client) (*ClassifyClient, error) {

	c, err := newClient(cfg, hc)

	if err != nil {
		return nil, err
	}

	return &ClassifyClient{c: c}, nil
}

// Classify sends the encoded plant image and returns the model prediction.
// An error payload is returned as an *UpstreamError
func (cc *ClassifyClient) Classify(ctx context.Context, image []byte) (Prediction, error) {

	var resp classifyResponse

	err := cc.c.postImage(ctx, image, &resp, func() string { return resp.Error })

	if err != nil {
		return NoSpray, err
	}

	if resp.Prediction == nil {
		return NoSpray, &UpstreamError{
			Endpoint: cc.c.cfg.Endpoint,
			Status:   http.StatusOK,
			Message:  "response has no prediction",
		}
	}

	p := Prediction(*resp.Prediction)

	if p != NoSpray && p != Spray {
		return NoSpray, &UpstreamError{
			Endpoint: cc.c.cfg.Endpoint,
			Status:   http.StatusOK,
			Message:  fmt.Sprintf("unexpected prediction %d", *resp.Prediction),
		}
	}

	return p, nil
}

// EncodeJPEG encodes a corrected plant image for the classifier.  The Mat
// bytes are written as they are, so an RGB image is stored with its channels
// in RGB order, which is what the classifier was trained on
func EncodeJPEG(img gocv.Mat) ([]byte, error) {

	if img.Empty() {
		return nil, fmt.Errorf("image is empty")
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, img)

	if err != nil {
		return nil, fmt.Errorf("error encoding jpeg: %w", err)
	}

	defer buf.Close()

	// copy out of the native buffer before it is freed
	data := make([]byte, buf.Len())
	copy(data, buf.GetBytes())

	return data, nil
}
