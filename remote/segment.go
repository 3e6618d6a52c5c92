package remote

import (
	"context"
	"net/http"

	"github.com/swdee/go-trayseg/postprocess/result"
)

// SegmentClient runs the hosted instance segmentation model over a tray photo
type SegmentClient struct {
	c      *client
	labels []string
}

// NewSegmentClient returns a client for the endpoint.  labels are the model
// class names used to resolve detections that only carry a class ID.  hc may
// be nil to use a default http.Client
func NewSegmentClient(cfg Config, labels []string, hc *http.Client) (*SegmentClient, error) {

	c, err := newClient(cfg, hc)

	if err != nil {
		return nil, err
	}

	return &SegmentClient{c: c, labels: labels}, nil
}

// Segment sends the encoded image and returns the detections in the order
// the model produced them.  An error payload is returned as an
// *UpstreamError, no detections are fabricated
func (s *SegmentClient) Segment(ctx context.Context, image []byte) ([]result.Detection, error) {

	var resp detectionsDoc

	err := s.c.postImage(ctx, image, &resp, func() string { return resp.Error })

	if err != nil {
		return nil, err
	}

	return resp.toDetections(s.labels)
}
