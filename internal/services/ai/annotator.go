package ai

import (
	"fmt"
	"image"
	"image/color"

	"visiondash/internal/logger"
	"visiondash/internal/models"

	"gocv.io/x/gocv"
)

// AnnotatorService draws the upstream tracker's detections onto frames
// before they are stored. Raw detection boxes are outlined in green; the
// tracked target gets a red box with an id label and badge marker.
type AnnotatorService struct {
	logger *logger.Logger
}

func NewAnnotatorService(logger *logger.Logger) *AnnotatorService {
	return &AnnotatorService{logger: logger}
}

// Annotate decodes a JPEG frame, draws the boxes from the metadata snapshot
// and re-encodes it. Boxes are [x1, y1, x2, y2] in pixel coordinates.
func (s *AnnotatorService) Annotate(frame []byte, meta models.Metadata) ([]byte, error) {
	green := color.RGBA{R: 0, G: 255, B: 0, A: 0}
	red := color.RGBA{R: 255, G: 0, B: 0, A: 0}

	mat, err := gocv.IMDecode(frame, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("failed to decode frame: %v", err)
	}
	defer mat.Close()

	if mat.Empty() {
		return nil, fmt.Errorf("decoded frame is empty")
	}

	for _, box := range meta.Extra.RawBoxes {
		rect, ok := boxToRect(box)
		if !ok {
			continue
		}
		if err = gocv.Rectangle(&mat, rect, green, 2); err != nil {
			return nil, fmt.Errorf("failed to draw rectangle: %v", err)
		}
	}

	if target := meta.Extra.Target; target != nil {
		if rect, ok := boxToRect(target.BBox); ok {
			if err = gocv.Rectangle(&mat, rect, red, 3); err != nil {
				return nil, fmt.Errorf("failed to draw rectangle: %v", err)
			}

			label := fmt.Sprintf("target %d", target.ID)
			if target.Badge {
				label += " [badge]"
			}
			pt := image.Pt(rect.Min.X, rect.Min.Y-5)
			if err = gocv.PutText(&mat, label, pt, gocv.FontHersheySimplex, 0.5, red, 1); err != nil {
				return nil, fmt.Errorf("failed to draw text: %v", err)
			}
		}
	}

	buf, err := gocv.IMEncode(".jpg", mat)
	if err != nil {
		s.logger.Error("Failed to encode annotated frame: %v", err)
		return nil, err
	}
	defer buf.Close()

	annotated := make([]byte, len(buf.GetBytes()))
	copy(annotated, buf.GetBytes())

	return annotated, nil
}

func boxToRect(box []float64) (image.Rectangle, bool) {
	if len(box) < 4 {
		return image.Rectangle{}, false
	}
	return image.Rect(int(box[0]), int(box[1]), int(box[2]), int(box[3])), true
}
