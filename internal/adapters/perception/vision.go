package perception

import (
	"bytes"
	"image"
	_ "image/png"
	"math"
	"time"

	"github.com/paulmach/orb"

	"robot-navigator/internal/domain"
	"robot-navigator/internal/ports"
)

// minBlobPixels is the smallest marker blob treated as a detection; anything
// smaller is sensor noise.
const minBlobPixels = 20

// VisionEstimator locates the robot's red marker in overhead camera frames.
//
// Pixel coordinates map linearly onto the arena bounds (image origin is the
// arena's top-left corner, so the y axis flips). Heading is not observable
// from a single frame; it is inferred from the displacement between
// consecutive detections, which makes the first pose of a run carry heading
// zero. Confidence scales with blob size up to the nominal marker area.
type VisionEstimator struct {
	arena  *domain.Arena
	maxAge time.Duration

	prev     orb.Point
	prevAt   time.Time
	heading  float64
	havePrev bool
}

var _ ports.StateEstimator = (*VisionEstimator)(nil)

func NewVisionEstimator(arena *domain.Arena, maxAge time.Duration) *VisionEstimator {
	return &VisionEstimator{arena: arena, maxAge: maxAge}
}

func (e *VisionEstimator) Estimate(ev ports.Event) (domain.Pose, error) {
	if ev.Kind != ports.EventFrame || len(ev.Frame) == 0 {
		return domain.Pose{}, domain.ErrStaleObservation
	}
	if e.maxAge > 0 && time.Since(ev.At) > e.maxAge {
		return domain.Pose{}, domain.ErrStaleObservation
	}

	img, _, err := image.Decode(bytes.NewReader(ev.Frame))
	if err != nil {
		return domain.Pose{}, domain.ErrStaleObservation
	}

	cx, cy, count := redCentroid(img)
	if count < minBlobPixels {
		return domain.Pose{}, domain.ErrStaleObservation
	}

	pos := e.toWorld(img.Bounds(), cx, cy)

	if e.havePrev {
		dx := pos.X() - e.prev.X()
		dy := pos.Y() - e.prev.Y()
		if math.Hypot(dx, dy) > 1e-6 {
			e.heading = math.Atan2(dy, dx)
		}
	}

	pose := domain.Pose{
		Position:   pos,
		Heading:    e.heading,
		Confidence: math.Min(1, float64(count)/200),
		Timestamp:  ev.At,
	}
	if e.havePrev {
		dt := ev.At.Sub(e.prevAt).Seconds()
		if dt > 0 {
			pose.Velocity = orb.Point{
				(pos.X() - e.prev.X()) / dt,
				(pos.Y() - e.prev.Y()) / dt,
			}
		}
	}

	e.prev = pos
	e.prevAt = ev.At
	e.havePrev = true
	return pose, nil
}

// redCentroid averages the coordinates of strongly red pixels.
func redCentroid(img image.Image) (x, y float64, count int) {
	b := img.Bounds()
	var sumX, sumY float64
	for py := b.Min.Y; py < b.Max.Y; py++ {
		for px := b.Min.X; px < b.Max.X; px++ {
			r, g, bl, _ := img.At(px, py).RGBA()
			if r>>8 > 150 && g>>8 < 100 && bl>>8 < 100 {
				sumX += float64(px)
				sumY += float64(py)
				count++
			}
		}
	}
	if count == 0 {
		return 0, 0, 0
	}
	return sumX / float64(count), sumY / float64(count), count
}

// toWorld maps a pixel centroid onto arena coordinates, flipping the y axis.
func (e *VisionEstimator) toWorld(px image.Rectangle, cx, cy float64) orb.Point {
	bounds := e.arena.Bounds()
	w := float64(px.Dx())
	h := float64(px.Dy())

	fx := (cx - float64(px.Min.X)) / w
	fy := (cy - float64(px.Min.Y)) / h

	return orb.Point{
		bounds.Min.X() + fx*(bounds.Max.X()-bounds.Min.X()),
		bounds.Max.Y() - fy*(bounds.Max.Y()-bounds.Min.Y()),
	}
}
