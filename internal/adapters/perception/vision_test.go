package perception

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"robot-navigator/internal/domain"
	"robot-navigator/internal/ports"
)

func visionArena(t *testing.T) *domain.Arena {
	t.Helper()

	arena, err := domain.NewArena(
		orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{10, 10}},
		nil,
		[]orb.Point{{2, 2}},
		orb.Point{9, 9},
	)
	require.NoError(t, err)
	return arena
}

// markerFrame renders a 100x100 frame with a red square of the given size
// whose top-left corner sits at (x, y).
func markerFrame(t *testing.T, x, y, size int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 100, 100))
	for py := y; py < y+size; py++ {
		for px := x; px < x+size; px++ {
			img.Set(px, py, color.RGBA{R: 255, A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func frameEvent(frame []byte, at time.Time) ports.Event {
	return ports.Event{Kind: ports.EventFrame, Frame: frame, At: at}
}

func TestVisionEstimatorLocatesMarker(t *testing.T) {
	est := NewVisionEstimator(visionArena(t), time.Minute)

	// 10x10 marker centered at pixel (44.5, 44.5).
	pose, err := est.Estimate(frameEvent(markerFrame(t, 40, 40, 10), time.Now()))
	require.NoError(t, err)

	assert.InDelta(t, 4.45, pose.Position.X(), 1e-9)
	assert.InDelta(t, 5.55, pose.Position.Y(), 1e-9, "image y axis flips onto the arena")
	assert.InDelta(t, 0.5, pose.Confidence, 1e-9)
}

func TestVisionEstimatorInfersHeadingFromMotion(t *testing.T) {
	est := NewVisionEstimator(visionArena(t), time.Minute)
	now := time.Now()

	_, err := est.Estimate(frameEvent(markerFrame(t, 40, 40, 10), now))
	require.NoError(t, err)

	// Marker moved right in the image: heading east (zero radians).
	pose, err := est.Estimate(frameEvent(markerFrame(t, 60, 40, 10), now.Add(time.Second)))
	require.NoError(t, err)
	assert.InDelta(t, 0, pose.Heading, 1e-9)
	assert.InDelta(t, 2.0, pose.Velocity.X(), 1e-9)
}

func TestVisionEstimatorRejectsTinyBlob(t *testing.T) {
	est := NewVisionEstimator(visionArena(t), time.Minute)

	_, err := est.Estimate(frameEvent(markerFrame(t, 40, 40, 3), time.Now()))
	assert.True(t, errors.Is(err, domain.ErrStaleObservation))
}

func TestVisionEstimatorRejectsWrongKind(t *testing.T) {
	est := NewVisionEstimator(visionArena(t), time.Minute)

	_, err := est.Estimate(ports.Event{Kind: ports.EventState, At: time.Now()})
	assert.True(t, errors.Is(err, domain.ErrStaleObservation))
}

func TestVisionEstimatorRejectsUndecodableFrame(t *testing.T) {
	est := NewVisionEstimator(visionArena(t), time.Minute)

	_, err := est.Estimate(frameEvent([]byte("not a png"), time.Now()))
	assert.True(t, errors.Is(err, domain.ErrStaleObservation))
}
