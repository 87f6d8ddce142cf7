package motion

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/markermove/internal/core/domain"
)

func TestRotation_Endpoints(t *testing.T) {
	r := BeginRotation(10, 120, t0)
	assert.Equal(t, RotateDuration, r.Duration)
	assert.Equal(t, domain.Bearing(10), r.Sample(0))
	assert.Equal(t, domain.Bearing(120), r.Sample(RotateDuration))
	assert.Equal(t, domain.Bearing(120), r.Sample(time.Second))
	assert.InDelta(t, 65, float64(r.Sample(150*time.Millisecond)), 1e-9)
}

func TestRotation_FoldHalvesBelowMinus180(t *testing.T) {
	r := BeginRotation(0, -200, t0)

	// rot = -100 at t = 0.5, inside the threshold.
	assert.InDelta(t, -100, float64(r.Sample(150*time.Millisecond)), 1e-9)
	// rot = -200 at t = 1 is folded to -100.
	assert.InDelta(t, -100, float64(r.Sample(RotateDuration)), 1e-9)
	// rot = -190 at t = 0.95 is folded to -95.
	assert.InDelta(t, -95, float64(r.Sample(285*time.Millisecond)), 1e-9)
}

func TestRotation_FoldAppliesAtStart(t *testing.T) {
	r := BeginRotation(-270, 0, t0)
	assert.InDelta(t, -135, float64(r.Sample(0)), 1e-9)
	assert.Equal(t, domain.Bearing(0), r.Sample(RotateDuration))
}

func TestRotation_SampleIsIdempotent(t *testing.T) {
	r := BeginRotation(-30, 170, t0)
	for e := time.Duration(0); e <= RotateDuration; e += FrameInterval {
		assert.Equal(t, r.Sample(e), r.Sample(e))
	}
}

func TestSmoother_TicksUntilDone(t *testing.T) {
	s := NewSmoother(0, 0)
	s.RotateTo(90, t0)

	ticks := 0
	var last domain.Bearing
	for now := t0; s.IsActive(now); now = now.Add(FrameInterval) {
		last = s.Rotation(now)
		ticks++
		require.Less(t, ticks, 100)
	}
	last = s.Rotation(t0.Add(RotateDuration))

	assert.Equal(t, domain.Bearing(90), last)
	assert.Equal(t, 19, ticks) // 0..288ms at 16ms cadence
	assert.False(t, s.IsActive(t0.Add(RotateDuration)))
	assert.Equal(t, domain.Bearing(90), s.Displayed())
}

func TestSmoother_RotateToStartsFromDisplayed(t *testing.T) {
	s := NewSmoother(0, 0)
	s.RotateTo(100, t0)
	shown := s.Rotation(t0.Add(150 * time.Millisecond))
	require.InDelta(t, 50, float64(shown), 1e-9)

	next := s.RotateTo(-40, t0.Add(150*time.Millisecond))
	assert.Equal(t, shown, next.From)
	assert.Equal(t, domain.Bearing(-40), next.To)
}

func TestSmoother_IdleReturnsDisplayed(t *testing.T) {
	s := NewSmoother(42, 0)
	assert.Equal(t, domain.Bearing(42), s.Rotation(t0))
	assert.False(t, s.IsActive(t0))
}
