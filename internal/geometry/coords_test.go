package geometry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToPercentDelta_ScaleIndependent(t *testing.T) {
	for _, scale := range []float64{1.0, 0.5, 2.0} {
		v := Viewport{Width: 1000, Height: 500, Scale: scale}
		dx, dy := v.ToPercentDelta(100, 0)
		assert.InDelta(t, 10.0, dx, 1e-9, "scale %v", scale)
		assert.InDelta(t, 0.0, dy, 1e-9, "scale %v", scale)
	}
}

func TestLogicalSize(t *testing.T) {
	v := Viewport{Width: 640, Height: 360, Scale: 0.5}
	w, h := v.LogicalSize()
	assert.Equal(t, 1280.0, w)
	assert.Equal(t, 720.0, h)

	// 64 экранных пикселя при масштабе 0.5 - это 128 логических, т.е. 10%
	dx, dy := v.ToPercentDelta(64, 36)
	assert.InDelta(t, 10.0, dx, 1e-9)
	assert.InDelta(t, 10.0, dy, 1e-9)
}

func TestToPercentDelta_DegenerateInput(t *testing.T) {
	tests := []struct {
		name string
		v    Viewport
	}{
		{"zero width", Viewport{Width: 0, Height: 100, Scale: 1}},
		{"nan scale", Viewport{Width: 0, Height: 0, Scale: math.NaN()}},
		{"negative size", Viewport{Width: -10, Height: -10, Scale: 1}},
		{"infinite size", Viewport{Width: math.Inf(1), Height: 10, Scale: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dx, dy := tt.v.ToPercentDelta(50, 50)
			assert.True(t, Finite(dx))
			assert.True(t, Finite(dy))
			assert.False(t, tt.v.Valid())
		})
	}
}

func TestEffectiveScale(t *testing.T) {
	assert.Equal(t, 1.0, Viewport{Scale: 0}.EffectiveScale())
	assert.Equal(t, 1.0, Viewport{Scale: -2}.EffectiveScale())
	assert.Equal(t, 1.0, Viewport{Scale: math.Inf(1)}.EffectiveScale())
	assert.Equal(t, 0.75, Viewport{Scale: 0.75}.EffectiveScale())
}

func TestToScreenDelta_RoundTrip(t *testing.T) {
	v := Viewport{Width: 1024, Height: 576, Scale: 0.8}
	dxPct, dyPct := v.ToPercentDelta(64, -36)
	dx, dy := v.ToScreenDelta(dxPct, dyPct)
	assert.InDelta(t, 64.0, dx, 1e-9)
	assert.InDelta(t, -36.0, dy, 1e-9)
}

func TestClampMin(t *testing.T) {
	assert.Equal(t, MinElementSize, ClampMin(-400, MinElementSize))
	assert.Equal(t, MinElementSize, ClampMin(math.NaN(), MinElementSize))
	assert.Equal(t, 42.0, ClampMin(42, MinElementSize))
}
