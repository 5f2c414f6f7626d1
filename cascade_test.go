package lumen

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCascadeSplitsLinear(t *testing.T) {
	splits := CascadeSplits(100, 4)
	assert.Equal(t, []float32{25, 50, 75, 100}, splits)

	assert.Nil(t, CascadeSplits(100, 0))
}

func TestComputeCascadesCoverage(t *testing.T) {
	dir := mgl32.Vec3{1, -1, 0}.Normalize()
	cascades := ComputeCascades(dir, 100, 4)
	require.Len(t, cascades, 4)

	prevFar := float32(0)
	for i, c := range cascades {
		assert.Equal(t, prevFar, c.SplitNear, "cascade %d near", i)
		assert.Greater(t, c.SplitFar, c.SplitNear, "cascade %d", i)
		prevFar = c.SplitFar

		// The origin is the cascade's look-at target and must land inside
		// its clip volume.
		ndc := c.ViewProj.Mul4x1(mgl32.Vec4{0, 0, 0, 1})
		assert.LessOrEqual(t, float32(math.Abs(float64(ndc.X()))), float32(1), "cascade %d", i)
		assert.LessOrEqual(t, float32(math.Abs(float64(ndc.Y()))), float32(1), "cascade %d", i)
	}
	assert.Equal(t, float32(100), prevFar)
}

func TestComputeCascadesVerticalDirection(t *testing.T) {
	// Straight-down light would be degenerate with a world-Y up vector.
	cascades := ComputeCascades(mgl32.Vec3{0, -1, 0}, 50, 2)
	require.Len(t, cascades, 2)
	for i, c := range cascades {
		for col := 0; col < 4; col++ {
			for row := 0; row < 4; row++ {
				v := c.ViewProj.At(row, col)
				assert.False(t, math.IsNaN(float64(v)), "cascade %d element (%d,%d)", i, row, col)
			}
		}
	}
}

func TestComputeCascadesInvalidInputs(t *testing.T) {
	assert.Nil(t, ComputeCascades(mgl32.Vec3{0, -1, 0}, 0, 4))
	assert.Nil(t, ComputeCascades(mgl32.Vec3{0, -1, 0}, 100, 0))
}

func TestCascadeCacheReuseAndInvalidation(t *testing.T) {
	cache := NewCascadeCache()
	light := DirectionalLight{
		Direction:      mgl32.Vec3{0.5, -1, 0.25}.Normalize(),
		ShadowDistance: 80,
	}

	first := cache.Get(1, &light, 4)
	require.Len(t, first, 4)
	second := cache.Get(1, &light, 4)
	assert.Same(t, &first[0], &second[0], "unchanged parameters must hit the cache")

	light.ShadowDistance = 120
	third := cache.Get(1, &light, 4)
	assert.NotSame(t, &first[0], &third[0])
	assert.Equal(t, float32(120), third[3].SplitFar)

	cache.Drop(1)
	fourth := cache.Get(1, &light, 4)
	assert.NotSame(t, &third[0], &fourth[0])
}
