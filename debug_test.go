package lumen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDebugSnapshotOccupancy(t *testing.T) {
	atlas := NewShadowAtlas(256)
	id, err := atlas.Allocate(128, 128, LightKindPoint, 1, 0)
	require.NoError(t, err)
	alloc, ok := atlas.Allocation(id)
	require.True(t, ok)

	img := atlas.DebugSnapshot(0)
	require.Equal(t, 256, img.Bounds().Dx())
	require.Equal(t, 256, img.Bounds().Dy())

	// Interior of the allocated region carries the point-light tint; free
	// space does not.
	inside := img.RGBAAt(int(alloc.Region.X)+64, int(alloc.Region.Y)+64)
	assert.Equal(t, debugKindColors[LightKindPoint], inside)
	outside := img.RGBAAt(200, 200)
	assert.NotEqual(t, debugKindColors[LightKindPoint], outside)

	// The region border is drawn in black.
	border := img.RGBAAt(int(alloc.Region.X), int(alloc.Region.Y))
	assert.Zero(t, border.R)
	assert.Zero(t, border.G)
	assert.Zero(t, border.B)
}

func TestDebugSnapshotDownscale(t *testing.T) {
	atlas := NewShadowAtlas(1024)
	_, err := atlas.Allocate(512, 512, LightKindSpot, 1, 0)
	require.NoError(t, err)

	img := atlas.DebugSnapshot(64)
	assert.Equal(t, 64, img.Bounds().Dx())
	assert.Equal(t, 64, img.Bounds().Dy())
}
