package lumen

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testCamera looks down -Z from the origin, so view space equals world space.
func testCamera(near, far float32) Camera {
	return NewPerspectiveCamera(
		mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 0, -1}, mgl32.Vec3{0, 1, 0},
		mgl32.DegToRad(90), 1, near, far)
}

func snapshotWith(t *testing.T, cfg LightingConfig, points ...PointLight) (*LightRegistry, *LightSnapshot) {
	t.Helper()
	reg, err := NewLightRegistry(cfg)
	require.NoError(t, err)
	for _, p := range points {
		_, err := reg.AddPoint(p)
		require.NoError(t, err)
	}
	return reg, reg.Snapshot()
}

func TestClusterIndexRowMajor(t *testing.T) {
	grid := NewClusterGrid([3]int{2, 2, 2})
	assert.Equal(t, 0, grid.ClusterIndex(0, 0, 0))
	assert.Equal(t, 1, grid.ClusterIndex(1, 0, 0))
	assert.Equal(t, 2, grid.ClusterIndex(0, 1, 0))
	assert.Equal(t, 4, grid.ClusterIndex(0, 0, 1))
	assert.Equal(t, 7, grid.ClusterIndex(1, 1, 1))
	assert.Equal(t, 8, grid.ClusterCount())
}

func TestClusterContainsLightAtCenter(t *testing.T) {
	grid := NewClusterGrid([3]int{4, 4, 4})
	cam := testCamera(1, 100)

	// One pass to build the AABBs, then place a light at a cell's center.
	_, empty := snapshotWith(t, DefaultLightingConfig())
	grid.Update(cam, empty)

	for _, cell := range [][3]int{{0, 0, 0}, {2, 1, 3}, {3, 3, 1}} {
		i := grid.ClusterIndex(cell[0], cell[1], cell[2])
		c := grid.Clusters()[i]
		center := c.AABBMin.Add(c.AABBMax).Mul(0.5)
		diagonal := c.AABBMax.Sub(c.AABBMin).Len()

		_, snap := snapshotWith(t, DefaultLightingConfig(), PointLight{
			Position:  center, // view space == world space here
			Color:     mgl32.Vec3{1, 1, 1},
			Intensity: 1,
			Range:     diagonal + 1,
			Enabled:   true,
		})
		grid.Update(cam, snap)

		got := grid.ClusterLights(cell[0], cell[1], cell[2])
		assert.Equal(t, []uint32{0}, got, "cell %v", cell)
		assert.True(t, grid.Visible(snap.PointIds[0]))
	}
}

func TestClusterSphereAssignmentMatchesGeometry(t *testing.T) {
	grid := NewClusterGrid([3]int{4, 4, 4})
	cam := testCamera(1, 100)

	const lightRange = 10
	_, snap := snapshotWith(t, DefaultLightingConfig(), PointLight{
		Position:  mgl32.Vec3{0, 0, 0},
		Color:     mgl32.Vec3{1, 1, 1},
		Intensity: 1,
		Range:     lightRange,
		Enabled:   true,
	})
	grid.Update(cam, snap)

	dims := grid.Dims()
	assigned := 0
	for z := 0; z < dims[2]; z++ {
		for y := 0; y < dims[1]; y++ {
			for x := 0; x < dims[0]; x++ {
				c := grid.Clusters()[grid.ClusterIndex(x, y, z)]
				want := sphereIntersectsAABB(mgl32.Vec3{0, 0, 0}, lightRange, c.AABBMin, c.AABBMax)
				got := c.LightCount == 1
				assert.Equal(t, want, got, "cell (%d,%d,%d) aabb %v..%v", x, y, z, c.AABBMin, c.AABBMax)
				if got {
					assigned++
				}
			}
		}
	}
	require.Greater(t, assigned, 0, "a range-10 sphere at the camera must reach the near slices")

	// Depth slices are linear over [1,100]; slice 1 starts at z=-25.75,
	// beyond the sphere's reach.
	for z := 1; z < dims[2]; z++ {
		for y := 0; y < dims[1]; y++ {
			for x := 0; x < dims[0]; x++ {
				assert.Zero(t, grid.Clusters()[grid.ClusterIndex(x, y, z)].LightCount,
					"cell (%d,%d,%d) is past the light's range", x, y, z)
			}
		}
	}
}

func TestClusterCapacityClamp(t *testing.T) {
	grid := NewClusterGrid([3]int{1, 1, 1})
	cam := testCamera(1, 100)

	cfg := DefaultLightingConfig()
	cfg.MaxPointLights = 128
	reg, err := NewLightRegistry(cfg)
	require.NoError(t, err)
	for i := 0; i < MaxLightsPerCluster+6; i++ {
		_, err := reg.AddPoint(PointLight{
			Position:  mgl32.Vec3{0, 0, -50},
			Color:     mgl32.Vec3{1, 1, 1},
			Intensity: 1,
			Range:     200,
			Enabled:   true,
		})
		require.NoError(t, err)
	}

	grid.Update(cam, reg.Snapshot())

	assert.Len(t, grid.ClusterLights(0, 0, 0), MaxLightsPerCluster)
	assert.Equal(t, 1, grid.OverflowCount())
}

func TestClusterDisabledLightsKeepIndexSlots(t *testing.T) {
	grid := NewClusterGrid([3]int{1, 1, 1})
	cam := testCamera(1, 100)

	disabled := PointLight{
		Position: mgl32.Vec3{0, 0, -50}, Color: mgl32.Vec3{1, 1, 1},
		Intensity: 1, Range: 200,
	}
	enabled := disabled
	enabled.Enabled = true

	_, snap := snapshotWith(t, DefaultLightingConfig(), disabled, enabled)
	grid.Update(cam, snap)

	// The disabled light occupies index 0 in the packed buffer, so the
	// enabled one must be referenced as index 1.
	assert.Equal(t, []uint32{1}, grid.ClusterLights(0, 0, 0))
	assert.False(t, grid.Visible(snap.PointIds[0]))
	assert.True(t, grid.Visible(snap.PointIds[1]))
}

func TestClusterDisabledSlotsAcrossKinds(t *testing.T) {
	grid := NewClusterGrid([3]int{1, 1, 1})
	cam := testCamera(1, 100)

	cfg := DefaultLightingConfig()
	reg, err := NewLightRegistry(cfg)
	require.NoError(t, err)

	disabled := PointLight{
		Position: mgl32.Vec3{0, 0, -50}, Color: mgl32.Vec3{1, 1, 1},
		Intensity: 1, Range: 200,
	}
	_, err = reg.AddPoint(disabled)
	require.NoError(t, err)
	spotId, err := reg.AddSpot(SpotLight{
		Position: mgl32.Vec3{0, 0, -50}, Direction: mgl32.Vec3{0, 0, -1},
		Color: mgl32.Vec3{1, 1, 1}, Intensity: 1, Range: 200,
		InnerCone: 0.3, OuterCone: 0.6, Enabled: true,
	})
	require.NoError(t, err)

	snap := reg.Snapshot()
	grid.Update(cam, snap)

	// Point section reserves index 0, so the spot is index 1.
	assert.Equal(t, []uint32{1}, grid.ClusterLights(0, 0, 0))
	assert.False(t, grid.Visible(snap.PointIds[0]))
	assert.True(t, grid.Visible(spotId))
}

func TestClusterVisibleSetResetsEachFrame(t *testing.T) {
	grid := NewClusterGrid([3]int{2, 2, 2})
	cam := testCamera(1, 100)

	reg, snap := snapshotWith(t, DefaultLightingConfig(), PointLight{
		Position: mgl32.Vec3{0, 0, -10}, Color: mgl32.Vec3{1, 1, 1},
		Intensity: 1, Range: 5, Enabled: true,
	})
	grid.Update(cam, snap)
	id := snap.PointIds[0]
	require.True(t, grid.Visible(id))

	// Move the light behind the camera.
	moved := snap.Points[0]
	moved.Position = mgl32.Vec3{0, 0, 50}
	require.NoError(t, reg.UpdatePoint(id, moved))
	grid.Update(cam, reg.Snapshot())

	assert.False(t, grid.Visible(id))
}
