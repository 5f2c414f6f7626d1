package lumen

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// cascadeNear is the near plane of every cascade's orthographic projection.
const cascadeNear = 0.1

// Cascade is one slice of a directional light's shadow coverage, ordered
// near-to-far. Coverage radius grows monotonically with the slice index.
type Cascade struct {
	SplitNear float32
	SplitFar  float32
	ViewProj  mgl32.Mat4
}

// ComputeCascades splits shadowDistance linearly into cascadeCount slices and
// builds one orthographic view-projection per slice. The ortho half-extent
// equals the slice's far split, so each cascade covers at least as much as
// the previous one. The light "eye" sits at -direction * split looking at the
// origin; world-Y is the up vector unless the direction is close to vertical,
// where world-X avoids a degenerate basis.
func ComputeCascades(direction mgl32.Vec3, shadowDistance float32, cascadeCount int) []Cascade {
	if cascadeCount < 1 || shadowDistance <= 0 {
		return nil
	}
	dir := direction.Normalize()

	up := mgl32.Vec3{0, 1, 0}
	if float32(math.Abs(float64(dir.Y()))) > 0.9 {
		up = mgl32.Vec3{1, 0, 0}
	}

	cascades := make([]Cascade, 0, cascadeCount)
	prev := float32(0)
	for i := 0; i < cascadeCount; i++ {
		split := shadowDistance * float32(i+1) / float32(cascadeCount)

		proj := mgl32.Ortho(-split, split, -split, split, cascadeNear, shadowDistance)
		eye := dir.Mul(-split)
		view := mgl32.LookAtV(eye, mgl32.Vec3{0, 0, 0}, up)

		cascades = append(cascades, Cascade{
			SplitNear: prev,
			SplitFar:  split,
			ViewProj:  proj.Mul4(view),
		})
		prev = split
	}
	return cascades
}

// CascadeSplits returns just the far split distances, near-to-far.
func CascadeSplits(shadowDistance float32, cascadeCount int) []float32 {
	if cascadeCount < 1 {
		return nil
	}
	splits := make([]float32, cascadeCount)
	for i := range splits {
		splits[i] = shadowDistance * float32(i+1) / float32(cascadeCount)
	}
	return splits
}

// cascadeKey captures the inputs cascades depend on; cached matrices stay
// valid until one of these changes.
type cascadeKey struct {
	direction mgl32.Vec3
	distance  float32
	count     int
}

type cascadeEntry struct {
	key      cascadeKey
	cascades []Cascade
}

// CascadeCache memoizes per-light cascade matrices across frames. It is
// owned by the shadow scheduler and accessed only from the render thread.
type CascadeCache struct {
	entries map[LightId]cascadeEntry
}

func NewCascadeCache() *CascadeCache {
	return &CascadeCache{entries: make(map[LightId]cascadeEntry)}
}

// Get returns the cached cascades for a light, recomputing when the light's
// shadow parameters changed since the last call.
func (c *CascadeCache) Get(id LightId, light *DirectionalLight, cascadeCount int) []Cascade {
	key := cascadeKey{
		direction: light.Direction,
		distance:  light.ShadowDistance,
		count:     cascadeCount,
	}
	if entry, ok := c.entries[id]; ok && entry.key == key {
		return entry.cascades
	}
	cascades := ComputeCascades(light.Direction, light.ShadowDistance, cascadeCount)
	c.entries[id] = cascadeEntry{key: key, cascades: cascades}
	return cascades
}

// Drop forgets a light's cached cascades.
func (c *CascadeCache) Drop(id LightId) {
	delete(c.entries, id)
}
