package lumen

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// shadowNear is the near plane for point and spot shadow projections.
const shadowNear = 0.1

// DepthRenderer rasterizes scene depth into an atlas region from a light's
// point of view. It is the external collaborator boundary: this subsystem
// never draws geometry itself. layer distinguishes the unit of work within
// one light (cascade index for directional, cube face for point, 0 for spot).
type DepthRenderer interface {
	RenderDepth(region Region, viewProj mgl32.Mat4, light LightId, layer int)
}

// DepthRendererFunc adapts a plain function to DepthRenderer.
type DepthRendererFunc func(region Region, viewProj mgl32.Mat4, light LightId, layer int)

func (f DepthRendererFunc) RenderDepth(region Region, viewProj mgl32.Mat4, light LightId, layer int) {
	f(region, viewProj, light, layer)
}

// ShadowRenderScheduler walks the frame's shadow-casting lights, keeps their
// atlas allocations alive, and triggers one depth render per shadow unit of
// work. A light that cannot get atlas space even after eviction is rendered
// unshadowed for that frame only; the frame itself never fails.
type ShadowRenderScheduler struct {
	config   LightingConfig
	atlas    *ShadowAtlas
	cascades *CascadeCache
	log      Logger

	// allocs maps a light to its live atlas allocation. Entries can go stale
	// when the atlas evicts under pressure; they are validated before use.
	allocs map[LightId]AllocationId

	// matrices is the frame's shadow matrix list in buffer order:
	// directional cascades first (light order, cascade near-to-far), then
	// point cube faces, then spot matrices, each in light order.
	matrices []mgl32.Mat4
}

func NewShadowRenderScheduler(config LightingConfig, atlas *ShadowAtlas, log Logger) *ShadowRenderScheduler {
	if log == nil {
		log = NewNopLogger()
	}
	return &ShadowRenderScheduler{
		config:   config,
		atlas:    atlas,
		cascades: NewCascadeCache(),
		log:      log,
		allocs:   make(map[LightId]AllocationId),
	}
}

// ShadowMatrices returns the matrices gathered by the last Schedule call.
func (s *ShadowRenderScheduler) ShadowMatrices() []mgl32.Mat4 {
	return s.matrices
}

// Release frees a removed light's atlas space and cached cascades.
func (s *ShadowRenderScheduler) Release(id LightId) {
	s.atlas.FreeOwnedBy(id)
	s.cascades.Drop(id)
	delete(s.allocs, id)
}

// Schedule renders shadows for every casting light that is visible this
// frame (present in at least one cluster; directional lights are always
// visible). Returns the number of depth renders issued and lights dropped.
func (s *ShadowRenderScheduler) Schedule(frame uint64, snap *LightSnapshot, grid *ClusterGrid, renderer DepthRenderer, stats *FrameStats) {
	s.matrices = s.matrices[:0]

	// Directional lights never appear in clusters but are always visible,
	// so their allocations must not look evictable under atlas pressure.
	directionals := make(map[LightId]struct{}, len(snap.DirectionalIds))
	for _, id := range snap.DirectionalIds {
		directionals[id] = struct{}{}
	}
	visible := func(id LightId) bool {
		if _, ok := directionals[id]; ok {
			return true
		}
		return grid.Visible(id)
	}

	for i := range snap.Directionals {
		l := &snap.Directionals[i]
		if !l.Enabled || !l.CastShadows {
			continue
		}
		id := snap.DirectionalIds[i]

		// Cascaded maps need more texels than a single cube face.
		size := s.config.ShadowMapResolution * 2
		allocId, ok := s.ensureAllocation(id, LightKindDirectional, size, frame, visible, stats)
		if !ok {
			stats.ShadowsDropped++
			continue
		}
		alloc, _ := s.atlas.Allocation(allocId)

		cascades := s.cascades.Get(id, l, s.config.CascadeCount)
		for layer, c := range cascades {
			s.matrices = append(s.matrices, c.ViewProj)
			if renderer != nil {
				renderer.RenderDepth(alloc.Region, c.ViewProj, id, layer)
			}
			stats.ShadowsRendered++
		}
	}

	for i := range snap.Points {
		l := &snap.Points[i]
		if !l.Enabled || !l.CastShadows {
			continue
		}
		id := snap.PointIds[i]
		if !grid.Visible(id) {
			continue
		}

		allocId, ok := s.ensureAllocation(id, LightKindPoint, s.config.ShadowMapResolution, frame, visible, stats)
		if !ok {
			stats.ShadowsDropped++
			continue
		}
		alloc, _ := s.atlas.Allocation(allocId)

		views := PointShadowViews(l.Position, l.Range)
		for layer, vp := range views {
			s.matrices = append(s.matrices, vp)
			if renderer != nil {
				renderer.RenderDepth(alloc.Region, vp, id, layer)
			}
			stats.ShadowsRendered++
		}
	}

	for i := range snap.Spots {
		l := &snap.Spots[i]
		if !l.Enabled || !l.CastShadows {
			continue
		}
		id := snap.SpotIds[i]
		if !grid.Visible(id) {
			continue
		}

		allocId, ok := s.ensureAllocation(id, LightKindSpot, s.config.ShadowMapResolution, frame, visible, stats)
		if !ok {
			stats.ShadowsDropped++
			continue
		}
		alloc, _ := s.atlas.Allocation(allocId)

		vp := SpotShadowView(l)
		s.matrices = append(s.matrices, vp)
		if renderer != nil {
			renderer.RenderDepth(alloc.Region, vp, id, 0)
		}
		stats.ShadowsRendered++
	}
}

// ensureAllocation returns a valid allocation for the light, requesting or
// re-requesting one when missing, evicted, or resized.
func (s *ShadowRenderScheduler) ensureAllocation(id LightId, kind LightKind, size uint32, frame uint64, visible func(LightId) bool, stats *FrameStats) (AllocationId, bool) {
	if allocId, ok := s.allocs[id]; ok {
		if alloc, live := s.atlas.Allocation(allocId); live {
			if alloc.Region.Width == size && alloc.Region.Height == size {
				s.atlas.Touch(allocId, frame)
				return allocId, true
			}
			s.atlas.Free(allocId)
		}
		delete(s.allocs, id)
	}

	allocId, evicted, err := s.atlas.AllocateOrEvict(size, size, kind, id, frame, visible)
	if evicted != InvalidLightId {
		delete(s.allocs, evicted)
		stats.AtlasEvictions++
		s.log.Debugf("shadow atlas: evicted stale allocation of light %d", evicted)
	}
	if err != nil {
		s.log.Warnf("shadow atlas: no space for %s light %d (%dx%d), rendering unshadowed this frame", kind, id, size, size)
		return 0, false
	}
	s.allocs[id] = allocId
	return allocId, true
}

// PointShadowViews builds the six cube-face view-projections for a point
// light, in +X,-X,+Y,-Y,+Z,-Z order. 90 degree square frustums cover the
// whole sphere of radius range.
func PointShadowViews(position mgl32.Vec3, rng float32) [6]mgl32.Mat4 {
	proj := mgl32.Perspective(float32(math.Pi/2), 1, shadowNear, rng)

	faces := [6]struct {
		forward mgl32.Vec3
		up      mgl32.Vec3
	}{
		{mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, -1, 0}},
		{mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{0, -1, 0}},
		{mgl32.Vec3{0, 1, 0}, mgl32.Vec3{0, 0, 1}},
		{mgl32.Vec3{0, -1, 0}, mgl32.Vec3{0, 0, -1}},
		{mgl32.Vec3{0, 0, 1}, mgl32.Vec3{0, -1, 0}},
		{mgl32.Vec3{0, 0, -1}, mgl32.Vec3{0, -1, 0}},
	}

	var views [6]mgl32.Mat4
	for i, f := range faces {
		view := mgl32.LookAtV(position, position.Add(f.forward), f.up)
		views[i] = proj.Mul4(view)
	}
	return views
}

// SpotShadowView builds the single perspective view-projection covering a
// spot light's outer cone.
func SpotShadowView(l *SpotLight) mgl32.Mat4 {
	up := mgl32.Vec3{0, 1, 0}
	if float32(math.Abs(float64(l.Direction.Y()))) > 0.9 {
		up = mgl32.Vec3{1, 0, 0}
	}
	proj := mgl32.Perspective(2*l.OuterCone, 1, shadowNear, l.Range)
	view := mgl32.LookAtV(l.Position, l.Position.Add(l.Direction), up)
	return proj.Mul4(view)
}
