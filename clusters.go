package lumen

import (
	"math"
	"runtime"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
)

// MaxLightsPerCluster bounds each cluster's light list. Lights past the
// bound are dropped for that cluster only; this is soft degradation, not an
// error.
const MaxLightsPerCluster = 64

// Cluster is one cell of the frustum grid. The AABB is in view space.
// Clusters are recomputed from scratch every frame and never persist.
type Cluster struct {
	AABBMin    mgl32.Vec3
	AABBMax    mgl32.Vec3
	LightCount uint32
}

// clusterLight is a snapshot light lowered into view space for culling.
// Index is the light's position in the clustered light ordering (points,
// then spots, then areas, each in registry iteration order). Disabled lights
// reserve an index but are not gathered, so index is not a position in the
// gathered slice.
type clusterLight struct {
	center mgl32.Vec3
	// radius for sphere tests (point/spot range); for area lights halfExtent
	// carries the conservative box instead and sphere is false.
	radius     float32
	halfExtent mgl32.Vec3
	sphere     bool
	index      uint32
}

// ClusterGrid tiles the camera frustum into nx*ny*nz view-space cells and
// assigns point/spot/area lights to the cells they can reach. Tiles split
// NDC x/y evenly; depth slices are linear in view depth between the camera's
// near and far planes. Cluster index order is row-major with x fastest.
type ClusterGrid struct {
	dims     [3]int
	clusters []Cluster
	// indices is a fixed-capacity arena: cluster i owns
	// indices[i*MaxLightsPerCluster : (i+1)*MaxLightsPerCluster]. Disjoint
	// regions let cluster workers run without shared mutable state.
	indices    []uint32
	overflowed []bool
	visible    map[LightId]struct{}
}

func NewClusterGrid(dims [3]int) *ClusterGrid {
	n := dims[0] * dims[1] * dims[2]
	return &ClusterGrid{
		dims:       dims,
		clusters:   make([]Cluster, n),
		indices:    make([]uint32, n*MaxLightsPerCluster),
		overflowed: make([]bool, n),
		visible:    make(map[LightId]struct{}),
	}
}

func (g *ClusterGrid) Dims() [3]int        { return g.dims }
func (g *ClusterGrid) ClusterCount() int   { return len(g.clusters) }
func (g *ClusterGrid) Clusters() []Cluster { return g.clusters }

// ClusterIndex maps 3D cell coordinates to the flat row-major index.
func (g *ClusterGrid) ClusterIndex(x, y, z int) int {
	return x + g.dims[0]*(y+g.dims[1]*z)
}

// ClusterLights returns the light indices assigned to one cell this frame.
func (g *ClusterGrid) ClusterLights(x, y, z int) []uint32 {
	i := g.ClusterIndex(x, y, z)
	base := i * MaxLightsPerCluster
	return g.indices[base : base+int(g.clusters[i].LightCount)]
}

// Visible reports whether a light landed in at least one cluster this frame.
func (g *ClusterGrid) Visible(id LightId) bool {
	_, ok := g.visible[id]
	return ok
}

// OverflowCount is the number of clusters whose light list was truncated at
// MaxLightsPerCluster this frame.
func (g *ClusterGrid) OverflowCount() int {
	n := 0
	for _, v := range g.overflowed {
		if v {
			n++
		}
	}
	return n
}

// Update recomputes every cluster AABB from the camera and reassigns the
// snapshot's lights. Assignment fans out across worker goroutines; each
// worker writes only its own clusters' index regions.
func (g *ClusterGrid) Update(camera Camera, snap *LightSnapshot) {
	lights, ids := gatherClusterLights(camera.View, snap)

	workers := runtime.GOMAXPROCS(0)
	if workers > len(g.clusters) {
		workers = len(g.clusters)
	}
	if workers < 1 {
		workers = 1
	}

	chunk := (len(g.clusters) + workers - 1) / workers
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := lo + chunk
		if hi > len(g.clusters) {
			hi = len(g.clusters)
		}
		if lo >= hi {
			break
		}
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			g.updateRange(camera, lights, lo, hi)
		}(lo, hi)
	}
	wg.Wait()

	// The per-frame visible set feeds shadow scheduling and atlas eviction.
	// The stored indices are packed-buffer indices, so ids resolves them;
	// the gathered slice has no slots for disabled lights.
	clear(g.visible)
	for i := range g.clusters {
		base := i * MaxLightsPerCluster
		for j := uint32(0); j < g.clusters[i].LightCount; j++ {
			idx := g.indices[base+int(j)]
			g.visible[ids[idx]] = struct{}{}
		}
	}
}

func (g *ClusterGrid) updateRange(camera Camera, lights []clusterLight, lo, hi int) {
	nx, ny := g.dims[0], g.dims[1]
	p00 := camera.Proj.At(0, 0)
	p11 := camera.Proj.At(1, 1)

	for i := lo; i < hi; i++ {
		x := i % nx
		y := (i / nx) % ny
		z := i / (nx * ny)

		cl := &g.clusters[i]
		cl.AABBMin, cl.AABBMax = clusterAABB(g.dims, x, y, z, p00, p11, camera.Near, camera.Far)
		cl.LightCount = 0
		g.overflowed[i] = false

		base := i * MaxLightsPerCluster
		for li := range lights {
			if !lightIntersectsAABB(&lights[li], cl.AABBMin, cl.AABBMax) {
				continue
			}
			if cl.LightCount >= MaxLightsPerCluster {
				// Soft degradation: the light still shades through
				// neighboring clusters, this cell just stops listing more.
				g.overflowed[i] = true
				break
			}
			g.indices[base+int(cl.LightCount)] = lights[li].index
			cl.LightCount++
		}
	}
}

// clusterAABB computes one cell's view-space bounds. NDC tile corners are
// unprojected onto eye rays and scaled to the slice's near/far depth; the
// camera looks down -Z in view space.
func clusterAABB(dims [3]int, x, y, z int, p00, p11, near, far float32) (mgl32.Vec3, mgl32.Vec3) {
	nx, ny, nz := float32(dims[0]), float32(dims[1]), float32(dims[2])

	ndcX0 := -1 + 2*float32(x)/nx
	ndcX1 := -1 + 2*float32(x+1)/nx
	ndcY0 := -1 + 2*float32(y)/ny
	ndcY1 := -1 + 2*float32(y+1)/ny

	dNear := near + (far-near)*float32(z)/nz
	dFar := near + (far-near)*float32(z+1)/nz

	minV := mgl32.Vec3{math.MaxFloat32, math.MaxFloat32, -dFar}
	maxV := mgl32.Vec3{-math.MaxFloat32, -math.MaxFloat32, -dNear}
	for _, d := range [2]float32{dNear, dFar} {
		for _, ndcX := range [2]float32{ndcX0, ndcX1} {
			xv := ndcX * d / p00
			if xv < minV[0] {
				minV[0] = xv
			}
			if xv > maxV[0] {
				maxV[0] = xv
			}
		}
		for _, ndcY := range [2]float32{ndcY0, ndcY1} {
			yv := ndcY * d / p11
			if yv < minV[1] {
				minV[1] = yv
			}
			if yv > maxV[1] {
				maxV[1] = yv
			}
		}
	}
	return minV, maxV
}

// gatherClusterLights lowers enabled point/spot/area lights into view space,
// assigning clustered indices in registry iteration order. Disabled lights
// keep their index slot reserved so indices stay aligned with the packed
// light buffer. The returned id slice maps every clustered index (enabled or
// not) back to its LightId.
func gatherClusterLights(view mgl32.Mat4, snap *LightSnapshot) ([]clusterLight, []LightId) {
	lights := make([]clusterLight, 0, snap.ClusteredLightCount())
	ids := make([]LightId, 0, snap.ClusteredLightCount())

	for i := range snap.Points {
		l := &snap.Points[i]
		idx := uint32(len(ids))
		ids = append(ids, snap.PointIds[i])
		if !l.Enabled {
			continue
		}
		lights = append(lights, clusterLight{
			center: view.Mul4x1(l.Position.Vec4(1)).Vec3(),
			radius: l.Range,
			sphere: true,
			index:  idx,
		})
	}
	for i := range snap.Spots {
		l := &snap.Spots[i]
		idx := uint32(len(ids))
		ids = append(ids, snap.SpotIds[i])
		if !l.Enabled {
			continue
		}
		// A range-radius sphere bounds the cone conservatively.
		lights = append(lights, clusterLight{
			center: view.Mul4x1(l.Position.Vec4(1)).Vec3(),
			radius: l.Range,
			sphere: true,
			index:  idx,
		})
	}
	for i := range snap.Areas {
		l := &snap.Areas[i]
		idx := uint32(len(ids))
		ids = append(ids, snap.AreaIds[i])
		if !l.Enabled {
			continue
		}
		h := l.Size.X()
		if l.Size.Y() > h {
			h = l.Size.Y()
		}
		lights = append(lights, clusterLight{
			center:     view.Mul4x1(l.Position.Vec4(1)).Vec3(),
			halfExtent: mgl32.Vec3{h, h, h},
			index:      idx,
		})
	}
	return lights, ids
}

func lightIntersectsAABB(l *clusterLight, min, max mgl32.Vec3) bool {
	if l.sphere {
		return sphereIntersectsAABB(l.center, l.radius, min, max)
	}
	return l.center.X()-l.halfExtent.X() <= max.X() && min.X() <= l.center.X()+l.halfExtent.X() &&
		l.center.Y()-l.halfExtent.Y() <= max.Y() && min.Y() <= l.center.Y()+l.halfExtent.Y() &&
		l.center.Z()-l.halfExtent.Z() <= max.Z() && min.Z() <= l.center.Z()+l.halfExtent.Z()
}

// sphereIntersectsAABB clamps the center to the box and compares the squared
// distance against the radius.
func sphereIntersectsAABB(center mgl32.Vec3, radius float32, min, max mgl32.Vec3) bool {
	var d2 float32
	for i := 0; i < 3; i++ {
		c := center[i]
		if c < min[i] {
			d := min[i] - c
			d2 += d * d
		} else if c > max[i] {
			d := c - max[i]
			d2 += d * d
		}
	}
	return d2 <= radius*radius
}
