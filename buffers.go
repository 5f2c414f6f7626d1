package lumen

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Packed record strides in bytes. The shading stage indexes these sections
// with fixed offsets, so the layout is part of the wire contract.
const (
	DirectionalLightStride = 64
	PointLightStride       = 48
	SpotLightStride        = 64
	AreaLightStride        = 96
	ClusterStride          = 32
	Mat4Stride             = 64

	// MaxCascades is the most splits a packed directional record can carry.
	MaxCascades = 4
)

func appendF32(buf []byte, v float32) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], math.Float32bits(v))
	return append(buf, b[:]...)
}

func appendU32(buf []byte, v uint32) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	return append(buf, b[:]...)
}

func appendVec3(buf []byte, v mgl32.Vec3) []byte {
	buf = appendF32(buf, v.X())
	buf = appendF32(buf, v.Y())
	return appendF32(buf, v.Z())
}

func appendMat4(buf []byte, m mgl32.Mat4) []byte {
	for _, v := range m {
		buf = appendF32(buf, v)
	}
	return buf
}

func appendBool(buf []byte, v bool) []byte {
	if v {
		return appendU32(buf, 1)
	}
	return appendU32(buf, 0)
}

func appendPad(buf []byte, n int) []byte {
	return append(buf, make([]byte, n)...)
}

// PackLights serializes the snapshot into the light buffer: four
// fixed-capacity sections (directional, point, spot, area), each section
// sized max*stride with unused records zeroed. Field order within a record
// follows the shared attributes (color, intensity, enabled, cast_shadows)
// then the variant-specific fields.
func PackLights(snap *LightSnapshot, config *LightingConfig) []byte {
	size := config.MaxDirectionalLights*DirectionalLightStride +
		config.MaxPointLights*PointLightStride +
		config.MaxSpotLights*SpotLightStride +
		config.MaxAreaLights*AreaLightStride
	buf := make([]byte, 0, size)

	for i := range snap.Directionals {
		buf = appendDirectional(buf, &snap.Directionals[i])
	}
	buf = appendPad(buf, (config.MaxDirectionalLights-len(snap.Directionals))*DirectionalLightStride)

	for i := range snap.Points {
		buf = appendPoint(buf, &snap.Points[i])
	}
	buf = appendPad(buf, (config.MaxPointLights-len(snap.Points))*PointLightStride)

	for i := range snap.Spots {
		buf = appendSpot(buf, &snap.Spots[i])
	}
	buf = appendPad(buf, (config.MaxSpotLights-len(snap.Spots))*SpotLightStride)

	for i := range snap.Areas {
		buf = appendArea(buf, &snap.Areas[i])
	}
	buf = appendPad(buf, (config.MaxAreaLights-len(snap.Areas))*AreaLightStride)

	return buf
}

func appendDirectional(buf []byte, l *DirectionalLight) []byte {
	buf = appendVec3(buf, l.Color)
	buf = appendF32(buf, l.Intensity)
	buf = appendBool(buf, l.Enabled)
	buf = appendBool(buf, l.CastShadows)
	buf = appendVec3(buf, l.Direction)
	buf = appendF32(buf, l.ShadowDistance)
	for i := 0; i < MaxCascades; i++ {
		if i < len(l.CascadeSplits) {
			buf = appendF32(buf, l.CascadeSplits[i])
		} else {
			buf = appendF32(buf, 0)
		}
	}
	return appendPad(buf, 8)
}

func appendPoint(buf []byte, l *PointLight) []byte {
	buf = appendVec3(buf, l.Color)
	buf = appendF32(buf, l.Intensity)
	buf = appendBool(buf, l.Enabled)
	buf = appendBool(buf, l.CastShadows)
	buf = appendVec3(buf, l.Position)
	buf = appendF32(buf, l.Range)
	return appendPad(buf, 8)
}

func appendSpot(buf []byte, l *SpotLight) []byte {
	buf = appendVec3(buf, l.Color)
	buf = appendF32(buf, l.Intensity)
	buf = appendBool(buf, l.Enabled)
	buf = appendBool(buf, l.CastShadows)
	buf = appendVec3(buf, l.Position)
	buf = appendVec3(buf, l.Direction)
	buf = appendF32(buf, l.Range)
	buf = appendF32(buf, l.InnerCone)
	buf = appendF32(buf, l.OuterCone)
	return appendPad(buf, 4)
}

func appendArea(buf []byte, l *AreaLight) []byte {
	buf = appendVec3(buf, l.Color)
	buf = appendF32(buf, l.Intensity)
	buf = appendBool(buf, l.Enabled)
	buf = appendBool(buf, l.CastShadows)
	buf = appendVec3(buf, l.Position)
	buf = appendVec3(buf, l.Normal)
	buf = appendVec3(buf, l.Tangent)
	buf = appendF32(buf, l.Size.X())
	buf = appendF32(buf, l.Size.Y())
	buf = appendU32(buf, uint32(l.Shape))
	return appendPad(buf, 24)
}

// PackShadowMatrices serializes the scheduler's matrix list: directional
// cascades first (light order, cascade order near-to-far), then point cube
// faces, then spot matrices, each in light order. Matrices are written in
// mgl32's column-major element order.
func PackShadowMatrices(matrices []mgl32.Mat4) []byte {
	buf := make([]byte, 0, len(matrices)*Mat4Stride)
	for _, m := range matrices {
		buf = appendMat4(buf, m)
	}
	return buf
}

// PackClusters serializes one 32-byte record per cluster, row-major (x
// fastest): aabb_min, light_count, aabb_max, padding.
func PackClusters(grid *ClusterGrid) []byte {
	buf := make([]byte, 0, grid.ClusterCount()*ClusterStride)
	for i := range grid.clusters {
		c := &grid.clusters[i]
		buf = appendVec3(buf, c.AABBMin)
		buf = appendU32(buf, c.LightCount)
		buf = appendVec3(buf, c.AABBMax)
		buf = appendU32(buf, 0)
	}
	return buf
}

// PackLightIndices serializes the flat light-index array: one contiguous run
// per cluster in cluster iteration order. Offsets are implicit in the
// per-cluster counts from the cluster buffer.
func PackLightIndices(grid *ClusterGrid) []byte {
	var total int
	for i := range grid.clusters {
		total += int(grid.clusters[i].LightCount)
	}
	buf := make([]byte, 0, total*4)
	for i := range grid.clusters {
		base := i * MaxLightsPerCluster
		for j := uint32(0); j < grid.clusters[i].LightCount; j++ {
			buf = appendU32(buf, grid.indices[base+int(j)])
		}
	}
	return buf
}
