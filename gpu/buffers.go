package gpu

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/gekko3d/lumen"
)

// LightingBuffers owns the GPU-side resources the shading stage binds: the
// packed light/shadow-matrix/cluster/index buffers and the shadow atlas
// depth texture. Buffers grow on demand and are rewritten in place when they
// already fit.
type LightingBuffers struct {
	Device *wgpu.Device

	LightsBuf         *wgpu.Buffer
	ShadowMatricesBuf *wgpu.Buffer
	ClusterBuf        *wgpu.Buffer
	LightIndicesBuf   *wgpu.Buffer

	AtlasTexture *wgpu.Texture
	AtlasView    *wgpu.TextureView
	AtlasSampler *wgpu.Sampler
}

// NewLightingBuffers creates the atlas depth texture and comparison sampler.
// atlasResolution is the full atlas size (lumen.ShadowAtlas.Resolution()).
func NewLightingBuffers(device *wgpu.Device, atlasResolution uint32) (*LightingBuffers, error) {
	b := &LightingBuffers{Device: device}

	var err error
	b.AtlasTexture, err = device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         "Shadow Atlas",
		Size:          wgpu.Extent3D{Width: atlasResolution, Height: atlasResolution, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatDepth32Float,
		Usage:         wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageTextureBinding,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create shadow atlas texture: %w", err)
	}

	b.AtlasView, err = b.AtlasTexture.CreateView(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create shadow atlas view: %w", err)
	}

	b.AtlasSampler, err = device.CreateSampler(&wgpu.SamplerDescriptor{
		AddressModeU:  wgpu.AddressModeClampToEdge,
		AddressModeV:  wgpu.AddressModeClampToEdge,
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MagFilter:     wgpu.FilterModeLinear,
		MinFilter:     wgpu.FilterModeLinear,
		MipmapFilter:  wgpu.MipmapFilterModeNearest,
		Compare:       wgpu.CompareFunctionLessEqual,
		MaxAnisotropy: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create shadow atlas sampler: %w", err)
	}

	return b, nil
}

// Upload pushes one frame's packed output to the GPU. Returns true when any
// buffer was recreated, which means bind groups referencing it are stale.
func (b *LightingBuffers) Upload(out *lumen.FrameOutput) bool {
	recreated := false
	if b.ensureBuffer("LightsBuf", &b.LightsBuf, out.Lights, wgpu.BufferUsageStorage) {
		recreated = true
	}
	if b.ensureBuffer("ShadowMatricesBuf", &b.ShadowMatricesBuf, out.ShadowMatrices, wgpu.BufferUsageStorage) {
		recreated = true
	}
	if b.ensureBuffer("ClusterBuf", &b.ClusterBuf, out.Clusters, wgpu.BufferUsageStorage) {
		recreated = true
	}
	if b.ensureBuffer("LightIndicesBuf", &b.LightIndicesBuf, out.LightIndices, wgpu.BufferUsageStorage) {
		recreated = true
	}
	return recreated
}

// ensureBuffer reuses the existing buffer when it is large enough, otherwise
// recreates it. Empty payloads still get a small valid buffer so bind groups
// never see a nil entry.
func (b *LightingBuffers) ensureBuffer(name string, buf **wgpu.Buffer, data []byte, usage wgpu.BufferUsage) bool {
	if len(data) == 0 {
		data = make([]byte, 16)
	}
	neededSize := uint64(len(data))
	if neededSize%4 != 0 {
		neededSize += 4 - (neededSize % 4)
	}

	current := *buf
	if current == nil || current.GetSize() < neededSize {
		if current != nil {
			current.Release()
		}
		newBuf, err := b.Device.CreateBuffer(&wgpu.BufferDescriptor{
			Label:            name,
			Size:             neededSize,
			Usage:            usage | wgpu.BufferUsageCopyDst,
			MappedAtCreation: false,
		})
		if err != nil {
			panic(err)
		}
		*buf = newBuf
		b.Device.GetQueue().WriteBuffer(*buf, 0, data)
		return true
	}

	b.Device.GetQueue().WriteBuffer(current, 0, data)
	return false
}

// Release drops every GPU resource the adapter owns.
func (b *LightingBuffers) Release() {
	for _, buf := range []**wgpu.Buffer{&b.LightsBuf, &b.ShadowMatricesBuf, &b.ClusterBuf, &b.LightIndicesBuf} {
		if *buf != nil {
			(*buf).Release()
			*buf = nil
		}
	}
	if b.AtlasView != nil {
		b.AtlasView.Release()
		b.AtlasView = nil
	}
	if b.AtlasTexture != nil {
		b.AtlasTexture.Release()
		b.AtlasTexture = nil
	}
	if b.AtlasSampler != nil {
		b.AtlasSampler.Release()
		b.AtlasSampler = nil
	}
}
