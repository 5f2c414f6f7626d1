package lumen

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

var debugKindColors = map[LightKind]color.RGBA{
	LightKindDirectional: {R: 0xe6, G: 0xb4, B: 0x22, A: 0xff},
	LightKindPoint:       {R: 0x4c, G: 0x9e, B: 0xe0, A: 0xff},
	LightKindSpot:        {R: 0x67, G: 0xc2, B: 0x6a, A: 0xff},
	LightKindArea:        {R: 0xc0, G: 0x6c, B: 0xd6, A: 0xff},
}

// DebugSnapshot renders the atlas occupancy as an image for inspection:
// allocated regions tinted by light kind, free space dark. The full-size
// occupancy is downscaled to maxDim on the long edge so a 8k atlas stays a
// reasonable overlay texture.
func (a *ShadowAtlas) DebugSnapshot(maxDim int) *image.RGBA {
	full := image.NewRGBA(image.Rect(0, 0, int(a.resolution), int(a.resolution)))
	bg := color.RGBA{R: 0x18, G: 0x18, B: 0x1c, A: 0xff}
	draw.Draw(full, full.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)

	for _, alloc := range a.allocations {
		c, ok := debugKindColors[alloc.Kind]
		if !ok {
			c = color.RGBA{R: 0x88, G: 0x88, B: 0x88, A: 0xff}
		}
		r := alloc.Region
		rect := image.Rect(int(r.X), int(r.Y), int(r.X+r.Width), int(r.Y+r.Height))
		draw.Draw(full, rect, image.NewUniform(c), image.Point{}, draw.Src)
		// 1px border so adjacent regions stay distinguishable.
		border := color.RGBA{A: 0xff}
		for x := rect.Min.X; x < rect.Max.X; x++ {
			full.SetRGBA(x, rect.Min.Y, border)
			full.SetRGBA(x, rect.Max.Y-1, border)
		}
		for y := rect.Min.Y; y < rect.Max.Y; y++ {
			full.SetRGBA(rect.Min.X, y, border)
			full.SetRGBA(rect.Max.X-1, y, border)
		}
	}

	if maxDim <= 0 || int(a.resolution) <= maxDim {
		return full
	}
	scaled := image.NewRGBA(image.Rect(0, 0, maxDim, maxDim))
	draw.ApproxBiLinear.Scale(scaled, scaled.Bounds(), full, full.Bounds(), draw.Src, nil)
	return scaled
}
