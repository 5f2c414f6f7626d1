package lumen

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// LightId is a stable handle assigned by the LightRegistry. Ids are never
// reused within a registry's lifetime, so removed lights cannot alias.
type LightId uint32

// InvalidLightId is the zero handle; no live light ever carries it.
const InvalidLightId LightId = 0

type LightKind uint32

const (
	LightKindDirectional LightKind = iota
	LightKindPoint
	LightKindSpot
	LightKindArea
)

func (k LightKind) String() string {
	switch k {
	case LightKindDirectional:
		return "directional"
	case LightKindPoint:
		return "point"
	case LightKindSpot:
		return "spot"
	case LightKindArea:
		return "area"
	}
	return fmt.Sprintf("unknown(%d)", uint32(k))
}

// AreaShape selects the emitter geometry of an AreaLight.
type AreaShape uint32

const (
	AreaShapeRectangle AreaShape = iota
	AreaShapeDisk
	AreaShapeTube
	AreaShapeSphere
)

// DirectionalLight is a sun-style light with no position. Direction is kept
// normalized by the registry. CascadeSplits is populated by the cascade
// calculator when the light casts shadows.
type DirectionalLight struct {
	Direction      mgl32.Vec3
	Color          mgl32.Vec3
	Intensity      float32
	ShadowDistance float32
	CascadeSplits  []float32
	CastShadows    bool
	Enabled        bool
}

type PointLight struct {
	Position    mgl32.Vec3
	Color       mgl32.Vec3
	Intensity   float32
	Range       float32
	CastShadows bool
	Enabled     bool
}

// SpotLight cone angles are half-angles in radians, inner <= outer,
// outer in (0, pi/2].
type SpotLight struct {
	Position    mgl32.Vec3
	Direction   mgl32.Vec3
	Color       mgl32.Vec3
	Intensity   float32
	Range       float32
	InnerCone   float32
	OuterCone   float32
	CastShadows bool
	Enabled     bool
}

type AreaLight struct {
	Position    mgl32.Vec3
	Normal      mgl32.Vec3
	Tangent     mgl32.Vec3
	Size        mgl32.Vec2 // width, height in world units
	Color       mgl32.Vec3
	Intensity   float32
	Shape       AreaShape
	CastShadows bool
	Enabled     bool
}

func validateCommon(kind LightKind, color mgl32.Vec3, intensity float32) error {
	if color.X() < 0 || color.Y() < 0 || color.Z() < 0 {
		return fmt.Errorf("%s light: color components must be >= 0", kind)
	}
	if intensity < 0 {
		return fmt.Errorf("%s light: intensity must be >= 0", kind)
	}
	return nil
}

func (l *DirectionalLight) validate() error {
	if err := validateCommon(LightKindDirectional, l.Color, l.Intensity); err != nil {
		return err
	}
	if l.Direction.Len() == 0 {
		return fmt.Errorf("directional light: direction must be non-zero")
	}
	if l.ShadowDistance < 0 {
		return fmt.Errorf("directional light: shadow distance must be >= 0")
	}
	return nil
}

func (l *PointLight) validate() error {
	if err := validateCommon(LightKindPoint, l.Color, l.Intensity); err != nil {
		return err
	}
	if l.Range <= 0 {
		return fmt.Errorf("point light: range must be > 0")
	}
	return nil
}

func (l *SpotLight) validate() error {
	if err := validateCommon(LightKindSpot, l.Color, l.Intensity); err != nil {
		return err
	}
	if l.Range <= 0 {
		return fmt.Errorf("spot light: range must be > 0")
	}
	if l.OuterCone <= 0 || l.OuterCone > float32(math.Pi/2) {
		return fmt.Errorf("spot light: outer cone must be in (0, pi/2]")
	}
	if l.InnerCone < 0 || l.InnerCone > l.OuterCone {
		return fmt.Errorf("spot light: inner cone must be in [0, outer cone]")
	}
	if l.Direction.Len() == 0 {
		return fmt.Errorf("spot light: direction must be non-zero")
	}
	return nil
}

func (l *AreaLight) validate() error {
	if err := validateCommon(LightKindArea, l.Color, l.Intensity); err != nil {
		return err
	}
	if l.Size.X() < 0 || l.Size.Y() < 0 {
		return fmt.Errorf("area light: size must be >= 0")
	}
	if l.Normal.Len() == 0 {
		return fmt.Errorf("area light: normal must be non-zero")
	}
	return nil
}
