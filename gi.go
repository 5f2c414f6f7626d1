package lumen

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

type GIKind uint32

const (
	GILightProbes GIKind = iota
	GIVoxelConeTracing
	GIScreenSpaceGI
	GIRayTracedGI
)

func (k GIKind) String() string {
	switch k {
	case GILightProbes:
		return "light-probes"
	case GIVoxelConeTracing:
		return "voxel-cone-tracing"
	case GIScreenSpaceGI:
		return "screen-space-gi"
	case GIRayTracedGI:
		return "ray-traced-gi"
	}
	return "unknown"
}

// GIStrategyHandle identifies one live strategy instance. A fresh handle is
// minted per construction, so a torn-down strategy can never be confused
// with its replacement.
type GIStrategyHandle string

// GIConfig configures whichever strategy is selected; irrelevant fields are
// ignored by the other techniques.
type GIConfig struct {
	// Light probes
	ProbeBoundsMin mgl32.Vec3
	ProbeBoundsMax mgl32.Vec3
	ProbeSpacing   float32

	// Voxel cone tracing
	VoxelResolution uint32

	// Screen-space GI
	TemporalBlend float32

	// Ray-traced GI
	SamplesPerPixel int
}

func DefaultGIConfig() GIConfig {
	return GIConfig{
		ProbeBoundsMin:  mgl32.Vec3{-50, -10, -50},
		ProbeBoundsMax:  mgl32.Vec3{50, 30, 50},
		ProbeSpacing:    10,
		VoxelResolution: 512,
		TemporalBlend:   0.9,
		SamplesPerPixel: 1,
	}
}

// ProbeIrradiance is one probe's accumulated indirect lighting estimate.
type ProbeIrradiance struct {
	Position   mgl32.Vec3
	Irradiance mgl32.Vec3
}

// IrradianceData is the per-frame output consumed by the shading stage. Its
// interpretation depends on the technique; the shading stage treats it as
// opaque and hands it to the matching resolve pass.
type IrradianceData struct {
	Technique GIKind
	Ambient   mgl32.Vec3
	Probes    []ProbeIrradiance
}

// GIStrategy is the single active indirect-lighting technique. Strategies
// own their resources from construction to Teardown; no two strategies are
// ever live at the same time.
type GIStrategy interface {
	Handle() GIStrategyHandle
	Kind() GIKind
	ComputeIndirect(snap *LightSnapshot) IrradianceData
	Teardown()
}

// NewGIStrategy constructs the selected technique, validating its slice of
// the config.
func NewGIStrategy(kind GIKind, cfg GIConfig) (GIStrategy, error) {
	handle := GIStrategyHandle(uuid.NewString())
	switch kind {
	case GILightProbes:
		if cfg.ProbeSpacing <= 0 {
			return nil, &ConfigError{Field: "ProbeSpacing", Reason: "must be > 0"}
		}
		return newLightProbeGI(handle, cfg), nil
	case GIVoxelConeTracing:
		if cfg.VoxelResolution == 0 {
			return nil, &ConfigError{Field: "VoxelResolution", Reason: "must be > 0"}
		}
		return &voxelConeTracingGI{handle: handle, resolution: cfg.VoxelResolution}, nil
	case GIScreenSpaceGI:
		if cfg.TemporalBlend < 0 || cfg.TemporalBlend >= 1 {
			return nil, &ConfigError{Field: "TemporalBlend", Reason: "must be in [0, 1)"}
		}
		return &screenSpaceGI{handle: handle, blend: cfg.TemporalBlend}, nil
	case GIRayTracedGI:
		if cfg.SamplesPerPixel <= 0 {
			return nil, &ConfigError{Field: "SamplesPerPixel", Reason: "must be > 0"}
		}
		return &rayTracedGI{handle: handle, samples: cfg.SamplesPerPixel}, nil
	}
	return nil, &ConfigError{Field: "GIKind", Reason: "unknown technique"}
}

// ambientFromLights is the shared direct-sum fallback estimate the
// screen-space and ray-traced techniques seed their passes with.
func ambientFromLights(snap *LightSnapshot) mgl32.Vec3 {
	var sum mgl32.Vec3
	for i := range snap.Directionals {
		l := &snap.Directionals[i]
		if l.Enabled {
			sum = sum.Add(l.Color.Mul(l.Intensity))
		}
	}
	for i := range snap.Points {
		l := &snap.Points[i]
		if l.Enabled {
			sum = sum.Add(l.Color.Mul(l.Intensity * 0.25))
		}
	}
	for i := range snap.Spots {
		l := &snap.Spots[i]
		if l.Enabled {
			sum = sum.Add(l.Color.Mul(l.Intensity * 0.25))
		}
	}
	for i := range snap.Areas {
		l := &snap.Areas[i]
		if l.Enabled {
			sum = sum.Add(l.Color.Mul(l.Intensity * 0.25))
		}
	}
	return sum
}

// lightProbeGI keeps a regular grid of probes and re-evaluates their
// irradiance from the frame's snapshot.
type lightProbeGI struct {
	handle GIStrategyHandle
	probes []ProbeIrradiance
	live   bool
}

func newLightProbeGI(handle GIStrategyHandle, cfg GIConfig) *lightProbeGI {
	var probes []ProbeIrradiance
	min, max, step := cfg.ProbeBoundsMin, cfg.ProbeBoundsMax, cfg.ProbeSpacing
	for x := min.X(); x <= max.X(); x += step {
		for y := min.Y(); y <= max.Y(); y += step {
			for z := min.Z(); z <= max.Z(); z += step {
				probes = append(probes, ProbeIrradiance{Position: mgl32.Vec3{x, y, z}})
			}
		}
	}
	return &lightProbeGI{handle: handle, probes: probes, live: true}
}

func (g *lightProbeGI) Handle() GIStrategyHandle { return g.handle }
func (g *lightProbeGI) Kind() GIKind             { return GILightProbes }

func (g *lightProbeGI) ComputeIndirect(snap *LightSnapshot) IrradianceData {
	if !g.live {
		return IrradianceData{Technique: GILightProbes}
	}
	for i := range g.probes {
		g.probes[i].Irradiance = probeIrradianceAt(g.probes[i].Position, snap)
	}
	return IrradianceData{
		Technique: GILightProbes,
		Ambient:   ambientFromLights(snap),
		Probes:    g.probes,
	}
}

func (g *lightProbeGI) Teardown() {
	g.probes = nil
	g.live = false
}

func probeIrradianceAt(pos mgl32.Vec3, snap *LightSnapshot) mgl32.Vec3 {
	var sum mgl32.Vec3
	for i := range snap.Directionals {
		l := &snap.Directionals[i]
		if l.Enabled {
			sum = sum.Add(l.Color.Mul(l.Intensity))
		}
	}
	for i := range snap.Points {
		l := &snap.Points[i]
		if !l.Enabled {
			continue
		}
		d := pos.Sub(l.Position).Len()
		if d > l.Range {
			continue
		}
		sum = sum.Add(l.Color.Mul(l.Intensity / (1 + d*d)))
	}
	for i := range snap.Spots {
		l := &snap.Spots[i]
		if !l.Enabled {
			continue
		}
		d := pos.Sub(l.Position).Len()
		if d > l.Range {
			continue
		}
		sum = sum.Add(l.Color.Mul(l.Intensity / (1 + d*d)))
	}
	return sum
}

// voxelConeTracingGI holds the voxelization parameters; the voxel volume and
// cone-trace passes live in the gpu adapter.
type voxelConeTracingGI struct {
	handle     GIStrategyHandle
	resolution uint32
}

func (g *voxelConeTracingGI) Handle() GIStrategyHandle { return g.handle }
func (g *voxelConeTracingGI) Kind() GIKind             { return GIVoxelConeTracing }

func (g *voxelConeTracingGI) ComputeIndirect(snap *LightSnapshot) IrradianceData {
	return IrradianceData{
		Technique: GIVoxelConeTracing,
		Ambient:   ambientFromLights(snap),
	}
}

func (g *voxelConeTracingGI) Teardown() {}

// screenSpaceGI accumulates across frames with an exponential moving average.
type screenSpaceGI struct {
	handle  GIStrategyHandle
	blend   float32
	history mgl32.Vec3
	frames  uint64
}

func (g *screenSpaceGI) Handle() GIStrategyHandle { return g.handle }
func (g *screenSpaceGI) Kind() GIKind             { return GIScreenSpaceGI }

func (g *screenSpaceGI) ComputeIndirect(snap *LightSnapshot) IrradianceData {
	current := ambientFromLights(snap)
	if g.frames == 0 {
		g.history = current
	} else {
		g.history = g.history.Mul(g.blend).Add(current.Mul(1 - g.blend))
	}
	g.frames++
	return IrradianceData{
		Technique: GIScreenSpaceGI,
		Ambient:   g.history,
	}
}

func (g *screenSpaceGI) Teardown() {
	g.history = mgl32.Vec3{}
	g.frames = 0
}

type rayTracedGI struct {
	handle  GIStrategyHandle
	samples int
}

func (g *rayTracedGI) Handle() GIStrategyHandle { return g.handle }
func (g *rayTracedGI) Kind() GIKind             { return GIRayTracedGI }

func (g *rayTracedGI) ComputeIndirect(snap *LightSnapshot) IrradianceData {
	return IrradianceData{
		Technique: GIRayTracedGI,
		Ambient:   ambientFromLights(snap),
	}
}

func (g *rayTracedGI) Teardown() {}
