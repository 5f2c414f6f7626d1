package lumen

// FrameStats counts what the per-frame pass did and what it silently
// degraded. Degradations never fail the frame, so these counters (plus the
// log) are how callers notice pressure.
type FrameStats struct {
	Frame              uint64
	VisibleLights      int
	ClustersOverflowed int
	ShadowsRendered    int
	ShadowsDropped     int
	AtlasEvictions     int
}

// FrameOutput carries the packed buffers one frame produced, laid out for
// direct upload by the gpu adapter, plus the frame's GI result and stats.
type FrameOutput struct {
	Lights         []byte
	ShadowMatrices []byte
	Clusters       []byte
	LightIndices   []byte
	Irradiance     *IrradianceData
	Stats          FrameStats
}

// LightingSystem wires the registry, cluster grid, shadow atlas, scheduler
// and GI strategy into the once-per-frame pipeline: snapshot, cluster, render
// shadows, pack buffers. It holds no GPU handles; the gpu adapter consumes
// FrameOutput.
type LightingSystem struct {
	config    LightingConfig
	log       Logger
	registry  *LightRegistry
	atlas     *ShadowAtlas
	grid      *ClusterGrid
	scheduler *ShadowRenderScheduler
	gi        GIStrategy
	frame     uint64
}

// NewLightingSystem validates the configuration and builds the subsystem.
// The atlas texture is 4x the per-light shadow resolution in each dimension.
func NewLightingSystem(config LightingConfig, log Logger) (*LightingSystem, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = NewNopLogger()
	}

	registry, err := NewLightRegistry(config)
	if err != nil {
		return nil, err
	}

	atlas := NewShadowAtlas(config.ShadowMapResolution * 4)
	return &LightingSystem{
		config:    config,
		log:       log,
		registry:  registry,
		atlas:     atlas,
		grid:      NewClusterGrid(config.ClusterDimensions),
		scheduler: NewShadowRenderScheduler(config, atlas, log),
	}, nil
}

func (s *LightingSystem) Config() LightingConfig   { return s.config }
func (s *LightingSystem) Registry() *LightRegistry { return s.registry }
func (s *LightingSystem) Atlas() *ShadowAtlas      { return s.atlas }
func (s *LightingSystem) Grid() *ClusterGrid       { return s.grid }

// RemoveLight removes a light and frees its shadow allocation, if any. The
// two-step teardown lives here so the registry and atlas stay decoupled.
func (s *LightingSystem) RemoveLight(id LightId) error {
	if err := s.registry.Remove(id); err != nil {
		return err
	}
	s.scheduler.Release(id)
	return nil
}

// EnableGlobalIllumination selects the active indirect-lighting technique.
// The previous strategy is torn down completely before the new one is
// constructed; on construction failure GI stays disabled.
func (s *LightingSystem) EnableGlobalIllumination(kind GIKind, cfg GIConfig) (GIStrategyHandle, error) {
	if s.gi != nil {
		s.gi.Teardown()
		s.gi = nil
	}
	strategy, err := NewGIStrategy(kind, cfg)
	if err != nil {
		return "", err
	}
	s.gi = strategy
	s.log.Infof("global illumination: %s enabled", kind)
	return strategy.Handle(), nil
}

// DisableGlobalIllumination tears down the active strategy.
func (s *LightingSystem) DisableGlobalIllumination() {
	if s.gi != nil {
		s.gi.Teardown()
		s.gi = nil
	}
}

// GIStrategy returns the active strategy, or nil when GI is disabled.
func (s *LightingSystem) GIStrategy() GIStrategy { return s.gi }

// RenderFrame runs one frame of the lighting pipeline on the render thread:
// snapshot the registry, recompute clusters, schedule shadow renders through
// the external renderer, then pack the upload buffers. Per-light failures
// degrade silently (see FrameStats); the frame itself always completes.
func (s *LightingSystem) RenderFrame(camera Camera, renderer DepthRenderer) *FrameOutput {
	s.frame++

	snap := s.registry.Snapshot()

	// Cascade splits travel in the packed light records so the shading
	// stage can pick a cascade without extra uploads.
	for i := range snap.Directionals {
		l := &snap.Directionals[i]
		if l.CastShadows {
			l.CascadeSplits = CascadeSplits(l.ShadowDistance, s.config.CascadeCount)
		}
	}

	// Clustering completes before shadow scheduling reads visibility, and
	// scheduling completes before the buffers are packed for upload.
	s.grid.Update(camera, snap)

	stats := FrameStats{
		Frame:              s.frame,
		VisibleLights:      len(s.grid.visible),
		ClustersOverflowed: s.grid.OverflowCount(),
	}

	s.scheduler.Schedule(s.frame, snap, s.grid, renderer, &stats)

	out := &FrameOutput{
		Lights:         PackLights(snap, &s.config),
		ShadowMatrices: PackShadowMatrices(s.scheduler.ShadowMatrices()),
		Clusters:       PackClusters(s.grid),
		LightIndices:   PackLightIndices(s.grid),
		Stats:          stats,
	}

	if s.config.EnableGlobalIllumination && s.gi != nil {
		data := s.gi.ComputeIndirect(snap)
		out.Irradiance = &data
	}

	if stats.ShadowsDropped > 0 {
		s.log.Warnf("frame %d: %d shadow-casting lights degraded to unshadowed", s.frame, stats.ShadowsDropped)
	}
	return out
}
