package lumen

// LightingConfig configures the lighting system at construction time.
// All fields are validated by Validate(); zero or negative counts and
// dimensions are rejected with a ConfigError.
type LightingConfig struct {
	MaxDirectionalLights int
	MaxPointLights       int
	MaxSpotLights        int
	MaxAreaLights        int

	// ShadowMapResolution is the per-light shadow map size in texels.
	// The atlas texture itself is 4x this in each dimension.
	ShadowMapResolution uint32
	CascadeCount        int
	PCFSamples          int

	EnableSoftShadows        bool
	EnableContactShadows     bool
	EnableVolumetricLighting bool
	EnableGlobalIllumination bool

	// ClusterDimensions tiles the camera frustum into nx*ny*nz clusters.
	ClusterDimensions [3]int
}

// DefaultLightingConfig returns the configuration used when the host
// application does not override anything. The cluster grid default suits
// 1080p with 120px tiles.
func DefaultLightingConfig() LightingConfig {
	return LightingConfig{
		MaxDirectionalLights:     4,
		MaxPointLights:           64,
		MaxSpotLights:            32,
		MaxAreaLights:            16,
		ShadowMapResolution:      2048,
		CascadeCount:             4,
		PCFSamples:               16,
		EnableSoftShadows:        true,
		EnableContactShadows:     false,
		EnableVolumetricLighting: false,
		EnableGlobalIllumination: false,
		ClusterDimensions:        [3]int{16, 9, 24},
	}
}

func (c *LightingConfig) Validate() error {
	if c.MaxDirectionalLights <= 0 {
		return &ConfigError{Field: "MaxDirectionalLights", Reason: "must be > 0"}
	}
	if c.MaxPointLights <= 0 {
		return &ConfigError{Field: "MaxPointLights", Reason: "must be > 0"}
	}
	if c.MaxSpotLights <= 0 {
		return &ConfigError{Field: "MaxSpotLights", Reason: "must be > 0"}
	}
	if c.MaxAreaLights <= 0 {
		return &ConfigError{Field: "MaxAreaLights", Reason: "must be > 0"}
	}
	if c.ShadowMapResolution == 0 {
		return &ConfigError{Field: "ShadowMapResolution", Reason: "must be > 0"}
	}
	if c.CascadeCount <= 0 {
		return &ConfigError{Field: "CascadeCount", Reason: "must be > 0"}
	}
	if c.CascadeCount > MaxCascades {
		return &ConfigError{Field: "CascadeCount", Reason: "exceeds packed buffer capacity"}
	}
	if c.PCFSamples <= 0 {
		return &ConfigError{Field: "PCFSamples", Reason: "must be > 0"}
	}
	for _, d := range c.ClusterDimensions {
		if d <= 0 {
			return &ConfigError{Field: "ClusterDimensions", Reason: "all dimensions must be > 0"}
		}
	}
	return nil
}

func (c *LightingConfig) maxForKind(kind LightKind) int {
	switch kind {
	case LightKindDirectional:
		return c.MaxDirectionalLights
	case LightKindPoint:
		return c.MaxPointLights
	case LightKindSpot:
		return c.MaxSpotLights
	case LightKindArea:
		return c.MaxAreaLights
	}
	return 0
}
