package lumen

import (
	"errors"
	"fmt"
)

// ErrAtlasFull is returned by the shadow atlas when no free region fits the
// request and no allocation is evictable. Callers are expected to degrade
// (render the light unshadowed) rather than fail the frame.
var ErrAtlasFull = errors.New("shadow atlas full")

// ResourceLimitError is returned when adding a light would exceed the
// configured maximum for its kind. The registry is left unchanged.
type ResourceLimitError struct {
	Kind LightKind
	Max  int
}

func (e *ResourceLimitError) Error() string {
	return fmt.Sprintf("maximum %s lights exceeded (max %d)", e.Kind, e.Max)
}

// ConfigError reports an invalid LightingConfig field at construction time.
// Unlike the per-light errors above it is fatal: the system does not start.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid lighting config: %s: %s", e.Field, e.Reason)
}
