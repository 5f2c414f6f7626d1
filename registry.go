package lumen

import (
	"fmt"
	"sync"
)

// LightRegistry owns the authoritative light records, grouped per kind, and
// enforces the configured per-kind capacity. It may be mutated from a
// simulation thread while the render thread works on a Snapshot; all access
// goes through the mutex and mutations are invisible mid-frame.
type LightRegistry struct {
	mu     sync.Mutex
	config LightingConfig

	directionals []DirectionalLight
	points       []PointLight
	spots        []SpotLight
	areas        []AreaLight

	// Parallel id slices, same indexing as the light slices above.
	directionalIds []LightId
	pointIds       []LightId
	spotIds        []LightId
	areaIds        []LightId

	index      map[LightId]lightSlot
	nextId     LightId
	generation uint64
}

type lightSlot struct {
	kind LightKind
	idx  int
}

func NewLightRegistry(config LightingConfig) (*LightRegistry, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &LightRegistry{
		config: config,
		index:  make(map[LightId]lightSlot),
		nextId: 1,
	}, nil
}

func (r *LightRegistry) AddDirectional(light DirectionalLight) (LightId, error) {
	if err := light.validate(); err != nil {
		return InvalidLightId, err
	}
	light.Direction = light.Direction.Normalize()

	r.mu.Lock()
	defer r.mu.Unlock()
	if max := r.config.maxForKind(LightKindDirectional); len(r.directionals) >= max {
		return InvalidLightId, &ResourceLimitError{Kind: LightKindDirectional, Max: max}
	}
	id := r.assign(LightKindDirectional, len(r.directionals))
	r.directionals = append(r.directionals, light)
	r.directionalIds = append(r.directionalIds, id)
	return id, nil
}

func (r *LightRegistry) AddPoint(light PointLight) (LightId, error) {
	if err := light.validate(); err != nil {
		return InvalidLightId, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if max := r.config.maxForKind(LightKindPoint); len(r.points) >= max {
		return InvalidLightId, &ResourceLimitError{Kind: LightKindPoint, Max: max}
	}
	id := r.assign(LightKindPoint, len(r.points))
	r.points = append(r.points, light)
	r.pointIds = append(r.pointIds, id)
	return id, nil
}

func (r *LightRegistry) AddSpot(light SpotLight) (LightId, error) {
	if err := light.validate(); err != nil {
		return InvalidLightId, err
	}
	light.Direction = light.Direction.Normalize()

	r.mu.Lock()
	defer r.mu.Unlock()
	if max := r.config.maxForKind(LightKindSpot); len(r.spots) >= max {
		return InvalidLightId, &ResourceLimitError{Kind: LightKindSpot, Max: max}
	}
	id := r.assign(LightKindSpot, len(r.spots))
	r.spots = append(r.spots, light)
	r.spotIds = append(r.spotIds, id)
	return id, nil
}

func (r *LightRegistry) AddArea(light AreaLight) (LightId, error) {
	if err := light.validate(); err != nil {
		return InvalidLightId, err
	}
	light.Normal = light.Normal.Normalize()

	r.mu.Lock()
	defer r.mu.Unlock()
	if max := r.config.maxForKind(LightKindArea); len(r.areas) >= max {
		return InvalidLightId, &ResourceLimitError{Kind: LightKindArea, Max: max}
	}
	id := r.assign(LightKindArea, len(r.areas))
	r.areas = append(r.areas, light)
	r.areaIds = append(r.areaIds, id)
	return id, nil
}

// assign mints a new id for a slot about to be appended. Caller holds the lock.
func (r *LightRegistry) assign(kind LightKind, idx int) LightId {
	id := r.nextId
	r.nextId++
	r.index[id] = lightSlot{kind: kind, idx: idx}
	r.generation++
	return id
}

// Remove deletes a light. The owning shadow allocation, if any, is released
// by the LightingSystem which coordinates registry and atlas.
func (r *LightRegistry) Remove(id LightId) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	slot, ok := r.index[id]
	if !ok {
		return fmt.Errorf("light %d not found", id)
	}
	delete(r.index, id)
	r.generation++

	// Swap-remove keeps the slices dense; the moved light's slot is patched.
	switch slot.kind {
	case LightKindDirectional:
		last := len(r.directionals) - 1
		r.directionals[slot.idx] = r.directionals[last]
		r.directionalIds[slot.idx] = r.directionalIds[last]
		r.directionals = r.directionals[:last]
		r.directionalIds = r.directionalIds[:last]
		if slot.idx < last {
			r.index[r.directionalIds[slot.idx]] = lightSlot{kind: slot.kind, idx: slot.idx}
		}
	case LightKindPoint:
		last := len(r.points) - 1
		r.points[slot.idx] = r.points[last]
		r.pointIds[slot.idx] = r.pointIds[last]
		r.points = r.points[:last]
		r.pointIds = r.pointIds[:last]
		if slot.idx < last {
			r.index[r.pointIds[slot.idx]] = lightSlot{kind: slot.kind, idx: slot.idx}
		}
	case LightKindSpot:
		last := len(r.spots) - 1
		r.spots[slot.idx] = r.spots[last]
		r.spotIds[slot.idx] = r.spotIds[last]
		r.spots = r.spots[:last]
		r.spotIds = r.spotIds[:last]
		if slot.idx < last {
			r.index[r.spotIds[slot.idx]] = lightSlot{kind: slot.kind, idx: slot.idx}
		}
	case LightKindArea:
		last := len(r.areas) - 1
		r.areas[slot.idx] = r.areas[last]
		r.areaIds[slot.idx] = r.areaIds[last]
		r.areas = r.areas[:last]
		r.areaIds = r.areaIds[:last]
		if slot.idx < last {
			r.index[r.areaIds[slot.idx]] = lightSlot{kind: slot.kind, idx: slot.idx}
		}
	}
	return nil
}

// Kind reports the variant of a live light.
func (r *LightRegistry) Kind(id LightId) (LightKind, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	slot, ok := r.index[id]
	return slot.kind, ok
}

// Count returns the number of live lights of a kind.
func (r *LightRegistry) Count(kind LightKind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch kind {
	case LightKindDirectional:
		return len(r.directionals)
	case LightKindPoint:
		return len(r.points)
	case LightKindSpot:
		return len(r.spots)
	case LightKindArea:
		return len(r.areas)
	}
	return 0
}

func (r *LightRegistry) GetDirectional(id LightId) (DirectionalLight, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	slot, ok := r.index[id]
	if !ok || slot.kind != LightKindDirectional {
		return DirectionalLight{}, false
	}
	return r.directionals[slot.idx], true
}

func (r *LightRegistry) GetPoint(id LightId) (PointLight, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	slot, ok := r.index[id]
	if !ok || slot.kind != LightKindPoint {
		return PointLight{}, false
	}
	return r.points[slot.idx], true
}

func (r *LightRegistry) GetSpot(id LightId) (SpotLight, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	slot, ok := r.index[id]
	if !ok || slot.kind != LightKindSpot {
		return SpotLight{}, false
	}
	return r.spots[slot.idx], true
}

func (r *LightRegistry) GetArea(id LightId) (AreaLight, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	slot, ok := r.index[id]
	if !ok || slot.kind != LightKindArea {
		return AreaLight{}, false
	}
	return r.areas[slot.idx], true
}

// UpdateDirectional replaces a directional light's parameters in place.
// Bumping the generation invalidates cached cascades on the next frame.
func (r *LightRegistry) UpdateDirectional(id LightId, light DirectionalLight) error {
	if err := light.validate(); err != nil {
		return err
	}
	light.Direction = light.Direction.Normalize()

	r.mu.Lock()
	defer r.mu.Unlock()
	slot, ok := r.index[id]
	if !ok || slot.kind != LightKindDirectional {
		return fmt.Errorf("directional light %d not found", id)
	}
	r.directionals[slot.idx] = light
	r.generation++
	return nil
}

func (r *LightRegistry) UpdatePoint(id LightId, light PointLight) error {
	if err := light.validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	slot, ok := r.index[id]
	if !ok || slot.kind != LightKindPoint {
		return fmt.Errorf("point light %d not found", id)
	}
	r.points[slot.idx] = light
	r.generation++
	return nil
}

func (r *LightRegistry) UpdateSpot(id LightId, light SpotLight) error {
	if err := light.validate(); err != nil {
		return err
	}
	light.Direction = light.Direction.Normalize()

	r.mu.Lock()
	defer r.mu.Unlock()
	slot, ok := r.index[id]
	if !ok || slot.kind != LightKindSpot {
		return fmt.Errorf("spot light %d not found", id)
	}
	r.spots[slot.idx] = light
	r.generation++
	return nil
}

func (r *LightRegistry) UpdateArea(id LightId, light AreaLight) error {
	if err := light.validate(); err != nil {
		return err
	}
	light.Normal = light.Normal.Normalize()

	r.mu.Lock()
	defer r.mu.Unlock()
	slot, ok := r.index[id]
	if !ok || slot.kind != LightKindArea {
		return fmt.Errorf("area light %d not found", id)
	}
	r.areas[slot.idx] = light
	r.generation++
	return nil
}

// LightSnapshot is a consistent copy of the registry taken at the start of a
// frame. The render pass works exclusively on the snapshot, so simulation
// threads can keep mutating the registry without tearing mid-frame state.
type LightSnapshot struct {
	Directionals   []DirectionalLight
	DirectionalIds []LightId
	Points         []PointLight
	PointIds       []LightId
	Spots          []SpotLight
	SpotIds        []LightId
	Areas          []AreaLight
	AreaIds        []LightId
	Generation     uint64
}

func (r *LightRegistry) Snapshot() *LightSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap := &LightSnapshot{
		Directionals:   make([]DirectionalLight, len(r.directionals)),
		DirectionalIds: make([]LightId, len(r.directionalIds)),
		Points:         make([]PointLight, len(r.points)),
		PointIds:       make([]LightId, len(r.pointIds)),
		Spots:          make([]SpotLight, len(r.spots)),
		SpotIds:        make([]LightId, len(r.spotIds)),
		Areas:          make([]AreaLight, len(r.areas)),
		AreaIds:        make([]LightId, len(r.areaIds)),
		Generation:     r.generation,
	}
	copy(snap.Directionals, r.directionals)
	copy(snap.DirectionalIds, r.directionalIds)
	copy(snap.Points, r.points)
	copy(snap.PointIds, r.pointIds)
	copy(snap.Spots, r.spots)
	copy(snap.SpotIds, r.spotIds)
	copy(snap.Areas, r.areas)
	copy(snap.AreaIds, r.areaIds)
	return snap
}

// ClusteredLightCount is the number of lights participating in clustering
// (directional lights affect everything and are not clustered).
func (s *LightSnapshot) ClusteredLightCount() int {
	return len(s.Points) + len(s.Spots) + len(s.Areas)
}
