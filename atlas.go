package lumen

// AllocationId identifies a live region of the shadow atlas.
type AllocationId uint32

// Region is a rectangle in atlas texel coordinates.
type Region struct {
	X, Y          uint32
	Width, Height uint32
}

func (r Region) area() uint64 {
	return uint64(r.Width) * uint64(r.Height)
}

func (r Region) overlaps(o Region) bool {
	return r.X < o.X+o.Width && o.X < r.X+r.Width &&
		r.Y < o.Y+o.Height && o.Y < r.Y+r.Height
}

// ShadowAllocation records one light's region of the atlas. Allocations
// reference their owner by LightId, never by pointer, so lights can be
// removed without leaving dangling state behind.
type ShadowAllocation struct {
	Id            AllocationId
	Region        Region
	Owner         LightId
	Kind          LightKind
	LastUsedFrame uint64
}

// ShadowAtlas subdivides a single square depth texture into per-light
// regions using first-fit guillotine packing. The free list is scanned in
// insertion order, which makes allocation deterministic; freed regions are
// appended and never coalesced (fragmentation is bounded by the capacity
// contract, and eviction reclaims stale space under pressure).
type ShadowAtlas struct {
	resolution  uint32
	allocations map[AllocationId]*ShadowAllocation
	freeRegions []Region
	nextId      AllocationId
}

func NewShadowAtlas(resolution uint32) *ShadowAtlas {
	return &ShadowAtlas{
		resolution:  resolution,
		allocations: make(map[AllocationId]*ShadowAllocation),
		freeRegions: []Region{{X: 0, Y: 0, Width: resolution, Height: resolution}},
		nextId:      1,
	}
}

func (a *ShadowAtlas) Resolution() uint32 { return a.resolution }

// Allocate hands out the first free region that fits, splitting the leftover
// into up to two new free regions: one to the right of the request spanning
// its height, one below spanning the full region width. Returns ErrAtlasFull
// when nothing fits; see AllocateOrEvict for the eviction path.
func (a *ShadowAtlas) Allocate(width, height uint32, kind LightKind, owner LightId, frame uint64) (AllocationId, error) {
	if width == 0 || height == 0 || width > a.resolution || height > a.resolution {
		return 0, ErrAtlasFull
	}

	for i, region := range a.freeRegions {
		if region.Width < width || region.Height < height {
			continue
		}

		alloc := &ShadowAllocation{
			Id:            a.nextId,
			Region:        Region{X: region.X, Y: region.Y, Width: width, Height: height},
			Owner:         owner,
			Kind:          kind,
			LastUsedFrame: frame,
		}

		var split []Region
		if region.Width > width {
			split = append(split, Region{
				X:      region.X + width,
				Y:      region.Y,
				Width:  region.Width - width,
				Height: height,
			})
		}
		if region.Height > height {
			split = append(split, Region{
				X:      region.X,
				Y:      region.Y + height,
				Width:  region.Width,
				Height: region.Height - height,
			})
		}

		a.freeRegions = append(a.freeRegions[:i], a.freeRegions[i+1:]...)
		a.freeRegions = append(a.freeRegions, split...)

		a.allocations[alloc.Id] = alloc
		a.nextId++
		return alloc.Id, nil
	}

	return 0, ErrAtlasFull
}

// AllocateOrEvict is Allocate plus the under-pressure path: when nothing
// fits, the stalest allocation whose owner is not in the current frame's
// visible set is freed and the allocation retried once. visible may be nil,
// in which case every allocation is considered evictable.
// Returns the evicted owner (InvalidLightId if none) so the scheduler can
// drop its cached handle.
func (a *ShadowAtlas) AllocateOrEvict(width, height uint32, kind LightKind, owner LightId, frame uint64, visible func(LightId) bool) (AllocationId, LightId, error) {
	id, err := a.Allocate(width, height, kind, owner, frame)
	if err == nil {
		return id, InvalidLightId, nil
	}

	var victim *ShadowAllocation
	for _, alloc := range a.allocations {
		if visible != nil && visible(alloc.Owner) {
			continue
		}
		if victim == nil || alloc.LastUsedFrame < victim.LastUsedFrame ||
			(alloc.LastUsedFrame == victim.LastUsedFrame && alloc.Id < victim.Id) {
			victim = alloc
		}
	}
	if victim == nil {
		return 0, InvalidLightId, ErrAtlasFull
	}

	evictedOwner := victim.Owner
	a.Free(victim.Id)

	id, err = a.Allocate(width, height, kind, owner, frame)
	if err != nil {
		return 0, evictedOwner, ErrAtlasFull
	}
	return id, evictedOwner, nil
}

// Free returns an allocation's region to the free list.
func (a *ShadowAtlas) Free(id AllocationId) bool {
	alloc, ok := a.allocations[id]
	if !ok {
		return false
	}
	delete(a.allocations, id)
	a.freeRegions = append(a.freeRegions, alloc.Region)
	return true
}

// FreeOwnedBy releases every allocation owned by a light; used when the
// light is removed from the registry.
func (a *ShadowAtlas) FreeOwnedBy(owner LightId) int {
	var doomed []AllocationId
	for id, alloc := range a.allocations {
		if alloc.Owner == owner {
			doomed = append(doomed, id)
		}
	}
	for _, id := range doomed {
		a.Free(id)
	}
	return len(doomed)
}

// Touch marks an allocation as used this frame, feeding the LRU eviction.
func (a *ShadowAtlas) Touch(id AllocationId, frame uint64) {
	if alloc, ok := a.allocations[id]; ok {
		alloc.LastUsedFrame = frame
	}
}

// Allocation returns a copy of a live allocation record.
func (a *ShadowAtlas) Allocation(id AllocationId) (ShadowAllocation, bool) {
	alloc, ok := a.allocations[id]
	if !ok {
		return ShadowAllocation{}, false
	}
	return *alloc, true
}

func (a *ShadowAtlas) AllocationCount() int { return len(a.allocations) }

// FreeArea and AllocatedArea together always sum to resolution^2: the
// guillotine split partitions exactly and Free returns whole regions.
func (a *ShadowAtlas) FreeArea() uint64 {
	var sum uint64
	for _, r := range a.freeRegions {
		sum += r.area()
	}
	return sum
}

func (a *ShadowAtlas) AllocatedArea() uint64 {
	var sum uint64
	for _, alloc := range a.allocations {
		sum += alloc.Region.area()
	}
	return sum
}
