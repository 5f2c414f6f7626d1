package lumen

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAtlasFirstFitOrder(t *testing.T) {
	atlas := NewShadowAtlas(1024)

	expected := []Region{
		{X: 0, Y: 0, Width: 512, Height: 512},
		{X: 512, Y: 0, Width: 512, Height: 512},
		{X: 0, Y: 512, Width: 512, Height: 512},
		{X: 512, Y: 512, Width: 512, Height: 512},
	}

	for i, want := range expected {
		id, err := atlas.Allocate(512, 512, LightKindPoint, LightId(i+1), 0)
		require.NoError(t, err, "allocation %d", i)
		alloc, ok := atlas.Allocation(id)
		require.True(t, ok)
		assert.Equal(t, want, alloc.Region, "allocation %d", i)
	}

	// Atlas is exactly full; nothing is evictable because every owner is
	// still visible.
	_, _, err := atlas.AllocateOrEvict(512, 512, LightKindPoint, 99, 1, func(LightId) bool { return true })
	assert.ErrorIs(t, err, ErrAtlasFull)
}

func TestAtlasNoOverlapAndAreaConservation(t *testing.T) {
	const resolution = 1024
	atlas := NewShadowAtlas(resolution)
	total := uint64(resolution) * uint64(resolution)

	rng := rand.New(rand.NewSource(7))
	var live []AllocationId

	check := func() {
		assert.Equal(t, total, atlas.FreeArea()+atlas.AllocatedArea(), "area conservation")

		var regions []Region
		for _, id := range live {
			alloc, ok := atlas.Allocation(id)
			require.True(t, ok)
			r := alloc.Region
			require.LessOrEqual(t, r.X+r.Width, uint32(resolution), "region in bounds")
			require.LessOrEqual(t, r.Y+r.Height, uint32(resolution), "region in bounds")
			regions = append(regions, r)
		}
		for i := 0; i < len(regions); i++ {
			for j := i + 1; j < len(regions); j++ {
				assert.False(t, regions[i].overlaps(regions[j]),
					"regions %v and %v overlap", regions[i], regions[j])
			}
		}
	}

	for step := 0; step < 300; step++ {
		if len(live) > 0 && rng.Intn(3) == 0 {
			i := rng.Intn(len(live))
			require.True(t, atlas.Free(live[i]))
			live = append(live[:i], live[i+1:]...)
		} else {
			size := uint32(32 << rng.Intn(4)) // 32..256
			id, err := atlas.Allocate(size, size, LightKindPoint, LightId(step+1), uint64(step))
			if err == nil {
				live = append(live, id)
			} else {
				require.ErrorIs(t, err, ErrAtlasFull)
			}
		}
		check()
	}
}

func TestAtlasFreeThenReuseSameRegion(t *testing.T) {
	atlas := NewShadowAtlas(1024)

	var ids [4]AllocationId
	for i := range ids {
		id, err := atlas.Allocate(512, 512, LightKindSpot, LightId(i+1), 0)
		require.NoError(t, err)
		ids[i] = id
	}

	freed, ok := atlas.Allocation(ids[1])
	require.True(t, ok)
	require.True(t, atlas.Free(ids[1]))

	// First-fit must hand back the freed region rather than carving new
	// space: it is the only free region left.
	id, err := atlas.Allocate(512, 512, LightKindSpot, 9, 1)
	require.NoError(t, err)
	reused, ok := atlas.Allocation(id)
	require.True(t, ok)
	assert.Equal(t, freed.Region, reused.Region)
}

func TestAtlasEvictsOldestInvisible(t *testing.T) {
	atlas := NewShadowAtlas(1024)

	a, err := atlas.Allocate(512, 512, LightKindPoint, 1, 1)
	require.NoError(t, err)
	b, err := atlas.Allocate(512, 512, LightKindPoint, 2, 2)
	require.NoError(t, err)
	_, err = atlas.Allocate(512, 512, LightKindPoint, 3, 3)
	require.NoError(t, err)
	_, err = atlas.Allocate(512, 512, LightKindPoint, 4, 4)
	require.NoError(t, err)

	// Keep allocation a fresher than b.
	atlas.Touch(a, 10)

	id, evicted, err := atlas.AllocateOrEvict(512, 512, LightKindPoint, 5, 11,
		func(owner LightId) bool { return owner == 3 || owner == 4 })
	require.NoError(t, err)
	assert.Equal(t, LightId(2), evicted, "oldest invisible owner is evicted")

	_, stillLive := atlas.Allocation(b)
	assert.False(t, stillLive)
	alloc, ok := atlas.Allocation(id)
	require.True(t, ok)
	assert.Equal(t, LightId(5), alloc.Owner)
}

func TestAtlasFreeOwnedBy(t *testing.T) {
	atlas := NewShadowAtlas(1024)

	_, err := atlas.Allocate(256, 256, LightKindPoint, 7, 0)
	require.NoError(t, err)
	_, err = atlas.Allocate(256, 256, LightKindSpot, 8, 0)
	require.NoError(t, err)

	assert.Equal(t, 1, atlas.FreeOwnedBy(7))
	assert.Equal(t, 1, atlas.AllocationCount())
	assert.Equal(t, uint64(1024*1024-256*256), atlas.FreeArea())
}

func TestAtlasRejectsOversizedRequest(t *testing.T) {
	atlas := NewShadowAtlas(512)
	_, err := atlas.Allocate(1024, 1024, LightKindDirectional, 1, 0)
	assert.True(t, errors.Is(err, ErrAtlasFull))
}
