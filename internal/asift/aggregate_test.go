package asift

import (
	"testing"

	"asift/internal/affine"
	"asift/internal/keypoint"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kp(x float64) keypoint.Keypoint { return keypoint.Keypoint{X: x, Y: x, Scale: 1} }

func TestCollect(t *testing.T) {
	order, err := affine.Generate(2)
	require.NoError(t, err)

	failure := &SimulationError{Params: order.At(2), Index: 2, Stage: StageWarp, Err: errStub}
	slots := []Slot{
		{Keypoints: []keypoint.Keypoint{kp(1), kp(2)}},
		{},
		{Err: failure},
		{Keypoints: []keypoint.Keypoint{kp(3)}},
		{Keypoints: []keypoint.Keypoint{}},
	}
	g := Collect(order, slots)

	assert.Equal(t, 5, g.Len())
	assert.Equal(t, 3, g.Total())
	assert.Equal(t, []*SimulationError{failure}, g.Failures())
	assert.Same(t, order, g.Order())

	for i := 0; i < g.Len(); i++ {
		p, kps := g.At(i)
		assert.Equal(t, order.At(i), p)
		assert.NotNil(t, kps, "group %d", i)
	}

	got, ok := g.Get(order.At(3))
	require.True(t, ok)
	assert.Equal(t, []keypoint.Keypoint{kp(3)}, got)

	_, ok = g.Get(affine.MustParams(7, 1))
	assert.False(t, ok)

	assert.Equal(t, []keypoint.Keypoint{kp(1), kp(2), kp(3)}, g.Keypoints())
}

func TestCollect_SlotCountMismatch(t *testing.T) {
	order, err := affine.Generate(2)
	require.NoError(t, err)
	assert.Panics(t, func() { Collect(order, make([]Slot, 2)) })
}

func TestFlatten(t *testing.T) {
	order, err := affine.Generate(2)
	require.NoError(t, err)

	g := Collect(order, []Slot{
		{Keypoints: []keypoint.Keypoint{kp(1)}},
		{},
		{Keypoints: []keypoint.Keypoint{kp(2), kp(3)}},
		{},
		{Keypoints: []keypoint.Keypoint{kp(4)}},
	})

	flat := Flatten(g)
	require.Len(t, flat, 4)

	wantIdx := []int{0, 2, 2, 4}
	for i, sk := range flat {
		assert.Equal(t, float64(i+1), sk.X)
		assert.Equal(t, wantIdx[i], sk.Index)
		assert.Equal(t, order.At(wantIdx[i]), sk.Params)
	}
}

func TestCollectMap(t *testing.T) {
	order, err := affine.Generate(3)
	require.NoError(t, err)

	g, err := CollectMap(order, map[affine.Params][]keypoint.Keypoint{
		order.At(9): {kp(9)},
		order.At(0): {kp(0)},
	})
	require.NoError(t, err)
	assert.Equal(t, order.Len(), g.Len())
	assert.Equal(t, 2, g.Total())

	flat := Flatten(g)
	require.Len(t, flat, 2)
	assert.Equal(t, 0, flat[0].Index)
	assert.Equal(t, 9, flat[1].Index)

	_, err = CollectMap(order, map[affine.Params][]keypoint.Keypoint{
		affine.MustParams(5, 5): {kp(1)},
	})
	assert.Error(t, err)
}

func TestGrouped_MapIsIndependent(t *testing.T) {
	order, err := affine.Generate(1)
	require.NoError(t, err)
	g := Collect(order, []Slot{{Keypoints: []keypoint.Keypoint{kp(1)}}})

	m := g.Map()
	delete(m, affine.Identity)
	assert.Equal(t, 1, g.Len())
	_, ok := g.Get(affine.Identity)
	assert.True(t, ok)
}
