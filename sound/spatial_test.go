package sound_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blacktop/sfx/sound"
)

func assertVecInDelta(t *testing.T, want, got sound.Vector3) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, 1e-5, "x")
	assert.InDelta(t, want.Y, got.Y, 1e-5, "y")
	assert.InDelta(t, want.Z, got.Z, 1e-5, "z")
}

func spatialInstance(t *testing.T) (*sound.Instance, func() (pos, vel sound.Vector3)) {
	t.Helper()
	ctrl, dev := newTestController(t, 1)
	inst := newTestInstance(t, ctrl, 10, wholeLoop)
	return inst, func() (sound.Vector3, sound.Vector3) {
		p := paramCalls(dev, "SetSource3f", sound.ParamPosition)
		v := paramCalls(dev, "SetSource3f", sound.ParamVelocity)
		require.NotEmpty(t, p)
		require.NotEmpty(t, v)
		return p[len(p)-1].Value.(sound.Vector3), v[len(v)-1].Value.(sound.Vector3)
	}
}

func TestApply3DDefaultListener(t *testing.T) {
	tests := []struct {
		name    string
		emitter sound.Emitter
		pos     sound.Vector3
		vel     sound.Vector3
	}{
		{
			name:    "to the right",
			emitter: sound.Emitter{Position: sound.Vector3{X: 255}},
			pos:     sound.Vector3{X: 1},
		},
		{
			name:    "straight ahead",
			emitter: sound.Emitter{Position: sound.Vector3{Z: -510}},
			pos:     sound.Vector3{Z: -2},
		},
		{
			name:    "above, moving left",
			emitter: sound.Emitter{Position: sound.Vector3{Y: 25.5}, Velocity: sound.Vector3{X: -255}},
			pos:     sound.Vector3{Y: 0.1},
			vel:     sound.Vector3{X: -1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inst, last := spatialInstance(t)
			inst.Apply3D(sound.DefaultListener(), tt.emitter)
			require.NoError(t, inst.Play())
			pos, vel := last()
			assertVecInDelta(t, tt.pos, pos)
			assertVecInDelta(t, tt.vel, vel)
		})
	}
}

func TestApply3DRotatedListener(t *testing.T) {
	// facing +X: +Z is to the right, +X is straight ahead
	l := sound.Listener{
		Position: sound.Vector3{X: 10},
		Forward:  sound.Vector3{X: 1},
		Up:       sound.Vector3{Y: 1},
	}

	inst, last := spatialInstance(t)
	inst.Apply3D(l, sound.Emitter{Position: sound.Vector3{X: 10, Z: 255}})
	require.NoError(t, inst.Play())
	pos, _ := last()
	assertVecInDelta(t, sound.Vector3{X: 1}, pos)

	inst.Stop()
	inst.Apply3D(l, sound.Emitter{Position: sound.Vector3{X: 265}})
	require.NoError(t, inst.Play())
	pos, _ = last()
	assertVecInDelta(t, sound.Vector3{Z: -1}, pos)
}

func TestApply3DLastListenerWins(t *testing.T) {
	inst, last := spatialInstance(t)
	far := sound.DefaultListener()
	far.Position = sound.Vector3{X: -255}

	inst.Apply3DMulti([]sound.Listener{sound.DefaultListener(), far}, sound.Emitter{})
	require.NoError(t, inst.Play())
	pos, _ := last()
	assertVecInDelta(t, sound.Vector3{X: 1}, pos)
}

func TestApply3DStagesUntilPlay(t *testing.T) {
	ctrl, dev := newTestController(t, 1)
	inst := newTestInstance(t, ctrl, 10, wholeLoop)
	require.NoError(t, inst.Play())
	dev.Reset()

	inst.Apply3D(sound.DefaultListener(), sound.Emitter{Position: sound.Vector3{X: 255}})
	assert.Empty(t, dev.Calls(), "staged only")

	inst.Apply3DMulti(nil, sound.Emitter{})
	assert.Empty(t, dev.Calls())
}

func TestApply3DIsConsumedByOnePlay(t *testing.T) {
	ctrl, dev := newTestController(t, 1)
	inst := newTestInstance(t, ctrl, 10, wholeLoop)
	require.NoError(t, inst.SetPan(0.5))
	inst.Apply3D(sound.DefaultListener(), sound.Emitter{Position: sound.Vector3{X: -255}})

	require.NoError(t, inst.Play())
	inst.Stop()
	require.NoError(t, inst.Play())

	pos := paramCalls(dev, "SetSource3f", sound.ParamPosition)
	require.Len(t, pos, 2)
	assertVecInDelta(t, sound.Vector3{X: -1}, pos[0].Value.(sound.Vector3))
	assert.Equal(t, sound.Vector3{X: 0.5, Z: 0.1}, pos[1].Value, "pan applies again")
	assert.Len(t, paramCalls(dev, "SetSource3f", sound.ParamVelocity), 1)
}

func TestVector3(t *testing.T) {
	a := sound.Vector3{X: 1, Y: 2, Z: 3}
	b := sound.Vector3{X: 4, Y: 5, Z: 6}

	assert.Equal(t, sound.Vector3{X: 5, Y: 7, Z: 9}, a.Add(b))
	assert.Equal(t, sound.Vector3{X: -3, Y: -3, Z: -3}, a.Sub(b))
	assert.Equal(t, sound.Vector3{X: 2, Y: 4, Z: 6}, a.Scale(2))
	assert.Equal(t, float32(32), a.Dot(b))
	assert.Equal(t, sound.Vector3{X: -3, Y: 6, Z: -3}, a.Cross(b))
	assert.Equal(t, float32(5), sound.Vector3{X: 3, Y: 4}.Length())
	assertVecInDelta(t, sound.Vector3{Y: 1}, sound.Vector3{Y: 7}.Normalize())
	assert.Equal(t, sound.Vector3{}, sound.Vector3{}.Normalize())
}
