package sound_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/blacktop/sfx/internal/devicetest"
	"github.com/blacktop/sfx/sound"
)

func newTestController(t *testing.T, sources int) (*sound.Controller, *devicetest.Device) {
	t.Helper()
	dev := devicetest.New()
	ctrl, err := sound.NewController(dev, sound.WithSources(sources))
	require.NoError(t, err)
	t.Cleanup(ctrl.Close)
	return ctrl, dev
}

// pcm returns frames*channels 16-bit samples whose bytes count up, so every
// byte position is recognizable.
func pcm(frames, channels int) sound.Payload {
	data := make([]byte, frames*channels*2)
	for i := range data {
		data[i] = byte(i)
	}
	return sound.Payload{Data: data, SampleRate: 22050, Channels: channels}
}

func newTestInstance(t *testing.T, ctrl *sound.Controller, frames int, loop sound.LoopRegion) *sound.Instance {
	t.Helper()
	inst, err := sound.NewInstance(ctrl, pcm(frames, 1), loop)
	require.NoError(t, err)
	t.Cleanup(inst.Dispose)
	return inst
}

func voice(t *testing.T, inst *sound.Instance) sound.SourceID {
	t.Helper()
	src, ok := inst.Voice()
	require.True(t, ok, "instance holds no voice")
	return src
}

func paramCalls(dev *devicetest.Device, op string, param sound.SourceParam) []devicetest.Call {
	var out []devicetest.Call
	for _, c := range dev.CallsOf(op) {
		if c.Param == param {
			out = append(out, c)
		}
	}
	return out
}

func loopingValues(dev *devicetest.Device) []bool {
	var out []bool
	for _, c := range dev.CallsOf("SetLooping") {
		out = append(out, c.Value.(bool))
	}
	return out
}
