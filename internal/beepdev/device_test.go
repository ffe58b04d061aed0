package beepdev

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blacktop/sfx/sound"
)

const testRate = 1000

// constant returns frames of mono PCM at half scale.
func constant(frames int) []byte {
	s := make([]int16, frames)
	for i := range s {
		s[i] = 16384
	}
	return le16(s...)
}

func newBuffer(t *testing.T, d *Device, data []byte, format sound.Format) sound.BufferID {
	t.Helper()
	id, err := d.GenBuffer()
	require.NoError(t, err)
	require.NoError(t, d.BufferData(id, format, data, testRate))
	return id
}

func newSource(t *testing.T, d *Device) sound.SourceID {
	t.Helper()
	src, err := d.GenSource()
	require.NoError(t, err)
	return src
}

func pull(d *Device, frames int) [][2]float64 {
	out := make([][2]float64, frames)
	for off := 0; off < frames; off += 256 {
		end := min(off+256, frames)
		d.Stream(out[off:end])
	}
	return out
}

func TestBufferDataValidation(t *testing.T) {
	d := New(testRate)
	id, err := d.GenBuffer()
	require.NoError(t, err)

	assert.ErrorIs(t, d.BufferData(id, sound.Format(99), constant(4), testRate), ErrBadFormat)
	assert.ErrorIs(t, d.BufferData(id, sound.FormatMono16, constant(4), 0), ErrBadFormat)
	assert.ErrorIs(t, d.BufferData(id+1, sound.FormatMono16, constant(4), testRate), ErrUnknownBuffer)
	assert.NoError(t, d.BufferData(id, sound.FormatMono16, constant(4), testRate))

	d.DeleteBuffer(id)
	assert.ErrorIs(t, d.BufferData(id, sound.FormatMono16, constant(4), testRate), ErrUnknownBuffer)
}

func TestStreamIsSilentWithoutVoices(t *testing.T) {
	d := New(testRate)
	out := [][2]float64{{1, 1}, {2, 2}}
	n, ok := d.Stream(out)
	assert.True(t, ok)
	assert.Equal(t, 2, n)
	assert.Equal(t, [][2]float64{{0, 0}, {0, 0}}, out)
	assert.NoError(t, d.Err())
	assert.Equal(t, 2, d.Format().NumChannels)
}

func TestVoicePlaysOutAndStops(t *testing.T) {
	d := New(testRate)
	src := newSource(t, d)
	buf := newBuffer(t, d, constant(2000), sound.FormatMono16)
	d.SetBuffer(src, buf)

	assert.Equal(t, sound.SourceInitial, d.State(src))
	d.Play(src)
	assert.Equal(t, sound.SourcePlaying, d.State(src))
	assert.Equal(t, 1, d.Active())

	out := pull(d, 1000)
	for i := 100; i < 900; i++ {
		assert.InDelta(t, 0.5, out[i][0], 1e-6, "frame %d", i)
		assert.InDelta(t, 0.5, out[i][1], 1e-6, "frame %d", i)
	}

	pull(d, 3000)
	assert.Equal(t, sound.SourceStopped, d.State(src))
	assert.Equal(t, 1, d.BuffersProcessed(src))
	assert.Zero(t, d.Active())
}

func TestVoicesAreMixed(t *testing.T) {
	d := New(testRate)
	a, b := newSource(t, d), newSource(t, d)
	d.SetBuffer(a, newBuffer(t, d, constant(2000), sound.FormatMono16))
	d.SetBuffer(b, newBuffer(t, d, constant(2000), sound.FormatMono16))
	d.Play(a)
	d.Play(b)

	out := pull(d, 1000)
	assert.InDelta(t, 1.0, out[500][0], 1e-6)
}

func TestLoopingVoiceKeepsPlaying(t *testing.T) {
	d := New(testRate)
	src := newSource(t, d)
	d.SetBuffer(src, newBuffer(t, d, constant(300), sound.FormatMono16))
	d.SetLooping(src, true)
	d.Play(src)

	out := pull(d, 5000)
	assert.Equal(t, sound.SourcePlaying, d.State(src))
	assert.InDelta(t, 0.5, out[4500][0], 1e-6)

	d.SetLooping(src, false)
	pull(d, 3000)
	assert.Equal(t, sound.SourceStopped, d.State(src))
}

func TestQueueProgressAndUnqueue(t *testing.T) {
	d := New(testRate)
	src := newSource(t, d)
	intro := newBuffer(t, d, constant(2000), sound.FormatMono16)
	body := newBuffer(t, d, constant(2000), sound.FormatMono16)
	d.QueueBuffers(src, intro, body)

	assert.Empty(t, d.UnqueueBuffers(src, 1), "nothing processed yet")

	d.Play(src)
	assert.Zero(t, d.BuffersProcessed(src))
	pull(d, 2500)
	require.Equal(t, 1, d.BuffersProcessed(src))

	assert.Equal(t, []sound.BufferID{intro}, d.UnqueueBuffers(src, 2), "limited to processed")
	assert.Zero(t, d.BuffersProcessed(src))

	d.SetLooping(src, true)
	pull(d, 6000)
	assert.Equal(t, sound.SourcePlaying, d.State(src), "body loops on its own")
}

func TestPauseResumeAndStop(t *testing.T) {
	d := New(testRate)
	src := newSource(t, d)
	d.QueueBuffers(src, newBuffer(t, d, constant(4000), sound.FormatMono16), newBuffer(t, d, constant(10), sound.FormatMono16))
	d.Play(src)
	pull(d, 500)

	d.Pause(src)
	assert.Equal(t, sound.SourcePaused, d.State(src))
	out := pull(d, 500)
	assert.Equal(t, [2]float64{}, out[250], "paused voices are silent")

	d.Play(src)
	assert.Equal(t, sound.SourcePlaying, d.State(src))
	out = pull(d, 500)
	assert.InDelta(t, 0.5, out[250][0], 1e-6)

	d.Stop(src)
	assert.Equal(t, sound.SourceStopped, d.State(src))
	assert.Equal(t, 2, d.BuffersProcessed(src))
	d.Pause(src)
	assert.Equal(t, sound.SourceStopped, d.State(src), "pause only from playing")

	d.SetBuffer(src, 0)
	assert.Zero(t, d.BuffersProcessed(src))
	d.Play(src)
	assert.Equal(t, sound.SourceStopped, d.State(src), "nothing to play")
}

func TestGainAndPan(t *testing.T) {
	d := New(testRate)
	src := newSource(t, d)
	d.SetBuffer(src, newBuffer(t, d, constant(2000), sound.FormatMono16))
	d.Play(src)

	d.SetSourcef(src, sound.ParamGain, 0)
	out := pull(d, 500)
	assert.Equal(t, [2]float64{}, out[250])

	d.SetSourcef(src, sound.ParamGain, 1)
	d.SetSource3f(src, sound.ParamPosition, sound.Vector3{X: 1})
	out = pull(d, 500)
	assert.Zero(t, out[250][0], "hard right")
	assert.Positive(t, out[250][1])
}

func TestStereoBuffers(t *testing.T) {
	d := New(testRate)
	src := newSource(t, d)
	frames := make([]int16, 0, 4000)
	for range 2000 {
		frames = append(frames, 16384, -16384)
	}
	d.SetBuffer(src, newBuffer(t, d, le16(frames...), sound.FormatStereo16))
	d.Play(src)

	out := pull(d, 1000)
	assert.InDelta(t, 0.5, out[500][0], 1e-6)
	assert.InDelta(t, -0.5, out[500][1], 1e-6)
}

func TestPitchSpeedsUpPlayback(t *testing.T) {
	d := New(testRate)
	src := newSource(t, d)
	d.SetBuffer(src, newBuffer(t, d, constant(2000), sound.FormatMono16))
	d.SetSourcef(src, sound.ParamPitch, 2)
	d.Play(src)

	pull(d, 1500)
	assert.Equal(t, sound.SourceStopped, d.State(src), "an octave up plays in half the time")
}

func TestAttenuation(t *testing.T) {
	d := New(testRate)
	assert.Equal(t, 1.0, d.attenuation(sound.Vector3{Z: 4}), "no model, no attenuation")

	d.SetDistanceModel(sound.InverseDistanceClamped)
	assert.Equal(t, 1.0, d.attenuation(sound.Vector3{X: 0.5, Z: 0.1}), "clamped inside the reference distance")
	assert.InDelta(t, 0.25, d.attenuation(sound.Vector3{Z: 4}), 1e-9)
}

func TestPanOf(t *testing.T) {
	assert.Zero(t, panOf(sound.Vector3{}))
	assert.Equal(t, 1.0, panOf(sound.Vector3{X: 3}))
	assert.Equal(t, -1.0, panOf(sound.Vector3{X: -0.2}))
	assert.Zero(t, panOf(sound.Vector3{Z: 0.1}))
	assert.InDelta(t, 0.7071, panOf(sound.Vector3{X: 1, Z: 1}), 1e-4)
}

func TestDeleteSource(t *testing.T) {
	d := New(testRate)
	a, b := newSource(t, d), newSource(t, d)
	d.DeleteSource(a)
	assert.Equal(t, []sound.SourceID{b}, d.order)
	assert.Equal(t, sound.SourceInitial, d.State(a))
	d.Play(a)
	assert.Zero(t, d.BuffersProcessed(a))
}

func TestProcessedFollowsPlayback(t *testing.T) {
	d := New(testRate)
	src := newSource(t, d)
	d.QueueBuffers(src, newBuffer(t, d, constant(300), sound.FormatMono16), newBuffer(t, d, constant(300), sound.FormatMono16))
	d.Play(src)

	pull(d, 100)
	assert.Zero(t, d.BuffersProcessed(src), "first buffer is still being heard")
	pull(d, 250)
	assert.Equal(t, 1, d.BuffersProcessed(src))
	pull(d, 300)
	assert.Equal(t, 2, d.BuffersProcessed(src))
	assert.Equal(t, sound.SourceStopped, d.State(src))
}

// sections returns a mono payload whose intro, loop body and outro hold
// distinct levels, so the mix shows which part of the chain is heard.
func sections(frames int, loop sound.LoopRegion) sound.Payload {
	s := make([]int16, frames)
	for i := range s {
		switch {
		case i < loop.Start:
			s[i] = 1000
		case i < loop.End:
			s[i] = 2000
		default:
			s[i] = 3000
		}
	}
	return sound.Payload{Data: le16(s...), SampleRate: 8000, Channels: 1}
}

func TestShortLoopBodyKeepsLooping(t *testing.T) {
	const (
		frames = 600
		chunk  = 80
		chunks = 1000
	)
	tests := []struct {
		name string
		loop sound.LoopRegion
	}{
		{"body up to the middle", sound.LoopRegion{Start: 20, End: 300}},
		{"body the size of a service pass", sound.LoopRegion{Start: 20, End: 80}},
		{"body to the end", sound.LoopRegion{Start: 20, End: frames}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := New(8000)
			ctrl, err := sound.NewController(d, sound.WithSources(1))
			require.NoError(t, err)
			defer ctrl.Close()

			inst, err := sound.NewInstance(ctrl, sections(frames, tt.loop), tt.loop)
			require.NoError(t, err)
			defer inst.Dispose()
			require.NoError(t, inst.SetLooped(true))
			require.NoError(t, inst.Play())

			levels := make(map[int]int)
			out := make([][2]float64, chunk)
			for range chunks {
				d.Stream(out)
				for _, f := range out {
					levels[int(math.Round(f[0]*32768))]++
				}
				ctrl.Update()
			}

			assert.Equal(t, 20, levels[1000], "intro plays once")
			assert.Equal(t, chunk*chunks-20, levels[2000], "body repeats without gaps")
			assert.Zero(t, levels[3000], "outro never queued")
			assert.Equal(t, sound.Playing, inst.State())
		})
	}
}
