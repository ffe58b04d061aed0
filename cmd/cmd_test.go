package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blacktop/sfx/internal/asset"
	"github.com/blacktop/sfx/sound"
)

func resetFlags() {
	verbose = false
	voices = sound.DefaultSources
	masterVolume = 1
	sampleRate = 44100
	loop = false
	volume = 1
	pitch = 0
	pan = 0
	duration = 0
	outputPath = ""
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv(masterVolumeEnv, "")
	resetFlags()
	t.Cleanup(resetFlags)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

// writeFixture writes frames of a half-scale stereo tone.
func writeFixture(t *testing.T, name string, frames int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name+".wav")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	data := make([][2]float64, frames)
	for i := range data {
		data[i] = [2]float64{0.5, 0.5}
	}
	require.NoError(t, asset.WriteWAV(f, 44100, data))
	return path
}

func TestResolveMasterVolume(t *testing.T) {
	tests := []struct {
		name    string
		flagSet bool
		flag    float64
		env     string
		want    float64
		wantErr bool
	}{
		{"default", false, 1, "", 1, false},
		{"from environment", false, 1, "0.25", 0.25, false},
		{"flag wins", true, 0.5, "0.25", 0.5, false},
		{"bad environment", false, 1, "loud", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolveMasterVolume(tt.flagSet, tt.flag, tt.env)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-6)
		})
	}
}

func TestSegmentRoles(t *testing.T) {
	p := sound.Payload{Data: make([]byte, 20), SampleRate: 8000, Channels: 1}
	tests := []struct {
		loop sound.LoopRegion
		want []string
	}{
		{sound.LoopRegion{Start: 0, End: 10}, []string{roleBody}},
		{sound.LoopRegion{Start: 3, End: 10}, []string{roleIntro, roleBody}},
		{sound.LoopRegion{Start: 0, End: 7}, []string{roleBody, roleOutro}},
		{sound.LoopRegion{Start: 3, End: 7}, []string{roleIntro, roleBody, roleOutro}},
	}
	for _, tt := range tests {
		fx, err := sound.NewEffect("fx", p, tt.loop)
		require.NoError(t, err)
		assert.Equal(t, tt.want, segmentRoles(fx), "loop %+v", tt.loop)
	}
}

func TestInfoCommand(t *testing.T) {
	path := writeFixture(t, "chime", 4410)

	out, err := execute(t, "info", path)
	require.NoError(t, err)
	assert.Contains(t, out, "chime")
	assert.Contains(t, out, "44100 Hz, stereo16")
	assert.Contains(t, out, "4410")
	assert.Contains(t, out, "whole file")
	assert.Contains(t, out, roleBody)
}

func TestInfoCommandMissingFile(t *testing.T) {
	_, err := execute(t, "info", filepath.Join(t.TempDir(), "missing.wav"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRenderCommand(t *testing.T) {
	in := writeFixture(t, "blip", 4410)
	out := filepath.Join(t.TempDir(), "out.wav")

	stdout, err := execute(t, "render", in, "--output", out)
	require.NoError(t, err)
	assert.Contains(t, stdout, "rendered blip")

	fx, err := asset.Open(out)
	require.NoError(t, err)
	assert.Equal(t, 44100, fx.Payload.SampleRate)
	assert.GreaterOrEqual(t, fx.Payload.Frames(), 4410)
	assert.Less(t, fx.Payload.Frames(), 4410+3*441, "stops once the instance finishes")
}

func TestRenderLoopedNeedsDuration(t *testing.T) {
	in := writeFixture(t, "hum", 441)
	_, err := execute(t, "render", in, "--loop")
	assert.ErrorIs(t, err, ErrEndlessRender)
}

func TestRenderLoopedRunsForDuration(t *testing.T) {
	in := writeFixture(t, "hum", 441)
	out := filepath.Join(t.TempDir(), "hum.wav")

	_, err := execute(t, "render", in, "--loop", "--duration", "200ms", "-o", out)
	require.NoError(t, err)

	fx, err := asset.Open(out)
	require.NoError(t, err)
	assert.Equal(t, 8820, fx.Payload.Frames(), "a loop never runs out")
}

func TestRenderRejectsBadSettings(t *testing.T) {
	in := writeFixture(t, "blip", 441)
	out := filepath.Join(t.TempDir(), "out.wav")

	_, err := execute(t, "render", in, "--pitch", "2", "-o", out)
	assert.ErrorIs(t, err, sound.ErrInvalidArgument)

	_, err = execute(t, "render", in, "--voices", "0", "-o", out)
	assert.ErrorIs(t, err, sound.ErrInvalidArgument)

	_, err = execute(t, "render", in, "--master-volume", "3", "-o", out)
	assert.ErrorIs(t, err, sound.ErrInvalidArgument)
}

func TestServe(t *testing.T) {
	resetFlags()
	eng, err := newEngine()
	require.NoError(t, err)
	defer eng.Close()

	fxs, err := load([]string{writeFixture(t, "drone", 44100)})
	require.NoError(t, err)
	inst, err := eng.instance(fxs[0])
	require.NoError(t, err)
	defer inst.Dispose()
	require.NoError(t, inst.Play())

	// nothing pulls from the mixer, so only the limit ends this
	start := time.Now()
	require.NoError(t, serve(context.Background(), eng, []*sound.Instance{inst}, 50*time.Millisecond))
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
	assert.Equal(t, sound.Playing, inst.State())

	inst.Stop()
	require.NoError(t, serve(context.Background(), eng, []*sound.Instance{inst}, 0))
}
