/*
Copyright © 2025 blacktop

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package cmd

import (
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gopxl/beep/v2"
	"github.com/spf13/cobra"

	"github.com/blacktop/sfx/internal/asset"
	"github.com/blacktop/sfx/internal/beepdev"
	"github.com/blacktop/sfx/sound"
)

// serviceInterval is how often the controller's service pass runs.
const serviceInterval = 10 * time.Millisecond

// Per-instance settings shared by play and render.
var (
	loop     bool
	volume   float64
	pitch    float64
	pan      float64
	duration time.Duration
)

func addInstanceFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVarP(&loop, "loop", "l", false, "Loop the effect's loop region")
	cmd.Flags().Float64Var(&volume, "volume", 1, "Instance volume in [0, 1]")
	cmd.Flags().Float64Var(&pitch, "pitch", 0, "Pitch shift in octaves, [-1, 1]")
	cmd.Flags().Float64Var(&pan, "pan", 0, "Stereo pan, -1 (left) to 1 (right)")
	cmd.Flags().DurationVarP(&duration, "duration", "d", 0, "Stop after this long (required to end a looped effect)")
}

// engine is a controller running on the software mixer.
type engine struct {
	dev  *beepdev.Device
	ctrl *sound.Controller
}

func newEngine() (*engine, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate %d: %w", sampleRate, sound.ErrInvalidArgument)
	}
	dev := beepdev.New(beep.SampleRate(sampleRate))
	ctrl, err := sound.NewController(dev,
		sound.WithSources(voices),
		sound.WithMasterVolume(float32(masterVolume)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start sound controller: %w", err)
	}
	return &engine{dev: dev, ctrl: ctrl}, nil
}

func (e *engine) Close() {
	e.ctrl.Close()
}

// load opens every path as an effect.
func load(paths []string) ([]*sound.Effect, error) {
	fxs := make([]*sound.Effect, 0, len(paths))
	for _, p := range paths {
		fx, err := asset.Open(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		fxs = append(fxs, fx)
	}
	return fxs, nil
}

// instance creates an instance of fx configured from the command line.
func (e *engine) instance(fx *sound.Effect) (*sound.Instance, error) {
	inst, err := fx.CreateInstance(e.ctrl)
	if err != nil {
		return nil, err
	}
	for _, set := range []func() error{
		func() error { return inst.SetLooped(loop) },
		func() error { return inst.SetVolume(float32(volume)) },
		func() error { return inst.SetPitch(float32(pitch)) },
		func() error { return inst.SetPan(float32(pan)) },
	} {
		if err := set(); err != nil {
			inst.Dispose()
			return nil, fmt.Errorf("%s: %w", fx.Name, err)
		}
	}
	log.Debug("Instance configured", "effect", fx.Name, "looped", loop, "volume", volume, "pitch", pitch, "pan", pan)
	return inst, nil
}
