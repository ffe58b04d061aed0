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
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/blacktop/sfx/internal/asset"
	"github.com/blacktop/sfx/sound"
)

var outputPath string

// ErrEndlessRender is returned when a looped effect is rendered without a
// duration.
var ErrEndlessRender = errors.New("a looped render needs --duration")

var renderCmd = &cobra.Command{
	Use:   "render <file.wav>",
	Short: "Render one effect instance to a WAV file",
	Long: `Render plays one instance of the effect through the software mixer,
without an audio device, and writes the mixed stereo output to a WAV file.
The same controller service pass used for live playback runs between chunks,
so loops are armed exactly as they would be when playing.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if loop && duration <= 0 {
			return ErrEndlessRender
		}
		fxs, err := load(args)
		if err != nil {
			return err
		}
		fx := fxs[0]

		eng, err := newEngine()
		if err != nil {
			return err
		}
		defer eng.Close()

		inst, err := eng.instance(fx)
		if err != nil {
			return err
		}
		defer inst.Dispose()

		frames, err := render(eng, inst, renderLimit(fx))
		if err != nil {
			return err
		}

		path := outputPath
		if path == "" {
			path = fx.Name + ".render.wav"
		}
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create WAV file: %w", err)
		}
		defer f.Close()
		if err := asset.WriteWAV(f, sampleRate, frames); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		printTitle(out, "rendered "+fx.Name)
		printField(out, "output", path)
		printField(out, "frames", len(frames))
		printField(out, "duration", time.Duration(len(frames))*time.Second/time.Duration(sampleRate))
		return nil
	},
}

// renderLimit bounds the render: the requested duration, or else long enough
// for one pass at the lowest pitch plus a margin.
func renderLimit(fx *sound.Effect) time.Duration {
	if duration > 0 {
		return duration
	}
	return 2*fx.Duration() + time.Second
}

// render pulls chunks from the mixer, servicing the controller between
// them, until the instance stops or limit is reached.
func render(eng *engine, inst *sound.Instance, limit time.Duration) ([][2]float64, error) {
	if err := inst.Play(); err != nil {
		return nil, err
	}
	rate := eng.dev.Format().SampleRate
	total := rate.N(limit)
	chunk := max(1, rate.N(serviceInterval))

	frames := make([][2]float64, 0, total)
	buf := make([][2]float64, chunk)
	for len(frames) < total {
		n, _ := eng.dev.Stream(buf[:min(chunk, total-len(frames))])
		frames = append(frames, buf[:n]...)
		eng.ctrl.Update()
		if inst.State() == sound.Stopped {
			break
		}
	}
	log.Debug("Render finished", "frames", len(frames), "state", inst.State())
	return frames, nil
}

func init() {
	addInstanceFlags(renderCmd)
	renderCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output WAV path (default <name>.render.wav)")
	rootCmd.AddCommand(renderCmd)
}
