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
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/caarlos0/ctrlc"
	"github.com/charmbracelet/log"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/blacktop/sfx/sound"
)

var playCmd = &cobra.Command{
	Use:   "play <file.wav>...",
	Short: "Play effects through the default audio device",
	Long: `Play starts one instance of every effect at once and waits until they
have all finished. A looped instance plays until --duration elapses or the
command is interrupted with Ctrl-C.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fxs, err := load(args)
		if err != nil {
			return err
		}
		eng, err := newEngine()
		if err != nil {
			return err
		}
		defer eng.Close()

		format := eng.dev.Format()
		if err := speaker.Init(format.SampleRate, format.SampleRate.N(time.Second/10)); err != nil {
			return fmt.Errorf("failed to initialize speaker: %w", err)
		}
		defer speaker.Close()
		speaker.Play(eng.dev)

		out := cmd.OutOrStdout()
		var instances []*sound.Instance
		defer func() {
			for _, inst := range instances {
				inst.Dispose()
			}
		}()
		for _, fx := range fxs {
			inst, err := eng.instance(fx)
			if err != nil {
				return err
			}
			instances = append(instances, inst)
			if err := inst.Play(); err != nil {
				if errors.Is(err, sound.ErrSourceUnavailable) {
					fmt.Fprintln(out, warnStyle.Render(fmt.Sprintf("skipped %s: no free voice", fx.Name)))
					continue
				}
				return err
			}
			fmt.Fprintln(out, titleStyle.Render("playing"), valueStyle.Render(fx.Name))
		}

		var finished atomic.Bool
		err = ctrlc.Default.Run(cmd.Context(), func() error {
			defer finished.Store(true)
			return serve(cmd.Context(), eng, instances, duration)
		})
		if err != nil && !finished.Load() {
			log.Info("Interrupted, stopping playback")
			return nil
		}
		return err
	},
}

// serve runs the controller's service loop until every instance has stopped
// or limit elapses.
func serve(ctx context.Context, eng *engine, instances []*sound.Instance, limit time.Duration) error {
	var cancel context.CancelFunc
	if limit > 0 {
		ctx, cancel = context.WithTimeout(ctx, limit)
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return eng.ctrl.Run(gctx, serviceInterval)
	})
	g.Go(func() error {
		defer cancel()
		waitStopped(gctx, instances)
		return nil
	})
	err := g.Wait()
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

// waitStopped returns once no instance is playing or paused.
func waitStopped(ctx context.Context, instances []*sound.Instance) {
	t := time.NewTicker(serviceInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
		done := true
		for _, inst := range instances {
			if inst.State() != sound.Stopped {
				done = false
				break
			}
		}
		if done {
			log.Debug("All instances stopped")
			return
		}
	}
}

func init() {
	addInstanceFlags(playCmd)
	rootCmd.AddCommand(playCmd)
}
