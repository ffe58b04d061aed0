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
	"io"

	"github.com/spf13/cobra"

	"github.com/blacktop/sfx/sound"
)

var infoCmd = &cobra.Command{
	Use:   "info <file.wav>...",
	Short: "Show an effect's format, loop points and buffer chain",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fxs, err := load(args)
		if err != nil {
			return err
		}
		for i, fx := range fxs {
			if i > 0 {
				fmt.Fprintln(cmd.OutOrStdout())
			}
			printInfo(cmd.OutOrStdout(), fx)
		}
		return nil
	},
}

func printInfo(w io.Writer, fx *sound.Effect) {
	p := fx.Payload
	printTitle(w, fx.Name)
	printField(w, "format", fmt.Sprintf("%d Hz, %s", p.SampleRate, p.Format()))
	printField(w, "frames", p.Frames())
	printField(w, "duration", fx.Duration())
	if fx.Loop == p.WholeRegion() {
		printField(w, "loop", "whole file")
	} else {
		printField(w, "loop", fmt.Sprintf("[%d, %d)", fx.Loop.Start, fx.Loop.End))
	}

	segs := fx.Segments()
	printField(w, "buffers", len(segs))
	for i, role := range segmentRoles(fx) {
		s := segs[i]
		line := fmt.Sprintf("%-9s bytes [%d, %d)", role, s.Offset, s.End())
		if role == roleBody {
			line = loopStyle.Render(line)
		}
		printField(w, fmt.Sprintf("  #%d", i), line)
	}
}

const (
	roleIntro = "intro"
	roleBody  = "loop body"
	roleOutro = "outro"
)

// segmentRoles names each buffer of the effect's chain.
func segmentRoles(fx *sound.Effect) []string {
	segs := fx.Segments()
	switch len(segs) {
	case 1:
		return []string{roleBody}
	case 2:
		if fx.Loop.Start > 0 {
			return []string{roleIntro, roleBody}
		}
		return []string{roleBody, roleOutro}
	case 3:
		return []string{roleIntro, roleBody, roleOutro}
	}
	return nil
}

func init() {
	rootCmd.AddCommand(infoCmd)
}
