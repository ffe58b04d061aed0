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
	"os"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/blacktop/sfx/sound"
)

const masterVolumeEnv = "SFX_MASTER_VOLUME"

var (
	verbose      bool
	voices       int
	masterVolume float64
	sampleRate   int
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "sfx",
	Short: "Sound effect playback engine",
	Long: `sfx plays, renders and inspects looping sound effects.

Effects are 16-bit PCM WAV files. Loop points are read from the file's
sampler (smpl) chunk; without one the whole file loops. A looped effect plays
its intro once, then repeats the loop body until it is stopped.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			log.SetLevel(log.DebugLevel)
		}
		v, err := resolveMasterVolume(cmd.Flags().Changed("master-volume"), masterVolume, os.Getenv(masterVolumeEnv))
		if err != nil {
			return err
		}
		masterVolume = v
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

// resolveMasterVolume prefers an explicit flag, then the environment.
func resolveMasterVolume(flagSet bool, flagValue float64, env string) (float64, error) {
	if flagSet || env == "" {
		return flagValue, nil
	}
	v, err := strconv.ParseFloat(env, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", masterVolumeEnv, env, err)
	}
	log.Debug("Using master volume from environment", "env", masterVolumeEnv, "value", v)
	return v, nil
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "V", false, "Enable verbose debug logging")
	rootCmd.PersistentFlags().IntVar(&voices, "voices", sound.DefaultSources, "Number of hardware voices in the pool")
	rootCmd.PersistentFlags().Float64Var(&masterVolume, "master-volume", 1, "Master volume in [0, 1] (env: "+masterVolumeEnv+")")
	rootCmd.PersistentFlags().IntVar(&sampleRate, "sample-rate", 44100, "Output sample rate in Hz")
}
