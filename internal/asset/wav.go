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

// Package asset loads sound effects from WAV files and writes rendered audio
// back out.
package asset

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/blacktop/sfx/sound"
)

var (
	ErrNotWavFile            = errors.New("not a valid WAV file")
	ErrOnlyPCM16bitSupported = errors.New("only 16-bit PCM WAV files are supported")
	ErrUnsupportedChannels   = errors.New("only mono and stereo WAV files are supported")
)

// pcmFormat is the WAVE_FORMAT_PCM format tag.
const pcmFormat = 1

// Open loads the WAV file at path. The effect is named after the file.
func Open(path string) (*sound.Effect, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sound file: %w", err)
	}
	defer f.Close()

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return LoadWAV(f, name)
}

// LoadWAV decodes a 16-bit PCM WAV stream into an effect. The first loop of a
// sampler (smpl) chunk, if any, becomes the effect's loop region; otherwise
// the whole payload loops.
func LoadWAV(r io.ReadSeeker, name string) (*sound.Effect, error) {
	loop, hasLoop, err := readLoop(r)
	if err != nil {
		return nil, err
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to rewind %q: %w", name, err)
	}

	d := wav.NewDecoder(r)
	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to decode %q: %w", name, err)
	}

	p := sound.Payload{
		Data:       pcm16(buf),
		SampleRate: buf.Format.SampleRate,
		Channels:   buf.Format.NumChannels,
	}
	frames := p.Frames()
	if !hasLoop {
		loop = p.WholeRegion()
	}
	loop.Start = min(loop.Start, frames)
	loop.End = min(loop.End, frames)

	log.Debug("Loaded sound", "name", name, "frames", frames, "sampleRate", p.SampleRate,
		"channels", p.Channels, "loopStart", loop.Start, "loopEnd", loop.End)
	return sound.NewEffect(name, p, loop)
}

// readLoop validates the header and pulls loop points from the metadata.
// It consumes the stream.
func readLoop(r io.ReadSeeker) (sound.LoopRegion, bool, error) {
	d := wav.NewDecoder(r)
	if !d.IsValidFile() {
		return sound.LoopRegion{}, false, ErrNotWavFile
	}
	if d.WavAudioFormat != pcmFormat || d.BitDepth != 16 {
		return sound.LoopRegion{}, false, fmt.Errorf("format %d, %d bits: %w",
			d.WavAudioFormat, d.BitDepth, ErrOnlyPCM16bitSupported)
	}
	if d.NumChans != 1 && d.NumChans != 2 {
		return sound.LoopRegion{}, false, fmt.Errorf("%d channels: %w", d.NumChans, ErrUnsupportedChannels)
	}

	d.ReadMetadata()
	if err := d.Err(); err != nil && !errors.Is(err, io.EOF) {
		log.Warn("Ignoring unreadable WAV metadata", "error", err)
		return sound.LoopRegion{}, false, nil
	}
	if d.Metadata == nil || d.Metadata.SamplerInfo == nil || len(d.Metadata.SamplerInfo.Loops) == 0 {
		return sound.LoopRegion{}, false, nil
	}
	l := d.Metadata.SamplerInfo.Loops[0]
	// sampler loop ends are inclusive
	return sound.LoopRegion{Start: int(l.Start), End: int(l.End) + 1}, true, nil
}

func pcm16(buf *audio.IntBuffer) []byte {
	out := make([]byte, 2*len(buf.Data))
	for i, s := range buf.Data {
		binary.LittleEndian.PutUint16(out[2*i:], uint16(int16(s)))
	}
	return out
}

// WriteWAV encodes stereo float frames in [-1, 1] as a 16-bit PCM WAV file.
// Samples outside the range are clipped.
func WriteWAV(w io.WriteSeeker, sampleRate int, frames [][2]float64) error {
	enc := wav.NewEncoder(w, sampleRate, 16, 2, pcmFormat)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 2, SampleRate: sampleRate},
		Data:           make([]int, 0, 2*len(frames)),
		SourceBitDepth: 16,
	}
	for _, f := range frames {
		buf.Data = append(buf.Data, quantize(f[0]), quantize(f[1]))
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("failed to encode audio: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to finish WAV file: %w", err)
	}
	return nil
}

func quantize(v float64) int {
	v = math.Max(-1, math.Min(1, v))
	return int(math.Round(v * 32767))
}
