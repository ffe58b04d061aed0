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
package sound

import (
	"fmt"
	"time"
)

// bytesPerSample is fixed: payloads are always 16-bit PCM.
const bytesPerSample = 2

// Payload is decoded 16-bit little-endian interleaved PCM. Data is shared
// read-only between every instance created from it.
type Payload struct {
	Data       []byte
	SampleRate int
	Channels   int
}

// FrameSize is the number of bytes in one sample-frame.
func (p Payload) FrameSize() int { return bytesPerSample * p.Channels }

// Frames is the number of sample-frames in the payload.
func (p Payload) Frames() int {
	if p.Channels <= 0 {
		return 0
	}
	return len(p.Data) / p.FrameSize()
}

// Format returns the hardware format tag for the payload.
func (p Payload) Format() Format {
	if p.Channels == 2 {
		return FormatStereo16
	}
	return FormatMono16
}

// Duration is the playback length at the payload's own sample rate.
func (p Payload) Duration() time.Duration {
	if p.SampleRate <= 0 {
		return 0
	}
	return time.Duration(p.Frames()) * time.Second / time.Duration(p.SampleRate)
}

// WholeRegion is the loop region covering the entire payload.
func (p Payload) WholeRegion() LoopRegion {
	return LoopRegion{Start: 0, End: p.Frames()}
}

func (p Payload) validate() error {
	switch {
	case p.Channels != 1 && p.Channels != 2:
		return fmt.Errorf("%d channels, want mono or stereo: %w", p.Channels, ErrInvalidArgument)
	case p.SampleRate <= 0:
		return fmt.Errorf("sample rate %d: %w", p.SampleRate, ErrInvalidArgument)
	case len(p.Data) == 0:
		return fmt.Errorf("empty payload: %w", ErrInvalidArgument)
	case len(p.Data)%p.FrameSize() != 0:
		return fmt.Errorf("payload of %d bytes is not a whole number of %d-byte frames: %w",
			len(p.Data), p.FrameSize(), ErrInvalidArgument)
	}
	return nil
}

// LoopRegion is the [Start, End) range of sample-frames that repeats when an
// instance is looped.
type LoopRegion struct {
	Start int
	End   int
}

// Segment is a byte range of a payload backing one hardware buffer.
type Segment struct {
	Offset int
	Length int
}

// End is the first byte after the segment.
func (s Segment) End() int { return s.Offset + s.Length }

// SplitPayload cuts p into the byte ranges of its buffer chain:
//
//	whole payload looped          [0,total)
//	loop starts late              [0,start) [start,total)
//	loop ends early               [0,end) [end,total)
//	loop starts late, ends early  [0,start) [start,end) [end,total)
func SplitPayload(p Payload, loop LoopRegion) ([]Segment, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	total := p.Frames()
	switch {
	case loop.Start < 0 || loop.End > total:
		return nil, fmt.Errorf("loop region [%d,%d) outside payload of %d frames: %w",
			loop.Start, loop.End, total, ErrInvalidArgument)
	case loop.Start > loop.End:
		return nil, fmt.Errorf("loop start %d after loop end %d: %w", loop.Start, loop.End, ErrInvalidArgument)
	case loop.Start == loop.End:
		return nil, fmt.Errorf("zero-length loop body at frame %d: %w", loop.Start, ErrInvalidArgument)
	}

	fs := p.FrameSize()
	cut := func(from, to int) Segment {
		return Segment{Offset: from * fs, Length: (to - from) * fs}
	}

	late := loop.Start > 0
	early := loop.End < total
	switch {
	case late && early:
		return []Segment{cut(0, loop.Start), cut(loop.Start, loop.End), cut(loop.End, total)}, nil
	case late:
		return []Segment{cut(0, loop.Start), cut(loop.Start, total)}, nil
	case early:
		return []Segment{cut(0, loop.End), cut(loop.End, total)}, nil
	default:
		return []Segment{cut(0, total)}, nil
	}
}
