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
package beepdev

import (
	"github.com/gopxl/beep/v2"
)

// PCMStream implements beep.StreamSeeker for one buffer of raw 16-bit PCM
// audio data. Positions are in sample-frames.
type PCMStream struct {
	data     []byte
	channels int
	position int
}

// NewPCMStream streams data holding interleaved little-endian samples of the
// given channel count. Mono is duplicated to both speakers.
func NewPCMStream(data []byte, channels int) *PCMStream {
	if channels < 1 {
		channels = 1
	}
	return &PCMStream{data: data, channels: channels}
}

func (s *PCMStream) frameSize() int { return 2 * s.channels }

func sample(b []byte, at int) float64 {
	// Convert 16-bit little-endian PCM to float64
	return float64(int16(b[at])|int16(b[at+1])<<8) / 32768.0
}

func (s *PCMStream) Stream(samples [][2]float64) (n int, ok bool) {
	fs := s.frameSize()
	if s.position+fs > len(s.data) {
		return 0, false
	}

	for i := range samples {
		if s.position+fs > len(s.data) {
			return i, true
		}

		left := sample(s.data, s.position)
		right := left
		if s.channels > 1 {
			right = sample(s.data, s.position+2)
		}
		samples[i][0] = left
		samples[i][1] = right

		s.position += fs
	}

	return len(samples), true
}

func (s *PCMStream) Err() error {
	return nil
}

func (s *PCMStream) Len() int {
	return len(s.data) / s.frameSize()
}

func (s *PCMStream) Position() int {
	return s.position / s.frameSize()
}

func (s *PCMStream) Seek(p int) error {
	s.position = p * s.frameSize()
	if s.position < 0 {
		s.position = 0
	}
	if s.position >= len(s.data) {
		s.position = s.Len() * s.frameSize()
	}
	return nil
}

var _ beep.StreamSeeker = (*PCMStream)(nil)
