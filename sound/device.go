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

// BufferID names a hardware buffer. Zero is never a valid buffer.
type BufferID uint32

// SourceID names a hardware voice. Zero is never a valid voice.
type SourceID uint32

// Format is the sample layout of a hardware buffer.
type Format int

const (
	FormatMono16 Format = iota + 1
	FormatStereo16
)

func (f Format) String() string {
	switch f {
	case FormatMono16:
		return "mono16"
	case FormatStereo16:
		return "stereo16"
	default:
		return "unknown"
	}
}

// Channels returns the number of interleaved channels of the format.
func (f Format) Channels() int {
	if f == FormatStereo16 {
		return 2
	}
	return 1
}

// SourceParam selects a scalar or vector voice parameter.
type SourceParam int

const (
	ParamGain SourceParam = iota + 1
	ParamPitch
	ParamPosition
	ParamVelocity
)

func (p SourceParam) String() string {
	switch p {
	case ParamGain:
		return "gain"
	case ParamPitch:
		return "pitch"
	case ParamPosition:
		return "position"
	case ParamVelocity:
		return "velocity"
	default:
		return "unknown"
	}
}

// DistanceModel selects how distance attenuates a positioned voice.
type DistanceModel int

const (
	DistanceNone DistanceModel = iota
	InverseDistanceClamped
)

// SourceState is the transport state of a voice as seen by the hardware.
type SourceState int

const (
	SourceInitial SourceState = iota
	SourcePlaying
	SourcePaused
	SourceStopped
)

func (s SourceState) String() string {
	switch s {
	case SourceInitial:
		return "initial"
	case SourcePlaying:
		return "playing"
	case SourcePaused:
		return "paused"
	case SourceStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Device is the hardware audio capability consumed by the engine. Calls are
// synchronous and must not block. The controller serializes every call it
// makes, so implementations only need to guard against their own playback
// goroutine.
type Device interface {
	GenBuffer() (BufferID, error)
	// BufferData uploads data into buf. The device must not retain data
	// beyond what it needs to play it back; callers treat it as read-only.
	BufferData(buf BufferID, format Format, data []byte, sampleRate int) error
	DeleteBuffer(buf BufferID)

	GenSource() (SourceID, error)
	DeleteSource(src SourceID)

	// QueueBuffers appends bufs to the voice's queue.
	QueueBuffers(src SourceID, bufs ...BufferID)
	// UnqueueBuffers removes up to n processed buffers from the head of the
	// queue and returns them.
	UnqueueBuffers(src SourceID, n int) []BufferID
	// SetBuffer replaces the queue with buf alone. Zero detaches everything.
	SetBuffer(src SourceID, buf BufferID)
	// BuffersProcessed reports how many queued buffers have been played
	// through completely.
	BuffersProcessed(src SourceID) int

	SetSourcef(src SourceID, param SourceParam, value float32)
	SetSource3f(src SourceID, param SourceParam, value Vector3)
	SetLooping(src SourceID, looping bool)
	SetDistanceModel(model DistanceModel)

	Play(src SourceID)
	Pause(src SourceID)
	Stop(src SourceID)
	State(src SourceID) SourceState
}
