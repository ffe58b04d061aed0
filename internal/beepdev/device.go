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

// Package beepdev implements sound.Device as a software mixer built on beep.
// A Device is itself a beep.Streamer: hand it to speaker.Play for live output
// or pull from it directly to render offline.
package beepdev

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"

	"github.com/blacktop/sfx/sound"
)

// ResampleQuality is the beep resampling quality used for every voice.
const ResampleQuality = 4

// referenceDistance is the distance below which no attenuation is applied.
const referenceDistance = 1.0

var (
	ErrUnknownBuffer = errors.New("unknown buffer")
	ErrBadFormat     = errors.New("unsupported buffer format")
)

type buffer struct {
	data     []byte
	channels int
	rate     beep.SampleRate
}

// voice plays a queue of buffers. Every buffer gets its own resampler, so the
// cursor only passes a buffer once its last frame has been mixed.
type voice struct {
	queue   []sound.BufferID
	cursor  int // index into queue of the buffer being played
	current *beep.Resampler
	looping bool
	state   sound.SourceState

	gain     float32
	pitch    float32
	position sound.Vector3
	velocity sound.Vector3

	baseRatio float64 // rate of the current buffer over the device rate
	pan       *effects.Pan
	volume    *effects.Gain
}

// Device mixes every playing voice into a stereo stream at a fixed rate.
type Device struct {
	mu   sync.Mutex
	rate beep.SampleRate

	buffers map[sound.BufferID]*buffer
	voices  map[sound.SourceID]*voice
	order   []sound.SourceID

	nextBuffer sound.BufferID
	nextSource sound.SourceID
	model      sound.DistanceModel

	scratch [][2]float64
}

// New returns a device mixing at rate.
func New(rate beep.SampleRate) *Device {
	return &Device{
		rate:    rate,
		buffers: make(map[sound.BufferID]*buffer),
		voices:  make(map[sound.SourceID]*voice),
	}
}

// Format is the format of the mixed stream.
func (d *Device) Format() beep.Format {
	return beep.Format{SampleRate: d.rate, NumChannels: 2, Precision: 2}
}

// Active is the number of voices currently playing.
func (d *Device) Active() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	var n int
	for _, v := range d.voices {
		if v.state == sound.SourcePlaying {
			n++
		}
	}
	return n
}

func (d *Device) GenBuffer() (sound.BufferID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextBuffer++
	d.buffers[d.nextBuffer] = &buffer{}
	return d.nextBuffer, nil
}

func (d *Device) BufferData(id sound.BufferID, format sound.Format, data []byte, sampleRate int) error {
	if format != sound.FormatMono16 && format != sound.FormatStereo16 {
		return fmt.Errorf("%v: %w", format, ErrBadFormat)
	}
	if sampleRate <= 0 {
		return fmt.Errorf("sample rate %d: %w", sampleRate, ErrBadFormat)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	b, ok := d.buffers[id]
	if !ok {
		return fmt.Errorf("buffer %d: %w", id, ErrUnknownBuffer)
	}
	b.data = data
	b.channels = format.Channels()
	b.rate = beep.SampleRate(sampleRate)
	return nil
}

func (d *Device) DeleteBuffer(id sound.BufferID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.buffers, id)
}

func (d *Device) GenSource() (sound.SourceID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextSource++
	d.voices[d.nextSource] = &voice{gain: 1, state: sound.SourceInitial}
	d.order = append(d.order, d.nextSource)
	return d.nextSource, nil
}

func (d *Device) DeleteSource(src sound.SourceID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.voices, src)
	for i, id := range d.order {
		if id == src {
			d.order = append(d.order[:i], d.order[i+1:]...)
			break
		}
	}
}

func (d *Device) QueueBuffers(src sound.SourceID, bufs ...sound.BufferID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if v, ok := d.voices[src]; ok {
		v.queue = append(v.queue, bufs...)
	}
}

func (d *Device) UnqueueBuffers(src sound.SourceID, n int) []sound.BufferID {
	d.mu.Lock()
	defer d.mu.Unlock()
	v, ok := d.voices[src]
	if !ok {
		return nil
	}
	n = min(n, processed(v))
	if n <= 0 {
		return nil
	}
	out := append([]sound.BufferID(nil), v.queue[:n]...)
	v.queue = v.queue[n:]
	v.cursor -= n
	return out
}

func (d *Device) SetBuffer(src sound.SourceID, buf sound.BufferID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	v, ok := d.voices[src]
	if !ok {
		return
	}
	v.queue = nil
	if buf != 0 {
		v.queue = []sound.BufferID{buf}
	}
	v.cursor = 0
	v.current = nil
}

func (d *Device) BuffersProcessed(src sound.SourceID) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	if v, ok := d.voices[src]; ok {
		return processed(v)
	}
	return 0
}

func processed(v *voice) int {
	return min(v.cursor, len(v.queue))
}

func (d *Device) SetSourcef(src sound.SourceID, param sound.SourceParam, value float32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	v, ok := d.voices[src]
	if !ok {
		return
	}
	switch param {
	case sound.ParamGain:
		v.gain = value
	case sound.ParamPitch:
		v.pitch = value
	default:
		log.Warn("Ignoring scalar source parameter", "param", param)
		return
	}
	d.applyLocked(v)
}

// SetSource3f stores position and velocity. Velocity is kept for callers
// that read it back; no doppler shift is applied.
func (d *Device) SetSource3f(src sound.SourceID, param sound.SourceParam, value sound.Vector3) {
	d.mu.Lock()
	defer d.mu.Unlock()
	v, ok := d.voices[src]
	if !ok {
		return
	}
	switch param {
	case sound.ParamPosition:
		v.position = value
	case sound.ParamVelocity:
		v.velocity = value
	default:
		log.Warn("Ignoring vector source parameter", "param", param)
		return
	}
	d.applyLocked(v)
}

func (d *Device) SetLooping(src sound.SourceID, looping bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if v, ok := d.voices[src]; ok {
		v.looping = looping
	}
}

func (d *Device) SetDistanceModel(model sound.DistanceModel) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.model = model
	for _, v := range d.voices {
		d.applyLocked(v)
	}
}

// Play starts src from the top of its queue, or continues it when paused.
func (d *Device) Play(src sound.SourceID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	v, ok := d.voices[src]
	if !ok {
		return
	}
	if v.state == sound.SourcePaused && v.volume != nil {
		v.state = sound.SourcePlaying
		return
	}
	if len(v.queue) == 0 {
		v.state = sound.SourceStopped
		return
	}
	v.cursor = 0
	v.current = nil
	v.pan = &effects.Pan{Streamer: &queue{d: d, v: v}}
	v.volume = &effects.Gain{Streamer: v.pan}
	d.applyLocked(v)
	v.state = sound.SourcePlaying
}

func (d *Device) Pause(src sound.SourceID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if v, ok := d.voices[src]; ok && v.state == sound.SourcePlaying {
		v.state = sound.SourcePaused
	}
}

func (d *Device) Stop(src sound.SourceID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if v, ok := d.voices[src]; ok {
		stopLocked(v)
	}
}

func stopLocked(v *voice) {
	v.state = sound.SourceStopped
	v.cursor = len(v.queue)
	v.current = nil
	v.pan, v.volume = nil, nil
}

func (d *Device) State(src sound.SourceID) sound.SourceState {
	d.mu.Lock()
	defer d.mu.Unlock()
	if v, ok := d.voices[src]; ok {
		return v.state
	}
	return sound.SourceInitial
}

// Stream mixes every playing voice into samples. It never runs dry, so the
// speaker keeps pulling from it while voices come and go.
func (d *Device) Stream(samples [][2]float64) (n int, ok bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	clear(samples)
	if cap(d.scratch) < len(samples) {
		d.scratch = make([][2]float64, len(samples))
	}
	tmp := d.scratch[:len(samples)]

	for _, id := range d.order {
		v := d.voices[id]
		if v.state != sound.SourcePlaying || v.volume == nil {
			continue
		}
		got, more := v.volume.Stream(tmp)
		for i := range tmp[:got] {
			samples[i][0] += tmp[i][0]
			samples[i][1] += tmp[i][1]
		}
		if !more || got < len(tmp) {
			stopLocked(v)
		}
	}
	return len(samples), true
}

func (d *Device) Err() error {
	return nil
}

// applyLocked pushes the voice's parameters into its effect chain.
func (d *Device) applyLocked(v *voice) {
	if v.volume == nil {
		return
	}
	if v.current != nil {
		v.current.SetRatio(v.baseRatio * pitchOrOne(v.pitch))
	}
	v.pan.Pan = panOf(v.position)
	v.volume.Gain = float64(v.gain)*d.attenuation(v.position) - 1
}

// attenuation follows the inverse distance clamped model with unit rolloff.
func (d *Device) attenuation(p sound.Vector3) float64 {
	if d.model != sound.InverseDistanceClamped {
		return 1
	}
	dist := math.Max(float64(p.Length()), referenceDistance)
	return referenceDistance / dist
}

// panOf maps a listener-relative position to a stereo balance.
func panOf(p sound.Vector3) float64 {
	l := float64(p.Length())
	if l == 0 {
		return 0
	}
	return math.Max(-1, math.Min(1, float64(p.X)/l))
}

func pitchOrOne(p float32) float64 {
	if p <= 0 {
		return 1
	}
	return float64(p)
}

// queue streams a voice's buffer queue in order, resampled to the device
// rate. It runs under the device lock, from Device.Stream.
type queue struct {
	d *Device
	v *voice
}

func (q *queue) Stream(samples [][2]float64) (n int, ok bool) {
	v := q.v
	for n < len(samples) {
		if v.current == nil && !q.advance() {
			break
		}
		m, more := v.current.Stream(samples[n:])
		n += m
		if !more || m < len(samples[n-m:]) {
			v.current = nil
			v.cursor++
		}
	}
	return n, n > 0
}

func (q *queue) Err() error {
	return nil
}

// advance opens the buffer at the cursor, wrapping to the start of the queue
// when the voice loops.
func (q *queue) advance() bool {
	v := q.v
	for range len(v.queue) + 1 {
		if v.cursor >= len(v.queue) {
			if !v.looping || len(v.queue) == 0 {
				return false
			}
			v.cursor = 0
		}
		b, ok := q.d.buffers[v.queue[v.cursor]]
		if !ok || len(b.data) < 2*b.channels {
			v.cursor++
			continue
		}
		v.baseRatio = float64(b.rate) / float64(q.d.rate)
		v.current = beep.ResampleRatio(ResampleQuality, v.baseRatio*pitchOrOne(v.pitch), NewPCMStream(b.data, b.channels))
		return true
	}
	return false
}

var _ sound.Device = (*Device)(nil)
