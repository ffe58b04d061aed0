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

// Package devicetest provides a recording sound.Device for tests.
package devicetest

import (
	"errors"
	"slices"
	"sync"

	"github.com/blacktop/sfx/sound"
)

// Call is one recorded device operation.
type Call struct {
	Op      string
	Source  sound.SourceID
	Buffers []sound.BufferID
	Param   sound.SourceParam
	Value   any
}

type buffer struct {
	format sound.Format
	data   []byte
	rate   int
}

type source struct {
	queue     []sound.BufferID
	processed int
	looping   bool
	state     sound.SourceState
}

// Device records every call and keeps just enough voice state for the engine
// to make decisions: queues, the processed count, the looping flag and the
// transport state. Nothing is ever played.
type Device struct {
	mu sync.Mutex

	calls   []Call
	buffers map[sound.BufferID]*buffer
	sources map[sound.SourceID]*source
	deleted []sound.BufferID

	nextBuffer sound.BufferID
	nextSource sound.SourceID

	// FailBufferData makes BufferData fail once the given number of calls
	// have succeeded. Negative disables it.
	FailBufferData int
	// FailGenSource makes GenSource fail once the given number of calls have
	// succeeded. Negative disables it.
	FailGenSource int
	// PlayOut makes Play finish the whole queue at once, like a sound too
	// short to outlast a service pass.
	PlayOut bool
}

// ErrInjected is returned by operations made to fail on purpose.
var ErrInjected = errors.New("injected device failure")

// New returns an empty recording device.
func New() *Device {
	return &Device{
		buffers:        make(map[sound.BufferID]*buffer),
		sources:        make(map[sound.SourceID]*source),
		FailBufferData: -1,
		FailGenSource:  -1,
	}
}

func (d *Device) record(c Call) {
	d.calls = append(d.calls, c)
}

// Calls returns a copy of everything recorded so far.
func (d *Device) Calls() []Call {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.calls)
}

// CallsOf returns the recorded calls of one operation.
func (d *Device) CallsOf(op string) []Call {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []Call
	for _, c := range d.calls {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

// Reset forgets recorded calls, keeping device state.
func (d *Device) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = nil
}

// Data returns the bytes uploaded to buf.
func (d *Device) Data(buf sound.BufferID) ([]byte, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	b, ok := d.buffers[buf]
	if !ok {
		return nil, false
	}
	return b.data, true
}

// LiveBuffers is the number of buffers generated and not yet deleted.
func (d *Device) LiveBuffers() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.buffers)
}

// Deleted lists every DeleteBuffer call in order.
func (d *Device) Deleted() []sound.BufferID {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.deleted)
}

// Queue returns the buffers queued on src.
func (d *Device) Queue(src sound.SourceID) []sound.BufferID {
	d.mu.Lock()
	defer d.mu.Unlock()
	if s, ok := d.sources[src]; ok {
		return slices.Clone(s.queue)
	}
	return nil
}

// Looping reports the looping flag of src.
func (d *Device) Looping(src sound.SourceID) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if s, ok := d.sources[src]; ok {
		return s.looping
	}
	return false
}

// SetProcessed simulates the hardware finishing n queued buffers.
func (d *Device) SetProcessed(src sound.SourceID, n int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if s, ok := d.sources[src]; ok {
		s.processed = min(n, len(s.queue))
	}
}

// Finish simulates src playing out its queue.
func (d *Device) Finish(src sound.SourceID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if s, ok := d.sources[src]; ok {
		s.processed = len(s.queue)
		s.state = sound.SourceStopped
	}
}

func (d *Device) GenBuffer() (sound.BufferID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextBuffer++
	d.buffers[d.nextBuffer] = &buffer{}
	d.record(Call{Op: "GenBuffer", Buffers: []sound.BufferID{d.nextBuffer}})
	return d.nextBuffer, nil
}

func (d *Device) BufferData(buf sound.BufferID, format sound.Format, data []byte, sampleRate int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.FailBufferData == 0 {
		return ErrInjected
	}
	if d.FailBufferData > 0 {
		d.FailBufferData--
	}
	b, ok := d.buffers[buf]
	if !ok {
		return errors.New("unknown buffer")
	}
	b.format = format
	b.data = data
	b.rate = sampleRate
	d.record(Call{Op: "BufferData", Buffers: []sound.BufferID{buf}, Value: len(data)})
	return nil
}

func (d *Device) DeleteBuffer(buf sound.BufferID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.buffers, buf)
	d.deleted = append(d.deleted, buf)
	d.record(Call{Op: "DeleteBuffer", Buffers: []sound.BufferID{buf}})
}

func (d *Device) GenSource() (sound.SourceID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.FailGenSource == 0 {
		return 0, ErrInjected
	}
	if d.FailGenSource > 0 {
		d.FailGenSource--
	}
	d.nextSource++
	d.sources[d.nextSource] = &source{}
	d.record(Call{Op: "GenSource", Source: d.nextSource})
	return d.nextSource, nil
}

func (d *Device) DeleteSource(src sound.SourceID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.sources, src)
	d.record(Call{Op: "DeleteSource", Source: src})
}

func (d *Device) QueueBuffers(src sound.SourceID, bufs ...sound.BufferID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if s, ok := d.sources[src]; ok {
		s.queue = append(s.queue, bufs...)
	}
	d.record(Call{Op: "QueueBuffers", Source: src, Buffers: slices.Clone(bufs)})
}

func (d *Device) UnqueueBuffers(src sound.SourceID, n int) []sound.BufferID {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []sound.BufferID
	if s, ok := d.sources[src]; ok {
		n = min(n, s.processed)
		out = slices.Clone(s.queue[:n])
		s.queue = s.queue[n:]
		s.processed -= n
	}
	d.record(Call{Op: "UnqueueBuffers", Source: src, Buffers: out})
	return out
}

func (d *Device) SetBuffer(src sound.SourceID, buf sound.BufferID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if s, ok := d.sources[src]; ok {
		s.queue = nil
		s.processed = 0
		if buf != 0 {
			s.queue = []sound.BufferID{buf}
		}
	}
	d.record(Call{Op: "SetBuffer", Source: src, Buffers: []sound.BufferID{buf}})
}

func (d *Device) BuffersProcessed(src sound.SourceID) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record(Call{Op: "BuffersProcessed", Source: src})
	if s, ok := d.sources[src]; ok {
		return s.processed
	}
	return 0
}

func (d *Device) SetSourcef(src sound.SourceID, param sound.SourceParam, value float32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record(Call{Op: "SetSourcef", Source: src, Param: param, Value: value})
}

func (d *Device) SetSource3f(src sound.SourceID, param sound.SourceParam, value sound.Vector3) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record(Call{Op: "SetSource3f", Source: src, Param: param, Value: value})
}

func (d *Device) SetLooping(src sound.SourceID, looping bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if s, ok := d.sources[src]; ok {
		s.looping = looping
	}
	d.record(Call{Op: "SetLooping", Source: src, Value: looping})
}

func (d *Device) SetDistanceModel(model sound.DistanceModel) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record(Call{Op: "SetDistanceModel", Value: model})
}

func (d *Device) Play(src sound.SourceID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if s, ok := d.sources[src]; ok {
		s.state = sound.SourcePlaying
		if d.PlayOut {
			s.state = sound.SourceStopped
			s.processed = len(s.queue)
		}
	}
	d.record(Call{Op: "Play", Source: src})
}

func (d *Device) Pause(src sound.SourceID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if s, ok := d.sources[src]; ok && s.state == sound.SourcePlaying {
		s.state = sound.SourcePaused
	}
	d.record(Call{Op: "Pause", Source: src})
}

func (d *Device) Stop(src sound.SourceID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if s, ok := d.sources[src]; ok {
		s.state = sound.SourceStopped
		s.processed = len(s.queue)
	}
	d.record(Call{Op: "Stop", Source: src})
}

func (d *Device) State(src sound.SourceID) sound.SourceState {
	d.mu.Lock()
	defer d.mu.Unlock()
	if s, ok := d.sources[src]; ok {
		return s.state
	}
	return sound.SourceInitial
}
