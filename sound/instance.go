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
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
)

// State is the playback state of an Instance.
type State int32

const (
	Stopped State = iota
	Playing
	Paused
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	default:
		return "unknown"
	}
}

// Instance is one playable copy of a payload. It holds a voice only while it
// is playing or paused.
//
// The methods of an Instance are safe to call from several goroutines; they
// are serialized against each other and against the controller's service
// pass.
type Instance struct {
	mu    sync.Mutex
	ctrl  *Controller
	chain []*Buffer

	state atomic.Int32
	voice atomic.Uint32

	volume float32
	pan    float32
	pitch  float32
	looped bool

	position   Vector3
	velocity   Vector3
	positional bool

	introDequeued bool
	disposed      bool

	listener voiceListener
}

// NewInstance splits p around loop and binds the pieces to hardware buffers
// owned by the new instance.
func NewInstance(c *Controller, p Payload, loop LoopRegion) (*Instance, error) {
	chain, err := c.newChain(p, loop)
	if err != nil {
		return nil, fmt.Errorf("failed to build buffer chain: %w", err)
	}
	inst := &Instance{
		ctrl:   c,
		chain:  chain,
		volume: 1,
	}
	inst.listener = voiceListener{inst}
	for _, b := range chain {
		b.Register(inst.listener)
	}
	log.Debug("Sound instance created", "buffers", len(chain), "frames", p.Frames(), "loopStart", loop.Start, "loopEnd", loop.End)
	return inst, nil
}

// voiceListener follows the voice bound to an instance's head buffer. It is
// kept off Instance so only the controller can deliver these notifications.
type voiceListener struct{ i *Instance }

// Reserved records the voice bound to the head buffer.
func (l voiceListener) Reserved(b *Buffer) {
	if src, ok := b.Source(); ok {
		l.i.voice.Store(uint32(src))
	}
}

// Recycled forgets the voice and reports the instance as stopped.
func (l voiceListener) Recycled(b *Buffer) {
	if _, ok := b.Source(); ok {
		// bound again before this notification arrived
		return
	}
	l.i.voice.Store(0)
	l.i.state.Store(int32(Stopped))
}

// State reports the current playback state.
func (i *Instance) State() State { return State(i.state.Load()) }

// Voice reports the hardware voice currently held, if any.
func (i *Instance) Voice() (SourceID, bool) {
	src := SourceID(i.voice.Load())
	return src, src != 0
}

// Buffers is the length of the buffer chain.
func (i *Instance) Buffers() int { return len(i.chain) }

// Head is the first buffer of the chain, the one voices are reserved against.
func (i *Instance) Head() *Buffer { return i.chain[0] }

func (i *Instance) IsDisposed() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.disposed
}

func (i *Instance) Volume() float32 {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.volume
}

func (i *Instance) Pan() float32 {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.pan
}

func (i *Instance) Pitch() float32 {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.pitch
}

func (i *Instance) IsLooped() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.looped
}

// Play reserves a voice, queues the buffer chain, applies the cached state
// and starts playback. It does nothing if a voice is already held. When the
// pool has no free voice it returns ErrSourceUnavailable and the instance
// stays stopped.
//
// A looped instance never queues its outro buffer, so turning looping on or
// off during playback does not bring the outro back.
func (i *Instance) Play() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.disposed {
		return ErrDisposed
	}
	head := i.chain[0]
	if _, ok := head.Source(); ok {
		return nil
	}
	if !i.ctrl.ReserveSource(head) {
		return ErrSourceUnavailable
	}

	bound := i.ctrl.withSource(head, func(src SourceID) {
		if len(i.chain) > 1 {
			ids := make([]BufferID, 0, len(i.chain))
			for n, b := range i.chain {
				if i.looped && n == 2 {
					break
				}
				ids = append(ids, b.id)
			}
			i.ctrl.dev.QueueBuffers(src, ids...)
			i.introDequeued = false
		} else {
			i.ctrl.dev.SetBuffer(src, head.id)
		}
		i.applyStateLocked(src)
		// a voice that plays out at once is only recycled after this
		i.ctrl.playLocked(src)
		i.state.Store(int32(Playing))
	})
	if !bound {
		return ErrSourceUnavailable
	}
	return nil
}

// Pause pauses a playing instance. It does nothing in any other state.
func (i *Instance) Pause() {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.disposed || i.State() != Playing {
		return
	}
	if i.ctrl.PauseSound(i.chain[0]) {
		i.state.CompareAndSwap(int32(Playing), int32(Paused))
	}
}

// Resume continues a paused instance. It only reverses Pause: an instance
// that was never played stays stopped.
func (i *Instance) Resume() {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.disposed || i.State() != Paused {
		return
	}
	if i.ctrl.ResumeSound(i.chain[0]) {
		i.state.CompareAndSwap(int32(Paused), int32(Playing))
	}
}

// Stop halts playback and gives the voice back to the pool. The instance is
// stopped afterwards whatever state it was in.
func (i *Instance) Stop() {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.disposed {
		return
	}
	i.stopLocked()
}

func (i *Instance) stopLocked() {
	i.ctrl.StopSound(i.chain[0])
	i.state.Store(int32(Stopped))
}

// Dispose stops the instance, releases its hardware buffers and removes it
// from loop servicing. Calling it again does nothing.
func (i *Instance) Dispose() {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.disposed {
		return
	}
	i.stopLocked()
	for _, b := range i.chain {
		b.Unregister(i.listener)
	}
	i.ctrl.releaseBuffers(i.chain)
	i.ctrl.removeLooping(i)
	i.disposed = true
	log.Debug("Sound instance disposed", "buffers", len(i.chain))
}

// SetVolume sets the instance gain in [0, 1]. The effective gain is scaled
// by the controller's master volume.
func (i *Instance) SetVolume(v float32) error {
	if err := checkUnit(v, "volume"); err != nil {
		return err
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.disposed {
		return ErrDisposed
	}
	i.volume = v
	i.ctrl.withSource(i.chain[0], func(src SourceID) {
		i.ctrl.dev.SetSourcef(src, ParamGain, v*i.ctrl.master)
	})
	return nil
}

// SetPan places the instance between left (-1) and right (1).
func (i *Instance) SetPan(p float32) error {
	if !(p >= -1 && p <= 1) {
		return fmt.Errorf("pan %v outside [-1, 1]: %w", p, ErrInvalidArgument)
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.disposed {
		return ErrDisposed
	}
	i.pan = p
	i.ctrl.withSource(i.chain[0], func(src SourceID) {
		i.ctrl.dev.SetSource3f(src, ParamPosition, Vector3{p, 0, panDepth})
	})
	return nil
}

// SetPitch sets the pitch in octaves, limited to [-1, 1].
func (i *Instance) SetPitch(p float32) error {
	ratio, err := PitchRatio(p)
	if err != nil {
		return err
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.disposed {
		return ErrDisposed
	}
	i.pitch = p
	i.ctrl.withSource(i.chain[0], func(src SourceID) {
		i.ctrl.dev.SetSourcef(src, ParamPitch, ratio)
	})
	return nil
}

// SetLooped turns looping on or off. A single-buffer instance loops in
// hardware; a chained one is serviced by the controller, which arms looping
// on the loop body once the intro has played.
func (i *Instance) SetLooped(looped bool) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.disposed {
		return ErrDisposed
	}
	i.looped = looped
	if looped && len(i.chain) > 1 {
		i.ctrl.addLooping(i)
	} else {
		i.ctrl.removeLooping(i)
	}
	i.ctrl.withSource(i.chain[0], func(src SourceID) {
		i.ctrl.dev.SetLooping(src, looped && len(i.chain) == 1)
	})
	return nil
}

// Apply3D stages the emitter's position and velocity relative to listener.
// The values are pushed the next time the instance's state is applied and
// take priority over the pan.
func (i *Instance) Apply3D(listener Listener, emitter Emitter) {
	i.Apply3DMulti([]Listener{listener}, emitter)
}

// Apply3DMulti is Apply3D for several listeners. Only one position can be
// heard, so the last listener wins.
func (i *Instance) Apply3DMulti(listeners []Listener, emitter Emitter) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.disposed || len(listeners) == 0 {
		return
	}
	for _, l := range listeners {
		i.position, i.velocity = spatialize(l, emitter)
	}
	i.positional = true
}

// checkLoop is called by the controller's service pass. Once the intro
// buffer has been processed it is unqueued and hardware looping is armed on
// what remains, once per Play.
func (i *Instance) checkLoop() {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.disposed || !i.looped || i.introDequeued || len(i.chain) < 2 {
		return
	}
	i.ctrl.withSource(i.chain[0], func(src SourceID) {
		dev := i.ctrl.dev
		if dev.BuffersProcessed(src) == 0 {
			return
		}
		dev.UnqueueBuffers(src, 1)
		dev.SetLooping(src, true)
		i.introDequeued = true
		log.Debug("Loop armed", "source", src)
	})
}

// applyStateLocked pushes the cached state to src. The controller lock must
// be held.
func (i *Instance) applyStateLocked(src SourceID) {
	dev := i.ctrl.dev
	i.ctrl.distanceModelLocked(InverseDistanceClamped)
	if i.positional {
		i.positional = false
		dev.SetSource3f(src, ParamPosition, i.position)
		dev.SetSource3f(src, ParamVelocity, i.velocity)
	} else {
		dev.SetSource3f(src, ParamPosition, Vector3{i.pan, 0, panDepth})
	}
	dev.SetSourcef(src, ParamGain, i.volume*i.ctrl.master)
	if len(i.chain) == 1 {
		dev.SetLooping(src, i.looped)
	}
	// the cached pitch was validated by SetPitch
	ratio, _ := PitchRatio(i.pitch)
	dev.SetSourcef(src, ParamPitch, ratio)
}
