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
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// DefaultSources is the voice count used when WithSources is not given.
const DefaultSources = 32

type options struct {
	sources int
	master  float32
}

// Option configures a Controller.
type Option func(*options)

// WithSources sets the number of hardware voices the controller allocates.
func WithSources(n int) Option {
	return func(o *options) { o.sources = n }
}

// WithMasterVolume sets the initial master volume.
func WithMasterVolume(v float32) Option {
	return func(o *options) { o.master = v }
}

type voice struct {
	id      SourceID
	buffer  *Buffer // head buffer of the owning chain, nil when free
	started bool
}

// Controller owns a fixed set of hardware voices shared by every instance,
// the master volume, and the set of looping instances that need servicing.
type Controller struct {
	mu  sync.Mutex
	dev Device

	voices map[SourceID]*voice
	order  []SourceID
	free   []SourceID

	looping []*Instance
	master  float32

	model    DistanceModel
	modelSet bool
	closed   bool
}

// NewController allocates the voices on dev.
func NewController(dev Device, opts ...Option) (*Controller, error) {
	o := options{sources: DefaultSources, master: 1}
	for _, opt := range opts {
		opt(&o)
	}
	if o.sources <= 0 {
		return nil, fmt.Errorf("source count %d: %w", o.sources, ErrInvalidArgument)
	}
	if err := checkUnit(o.master, "master volume"); err != nil {
		return nil, err
	}

	c := &Controller{
		dev:    dev,
		voices: make(map[SourceID]*voice, o.sources),
		master: o.master,
	}
	for i := 0; i < o.sources; i++ {
		id, err := dev.GenSource()
		if err != nil {
			for _, id := range c.order {
				dev.DeleteSource(id)
			}
			return nil, fmt.Errorf("failed to allocate source %d of %d: %w", i+1, o.sources, err)
		}
		c.voices[id] = &voice{id: id}
		c.order = append(c.order, id)
	}
	// free is a stack; the first allocated voice is handed out first
	c.free = slices.Clone(c.order)
	slices.Reverse(c.free)

	log.Debug("Sound controller ready", "sources", o.sources, "masterVolume", o.master)
	return c, nil
}

// Sources is the total number of voices.
func (c *Controller) Sources() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.order)
}

// Free is the number of voices not bound to any buffer.
func (c *Controller) Free() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.free)
}

// MasterVolume is the gain multiplier applied to every instance.
func (c *Controller) MasterVolume() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.master
}

// SetMasterVolume changes the master volume. Instances pick the new value up
// the next time their state is applied.
func (c *Controller) SetMasterVolume(v float32) error {
	if err := checkUnit(v, "master volume"); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.master = v
	return nil
}

// ReserveSource binds a free voice to head. It reports false when every
// voice is in use or the controller is closed; callers are expected to skip
// playback and may retry later.
func (c *Controller) ReserveSource(head *Buffer) bool {
	c.mu.Lock()
	if head.source.Load() != 0 {
		c.mu.Unlock()
		return true
	}
	if c.closed || head.released || len(c.free) == 0 {
		free := len(c.free)
		c.mu.Unlock()
		log.Debug("No source available", "buffer", head.id, "free", free)
		return false
	}
	id := c.free[len(c.free)-1]
	c.free = c.free[:len(c.free)-1]
	v := c.voices[id]
	v.buffer = head
	v.started = false
	head.source.Store(uint32(id))
	c.mu.Unlock()

	log.Debug("Source reserved", "source", id, "buffer", head.id)
	head.notifyReserved()
	return true
}

// PlaySound starts the voice bound to head.
func (c *Controller) PlaySound(head *Buffer) {
	c.withSource(head, c.playLocked)
}

// playLocked starts src and marks it eligible for recycling. The controller
// lock must be held.
func (c *Controller) playLocked(src SourceID) {
	c.dev.Play(src)
	c.voices[src].started = true
}

// PauseSound pauses the voice bound to head.
func (c *Controller) PauseSound(head *Buffer) bool {
	return c.withSource(head, func(src SourceID) {
		c.dev.Pause(src)
	})
}

// ResumeSound continues a paused voice bound to head.
func (c *Controller) ResumeSound(head *Buffer) bool {
	return c.withSource(head, func(src SourceID) {
		c.dev.Play(src)
	})
}

// StopSound stops the voice bound to head and returns it to the pool.
func (c *Controller) StopSound(head *Buffer) {
	c.mu.Lock()
	if head.source.Load() == 0 {
		c.mu.Unlock()
		return
	}
	v := c.voices[SourceID(head.source.Load())]
	c.dev.Stop(v.id)
	c.recycleLocked(v)
	c.mu.Unlock()

	log.Debug("Source stopped", "source", v.id, "buffer", head.id)
	head.notifyRecycled()
}

// Update is one service pass: voices that played out are recycled, then
// every looping instance gets a chance to arm its loop body. Call it once per
// frame, or use Run.
func (c *Controller) Update() {
	c.mu.Lock()
	var recycled []*Buffer
	for _, id := range c.order {
		v := c.voices[id]
		if v.buffer == nil || !v.started {
			continue
		}
		if c.dev.State(id) == SourceStopped {
			recycled = append(recycled, c.recycleLocked(v))
		}
	}
	looping := slices.Clone(c.looping)
	c.mu.Unlock()

	for _, b := range recycled {
		log.Debug("Source finished", "buffer", b.id)
		b.notifyRecycled()
	}
	for _, inst := range looping {
		inst.checkLoop()
	}
}

// Run calls Update every interval until ctx is done.
func (c *Controller) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("service interval %s: %w", interval, ErrInvalidArgument)
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			c.Update()
		}
	}
}

// Looping is the number of instances currently registered for loop
// servicing.
func (c *Controller) Looping() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.looping)
}

// Close stops every voice, releases them and forgets all looping instances.
// Buffers stay owned by their instances. Close is idempotent.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	var recycled []*Buffer
	for _, id := range c.order {
		v := c.voices[id]
		if v.buffer != nil {
			c.dev.Stop(id)
			recycled = append(recycled, c.recycleLocked(v))
		}
	}
	for _, id := range c.order {
		c.dev.DeleteSource(id)
	}
	c.free = nil
	c.looping = nil
	c.mu.Unlock()

	for _, b := range recycled {
		b.notifyRecycled()
	}
	log.Info("Sound controller shutdown completed")
}

// withSource runs fn under the controller lock if head is bound to a voice.
func (c *Controller) withSource(head *Buffer, fn func(src SourceID)) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	src := SourceID(head.source.Load())
	if src == 0 {
		return false
	}
	fn(src)
	return true
}

// recycleLocked detaches v from its buffers and puts it back on the free
// stack. It returns the head buffer so the caller can notify after unlocking.
func (c *Controller) recycleLocked(v *voice) *Buffer {
	b := v.buffer
	c.dev.SetBuffer(v.id, 0)
	c.dev.SetLooping(v.id, false)
	b.source.Store(0)
	v.buffer = nil
	v.started = false
	if !c.closed {
		c.free = append(c.free, v.id)
	}
	return b
}

// distanceModelLocked pushes m to the device once.
func (c *Controller) distanceModelLocked(m DistanceModel) {
	if c.modelSet && c.model == m {
		return
	}
	c.dev.SetDistanceModel(m)
	c.model = m
	c.modelSet = true
}

func (c *Controller) addLooping(inst *Instance) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || slices.Contains(c.looping, inst) {
		return
	}
	c.looping = append(c.looping, inst)
}

func (c *Controller) removeLooping(inst *Instance) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.looping = slices.DeleteFunc(c.looping, func(x *Instance) bool { return x == inst })
}

func (c *Controller) isLooping(inst *Instance) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Contains(c.looping, inst)
}

// newChain allocates and fills one hardware buffer per segment of p.
func (c *Controller) newChain(p Payload, loop LoopRegion) ([]*Buffer, error) {
	segs, err := SplitPayload(p, loop)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrControllerClosed
	}
	chain := make([]*Buffer, 0, len(segs))
	for _, s := range segs {
		id, err := c.dev.GenBuffer()
		if err != nil {
			c.deleteBuffersLocked(chain)
			return nil, fmt.Errorf("failed to allocate buffer: %w", err)
		}
		b := &Buffer{id: id, format: p.Format(), rate: p.SampleRate, size: s.Length}
		chain = append(chain, b)
		if err := c.dev.BufferData(id, p.Format(), p.Data[s.Offset:s.End()], p.SampleRate); err != nil {
			c.deleteBuffersLocked(chain)
			return nil, fmt.Errorf("failed to bind buffer data: %w", err)
		}
	}
	return chain, nil
}

// releaseBuffers deletes the hardware buffers of a chain. A buffer still
// bound to a voice gives the voice back first. Released buffers are skipped.
func (c *Controller) releaseBuffers(chain []*Buffer) {
	c.mu.Lock()
	var recycled []*Buffer
	for _, b := range chain {
		if b.released {
			continue
		}
		if src := SourceID(b.source.Load()); src != 0 {
			v := c.voices[src]
			c.dev.Stop(v.id)
			recycled = append(recycled, c.recycleLocked(v))
		}
	}
	c.deleteBuffersLocked(chain)
	c.mu.Unlock()

	for _, b := range recycled {
		b.notifyRecycled()
	}
}

func (c *Controller) deleteBuffersLocked(chain []*Buffer) {
	for _, b := range chain {
		if b.released {
			continue
		}
		c.dev.DeleteBuffer(b.id)
		b.released = true
	}
}

func checkUnit(v float32, what string) error {
	if !(v >= 0 && v <= 1) {
		return fmt.Errorf("%s %v outside [0, 1]: %w", what, v, ErrInvalidArgument)
	}
	return nil
}
