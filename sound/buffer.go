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
	"slices"
	"sync"
	"sync/atomic"
)

// BufferListener is notified when the voice bound to a buffer changes hands.
// Notifications are delivered synchronously by the controller, outside its
// lock, once per transition.
type BufferListener interface {
	// Reserved is called after a voice has been bound to the buffer.
	Reserved(b *Buffer)
	// Recycled is called after the buffer's voice has been reclaimed.
	Recycled(b *Buffer)
}

// Buffer is one hardware buffer of a chain. The head buffer of a chain is the
// one a voice is reserved against.
type Buffer struct {
	id     BufferID
	format Format
	rate   int
	size   int

	// written under the owning controller's mutex
	source   atomic.Uint32
	released bool

	mu        sync.Mutex
	listeners []BufferListener
}

func (b *Buffer) ID() BufferID    { return b.id }
func (b *Buffer) Format() Format  { return b.format }
func (b *Buffer) SampleRate() int { return b.rate }
func (b *Buffer) Len() int        { return b.size }

// Source reports the voice currently bound to the buffer.
func (b *Buffer) Source() (SourceID, bool) {
	src := SourceID(b.source.Load())
	return src, src != 0
}

// Register adds l to the buffer's listeners. Registering twice is a no-op.
func (b *Buffer) Register(l BufferListener) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if slices.Contains(b.listeners, l) {
		return
	}
	b.listeners = append(b.listeners, l)
}

// Unregister removes l from the buffer's listeners.
func (b *Buffer) Unregister(l BufferListener) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners = slices.DeleteFunc(b.listeners, func(x BufferListener) bool { return x == l })
}

func (b *Buffer) snapshot() []BufferListener {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.listeners)
}

func (b *Buffer) notifyReserved() {
	for _, l := range b.snapshot() {
		l.Reserved(b)
	}
}

func (b *Buffer) notifyRecycled() {
	for _, l := range b.snapshot() {
		l.Recycled(b)
	}
}
