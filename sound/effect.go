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

// Effect is a loaded sound asset: a payload plus the loop points it was
// authored with. It is immutable and can create any number of instances.
type Effect struct {
	Name    string
	Payload Payload
	Loop    LoopRegion
}

// NewEffect validates p and loop and returns the effect.
func NewEffect(name string, p Payload, loop LoopRegion) (*Effect, error) {
	if _, err := SplitPayload(p, loop); err != nil {
		return nil, fmt.Errorf("sound effect %q: %w", name, err)
	}
	return &Effect{Name: name, Payload: p, Loop: loop}, nil
}

// Duration is the length of one pass through the payload.
func (e *Effect) Duration() time.Duration { return e.Payload.Duration() }

// Segments returns the byte ranges the effect's instances are built from.
func (e *Effect) Segments() []Segment {
	segs, _ := SplitPayload(e.Payload, e.Loop)
	return segs
}

// CreateInstance builds a new stopped instance of the effect on c.
func (e *Effect) CreateInstance(c *Controller) (*Instance, error) {
	inst, err := NewInstance(c, e.Payload, e.Loop)
	if err != nil {
		return nil, fmt.Errorf("sound effect %q: %w", e.Name, err)
	}
	return inst, nil
}
