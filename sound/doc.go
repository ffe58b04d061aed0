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

// Package sound implements a sound-instance playback engine on top of a small,
// fixed pool of hardware voices.
//
// A Controller owns the voices and the master volume. Each Instance splits
// its PCM payload into one to three hardware buffers (intro, loop body,
// outro) and asks the controller for a voice only when it is played:
//
//	ctrl, _ := sound.NewController(dev, sound.WithSources(16))
//	inst, _ := sound.NewInstance(ctrl, payload, sound.LoopRegion{Start: 4410, End: 88200})
//	inst.SetLooped(true)
//	if err := inst.Play(); errors.Is(err, sound.ErrSourceUnavailable) {
//		// every voice is busy; try again later
//	}
//
// Looping across several buffers is not left to the hardware. The controller
// has to be serviced periodically, either by calling Update once per frame or
// by running Run in its own goroutine; each pass unqueues the intro buffer of
// looping instances once it has been consumed and arms hardware looping on
// the loop body.
//
// The hardware itself is reached through the Device interface. The
// internal/beepdev package provides a software implementation.
package sound
