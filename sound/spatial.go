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

import "math"

// positionScale normalizes world units into the range the hardware's
// distance model expects.
const positionScale = 1.0 / 255.0

// panDepth is the z offset used for pan-only positioning, so that a centered
// pan still sits just in front of the listener.
const panDepth = 0.1

// Vector3 is a 3-D vector in world units.
type Vector3 struct {
	X, Y, Z float32
}

func (v Vector3) Add(o Vector3) Vector3 { return Vector3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vector3) Sub(o Vector3) Vector3 { return Vector3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }
func (v Vector3) Scale(s float32) Vector3 {
	return Vector3{v.X * s, v.Y * s, v.Z * s}
}

func (v Vector3) Dot(o Vector3) float32 { return v.X*o.X + v.Y*o.Y + v.Z*o.Z }

func (v Vector3) Cross(o Vector3) Vector3 {
	return Vector3{
		X: v.Y*o.Z - v.Z*o.Y,
		Y: v.Z*o.X - v.X*o.Z,
		Z: v.X*o.Y - v.Y*o.X,
	}
}

func (v Vector3) Length() float32 {
	return float32(math.Sqrt(float64(v.Dot(v))))
}

// Normalize returns v scaled to unit length. The zero vector stays zero.
func (v Vector3) Normalize() Vector3 {
	l := v.Length()
	if l == 0 {
		return Vector3{}
	}
	return v.Scale(1 / l)
}

// Listener is the point of view that emitters are heard from.
type Listener struct {
	Position Vector3
	Forward  Vector3
	Up       Vector3
	Velocity Vector3
}

// DefaultListener sits at the origin looking down -Z with +Y up.
func DefaultListener() Listener {
	return Listener{
		Forward: Vector3{0, 0, -1},
		Up:      Vector3{0, 1, 0},
	}
}

// Emitter is a positioned sound source.
type Emitter struct {
	Position Vector3
	Velocity Vector3
}

// frame is an orthonormal basis built from a listener orientation.
type frame struct {
	right, up, back Vector3
}

func newFrame(forward, up Vector3) frame {
	f := forward.Normalize()
	r := forward.Cross(up).Normalize()
	u := r.Cross(forward).Normalize()
	return frame{right: r, up: u, back: f.Scale(-1)}
}

// local expresses a world-space vector in the frame's coordinates.
func (f frame) local(v Vector3) Vector3 {
	return Vector3{v.Dot(f.right), v.Dot(f.up), v.Dot(f.back)}
}

// spatialize returns the emitter position and velocity relative to the
// listener, scaled for the hardware.
func spatialize(l Listener, e Emitter) (position, velocity Vector3) {
	fr := newFrame(l.Forward, l.Up)
	position = fr.local(e.Position.Sub(l.Position)).Scale(positionScale)
	velocity = fr.local(e.Velocity).Scale(positionScale)
	return position, velocity
}
