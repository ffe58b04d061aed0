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
	"math"
)

// PitchRatio converts a pitch in octaves, limited to [-1, 1], to the
// frequency ratio expected by the hardware: 2^pitch. Zero keeps the recorded
// pitch, 1 is an octave up and -1 an octave down.
func PitchRatio(pitch float32) (float32, error) {
	if err := checkPitch(pitch); err != nil {
		return 0, err
	}
	return float32(math.Pow(2, float64(pitch))), nil
}

func checkPitch(pitch float32) error {
	if math.IsNaN(float64(pitch)) || pitch < -1 || pitch > 1 {
		return fmt.Errorf("pitch %v outside [-1, 1]: %w", pitch, ErrInvalidArgument)
	}
	return nil
}
