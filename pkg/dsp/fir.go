/*
 Licensed under the Apache License, Version 2.0 (the "License");
 you may not use this file except in compliance with the License.
 You may obtain a copy of the License at

     https://www.apache.org/licenses/LICENSE-2.0

 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

package dsp

const (
	firTaps  = 7
	firShift = 30
)

// firCoef holds the 7-tap symmetric FIR that flattens the sinc³ droop of the
// delta-sigma decimation filter. Row 0 is the bypass set (identity: center
// tap is one in Q30), row 1 the active set. Coefficients are Q30 fixed point.
var firCoef = [2][firTaps]int32{
	{0, 0, 0, 1073741824, 0, 0, 0},
	{-9944796, 67993610, -382646929, 1722938053, -382646929, 67993610, -9944796},
}

// Equalizer is the first filter stage. It keeps a per-channel circular delay
// line that is mutated on every call and never reset; disabling the stage
// only swaps in the bypass coefficients, so the line drains within a few
// samples instead of snapping.
type Equalizer struct {
	hist [NumChannels][firTaps]int32
	idx  int
}

// Process filters one channel vector in place.
func (f *Equalizer) Process(v *ChannelVector, enabled bool) {
	row := 0
	if enabled {
		row = 1
	}
	coef := &firCoef[row]

	for ch := 0; ch < NumChannels; ch++ {
		f.hist[ch][f.idx] = v[ch]
	}

	for ch := 0; ch < NumChannels; ch++ {
		var acc int64
		tap := f.idx
		for k := 0; k < firTaps; k++ {
			acc += int64(coef[k]) * int64(f.hist[ch][tap])
			if tap == 0 {
				tap = firTaps - 1
			} else {
				tap--
			}
		}
		v[ch] = roundShift(acc, firShift)
	}

	f.idx++
	if f.idx == firTaps {
		f.idx = 0
	}
}
