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
	// notchStages cascaded biquads make a 4th-order notch.
	notchStages = 2

	// notchSets is the number of coefficient sets excluding the bypass row:
	// one per (sampling-rate preset x region).
	notchSets = NumRatePresets * NumRegions
)

// Mains notch, f0 = 50/60 Hz, Q = 35. Rows grouped by region (50 then 60 Hz),
// columns by sampling rate (250..4000 Hz); last row is the bypass identity.
var notchMainsB = [notchSets + 1][3]int32{
	{2109607985, -1303809438, 2109607985}, // 50 Hz mains -> 250, 500, 1000, 2000, 4000 Hz
	{1064189426, -1721894661, 1064189426},
	{1068944381, -2033253038, 1068944381},
	{1071337744, -2116295597, 1071337744},
	{1072538438, -2138464320, 1072538438},
	{2102190518, -263995270, 2102190518}, // 60 Hz mains -> 250, 500, 1000, 2000, 4000 Hz
	{1062299171, -1548765538, 1062299171},
	{1067990015, -1985984006, 1067990015},
	{1070858217, -2103780747, 1070858217},
	{1072298084, -2135078375, 1072298084},
	{1073741824, 0, 0}, // bypass
}

var notchMainsA = [notchSets + 1][2]int32{
	{-1303809438, 2071732322}, // 50 Hz mains -> 250, 500, 1000, 2000, 4000 Hz
	{-1721894661, 1054637027},
	{-2033253038, 1064146937},
	{-2116295597, 1068933663},
	{-2138464320, 1071335052},
	{-263995270, 2056897388}, // 60 Hz mains -> 250, 500, 1000, 2000, 4000 Hz
	{-1548765538, 1050856519},
	{-1985984006, 1062238206},
	{-2103780747, 1067974610},
	{-2135078375, 1070854345},
	{0, 0}, // bypass
}

// The coefficient quantizer lands on shift 31 for the 250 Hz mains sets and
// shift 30 everywhere else; the bypass row is always Q30.
var notchMainsShift = [2][NumRatePresets]uint32{
	{30, 30, 30, 30, 30},
	{31, 30, 30, 30, 30},
}

// First-harmonic notch, f0 = 100/120 Hz, Q = 35, same layout.
var notchHarmonicB = [notchSets + 1][3]int32{
	{1036511020, 1677110060, 1036511020}, // 100 Hz -> 250, 500, 1000, 2000, 4000 Hz
	{2109607985, -1303809438, 2109607985},
	{1064189426, -1721894661, 1064189426},
	{1068944381, -2033253038, 1068944381},
	{1071337744, -2116295597, 1071337744},
	{1029364502, 2042495310, 1029364502}, // 120 Hz -> 250, 500, 1000, 2000, 4000 Hz
	{2102190518, -263995270, 2102190518},
	{1062299171, -1548765538, 1062299171},
	{1067990015, -1985984006, 1067990015},
	{1070858217, -2103780747, 1070858217},
	{1073741824, 0, 0}, // bypass
}

var notchHarmonicA = [notchSets + 1][2]int32{
	{1677110060, 999280216}, // 100 Hz -> 250, 500, 1000, 2000, 4000 Hz
	{-1303809438, 2071732322},
	{-1721894661, 1054637027},
	{-2033253038, 1064146937},
	{-2116295597, 1068933663},
	{2042495310, 984987179}, // 120 Hz -> 250, 500, 1000, 2000, 4000 Hz
	{-263995270, 2056897388},
	{-1548765538, 1050856519},
	{-1985984006, 1062238206},
	{-2103780747, 1067974610},
	{0, 0}, // bypass
}

var notchHarmonicShift = [2][NumRatePresets]uint32{
	{30, 30, 30, 30, 30},
	{30, 31, 30, 30, 30},
}

// Notch is a 4th-order notch built from two cascaded biquads sharing one
// coefficient set. Biquad state is per channel and per stage and persists
// for the life of the process.
type Notch struct {
	b     *[notchSets + 1][3]int32
	a     *[notchSets + 1][2]int32
	shift *[2][NumRatePresets]uint32
	state [NumChannels][notchStages][4]int32
}

// NewNotchMains returns the 50/60 Hz mains-frequency notch stage.
func NewNotchMains() *Notch {
	return &Notch{b: &notchMainsB, a: &notchMainsA, shift: &notchMainsShift}
}

// NewNotchHarmonic returns the 100/120 Hz first-harmonic notch stage.
func NewNotchHarmonic() *Notch {
	return &Notch{b: &notchHarmonicB, a: &notchHarmonicA, shift: &notchHarmonicShift}
}

// Process filters one channel vector in place through both biquad stages.
func (f *Notch) Process(v *ChannelVector, ratePreset, region uint32, enabled bool) {
	idx := notchSets
	on := 0
	if enabled {
		idx = int(ratePreset + NumRatePresets*region)
		on = 1
	}
	b := &f.b[idx]
	a := &f.a[idx]
	shift := f.shift[on][ratePreset]

	for ch := 0; ch < NumChannels; ch++ {
		x := v[ch]
		for stage := 0; stage < notchStages; stage++ {
			st := &f.state[ch][stage]
			acc := int64(b[0])*int64(x) +
				int64(b[1])*int64(st[0]) +
				int64(b[2])*int64(st[1]) -
				int64(a[0])*int64(st[2]) -
				int64(a[1])*int64(st[3])
			y := roundShift(acc, shift)

			st[1] = st[0]
			st[0] = x
			st[3] = st[2]
			st[2] = y

			x = y
		}
		v[ch] = x
	}
}
