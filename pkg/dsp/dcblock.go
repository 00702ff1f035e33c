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
	// dcSets is the number of coefficient sets excluding the bypass row:
	// one per (sampling-rate preset x cutoff preset).
	dcSets  = NumRatePresets * NumCutoffPresets
	dcShift = 30
)

// dcCoefB/dcCoefA hold 2-pole Butterworth high-pass sets in Q30, rows grouped
// by cutoff (0.5, 1, 2, 4, 8 Hz), columns by sampling rate (250..4000 Hz).
// The last row is the bypass identity. a0 is normalized to 1 and omitted.
var dcCoefB = [dcSets + 1][3]int32{
	{1064243069, -2128486138, 1064243069}, // 0.5 Hz cutoff -> 250, 500, 1000, 2000, 4000 Hz
	{1068981896, -2137963793, 1068981896},
	{1071359217, -2142718434, 1071359217},
	{1072549859, -2145099718, 1072549859},
	{1073145676, -2146291352, 1073145676},
	{1054828333, -2109656665, 1054828333}, // 1 Hz
	{1064243069, -2128486138, 1064243069},
	{1068981896, -2137963793, 1068981896},
	{1071359217, -2142718434, 1071359217},
	{1072549859, -2145099718, 1072549859},
	{1036247819, -2072495637, 1036247819}, // 2 Hz
	{1054828333, -2109656665, 1054828333},
	{1064243069, -2128486138, 1064243069},
	{1068981896, -2137963793, 1068981896},
	{1071359217, -2142718434, 1071359217},
	{1000060434, -2000120868, 1000060434}, // 4 Hz
	{1036247819, -2072495637, 1036247819},
	{1054828333, -2109656665, 1054828333},
	{1064243069, -2128486138, 1064243069},
	{1068981896, -2137963793, 1068981896},
	{931398022, -1862796045, 931398022}, // 8 Hz
	{1000060434, -2000120868, 1000060434},
	{1036247819, -2072495637, 1036247819},
	{1054828333, -2109656665, 1054828333},
	{1064243069, -2128486138, 1064243069},
	{1073741824, 0, 0}, // bypass
}

var dcCoefA = [dcSets + 1][2]int32{
	{-2128402107, 1054828346}, // 0.5 Hz cutoff -> 250, 500, 1000, 2000, 4000 Hz
	{-2137942692, 1064243070},
	{-2142713147, 1068981897},
	{-2145098394, 1071359217},
	{-2146291021, 1072549859},
	{-2109323487, 1036248020}, // 1 Hz
	{-2128402107, 1054828346},
	{-2137942692, 1064243070},
	{-2142713147, 1068981897},
	{-2145098394, 1071359217},
	{-2071185984, 1000063466}, // 2 Hz
	{-2109323487, 1036248020},
	{-2128402107, 1054828346},
	{-2137942692, 1064243070},
	{-2142713147, 1068981897},
	{-1995058801, 931441111}, // 4 Hz
	{-2071185984, 1000063466},
	{-2109323487, 1036248020},
	{-2128402107, 1054828346},
	{-2137942692, 1064243070},
	{-1843842168, 808008097}, // 8 Hz
	{-1995058801, 931441111},
	{-2071185984, 1000063466},
	{-2109323487, 1036248020},
	{-2128402107, 1054828346},
	{0, 0}, // bypass
}

// DCBlocker is the second filter stage: a 2-pole Butterworth high-pass that
// removes the electrode DC offset. Per-channel x/y history persists across
// preset changes; switching sets causes a brief transient, not a reset.
type DCBlocker struct {
	x1, x2 [NumChannels]int32
	y1, y2 [NumChannels]int32
}

// Process filters one channel vector in place. ratePreset selects the
// sampling-rate column, cutoffPreset the cutoff row; with enabled false the
// bypass identity set is used and the history keeps updating.
func (f *DCBlocker) Process(v *ChannelVector, ratePreset, cutoffPreset uint32, enabled bool) {
	idx := dcSets
	if enabled {
		idx = int(ratePreset + NumRatePresets*cutoffPreset)
	}
	b := &dcCoefB[idx]
	a := &dcCoefA[idx]

	for ch := 0; ch < NumChannels; ch++ {
		x := v[ch]
		acc := int64(b[0])*int64(x) +
			int64(b[1])*int64(f.x1[ch]) +
			int64(b[2])*int64(f.x2[ch]) -
			int64(a[0])*int64(f.y1[ch]) -
			int64(a[1])*int64(f.y2[ch])
		y := roundShift(acc, dcShift)

		f.x2[ch] = f.x1[ch]
		f.x1[ch] = x
		f.y2[ch] = f.y1[ch]
		f.y1[ch] = y

		v[ch] = y
	}
}
