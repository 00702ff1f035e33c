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
	// NumChannels is the number of analog channels acquired per sample,
	// eight per converter with two converters daisy-chained.
	NumChannels = 16

	// RawFrameSize is one raw bus frame for both converters: each contributes
	// a 3-byte preamble plus 8 channels of 24-bit samples.
	RawFrameSize = 54

	// PreambleSize is the fixed per-converter status preamble stripped
	// before the samples are used.
	PreambleSize = 3

	// ParsedFrameSize is the channel payload left after both preambles are
	// stripped: 16 channels of 3 bytes each.
	ParsedFrameSize = NumChannels * 3

	NumRatePresets   = 5
	NumCutoffPresets = 5
	NumRegions       = 2
)

// ChannelVector holds one sampling instant, one signed 32-bit value per channel.
type ChannelVector [NumChannels]int32

var sampleRates = [NumRatePresets]int{250, 500, 1000, 2000, 4000}

var cutoffFreqs = [NumCutoffPresets]float64{0.5, 1, 2, 4, 8}

// RatePreset maps a sampling rate in Hz to its preset index.
func RatePreset(hz int) (uint32, bool) {
	for i, r := range sampleRates {
		if r == hz {
			return uint32(i), true
		}
	}
	return 0, false
}

// RateHz returns the sampling rate in Hz for a preset index.
func RateHz(preset uint32) int {
	if preset >= NumRatePresets {
		return 0
	}
	return sampleRates[preset]
}

// CutoffPreset maps a DC-blocker cutoff frequency in Hz to its preset index.
func CutoffPreset(hz float64) (uint32, bool) {
	for i, c := range cutoffFreqs {
		if c == hz {
			return uint32(i), true
		}
	}
	return 0, false
}

// CutoffHz returns the DC-blocker cutoff in Hz for a preset index.
func CutoffHz(preset uint32) float64 {
	if preset >= NumCutoffPresets {
		return 0
	}
	return cutoffFreqs[preset]
}

// RegionPreset maps a mains frequency (50 or 60 Hz) to its region index.
func RegionPreset(hz int) (uint32, bool) {
	switch hz {
	case 50:
		return 0, true
	case 60:
		return 1, true
	}
	return 0, false
}

// GainShift maps a power-of-two digital gain (1..256) to its bit-shift amount.
func GainShift(gain int) (uint32, bool) {
	if gain < 1 || gain > 256 || gain&(gain-1) != 0 {
		return 0, false
	}
	var shift uint32
	for g := gain; g > 1; g >>= 1 {
		shift++
	}
	return shift, true
}
