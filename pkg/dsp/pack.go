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
	// SampleMax is the saturation bound when repacking to 24 bits.
	SampleMax = 1<<23 - 1
	SampleMin = -(1<<23 - 1)

	// headroomShift expands a 24-bit sample into the full 32-bit range so the
	// fixed-point filters keep enough precision at high sampling rates.
	headroomShift = 8
)

// StripPreambles copies the 48 bytes of channel data out of a raw 54-byte
// bus frame, skipping the 3-byte status preamble each converter prepends to
// its 8-channel block.
func StripPreambles(raw, parsed []byte) {
	_ = raw[RawFrameSize-1]
	_ = parsed[ParsedFrameSize-1]
	copy(parsed[0:24], raw[PreambleSize:PreambleSize+24])
	copy(parsed[24:48], raw[2*PreambleSize+24:2*PreambleSize+48])
}

// Unpack converts 16 big-endian 24-bit two's-complement samples into signed
// 32-bit words, left-shifted by 8 bits for filter headroom plus the runtime
// power-of-two digital gain.
func Unpack(parsed []byte, out *ChannelVector, gainShift uint32) {
	_ = parsed[ParsedFrameSize-1]
	for ch := 0; ch < NumChannels; ch++ {
		raw := uint32(parsed[3*ch])<<16 | uint32(parsed[3*ch+1])<<8 | uint32(parsed[3*ch+2])
		if raw&0x800000 != 0 {
			raw |= 0xFF000000
		}
		out[ch] = int32(raw) << (headroomShift + gainShift)
	}
}

// Pack converts 16 signed 32-bit filtered samples back to big-endian 24-bit
// wire format, undoing the headroom shift and saturating at the 24-bit
// boundary instead of wrapping.
func Pack(in *ChannelVector, out []byte) {
	_ = out[ParsedFrameSize-1]
	for ch := 0; ch < NumChannels; ch++ {
		val := in[ch] >> headroomShift
		if val > SampleMax {
			val = SampleMax
		}
		if val < SampleMin {
			val = SampleMin
		}
		out[3*ch] = byte(val >> 16)
		out[3*ch+1] = byte(val >> 8)
		out[3*ch+2] = byte(val)
	}
}
