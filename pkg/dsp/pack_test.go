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

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func put24(buf []byte, ch int, v int32) {
	buf[3*ch] = byte(v >> 16)
	buf[3*ch+1] = byte(v >> 8)
	buf[3*ch+2] = byte(v)
}

func TestStripPreambles(t *testing.T) {
	raw := make([]byte, RawFrameSize)
	for i := range raw {
		raw[i] = byte(i)
	}
	parsed := make([]byte, ParsedFrameSize)
	StripPreambles(raw, parsed)

	require.Equal(t, raw[3:27], parsed[:24])
	require.Equal(t, raw[30:54], parsed[24:])
}

func TestUnpackSignExtension(t *testing.T) {
	parsed := make([]byte, ParsedFrameSize)
	put24(parsed, 0, 1)
	put24(parsed, 1, -1)
	put24(parsed, 2, SampleMax)
	put24(parsed, 3, -0x800000)

	var v ChannelVector
	Unpack(parsed, &v, 0)

	require.Equal(t, int32(1<<8), v[0])
	require.Equal(t, int32(-1<<8), v[1])
	require.Equal(t, int32(SampleMax<<8), v[2])
	require.Equal(t, int32(-0x800000<<8), v[3])
}

func TestUnpackDigitalGain(t *testing.T) {
	parsed := make([]byte, ParsedFrameSize)
	put24(parsed, 0, 100)
	put24(parsed, 1, -100)

	var v ChannelVector
	Unpack(parsed, &v, 3) // gain 8

	require.Equal(t, int32(100<<11), v[0])
	require.Equal(t, int32(-100<<11), v[1])
}

func TestPackRoundTrip(t *testing.T) {
	parsed := make([]byte, ParsedFrameSize)
	for ch := 0; ch < NumChannels; ch++ {
		put24(parsed, ch, int32(ch*1000-8000))
	}

	var v ChannelVector
	Unpack(parsed, &v, 0)

	out := make([]byte, ParsedFrameSize)
	Pack(&v, out)
	require.Equal(t, parsed, out)
}

func TestPackSaturates(t *testing.T) {
	var v ChannelVector
	// the full int32 range shifts down to exactly one code beyond the
	// symmetric 24-bit bound on the negative side
	v[0] = math.MaxInt32
	v[1] = math.MinInt32
	v[2] = SampleMax << headroomShift
	v[3] = SampleMin << headroomShift
	v[4] = (SampleMax - 1) << headroomShift
	v[5] = (SampleMin + 1) << headroomShift

	out := make([]byte, ParsedFrameSize)
	Pack(&v, out)

	var back ChannelVector
	Unpack(out, &back, 0)
	require.Equal(t, int32(SampleMax<<headroomShift), back[0])
	require.Equal(t, int32(SampleMin<<headroomShift), back[1])
	require.Equal(t, int32(SampleMax<<headroomShift), back[2])
	require.Equal(t, int32(SampleMin<<headroomShift), back[3])
	require.Equal(t, int32((SampleMax-1)<<headroomShift), back[4])
	require.Equal(t, int32((SampleMin+1)<<headroomShift), back[5])
}

func TestRoundShiftTiesAwayFromZero(t *testing.T) {
	require.Equal(t, int32(1), roundShift(1<<29, 30))
	require.Equal(t, int32(-1), roundShift(-(1<<29), 30))
	require.Equal(t, int32(0), roundShift(1<<29-1, 30))
	require.Equal(t, int32(0), roundShift(-(1<<29)+1, 30))
	require.Equal(t, int32(2), roundShift(3<<29, 30))
	require.Equal(t, int32(-2), roundShift(-(3<<29), 30))
}
