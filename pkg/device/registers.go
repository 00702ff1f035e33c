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

package device

// converter register addresses
const (
	RegID      = 0x00
	RegConfig1 = 0x01
	RegConfig2 = 0x02
	RegConfig3 = 0x03
	RegLoff    = 0x04
	RegCh1Set  = 0x05
	RegBiasP   = 0x0D
	RegBiasN   = 0x0E
	RegMisc1   = 0x15
	RegConfig4 = 0x17
)

// values the reset sequence writes
const (
	Config3Boot = 0xE0

	// Config1 differs between the two converters: the first one drives the
	// chain clock, the second one consumes it.
	Config1FirstBase  = 0xB0
	Config1SecondBase = 0x90

	Config2Boot = 0xD4
	ChSetBoot   = 0x05
)

// Config1 data-rate field
const drMask = 0x07

// drBits maps a rate preset index to the Config1 data-rate field.
var drBits = [5]byte{6, 5, 4, 3, 2}

// drPreset maps a Config1 data-rate field back to the rate preset index.
func drPreset(dr byte) (uint32, bool) {
	for i, v := range drBits {
		if v == dr {
			return uint32(i), true
		}
	}
	return 0, false
}

// gainBits maps analog channel gain to the CHnSET gain field.
var gainBits = map[int]byte{1: 0, 2: 1, 4: 2, 6: 3, 8: 4, 12: 5, 24: 6}

// CHnSET bit layout
const (
	chPowerDownBit = 0x80
	chGainShift    = 4
	chGainMask     = 0x70
	chMuxMask      = 0x07
)

// MISC1 bit layout
const misc1SRB1Bit = 0x20
