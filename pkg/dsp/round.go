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

// roundShift scales a 64-bit accumulator back by an arithmetic right shift,
// rounding to nearest with ties away from zero: a signed half-unit bias is
// added before the shift (-0.5 -> -1, +0.5 -> +1).
func roundShift(acc int64, shift uint32) int32 {
	sign := acc >> 63
	acc += (1 << (shift - 1)) - (sign & 1)
	return int32(acc >> shift)
}
