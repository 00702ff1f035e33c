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

package acq

import "time"

// NowMs returns a monotonic millisecond tick truncated to 32 bits, matching
// the width every watchdog below works in.
func NowMs() uint32 {
	return uint32(time.Now().UnixNano() / int64(time.Millisecond))
}

// SafeTimeDelta returns now-then on the wrapping 32-bit millisecond clock,
// clamping to zero when then appears to be in the future. A wrap therefore
// shortens an interval instead of producing a huge one, so a watchdog can
// fire late but never spuriously.
func SafeTimeDelta(now, then uint32) uint32 {
	if now >= then {
		return now - then
	}
	return 0
}
