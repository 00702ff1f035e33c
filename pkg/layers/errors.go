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

package layers

import "fmt"

// ErrPacketSize means the datagram length is not N whole frames plus the
// telemetry trailer, or exceeds the MTU-safe bound.
type ErrPacketSize struct {
	Size int
}

func (e ErrPacketSize) Error() string {
	return fmt.Sprintf("Wrong data packet size: %d", e.Size)
}
