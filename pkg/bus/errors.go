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

package bus

import (
	"fmt"
)

// ErrBadTarget returned when a control command names an unknown converter selector
type ErrBadTarget struct {
	Selector string
}

func (e ErrBadTarget) Error() string {
	return fmt.Sprintf("Unknown bus target: %s", e.Selector)
}

// ErrTransferSize returned when tx and rx buffers differ in length
type ErrTransferSize struct {
	TxLen int
	RxLen int
}

func (e ErrTransferSize) Error() string {
	return fmt.Sprintf("Transfer buffer length mismatch: tx %d rx %d", e.TxLen, e.RxLen)
}

// ErrBridgeExchange returned when the serial bridge reply is shorter than the request
type ErrBridgeExchange struct {
	Want int
	Got  int
}

func (e ErrBridgeExchange) Error() string {
	return fmt.Sprintf("Short bridge exchange: want %d bytes got %d", e.Want, e.Got)
}
