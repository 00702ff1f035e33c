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

import (
	"fmt"
)

// ErrBadDataRate returned when the converter reports a data-rate field with no preset
type ErrBadDataRate struct {
	DR byte
}

func (e ErrBadDataRate) Error() string {
	return fmt.Sprintf("Unsupported data rate field: %d", e.DR)
}

// ErrBadSampleRate returned when a requested sampling rate has no preset
type ErrBadSampleRate struct {
	Hz int
}

func (e ErrBadSampleRate) Error() string {
	return fmt.Sprintf("Unsupported sample rate: %d", e.Hz)
}

// ErrBadGain returned when a requested analog gain is not one the hardware offers
type ErrBadGain struct {
	Gain int
}

func (e ErrBadGain) Error() string {
	return fmt.Sprintf("Unsupported analog gain: %d", e.Gain)
}

// ErrBadMux returned when a channel mux value does not fit the mux field
type ErrBadMux struct {
	Mux byte
}

func (e ErrBadMux) Error() string {
	return fmt.Sprintf("Unsupported channel mux: %d", e.Mux)
}
