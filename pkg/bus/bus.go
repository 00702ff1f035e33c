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

import "fmt"

// Target selects which converter a transfer addresses. The two converters
// share the bus with separate chip selects; Both asserts both selects at
// once which daisy-chains their data outputs.
type Target int

const (
	TargetFirst Target = iota
	TargetSecond
	TargetBoth
	TargetTest
)

func (t Target) String() string {
	switch t {
	case TargetFirst:
		return "first"
	case TargetSecond:
		return "second"
	case TargetBoth:
		return "both"
	case TargetTest:
		return "test"
	}
	return fmt.Sprintf("target(%d)", int(t))
}

// ParseTarget maps the one-letter selector used on the control link to a Target.
func ParseTarget(s string) (Target, error) {
	switch s {
	case "M":
		return TargetFirst, nil
	case "S":
		return TargetSecond, nil
	case "B":
		return TargetBoth, nil
	case "T":
		return TargetTest, nil
	}
	return 0, ErrBadTarget{Selector: s}
}

// Bus is a full-duplex exchange with the converters: tx is clocked out while
// rx is filled in, both of the same length.
type Bus interface {
	Transfer(target Target, tx, rx []byte) error
}

// StartControl is implemented by backends that drive the hardware START pin.
type StartControl interface {
	SetStart(high bool)
}

// DataReadySource is implemented by backends that can report conversion
// completion. The callback fires once per drdy edge while conversions run.
type DataReadySource interface {
	OnDataReady(fn func())
}

// BatteryReader is implemented by backends that can measure the supply rail.
type BatteryReader interface {
	ReadBattery() float32
}
