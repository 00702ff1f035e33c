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

package config

const (
	ConfigDir  = ".go-exg"
	ConfigFile = "config"
	SettingsDB = "settings.db"

	DefaultControlPort = 5000
	DefaultDataPort    = 5001
	DefaultHostIP      = "192.168.1.100"
	DefaultDeviceIP    = "0.0.0.0"

	DefaultFramesPerPacket = 10
	DefaultQueueSlots      = 5
	DefaultSampleRate      = 500
	DefaultRegion          = 50
	DefaultDCCutoffHz      = 0.5
	DefaultDigitalGain     = 1

	DefaultBusBackend = "sim"
	DefaultSerialPort = "/dev/ttyUSB0"
	DefaultBaudRate   = 921600

	DefaultLogLevel = "info"
)
