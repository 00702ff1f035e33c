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

import (
	"io/ioutil"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v2"

	"github.com/meower-bci/go-exg/pkg/dsp"
	"github.com/meower-bci/go-exg/pkg/layers"
)

type NetworkConfig struct {
	DeviceIP    string `yaml:"device_ip,omitempty"`
	HostIP      string `yaml:"host_ip,omitempty"`
	ControlPort int    `yaml:"control_port,omitempty"`
	DataPort    int    `yaml:"data_port,omitempty"`

	// credentials are consumed by the provisioning tooling, the daemon only
	// carries them
	SSID     string `yaml:"ssid,omitempty"`
	Password string `yaml:"password,omitempty"`
}

type CaptureConfig struct {
	FramesPerPacket int     `yaml:"frames_per_packet,omitempty"`
	QueueSlots      int     `yaml:"queue_slots,omitempty"`
	SampleRate      int     `yaml:"sample_rate,omitempty"`
	Region          int     `yaml:"region,omitempty"`
	DCCutoffHz      float64 `yaml:"dc_cutoff_hz,omitempty"`
	DigitalGain     int     `yaml:"digital_gain,omitempty"`
	Equalizer       bool    `yaml:"equalizer"`
	DCBlock         bool    `yaml:"dc_block"`
	NotchMains      bool    `yaml:"notch_mains"`
	NotchHarmonic   bool    `yaml:"notch_harmonic"`
	FilterMaster    bool    `yaml:"filter_master"`
}

type BusConfig struct {
	Backend    string `yaml:"backend,omitempty"`
	SerialPort string `yaml:"serial_port,omitempty"`
	BaudRate   int    `yaml:"baud_rate,omitempty"`
}

type Config struct {
	*NetworkConfig `yaml:"network,omitempty"`
	*CaptureConfig `yaml:"capture,omitempty"`
	*BusConfig     `yaml:"bus,omitempty"`
	LogLevel       string `yaml:"log_level,omitempty"`
	filepath       string
}

func (c *Config) Persist(overwrite bool) error {
	if _, err := os.Stat(c.filepath); err == nil && !overwrite {
		return ErrConfigFileExists{Path: c.filepath}
	}

	data, err := yaml.Marshal(&c)
	if err != nil {
		return err
	}

	dir := filepath.Dir(c.filepath)
	err = os.MkdirAll(dir, 0755)
	if err != nil {
		return err
	}

	err = ioutil.WriteFile(c.filepath, data, 0644)
	if err != nil {
		return err
	}

	return nil
}

func (c *Config) LoadConfig() error {
	data, err := ioutil.ReadFile(c.filepath)
	if err != nil {
		return err
	}
	if err = yaml.Unmarshal(data, c); err != nil {
		return err
	}
	return c.Validate()
}

// Validate rejects values that would put the device into an unrecoverable
// state at boot. In particular a packet that does not fit the MTU must be
// caught here, long before the acquisition loop runs.
func (c *Config) Validate() error {
	if c.FramesPerPacket < 1 || c.FramesPerPacket > layers.MaxFramesPerPacket {
		return ErrConfigValue{Field: "frames_per_packet", What: "packet would not fit MTU"}
	}
	if c.QueueSlots < 1 {
		return ErrConfigValue{Field: "queue_slots", What: "must be at least 1"}
	}
	if _, ok := dsp.RatePreset(c.SampleRate); !ok {
		return ErrConfigValue{Field: "sample_rate", What: "must be one of 250, 500, 1000, 2000, 4000"}
	}
	if _, ok := dsp.RegionPreset(c.Region); !ok {
		return ErrConfigValue{Field: "region", What: "must be 50 or 60"}
	}
	if _, ok := dsp.CutoffPreset(c.DCCutoffHz); !ok {
		return ErrConfigValue{Field: "dc_cutoff_hz", What: "must be one of 0.5, 1, 2, 4, 8"}
	}
	if _, ok := dsp.GainShift(c.DigitalGain); !ok {
		return ErrConfigValue{Field: "digital_gain", What: "must be a power of two between 1 and 256"}
	}
	switch c.Backend {
	case "sim", "serial":
	default:
		return ErrConfigValue{Field: "backend", What: "must be sim or serial"}
	}
	return nil
}

// SettingsDBPath returns the path to the persistent settings database which
// lives next to the config file.
func (c *Config) SettingsDBPath() string {
	return filepath.Join(filepath.Dir(c.filepath), SettingsDB)
}

func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = ""
	}
	return filepath.Join(home, ConfigDir, ConfigFile)
}

func NewDefaultConfig() *Config {
	return &Config{
		NetworkConfig: &NetworkConfig{
			DeviceIP:    DefaultDeviceIP,
			HostIP:      DefaultHostIP,
			ControlPort: DefaultControlPort,
			DataPort:    DefaultDataPort,
		},
		CaptureConfig: &CaptureConfig{
			FramesPerPacket: DefaultFramesPerPacket,
			QueueSlots:      DefaultQueueSlots,
			SampleRate:      DefaultSampleRate,
			Region:          DefaultRegion,
			DCCutoffHz:      DefaultDCCutoffHz,
			DigitalGain:     DefaultDigitalGain,
			Equalizer:       true,
			DCBlock:         true,
			NotchMains:      true,
			NotchHarmonic:   true,
			FilterMaster:    true,
		},
		BusConfig: &BusConfig{
			Backend:    DefaultBusBackend,
			SerialPort: DefaultSerialPort,
			BaudRate:   DefaultBaudRate,
		},
		LogLevel: DefaultLogLevel,
		filepath: DefaultConfigPath(),
	}
}
