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
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meower-bci/go-exg/pkg/layers"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := NewDefaultConfig()
	require.NoError(t, cfg.Validate())
}

func TestValidateFramesPerPacketMTUBound(t *testing.T) {
	cfg := NewDefaultConfig()

	cfg.FramesPerPacket = layers.MaxFramesPerPacket
	require.NoError(t, cfg.Validate())

	cfg.FramesPerPacket = layers.MaxFramesPerPacket + 1
	require.Error(t, cfg.Validate())

	cfg.FramesPerPacket = 0
	require.Error(t, cfg.Validate())
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"sample rate", func(c *Config) { c.SampleRate = 300 }},
		{"region", func(c *Config) { c.Region = 55 }},
		{"cutoff", func(c *Config) { c.DCCutoffHz = 3 }},
		{"gain not power of two", func(c *Config) { c.DigitalGain = 3 }},
		{"gain too large", func(c *Config) { c.DigitalGain = 512 }},
		{"queue slots", func(c *Config) { c.QueueSlots = 0 }},
		{"backend", func(c *Config) { c.Backend = "i2c" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)
			require.Error(t, cfg.Validate())
		})
	}
}

func TestPersistAndLoad(t *testing.T) {
	dir := t.TempDir()

	cfg := NewDefaultConfig()
	cfg.filepath = filepath.Join(dir, ConfigFile)
	cfg.SampleRate = 1000
	cfg.DigitalGain = 16
	require.NoError(t, cfg.Persist(false))

	// a second persist without overwrite must refuse
	require.Error(t, cfg.Persist(false))
	require.NoError(t, cfg.Persist(true))

	loaded := NewDefaultConfig()
	loaded.filepath = cfg.filepath
	require.NoError(t, loaded.LoadConfig())
	require.Equal(t, 1000, loaded.SampleRate)
	require.Equal(t, 16, loaded.DigitalGain)
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	dir := t.TempDir()

	cfg := NewDefaultConfig()
	cfg.filepath = filepath.Join(dir, ConfigFile)
	cfg.FramesPerPacket = 100
	// Persist does not validate, Load does
	require.NoError(t, cfg.Persist(false))

	loaded := NewDefaultConfig()
	loaded.filepath = cfg.filepath
	require.Error(t, loaded.LoadConfig())
}

func TestSettingsDBPath(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.filepath = "/tmp/conf/config"
	require.Equal(t, "/tmp/conf/settings.db", cfg.SettingsDBPath())
}
