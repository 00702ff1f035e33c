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

package settings

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meower-bci/go-exg/pkg/config"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "settings.db"))
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func TestSetGet(t *testing.T) {
	s := newTestStore(t)

	found, err := s.Get(KeySSID, new(string))
	require.NoError(t, err)
	require.False(t, found)

	require.NoError(t, s.Set(KeySSID, "lab-net"))
	var ssid string
	found, err = s.Get(KeySSID, &ssid)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "lab-net", ssid)
}

func TestCaptureSettingsRoundTrip(t *testing.T) {
	s := newTestStore(t)

	capture := config.NewDefaultConfig().CaptureConfig
	capture.DigitalGain = 32
	capture.NotchMains = false
	require.NoError(t, s.Set(KeyCapture, capture))

	loaded := &config.CaptureConfig{}
	found, err := s.Get(KeyCapture, loaded)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, capture, loaded)
}

func TestBootCount(t *testing.T) {
	s := newTestStore(t)

	count, err := s.IncrementBootCount()
	require.NoError(t, err)
	require.Equal(t, uint64(1), count)

	count, err = s.IncrementBootCount()
	require.NoError(t, err)
	require.Equal(t, uint64(2), count)
}

func TestErase(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Set(KeyPassword, "hunter2"))
	_, err := s.IncrementBootCount()
	require.NoError(t, err)

	require.NoError(t, s.Erase())

	found, err := s.Get(KeyPassword, new(string))
	require.NoError(t, err)
	require.False(t, found)

	count, err := s.IncrementBootCount()
	require.NoError(t, err)
	require.Equal(t, uint64(1), count)
}
