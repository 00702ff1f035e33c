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

import (
	"testing"

	"github.com/google/gopacket"
	"github.com/stretchr/testify/require"
)

func decodeControl(t *testing.T, data []byte) *ControlLayer {
	t.Helper()
	packet := gopacket.NewPacket(data, ControlLayerType, gopacket.Default)
	layer := packet.Layer(ControlLayerType)
	require.NotNil(t, layer)
	return layer.(*ControlLayer)
}

func TestControlClassification(t *testing.T) {
	require.Equal(t, ControlBeacon, decodeControl(t, []byte{Beacon}).Kind)
	require.Equal(t, ControlKeepAlive, decodeControl(t, []byte(KeepAlive)).Kind)
	require.Equal(t, ControlOversize, decodeControl(t, make([]byte, MaxCommandSize+1)).Kind)

	ctl := decodeControl(t, []byte("sys start_cnt"))
	require.Equal(t, ControlCommand, ctl.Kind)
	require.Equal(t, "sys start_cnt", ctl.Line)
}

func TestControlBoundaryCases(t *testing.T) {
	// the beacon byte inside a longer datagram is a command, not a beacon
	ctl := decodeControl(t, []byte{Beacon, Beacon})
	require.Equal(t, ControlCommand, ctl.Kind)

	// a command at exactly the size bound still passes
	bound := make([]byte, MaxCommandSize)
	require.Equal(t, ControlCommand, decodeControl(t, bound).Kind)
}
