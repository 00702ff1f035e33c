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
	"github.com/google/gopacket"
	gopacketlayers "github.com/google/gopacket/layers"
)

const (
	// ControlLayerNum identifies the layer
	ControlLayerNum = 2102

	// Beacon is the one-byte discovery datagram the device sends while no
	// host is confirmed.
	Beacon = 0x0A

	// KeepAlive is the liveness word the host sends on the control port.
	KeepAlive = "floof"

	// MaxCommandSize bounds a control datagram; anything longer is dropped
	// without refreshing liveness.
	MaxCommandSize = 511
)

// ControlKind classifies a control-port datagram.
type ControlKind int

const (
	// ControlBeacon is our own discovery byte looped back by the network.
	ControlBeacon ControlKind = iota
	// ControlKeepAlive proves host liveness and never reaches the command path.
	ControlKeepAlive
	// ControlCommand is a command line for the control plane.
	ControlCommand
	// ControlOversize exceeds the command buffer and carries no liveness.
	ControlOversize
)

// ControlLayer is one classified control-port datagram. Classification
// happens at decode time so the link state machine only switches on Kind.
type ControlLayer struct {
	gopacketlayers.BaseLayer
	Kind ControlKind
	Line string
}

var ControlLayerType = gopacket.RegisterLayerType(ControlLayerNum,
	gopacket.LayerTypeMetadata{Name: "ControlLayerType", Decoder: gopacket.DecodeFunc(DecodeControlLayer)})

// LayerType returns the type of the control layer in the layer catalog
func (c *ControlLayer) LayerType() gopacket.LayerType {
	return ControlLayerType
}

// DecodeFromBytes classifies the datagram. The order matters: the looped
// back beacon first, then the keepalive, then the size bound, and only then
// is the datagram a command.
func (c *ControlLayer) DecodeFromBytes(data []byte, df gopacket.DecodeFeedback) error {
	c.BaseLayer = gopacketlayers.BaseLayer{
		Contents: data[:],
		Payload:  []byte{},
	}
	switch {
	case len(data) == 1 && data[0] == Beacon:
		c.Kind = ControlBeacon
	case len(data) == len(KeepAlive) && string(data) == KeepAlive:
		c.Kind = ControlKeepAlive
	case len(data) > MaxCommandSize:
		c.Kind = ControlOversize
	default:
		c.Kind = ControlCommand
		c.Line = string(data)
	}
	return nil
}

func DecodeControlLayer(data []byte, p gopacket.PacketBuilder) error {
	c := &ControlLayer{}
	if err := c.DecodeFromBytes(data, p); err != nil {
		return err
	}
	p.AddLayer(c)
	return nil
}
