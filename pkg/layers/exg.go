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
	"encoding/binary"
	"math"

	"github.com/google/gopacket"
	gopacketlayers "github.com/google/gopacket/layers"

	"github.com/meower-bci/go-exg/pkg/dsp"
)

const (
	// ExgLayerNum identifies the layer
	ExgLayerNum = 2101

	// TimestampSize is the per-frame relative timestamp appended after the
	// channel data.
	TimestampSize = 4

	// FrameSize is one wire frame: 16 channels of 24-bit big-endian samples
	// plus the timestamp.
	FrameSize = dsp.ParsedFrameSize + TimestampSize

	// TelemetrySize is the trailing battery-voltage float.
	TelemetrySize = 4

	// MTUSafeSize is the largest datagram payload that fits a standard
	// Ethernet MTU without fragmentation.
	MTUSafeSize = 1472

	// MaxFramesPerPacket keeps N*FrameSize+TelemetrySize under MTUSafeSize.
	MaxFramesPerPacket = (MTUSafeSize - TelemetrySize) / FrameSize
)

// PacketSize returns the wire size of a data packet carrying n frames.
func PacketSize(n int) int {
	return n*FrameSize + TelemetrySize
}

// Frame is one decoded sampling instant: the channel vector and the relative
// timestamp recorded for the frame. The timestamp measures the bus-transfer
// wait for that sample in 8 us ticks, not wall-clock spacing.
type Frame struct {
	Samples   dsp.ChannelVector
	Timestamp uint32
}

// ExgLayer is one stream datagram: N frames back to back plus the trailing
// battery voltage.
type ExgLayer struct {
	gopacketlayers.BaseLayer
	Frames  []Frame
	Battery float32
}

var ExgLayerType = gopacket.RegisterLayerType(ExgLayerNum,
	gopacket.LayerTypeMetadata{Name: "ExgLayerType", Decoder: gopacket.DecodeFunc(DecodeExgLayer)})

// LayerType returns the type of the Exg layer in the layer catalog
func (exg *ExgLayer) LayerType() gopacket.LayerType {
	return ExgLayerType
}

func (exg *ExgLayer) DecodeFromBytes(data []byte, df gopacket.DecodeFeedback) error {
	if len(data) < FrameSize+TelemetrySize || (len(data)-TelemetrySize)%FrameSize != 0 {
		return ErrPacketSize{Size: len(data)}
	}
	if len(data) > MTUSafeSize {
		return ErrPacketSize{Size: len(data)}
	}
	exg.BaseLayer = gopacketlayers.BaseLayer{
		Contents: data[:],
		Payload:  []byte{},
	}

	n := (len(data) - TelemetrySize) / FrameSize
	exg.Frames = make([]Frame, n)
	for i := 0; i < n; i++ {
		frame := data[i*FrameSize : (i+1)*FrameSize]
		for ch := 0; ch < dsp.NumChannels; ch++ {
			raw := uint32(frame[3*ch])<<16 | uint32(frame[3*ch+1])<<8 | uint32(frame[3*ch+2])
			if raw&0x800000 != 0 {
				raw |= 0xFF000000
			}
			exg.Frames[i].Samples[ch] = int32(raw)
		}
		exg.Frames[i].Timestamp = binary.LittleEndian.Uint32(frame[dsp.ParsedFrameSize:])
	}
	exg.Battery = math.Float32frombits(binary.LittleEndian.Uint32(data[n*FrameSize:]))

	return nil
}

// Serialize writes the layer to a preallocated buffer of exactly
// PacketSize(len(Frames)) bytes.
func (exg *ExgLayer) Serialize(buf []byte) {
	for i := range exg.Frames {
		frame := buf[i*FrameSize : (i+1)*FrameSize]
		for ch := 0; ch < dsp.NumChannels; ch++ {
			val := exg.Frames[i].Samples[ch]
			frame[3*ch] = byte(val >> 16)
			frame[3*ch+1] = byte(val >> 8)
			frame[3*ch+2] = byte(val)
		}
		binary.LittleEndian.PutUint32(frame[dsp.ParsedFrameSize:], exg.Frames[i].Timestamp)
	}
	binary.LittleEndian.PutUint32(buf[len(exg.Frames)*FrameSize:], math.Float32bits(exg.Battery))
}

// SerializeTo serializes the layer into bytes and writes the bytes to the SerializeBuffer
func (exg *ExgLayer) SerializeTo(b gopacket.SerializeBuffer, opts gopacket.SerializeOptions) error {
	bytes, err := b.AppendBytes(PacketSize(len(exg.Frames)))
	if err != nil {
		return err
	}
	exg.Serialize(bytes)
	return nil
}

func DecodeExgLayer(data []byte, p gopacket.PacketBuilder) error {
	exg := &ExgLayer{}
	err := exg.DecodeFromBytes(data, p)
	if err != nil {
		return err
	}
	p.AddLayer(exg)
	return nil
}
