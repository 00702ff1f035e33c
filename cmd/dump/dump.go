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

package dump

import (
	"fmt"
	"net"
	"time"

	"github.com/google/gopacket"
	"github.com/spf13/cobra"

	"github.com/meower-bci/go-exg/pkg/config"
	"github.com/meower-bci/go-exg/pkg/layers"
	"github.com/meower-bci/go-exg/pkg/log"
	"github.com/meower-bci/go-exg/pkg/srv/link"
)

const (
	DeviceOptionName = "device"
)

// NewCommand creates the dump command which plays the host side of the link:
// it keeps the device alive with keepalives and prints the decoded data
// packets it receives.
func NewCommand() *cobra.Command {
	var deviceAddr string
	cfg := config.NewDefaultConfig()
	cfg.LoadConfig()
	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Receive and print data packets from a device",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cfg, deviceAddr, cmd)
		},
	}
	cmd.Flags().StringVar(&deviceAddr, DeviceOptionName, "", "Device address. E.g. 192.168.1.50")
	cmd.MarkFlagRequired(DeviceOptionName)
	return cmd
}

func run(cfg *config.Config, deviceAddr string, cmd *cobra.Command) error {
	ctrlAddr, err := net.ResolveUDPAddr("udp", fmt.Sprintf("%s:%d", deviceAddr, cfg.ControlPort))
	if err != nil {
		return err
	}
	dataAddr, err := net.ResolveUDPAddr("udp", fmt.Sprintf(":%d", cfg.DataPort))
	if err != nil {
		return err
	}

	conn, err := net.ListenUDP("udp", dataAddr)
	if err != nil {
		return err
	}
	defer conn.Close()

	ctrlConn, err := net.DialUDP("udp", nil, ctrlAddr)
	if err != nil {
		return err
	}
	defer ctrlConn.Close()

	// keepalives from the data port source address so the device learns
	// where to stream
	go func() {
		for {
			if _, keepErr := ctrlConn.Write([]byte(layers.KeepAlive)); keepErr != nil {
				log.Error("Error while sending keepalive: %s", keepErr)
				return
			}
			time.Sleep(time.Duration(link.BeaconPeriodMs) * time.Millisecond)
		}
	}()

	buffer := make([]byte, 2048)
	for {
		length, _, readErr := conn.ReadFromUDP(buffer)
		if readErr != nil {
			return readErr
		}

		packet := gopacket.NewPacket(buffer[:length], layers.ExgLayerType, gopacket.Default)
		layer := packet.Layer(layers.ExgLayerType)
		if layer == nil {
			log.Warning("Dropping undecodable data packet: %d bytes", length)
			continue
		}
		exg := layer.(*layers.ExgLayer)
		for _, frame := range exg.Frames {
			fmt.Fprintf(cmd.OutOrStdout(), "ts=%d samples=%v\n", frame.Timestamp, frame.Samples)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "battery=%.2f\n", exg.Battery)
	}
}
