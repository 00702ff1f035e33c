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

package stream

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"net"

	"github.com/meower-bci/go-exg/pkg/acq"
	"github.com/meower-bci/go-exg/pkg/config"
	"github.com/meower-bci/go-exg/pkg/layers"
	"github.com/meower-bci/go-exg/pkg/log"
	"github.com/meower-bci/go-exg/pkg/srv/link"
)

// StreamServer drains the packet queue and ships complete data packets to
// the host on the data port. A packet popped while the link is not streaming
// is discarded, keeping the queue moving so stale frames never pile up.
type StreamServer struct {
	context.Context
	*config.Config

	queue   *acq.Queue
	battery *acq.Battery
	link    *link.LinkServer
}

func NewStreamServer(ctx context.Context, cfg *config.Config, queue *acq.Queue, battery *acq.Battery, l *link.LinkServer) *StreamServer {
	return &StreamServer{
		Context: ctx,
		Config:  cfg,
		queue:   queue,
		battery: battery,
		link:    l,
	}
}

func (s *StreamServer) Run() error {
	laddr, err := net.ResolveUDPAddr("udp", fmt.Sprintf("%s:0", s.Config.DeviceIP))
	if err != nil {
		return err
	}
	conn, err := net.ListenUDP("udp", laddr)
	if err != nil {
		return err
	}
	defer conn.Close()

	go func() {
		<-s.Context.Done()
		s.queue.Close()
	}()

	frameBytes := s.Config.FramesPerPacket * layers.FrameSize
	packet := make([]byte, frameBytes+layers.TelemetrySize)

	for {
		if !s.queue.Pop(packet[:frameBytes]) {
			return s.Context.Err()
		}
		if !s.link.WantStream() {
			continue
		}
		addr := s.link.DataAddr()
		if addr == nil {
			continue
		}

		binary.LittleEndian.PutUint32(packet[frameBytes:], math.Float32bits(s.battery.Voltage()))
		// a failed send costs one packet, never the daemon; the link
		// watchdogs handle a host that stays unreachable
		if _, err := conn.WriteToUDP(packet, addr); err != nil {
			log.Error("Error while sending data to %s: %s", addr, err)
		}
	}
}
