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

package link

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/google/gopacket"

	"github.com/meower-bci/go-exg/pkg/acq"
	"github.com/meower-bci/go-exg/pkg/config"
	"github.com/meower-bci/go-exg/pkg/layers"
	"github.com/meower-bci/go-exg/pkg/log"
	"github.com/meower-bci/go-exg/pkg/srv"
)

const (
	// CommandQueueLen bounds commands waiting for the housekeeping loop.
	CommandQueueLen = 8

	BeaconPeriodMs   = 1000
	StreamTimeoutMs  = 10000
	SilenceTimeoutMs = 10000
	GiveUpTimeoutMs  = 60000
)

type State int

const (
	Disconnected State = iota
	Idle
	Streaming
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Idle:
		return "idle"
	case Streaming:
		return "streaming"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Command is one control line received from the host, with the peer that
// sent it so the reply goes back to the right place.
type Command struct {
	Line string
	*net.UDPAddr
}

// Snapshot is the link state as exposed over the status API.
type Snapshot struct {
	State    string `json:"state"`
	Peer     string `json:"peer,omitempty"`
	Lost     bool   `json:"lost"`
	QueueLen int    `json:"queue_len"`
	Dropped  uint64 `json:"dropped"`
}

// LinkServer owns the control port and the connection state machine. The
// receive path classifies datagrams; the Update method, driven by the
// housekeeping loop, runs the beacon and the watchdogs. Both sides share
// one mutex so every transition is serialized.
type LinkServer struct {
	srv.Server

	mu           sync.Mutex
	state        State
	peer         *net.UDPAddr
	lastRxMs     uint32
	lastBeaconMs uint32
	// disconnectedMs arms the give-up timer; zero means a confirmed host
	// has never been lost and the timer is not running.
	disconnectedMs uint32
	lost           bool

	queue      *acq.Queue
	commands   chan Command
	beaconAddr *net.UDPAddr
}

func NewLinkServer(ctx context.Context, cfg *config.Config, queue *acq.Queue) (*LinkServer, error) {
	log.Debug("Initializing link server with address: %s port: %d", cfg.DeviceIP, cfg.ControlPort)

	uaddr, err := net.ResolveUDPAddr("udp", fmt.Sprintf("%s:%d", cfg.DeviceIP, cfg.ControlPort))
	if err != nil {
		return nil, err
	}
	// the beacon goes to the provisioned host, not to the broadcast address
	baddr, err := net.ResolveUDPAddr("udp", fmt.Sprintf("%s:%d", cfg.HostIP, cfg.ControlPort))
	if err != nil {
		return nil, err
	}

	s := &LinkServer{
		Server: srv.Server{
			Context: ctx,
			Config:  cfg,
			UDPAddr: uaddr,
			ChIn:    make(chan srv.InPacket),
			ChOut:   make(chan srv.OutPacket),
		},
		state:      Disconnected,
		queue:      queue,
		commands:   make(chan Command, CommandQueueLen),
		beaconAddr: baddr,
	}
	return s, nil
}

// Commands returns the control lines waiting to be executed.
func (s *LinkServer) Commands() <-chan Command {
	return s.commands
}

func (s *LinkServer) Run() error {
	conn, err := net.ListenUDP("udp", s.UDPAddr)
	if err != nil {
		return err
	}
	defer conn.Close()

	errChan := make(chan error, 1)
	buffer := make([]byte, 2048)

	// Read UDP packets from wire and put them to input queue
	go func() {
		for {
			length, addr, readErr := conn.ReadFrom(buffer)
			if readErr != nil {
				errChan <- readErr
				return
			}
			udpAddr, readErr := net.ResolveUDPAddr("udp", addr.String())
			if readErr != nil {
				errChan <- readErr
				return
			}
			data := make([]byte, length)
			copy(data, buffer[:length])

			captureInfo := gopacket.CaptureInfo{
				Length:        length,
				CaptureLength: length,
				Timestamp:     time.Now(),
				AncillaryData: []interface{}{udpAddr},
			}
			s.ChIn <- srv.InPacket{Data: data, CaptureInfo: captureInfo}
		}
	}()

	// Classify received packets and drive the state machine
	go func() {
		source := gopacket.NewPacketSource(&s.Server, layers.ControlLayerType)
		for packet := range source.Packets() {
			s.handle(packet)
		}
	}()

	// Read packets from output queue and send them to wire
	go s.sendLoop(conn)

	select {
	case <-s.Context.Done():
		return s.Context.Err()
	case err = <-errChan:
		return err
	}
}

// sendLoop drains the output queue. A failed send drops the datagram and
// nothing else; the watchdogs recover the link state on their own.
func (s *LinkServer) sendLoop(conn *net.UDPConn) {
	for {
		outPacket := <-s.ChOut
		if _, sendErr := conn.WriteToUDP(outPacket.Data, outPacket.UDPAddr); sendErr != nil {
			log.Error("Error while sending data to %s: %s", outPacket.UDPAddr, sendErr)
		}
	}
}

// handle drives the state machine with one classified control datagram.
func (s *LinkServer) handle(packet gopacket.Packet) {
	addr, err := srv.GetAddrPort(packet)
	if err != nil {
		log.Error(err.Error())
		return
	}
	layer := packet.Layer(layers.ControlLayerType)
	if layer == nil {
		return
	}
	ctl := layer.(*layers.ControlLayer)
	now := acq.NowMs()

	switch ctl.Kind {
	case layers.ControlBeacon:
		// our own discovery byte looped back, never liveness
	case layers.ControlKeepAlive:
		s.refresh(addr, now)
	case layers.ControlOversize:
		log.Warning("Dropping oversized control datagram: %d bytes from %s", len(ctl.Contents), addr)
	case layers.ControlCommand:
		s.refresh(addr, now)
		select {
		case s.commands <- Command{Line: ctl.Line, UDPAddr: addr}:
		default:
			log.Warning("Command queue full, dropping command from %s", addr)
		}
	}
}

// flushCommands discards queued commands when the host is forgotten; a reply
// would have nowhere to go.
func (s *LinkServer) flushCommands() {
	for {
		select {
		case <-s.commands:
		default:
			return
		}
	}
}

// refresh records host liveness and promotes a silent link back to idle.
func (s *LinkServer) refresh(addr *net.UDPAddr, now uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.peer = addr
	s.lastRxMs = now
	if s.state == Disconnected {
		s.state = Idle
		s.disconnectedMs = 0
		log.Info("Host connected: %s", addr)
	}
}

// Update runs the periodic link work: the stream watchdog, the silence
// watchdog, the give-up timer and the discovery beacon. Called from the
// housekeeping loop.
func (s *LinkServer) Update(now uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lost {
		return
	}

	if s.state == Streaming && acq.SafeTimeDelta(now, s.lastRxMs) >= StreamTimeoutMs {
		log.Warning("Stream watchdog fired, forgetting host %s", s.peer)
		s.state = Idle
		s.peer = nil
		s.queue.Reset()
		// force a beacon on this very update
		s.lastBeaconMs = now - BeaconPeriodMs
	} else if s.state == Idle && acq.SafeTimeDelta(now, s.lastRxMs) >= SilenceTimeoutMs {
		log.Warning("Control link silent, forgetting host %s", s.peer)
		s.state = Disconnected
		s.peer = nil
		s.disconnectedMs = now
		s.flushCommands()
	}

	if s.state == Disconnected && s.disconnectedMs != 0 &&
		acq.SafeTimeDelta(now, s.disconnectedMs) >= GiveUpTimeoutMs {
		log.Error("No host for %d ms, giving up", GiveUpTimeoutMs)
		s.lost = true
		return
	}

	// beacon only while no host is confirmed
	if s.peer == nil && acq.SafeTimeDelta(now, s.lastBeaconMs) >= BeaconPeriodMs {
		s.lastBeaconMs = now
		s.ChOut <- srv.OutPacket{Data: []byte{layers.Beacon}, UDPAddr: s.beaconAddr}
	}
}

// SendControl queues a reply for the host on the control port.
func (s *LinkServer) SendControl(data []byte, addr *net.UDPAddr) {
	if addr == nil {
		s.mu.Lock()
		addr = s.peer
		s.mu.Unlock()
	}
	if addr == nil {
		log.Warning("No host to send control reply to")
		return
	}
	s.ChOut <- srv.OutPacket{Data: data, UDPAddr: addr}
}

// SetStreaming flips the machine between idle and streaming. Starting
// requires a connected host; stopping from any state is allowed.
func (s *LinkServer) SetStreaming(on bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if on {
		if s.state == Disconnected {
			return ErrNotConnected{}
		}
		s.state = Streaming
		return nil
	}
	if s.state == Streaming {
		s.state = Idle
	}
	return nil
}

// WantStream reports whether data packets should go out right now.
func (s *LinkServer) WantStream() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == Streaming
}

// Lost reports the terminal give-up state.
func (s *LinkServer) Lost() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lost
}

// DataAddr returns where data packets go: the host that keeps the link
// alive, on the data port. Nil when no host is known.
func (s *LinkServer) DataAddr() *net.UDPAddr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.peer == nil {
		return nil
	}
	return &net.UDPAddr{IP: s.peer.IP, Port: s.Config.DataPort}
}

// GetSnapshot returns the link state for the status API.
func (s *LinkServer) GetSnapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		State:    s.state.String(),
		Lost:     s.lost,
		QueueLen: s.queue.Len(),
		Dropped:  s.queue.Dropped(),
	}
	if s.peer != nil {
		snap.Peer = s.peer.String()
	}
	return snap
}
