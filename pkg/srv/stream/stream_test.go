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
	"net"
	"testing"
	"time"

	"github.com/google/gopacket"
	"github.com/stretchr/testify/require"

	"github.com/meower-bci/go-exg/pkg/acq"
	"github.com/meower-bci/go-exg/pkg/config"
	"github.com/meower-bci/go-exg/pkg/layers"
	"github.com/meower-bci/go-exg/pkg/srv"
	"github.com/meower-bci/go-exg/pkg/srv/link"
)

func freePort(t *testing.T) int {
	t.Helper()
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	port := conn.LocalAddr().(*net.UDPAddr).Port
	require.NoError(t, conn.Close())
	return port
}

func TestSendFailureIsNotFatal(t *testing.T) {
	cfg := config.NewDefaultConfig()
	cfg.DeviceIP = "127.0.0.1"
	cfg.HostIP = "127.0.0.1"
	cfg.ControlPort = freePort(t)
	cfg.DataPort = freePort(t)
	// a packet this large can never leave a UDP socket, every send fails
	cfg.FramesPerPacket = 1300
	frameBytes := cfg.FramesPerPacket * layers.FrameSize

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	queue := acq.NewQueue(4, frameBytes)
	battery := acq.NewBattery(func() float32 { return 4.2 })

	l, err := link.NewLinkServer(ctx, cfg, queue)
	require.NoError(t, err)
	go l.Run()

	// confirm a host so DataAddr resolves and streaming can start
	host := &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: cfg.ControlPort}
	keep := []byte(layers.KeepAlive)
	l.ChIn <- srv.InPacket{
		Data: keep,
		CaptureInfo: gopacket.CaptureInfo{
			Length:        len(keep),
			CaptureLength: len(keep),
			Timestamp:     time.Now(),
			AncillaryData: []interface{}{host},
		},
	}
	require.Eventually(t, func() bool { return l.DataAddr() != nil }, time.Second, 10*time.Millisecond)
	require.NoError(t, l.SetStreaming(true))

	s := NewStreamServer(ctx, cfg, queue, battery, l)
	go s.Run()

	require.True(t, queue.TryPush(make([]byte, frameBytes)))
	require.True(t, queue.TryPush(make([]byte, frameBytes)))

	// both packets must be popped and dropped on their failed sends; a
	// fatal first failure would leave the second one stuck in the queue
	require.Eventually(t, func() bool { return queue.Len() == 0 }, 2*time.Second, 10*time.Millisecond)

	require.True(t, queue.TryPush(make([]byte, frameBytes)))
	require.Eventually(t, func() bool { return queue.Len() == 0 }, 2*time.Second, 10*time.Millisecond)
}
