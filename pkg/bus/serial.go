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

package bus

import (
	"encoding/binary"
	"io"
	"sync"

	"go.bug.st/serial"

	"github.com/meower-bci/go-exg/pkg/log"
)

// bridge opcodes, one per exchange type
const (
	bridgeOpTransfer  = 0x01
	bridgeOpStart     = 0x02
	bridgeOpDataReady = 0x03
)

// SerialBridge talks to the converter board through a USB-serial bridge MCU.
// One exchange is framed as opcode, target, 16-bit big-endian length, then
// the payload; the bridge answers a transfer with the same number of bytes
// clocked back from the converters. The bridge pushes an unsolicited
// one-byte data-ready event whenever a conversion completes.
type SerialBridge struct {
	mu        sync.Mutex
	port      serial.Port
	dataReady func()
	done      chan struct{}
	closeOnce sync.Once
}

func NewSerialBridge(portName string, baudRate int) (*SerialBridge, error) {
	mode := &serial.Mode{
		BaudRate: baudRate,
	}
	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, err
	}
	b := &SerialBridge{
		port: port,
		done: make(chan struct{}),
	}
	return b, nil
}

// OnDataReady registers the conversion-complete callback and starts the
// event reader. Call it before the first Transfer.
func (b *SerialBridge) OnDataReady(fn func()) {
	b.mu.Lock()
	b.dataReady = fn
	b.mu.Unlock()
	go b.readEvents()
}

// readEvents drains unsolicited data-ready bytes between exchanges. The
// bridge only emits them while no exchange is in flight, so reads here never
// race a Transfer reply.
func (b *SerialBridge) readEvents() {
	buf := make([]byte, 1)
	for {
		select {
		case <-b.done:
			return
		default:
		}
		if _, err := b.port.Read(buf); err != nil {
			log.Error("Serial bridge event read failed: %s", err)
			return
		}
		if buf[0] != bridgeOpDataReady {
			continue
		}
		b.mu.Lock()
		fn := b.dataReady
		b.mu.Unlock()
		if fn != nil {
			fn()
		}
	}
}

func (b *SerialBridge) Transfer(target Target, tx, rx []byte) error {
	if len(tx) != len(rx) {
		return ErrTransferSize{TxLen: len(tx), RxLen: len(rx)}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	header := make([]byte, 4)
	header[0] = bridgeOpTransfer
	header[1] = byte(target)
	binary.BigEndian.PutUint16(header[2:], uint16(len(tx)))
	if _, err := b.port.Write(header); err != nil {
		return err
	}
	if _, err := b.port.Write(tx); err != nil {
		return err
	}

	n, err := io.ReadFull(b.port, rx)
	if err != nil {
		return ErrBridgeExchange{Want: len(rx), Got: n}
	}
	return nil
}

// SetStart drives the START pin through the bridge.
func (b *SerialBridge) SetStart(high bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	msg := []byte{bridgeOpStart, 0, 0, 0}
	if high {
		msg[1] = 1
	}
	if _, err := b.port.Write(msg); err != nil {
		log.Error("Serial bridge start write failed: %s", err)
	}
}

// Close shuts the event reader down and releases the port.
func (b *SerialBridge) Close() {
	b.closeOnce.Do(func() {
		close(b.done)
		b.port.Close()
	})
}
