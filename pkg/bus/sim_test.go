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
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func readReg(t *testing.T, s *Sim, target Target, addr byte) byte {
	t.Helper()
	tx := []byte{OpRREG | addr, 0, 0}
	rx := make([]byte, len(tx))
	require.NoError(t, s.Transfer(target, tx, rx))
	return rx[2]
}

func writeReg(t *testing.T, s *Sim, target Target, addr, value byte) {
	t.Helper()
	tx := []byte{OpWREG | addr, 0, value}
	rx := make([]byte, len(tx))
	require.NoError(t, s.Transfer(target, tx, rx))
}

func TestSimRegisterReadWrite(t *testing.T) {
	s := NewSim()
	defer s.Close()

	require.Equal(t, byte(simIDValue), readReg(t, s, TargetFirst, 0x00))
	require.Equal(t, byte(simConfig1Reset), readReg(t, s, TargetSecond, 0x01))

	writeReg(t, s, TargetFirst, 0x01, 0xB5)
	require.Equal(t, byte(0xB5), readReg(t, s, TargetFirst, 0x01))
	// the second converter keeps its own register file
	require.Equal(t, byte(simConfig1Reset), readReg(t, s, TargetSecond, 0x01))

	writeReg(t, s, TargetBoth, 0x05, 0x12)
	require.Equal(t, byte(0x12), readReg(t, s, TargetFirst, 0x05))
	require.Equal(t, byte(0x12), readReg(t, s, TargetSecond, 0x05))
}

func TestSimReset(t *testing.T) {
	s := NewSim()
	defer s.Close()

	writeReg(t, s, TargetBoth, 0x03, 0xFF)
	rx := make([]byte, 1)
	require.NoError(t, s.Transfer(TargetBoth, []byte{OpReset}, rx))
	require.Equal(t, byte(simConfig3Reset), readReg(t, s, TargetFirst, 0x03))
}

func TestSimTransferSizeMismatch(t *testing.T) {
	s := NewSim()
	defer s.Close()
	err := s.Transfer(TargetFirst, make([]byte, 3), make([]byte, 2))
	require.Error(t, err)
}

func TestSimFrameSynthesis(t *testing.T) {
	s := NewSim()
	defer s.Close()

	rx := make([]byte, 1)
	require.NoError(t, s.Transfer(TargetBoth, []byte{OpRDATAC}, rx))

	frame := make([]byte, 54)
	require.NoError(t, s.Transfer(TargetBoth, make([]byte, 54), frame))

	// both converter blocks start with the status preamble
	require.Equal(t, byte(simPreamble), frame[0])
	require.Equal(t, byte(simPreamble), frame[27])

	// channel 0 of the first conversion carries the ramp seed
	v := uint32(frame[3])<<16 | uint32(frame[4])<<8 | uint32(frame[5])
	require.Equal(t, uint32(37), v)

	// register traffic is locked out until SDATAC
	require.NoError(t, s.Transfer(TargetBoth, []byte{OpSDATAC}, rx))
	require.Equal(t, byte(simIDValue), readReg(t, s, TargetFirst, 0x00))
}

func TestSimDataReadyClock(t *testing.T) {
	s := NewSim()
	defer s.Close()

	ticks := make(chan struct{}, 64)
	s.OnDataReady(func() { ticks <- struct{}{} })

	rx := make([]byte, 1)
	require.NoError(t, s.Transfer(TargetBoth, []byte{OpRDATAC}, rx))
	s.SetStart(true)

	select {
	case <-ticks:
	case <-time.After(time.Second):
		t.Fatal("no data ready tick at 250 Hz")
	}

	s.SetStart(false)
	time.Sleep(20 * time.Millisecond)
	for len(ticks) > 0 {
		<-ticks
	}
	select {
	case <-ticks:
		t.Fatal("tick after start deasserted")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestParseTarget(t *testing.T) {
	for selector, want := range map[string]Target{
		"M": TargetFirst, "S": TargetSecond, "B": TargetBoth, "T": TargetTest,
	} {
		got, err := ParseTarget(selector)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
	_, err := ParseTarget("X")
	require.Error(t, err)
}
