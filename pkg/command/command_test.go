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

package command

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meower-bci/go-exg/pkg/acq"
	"github.com/meower-bci/go-exg/pkg/bus"
	"github.com/meower-bci/go-exg/pkg/config"
	"github.com/meower-bci/go-exg/pkg/device"
	"github.com/meower-bci/go-exg/pkg/layers"
	"github.com/meower-bci/go-exg/pkg/settings"
	"github.com/meower-bci/go-exg/pkg/srv/link"
)

func newTestExecutor(t *testing.T) (*Executor, *bus.Sim) {
	t.Helper()

	cfg := config.NewDefaultConfig()
	sim := bus.NewSim()
	t.Cleanup(sim.Close)

	dev := device.NewDevice(sim)
	require.NoError(t, dev.FullReset())

	store, err := settings.NewStore(filepath.Join(t.TempDir(), "settings.db"))
	require.NoError(t, err)
	t.Cleanup(store.Close)

	shared := acq.NewShared(cfg)
	notifier := acq.NewNotifier()
	queue := acq.NewQueue(cfg.QueueSlots, cfg.FramesPerPacket*layers.FrameSize)
	task := acq.NewTask(sim, notifier, queue, shared, cfg.FramesPerPacket)

	linkServer, err := link.NewLinkServer(context.Background(), cfg, queue)
	require.NoError(t, err)

	return &Executor{
		Bus:    sim,
		Device: dev,
		Shared: shared,
		Task:   task,
		Link:   linkServer,
		Store:  store,
		Cfg:    cfg,
	}, sim
}

func requireOk(t *testing.T, reply string) {
	t.Helper()
	require.True(t, strings.HasPrefix(reply, "OK:"), "reply: %s", reply)
}

func requireErr(t *testing.T, reply string) {
	t.Helper()
	require.True(t, strings.HasPrefix(reply, "ERR:"), "reply: %s", reply)
}

func TestUnknownCommands(t *testing.T) {
	e, _ := newTestExecutor(t)
	requireErr(t, e.Execute(""))
	requireErr(t, e.Execute("bogus"))
	requireErr(t, e.Execute("sys bogus"))
	requireErr(t, e.Execute("usr bogus"))
}

func TestSpiReadsIDRegister(t *testing.T) {
	e, _ := newTestExecutor(t)

	// RREG of register 0 returns the converter ID in the third byte
	reply := e.Execute("spi M 3 0x20 0 0")
	requireOk(t, reply)
	require.Equal(t, "OK: 00003e", reply)
}

func TestSpiValidation(t *testing.T) {
	e, _ := newTestExecutor(t)
	requireErr(t, e.Execute("spi"))
	requireErr(t, e.Execute("spi X 1 0"))
	requireErr(t, e.Execute("spi M 0"))
	requireErr(t, e.Execute("spi M 257 0"))
	requireErr(t, e.Execute("spi M 2 0"))
	requireErr(t, e.Execute("spi M 1 carrot"))
	requireErr(t, e.Execute("spi M 1 300"))
}

func TestFilterToggles(t *testing.T) {
	e, _ := newTestExecutor(t)

	requireOk(t, e.Execute("sys filter_equalizer_off"))
	require.False(t, e.Shared.Toggles().Equalizer)
	requireOk(t, e.Execute("sys filter_equalizer_on"))
	require.True(t, e.Shared.Toggles().Equalizer)

	requireOk(t, e.Execute("sys filter_dc_off"))
	require.False(t, e.Shared.Toggles().DCBlock)

	requireOk(t, e.Execute("sys filter_5060_off"))
	require.False(t, e.Shared.Toggles().NotchMains)

	requireOk(t, e.Execute("sys filter_100120_off"))
	require.False(t, e.Shared.Toggles().NotchHarmonic)

	requireOk(t, e.Execute("sys filters_off"))
	require.False(t, e.Shared.Toggles().Master)
	requireOk(t, e.Execute("sys filters_on"))
	require.True(t, e.Shared.Toggles().Master)
}

func TestTogglesPersist(t *testing.T) {
	e, _ := newTestExecutor(t)
	requireOk(t, e.Execute("sys filter_5060_off"))

	loaded := &config.CaptureConfig{}
	found, err := e.Store.Get(settings.KeyCapture, loaded)
	require.NoError(t, err)
	require.True(t, found)
	require.False(t, loaded.NotchMains)
}

func TestDCCutoff(t *testing.T) {
	e, _ := newTestExecutor(t)

	requireOk(t, e.Execute("sys dccutofffreq 4"))
	require.Equal(t, uint32(3), e.Shared.CutoffPreset())

	requireOk(t, e.Execute("sys dccutofffreq 0.5"))
	require.Equal(t, uint32(0), e.Shared.CutoffPreset())

	// validation failures leave the preset alone
	requireErr(t, e.Execute("sys dccutofffreq 3"))
	requireErr(t, e.Execute("sys dccutofffreq"))
	require.Equal(t, uint32(0), e.Shared.CutoffPreset())
}

func TestNetworkFreq(t *testing.T) {
	e, _ := newTestExecutor(t)

	requireOk(t, e.Execute("sys networkfreq 60"))
	require.Equal(t, uint32(1), e.Shared.Region())

	requireErr(t, e.Execute("sys networkfreq 55"))
	require.Equal(t, uint32(1), e.Shared.Region())
}

func TestDigitalGain(t *testing.T) {
	e, _ := newTestExecutor(t)

	requireOk(t, e.Execute("sys digitalgain 16"))
	require.Equal(t, uint32(4), e.Shared.GainShift())

	requireErr(t, e.Execute("sys digitalgain 3"))
	requireErr(t, e.Execute("sys digitalgain 512"))
	require.Equal(t, uint32(4), e.Shared.GainShift())
}

func TestStartCntRequiresHost(t *testing.T) {
	e, _ := newTestExecutor(t)

	// nothing ever spoke to us on the control port
	requireErr(t, e.Execute("sys start_cnt"))
	require.False(t, e.Shared.Continuous())

	// stopping is always legal
	requireOk(t, e.Execute("sys stop_cnt"))
}

func TestAdcReset(t *testing.T) {
	e, _ := newTestExecutor(t)
	requireOk(t, e.Execute("usr samplerate 2000"))
	require.Equal(t, uint32(3), e.Shared.RatePreset())

	requireOk(t, e.Execute("sys adc_reset"))
	reply := e.Execute("spi M 3 0x21 0 0")
	requireOk(t, reply)
	// boot data rate bits again after the reset
	require.True(t, strings.HasSuffix(reply, "b6"), "reply: %s", reply)
}

func TestEraseConfig(t *testing.T) {
	e, _ := newTestExecutor(t)
	requireOk(t, e.Execute("sys filter_dc_off"))
	requireOk(t, e.Execute("sys erase_config"))

	found, err := e.Store.Get(settings.KeyCapture, &config.CaptureConfig{})
	require.NoError(t, err)
	require.False(t, found)
}

func TestRebootCallback(t *testing.T) {
	e, _ := newTestExecutor(t)
	called := false
	e.Reboot = func() { called = true }

	requireOk(t, e.Execute("sys reboot"))
	require.True(t, called)
}

func TestUsrSampleRate(t *testing.T) {
	e, _ := newTestExecutor(t)

	requireOk(t, e.Execute("usr samplerate 4000"))
	require.Equal(t, uint32(4), e.Shared.RatePreset())
	require.Equal(t, 4000, e.Cfg.SampleRate)

	requireErr(t, e.Execute("usr samplerate 123"))
	require.Equal(t, uint32(4), e.Shared.RatePreset())
}

func TestUsrChannelCommands(t *testing.T) {
	e, _ := newTestExecutor(t)

	requireOk(t, e.Execute("usr gain 2 24"))
	requireOk(t, e.Execute("usr gain all 8"))
	requireErr(t, e.Execute("usr gain 2 5"))
	requireErr(t, e.Execute("usr gain 16 8"))

	requireOk(t, e.Execute("usr mux 0 5"))
	requireErr(t, e.Execute("usr mux 0 9"))

	requireOk(t, e.Execute("usr powerdown 1 1"))
	requireOk(t, e.Execute("usr powerdown 1 0"))
	requireErr(t, e.Execute("usr powerdown all 1"))

	requireOk(t, e.Execute("usr srb1 1"))
	requireOk(t, e.Execute("usr srb1 0"))
	requireErr(t, e.Execute("usr srb1 2"))
}
