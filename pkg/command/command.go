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
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/meower-bci/go-exg/pkg/acq"
	"github.com/meower-bci/go-exg/pkg/bus"
	"github.com/meower-bci/go-exg/pkg/config"
	"github.com/meower-bci/go-exg/pkg/device"
	"github.com/meower-bci/go-exg/pkg/dsp"
	"github.com/meower-bci/go-exg/pkg/log"
	"github.com/meower-bci/go-exg/pkg/settings"
	"github.com/meower-bci/go-exg/pkg/srv/link"
)

const (
	replyOk  = "OK:"
	replyErr = "ERR:"

	maxSpiLen = 256
)

// Executor interprets control lines. Every command validates its arguments
// completely before touching the hardware or the shared state, so a bad line
// leaves the device exactly as it was.
type Executor struct {
	Bus    bus.Bus
	Device *device.Device
	Shared *acq.Shared
	Task   *acq.Task
	Link   *link.LinkServer
	Store  *settings.Store
	Cfg    *config.Config

	// Reboot restarts the process; injected so tests and the simulator can
	// observe it instead of dying.
	Reboot func()
}

func ok() string { return replyOk }

func okPayload(p string) string { return fmt.Sprintf("%s %s", replyOk, p) }

func fail(format string, a ...interface{}) string {
	return fmt.Sprintf("%s %s", replyErr, fmt.Sprintf(format, a...))
}

// Execute runs one control line and returns the single reply line.
func (e *Executor) Execute(line string) string {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return fail("empty command")
	}
	log.Debug("Executing command: %s", line)

	switch fields[0] {
	case "spi":
		return e.execSpi(fields[1:])
	case "sys":
		return e.execSys(fields[1:])
	case "usr":
		return e.execUsr(fields[1:])
	}
	return fail("unknown command family: %s", fields[0])
}

// execSpi runs a raw bus exchange: spi <M|S|B|T> <len> <byte>...
func (e *Executor) execSpi(args []string) string {
	if len(args) < 2 {
		return fail("spi wants a target and a length")
	}
	target, err := bus.ParseTarget(args[0])
	if err != nil {
		return fail(err.Error())
	}
	length, err := strconv.Atoi(args[1])
	if err != nil || length < 1 || length > maxSpiLen {
		return fail("spi length must be 1..%d", maxSpiLen)
	}
	if len(args) != 2+length {
		return fail("spi wants %d data bytes, got %d", length, len(args)-2)
	}

	tx := make([]byte, length)
	for i := 0; i < length; i++ {
		b, parseErr := strconv.ParseUint(args[2+i], 0, 8)
		if parseErr != nil {
			return fail("bad byte %q", args[2+i])
		}
		tx[i] = byte(b)
	}

	rx := make([]byte, length)
	if err := e.Bus.Transfer(target, tx, rx); err != nil {
		return fail(err.Error())
	}
	return okPayload(hex.EncodeToString(rx))
}

func (e *Executor) execSys(args []string) string {
	if len(args) == 0 {
		return fail("sys wants a verb")
	}
	switch args[0] {
	case "adc_reset":
		if err := e.Device.FullReset(); err != nil {
			return fail(err.Error())
		}
		return ok()
	case "start_cnt":
		return e.startStream()
	case "stop_cnt":
		return e.stopStream()
	case "reboot":
		if e.Reboot != nil {
			defer e.Reboot()
		}
		return ok()
	case "erase_config":
		if err := e.Store.Erase(); err != nil {
			return fail(err.Error())
		}
		return ok()
	case "filter_equalizer_on":
		return e.setToggle(func(c *config.CaptureConfig, v bool) { c.Equalizer = v }, e.Shared.SetEqualizer, true)
	case "filter_equalizer_off":
		return e.setToggle(func(c *config.CaptureConfig, v bool) { c.Equalizer = v }, e.Shared.SetEqualizer, false)
	case "filter_dc_on":
		return e.setToggle(func(c *config.CaptureConfig, v bool) { c.DCBlock = v }, e.Shared.SetDCBlock, true)
	case "filter_dc_off":
		return e.setToggle(func(c *config.CaptureConfig, v bool) { c.DCBlock = v }, e.Shared.SetDCBlock, false)
	case "filter_5060_on":
		return e.setToggle(func(c *config.CaptureConfig, v bool) { c.NotchMains = v }, e.Shared.SetNotchMains, true)
	case "filter_5060_off":
		return e.setToggle(func(c *config.CaptureConfig, v bool) { c.NotchMains = v }, e.Shared.SetNotchMains, false)
	case "filter_100120_on":
		return e.setToggle(func(c *config.CaptureConfig, v bool) { c.NotchHarmonic = v }, e.Shared.SetNotchHarmonic, true)
	case "filter_100120_off":
		return e.setToggle(func(c *config.CaptureConfig, v bool) { c.NotchHarmonic = v }, e.Shared.SetNotchHarmonic, false)
	case "filters_on":
		return e.setToggle(func(c *config.CaptureConfig, v bool) { c.FilterMaster = v }, e.Shared.SetFilterMaster, true)
	case "filters_off":
		return e.setToggle(func(c *config.CaptureConfig, v bool) { c.FilterMaster = v }, e.Shared.SetFilterMaster, false)
	case "dccutofffreq":
		return e.setCutoff(args[1:])
	case "networkfreq":
		return e.setRegion(args[1:])
	case "digitalgain":
		return e.setDigitalGain(args[1:])
	}
	return fail("unknown sys verb: %s", args[0])
}

func (e *Executor) startStream() string {
	if err := e.Link.SetStreaming(true); err != nil {
		return fail(err.Error())
	}
	preset, err := e.Device.StartContinuous()
	if err != nil {
		e.Link.SetStreaming(false)
		return fail(err.Error())
	}
	e.Shared.SetRatePreset(preset)
	e.Shared.SetContinuous(true)
	e.Task.Kick()
	return ok()
}

func (e *Executor) stopStream() string {
	e.Link.SetStreaming(false)
	e.Shared.SetContinuous(false)
	e.Task.Kick()
	if err := e.Device.StopContinuous(); err != nil {
		return fail(err.Error())
	}
	return ok()
}

func (e *Executor) setToggle(set func(*config.CaptureConfig, bool), apply func(bool), v bool) string {
	set(e.Cfg.CaptureConfig, v)
	apply(v)
	e.persistCapture()
	return ok()
}

func (e *Executor) setCutoff(args []string) string {
	if len(args) != 1 {
		return fail("dccutofffreq wants one argument")
	}
	hz, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return fail("bad cutoff %q", args[0])
	}
	preset, valid := dsp.CutoffPreset(hz)
	if !valid {
		return fail("cutoff must be one of 0.5, 1, 2, 4, 8")
	}
	e.Cfg.DCCutoffHz = hz
	e.Shared.SetCutoffPreset(preset)
	e.persistCapture()
	return ok()
}

func (e *Executor) setRegion(args []string) string {
	if len(args) != 1 {
		return fail("networkfreq wants one argument")
	}
	hz, err := strconv.Atoi(args[0])
	if err != nil {
		return fail("bad mains frequency %q", args[0])
	}
	region, valid := dsp.RegionPreset(hz)
	if !valid {
		return fail("mains frequency must be 50 or 60")
	}
	e.Cfg.Region = hz
	e.Shared.SetRegion(region)
	e.persistCapture()
	return ok()
}

func (e *Executor) setDigitalGain(args []string) string {
	if len(args) != 1 {
		return fail("digitalgain wants one argument")
	}
	gain, err := strconv.Atoi(args[0])
	if err != nil {
		return fail("bad gain %q", args[0])
	}
	shift, valid := dsp.GainShift(gain)
	if !valid {
		return fail("gain must be a power of two between 1 and 256")
	}
	e.Cfg.DigitalGain = gain
	e.Shared.SetGainShift(shift)
	e.persistCapture()
	return ok()
}

func (e *Executor) persistCapture() {
	if e.Store == nil {
		return
	}
	if err := e.Store.Set(settings.KeyCapture, e.Cfg.CaptureConfig); err != nil {
		log.Error("Failed to persist capture settings: %s", err)
	}
}

// execUsr handles converter register commands:
//
//	usr samplerate <hz>
//	usr gain <ch|all> <g>
//	usr mux <ch|all> <m>
//	usr powerdown <ch> <0|1>
//	usr srb1 <0|1>
func (e *Executor) execUsr(args []string) string {
	if len(args) == 0 {
		return fail("usr wants a verb")
	}
	switch args[0] {
	case "samplerate":
		if len(args) != 2 {
			return fail("samplerate wants one argument")
		}
		hz, err := strconv.Atoi(args[1])
		if err != nil {
			return fail("bad sample rate %q", args[1])
		}
		preset, err := e.Device.SetSampleRate(hz)
		if err != nil {
			return fail(err.Error())
		}
		e.Shared.SetRatePreset(preset)
		e.Cfg.SampleRate = hz
		e.persistCapture()
		return ok()
	case "gain":
		ch, value, reply := parseChannelArg(args[1:])
		if reply != "" {
			return reply
		}
		if err := e.Device.SetChannelGain(ch, value); err != nil {
			return fail(err.Error())
		}
		return ok()
	case "mux":
		ch, value, reply := parseChannelArg(args[1:])
		if reply != "" {
			return reply
		}
		if err := e.Device.SetChannelMux(ch, byte(value)); err != nil {
			return fail(err.Error())
		}
		return ok()
	case "powerdown":
		ch, value, reply := parseChannelArg(args[1:])
		if reply != "" {
			return reply
		}
		if ch < 0 {
			return fail("powerdown wants a channel number")
		}
		if err := e.Device.SetChannelPowerDown(ch, value != 0); err != nil {
			return fail(err.Error())
		}
		return ok()
	case "srb1":
		if len(args) != 2 {
			return fail("srb1 wants one argument")
		}
		on, err := strconv.Atoi(args[1])
		if err != nil || (on != 0 && on != 1) {
			return fail("srb1 wants 0 or 1")
		}
		if err := e.Device.SetSRB1(on == 1); err != nil {
			return fail(err.Error())
		}
		return ok()
	}
	return fail("unknown usr verb: %s", args[0])
}

// parseChannelArg parses "<ch|all> <value>"; ch is -1 for all.
func parseChannelArg(args []string) (int, int, string) {
	if len(args) != 2 {
		return 0, 0, fail("wants a channel and a value")
	}
	ch := -1
	if args[0] != "all" {
		parsed, err := strconv.Atoi(args[0])
		if err != nil || parsed < 0 || parsed >= dsp.NumChannels {
			return 0, 0, fail("channel must be 0..%d or all", dsp.NumChannels-1)
		}
		ch = parsed
	}
	value, err := strconv.Atoi(args[1])
	if err != nil {
		return 0, 0, fail("bad value %q", args[1])
	}
	return ch, value, ""
}
