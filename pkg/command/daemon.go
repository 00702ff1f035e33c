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
	"time"

	"github.com/meower-bci/go-exg/pkg/acq"
	"github.com/meower-bci/go-exg/pkg/bus"
	"github.com/meower-bci/go-exg/pkg/config"
	"github.com/meower-bci/go-exg/pkg/device"
	"github.com/meower-bci/go-exg/pkg/layers"
	"github.com/meower-bci/go-exg/pkg/log"
	"github.com/meower-bci/go-exg/pkg/settings"
	"github.com/meower-bci/go-exg/pkg/srv/api"
	"github.com/meower-bci/go-exg/pkg/srv/link"
	"github.com/meower-bci/go-exg/pkg/srv/stream"
)

// HousekeepingPeriodMs paces the slow loop: battery sampling, link
// watchdogs, and command dispatch.
const HousekeepingPeriodMs = 50

// defaultBattery is reported when the bus backend can not measure the rail.
const defaultBattery = 4.2

// StartDaemon wires the whole device together and runs it until the link
// gives up or a server fails.
func StartDaemon(cfg *config.Config) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := settings.NewStore(cfg.SettingsDBPath())
	if err != nil {
		return err
	}
	defer store.Close()

	bootCount, err := store.IncrementBootCount()
	if err != nil {
		return err
	}
	log.Info("Boot count: %d", bootCount)

	// runtime-changed capture settings win over the config file
	if found, loadErr := store.Get(settings.KeyCapture, cfg.CaptureConfig); loadErr != nil {
		return loadErr
	} else if found {
		log.Debug("Loaded persisted capture settings")
	}
	if err = cfg.Validate(); err != nil {
		return err
	}

	var b bus.Bus
	switch cfg.Backend {
	case "serial":
		bridge, busErr := bus.NewSerialBridge(cfg.SerialPort, cfg.BaudRate)
		if busErr != nil {
			return busErr
		}
		defer bridge.Close()
		b = bridge
	default:
		sim := bus.NewSim()
		defer sim.Close()
		b = sim
	}

	dev := device.NewDevice(b)
	if err = dev.FullReset(); err != nil {
		return err
	}
	if _, err = dev.SetSampleRate(cfg.SampleRate); err != nil {
		return err
	}

	shared := acq.NewShared(cfg)
	notifier := acq.NewNotifier()
	if src, ok := b.(bus.DataReadySource); ok {
		src.OnDataReady(notifier.Notify)
	}
	queue := acq.NewQueue(cfg.QueueSlots, cfg.FramesPerPacket*layers.FrameSize)
	task := acq.NewTask(b, notifier, queue, shared, cfg.FramesPerPacket)

	linkServer, err := link.NewLinkServer(ctx, cfg, queue)
	if err != nil {
		return err
	}

	readBattery := func() float32 { return defaultBattery }
	if br, ok := b.(bus.BatteryReader); ok {
		readBattery = br.ReadBattery
	}
	battery := acq.NewBattery(readBattery)

	streamServer := stream.NewStreamServer(ctx, cfg, queue, battery, linkServer)

	exec := &Executor{
		Bus:    b,
		Device: dev,
		Shared: shared,
		Task:   task,
		Link:   linkServer,
		Store:  store,
		Cfg:    cfg,
		Reboot: cancel,
	}
	apiServer := api.NewApiServer(ctx, cfg, linkServer, battery, exec)

	errChan := make(chan error, 1)
	go func() { errChan <- task.Run(ctx) }()
	go func() { errChan <- linkServer.Run() }()
	go func() { errChan <- streamServer.Run() }()
	go func() { errChan <- apiServer.Run() }()

	// housekeeping: battery, watchdogs, and at most one command per tick
	go func() {
		ticker := time.NewTicker(HousekeepingPeriodMs * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			now := acq.NowMs()
			battery.Update(now)
			linkServer.Update(now)

			select {
			case cmd := <-linkServer.Commands():
				reply := exec.Execute(cmd.Line)
				linkServer.SendControl([]byte(reply), cmd.UDPAddr)
			default:
			}

			if linkServer.Lost() {
				errChan <- link.ErrNotConnected{}
				return
			}
		}
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err = <-errChan:
		return err
	}
}
