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

package daemon

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/meower-bci/go-exg/pkg/command"
	"github.com/meower-bci/go-exg/pkg/config"
)

const (
	IPOptionName      = "ip"
	BackendOptionName = "backend"
	SerialOptionName  = "serial-port"
)

// NewCommand creates the command that runs the acquisition daemon
func NewCommand() *cobra.Command {
	var ip, backend, serialPort string
	cfg := config.NewDefaultConfig()
	cfg.LoadConfig()
	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Run the acquisition daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			if ip != "" {
				cfg.DeviceIP = ip
			}
			if backend != "" {
				cfg.Backend = backend
			}
			if serialPort != "" {
				cfg.SerialPort = serialPort
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return command.StartDaemon(cfg)
		},
	}
	cmd.Flags().StringVar(&ip, IPOptionName, "", fmt.Sprintf("IP to bind. E.g. %s", config.DefaultDeviceIP))
	cmd.Flags().StringVar(&backend, BackendOptionName, "", "Bus backend: sim or serial")
	cmd.Flags().StringVar(&serialPort, SerialOptionName, "", fmt.Sprintf("Serial port of the bridge. E.g. %s", config.DefaultSerialPort))

	return cmd
}
