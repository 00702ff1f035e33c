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

package control

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/meower-bci/go-exg/pkg/command"
	"github.com/meower-bci/go-exg/pkg/config"
)

// NewCommand creates the control command with its subcommands talking to a
// running daemon over the HTTP API
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "control",
		Short: "Control a running daemon",
	}
	cmd.AddCommand(NewStatusCommand())
	cmd.AddCommand(NewStreamCommand(true))
	cmd.AddCommand(NewStreamCommand(false))
	cmd.AddCommand(NewExecCommand())
	return cmd
}

func NewStatusCommand() *cobra.Command {
	cfg := config.NewDefaultConfig()
	cfg.LoadConfig()
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the device status",
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient := command.NewApiClient(cfg)
			status, err := apiClient.Status()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Link state: %s\n", status.Link.State)
			if status.Link.Peer != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Host: %s\n", status.Link.Peer)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Queue length: %d\n", status.Link.QueueLen)
			fmt.Fprintf(cmd.OutOrStdout(), "Dropped packets: %d\n", status.Link.Dropped)
			fmt.Fprintf(cmd.OutOrStdout(), "Battery: %.2f V\n", status.Battery)
			return nil
		},
	}
	return cmd
}

func NewStreamCommand(on bool) *cobra.Command {
	use, short := "start", "Start streaming data packets"
	if !on {
		use, short = "stop", "Stop streaming data packets"
	}
	cfg := config.NewDefaultConfig()
	cfg.LoadConfig()
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient := command.NewApiClient(cfg)
			return apiClient.Stream(on)
		},
	}
	return cmd
}

func NewExecCommand() *cobra.Command {
	cfg := config.NewDefaultConfig()
	cfg.LoadConfig()
	cmd := &cobra.Command{
		Use:   "exec",
		Short: "Run one control line, e.g. 'sys digitalgain 4'",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient := command.NewApiClient(cfg)
			reply, err := apiClient.Command(strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), reply)
			return nil
		},
	}
	return cmd
}
