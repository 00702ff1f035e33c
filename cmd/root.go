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

package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/meower-bci/go-exg/cmd/completion"
	configcmd "github.com/meower-bci/go-exg/cmd/config"
	"github.com/meower-bci/go-exg/cmd/control"
	"github.com/meower-bci/go-exg/cmd/daemon"
	"github.com/meower-bci/go-exg/cmd/dump"
	pkgconfig "github.com/meower-bci/go-exg/pkg/config"
	"github.com/meower-bci/go-exg/pkg/log"
)

const (
	LogLevelOptionName = "log-level"
)

func NewRootCommand(out io.Writer) *cobra.Command {
	var logLevel string
	cfg := pkgconfig.NewDefaultConfig()
	cfg.LoadConfig()
	cmd := &cobra.Command{
		Use:   "go-exg",
		Short: "Tool to run and control the bio-signal acquisition device",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if logLevel != "" {
				cfg.LogLevel = logLevel
			}
			log.Init(cmd.ErrOrStderr(), cfg.LogLevel)
		},
	}
	cmd.SetOut(out)
	cmd.AddCommand(configcmd.NewCommand())
	cmd.AddCommand(daemon.NewCommand())
	cmd.AddCommand(control.NewCommand())
	cmd.AddCommand(dump.NewCommand())
	cmd.AddCommand(completion.NewCommand())
	cmd.PersistentFlags().StringVar(&logLevel, LogLevelOptionName, "", fmt.Sprintf("Log level. %s", log.HelpLevels))
	return cmd
}
