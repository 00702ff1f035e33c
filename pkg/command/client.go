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
	"errors"
	"fmt"

	"github.com/imroc/req"

	"github.com/meower-bci/go-exg/pkg/config"
	"github.com/meower-bci/go-exg/pkg/srv/api"
)

type ApiClient struct {
	*config.Config
	ApiPrefix string
}

func NewApiClient(cfg *config.Config) *ApiClient {
	return &ApiClient{
		Config:    cfg,
		ApiPrefix: fmt.Sprintf("http://%s:%d/api", cfg.DeviceIP, api.ApiPort),
	}
}

func (c *ApiClient) statusUrl() string {
	return fmt.Sprintf("%s/status", c.ApiPrefix)
}

func (c *ApiClient) streamUrl(verb string) string {
	return fmt.Sprintf("%s/stream/%s", c.ApiPrefix, verb)
}

func (c *ApiClient) commandUrl() string {
	return fmt.Sprintf("%s/command", c.ApiPrefix)
}

// Status api request returning the device snapshot
func (c *ApiClient) Status() (*api.Status, error) {
	r, err := req.Get(c.statusUrl())
	if err != nil {
		return nil, err
	}

	if r.Response().StatusCode != 200 {
		return nil, errors.New(r.Response().Status)
	}

	status := &api.Status{}
	err = r.ToJSON(status)
	if err != nil {
		return nil, err
	}
	return status, nil
}

// Stream api request to start or stop streaming
func (c *ApiClient) Stream(on bool) error {
	verb := "stop"
	if on {
		verb = "start"
	}
	r, err := req.Post(c.streamUrl(verb))
	if err != nil {
		return err
	}

	if r.Response().StatusCode != 200 {
		return errors.New(r.Response().Status)
	}
	return nil
}

// Command api request running one control line and returning the reply
func (c *ApiClient) Command(line string) (string, error) {
	body := &api.CommandBody{Command: line}
	r, err := req.Post(c.commandUrl(), req.BodyJSON(body))
	if err != nil {
		return "", err
	}

	if r.Response().StatusCode != 200 {
		return "", errors.New(r.Response().Status)
	}

	reply := &api.CommandReply{}
	err = r.ToJSON(reply)
	if err != nil {
		return "", err
	}
	return reply.Reply, nil
}
