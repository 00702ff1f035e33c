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

package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/meower-bci/go-exg/pkg/acq"
	"github.com/meower-bci/go-exg/pkg/config"
	"github.com/meower-bci/go-exg/pkg/log"
	"github.com/meower-bci/go-exg/pkg/srv/link"
)

const (
	ApiPort = 8000
)

// CommandExecutor runs one control line and returns the single reply line.
type CommandExecutor interface {
	Execute(line string) string
}

// CommandBody ...
type CommandBody struct {
	Command string `json:"command"`
}

// CommandReply ...
type CommandReply struct {
	Reply string `json:"reply"`
}

// Status is the full device snapshot served on /api/status.
type Status struct {
	Link    link.Snapshot `json:"link"`
	Battery float32       `json:"battery"`
}

// ApiServer mirrors the UDP control surface over HTTP so the device can be
// driven from scripts on the local network without speaking the link
// protocol.
type ApiServer struct {
	context.Context
	*config.Config
	*mux.Router

	link    *link.LinkServer
	battery *acq.Battery
	exec    CommandExecutor
}

func NewApiServer(ctx context.Context, cfg *config.Config, l *link.LinkServer, battery *acq.Battery, exec CommandExecutor) *ApiServer {
	log.Info("Initializing API server with address: %s port: %d", cfg.DeviceIP, ApiPort)

	return &ApiServer{
		Context: ctx,
		Config:  cfg,
		link:    l,
		battery: battery,
		exec:    exec,
	}
}

// Run ...
func (s *ApiServer) Run() error {
	log.Info("Starting API server: address: %s port: %d", s.Config.DeviceIP, ApiPort)
	s.configureRouter()
	httpServer := &http.Server{
		Handler: s.Router,
		Addr:    fmt.Sprintf("%s:%d", s.Config.DeviceIP, ApiPort),
	}
	return httpServer.ListenAndServe()
}

func (s *ApiServer) configureRouter() {
	s.Router = mux.NewRouter()
	subRouter := s.Router.PathPrefix("/api").Subrouter()
	subRouter.HandleFunc("/status", s.handleStatus()).Methods("GET")
	subRouter.HandleFunc("/stream/start", s.handleStream(true)).Methods("POST")
	subRouter.HandleFunc("/stream/stop", s.handleStream(false)).Methods("POST")
	subRouter.HandleFunc("/command", s.handleCommand()).Methods("POST")
}

func (s *ApiServer) handleStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := Status{
			Link:    s.link.GetSnapshot(),
			Battery: s.battery.Voltage(),
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(status)
	}
}

func (s *ApiServer) handleStream(on bool) http.HandlerFunc {
	verb := "sys stop_cnt"
	if on {
		verb = "sys start_cnt"
	}
	return func(w http.ResponseWriter, r *http.Request) {
		reply := s.exec.Execute(verb)
		if !strings.HasPrefix(reply, "OK") {
			http.Error(w, reply, http.StatusConflict)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}

func (s *ApiServer) handleCommand() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := &CommandBody{}
		if err := json.NewDecoder(r.Body).Decode(body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		reply := s.exec.Execute(body.Command)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(CommandReply{Reply: reply})
	}
}
