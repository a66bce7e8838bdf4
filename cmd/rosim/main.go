/* Copyright 2019 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package main serves a simulated machine described by a fixture.
//
//	rosim -fixture machine.yaml -tcp :8081 -http :8080
//
// The HTTP listener answers POSTed request frames at / and WebSocket
// connections at /ws.  With -mqtt, rosim also answers requests
// published to <prefix>/request, and with -stdio it answers request
// frames on stdin.
package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/Comcast/ocremote/interpreters/goja"
	"github.com/Comcast/ocremote/sim"
	"github.com/Comcast/ocremote/sio"
	"github.com/Comcast/ocremote/util"

	"go.uber.org/zap"
)

func main() {
	var (
		fixture   = flag.String("fixture", "machine.yaml", "Fixture file")
		libraries = flag.String("libraries", ".", "Directory for script libraries")
		tcpAddr   = flag.String("tcp", "", "TCP listen address")
		httpAddr  = flag.String("http", "", "HTTP (and WebSocket) listen address")
		useMQTT   = flag.Bool("mqtt", false, "Answer requests from an MQTT broker")
		useStdio  = flag.Bool("stdio", false, "Answer requests on stdin")
		logLevel  = flag.String("log", "info", "Log level")
		dev       = flag.Bool("dev", false, "Development logging")

		mqttOpts = sio.DefaultMQTTOptions()
	)
	fs := flag.NewFlagSet("mqtt", flag.ExitOnError)
	mqttOpts.Flags(fs)
	mqttArgs := flag.String("mqtt-args", "", "Flags for the MQTT session (mosquitto-style, space-separated)")

	flag.Parse()

	l, err := util.NewLogger(*logLevel, *dev)
	if err != nil {
		fail(err)
	}
	util.SetLogger(l)

	if err = fs.Parse(strings.Fields(*mqttArgs)); err != nil {
		fail(err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	m, err := load(ctx, *fixture, *libraries)
	if err != nil {
		fail(err)
	}

	var (
		wg   sync.WaitGroup
		errs = make(chan error, 4)
	)
	start := func(name string, f func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := f(); err != nil && ctx.Err() == nil {
				errs <- fmt.Errorf("%s: %w", name, err)
			}
		}()
	}

	if *tcpAddr != "" {
		ln, err := net.Listen("tcp", *tcpAddr)
		if err != nil {
			fail(err)
		}
		l.Info("listening", zap.String("tcp", ln.Addr().String()))
		start("tcp", func() error {
			return serveTCP(ctx, m, ln)
		})
	}

	if *httpAddr != "" {
		server := &http.Server{
			Addr:    *httpAddr,
			Handler: mux(ctx, m),
		}
		go func() {
			<-ctx.Done()
			server.Close()
		}()
		l.Info("listening", zap.String("http", *httpAddr))
		start("http", server.ListenAndServe)
	}

	if *useMQTT {
		client, err := mqttOpts.Connect(ctx)
		if err != nil {
			fail(err)
		}
		defer client.Disconnect(uint(mqttOpts.Quiesce.Milliseconds()))
		start("mqtt", func() error {
			return m.ServeMQTT(ctx, client, mqttOpts.Prefix, byte(mqttOpts.QoS))
		})
	}

	if *useStdio {
		start("stdio", func() error {
			err := m.ServeStream(ctx, stdio{})
			// EOF on stdin is the end.
			cancel()
			return err
		})
	}

	select {
	case <-ctx.Done():
	case err = <-errs:
		cancel()
	}
	wg.Wait()
	if err != nil {
		fail(err)
	}
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}

type stdio struct{}

func (stdio) Read(p []byte) (int, error) {
	return os.Stdin.Read(p)
}

func (stdio) Write(p []byte) (int, error) {
	return os.Stdout.Write(p)
}

// load builds a Machine from a fixture file.
func load(ctx context.Context, filename, libraries string) (*sim.Machine, error) {
	f, err := sim.ReadFixture(filename)
	if err != nil {
		return nil, err
	}
	i := goja.NewInterpreter()
	i.LibraryProvider = goja.MakeFileLibraryProvider(libraries)

	m := sim.NewMachine()
	if err = m.Install(ctx, f, i); err != nil {
		return nil, err
	}
	for addr, kind := range m.List() {
		util.Logger().Info("component",
			zap.String("address", addr.String()),
			zap.String("kind", kind))
	}
	return m, nil
}

// mux serves request frames at / and WebSocket connections at /ws.
func mux(ctx context.Context, m *sim.Machine) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/", m.HTTPHandler())
	mux.Handle("/ws", m.WebSocketHandler(ctx))
	return mux
}

// serveTCP answers each connection with ServeStream until the
// listener fails or the context ends.
func serveTCP(ctx context.Context, m *sim.Machine, ln net.Listener) error {
	go func() {
		<-ctx.Done()
		ln.Close()
	}()
	log := util.Logger()
	for {
		conn, err := ln.Accept()
		if err != nil {
			return err
		}
		go func() {
			defer conn.Close()
			log.Debug("connection", zap.String("remote", conn.RemoteAddr().String()))
			// The connection ends with the context, too.
			stop := make(chan struct{})
			defer close(stop)
			go func() {
				select {
				case <-ctx.Done():
					conn.Close()
				case <-stop:
				}
			}()
			if err := m.ServeStream(ctx, conn); err != nil {
				log.Debug("connection ended", zap.Error(err))
			}
		}()
	}
}
