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

// Package config is the configuration shared by the binaries: how to
// reach the machine, how long to wait, how to log, and what to call
// things.
//
//	transport: ws
//	address: ws://localhost:8080/ws
//	timeout: 2s
//	logLevel: debug
//	record: traffic.db
//	session: morning
//	components:
//	  ap:
//	    address: 0c0ffee0-0000-4000-8000-000000000001
//	    kind: access_point
package config

import (
	"context"
	"errors"
	"fmt"
	"io/ioutil"
	"os"
	"time"

	"github.com/Comcast/ocremote/channel"
	"github.com/Comcast/ocremote/core"
	"github.com/Comcast/ocremote/sio"
	"github.com/Comcast/ocremote/util"

	"go.uber.org/zap"
	"gopkg.in/yaml.v2"
)

// Transports.
const (
	Stream = "stream" // stdin and stdout
	TCP    = "tcp"
	WS     = "ws"
	MQTT   = "mqtt"
	HTTP   = "http"
	Replay = "replay" // answer from a recorded session
)

var Transports = []string{Stream, TCP, WS, MQTT, HTTP, Replay}

// Alias names a component.
type Alias struct {
	Address string `yaml:"address"`
	Kind    string `yaml:"kind,omitempty"`
}

type Config struct {
	Transport string        `yaml:"transport"`
	Address   string        `yaml:"address,omitempty"`
	Timeout   time.Duration `yaml:"timeout,omitempty"`

	LogLevel    string `yaml:"logLevel,omitempty"`
	Development bool   `yaml:"development,omitempty"`

	// Record names a bbolt file.  With any transport but Replay,
	// traffic is recorded there under Session.  With Replay,
	// Session is answered from it.
	Record  string `yaml:"record,omitempty"`
	Session string `yaml:"session,omitempty"`

	MQTT *sio.MQTTOptions `yaml:"mqtt,omitempty"`

	// Libraries is a directory of script libraries.
	Libraries string `yaml:"libraries,omitempty"`

	Components map[string]*Alias `yaml:"components,omitempty"`
}

// Default is a configuration for a machine on localhost.
func Default() *Config {
	return &Config{
		Transport: TCP,
		Address:   "localhost:8081",
		Timeout:   channel.DefaultTimeout,
		LogLevel:  "info",
		Session:   "default",
		MQTT:      sio.DefaultMQTTOptions(),
	}
}

// Parse reads YAML over the defaults.
func Parse(bs []byte) (*Config, error) {
	c := Default()
	if err := yaml.Unmarshal(bs, c); err != nil {
		return nil, err
	}
	if err := c.Check(); err != nil {
		return nil, err
	}
	return c, nil
}

// Load reads a file.  A missing file gives the defaults.
func Load(filename string) (*Config, error) {
	bs, err := ioutil.ReadFile(filename)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return nil, err
	}
	c, err := Parse(bs)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return c, nil
}

// Check validates the configuration.
func (c *Config) Check() error {
	known := false
	for _, t := range Transports {
		known = known || t == c.Transport
	}
	if !known {
		return fmt.Errorf("unknown transport %q", c.Transport)
	}
	switch c.Transport {
	case TCP, WS, HTTP:
		if c.Address == "" {
			return fmt.Errorf("transport %s needs an address", c.Transport)
		}
	case Replay:
		if c.Record == "" {
			return errors.New("replay needs a record file")
		}
	}
	for name, a := range c.Components {
		if a == nil {
			return fmt.Errorf("component %s has no address", name)
		}
		if _, err := core.ParseAddress(a.Address); err != nil {
			return fmt.Errorf("component %s: %w", name, err)
		}
	}
	return nil
}

// Resolve accepts a component alias or an address.  The kind is empty
// unless the alias names one.
func (c *Config) Resolve(name string) (core.Address, string, error) {
	if a, have := c.Components[name]; have {
		addr, err := core.ParseAddress(a.Address)
		return addr, a.Kind, err
	}
	addr, err := core.ParseAddress(name)
	if err != nil {
		return addr, "", fmt.Errorf("%q is neither an alias nor an address", name)
	}
	return addr, "", nil
}

// Logger builds the configured logger and makes it the shared one.
func (c *Config) Logger() (*zap.Logger, error) {
	l, err := util.NewLogger(c.LogLevel, c.Development)
	if err != nil {
		return nil, err
	}
	util.SetLogger(l)
	return l, nil
}

// recorded is a Link that closes its Store after itself.
type recorded struct {
	channel.Link
	store *sio.Store
}

func (l *recorded) Close() error {
	err := l.Link.Close()
	if e := l.store.Close(); err == nil {
		err = e
	}
	return err
}

// Dial connects with the configured transport.
func (c *Config) Dial(ctx context.Context) (channel.Link, error) {
	if c.Transport == Replay {
		store, err := sio.OpenStore(c.Record)
		if err != nil {
			return nil, err
		}
		entries, err := store.Transcript(c.Session)
		if err != nil {
			store.Close()
			return nil, err
		}
		r, err := sio.NewReplayer(entries)
		if err != nil {
			store.Close()
			return nil, err
		}
		return &recorded{
			Link:  channel.NewRoundTripLink(r),
			store: store,
		}, nil
	}

	link, err := c.dial(ctx)
	if err != nil {
		return nil, err
	}
	if c.Record == "" {
		return link, nil
	}
	store, err := sio.OpenStore(c.Record)
	if err != nil {
		link.Close()
		return nil, err
	}
	return &recorded{
		Link:  sio.NewRecorder(link, store, c.Session),
		store: store,
	}, nil
}

func (c *Config) dial(ctx context.Context) (channel.Link, error) {
	switch c.Transport {
	case Stream:
		return sio.NewStdioLink(), nil
	case TCP:
		return sio.DialTCP(ctx, c.Address)
	case WS:
		return sio.DialWebSocket(ctx, c.Address, nil)
	case MQTT:
		if c.MQTT == nil {
			return nil, errors.New("mqtt transport without mqtt options")
		}
		return sio.DialMQTT(ctx, c.MQTT)
	case HTTP:
		rt, err := sio.NewHTTPRoundTripper(c.Address)
		if err != nil {
			return nil, err
		}
		return channel.NewRoundTripLink(rt), nil
	}
	return nil, fmt.Errorf("unknown transport %q", c.Transport)
}

// Channel dials and starts a Channel with the configured timeout.
func (c *Config) Channel(ctx context.Context) (*channel.Channel, error) {
	link, err := c.Dial(ctx)
	if err != nil {
		return nil, err
	}
	return channel.New(ctx, link, &channel.Options{
		Timeout: c.Timeout,
		Logger:  util.Logger(),
	}), nil
}
