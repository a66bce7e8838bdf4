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

// Package main is a command-line client for a remote machine's
// components.
//
// Usage:
//
//	roctl [global flags] invoke ADDR OP [ARG...]
//	roctl [global flags] list
//	roctl [global flags] watch [-cron EXPR | -every DUR] [-changes] ADDR OP [ARG...]
//	roctl [global flags] script FILE
//	roctl [global flags] dump [SESSION]
//
// ADDR is an address or an alias from the configuration.  Each ARG
// is parsed as JSON, and anything that doesn't parse is text.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/Comcast/ocremote/channel"
	"github.com/Comcast/ocremote/component"
	"github.com/Comcast/ocremote/components"
	"github.com/Comcast/ocremote/config"
	"github.com/Comcast/ocremote/core"
	"github.com/Comcast/ocremote/sio"
	"github.com/Comcast/ocremote/util"

	"go.uber.org/zap"
)

func main() {
	var (
		configFile = flag.String("config", "roctl.yaml", "Configuration file")
		transport  = flag.String("transport", "", "Transport: "+strings.Join(config.Transports, ", "))
		address    = flag.String("address", "", "Machine address (host:port or URL)")
		timeout    = flag.Duration("timeout", 0, "Per-call timeout")
		logLevel   = flag.String("log", "", "Log level")
		record     = flag.String("record", "", "bbolt file for recording (or replaying) traffic")
		session    = flag.String("session", "", "Recording session")
	)
	flag.Usage = usage
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fail(err)
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "transport":
			cfg.Transport = *transport
		case "address":
			cfg.Address = *address
		case "timeout":
			cfg.Timeout = *timeout
		case "log":
			cfg.LogLevel = *logLevel
		case "record":
			cfg.Record = *record
		case "session":
			cfg.Session = *session
		}
	})
	if err = cfg.Check(); err != nil {
		fail(err)
	}
	if _, err = cfg.Logger(); err != nil {
		fail(err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err = run(ctx, cfg, flag.Args(), os.Stdout); err != nil {
		fail(err)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: roctl [flags] COMMAND [ARGS]

Commands:
  invoke ADDR OP [ARG...]  Invoke OP and print the results
  list                     List the machine's components
  watch ADDR OP [ARG...]   Poll OP (see "roctl watch -h")
  script FILE              Run a script with invoke(ADDR, OP, ARG...)
  dump [SESSION]           Print a recorded session (or list sessions)

Flags:
`)
	flag.PrintDefaults()
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}

// run dispatches a command.
func run(ctx context.Context, cfg *config.Config, args []string, out io.Writer) error {
	if len(args) == 0 {
		return errors.New("no command (try -h)")
	}
	cmd, args := args[0], args[1:]

	if cmd == "dump" {
		return dump(cfg, args, out)
	}

	c, err := cfg.Channel(ctx)
	if err != nil {
		return err
	}
	defer c.Close()

	switch cmd {
	case "invoke":
		return invoke(ctx, cfg, c, args, out)
	case "list":
		return list(ctx, c, out)
	case "watch":
		return watch(ctx, cfg, c, args, out)
	case "script":
		return script(ctx, cfg, c, args, out)
	}
	return fmt.Errorf("unknown command %q", cmd)
}

// parseArgs reads each argument as JSON, or as text when it isn't.
func parseArgs(ss []string) []interface{} {
	acc := make([]interface{}, len(ss))
	for i, s := range ss {
		v, err := core.UnmarshalVariant([]byte(s))
		if err != nil {
			v = core.Text(s)
		}
		acc[i] = v
	}
	return acc
}

// target resolves a name to a Handle.  When the configuration gives
// the name a kind, the Handle carries it.
func target(cfg *config.Config, reg *component.Registry, name string) (*component.Handle, error) {
	addr, kind, err := cfg.Resolve(name)
	if err != nil {
		return nil, err
	}
	if kind != "" && !knownKind(kind) {
		util.Logger().Warn("unfamiliar kind", zap.String("kind", kind))
	}
	return reg.Handle(addr, kind)
}

func knownKind(kind string) bool {
	for _, k := range components.Kinds {
		if k == kind {
			return true
		}
	}
	return false
}

func printResult(out io.Writer, r core.Result) error {
	js, err := json.Marshal(core.Values(r))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "%s\n", js)
	return err
}

func invoke(ctx context.Context, cfg *config.Config, c *channel.Channel, args []string, out io.Writer) error {
	if len(args) < 2 {
		return errors.New("usage: invoke ADDR OP [ARG...]")
	}
	h, err := target(cfg, component.NewRegistry(c), args[0])
	if err != nil {
		return err
	}
	r, err := h.Invoke(ctx, args[1], parseArgs(args[2:])...)
	if err != nil {
		return err
	}
	return printResult(out, r)
}

func list(ctx context.Context, c *channel.Channel, out io.Writer) error {
	v, err := c.InvokeFirst(ctx, core.NilAddress, channel.ListOp, core.KindTable)
	if err != nil {
		return err
	}
	t, err := core.AsTable(v)
	if err != nil {
		return err
	}
	m := t.StringMap()
	addrs := make([]string, 0, len(m))
	for addr := range m {
		addrs = append(addrs, addr)
	}
	sort.Strings(addrs)
	for _, addr := range addrs {
		kind, err := core.AsText(m[addr])
		if err != nil {
			return fmt.Errorf("%s: %w", addr, err)
		}
		if _, err = fmt.Fprintf(out, "%s %s\n", addr, kind); err != nil {
			return err
		}
	}
	return nil
}

// dump prints a session's frames, one JSON object per line, or the
// sessions when none is named.
func dump(cfg *config.Config, args []string, out io.Writer) error {
	if cfg.Record == "" {
		return errors.New("no record file")
	}
	store, err := sio.OpenStore(cfg.Record)
	if err != nil {
		return err
	}
	defer store.Close()

	if len(args) == 0 {
		ss, err := store.Sessions()
		if err != nil {
			return err
		}
		for _, s := range ss {
			fmt.Fprintln(out, s)
		}
		return nil
	}

	entries, err := store.Transcript(args[0])
	if err != nil {
		return err
	}
	enc := json.NewEncoder(out)
	for _, e := range entries {
		if err = enc.Encode(e); err != nil {
			return err
		}
	}
	return nil
}
