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

package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"io"
	"sync"
	"time"

	"github.com/Comcast/ocremote/channel"
	"github.com/Comcast/ocremote/component"
	"github.com/Comcast/ocremote/config"
	"github.com/Comcast/ocremote/core"
	"github.com/Comcast/ocremote/poll"
)

// sample is how a poll.Sample is printed.
type sample struct {
	Id      string      `json:"id"`
	At      time.Time   `json:"at"`
	Result  core.Values `json:"result,omitempty"`
	Error   string      `json:"error,omitempty"`
	Changed bool        `json:"changed"`
}

func watch(ctx context.Context, cfg *config.Config, c *channel.Channel, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	var (
		cron    = fs.String("cron", "", "Cron expression (which may have seconds)")
		every   = fs.Duration("every", 5*time.Second, "Polling interval when there's no -cron")
		changes = fs.Bool("changes", false, "Only print changes")
		count   = fs.Int("n", 0, "Stop after this many samples (0 means never)")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}
	args = fs.Args()
	if len(args) < 2 {
		return errors.New("usage: watch [flags] ADDR OP [ARG...]")
	}

	var sched poll.Schedule = poll.Every(*every)
	if *cron != "" {
		var err error
		if sched, err = poll.Cron(*cron); err != nil {
			return err
		}
	}

	h, err := target(cfg, component.NewRegistry(c), args[0])
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		mu      sync.Mutex
		enc     = json.NewEncoder(out)
		printed int
		failed  error
	)
	emit := func(ctx context.Context, s *poll.Sample) {
		mu.Lock()
		defer mu.Unlock()
		if *count > 0 && *count <= printed {
			return
		}
		x := &sample{
			Id:      s.Id,
			At:      s.At,
			Result:  core.Values(s.Result),
			Changed: s.Changed,
		}
		if s.Err != nil {
			x.Error = s.Err.Error()
		}
		if err := enc.Encode(x); err != nil && failed == nil {
			failed = err
			cancel()
		}
		printed++
		if *count > 0 && *count <= printed {
			cancel()
		}
	}

	p := poll.NewPoller(emit)
	p.Add(ctx, args[1], &poll.Watch{
		Target:      h,
		Op:          args[1],
		Args:        parseArgs(args[2:]),
		Schedule:    sched,
		OnlyChanges: *changes,
	})
	p.Wait()

	mu.Lock()
	defer mu.Unlock()
	return failed
}
