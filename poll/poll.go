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

// Package poll invokes operations on a schedule and reports what they
// return.
//
// Properties a component doesn't declare cacheable (space used, a
// printer's status) can only be watched by asking again.  A Poller
// runs any number of named Watches, each with its own Schedule.
package poll

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Comcast/ocremote/core"
	"github.com/Comcast/ocremote/util"

	"github.com/gorhill/cronexpr"
	"go.uber.org/zap"
)

// Schedule says when to poll next.  A zero time means never again.
type Schedule interface {
	Next(from time.Time) time.Time
}

// Cron parses a cron expression, which may have a seconds field.
func Cron(expr string) (Schedule, error) {
	x, err := cronexpr.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("cron %q: %w", expr, err)
	}
	return x, nil
}

// Every polls at a fixed interval.
type Every time.Duration

func (d Every) Next(from time.Time) time.Time {
	return from.Add(time.Duration(d))
}

// Target is something operations can be invoked on.  Every
// component wrapper is a Target.
type Target interface {
	Invoke(ctx context.Context, op string, args ...interface{}) (core.Result, error)
}

// Watch is one operation to poll.
type Watch struct {
	Target   Target
	Op       string
	Args     []interface{}
	Schedule Schedule

	// OnlyChanges suppresses samples whose result (or error)
	// matches the previous one.
	OnlyChanges bool
}

// Sample is one poll's outcome.
type Sample struct {
	Id      string
	At      time.Time
	Result  core.Result
	Err     error
	Changed bool
}

// Poller runs Watches and hands their Samples to its Emitter.
type Poller struct {
	Emitter func(context.Context, *Sample)

	sync.Mutex
	watches map[string]chan struct{}
	wg      sync.WaitGroup
	log     *zap.Logger
}

func NewPoller(emitter func(context.Context, *Sample)) *Poller {
	return &Poller{
		Emitter: emitter,
		watches: make(map[string]chan struct{}),
		log:     util.Logger(),
	}
}

// Add starts a Watch.  A Watch with the same id is replaced.
func (p *Poller) Add(ctx context.Context, id string, w *Watch) {
	ctl := make(chan struct{})

	p.Lock()
	if old, have := p.watches[id]; have {
		close(old)
	}
	p.watches[id] = ctl
	p.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.run(ctx, id, w, ctl)
		p.Lock()
		if p.watches[id] == ctl {
			delete(p.watches, id)
		}
		p.Unlock()
	}()
}

// Cancel stops a Watch.
func (p *Poller) Cancel(id string) error {
	p.Lock()
	defer p.Unlock()
	ctl, have := p.watches[id]
	if !have {
		return fmt.Errorf("watch '%s' doesn't exist", id)
	}
	delete(p.watches, id)
	close(ctl)
	return nil
}

// Ids lists the running Watches.
func (p *Poller) Ids() []string {
	p.Lock()
	defer p.Unlock()
	acc := make([]string, 0, len(p.watches))
	for id := range p.watches {
		acc = append(acc, id)
	}
	return acc
}

// Wait waits for every Watch to end.  Watches end when cancelled,
// when their context ends, or when their Schedule runs out.
func (p *Poller) Wait() {
	p.wg.Wait()
}

func (p *Poller) run(ctx context.Context, id string, w *Watch, ctl chan struct{}) {
	var (
		prev  *Sample
		log   = p.log.With(zap.String("watch", id), zap.String("op", w.Op))
		timer = time.NewTimer(0)
	)
	defer timer.Stop()
	if !timer.Stop() {
		<-timer.C
	}

	for {
		now := time.Now()
		at := w.Schedule.Next(now)
		if at.IsZero() {
			log.Debug("schedule exhausted")
			return
		}
		timer.Reset(at.Sub(now))

		select {
		case <-ctx.Done():
			return
		case <-ctl:
			log.Debug("cancelled")
			return
		case <-timer.C:
		}

		r, err := w.Target.Invoke(ctx, w.Op, w.Args...)
		s := &Sample{
			Id:     id,
			At:     time.Now(),
			Result: r,
			Err:    err,
		}
		s.Changed = prev == nil || !same(prev, s)
		prev = s

		if err != nil {
			log.Debug("poll failed", zap.Error(err))
		}
		if w.OnlyChanges && !s.Changed {
			continue
		}
		p.Emitter(ctx, s)
	}
}

func same(a, b *Sample) bool {
	if (a.Err == nil) != (b.Err == nil) {
		return false
	}
	if a.Err != nil {
		return a.Err.Error() == b.Err.Error()
	}
	return core.Equal(core.List(a.Result), core.List(b.Result))
}
