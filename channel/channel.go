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

package channel

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Comcast/ocremote/core"
	"github.com/Comcast/ocremote/util"

	"go.uber.org/zap"
)

// DefaultTimeout bounds a call when neither Options nor the call's
// context say otherwise.
var DefaultTimeout = 5 * time.Second

// Options configures a Channel.
type Options struct {
	// Timeout bounds each call.  Zero means DefaultTimeout.  A
	// negative Timeout means calls are bounded only by their
	// contexts.
	Timeout time.Duration

	// OnOrphan, if not nil, sees every response that arrived for a
	// call that was no longer outstanding.
	OnOrphan func(*Response)

	// Logger defaults to util.Logger().
	Logger *zap.Logger
}

// Stats is a snapshot of a Channel's counters.
type Stats struct {
	Pending int
	Sent    uint64
	Orphans uint64
}

// Channel multiplexes invocations over a Link.
//
// Each call gets a fresh ID.  The reader goroutine matches responses
// to calls by ID, so any number of calls can be outstanding and their
// responses can arrive in any order.  A call is resolved exactly once,
// by whichever of response, timeout, cancellation, or link failure
// first removes it from the pending table.
type Channel struct {
	link Link
	opts Options
	log  *zap.Logger

	mu      sync.Mutex
	pending map[uint64]*Call
	err     error

	nextID  uint64
	sent    uint64
	orphans uint64

	stop    context.CancelFunc
	stopped chan struct{}
}

// New starts a Channel over the given Link.
//
// The Channel's reader goroutine runs until ctx is done, the Link
// fails, or Close is called.
func New(ctx context.Context, link Link, opts *Options) *Channel {
	c := &Channel{
		link:    link,
		pending: make(map[uint64]*Call),
		stopped: make(chan struct{}),
	}
	if opts != nil {
		c.opts = *opts
	}
	if c.opts.Timeout == 0 {
		c.opts.Timeout = DefaultTimeout
	}
	c.log = c.opts.Logger
	if c.log == nil {
		c.log = util.Logger()
	}

	ctx, c.stop = context.WithCancel(ctx)
	go c.read(ctx)

	return c
}

type timeoutKey struct{}

// WithTimeout returns a context that gives calls made with it their
// own timeout in place of the Channel's.
func WithTimeout(ctx context.Context, d time.Duration) context.Context {
	return context.WithValue(ctx, timeoutKey{}, d)
}

func (c *Channel) timeout(ctx context.Context) time.Duration {
	if d, is := ctx.Value(timeoutKey{}).(time.Duration); is {
		return d
	}
	return c.opts.Timeout
}

// Go starts an invocation and returns its Call without waiting.
//
// Argument encoding problems resolve the Call immediately with the
// encoding error.  Nothing is sent in that case.
func (c *Channel) Go(ctx context.Context, addr core.Address, op string, args ...interface{}) *Call {
	id := atomic.AddUint64(&c.nextID, 1)
	call := newCall(id, addr, op)

	vs, err := core.Encode(args...)
	if err != nil {
		call.resolve(nil, err)
		return call
	}

	c.mu.Lock()
	if c.err != nil {
		err := c.err
		c.mu.Unlock()
		call.fail(core.Unreachable, "", err)
		return call
	}
	c.pending[id] = call
	c.mu.Unlock()

	req := &Request{
		ID:      id,
		Address: addr,
		Op:      op,
		Args:    core.Values(vs),
	}

	go c.run(ctx, call, req)

	return call
}

// run sends the request and then waits for the first of the events
// that can settle the call.  The timeout and cancellation also apply
// while the Send is still in progress.
func (c *Channel) run(ctx context.Context, call *Call, req *Request) {
	var (
		timer   *time.Timer
		expired <-chan time.Time
	)
	if d := c.timeout(ctx); 0 < d {
		timer = time.NewTimer(d)
		defer timer.Stop()
		expired = timer.C
	}

	sctx, stop := context.WithCancel(ctx)
	defer stop()

	sent := make(chan error, 1)
	go func() {
		err := c.link.Send(sctx, req)
		if err == nil {
			atomic.AddUint64(&c.sent, 1)
		}
		sent <- err
	}()

	for {
		select {
		case err := <-sent:
			sent = nil
			if err != nil {
				c.log.Debug("send failed",
					zap.Uint64("id", req.ID),
					zap.String("op", req.Op),
					zap.Error(err))
				kind := core.Unreachable
				switch {
				case errors.Is(err, context.DeadlineExceeded):
					kind = core.Timeout
				case errors.Is(err, context.Canceled):
					kind = core.Cancelled
				}
				c.settle(call, kind, "", err)
				return
			}
		case <-call.done:
			return
		case <-call.cancel:
			c.settle(call, core.Cancelled, "", nil)
			return
		case <-expired:
			c.settle(call, core.Timeout, "", nil)
			return
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				c.settle(call, core.Timeout, "", ctx.Err())
			} else {
				c.settle(call, core.Cancelled, "", ctx.Err())
			}
			return
		}
	}
}

// claim removes the call with the given ID from the pending table.
// Only the claimant may resolve the call.
func (c *Channel) claim(id uint64) (*Call, bool) {
	c.mu.Lock()
	call, have := c.pending[id]
	if have {
		delete(c.pending, id)
	}
	c.mu.Unlock()
	return call, have
}

func (c *Channel) settle(call *Call, kind core.FailureKind, msg string, cause error) {
	if _, have := c.claim(call.ID); have {
		call.fail(kind, msg, cause)
	}
}

// read delivers responses until the link fails.
func (c *Channel) read(ctx context.Context) {
	defer close(c.stopped)
	for {
		resp, err := c.link.Receive(ctx)
		if err != nil {
			c.shutdown(err)
			return
		}
		c.deliver(resp)
	}
}

func (c *Channel) deliver(resp *Response) {
	call, have := c.claim(resp.ID)
	if !have {
		n := atomic.AddUint64(&c.orphans, 1)
		c.log.Warn("orphan response",
			zap.Uint64("id", resp.ID),
			zap.Uint64("orphans", n))
		if c.opts.OnOrphan != nil {
			c.opts.OnOrphan(resp)
		}
		return
	}
	if err := resp.err(call); err != nil {
		call.resolve(nil, err)
		return
	}
	call.resolve(core.Result(resp.Result), nil)
}

// shutdown fails every outstanding call and refuses new ones.
func (c *Channel) shutdown(err error) {
	c.mu.Lock()
	if c.err == nil {
		c.err = err
	}
	calls := c.pending
	c.pending = make(map[uint64]*Call)
	c.mu.Unlock()

	if len(calls) > 0 {
		c.log.Warn("link down",
			zap.Int("pending", len(calls)),
			zap.Error(err))
	}

	kind := core.Unreachable
	if errors.Is(err, ErrClosed) || errors.Is(err, context.Canceled) {
		kind = core.Cancelled
	}
	for _, call := range calls {
		call.fail(kind, "", err)
	}
}

// Invoke calls op on the component at addr and waits for its result.
func (c *Channel) Invoke(ctx context.Context, addr core.Address, op string, args ...interface{}) (core.Result, error) {
	return c.Go(ctx, addr, op, args...).Result()
}

// InvokeFirst is Invoke followed by ExpectAt(0, kind).
func (c *Channel) InvokeFirst(ctx context.Context, addr core.Address, op string, kind core.Kind, args ...interface{}) (core.Variant, error) {
	r, err := c.Invoke(ctx, addr, op, args...)
	if err != nil {
		return nil, err
	}
	return r.ExpectAt(0, kind)
}

// Stats reports the Channel's counters.
func (c *Channel) Stats() Stats {
	c.mu.Lock()
	n := len(c.pending)
	c.mu.Unlock()
	return Stats{
		Pending: n,
		Sent:    atomic.LoadUint64(&c.sent),
		Orphans: atomic.LoadUint64(&c.orphans),
	}
}

// Err returns the error that stopped the Channel, if any.
func (c *Channel) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Close resolves every outstanding call as Cancelled, closes the
// Link, and waits for the reader to exit.
func (c *Channel) Close() error {
	c.shutdown(ErrClosed)
	err := c.link.Close()
	c.stop()
	<-c.stopped
	return err
}
