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
	"sync"

	"github.com/Comcast/ocremote/core"
)

// Call is one outstanding invocation.
//
// A Call is resolved exactly once: with a Result, or with an error.
type Call struct {
	ID      uint64
	Address core.Address
	Op      string

	done chan struct{}
	once sync.Once

	cancel     chan struct{}
	cancelOnce sync.Once

	result core.Result
	err    error
}

func newCall(id uint64, addr core.Address, op string) *Call {
	return &Call{
		ID:      id,
		Address: addr,
		Op:      op,
		done:    make(chan struct{}),
		cancel:  make(chan struct{}),
	}
}

// Done is closed when the Call is resolved.
func (c *Call) Done() <-chan struct{} {
	return c.done
}

// Result blocks until the Call is resolved.
func (c *Call) Result() (core.Result, error) {
	<-c.done
	return c.result, c.err
}

// Wait is Result with an escape: when ctx is done first, the Call is
// cancelled and Wait returns however the Call ended up resolved.
func (c *Call) Wait(ctx context.Context) (core.Result, error) {
	select {
	case <-c.done:
	case <-ctx.Done():
		c.Cancel()
		<-c.done
	}
	return c.result, c.err
}

// Cancel abandons the Call.  If the Call is still outstanding, it
// resolves with a Cancelled error and any later response for it is
// dropped.
func (c *Call) Cancel() {
	c.cancelOnce.Do(func() {
		close(c.cancel)
	})
}

// resolve reports whether this invocation did the resolving.
func (c *Call) resolve(r core.Result, err error) bool {
	did := false
	c.once.Do(func() {
		if err == nil && r == nil {
			r = core.Result{}
		}
		c.result, c.err = r, err
		close(c.done)
		did = true
	})
	return did
}

func (c *Call) fail(kind core.FailureKind, msg string, cause error) bool {
	return c.resolve(nil, core.NewInvocationError(kind, c.Address, c.Op, msg, cause))
}
