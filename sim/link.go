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

package sim

import (
	"context"
	"sync"
	"time"

	"github.com/Comcast/ocremote/channel"
)

// Link is an in-memory channel.Link to a Machine.
//
// Each request is served in its own goroutine after the link's
// latency, so responses can come back in any order.  Hold stops
// responses from being delivered until Release, which lets tests
// arrange races deliberately.
type Link struct {
	m       *Machine
	latency time.Duration

	responses chan *channel.Response
	fail      chan error
	done      chan struct{}
	once      sync.Once

	mu     sync.Mutex
	held   bool
	queue  []*channel.Response
	served int
}

// Link makes a new Link to the Machine.
func (m *Machine) Link(latency time.Duration) *Link {
	return &Link{
		m:         m,
		latency:   latency,
		responses: make(chan *channel.Response, 64),
		fail:      make(chan error, 1),
		done:      make(chan struct{}),
	}
}

func (l *Link) Send(ctx context.Context, r *channel.Request) error {
	select {
	case <-l.done:
		return channel.ErrClosed
	default:
	}
	go func() {
		if 0 < l.latency {
			select {
			case <-l.done:
				return
			case <-time.After(l.latency):
			}
		}
		// The remote side does not know whether the caller is
		// still waiting.
		l.deliver(l.m.Serve(context.Background(), r))
	}()
	return nil
}

func (l *Link) deliver(r *channel.Response) {
	l.mu.Lock()
	l.served++
	if l.held {
		l.queue = append(l.queue, r)
		l.mu.Unlock()
		return
	}
	l.mu.Unlock()

	select {
	case <-l.done:
	case l.responses <- r:
	}
}

// Hold queues responses instead of delivering them.
func (l *Link) Hold() {
	l.mu.Lock()
	l.held = true
	l.mu.Unlock()
}

// Release delivers queued responses and stops holding.
func (l *Link) Release() {
	l.mu.Lock()
	l.held = false
	q := l.queue
	l.queue = nil
	l.mu.Unlock()

	for _, r := range q {
		select {
		case <-l.done:
			return
		case l.responses <- r:
		}
	}
}

// Served reports how many requests have been answered, whether or
// not their responses have been delivered.
func (l *Link) Served() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.served
}

// Fail makes the next Receive report err, as if the connection broke.
func (l *Link) Fail(err error) {
	select {
	case l.fail <- err:
	default:
	}
}

func (l *Link) Receive(ctx context.Context) (*channel.Response, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-l.done:
		return nil, channel.ErrClosed
	case err := <-l.fail:
		return nil, err
	case r := <-l.responses:
		return r, nil
	}
}

func (l *Link) Close() error {
	l.once.Do(func() {
		close(l.done)
	})
	return nil
}
