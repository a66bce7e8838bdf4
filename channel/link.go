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
)

// ErrClosed is returned by a Link (or a Channel) that has been closed.
var ErrClosed = errors.New("closed")

// Link moves frames to and from the remote machine.
//
// Send may be called concurrently.  Receive is only called by the
// Channel's reader goroutine.  When Receive returns an error, the
// Channel considers the link dead.
type Link interface {
	Send(ctx context.Context, r *Request) error
	Receive(ctx context.Context) (*Response, error)
	Close() error
}

// RoundTripper performs one request/response exchange.
//
// Transports that have no independent response stream (HTTP, for
// example) implement this interface and are adapted with
// NewRoundTripLink.
type RoundTripper interface {
	RoundTrip(ctx context.Context, r *Request) (*Response, error)
}

// RoundTripLink is a Link backed by a RoundTripper.  Each Send runs
// its exchange in its own goroutine, so responses can arrive out of
// order.
type RoundTripLink struct {
	rt        RoundTripper
	responses chan *Response
	done      chan struct{}
	once      sync.Once
}

// NewRoundTripLink makes a Link from a RoundTripper.
func NewRoundTripLink(rt RoundTripper) *RoundTripLink {
	return &RoundTripLink{
		rt:        rt,
		responses: make(chan *Response, 16),
		done:      make(chan struct{}),
	}
}

func (l *RoundTripLink) Send(ctx context.Context, r *Request) error {
	select {
	case <-l.done:
		return ErrClosed
	default:
	}
	go func() {
		resp, err := l.rt.RoundTrip(ctx, r)
		if err != nil {
			// The exchange itself failed, so the remote never
			// saw (or never answered) the request.
			resp = NewFault(r.ID, FaultUnreachable, err.Error())
		}
		if resp.ID != r.ID {
			resp.ID = r.ID
		}
		select {
		case l.responses <- resp:
		case <-l.done:
		}
	}()
	return nil
}

func (l *RoundTripLink) Receive(ctx context.Context) (*Response, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-l.done:
		return nil, ErrClosed
	case r := <-l.responses:
		return r, nil
	}
}

func (l *RoundTripLink) Close() error {
	l.once.Do(func() {
		close(l.done)
	})
	return nil
}
