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

package sio

import (
	"context"
	"errors"
	"sync"

	"github.com/Comcast/ocremote/channel"
	"github.com/Comcast/ocremote/util"

	"go.uber.org/zap"
)

// inbox queues responses parsed by a transport's reader until
// Receive takes them.
type inbox struct {
	responses chan *channel.Response
	errs      chan error
	done      chan struct{}
	once      sync.Once
	log       *zap.Logger
}

func newInbox(name string) *inbox {
	return &inbox{
		responses: make(chan *channel.Response, 64),
		errs:      make(chan error, 1),
		done:      make(chan struct{}),
		log:       util.Logger().With(zap.String("transport", name)),
	}
}

// deliver parses a frame.  Frames that are not responses are logged
// and dropped.
func (b *inbox) deliver(bs []byte) {
	f, err := channel.UnmarshalFrame(bs)
	if err != nil {
		b.log.Warn("bad frame", zap.Error(err), zap.ByteString("frame", bs))
		return
	}
	if f.Response == nil {
		b.log.Warn("not a response", zap.ByteString("frame", bs))
		return
	}
	select {
	case <-b.done:
	case b.responses <- f.Response:
	}
}

// fail reports a broken transport.  Only the first failure is kept.
func (b *inbox) fail(err error) {
	select {
	case b.errs <- err:
	default:
	}
}

func (b *inbox) closed() bool {
	select {
	case <-b.done:
		return true
	default:
		return false
	}
}

// Receive returns queued responses before reporting a transport
// failure.  The failure stays queued for later calls.
func (b *inbox) Receive(ctx context.Context) (*channel.Response, error) {
	select {
	case r := <-b.responses:
		return r, nil
	default:
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-b.responses:
		return r, nil
	case err := <-b.errs:
		b.fail(err)
		// The reader queues every response before it fails.
		select {
		case r := <-b.responses:
			return r, nil
		default:
		}
		return nil, err
	case <-b.done:
		return nil, channel.ErrClosed
	}
}

// shut closes the inbox and reports whether this call did it.
func (b *inbox) shut() bool {
	did := false
	b.once.Do(func() {
		close(b.done)
		did = true
	})
	return did
}

// ErrNotConnected is returned by Send on a link whose connection is
// gone.
var ErrNotConnected = errors.New("not connected")
