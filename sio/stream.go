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
	"bufio"
	"context"
	"io"
	"net"
	"os"
	"sync"

	"github.com/Comcast/ocremote/channel"

	"go.uber.org/zap"
)

// MaxFrame is the longest frame a StreamLink will read.
const MaxFrame = 16 * 1024 * 1024

// StreamLink is a channel.Link over a byte stream.  Each frame is one
// line of JSON.
type StreamLink struct {
	*inbox

	rwc io.ReadWriteCloser
	wmu sync.Mutex
}

// NewStreamLink starts reading responses from rwc.
func NewStreamLink(rwc io.ReadWriteCloser) *StreamLink {
	l := &StreamLink{
		inbox: newInbox("stream"),
		rwc:   rwc,
	}
	go l.read()
	return l
}

// DialTCP connects to a machine served by sim.Machine.ServeStream (or
// anything else that speaks the same frames).
func DialTCP(ctx context.Context, addr string) (*StreamLink, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	return NewStreamLink(conn), nil
}

type stdio struct {
	io.Reader
	io.Writer
}

func (s *stdio) Close() error {
	return nil
}

// NewStdioLink speaks frames on stdin and stdout.
func NewStdioLink() *StreamLink {
	return NewStreamLink(&stdio{
		Reader: os.Stdin,
		Writer: os.Stdout,
	})
}

func (l *StreamLink) read() {
	in := bufio.NewScanner(l.rwc)
	in.Buffer(make([]byte, 0, 64*1024), MaxFrame)
	for in.Scan() {
		line := in.Bytes()
		if len(line) == 0 {
			continue
		}
		l.deliver(append([]byte(nil), line...))
	}
	if l.closed() {
		return
	}
	err := in.Err()
	if err == nil {
		err = io.EOF
	}
	l.log.Info("stream ended", zap.Error(err))
	l.fail(err)
}

func (l *StreamLink) Send(ctx context.Context, r *channel.Request) error {
	if l.closed() {
		return channel.ErrClosed
	}
	js, err := channel.MarshalRequest(r)
	if err != nil {
		return err
	}
	l.wmu.Lock()
	defer l.wmu.Unlock()
	_, err = l.rwc.Write(append(js, '\n'))
	return err
}

func (l *StreamLink) Close() error {
	if !l.shut() {
		return nil
	}
	return l.rwc.Close()
}
