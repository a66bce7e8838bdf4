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
	"net/http"
	"sync"

	"github.com/Comcast/ocremote/channel"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// WebSocketLink is a channel.Link over a WebSocket.  Each frame is
// one text message.
type WebSocketLink struct {
	*inbox

	conn *websocket.Conn
	wmu  sync.Mutex
}

// DialWebSocket connects to a WebSocket URL (ws:// or wss://).
func DialWebSocket(ctx context.Context, url string, header http.Header) (*WebSocketLink, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if err != nil {
		return nil, err
	}
	return NewWebSocketLink(conn), nil
}

// NewWebSocketLink starts reading responses from the connection.
func NewWebSocketLink(conn *websocket.Conn) *WebSocketLink {
	l := &WebSocketLink{
		inbox: newInbox("websocket"),
		conn:  conn,
	}
	go l.read()
	return l
}

func (l *WebSocketLink) read() {
	for {
		_, bs, err := l.conn.ReadMessage()
		if err != nil {
			if l.closed() {
				return
			}
			l.log.Info("websocket ended", zap.Error(err))
			l.fail(err)
			return
		}
		if len(bs) == 0 {
			continue
		}
		l.deliver(bs)
	}
}

func (l *WebSocketLink) Send(ctx context.Context, r *channel.Request) error {
	if l.closed() {
		return channel.ErrClosed
	}
	js, err := channel.MarshalRequest(r)
	if err != nil {
		return err
	}
	l.wmu.Lock()
	defer l.wmu.Unlock()
	return l.conn.WriteMessage(websocket.TextMessage, js)
}

// Close says goodbye and closes the connection.
func (l *WebSocketLink) Close() error {
	if !l.shut() {
		return nil
	}
	l.wmu.Lock()
	l.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	l.wmu.Unlock()
	return l.conn.Close()
}
