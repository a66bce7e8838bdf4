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
	"bufio"
	"context"
	"io"
	"io/ioutil"
	"net/http"
	"sync"
	"time"

	"github.com/Comcast/ocremote/channel"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// SessionCookie names the cookie HTTPHandler hands out.
const SessionCookie = "rosim"

// answer parses one frame and serves its request.  A frame that isn't
// a request gets no answer.
func (m *Machine) answer(ctx context.Context, bs []byte) ([]byte, bool) {
	f, err := channel.UnmarshalFrame(bs)
	if err != nil {
		m.log.Warn("bad frame", zap.Error(err), zap.ByteString("frame", bs))
		return nil, false
	}
	if f.Request == nil {
		m.log.Warn("not a request", zap.ByteString("frame", bs))
		return nil, false
	}
	out, err := channel.MarshalResponse(m.Serve(ctx, f.Request))
	if err != nil {
		m.log.Error("marshal response", zap.Error(err))
		return nil, false
	}
	return out, true
}

// ServeStream answers newline-delimited request frames read from rw.
// Each request is served in its own goroutine, so responses are
// written in completion order.  ServeStream returns when rw reaches
// EOF, after the requests in flight are answered.
func (m *Machine) ServeStream(ctx context.Context, rw io.ReadWriter) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wmu sync.Mutex
		wg  sync.WaitGroup
		in  = bufio.NewScanner(rw)
	)
	in.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	for in.Scan() {
		line := append([]byte(nil), in.Bytes()...)
		if len(line) == 0 {
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, ok := m.answer(ctx, line)
			if !ok {
				return
			}
			wmu.Lock()
			defer wmu.Unlock()
			if _, err := rw.Write(append(out, '\n')); err != nil {
				m.log.Warn("stream write", zap.Error(err))
			}
		}()
		if ctx.Err() != nil {
			break
		}
	}
	wg.Wait()

	if err := in.Err(); err != nil {
		return err
	}
	return ctx.Err()
}

// WebSocketHandler serves request frames arriving as WebSocket text
// messages.
func (m *Machine) WebSocketHandler(ctx context.Context) http.Handler {
	var upgrader = websocket.Upgrader{}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			m.log.Warn("upgrade", zap.Error(err))
			return
		}
		defer c.Close()

		var (
			wmu sync.Mutex
			wg  sync.WaitGroup
		)
		defer wg.Wait()

		for {
			_, message, err := c.ReadMessage()
			if err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					m.log.Debug("websocket read", zap.Error(err))
				}
				return
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				out, ok := m.answer(ctx, message)
				if !ok {
					return
				}
				wmu.Lock()
				defer wmu.Unlock()
				if err := c.WriteMessage(websocket.TextMessage, out); err != nil {
					m.log.Debug("websocket write", zap.Error(err))
				}
			}()
		}
	})
}

// HTTPHandler answers one request frame per POST.  Clients without a
// session cookie get one.
func (m *Machine) HTTPHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "POST a request frame", http.StatusMethodNotAllowed)
			return
		}
		bs, err := ioutil.ReadAll(r.Body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if _, err := r.Cookie(SessionCookie); err != nil {
			http.SetCookie(w, &http.Cookie{
				Name:  SessionCookie,
				Value: uuid.New().String(),
				Path:  "/",
			})
		}
		out, ok := m.answer(r.Context(), bs)
		if !ok {
			http.Error(w, "not a request frame", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(out)
	})
}

// ServeMQTT answers request frames published to <prefix>/request by
// publishing responses to <prefix>/response.  The client must already
// be connected.  ServeMQTT unsubscribes when the context ends.
func (m *Machine) ServeMQTT(ctx context.Context, client mqtt.Client, prefix string, qos byte) error {
	var (
		in  = prefix + "/request"
		out = prefix + "/response"
	)

	handler := func(client mqtt.Client, msg mqtt.Message) {
		payload := msg.Payload()
		go func() {
			bs, ok := m.answer(ctx, payload)
			if !ok {
				return
			}
			t := client.Publish(out, qos, false, bs)
			if t.WaitTimeout(10*time.Second) && t.Error() != nil {
				m.log.Warn("publish", zap.String("topic", out), zap.Error(t.Error()))
			}
		}()
	}

	if t := client.Subscribe(in, qos, handler); t.Wait() && t.Error() != nil {
		return t.Error()
	}
	m.log.Info("serving", zap.String("topic", in))

	<-ctx.Done()

	if t := client.Unsubscribe(in); t.Wait() && t.Error() != nil {
		return t.Error()
	}
	return ctx.Err()
}
