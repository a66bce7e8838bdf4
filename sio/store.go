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
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Comcast/ocremote/channel"
	"github.com/Comcast/ocremote/core"
	"github.com/Comcast/ocremote/util"

	bolt "go.etcd.io/bbolt"
	"go.uber.org/zap"
)

// Entry is one recorded frame.
type Entry struct {
	Seq uint64    `json:"seq"`
	At  time.Time `json:"at"`

	channel.Frame
}

// Store keeps sessions of recorded frames in a bbolt file, one bucket
// per session, keyed by sequence number.
type Store struct {
	filename string
	db       *bolt.DB
	log      *zap.Logger
}

// OpenStore opens (or creates) the file.
func OpenStore(filename string) (*Store, error) {
	opts := &bolt.Options{
		Timeout: time.Second,
	}
	db, err := bolt.Open(filename, 0644, opts)
	if err != nil {
		return nil, err
	}
	return &Store{
		filename: filename,
		db:       db,
		log:      util.Logger().With(zap.String("store", filename)),
	}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func seqKey(n uint64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, n)
	return k
}

// Append adds the frame to the end of the session.
func (s *Store) Append(session string, f channel.Frame) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(session))
		if err != nil {
			return err
		}
		n, err := b.NextSequence()
		if err != nil {
			return err
		}
		e := &Entry{
			Seq:   n,
			At:    time.Now().UTC(),
			Frame: f,
		}
		js, err := json.Marshal(e)
		if err != nil {
			return err
		}
		return b.Put(seqKey(n), js)
	})
}

// Sessions lists the recorded sessions.
func (s *Store) Sessions() ([]string, error) {
	var acc []string
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.ForEach(func(name []byte, _ *bolt.Bucket) error {
			acc = append(acc, string(name))
			return nil
		})
	})
	return acc, err
}

// ErrNoSession is returned for a session that was never recorded.
var ErrNoSession = errors.New("no such session")

// Transcript returns the session's frames in order.
func (s *Store) Transcript(session string) ([]*Entry, error) {
	var acc []*Entry
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(session))
		if b == nil {
			return ErrNoSession
		}
		c := b.Cursor()
		for k, js := c.First(); k != nil; k, js = c.Next() {
			var e Entry
			if err := json.Unmarshal(js, &e); err != nil {
				return fmt.Errorf("%s entry %x: %w", session, k, err)
			}
			acc = append(acc, &e)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return acc, nil
}

// Remove deletes the session.
func (s *Store) Remove(session string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.DeleteBucket([]byte(session))
	})
}

// Recorder is a channel.Link that appends every frame it carries to a
// session.  Failures to record are logged and do not disturb the
// traffic.
type Recorder struct {
	channel.Link

	store   *Store
	session string
}

func NewRecorder(link channel.Link, store *Store, session string) *Recorder {
	return &Recorder{
		Link:    link,
		store:   store,
		session: session,
	}
}

func (r *Recorder) record(f channel.Frame) {
	if err := r.store.Append(r.session, f); err != nil {
		r.store.log.Error("record", zap.String("session", r.session), zap.Error(err))
	}
}

func (r *Recorder) Send(ctx context.Context, req *channel.Request) error {
	r.record(channel.Frame{Request: req})
	return r.Link.Send(ctx, req)
}

func (r *Recorder) Receive(ctx context.Context) (*channel.Response, error) {
	resp, err := r.Link.Receive(ctx)
	if err == nil {
		r.record(channel.Frame{Response: resp})
	}
	return resp, err
}

// Replayer is a channel.RoundTripper that answers requests with the
// responses recorded for the same address, operation, and arguments.
// Repeated requests get the recorded responses in order, and the last
// one again after that.
type Replayer struct {
	mu      sync.Mutex
	answers map[string][]*channel.Response
}

// NoRecording is returned for a request that was never recorded.
type NoRecording struct {
	Request *channel.Request
}

func (e *NoRecording) Error() string {
	return fmt.Sprintf("no recording for %s on %s with %s",
		e.Request.Op, e.Request.Address, core.Render(core.List(e.Request.Args)))
}

func replayKey(r *channel.Request) (string, error) {
	args, err := json.Marshal(r.Args)
	if err != nil {
		return "", err
	}
	return r.Address.String() + " " + r.Op + " " + string(args), nil
}

// NewReplayer pairs the transcript's requests with their responses.
// Requests that never got a response are skipped.
func NewReplayer(entries []*Entry) (*Replayer, error) {
	var (
		asked   = make(map[uint64]string)
		answers = make(map[string][]*channel.Response)
	)
	for _, e := range entries {
		switch {
		case e.Request != nil:
			k, err := replayKey(e.Request)
			if err != nil {
				return nil, err
			}
			asked[e.Request.ID] = k
		case e.Response != nil:
			k, have := asked[e.Response.ID]
			if !have {
				continue
			}
			delete(asked, e.Response.ID)
			answers[k] = append(answers[k], e.Response)
		}
	}
	return &Replayer{
		answers: answers,
	}, nil
}

func (p *Replayer) RoundTrip(ctx context.Context, r *channel.Request) (*channel.Response, error) {
	k, err := replayKey(r)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	rs := p.answers[k]
	if len(rs) == 0 {
		return nil, &NoRecording{Request: r}
	}
	resp := *rs[0]
	if len(rs) > 1 {
		p.answers[k] = rs[1:]
	}
	resp.ID = r.ID
	return &resp, nil
}
