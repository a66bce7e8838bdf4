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
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/Comcast/ocremote/core"
)

// pipeLink is a Link whose other end is driven by the test.
type pipeLink struct {
	requests  chan *Request
	responses chan *Response
	fail      chan error
	closed    chan struct{}
	once      sync.Once
}

func newPipeLink() *pipeLink {
	return &pipeLink{
		requests:  make(chan *Request, 128),
		responses: make(chan *Response, 128),
		fail:      make(chan error, 1),
		closed:    make(chan struct{}),
	}
}

func (l *pipeLink) Send(ctx context.Context, r *Request) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-l.closed:
		return ErrClosed
	case l.requests <- r:
		return nil
	}
}

func (l *pipeLink) Receive(ctx context.Context) (*Response, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-l.closed:
		return nil, ErrClosed
	case err := <-l.fail:
		return nil, err
	case r := <-l.responses:
		return r, nil
	}
}

func (l *pipeLink) Close() error {
	l.once.Do(func() { close(l.closed) })
	return nil
}

// next waits for the next request, or returns nil if none arrives.
func (l *pipeLink) next() *Request {
	select {
	case r := <-l.requests:
		return r
	case <-time.After(2 * time.Second):
		return nil
	}
}

func (l *pipeLink) mustNext(t *testing.T) *Request {
	r := l.next()
	if r == nil {
		t.Fatal("no request")
	}
	return r
}

func (l *pipeLink) reply(id uint64, vs ...core.Variant) {
	l.responses <- &Response{
		ID:     id,
		Result: core.Values(vs),
	}
}

var (
	modem = core.MustParseAddress("5a1d2b4c-0000-4000-8000-000000000001")
	disk  = core.MustParseAddress("5a1d2b4c-0000-4000-8000-000000000002")
)

func newTestChannel(t *testing.T, opts *Options) (*Channel, *pipeLink) {
	l := newPipeLink()
	c := New(context.Background(), l, opts)
	t.Cleanup(func() { c.Close() })
	return c, l
}

func TestImpl(t *testing.T) {
	var _ Link = &pipeLink{}
	var _ Link = &RoundTripLink{}
}

func TestInvokeStrength(t *testing.T) {
	c, l := newTestChannel(t, nil)

	go func() {
		r := l.next()
		if r == nil {
			t.Error("no request")
			return
		}
		if r.Op != "getStrength" || r.Address != modem || len(r.Args) != 0 {
			t.Errorf("bad request %#v", r)
		}
		l.reply(r.ID, core.Number(5))
	}()

	v, err := c.InvokeFirst(context.Background(), modem, "getStrength", core.KindNumber)
	if err != nil {
		t.Fatal(err)
	}
	if !core.Equal(v, core.Number(5)) {
		t.Fatal(core.Render(v))
	}
	if s := c.Stats(); s.Pending != 0 {
		t.Fatal(s)
	}
}

func TestInvokeFirstDecodeError(t *testing.T) {
	c, l := newTestChannel(t, nil)

	go func() {
		r := l.next()
		if r == nil {
			t.Error("no request")
			return
		}
		l.reply(r.ID, core.Text("5"))
	}()

	_, err := c.InvokeFirst(context.Background(), modem, "getStrength", core.KindNumber)
	var de *core.DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("expected DecodeError, got %v", err)
	}
}

func TestEmptyResult(t *testing.T) {
	c, l := newTestChannel(t, nil)

	go func() {
		r := l.next()
		if r == nil {
			t.Error("no request")
			return
		}
		l.reply(r.ID)
	}()

	r, err := c.Invoke(context.Background(), disk, "close", 3)
	if err != nil {
		t.Fatal(err)
	}
	if r == nil || r.Len() != 0 {
		t.Fatal(r)
	}
}

func TestRemoteFaultVerbatim(t *testing.T) {
	c, l := newTestChannel(t, nil)

	go func() {
		r := l.next()
		if r == nil {
			t.Error("no request")
			return
		}
		if len(r.Args) != 2 || !core.Equal(r.Args[0], core.Text("/x")) {
			t.Errorf("bad args %s", core.Render(core.List(r.Args)))
		}
		l.responses <- NewFault(r.ID, FaultRemote, "/x: no such file")
	}()

	_, err := c.Invoke(context.Background(), disk, "open", "/x", "r")
	if err == nil {
		t.Fatal("expected a fault")
	}
	if err.Error() != "/x: no such file" {
		t.Fatal(err.Error())
	}
	if !errors.Is(err, core.ErrRemoteFault) {
		t.Fatal(err)
	}
	if core.FailureOf(err) != core.RemoteFault {
		t.Fatal(core.FailureOf(err))
	}
}

func TestUnreachableFault(t *testing.T) {
	c, l := newTestChannel(t, nil)

	go func() {
		r := l.next()
		if r == nil {
			t.Error("no request")
			return
		}
		l.responses <- NewFault(r.ID, FaultUnreachable, "no such component")
	}()

	_, err := c.Invoke(context.Background(), modem, "isSticky")
	if !errors.Is(err, core.ErrUnreachable) {
		t.Fatalf("expected unreachable, got %v", err)
	}
}

func TestTimeoutThenLateResponse(t *testing.T) {
	orphaned := make(chan *Response, 1)
	c, l := newTestChannel(t, &Options{
		Timeout: 20 * time.Millisecond,
		OnOrphan: func(r *Response) {
			orphaned <- r
		},
	})

	_, err := c.Invoke(context.Background(), modem, "getStrength")
	if !errors.Is(err, core.ErrTimeout) {
		t.Fatalf("expected timeout, got %v", err)
	}

	r := l.mustNext(t)
	l.reply(r.ID, core.Number(5))

	select {
	case o := <-orphaned:
		if o.ID != r.ID {
			t.Fatal(o.ID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("late response not reported")
	}
	if s := c.Stats(); s.Orphans != 1 || s.Pending != 0 {
		t.Fatal(s)
	}
}

func TestCancelRace(t *testing.T) {
	orphaned := make(chan *Response, 1)
	c, l := newTestChannel(t, &Options{
		OnOrphan: func(r *Response) {
			orphaned <- r
		},
	})

	call := c.Go(context.Background(), disk, "read", 3, 1024)
	r := l.mustNext(t)
	call.Cancel()

	_, err := call.Result()
	if !errors.Is(err, core.ErrCancelled) {
		t.Fatalf("expected cancelled, got %v", err)
	}

	// The answer to the cancelled call shows up anyway.
	l.reply(r.ID, core.Text("data"))
	<-orphaned

	// And a new call with a new ID is not confused by it.
	go func() {
		r2 := l.next()
		if r2 == nil {
			t.Error("no request")
			return
		}
		if r2.ID == r.ID {
			t.Errorf("id %d reused", r.ID)
		}
		l.reply(r2.ID, core.Text("fresh"))
	}()
	s, err := c.Invoke(context.Background(), disk, "read", 3, 1024)
	if err != nil {
		t.Fatal(err)
	}
	if txt, _ := s.Text(0); txt != "fresh" {
		t.Fatal(core.Render(core.List(s)))
	}

	// The cancelled call stays cancelled.
	if _, err = call.Result(); !errors.Is(err, core.ErrCancelled) {
		t.Fatal(err)
	}
}

func TestContextEnds(t *testing.T) {
	c, _ := newTestChannel(t, &Options{Timeout: -1})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := c.Invoke(ctx, modem, "getStrength"); !errors.Is(err, core.ErrTimeout) {
		t.Fatalf("deadline: %v", err)
	}

	ctx, cancel = context.WithCancel(context.Background())
	call := c.Go(ctx, modem, "getStrength")
	cancel()
	if _, err := call.Result(); !errors.Is(err, core.ErrCancelled) {
		t.Fatalf("cancel: %v", err)
	}
}

func TestWithTimeout(t *testing.T) {
	c, _ := newTestChannel(t, &Options{Timeout: time.Hour})

	ctx := WithTimeout(context.Background(), 10*time.Millisecond)
	if _, err := c.Invoke(ctx, modem, "getStrength"); !errors.Is(err, core.ErrTimeout) {
		t.Fatalf("expected timeout, got %v", err)
	}
}

func TestWait(t *testing.T) {
	c, _ := newTestChannel(t, nil)

	call := c.Go(context.Background(), modem, "getStrength")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := call.Wait(ctx); !errors.Is(err, core.ErrCancelled) {
		t.Fatalf("expected cancelled, got %v", err)
	}
}

func TestInterleaved(t *testing.T) {
	c, l := newTestChannel(t, nil)

	n := 50
	addrs := make([]core.Address, n)
	calls := make([]*Call, n)
	for i := range calls {
		addrs[i] = core.NewAddress()
		calls[i] = c.Go(context.Background(), addrs[i], "getStrength", i)
	}

	reqs := make([]*Request, n)
	for i := range reqs {
		reqs[i] = l.mustNext(t)
	}
	// Answer in reverse order of arrival.
	for i := n - 1; 0 <= i; i-- {
		r := reqs[i]
		l.reply(r.ID, core.Text(r.Address.String()), r.Args[0])
	}

	for i, call := range calls {
		r, err := call.Result()
		if err != nil {
			t.Fatal(err)
		}
		s, err := r.Text(0)
		if err != nil {
			t.Fatal(err)
		}
		if s != addrs[i].String() {
			t.Fatalf("call %d got the answer for %s", i, s)
		}
		if k, err := r.Int(1); err != nil || k != int64(i) {
			t.Fatal(k, err)
		}
	}
	if s := c.Stats(); s.Orphans != 0 || s.Pending != 0 {
		t.Fatal(s)
	}
}

func TestLinkFailure(t *testing.T) {
	c, l := newTestChannel(t, nil)

	calls := []*Call{
		c.Go(context.Background(), modem, "getStrength"),
		c.Go(context.Background(), disk, "spaceUsed"),
	}
	l.mustNext(t)
	l.mustNext(t)

	boom := errors.New("connection reset")
	l.fail <- boom

	for _, call := range calls {
		_, err := call.Result()
		if !errors.Is(err, core.ErrUnreachable) {
			t.Fatalf("expected unreachable, got %v", err)
		}
		if !errors.Is(err, boom) {
			t.Fatalf("lost cause: %v", err)
		}
	}

	if _, err := c.Invoke(context.Background(), modem, "getStrength"); !errors.Is(err, core.ErrUnreachable) {
		t.Fatalf("expected fast failure, got %v", err)
	}
	if c.Err() != boom {
		t.Fatal(c.Err())
	}
}

func TestClose(t *testing.T) {
	l := newPipeLink()
	c := New(context.Background(), l, nil)

	call := c.Go(context.Background(), modem, "getStrength")
	l.mustNext(t)
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := call.Result(); !errors.Is(err, core.ErrCancelled) {
		t.Fatalf("expected cancelled, got %v", err)
	}
}

func TestUnencodableSendsNothing(t *testing.T) {
	c, l := newTestChannel(t, nil)

	for _, arg := range []interface{}{struct{}{}, math.NaN(), math.Inf(-1)} {
		_, err := c.Invoke(context.Background(), modem, "setStrength", arg)
		var ue *core.UnencodableArgument
		if !errors.As(err, &ue) {
			t.Fatalf("expected UnencodableArgument, got %v", err)
		}
		if errors.Is(err, core.ErrUnreachable) {
			t.Fatal(err)
		}
	}
	select {
	case r := <-l.requests:
		t.Fatalf("sent %#v", r)
	default:
	}
}

// stuckLink is a Link whose Send blocks until its context ends.
type stuckLink struct {
	*pipeLink
	sending chan struct{}
	gaveUp  chan error
}

func (l *stuckLink) Send(ctx context.Context, r *Request) error {
	l.sending <- struct{}{}
	<-ctx.Done()
	l.gaveUp <- ctx.Err()
	return ctx.Err()
}

func newStuckChannel(t *testing.T, opts *Options) (*Channel, *stuckLink) {
	l := &stuckLink{
		pipeLink: newPipeLink(),
		sending:  make(chan struct{}, 1),
		gaveUp:   make(chan error, 1),
	}
	c := New(context.Background(), l, opts)
	t.Cleanup(func() { c.Close() })
	return c, l
}

func TestStuckSendTimesOut(t *testing.T) {
	c, l := newStuckChannel(t, &Options{Timeout: 50 * time.Millisecond})

	call := c.Go(context.Background(), modem, "getStrength")
	<-l.sending
	select {
	case <-call.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("still pending: %+v", c.Stats())
	}
	if _, err := call.Result(); !errors.Is(err, core.ErrTimeout) {
		t.Fatalf("expected timeout, got %v", err)
	}
	// The Send is abandoned, too.
	select {
	case <-l.gaveUp:
	case <-time.After(2 * time.Second):
		t.Fatal("send not abandoned")
	}
	if s := c.Stats(); s.Pending != 0 || s.Sent != 0 {
		t.Fatal(s)
	}
}

func TestStuckSendCancelled(t *testing.T) {
	c, l := newStuckChannel(t, &Options{Timeout: -1})

	call := c.Go(context.Background(), modem, "getStrength")
	<-l.sending
	call.Cancel()
	select {
	case <-call.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("cancel ignored while sending")
	}
	if _, err := call.Result(); !errors.Is(err, core.ErrCancelled) {
		t.Fatalf("expected cancelled, got %v", err)
	}
	select {
	case <-l.gaveUp:
	case <-time.After(2 * time.Second):
		t.Fatal("send not abandoned")
	}
}

type rtFunc func(context.Context, *Request) (*Response, error)

func (f rtFunc) RoundTrip(ctx context.Context, r *Request) (*Response, error) {
	return f(ctx, r)
}

func TestRoundTripLink(t *testing.T) {
	rt := rtFunc(func(ctx context.Context, r *Request) (*Response, error) {
		if r.Op == "down" {
			return nil, fmt.Errorf("dial tcp: refused")
		}
		return &Response{
			ID:     r.ID,
			Result: core.Values{core.Text(r.Op)},
		}, nil
	})
	l := NewRoundTripLink(rt)
	c := New(context.Background(), l, nil)
	defer c.Close()

	r, err := c.Invoke(context.Background(), modem, "isRepeater")
	if err != nil {
		t.Fatal(err)
	}
	if s, _ := r.Text(0); s != "isRepeater" {
		t.Fatal(s)
	}

	_, err = c.Invoke(context.Background(), modem, "down")
	if !errors.Is(err, core.ErrUnreachable) {
		t.Fatalf("expected unreachable, got %v", err)
	}
}

func TestFrames(t *testing.T) {
	js, err := MarshalRequest(&Request{
		ID:      7,
		Address: modem,
		Op:      "setStrength",
		Args:    core.Values{core.Number(400)},
	})
	if err != nil {
		t.Fatal(err)
	}
	want := `{"request":{"id":7,"address":"` + modem.String() + `","op":"setStrength","args":[400]}}`
	if string(js) != want {
		t.Fatal(string(js))
	}

	f, err := UnmarshalFrame([]byte(`{"response":{"id":7,"error":{"kind":"fault","message":"too strong"}}}`))
	if err != nil {
		t.Fatal(err)
	}
	if f.Request != nil || f.Response == nil || f.Response.Error.Message != "too strong" {
		t.Fatal(f)
	}
}
