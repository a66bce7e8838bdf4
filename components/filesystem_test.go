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

package components

import (
	"context"
	"errors"
	"io/ioutil"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Comcast/ocremote/core"
	"github.com/Comcast/ocremote/sim"
)

// fakeFile serves one file's content through open/read/seek/close.
type fakeFile struct {
	sync.Mutex
	content string
	pos     int
	closed  bool
}

func (f *fakeFile) methods() map[string]sim.Method {
	return map[string]sim.Method{
		"open": func(ctx context.Context, args core.Result) (core.Result, error) {
			path, err := args.Text(0)
			if err != nil {
				return nil, err
			}
			if path != "/log" {
				return nil, errors.New(path + ": file not found")
			}
			return core.Result{n(7)}, nil
		},
		"read": func(ctx context.Context, args core.Result) (core.Result, error) {
			f.Lock()
			defer f.Unlock()
			want, err := args.Int(1)
			if err != nil {
				return nil, err
			}
			if f.pos >= len(f.content) {
				return core.Result{core.Nil{}}, nil
			}
			end := f.pos + int(want)
			if end > len(f.content) {
				end = len(f.content)
			}
			s := f.content[f.pos:end]
			f.pos = end
			return core.Result{core.Text(s)}, nil
		},
		"seek": func(ctx context.Context, args core.Result) (core.Result, error) {
			f.Lock()
			defer f.Unlock()
			off, err := args.Int(2)
			if err != nil {
				return nil, err
			}
			f.pos = int(off)
			return core.Result{n(float64(off))}, nil
		},
		"close": func(ctx context.Context, args core.Result) (core.Result, error) {
			f.Lock()
			f.closed = true
			f.Unlock()
			return core.Result{}, nil
		},
		"spaceTotal":   sim.Const(n(1 << 20)),
		"spaceUsed":    sim.Const(n(4096)),
		"lastModified": sim.Const(n(1577836800000.75)),
		"list": sim.Const(core.NewTable().
			MustSet(n(1), core.Text("bin/")).
			MustSet(n(2), core.Text("log"))),
		"getLabel": sim.Const(core.Text("data")),
		"setLabel": func(ctx context.Context, args core.Result) (core.Result, error) {
			s, err := args.Text(0)
			if err != nil {
				return nil, err
			}
			if len(s) > 16 {
				s = s[:16]
			}
			return core.Result{core.Text(s)}, nil
		},
	}
}

func newFilesystem(t *testing.T, content string) (*bench, *Filesystem, *fakeFile) {
	b := newBench(t)
	f := &fakeFile{content: content}
	b.m.Attach(fsAddr, KindFilesystem, f.methods())
	fs, err := NewFilesystem(b.reg, fsAddr)
	if err != nil {
		t.Fatal(err)
	}
	return b, fs, f
}

func TestStreamRead(t *testing.T) {
	_, fs, f := newFilesystem(t, "hello, world")
	ctx := context.Background()

	s, err := fs.Open(ctx, "/log", "r")
	if err != nil {
		t.Fatal(err)
	}
	if s.Descriptor() != 7 {
		t.Fatal(s.Descriptor())
	}

	data, err := s.Read(ctx, 5)
	if err != nil {
		t.Fatal(err)
	}
	if data != "hello" {
		t.Fatal(data)
	}

	if pos, err := s.Seek(ctx, "set", 7); err != nil || pos != 7 {
		t.Fatal(pos, err)
	}
	if data, err = s.Read(ctx, 100); err != nil || data != "world" {
		t.Fatal(data, err)
	}

	// End of file is "", not an error.
	data, err = s.Read(ctx, 100)
	if err != nil {
		t.Fatal(err)
	}
	if data != "" {
		t.Fatal(data)
	}

	if err = s.Close(ctx); err != nil {
		t.Fatal(err)
	}
	f.Lock()
	closed := f.closed
	f.Unlock()
	if !closed {
		t.Fatal("not closed")
	}
}

func TestStreamReader(t *testing.T) {
	content := strings.Repeat("0123456789", 100)
	_, fs, _ := newFilesystem(t, content)
	ctx := context.Background()

	s, err := fs.Open(ctx, "/log", "rb")
	if err != nil {
		t.Fatal(err)
	}
	bs, err := ioutil.ReadAll(s.Reader(ctx, 64))
	if err != nil {
		t.Fatal(err)
	}
	if string(bs) != content {
		t.Fatalf("read %d bytes", len(bs))
	}
}

func TestOpenChecks(t *testing.T) {
	b, fs, _ := newFilesystem(t, "")
	ctx := context.Background()

	_, err := fs.Open(ctx, "/log", "rw")
	var me *ModeError
	if !errors.As(err, &me) || me.Mode != "rw" {
		t.Fatal(err)
	}
	if n := b.m.Calls(fsAddr, "open"); n != 0 {
		t.Fatal(n)
	}

	_, err = fs.Open(ctx, "/nope", "r")
	if !errors.Is(err, core.ErrRemoteFault) || err.Error() != "/nope: file not found" {
		t.Fatal(err)
	}

	s, err := fs.Open(ctx, "/log", "a")
	if err != nil {
		t.Fatal(err)
	}
	if _, err = s.Seek(ctx, "start", 0); !errors.As(err, &me) {
		t.Fatal(err)
	}
	if n := b.m.Calls(fsAddr, "seek"); n != 0 {
		t.Fatal(n)
	}
}

func TestFilesystemProperties(t *testing.T) {
	b, fs, _ := newFilesystem(t, "")
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		total, err := fs.SpaceTotal(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if total != 1<<20 {
			t.Fatal(total)
		}
		used, err := fs.SpaceUsed(ctx)
		if err != nil || used != 4096 {
			t.Fatal(used, err)
		}
	}
	if n := b.m.Calls(fsAddr, "spaceTotal"); n != 1 {
		t.Fatalf("spaceTotal asked %d times", n)
	}
	if n := b.m.Calls(fsAddr, "spaceUsed"); n != 2 {
		t.Fatalf("spaceUsed asked %d times", n)
	}

	label, err := fs.Label(ctx)
	if err != nil || label != "data" {
		t.Fatal(label, err)
	}
	kept, err := fs.SetLabel(ctx, "an extremely long label")
	if err != nil {
		t.Fatal(err)
	}
	if kept != "an extremely lon" {
		t.Fatal(kept)
	}
	if label, err = fs.Label(ctx); err != nil || label != kept {
		t.Fatal(label, err)
	}
	if n := b.m.Calls(fsAddr, "getLabel"); n != 1 {
		t.Fatalf("getLabel asked %d times", n)
	}

	when, err := fs.LastModified(ctx, "/log")
	if err != nil {
		t.Fatal(err)
	}
	if !when.Equal(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatal(when)
	}

	names, err := fs.List(ctx, "/")
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 2 || names[0] != "bin/" || names[1] != "log" {
		t.Fatal(names)
	}
}

func TestLastModifiedMillis(t *testing.T) {
	b := newBench(t)
	b.m.Attach(fsAddr, KindFilesystem, map[string]sim.Method{
		"lastModified": func(ctx context.Context, args core.Result) (core.Result, error) {
			path, err := args.Text(0)
			if err != nil {
				return nil, err
			}
			switch path {
			case "/new":
				return core.Result{n(1577836800123)}, nil
			case "/old":
				return core.Result{n(86400000.9)}, nil
			}
			return core.Result{n(0)}, nil
		},
	})
	fs, err := NewFilesystem(b.reg, fsAddr)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	for path, want := range map[string]time.Time{
		"/new":     time.Date(2020, 1, 1, 0, 0, 0, 123*int(time.Millisecond), time.UTC),
		"/old":     time.Date(1970, 1, 2, 0, 0, 0, 0, time.UTC),
		"/missing": time.Unix(0, 0),
	} {
		when, err := fs.LastModified(ctx, path)
		if err != nil {
			t.Fatal(path, err)
		}
		if !when.Equal(want) {
			t.Fatal(path, when.UTC(), want)
		}
	}
}
