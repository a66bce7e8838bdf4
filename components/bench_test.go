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
	"sync"
	"testing"

	"github.com/Comcast/ocremote/channel"
	"github.com/Comcast/ocremote/component"
	"github.com/Comcast/ocremote/core"
	"github.com/Comcast/ocremote/sim"
)

var (
	apAddr  = core.MustParseAddress("0c0ffee0-0000-4000-8000-000000000001")
	pisAddr = core.MustParseAddress("0c0ffee0-0000-4000-8000-000000000002")
	fsAddr  = core.MustParseAddress("0c0ffee0-0000-4000-8000-000000000003")
	invAddr = core.MustParseAddress("0c0ffee0-0000-4000-8000-000000000004")
	dbAddr  = core.MustParseAddress("0c0ffee0-0000-4000-8000-000000000005")
	db2Addr = core.MustParseAddress("0c0ffee0-0000-4000-8000-000000000006")
	prAddr  = core.MustParseAddress("0c0ffee0-0000-4000-8000-000000000007")
	pcAddr  = core.MustParseAddress("0c0ffee0-0000-4000-8000-000000000008")
)

// bench is a registry talking to a simulated machine.
type bench struct {
	m   *sim.Machine
	c   *channel.Channel
	reg *component.Registry
}

func newBench(t *testing.T) *bench {
	m := sim.NewMachine()
	c := channel.New(context.Background(), m.Link(0), nil)
	t.Cleanup(func() {
		c.Close()
	})
	return &bench{
		m:   m,
		c:   c,
		reg: component.NewRegistry(c),
	}
}

// recorder is a Method that remembers the arguments of its last call.
type recorder struct {
	sync.Mutex
	args   core.Result
	result core.Result
}

func (r *recorder) method(ctx context.Context, args core.Result) (core.Result, error) {
	r.Lock()
	defer r.Unlock()
	r.args = args
	return r.result, nil
}

func (r *recorder) last() core.List {
	r.Lock()
	defer r.Unlock()
	return core.List(r.args)
}

func checkArgs(t *testing.T, r *recorder, want ...core.Variant) {
	t.Helper()
	if got := r.last(); !core.Equal(got, core.List(want)) {
		t.Fatalf("args %s, want %s", core.Render(got), core.Render(core.List(want)))
	}
}

func n(x float64) core.Variant {
	return core.Number(x)
}
