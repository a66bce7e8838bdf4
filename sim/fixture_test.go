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
	"errors"
	"testing"

	"github.com/Comcast/ocremote/channel"
	"github.com/Comcast/ocremote/core"
)

const fixtureYAML = `
components:
  - address: 5a1d2b4c-0000-4000-8000-000000000002
    kind: filesystem
    methods:
      spaceTotal:
        - result: 1048576
      open:
        - args: ["/missing", "?"]
          fault: "/missing: no such file"
        - args: ["?path", "??mode"]
          result: [3, "?path", "??mode"]
      exists:
        - args: ["/"]
          result: [true]
    script: |
      var label = "";
      return {
        getLabel: function() { return [label]; },
        setLabel: function(s) { label = s.substring(0, 16); return [label]; },
        spaceTotal: function() { return [0]; }
      };
`

func installed(t *testing.T) *Machine {
	f, err := ParseFixture([]byte(fixtureYAML))
	if err != nil {
		t.Fatal(err)
	}
	m := NewMachine()
	if err = m.Install(context.Background(), f, nil); err != nil {
		t.Fatal(err)
	}
	return m
}

func serve(t *testing.T, m *Machine, op string, args ...core.Variant) *channel.Response {
	return m.Serve(context.Background(), &channel.Request{
		ID:      1,
		Address: fsAddr,
		Op:      op,
		Args:    core.Values(args),
	})
}

func TestFixtureRules(t *testing.T) {
	m := installed(t)

	if kind := m.List()[fsAddr]; kind != "filesystem" {
		t.Fatal(kind)
	}

	// A scalar result is a one-element result.  Rules take
	// precedence over the script.
	r := serve(t, m, "spaceTotal")
	if r.Error != nil || !core.Equal(core.List(r.Result), core.List{core.Number(1048576)}) {
		t.Fatal(r.Error, core.Render(core.List(r.Result)))
	}

	r = serve(t, m, "open", core.Text("/missing"), core.Text("r"))
	if r.Error == nil || r.Error.Message != "/missing: no such file" {
		t.Fatal(r.Error)
	}

	r = serve(t, m, "open", core.Text("/log"), core.Text("a"))
	want := core.List{core.Number(3), core.Text("/log"), core.Text("a")}
	if r.Error != nil || !core.Equal(core.List(r.Result), want) {
		t.Fatal(r.Error, core.Render(core.List(r.Result)))
	}

	// Optional variables may be absent.
	r = serve(t, m, "open", core.Text("/log"))
	want = core.List{core.Number(3), core.Text("/log"), core.Nil{}}
	if r.Error != nil || !core.Equal(core.List(r.Result), want) {
		t.Fatal(r.Error, core.Render(core.List(r.Result)))
	}

	r = serve(t, m, "exists", core.Text("/nope"))
	if r.Error == nil || r.Error.Message != "bad arguments" {
		t.Fatal(r.Error)
	}
}

func TestFixtureScript(t *testing.T) {
	m := installed(t)

	r := serve(t, m, "setLabel", core.Text("a rather long label"))
	if r.Error != nil {
		t.Fatal(r.Error)
	}
	r = serve(t, m, "getLabel")
	if r.Error != nil || !core.Equal(core.List(r.Result), core.List{core.Text("a rather long la")}) {
		t.Fatal(r.Error, core.Render(core.List(r.Result)))
	}
}

func TestFixtureErrors(t *testing.T) {
	bad := []string{
		"components:\n  - address: nope\n    kind: piston\n",
		"components:\n  - address: 5a1d2b4c-0000-4000-8000-000000000002\n    kind: piston\n    methods:\n      push:\n        - args: 3\n",
		"components:\n  - address: 5a1d2b4c-0000-4000-8000-000000000002\n    kind: piston\n    script: 'return {'\n",
	}
	for i, src := range bad {
		f, err := ParseFixture([]byte(src))
		if err != nil {
			t.Fatal(i, err)
		}
		if err = NewMachine().Install(context.Background(), f, nil); err == nil {
			t.Fatalf("%d installed", i)
		}
	}
}

func TestFixtureUnboundResult(t *testing.T) {
	f := &Fixture{
		Components: []*ComponentFixture{{
			Address: fsAddr.String(),
			Kind:    "filesystem",
			Methods: map[string][]*Rule{
				"read": {{Result: []interface{}{"?data"}}},
			},
		}},
	}
	m := NewMachine()
	if err := m.Install(context.Background(), f, nil); err != nil {
		t.Fatal(err)
	}
	c := channel.New(context.Background(), m.Link(0), nil)
	defer c.Close()

	_, err := c.Invoke(context.Background(), fsAddr, "read", 3, 2048)
	if !errors.Is(err, core.ErrRemoteFault) || err.Error() != "unbound variable ?data" {
		t.Fatal(err)
	}
}
