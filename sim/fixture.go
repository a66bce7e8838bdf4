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
	"fmt"
	"io/ioutil"

	"github.com/Comcast/ocremote/core"
	"github.com/Comcast/ocremote/interpreters/goja"
	"github.com/Comcast/ocremote/match"

	"github.com/jsccast/yaml"
)

// Fixture describes a machine's components.
//
//	components:
//	  - address: 5a1d2b4c-0000-4000-8000-000000000002
//	    kind: filesystem
//	    methods:
//	      spaceTotal:
//	        - result: [1048576]
//	      open:
//	        - args: ["/missing", "?"]
//	          fault: "/missing: no such file"
//	        - args: ["?path", "?mode"]
//	          result: [3]
//	    script: |
//	      var label = "";
//	      return {getLabel: function() { return [label]; }};
//
// A method's rules are tried in order.  The first rule whose args
// pattern matches the call's arguments either faults or returns its
// result with variables replaced by their bindings.  A rule without
// args matches any call.  Methods defined by rules take precedence
// over methods of the same name defined by the script.
type Fixture struct {
	Components []*ComponentFixture `yaml:"components" json:"components"`
}

type ComponentFixture struct {
	Address string             `yaml:"address" json:"address"`
	Kind    string             `yaml:"kind" json:"kind"`
	Methods map[string][]*Rule `yaml:"methods,omitempty" json:"methods,omitempty"`

	// Script is Goja source, either a string or a map with "code"
	// and "requires".
	Script interface{} `yaml:"script,omitempty" json:"script,omitempty"`
}

type Rule struct {
	Args   interface{} `yaml:"args,omitempty" json:"args,omitempty"`
	Result interface{} `yaml:"result,omitempty" json:"result,omitempty"`
	Fault  string      `yaml:"fault,omitempty" json:"fault,omitempty"`
}

// ParseFixture parses YAML (or JSON).
func ParseFixture(bs []byte) (*Fixture, error) {
	var f Fixture
	if err := yaml.Unmarshal(bs, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// ReadFixture reads and parses a fixture file.
func ReadFixture(filename string) (*Fixture, error) {
	bs, err := ioutil.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	f, err := ParseFixture(bs)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return f, nil
}

// Install attaches the fixture's components.  The interpreter is only
// needed for components with scripts.
func (m *Machine) Install(ctx context.Context, f *Fixture, i *goja.Interpreter) error {
	for n, cf := range f.Components {
		addr, err := core.ParseAddress(cf.Address)
		if err != nil {
			return fmt.Errorf("component %d: %w", n, err)
		}
		methods, err := cf.methods(ctx, i)
		if err != nil {
			return fmt.Errorf("component %s: %w", cf.Address, err)
		}
		m.Attach(addr, cf.Kind, methods)
	}
	return nil
}

func (cf *ComponentFixture) methods(ctx context.Context, i *goja.Interpreter) (map[string]Method, error) {
	acc := make(map[string]Method)

	if cf.Script != nil {
		if i == nil {
			i = goja.NewInterpreter()
		}
		p, err := i.Compile(ctx, cf.Script)
		if err != nil {
			return nil, err
		}
		c, err := i.Load(ctx, p, nil)
		if err != nil {
			return nil, err
		}
		for _, name := range c.Methods() {
			acc[name] = ScriptMethod(c, name)
		}
	}

	for name, rules := range cf.Methods {
		method, err := compileRules(rules)
		if err != nil {
			return nil, fmt.Errorf("method %s: %w", name, err)
		}
		acc[name] = method
	}

	return acc, nil
}

// ScriptMethod calls the named method of a loaded script.
func ScriptMethod(c *goja.Component, name string) Method {
	return func(ctx context.Context, args core.Result) (core.Result, error) {
		return c.Call(ctx, name, args)
	}
}

type rule struct {
	args   core.Variant
	result core.Variant
	fault  string
}

func compileRules(rules []*Rule) (Method, error) {
	compiled := make([]*rule, len(rules))
	for n, r := range rules {
		c := &rule{
			fault: r.Fault,
		}
		if r.Args != nil {
			v, err := core.FromJSON(r.Args)
			if err != nil {
				return nil, err
			}
			if !core.IsList(v) {
				return nil, fmt.Errorf("rule %d: args is a %s, not a list", n, core.KindOf(v))
			}
			c.args = v
		}
		if r.Result != nil {
			v, err := core.FromJSON(r.Result)
			if err != nil {
				return nil, err
			}
			if !core.IsList(v) {
				v = core.List{v}
			}
			c.result = v
		}
		compiled[n] = c
	}

	return func(ctx context.Context, args core.Result) (core.Result, error) {
		for _, r := range compiled {
			bs := match.NewBindings()
			if r.args != nil {
				var ok bool
				if bs, ok = match.Match(r.args, core.List(args), nil); !ok {
					continue
				}
			}
			if r.fault != "" {
				return nil, errors.New(r.fault)
			}
			if r.result == nil {
				return core.Result{}, nil
			}
			v, err := match.Substitute(r.result, bs)
			if err != nil {
				return nil, err
			}
			return core.Result(v.(core.List)), nil
		}
		return nil, errors.New("bad arguments")
	}, nil
}
