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

// Package sim is an in-process stand-in for a remote machine.
//
// A Machine holds components, each a set of named methods, and
// answers channel.Request frames the way the real machine would:
// unknown addresses are unreachable, method errors are faults whose
// messages pass through verbatim.  Machines can be built in code, from
// YAML fixtures, or from scripts, and can be reached in memory (Link)
// or over the transports in package sio.
package sim

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/Comcast/ocremote/channel"
	"github.com/Comcast/ocremote/core"
	"github.com/Comcast/ocremote/util"

	"go.uber.org/zap"
)

// ListOp lists the attached components.
const ListOp = channel.ListOp

// Method implements one operation of a simulated component.
type Method func(ctx context.Context, args core.Result) (core.Result, error)

// Component is a simulated component.
type Component struct {
	Address core.Address
	Kind    string
	Methods map[string]Method
}

// Machine is a simulated remote machine.
type Machine struct {
	sync.RWMutex

	components map[core.Address]*Component
	calls      map[string]int
	log        *zap.Logger
}

func NewMachine() *Machine {
	return &Machine{
		components: make(map[core.Address]*Component),
		calls:      make(map[string]int),
		log:        util.Logger(),
	}
}

// Attach installs a component, replacing any at the same address.
func (m *Machine) Attach(addr core.Address, kind string, methods map[string]Method) *Component {
	c := &Component{
		Address: addr,
		Kind:    kind,
		Methods: methods,
	}
	m.Lock()
	m.components[addr] = c
	m.Unlock()
	return c
}

// Detach removes a component.  Later calls to it are unreachable.
func (m *Machine) Detach(addr core.Address) {
	m.Lock()
	delete(m.components, addr)
	m.Unlock()
}

// Component returns the component at the address.
func (m *Machine) Component(addr core.Address) (*Component, bool) {
	m.RLock()
	c, have := m.components[addr]
	m.RUnlock()
	return c, have
}

// List returns the kind of every attached component.
func (m *Machine) List() map[core.Address]string {
	m.RLock()
	acc := make(map[core.Address]string, len(m.components))
	for addr, c := range m.components {
		acc[addr] = c.Kind
	}
	m.RUnlock()
	return acc
}

func callKey(addr core.Address, op string) string {
	return addr.String() + "/" + op
}

// Calls reports how many times op was invoked on the component.
func (m *Machine) Calls(addr core.Address, op string) int {
	m.RLock()
	defer m.RUnlock()
	return m.calls[callKey(addr, op)]
}

func (m *Machine) list() core.Result {
	t := core.NewTable()
	for addr, kind := range m.List() {
		t.MustSet(core.Text(addr.String()), core.Text(kind))
	}
	return core.Result{t}
}

// Serve answers one request.
func (m *Machine) Serve(ctx context.Context, req *channel.Request) *channel.Response {
	if req.Address.IsZero() && req.Op == ListOp {
		return &channel.Response{
			ID:     req.ID,
			Result: core.Values(m.list()),
		}
	}

	m.Lock()
	c, have := m.components[req.Address]
	if have {
		m.calls[callKey(req.Address, req.Op)]++
	}
	m.Unlock()

	if !have {
		m.log.Debug("unreachable", zap.Stringer("address", req.Address), zap.String("op", req.Op))
		return channel.NewFault(req.ID, channel.FaultUnreachable, "no such component")
	}

	method, have := c.Methods[req.Op]
	if !have {
		return channel.NewFault(req.ID, channel.FaultRemote, "no such method")
	}

	r, err := call(ctx, method, core.Result(req.Args))
	if err != nil {
		m.log.Debug("fault",
			zap.Stringer("address", req.Address),
			zap.String("op", req.Op),
			zap.Error(err))
		return channel.NewFault(req.ID, channel.FaultRemote, err.Error())
	}
	return &channel.Response{
		ID:     req.ID,
		Result: core.Values(r),
	}
}

func call(ctx context.Context, method Method, args core.Result) (r core.Result, err error) {
	defer func() {
		if x := recover(); x != nil {
			err = fmt.Errorf("%v", x)
		}
	}()
	return method(ctx, args)
}

// Const is a Method that always returns the given values.
func Const(vs ...core.Variant) Method {
	return func(ctx context.Context, args core.Result) (core.Result, error) {
		return core.Result(vs), nil
	}
}

// Fail is a Method that always faults with the given message.
func Fail(msg string) Method {
	return func(ctx context.Context, args core.Result) (core.Result, error) {
		return nil, errors.New(msg)
	}
}

// Property makes a getter and a setter for one stored value.  The
// setter stores its first argument and returns it.
func Property(initial core.Variant) (get, set Method) {
	var (
		mu sync.Mutex
		v  = initial
	)
	get = func(ctx context.Context, args core.Result) (core.Result, error) {
		mu.Lock()
		defer mu.Unlock()
		return core.Result{v}, nil
	}
	set = func(ctx context.Context, args core.Result) (core.Result, error) {
		x, have := args.At(0)
		if !have {
			return nil, errors.New("bad arguments")
		}
		mu.Lock()
		v = x
		mu.Unlock()
		return core.Result{x}, nil
	}
	return get, set
}

// MethodNames lists the component's methods.
func (c *Component) MethodNames() []string {
	acc := make([]string, 0, len(c.Methods))
	for name := range c.Methods {
		acc = append(acc, name)
	}
	sort.Strings(acc)
	return acc
}
