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

// Package component binds component addresses to an invoker and keeps
// per-component property caches.
package component

import (
	"context"
	"sync"

	"github.com/Comcast/ocremote/core"
)

// Invoker performs one invocation.  A *channel.Channel is an Invoker.
type Invoker interface {
	Invoke(ctx context.Context, addr core.Address, op string, args ...interface{}) (core.Result, error)
}

// Policy says whether and how a property is cached.
type Policy int

const (
	// Uncached properties are fetched on every read.
	Uncached Policy = iota

	// Immutable properties are fetched once and then never again.
	Immutable

	// WriteThrough properties are fetched on first read and updated
	// by Store after a setter succeeds.
	WriteThrough
)

func (p Policy) String() string {
	switch p {
	case Immutable:
		return "immutable"
	case WriteThrough:
		return "write-through"
	}
	return "uncached"
}

// Fetcher obtains a property's current value.
type Fetcher func(ctx context.Context) (core.Variant, error)

type property struct {
	// sem is held by the one caller fetching the value.
	sem chan struct{}

	// mu guards the fields below.  It is never held across a fetch.
	mu   sync.Mutex
	have bool
	v    core.Variant
	// gen counts Store and Invalidate calls.
	gen uint64
}

func (p *property) get() (core.Variant, bool, uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.v, p.have, p.gen
}

func (p *property) set(v core.Variant, have bool) {
	p.mu.Lock()
	p.v, p.have = v, have
	p.gen++
	p.mu.Unlock()
}

// Handle is the local proxy for one remote component.
//
// A Handle holds no reachability state.  Only declared properties are
// cached.
type Handle struct {
	addr core.Address
	kind string
	inv  Invoker

	mu       sync.Mutex
	policies map[string]Policy
	props    map[string]*property
}

// NewHandle makes a Handle that is not in any Registry.
func NewHandle(inv Invoker, addr core.Address, kind string) *Handle {
	return &Handle{
		addr:     addr,
		kind:     kind,
		inv:      inv,
		policies: make(map[string]Policy),
		props:    make(map[string]*property),
	}
}

// Address makes a Handle a core.Addresser, so it can be passed as an
// argument to other components' operations.
func (h *Handle) Address() core.Address {
	return h.addr
}

// Kind is the component type name, such as "filesystem".
func (h *Handle) Kind() string {
	return h.kind
}

func (h *Handle) String() string {
	return h.kind + "@" + h.addr.String()
}

// Invoke calls op on this component.
func (h *Handle) Invoke(ctx context.Context, op string, args ...interface{}) (core.Result, error) {
	return h.inv.Invoke(ctx, h.addr, op, args...)
}

// InvokeFirst calls op and decodes the first result element as kind.
func (h *Handle) InvokeFirst(ctx context.Context, op string, kind core.Kind, args ...interface{}) (core.Variant, error) {
	r, err := h.Invoke(ctx, op, args...)
	if err != nil {
		return nil, err
	}
	return r.ExpectAt(0, kind)
}

// Declare sets the caching policy for the named property.
func (h *Handle) Declare(name string, p Policy) *Handle {
	h.mu.Lock()
	h.policies[name] = p
	h.mu.Unlock()
	return h
}

// Policy reports the caching policy for the named property.
func (h *Handle) Policy(name string) Policy {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.policies[name]
}

// prop returns the slot for a cached property.
func (h *Handle) prop(name string) (*property, Policy) {
	h.mu.Lock()
	defer h.mu.Unlock()
	p := h.policies[name]
	if p == Uncached {
		return nil, p
	}
	slot, have := h.props[name]
	if !have {
		slot = &property{
			sem: make(chan struct{}, 1),
		}
		h.props[name] = slot
	}
	return slot, p
}

// GetOrFetch returns the cached value of the property if there is one.
// Otherwise it calls fetch and, for cached properties, stores the
// value when fetch succeeds.
//
// Concurrent first reads of a cached property share one fetch.
func (h *Handle) GetOrFetch(ctx context.Context, name string, fetch Fetcher) (core.Variant, error) {
	slot, _ := h.prop(name)
	if slot == nil {
		return fetch(ctx)
	}

	select {
	case slot.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, core.NewInvocationError(core.Cancelled, h.addr, name, "", ctx.Err())
	}
	defer func() { <-slot.sem }()

	cached, have, gen := slot.get()
	if have {
		return cached, nil
	}
	v, err := fetch(ctx)
	if err != nil {
		return nil, err
	}
	// A Store or Invalidate during the fetch wins over its result.
	slot.mu.Lock()
	if slot.gen == gen {
		slot.v, slot.have = v, true
	}
	slot.mu.Unlock()
	return v, nil
}

// Cached returns the stored value, if any, without fetching.
func (h *Handle) Cached(name string) (core.Variant, bool) {
	slot, _ := h.prop(name)
	if slot == nil {
		return nil, false
	}
	v, have, _ := slot.get()
	return v, have
}

// Store records a value for a cached property, typically after a
// setter has been confirmed by the remote.  Uncached properties are
// ignored.
func (h *Handle) Store(name string, v core.Variant) {
	slot, _ := h.prop(name)
	if slot == nil {
		return
	}
	slot.set(v, true)
}

// Invalidate forgets the stored value for the named property.
func (h *Handle) Invalidate(name string) {
	slot, _ := h.prop(name)
	if slot == nil {
		return
	}
	slot.set(nil, false)
}
