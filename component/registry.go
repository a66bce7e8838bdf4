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

package component

import (
	"fmt"
	"sync"

	"github.com/Comcast/ocremote/core"
)

// KindConflict is returned when an address is requested as a
// different kind of component than the one already registered.
type KindConflict struct {
	Address core.Address
	Have    string
	Want    string
}

func (e *KindConflict) Error() string {
	return fmt.Sprintf("%s is a %s, not a %s", e.Address, e.Have, e.Want)
}

// Registry hands out one Handle per address, so every wrapper for a
// component shares that component's property cache.
type Registry struct {
	sync.RWMutex

	inv     Invoker
	handles map[core.Address]*Handle
}

func NewRegistry(inv Invoker) *Registry {
	return &Registry{
		inv:     inv,
		handles: make(map[core.Address]*Handle),
	}
}

// Handle returns the Handle for the address, making one if needed.
func (r *Registry) Handle(addr core.Address, kind string) (*Handle, error) {
	r.RLock()
	h, have := r.handles[addr]
	r.RUnlock()
	if !have {
		r.Lock()
		if h, have = r.handles[addr]; !have {
			h = NewHandle(r.inv, addr, kind)
			r.handles[addr] = h
		}
		r.Unlock()
	}
	if h.kind != kind {
		return nil, &KindConflict{
			Address: addr,
			Have:    h.kind,
			Want:    kind,
		}
	}
	return h, nil
}

// Forget drops the Handle, and so its cache, for the address.
func (r *Registry) Forget(addr core.Address) {
	r.Lock()
	delete(r.handles, addr)
	r.Unlock()
}

// Handles returns a snapshot of the registered handles.
func (r *Registry) Handles() []*Handle {
	r.RLock()
	acc := make([]*Handle, 0, len(r.handles))
	for _, h := range r.handles {
		acc = append(acc, h)
	}
	r.RUnlock()
	return acc
}
