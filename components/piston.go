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

	"github.com/Comcast/ocremote/component"
	"github.com/Comcast/ocremote/core"
)

const propSticky = "isSticky"

type Piston struct {
	*component.Handle
}

func NewPiston(reg *component.Registry, addr core.Address) (*Piston, error) {
	h, err := reg.Handle(addr, KindPiston)
	if err != nil {
		return nil, err
	}
	h.Declare(propSticky, component.Immutable)
	return &Piston{h}, nil
}

// IsSticky reports whether the piston can also pull.  A piston never
// changes stickiness, so this is asked at most once.
func (p *Piston) IsSticky(ctx context.Context) (bool, error) {
	return cachedBool(ctx, p.Handle, propSticky, "isSticky")
}

// Push tries to push the block on the given side.
func (p *Piston) Push(ctx context.Context, side Side) (bool, error) {
	return callBool(ctx, p.Handle, "push", side)
}

// Pull tries to pull the block on the given side like a sticky
// piston.
func (p *Piston) Pull(ctx context.Context, side Side) (bool, error) {
	return callBool(ctx, p.Handle, "pull", side)
}
