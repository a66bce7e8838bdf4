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

// AccessPoint relays network messages.  Nothing about it is cached.
type AccessPoint struct {
	*component.Handle
}

func NewAccessPoint(reg *component.Registry, addr core.Address) (*AccessPoint, error) {
	h, err := reg.Handle(addr, KindAccessPoint)
	if err != nil {
		return nil, err
	}
	return &AccessPoint{h}, nil
}

// Strength is the range used when relaying messages.
func (a *AccessPoint) Strength(ctx context.Context) (int, error) {
	return callInt(ctx, a.Handle, "getStrength")
}

func (a *AccessPoint) SetStrength(ctx context.Context, strength int) error {
	return callNone(ctx, a.Handle, "setStrength", strength)
}

// IsRepeater reports whether received wireless packets are resent
// wirelessly.
func (a *AccessPoint) IsRepeater(ctx context.Context) (bool, error) {
	return callBool(ctx, a.Handle, "isRepeater")
}

func (a *AccessPoint) SetRepeater(ctx context.Context, repeater bool) error {
	return callNone(ctx, a.Handle, "setRepeater", repeater)
}
