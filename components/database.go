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
	"fmt"

	"github.com/Comcast/ocremote/component"
	"github.com/Comcast/ocremote/core"
)

// Database stores item descriptions in numbered slots.
type Database struct {
	*component.Handle
}

func NewDatabase(reg *component.Registry, addr core.Address) (*Database, error) {
	h, err := reg.Handle(addr, KindDatabase)
	if err != nil {
		return nil, err
	}
	return &Database{h}, nil
}

// Get describes the stack stored in the slot, or returns nil for an
// empty slot.
func (d *Database) Get(ctx context.Context, slot int) (*ItemStack, error) {
	if err := checkSlot(slot); err != nil {
		return nil, err
	}
	return decodeStack(d.Invoke(ctx, "get", slot))
}

func (d *Database) ComputeHash(ctx context.Context, slot int) (string, error) {
	if err := checkSlot(slot); err != nil {
		return "", err
	}
	return callText(ctx, d.Handle, "computeHash", slot)
}

// IndexOf finds the slot holding the stack with the given hash.  The
// result is negative when there is no such stack.
func (d *Database) IndexOf(ctx context.Context, hash string) (int, error) {
	return callInt(ctx, d.Handle, "indexOf", hash)
}

// Clear empties the slot and reports whether it held anything.
func (d *Database) Clear(ctx context.Context, slot int) (bool, error) {
	if err := checkSlot(slot); err != nil {
		return false, err
	}
	return callBool(ctx, d.Handle, "clear", slot)
}

// Copy copies an entry to another slot and reports whether something
// was overwritten.
func (d *Database) Copy(ctx context.Context, from, to int) (bool, error) {
	if err := checkSlot(from, to); err != nil {
		return false, err
	}
	return callBool(ctx, d.Handle, "copy", from, to)
}

// CopyTo is Copy into another database.
func (d *Database) CopyTo(ctx context.Context, from, to int, db *Database) (bool, error) {
	if err := checkSlot(from, to); err != nil {
		return false, err
	}
	if err := checkDatabase(db); err != nil {
		return false, err
	}
	return callBool(ctx, d.Handle, "copy", from, to, db)
}

// Clone copies every entry into another database and returns how
// many were copied.
func (d *Database) Clone(ctx context.Context, db *Database) (int, error) {
	if err := checkDatabase(db); err != nil {
		return 0, err
	}
	return callInt(ctx, d.Handle, "clone", db)
}

// Tier derives the database's tier from its capacity: 9 slots is tier
// one, 25 is tier two, anything else tier three.
func (d *Database) Tier(info DeviceInfo) (Tier, error) {
	dev, have := info.Of(d)
	if !have {
		return 0, fmt.Errorf("no device info for %s", d.Address())
	}
	n, ok := dev.CapacityInt()
	if !ok {
		return 0, fmt.Errorf("%s capacity %q is not a number", d.Address(), dev.Capacity)
	}
	switch n {
	case 9:
		return Tier1, nil
	case 25:
		return Tier2, nil
	}
	return Tier3, nil
}
