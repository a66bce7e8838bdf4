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

// DefaultCount is how many items a transfer moves when the caller
// has no preference.
const DefaultCount = 64

// Transfer is the outcome of moving items.  Reason is empty unless
// the remote explained a failure.
type Transfer struct {
	OK     bool
	Reason string
}

func decodeTransfer(r core.Result, err error) (Transfer, error) {
	if err != nil {
		return Transfer{}, err
	}
	ok, err := r.Bool(0)
	if err != nil {
		return Transfer{}, err
	}
	t := Transfer{OK: ok}
	if v, have := r.At(1); have && core.IsText(v) {
		t.Reason, _ = core.AsText(v)
	}
	return t, nil
}

// InventoryController inspects and manipulates adjacent inventories.
//
// Operations that name the side holding an inventory only accept
// Front, Top, and Bottom.
type InventoryController struct {
	*component.Handle
}

func NewInventoryController(reg *component.Registry, addr core.Address) (*InventoryController, error) {
	h, err := reg.Handle(addr, KindInventoryController)
	if err != nil {
		return nil, err
	}
	return &InventoryController{h}, nil
}

// InventorySize is the number of slots in the inventory on the side.
func (c *InventoryController) InventorySize(ctx context.Context, side Side) (int, error) {
	if err := checkAdjacent(side); err != nil {
		return 0, err
	}
	return callInt(ctx, c.Handle, "getInventorySize", side)
}

func (c *InventoryController) StackInSlot(ctx context.Context, side Side, slot int) (*ItemStack, error) {
	if err := checkAdjacent(side); err != nil {
		return nil, err
	}
	if err := checkSlot(slot); err != nil {
		return nil, err
	}
	return decodeStack(c.Invoke(ctx, "getStackInSlot", side, slot))
}

func (c *InventoryController) StackInInternalSlot(ctx context.Context, slot int) (*ItemStack, error) {
	if err := checkSlot(slot); err != nil {
		return nil, err
	}
	return decodeStack(c.Invoke(ctx, "getStackInInternalSlot", slot))
}

// SelectedStack describes the stack in the selected internal slot.
func (c *InventoryController) SelectedStack(ctx context.Context) (*ItemStack, error) {
	return decodeStack(c.Invoke(ctx, "getStackInInternalSlot"))
}

// DropIntoSlot drops up to count of the selected items into a slot of
// the inventory on the side.
func (c *InventoryController) DropIntoSlot(ctx context.Context, side Side, slot, count int) (Transfer, error) {
	return c.DropIntoSlotFrom(ctx, side, slot, count, side)
}

// DropIntoSlotFrom is DropIntoSlot through the given face of an
// inventory on the given side.
func (c *InventoryController) DropIntoSlotFrom(ctx context.Context, face Side, slot, count int, side Side) (Transfer, error) {
	if err := checkAdjacent(side); err != nil {
		return Transfer{}, err
	}
	if err := checkSlot(slot); err != nil {
		return Transfer{}, err
	}
	return decodeTransfer(c.Invoke(ctx, "dropIntoSlot", face, slot, count, side))
}

// SuckFromSlot takes up to count items from a slot of the inventory
// on the side.
func (c *InventoryController) SuckFromSlot(ctx context.Context, side Side, slot, count int) (Transfer, error) {
	return c.SuckFromSlotFrom(ctx, side, slot, count, side)
}

func (c *InventoryController) SuckFromSlotFrom(ctx context.Context, face Side, slot, count int, side Side) (Transfer, error) {
	if err := checkAdjacent(side); err != nil {
		return Transfer{}, err
	}
	if err := checkSlot(slot); err != nil {
		return Transfer{}, err
	}
	return decodeTransfer(c.Invoke(ctx, "suckFromSlot", face, slot, count, side))
}

// Equip swaps the equipped tool with the selected stack.
func (c *InventoryController) Equip(ctx context.Context) (bool, error) {
	return callBool(ctx, c.Handle, "equip")
}

// Store records the stack in a slot of the inventory on the side in a
// database slot.
func (c *InventoryController) Store(ctx context.Context, side Side, slot int, db *Database, dbSlot int) (bool, error) {
	if err := checkSlot(slot); err != nil {
		return false, err
	}
	if err := checkDatabase(db); err != nil {
		return false, err
	}
	return callBool(ctx, c.Handle, "store", side, slot, db, dbSlot)
}

func (c *InventoryController) StoreInternal(ctx context.Context, slot int, db *Database, dbSlot int) (bool, error) {
	if err := checkSlot(slot); err != nil {
		return false, err
	}
	if err := checkDatabase(db); err != nil {
		return false, err
	}
	return callBool(ctx, c.Handle, "storeInternal", slot, db, dbSlot)
}

func (c *InventoryController) CompareToDatabase(ctx context.Context, slot int, db *Database, dbSlot int, checkNBT bool) (bool, error) {
	if err := checkSlot(slot); err != nil {
		return false, err
	}
	if err := checkDatabase(db); err != nil {
		return false, err
	}
	return callBool(ctx, c.Handle, "compareToDatabase", slot, db, dbSlot, checkNBT)
}

// CompareStacks reports whether two slots hold the same kind of item.
func (c *InventoryController) CompareStacks(ctx context.Context, side Side, slotA, slotB int, checkNBT bool) (bool, error) {
	if err := checkSlot(slotA, slotB); err != nil {
		return false, err
	}
	return callBool(ctx, c.Handle, "compareStacks", side, slotA, slotB, checkNBT)
}

func (c *InventoryController) SlotMaxStackSize(ctx context.Context, side Side, slot int) (int, error) {
	if err := checkSlot(slot); err != nil {
		return 0, err
	}
	return callInt(ctx, c.Handle, "getSlotMaxStackSize", side, slot)
}

func (c *InventoryController) SlotStackSize(ctx context.Context, side Side, slot int) (int, error) {
	if err := checkSlot(slot); err != nil {
		return 0, err
	}
	return callInt(ctx, c.Handle, "getSlotStackSize", side, slot)
}

// IsEquivalentTo reports whether the selected stack shares an ore
// dictionary entry with the stack in the internal slot.
func (c *InventoryController) IsEquivalentTo(ctx context.Context, slot int) (bool, error) {
	if err := checkSlot(slot); err != nil {
		return false, err
	}
	return callBool(ctx, c.Handle, "isEquivalentTo", slot)
}

func (c *InventoryController) AreStacksEquivalent(ctx context.Context, side Side, slotA, slotB int) (bool, error) {
	if err := checkAdjacent(side); err != nil {
		return false, err
	}
	if err := checkSlot(slotA, slotB); err != nil {
		return false, err
	}
	return callBool(ctx, c.Handle, "areStacksEquivalent", side, slotA, slotB)
}

func (c *InventoryController) InventoryName(ctx context.Context, side Side) (string, error) {
	if err := checkAdjacent(side); err != nil {
		return "", err
	}
	return callText(ctx, c.Handle, "getInventoryName", side)
}
