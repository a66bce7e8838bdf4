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
	"fmt"

	"github.com/Comcast/ocremote/core"
)

// ItemStack describes the items in one slot.
type ItemStack struct {
	Name      string
	Label     string
	Size      int
	MaxSize   int
	Damage    int
	MaxDamage int
	HasTag    bool

	// Raw holds every field the remote sent, including ones not
	// decoded above.
	Raw *core.Table
}

// DecodeItemStack reads an item description.  An empty slot (Nil)
// gives a nil ItemStack.
func DecodeItemStack(v core.Variant) (*ItemStack, error) {
	if core.IsNil(v) {
		return nil, nil
	}
	t, err := core.AsTable(v)
	if err != nil {
		return nil, err
	}
	s := &ItemStack{
		Raw: t,
	}
	for name, dst := range map[string]*string{
		"name":  &s.Name,
		"label": &s.Label,
	} {
		if err = textField(t, name, dst); err != nil {
			return nil, err
		}
	}
	for name, dst := range map[string]*int{
		"size":      &s.Size,
		"maxSize":   &s.MaxSize,
		"damage":    &s.Damage,
		"maxDamage": &s.MaxDamage,
	} {
		if err = intField(t, name, dst); err != nil {
			return nil, err
		}
	}
	if v, have := t.Field("hasTag"); have {
		if s.HasTag, err = core.AsBool(v); err != nil {
			return nil, fmt.Errorf("item field hasTag: %w", err)
		}
	}
	return s, nil
}

// textField leaves dst alone when the field is absent.
func textField(t *core.Table, name string, dst *string) error {
	v, have := t.Field(name)
	if !have {
		return nil
	}
	x, err := core.AsText(v)
	if err != nil {
		return fmt.Errorf("item field %s: %w", name, err)
	}
	*dst = x
	return nil
}

func intField(t *core.Table, name string, dst *int) error {
	v, have := t.Field(name)
	if !have {
		return nil
	}
	n, err := core.Result{v}.TruncInt(0)
	if err != nil {
		return fmt.Errorf("item field %s: %w", name, err)
	}
	*dst = int(n)
	return nil
}

func decodeStack(r core.Result, err error) (*ItemStack, error) {
	if err != nil {
		return nil, err
	}
	v, have := r.At(0)
	if !have {
		return nil, nil
	}
	return DecodeItemStack(v)
}
