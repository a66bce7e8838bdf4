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

package core

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// Table is an associative Variant.
//
// Keys are unique by value (see Equal).  Insertion order is not
// significant; Keys returns keys in Compare order.  Nil and NaN are
// never valid keys.
type Table struct {
	entries []entry
	index   map[string]int
}

type entry struct {
	k Variant
	v Variant
}

// NewTable makes an empty Table.
func NewTable() *Table {
	return &Table{
		index: make(map[string]int, 8),
	}
}

func (*Table) Kind() Kind { return KindTable }
func (*Table) variant()   {}

// Len returns the number of entries.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

// Set binds k to v, replacing any existing binding for a key equal to
// k.
func (t *Table) Set(k, v Variant) error {
	key, err := tableKey(k)
	if err != nil {
		return err
	}
	if v == nil {
		v = Nil{}
	}
	if t.index == nil {
		t.index = make(map[string]int, 8)
	}
	if i, have := t.index[key]; have {
		t.entries[i].v = v
		return nil
	}
	t.index[key] = len(t.entries)
	t.entries = append(t.entries, entry{k: k, v: v})
	return nil
}

// MustSet is Set that panics on an invalid key.  Only for literals.
func (t *Table) MustSet(k, v Variant) *Table {
	if err := t.Set(k, v); err != nil {
		panic(err)
	}
	return t
}

// Get returns the value bound to k, if any.
func (t *Table) Get(k Variant) (Variant, bool) {
	if t == nil {
		return nil, false
	}
	key, err := tableKey(k)
	if err != nil {
		return nil, false
	}
	i, have := t.index[key]
	if !have {
		return nil, false
	}
	return t.entries[i].v, true
}

// Field is Get with a Text key.
func (t *Table) Field(name string) (Variant, bool) {
	return t.Get(Text(name))
}

// Delete removes any binding for k.
func (t *Table) Delete(k Variant) {
	if t == nil {
		return
	}
	key, err := tableKey(k)
	if err != nil {
		return
	}
	i, have := t.index[key]
	if !have {
		return
	}
	last := len(t.entries) - 1
	if i != last {
		t.entries[i] = t.entries[last]
		moved, _ := tableKey(t.entries[i].k)
		t.index[moved] = i
	}
	t.entries = t.entries[:last]
	delete(t.index, key)
}

// Keys returns the keys in Compare order.
func (t *Table) Keys() []Variant {
	if t == nil {
		return nil
	}
	ks := make([]Variant, len(t.entries))
	for i, e := range t.entries {
		ks[i] = e.k
	}
	sort.Slice(ks, func(i, j int) bool {
		return Compare(ks[i], ks[j]) < 0
	})
	return ks
}

// Range calls f for each entry in key order until f returns false.
func (t *Table) Range(f func(k, v Variant) bool) {
	for _, k := range t.Keys() {
		v, _ := t.Get(k)
		if !f(k, v) {
			return
		}
	}
}

// StringMap returns the entries with Text keys.  Entries with other
// keys are skipped.
func (t *Table) StringMap() map[string]Variant {
	acc := make(map[string]Variant, t.Len())
	if t == nil {
		return acc
	}
	for _, e := range t.entries {
		if s, is := e.k.(Text); is {
			acc[string(s)] = e.v
		}
	}
	return acc
}

// Lookup follows a path of Text keys through nested Tables.
func (t *Table) Lookup(path ...string) (Variant, bool) {
	var v Variant = t
	for _, p := range path {
		tbl, is := v.(*Table)
		if !is {
			return nil, false
		}
		var have bool
		if v, have = tbl.Field(p); !have {
			return nil, false
		}
	}
	return v, true
}

// Copy makes a shallow copy.
func (t *Table) Copy() *Table {
	acc := NewTable()
	if t == nil {
		return acc
	}
	for _, e := range t.entries {
		acc.Set(e.k, e.v)
	}
	return acc
}

func (t *Table) compare(u *Table) int {
	ks, us := t.Keys(), u.Keys()
	for i := 0; i < len(ks) && i < len(us); i++ {
		if c := Compare(ks[i], us[i]); c != 0 {
			return c
		}
		x, _ := t.Get(ks[i])
		y, _ := u.Get(us[i])
		if c := Compare(x, y); c != 0 {
			return c
		}
	}
	return compareInts(len(ks), len(us))
}

// tableKey renders a key into a string that is equal for equal
// Variants.
func tableKey(k Variant) (string, error) {
	switch vv := k.(type) {
	case nil, Nil:
		return "", &InvalidKey{Key: k}
	case Number:
		if math.IsNaN(float64(vv)) {
			return "", &InvalidKey{Key: k}
		}
	}
	var b strings.Builder
	writeKey(&b, k)
	return b.String(), nil
}

func writeKey(b *strings.Builder, v Variant) {
	switch vv := v.(type) {
	case nil, Nil:
		b.WriteByte('z')
	case Bool:
		if vv {
			b.WriteString("b1")
		} else {
			b.WriteString("b0")
		}
	case Number:
		f := float64(vv)
		if f == 0 {
			f = 0 // -0
		}
		b.WriteByte('n')
		b.WriteString(strconv.FormatFloat(f, 'g', -1, 64))
		b.WriteByte(';')
	case Text:
		b.WriteByte('s')
		b.WriteString(strconv.Itoa(len(vv)))
		b.WriteByte(':')
		b.WriteString(string(vv))
	case List:
		b.WriteString("l[")
		for _, x := range vv {
			writeKey(b, x)
		}
		b.WriteByte(']')
	case *Table:
		b.WriteString("t{")
		for _, k := range vv.Keys() {
			x, _ := vv.Get(k)
			writeKey(b, k)
			writeKey(b, x)
		}
		b.WriteByte('}')
	}
}
