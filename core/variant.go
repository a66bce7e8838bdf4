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
	"strings"
)

// Kind names one of the six shapes a Variant can take.
type Kind int

const (
	KindNil Kind = iota
	KindBool
	KindNumber
	KindText
	KindList
	KindTable
)

var kindNames = [...]string{"nil", "boolean", "number", "string", "list", "table"}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// Variant is the wire-level value exchanged with a remote machine.
//
// The set of implementations is closed: Nil, Bool, Number, Text, List
// and *Table.  A type switch over those six types is exhaustive.
type Variant interface {
	Kind() Kind

	// variant keeps implementations inside this package.
	variant()
}

// Nil is the absent value.
type Nil struct{}

// Bool is a boolean Variant.
type Bool bool

// Number is a numeric Variant.
//
// The wire format does not distinguish integers from fractions, so a
// Number is always a float64.  Integers beyond 2^53 are not exact.
type Number float64

// Text is a string Variant.
type Text string

// List is an ordered sequence of Variants.
//
// Whether an operation indexes its lists from 0 or 1 is part of that
// operation's contract, not of List.
type List []Variant

func (Nil) Kind() Kind    { return KindNil }
func (Bool) Kind() Kind   { return KindBool }
func (Number) Kind() Kind { return KindNumber }
func (Text) Kind() Kind   { return KindText }
func (List) Kind() Kind   { return KindList }

func (Nil) variant()    {}
func (Bool) variant()   {}
func (Number) variant() {}
func (Text) variant()   {}
func (List) variant()   {}

// NewBool makes a Bool.
func NewBool(b bool) Variant { return Bool(b) }

// NewNumber makes a Number.
func NewNumber(f float64) Variant { return Number(f) }

// NewInt makes a Number holding an integer.
func NewInt(n int64) Variant { return Number(float64(n)) }

// NewText makes a Text.
func NewText(s string) Variant { return Text(s) }

// NewList makes a List of the given elements.
func NewList(vs ...Variant) Variant {
	if vs == nil {
		vs = []Variant{}
	}
	return List(vs)
}

// IsIntegral reports whether the number has no fractional part.
func (n Number) IsIntegral() bool {
	f := float64(n)
	return !math.IsInf(f, 0) && !math.IsNaN(f) && f == math.Trunc(f)
}

// Int returns the number as an int64 and whether that conversion was
// exact.
func (n Number) Int() (int64, bool) {
	if !n.IsIntegral() {
		return int64(n), false
	}
	f := float64(n)
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}

func IsNil(v Variant) bool    { return v == nil || v.Kind() == KindNil }
func IsBool(v Variant) bool   { return v != nil && v.Kind() == KindBool }
func IsNumber(v Variant) bool { return v != nil && v.Kind() == KindNumber }
func IsText(v Variant) bool   { return v != nil && v.Kind() == KindText }
func IsList(v Variant) bool   { return v != nil && v.Kind() == KindList }
func IsTable(v Variant) bool  { return v != nil && v.Kind() == KindTable }

// KindOf is v.Kind() except that a nil interface is KindNil.
func KindOf(v Variant) Kind {
	if v == nil {
		return KindNil
	}
	return v.Kind()
}

// AsBool narrows v to a bool.
func AsBool(v Variant) (bool, error) {
	b, is := v.(Bool)
	if !is {
		return false, mismatch(KindBool, v)
	}
	return bool(b), nil
}

// AsNumber narrows v to a float64.
func AsNumber(v Variant) (float64, error) {
	n, is := v.(Number)
	if !is {
		return 0, mismatch(KindNumber, v)
	}
	return float64(n), nil
}

// AsText narrows v to a string.
func AsText(v Variant) (string, error) {
	s, is := v.(Text)
	if !is {
		return "", mismatch(KindText, v)
	}
	return string(s), nil
}

// AsList narrows v to a List.
func AsList(v Variant) (List, error) {
	l, is := v.(List)
	if !is {
		return nil, mismatch(KindList, v)
	}
	return l, nil
}

// AsTable narrows v to a *Table.
func AsTable(v Variant) (*Table, error) {
	t, is := v.(*Table)
	if !is || t == nil {
		return nil, mismatch(KindTable, v)
	}
	return t, nil
}

func mismatch(want Kind, v Variant) *TypeMismatch {
	return &TypeMismatch{
		Expected: want,
		Actual:   KindOf(v),
	}
}

// Equal is value equality.  Lists and Tables compare element-wise.
func Equal(a, b Variant) bool {
	return Compare(a, b) == 0
}

// Compare is a total order over Variants: first by Kind, then by
// value.  NaN sorts before every other number.
func Compare(a, b Variant) int {
	ka, kb := KindOf(a), KindOf(b)
	if ka != kb {
		if ka < kb {
			return -1
		}
		return 1
	}
	switch ka {
	case KindNil:
		return 0
	case KindBool:
		x, y := a.(Bool), b.(Bool)
		switch {
		case x == y:
			return 0
		case !bool(x):
			return -1
		default:
			return 1
		}
	case KindNumber:
		return compareFloats(float64(a.(Number)), float64(b.(Number)))
	case KindText:
		return strings.Compare(string(a.(Text)), string(b.(Text)))
	case KindList:
		x, y := a.(List), b.(List)
		for i := 0; i < len(x) && i < len(y); i++ {
			if c := Compare(x[i], y[i]); c != 0 {
				return c
			}
		}
		return compareInts(len(x), len(y))
	case KindTable:
		return a.(*Table).compare(b.(*Table))
	}
	return 0
}

func compareFloats(x, y float64) int {
	xn, yn := math.IsNaN(x), math.IsNaN(y)
	switch {
	case xn && yn:
		return 0
	case xn:
		return -1
	case yn:
		return 1
	case x < y:
		return -1
	case x > y:
		return 1
	}
	return 0
}

func compareInts(x, y int) int {
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	}
	return 0
}
