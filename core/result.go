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

import "math"

// Result is the ordered list of values a remote operation returned.
//
// A Result is not modified after it is received.  Trailing elements
// that a caller does not ask for are ignored, since the remote side
// may append diagnostics.
type Result []Variant

// Len is the number of returned values.
func (r Result) Len() int {
	return len(r)
}

// At returns the element at i without checking its kind.
func (r Result) At(i int) (Variant, bool) {
	if i < 0 || len(r) <= i {
		return nil, false
	}
	return r[i], true
}

// ExpectAt returns the element at i if it has the given kind.
func (r Result) ExpectAt(i int, kind Kind) (Variant, error) {
	if i < 0 || len(r) <= i {
		return nil, &DecodeError{
			Index:    i,
			Expected: kind,
			Missing:  true,
			Observed: r,
		}
	}
	v := r[i]
	if KindOf(v) != kind {
		return nil, &DecodeError{
			Index:    i,
			Expected: kind,
			Actual:   KindOf(v),
			Observed: r,
		}
	}
	if v == nil {
		v = Nil{}
	}
	return v, nil
}

// ExpectTuple checks a fixed-arity prefix of the result.
func (r Result) ExpectTuple(kinds ...Kind) ([]Variant, error) {
	acc := make([]Variant, len(kinds))
	for i, k := range kinds {
		v, err := r.ExpectAt(i, k)
		if err != nil {
			return nil, err
		}
		acc[i] = v
	}
	return acc, nil
}

// Bool decodes element i as a bool.
func (r Result) Bool(i int) (bool, error) {
	v, err := r.ExpectAt(i, KindBool)
	if err != nil {
		return false, err
	}
	return bool(v.(Bool)), nil
}

// Text decodes element i as a string.
func (r Result) Text(i int) (string, error) {
	v, err := r.ExpectAt(i, KindText)
	if err != nil {
		return "", err
	}
	return string(v.(Text)), nil
}

// Float decodes element i as a float64.
func (r Result) Float(i int) (float64, error) {
	v, err := r.ExpectAt(i, KindNumber)
	if err != nil {
		return 0, err
	}
	return float64(v.(Number)), nil
}

// Int decodes element i as an int64.
//
// A Number with a fractional part is a PrecisionLoss.  Use TruncInt to
// truncate instead.
func (r Result) Int(i int) (int64, error) {
	v, err := r.ExpectAt(i, KindNumber)
	if err != nil {
		return 0, err
	}
	n, exact := v.(Number).Int()
	if !exact {
		return 0, &PrecisionLoss{
			Index: i,
			Value: float64(v.(Number)),
		}
	}
	return n, nil
}

// TruncInt decodes element i as an int64, truncating toward zero.
//
// NaN and infinities are still a PrecisionLoss.
func (r Result) TruncInt(i int) (int64, error) {
	f, err := r.Float(i)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, &PrecisionLoss{
			Index: i,
			Value: f,
		}
	}
	return int64(math.Trunc(f)), nil
}

// List decodes element i as a List.
func (r Result) List(i int) (List, error) {
	v, err := r.ExpectAt(i, KindList)
	if err != nil {
		return nil, err
	}
	return v.(List), nil
}

// Table decodes element i as a Table.
func (r Result) Table(i int) (*Table, error) {
	v, err := r.ExpectAt(i, KindTable)
	if err != nil {
		return nil, err
	}
	return v.(*Table), nil
}

// EnumFromText decodes element i as Text and maps it through mapping.
//
// Text not in mapping is an UnknownEnumValue.  There is no default.
func EnumFromText[E any](r Result, i int, mapping map[string]E) (E, error) {
	var zero E
	s, err := r.Text(i)
	if err != nil {
		return zero, err
	}
	e, have := mapping[s]
	if !have {
		return zero, &UnknownEnumValue{
			Index: i,
			Value: s,
		}
	}
	return e, nil
}
