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
	"errors"
	"fmt"
	"strings"
)

// ErrNoDatabase is returned when an operation that names a database
// is given none.
var ErrNoDatabase = errors.New("no database")

func checkDatabase(db *Database) error {
	if db == nil || db.Handle == nil {
		return ErrNoDatabase
	}
	return nil
}

// SlotError reports a slot number that cannot exist.  Slots start at
// one.
type SlotError struct {
	Slot int
}

func (e *SlotError) Error() string {
	return fmt.Sprintf("no such slot %d", e.Slot)
}

// SideError reports a side the operation does not support.
type SideError struct {
	Side  Side
	Valid []Side
}

func (e *SideError) Error() string {
	names := make([]string, len(e.Valid))
	for i, s := range e.Valid {
		names[i] = s.String()
	}
	return fmt.Sprintf("side %s not supported (valid sides: %s)", e.Side, strings.Join(names, ", "))
}

// ModeError reports an unsupported stream mode or seek origin.
type ModeError struct {
	Mode  string
	Valid []string
}

func (e *ModeError) Error() string {
	return fmt.Sprintf("unsupported mode %q (valid: %s)", e.Mode, strings.Join(e.Valid, " "))
}

// RangeError reports an argument outside its allowed range.
type RangeError struct {
	Arg      string
	Value    int
	Min, Max int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%s %d not in %d..%d", e.Arg, e.Value, e.Min, e.Max)
}

// ShapeError reports a printer shape with no volume.
type ShapeError struct {
	Shape Shape
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("empty shape %v", e.Shape)
}

func checkSlot(slots ...int) error {
	for _, s := range slots {
		if s <= 0 {
			return &SlotError{Slot: s}
		}
	}
	return nil
}

func checkRange(arg string, n, lo, hi int) error {
	if n < lo || hi < n {
		return &RangeError{
			Arg:   arg,
			Value: n,
			Min:   lo,
			Max:   hi,
		}
	}
	return nil
}
