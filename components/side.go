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
	"strings"

	"github.com/Comcast/ocremote/core"
)

// Side is a direction relative to a device.
type Side int

const (
	Bottom Side = 0
	Top    Side = 1
	Back   Side = 2
	Front  Side = 3
	Right  Side = 4
	Left   Side = 5
)

var sideNames = [...]string{"bottom", "top", "back", "front", "right", "left"}

func (s Side) Valid() bool {
	return Bottom <= s && s <= Left
}

func (s Side) String() string {
	if !s.Valid() {
		return fmt.Sprintf("side(%d)", int(s))
	}
	return sideNames[s]
}

// EncodeVariant sends a Side as its number.
func (s Side) EncodeVariant() (core.Variant, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("no such side %d", int(s))
	}
	return core.Number(float64(s)), nil
}

// ParseSide accepts a side's name or number.
func ParseSide(s string) (Side, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range sideNames {
		if s == name || s == fmt.Sprint(i) {
			return Side(i), nil
		}
	}
	return 0, fmt.Errorf("unknown side %q", s)
}

// adjacent are the sides an inventory controller can reach.
var adjacent = map[Side]bool{
	Front:  true,
	Top:    true,
	Bottom: true,
}

func checkAdjacent(s Side) error {
	if !adjacent[s] {
		return &SideError{
			Side:  s,
			Valid: []Side{Front, Top, Bottom},
		}
	}
	return nil
}
