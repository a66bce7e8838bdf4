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
	"github.com/google/uuid"
)

// Address names one component instance on the remote machine.
//
// Addresses are compared by value and may be shared freely.
type Address struct {
	id uuid.UUID
}

// NilAddress is the zero Address.
var NilAddress = Address{}

// ParseAddress parses the usual 8-4-4-4-12 rendering.
func ParseAddress(s string) (Address, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return NilAddress, err
	}
	return Address{id: id}, nil
}

// MustParseAddress is ParseAddress that panics.
func MustParseAddress(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

// NewAddress makes a random Address.
func NewAddress() Address {
	return Address{id: uuid.New()}
}

func (a Address) String() string {
	return a.id.String()
}

// IsZero reports whether a is NilAddress.
func (a Address) IsZero() bool {
	return a.id == uuid.Nil
}

func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Address) UnmarshalText(bs []byte) error {
	id, err := uuid.ParseBytes(bs)
	if err != nil {
		return err
	}
	a.id = id
	return nil
}

// Addresser is anything that names a component, such as a handle.
// Encode renders an Addresser as its address.
type Addresser interface {
	Address() Address
}
