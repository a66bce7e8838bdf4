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
	"strconv"
	"strings"

	"github.com/Comcast/ocremote/component"
	"github.com/Comcast/ocremote/core"
)

// Tier is a component's hardware tier.
type Tier int

const (
	Tier1 Tier = 1
	Tier2 Tier = 2
	Tier3 Tier = 3
)

// Device is one entry from a computer's device information.
type Device struct {
	Class       string
	Description string
	Vendor      string
	Product     string
	Version     string
	Capacity    string
	Width       string
	Clock       string

	Raw *core.Table
}

// CapacityInt parses Capacity.
func (d *Device) CapacityInt() (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(d.Capacity))
	return n, err == nil
}

// DeviceInfo maps component addresses to their device descriptions.
type DeviceInfo map[core.Address]*Device

// Of returns the description for the addressed component.
func (di DeviceInfo) Of(a core.Addresser) (*Device, bool) {
	d, have := di[a.Address()]
	return d, have
}

// DecodeDeviceInfo reads the table returned by getDeviceInfo: a table
// keyed by address whose values are tables of text fields.  Entries
// whose key is not an address are skipped.
func DecodeDeviceInfo(v core.Variant) (DeviceInfo, error) {
	t, err := core.AsTable(v)
	if err != nil {
		return nil, err
	}
	acc := make(DeviceInfo, t.Len())
	for k, x := range t.StringMap() {
		addr, err := core.ParseAddress(k)
		if err != nil {
			continue
		}
		fields, err := core.AsTable(x)
		if err != nil {
			return nil, err
		}
		acc[addr] = &Device{
			Class:       anyText(fields, "class"),
			Description: anyText(fields, "description"),
			Vendor:      anyText(fields, "vendor"),
			Product:     anyText(fields, "product"),
			Version:     anyText(fields, "version"),
			Capacity:    anyText(fields, "capacity"),
			Width:       anyText(fields, "width"),
			Clock:       anyText(fields, "clock"),
			Raw:         fields,
		}
	}
	return acc, nil
}

// anyText reads a field that is usually text but is sometimes sent as
// a number.
func anyText(t *core.Table, name string) string {
	v, have := t.Field(name)
	if !have {
		return ""
	}
	switch vv := v.(type) {
	case core.Text:
		return string(vv)
	case core.Number:
		return strconv.FormatFloat(float64(vv), 'f', -1, 64)
	}
	return ""
}

// Computer is the machine's own computer component.
type Computer struct {
	*component.Handle
}

func NewComputer(reg *component.Registry, addr core.Address) (*Computer, error) {
	h, err := reg.Handle(addr, KindComputer)
	if err != nil {
		return nil, err
	}
	return &Computer{h}, nil
}

// DeviceInfo fetches the description of every installed device.
func (c *Computer) DeviceInfo(ctx context.Context) (DeviceInfo, error) {
	v, err := c.InvokeFirst(ctx, "getDeviceInfo", core.KindTable)
	if err != nil {
		return nil, err
	}
	return DecodeDeviceInfo(v)
}
