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

const propMaxShapes = "maxShapeCount"

// Color is a 0xRRGGBB tint.  Zero means no tint.
type Color uint32

func (c Color) EncodeVariant() (core.Variant, error) {
	return core.Number(float64(c & 0xffffff)), nil
}

// Shape is one box of a printed block.  Coordinates run from 0 to 15
// on each axis, and Min must differ from Max on every axis.
type Shape struct {
	Min, Max [3]int
	Texture  string

	// State selects the block's active (true) or inactive (false)
	// appearance.
	State bool
	Tint  Color
}

func (s Shape) String() string {
	return fmt.Sprintf("%v-%v %q", s.Min, s.Max, s.Texture)
}

// Check validates the shape.
func (s Shape) Check() error {
	axes := [3]string{"x", "y", "z"}
	for i := range axes {
		if s.Min[i] == s.Max[i] {
			return &ShapeError{Shape: s}
		}
	}
	for i, axis := range axes {
		if err := checkRange("min "+axis, s.Min[i], 0, 15); err != nil {
			return err
		}
		if err := checkRange("max "+axis, s.Max[i], 0, 15); err != nil {
			return err
		}
	}
	return nil
}

func (s Shape) args() []interface{} {
	args := []interface{}{
		s.Min[0], s.Min[1], s.Min[2],
		s.Max[0], s.Max[1], s.Max[2],
		s.Texture, s.State,
	}
	if s.Tint != 0 {
		args = append(args, s.Tint)
	}
	return args
}

// PrinterState is what a printer is doing.
type PrinterState int

const (
	Idle PrinterState = iota + 1
	Busy
)

var printerStates = map[string]PrinterState{
	"idle": Idle,
	"busy": Busy,
}

func (s PrinterState) String() string {
	for name, x := range printerStates {
		if x == s {
			return name
		}
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// PrinterStatus is a printer's state.  A busy printer reports its
// progress.  An idle printer reports whether its current model is
// printable.
type PrinterStatus struct {
	State    PrinterState
	Progress float64
	CanPrint bool
}

// Printer3D builds blocks out of shapes.
type Printer3D struct {
	*component.Handle
}

func NewPrinter3D(reg *component.Registry, addr core.Address) (*Printer3D, error) {
	h, err := reg.Handle(addr, KindPrinter3D)
	if err != nil {
		return nil, err
	}
	h.Declare(propMaxShapes, component.Immutable)
	return &Printer3D{h}, nil
}

// Commit starts printing count copies of the current model and
// reports whether printing started.
func (p *Printer3D) Commit(ctx context.Context, count int) (bool, error) {
	return callBool(ctx, p.Handle, "commit", count)
}

func (p *Printer3D) AddShape(ctx context.Context, s Shape) error {
	if err := s.Check(); err != nil {
		return err
	}
	return callNone(ctx, p.Handle, "addShape", s.args()...)
}

// Reset clears the model.  A print in progress finishes.
func (p *Printer3D) Reset(ctx context.Context) error {
	return callNone(ctx, p.Handle, "reset")
}

func (p *Printer3D) Label(ctx context.Context) (string, error) {
	return callText(ctx, p.Handle, "getLabel")
}

func (p *Printer3D) SetLabel(ctx context.Context, label string) error {
	return callNone(ctx, p.Handle, "setLabel", label)
}

func (p *Printer3D) Tooltip(ctx context.Context) (string, error) {
	return callText(ctx, p.Handle, "getTooltip")
}

func (p *Printer3D) SetTooltip(ctx context.Context, tooltip string) error {
	return callNone(ctx, p.Handle, "setTooltip", tooltip)
}

// ButtonMode reports whether the block returns to its inactive state
// by itself.
func (p *Printer3D) ButtonMode(ctx context.Context) (bool, error) {
	return callBool(ctx, p.Handle, "isButtonMode")
}

func (p *Printer3D) SetButtonMode(ctx context.Context, button bool) error {
	return callNone(ctx, p.Handle, "setButtonMode", button)
}

// RedstoneLevel is the signal the block emits when active.
func (p *Printer3D) RedstoneLevel(ctx context.Context) (int, error) {
	r, err := p.Invoke(ctx, "isRedstoneEmitter")
	if err != nil {
		return 0, err
	}
	n, err := r.Int(1)
	return int(n), err
}

func (p *Printer3D) SetRedstoneLevel(ctx context.Context, level int) error {
	if err := checkRange("redstone level", level, 0, 15); err != nil {
		return err
	}
	return callNone(ctx, p.Handle, "setRedstoneEmitter", level)
}

// CollideMode reports whether the block is collidable when inactive
// and when active.
func (p *Printer3D) CollideMode(ctx context.Context) (inactive, active bool, err error) {
	r, err := p.Invoke(ctx, "isCollidable")
	if err != nil {
		return false, false, err
	}
	vs, err := r.ExpectTuple(core.KindBool, core.KindBool)
	if err != nil {
		return false, false, err
	}
	return bool(vs[0].(core.Bool)), bool(vs[1].(core.Bool)), nil
}

func (p *Printer3D) SetCollidable(ctx context.Context, inactive, active bool) error {
	return callNone(ctx, p.Handle, "setCollidable", inactive, active)
}

func (p *Printer3D) LightLevel(ctx context.Context) (int, error) {
	return callInt(ctx, p.Handle, "getLightLevel")
}

func (p *Printer3D) SetLightLevel(ctx context.Context, level int) error {
	return callNone(ctx, p.Handle, "setLightLevel", level)
}

func (p *Printer3D) ShapeCount(ctx context.Context) (int, error) {
	return callInt(ctx, p.Handle, "getShapeCount")
}

// MaxShapeCount is fixed for a printer and is asked at most once.
func (p *Printer3D) MaxShapeCount(ctx context.Context) (int, error) {
	return cachedInt(ctx, p.Handle, propMaxShapes, "getMaxShapeCount")
}

func (p *Printer3D) Status(ctx context.Context) (*PrinterStatus, error) {
	r, err := p.Invoke(ctx, "status")
	if err != nil {
		return nil, err
	}
	state, err := core.EnumFromText(r, 0, printerStates)
	if err != nil {
		return nil, err
	}
	s := &PrinterStatus{
		State: state,
	}
	// Busy printers report their progress, idle ones whether they
	// could print.
	if state == Busy {
		s.Progress, err = r.Float(1)
	} else {
		s.CanPrint, err = r.Bool(1)
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}
