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
	"errors"
	"testing"

	"github.com/Comcast/ocremote/core"
	"github.com/Comcast/ocremote/sim"
)

func TestAddShape(t *testing.T) {
	b := newBench(t)
	add := &recorder{result: core.Result{core.Bool(true)}}
	b.m.Attach(prAddr, KindPrinter3D, map[string]sim.Method{
		"addShape": add.method,
	})
	ctx := context.Background()

	p, err := NewPrinter3D(b.reg, prAddr)
	if err != nil {
		t.Fatal(err)
	}

	s := Shape{
		Min:     [3]int{0, 0, 0},
		Max:     [3]int{16, 8, 16},
		Texture: "stone",
	}
	err = p.AddShape(ctx, s)
	var re *RangeError
	if !errors.As(err, &re) || re.Arg != "max x" || re.Value != 16 {
		t.Fatal(err)
	}

	s.Max = [3]int{15, 0, 15}
	var shape *ShapeError
	if err = p.AddShape(ctx, s); !errors.As(err, &shape) {
		t.Fatal(err)
	}
	if n := b.m.Calls(prAddr, "addShape"); n != 0 {
		t.Fatal(n)
	}

	s.Max = [3]int{15, 8, 15}
	if err = p.AddShape(ctx, s); err != nil {
		t.Fatal(err)
	}
	checkArgs(t, add, n(0), n(0), n(0), n(15), n(8), n(15), core.Text("stone"), core.Bool(false))

	s.State = true
	s.Tint = 0xff336699
	if err = p.AddShape(ctx, s); err != nil {
		t.Fatal(err)
	}
	checkArgs(t, add, n(0), n(0), n(0), n(15), n(8), n(15), core.Text("stone"), core.Bool(true), n(0x336699))
}

func TestPrinterStatus(t *testing.T) {
	tests := []struct {
		name   string
		result core.Result
		want   PrinterStatus
		fails  bool
	}{
		{"busy", core.Result{core.Text("busy"), n(0.25)}, PrinterStatus{State: Busy, Progress: 0.25}, false},
		{"idle", core.Result{core.Text("idle"), core.Bool(true)}, PrinterStatus{State: Idle, CanPrint: true}, false},
		{"unknown", core.Result{core.Text("sleeping")}, PrinterStatus{}, true},
		{"busy without progress", core.Result{core.Text("busy")}, PrinterStatus{}, true},
		{"busy with a flag", core.Result{core.Text("busy"), core.Bool(true)}, PrinterStatus{}, true},
		{"idle with a number", core.Result{core.Text("idle"), n(1)}, PrinterStatus{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newBench(t)
			b.m.Attach(prAddr, KindPrinter3D, map[string]sim.Method{
				"status": sim.Const(tt.result...),
			})
			p, err := NewPrinter3D(b.reg, prAddr)
			if err != nil {
				t.Fatal(err)
			}
			s, err := p.Status(context.Background())
			if tt.fails {
				var (
					ue *core.UnknownEnumValue
					de *core.DecodeError
				)
				if !errors.As(err, &ue) && !errors.As(err, &de) {
					t.Fatal(err)
				}
				if s != nil {
					t.Fatal(*s)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if *s != tt.want {
				t.Fatal(*s)
			}
		})
	}
}

func TestPrinterProperties(t *testing.T) {
	b := newBench(t)
	light := &recorder{}
	b.m.Attach(prAddr, KindPrinter3D, map[string]sim.Method{
		"isRedstoneEmitter":  sim.Const(core.Bool(true), n(12)),
		"setRedstoneEmitter": sim.Const(),
		"isCollidable":       sim.Const(core.Bool(false), core.Bool(true)),
		"getMaxShapeCount":   sim.Const(n(24)),
		"getShapeCount":      sim.Const(n(3)),
		"setLightLevel":      light.method,
		"commit":             sim.Const(core.Bool(true)),
	})
	ctx := context.Background()

	p, err := NewPrinter3D(b.reg, prAddr)
	if err != nil {
		t.Fatal(err)
	}

	if lvl, err := p.RedstoneLevel(ctx); err != nil || lvl != 12 {
		t.Fatal(lvl, err)
	}
	var re *RangeError
	if err = p.SetRedstoneLevel(ctx, 16); !errors.As(err, &re) {
		t.Fatal(err)
	}
	if n := b.m.Calls(prAddr, "setRedstoneEmitter"); n != 0 {
		t.Fatal(n)
	}

	inactive, active, err := p.CollideMode(ctx)
	if err != nil || inactive || !active {
		t.Fatal(inactive, active, err)
	}

	for i := 0; i < 2; i++ {
		if most, err := p.MaxShapeCount(ctx); err != nil || most != 24 {
			t.Fatal(most, err)
		}
	}
	if n := b.m.Calls(prAddr, "getMaxShapeCount"); n != 1 {
		t.Fatal(n)
	}
	if k, err := p.ShapeCount(ctx); err != nil || k != 3 {
		t.Fatal(k, err)
	}

	if err = p.SetLightLevel(ctx, 7); err != nil {
		t.Fatal(err)
	}
	checkArgs(t, light, n(7))

	if ok, err := p.Commit(ctx, 2); err != nil || !ok {
		t.Fatal(ok, err)
	}
}
