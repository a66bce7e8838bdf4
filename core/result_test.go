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
	"errors"
	"testing"
)

func TestExpectAtScenario(t *testing.T) {
	// getStrength answers [5].
	r := Result{Number(5)}
	v, err := r.ExpectAt(0, KindNumber)
	if err != nil {
		t.Fatal(err)
	}
	if !Equal(v, Number(5)) {
		t.Fatal(Render(v))
	}
	n, err := r.Int(0)
	if err != nil {
		t.Fatal(err)
	}
	if n != 5 {
		t.Fatal(n)
	}
}

func TestExpectAtMismatchNeverDefaults(t *testing.T) {
	results := []Result{
		{Nil{}},
		{Bool(false)},
		{Number(0)},
		{Text("")},
		{List{}},
		{NewTable()},
	}
	kinds := []Kind{KindNil, KindBool, KindNumber, KindText, KindList, KindTable}

	for _, r := range results {
		for _, k := range kinds {
			if KindOf(r[0]) == k {
				continue
			}
			v, err := r.ExpectAt(0, k)
			if v != nil {
				t.Fatalf("ExpectAt(%s) on %s returned %s", k, Render(List(r)), Render(v))
			}
			var de *DecodeError
			if !errors.As(err, &de) {
				t.Fatalf("expected DecodeError, got %v", err)
			}
			if de.Expected != k || de.Actual != KindOf(r[0]) || de.Missing {
				t.Fatal(de)
			}
			if len(de.Observed) != 1 {
				t.Fatal("lost observed result")
			}
		}
	}
}

func TestExpectAtMissing(t *testing.T) {
	var r Result
	_, err := r.Text(0)
	var de *DecodeError
	if !errors.As(err, &de) {
		t.Fatal(err)
	}
	if !de.Missing || de.Index != 0 {
		t.Fatal(de)
	}
	if _, err = (Result{Text("x")}).ExpectAt(-1, KindText); err == nil {
		t.Fatal("negative index")
	}
}

func TestExpectTuple(t *testing.T) {
	r := Result{Bool(false), Text("no inventory"), Text("trailing diagnostic")}
	vs, err := r.ExpectTuple(KindBool, KindText)
	if err != nil {
		t.Fatal(err)
	}
	if len(vs) != 2 || !Equal(vs[1], Text("no inventory")) {
		t.Fatal(vs)
	}

	if _, err = r.ExpectTuple(KindBool, KindNumber); err == nil {
		t.Fatal("should have failed at index 1")
	} else {
		var de *DecodeError
		if !errors.As(err, &de) || de.Index != 1 {
			t.Fatal(err)
		}
	}

	if _, err = r.ExpectTuple(KindBool, KindText, KindText, KindText); err == nil {
		t.Fatal("arity not checked")
	}
}

func TestIntPolicy(t *testing.T) {
	r := Result{Number(2.75), Number(-2.75), Number(7)}

	_, err := r.Int(0)
	var pl *PrecisionLoss
	if !errors.As(err, &pl) {
		t.Fatalf("expected PrecisionLoss, got %v", err)
	}
	if pl.Value != 2.75 {
		t.Fatal(pl)
	}

	if n, err := r.TruncInt(0); err != nil || n != 2 {
		t.Fatal(n, err)
	}
	if n, err := r.TruncInt(1); err != nil || n != -2 {
		t.Fatal(n, err)
	}
	if n, err := r.Int(2); err != nil || n != 7 {
		t.Fatal(n, err)
	}
}

type status int

const (
	busy status = iota + 1
	idle
)

func TestEnumFromText(t *testing.T) {
	mapping := map[string]status{
		"busy": busy,
		"idle": idle,
	}

	s, err := EnumFromText(Result{Text("idle")}, 0, mapping)
	if err != nil {
		t.Fatal(err)
	}
	if s != idle {
		t.Fatal(s)
	}

	s, err = EnumFromText(Result{Text("sleeping")}, 0, mapping)
	var ue *UnknownEnumValue
	if !errors.As(err, &ue) {
		t.Fatalf("expected UnknownEnumValue, got %v", err)
	}
	if s != 0 || ue.Value != "sleeping" {
		t.Fatal(s, ue)
	}

	if _, err = EnumFromText(Result{Number(1)}, 0, mapping); err == nil {
		t.Fatal("number decoded as enum")
	}
}

func TestEmptyTextIsData(t *testing.T) {
	// A read at end of file answers "", which is a value, not an
	// error.
	s, err := (Result{Text("")}).Text(0)
	if err != nil {
		t.Fatal(err)
	}
	if s != "" {
		t.Fatal(s)
	}
}
