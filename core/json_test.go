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
	"encoding/json"
	"testing"
)

func TestJSONTextTable(t *testing.T) {
	v, err := UnmarshalVariant([]byte(`{"name":"minecraft:stone","size":64,"tags":["a","b"],"damaged":false}`))
	if err != nil {
		t.Fatal(err)
	}
	tbl, err := AsTable(v)
	if err != nil {
		t.Fatal(err)
	}
	if x, _ := tbl.Field("size"); !Equal(x, Number(64)) {
		t.Fatal(Render(x))
	}
	if x, _ := tbl.Field("tags"); !Equal(x, List{Text("a"), Text("b")}) {
		t.Fatal(Render(x))
	}

	js, err := MarshalVariant(v)
	if err != nil {
		t.Fatal(err)
	}
	w, err := UnmarshalVariant(js)
	if err != nil {
		t.Fatal(err)
	}
	if !Equal(v, w) {
		t.Fatalf("%s != %s", Render(v), Render(w))
	}
}

func TestJSONMixedKeys(t *testing.T) {
	tbl := NewTable().
		MustSet(Number(1), Text("first")).
		MustSet(Text("n"), Number(1)).
		MustSet(Bool(true), Nil{})

	js, err := MarshalVariant(tbl)
	if err != nil {
		t.Fatal(err)
	}
	var raw map[string]interface{}
	if err = json.Unmarshal(js, &raw); err != nil {
		t.Fatal(err)
	}
	if _, have := raw[TablePairsKey]; !have {
		t.Fatalf("expected pairs form, got %s", js)
	}

	v, err := UnmarshalVariant(js)
	if err != nil {
		t.Fatal(err)
	}
	if !Equal(v, tbl) {
		t.Fatalf("%s != %s", Render(v), Render(tbl))
	}
}

func TestValuesJSON(t *testing.T) {
	vs := Values{Nil{}, Bool(true), Number(1.5), Text("x"), List{}}
	js, err := json.Marshal(vs)
	if err != nil {
		t.Fatal(err)
	}
	if string(js) != `[null,true,1.5,"x",[]]` {
		t.Fatal(string(js))
	}
	var back Values
	if err = json.Unmarshal(js, &back); err != nil {
		t.Fatal(err)
	}
	if !Equal(List(back), List(vs)) {
		t.Fatal(Render(List(back)))
	}
}

func TestFromJSONRejects(t *testing.T) {
	if _, err := FromJSON(struct{}{}); err == nil {
		t.Fatal("struct became a Variant")
	}
	if _, err := FromJSON(map[string]interface{}{TablePairsKey: []interface{}{[]interface{}{nil, 1.0}}}); err == nil {
		t.Fatal("nil key accepted")
	}
}
