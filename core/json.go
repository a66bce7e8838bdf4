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
	"fmt"
)

// TablePairsKey marks a Table whose keys are not all Text.  Such a
// Table is rendered as {"@table":[[k,v],...]}.
const TablePairsKey = "@table"

// ToJSON converts a Variant to plain Go data suitable for
// json.Marshal.
func ToJSON(v Variant) interface{} {
	switch vv := v.(type) {
	case nil, Nil:
		return nil
	case Bool:
		return bool(vv)
	case Number:
		return float64(vv)
	case Text:
		return string(vv)
	case List:
		acc := make([]interface{}, len(vv))
		for i, x := range vv {
			acc[i] = ToJSON(x)
		}
		return acc
	case *Table:
		textual := true
		vv.Range(func(k, _ Variant) bool {
			_, textual = k.(Text)
			return textual
		})
		if textual {
			acc := make(map[string]interface{}, vv.Len())
			for k, x := range vv.StringMap() {
				acc[k] = ToJSON(x)
			}
			return acc
		}
		pairs := make([]interface{}, 0, vv.Len())
		vv.Range(func(k, x Variant) bool {
			pairs = append(pairs, []interface{}{ToJSON(k), ToJSON(x)})
			return true
		})
		return map[string]interface{}{
			TablePairsKey: pairs,
		}
	}
	return nil
}

// FromJSON converts generic decoded data (from encoding/json, a YAML
// parser or a script engine) to a Variant.
func FromJSON(x interface{}) (Variant, error) {
	switch vv := x.(type) {
	case nil:
		return Nil{}, nil
	case Variant:
		return vv, nil
	case bool:
		return Bool(vv), nil
	case float64:
		return Number(vv), nil
	case float32:
		return Number(float64(vv)), nil
	case int:
		return Number(float64(vv)), nil
	case int64:
		return Number(float64(vv)), nil
	case int32:
		return Number(float64(vv)), nil
	case uint64:
		return Number(float64(vv)), nil
	case json.Number:
		f, err := vv.Float64()
		if err != nil {
			return nil, err
		}
		return Number(f), nil
	case string:
		return Text(vv), nil
	case []interface{}:
		acc := make(List, len(vv))
		for i, y := range vv {
			v, err := FromJSON(y)
			if err != nil {
				return nil, err
			}
			acc[i] = v
		}
		return acc, nil
	case map[string]interface{}:
		if pairs, have := vv[TablePairsKey]; have && len(vv) == 1 {
			return tableFromPairs(pairs)
		}
		t := NewTable()
		for k, y := range vv {
			v, err := FromJSON(y)
			if err != nil {
				return nil, err
			}
			if err = t.Set(Text(k), v); err != nil {
				return nil, err
			}
		}
		return t, nil
	case map[interface{}]interface{}:
		t := NewTable()
		for k, y := range vv {
			kv, err := FromJSON(k)
			if err != nil {
				return nil, err
			}
			v, err := FromJSON(y)
			if err != nil {
				return nil, err
			}
			if err = t.Set(kv, v); err != nil {
				return nil, err
			}
		}
		return t, nil
	}
	return nil, fmt.Errorf("%#v (%T) has no Variant form", x, x)
}

func tableFromPairs(x interface{}) (Variant, error) {
	pairs, is := x.([]interface{})
	if !is {
		return nil, fmt.Errorf("%s value is a %T, not a list of pairs", TablePairsKey, x)
	}
	t := NewTable()
	for _, p := range pairs {
		kv, is := p.([]interface{})
		if !is || len(kv) != 2 {
			return nil, fmt.Errorf("bad %s pair %#v", TablePairsKey, p)
		}
		k, err := FromJSON(kv[0])
		if err != nil {
			return nil, err
		}
		v, err := FromJSON(kv[1])
		if err != nil {
			return nil, err
		}
		if err = t.Set(k, v); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Values is a list of Variants with a JSON form.
//
// Frames use Values for arguments and results.
type Values []Variant

func (vs Values) MarshalJSON() ([]byte, error) {
	acc := make([]interface{}, len(vs))
	for i, v := range vs {
		acc[i] = ToJSON(v)
	}
	return json.Marshal(acc)
}

func (vs *Values) UnmarshalJSON(bs []byte) error {
	var xs []interface{}
	if err := json.Unmarshal(bs, &xs); err != nil {
		return err
	}
	acc := make(Values, len(xs))
	for i, x := range xs {
		v, err := FromJSON(x)
		if err != nil {
			return err
		}
		acc[i] = v
	}
	*vs = acc
	return nil
}

// MarshalVariant renders a single Variant as JSON.
func MarshalVariant(v Variant) ([]byte, error) {
	return json.Marshal(ToJSON(v))
}

// UnmarshalVariant parses JSON into a Variant.
func UnmarshalVariant(bs []byte) (Variant, error) {
	var x interface{}
	if err := json.Unmarshal(bs, &x); err != nil {
		return nil, err
	}
	return FromJSON(x)
}
