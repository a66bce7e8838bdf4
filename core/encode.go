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
	"fmt"
	"math"
	"reflect"
)

// Encodable is implemented by types with a declared wire form, such as
// enumerated constants.
type Encodable interface {
	EncodeVariant() (Variant, error)
}

// Encode maps native call arguments to Variants.
//
// bool becomes Bool; every integer and float type becomes Number;
// string becomes Text; an Address or Addresser becomes the Text of
// the address; an Encodable becomes whatever it says; a Variant is
// used as is; nil becomes Nil.  Everything else is an
// UnencodableArgument, and so are NaN, the infinities, and a nil
// pointer standing in for an Addresser.
func Encode(args ...interface{}) ([]Variant, error) {
	acc := make([]Variant, len(args))
	for i, x := range args {
		v, err := encodeOne(x)
		if err == nil && !finite(v) {
			err = &UnencodableArgument{
				GoType: fmt.Sprintf("%T", x),
				Reason: "number is not finite",
			}
		}
		if err != nil {
			if u, is := err.(*UnencodableArgument); is {
				u.Index = i
			}
			return nil, err
		}
		acc[i] = v
	}
	return acc, nil
}

func encodeOne(x interface{}) (Variant, error) {
	switch vv := x.(type) {
	case nil:
		return Nil{}, nil
	case Variant:
		return vv, nil
	case bool:
		return Bool(vv), nil
	case int:
		return Number(float64(vv)), nil
	case int8:
		return Number(float64(vv)), nil
	case int16:
		return Number(float64(vv)), nil
	case int32:
		return Number(float64(vv)), nil
	case int64:
		return Number(float64(vv)), nil
	case uint:
		return Number(float64(vv)), nil
	case uint8:
		return Number(float64(vv)), nil
	case uint16:
		return Number(float64(vv)), nil
	case uint32:
		return Number(float64(vv)), nil
	case uint64:
		return Number(float64(vv)), nil
	case float32:
		return Number(float64(vv)), nil
	case float64:
		return Number(vv), nil
	case string:
		return Text(vv), nil
	case Address:
		return Text(vv.String()), nil
	case Addresser:
		if rv := reflect.ValueOf(vv); rv.Kind() == reflect.Ptr && rv.IsNil() {
			return nil, &UnencodableArgument{
				GoType: fmt.Sprintf("%T", x),
				Reason: "nil",
			}
		}
		return Text(vv.Address().String()), nil
	case Encodable:
		v, err := vv.EncodeVariant()
		if err != nil {
			return nil, err
		}
		if v == nil {
			return Nil{}, nil
		}
		return v, nil
	}
	return nil, &UnencodableArgument{
		GoType: fmt.Sprintf("%T", x),
	}
}

// finite reports whether every Number in v is neither NaN nor
// infinite.
func finite(v Variant) bool {
	switch vv := v.(type) {
	case Number:
		f := float64(vv)
		return !math.IsNaN(f) && !math.IsInf(f, 0)
	case List:
		for _, x := range vv {
			if !finite(x) {
				return false
			}
		}
	case *Table:
		ok := true
		vv.Range(func(k, x Variant) bool {
			ok = finite(k) && finite(x)
			return ok
		})
		return ok
	}
	return true
}
