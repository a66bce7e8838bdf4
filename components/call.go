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

	"github.com/Comcast/ocremote/component"
	"github.com/Comcast/ocremote/core"
)

func callBool(ctx context.Context, h *component.Handle, op string, args ...interface{}) (bool, error) {
	r, err := h.Invoke(ctx, op, args...)
	if err != nil {
		return false, err
	}
	return r.Bool(0)
}

func callInt(ctx context.Context, h *component.Handle, op string, args ...interface{}) (int, error) {
	r, err := h.Invoke(ctx, op, args...)
	if err != nil {
		return 0, err
	}
	n, err := r.Int(0)
	return int(n), err
}

func callText(ctx context.Context, h *component.Handle, op string, args ...interface{}) (string, error) {
	r, err := h.Invoke(ctx, op, args...)
	if err != nil {
		return "", err
	}
	return r.Text(0)
}

// callNone ignores whatever the operation returns.
func callNone(ctx context.Context, h *component.Handle, op string, args ...interface{}) error {
	_, err := h.Invoke(ctx, op, args...)
	return err
}

func fetchFirst(h *component.Handle, op string, kind core.Kind) component.Fetcher {
	return func(ctx context.Context) (core.Variant, error) {
		return h.InvokeFirst(ctx, op, kind)
	}
}

func cachedBool(ctx context.Context, h *component.Handle, prop, op string) (bool, error) {
	v, err := h.GetOrFetch(ctx, prop, fetchFirst(h, op, core.KindBool))
	if err != nil {
		return false, err
	}
	return core.AsBool(v)
}

func cachedInt(ctx context.Context, h *component.Handle, prop, op string) (int, error) {
	v, err := h.GetOrFetch(ctx, prop, fetchFirst(h, op, core.KindNumber))
	if err != nil {
		return 0, err
	}
	n, err := core.Result{v}.Int(0)
	return int(n), err
}

func cachedText(ctx context.Context, h *component.Handle, prop, op string) (string, error) {
	v, err := h.GetOrFetch(ctx, prop, fetchFirst(h, op, core.KindText))
	if err != nil {
		return "", err
	}
	return core.AsText(v)
}

// texts decodes a list of strings, which the remote side may send
// either as a list or as a table keyed 1..n.
func texts(v core.Variant) ([]string, error) {
	var vs []core.Variant
	switch vv := v.(type) {
	case core.List:
		vs = vv
	case *core.Table:
		for _, k := range vv.Keys() {
			x, _ := vv.Get(k)
			vs = append(vs, x)
		}
	default:
		return nil, &core.TypeMismatch{
			Expected: core.KindList,
			Actual:   core.KindOf(v),
		}
	}
	acc := make([]string, 0, len(vs))
	for _, x := range vs {
		s, err := core.AsText(x)
		if err != nil {
			return nil, err
		}
		acc = append(acc, s)
	}
	return acc, nil
}
