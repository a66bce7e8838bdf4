/* Copyright 2018 Comcast Cable Communications Management, LLC
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

// Package match matches Variant values against patterns that contain
// variables.
//
// A pattern is an ordinary Variant in which a Text that starts with
// '?' is a variable.  "?" alone matches anything and binds nothing.
// "??x" is optional: it also matches a missing list element or table
// field.  With Inequalities on, "?<x" (and "<=", ">", ">=", "!=")
// matches a Number that compares that way to the bound value of "?<x"
// and binds it to "?x".
//
// Lists match element by element.  A table pattern matches any table
// that has at least the pattern's keys with matching values.
package match

import (
	"fmt"
	"strings"

	"github.com/Comcast/ocremote/core"
)

type Matcher struct {
	// Inequalities turns on numeric comparison variables.
	Inequalities bool
}

var DefaultMatcher = &Matcher{
	Inequalities: true,
}

// Bindings is a map from variables (strings starting with a '?') to
// their values.
type Bindings map[string]core.Variant

func NewBindings() Bindings {
	return make(Bindings, 8)
}

// Extend adds the binding; modifies and returns the Bindings.
func (bs Bindings) Extend(p string, v core.Variant) Bindings {
	bs[p] = v
	return bs
}

// Copy makes a shallow copy of the Bindings.
func (bs Bindings) Copy() Bindings {
	acc := make(Bindings, len(bs))
	for k, v := range bs {
		acc[k] = v
	}
	return acc
}

// IsVariable reports if the string represents a pattern variable.
func IsVariable(s string) bool {
	return strings.HasPrefix(s, "?")
}

// IsAnonymousVariable detects the variable "?", which matches
// anything and is never bound.
func IsAnonymousVariable(s string) bool {
	return s == "?"
}

func IsOptionalVariable(v core.Variant) bool {
	s, is := v.(core.Text)
	return is && strings.HasPrefix(string(s), "??")
}

// varName maps an optional variable to the name it binds.
func varName(s string) string {
	if strings.HasPrefix(s, "??") {
		return s[1:]
	}
	return s
}

// Match attempts to match the fact against the pattern, extending a
// copy of the given bindings.  The given bindings are not modified.
func (m *Matcher) Match(pattern, fact core.Variant, bindings Bindings) (Bindings, bool) {
	if bindings == nil {
		bindings = NewBindings()
	}
	bs := bindings.Copy()
	if !m.match(pattern, fact, bs) {
		return nil, false
	}
	return bs, true
}

func (m *Matcher) match(pattern, fact core.Variant, bs Bindings) bool {
	switch p := pattern.(type) {
	case nil, core.Nil:
		return core.IsNil(fact)

	case core.Text:
		s := string(p)
		if !IsVariable(s) {
			return core.Equal(p, fact)
		}
		if IsAnonymousVariable(s) {
			return true
		}
		if using, ok := m.inequal(fact, bs, s); using {
			return ok
		}
		name := varName(s)
		if bound, have := bs[name]; have {
			return core.Equal(bound, fact)
		}
		bs[name] = fact
		return true

	case core.List:
		f, is := fact.(core.List)
		if !is || len(f) > len(p) {
			return false
		}
		for i, x := range p {
			if i >= len(f) {
				if !IsOptionalVariable(x) {
					return false
				}
				continue
			}
			if !m.match(x, f[i], bs) {
				return false
			}
		}
		return true

	case *core.Table:
		f, is := fact.(*core.Table)
		if !is {
			return false
		}
		ok := true
		p.Range(func(k, x core.Variant) bool {
			y, have := f.Get(k)
			if !have {
				ok = IsOptionalVariable(x)
				return ok
			}
			ok = m.match(x, y, bs)
			return ok
		})
		return ok
	}

	return core.Equal(pattern, fact)
}

var inequalities = []string{"<=", ">=", "!=", ">", "<"}

// inequal handles inequality variables.  The first result reports
// whether v was used as an inequality.
func (m *Matcher) inequal(fact core.Variant, bs Bindings, v string) (bool, bool) {
	if !m.Inequalities || len(v) < 3 {
		return false, false
	}
	var ineq, name string
	for _, ie := range inequalities {
		if strings.HasPrefix(v[1:], ie) {
			ineq = ie
			name = "?" + v[1+len(ie):]
			break
		}
	}
	if ineq == "" || name == "?" {
		return false, false
	}

	x, have := bs[v]
	if !have {
		return false, false
	}
	b, is := x.(core.Number)
	if !is {
		return false, false
	}
	a, is := fact.(core.Number)
	if !is {
		return true, false
	}

	var satisfied bool
	switch ineq {
	case "<":
		satisfied = a < b
	case "<=":
		satisfied = a <= b
	case ">":
		satisfied = a > b
	case ">=":
		satisfied = a >= b
	case "!=":
		satisfied = a != b
	}
	if !satisfied {
		return true, false
	}

	if c, given := bs[name]; given {
		return true, core.Equal(c, a)
	}
	bs[name] = a
	return true, true
}

// UnboundVariable is returned by Substitute for a variable that has
// no binding.
type UnboundVariable struct {
	Variable string
}

func (e *UnboundVariable) Error() string {
	return fmt.Sprintf("unbound variable %s", e.Variable)
}

// Substitute replaces variables in the template with their bindings.
// An unbound optional variable becomes Nil.
func Substitute(template core.Variant, bs Bindings) (core.Variant, error) {
	switch t := template.(type) {
	case core.Text:
		s := string(t)
		if !IsVariable(s) || IsAnonymousVariable(s) {
			return t, nil
		}
		if v, have := bs[varName(s)]; have {
			return v, nil
		}
		if IsOptionalVariable(t) {
			return core.Nil{}, nil
		}
		return nil, &UnboundVariable{Variable: s}

	case core.List:
		acc := make(core.List, len(t))
		for i, x := range t {
			y, err := Substitute(x, bs)
			if err != nil {
				return nil, err
			}
			acc[i] = y
		}
		return acc, nil

	case *core.Table:
		acc := core.NewTable()
		var err error
		t.Range(func(k, x core.Variant) bool {
			var y core.Variant
			if y, err = Substitute(x, bs); err != nil {
				return false
			}
			err = acc.Set(k, y)
			return err == nil
		})
		if err != nil {
			return nil, err
		}
		return acc, nil
	}
	return template, nil
}

func Match(pattern, fact core.Variant, bindings Bindings) (Bindings, bool) {
	return DefaultMatcher.Match(pattern, fact, bindings)
}
