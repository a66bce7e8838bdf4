// Package goja runs component scripts written in ECMAScript using
// Goja.
//
// A script is the body of a function.  A component script returns an
// object whose function-valued properties are the component's
// methods:
//
//	var label = "";
//	return {
//	  getLabel: function() { return [label]; },
//	  setLabel: function(s) { label = s.substring(0, 16); return [label]; }
//	};
//
// A method's arguments arrive as plain values.  A method returns an
// array of results, a single result, or nothing.  Throwing reports a
// fault whose message is the thrown string (or the Error's message).
package goja

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/ioutil"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Comcast/ocremote/core"
	"github.com/Comcast/ocremote/util"

	"github.com/dop251/goja"
	"github.com/google/uuid"
	"github.com/gorhill/cronexpr"
	"go.uber.org/zap"
)

var (
	// InterruptedMessage is the string value of Interrupted.
	InterruptedMessage = "RuntimeError: timeout"

	// Interrupted is returned if the execution is interrupted.
	Interrupted = errors.New(InterruptedMessage)
)

// Program is a compiled script.
type Program = goja.Program

// Thrown is an exception thrown by a script.
type Thrown struct {
	Message string
}

func (e *Thrown) Error() string {
	return e.Message
}

// Interpreter compiles and runs scripts.
//
// See https://github.com/dop251/goja.
type Interpreter struct {

	// Testing is used to expose or hide some runtime
	// capabilities.
	Testing bool

	// LibraryProvider resolves the names in a script's "requires".
	// When nil, DefaultLibraryProvider is used.
	LibraryProvider func(ctx context.Context, i *Interpreter, libraryName string) (string, error)
}

// NewInterpreter makes a new Interpreter.
func NewInterpreter() *Interpreter {
	return &Interpreter{}
}

// ProvideLibrary resolves the library name into source.
func (i *Interpreter) ProvideLibrary(ctx context.Context, name string) (string, error) {
	if i.LibraryProvider != nil {
		return i.LibraryProvider(ctx, i, name)
	}
	return DefaultLibraryProvider(ctx, i, name)
}

var DefaultLibraryProvider = MakeFileLibraryProvider(".")

// MakeFileLibraryProvider supports (barely) names that are URLs with
// protocols of "file", "http", and "https".  File names are relative
// to dir.
func MakeFileLibraryProvider(dir string) func(context.Context, *Interpreter, string) (string, error) {
	return func(ctx context.Context, i *Interpreter, name string) (string, error) {
		parts := strings.SplitN(name, "://", 2)
		if 2 != len(parts) {
			return "", fmt.Errorf("bad link '%s'", name)
		}
		switch parts[0] {
		case "file":
			bs, err := ioutil.ReadFile(dir + "/" + parts[1])
			if err != nil {
				return "", err
			}
			return string(bs), nil
		case "http", "https":
			req, err := http.NewRequestWithContext(ctx, "GET", name, nil)
			if err != nil {
				return "", err
			}
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				return "", err
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				return "", fmt.Errorf("library fetch status %s", resp.Status)
			}
			bs, err := ioutil.ReadAll(resp.Body)
			if err != nil {
				return "", err
			}
			return string(bs), nil
		default:
			return "", fmt.Errorf("unknown protocol '%s'", parts[0])
		}
	}
}

func MakeMapLibraryProvider(srcs map[string]string) func(context.Context, *Interpreter, string) (string, error) {
	return func(ctx context.Context, i *Interpreter, name string) (string, error) {
		src, have := srcs[name]
		if !have {
			return "", fmt.Errorf("undefined library '%s'", name)
		}
		return src, nil
	}
}

func wrapSrc(src string) string {
	return fmt.Sprintf("(function() {\n%s\n}());\n", src)
}

// AsSource accepts either plain source code or a map with "code" and
// optional "requires" (a library name or a list of them).
//
// YAML parsers can give either map[string]interface{} or
// map[interface{}]interface{}, so both are supported.
func AsSource(src interface{}) (code string, libs []string, err error) {
	switch vv := src.(type) {
	case string:
		return vv, nil, nil
	case map[interface{}]interface{}:
		m := make(map[string]interface{}, len(vv))
		for k, v := range vv {
			s, ok := k.(string)
			if !ok {
				return "", nil, fmt.Errorf("bad src key (%T)", k)
			}
			m[s] = v
		}
		return parseSource(m)
	case map[string]interface{}:
		return parseSource(vv)
	}
	return "", nil, fmt.Errorf("bad Goja source (%T)", src)
}

func parseSource(vv map[string]interface{}) (code string, libs []string, err error) {
	s, is := vv["code"].(string)
	if !is {
		return "", nil, errors.New("bad Goja code")
	}
	code = s

	switch x := vv["requires"].(type) {
	case nil:
	case string:
		libs = []string{x}
	case []string:
		libs = x
	case []interface{}:
		for _, y := range x {
			lib, is := y.(string)
			if !is {
				return "", nil, fmt.Errorf("bad library %#v", y)
			}
			libs = append(libs, lib)
		}
	default:
		return "", nil, fmt.Errorf("bad requires (%T)", x)
	}
	return code, libs, nil
}

// Compile wraps the code in a function, prepends any required
// libraries, and compiles the result.
//
// This method can block if the LibraryProvider blocks.
func (i *Interpreter) Compile(ctx context.Context, src interface{}) (*Program, error) {
	code, libs, err := AsSource(src)
	if err != nil {
		return nil, err
	}

	var libsSrc string
	for _, lib := range libs {
		libSrc, err := i.ProvideLibrary(ctx, lib)
		if err != nil {
			return nil, err
		}
		libsSrc += libSrc + "\n"
	}

	p, err := goja.Compile("", libsSrc+wrapSrc(code), true)
	if err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}
	return p, nil
}

func protest(o *goja.Runtime, x interface{}) {
	panic(o.ToValue(x))
}

// runtime makes a Goja runtime with these utilities at _:
//
//	gensym(): a random string.
//	esc(s): URL query-escape the given string.
//	cronNext(expr): the next time the cron expression fires (RFC3339).
//	log(x): log x at info level.
//
// With Testing set, sleep(ms) is also available as a global.
func (i *Interpreter) runtime(globals map[string]interface{}) *goja.Runtime {
	o := goja.New()

	env := map[string]interface{}{}

	env["gensym"] = func() interface{} {
		return uuid.New().String()
	}

	env["esc"] = func(x goja.Value) interface{} {
		s, is := x.Export().(string)
		if !is {
			protest(o, "not a string")
		}
		return url.QueryEscape(s)
	}

	env["cronNext"] = func(x goja.Value) interface{} {
		expr, is := x.Export().(string)
		if !is {
			protest(o, "not a string")
		}
		c, err := cronexpr.Parse(expr)
		if err != nil {
			protest(o, err.Error())
		}
		return c.Next(time.Now()).UTC().Format(time.RFC3339Nano)
	}

	env["log"] = func(x goja.Value) interface{} {
		y := x.Export()
		js, err := json.Marshal(&y)
		if err != nil {
			util.Logger().Warn("script log", zap.Error(err))
		} else {
			util.Logger().Info("script log", zap.String("value", string(js)))
		}
		return y
	}

	o.Set("_", env)

	if i.Testing {
		o.Set("sleep", func(ms int) {
			time.Sleep(time.Duration(ms) * time.Millisecond)
		})
	}

	for k, v := range globals {
		o.Set(k, v)
	}

	return o
}

// guard runs f, interrupting the runtime if ctx ends first.
func guard(ctx context.Context, o *goja.Runtime, f func() (goja.Value, error)) (goja.Value, error) {
	ictx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ictx.Done()
		if ctx.Err() != nil {
			o.Interrupt(InterruptedMessage)
		}
	}()

	v, err := f()
	cancel()
	<-done
	o.ClearInterrupt()

	if err != nil {
		return nil, scriptError(err)
	}
	return v, nil
}

func scriptError(err error) error {
	switch e := err.(type) {
	case *goja.InterruptedError:
		return Interrupted
	case *goja.Exception:
		v := e.Value()
		if obj, is := v.(*goja.Object); is {
			if m := obj.Get("message"); m != nil && !goja.IsUndefined(m) {
				return &Thrown{Message: m.String()}
			}
		}
		return &Thrown{Message: v.String()}
	}
	return err
}

// Run executes the program and returns its value.
func (i *Interpreter) Run(ctx context.Context, p *Program, globals map[string]interface{}) (core.Variant, error) {
	o := i.runtime(globals)
	v, err := guard(ctx, o, func() (goja.Value, error) {
		return o.RunProgram(p)
	})
	if err != nil {
		return nil, err
	}
	return toVariant(v)
}

// Component is a loaded component script.  Calls are serialized, so
// scripts can keep state in closures.
type Component struct {
	sync.Mutex

	o       *goja.Runtime
	methods *goja.Object
}

// Load runs the program, which must return an object of methods.
func (i *Interpreter) Load(ctx context.Context, p *Program, globals map[string]interface{}) (*Component, error) {
	o := i.runtime(globals)
	v, err := guard(ctx, o, func() (goja.Value, error) {
		return o.RunProgram(p)
	})
	if err != nil {
		return nil, err
	}
	obj, is := v.(*goja.Object)
	if !is || goja.IsNull(v) {
		return nil, fmt.Errorf("component script returned %s, not an object", v)
	}
	return &Component{
		o:       o,
		methods: obj,
	}, nil
}

// Methods lists the component's method names.
func (c *Component) Methods() []string {
	c.Lock()
	defer c.Unlock()
	var acc []string
	for _, k := range c.methods.Keys() {
		if _, is := goja.AssertFunction(c.methods.Get(k)); is {
			acc = append(acc, k)
		}
	}
	sort.Strings(acc)
	return acc
}

// NoSuchMethod is returned by Call for a method the script does not
// define.
type NoSuchMethod struct {
	Method string
}

func (e *NoSuchMethod) Error() string {
	return "no such method " + e.Method
}

// Call invokes a method.
func (c *Component) Call(ctx context.Context, name string, args []core.Variant) (core.Result, error) {
	c.Lock()
	defer c.Unlock()

	fn, is := goja.AssertFunction(c.methods.Get(name))
	if !is {
		return nil, &NoSuchMethod{Method: name}
	}

	vals := make([]goja.Value, len(args))
	for i, a := range args {
		vals[i] = c.o.ToValue(core.ToJSON(a))
	}

	v, err := guard(ctx, c.o, func() (goja.Value, error) {
		return fn(c.methods, vals...)
	})
	if err != nil {
		return nil, err
	}
	return toResult(v)
}

func toVariant(v goja.Value) (core.Variant, error) {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return core.Nil{}, nil
	}
	x, err := canonicalize(v.Export())
	if err != nil {
		return nil, err
	}
	return core.FromJSON(x)
}

// toResult treats an array as the list of results.
func toResult(v goja.Value) (core.Result, error) {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return core.Result{}, nil
	}
	x, err := toVariant(v)
	if err != nil {
		return nil, err
	}
	if l, is := x.(core.List); is {
		return core.Result(l), nil
	}
	return core.Result{x}, nil
}

// canonicalize round-trips through JSON so exported values become
// plain maps, slices, strings, float64s, and bools.
func canonicalize(x interface{}) (interface{}, error) {
	js, err := json.Marshal(&x)
	if err != nil {
		return nil, err
	}
	var y interface{}
	if err = json.Unmarshal(js, &y); err != nil {
		return nil, err
	}
	return y, nil
}
