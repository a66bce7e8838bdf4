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

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/ioutil"
	"path/filepath"
	"strings"

	"github.com/Comcast/ocremote/channel"
	"github.com/Comcast/ocremote/config"
	"github.com/Comcast/ocremote/core"
	"github.com/Comcast/ocremote/interpreters/goja"

	"github.com/jsccast/yaml"
)

// scriptGlobals binds a script to the machine:
//
//	invoke(addr, op, ...args): the results as an array.  Faults throw.
//	list(): the machine's components as an object from address to kind.
//	resolve(name): the address for an alias.
func scriptGlobals(ctx context.Context, cfg *config.Config, c *channel.Channel) map[string]interface{} {
	return map[string]interface{}{
		"invoke": func(name, op string, args ...interface{}) (interface{}, error) {
			addr, _, err := cfg.Resolve(name)
			if err != nil {
				return nil, err
			}
			vs := make([]interface{}, len(args))
			for i, x := range args {
				if vs[i], err = core.FromJSON(x); err != nil {
					return nil, fmt.Errorf("argument %d: %w", i, err)
				}
			}
			r, err := c.Invoke(ctx, addr, op, vs...)
			if err != nil {
				return nil, err
			}
			return core.ToJSON(core.List(r)), nil
		},
		"list": func() (interface{}, error) {
			v, err := c.InvokeFirst(ctx, core.NilAddress, channel.ListOp, core.KindTable)
			if err != nil {
				return nil, err
			}
			return core.ToJSON(v), nil
		},
		"resolve": func(name string) (string, error) {
			addr, _, err := cfg.Resolve(name)
			if err != nil {
				return "", err
			}
			return addr.String(), nil
		},
	}
}

// readScript reads plain source, or YAML with "code" and "requires".
func readScript(filename string) (interface{}, error) {
	bs, err := ioutil.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		var src interface{}
		if err = yaml.Unmarshal(bs, &src); err != nil {
			return nil, err
		}
		return src, nil
	}
	return string(bs), nil
}

func script(ctx context.Context, cfg *config.Config, c *channel.Channel, args []string, out io.Writer) error {
	if len(args) != 1 {
		return errors.New("usage: script FILE")
	}
	src, err := readScript(args[0])
	if err != nil {
		return err
	}

	i := goja.NewInterpreter()
	if cfg.Libraries != "" {
		i.LibraryProvider = goja.MakeFileLibraryProvider(cfg.Libraries)
	}
	p, err := i.Compile(ctx, src)
	if err != nil {
		return err
	}
	v, err := i.Run(ctx, p, scriptGlobals(ctx, cfg, c))
	if err != nil {
		return err
	}
	js, err := core.MarshalVariant(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "%s\n", js)
	return err
}
