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

package testutil

import (
	"encoding/json"
	"fmt"

	"github.com/Comcast/ocremote/core"
)

// JS renders its argument as JSON or as '%#v'.
//
// Variants and Results are rendered in their wire form.
func JS(x interface{}) string {
	switch vv := x.(type) {
	case core.Result:
		x = core.ToJSON(core.List(vv))
	case core.Variant:
		x = core.ToJSON(vv)
	}
	bs, err := json.Marshal(&x)
	if err != nil {
		return fmt.Sprintf("%#v", x)
	}
	return string(bs)
}
