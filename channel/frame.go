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

package channel

import (
	"encoding/json"

	"github.com/Comcast/ocremote/core"
)

// Fault kinds as they appear on the wire.
const (
	FaultUnreachable = "unreachable"
	FaultRemote      = "fault"
)

// ListOp, sent to the zero address, asks the machine for a table from
// component address to kind.
const ListOp = "list"

// Request is one invocation as sent to the remote machine.
type Request struct {
	ID      uint64       `json:"id"`
	Address core.Address `json:"address"`
	Op      string       `json:"op"`
	Args    core.Values  `json:"args"`
}

// Response answers the Request with the same ID.
//
// Exactly one of Result and Error is meaningful.  A Response without
// an Error is a success, even when Result is empty.
type Response struct {
	ID     uint64      `json:"id"`
	Result core.Values `json:"result,omitempty"`
	Error  *Fault      `json:"error,omitempty"`
}

// Fault is a remote-side failure.
type Fault struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// NewFault makes a Response carrying a fault.
func NewFault(id uint64, kind, msg string) *Response {
	return &Response{
		ID: id,
		Error: &Fault{
			Kind:    kind,
			Message: msg,
		},
	}
}

// Frame is the envelope used by transports that carry requests and
// responses over one stream.  Only one of Request and Response is set.
type Frame struct {
	Request  *Request  `json:"request,omitempty"`
	Response *Response `json:"response,omitempty"`
}

// MarshalRequest renders a Request frame.
func MarshalRequest(r *Request) ([]byte, error) {
	return json.Marshal(&Frame{Request: r})
}

// MarshalResponse renders a Response frame.
func MarshalResponse(r *Response) ([]byte, error) {
	return json.Marshal(&Frame{Response: r})
}

// UnmarshalFrame parses a frame.
func UnmarshalFrame(bs []byte) (*Frame, error) {
	var f Frame
	if err := json.Unmarshal(bs, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// err converts the Response's fault, if any, into an invocation
// error.  Remote messages are passed through verbatim.
func (r *Response) err(req *Call) error {
	if r.Error == nil {
		return nil
	}
	kind := core.RemoteFault
	if r.Error.Kind == FaultUnreachable {
		kind = core.Unreachable
	}
	return core.NewInvocationError(kind, req.Address, req.Op, r.Error.Message, nil)
}
