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

// Three families of errors live here.
//
// Encoding errors happen before anything is sent.  Invocation errors
// come from the channel.  Decoding errors mean the reply did not have
// the shape the caller expected.  None of them is ever replaced by a
// default value.

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// UnencodableArgument occurs when Encode is given a value that has no
// wire mapping.
type UnencodableArgument struct {
	Index  int
	GoType string
	Reason string
}

func (e *UnencodableArgument) Error() string {
	msg := "argument " + strconv.Itoa(e.Index) + " of type " + e.GoType + " is not encodable"
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

// InvalidKey occurs when a Table is given a key that the remote
// protocol forbids (nil or NaN).
type InvalidKey struct {
	Key Variant
}

func (e *InvalidKey) Error() string {
	return "invalid table key " + Render(e.Key)
}

// TypeMismatch occurs when a Variant is narrowed to a kind it does not
// hold.
type TypeMismatch struct {
	Expected Kind
	Actual   Kind
}

func (e *TypeMismatch) Error() string {
	return "expected " + e.Expected.String() + ", got " + e.Actual.String()
}

// DecodeError occurs when a result element is missing or has the
// wrong kind.
//
// Observed is the whole result as received.
type DecodeError struct {
	Index    int
	Expected Kind
	Actual   Kind
	Missing  bool
	Observed Result
}

func (e *DecodeError) Error() string {
	var b strings.Builder
	b.WriteString("result[")
	b.WriteString(strconv.Itoa(e.Index))
	b.WriteString("]: expected ")
	b.WriteString(e.Expected.String())
	if e.Missing {
		b.WriteString(", missing")
	} else {
		b.WriteString(", got ")
		b.WriteString(e.Actual.String())
	}
	b.WriteString(" in ")
	b.WriteString(Render(List(e.Observed)))
	return b.String()
}

// UnknownEnumValue occurs when a Text result is not in the caller's
// table of known values.
type UnknownEnumValue struct {
	Index int
	Value string
}

func (e *UnknownEnumValue) Error() string {
	return "result[" + strconv.Itoa(e.Index) + "]: unknown value " + strconv.Quote(e.Value)
}

// PrecisionLoss occurs when an integer is requested from a Number that
// has a fractional part (or does not fit in an int64).
type PrecisionLoss struct {
	Index int
	Value float64
}

func (e *PrecisionLoss) Error() string {
	return "result[" + strconv.Itoa(e.Index) + "]: " +
		strconv.FormatFloat(e.Value, 'g', -1, 64) + " is not an integer"
}

// FailureKind classifies an InvocationError.
type FailureKind int

const (
	// Unreachable means no component is attached at the address,
	// or the link to the remote machine is gone.
	Unreachable FailureKind = iota + 1

	// RemoteFault means the remote operation raised an error.
	RemoteFault

	// Timeout means no response arrived before the deadline.
	Timeout

	// Cancelled means the caller withdrew the request.
	Cancelled
)

func (k FailureKind) String() string {
	switch k {
	case Unreachable:
		return "unreachable"
	case RemoteFault:
		return "remote fault"
	case Timeout:
		return "timeout"
	case Cancelled:
		return "cancelled"
	}
	return "unknown failure"
}

// Sentinels for errors.Is.
var (
	ErrUnreachable = errors.New("unreachable")
	ErrRemoteFault = errors.New("remote fault")
	ErrTimeout     = errors.New("timeout")
	ErrCancelled   = errors.New("cancelled")
)

func (k FailureKind) sentinel() error {
	switch k {
	case Unreachable:
		return ErrUnreachable
	case RemoteFault:
		return ErrRemoteFault
	case Timeout:
		return ErrTimeout
	case Cancelled:
		return ErrCancelled
	}
	return nil
}

// InvocationError is a channel-level failure of one invocation.
//
// For RemoteFault, Message is the remote-supplied text, verbatim.
type InvocationError struct {
	Kind    FailureKind
	Address Address
	Op      string
	Message string
	Cause   error
}

func (e *InvocationError) Error() string {
	if e.Kind == RemoteFault {
		return e.Message
	}
	s := e.Op + " on " + e.Address.String() + ": " + e.Kind.String()
	if e.Message != "" {
		s += ": " + e.Message
	}
	if e.Cause != nil {
		s += " (" + e.Cause.Error() + ")"
	}
	return s
}

func (e *InvocationError) Unwrap() error {
	return e.Cause
}

// Is matches the Err* sentinels by kind.
func (e *InvocationError) Is(target error) bool {
	if t, is := target.(*InvocationError); is {
		return e.Kind == t.Kind
	}
	return target == e.Kind.sentinel()
}

// NewInvocationError makes an InvocationError.
func NewInvocationError(kind FailureKind, addr Address, op, msg string, cause error) *InvocationError {
	return &InvocationError{
		Kind:    kind,
		Address: addr,
		Op:      op,
		Message: msg,
		Cause:   cause,
	}
}

// FailureOf returns the kind of the InvocationError in err's chain, or
// zero.
func FailureOf(err error) FailureKind {
	var ie *InvocationError
	if errors.As(err, &ie) {
		return ie.Kind
	}
	return 0
}

// Render is a compact rendering of a Variant for error messages and
// logs.
func Render(v Variant) string {
	switch vv := v.(type) {
	case nil, Nil:
		return "nil"
	case Bool:
		return strconv.FormatBool(bool(vv))
	case Number:
		return strconv.FormatFloat(float64(vv), 'g', -1, 64)
	case Text:
		return strconv.Quote(string(vv))
	case List:
		parts := make([]string, len(vv))
		for i, x := range vv {
			parts[i] = Render(x)
		}
		return "[" + strings.Join(parts, ",") + "]"
	case *Table:
		parts := make([]string, 0, vv.Len())
		vv.Range(func(k, x Variant) bool {
			parts = append(parts, Render(k)+"="+Render(x))
			return true
		})
		return "{" + strings.Join(parts, ",") + "}"
	}
	return fmt.Sprintf("%#v", v)
}
