/* Copyright 2018-2019 Comcast Cable Communications Management, LLC
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

// Package core provides the value gear for invoking operations on
// components of a remote machine.
//
// The primary type is Variant, a closed tagged union (Nil, Bool,
// Number, Text, List and *Table) that is the unit of both arguments
// and results on the wire.  Encode turns native Go arguments into
// Variants.  A remote operation answers with a Result, which is just
// an ordered list of Variants, and the Result methods (ExpectAt,
// ExpectTuple, Int, Text, ...) and EnumFromText decode that list back
// into native values.
//
// Nothing here blocks or performs IO.  The channel package does the
// sending and waiting; this package only says what the values are and
// whether a reply has the shape a caller expects.  Decoding never
// substitutes a default: a reply with the wrong shape is a
// DecodeError, an UnknownEnumValue or a PrecisionLoss.
//
// Numbers are float64 on the wire.  Result.Int refuses a Number with
// a fractional part (PrecisionLoss); Result.TruncInt truncates on
// purpose.
package core
