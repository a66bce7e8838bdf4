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

// Package channel carries component invocations to a remote machine
// and their results back.
//
// A Channel sits on a Link, which moves Request and Response frames.
// Many calls can be in flight at once.  Each call is tagged with an ID
// that is never reused, and each ends in exactly one way: a result, a
// remote fault, a timeout, a cancellation, or the link going down.
// Responses that arrive for calls that have already ended are
// dropped, logged, and counted.
//
// Transports live in package sio.  A transport that can only do
// request/response exchanges implements RoundTripper and is turned
// into a Link with NewRoundTripLink.
package channel
