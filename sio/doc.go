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

// Package sio has the transports that carry frames between a
// channel.Channel and a remote machine.
//
// StreamLink speaks newline-delimited JSON frames over any byte
// stream: a TCP connection, a child process's pipes, stdin and
// stdout.  WebSocketLink sends one frame per text message.  MQTTLink
// publishes requests to <prefix>/request and listens for responses on
// <prefix>/response.  HTTPRoundTripper POSTs each request and reads
// the response from the reply; wrap it with channel.NewRoundTripLink.
//
// A Store records traffic in a bbolt file.  A Recorder wraps any Link
// and appends every frame to a session in the Store, and a Replayer
// answers requests from a recorded session.
package sio
