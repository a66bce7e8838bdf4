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

// Package components provides typed wrappers for the component kinds
// found on a remote machine.
//
// Every wrapper embeds a *component.Handle, so wrappers can be passed
// as arguments to other components' operations, and every wrapper
// checks its arguments before anything is sent.  Invocation and
// decoding errors from package core are returned unchanged.
package components
