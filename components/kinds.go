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

package components

// Component kinds as the remote machine names them.
const (
	KindAccessPoint         = "access_point"
	KindComputer            = "computer"
	KindDatabase            = "database"
	KindFilesystem          = "filesystem"
	KindInventoryController = "inventory_controller"
	KindPiston              = "piston"
	KindPrinter3D           = "printer3d"
)

// Kinds lists every kind that has a wrapper here.
var Kinds = []string{
	KindAccessPoint,
	KindComputer,
	KindDatabase,
	KindFilesystem,
	KindInventoryController,
	KindPiston,
	KindPrinter3D,
}
