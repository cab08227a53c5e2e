/*******************************************************************************
*
* Copyright 2015-2018 Stefan Majewsky <majewsky@gmx.net>
*
* Licensed under the Apache License, Version 2.0 (the "License");
* you may not use this file except in compliance with the License.
* You should have received a copy of the License along with this
* program. If not, you may obtain a copy of the License at
*
*     http://www.apache.org/licenses/LICENSE-2.0
*
* Unless required by applicable law or agreed to in writing, software
* distributed under the License is distributed on an "AS IS" BASIS,
* WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
* See the License for the specific language governing permissions and
* limitations under the License.
*
*******************************************************************************/

package rpmsig

import (
	"github.com/sirupsen/logrus"
)

// log is the package-wide structured logger. Callers embedding this package
// in a larger application can redirect it with SetLogger.
var log = logrus.New().WithField("component", "rpmsig")

// SetLogger replaces the logger this package writes diagnostics to. It is
// intended to be called once at program startup, before any signature
// operation runs.
func SetLogger(l *logrus.Logger) {
	log = l.WithField("component", "rpmsig")
}
