/*******************************************************************************
*
* Copyright 2015 Stefan Majewsky <majewsky@gmx.net>
*
* This file is part of Holo.
*
* Holo is free software: you can redistribute it and/or modify it under the
* terms of the GNU General Public License as published by the Free Software
* Foundation, either version 3 of the License, or (at your option) any later
* version.
*
* Holo is distributed in the hope that it will be useful, but WITHOUT ANY
* WARRANTY; without even the implied warranty of MERCHANTABILITY or FITNESS FOR
* A PARTICULAR PURPOSE. See the GNU General Public License for more details.
*
* You should have received a copy of the GNU General Public License along with
* Holo. If not, see <http://www.gnu.org/licenses/>.
*
*******************************************************************************/

package main

import "strings"

// errorCollector aggregates errors from a batch of independent package
// operations (e.g. verifying a directory of packages) so every failure is
// reported, not just the first.
type errorCollector struct {
	errs []error
}

func newErrorCollector() *errorCollector {
	return &errorCollector{}
}

func (c *errorCollector) add(err error) {
	if err != nil {
		c.errs = append(c.errs, err)
	}
}

func (c *errorCollector) any() bool {
	return len(c.errs) > 0
}

func (c *errorCollector) Error() string {
	msgs := make([]string, len(c.errs))
	for i, e := range c.errs {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}
