// Copyright (C) 2024 Vortex Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package array

import (
	"sync"

	"github.com/vortex-io/vortex/vxerr"
)

// registry is the process-wide encoding table described in spec.md §9:
// initialized (by Register calls from encoding packages' init()
// functions) once at process start and read-only thereafter. A mutex
// guards the initialization window only; steady-state lookups are
// expected to occur after all init() functions have run.
var registry struct {
	mu   sync.RWMutex
	byID map[uint32]Encoding
}

func init() {
	registry.byID = make(map[uint32]Encoding)
}

// Register installs impl as the implementation for encoding id. It is
// intended to be called from encoding package init() functions, before
// any array referencing that id is constructed. Re-registering the
// same id is permitted (tests commonly install fakes) but is not
// expected in production use.
func Register(id uint32, impl Encoding) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	registry.byID[id] = impl
}

// Lookup returns the Encoding registered for id, or UnknownEncoding if
// none is registered. Lookup is constant-time, per spec.md §4.1.
func Lookup(id uint32) (Encoding, error) {
	registry.mu.RLock()
	impl, ok := registry.byID[id]
	registry.mu.RUnlock()
	if !ok {
		return nil, vxerr.New(vxerr.UnknownEncoding, "array: no encoding registered for id %d", id)
	}
	return impl, nil
}
