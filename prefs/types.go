// This file is part of Gopher2600.
//
// Gopher2600 is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Gopher2600 is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Gopher2600.  If not, see <https://www.gnu.org/licenses/>.

// Package prefs provides the Bool preference type used by hardware/quirks to
// expose the core's few undocumented, disputed timing behaviours as live,
// atomically-read toggles. There is no disk-backed persistence half: this
// core has no file or CLI surface of its own, so quirks are always set in
// memory by the embedding scheduler.
package prefs

import (
	"fmt"
	"strings"
	"sync/atomic"
)

// Value is the underlying Go value stored by a preference.
type Value interface{}

// Bool is a boolean preference. Reads go through an atomic.Value so it is
// safe to flip a quirk from outside the tick goroutine (e.g. from a
// debugger) between ticks without additional locking.
type Bool struct {
	value    atomic.Value // bool
	hookPost func(Value) error
}

func (p *Bool) String() string {
	return fmt.Sprintf("%v", p.Get())
}

// Set stores a new value, invoking the post-set hook if one is registered.
func (p *Bool) Set(v Value) error {
	var nv bool
	switch v := v.(type) {
	case bool:
		nv = v
	case string:
		nv = strings.EqualFold(v, "true")
	default:
		return fmt.Errorf("set: cannot convert %T to prefs.Bool", v)
	}

	p.value.Store(nv)

	if p.hookPost != nil {
		return p.hookPost(nv)
	}
	return nil
}

// Get returns the current value, defaulting to false if never set.
func (p *Bool) Get() Value {
	v := p.value.Load()
	if v == nil {
		return false
	}
	return v.(bool)
}

// SetHookPost registers a callback invoked after every Set(), including the
// initial default. Used by quirks.Quirks to mirror a Bool's value into a
// plain atomic.Value the tick-hot path can read without the prefs.Value
// boxing/unboxing.
func (p *Bool) SetHookPost(f func(Value) error) {
	p.hookPost = f
}
