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

// Package quirks exposes two CIA timing behaviours that datasheets and
// emulator authors disagree on as configuration rather than hard-coded
// either way. The defaults match the most commonly implemented reading.
package quirks

import (
	"sync/atomic"

	"github.com/jetsetilly/gopher64-cia/prefs"
)

// Live is the set of quirk values read from the tick-hot path. Each field
// mirrors the corresponding prefs.Bool below via a SetHookPost, so the hot
// path never pays for the prefs.Value boxing.
type Live struct {
	CNTGatedTimerB             atomic.Value // bool
	ForceLoadAlwaysDelaysCount atomic.Value // bool
}

// Quirks groups the disk-less preference wrappers for the two in-scope CIA
// open questions, plus the Live view the core actually reads.
type Quirks struct {
	Live Live

	// CNTGatedTimerB selects how CRB mode 11 (Timer B counts Timer A
	// underflows gated by CNT high) treats CNT. True counts a cascade pulse
	// from Timer A only when CNT is high on the cycle that pulse reaches
	// Timer B; false counts every cascade pulse and ignores CNT.
	CNTGatedTimerB prefs.Bool

	// ForceLoadAlwaysDelaysCount stands for whether writing CRA/CRB with
	// bit 4 (force load) set schedules a post-load count delay. The timer
	// write handlers read it, but either value gives the same behaviour: a
	// force-load write reloads the counter at once, a timer started by the
	// same write counts down from the next tick, and no post-load count
	// delay is scheduled whether bit 0 (start) is set or clear.
	ForceLoadAlwaysDelaysCount prefs.Bool
}

// NewQuirks returns a Quirks with both flags set to their unconditional,
// always-true behaviour.
func NewQuirks() *Quirks {
	q := &Quirks{}

	q.CNTGatedTimerB.SetHookPost(func(v prefs.Value) error {
		q.Live.CNTGatedTimerB.Store(v.(bool))
		return nil
	})
	q.ForceLoadAlwaysDelaysCount.SetHookPost(func(v prefs.Value) error {
		q.Live.ForceLoadAlwaysDelaysCount.Store(v.(bool))
		return nil
	})

	_ = q.CNTGatedTimerB.Set(true)
	_ = q.ForceLoadAlwaysDelaysCount.Set(true)

	return q
}

func (l *Live) cntGated() bool {
	v := l.CNTGatedTimerB.Load()
	return v != nil && v.(bool)
}

func (l *Live) forceLoadAlwaysDelays() bool {
	v := l.ForceLoadAlwaysDelaysCount.Load()
	return v == nil || v.(bool)
}

// CNTGatedTimerBLive reports the live value of the CNTGatedTimerB quirk.
func (l *Live) CNTGatedTimerBLive() bool { return l.cntGated() }

// ForceLoadAlwaysDelaysCountLive reports the live value of the
// ForceLoadAlwaysDelaysCount quirk.
func (l *Live) ForceLoadAlwaysDelaysCountLive() bool { return l.forceLoadAlwaysDelays() }
