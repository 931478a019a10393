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

package cia

// delayBit names one position in the 64-bit delay/feed pipeline, a scheme
// credited to PC64Win (Wolfgang Lorenz) and used by most cycle-accurate
// 6526 cores since: every pipeline event is a bit position, shifting left
// by one each tick means "this fires N cycles from now" is encoded as "this
// bit is N positions below the one that's live this cycle".
type delayBit = uint64

const (
	CountA0 delayBit = 1 << iota
	CountA1
	CountA2
	CountA3
	CountB0
	CountB1
	CountB2
	CountB3
	LoadA0
	LoadA1
	LoadA2
	LoadB0
	LoadB1
	LoadB2
	PB6Low0
	PB6Low1
	PB7Low0
	PB7Low1
	Interrupt0
	Interrupt1
	OneShotA0
	OneShotB0
	ReadIcr0
	ReadIcr1
	ClearIcr0
	ClearIcr1
	ClearIcr2
	SetIcr0
	SetIcr1
	TODInt0
)

const (
	Cnt0 delayBit = 1 << (32 + iota)
	Cnt1
	Cnt2
	SerInt0
	SerInt1
	SerInt2
	SerLoad0
	SerLoad1
	SerClk0
	SerClk1
	SerClk2
	SerClk3
)

// delayMask clears every stage-0 bit right after the pipeline is shifted each
// cycle, before feed is merged in. Without this, the last stage of one event
// would shift into the stage-0 slot of the event that follows it in bit
// order (CountA3 into CountB0, LoadA2 into LoadB0, ...) and start that event
// spuriously. Stage-0 bits set directly into delay during a tick are
// already at stage 1 once shifted, so the mask does not touch them; feed
// supplies this cycle's stage-0 bits after the mask is applied.
const delayMask = ^(CountA0 | CountB0 | LoadA0 | LoadB0 | PB6Low0 | PB7Low0 |
	Interrupt0 | OneShotA0 | OneShotB0 | ReadIcr0 | ClearIcr0 | SetIcr0 |
	TODInt0 | Cnt0 | SerInt0 | SerLoad0 | SerClk0)
