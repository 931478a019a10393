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

// Package cia is the shared engine behind both CIA chips in the machine: the
// register file, the 64-bit delay/feed pipeline (delay.go), the timer A/B
// down-counters (timer.go), the serial shift register (serial.go) and the
// interrupt control/mask registers and INT line (this file).
//
// hardware/cia1 and hardware/cia2 each wrap a *CIA with the port wiring and
// interrupt line (IRQ vs NMI) specific to that chip. Nothing in this package
// knows which of the two it is: one struct, two configurations, no dynamic
// dispatch in the tick-hot path.
package cia

import (
	"fmt"

	"github.com/cespare/xxhash"

	"github.com/jetsetilly/gopher64-cia/hardware/cia/tod"
	"github.com/jetsetilly/gopher64-cia/hardware/quirks"
	"github.com/jetsetilly/gopher64-cia/logger"
)

// icr cause bits, latched into CIA.ICR and tested against IMR to derive the
// INT line. Bit positions match the public MOS-6526 ICR register.
const (
	icrTimerA = 1 << 0
	icrTimerB = 1 << 1
	icrAlarm  = 1 << 2
	icrSerial = 1 << 3
	icrFlag   = 1 << 4
)

// Ports groups the callbacks a CIA instance is wired to at construction.
// hardware/cia1 and hardware/cia2 each fill in a different subset; any field
// left nil is simply not exercised (e.g. CIA1 never drives an IEC line, so
// its Ports leaves that plumbing to the port-A latch read-back instead).
type Ports struct {
	// ExternalA and ExternalB supply the input-side bits of PRA/PRB: the
	// lines configured by DDRA/DDRB as inputs read through to whatever is
	// wired onto the physical pin (keyboard columns, IEC line levels, ...).
	ExternalA func() uint8
	ExternalB func() uint8

	// OnWritePA and OnWritePB are called after every write that can change
	// the observable value of PRA/PRB (the latch itself, or its direction
	// register), passing the new readPortA()/readPortB() value. CIA2 uses
	// OnWritePA to propagate VIC bank and IEC output changes immediately.
	OnWritePA func(v uint8)
	OnWritePB func(v uint8)

	// ExternalSP supplies the current level of the serial data pin for
	// input-mode shifting. nil reads as always-low.
	ExternalSP func() bool

	// PullInterruptLine and ReleaseInterruptLine drive the CPU's IRQ (CIA1)
	// or NMI (CIA2) line: a plain function value chosen once at
	// construction, rather than a virtual base-class dispatch.
	PullInterruptLine    func()
	ReleaseInterruptLine func()
}

// CIA is one MOS-6526 instance: register file, timer engine, serial shift
// register, TOD clock and interrupt control, all ticked together from the
// single 64-bit delay pipeline.
type CIA struct {
	label string

	ports  Ports
	quirks *quirks.Live

	PRA, PRB   uint8
	DDRA, DDRB uint8
	SDR        uint8

	cra, crb       ctrlReg
	latchA, latchB uint16
	counterA       uint16
	counterB       uint16

	pb67Out, pb67Toggle uint8

	tod *tod.Clock

	// ICR holds the five latched cause bits (read-clears-all). IMR is the
	// mask. intLineLow mirrors the physical state of the INT/IRQ/NMI wire,
	// which lags ICR/IMR by the ReadIcr/SetIcr/ClearIcr pipeline stages.
	ICR        uint8
	IMR        uint8
	icrPending uint8
	intLineLow bool

	delay uint64
	feed  uint64

	cntPrev bool

	serCounter     uint8
	serClk         bool
	serLoadPending bool
}

// New returns a CIA wired to the given ports and quirk set, in its power-on
// state. label is used only for DumpState/DumpTrace ("CIA1", "CIA2").
// quirksLive may be nil, in which case the datasheet-default (unconditional)
// behaviour applies to both timing quirks.
func New(label string, ports Ports, quirksLive *quirks.Live) *CIA {
	c := &CIA{label: label, ports: ports, quirks: quirksLive}
	c.Reset()
	return c
}

// Reset restores power-on state: all registers zero except TOD hours (1
// o'clock) and the timer latches, which power on at 0xFFFF.
func (c *CIA) Reset() {
	c.PRA, c.PRB = 0, 0
	c.DDRA, c.DDRB = 0, 0
	c.SDR = 0
	c.cra, c.crb = 0, 0
	c.latchA, c.latchB = 0xFFFF, 0xFFFF
	c.counterA, c.counterB = 0, 0
	c.pb67Out, c.pb67Toggle = 0, 0
	c.tod = tod.New()
	c.ICR, c.IMR = 0, 0
	c.icrPending = 0
	c.intLineLow = false
	c.delay, c.feed = 0, 0
	c.cntPrev = true // CNT idles high, so a caller holding it high sees no edge
	c.serCounter = 0
	c.serClk = false
	c.serLoadPending = false
}

// Tick advances the CIA by exactly one system cycle: Φ2. cnt is the current
// level of the external CNT pin (serial clock / Timer-B gate). A falling
// edge on the external FLAG pin does not go through Tick at all; callers
// report it via TriggerFlagEdge instead, since most callers drive the CIA
// through an outer scheduler that cannot always line FLG's edge up with a
// Tick call (e.g. the tape/cassette or serial-SRQ source).
func (c *CIA) Tick(cnt bool) {
	cntEdge := cnt && !c.cntPrev
	cntHigh := cnt
	c.cntPrev = cnt

	// Shift the pipeline and merge in the one-shot events fed by the end of
	// the previous tick (Interrupt0, OneShotA0, OneShotB0 — the only bits
	// that need the extra cycle of latency feed gives over setting delay
	// directly; see delay.go's comment on why stage-0 bits are cleared
	// before the merge).
	c.delay = (c.delay<<1)&delayMask | c.feed
	c.feed = 0
	cur := c.delay

	underflowA := c.stepTimerA(cur, cntEdge)
	// Timer B's cascade-from-A source rides on LoadA1, Timer A's own
	// reload-trigger signal, rather than underflowA directly: LoadA1 is
	// already one cycle behind the underflow, which is what keeps Timer B's
	// own LoadB1 reload from ever landing on the same tick as a count it
	// should have taken.
	underflowB := c.stepTimerB(cur, cntEdge, cntHigh, cur&LoadA1 != 0)

	c.stepSerial(cur, underflowA, cntEdge)

	if cur&PB6Low1 != 0 {
		c.pb67Out &^= 0x40
	}
	if cur&PB7Low1 != 0 {
		c.pb67Out &^= 0x80
	}

	if cur&Interrupt1 != 0 {
		c.ICR |= c.icrPending
		c.icrPending = 0
		c.refreshIntLine()
	}
	if cur&SerInt2 != 0 {
		c.ICR |= icrSerial
		c.refreshIntLine()
	}
	if cur&ReadIcr1 != 0 {
		c.refreshIntLine()
	}
	if cur&SetIcr1 != 0 {
		c.refreshIntLine()
	}
	if cur&ClearIcr2 != 0 {
		c.refreshIntLine()
	}

	// The continuous level-based bits are visible from the current register
	// state alone; nothing downstream reads them back (see timer.go's
	// stepTimerA comment), so they are set directly into delay rather than
	// recomputed into feed for next cycle's merge.
	_ = underflowB
}

// refreshIntLine recomputes the INT line from the current ICR/IMR and
// fires the pull/release callback on an actual transition only — invariant
// 2's level condition governs the value, but the L->H release is
// edge-sensitive and a steady-state low must not re-pull every cycle (spec
// invariant, §4.D's INT line state machine).
func (c *CIA) refreshIntLine() {
	low := c.ICR&c.IMR&0x1F != 0
	if low && !c.intLineLow {
		c.intLineLow = true
		if c.ports.PullInterruptLine != nil {
			c.ports.PullInterruptLine()
		}
	} else if !low && c.intLineLow {
		c.intLineLow = false
		if c.ports.ReleaseInterruptLine != nil {
			c.ports.ReleaseInterruptLine()
		}
	}
}

// readICR services a CPU read of the ICR register: returns the latched
// cause bits plus the live INT bit (computed now, ahead of the clear below),
// then clears the cause bits and schedules the one-cycle-later line release
// via ReadIcr0->ReadIcr1.
func (c *CIA) readICR() uint8 {
	causes := c.ICR & 0x1F
	v := causes
	if causes&c.IMR != 0 {
		v |= 0x80
	}
	c.ICR = 0
	c.delay |= ReadIcr0
	return v
}

// writeIMR services a CPU write of the ICR address, which the datasheet
// routes to the mask register using the set/clear convention in bit 7.
func (c *CIA) writeIMR(v uint8) {
	bits := v & 0x1F
	if v&0x80 != 0 {
		c.IMR |= bits
		if c.ICR&c.IMR&0x1F != 0 {
			c.delay |= SetIcr0
		}
	} else {
		c.IMR &^= bits
		c.delay |= ClearIcr0
		c.refreshIntLine()
	}
}

// writeSDR services a CPU write of the serial data register. In output mode
// with no shift in progress, the write only arms the next Timer A underflow
// to begin the load sequence — it does not start shifting immediately,
// matching the datasheet's "data is not transferred to the shift register
// until the underflow of Timer A" behaviour.
func (c *CIA) writeSDR(v uint8) {
	c.SDR = v
	if c.cra.serialOutput() && c.serCounter == 0 {
		c.serLoadPending = true
	}
}

// TriggerFlagEdge simulates an edge on the external FLAG pin. Only a
// falling edge sets ICR bit 4 (FLG); a rising edge is accepted and ignored,
// matching the chip's separate rising/falling-edge handlers for that pin.
func (c *CIA) TriggerFlagEdge(falling bool) {
	if !falling {
		return
	}
	c.icrPending |= icrFlag
	c.feed |= Interrupt0
}

// IncrementTOD advances the time-of-day clock by one tenth of a second. It
// is driven from outside the cycle pipeline at a fixed 10Hz. An alarm match
// commits the ICR alarm bit immediately: TOD runs asynchronously to Φ2, so
// there is no meaningful "N cycles later" to model here the way there is
// for a Timer A/B underflow.
func (c *CIA) IncrementTOD() {
	c.tod.Tick()
	if c.tod.MatchesAlarm() {
		c.delay |= TODInt0
		c.ICR |= icrAlarm
		c.refreshIntLine()
	}
}

// ReadPortA returns the current value of PRA, exactly as a CPU read of
// address 0x0 would. Exposed directly because CIA2's video-bank and IEC
// readback need it outside the CPU MMIO path.
func (c *CIA) ReadPortA() uint8 { return c.readPortA() }

// WritePortA writes PRA exactly as a CPU write of address 0x0 would,
// including the OnWritePA notification.
func (c *CIA) WritePortA(v uint8) { c.Write(AddrPRA, v) }

// ReadPortB is ReadPortA's counterpart for PRB.
func (c *CIA) ReadPortB() uint8 { return c.readPortB() }

// WritePortB is WritePortA's counterpart for PRB.
func (c *CIA) WritePortB(v uint8) { c.Write(AddrPRB, v) }

// Fingerprint returns a cheap, comparable hash of the CIA's state: register
// file, timer latches and counters, PB6/PB7 output state, serial bit count,
// the delay/feed pipeline words and the TOD hours byte. The other TOD fields,
// the alarm registers, the pending ICR bits and the INT line level are not
// included. It lets a tick sequence be asserted against an exact state
// without comparing two dozen fields by hand, and is exposed publicly for
// the same reason an outer snapshot/rewind system would want it — to decide
// cheaply whether two CIA states have diverged.
func (c *CIA) Fingerprint() uint64 {
	var buf [40]byte
	buf[0], buf[1] = c.PRA, c.PRB
	buf[2], buf[3] = c.DDRA, c.DDRB
	buf[4] = byte(c.latchA)
	buf[5] = byte(c.latchA >> 8)
	buf[6] = byte(c.latchB)
	buf[7] = byte(c.latchB >> 8)
	buf[8] = byte(c.counterA)
	buf[9] = byte(c.counterA >> 8)
	buf[10] = byte(c.counterB)
	buf[11] = byte(c.counterB >> 8)
	buf[12], buf[13] = byte(c.cra), byte(c.crb)
	buf[14] = c.SDR
	buf[15], buf[16] = c.ICR, c.IMR
	buf[17] = c.pb67Out
	buf[18] = c.pb67Toggle
	buf[19] = c.serCounter
	for i := 0; i < 8; i++ {
		buf[20+i] = byte(c.delay >> (8 * i))
	}
	buf[28] = c.tod.Read(tod.Hours)
	for i := 0; i < 8; i++ {
		buf[29+i] = byte(c.feed >> (8 * i))
	}
	return xxhash.Sum64(buf[:])
}

// DumpState writes a single human-readable line summarising the CIA's
// register file and pipeline state to the shared diagnostic log.
func (c *CIA) DumpState() string {
	s := fmt.Sprintf(
		"PRA=%02x PRB=%02x DDRA=%02x DDRB=%02x CRA=%02x CRB=%02x counterA=%04x counterB=%04x ICR=%02x IMR=%02x INT=%v",
		c.PRA, c.PRB, c.DDRA, c.DDRB, uint8(c.cra), uint8(c.crb), c.counterA, c.counterB, c.ICR, c.IMR, c.intLineLow,
	)
	logger.Log(c.label, s)
	return s
}

// DumpTrace writes a single line summarising just the delay/feed pipeline,
// the part of the state a per-cycle trace is usually taken for.
func (c *CIA) DumpTrace() string {
	s := fmt.Sprintf("delay=%016x feed=%016x", c.delay, c.feed)
	logger.Log(c.label, s)
	return s
}
