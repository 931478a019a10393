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

// Package cia1 wraps the shared CIA engine with the port wiring and
// interrupt routing specific to chip 1: timer, TOD and FLAG interrupts go
// to IRQ, and PA/PB are given over to keyboard and joystick scanning rather
// than anything CIA1 itself interprets.
package cia1

import (
	"github.com/jetsetilly/gopher64-cia/curated"
	"github.com/jetsetilly/gopher64-cia/hardware/cia"
	"github.com/jetsetilly/gopher64-cia/hardware/quirks"
)

// InputSource supplies the keyboard matrix and joystick state CIA1's ports
// are wired to. KeyMatrix is given the column-select byte currently latched
// on PA and returns the row readback a real keyboard scan would produce:
// active low, one bit per row, clear where a key held down in that
// row/column intersection pulls the line down. JoystickBits returns the
// equivalent active-low mask for the named port (1 or 2); the caller ANDs
// it onto whichever CIA1 port that joystick shares wiring with.
type InputSource interface {
	KeyMatrix(columns uint8) uint8
	JoystickBits(port int) uint8
}

// CPU is the interrupt sink CIA1 drives: every CIA1 interrupt source routes
// to IRQ.
type CPU interface {
	RaiseIRQ()
	ReleaseIRQ()
}

// CIA1 is chip 1: PA drives the keyboard column select and doubles as
// joystick 2's input lines; PB reads the keyboard row lines back and
// doubles as joystick 1's input lines.
type CIA1 struct {
	Core   *cia.CIA
	Quirks *quirks.Quirks

	input InputSource
}

// New returns a CIA1 wired to the given input source and interrupt sink, in
// its power-on state. Both arguments are required: CIA1 has nothing
// meaningful to do without a keyboard/joystick source to scan or an IRQ
// line to drive. q is the quirk set CIA1's timer engine reads on its
// tick-hot path; a nil q gets a fresh quirks.NewQuirks() with the
// datasheet-default behaviour, and the one actually in effect is always
// reachable afterwards through the returned CIA1's Quirks field.
func New(input InputSource, cpu CPU, q *quirks.Quirks) (*CIA1, error) {
	if input == nil {
		return nil, curated.Errorf("cia1: no input source")
	}
	if cpu == nil {
		return nil, curated.Errorf("cia1: no CPU to route IRQ to")
	}
	if q == nil {
		q = quirks.NewQuirks()
	}

	c1 := &CIA1{input: input, Quirks: q}

	c1.Core = cia.New("CIA1", cia.Ports{
		ExternalA:            c1.externalA,
		ExternalB:            c1.externalB,
		PullInterruptLine:    cpu.RaiseIRQ,
		ReleaseInterruptLine: cpu.ReleaseIRQ,
	}, &q.Live)

	return c1, nil
}

// externalA supplies PA's input-side bits: joystick 2's mask. Like any
// external input it reaches only the PA lines DDRA configures as inputs;
// lines configured as output (the keyboard column select) read back the
// PRA latch.
func (c1 *CIA1) externalA() uint8 {
	return c1.input.JoystickBits(2)
}

// externalB supplies PB's input-side bits: the keyboard row readback for
// the column byte currently latched on PA, wired-AND with joystick 1.
func (c1 *CIA1) externalB() uint8 {
	columns := c1.Core.ReadPortA()
	return c1.input.KeyMatrix(columns) & c1.input.JoystickBits(1)
}

// Read services a CPU read of the given CIA1 register.
func (c1 *CIA1) Read(addr uint8) uint8 { return c1.Core.Read(addr) }

// Write services a CPU write of the given CIA1 register.
func (c1 *CIA1) Write(addr uint8, v uint8) { c1.Core.Write(addr, v) }

// Tick advances CIA1 by one system cycle. CIA1's CNT and SP pins have
// nothing external wired to them on this machine, so CNT is tied high (no
// edges, so the CNT-sourced timer/serial modes simply never count).
func (c1 *CIA1) Tick() { c1.Core.Tick(true) }

// IncrementTOD advances CIA1's time-of-day clock by one tenth of a second.
func (c1 *CIA1) IncrementTOD() { c1.Core.IncrementTOD() }

// TriggerFlagEdge simulates an edge on CIA1's FLAG pin, wired to the
// cassette data line on real hardware.
func (c1 *CIA1) TriggerFlagEdge(falling bool) { c1.Core.TriggerFlagEdge(falling) }

// Fingerprint exposes the underlying engine's state digest.
func (c1 *CIA1) Fingerprint() uint64 { return c1.Core.Fingerprint() }
