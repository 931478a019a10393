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

// Package cia2 wraps the shared CIA engine with chip 2's port wiring and
// interrupt routing: every CIA2 interrupt source goes to NMI rather than
// IRQ, PA's lower two bits select the video chip's memory bank, PA bits 3-7
// drive and read the IEC serial bus, and PB is a plain user-port
// byte with no CIA2-side interpretation.
package cia2

import (
	"github.com/jetsetilly/gopher64-cia/curated"
	"github.com/jetsetilly/gopher64-cia/hardware/cia"
	"github.com/jetsetilly/gopher64-cia/hardware/iec"
	"github.com/jetsetilly/gopher64-cia/hardware/quirks"
)

// VideoChip is the bank-select sink CIA2's PA bits 0-1 drive.
type VideoChip interface {
	SetBank(bank int)
}

// CPU is the interrupt sink CIA2 drives: every CIA2 interrupt source routes
// to NMI. A cartridge-driven NMI (the spec's ExpansionNMI) is a separate
// line entirely and is not modelled here, since cartridge logic is outside
// this core.
type CPU interface {
	RaiseNMI()
	ReleaseNMI()
}

// CIA2 is chip 2: PA bits 0-1 select the video bank (inverted:
// 3-(PA&3)), bits 3-5 drive IEC ATN/CLK/DATA out, bits 6-7 read IEC CLK/DATA
// in, and PB is a user-port byte this core does not otherwise interpret.
type CIA2 struct {
	Core   *cia.CIA
	Quirks *quirks.Quirks

	video VideoChip
	bus   *iec.Bus
}

// New returns a CIA2 wired to the given video chip, shared IEC bus and
// interrupt sink, in its power-on state. video may be nil if no bank-select
// sink is attached; bus and cpu are required, since CIA2 is meaningless
// without the bus it arbitrates or an NMI line to drive. q is the quirk set
// CIA2's timer engine reads on its tick-hot path; a nil q gets a fresh
// quirks.NewQuirks() with the datasheet-default behaviour, and the one
// actually in effect is always reachable afterwards through the returned
// CIA2's Quirks field.
func New(video VideoChip, bus *iec.Bus, cpu CPU, q *quirks.Quirks) (*CIA2, error) {
	if bus == nil {
		return nil, curated.Errorf("cia2: no IEC bus")
	}
	if cpu == nil {
		return nil, curated.Errorf("cia2: no CPU to route NMI to")
	}
	if q == nil {
		q = quirks.NewQuirks()
	}

	c2 := &CIA2{video: video, bus: bus, Quirks: q}

	c2.Core = cia.New("CIA2", cia.Ports{
		ExternalA:            c2.externalA,
		OnWritePA:            c2.onWritePA,
		PullInterruptLine:    cpu.RaiseNMI,
		ReleaseInterruptLine: cpu.ReleaseNMI,
	}, &q.Live)

	// Power-on PA is 0x00, which drives bank 3 and ATN/CLK/DATA low with
	// DDRA also 0x00 (nothing actually driven): push that initial state
	// onto the video chip and bus the same way a later write would.
	c2.onWritePA(c2.Core.ReadPortA())

	return c2, nil
}

// externalA supplies PA's input-side bits: CLK-in and DATA-in read straight
// off the shared bus onto PA6/PA7. They go through the same latch/DDR path
// as the rest of the port, so they reach a PRA read only while DDRA
// configures PA6/PA7 as inputs; as outputs they read back the PRA latch.
func (c2 *CIA2) externalA() uint8 {
	var v uint8
	if c2.bus.Level(iec.CLK) {
		v |= 0x40
	}
	if c2.bus.Level(iec.DATA) {
		v |= 0x80
	}
	return v
}

// onWritePA runs after any write that can change PA's observable value
// (the latch or DDRA): it propagates the video bank and CIA2's half of the
// IEC bus to their respective owners immediately, rather than waiting for
// something else to poll PA.
func (c2 *CIA2) onWritePA(pa uint8) {
	if c2.video != nil {
		c2.video.SetBank(3 - int(pa&0x03))
	}

	bits := (pa >> 3) & 0x07
	dir := (c2.Core.DDRA >> 3) & 0x07
	c2.bus.UpdateCiaPins(bits, dir)
}

// Read services a CPU read of the given CIA2 register.
func (c2 *CIA2) Read(addr uint8) uint8 { return c2.Core.Read(addr) }

// Write services a CPU write of the given CIA2 register.
func (c2 *CIA2) Write(addr uint8, v uint8) { c2.Core.Write(addr, v) }

// Tick advances CIA2 by one system cycle. Like CIA1, nothing external is
// wired to CNT/SP, so CNT is tied high.
func (c2 *CIA2) Tick() { c2.Core.Tick(true) }

// IncrementTOD advances CIA2's time-of-day clock by one tenth of a second.
// Most machines of this class only wire the TOD crystal to one of the two
// chips in practice, but the engine supports driving both identically.
func (c2 *CIA2) IncrementTOD() { c2.Core.IncrementTOD() }

// TriggerFlagEdge simulates an edge on CIA2's FLAG pin, wired to the serial
// bus's SRQ line on real hardware.
func (c2 *CIA2) TriggerFlagEdge(falling bool) { c2.Core.TriggerFlagEdge(falling) }

// Fingerprint exposes the underlying engine's state digest.
func (c2 *CIA2) Fingerprint() uint64 { return c2.Core.Fingerprint() }
