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

import "github.com/jetsetilly/gopher64-cia/hardware/cia/tod"

// Register addresses, mirrored every 16 bytes through the chip's 256-byte
// MMIO window by the caller (this package only ever sees the low nibble).
const (
	AddrPRA    = 0x0
	AddrPRB    = 0x1
	AddrDDRA   = 0x2
	AddrDDRB   = 0x3
	AddrTALO   = 0x4
	AddrTAHI   = 0x5
	AddrTBLO   = 0x6
	AddrTBHI   = 0x7
	AddrTOD10  = 0x8
	AddrTODSEC = 0x9
	AddrTODMIN = 0xA
	AddrTODHR  = 0xB
	AddrSDR    = 0xC
	AddrICR    = 0xD
	AddrCRA    = 0xE
	AddrCRB    = 0xF
)

// Read services a CPU read of the given register. addr is masked to the
// 4-bit range so an out-of-range index behaves like its mirrored register.
func (c *CIA) Read(addr uint8) uint8 {
	switch addr & 0xF {
	case AddrPRA:
		return c.readPortA()
	case AddrPRB:
		return c.readPortB()
	case AddrDDRA:
		return c.DDRA
	case AddrDDRB:
		return c.DDRB
	case AddrTALO:
		return uint8(c.counterA)
	case AddrTAHI:
		return uint8(c.counterA >> 8)
	case AddrTBLO:
		return uint8(c.counterB)
	case AddrTBHI:
		return uint8(c.counterB >> 8)
	case AddrTOD10:
		return c.tod.Read(tod.Tenths)
	case AddrTODSEC:
		return c.tod.Read(tod.Seconds)
	case AddrTODMIN:
		return c.tod.Read(tod.Minutes)
	case AddrTODHR:
		return c.tod.Read(tod.Hours)
	case AddrSDR:
		return c.SDR
	case AddrICR:
		return c.readICR()
	case AddrCRA:
		return uint8(c.cra)
	case AddrCRB:
		return uint8(c.crb)
	}
	panic("unreachable: addr&0xF is always in 0..15")
}

// Write services a CPU write of the given register.
func (c *CIA) Write(addr uint8, v uint8) {
	switch addr & 0xF {
	case AddrPRA:
		c.PRA = v
		if c.ports.OnWritePA != nil {
			c.ports.OnWritePA(c.readPortA())
		}
	case AddrPRB:
		c.PRB = v
		if c.ports.OnWritePB != nil {
			c.ports.OnWritePB(c.readPortB())
		}
	case AddrDDRA:
		c.DDRA = v
		if c.ports.OnWritePA != nil {
			c.ports.OnWritePA(c.readPortA())
		}
	case AddrDDRB:
		c.DDRB = v
		if c.ports.OnWritePB != nil {
			c.ports.OnWritePB(c.readPortB())
		}
	case AddrTALO:
		c.latchA = (c.latchA & 0xFF00) | uint16(v)
	case AddrTAHI:
		c.latchA = (c.latchA & 0x00FF) | uint16(v)<<8
		if !c.cra.started() {
			c.counterA = c.latchA
		}
	case AddrTBLO:
		c.latchB = (c.latchB & 0xFF00) | uint16(v)
	case AddrTBHI:
		c.latchB = (c.latchB & 0x00FF) | uint16(v)<<8
		if !c.crb.started() {
			c.counterB = c.latchB
		}
	case AddrTOD10:
		c.tod.Write(tod.Tenths, v, c.crb.alarmSelect())
	case AddrTODSEC:
		c.tod.Write(tod.Seconds, v, c.crb.alarmSelect())
	case AddrTODMIN:
		c.tod.Write(tod.Minutes, v, c.crb.alarmSelect())
	case AddrTODHR:
		c.tod.Write(tod.Hours, v, c.crb.alarmSelect())
	case AddrSDR:
		c.writeSDR(v)
	case AddrICR:
		c.writeIMR(v)
	case AddrCRA:
		c.writeCRA(v)
	case AddrCRB:
		c.writeCRB(v)
	}
}

// readPortA computes the value a CPU read of PRA observes: the latch bits
// that are configured as output, ORed with external input bits for the
// lines configured as input.
func (c *CIA) readPortA() uint8 {
	ext := uint8(0)
	if c.ports.ExternalA != nil {
		ext = c.ports.ExternalA()
	}
	return (c.PRA & c.DDRA) | (ext &^ c.DDRA)
}

// readPortB computes the same thing for PRB, but with PB6/PB7 overridden by
// the timer-underflow output whenever PB67TimerMode selects it for that bit,
// regardless of DDRB — the datasheet routes the timer output onto the pin
// driver itself, ahead of the direction logic.
func (c *CIA) readPortB() uint8 {
	ext := uint8(0)
	if c.ports.ExternalB != nil {
		ext = c.ports.ExternalB()
	}
	v := (c.PRB & c.DDRB) | (ext &^ c.DDRB)

	if c.cra.pbOn() {
		v = v&^0x40 | (c.pb67Out&0x40)
	}
	if c.crb.pbOn() {
		v = v&^0x80 | (c.pb67Out&0x80)
	}
	return v
}
