// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 PDU Simulator Contributors

// Package hardware implements the Hardware Projector: the periodic loop
// that maps modeled line states onto GPIO pins and samples ADC channels
// back into telemetry, plus the GPIO contract it drives and a no-op
// simulator implementation of that contract. This package contains no
// MCP23017/I2C driver.
package hardware

import "fmt"

// PinLevel is the electrical level an output pin is driven to.
type PinLevel bool

const (
	PinLow  PinLevel = false
	PinHigh PinLevel = true
)

// Expander is the set of GPIO contract operations the Hardware Projector
// drives. It does not require bus-level transactions spanning multiple
// expanders — every call is scoped to one (address, pin) or one ADC
// channel.
type Expander interface {
	ConfigurePinAsOutput(addr uint8, pin int) error
	WritePin(addr uint8, pin int, level PinLevel) error
	ReadADC(channel int) (uint16, error)
}

// PinMapping locates one modeled line on one expander's pin.
type PinMapping struct {
	Addr uint8
	Pin  int
}

// lineToPin maps each of the 71 modeled line indices to its expander
// address and pin: 0x27 fills all 16 pins (lines 0-15), 0x26 only 8 (lines
// 16-23), 0x25 all 16 (24-39), 0x24 only 8 (40-47), 0x23 all 16 (48-63),
// 0x22 the remaining 7 (64-70).
var lineToPin = buildLineToPin()

type addrSpan struct {
	addr  uint8
	count int
}

var addrSpans = [6]addrSpan{
	{0x27, 16}, {0x26, 8}, {0x25, 16}, {0x24, 8}, {0x23, 16}, {0x22, 7},
}

func buildLineToPin() [71]PinMapping {
	var m [71]PinMapping
	line := 0
	for _, span := range addrSpans {
		for pin := 0; pin < span.count; pin++ {
			m[line] = PinMapping{Addr: span.addr, Pin: pin}
			line++
		}
	}
	return m
}

// PinFor returns the expander address and pin index backing modeled line
// index i (0-70).
func PinFor(i int) (PinMapping, error) {
	if i < 0 || i >= len(lineToPin) {
		return PinMapping{}, fmt.Errorf("hardware: line index %d out of range", i)
	}
	return lineToPin[i], nil
}
