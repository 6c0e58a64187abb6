// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 PDU Simulator Contributors

package hardware

// SimulatedExpander is a no-op Expander used in simulator mode: it has no
// dependency on any host OS GPIO/I2C driver. Pin writes are recorded for
// tests and operator visibility; ADC reads return a fixed mid-scale value
// since no real load is connected.
type SimulatedExpander struct {
	levels map[uint8]map[int]PinLevel
}

// NewSimulatedExpander creates an Expander backed only by in-memory state.
func NewSimulatedExpander() *SimulatedExpander {
	return &SimulatedExpander{levels: make(map[uint8]map[int]PinLevel)}
}

func (s *SimulatedExpander) ConfigurePinAsOutput(addr uint8, pin int) error {
	return nil
}

func (s *SimulatedExpander) WritePin(addr uint8, pin int, level PinLevel) error {
	board, ok := s.levels[addr]
	if !ok {
		board = make(map[int]PinLevel)
		s.levels[addr] = board
	}
	board[pin] = level
	return nil
}

func (s *SimulatedExpander) ReadADC(channel int) (uint16, error) {
	return 2048, nil
}

// LevelOf returns the last level written to (addr, pin), for tests.
func (s *SimulatedExpander) LevelOf(addr uint8, pin int) (PinLevel, bool) {
	board, ok := s.levels[addr]
	if !ok {
		return PinLow, false
	}
	level, ok := board[pin]
	return level, ok
}
