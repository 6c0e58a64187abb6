// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 PDU Simulator Contributors

package hardware

import (
	"context"
	"log"
	"time"

	"github.com/obc-avionics/pdusim/internal/pdumodel"
)

// Projector runs the periodic loop that maps modeled line states onto
// GPIO pins and samples ADC channels back into telemetry. It writes only
// RawMeasurements/ConvertedMeasurements (which line-mutating commands
// also resynthesize) and never initiates mode transitions or touches
// UnitLineStates.
type Projector struct {
	states   *pdumodel.StateManager
	expander Expander
	cadence  time.Duration
	logger   *log.Logger
}

// NewProjector builds a Projector that drives expander at the given
// cadence (e.g. 10 Hz -> 100ms).
func NewProjector(states *pdumodel.StateManager, expander Expander, cadence time.Duration, logger *log.Logger) *Projector {
	return &Projector{states: states, expander: expander, cadence: cadence, logger: logger}
}

// ConfigureOutputs configures every one of the 71 modeled lines' backing
// pins as outputs. Called once before the first cycle.
func (p *Projector) ConfigureOutputs() error {
	for i := 0; i < pdumodel.LineCount; i++ {
		mapping, err := PinFor(i)
		if err != nil {
			return err
		}
		if err := p.expander.ConfigurePinAsOutput(mapping.Addr, mapping.Pin); err != nil {
			return err
		}
	}
	return nil
}

// Run executes projection cycles at the configured cadence until ctx is
// canceled.
func (p *Projector) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.cadence)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			p.cycle()
		}
	}
}

// cycle performs one full projection: snapshot line states, drive pins,
// sample ADC channels, and commit measurements. Line states from both
// units are combined onto the single physical pin set: both PDU units'
// line states aggregate onto the same MCP23017 boards rather than
// modeling a second physical backplane for the redundant unit.
func (p *Projector) cycle() {
	combined := p.combinedLineStates()
	p.drivePins(combined)

	for _, unit := range p.states.Units() {
		p.sampleMeasurements(unit)
	}
}

func (p *Projector) combinedLineStates() [pdumodel.LineCount]bool {
	var combined [pdumodel.LineCount]bool
	for _, unit := range p.states.Units() {
		lines := unit.SnapshotLines().LineStates
		for i, on := range lines {
			if on {
				combined[i] = true
			}
		}
	}
	return combined
}

// drivePins projects the combined line vector onto GPIO pins. Output
// polarity is inverted: line enabled drives the pin LOW.
func (p *Projector) drivePins(lines [pdumodel.LineCount]bool) {
	faulted := make(map[uint8]bool)
	for i, on := range lines {
		mapping, err := PinFor(i)
		if err != nil {
			continue
		}
		if faulted[mapping.Addr] {
			continue
		}
		level := PinHigh
		if on {
			level = PinLow
		}
		if err := p.expander.WritePin(mapping.Addr, mapping.Pin, level); err != nil {
			p.logger.Printf("projector: write pin %#x/%d failed: %v", mapping.Addr, mapping.Pin, err)
			faulted[mapping.Addr] = true
			for _, unit := range p.states.Units() {
				unit.IncrementError(pdumodel.ErrorHardwareFault)
			}
		}
	}
}

// sampleMeasurements reads every logical unit's ADC channels for unit and
// commits the raw/converted measurements atomically. On an ADC read
// failure it keeps the last-known sample for that channel and still
// increments hardware-fault, but continues the cycle for the remaining
// channels and logical units.
func (p *Projector) sampleMeasurements(unit *pdumodel.PduUnit) {
	for lu := pdumodel.LogicalUnit(0); int(lu) < pdumodel.LogicalUnitCount; lu++ {
		n := pdumodel.ChannelCount(lu)
		if n == 0 {
			continue
		}
		offset := pdumodel.ChannelOffset(lu)
		raw := make([]uint16, n)
		prev := unit.RawMeasurements(lu)
		faulted := false
		for ch := 0; ch < n; ch++ {
			sample, err := p.expander.ReadADC(offset + ch)
			if err != nil {
				unit.IncrementError(pdumodel.ErrorHardwareFault)
				faulted = true
				if ch < len(prev) {
					raw[ch] = prev[ch]
				}
				continue
			}
			raw[ch] = sample
		}
		if faulted {
			p.logger.Printf("projector: ADC read fault sampling logical unit %s", lu.Name())
		}
		gain, offsetCoeff := pdumodel.Coefficient(lu)
		unit.CommitMeasurements(lu, raw, func(r uint16) float64 {
			return float64(r)*gain + offsetCoeff
		})
	}
}
