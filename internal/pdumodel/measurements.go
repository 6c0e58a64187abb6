// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 PDU Simulator Contributors

package pdumodel

// channelCounts is the number of instrumented ADC channels per logical
// unit.
var channelCounts = [logicalUnitCount]int{
	UnitHighPowerHeaters: 9,
	UnitLowPowerHeaters:  4,
	UnitReactionWheels:   4,
	UnitPropulsion:       2,
	UnitAvionicLoads:     2,
	UnitHDRM:             16,
	UnitIsolatedLDO:      1,
	UnitIsolatedPower:    1,
	UnitThermalFlyback:   7,
}

// affineCoefficient converts a 12-bit raw ADC sample to an engineering-unit
// value: engineering = raw*gain + offset. Units and nominal per-line
// voltages are representative simulator values, not an authoritative
// flight calibration.
type affineCoefficient struct {
	gain   float64 // engineering units per raw ADC count
	offset float64
}

// nominalContribution is the per-line voltage contribution added for each
// enabled line within a logical unit (e.g. High-Power Heaters contribute
// ~3.7V per enabled line).
var nominalContribution = [logicalUnitCount]float64{
	UnitHighPowerHeaters: 3700, // millivolts per enabled line, two lines per ADC channel
	UnitLowPowerHeaters:  475,  // millivolts per enabled line
	UnitReactionWheels:   5000, // millivolts, one line per ADC channel
	UnitPropulsion:       40000,
	UnitAvionicLoads:     200,
	UnitHDRM:             28000, // millivolts, arm/group telemetry
	UnitIsolatedLDO:      0,
	UnitIsolatedPower:    0,
	UnitThermalFlyback:   5000,
}

// RawMax is the maximum value of a 12-bit unsigned ADC sample.
const RawMax = 4095

// rawFromEngineeringMillivolts maps an expected millivolt reading onto the
// 12-bit ADC range assuming a 0-40000mV full-scale input: tens of volts for
// HDRM/propulsion, single digits for avionics, all onto the same 12-bit
// channel range.
func rawFromEngineeringMillivolts(mv float64) uint16 {
	const fullScaleMillivolts = 40000.0
	if mv < 0 {
		mv = 0
	}
	raw := mv / fullScaleMillivolts * RawMax
	if raw > RawMax {
		raw = RawMax
	}
	return uint16(raw)
}

// engineeringFromRaw applies the affine conversion raw -> engineering units.
func engineeringFromRaw(raw uint16, coeff affineCoefficient) float64 {
	return float64(raw)*coeff.gain + coeff.offset
}

func coefficientFor(unit LogicalUnit) affineCoefficient {
	const fullScaleMillivolts = 40000.0
	return affineCoefficient{gain: fullScaleMillivolts / RawMax, offset: 0}
}

// ChannelCount returns the number of instrumented ADC channels belonging
// to a logical unit, for callers outside this package (the Hardware
// Projector) that need to size a per-unit sample buffer.
func ChannelCount(lu LogicalUnit) int {
	return channelCounts[lu]
}

// ChannelOffset returns the first global ADC channel index assigned to lu,
// in a flat numbering across all nine logical units' channels.
func ChannelOffset(lu LogicalUnit) int {
	offset := 0
	for i := LogicalUnit(0); i < lu; i++ {
		offset += channelCounts[i]
	}
	return offset
}

// Coefficient returns the affine (gain, offset) pair the Hardware
// Projector applies when converting raw ADC samples for lu into
// engineering units.
func Coefficient(lu LogicalUnit) (gain, offset float64) {
	c := coefficientFor(lu)
	return c.gain, c.offset
}

// Measurements holds one logical unit's raw and converted channel vectors.
type Measurements struct {
	Raw       []uint16
	Converted []float64
}

// synthesizeMeasurements recomputes a logical unit's raw/converted
// measurements from its current line-enable mask, following the per-unit
// synthesis rules below.
//
// mask is relative to the logical unit's own line range (bit 0 = first
// line owned by the unit).
func synthesizeMeasurements(unit LogicalUnit, mask uint64) Measurements {
	nb := channelCounts[unit]
	raw := make([]uint16, nb)
	conv := make([]float64, nb)
	coeff := coefficientFor(unit)

	switch unit {
	case UnitHDRM:
		// Channels 0-1: spare. 2-6: nominal line voltages, 7-11: redundant
		// line voltages, 12: nominal arm voltage, 13: redundant arm
		// voltage, 14: nominal group current, 15: redundant group current.
		for ch := 2; ch <= 11; ch++ {
			bit := ch - 2
			if mask&(1<<uint(bit)) != 0 {
				conv[ch] = nominalContribution[unit]
			}
		}
		conv[12] = nominalContribution[unit]
		conv[13] = nominalContribution[unit]
		for bit := 0; bit < 6; bit++ {
			if mask&(1<<uint(bit)) != 0 {
				conv[14] += nominalContribution[unit] / 6
			}
		}
		for bit := 6; bit < 12; bit++ {
			if mask&(1<<uint(bit)) != 0 {
				conv[15] += nominalContribution[unit] / 6
			}
		}
	case UnitThermalFlyback:
		for ch := range conv {
			conv[ch] = nominalContribution[unit]
		}
	default:
		_, lineCount := unit.Range()
		linesPerChannel := 1
		if lineCount > nb && nb > 0 {
			linesPerChannel = lineCount / nb
			if linesPerChannel == 0 {
				linesPerChannel = 1
			}
		}
		for ch := 0; ch < nb; ch++ {
			for l := 0; l < linesPerChannel; l++ {
				bit := ch*linesPerChannel + l
				if bit >= lineCount {
					break
				}
				if mask&(1<<uint(bit)) != 0 {
					conv[ch] += nominalContribution[unit]
				}
			}
		}
	}

	for ch := range conv {
		raw[ch] = rawFromEngineeringMillivolts(conv[ch])
		conv[ch] = engineeringFromRaw(raw[ch], coeff)
	}

	return Measurements{Raw: raw, Converted: conv}
}
