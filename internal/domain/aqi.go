package domain

import "math"

// PollutantKind identifies the particulate species a concentration measures.
type PollutantKind string

const (
	// FineParticulate is PM2.5, particles ≤ 2.5 µm in diameter.
	FineParticulate PollutantKind = "pm2.5"
	// CoarseParticulate is PM10, particles ≤ 10 µm in diameter.
	CoarseParticulate PollutantKind = "pm10"
)

// MaxIndex is the AQI reporting ceiling. Concentrations beyond the last
// breakpoint segment are clamped to it.
const MaxIndex = 500

// segment is one linear piece of the EPA breakpoint mapping.
type segment struct {
	concLow  float64
	concHigh float64
	idxLow   int
	idxHigh  int
}

// EPA 24-hour breakpoint tables, concentrations in µg/m³.
// Ordered, non-overlapping, contiguous from Good through Hazardous.
var (
	fineSegments = []segment{
		{0, 12.0, 0, 50},
		{12.1, 35.4, 51, 100},
		{35.5, 55.4, 101, 150},
		{55.5, 150.4, 151, 200},
		{150.5, 250.4, 201, 300},
		{250.5, 500.4, 301, 500},
	}

	coarseSegments = []segment{
		{0, 54, 0, 50},
		{55, 154, 51, 100},
		{155, 254, 101, 150},
		{255, 354, 151, 200},
		{355, 424, 201, 300},
		{425, 604, 301, 500},
	}
)

func segmentsFor(kind PollutantKind) []segment {
	switch kind {
	case FineParticulate:
		return fineSegments
	case CoarseParticulate:
		return coarseSegments
	default:
		return nil
	}
}

// IndexFromConcentration converts a pollutant concentration (µg/m³) into an
// AQI value by linear interpolation within the first breakpoint segment that
// contains it, rounding half away from zero (math.Round). Concentrations
// above the last segment return MaxIndex; negative or otherwise unmatched
// concentrations return 0. Never fails for a numeric input.
func IndexFromConcentration(kind PollutantKind, concentration float64) int {
	segs := segmentsFor(kind)
	if len(segs) == 0 {
		return 0
	}

	for _, s := range segs {
		if concentration >= s.concLow && concentration <= s.concHigh {
			slope := float64(s.idxHigh-s.idxLow) / (s.concHigh - s.concLow)
			return int(math.Round(slope*(concentration-s.concLow) + float64(s.idxLow)))
		}
	}

	if concentration > segs[len(segs)-1].concHigh {
		return MaxIndex
	}
	return 0
}

// CombinedIndex returns the AQI for a reading with optional PM2.5 and PM10
// concentrations. The higher-severity pollutant dominates; a nil
// concentration contributes 0, so two nils yield 0.
func CombinedIndex(fine, coarse *float64) int {
	index := 0
	if fine != nil {
		index = IndexFromConcentration(FineParticulate, *fine)
	}
	if coarse != nil {
		if v := IndexFromConcentration(CoarseParticulate, *coarse); v > index {
			index = v
		}
	}
	return index
}
