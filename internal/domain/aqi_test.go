package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIndexFromConcentration_Fine(t *testing.T) {
	tests := []struct {
		name     string
		conc     float64
		expected int
	}{
		{"zero", 0, 0},
		{"top of first segment", 12.0, 50},
		{"start of second segment", 12.1, 51},
		{"midpoint interpolation", 35.4, 100},
		{"segment boundary jump", 35.5, 101},
		{"unhealthy range", 55.4, 150},
		{"very unhealthy range", 150.5, 201},
		{"top of last segment", 500.4, 500},
		{"above ceiling", 501, 500},
		{"far above ceiling", 10000, 500},
		{"negative", -5, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IndexFromConcentration(FineParticulate, tt.conc))
		})
	}
}

func TestIndexFromConcentration_Coarse(t *testing.T) {
	tests := []struct {
		name     string
		conc     float64
		expected int
	}{
		{"zero", 0, 0},
		{"good range", 54, 50},
		{"moderate start", 55, 51},
		{"moderate end", 154, 100},
		{"unhealthy for sensitive start", 155, 101},
		{"top of last segment", 604, 500},
		{"above ceiling", 605, 500},
		{"negative", -1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IndexFromConcentration(CoarseParticulate, tt.conc))
		})
	}
}

func TestIndexFromConcentration_UnknownKind(t *testing.T) {
	assert.Equal(t, 0, IndexFromConcentration(PollutantKind("ozone"), 120))
}

func TestIndexFromConcentration_RoundsToNearest(t *testing.T) {
	// fine 13.0 → 51 + 49/23.3*0.9 ≈ 52.89 → 53
	assert.Equal(t, 53, IndexFromConcentration(FineParticulate, 13.0))
	// fine 20.0 → 51 + 49/23.3*7.9 ≈ 67.61 → 68
	assert.Equal(t, 68, IndexFromConcentration(FineParticulate, 20.0))
	// coarse 100 → 51 + 49/99*45 ≈ 73.27 → 73
	assert.Equal(t, 73, IndexFromConcentration(CoarseParticulate, 100))
}

// Within each table's covered range the index never decreases as the
// concentration increases.
func TestIndexFromConcentration_Monotonic(t *testing.T) {
	for _, kind := range []PollutantKind{FineParticulate, CoarseParticulate} {
		segs := segmentsFor(kind)
		prev := 0
		for _, s := range segs {
			step := (s.concHigh - s.concLow) / 50
			for c := s.concLow; c <= s.concHigh; c += step {
				idx := IndexFromConcentration(kind, c)
				assert.GreaterOrEqual(t, idx, prev, "kind=%s conc=%f", kind, c)
				prev = idx
			}
		}
	}
}

func TestCombinedIndex(t *testing.T) {
	tests := []struct {
		name     string
		fine     *float64
		coarse   *float64
		expected int
	}{
		{"fine dominates", f(35.5), f(55), 101},
		{"coarse dominates", f(5), f(200), 123},
		{"only fine", f(12.0), nil, 50},
		{"only coarse", nil, f(154), 100},
		{"both absent", nil, nil, 0},
		{"both zero", f(0), f(0), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CombinedIndex(tt.fine, tt.coarse))
		})
	}
}
