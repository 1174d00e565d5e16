package domain

import "time"

// Reading is one stored observation from a collection station.
// PM25 and PM10 are nil when the station did not report that species.
type Reading struct {
	ID         int64
	StationID  string
	ObservedAt time.Time
	PM25       *float64
	PM10       *float64
	AQI        int
}

// IndexUpdate is a pending rewrite of a reading's stored AQI column.
type IndexUpdate struct {
	ReadingID int64
	NewIndex  int
}

// Correction is the audit record published when a stored index is rewritten.
type Correction struct {
	ReadingID   int64     `json:"reading_id"`
	StationID   string    `json:"station_id"`
	ObservedAt  time.Time `json:"observed_at"`
	PM25        *float64  `json:"pm25,omitempty"`
	PM10        *float64  `json:"pm10,omitempty"`
	OldIndex    int       `json:"old_index"`
	NewIndex    int       `json:"new_index"`
	CorrectedAt time.Time `json:"corrected_at"`
}

// Recalculate returns the index the reading should carry and whether it
// differs from the stored value. Recomputing an already-correct reading
// reports no change, so repeated runs are no-ops.
func Recalculate(r Reading) (int, bool) {
	index := CombinedIndex(r.PM25, r.PM10)
	return index, index != r.AQI
}

// NewCorrection builds the audit record for a rewritten reading, stamping
// CorrectedAt from the package clock.
func NewCorrection(r Reading, newIndex int) Correction {
	return Correction{
		ReadingID:   r.ID,
		StationID:   r.StationID,
		ObservedAt:  r.ObservedAt,
		PM25:        r.PM25,
		PM10:        r.PM10,
		OldIndex:    r.AQI,
		NewIndex:    newIndex,
		CorrectedAt: clock.Now(),
	}
}
