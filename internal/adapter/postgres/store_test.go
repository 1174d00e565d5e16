package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mkarls/aqi-ops/internal/export"
)

func TestExportQuery_NoFilter(t *testing.T) {
	query, args := exportQuery(export.Filter{})
	assert.Equal(t, "SELECT id, station_id, observed_at, pm25, pm10, aqi FROM readings ORDER BY id", query)
	assert.Empty(t, args)
}

func TestExportQuery_StationOnly(t *testing.T) {
	query, args := exportQuery(export.Filter{Station: "s1"})
	assert.Equal(t, "SELECT id, station_id, observed_at, pm25, pm10, aqi FROM readings WHERE station_id = $1 ORDER BY id", query)
	assert.Equal(t, []any{"s1"}, args)
}

func TestExportQuery_TimeBounds(t *testing.T) {
	since := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	until := time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC)

	query, args := exportQuery(export.Filter{Since: since, Until: until})
	assert.Equal(t, "SELECT id, station_id, observed_at, pm25, pm10, aqi FROM readings WHERE observed_at >= $1 AND observed_at < $2 ORDER BY id", query)
	assert.Equal(t, []any{since, until}, args)
}

func TestExportQuery_AllFilters(t *testing.T) {
	since := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	until := time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC)

	query, args := exportQuery(export.Filter{Station: "s9", Since: since, Until: until})
	assert.Equal(t, "SELECT id, station_id, observed_at, pm25, pm10, aqi FROM readings WHERE station_id = $1 AND observed_at >= $2 AND observed_at < $3 ORDER BY id", query)
	assert.Equal(t, []any{"s9", since, until}, args)
}
