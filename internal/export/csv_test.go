package export_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkarls/aqi-ops/internal/domain"
	"github.com/mkarls/aqi-ops/internal/export"
	"github.com/mkarls/aqi-ops/internal/observability"
)

type mockRows struct {
	readings   []domain.Reading
	err        error
	lastFilter export.Filter
}

func (m *mockRows) StreamReadings(_ context.Context, filter export.Filter, fn func(domain.Reading) error) error {
	m.lastFilter = filter
	if m.err != nil {
		return m.err
	}
	for _, r := range m.readings {
		if err := fn(r); err != nil {
			return err
		}
	}
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func f(v float64) *float64 { return &v }

func TestExporter_WriteCSV(t *testing.T) {
	observed := time.Date(2026, time.February, 3, 14, 30, 0, 0, time.UTC)
	src := &mockRows{readings: []domain.Reading{
		{ID: 1, StationID: "s1", ObservedAt: observed, PM25: f(12.5), PM10: f(40), AQI: 52},
		{ID: 2, StationID: "s2", ObservedAt: observed.Add(time.Hour), PM25: f(8), AQI: 33},
	}}

	e := export.NewExporter(src, discardLogger(), observability.NewMetricsForTesting())

	var buf bytes.Buffer
	rows, err := e.WriteCSV(context.Background(), export.Filter{}, &buf)
	require.NoError(t, err)
	assert.Equal(t, int64(2), rows)

	expected := "id,station_id,observed_at,pm25,pm10,aqi\n" +
		"1,s1,2026-02-03T14:30:00Z,12.5,40,52\n" +
		"2,s2,2026-02-03T15:30:00Z,8,,33\n"
	assert.Equal(t, expected, buf.String())
}

func TestExporter_WriteCSV_EmptyResult(t *testing.T) {
	e := export.NewExporter(&mockRows{}, discardLogger(), observability.NewMetricsForTesting())

	var buf bytes.Buffer
	rows, err := e.WriteCSV(context.Background(), export.Filter{}, &buf)
	require.NoError(t, err)
	assert.Equal(t, int64(0), rows)
	assert.Equal(t, "id,station_id,observed_at,pm25,pm10,aqi\n", buf.String())
}

func TestExporter_WriteCSV_PassesFilter(t *testing.T) {
	src := &mockRows{}
	e := export.NewExporter(src, discardLogger(), observability.NewMetricsForTesting())

	filter := export.Filter{
		Station: "s7",
		Since:   time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC),
	}
	_, err := e.WriteCSV(context.Background(), filter, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, filter, src.lastFilter)
}

func TestExporter_WriteCSV_SourceError(t *testing.T) {
	src := &mockRows{err: errors.New("query cancelled")}
	e := export.NewExporter(src, discardLogger(), observability.NewMetricsForTesting())

	_, err := e.WriteCSV(context.Background(), export.Filter{}, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query cancelled")
}
