// Package domain models air-quality readings and the EPA Air Quality Index.
//
// # Data Source
//
// Readings originate from PM2.5/PM10 particulate sensors feeding the
// collection pipeline. The collector stores one row per station per
// observation with raw concentrations in micrograms per cubic meter (µg/m³)
// and a precomputed AQI column. Early collector builds carried a conversion
// bug that corrupted stored AQI values, which is why the batch correction job
// exists: it recomputes the index from the raw concentrations and rewrites
// only the rows that disagree.
//
// # AQI Conversion
//
// The index is the EPA piecewise-linear breakpoint interpolation over 24-hour
// average concentrations (EPA Technical Assistance Document for the Reporting
// of Daily Air Quality):
//
//	index = (idxHigh-idxLow)/(concHigh-concLow) * (conc-concLow) + idxLow
//
// rounded to the nearest integer (half away from zero), where
// [concLow, concHigh] is the first breakpoint segment containing the
// concentration, inclusive of both bounds. Each pollutant has six contiguous
// segments spanning Good (0–50) through Hazardous (301–500).
//
// Out-of-range policy:
//
//	above the last segment → 500 (the reporting ceiling)
//	negative or unmatched  → 0  (no contribution)
//
// The conversion never fails for a numeric input; callers are responsible
// for not passing NaN.
//
// When a reading carries both PM2.5 and PM10 concentrations the reported
// index is the maximum of the two per-pollutant indexes, matching how
// regulatory AQI is published (the dominant pollutant wins). A missing
// concentration contributes 0.
package domain
