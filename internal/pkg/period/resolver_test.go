package period

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Wednesday, 2023-06-14 15:04:05
var testNow = time.Date(2023, time.June, 14, 15, 4, 5, 0, time.UTC)

func TestPrimaryRanges(t *testing.T) {
	rv := NewResolver(fixedClock(testNow))

	testCases := []struct {
		preset Preset
		start  time.Time
		end    time.Time
	}{
		{PresetToday, day(2023, time.June, 14), day(2023, time.June, 14)},
		{PresetYesterday, day(2023, time.June, 13), day(2023, time.June, 13)},
		// 2023-06-14 is a Wednesday; the Sunday-start week begins on 06-11.
		{PresetThisWeek, day(2023, time.June, 11), day(2023, time.June, 14)},
		{PresetLast7Days, day(2023, time.June, 8), day(2023, time.June, 14)},
		{PresetLast14Days, day(2023, time.June, 1), day(2023, time.June, 14)},
		{PresetLast30Days, day(2023, time.May, 16), day(2023, time.June, 14)},
		{PresetLast90Days, day(2023, time.March, 17), day(2023, time.June, 14)},
		{PresetThisMonth, day(2023, time.June, 1), day(2023, time.June, 14)},
		{PresetLastMonth, day(2023, time.May, 1), day(2023, time.May, 31)},
		{PresetThisYear, day(2023, time.January, 1), day(2023, time.June, 14)},
		{PresetLastYear, day(2022, time.January, 1), day(2022, time.December, 31)},
	}

	for _, tc := range testCases {
		t.Run(string(tc.preset), func(t *testing.T) {
			r := rv.Primary(tc.preset, nil)
			assert.Equal(t, tc.start, r.Start)
			assert.Equal(t, tc.end, r.End)
			assert.True(t, r.Valid())
		})
	}
}

func TestPrimaryCustom(t *testing.T) {
	rv := NewResolver(fixedClock(testNow))

	custom := Range{Start: day(2023, time.April, 1), End: day(2023, time.April, 10)}
	assert.Equal(t, custom, rv.Primary(PresetCustom, &custom))

	// a missing custom range degrades to today rather than failing
	assert.Equal(t, singleDay(day(2023, time.June, 14)), rv.Primary(PresetCustom, nil))
}

func TestPrimaryAlwaysValid(t *testing.T) {
	presets := []Preset{
		PresetToday, PresetYesterday, PresetThisWeek, PresetLast7Days, PresetLast14Days,
		PresetLast30Days, PresetLast90Days, PresetThisMonth, PresetLastMonth,
		PresetThisYear, PresetLastYear,
	}
	// sweep a year of clock values to catch boundary slips
	for i := 0; i < 366; i++ {
		now := testNow.AddDate(0, 0, i-183)
		rv := NewResolver(fixedClock(now))
		for _, p := range presets {
			r := rv.Primary(p, nil)
			assert.Truef(t, r.Valid(), "preset %s at %s resolved to invalid range %s", p, now, r)
		}
	}
}

func TestComparisonDisabled(t *testing.T) {
	rv := NewResolver(fixedClock(testNow))
	primary := rv.Primary(PresetLast7Days, nil)

	assert.Nil(t, rv.Comparison(primary, PresetLast7Days, ComparisonConfig{Enabled: false, Preset: CompareAuto}))
	assert.Nil(t, rv.Comparison(primary, PresetLast7Days, ComparisonConfig{Enabled: true, Preset: CompareOff}))
	assert.Nil(t, rv.Comparison(primary, PresetLast7Days, ComparisonConfig{Enabled: true, Preset: CompareCustom}))
}

func TestComparisonAutoLast7Days(t *testing.T) {
	rv := NewResolver(fixedClock(testNow))
	primary := rv.Primary(PresetLast7Days, nil)
	require.Equal(t, day(2023, time.June, 8), primary.Start)

	cmp := rv.Comparison(primary, PresetLast7Days, ComparisonConfig{Enabled: true, Preset: CompareAuto})
	require.NotNil(t, cmp)

	// contiguous, non-overlapping, equal length
	assert.Equal(t, day(2023, time.June, 1), cmp.Start)
	assert.Equal(t, day(2023, time.June, 7), cmp.End)
	assert.Equal(t, primary.Days(), cmp.Days())
}

func TestComparisonAutoMirrors(t *testing.T) {
	rv := NewResolver(fixedClock(testNow))
	auto := ComparisonConfig{Enabled: true, Preset: CompareAuto}

	testCases := []struct {
		name   string
		preset Preset
		start  time.Time
		end    time.Time
	}{
		{"today mirrors yesterday", PresetToday, day(2023, time.June, 13), day(2023, time.June, 13)},
		{"thisWeek mirrors prior week span", PresetThisWeek, day(2023, time.June, 4), day(2023, time.June, 7)},
		{"last14Days precedes contiguously", PresetLast14Days, day(2023, time.May, 18), day(2023, time.May, 31)},
		{"thisMonth mirrors day-of-month span", PresetThisMonth, day(2023, time.May, 1), day(2023, time.May, 14)},
		{"lastMonth goes two months back", PresetLastMonth, day(2023, time.April, 1), day(2023, time.April, 30)},
		{"thisYear shifts one year back", PresetThisYear, day(2022, time.January, 1), day(2022, time.June, 14)},
		{"yesterday falls back to preceding window", PresetYesterday, day(2023, time.June, 12), day(2023, time.June, 12)},
		{"last30Days falls back to preceding window", PresetLast30Days, day(2023, time.April, 16), day(2023, time.May, 15)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			primary := rv.Primary(tc.preset, nil)
			cmp := rv.Comparison(primary, tc.preset, auto)
			require.NotNil(t, cmp)
			assert.Equal(t, tc.start, cmp.Start)
			assert.Equal(t, tc.end, cmp.End)
		})
	}
}

func TestComparisonAutoCustomFallsBack(t *testing.T) {
	rv := NewResolver(fixedClock(testNow))

	primary := Range{Start: day(2023, time.June, 5), End: day(2023, time.June, 9)}
	cmp := rv.Comparison(primary, PresetCustom, ComparisonConfig{Enabled: true, Preset: CompareAuto})
	require.NotNil(t, cmp)

	// same duration, ending the day before the primary window starts
	assert.Equal(t, day(2023, time.May, 31), cmp.Start)
	assert.Equal(t, day(2023, time.June, 4), cmp.End)
	assert.Equal(t, 5, cmp.Days())
}

func TestComparisonFixedPresets(t *testing.T) {
	rv := NewResolver(fixedClock(testNow))
	primary := rv.Primary(PresetLast7Days, nil)

	t.Run("previousMonth", func(t *testing.T) {
		cmp := rv.Comparison(primary, PresetLast7Days, ComparisonConfig{Enabled: true, Preset: ComparePreviousMonth})
		require.NotNil(t, cmp)
		assert.Equal(t, day(2023, time.May, 1), cmp.Start)
		assert.Equal(t, day(2023, time.May, 31), cmp.End)
	})

	t.Run("previousQuarter", func(t *testing.T) {
		cmp := rv.Comparison(primary, PresetLast7Days, ComparisonConfig{Enabled: true, Preset: ComparePreviousQuarter})
		require.NotNil(t, cmp)
		assert.Equal(t, day(2023, time.January, 1), cmp.Start)
		assert.Equal(t, day(2023, time.March, 31), cmp.End)
	})

	t.Run("sameLastYear", func(t *testing.T) {
		cmp := rv.Comparison(primary, PresetLast7Days, ComparisonConfig{Enabled: true, Preset: CompareSameLastYear})
		require.NotNil(t, cmp)
		assert.Equal(t, day(2022, time.June, 8), cmp.Start)
		assert.Equal(t, day(2022, time.June, 14), cmp.End)
	})

	t.Run("custom verbatim", func(t *testing.T) {
		custom := Range{Start: day(2023, time.February, 1), End: day(2023, time.February, 28)}
		cmp := rv.Comparison(primary, PresetLast7Days, ComparisonConfig{Enabled: true, Preset: CompareCustom, CustomRange: &custom})
		require.NotNil(t, cmp)
		assert.Equal(t, custom, *cmp)
	})
}

func TestRangeDays(t *testing.T) {
	assert.Equal(t, 1, singleDay(day(2023, time.June, 14)).Days())
	assert.Equal(t, 7, Range{Start: day(2023, time.June, 8), End: day(2023, time.June, 14)}.Days())
	assert.Equal(t, 365, Range{Start: day(2022, time.January, 1), End: day(2022, time.December, 31)}.Days())
}

func TestRangeIncludes(t *testing.T) {
	r := Range{Start: day(2023, time.June, 8), End: day(2023, time.June, 14)}
	assert.True(t, r.Includes(time.Date(2023, time.June, 8, 23, 59, 0, 0, time.UTC)))
	assert.True(t, r.Includes(time.Date(2023, time.June, 14, 0, 0, 1, 0, time.UTC)))
	assert.False(t, r.Includes(day(2023, time.June, 15)))
	assert.False(t, r.Includes(day(2023, time.June, 7)))
}

func TestCanonicalPreset(t *testing.T) {
	for _, s := range []string{"thisMonth", "THISMONTH", "thismonth", "ThisMonth"} {
		p, ok := CanonicalPreset(s)
		require.Truef(t, ok, "canonicalize %q", s)
		assert.Equal(t, PresetThisMonth, p)
	}

	// a canonicalized mixed-case preset resolves like its canonical form,
	// not like an unknown preset
	rv := NewResolver(fixedClock(testNow))
	p, ok := CanonicalPreset("LASTMONTH")
	require.True(t, ok)
	assert.Equal(t, rv.Primary(PresetLastMonth, nil), rv.Primary(p, nil))

	_, ok = CanonicalPreset("fortnight")
	assert.False(t, ok)
	_, ok = CanonicalPreset("")
	assert.False(t, ok)
}

func TestCanonicalComparisonPreset(t *testing.T) {
	p, ok := CanonicalComparisonPreset("PREVIOUSQUARTER")
	require.True(t, ok)
	assert.Equal(t, ComparePreviousQuarter, p)

	p, ok = CanonicalComparisonPreset("off")
	require.True(t, ok)
	assert.Equal(t, CompareOff, p)

	_, ok = CanonicalComparisonPreset("")
	assert.False(t, ok)
}
