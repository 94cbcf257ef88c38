package period

import (
	"time"
)

// Resolver turns presets into concrete ranges. The clock is injected so that
// every preset is deterministic under test.
type Resolver struct {
	now func() time.Time
}

func NewResolver(now func() time.Time) *Resolver {
	if now == nil {
		now = time.Now
	}
	return &Resolver{now: now}
}

func (rv *Resolver) today() time.Time {
	return DateOf(rv.now())
}

// Primary resolves a primary preset into its date range, relative to the
// injected clock's local calendar. The custom range is consulted only for
// PresetCustom; a nil custom range degrades to today.
func (rv *Resolver) Primary(preset Preset, custom *Range) Range {
	d := rv.today()

	switch preset {
	case PresetToday:
		return singleDay(d)
	case PresetYesterday:
		return singleDay(d.AddDate(0, 0, -1))
	case PresetThisWeek:
		// Sunday-start week containing today.
		start := d.AddDate(0, 0, -int(d.Weekday()))
		return Range{Start: start, End: d}
	case PresetLast7Days:
		return Range{Start: d.AddDate(0, 0, -6), End: d}
	case PresetLast14Days:
		return Range{Start: d.AddDate(0, 0, -13), End: d}
	case PresetLast30Days:
		return Range{Start: d.AddDate(0, 0, -29), End: d}
	case PresetLast90Days:
		return Range{Start: d.AddDate(0, 0, -89), End: d}
	case PresetThisMonth:
		return Range{Start: firstOfMonth(d), End: d}
	case PresetLastMonth:
		return calendarMonth(firstOfMonth(d).AddDate(0, -1, 0))
	case PresetThisYear:
		return Range{Start: firstOfYear(d), End: d}
	case PresetLastYear:
		return calendarYear(firstOfYear(d).AddDate(-1, 0, 0))
	case PresetCustom:
		if custom != nil {
			return *custom
		}
		return singleDay(d)
	default:
		return singleDay(d)
	}
}

// Comparison derives the comparison range for the given primary range. It
// returns nil when comparison is disabled, switched off, or a custom
// comparison is selected without a range. It never fails: whenever a mirror
// cannot be derived from the primary preset, the same-duration window
// immediately preceding the primary range is used.
func (rv *Resolver) Comparison(primary Range, primaryPreset Preset, cfg ComparisonConfig) *Range {
	if !cfg.Enabled || cfg.Preset == CompareOff {
		return nil
	}

	switch cfg.Preset {
	case CompareCustom:
		return cfg.CustomRange
	case ComparePreviousMonth:
		r := calendarMonth(firstOfMonth(rv.today()).AddDate(0, -1, 0))
		return &r
	case ComparePreviousQuarter:
		r := previousQuarter(rv.today())
		return &r
	case CompareSameLastYear:
		r := Range{
			Start: primary.Start.AddDate(-1, 0, 0),
			End:   primary.End.AddDate(-1, 0, 0),
		}
		return &r
	case CompareAuto:
		r := rv.autoComparison(primary, primaryPreset)
		return &r
	default:
		r := precedingWindow(primary)
		return &r
	}
}

// autoComparison mirrors the primary preset one unit earlier.
func (rv *Resolver) autoComparison(primary Range, primaryPreset Preset) Range {
	switch primaryPreset {
	case PresetToday:
		return singleDay(rv.today().AddDate(0, 0, -1))
	case PresetThisWeek:
		// Prior week, same weekday span.
		return Range{
			Start: primary.Start.AddDate(0, 0, -7),
			End:   primary.End.AddDate(0, 0, -7),
		}
	case PresetLast7Days, PresetLast14Days:
		return precedingWindow(primary)
	case PresetThisMonth:
		// Same day-of-month span in the previous calendar month, not the full
		// previous month. Day-of-month overflow follows Go's date normalization.
		start := firstOfMonth(primary.Start).AddDate(0, -1, 0)
		end := time.Date(primary.End.Year(), primary.End.Month()-1, primary.End.Day(),
			0, 0, 0, 0, primary.End.Location())
		return Range{Start: start, End: end}
	case PresetLastMonth:
		// Full calendar month two months back.
		return calendarMonth(firstOfMonth(rv.today()).AddDate(0, -2, 0))
	case PresetThisYear:
		return Range{
			Start: primary.Start.AddDate(-1, 0, 0),
			End:   primary.End.AddDate(-1, 0, 0),
		}
	default:
		return precedingWindow(primary)
	}
}

// precedingWindow returns the window of identical duration ending the day
// before the primary window starts. This is the universal fallback.
func precedingWindow(primary Range) Range {
	n := primary.Days()
	end := primary.Start.AddDate(0, 0, -1)
	return Range{Start: end.AddDate(0, 0, -(n - 1)), End: end}
}

func firstOfMonth(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, d.Location())
}

func firstOfYear(d time.Time) time.Time {
	return time.Date(d.Year(), 1, 1, 0, 0, 0, 0, d.Location())
}

// calendarMonth expands the month containing d to its full bounds.
func calendarMonth(d time.Time) Range {
	start := firstOfMonth(d)
	return Range{Start: start, End: start.AddDate(0, 1, -1)}
}

// calendarYear expands the year containing d to its full bounds.
func calendarYear(d time.Time) Range {
	start := firstOfYear(d)
	return Range{Start: start, End: start.AddDate(1, 0, -1)}
}

// previousQuarter returns the full calendar quarter before the one containing d.
func previousQuarter(d time.Time) Range {
	qStartMonth := time.Month((int(d.Month())-1)/3*3 + 1)
	qStart := time.Date(d.Year(), qStartMonth, 1, 0, 0, 0, 0, d.Location())
	start := qStart.AddDate(0, -3, 0)
	return Range{Start: start, End: start.AddDate(0, 3, -1)}
}
