// Package period resolves named date-range presets into concrete calendar ranges,
// and derives the matching comparison range for period-over-period reporting.
package period

import (
	"strings"
	"time"
)

// Preset is a named shorthand for a primary date-range selection rule.
type Preset string

const (
	PresetToday      Preset = "today"
	PresetYesterday  Preset = "yesterday"
	PresetThisWeek   Preset = "thisWeek"
	PresetLast7Days  Preset = "last7Days"
	PresetLast14Days Preset = "last14Days"
	PresetLast30Days Preset = "last30Days"
	PresetLast90Days Preset = "last90Days"
	PresetThisMonth  Preset = "thisMonth"
	PresetLastMonth  Preset = "lastMonth"
	PresetThisYear   Preset = "thisYear"
	PresetLastYear   Preset = "lastYear"
	PresetCustom     Preset = "custom"
)

var presets = []Preset{
	PresetToday, PresetYesterday, PresetThisWeek, PresetLast7Days, PresetLast14Days,
	PresetLast30Days, PresetLast90Days, PresetThisMonth, PresetLastMonth,
	PresetThisYear, PresetLastYear, PresetCustom,
}

// CanonicalPreset matches s against the known presets ignoring case, so
// "THISMONTH" resolves like "thisMonth" instead of falling through to the
// resolver's default branch.
func CanonicalPreset(s string) (Preset, bool) {
	for _, p := range presets {
		if strings.EqualFold(s, string(p)) {
			return p, true
		}
	}
	return "", false
}

// ComparisonPreset selects how the comparison range is derived from the primary range.
type ComparisonPreset string

const (
	CompareAuto            ComparisonPreset = "auto"
	ComparePreviousMonth   ComparisonPreset = "previousMonth"
	ComparePreviousQuarter ComparisonPreset = "previousQuarter"
	CompareSameLastYear    ComparisonPreset = "sameLastYear"
	CompareCustom          ComparisonPreset = "custom"
	CompareOff             ComparisonPreset = "off"
)

var comparisonPresets = []ComparisonPreset{
	CompareAuto, ComparePreviousMonth, ComparePreviousQuarter,
	CompareSameLastYear, CompareCustom, CompareOff,
}

// CanonicalComparisonPreset matches s against the known comparison presets
// ignoring case.
func CanonicalComparisonPreset(s string) (ComparisonPreset, bool) {
	for _, p := range comparisonPresets {
		if strings.EqualFold(s, string(p)) {
			return p, true
		}
	}
	return "", false
}

// ComparisonConfig carries the comparison selection for one report request.
// Enabled=false suppresses comparison computation regardless of the preset.
type ComparisonConfig struct {
	Enabled     bool
	Preset      ComparisonPreset
	CustomRange *Range
}

// Range is an inclusive date range at day granularity. Start and End are
// normalized to midnight of their respective days.
type Range struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Valid reports whether the range is well-formed: Start <= End.
func (r Range) Valid() bool {
	return !r.Start.After(r.End)
}

// Days returns the inclusive length of the range in days. The count is
// calendar-based so daylight-saving shifts do not skew it.
func (r Range) Days() int {
	start := time.Date(r.Start.Year(), r.Start.Month(), r.Start.Day(), 0, 0, 0, 0, time.UTC)
	end := time.Date(r.End.Year(), r.End.Month(), r.End.Day(), 0, 0, 0, 0, time.UTC)
	return int(end.Sub(start).Hours()/24) + 1
}

// Includes reports whether t falls on a day covered by the range.
func (r Range) Includes(t time.Time) bool {
	d := DateOf(t)
	return !d.Before(r.Start) && !d.After(r.End)
}

const dateLayout = "2006-01-02"

// FormatStart renders the range start as the CRM boundary expects it.
func (r Range) FormatStart() string {
	return r.Start.Format(dateLayout)
}

// FormatEnd renders the range end as the CRM boundary expects it.
func (r Range) FormatEnd() string {
	return r.End.Format(dateLayout)
}

func (r Range) String() string {
	return r.FormatStart() + ".." + r.FormatEnd()
}

// ParseDate parses a calendar date in the wire format used by FormatStart.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(dateLayout, s)
}

// DateOf floors t to midnight of its day, keeping the location.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// NewRange builds a day-granular range from two instants.
func NewRange(start, end time.Time) Range {
	return Range{Start: DateOf(start), End: DateOf(end)}
}

func singleDay(d time.Time) Range {
	return Range{Start: d, End: d}
}
