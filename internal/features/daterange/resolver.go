package daterange

import "time"

type Preset string

const (
	PresetToday       Preset = "today"
	PresetYesterday   Preset = "yesterday"
	PresetLast7Days   Preset = "last_7_days"
	PresetLast30Days  Preset = "last_30_days"
	PresetThisMonth   Preset = "this_month"
	PresetLastMonth   Preset = "last_month"
	PresetThisQuarter Preset = "this_quarter"
	PresetLastQuarter Preset = "last_quarter"
	PresetThisYear    Preset = "this_year"
	PresetLastYear    Preset = "last_year"
)

// Range is an inclusive [Start, End] pair; End is the last second of the
// period.
type Range struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Resolve maps a named preset to concrete boundaries relative to now.
// Unrecognized presets default to last_30_days.
func Resolve(preset Preset) Range {
	return ResolveAt(preset, time.Now())
}

// ResolveAt is Resolve pinned to a reference instant. Previous periods are
// derived from the day before the current period's start, so month, quarter
// and year lengths come out right.
func ResolveAt(preset Preset, now time.Time) Range {
	switch preset {
	case PresetToday:
		start := startOfDay(now)
		return Range{Start: start, End: endOfDay(start)}
	case PresetYesterday:
		start := startOfDay(now.AddDate(0, 0, -1))
		return Range{Start: start, End: endOfDay(start)}
	case PresetLast7Days:
		return Range{Start: startOfDay(now.AddDate(0, 0, -6)), End: endOfDay(now)}
	case PresetThisMonth:
		start := startOfMonth(now)
		return Range{Start: start, End: start.AddDate(0, 1, 0).Add(-time.Second)}
	case PresetLastMonth:
		anchor := startOfMonth(now).AddDate(0, 0, -1)
		start := startOfMonth(anchor)
		return Range{Start: start, End: start.AddDate(0, 1, 0).Add(-time.Second)}
	case PresetThisQuarter:
		start := startOfQuarter(now)
		return Range{Start: start, End: start.AddDate(0, 3, 0).Add(-time.Second)}
	case PresetLastQuarter:
		anchor := startOfQuarter(now).AddDate(0, 0, -1)
		start := startOfQuarter(anchor)
		return Range{Start: start, End: start.AddDate(0, 3, 0).Add(-time.Second)}
	case PresetThisYear:
		start := startOfYear(now)
		return Range{Start: start, End: start.AddDate(1, 0, 0).Add(-time.Second)}
	case PresetLastYear:
		anchor := startOfYear(now).AddDate(0, 0, -1)
		start := startOfYear(anchor)
		return Range{Start: start, End: start.AddDate(1, 0, 0).Add(-time.Second)}
	case PresetLast30Days:
		return Range{Start: startOfDay(now.AddDate(0, 0, -29)), End: endOfDay(now)}
	default:
		return Range{Start: startOfDay(now.AddDate(0, 0, -29)), End: endOfDay(now)}
	}
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return startOfDay(t).AddDate(0, 0, 1).Add(-time.Second)
}

func startOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

func startOfQuarter(t time.Time) time.Time {
	quarterMonth := time.Month(((int(t.Month())-1)/3)*3 + 1)
	return time.Date(t.Year(), quarterMonth, 1, 0, 0, 0, 0, t.Location())
}

func startOfYear(t time.Time) time.Time {
	return time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, t.Location())
}
